package implementation

import (
	"context"

	"bank-advisor-be/internal/entity"
	"bank-advisor-be/internal/mapper"
	"bank-advisor-be/internal/model"
	"bank-advisor-be/internal/repository/contract"
	"bank-advisor-be/internal/repository/specification"
	"bank-advisor-be/pkg/search"

	"github.com/pgvector/pgvector-go"
	"gorm.io/gorm"
)

type ProductChunkRepositoryImpl struct {
	db     *gorm.DB
	mapper *mapper.ProductChunkMapper
}

func NewProductChunkRepository(db *gorm.DB) contract.ProductChunkRepository {
	return &ProductChunkRepositoryImpl{
		db:     db,
		mapper: mapper.NewProductChunkMapper(),
	}
}

func (r *ProductChunkRepositoryImpl) applySpecifications(db *gorm.DB, specs ...specification.Specification) *gorm.DB {
	for _, spec := range specs {
		db = spec.Apply(db)
	}
	return db
}

func (r *ProductChunkRepositoryImpl) CreateBulk(ctx context.Context, chunks []*entity.ProductChunk) error {
	if len(chunks) == 0 {
		return nil
	}

	models := r.mapper.ToModels(chunks)
	if err := r.db.WithContext(ctx).CreateInBatches(models, 100).Error; err != nil {
		return err
	}

	for i, m := range models {
		chunks[i].Id = m.Id
	}
	return nil
}

func (r *ProductChunkRepositoryImpl) DeleteAll(ctx context.Context) error {
	return r.db.WithContext(ctx).Unscoped().Where("1 = 1").Delete(&model.ProductChunk{}).Error
}

func (r *ProductChunkRepositoryImpl) DeleteBySourceFile(ctx context.Context, sourceFile string) error {
	query := r.applySpecifications(r.db.WithContext(ctx).Unscoped(),
		specification.BySourceFile{SourceFile: sourceFile})
	return query.Delete(&model.ProductChunk{}).Error
}

func (r *ProductChunkRepositoryImpl) Count(ctx context.Context, specs ...specification.Specification) (int64, error) {
	var count int64
	query := r.applySpecifications(r.db.WithContext(ctx), specs...)
	err := query.Model(&model.ProductChunk{}).Count(&count).Error
	return count, err
}

func (r *ProductChunkRepositoryImpl) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.ProductChunk, error) {
	var models []*model.ProductChunk
	query := r.applySpecifications(r.db.WithContext(ctx), specs...)
	if err := query.Find(&models).Error; err != nil {
		return nil, err
	}
	return r.mapper.ToEntities(models), nil
}

func (r *ProductChunkRepositoryImpl) ListProductNames(ctx context.Context, bankingType string) ([]string, error) {
	query := r.db.WithContext(ctx).
		Model(&model.ProductChunk{}).
		Distinct("product_name").
		Order("product_name ASC")
	if bankingType != "" {
		query = r.applySpecifications(query, specification.ByBankingType{BankingType: bankingType})
	}

	var names []string
	if err := query.Pluck("product_name", &names).Error; err != nil {
		return nil, err
	}
	return names, nil
}

// SearchSimilar runs cosine-similarity search over the chunk index with
// exact metadata filters. pgvector's <=> operator is cosine distance, so
// similarity is 1 - distance.
func (r *ProductChunkRepositoryImpl) SearchSimilar(ctx context.Context, vector []float32, filters search.Filters, limit int) ([]search.ScoredChunk, error) {
	if limit <= 0 {
		limit = 3
	}

	type result struct {
		model.ProductChunk
		Similarity float64
	}
	var results []result

	queryVector := pgvector.NewVector(vector)

	query := r.db.WithContext(ctx).
		Table("product_chunks").
		Select("product_chunks.*, 1 - (embedding_value <=> ?) as similarity", queryVector).
		Where("deleted_at IS NULL")

	if filters.BankingType != "" {
		query = query.Where("banking_type = ?", filters.BankingType)
	}
	if filters.Tier != "" {
		query = query.Where("tier = ?", filters.Tier)
	}
	if filters.ProductType != "" {
		query = query.Where("product_type = ?", filters.ProductType)
	}

	err := query.
		Order("similarity DESC").
		Limit(limit).
		Scan(&results).Error
	if err != nil {
		return nil, err
	}

	scored := make([]search.ScoredChunk, len(results))
	for i, res := range results {
		scored[i] = search.ScoredChunk{
			ChunkID:     res.ChunkKey,
			ProductName: res.ProductName,
			BankingType: res.BankingType,
			Tier:        res.Tier,
			Section:     res.Section,
			SourceFile:  res.SourceFile,
			Content:     res.Content,
			Similarity:  res.Similarity,
		}
	}
	return scored, nil
}
