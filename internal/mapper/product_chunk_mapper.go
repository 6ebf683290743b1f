package mapper

import (
	"encoding/json"
	"time"

	"bank-advisor-be/internal/entity"
	"bank-advisor-be/internal/model"

	"github.com/pgvector/pgvector-go"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type ProductChunkMapper struct{}

func NewProductChunkMapper() *ProductChunkMapper {
	return &ProductChunkMapper{}
}

func (m *ProductChunkMapper) ToEntity(c *model.ProductChunk) *entity.ProductChunk {
	if c == nil {
		return nil
	}

	var deletedAt *time.Time
	if c.DeletedAt.Valid {
		t := c.DeletedAt.Time
		deletedAt = &t
	}

	var updatedAt *time.Time
	if !c.UpdatedAt.IsZero() {
		t := c.UpdatedAt
		updatedAt = &t
	}

	return &entity.ProductChunk{
		Id:                 c.Id,
		ChunkKey:           c.ChunkKey,
		ProductId:          c.ProductId,
		ProductName:        c.ProductName,
		BankingType:        c.BankingType,
		ProductType:        c.ProductType,
		FeatureCategory:    c.FeatureCategory,
		Tier:               c.Tier,
		Category:           c.Category,
		Section:            c.Section,
		Subsection:         c.Subsection,
		Content:            c.Content,
		SourceFile:         c.SourceFile,
		UseCases:           fromJSONList(c.UseCases),
		EmploymentSuitable: fromJSONList(c.EmploymentSuitable),
		Keywords:           fromJSONList(c.Keywords),
		EmbeddingValue:     c.EmbeddingValue.Slice(),
		CreatedAt:          c.CreatedAt,
		UpdatedAt:          updatedAt,
		DeletedAt:          deletedAt,
		IsDeleted:          c.DeletedAt.Valid,
	}
}

func (m *ProductChunkMapper) ToModel(c *entity.ProductChunk) *model.ProductChunk {
	if c == nil {
		return nil
	}

	var deletedAt gorm.DeletedAt
	if c.DeletedAt != nil {
		deletedAt = gorm.DeletedAt{Time: *c.DeletedAt, Valid: true}
	} else if c.IsDeleted {
		deletedAt = gorm.DeletedAt{Time: time.Now(), Valid: true}
	}

	var updatedAt time.Time
	if c.UpdatedAt != nil {
		updatedAt = *c.UpdatedAt
	}

	return &model.ProductChunk{
		Id:                 c.Id,
		ChunkKey:           c.ChunkKey,
		ProductId:          c.ProductId,
		ProductName:        c.ProductName,
		BankingType:        c.BankingType,
		ProductType:        c.ProductType,
		FeatureCategory:    c.FeatureCategory,
		Tier:               c.Tier,
		Category:           c.Category,
		Section:            c.Section,
		Subsection:         c.Subsection,
		Content:            c.Content,
		SourceFile:         c.SourceFile,
		UseCases:           toJSONList(c.UseCases),
		EmploymentSuitable: toJSONList(c.EmploymentSuitable),
		Keywords:           toJSONList(c.Keywords),
		EmbeddingValue:     pgvector.NewVector(c.EmbeddingValue),
		CreatedAt:          c.CreatedAt,
		UpdatedAt:          updatedAt,
		DeletedAt:          deletedAt,
	}
}

func (m *ProductChunkMapper) ToEntities(chunks []*model.ProductChunk) []*entity.ProductChunk {
	entities := make([]*entity.ProductChunk, len(chunks))
	for i, c := range chunks {
		entities[i] = m.ToEntity(c)
	}
	return entities
}

func (m *ProductChunkMapper) ToModels(chunks []*entity.ProductChunk) []*model.ProductChunk {
	models := make([]*model.ProductChunk, len(chunks))
	for i, c := range chunks {
		models[i] = m.ToModel(c)
	}
	return models
}

func toJSONList(values []string) datatypes.JSON {
	if values == nil {
		values = []string{}
	}
	b, err := json.Marshal(values)
	if err != nil {
		return datatypes.JSON("[]")
	}
	return datatypes.JSON(b)
}

func fromJSONList(data datatypes.JSON) []string {
	if len(data) == 0 {
		return nil
	}
	var values []string
	if err := json.Unmarshal(data, &values); err != nil {
		return nil
	}
	return values
}
