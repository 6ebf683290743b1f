package contract

import (
	"context"

	"bank-advisor-be/internal/entity"
	"bank-advisor-be/internal/repository/specification"
	"bank-advisor-be/pkg/search"
)

// ProductChunkRepository persists the chunked knowledge base and serves the
// vector search behind product retrieval.
type ProductChunkRepository interface {
	CreateBulk(ctx context.Context, chunks []*entity.ProductChunk) error
	DeleteAll(ctx context.Context) error
	DeleteBySourceFile(ctx context.Context, sourceFile string) error
	Count(ctx context.Context, specs ...specification.Specification) (int64, error)
	FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.ProductChunk, error)
	ListProductNames(ctx context.Context, bankingType string) ([]string, error)

	// SearchSimilar satisfies search.ChunkStore.
	SearchSimilar(ctx context.Context, vector []float32, filters search.Filters, limit int) ([]search.ScoredChunk, error)
}
