package entity

import (
	"time"

	"github.com/google/uuid"
)

// ProductChunk is one indexed slice of a product sheet with its embedding.
type ProductChunk struct {
	Id              uuid.UUID `gorm:"type:uuid;primaryKey"`
	ChunkKey        string
	ProductId       string
	ProductName     string
	BankingType     string
	ProductType     string
	FeatureCategory string
	Tier            string
	Category        string
	Section         string
	Subsection      string
	Content         string
	SourceFile      string

	UseCases           []string
	EmploymentSuitable []string
	Keywords           []string

	EmbeddingValue []float32

	CreatedAt time.Time
	UpdatedAt *time.Time
	DeletedAt *time.Time
	IsDeleted bool
}
