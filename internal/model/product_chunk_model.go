package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/pgvector/pgvector-go"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type ProductChunk struct {
	Id              uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	ChunkKey        string    `gorm:"uniqueIndex;not null"`
	ProductId       string    `gorm:"index;not null"`
	ProductName     string    `gorm:"not null"`
	BankingType     string    `gorm:"index"`
	ProductType     string    `gorm:"index"`
	FeatureCategory string
	Tier            string `gorm:"index"`
	Category        string
	Section         string
	Subsection      string
	Content         string `gorm:"type:text"`
	SourceFile      string

	UseCases           datatypes.JSON
	EmploymentSuitable datatypes.JSON
	Keywords           datatypes.JSON

	EmbeddingValue pgvector.Vector `gorm:"type:vector(768)"` // nomic-embed-text uses 768 dimensions

	CreatedAt time.Time      `gorm:"autoCreateTime"`
	UpdatedAt time.Time      `gorm:"autoUpdateTime"`
	DeletedAt gorm.DeletedAt `gorm:"index"`
}

func (ProductChunk) TableName() string {
	return "product_chunks"
}
