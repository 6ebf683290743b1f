package specification

import "gorm.io/gorm"

// ByBankingType filters chunks by banking type (conventional/islami)
type ByBankingType struct {
	BankingType string
}

func (s ByBankingType) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("banking_type = ?", s.BankingType)
}

// ByTier filters chunks by product tier (gold/platinum/silver)
type ByTier struct {
	Tier string
}

func (s ByTier) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("tier = ?", s.Tier)
}

// ByProductType filters chunks by catalog product type (credit/debit/loan/savings)
type ByProductType struct {
	ProductType string
}

func (s ByProductType) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("product_type = ?", s.ProductType)
}

// BySourceFile filters chunks by the markdown file they came from
type BySourceFile struct {
	SourceFile string
}

func (s BySourceFile) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("source_file = ?", s.SourceFile)
}
