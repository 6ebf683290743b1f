package unitofwork

import (
	"context"

	"bank-advisor-be/internal/repository/contract"
)

type UnitOfWork interface {
	Begin(ctx context.Context) error
	Commit() error
	Rollback() error

	ProductChunkRepository() contract.ProductChunkRepository
}
