package port

import (
	"context"

	"github.com/papertrade/sandbox-engine/internal/domain"
)

// Cache stores the latest published order-book snapshot per symbol so read
// traffic from the UI does not have to contend with the engine lock.
type Cache interface {
	SetBook(ctx context.Context, symbol string, snap *domain.BookSnapshot) error
	GetBook(ctx context.Context, symbol string) (*domain.BookSnapshot, error)
}
