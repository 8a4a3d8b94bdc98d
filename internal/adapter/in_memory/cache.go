package in_memory

import (
	"context"
	"sync"

	"github.com/papertrade/sandbox-engine/internal/domain"
	"github.com/papertrade/sandbox-engine/internal/port"
)

// Cache is the default in-process snapshot cache.
type Cache struct {
	mu    sync.Mutex
	store map[string]*domain.BookSnapshot
}

var _ port.Cache = (*Cache)(nil)

func NewCache() *Cache {
	return &Cache{store: make(map[string]*domain.BookSnapshot)}
}

func (c *Cache) SetBook(ctx context.Context, symbol string, snap *domain.BookSnapshot) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	dup := *snap
	c.store[symbol] = &dup
	return nil
}

func (c *Cache) GetBook(ctx context.Context, symbol string) (*domain.BookSnapshot, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	snap, ok := c.store[symbol]
	if !ok {
		return nil, nil
	}
	dup := *snap
	return &dup, nil
}
