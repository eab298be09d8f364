// Package blobstore persists whole application collections as JSON blobs
// under well-known string keys.
package blobstore

import (
	"context"
	"errors"
	"sync"
)

// Well-known keys. Each holds the JSON encoding of one collection.
const (
	KeyProducts         = "products"
	KeyBrands           = "brands"
	KeyCategories       = "categories"
	KeyInvoiceItems     = "invoiceItems"
	KeyMixItems         = "mixItems"
	KeySales            = "sales"
	KeyProviders        = "providers"
	KeyClosureHistory   = "closureHistory"
	KeyDailyCashClosure = "dailyCashClosure"
	KeyTheme            = "theme"
)

var ErrNotFound = errors.New("blob not found")

type Store interface {
	Load(ctx context.Context, key string) ([]byte, error)
	Save(ctx context.Context, key string, blob []byte) error
	Close() error
}

// Memory keeps blobs in process memory. It is the fallback store and the
// default for tests.
type Memory struct {
	mu    sync.RWMutex
	blobs map[string][]byte
}

func NewMemory() *Memory {
	return &Memory{blobs: make(map[string][]byte)}
}

func (m *Memory) Load(_ context.Context, key string) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	blob, ok := m.blobs[key]
	if !ok {
		return nil, ErrNotFound
	}
	out := make([]byte, len(blob))
	copy(out, blob)
	return out, nil
}

func (m *Memory) Save(_ context.Context, key string, blob []byte) error {
	stored := make([]byte, len(blob))
	copy(stored, blob)
	m.mu.Lock()
	m.blobs[key] = stored
	m.mu.Unlock()
	return nil
}

func (m *Memory) Close() error {
	return nil
}
