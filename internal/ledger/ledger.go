// Package ledger holds the in-memory product catalog, carts, sales history
// and cash closures, and mirrors every collection to a blob store.
package ledger

import (
	"errors"
	"strings"
	"sync"

	"github.com/shopspring/decimal"

	"nexostock/backend/internal/blobstore"
	"nexostock/backend/internal/domain"
)

var (
	ErrNotFound          = errors.New("resource not found")
	ErrInvalidQuantity   = errors.New("invalid quantity")
	ErrInsufficientStock = errors.New("insufficient stock")
	ErrDuplicateName     = errors.New("name already exists")
	ErrInvalidName       = errors.New("invalid name")
	ErrEmptyInvoice      = errors.New("invoice is empty")
	ErrNoSalesToClose    = errors.New("no sales to close")
	ErrIndexOutOfRange   = errors.New("index out of range")
)

const DefaultTheme = "light"

var marginRate = decimal.NewFromFloat(1.3)

// applyMargin derives a selling price from a purchase price with the fixed
// 30% margin, rounded to 2 decimals.
func applyMargin(purchase decimal.Decimal) decimal.Decimal {
	return purchase.Mul(marginRate).Round(2)
}

// Engine owns all business state behind a single mutex. Mutations mark the
// state dirty; the mirror loop snapshots dirty state to the blob store.
type Engine struct {
	mu    sync.Mutex
	store blobstore.Store

	products     []domain.Product
	brands       []string
	categories   []string
	providers    []domain.Provider
	sales        []domain.Sale
	invoiceItems []domain.CartItem
	mixItems     []domain.CartItem
	closures     []domain.CashClosure
	lastClosure  *domain.CashClosure
	theme        string

	dirty bool
}

func New(store blobstore.Store) *Engine {
	return &Engine{
		store: store,
		theme: DefaultTheme,
	}
}

// markDirty must be called with e.mu held.
func (e *Engine) markDirty() {
	e.dirty = true
}

// findProduct must be called with e.mu held. The returned pointer aliases
// the engine's own slice entry.
func (e *Engine) findProduct(id string) *domain.Product {
	for i := range e.products {
		if e.products[i].ID == id {
			return &e.products[i]
		}
	}
	return nil
}

func (e *Engine) Theme() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.theme
}

func (e *Engine) SetTheme(theme string) error {
	theme = strings.TrimSpace(theme)
	if theme == "" {
		return ErrInvalidName
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	e.theme = theme
	e.markDirty()
	return nil
}

func cloneProduct(p domain.Product) domain.Product {
	out := p
	if p.Composition != nil {
		out.Composition = append([]domain.MixComponent(nil), p.Composition...)
	}
	if p.PriceHistory != nil {
		out.PriceHistory = append([]domain.PriceSnapshot(nil), p.PriceHistory...)
	}
	return out
}

func cloneSale(s domain.Sale) domain.Sale {
	out := s
	out.Items = append([]domain.SaleLine(nil), s.Items...)
	return out
}

func cloneClosure(c domain.CashClosure) domain.CashClosure {
	out := c
	out.ProductsSummary = make(map[string]domain.ProductTally, len(c.ProductsSummary))
	for name, tally := range c.ProductsSummary {
		out.ProductsSummary[name] = tally
	}
	return out
}

func cmpString(a string, b string) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}
