package ledger

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"nexostock/backend/internal/domain"
	"nexostock/backend/internal/xid"
)

func (e *Engine) MixCart() domain.MixCart {
	e.mu.Lock()
	defer e.mu.Unlock()

	cart := domain.MixCart{
		Items:     append([]domain.CartItem(nil), e.mixItems...),
		TotalCost: decimal.Zero,
	}
	for _, item := range e.mixItems {
		cart.TotalCost = cart.TotalCost.Add(item.Quantity.Mul(item.Cost).Round(2))
	}
	cart.SuggestedPrice = applyMargin(cart.TotalCost)
	return cart
}

// AddToMix validates 0 < quantity <= stock; anything outside that range is an
// invalid quantity for the mix cart.
func (e *Engine) AddToMix(productID string, quantity decimal.Decimal) (domain.CartItem, error) {
	if !quantity.IsPositive() {
		return domain.CartItem{}, ErrInvalidQuantity
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	p := e.findProduct(productID)
	if p == nil {
		return domain.CartItem{}, ErrNotFound
	}
	if quantity.GreaterThan(p.Stock) {
		return domain.CartItem{}, ErrInvalidQuantity
	}

	item := domain.CartItem{
		ProductID: p.ID,
		Name:      p.Name,
		Quantity:  quantity,
		Price:     p.SellingPrice,
		Cost:      p.PurchasePrice,
		Unit:      p.Unit,
	}
	e.mixItems = append(e.mixItems, item)
	e.markDirty()
	return item, nil
}

func (e *Engine) RemoveFromMix(index int) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if index < 0 || index >= len(e.mixItems) {
		return ErrIndexOutOfRange
	}
	e.mixItems = append(e.mixItems[:index], e.mixItems[index+1:]...)
	e.markDirty()
	return nil
}

// CreateMix assembles the pending mix cart into a new sellable product with
// an explicit selling price. Component stocks stay untouched; only selling
// the mix consumes it.
func (e *Engine) CreateMix(name string, sellingPrice decimal.Decimal) (domain.Product, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return domain.Product{}, ErrInvalidName
	}
	if sellingPrice.IsNegative() {
		sellingPrice = decimal.Zero
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	now := time.Now()
	totalCost := decimal.Zero
	composition := make([]domain.MixComponent, 0, len(e.mixItems))
	for _, item := range e.mixItems {
		totalCost = totalCost.Add(item.Quantity.Mul(item.Cost).Round(2))
		composition = append(composition, domain.MixComponent{
			ProductID:   item.ProductID,
			ProductName: item.Name,
			Quantity:    item.Quantity,
			Unit:        item.Unit,
		})
	}

	mix := domain.Product{
		ID:              xid.New("prod"),
		Code:            fmt.Sprintf("MIX-%d", now.UnixMilli()),
		Name:            name,
		Brand:           domain.MixBrand,
		Category:        domain.MixCategory,
		Stock:           decimal.NewFromInt(1),
		MinStock:        decimal.Zero,
		PurchasePrice:   totalCost,
		SellingPrice:    sellingPrice,
		Unit:            domain.MixUnit,
		MeasurementType: domain.MeasurementQuantity,
		Composition:     composition,
		CreatedAt:       now.UTC(),
	}
	mix.PriceHistory = []domain.PriceSnapshot{{
		Date:          now.UTC(),
		PurchasePrice: totalCost,
		SellingPrice:  sellingPrice,
	}}

	e.products = append(e.products, mix)
	e.mixItems = nil
	e.markDirty()
	return cloneProduct(mix), nil
}

// FractionProduct splits quantity units off a source product into a new
// single-unit product. Either every effect applies or none does.
func (e *Engine) FractionProduct(productID string, quantity decimal.Decimal) (domain.Product, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	p := e.findProduct(productID)
	if p == nil {
		return domain.Product{}, ErrNotFound
	}
	if !quantity.IsPositive() || quantity.GreaterThan(p.Stock) {
		return domain.Product{}, ErrInvalidQuantity
	}

	now := time.Now().UTC()
	fraction := domain.Product{
		ID:                xid.New("prod"),
		Code:              fmt.Sprintf("%s-FRAC", p.Code),
		Name:              fmt.Sprintf("%s (%s %s)", p.Name, quantity.String(), p.Unit),
		Brand:             p.Brand,
		Category:          p.Category,
		Stock:             decimal.NewFromInt(1),
		MinStock:          decimal.Zero,
		PurchasePrice:     p.PurchasePrice.Mul(quantity).Round(2),
		SellingPrice:      p.SellingPrice.Mul(quantity).Round(2),
		Unit:              p.Unit,
		MeasurementType:   p.MeasurementType,
		IsFractioned:      true,
		OriginalProductID: p.ID,
		FractionQuantity:  quantity,
		CreatedAt:         now,
	}
	fraction.PriceHistory = []domain.PriceSnapshot{{
		Date:          now,
		PurchasePrice: fraction.PurchasePrice,
		SellingPrice:  fraction.SellingPrice,
	}}

	p.Stock = p.Stock.Sub(quantity)
	e.products = append(e.products, fraction)
	e.markDirty()
	return cloneProduct(fraction), nil
}
