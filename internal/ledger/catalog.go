package ledger

import (
	"slices"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"nexostock/backend/internal/domain"
	"nexostock/backend/internal/xid"
)

func (e *Engine) Products() []domain.Product {
	e.mu.Lock()
	defer e.mu.Unlock()

	out := make([]domain.Product, 0, len(e.products))
	for _, p := range e.products {
		out = append(out, cloneProduct(p))
	}
	slices.SortFunc(out, func(a, b domain.Product) int {
		return cmpString(strings.ToLower(a.Name), strings.ToLower(b.Name))
	})
	return out
}

func (e *Engine) Product(id string) (domain.Product, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	p := e.findProduct(id)
	if p == nil {
		return domain.Product{}, ErrNotFound
	}
	return cloneProduct(*p), nil
}

func (e *Engine) AddProduct(req domain.ProductCreateRequest) (domain.Product, error) {
	name := strings.TrimSpace(req.Name)
	code := strings.ToUpper(strings.TrimSpace(req.Code))
	if name == "" || code == "" {
		return domain.Product{}, ErrInvalidName
	}
	if !domain.ValidUnit(req.MeasurementType, req.Unit) {
		return domain.Product{}, ErrInvalidName
	}
	if req.Stock.IsNegative() || req.MinStock.IsNegative() {
		return domain.Product{}, ErrInvalidQuantity
	}

	purchase := req.PurchasePrice
	if purchase.IsNegative() {
		purchase = decimal.Zero
	}
	now := time.Now().UTC()

	product := domain.Product{
		ID:              xid.New("prod"),
		Code:            code,
		Name:            name,
		Brand:           strings.TrimSpace(req.Brand),
		Category:        strings.TrimSpace(req.Category),
		Stock:           req.Stock,
		MinStock:        req.MinStock,
		PurchasePrice:   purchase,
		SellingPrice:    applyMargin(purchase),
		Unit:            req.Unit,
		MeasurementType: req.MeasurementType,
		CreatedAt:       now,
	}
	product.PriceHistory = []domain.PriceSnapshot{{
		Date:          now,
		PurchasePrice: product.PurchasePrice,
		SellingPrice:  product.SellingPrice,
	}}

	e.mu.Lock()
	defer e.mu.Unlock()

	for _, p := range e.products {
		if strings.EqualFold(p.Code, code) {
			return domain.Product{}, ErrDuplicateName
		}
	}

	e.products = append(e.products, product)
	e.markDirty()
	return cloneProduct(product), nil
}

// SetPurchasePrice clamps the new purchase price at zero and re-derives the
// selling price with the 30% margin. Mix and fraction products keep the
// selling price they were created with.
func (e *Engine) SetPurchasePrice(id string, price decimal.Decimal) (domain.Product, error) {
	if price.IsNegative() {
		price = decimal.Zero
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	p := e.findProduct(id)
	if p == nil {
		return domain.Product{}, ErrNotFound
	}

	p.PurchasePrice = price
	if !p.IsFractioned && !p.IsMix() {
		p.SellingPrice = applyMargin(price)
	}
	p.PriceHistory = append(p.PriceHistory, domain.PriceSnapshot{
		Date:          time.Now().UTC(),
		PurchasePrice: p.PurchasePrice,
		SellingPrice:  p.SellingPrice,
	})
	e.markDirty()
	return cloneProduct(*p), nil
}

// AdjustStock applies a relative change and clamps the result at zero.
func (e *Engine) AdjustStock(id string, change decimal.Decimal) (domain.Product, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	p := e.findProduct(id)
	if p == nil {
		return domain.Product{}, ErrNotFound
	}

	next := p.Stock.Add(change)
	if next.IsNegative() {
		next = decimal.Zero
	}
	p.Stock = next
	e.markDirty()
	return cloneProduct(*p), nil
}

// DeleteProduct removes the product from the catalog. Historical sales are
// never touched; the returned flag warns that some reference the product.
func (e *Engine) DeleteProduct(id string) (hadSales bool, err error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.findProduct(id) == nil {
		return false, ErrNotFound
	}

	for _, sale := range e.sales {
		for _, line := range sale.Items {
			if line.ProductID == id {
				hadSales = true
			}
		}
	}

	e.products = slices.DeleteFunc(e.products, func(p domain.Product) bool {
		return p.ID == id
	})
	e.markDirty()
	return hadSales, nil
}

func (e *Engine) ProductSalesStats(id string) (domain.ProductSalesStats, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.findProduct(id) == nil {
		return domain.ProductSalesStats{}, ErrNotFound
	}

	stats := domain.ProductSalesStats{
		TotalQuantitySold: decimal.Zero,
		TotalRevenue:      decimal.Zero,
		TotalProfit:       decimal.Zero,
	}
	for _, sale := range e.sales {
		counted := false
		for _, line := range sale.Items {
			if line.ProductID != id {
				continue
			}
			stats.TotalQuantitySold = stats.TotalQuantitySold.Add(line.Quantity)
			stats.TotalRevenue = stats.TotalRevenue.Add(line.Total)
			stats.TotalProfit = stats.TotalProfit.Add(line.Profit)
			counted = true
		}
		if counted {
			stats.SalesCount++
		}
	}
	return stats, nil
}

func (e *Engine) Brands() []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := append([]string(nil), e.brands...)
	slices.SortFunc(out, func(a, b string) int {
		return cmpString(strings.ToLower(a), strings.ToLower(b))
	})
	return out
}

func (e *Engine) AddBrand(name string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	added, err := addName(&e.brands, name)
	if err != nil {
		return err
	}
	if added {
		e.markDirty()
	}
	return nil
}

func (e *Engine) DeleteBrand(name string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	before := len(e.brands)
	e.brands = slices.DeleteFunc(e.brands, func(b string) bool {
		return strings.EqualFold(b, strings.TrimSpace(name))
	})
	if len(e.brands) != before {
		e.markDirty()
	}
}

func (e *Engine) Categories() []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := append([]string(nil), e.categories...)
	slices.SortFunc(out, func(a, b string) int {
		return cmpString(strings.ToLower(a), strings.ToLower(b))
	})
	return out
}

func (e *Engine) AddCategory(name string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	added, err := addName(&e.categories, name)
	if err != nil {
		return err
	}
	if added {
		e.markDirty()
	}
	return nil
}

func (e *Engine) DeleteCategory(name string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	before := len(e.categories)
	e.categories = slices.DeleteFunc(e.categories, func(c string) bool {
		return strings.EqualFold(c, strings.TrimSpace(name))
	})
	if len(e.categories) != before {
		e.markDirty()
	}
}

// addName appends a trimmed name to a registry list, rejecting blanks and
// case-insensitive duplicates.
func addName(list *[]string, name string) (bool, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return false, ErrInvalidName
	}
	for _, existing := range *list {
		if strings.EqualFold(existing, name) {
			return false, ErrDuplicateName
		}
	}
	*list = append(*list, name)
	return true, nil
}

func (e *Engine) Providers() []domain.Provider {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := append([]domain.Provider(nil), e.providers...)
	slices.SortFunc(out, func(a, b domain.Provider) int {
		return cmpString(strings.ToLower(a.Name), strings.ToLower(b.Name))
	})
	return out
}

func (e *Engine) AddProvider(req domain.ProviderCreateRequest) (domain.Provider, error) {
	name := strings.TrimSpace(req.Name)
	contact := strings.TrimSpace(req.Contact)
	email := strings.TrimSpace(req.Email)
	phone := strings.TrimSpace(req.Phone)
	address := strings.TrimSpace(req.Address)
	if name == "" || contact == "" || email == "" || phone == "" || address == "" {
		return domain.Provider{}, ErrInvalidName
	}

	provider := domain.Provider{
		ID:        xid.New("prov"),
		Name:      name,
		Contact:   contact,
		Email:     email,
		Phone:     phone,
		Address:   address,
		CreatedAt: time.Now().UTC(),
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	e.providers = append(e.providers, provider)
	e.markDirty()
	return provider, nil
}

func (e *Engine) DeleteProvider(id string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	before := len(e.providers)
	e.providers = slices.DeleteFunc(e.providers, func(p domain.Provider) bool {
		return p.ID == id
	})
	if len(e.providers) == before {
		return ErrNotFound
	}
	e.markDirty()
	return nil
}

func (e *Engine) Dashboard() domain.DashboardStats {
	e.mu.Lock()
	defer e.mu.Unlock()

	stats := domain.DashboardStats{
		TotalProducts: len(e.products),
		SalesToday:    decimal.Zero,
		ProfitToday:   decimal.Zero,
	}
	for _, p := range e.products {
		if p.Stock.LessThanOrEqual(p.MinStock) {
			stats.LowStock++
		}
	}

	today := time.Now()
	for _, sale := range e.sales {
		if sameDay(sale.Date, today) {
			stats.SalesToday = stats.SalesToday.Add(sale.Total)
			stats.ProfitToday = stats.ProfitToday.Add(sale.Profit)
		}
	}
	return stats
}
