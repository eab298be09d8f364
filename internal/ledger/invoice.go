package ledger

import (
	"time"

	"github.com/shopspring/decimal"

	"nexostock/backend/internal/domain"
	"nexostock/backend/internal/xid"
)

func (e *Engine) InvoiceCart() domain.InvoiceCart {
	e.mu.Lock()
	defer e.mu.Unlock()

	cart := domain.InvoiceCart{
		Items:    append([]domain.CartItem(nil), e.invoiceItems...),
		Subtotal: decimal.Zero,
		Profit:   decimal.Zero,
	}
	for _, item := range e.invoiceItems {
		total, cost := lineTotals(item)
		cart.Subtotal = cart.Subtotal.Add(total)
		cart.Profit = cart.Profit.Add(total.Sub(cost))
	}
	return cart
}

func (e *Engine) AddToInvoice(productID string, quantity decimal.Decimal) (domain.CartItem, error) {
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
		return domain.CartItem{}, ErrInsufficientStock
	}

	item := domain.CartItem{
		ProductID: p.ID,
		Name:      p.Name,
		Quantity:  quantity,
		Price:     p.SellingPrice,
		Cost:      p.PurchasePrice,
		Unit:      p.Unit,
	}
	e.invoiceItems = append(e.invoiceItems, item)
	e.markDirty()
	return item, nil
}

func (e *Engine) RemoveFromInvoice(index int) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if index < 0 || index >= len(e.invoiceItems) {
		return ErrIndexOutOfRange
	}
	e.invoiceItems = append(e.invoiceItems[:index], e.invoiceItems[index+1:]...)
	e.markDirty()
	return nil
}

// CommitInvoice turns the pending cart into a Sale, reduces product stock
// and clears the cart, all under one lock. The stock reduction is not
// clamped: committing more than the current stock leaves it negative.
func (e *Engine) CommitInvoice() (domain.Sale, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if len(e.invoiceItems) == 0 {
		return domain.Sale{}, ErrEmptyInvoice
	}

	sale := domain.Sale{
		ID:     xid.New("sale"),
		Date:   time.Now(),
		Items:  make([]domain.SaleLine, 0, len(e.invoiceItems)),
		Total:  decimal.Zero,
		Cost:   decimal.Zero,
		Profit: decimal.Zero,
	}
	for _, item := range e.invoiceItems {
		total, cost := lineTotals(item)
		sale.Items = append(sale.Items, domain.SaleLine{
			ProductID: item.ProductID,
			Quantity:  item.Quantity,
			Total:     total,
			Profit:    total.Sub(cost),
		})
		sale.Total = sale.Total.Add(total)
		sale.Cost = sale.Cost.Add(cost)
	}
	sale.Profit = sale.Total.Sub(sale.Cost)

	e.sales = append(e.sales, sale)

	// Products deleted since the item was added are skipped; the sale line
	// is still recorded.
	for _, item := range e.invoiceItems {
		if p := e.findProduct(item.ProductID); p != nil {
			p.Stock = p.Stock.Sub(item.Quantity)
		}
	}

	e.invoiceItems = nil
	e.markDirty()
	return cloneSale(sale), nil
}

// lineTotals returns the rounded revenue and cost of one cart line.
func lineTotals(item domain.CartItem) (total decimal.Decimal, cost decimal.Decimal) {
	total = item.Quantity.Mul(item.Price).Round(2)
	cost = item.Quantity.Mul(item.Cost).Round(2)
	return total, cost
}
