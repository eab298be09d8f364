package ledger

import (
	"slices"
	"time"

	"github.com/shopspring/decimal"

	"nexostock/backend/internal/domain"
	"nexostock/backend/internal/xid"
)

const dateLayout = "2006-01-02"

// sameDay compares calendar days in the server's local time zone.
func sameDay(a time.Time, b time.Time) bool {
	ay, am, ad := a.Local().Date()
	by, bm, bd := b.Local().Date()
	return ay == by && am == bm && ad == bd
}

// salesOn must be called with e.mu held.
func (e *Engine) salesOn(date time.Time) []domain.Sale {
	var out []domain.Sale
	for _, sale := range e.sales {
		if sameDay(sale.Date, date) {
			out = append(out, sale)
		}
	}
	return out
}

// tallyProducts groups sale lines by the product's current name. Lines whose
// product no longer exists are grouped under the deleted-product label.
// Must be called with e.mu held.
func (e *Engine) tallyProducts(sales []domain.Sale) map[string]domain.ProductTally {
	summary := make(map[string]domain.ProductTally)
	for _, sale := range sales {
		for _, line := range sale.Items {
			key := domain.DeletedProductLabel
			unit := ""
			if p := e.findProduct(line.ProductID); p != nil {
				key = p.Name
				unit = p.Unit
			}
			tally, ok := summary[key]
			if !ok {
				tally = domain.ProductTally{
					Quantity:     decimal.Zero,
					TotalRevenue: decimal.Zero,
					TotalProfit:  decimal.Zero,
					Unit:         unit,
				}
			}
			tally.Quantity = tally.Quantity.Add(line.Quantity)
			tally.TotalRevenue = tally.TotalRevenue.Add(line.Total)
			tally.TotalProfit = tally.TotalProfit.Add(line.Profit)
			summary[key] = tally
		}
	}
	return summary
}

func (e *Engine) DailySummary(date time.Time) domain.DailySummary {
	e.mu.Lock()
	defer e.mu.Unlock()

	daySales := e.salesOn(date)
	summary := domain.DailySummary{
		Date:           date.Local().Format(dateLayout),
		Sales:          decimal.Zero,
		Costs:          decimal.Zero,
		Profit:         decimal.Zero,
		Transactions:   len(daySales),
		TotalItemsSold: decimal.Zero,
	}
	for _, sale := range daySales {
		summary.Sales = summary.Sales.Add(sale.Total)
		summary.Costs = summary.Costs.Add(sale.Cost)
		summary.Profit = summary.Profit.Add(sale.Profit)
	}

	summary.ProductsSummary = e.tallyProducts(daySales)
	for _, tally := range summary.ProductsSummary {
		summary.TotalItemsSold = summary.TotalItemsSold.Add(tally.Quantity)
	}

	summary.SalesList = make([]domain.Sale, 0, len(daySales))
	for _, sale := range daySales {
		summary.SalesList = append(summary.SalesList, cloneSale(sale))
	}
	slices.SortFunc(summary.SalesList, func(a, b domain.Sale) int {
		return b.Date.Compare(a.Date)
	})
	return summary
}

func (e *Engine) MonthlySummary(month time.Month, year int) domain.MonthlySummary {
	e.mu.Lock()
	defer e.mu.Unlock()

	summary := domain.MonthlySummary{
		Month:  int(month),
		Year:   year,
		Sales:  decimal.Zero,
		Costs:  decimal.Zero,
		Profit: decimal.Zero,
	}

	perDay := make(map[string]*domain.MonthlyDay)
	for _, sale := range e.sales {
		local := sale.Date.Local()
		if local.Month() != month || local.Year() != year {
			continue
		}
		summary.Sales = summary.Sales.Add(sale.Total)
		summary.Costs = summary.Costs.Add(sale.Cost)
		summary.Profit = summary.Profit.Add(sale.Profit)
		summary.Transactions++

		key := local.Format(dateLayout)
		day, ok := perDay[key]
		if !ok {
			day = &domain.MonthlyDay{Date: key, Sales: decimal.Zero, Profit: decimal.Zero}
			perDay[key] = day
		}
		day.Sales = day.Sales.Add(sale.Total)
		day.Profit = day.Profit.Add(sale.Profit)
		day.Transactions++
	}

	summary.Days = make([]domain.MonthlyDay, 0, len(perDay))
	for _, day := range perDay {
		summary.Days = append(summary.Days, *day)
	}
	slices.SortFunc(summary.Days, func(a, b domain.MonthlyDay) int {
		return cmpString(a.Date, b.Date)
	})
	return summary
}

// CloseCashRegister snapshots today's totals into a closure record. Closing
// is not idempotent: a second close on the same day appends a second record.
func (e *Engine) CloseCashRegister(closedBy string) (domain.CashClosure, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	now := time.Now()
	todaySales := e.salesOn(now)
	if len(todaySales) == 0 {
		return domain.CashClosure{}, ErrNoSalesToClose
	}

	closure := domain.CashClosure{
		ID:           xid.New("closure"),
		Date:         now.Local().Format(dateLayout),
		FullDate:     now,
		Sales:        decimal.Zero,
		Costs:        decimal.Zero,
		Profit:       decimal.Zero,
		Transactions: len(todaySales),
		ClosedBy:     closedBy,
		ClosedAt:     now.UTC(),
	}
	for _, sale := range todaySales {
		closure.Sales = closure.Sales.Add(sale.Total)
		closure.Costs = closure.Costs.Add(sale.Cost)
		closure.Profit = closure.Profit.Add(sale.Profit)
	}

	closure.ProductsSummary = e.tallyProducts(todaySales)
	closure.TotalItemsSold = decimal.Zero
	for _, tally := range closure.ProductsSummary {
		closure.TotalItemsSold = closure.TotalItemsSold.Add(tally.Quantity)
	}

	e.closures = append(e.closures, closure)
	last := cloneClosure(closure)
	e.lastClosure = &last
	e.markDirty()
	return cloneClosure(closure), nil
}

func (e *Engine) Closures() []domain.CashClosure {
	e.mu.Lock()
	defer e.mu.Unlock()

	out := make([]domain.CashClosure, 0, len(e.closures))
	for _, c := range e.closures {
		out = append(out, cloneClosure(c))
	}
	slices.SortFunc(out, func(a, b domain.CashClosure) int {
		return b.FullDate.Compare(a.FullDate)
	})
	return out
}

// LastClosure returns the most recent closure, if any.
func (e *Engine) LastClosure() (domain.CashClosure, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.lastClosure == nil {
		return domain.CashClosure{}, false
	}
	return cloneClosure(*e.lastClosure), true
}

// DeleteClosure removes a closure record. The sales behind it are kept.
func (e *Engine) DeleteClosure(id string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	before := len(e.closures)
	e.closures = slices.DeleteFunc(e.closures, func(c domain.CashClosure) bool {
		return c.ID == id
	})
	if len(e.closures) == before {
		return ErrNotFound
	}
	if e.lastClosure != nil && e.lastClosure.ID == id {
		e.lastClosure = nil
	}
	e.markDirty()
	return nil
}
