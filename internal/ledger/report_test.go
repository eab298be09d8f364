package ledger

import (
	"errors"
	"testing"
	"time"

	"nexostock/backend/internal/domain"
)

// sellNow commits a one-line sale for the given product and quantity.
func sellNow(t *testing.T, e *Engine, productID string, quantity string) domain.Sale {
	t.Helper()
	if _, err := e.AddToInvoice(productID, dec(quantity)); err != nil {
		t.Fatalf("add to invoice: %v", err)
	}
	sale, err := e.CommitInvoice()
	if err != nil {
		t.Fatalf("commit: %v", err)
	}
	return sale
}

func TestDailySummaryAggregatesSales(t *testing.T) {
	e := newTestEngine(t)

	sellNow(t, e, "1", "2")
	sellNow(t, e, "2", "1")

	summary := e.DailySummary(time.Now())
	if summary.Transactions != 2 {
		t.Fatalf("expected 2 transactions, got %d", summary.Transactions)
	}
	// 2*2.34 + 3.25 = 7.93 revenue, 2*1.80 + 2.50 = 6.10 cost.
	if got := summary.Sales.StringFixed(2); got != "7.93" {
		t.Fatalf("expected sales 7.93, got %s", got)
	}
	if got := summary.Costs.StringFixed(2); got != "6.10" {
		t.Fatalf("expected costs 6.10, got %s", got)
	}
	if got := summary.Profit.StringFixed(2); got != "1.83" {
		t.Fatalf("expected profit 1.83, got %s", got)
	}
	if got := summary.TotalItemsSold.StringFixed(0); got != "3" {
		t.Fatalf("expected 3 items sold, got %s", got)
	}
	if len(summary.SalesList) != 2 {
		t.Fatalf("expected 2 sales listed, got %d", len(summary.SalesList))
	}

	arroz, ok := summary.ProductsSummary["Arroz Blanco"]
	if !ok {
		t.Fatalf("expected Arroz Blanco in products summary, got %v", summary.ProductsSummary)
	}
	if got := arroz.Quantity.StringFixed(0); got != "2" {
		t.Fatalf("expected 2 kg of Arroz tallied, got %s", got)
	}
	if arroz.Unit != "kg" {
		t.Fatalf("expected unit kg, got %q", arroz.Unit)
	}
}

func TestDailySummaryForEmptyDay(t *testing.T) {
	e := newTestEngine(t)

	summary := e.DailySummary(time.Now().AddDate(0, 0, -7))
	if summary.Transactions != 0 {
		t.Fatalf("expected no transactions, got %d", summary.Transactions)
	}
	if !summary.Sales.IsZero() {
		t.Fatalf("expected zero sales, got %s", summary.Sales)
	}
}

func TestDailySummaryLabelsDeletedProducts(t *testing.T) {
	e := newTestEngine(t)

	sellNow(t, e, "1", "2")
	if _, err := e.DeleteProduct("1"); err != nil {
		t.Fatalf("delete product: %v", err)
	}

	summary := e.DailySummary(time.Now())
	tally, ok := summary.ProductsSummary[domain.DeletedProductLabel]
	if !ok {
		t.Fatalf("expected %q entry, got %v", domain.DeletedProductLabel, summary.ProductsSummary)
	}
	if got := tally.Quantity.StringFixed(0); got != "2" {
		t.Fatalf("expected 2 units under deleted label, got %s", got)
	}
}

func TestMonthlySummaryGroupsByDay(t *testing.T) {
	e := newTestEngine(t)

	sellNow(t, e, "1", "1")
	sellNow(t, e, "1", "1")

	now := time.Now()
	summary := e.MonthlySummary(now.Month(), now.Year())
	if summary.Transactions != 2 {
		t.Fatalf("expected 2 transactions, got %d", summary.Transactions)
	}
	if got := summary.Sales.StringFixed(2); got != "4.68" {
		t.Fatalf("expected sales 4.68, got %s", got)
	}
	if len(summary.Days) != 1 {
		t.Fatalf("expected a single day bucket, got %d", len(summary.Days))
	}
	if summary.Days[0].Transactions != 2 {
		t.Fatalf("expected 2 transactions in day bucket, got %d", summary.Days[0].Transactions)
	}

	empty := e.MonthlySummary(now.Month(), now.Year()-1)
	if empty.Transactions != 0 {
		t.Fatalf("expected no transactions last year, got %d", empty.Transactions)
	}
}

func TestCloseCashRegisterRequiresSales(t *testing.T) {
	e := newTestEngine(t)

	if _, err := e.CloseCashRegister("Administrador"); !errors.Is(err, ErrNoSalesToClose) {
		t.Fatalf("expected ErrNoSalesToClose, got %v", err)
	}
}

func TestCloseCashRegisterSnapshotsDay(t *testing.T) {
	e := newTestEngine(t)

	sellNow(t, e, "1", "2")

	closure, err := e.CloseCashRegister("Administrador")
	if err != nil {
		t.Fatalf("close cash register: %v", err)
	}
	if got := closure.Sales.StringFixed(2); got != "4.68" {
		t.Fatalf("expected closure sales 4.68, got %s", got)
	}
	if closure.Transactions != 1 {
		t.Fatalf("expected 1 transaction, got %d", closure.Transactions)
	}
	if closure.ClosedBy != "Administrador" {
		t.Fatalf("expected closedBy Administrador, got %q", closure.ClosedBy)
	}
	if got := closure.TotalItemsSold.StringFixed(0); got != "2" {
		t.Fatalf("expected 2 items sold, got %s", got)
	}
	if closure.Date != time.Now().Local().Format("2006-01-02") {
		t.Fatalf("unexpected closure date %q", closure.Date)
	}

	last, ok := e.LastClosure()
	if !ok || last.ID != closure.ID {
		t.Fatalf("expected last closure to match, got %v / %v", ok, last.ID)
	}

	// Closing again on the same day appends a second record.
	second, err := e.CloseCashRegister("Administrador")
	if err != nil {
		t.Fatalf("second close: %v", err)
	}
	if second.ID == closure.ID {
		t.Fatalf("expected distinct closure ids")
	}
	if got := len(e.Closures()); got != 2 {
		t.Fatalf("expected 2 closures in history, got %d", got)
	}
}

func TestClosuresSortedNewestFirst(t *testing.T) {
	e := newTestEngine(t)

	sellNow(t, e, "1", "1")
	first, err := e.CloseCashRegister("Administrador")
	if err != nil {
		t.Fatalf("close: %v", err)
	}
	time.Sleep(5 * time.Millisecond)
	second, err := e.CloseCashRegister("Administrador")
	if err != nil {
		t.Fatalf("close: %v", err)
	}

	closures := e.Closures()
	if len(closures) != 2 {
		t.Fatalf("expected 2 closures, got %d", len(closures))
	}
	if closures[0].ID != second.ID || closures[1].ID != first.ID {
		t.Fatalf("expected newest-first ordering")
	}
}

func TestDeleteClosureKeepsSales(t *testing.T) {
	e := newTestEngine(t)

	sellNow(t, e, "1", "1")
	closure, err := e.CloseCashRegister("Administrador")
	if err != nil {
		t.Fatalf("close: %v", err)
	}

	if err := e.DeleteClosure("missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if err := e.DeleteClosure(closure.ID); err != nil {
		t.Fatalf("delete closure: %v", err)
	}
	if got := len(e.Closures()); got != 0 {
		t.Fatalf("expected empty closure history, got %d", got)
	}

	// The day's sales are untouched and can be closed again.
	if _, err := e.CloseCashRegister("Administrador"); err != nil {
		t.Fatalf("expected sales to survive closure deletion, got %v", err)
	}
}
