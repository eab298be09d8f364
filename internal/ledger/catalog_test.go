package ledger

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"

	"nexostock/backend/internal/blobstore"
	"nexostock/backend/internal/domain"
)

// newTestEngine returns an engine started from the seed catalog backed by an
// in-memory blob store.
func newTestEngine(t *testing.T) *Engine {
	t.Helper()
	e := New(blobstore.NewMemory())
	e.Restore(context.Background())
	return e
}

func dec(value string) decimal.Decimal {
	return decimal.RequireFromString(value)
}

func TestSellingPriceDerivedFromPurchasePrice(t *testing.T) {
	e := newTestEngine(t)

	product, err := e.SetPurchasePrice("1", dec("2.00"))
	if err != nil {
		t.Fatalf("set purchase price: %v", err)
	}
	if got := product.SellingPrice.StringFixed(2); got != "2.60" {
		t.Fatalf("expected selling price 2.60, got %s", got)
	}
	if len(product.PriceHistory) != 2 {
		t.Fatalf("expected 2 price history entries, got %d", len(product.PriceHistory))
	}
}

func TestSellingPriceRoundsToTwoDecimals(t *testing.T) {
	e := newTestEngine(t)

	// 1.99 * 1.3 = 2.587, which must round to 2.59.
	product, err := e.SetPurchasePrice("1", dec("1.99"))
	if err != nil {
		t.Fatalf("set purchase price: %v", err)
	}
	if got := product.SellingPrice.StringFixed(2); got != "2.59" {
		t.Fatalf("expected selling price 2.59, got %s", got)
	}
}

func TestSetPurchasePriceClampsNegativeToZero(t *testing.T) {
	e := newTestEngine(t)

	product, err := e.SetPurchasePrice("1", dec("-5"))
	if err != nil {
		t.Fatalf("set purchase price: %v", err)
	}
	if !product.PurchasePrice.IsZero() {
		t.Fatalf("expected purchase price 0, got %s", product.PurchasePrice)
	}
	if !product.SellingPrice.IsZero() {
		t.Fatalf("expected selling price 0, got %s", product.SellingPrice)
	}
}

func TestSetPurchasePriceKeepsExplicitMixSellingPrice(t *testing.T) {
	e := newTestEngine(t)

	if _, err := e.AddToMix("1", dec("1")); err != nil {
		t.Fatalf("add to mix: %v", err)
	}
	mix, err := e.CreateMix("Mix Prueba", dec("6.00"))
	if err != nil {
		t.Fatalf("create mix: %v", err)
	}

	updated, err := e.SetPurchasePrice(mix.ID, dec("9.99"))
	if err != nil {
		t.Fatalf("set purchase price: %v", err)
	}
	if got := updated.SellingPrice.StringFixed(2); got != "6.00" {
		t.Fatalf("expected mix selling price to stay 6.00, got %s", got)
	}
	if got := updated.PurchasePrice.StringFixed(2); got != "9.99" {
		t.Fatalf("expected purchase price 9.99, got %s", got)
	}
}

func TestAdjustStockClampsAtZero(t *testing.T) {
	e := newTestEngine(t)

	// Seed product 4 starts with stock 5.
	product, err := e.AdjustStock("4", dec("-10"))
	if err != nil {
		t.Fatalf("adjust stock: %v", err)
	}
	if !product.Stock.IsZero() {
		t.Fatalf("expected stock clamped to 0, got %s", product.Stock)
	}

	product, err = e.AdjustStock("4", dec("3"))
	if err != nil {
		t.Fatalf("adjust stock: %v", err)
	}
	if got := product.Stock.StringFixed(0); got != "3" {
		t.Fatalf("expected stock 3, got %s", got)
	}
}

func TestAdjustStockUnknownProduct(t *testing.T) {
	e := newTestEngine(t)

	if _, err := e.AdjustStock("missing", dec("1")); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestAddProductDerivesMarginAndHistory(t *testing.T) {
	e := newTestEngine(t)

	product, err := e.AddProduct(domain.ProductCreateRequest{
		Code:            "fid001",
		Name:            "Fideos Tallarín",
		Brand:           "Marolio",
		Category:        "Harinas",
		Stock:           dec("40"),
		MinStock:        dec("10"),
		PurchasePrice:   dec("0.95"),
		Unit:            "kg",
		MeasurementType: domain.MeasurementWeight,
	})
	if err != nil {
		t.Fatalf("add product: %v", err)
	}
	if product.Code != "FID001" {
		t.Fatalf("expected uppercased code FID001, got %s", product.Code)
	}
	if got := product.SellingPrice.StringFixed(2); got != "1.24" {
		t.Fatalf("expected selling price 1.24, got %s", got)
	}
	if len(product.PriceHistory) != 1 {
		t.Fatalf("expected initial price history entry, got %d", len(product.PriceHistory))
	}
}

func TestAddProductValidation(t *testing.T) {
	e := newTestEngine(t)

	_, err := e.AddProduct(domain.ProductCreateRequest{Code: "X1", Name: "  ", Unit: "kg", MeasurementType: domain.MeasurementWeight})
	if !errors.Is(err, ErrInvalidName) {
		t.Fatalf("expected ErrInvalidName for blank name, got %v", err)
	}

	_, err = e.AddProduct(domain.ProductCreateRequest{Code: "arr001", Name: "Duplicado", Unit: "kg", MeasurementType: domain.MeasurementWeight})
	if !errors.Is(err, ErrDuplicateName) {
		t.Fatalf("expected ErrDuplicateName for seeded code, got %v", err)
	}

	_, err = e.AddProduct(domain.ProductCreateRequest{Code: "UNI01", Name: "Unidad Mala", Unit: "litro", MeasurementType: domain.MeasurementWeight})
	if !errors.Is(err, ErrInvalidName) {
		t.Fatalf("expected ErrInvalidName for unit outside measurement type, got %v", err)
	}

	_, err = e.AddProduct(domain.ProductCreateRequest{Code: "NEG01", Name: "Stock Negativo", Stock: dec("-1"), Unit: "kg", MeasurementType: domain.MeasurementWeight})
	if !errors.Is(err, ErrInvalidQuantity) {
		t.Fatalf("expected ErrInvalidQuantity for negative stock, got %v", err)
	}
}

func TestDeleteProductKeepsHistoricalSales(t *testing.T) {
	e := newTestEngine(t)

	if _, err := e.AddToInvoice("1", dec("2")); err != nil {
		t.Fatalf("add to invoice: %v", err)
	}
	if _, err := e.CommitInvoice(); err != nil {
		t.Fatalf("commit: %v", err)
	}

	hadSales, err := e.DeleteProduct("1")
	if err != nil {
		t.Fatalf("delete product: %v", err)
	}
	if !hadSales {
		t.Fatalf("expected hadSales advisory flag")
	}
	if _, err := e.Product("1"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected product gone, got %v", err)
	}

	e.mu.Lock()
	salesCount := len(e.sales)
	e.mu.Unlock()
	if salesCount != 1 {
		t.Fatalf("expected sale history to survive deletion, got %d sales", salesCount)
	}
}

func TestDeleteProductWithoutSales(t *testing.T) {
	e := newTestEngine(t)

	hadSales, err := e.DeleteProduct("2")
	if err != nil {
		t.Fatalf("delete product: %v", err)
	}
	if hadSales {
		t.Fatalf("expected no sales advisory for unsold product")
	}
}

func TestBrandRegistry(t *testing.T) {
	e := newTestEngine(t)

	if err := e.AddBrand("  "); !errors.Is(err, ErrInvalidName) {
		t.Fatalf("expected ErrInvalidName for blank brand, got %v", err)
	}
	if err := e.AddBrand("arcor"); !errors.Is(err, ErrDuplicateName) {
		t.Fatalf("expected case-insensitive duplicate rejection, got %v", err)
	}
	if err := e.AddBrand("Nueva Marca"); err != nil {
		t.Fatalf("add brand: %v", err)
	}

	e.DeleteBrand("Nueva Marca")
	for _, b := range e.Brands() {
		if b == "Nueva Marca" {
			t.Fatalf("expected brand removed")
		}
	}

	// Deleting an unknown brand is a silent no-op.
	e.DeleteBrand("No Existe")
}

func TestCategoryRegistry(t *testing.T) {
	e := newTestEngine(t)

	if err := e.AddCategory("granos"); !errors.Is(err, ErrDuplicateName) {
		t.Fatalf("expected duplicate category rejection, got %v", err)
	}
	if err := e.AddCategory("Limpieza"); err != nil {
		t.Fatalf("add category: %v", err)
	}
	e.DeleteCategory("Limpieza")
	for _, c := range e.Categories() {
		if c == "Limpieza" {
			t.Fatalf("expected category removed")
		}
	}
}

func TestProviderRequiresAllFields(t *testing.T) {
	e := newTestEngine(t)

	_, err := e.AddProvider(domain.ProviderCreateRequest{Name: "Distribuidora Sur", Contact: "Juan", Email: "", Phone: "123", Address: "Calle 1"})
	if !errors.Is(err, ErrInvalidName) {
		t.Fatalf("expected ErrInvalidName for missing email, got %v", err)
	}

	provider, err := e.AddProvider(domain.ProviderCreateRequest{
		Name:    "Distribuidora Sur",
		Contact: "Juan Pérez",
		Email:   "ventas@sur.com",
		Phone:   "11-4444-5555",
		Address: "Av. Siempre Viva 742",
	})
	if err != nil {
		t.Fatalf("add provider: %v", err)
	}

	if err := e.DeleteProvider(provider.ID); err != nil {
		t.Fatalf("delete provider: %v", err)
	}
	if err := e.DeleteProvider(provider.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound on second delete, got %v", err)
	}
}

func TestDashboardCountsLowStock(t *testing.T) {
	e := newTestEngine(t)

	stats := e.Dashboard()
	if stats.TotalProducts != 4 {
		t.Fatalf("expected 4 seeded products, got %d", stats.TotalProducts)
	}
	// Seed product 4 has stock 5 below its min stock of 25.
	if stats.LowStock != 1 {
		t.Fatalf("expected 1 low stock product, got %d", stats.LowStock)
	}

	if _, err := e.AddToInvoice("1", dec("1")); err != nil {
		t.Fatalf("add to invoice: %v", err)
	}
	if _, err := e.CommitInvoice(); err != nil {
		t.Fatalf("commit: %v", err)
	}

	stats = e.Dashboard()
	if got := stats.SalesToday.StringFixed(2); got != "2.34" {
		t.Fatalf("expected sales today 2.34, got %s", got)
	}
}

func TestProductSalesStats(t *testing.T) {
	e := newTestEngine(t)

	if _, err := e.AddToInvoice("1", dec("2")); err != nil {
		t.Fatalf("add to invoice: %v", err)
	}
	if _, err := e.CommitInvoice(); err != nil {
		t.Fatalf("commit: %v", err)
	}
	if _, err := e.AddToInvoice("1", dec("1")); err != nil {
		t.Fatalf("add to invoice: %v", err)
	}
	if _, err := e.CommitInvoice(); err != nil {
		t.Fatalf("commit: %v", err)
	}

	stats, err := e.ProductSalesStats("1")
	if err != nil {
		t.Fatalf("product sales stats: %v", err)
	}
	if got := stats.TotalQuantitySold.StringFixed(0); got != "3" {
		t.Fatalf("expected 3 units sold, got %s", got)
	}
	if stats.SalesCount != 2 {
		t.Fatalf("expected 2 sales, got %d", stats.SalesCount)
	}
	if got := stats.TotalRevenue.StringFixed(2); got != "7.02" {
		t.Fatalf("expected revenue 7.02, got %s", got)
	}
}

func TestThemePersistsValue(t *testing.T) {
	e := newTestEngine(t)

	if e.Theme() != DefaultTheme {
		t.Fatalf("expected default theme %q, got %q", DefaultTheme, e.Theme())
	}
	if err := e.SetTheme(" "); !errors.Is(err, ErrInvalidName) {
		t.Fatalf("expected blank theme rejection, got %v", err)
	}
	if err := e.SetTheme("dark"); err != nil {
		t.Fatalf("set theme: %v", err)
	}
	if e.Theme() != "dark" {
		t.Fatalf("expected theme dark, got %q", e.Theme())
	}
}
