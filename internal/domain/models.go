package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

const (
	MeasurementWeight   = "weight"
	MeasurementVolume   = "volume"
	MeasurementLength   = "length"
	MeasurementQuantity = "quantity"
)

const (
	MixBrand    = "Mix Personalizado"
	MixCategory = "Mix"
	MixUnit     = "unidad"

	DeletedProductLabel = "Producto eliminado"
)

// MeasurementUnit describes one legal unit of a measurement type and its
// conversion factor to the type's base unit.
type MeasurementUnit struct {
	Value    string          `json:"value"`
	Label    string          `json:"label"`
	BaseUnit string          `json:"baseUnit"`
	Factor   decimal.Decimal `json:"factor"`
}

// MeasurementUnits maps each measurement type to its legal units. The first
// unit of each list is the type's base unit.
var MeasurementUnits = map[string][]MeasurementUnit{
	MeasurementWeight: {
		{Value: "kg", Label: "Kilogramo (kg)", BaseUnit: "kg", Factor: decimal.NewFromInt(1)},
		{Value: "gramo", Label: "Gramo (g)", BaseUnit: "kg", Factor: decimal.NewFromFloat(0.001)},
	},
	MeasurementVolume: {
		{Value: "litro", Label: "Litro (L)", BaseUnit: "litro", Factor: decimal.NewFromInt(1)},
		{Value: "ml", Label: "Mililitro (ml)", BaseUnit: "litro", Factor: decimal.NewFromFloat(0.001)},
	},
	MeasurementLength: {
		{Value: "metro", Label: "Metro (m)", BaseUnit: "metro", Factor: decimal.NewFromInt(1)},
		{Value: "cm", Label: "Centímetro (cm)", BaseUnit: "metro", Factor: decimal.NewFromFloat(0.01)},
	},
	MeasurementQuantity: {
		{Value: "unidad", Label: "Unidad", BaseUnit: "unidad", Factor: decimal.NewFromInt(1)},
	},
}

func ValidUnit(measurementType string, unit string) bool {
	for _, u := range MeasurementUnits[measurementType] {
		if u.Value == unit {
			return true
		}
	}
	return false
}

// PriceSnapshot records one repricing event. SellingPrice carries the value
// in effect after the event, margin-derived or explicit.
type PriceSnapshot struct {
	Date          time.Time       `json:"date"`
	PurchasePrice decimal.Decimal `json:"purchasePrice"`
	SellingPrice  decimal.Decimal `json:"sellingPrice"`
}

// MixComponent is one ingredient of an assembled mix product, recorded when
// the mix was created. The component keeps no price of its own; the mix
// product's purchasePrice carries the summed cost.
type MixComponent struct {
	ProductID   string          `json:"productId"`
	ProductName string          `json:"productName"`
	Quantity    decimal.Decimal `json:"quantity"`
	Unit        string          `json:"unit"`
}

type Product struct {
	ID                string          `json:"id"`
	Code              string          `json:"code"`
	Name              string          `json:"name"`
	Brand             string          `json:"brand"`
	Category          string          `json:"category"`
	Stock             decimal.Decimal `json:"stock"`
	MinStock          decimal.Decimal `json:"minStock"`
	PurchasePrice     decimal.Decimal `json:"purchasePrice"`
	SellingPrice      decimal.Decimal `json:"sellingPrice"`
	Unit              string          `json:"unit"`
	MeasurementType   string          `json:"measurementType"`
	IsFractioned      bool            `json:"isFractioned,omitempty"`
	OriginalProductID string          `json:"originalProductId,omitempty"`
	FractionQuantity  decimal.Decimal `json:"fractionQuantity,omitempty"`
	Composition       []MixComponent  `json:"composition,omitempty"`
	PriceHistory      []PriceSnapshot `json:"priceHistory,omitempty"`
	CreatedAt         time.Time       `json:"createdAt"`
}

// IsMix reports whether the product was assembled from components.
func (p Product) IsMix() bool {
	return len(p.Composition) > 0
}

// CartItem is one pending line of the invoice or mix cart. Price is the unit
// selling price, Cost the unit purchase price, both captured when the line
// was added.
type CartItem struct {
	ProductID string          `json:"productId"`
	Name      string          `json:"name"`
	Quantity  decimal.Decimal `json:"quantity"`
	Price     decimal.Decimal `json:"price"`
	Cost      decimal.Decimal `json:"cost"`
	Unit      string          `json:"unit"`
}

// SaleLine references its product by id only; reports resolve the current
// product name and substitute a placeholder when the product was deleted.
type SaleLine struct {
	ProductID string          `json:"productId"`
	Quantity  decimal.Decimal `json:"quantity"`
	Total     decimal.Decimal `json:"total"`
	Profit    decimal.Decimal `json:"profit"`
}

type Sale struct {
	ID     string          `json:"id"`
	Date   time.Time       `json:"date"`
	Items  []SaleLine      `json:"items"`
	Total  decimal.Decimal `json:"total"`
	Cost   decimal.Decimal `json:"cost"`
	Profit decimal.Decimal `json:"profit"`
}

// ProductTally aggregates the sold quantity and money for one product name
// inside a report or closure.
type ProductTally struct {
	Quantity     decimal.Decimal `json:"quantity"`
	TotalRevenue decimal.Decimal `json:"totalRevenue"`
	TotalProfit  decimal.Decimal `json:"totalProfit"`
	Unit         string          `json:"unit"`
}

type CashClosure struct {
	ID              string                  `json:"id"`
	Date            string                  `json:"date"`
	FullDate        time.Time               `json:"fullDate"`
	Sales           decimal.Decimal         `json:"sales"`
	Costs           decimal.Decimal         `json:"costs"`
	Profit          decimal.Decimal         `json:"profit"`
	Transactions    int                     `json:"transactions"`
	ProductsSummary map[string]ProductTally `json:"productsSummary"`
	TotalItemsSold  decimal.Decimal         `json:"totalItemsSold"`
	ClosedBy        string                  `json:"closedBy"`
	ClosedAt        time.Time               `json:"closedAt"`
}

type Provider struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Contact   string    `json:"contact"`
	Email     string    `json:"email"`
	Phone     string    `json:"phone"`
	Address   string    `json:"address"`
	CreatedAt time.Time `json:"createdAt"`
}

type DailySummary struct {
	Date            string                  `json:"date"`
	Sales           decimal.Decimal         `json:"sales"`
	Costs           decimal.Decimal         `json:"costs"`
	Profit          decimal.Decimal         `json:"profit"`
	Transactions    int                     `json:"transactions"`
	TotalItemsSold  decimal.Decimal         `json:"totalItemsSold"`
	ProductsSummary map[string]ProductTally `json:"productsSummary"`
	SalesList       []Sale                  `json:"salesList"`
}

type MonthlyDay struct {
	Date         string          `json:"date"`
	Sales        decimal.Decimal `json:"sales"`
	Profit       decimal.Decimal `json:"profit"`
	Transactions int             `json:"transactions"`
}

type MonthlySummary struct {
	Month        int             `json:"month"`
	Year         int             `json:"year"`
	Sales        decimal.Decimal `json:"sales"`
	Costs        decimal.Decimal `json:"costs"`
	Profit       decimal.Decimal `json:"profit"`
	Transactions int             `json:"transactions"`
	Days         []MonthlyDay    `json:"days"`
}

// ProductSalesStats aggregates the historical sales of one product.
type ProductSalesStats struct {
	TotalQuantitySold decimal.Decimal `json:"totalQuantitySold"`
	TotalRevenue      decimal.Decimal `json:"totalRevenue"`
	TotalProfit       decimal.Decimal `json:"totalProfit"`
	SalesCount        int             `json:"salesCount"`
}

type DashboardStats struct {
	TotalProducts int             `json:"totalProducts"`
	LowStock      int             `json:"lowStock"`
	SalesToday    decimal.Decimal `json:"salesToday"`
	ProfitToday   decimal.Decimal `json:"profitToday"`
}

// InvoiceCart is the pending invoice with its running totals.
type InvoiceCart struct {
	Items    []CartItem      `json:"items"`
	Subtotal decimal.Decimal `json:"subtotal"`
	Profit   decimal.Decimal `json:"profit"`
}

// MixCart is the pending mix with its running cost and the margin-suggested
// selling price.
type MixCart struct {
	Items          []CartItem      `json:"items"`
	TotalCost      decimal.Decimal `json:"totalCost"`
	SuggestedPrice decimal.Decimal `json:"suggestedPrice"`
}

type ProductCreateRequest struct {
	Code            string          `json:"code"`
	Name            string          `json:"name"`
	Brand           string          `json:"brand"`
	Category        string          `json:"category"`
	Stock           decimal.Decimal `json:"stock"`
	MinStock        decimal.Decimal `json:"minStock"`
	PurchasePrice   decimal.Decimal `json:"purchasePrice"`
	Unit            string          `json:"unit"`
	MeasurementType string          `json:"measurementType"`
}

type ProviderCreateRequest struct {
	Name    string `json:"name"`
	Contact string `json:"contact"`
	Email   string `json:"email"`
	Phone   string `json:"phone"`
	Address string `json:"address"`
}

type Operator struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Role  string `json:"role"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type LoginResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expiresAt"`
	Operator  Operator  `json:"operator"`
}
