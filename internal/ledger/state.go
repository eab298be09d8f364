package ledger

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"time"

	"github.com/shopspring/decimal"

	"nexostock/backend/internal/blobstore"
	"nexostock/backend/internal/domain"
)

// Restore loads every collection from the blob store. A missing or malformed
// blob falls back to defaults and is never a startup failure. A blob that
// decodes to an empty list is honored as-is: an emptied catalog must stay
// empty across restarts.
func (e *Engine) Restore(ctx context.Context) {
	e.mu.Lock()
	defer e.mu.Unlock()

	complete := true

	if !e.loadJSON(ctx, blobstore.KeyProducts, &e.products) {
		e.products = seedProducts()
		complete = false
	}
	if !e.loadJSON(ctx, blobstore.KeyBrands, &e.brands) {
		e.brands = seedBrands()
		complete = false
	}
	if !e.loadJSON(ctx, blobstore.KeyCategories, &e.categories) {
		e.categories = seedCategories()
		complete = false
	}
	if !e.loadJSON(ctx, blobstore.KeyInvoiceItems, &e.invoiceItems) {
		e.invoiceItems = nil
	}
	if !e.loadJSON(ctx, blobstore.KeyMixItems, &e.mixItems) {
		e.mixItems = nil
	}
	if !e.loadJSON(ctx, blobstore.KeySales, &e.sales) {
		e.sales = nil
	}
	if !e.loadJSON(ctx, blobstore.KeyProviders, &e.providers) {
		e.providers = nil
	}
	if !e.loadJSON(ctx, blobstore.KeyClosureHistory, &e.closures) {
		e.closures = nil
	}
	if !e.loadJSON(ctx, blobstore.KeyDailyCashClosure, &e.lastClosure) {
		e.lastClosure = nil
	}
	if !e.loadJSON(ctx, blobstore.KeyTheme, &e.theme) || e.theme == "" {
		e.theme = DefaultTheme
	}

	if !complete {
		e.markDirty()
	}
}

// loadJSON must be called with e.mu held.
func (e *Engine) loadJSON(ctx context.Context, key string, v any) bool {
	blob, err := e.store.Load(ctx, key)
	if errors.Is(err, blobstore.ErrNotFound) {
		return false
	}
	if err != nil {
		log.Printf("[ledger] WARN: loading %s blob: %v", key, err)
		return false
	}
	if err := json.Unmarshal(blob, v); err != nil {
		log.Printf("[ledger] WARN: discarding malformed %s blob: %v", key, err)
		return false
	}
	return true
}

// Snapshot mirrors every collection to the blob store when the state changed
// since the last snapshot. Save failures re-mark the state dirty so the next
// run retries.
func (e *Engine) Snapshot(ctx context.Context) error {
	e.mu.Lock()
	if !e.dirty {
		e.mu.Unlock()
		return nil
	}

	blobs := make(map[string][]byte, 10)
	collections := map[string]any{
		blobstore.KeyProducts:         e.products,
		blobstore.KeyBrands:           e.brands,
		blobstore.KeyCategories:       e.categories,
		blobstore.KeyInvoiceItems:     e.invoiceItems,
		blobstore.KeyMixItems:         e.mixItems,
		blobstore.KeySales:            e.sales,
		blobstore.KeyProviders:        e.providers,
		blobstore.KeyClosureHistory:   e.closures,
		blobstore.KeyDailyCashClosure: e.lastClosure,
		blobstore.KeyTheme:            e.theme,
	}
	for key, collection := range collections {
		blob, err := json.Marshal(collection)
		if err != nil {
			e.mu.Unlock()
			return err
		}
		blobs[key] = blob
	}
	e.dirty = false
	e.mu.Unlock()

	var firstErr error
	for key, blob := range blobs {
		if err := e.store.Save(ctx, key, blob); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	if firstErr != nil {
		e.mu.Lock()
		e.dirty = true
		e.mu.Unlock()
	}
	return firstErr
}

func seedProducts() []domain.Product {
	now := time.Now().UTC()
	seed := func(id, code, name, brand, category, unit, measurementType string, stock, minStock int64, purchase float64) domain.Product {
		p := domain.Product{
			ID:              id,
			Code:            code,
			Name:            name,
			Brand:           brand,
			Category:        category,
			Stock:           decimal.NewFromInt(stock),
			MinStock:        decimal.NewFromInt(minStock),
			PurchasePrice:   decimal.NewFromFloat(purchase),
			Unit:            unit,
			MeasurementType: measurementType,
			CreatedAt:       now,
		}
		p.SellingPrice = applyMargin(p.PurchasePrice)
		p.PriceHistory = []domain.PriceSnapshot{{
			Date:          now,
			PurchasePrice: p.PurchasePrice,
			SellingPrice:  p.SellingPrice,
		}}
		return p
	}

	return []domain.Product{
		seed("1", "ARR001", "Arroz Blanco", "La Preferida", "Granos", "kg", domain.MeasurementWeight, 150, 20, 1.80),
		seed("2", "ACE001", "Aceite Girasol", "Natura", "Aceites", "litro", domain.MeasurementVolume, 80, 15, 2.50),
		seed("3", "AZU001", "Azúcar Blanca", "Ledesma", "Endulzantes", "kg", domain.MeasurementWeight, 200, 30, 1.20),
		seed("4", "HAR001", "Harina de Trigo", "Morixe", "Harinas", "kg", domain.MeasurementWeight, 5, 25, 1.00),
	}
}

func seedBrands() []string {
	return []string{"La Preferida", "Natura", "Ledesma", "Morixe", "Arcor", "Marolio", "Sancor"}
}

func seedCategories() []string {
	return []string{"Granos", "Aceites", "Endulzantes", "Harinas", "Lácteos", "Conservas", "Bebidas"}
}
