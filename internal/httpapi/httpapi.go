package httpapi

import (
	"context"
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"net/netip"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"nexostock/backend/internal/domain"
	"nexostock/backend/internal/ledger"
)

type API struct {
	engine        *ledger.Engine
	auth          *AuthManager
	allowedOrigin string
	static        http.Handler
	loginLimiter  *attemptLimiter
	csrfSecret    []byte
}

func New(engine *ledger.Engine, auth *AuthManager, allowedOrigin string, static http.Handler) *API {
	csrfSecret := make([]byte, 32)
	if _, err := rand.Read(csrfSecret); err != nil {
		// Fall back to a deterministic secret if crypto/rand fails (should not happen in practice).
		csrfSecret = []byte("csrf-fallback-secret-change-me!!")
	}
	return &API{
		engine:        engine,
		auth:          auth,
		allowedOrigin: allowedOrigin,
		static:        static,
		loginLimiter:  newAttemptLimiter(5, time.Minute),
		csrfSecret:    csrfSecret,
	}
}

// csrfTokenForHour computes an HMAC-SHA256 token for the given hour bucket
// (expressed as Unix time truncated to the hour). The token is hex-encoded.
func (a *API) csrfTokenForHour(hourBucket int64) string {
	h := hmac.New(sha256.New, a.csrfSecret)
	fmt.Fprintf(h, "%d", hourBucket)
	return hex.EncodeToString(h.Sum(nil))
}

// generateCSRFToken returns a token valid for the current hour bucket.
func (a *API) generateCSRFToken() string {
	now := time.Now().UTC()
	bucket := now.Truncate(time.Hour).Unix()
	return a.csrfTokenForHour(bucket)
}

// validateCSRFToken checks whether the provided token matches the current or
// previous hour bucket, giving a 2-hour validity window.
func (a *API) validateCSRFToken(token string) bool {
	if token == "" {
		return false
	}
	now := time.Now().UTC()
	currentBucket := now.Truncate(time.Hour).Unix()
	prevBucket := currentBucket - 3600

	expected1 := a.csrfTokenForHour(currentBucket)
	expected2 := a.csrfTokenForHour(prevBucket)

	return hmac.Equal([]byte(token), []byte(expected1)) ||
		hmac.Equal([]byte(token), []byte(expected2))
}

type attemptLimiter struct {
	mu      sync.Mutex
	max     int
	window  time.Duration
	entries map[string][]time.Time
}

func newAttemptLimiter(max int, window time.Duration) *attemptLimiter {
	if max < 1 {
		max = 1
	}
	if window <= 0 {
		window = time.Minute
	}
	return &attemptLimiter{max: max, window: window, entries: make(map[string][]time.Time)}
}

func (l *attemptLimiter) Allow(key string) bool {
	if l == nil {
		return true
	}
	now := time.Now()
	cutoff := now.Add(-l.window)

	l.mu.Lock()
	defer l.mu.Unlock()

	history := l.entries[key]
	kept := make([]time.Time, 0, len(history)+1)
	for _, ts := range history {
		if ts.After(cutoff) {
			kept = append(kept, ts)
		}
	}
	if len(kept) >= l.max {
		l.entries[key] = kept
		return false
	}
	kept = append(kept, now)
	l.entries[key] = kept
	return true
}

func clientKey(r *http.Request) string {
	host := strings.TrimSpace(r.RemoteAddr)
	if host == "" {
		return "unknown"
	}
	if addr, err := netip.ParseAddrPort(host); err == nil {
		return addr.Addr().String()
	}
	if idx := strings.LastIndex(host, ":"); idx > 0 {
		return host[:idx]
	}
	return host
}

type operatorContextKey struct{}

func withOperator(ctx context.Context, op domain.Operator) context.Context {
	return context.WithValue(ctx, operatorContextKey{}, op)
}

func operatorFromContext(ctx context.Context) (domain.Operator, bool) {
	op, ok := ctx.Value(operatorContextKey{}).(domain.Operator)
	return op, ok
}

func (a *API) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("/healthz", a.handleHealth)
	mux.HandleFunc("/api/v1/auth/login", a.handleLogin)
	mux.HandleFunc("/api/v1/auth/csrf-token", a.handleCSRFToken)

	mux.HandleFunc("/api/v1/products", a.requireAuth(a.handleProducts))
	mux.HandleFunc("/api/v1/products/", a.requireAuth(a.handleProductActions))
	mux.HandleFunc("/api/v1/brands", a.requireAuth(a.handleBrands))
	mux.HandleFunc("/api/v1/brands/", a.requireAuth(a.handleBrandActions))
	mux.HandleFunc("/api/v1/categories", a.requireAuth(a.handleCategories))
	mux.HandleFunc("/api/v1/categories/", a.requireAuth(a.handleCategoryActions))
	mux.HandleFunc("/api/v1/providers", a.requireAuth(a.handleProviders))
	mux.HandleFunc("/api/v1/providers/", a.requireAuth(a.handleProviderActions))
	mux.HandleFunc("/api/v1/measurement-units", a.requireAuth(a.handleMeasurementUnits))

	mux.HandleFunc("/api/v1/invoice", a.requireAuth(a.handleInvoice))
	mux.HandleFunc("/api/v1/invoice/items", a.requireAuth(a.handleInvoiceItems))
	mux.HandleFunc("/api/v1/invoice/items/", a.requireAuth(a.handleInvoiceItemActions))
	mux.HandleFunc("/api/v1/invoice/commit", a.requireAuth(a.handleInvoiceCommit))

	mux.HandleFunc("/api/v1/mix", a.requireAuth(a.handleMix))
	mux.HandleFunc("/api/v1/mix/items", a.requireAuth(a.handleMixItems))
	mux.HandleFunc("/api/v1/mix/items/", a.requireAuth(a.handleMixItemActions))
	mux.HandleFunc("/api/v1/mix/create", a.requireAuth(a.handleMixCreate))

	mux.HandleFunc("/api/v1/reports/daily", a.requireAuth(a.handleDailyReport))
	mux.HandleFunc("/api/v1/reports/monthly", a.requireAuth(a.handleMonthlyReport))
	mux.HandleFunc("/api/v1/dashboard", a.requireAuth(a.handleDashboard))
	mux.HandleFunc("/api/v1/closures", a.requireAuth(a.handleClosures))
	mux.HandleFunc("/api/v1/closures/", a.requireAuth(a.handleClosureActions))
	mux.HandleFunc("/api/v1/theme", a.requireAuth(a.handleTheme))

	if a.static != nil {
		mux.Handle("/", a.static)
	}

	return a.withMiddleware(mux)
}

func (a *API) requireAuth(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		authorization := strings.TrimSpace(r.Header.Get("Authorization"))
		if !strings.HasPrefix(strings.ToLower(authorization), "bearer ") {
			writeError(w, http.StatusUnauthorized, errors.New("missing bearer token"))
			return
		}

		token := strings.TrimSpace(authorization[len("Bearer "):])
		operator, err := a.auth.ParseToken(token)
		if err != nil {
			writeError(w, http.StatusUnauthorized, err)
			return
		}

		next(w, r.WithContext(withOperator(r.Context(), operator)))
	}
}

func (a *API) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeMethodNotAllowed(w)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"ok": true,
		"at": time.Now().UTC().Format(time.RFC3339),
	})
}

func (a *API) handleLogin(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeMethodNotAllowed(w)
		return
	}
	if !a.loginLimiter.Allow(clientKey(r)) {
		writeError(w, http.StatusTooManyRequests, errors.New("too many login attempts"))
		return
	}

	var req domain.LoginRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	resp, err := a.auth.Login(req)
	if err != nil {
		writeError(w, http.StatusUnauthorized, err)
		return
	}

	writeJSON(w, http.StatusOK, resp)
}

// handleCSRFToken returns a stateless CSRF token valid for the current hour bucket.
// Clients must include this token in the X-CSRF-Token header for all mutating requests.
func (a *API) handleCSRFToken(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeMethodNotAllowed(w)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"csrf_token": a.generateCSRFToken(),
	})
}

// csrfExemptPaths lists paths that are exempt from CSRF validation.
// Login is excluded because it is called without a prior CSRF token fetch.
var csrfExemptPaths = []string{
	"/api/v1/auth/login",
}

// checkCSRF enforces CSRF token validation for state-changing methods
// (POST/PUT/PATCH/DELETE) on API paths. Static asset requests are exempt.
func (a *API) checkCSRF(w http.ResponseWriter, r *http.Request) bool {
	method := r.Method
	if method != http.MethodPost && method != http.MethodPut && method != http.MethodPatch && method != http.MethodDelete {
		return true
	}
	if !strings.HasPrefix(r.URL.Path, "/api/") {
		return true
	}
	for _, exempt := range csrfExemptPaths {
		if r.URL.Path == exempt {
			return true
		}
	}
	token := strings.TrimSpace(r.Header.Get("X-CSRF-Token"))
	if !a.validateCSRFToken(token) {
		writeError(w, http.StatusForbidden, errors.New("missing or invalid CSRF token"))
		return false
	}
	return true
}

func (a *API) handleProducts(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		writeJSON(w, http.StatusOK, map[string]any{"products": a.engine.Products()})
	case http.MethodPost:
		var req domain.ProductCreateRequest
		if err := decodeJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}

		product, err := a.engine.AddProduct(req)
		if err != nil {
			writeError(w, statusForError(err), err)
			return
		}
		writeJSON(w, http.StatusCreated, map[string]any{"product": product})
	default:
		writeMethodNotAllowed(w)
	}
}

func (a *API) handleProductActions(w http.ResponseWriter, r *http.Request) {
	prefix := "/api/v1/products/"
	tail := strings.TrimSpace(strings.Trim(strings.TrimPrefix(r.URL.Path, prefix), "/"))
	if tail == "" {
		writeError(w, http.StatusBadRequest, errors.New("product id required"))
		return
	}

	id, action, _ := strings.Cut(tail, "/")
	id = strings.TrimSpace(id)
	if id == "" {
		writeError(w, http.StatusBadRequest, errors.New("product id required"))
		return
	}

	switch action {
	case "":
		switch r.Method {
		case http.MethodGet:
			product, err := a.engine.Product(id)
			if err != nil {
				writeError(w, statusForError(err), err)
				return
			}
			writeJSON(w, http.StatusOK, map[string]any{"product": product})
		case http.MethodDelete:
			hadSales, err := a.engine.DeleteProduct(id)
			if err != nil {
				writeError(w, statusForError(err), err)
				return
			}
			writeJSON(w, http.StatusOK, map[string]any{"deleted": true, "hadSales": hadSales})
		default:
			writeMethodNotAllowed(w)
		}
	case "price":
		if r.Method != http.MethodPatch {
			writeMethodNotAllowed(w)
			return
		}
		var req struct {
			PurchasePrice decimal.Decimal `json:"purchasePrice"`
		}
		if err := decodeJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}
		product, err := a.engine.SetPurchasePrice(id, req.PurchasePrice)
		if err != nil {
			writeError(w, statusForError(err), err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"product": product})
	case "stock":
		if r.Method != http.MethodPost {
			writeMethodNotAllowed(w)
			return
		}
		var req struct {
			Change decimal.Decimal `json:"change"`
		}
		if err := decodeJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}
		product, err := a.engine.AdjustStock(id, req.Change)
		if err != nil {
			writeError(w, statusForError(err), err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"product": product})
	case "fraction":
		if r.Method != http.MethodPost {
			writeMethodNotAllowed(w)
			return
		}
		var req struct {
			Quantity decimal.Decimal `json:"quantity"`
		}
		if err := decodeJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}
		fraction, err := a.engine.FractionProduct(id, req.Quantity)
		if err != nil {
			writeError(w, statusForError(err), err)
			return
		}
		writeJSON(w, http.StatusCreated, map[string]any{"product": fraction})
	case "stats":
		if r.Method != http.MethodGet {
			writeMethodNotAllowed(w)
			return
		}
		stats, err := a.engine.ProductSalesStats(id)
		if err != nil {
			writeError(w, statusForError(err), err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"stats": stats})
	default:
		writeError(w, http.StatusBadRequest, errors.New("unknown product action"))
	}
}

func (a *API) handleBrands(w http.ResponseWriter, r *http.Request) {
	a.handleNameRegistry(w, r, a.engine.Brands, a.engine.AddBrand, "brands")
}

func (a *API) handleBrandActions(w http.ResponseWriter, r *http.Request) {
	a.handleNameRegistryDelete(w, r, "/api/v1/brands/", a.engine.DeleteBrand)
}

func (a *API) handleCategories(w http.ResponseWriter, r *http.Request) {
	a.handleNameRegistry(w, r, a.engine.Categories, a.engine.AddCategory, "categories")
}

func (a *API) handleCategoryActions(w http.ResponseWriter, r *http.Request) {
	a.handleNameRegistryDelete(w, r, "/api/v1/categories/", a.engine.DeleteCategory)
}

// handleNameRegistry serves the flat brand/category name lists, which share
// the same list/add semantics.
func (a *API) handleNameRegistry(w http.ResponseWriter, r *http.Request, list func() []string, add func(string) error, field string) {
	switch r.Method {
	case http.MethodGet:
		writeJSON(w, http.StatusOK, map[string]any{field: list()})
	case http.MethodPost:
		var req struct {
			Name string `json:"name"`
		}
		if err := decodeJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}
		if err := add(req.Name); err != nil {
			writeError(w, statusForError(err), err)
			return
		}
		writeJSON(w, http.StatusCreated, map[string]any{"name": strings.TrimSpace(req.Name)})
	default:
		writeMethodNotAllowed(w)
	}
}

func (a *API) handleNameRegistryDelete(w http.ResponseWriter, r *http.Request, prefix string, del func(string)) {
	if r.Method != http.MethodDelete {
		writeMethodNotAllowed(w)
		return
	}
	name := strings.TrimSpace(strings.Trim(strings.TrimPrefix(r.URL.Path, prefix), "/"))
	if name == "" {
		writeError(w, http.StatusBadRequest, errors.New("name required"))
		return
	}
	del(name)
	writeJSON(w, http.StatusOK, map[string]any{"deleted": true})
}

func (a *API) handleProviders(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		writeJSON(w, http.StatusOK, map[string]any{"providers": a.engine.Providers()})
	case http.MethodPost:
		var req domain.ProviderCreateRequest
		if err := decodeJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}
		provider, err := a.engine.AddProvider(req)
		if err != nil {
			writeError(w, statusForError(err), err)
			return
		}
		writeJSON(w, http.StatusCreated, map[string]any{"provider": provider})
	default:
		writeMethodNotAllowed(w)
	}
}

func (a *API) handleProviderActions(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodDelete {
		writeMethodNotAllowed(w)
		return
	}
	id := strings.TrimSpace(strings.Trim(strings.TrimPrefix(r.URL.Path, "/api/v1/providers/"), "/"))
	if id == "" {
		writeError(w, http.StatusBadRequest, errors.New("provider id required"))
		return
	}
	if err := a.engine.DeleteProvider(id); err != nil {
		writeError(w, statusForError(err), err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"deleted": true})
}

func (a *API) handleMeasurementUnits(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeMethodNotAllowed(w)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"measurementUnits": domain.MeasurementUnits})
}

func (a *API) handleInvoice(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeMethodNotAllowed(w)
		return
	}
	writeJSON(w, http.StatusOK, a.engine.InvoiceCart())
}

func (a *API) handleInvoiceItems(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeMethodNotAllowed(w)
		return
	}
	var req struct {
		ProductID string          `json:"productId"`
		Quantity  decimal.Decimal `json:"quantity"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	item, err := a.engine.AddToInvoice(req.ProductID, req.Quantity)
	if err != nil {
		writeError(w, statusForError(err), err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"item": item})
}

func (a *API) handleInvoiceItemActions(w http.ResponseWriter, r *http.Request) {
	a.handleCartItemDelete(w, r, "/api/v1/invoice/items/", a.engine.RemoveFromInvoice)
}

func (a *API) handleInvoiceCommit(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeMethodNotAllowed(w)
		return
	}
	sale, err := a.engine.CommitInvoice()
	if err != nil {
		writeError(w, statusForError(err), err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"sale": sale})
}

func (a *API) handleMix(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeMethodNotAllowed(w)
		return
	}
	writeJSON(w, http.StatusOK, a.engine.MixCart())
}

func (a *API) handleMixItems(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeMethodNotAllowed(w)
		return
	}
	var req struct {
		ProductID string          `json:"productId"`
		Quantity  decimal.Decimal `json:"quantity"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	item, err := a.engine.AddToMix(req.ProductID, req.Quantity)
	if err != nil {
		writeError(w, statusForError(err), err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"item": item})
}

func (a *API) handleMixItemActions(w http.ResponseWriter, r *http.Request) {
	a.handleCartItemDelete(w, r, "/api/v1/mix/items/", a.engine.RemoveFromMix)
}

func (a *API) handleCartItemDelete(w http.ResponseWriter, r *http.Request, prefix string, remove func(int) error) {
	if r.Method != http.MethodDelete {
		writeMethodNotAllowed(w)
		return
	}
	raw := strings.TrimSpace(strings.Trim(strings.TrimPrefix(r.URL.Path, prefix), "/"))
	index, err := strconv.Atoi(raw)
	if err != nil {
		writeError(w, http.StatusBadRequest, errors.New("item index required"))
		return
	}
	if err := remove(index); err != nil {
		writeError(w, statusForError(err), err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"deleted": true})
}

func (a *API) handleMixCreate(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeMethodNotAllowed(w)
		return
	}
	var req struct {
		Name         string          `json:"name"`
		SellingPrice decimal.Decimal `json:"sellingPrice"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	mix, err := a.engine.CreateMix(req.Name, req.SellingPrice)
	if err != nil {
		writeError(w, statusForError(err), err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"product": mix})
}

func (a *API) handleDailyReport(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeMethodNotAllowed(w)
		return
	}

	date := time.Now()
	if raw := strings.TrimSpace(r.URL.Query().Get("date")); raw != "" {
		parsed, err := time.ParseInLocation("2006-01-02", raw, time.Local)
		if err != nil {
			writeError(w, http.StatusBadRequest, errors.New("date must be YYYY-MM-DD"))
			return
		}
		date = parsed
	}

	writeJSON(w, http.StatusOK, a.engine.DailySummary(date))
}

func (a *API) handleMonthlyReport(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeMethodNotAllowed(w)
		return
	}

	now := time.Now()
	month := int(now.Month())
	year := now.Year()
	if raw := strings.TrimSpace(r.URL.Query().Get("month")); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 || parsed > 12 {
			writeError(w, http.StatusBadRequest, errors.New("month must be 1-12"))
			return
		}
		month = parsed
	}
	if raw := strings.TrimSpace(r.URL.Query().Get("year")); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 2000 {
			writeError(w, http.StatusBadRequest, errors.New("invalid year"))
			return
		}
		year = parsed
	}

	writeJSON(w, http.StatusOK, a.engine.MonthlySummary(time.Month(month), year))
}

func (a *API) handleDashboard(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeMethodNotAllowed(w)
		return
	}
	writeJSON(w, http.StatusOK, a.engine.Dashboard())
}

func (a *API) handleClosures(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		closures := a.engine.Closures()
		limit := parsePositiveLimit(r.URL.Query().Get("limit"), len(closures), 0)
		if limit < len(closures) {
			closures = closures[:limit]
		}
		writeJSON(w, http.StatusOK, map[string]any{"closures": closures})
	case http.MethodPost:
		operator, ok := operatorFromContext(r.Context())
		if !ok {
			writeError(w, http.StatusUnauthorized, errors.New("missing operator"))
			return
		}
		closure, err := a.engine.CloseCashRegister(operator.Name)
		if err != nil {
			writeError(w, statusForError(err), err)
			return
		}
		writeJSON(w, http.StatusCreated, map[string]any{"closure": closure})
	default:
		writeMethodNotAllowed(w)
	}
}

func (a *API) handleClosureActions(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimSpace(strings.Trim(strings.TrimPrefix(r.URL.Path, "/api/v1/closures/"), "/"))
	if id == "" {
		writeError(w, http.StatusBadRequest, errors.New("closure id required"))
		return
	}
	if id == "today" {
		if r.Method != http.MethodGet {
			writeMethodNotAllowed(w)
			return
		}
		closure, ok := a.engine.LastClosure()
		if !ok {
			writeError(w, http.StatusNotFound, errors.New("no closure recorded"))
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"closure": closure})
		return
	}
	if r.Method != http.MethodDelete {
		writeMethodNotAllowed(w)
		return
	}
	if err := a.engine.DeleteClosure(id); err != nil {
		writeError(w, statusForError(err), err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"deleted": true})
}

func (a *API) handleTheme(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		writeJSON(w, http.StatusOK, map[string]any{"theme": a.engine.Theme()})
	case http.MethodPut:
		var req struct {
			Theme string `json:"theme"`
		}
		if err := decodeJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}
		if err := a.engine.SetTheme(req.Theme); err != nil {
			writeError(w, statusForError(err), err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"theme": strings.TrimSpace(req.Theme)})
	default:
		writeMethodNotAllowed(w)
	}
}

func (a *API) withMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")
		w.Header().Set("Cross-Origin-Opener-Policy", "same-origin")
		w.Header().Set("Access-Control-Allow-Origin", a.allowedOrigin)
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, X-CSRF-Token")
		w.Header().Set("Access-Control-Allow-Methods", "GET,POST,PATCH,PUT,DELETE,OPTIONS")
		w.Header().Set("Vary", "Origin")

		if (r.Method == http.MethodPost || r.Method == http.MethodPatch || r.Method == http.MethodPut) && strings.Contains(strings.ToLower(r.Header.Get("Content-Type")), "application/json") {
			r.Body = http.MaxBytesReader(w, r.Body, 1<<20)
		}

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}

		// Enforce CSRF protection for all state-changing requests.
		if !a.checkCSRF(w, r) {
			return
		}

		startedAt := time.Now()
		next.ServeHTTP(w, r)
		log.Printf("%s %s %s", r.Method, r.URL.Path, time.Since(startedAt))
	})
}

func statusForError(err error) int {
	switch {
	case errors.Is(err, ledger.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ledger.ErrDuplicateName),
		errors.Is(err, ledger.ErrInsufficientStock):
		return http.StatusConflict
	case errors.Is(err, ledger.ErrInvalidName),
		errors.Is(err, ledger.ErrInvalidQuantity),
		errors.Is(err, ledger.ErrEmptyInvoice),
		errors.Is(err, ledger.ErrNoSalesToClose),
		errors.Is(err, ledger.ErrIndexOutOfRange):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

func decodeJSON(r *http.Request, dest any) error {
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(dest); err != nil {
		return err
	}
	return nil
}

func parsePositiveLimit(raw string, fallback int, max int) int {
	limit := fallback
	trimmed := strings.TrimSpace(raw)
	if trimmed != "" {
		if parsed, err := strconv.Atoi(trimmed); err == nil && parsed > 0 {
			limit = parsed
		}
	}
	if max > 0 && limit > max {
		return max
	}
	return limit
}

func writeMethodNotAllowed(w http.ResponseWriter) {
	writeError(w, http.StatusMethodNotAllowed, errors.New("method not allowed"))
}

func writeError(w http.ResponseWriter, status int, err error) {
	// For 5xx responses, return a generic message to avoid leaking internal
	// implementation details (stack traces, SQL errors, file paths, etc.).
	// 4xx responses are user-facing so we return the original error message.
	msg := err.Error()
	if status >= 500 {
		log.Printf("internal error (status %d): %v", status, err)
		msg = "internal server error"
	}
	writeJSON(w, status, map[string]any{
		"error": msg,
	})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
