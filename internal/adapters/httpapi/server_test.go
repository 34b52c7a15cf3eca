package httpapi

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"

	"inventorycore/internal/adapters/reports"
	"inventorycore/internal/core"
	"inventorycore/internal/infra/blob/memory"
	"inventorycore/internal/infra/idempotency"
	"inventorycore/internal/infra/metrics"
)

func newTestAPI(t *testing.T, opts Options) (*echo.Echo, *core.Service) {
	t.Helper()
	svc := core.NewInMemoryService(core.NewDefaultRulesEngine())
	if opts.StorageDriver == "" {
		opts.StorageDriver = "memory"
	}
	return New(svc, opts), svc
}

func do(t *testing.T, e *echo.Echo, method, path, body string, headers ...string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode %q: %v", rec.Body.String(), err)
	}
	return out
}

func expectStatus(t *testing.T, rec *httptest.ResponseRecorder, want int) {
	t.Helper()
	if rec.Code != want {
		t.Fatalf("expected status %d, got %d: %s", want, rec.Code, rec.Body.String())
	}
}

// seedCatalog creates product 1 (PRD-1, 25.50) using 3 units of raw material 1 (stock 10).
func seedCatalog(t *testing.T, e *echo.Echo) {
	t.Helper()
	expectStatus(t, do(t, e, http.MethodPost, "/products", `{"code":"PRD-1","name":"Chair","unitPrice":25.50}`), http.StatusCreated)
	expectStatus(t, do(t, e, http.MethodPost, "/raw-materials", `{"code":"RM-1","description":"Oak board","availableStock":10}`), http.StatusCreated)
	expectStatus(t, do(t, e, http.MethodPost, "/material-usage", `{"productId":1,"rawMaterialId":1,"consumptionPerUnit":3}`), http.StatusCreated)
}

func TestProductRoutes(t *testing.T) {
	e, _ := newTestAPI(t, Options{})

	rec := do(t, e, http.MethodPost, "/products", `{"code":" PRD-1 ","name":"Chair","unitPrice":25.50}`)
	expectStatus(t, rec, http.StatusCreated)
	created := decode[map[string]any](t, rec)
	if created["id"] != float64(1) || created["code"] != "PRD-1" || created["unitPrice"] != 25.5 {
		t.Fatalf("unexpected created product %v", created)
	}

	cases := []struct {
		name    string
		method  string
		path    string
		body    string
		status  int
		message string
	}{
		{"duplicate code ignores case", http.MethodPost, "/products", `{"code":"prd-1","name":"Stool","unitPrice":1}`, http.StatusConflict, "Product code already exists."},
		{"missing price", http.MethodPost, "/products", `{"code":"PRD-2","name":"Stool"}`, http.StatusBadRequest, "Unit price is required."},
		{"negative price", http.MethodPost, "/products", `{"code":"PRD-2","name":"Stool","unitPrice":-1}`, http.StatusBadRequest, "Unit price cannot be negative."},
		{"malformed body", http.MethodPost, "/products", `{"code":`, http.StatusBadRequest, "Invalid request payload"},
		{"bad id", http.MethodGet, "/products/abc", "", http.StatusBadRequest, "Invalid id"},
		{"unknown id", http.MethodGet, "/products/99", "", http.StatusNotFound, ""},
		{"blank name on update", http.MethodPut, "/products/1", `{"name":"  "}`, http.StatusBadRequest, "Product name cannot be empty."},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := do(t, e, tc.method, tc.path, tc.body)
			expectStatus(t, rec, tc.status)
			if tc.message != "" {
				if got := decode[map[string]string](t, rec)["message"]; got != tc.message {
					t.Fatalf("expected message %q, got %q", tc.message, got)
				}
			}
		})
	}

	rec = do(t, e, http.MethodPut, "/products/1", `{"name":"Armchair"}`)
	expectStatus(t, rec, http.StatusOK)
	updated := decode[map[string]any](t, rec)
	if updated["name"] != "Armchair" || updated["code"] != "PRD-1" {
		t.Fatalf("partial update changed the wrong fields: %v", updated)
	}

	list := decode[[]map[string]any](t, do(t, e, http.MethodGet, "/products", ""))
	if len(list) != 1 {
		t.Fatalf("expected one product, got %v", list)
	}

	expectStatus(t, do(t, e, http.MethodDelete, "/products/1", ""), http.StatusNoContent)
	expectStatus(t, do(t, e, http.MethodGet, "/products/1", ""), http.StatusNotFound)
}

func TestRawMaterialDeleteBlockedByBom(t *testing.T) {
	e, _ := newTestAPI(t, Options{})
	seedCatalog(t, e)

	rec := do(t, e, http.MethodDelete, "/raw-materials/1", "")
	expectStatus(t, rec, http.StatusConflict)
	if msg := decode[map[string]string](t, rec)["message"]; !strings.Contains(msg, "linked to 1 BOM entry") {
		t.Fatalf("unexpected conflict message %q", msg)
	}

	expectStatus(t, do(t, e, http.MethodDelete, "/material-usage/1", ""), http.StatusNoContent)
	expectStatus(t, do(t, e, http.MethodDelete, "/raw-materials/1", ""), http.StatusNoContent)
	expectStatus(t, do(t, e, http.MethodGet, "/raw-materials/1", ""), http.StatusNotFound)
}

func TestUsageRoutes(t *testing.T) {
	e, _ := newTestAPI(t, Options{})
	expectStatus(t, do(t, e, http.MethodPost, "/products", `{"code":"PRD-1","name":"Chair","unitPrice":10}`), http.StatusCreated)
	expectStatus(t, do(t, e, http.MethodPost, "/raw-materials", `{"code":"RM-1","description":"Oak board","availableStock":10}`), http.StatusCreated)

	rec := do(t, e, http.MethodPost, "/material-usage", `{"product":{"id":1},"rawMaterial":{"id":1},"consumptionPerUnit":2}`)
	expectStatus(t, rec, http.StatusCreated)
	usage := decode[struct {
		ID                 int64 `json:"id"`
		ConsumptionPerUnit int64 `json:"consumptionPerUnit"`
		Product            struct {
			Name string `json:"name"`
		} `json:"product"`
		RawMaterial struct {
			Code string `json:"code"`
		} `json:"rawMaterial"`
	}](t, rec)
	if usage.ID != 1 || usage.Product.Name != "Chair" || usage.RawMaterial.Code != "RM-1" {
		t.Fatalf("unexpected usage %+v", usage)
	}

	expectStatus(t, do(t, e, http.MethodPost, "/material-usage", `{"productId":1,"rawMaterialId":1,"consumptionPerUnit":4}`), http.StatusConflict)
	expectStatus(t, do(t, e, http.MethodPost, "/material-usage", `{"productId":9,"rawMaterialId":1,"consumptionPerUnit":4}`), http.StatusNotFound)
	expectStatus(t, do(t, e, http.MethodPost, "/material-usage", `{"rawMaterialId":1,"consumptionPerUnit":4}`), http.StatusBadRequest)
	expectStatus(t, do(t, e, http.MethodPut, "/material-usage/1", `{"consumptionPerUnit":0}`), http.StatusBadRequest)

	rec = do(t, e, http.MethodPut, "/material-usage/1", `{"consumptionPerUnit":5}`)
	expectStatus(t, rec, http.StatusOK)
	if got := decode[map[string]any](t, rec)["consumptionPerUnit"]; got != float64(5) {
		t.Fatalf("expected consumption 5, got %v", got)
	}

	bom := decode[[]map[string]any](t, do(t, e, http.MethodGet, "/products/1/material-usage", ""))
	if len(bom) != 1 {
		t.Fatalf("expected one BOM edge, got %v", bom)
	}
	expectStatus(t, do(t, e, http.MethodGet, "/products/7/material-usage", ""), http.StatusNotFound)
}

func TestProduceRoute(t *testing.T) {
	e, _ := newTestAPI(t, Options{})
	seedCatalog(t, e)
	expectStatus(t, do(t, e, http.MethodPost, "/products", `{"code":"PRD-2","name":"Table","unitPrice":99}`), http.StatusCreated)

	rec := do(t, e, http.MethodPost, "/production/1/produce/3", "")
	expectStatus(t, rec, http.StatusOK)
	ok := decode[map[string]any](t, rec)
	if ok["status"] != "SUCCESS" || ok["product"] != "Chair" || ok["quantityProduced"] != float64(3) || ok["productId"] != float64(1) {
		t.Fatalf("unexpected produce body %v", ok)
	}
	material := decode[map[string]any](t, do(t, e, http.MethodGet, "/raw-materials/1", ""))
	if material["availableStock"] != float64(1) {
		t.Fatalf("expected stock 1 after producing, got %v", material["availableStock"])
	}

	rec = do(t, e, http.MethodPost, "/production/1/produce/1", "")
	expectStatus(t, rec, http.StatusBadRequest)
	short := decode[map[string]any](t, rec)
	want := map[string]any{
		"error":           "INSUFFICIENT_STOCK",
		"productName":     "Chair",
		"rawMaterialCode": "RM-1",
		"rawMaterial":     "Oak board",
		"available":       float64(1),
		"required":        float64(3),
		"missing":         float64(2),
	}
	for k, v := range want {
		if short[k] != v {
			t.Fatalf("field %s: expected %v, got %v", k, v, short[k])
		}
	}

	rec = do(t, e, http.MethodPost, "/production/2/produce/1", "")
	expectStatus(t, rec, http.StatusBadRequest)
	if got := decode[map[string]any](t, rec)["error"]; got != "This product has no BOM (no material usage defined)" {
		t.Fatalf("unexpected no-recipe error %v", got)
	}

	rec = do(t, e, http.MethodPost, "/production/1/produce/0", "")
	expectStatus(t, rec, http.StatusBadRequest)
	if got := decode[map[string]any](t, rec)["error"]; got != "Quantity must be greater than zero" {
		t.Fatalf("unexpected quantity error %v", got)
	}

	expectStatus(t, do(t, e, http.MethodPost, "/production/42/produce/1", ""), http.StatusNotFound)
}

func TestProduceIdempotencyKey(t *testing.T) {
	store := idempotency.NewMemoryStore(idempotency.DefaultTTL)
	e, _ := newTestAPI(t, Options{Idempotency: store})
	seedCatalog(t, e)

	first := do(t, e, http.MethodPost, "/production/1/produce/2", "", headerIdempotencyKey, "k-1")
	expectStatus(t, first, http.StatusOK)
	replay := do(t, e, http.MethodPost, "/production/1/produce/2", "", headerIdempotencyKey, "k-1")
	expectStatus(t, replay, http.StatusOK)
	if replay.Header().Get(headerIdempotentReplay) != "true" {
		t.Fatalf("expected replay header on second request")
	}
	if strings.TrimSpace(replay.Body.String()) != strings.TrimSpace(first.Body.String()) {
		t.Fatalf("replayed body differs: %s vs %s", replay.Body.String(), first.Body.String())
	}
	material := decode[map[string]any](t, do(t, e, http.MethodGet, "/raw-materials/1", ""))
	if material["availableStock"] != float64(4) {
		t.Fatalf("expected a single run to consume stock, got %v", material["availableStock"])
	}

	// a failed run frees its key for a later attempt
	expectStatus(t, do(t, e, http.MethodPost, "/production/1/produce/5", "", headerIdempotencyKey, "k-2"), http.StatusBadRequest)
	expectStatus(t, do(t, e, http.MethodPut, "/raw-materials/1", `{"availableStock":30}`), http.StatusOK)
	retry := do(t, e, http.MethodPost, "/production/1/produce/5", "", headerIdempotencyKey, "k-2")
	expectStatus(t, retry, http.StatusOK)
	if retry.Header().Get(headerIdempotentReplay) != "" {
		t.Fatalf("retry after failure must not be a replay")
	}

	if _, _, err := store.Begin(t.Context(), "produce:k-3"); err != nil {
		t.Fatalf("reserve key: %v", err)
	}
	expectStatus(t, do(t, e, http.MethodPost, "/production/1/produce/1", "", headerIdempotencyKey, "k-3"), http.StatusConflict)
}

func TestPlanningViews(t *testing.T) {
	e, _ := newTestAPI(t, Options{})
	seedCatalog(t, e)
	expectStatus(t, do(t, e, http.MethodPost, "/products", `{"code":"PRD-2","name":"Table","unitPrice":99}`), http.StatusCreated)
	expectStatus(t, do(t, e, http.MethodPost, "/material-usage", `{"productId":2,"rawMaterialId":1,"consumptionPerUnit":5}`), http.StatusCreated)

	check := decode[[]map[string]any](t, do(t, e, http.MethodGet, "/production-check", ""))
	if len(check) != 2 || check[0]["productName"] != "Chair" || check[0]["maxCanProduce"] != float64(3) || check[1]["maxCanProduce"] != float64(2) {
		t.Fatalf("unexpected production check %v", check)
	}

	priority := decode[[]map[string]any](t, do(t, e, http.MethodGet, "/production-priority", ""))
	if len(priority) != 2 || priority[0]["name"] != "Table" || priority[0]["unitPrice"] != float64(99) || priority[1]["maxQuantity"] != float64(3) {
		t.Fatalf("unexpected priority %v", priority)
	}
}

func TestCORS(t *testing.T) {
	cases := []struct {
		name    string
		origins []string
		origin  string
		allowed bool
	}{
		{"localhost any port by default", nil, "http://localhost:5173", true},
		{"loopback ip by default", nil, "http://127.0.0.1:3000", true},
		{"foreign origin by default", nil, "https://example.com", false},
		{"configured origin", []string{"https://app.example.com"}, "https://app.example.com", true},
		{"localhost not implied once configured", []string{"https://app.example.com"}, "http://localhost:5173", false},
		{"wildcard", []string{"*"}, "https://anything.example", true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			e, _ := newTestAPI(t, Options{CORSOrigins: tc.origins})
			rec := do(t, e, http.MethodOptions, "/products", "",
				echo.HeaderOrigin, tc.origin,
				echo.HeaderAccessControlRequestMethod, http.MethodPost)
			got := rec.Header().Get(echo.HeaderAccessControlAllowOrigin)
			if tc.allowed && got == "" {
				t.Fatalf("expected %s to be allowed", tc.origin)
			}
			if !tc.allowed && got != "" {
				t.Fatalf("expected %s to be rejected, got %q", tc.origin, got)
			}
		})
	}
}

func TestRateLimit(t *testing.T) {
	e, _ := newTestAPI(t, Options{RateLimit: 1, RateBurst: 1})
	expectStatus(t, do(t, e, http.MethodGet, "/products", ""), http.StatusOK)
	expectStatus(t, do(t, e, http.MethodGet, "/products", ""), http.StatusTooManyRequests)
	for i := 0; i < 3; i++ {
		expectStatus(t, do(t, e, http.MethodGet, "/health", ""), http.StatusOK)
	}
}

func TestHealthMetricsAndRequestID(t *testing.T) {
	rec := metrics.NewRecorder()
	e, _ := newTestAPI(t, Options{StorageDriver: "sqlite", MetricsHandler: rec.Handler(), Requests: rec})

	health := do(t, e, http.MethodGet, "/health", "")
	expectStatus(t, health, http.StatusOK)
	if body := decode[map[string]string](t, health); body["status"] != "ok" || body["storage"] != "sqlite" {
		t.Fatalf("unexpected health body %v", body)
	}
	if body := decode[map[string]string](t, health); body["apiVersion"] != "1.0.0" {
		t.Fatalf("expected api version in health body, got %v", body)
	}
	if health.Header().Get(echo.HeaderXRequestID) == "" {
		t.Fatalf("expected a generated request id")
	}

	doc := do(t, e, http.MethodGet, "/openapi.yaml", "")
	expectStatus(t, doc, http.StatusOK)
	if !strings.HasPrefix(doc.Body.String(), "openapi: 3") {
		t.Fatalf("unexpected openapi document %.40q", doc.Body.String())
	}

	expectStatus(t, do(t, e, http.MethodGet, "/products/5", ""), http.StatusNotFound)
	scrape := do(t, e, http.MethodGet, "/metrics", "")
	expectStatus(t, scrape, http.StatusOK)
	if !strings.Contains(scrape.Body.String(), `inventory_http_requests_total{method="GET",route="/products/:id",status="404"} 1`) {
		t.Fatalf("request counter missing from scrape:\n%s", scrape.Body.String())
	}
}

func TestReportRoutes(t *testing.T) {
	svc := core.NewInMemoryService(core.NewDefaultRulesEngine())
	exporter := reports.NewExporter(svc, memory.New())
	e := New(svc, Options{Reports: exporter})
	seedCatalog(t, e)

	rec := do(t, e, http.MethodPost, "/reports/production-check?format=csv", "")
	expectStatus(t, rec, http.StatusCreated)
	created := decode[reportResponse](t, rec)
	if !strings.HasPrefix(created.Key, "reports/production-check/") || created.ContentType != "text/csv" || created.Size == 0 {
		t.Fatalf("unexpected export response %+v", created)
	}

	list := decode[[]map[string]any](t, do(t, e, http.MethodGet, "/reports", ""))
	if len(list) != 1 || list[0]["key"] != created.Key {
		t.Fatalf("unexpected report listing %v", list)
	}

	download := do(t, e, http.MethodGet, "/"+created.Key, "")
	expectStatus(t, download, http.StatusOK)
	if !strings.HasPrefix(download.Body.String(), "productId,productName,maxCanProduce") {
		t.Fatalf("unexpected report content %q", download.Body.String())
	}
	if !strings.Contains(download.Header().Get(echo.HeaderContentDisposition), "attachment") {
		t.Fatalf("expected attachment disposition")
	}

	expectStatus(t, do(t, e, http.MethodPost, "/reports/inventory", ""), http.StatusBadRequest)
	expectStatus(t, do(t, e, http.MethodPost, "/reports/production-check?format=pdf", ""), http.StatusBadRequest)
	expectStatus(t, do(t, e, http.MethodGet, "/reports/production-check/missing.csv", ""), http.StatusNotFound)
}
