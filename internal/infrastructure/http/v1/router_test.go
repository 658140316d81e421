package v1_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"kitchenledger/internal/core/types"
	"kitchenledger/internal/domain/costing"
	"kitchenledger/internal/domain/events"
	"kitchenledger/internal/domain/inventory"
	"kitchenledger/internal/domain/procurement"
	"kitchenledger/internal/domain/recipe"
	"kitchenledger/internal/domain/reports"
	v1 "kitchenledger/internal/infrastructure/http/v1"
	"kitchenledger/internal/infrastructure/storage/memory"
	"kitchenledger/pkg/logger"
)

const testTenant = "0b6f7c1e-4a57-4b36-9a0e-0f0d2f6f6c11"

type api struct {
	t      *testing.T
	router http.Handler
	events *events.Recorder
}

func newAPI(t *testing.T) *api {
	t.Helper()
	store := memory.New()
	txm := memory.NewTxManager(store)
	rec := events.NewRecorder()
	inv := inventory.NewService(store, txm, rec)

	log, err := logger.New(logger.Config{Level: "error", OutputPaths: []string{"stderr"}})
	require.NoError(t, err)

	router := v1.NewRouter(v1.RouterConfig{
		Logger:      log,
		Version:     "test",
		Inventory:   inv,
		Recipes:     recipe.NewService(store, txm),
		Orders:      store,
		Numbers:     store,
		Costing:     costing.NewService(store, store, inv, txm, rec, costing.DefaultConfig()),
		Procurement: procurement.NewService(store, nil, 0),
		Reports:     reports.NewService(store, store, store, time.UTC, nil, 0),
	})
	return &api{t: t, router: router, events: rec}
}

func (a *api) do(method, path string, body any) *httptest.ResponseRecorder {
	a.t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(a.t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Tenant-ID", testTenant)
	req.Header.Set("X-Staff-ID", "cashier-7")
	w := httptest.NewRecorder()
	a.router.ServeHTTP(w, req)
	return w
}

func (a *api) create(path string, body any) string {
	a.t.Helper()
	w := a.do(http.MethodPost, path, body)
	require.Equal(a.t, http.StatusCreated, w.Code, w.Body.String())
	var resp struct {
		ID string `json:"id"`
	}
	require.NoError(a.t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp.ID
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	return out
}

func money(t *testing.T, v any) decimal.Decimal {
	t.Helper()
	s, ok := v.(string)
	require.True(t, ok, "expected decimal string, got %T", v)
	return types.MustMoney(s)
}

func TestHealthLive(t *testing.T) {
	a := newAPI(t)
	req := httptest.NewRequest(http.MethodGet, "/health/live", nil)
	w := httptest.NewRecorder()
	a.router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))
}

func TestHealthReadyWithoutDatabase(t *testing.T) {
	a := newAPI(t)
	req := httptest.NewRequest(http.MethodGet, "/health/ready", nil)
	w := httptest.NewRecorder()
	a.router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
}

func TestTenantHeaderRequired(t *testing.T) {
	a := newAPI(t)
	req := httptest.NewRequest(http.MethodGet, "/api/v1/inventory/audit", nil)
	w := httptest.NewRecorder()
	a.router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "TENANT_REQUIRED", decodeBody(t, w)["code"])
}

func TestTenantHeaderMustBeUUID(t *testing.T) {
	a := newAPI(t)
	req := httptest.NewRequest(http.MethodGet, "/api/v1/inventory/audit", nil)
	req.Header.Set("X-Tenant-ID", "bistro")
	w := httptest.NewRecorder()
	a.router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "VALIDATION_ERROR", decodeBody(t, w)["code"])
}

func TestInvalidPathID(t *testing.T) {
	a := newAPI(t)
	w := a.do(http.MethodPost, "/api/v1/orders/not-a-uuid/checkout", nil)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "VALIDATION_ERROR", decodeBody(t, w)["code"])
}

func TestCheckoutUnknownOrder(t *testing.T) {
	a := newAPI(t)
	w := a.do(http.MethodPost, "/api/v1/orders/0190a5b4-7e2c-7a41-9f2e-3a6c1b2d4e5f/checkout", nil)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestCheckoutFlow(t *testing.T) {
	a := newAPI(t)

	flour := a.create("/api/v1/inventory/raw-materials", map[string]any{
		"name":              "Flour",
		"unit":              "kg",
		"costPerUnit":       "2.00",
		"minimumAlertLevel": "1",
	})
	w := a.do(http.MethodPost, "/api/v1/inventory/lots", map[string]any{
		"rawMaterialId": flour,
		"quantity":      "2",
		"unitCost":      "1.50",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	bread := a.create("/api/v1/products", map[string]any{"name": "Bread", "price": "5.00"})
	w = a.do(http.MethodPut, "/api/v1/products/"+bread+"/recipe", map[string]any{
		"items": []map[string]any{{"rawMaterialId": flour, "amount": "0.5"}},
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = a.do(http.MethodGet, "/api/v1/products/"+bread+"/recipe", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	order := a.create("/api/v1/orders", map[string]any{
		"number":      "A-1",
		"totalAmount": "10.00",
		"items": []map[string]any{
			{"productId": bread, "quantity": 2, "unitPrice": "5.00"},
		},
	})

	w = a.do(http.MethodPost, "/api/v1/orders/"+order+"/checkout", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	result := decodeBody(t, w)
	assert.True(t, money(t, result["totalCost"]).Equal(types.MustMoney("1.5")))
	assert.True(t, money(t, result["netProfit"]).Equal(types.MustMoney("8.5")))
	assert.Equal(t, false, result["lowMargin"])

	w = a.do(http.MethodGet, "/api/v1/orders/"+order, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "paid", decodeBody(t, w)["status"])

	// second checkout of a paid order
	w = a.do(http.MethodPost, "/api/v1/orders/"+order+"/checkout", nil)
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "CONFLICT", decodeBody(t, w)["code"])

	// 1 kg left, alert level 1 kg
	w = a.do(http.MethodGet, "/api/v1/procurement/suggestions", nil)
	require.Equal(t, http.StatusOK, w.Code)
	items := decodeBody(t, w)["items"].([]any)
	require.Len(t, items, 1)
	assert.Equal(t, "Flour", items[0].(map[string]any)["name"])

	w = a.do(http.MethodGet, "/api/v1/inventory/audit", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.EqualValues(t, 0, decodeBody(t, w)["driftCount"])

	w = a.do(http.MethodPost, "/api/v1/inventory/raw-materials/"+flour+"/reconcile", nil)
	assert.Equal(t, http.StatusOK, w.Code, w.Body.String())
}

func TestCostingRequiresPaidOrder(t *testing.T) {
	a := newAPI(t)
	order := a.create("/api/v1/orders", map[string]any{"number": "A-2", "totalAmount": "4.00"})

	w := a.do(http.MethodPost, "/api/v1/orders/"+order+"/costing", nil)
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code, w.Body.String())
	assert.Equal(t, "ORDER_NOT_PAID", decodeBody(t, w)["code"])

	w = a.do(http.MethodPost, "/api/v1/orders/"+order+"/checkout", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = a.do(http.MethodPost, "/api/v1/orders/"+order+"/costing", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, true, decodeBody(t, w)["alreadyProcessed"])
}

func TestCreateOrderRejectsOversizedLine(t *testing.T) {
	a := newAPI(t)
	w := a.do(http.MethodPost, "/api/v1/orders", map[string]any{
		"totalAmount": "10.00",
		"items": []map[string]any{
			{"productId": "0190a5b4-7e2c-7a41-9f2e-3a6c1b2d4e5f", "quantity": 4000000000000000, "unitPrice": "1"},
		},
	})
	assert.Equal(t, http.StatusBadRequest, w.Code, w.Body.String())
	assert.Equal(t, "VALIDATION_ERROR", decodeBody(t, w)["code"])
}

func TestCreateOrderAssignsNumber(t *testing.T) {
	a := newAPI(t)
	first := a.create("/api/v1/orders", map[string]any{"totalAmount": "0"})
	second := a.create("/api/v1/orders", map[string]any{"totalAmount": "0"})

	year := time.Now().UTC().Format("2006")
	w := a.do(http.MethodGet, "/api/v1/orders/"+first, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "ORD-"+year+"-00001", decodeBody(t, w)["number"])

	w = a.do(http.MethodGet, "/api/v1/orders/"+second, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "ORD-"+year+"-00002", decodeBody(t, w)["number"])
}

func TestReceiveLotValidation(t *testing.T) {
	a := newAPI(t)
	w := a.do(http.MethodPost, "/api/v1/inventory/lots", map[string]any{
		"rawMaterialId": "nope",
		"quantity":      "1",
		"unitCost":      "1",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = a.do(http.MethodPost, "/api/v1/inventory/lots", map[string]any{"quantity": "1"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestProfitLossReport(t *testing.T) {
	a := newAPI(t)
	day := time.Now().UTC().Format(reports.DayLayout)

	w := a.do(http.MethodGet, "/api/v1/reports/profit-loss?from="+day+"&to="+day, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	body := decodeBody(t, w)
	assert.Equal(t, day, body["from"])
	assert.Len(t, body["daily"], 1)

	w = a.do(http.MethodGet, "/api/v1/reports/profit-loss.xlsx?from="+day+"&to="+day, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Content-Type"), "spreadsheetml")
	assert.NotEmpty(t, w.Body.Bytes())
}

func TestProfitLossReportRequiresRange(t *testing.T) {
	a := newAPI(t)
	w := a.do(http.MethodGet, "/api/v1/reports/profit-loss?from=2024-01-01", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = a.do(http.MethodGet, "/api/v1/reports/profit-loss?from=yesterday&to=today", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
