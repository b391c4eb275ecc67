package httpapi

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"pasal/backend/internal/service"
	"pasal/backend/internal/store/memory"
)

func newTestHandler() http.Handler {
	repo := memory.NewSeeded()
	payments := map[string]string{
		"cash":  "cash_in_hand",
		"esewa": "esewa_wallet",
	}
	svc := service.New(repo, nil, nil, payments, 5*time.Second, 5*time.Second)
	return New(svc, "http://127.0.0.1:3000").Handler()
}

func doJSON(t *testing.T, handler http.Handler, method string, path string, body string) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body == "" {
		reader = bytes.NewReader(nil)
	} else {
		reader = bytes.NewReader([]byte(body))
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func TestHealthEndpoint(t *testing.T) {
	handler := newTestHandler()
	rec := doJSON(t, handler, http.MethodGet, "/healthz", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}

func TestCreateSale(t *testing.T) {
	handler := newTestHandler()
	rec := doJSON(t, handler, http.MethodPost, "/api/v1/sales", `{
		"cart": [{"code": "item-waiwai", "quantity": 2}],
		"payment_method": "cash"
	}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}

	var resp struct {
		Entry struct {
			ID    string `json:"id"`
			Kind  string `json:"kind"`
			Total string `json:"total"`
		} `json:"entry"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Entry.Kind != "sale" || resp.Entry.Total != "50" {
		t.Fatalf("unexpected entry %+v", resp.Entry)
	}

	// the recorded entry is visible in the ledger
	rec = doJSON(t, handler, http.MethodGet, "/api/v1/ledger/"+resp.Entry.ID, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 for recorded entry, got %d", rec.Code)
	}
}

func TestSaleValidationErrors(t *testing.T) {
	handler := newTestHandler()

	rec := doJSON(t, handler, http.MethodPost, "/api/v1/sales", `{"cart": [], "payment_method": "cash"}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for empty cart, got %d", rec.Code)
	}

	rec = doJSON(t, handler, http.MethodPost, "/api/v1/sales", `not json`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for malformed body, got %d", rec.Code)
	}

	rec = doJSON(t, handler, http.MethodPost, "/api/v1/sales", `{
		"cart": [{"code": "item-cocacola", "quantity": 9999}],
		"payment_method": "cash"
	}`)
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422 for insufficient stock, got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestCashWithdrawalRefused(t *testing.T) {
	handler := newTestHandler()
	rec := doJSON(t, handler, http.MethodPost, "/api/v1/accounts/cash_in_hand/withdraw", `{"amount": "100"}`)
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d: %s", rec.Code, rec.Body.String())
	}

	rec = doJSON(t, handler, http.MethodPost, "/api/v1/accounts/esewa_wallet/withdraw", `{"amount": "100"}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201 for wallet withdrawal, got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestUnknownEntryIs404(t *testing.T) {
	handler := newTestHandler()
	rec := doJSON(t, handler, http.MethodGet, "/api/v1/ledger/txn-missing", "")
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}

func TestDeleteEntryReversesSale(t *testing.T) {
	handler := newTestHandler()

	rec := doJSON(t, handler, http.MethodPost, "/api/v1/sales", `{
		"cart": [{"code": "item-cocacola", "quantity": 1}],
		"payment_method": "cash"
	}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("record sale: %d", rec.Code)
	}
	var resp struct {
		Entry struct {
			ID string `json:"id"`
		} `json:"entry"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}

	rec = doJSON(t, handler, http.MethodDelete, "/api/v1/ledger/"+resp.Entry.ID, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 for delete, got %d: %s", rec.Code, rec.Body.String())
	}

	rec = doJSON(t, handler, http.MethodGet, "/api/v1/accounts/cash_in_hand", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("get account: %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `"balance":"5000"`) {
		t.Fatalf("expected balance restored to 5000, got %s", rec.Body.String())
	}
}

func TestMethodNotAllowed(t *testing.T) {
	handler := newTestHandler()
	rec := doJSON(t, handler, http.MethodDelete, "/api/v1/sales", "")
	if rec.Code != http.StatusMethodNotAllowed {
		t.Fatalf("expected 405, got %d", rec.Code)
	}
}

func TestCORSPreflight(t *testing.T) {
	handler := newTestHandler()
	rec := doJSON(t, handler, http.MethodOptions, "/api/v1/sales", "")
	if rec.Code != http.StatusNoContent {
		t.Fatalf("expected 204 for preflight, got %d", rec.Code)
	}
	if rec.Header().Get("Access-Control-Allow-Origin") != "http://127.0.0.1:3000" {
		t.Fatalf("expected CORS origin header, got %q", rec.Header().Get("Access-Control-Allow-Origin"))
	}
}

func TestProjectionEndpoints(t *testing.T) {
	handler := newTestHandler()

	rec := doJSON(t, handler, http.MethodGet, "/api/v1/projections/accounts", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("account totals: %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `"capital":"167000"`) {
		t.Fatalf("expected capital 167000, got %s", rec.Body.String())
	}

	rec = doJSON(t, handler, http.MethodGet, "/api/v1/projections/stock", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("stock levels: %d", rec.Code)
	}

	rec = doJSON(t, handler, http.MethodGet, "/api/v1/projections/loans", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("loan summary: %d", rec.Code)
	}
}

func TestBarcodeResolve(t *testing.T) {
	handler := newTestHandler()

	rec := doJSON(t, handler, http.MethodGet, "/api/v1/barcode/ITEM-3F9A21B4C7D0", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "item-waiwai") {
		t.Fatalf("expected item-waiwai in response, got %s", rec.Body.String())
	}

	rec = doJSON(t, handler, http.MethodGet, "/api/v1/barcode/ITEM-UNKNOWN00000", "")
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for unknown barcode, got %d", rec.Code)
	}
}
