package httpapi

import (
	"encoding/json"
	"errors"
	"io"
	"log"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/shopspring/decimal"

	"pasal/backend/internal/apperrors"
	"pasal/backend/internal/domain"
	"pasal/backend/internal/service"
)

type API struct {
	service       *service.Service
	allowedOrigin string
}

func New(svc *service.Service, allowedOrigin string) *API {
	return &API{
		service:       svc,
		allowedOrigin: allowedOrigin,
	}
}

func (a *API) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("/healthz", a.handleHealth)
	mux.Handle("/metrics", promhttp.Handler())

	mux.HandleFunc("/api/v1/accounts", a.handleAccounts)
	mux.HandleFunc("/api/v1/accounts/", a.handleAccountActions)
	mux.HandleFunc("/api/v1/items", a.handleItems)
	mux.HandleFunc("/api/v1/items/", a.handleItemActions)
	mux.HandleFunc("/api/v1/barcode/", a.handleBarcodeResolve)
	mux.HandleFunc("/api/v1/scan", a.handleScan)
	mux.HandleFunc("/api/v1/sales", a.handleSales)
	mux.HandleFunc("/api/v1/purchases", a.handlePurchases)
	mux.HandleFunc("/api/v1/expenses", a.handleExpenses)
	mux.HandleFunc("/api/v1/loans", a.handleLoans)
	mux.HandleFunc("/api/v1/loans/", a.handleLoanActions)
	mux.HandleFunc("/api/v1/ledger", a.handleLedger)
	mux.HandleFunc("/api/v1/ledger/", a.handleLedgerActions)
	mux.HandleFunc("/api/v1/projections/accounts", a.handleAccountTotals)
	mux.HandleFunc("/api/v1/projections/stock", a.handleStockLevels)
	mux.HandleFunc("/api/v1/projections/loans", a.handleLoanSummary)

	return a.withMiddleware(mux)
}

func (a *API) withMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("Access-Control-Allow-Origin", a.allowedOrigin)
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		w.Header().Set("Access-Control-Allow-Methods", "GET,POST,PUT,PATCH,DELETE,OPTIONS")
		w.Header().Set("Vary", "Origin")

		if r.Method == http.MethodPost || r.Method == http.MethodPut || r.Method == http.MethodPatch {
			r.Body = http.MaxBytesReader(w, r.Body, 1<<20)
		}

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}

		recorder := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		startedAt := time.Now()
		next.ServeHTTP(recorder, r)
		elapsed := time.Since(startedAt)
		observeRequest(r.Method, recorder.status, elapsed)
		log.Printf("%s %s %d %s", r.Method, r.URL.Path, recorder.status, elapsed)
	})
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

func (a *API) handleAccounts(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		accounts, err := a.service.ListAccounts(r.Context())
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"accounts": accounts})
	case http.MethodPost:
		var req domain.AccountCreateRequest
		if err := decodeJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}
		account, err := a.service.CreateAccount(r.Context(), req)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, map[string]any{"account": account})
	default:
		writeMethodNotAllowed(w)
	}
}

// handleAccountActions serves /api/v1/accounts/{id} and the deposit and
// withdraw sub-resources.
func (a *API) handleAccountActions(w http.ResponseWriter, r *http.Request) {
	id, action := splitAction(strings.TrimPrefix(r.URL.Path, "/api/v1/accounts/"))
	if id == "" {
		writeError(w, http.StatusNotFound, errors.New("account id required"))
		return
	}

	switch action {
	case "":
		if r.Method != http.MethodGet {
			writeMethodNotAllowed(w)
			return
		}
		account, err := a.service.GetAccount(r.Context(), id)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"account": account})
	case "deposit", "withdraw":
		if r.Method != http.MethodPost {
			writeMethodNotAllowed(w)
			return
		}
		var req struct {
			Amount decimal.Decimal `json:"amount"`
		}
		if err := decodeJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}
		var entry *domain.LedgerEntry
		var err error
		if action == "deposit" {
			entry, err = a.service.Deposit(r.Context(), id, req.Amount)
		} else {
			entry, err = a.service.Withdraw(r.Context(), id, req.Amount)
		}
		observeCommit(action, err)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, map[string]any{"entry": entry})
	default:
		writeError(w, http.StatusNotFound, errors.New("unknown account action"))
	}
}

func (a *API) handleItems(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		items, err := a.service.ListItems(r.Context())
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"items": items})
	case http.MethodPost:
		var req domain.ItemCreateRequest
		if err := decodeJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}
		item, err := a.service.CreateItem(r.Context(), req)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, map[string]any{"item": item})
	default:
		writeMethodNotAllowed(w)
	}
}

func (a *API) handleItemActions(w http.ResponseWriter, r *http.Request) {
	id, action := splitAction(strings.TrimPrefix(r.URL.Path, "/api/v1/items/"))
	if id == "" {
		writeError(w, http.StatusNotFound, errors.New("item id required"))
		return
	}

	switch action {
	case "":
		switch r.Method {
		case http.MethodGet:
			item, err := a.service.GetItem(r.Context(), id)
			if err != nil {
				writeServiceError(w, err)
				return
			}
			writeJSON(w, http.StatusOK, map[string]any{"item": item})
		case http.MethodPatch:
			var req domain.ItemUpdateRequest
			if err := decodeJSON(r, &req); err != nil {
				writeError(w, http.StatusBadRequest, err)
				return
			}
			item, err := a.service.UpdateItem(r.Context(), id, req)
			if err != nil {
				writeServiceError(w, err)
				return
			}
			writeJSON(w, http.StatusOK, map[string]any{"item": item})
		case http.MethodDelete:
			if err := a.service.DeleteItem(r.Context(), id); err != nil {
				writeServiceError(w, err)
				return
			}
			writeJSON(w, http.StatusOK, map[string]any{"deleted": id})
		default:
			writeMethodNotAllowed(w)
		}
	case "stock":
		if r.Method != http.MethodPost {
			writeMethodNotAllowed(w)
			return
		}
		var req struct {
			Delta int `json:"delta"`
		}
		if err := decodeJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}
		stock, err := a.service.AdjustStock(r.Context(), id, req.Delta)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"item_id": id, "stock": stock})
	default:
		writeError(w, http.StatusNotFound, errors.New("unknown item action"))
	}
}

func (a *API) handleBarcodeResolve(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeMethodNotAllowed(w)
		return
	}
	code := strings.TrimPrefix(r.URL.Path, "/api/v1/barcode/")
	item, err := a.service.ResolveBarcode(r.Context(), code)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"item": item})
}

// handleScan accepts a raw capture frame in the request body and resolves
// the decoded barcode to an item.
func (a *API) handleScan(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeMethodNotAllowed(w)
		return
	}
	frame, err := io.ReadAll(http.MaxBytesReader(w, r.Body, 4<<20))
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	item, err := a.service.ResolveScan(r.Context(), frame)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"item": item})
}

func (a *API) handleSales(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeMethodNotAllowed(w)
		return
	}
	var req domain.SaleRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	entry, err := a.service.RecordSale(r.Context(), req)
	observeCommit("sale", err)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"entry": entry})
}

func (a *API) handlePurchases(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeMethodNotAllowed(w)
		return
	}
	var req domain.PurchaseRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	entry, err := a.service.RecordPurchase(r.Context(), req)
	observeCommit("purchase", err)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"entry": entry})
}

func (a *API) handleExpenses(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeMethodNotAllowed(w)
		return
	}
	var req domain.ExpenseRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	entry, err := a.service.RecordExpense(r.Context(), req)
	observeCommit("expense", err)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"entry": entry})
}

func (a *API) handleLoans(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		loans, err := a.service.ListLoans(r.Context(), time.Now().UTC())
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"loans": loans})
	case http.MethodPost:
		var req domain.LoanCreateRequest
		if err := decodeJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}
		loan, err := a.service.CreateLoan(r.Context(), req)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, map[string]any{"loan": loan})
	default:
		writeMethodNotAllowed(w)
	}
}

func (a *API) handleLoanActions(w http.ResponseWriter, r *http.Request) {
	id, action := splitAction(strings.TrimPrefix(r.URL.Path, "/api/v1/loans/"))
	if id == "" {
		writeError(w, http.StatusNotFound, errors.New("loan id required"))
		return
	}

	switch action {
	case "":
		switch r.Method {
		case http.MethodGet:
			loan, err := a.service.GetLoan(r.Context(), id)
			if err != nil {
				writeServiceError(w, err)
				return
			}
			writeJSON(w, http.StatusOK, map[string]any{
				"loan":   loan,
				"status": loan.Status(time.Now().UTC()),
			})
		case http.MethodPatch:
			var req domain.LoanUpdateRequest
			if err := decodeJSON(r, &req); err != nil {
				writeError(w, http.StatusBadRequest, err)
				return
			}
			loan, err := a.service.UpdateLoan(r.Context(), id, req)
			if err != nil {
				writeServiceError(w, err)
				return
			}
			writeJSON(w, http.StatusOK, map[string]any{"loan": loan})
		case http.MethodDelete:
			if err := a.service.DeleteLoan(r.Context(), id); err != nil {
				writeServiceError(w, err)
				return
			}
			writeJSON(w, http.StatusOK, map[string]any{"deleted": id})
		default:
			writeMethodNotAllowed(w)
		}
	case "payments":
		if r.Method != http.MethodPost {
			writeMethodNotAllowed(w)
			return
		}
		var req domain.LoanPaymentRequest
		if err := decodeJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}
		entry, err := a.service.RecordLoanPayment(r.Context(), id, req)
		observeCommit("loan_payment", err)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, map[string]any{"entry": entry})
	default:
		writeError(w, http.StatusNotFound, errors.New("unknown loan action"))
	}
}

func (a *API) handleLedger(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeMethodNotAllowed(w)
		return
	}
	kind := domain.EntryKind(strings.TrimSpace(r.URL.Query().Get("kind")))
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 {
			writeError(w, http.StatusBadRequest, errors.New("limit must be a positive integer"))
			return
		}
		limit = parsed
	}
	resp, err := a.service.ListLedger(r.Context(), kind, limit)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (a *API) handleLedgerActions(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimPrefix(r.URL.Path, "/api/v1/ledger/")
	if id == "" || strings.Contains(id, "/") {
		writeError(w, http.StatusNotFound, errors.New("entry id required"))
		return
	}

	switch r.Method {
	case http.MethodGet:
		entry, err := a.service.GetEntry(r.Context(), id)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"entry": entry})
	case http.MethodPut:
		var req domain.EntryEditRequest
		if err := decodeJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}
		entry, err := a.service.EditEntry(r.Context(), id, req)
		observeCommit("edit", err)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"entry": entry})
	case http.MethodDelete:
		err := a.service.DeleteEntry(r.Context(), id)
		observeCommit("delete", err)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"deleted": id})
	default:
		writeMethodNotAllowed(w)
	}
}

func (a *API) handleAccountTotals(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeMethodNotAllowed(w)
		return
	}
	totals, err := a.service.AccountTotals(r.Context())
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, totals)
}

func (a *API) handleStockLevels(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeMethodNotAllowed(w)
		return
	}
	levels, err := a.service.StockLevels(r.Context())
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"stock": levels})
}

func (a *API) handleLoanSummary(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeMethodNotAllowed(w)
		return
	}
	summary, err := a.service.LoanSummary(r.Context(), time.Now().UTC())
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

// splitAction splits "id" or "id/action" path tails.
func splitAction(tail string) (string, string) {
	id, action, _ := strings.Cut(tail, "/")
	return id, action
}

// statusFor maps the error taxonomy to HTTP status codes: validation 400,
// missing entities 404, refused business operations 422, lost races 409 and
// exhausted deadlines 504.
func statusFor(err error) int {
	switch {
	case errors.Is(err, apperrors.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, apperrors.ErrAccountNotFound),
		errors.Is(err, apperrors.ErrItemNotFound),
		errors.Is(err, apperrors.ErrLoanNotFound),
		errors.Is(err, apperrors.ErrEntryNotFound):
		return http.StatusNotFound
	case errors.Is(err, apperrors.ErrInsufficientFunds),
		errors.Is(err, apperrors.ErrInsufficientStock),
		errors.Is(err, apperrors.ErrPaymentExceedsRemaining),
		errors.Is(err, apperrors.ErrCashWithdrawal):
		return http.StatusUnprocessableEntity
	case errors.Is(err, apperrors.ErrDuplicate), errors.Is(err, apperrors.ErrConflict):
		return http.StatusConflict
	case errors.Is(err, apperrors.ErrTimeout):
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

func writeServiceError(w http.ResponseWriter, err error) {
	writeError(w, statusFor(err), err)
}

func decodeJSON(r *http.Request, dest any) error {
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	return decoder.Decode(dest)
}

func writeError(w http.ResponseWriter, status int, err error) {
	msg := err.Error()
	if status >= 500 {
		log.Printf("internal error (status %d): %v", status, err)
		msg = "internal server error"
	}
	writeJSON(w, status, map[string]any{"error": msg})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeMethodNotAllowed(w http.ResponseWriter) {
	writeError(w, http.StatusMethodNotAllowed, errors.New("method not allowed"))
}
