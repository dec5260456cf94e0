/*
handlers.go - HTTP handlers for the savings ledger API

PURPOSE:
  Thin translation layer: parse and validate the request, call the
  savings service, serialize the result. No business logic lives here.

ERROR HANDLING:
  Typed engine rejections map onto HTTP status codes:
  - 400: Malformed request body or parameters
  - 404: Account not found
  - 409: Concurrent modification (retry budget exhausted)
  - 422: Business rule rejection (limits, floors, funds, fines)
  - 500: Ledger corruption and store failures

SECURITY NOTE:
  No authentication middleware here; the deployment fronts this service
  with the cooperative's identity provider.

SEE ALSO:
  - dto.go: Request/response data structures
  - server.go: Router setup and middleware
*/
package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/Staillim/IQCapitalMaster-sub001/ledger"
	"github.com/Staillim/IQCapitalMaster-sub001/savings"
)

// Handler holds all dependencies for HTTP handlers.
type Handler struct {
	Service *savings.Service
}

// NewHandler creates a handler backed by the given service.
func NewHandler(svc *savings.Service) *Handler {
	return &Handler{Service: svc}
}

// =============================================================================
// ACCOUNT HANDLERS
// =============================================================================

// OpenAccount creates the single account for a member.
func (h *Handler) OpenAccount(w http.ResponseWriter, r *http.Request) {
	var req OpenAccountRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err)
		return
	}
	if req.UserID == "" {
		writeError(w, http.StatusBadRequest, "userId is required", nil)
		return
	}

	acct, err := h.Service.OpenAccount(r.Context(), ledger.UserID(req.UserID))
	if err != nil {
		if errors.Is(err, ledger.ErrAccountExists) {
			writeError(w, http.StatusConflict, "member already has an account", err)
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to open account", err)
		return
	}

	writeJSON(w, http.StatusCreated, toAccountDTO(acct))
}

// GetAccount returns the current account snapshot.
func (h *Handler) GetAccount(w http.ResponseWriter, r *http.Request) {
	id := ledger.AccountID(chi.URLParam(r, "id"))

	acct, err := h.Service.Account(r.Context(), id)
	if err != nil {
		writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toAccountDTO(acct))
}

// =============================================================================
// TRANSACTION HANDLERS
// =============================================================================

// SubmitTransaction applies a deposit/withdrawal/fine/interest request.
func (h *Handler) SubmitTransaction(w http.ResponseWriter, r *http.Request) {
	id := ledger.AccountID(chi.URLParam(r, "id"))

	var req SubmitTransactionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err)
		return
	}

	amount := ledger.MustParseMoney(req.Amount)
	if req.Amount == "" || !amount.IsPositive() {
		writeError(w, http.StatusBadRequest, "amount must be a positive decimal string", nil)
		return
	}

	acct, txs, err := h.Service.Submit(r.Context(), ledger.Request{
		AccountID: id,
		Type:      ledger.TransactionType(req.Type),
		Amount:    amount,
		Concept:   req.Concept,
		Metadata: ledger.TxMetadata{
			FineReason: req.Metadata.FineReason,
			ApprovedBy: req.Metadata.ApprovedBy,
			ReceiptURL: req.Metadata.ReceiptURL,
		},
		RequestedBy: req.By,
	})
	if err != nil {
		writeEngineError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, SubmitResultDTO{
		Account:      toAccountDTO(acct),
		Transactions: toTransactionDTOs(txs),
	})
}

// ListTransactions returns one page of the account's history.
func (h *Handler) ListTransactions(w http.ResponseWriter, r *http.Request) {
	id := ledger.AccountID(chi.URLParam(r, "id"))

	page := ledger.Page{
		Cursor:     r.URL.Query().Get("cursor"),
		SinceMonth: r.URL.Query().Get("sinceMonth"),
	}
	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		limit, err := strconv.Atoi(limitStr)
		if err != nil || limit < 1 {
			writeError(w, http.StatusBadRequest, "limit must be a positive integer", nil)
			return
		}
		page.Limit = limit
	}

	result, err := h.Service.Statement(r.Context(), id, page)
	if err != nil {
		writeEngineError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, StatementDTO{
		Transactions: toTransactionDTOs(result.Transactions),
		NextCursor:   result.NextCursor,
	})
}

// =============================================================================
// ADMIN HANDLERS
// =============================================================================

// VerifyAccount replays the full history against the stored snapshot.
func (h *Handler) VerifyAccount(w http.ResponseWriter, r *http.Request) {
	id := ledger.AccountID(chi.URLParam(r, "id"))

	if err := h.Service.Verify(r.Context(), id); err != nil {
		if errors.Is(err, ledger.ErrLedgerCorruption) {
			writeError(w, http.StatusInternalServerError, "ledger corruption detected", err)
			return
		}
		writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "consistent"})
}

// SetAccountStatus suspends or reactivates an account.
func (h *Handler) SetAccountStatus(w http.ResponseWriter, r *http.Request) {
	id := ledger.AccountID(chi.URLParam(r, "id"))

	var req SetStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err)
		return
	}

	status := ledger.AccountStatus(req.Status)
	switch status {
	case ledger.StatusActive, ledger.StatusInactive, ledger.StatusSuspended:
	default:
		writeError(w, http.StatusBadRequest, "status must be active, inactive or suspended", nil)
		return
	}

	acct, err := h.Service.SetStatus(r.Context(), id, status)
	if err != nil {
		writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toAccountDTO(acct))
}

// ReconcileAccount clears a corruption halt after manual review.
func (h *Handler) ReconcileAccount(w http.ResponseWriter, r *http.Request) {
	id := ledger.AccountID(chi.URLParam(r, "id"))

	if err := h.Service.Reconcile(r.Context(), id); err != nil {
		if errors.Is(err, ledger.ErrLedgerCorruption) {
			writeError(w, http.StatusConflict, "ledger still inconsistent, halt kept", err)
			return
		}
		writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "reconciled"})
}

// Healthz reports liveness.
func (h *Handler) Healthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// =============================================================================
// RESPONSE HELPERS
// =============================================================================

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

type errorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

func writeError(w http.ResponseWriter, status int, msg string, err error) {
	resp := errorResponse{Error: msg}
	if err != nil {
		resp.Details = err.Error()
	}
	writeJSON(w, status, resp)
}

// writeEngineError maps typed engine errors onto HTTP statuses.
func writeEngineError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ledger.ErrInvalidCursor):
		writeError(w, http.StatusBadRequest, "invalid cursor", err)
	case ledger.IsNotFound(err):
		writeError(w, http.StatusNotFound, "account not found", err)
	case ledger.IsClientError(err):
		writeError(w, http.StatusUnprocessableEntity, "request rejected", err)
	case errors.Is(err, ledger.ErrConcurrentModification):
		writeError(w, http.StatusConflict, "concurrent modification, retry", err)
	case errors.Is(err, ledger.ErrLedgerCorruption):
		writeError(w, http.StatusInternalServerError, "account halted pending reconciliation", err)
	default:
		writeError(w, http.StatusInternalServerError, "internal error", err)
	}
}
