/*
handlers_test.go - HTTP-level tests for the savings API

Tests for:
- Account open / fetch round-trip
- Transaction submission and error mapping
- Statement pagination
- Verify and reconcile endpoints
*/
package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Staillim/IQCapitalMaster-sub001/ledger"
	"github.com/Staillim/IQCapitalMaster-sub001/ledger/store"
	"github.com/Staillim/IQCapitalMaster-sub001/savings"
)

// =============================================================================
// TEST SETUP
// =============================================================================

func newTestRouter(t *testing.T) (http.Handler, *savings.Service) {
	t.Helper()
	mem := store.NewMemory()
	svc := savings.New(mem, ledger.DefaultPolicy(),
		savings.WithClock(func() time.Time {
			return time.Date(2025, time.March, 15, 12, 0, 0, 0, time.UTC)
		}),
	)
	return NewRouter(NewHandler(svc), nil), svc
}

func doJSON(t *testing.T, router http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), "body: %s", rec.Body.String())
	return v
}

func openTestAccount(t *testing.T, router http.Handler, user string) AccountDTO {
	t.Helper()
	rec := doJSON(t, router, http.MethodPost, "/api/accounts", OpenAccountRequest{UserID: user})
	require.Equal(t, http.StatusCreated, rec.Code, "body: %s", rec.Body.String())
	return decode[AccountDTO](t, rec)
}

// =============================================================================
// ACCOUNT ENDPOINTS
// =============================================================================

func TestAPI_OpenAndGetAccount(t *testing.T) {
	router, _ := newTestRouter(t)

	acct := openTestAccount(t, router, "user-1")
	assert.NotEmpty(t, acct.ID)
	assert.Equal(t, "active", acct.Status)
	assert.Equal(t, "0", acct.Balance)
	assert.Equal(t, "2025-03", acct.CycleMonth)

	rec := doJSON(t, router, http.MethodGet, "/api/accounts/"+acct.ID, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	got := decode[AccountDTO](t, rec)
	assert.Equal(t, acct.ID, got.ID)
	assert.Equal(t, "15000", got.MinMonthlyContribution)
}

func TestAPI_OpenAccount_Validation(t *testing.T) {
	router, _ := newTestRouter(t)

	rec := doJSON(t, router, http.MethodPost, "/api/accounts", OpenAccountRequest{})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	openTestAccount(t, router, "user-1")
	rec = doJSON(t, router, http.MethodPost, "/api/accounts", OpenAccountRequest{UserID: "user-1"})
	assert.Equal(t, http.StatusConflict, rec.Code, "one account per member")
}

func TestAPI_GetAccount_NotFound(t *testing.T) {
	router, _ := newTestRouter(t)
	rec := doJSON(t, router, http.MethodGet, "/api/accounts/nope", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

// =============================================================================
// TRANSACTION ENDPOINT
// =============================================================================

func TestAPI_SubmitDeposit(t *testing.T) {
	// GIVEN: A fresh account
	// WHEN: Depositing 20,000 via the API
	// THEN: 201 with the updated snapshot and the persisted transaction

	router, _ := newTestRouter(t)
	acct := openTestAccount(t, router, "user-1")

	rec := doJSON(t, router, http.MethodPost, "/api/accounts/"+acct.ID+"/transactions",
		SubmitTransactionRequest{Type: "deposit", Amount: "20000", Concept: "monthly contribution"})
	require.Equal(t, http.StatusCreated, rec.Code, "body: %s", rec.Body.String())

	result := decode[SubmitResultDTO](t, rec)
	assert.Equal(t, "20000", result.Account.Balance)
	assert.Equal(t, "met", result.Account.ContributionState)
	require.Len(t, result.Transactions, 1)
	assert.Equal(t, "deposit", result.Transactions[0].Type)
	assert.Equal(t, "20000", result.Transactions[0].Balance)
}

func TestAPI_SubmitWithdrawal_FeeOnTransaction(t *testing.T) {
	router, _ := newTestRouter(t)
	acct := openTestAccount(t, router, "user-1")

	rec := doJSON(t, router, http.MethodPost, "/api/accounts/"+acct.ID+"/transactions",
		SubmitTransactionRequest{Type: "deposit", Amount: "120000"})
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = doJSON(t, router, http.MethodPost, "/api/accounts/"+acct.ID+"/transactions",
		SubmitTransactionRequest{Type: "withdrawal", Amount: "50000", Concept: "emergency"})
	require.Equal(t, http.StatusCreated, rec.Code, "body: %s", rec.Body.String())

	result := decode[SubmitResultDTO](t, rec)
	assert.Equal(t, "69000", result.Account.Balance)
	require.Len(t, result.Transactions, 1)
	require.NotNil(t, result.Transactions[0].Metadata)
	assert.Equal(t, "1000", result.Transactions[0].Metadata.Fee)
}

func TestAPI_Submit_ErrorMapping(t *testing.T) {
	router, _ := newTestRouter(t)
	acct := openTestAccount(t, router, "user-1")

	tests := []struct {
		name string
		req  SubmitTransactionRequest
		want int
	}{
		{"missing amount", SubmitTransactionRequest{Type: "deposit"}, http.StatusBadRequest},
		{"negative amount", SubmitTransactionRequest{Type: "deposit", Amount: "-100"}, http.StatusBadRequest},
		{"malformed amount", SubmitTransactionRequest{Type: "deposit", Amount: "abc"}, http.StatusBadRequest},
		{"deposit below floor", SubmitTransactionRequest{Type: "deposit", Amount: "500"}, http.StatusUnprocessableEntity},
		{"withdrawal no funds", SubmitTransactionRequest{Type: "withdrawal", Amount: "50000"}, http.StatusUnprocessableEntity},
		{"fine without reason", SubmitTransactionRequest{Type: "fine", Amount: "10000"}, http.StatusUnprocessableEntity},
		{"unsupported type", SubmitTransactionRequest{Type: "transfer", Amount: "20000"}, http.StatusUnprocessableEntity},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := doJSON(t, router, http.MethodPost, "/api/accounts/"+acct.ID+"/transactions", tt.req)
			assert.Equal(t, tt.want, rec.Code, "body: %s", rec.Body.String())
		})
	}
}

func TestAPI_Submit_UnknownAccount(t *testing.T) {
	router, _ := newTestRouter(t)
	rec := doJSON(t, router, http.MethodPost, "/api/accounts/nope/transactions",
		SubmitTransactionRequest{Type: "deposit", Amount: "20000"})
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

// =============================================================================
// STATEMENT ENDPOINT
// =============================================================================

func TestAPI_ListTransactions_Paginates(t *testing.T) {
	router, _ := newTestRouter(t)
	acct := openTestAccount(t, router, "user-1")

	for i := 0; i < 3; i++ {
		rec := doJSON(t, router, http.MethodPost, "/api/accounts/"+acct.ID+"/transactions",
			SubmitTransactionRequest{Type: "deposit", Amount: "5000", Concept: fmt.Sprintf("deposit %d", i)})
		require.Equal(t, http.StatusCreated, rec.Code)
	}

	rec := doJSON(t, router, http.MethodGet, "/api/accounts/"+acct.ID+"/transactions?limit=2", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	first := decode[StatementDTO](t, rec)
	require.Len(t, first.Transactions, 2)
	require.NotEmpty(t, first.NextCursor)

	rec = doJSON(t, router, http.MethodGet,
		"/api/accounts/"+acct.ID+"/transactions?limit=2&cursor="+first.NextCursor, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	second := decode[StatementDTO](t, rec)
	require.Len(t, second.Transactions, 1)
	assert.Empty(t, second.NextCursor)
}

func TestAPI_ListTransactions_BadLimit(t *testing.T) {
	router, _ := newTestRouter(t)
	acct := openTestAccount(t, router, "user-1")

	rec := doJSON(t, router, http.MethodGet, "/api/accounts/"+acct.ID+"/transactions?limit=zero", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAPI_ListTransactions_BadCursor(t *testing.T) {
	router, _ := newTestRouter(t)
	acct := openTestAccount(t, router, "user-1")

	rec := doJSON(t, router, http.MethodGet, "/api/accounts/"+acct.ID+"/transactions?cursor=garbage", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code, "body: %s", rec.Body.String())
}

// =============================================================================
// ADMIN ENDPOINTS
// =============================================================================

func TestAPI_VerifyAccount(t *testing.T) {
	router, _ := newTestRouter(t)
	acct := openTestAccount(t, router, "user-1")

	rec := doJSON(t, router, http.MethodPost, "/api/accounts/"+acct.ID+"/verify", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	body := decode[map[string]string](t, rec)
	assert.Equal(t, "consistent", body["status"])
}

func TestAPI_SetStatus(t *testing.T) {
	router, _ := newTestRouter(t)
	acct := openTestAccount(t, router, "user-1")

	rec := doJSON(t, router, http.MethodPost, "/api/admin/accounts/"+acct.ID+"/status",
		SetStatusRequest{Status: "suspended"})
	require.Equal(t, http.StatusOK, rec.Code, "body: %s", rec.Body.String())
	got := decode[AccountDTO](t, rec)
	assert.Equal(t, "suspended", got.Status)

	// Suspended accounts reject deposits with 422.
	rec = doJSON(t, router, http.MethodPost, "/api/accounts/"+acct.ID+"/transactions",
		SubmitTransactionRequest{Type: "deposit", Amount: "20000"})
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	rec = doJSON(t, router, http.MethodPost, "/api/admin/accounts/"+acct.ID+"/status",
		SetStatusRequest{Status: "bogus"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAPI_ReconcileCleanAccount(t *testing.T) {
	router, _ := newTestRouter(t)
	acct := openTestAccount(t, router, "user-1")

	rec := doJSON(t, router, http.MethodPost, "/api/admin/accounts/"+acct.ID+"/reconcile", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	body := decode[map[string]string](t, rec)
	assert.Equal(t, "reconciled", body["status"])
}

func TestAPI_Healthz(t *testing.T) {
	router, _ := newTestRouter(t)
	rec := doJSON(t, router, http.MethodGet, "/healthz", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}
