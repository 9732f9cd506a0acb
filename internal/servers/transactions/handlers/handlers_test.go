package handlers_test

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/suricat89/baas-core/internal/config"
	"github.com/suricat89/baas-core/internal/engine"
	"github.com/suricat89/baas-core/internal/logging"
	"github.com/suricat89/baas-core/internal/models"
	"github.com/suricat89/baas-core/internal/repositories/memory"
	"github.com/suricat89/baas-core/internal/servers/transactions/handlers"
)

func newTestApp(t *testing.T) (*fiber.App, *memory.Store) {
	t.Helper()

	lg, err := logging.NewZapLogger(&config.Config{LogLevel: 2})
	require.NoError(t, err)

	store := memory.NewStore()
	eng := engine.NewEngine(store, lg)

	simple := handlers.NewSimpleTransactionHandler(eng, lg)
	p2p := handlers.NewP2PHandler(eng, lg)
	statement := handlers.NewStatementHandler(eng, lg)

	app := fiber.New()
	app.Post("/api/transaction/withdraw", simple.NewWithdraw)
	app.Post("/api/transaction/deposit", simple.NewDeposit)
	app.Post("/api/transaction/debit", simple.NewDebit)
	app.Post("/api/transaction/p2p", p2p.NewP2P)
	app.Get("/api/account", statement.GetStatement)

	return app, store
}

func seedAccount(store *memory.Store, agency, number, balance int64, userUUID string) models.AccountRef {
	account := store.CreateAccount(
		models.Account{Agency: agency, AccountNumber: number, Balance: balance},
		models.Customer{Name: "Customer " + userUUID, CPF: number, UserUUID: userUUID},
	)
	return account.Ref()
}

func doJSON(t *testing.T, app *fiber.App, method, target, body string) (*http.Response, map[string]any) {
	t.Helper()

	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, reader)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-User-Id", "manager-uuid")
	req.Header.Set("X-User-Profile", "MANAGER")

	resp, err := app.Test(req)
	require.NoError(t, err)

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	parsed := map[string]any{}
	if len(raw) > 0 {
		_ = json.Unmarshal(raw, &parsed)
	}

	return resp, parsed
}

func TestWithdrawEndpoint(t *testing.T) {
	app, store := newTestApp(t)
	ref := seedAccount(store, 1, 100, 1000, "user-1")

	resp, body := doJSON(t, app, "POST", "/api/transaction/withdraw",
		`{"agency": 1, "accountNumber": 100, "value": 100}`)

	require.Equal(t, http.StatusOK, resp.StatusCode)
	transaction := body["transaction"].(map[string]any)
	assert.Equal(t, "WITHDRAW", transaction["transactionType"])
	assert.Equal(t, float64(100), transaction["value"])
	assert.Equal(t, int64(900), store.AccountByRef(ref).Balance)
}

func TestWithdrawEndpointValidation(t *testing.T) {
	app, _ := newTestApp(t)

	resp, body := doJSON(t, app, "POST", "/api/transaction/withdraw",
		`{"agency": 1, "accountNumber": 100}`)

	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	errBody := body["error"].(map[string]any)
	assert.Equal(t, []any{"value"}, errBody["fields"])
}

func TestWithdrawEndpointInsufficientFunds(t *testing.T) {
	app, store := newTestApp(t)
	seedAccount(store, 1, 100, 1000, "user-1")

	resp, body := doJSON(t, app, "POST", "/api/transaction/withdraw",
		`{"agency": 1, "accountNumber": 100, "value": 2001}`)

	require.Equal(t, http.StatusPreconditionFailed, resp.StatusCode)
	errBody := body["error"].(map[string]any)
	assert.Equal(t, "not enough funds", errBody["message"])
}

func TestWithdrawEndpointNotFound(t *testing.T) {
	app, _ := newTestApp(t)

	resp, _ := doJSON(t, app, "POST", "/api/transaction/withdraw",
		`{"agency": 9, "accountNumber": 999, "value": 10}`)

	require.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestDepositEndpointClientOtherAccount(t *testing.T) {
	app, store := newTestApp(t)
	seedAccount(store, 1, 100, 1000, "client-1")
	seedAccount(store, 2, 200, 1000, "client-2")

	req := httptest.NewRequest("POST", "/api/transaction/deposit",
		strings.NewReader(`{"agency": 2, "accountNumber": 200, "value": 100}`))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-User-Id", "client-1")
	req.Header.Set("X-User-Profile", "CLIENT")

	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
}

func TestP2PEndpoint(t *testing.T) {
	app, store := newTestApp(t)
	origin := seedAccount(store, 1, 100, 1000, "user-1")
	destination := seedAccount(store, 2, 200, 100, "user-2")

	resp, body := doJSON(t, app, "POST", "/api/transaction/p2p",
		`{"originAccount": {"agency": 1, "accountNumber": 100}, "destinationAccount": {"agency": 2, "accountNumber": 200}, "value": 100}`)

	require.Equal(t, http.StatusOK, resp.StatusCode)
	transaction := body["transaction"].(map[string]any)
	assert.Equal(t, "P2P", transaction["transactionType"])
	assert.Equal(t, int64(900), store.AccountByRef(origin).Balance)
	assert.Equal(t, int64(200), store.AccountByRef(destination).Balance)
}

func TestP2PEndpointSameAccount(t *testing.T) {
	app, store := newTestApp(t)
	seedAccount(store, 1, 100, 1000, "user-1")

	resp, body := doJSON(t, app, "POST", "/api/transaction/p2p",
		`{"originAccount": {"agency": 1, "accountNumber": 100}, "destinationAccount": {"agency": 1, "accountNumber": 100}, "value": 100}`)

	require.Equal(t, http.StatusPreconditionFailed, resp.StatusCode)
	errBody := body["error"].(map[string]any)
	assert.Equal(t, "origin account and destination account are the same", errBody["message"])
}

func TestStatementEndpoint(t *testing.T) {
	app, store := newTestApp(t)
	seedAccount(store, 1, 100, 1000, "user-1")

	_, _ = doJSON(t, app, "POST", "/api/transaction/deposit",
		`{"agency": 1, "accountNumber": 100, "value": 50}`)

	resp, body := doJSON(t, app, "GET", "/api/account?agency=1&accountNumber=100", "")

	require.Equal(t, http.StatusOK, resp.StatusCode)
	account := body["account"].(map[string]any)
	assert.Equal(t, float64(1050), account["balance"])
	entries := account["transactions"].([]any)
	require.Len(t, entries, 1)
}

func TestStatementEndpointInvalidDate(t *testing.T) {
	app, store := newTestApp(t)
	seedAccount(store, 1, 100, 1000, "user-1")

	resp, _ := doJSON(t, app, "GET", "/api/account?agency=1&accountNumber=100&startDate=yesterday", "")

	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestMissingIdentityHeader(t *testing.T) {
	app, _ := newTestApp(t)

	req := httptest.NewRequest("POST", "/api/transaction/withdraw",
		strings.NewReader(`{"agency": 1, "accountNumber": 100, "value": 10}`))
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}
