package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ashendes/payplus-connector/internal/apperrors"
	"github.com/ashendes/payplus-connector/internal/config"
	"github.com/ashendes/payplus-connector/internal/metrics"
	"github.com/ashendes/payplus-connector/internal/models"
	"github.com/ashendes/payplus-connector/internal/orders"
	"github.com/ashendes/payplus-connector/internal/session"
	"github.com/ashendes/payplus-connector/internal/signer"
	"github.com/ashendes/payplus-connector/internal/store"
	"github.com/ashendes/payplus-connector/internal/webhook"
)

type mockGateway struct {
	CreateSessionFunc func(ctx context.Context, endpoint, encodedPayload, signature string) (*models.SessionResponse, error)
	state             string
}

func (m *mockGateway) CreateSession(ctx context.Context, endpoint, encodedPayload, signature string) (*models.SessionResponse, error) {
	if m.CreateSessionFunc != nil {
		return m.CreateSessionFunc(ctx, endpoint, encodedPayload, signature)
	}
	link := "https://pay.gateway.test/s/1"
	id := "sess-1"
	return &models.SessionResponse{Data: &models.SessionData{Link: &link, SessionID: &id}}, nil
}

func (m *mockGateway) BreakerState() string {
	return m.state
}

type testServer struct {
	router  *gin.Engine
	gateway *mockGateway
	txns    *store.MemoryStore
	orders  *orders.MemoryStore
	signer  *signer.Signer
	cfg     *config.Config
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	cfg, err := config.Default()
	require.NoError(t, err)
	cfg.Merchant.ID = "M-1"
	cfg.Merchant.Secret = "secret"
	cfg.Merchant.ApplicationKey = "app-key"
	cfg.Gateway.SandboxEndpoint = "https://sandbox.gateway.test/session"
	cfg.Shop.Domain = "shop.test"
	cfg.Shop.NotifyURL = "https://shop.test/payplus/webhook"
	cfg.Shop.RedirectURL = "https://shop.test/return?ref={orderReference}"

	s, err := signer.New(cfg.Merchant.Secret)
	require.NoError(t, err)

	gw := &mockGateway{state: "closed"}
	txns := store.NewMemoryStore()
	orderStore := orders.NewMemoryStore()

	h := New(cfg, txns,
		session.NewService(cfg, s, gw, txns),
		webhook.NewProcessor(s, txns, orderStore, cfg.OrderStates),
		gw)

	return &testServer{
		router:  h.Router(),
		gateway: gw,
		txns:    txns,
		orders:  orderStore,
		signer:  s,
		cfg:     cfg,
	}
}

func (ts *testServer) do(method, path string, body []byte, remoteAddr string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if remoteAddr != "" {
		req.RemoteAddr = remoteAddr
	}
	w := httptest.NewRecorder()
	ts.router.ServeHTTP(w, req)
	return w
}

func (ts *testServer) signedWebhook(t *testing.T, payload string) []byte {
	t.Helper()
	env, err := ts.signer.Seal(json.RawMessage(payload))
	require.NoError(t, err)
	body, err := json.Marshal(map[string]any{"signature": env.Signature, "payload": json.RawMessage(payload)})
	require.NoError(t, err)
	return body
}

const checkoutBody = `{"orderReference":"ORD-1","orderId":7,"amount":"100.00","currency":"usd",
	"customer":{"firstname":"Ada","lastname":"Lovelace","email":"ada@example.com","phoneNumber":"771234567"}}`

func TestHealth(t *testing.T) {
	ts := newTestServer(t)
	w := ts.do(http.MethodGet, "/health", nil, "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.NotEmpty(t, w.Header().Get(RequestIDHeader))
}

func TestStatus(t *testing.T) {
	ts := newTestServer(t)
	ts.gateway.state = "open"

	w := ts.do(http.MethodGet, "/payplus/status", nil, "")
	require.Equal(t, http.StatusOK, w.Code)

	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "sandbox", body["environment"])
	assert.Equal(t, "open", body["circuit_breaker"])
	assert.Equal(t, metrics.ServiceName, body["service"])
}

func TestCheckoutSuccess(t *testing.T) {
	ts := newTestServer(t)

	w := ts.do(http.MethodPost, "/payplus/checkout", []byte(checkoutBody), "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp CheckoutResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "https://pay.gateway.test/s/1", resp.RedirectURL)
	assert.Equal(t, "sess-1", resp.SessionID)

	txn, err := ts.txns.FindByOrderReference(context.Background(), "ORD-1")
	require.NoError(t, err)
	assert.Equal(t, models.TransactionStatusPending, txn.Status)
	assert.Equal(t, "USD", txn.Currency)
	assert.Equal(t, uint(7), txn.OrderID)
	assert.True(t, decimal.RequireFromString("100").Equal(txn.Amount))
	require.NotNil(t, txn.SessionID)
	assert.Equal(t, "sess-1", *txn.SessionID)
}

func TestCheckoutDuplicateReference(t *testing.T) {
	ts := newTestServer(t)
	require.Equal(t, http.StatusOK, ts.do(http.MethodPost, "/payplus/checkout", []byte(checkoutBody), "").Code)

	w := ts.do(http.MethodPost, "/payplus/checkout", []byte(checkoutBody), "")
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestCheckoutValidation(t *testing.T) {
	ts := newTestServer(t)
	for _, body := range []string{
		`{"amount":"10","currency":"USD"}`,
		`{"orderReference":"ORD-1","amount":"10","currency":"US"}`,
		`{"orderReference":"ORD-1","amount":"0","currency":"USD"}`,
		`{"orderReference":"ORD-1","amount":"-5","currency":"USD"}`,
		`{"orderReference":"ORD-1","amount":"0.004","currency":"USD"}`,
		`{"orderReference":"ORD-1","amount":"10","currency":"1$x"}`,
		`{"orderReference":"ORD-1","amount":"10","currency":"ABC"}`,
		`not json`,
	} {
		w := ts.do(http.MethodPost, "/payplus/checkout", []byte(body), "")
		assert.Equal(t, http.StatusBadRequest, w.Code, body)
	}

	_, err := ts.txns.FindByOrderReference(context.Background(), "ORD-1")
	assert.True(t, apperrors.Is(err, apperrors.KindNotFound), "rejected requests store nothing")
}

func TestCheckoutRoundsAmountToCents(t *testing.T) {
	ts := newTestServer(t)
	body := `{"orderReference":"ORD-2","amount":"0.005","currency":"eur"}`

	w := ts.do(http.MethodPost, "/payplus/checkout", []byte(body), "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	txn, err := ts.txns.FindByOrderReference(context.Background(), "ORD-2")
	require.NoError(t, err)
	assert.True(t, decimal.RequireFromString("0.01").Equal(txn.Amount))
	assert.Equal(t, "EUR", txn.Currency)
}

func TestCheckoutGatewayFailure(t *testing.T) {
	ts := newTestServer(t)
	ts.gateway.CreateSessionFunc = func(context.Context, string, string, string) (*models.SessionResponse, error) {
		return nil, apperrors.Gateway(http.StatusInternalServerError, "boom")
	}

	w := ts.do(http.MethodPost, "/payplus/checkout", []byte(checkoutBody), "")
	assert.Equal(t, http.StatusBadGateway, w.Code)
	assert.Contains(t, w.Body.String(), session.UserMessage)
	assert.NotContains(t, w.Body.String(), "boom")
	assert.NotContains(t, w.Body.String(), "retryable")

	txn, err := ts.txns.FindByOrderReference(context.Background(), "ORD-1")
	require.NoError(t, err)
	assert.Equal(t, models.TransactionStatusPending, txn.Status)

	// the failed attempt keeps the reference
	w = ts.do(http.MethodPost, "/payplus/checkout", []byte(checkoutBody), "")
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestCheckoutMisconfigured(t *testing.T) {
	ts := newTestServer(t)
	ts.cfg.Merchant.ApplicationKey = ""

	w := ts.do(http.MethodPost, "/payplus/checkout", []byte(checkoutBody), "")
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Contains(t, w.Body.String(), session.UserMessage)
}

func TestWebhookResponses(t *testing.T) {
	ts := newTestServer(t)
	ts.orders.Add("ORD-1", ts.cfg.OrderStates.AwaitingPayment)
	require.NoError(t, ts.txns.Create(context.Background(),
		models.NewTransaction("ORD-1", "M-1", decimal.RequireFromString("100.00"), "USD")))

	w := ts.do(http.MethodPost, "/payplus/webhook",
		[]byte(`{"signature":"deadbeef","payload":{"orderId":"ORD-1","status":"COMPLETED"}}`), "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "Unauthorized", w.Body.String())

	w = ts.do(http.MethodPost, "/payplus/webhook", []byte(`{"payload":{}}`), "")
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = ts.do(http.MethodPost, "/payplus/webhook", ts.signedWebhook(t, `{"orderId":"ORD-1","status":"COMPLETED","sessionId":"s1"}`), "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "OK", w.Body.String())
	assert.Equal(t, ts.cfg.OrderStates.PaymentAccepted, ts.orders.State("ORD-1"))

	w = ts.do(http.MethodPost, "/payplus/webhook", ts.signedWebhook(t, `{"orderId":"ORD-1","status":"FAILED"}`), "")
	assert.Equal(t, http.StatusOK, w.Code)

	txn, err := ts.txns.FindByOrderReference(context.Background(), "ORD-1")
	require.NoError(t, err)
	assert.Equal(t, models.TransactionStatusCompleted, txn.Status)

	w = ts.do(http.MethodPost, "/payplus/webhook", ts.signedWebhook(t, `{"orderId":"ORD-404","status":"COMPLETED"}`), "")
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestWebhookPersistenceFailure(t *testing.T) {
	ts := newTestServer(t)
	ts.orders.Add("ORD-1", ts.cfg.OrderStates.AwaitingPayment)
	require.NoError(t, ts.txns.Create(context.Background(),
		models.NewTransaction("ORD-1", "M-1", decimal.RequireFromString("1"), "USD")))
	ts.orders.FailSetState = apperrors.Persistence("set order state", assert.AnError)

	w := ts.do(http.MethodPost, "/payplus/webhook", ts.signedWebhook(t, `{"orderId":"ORD-1","status":"COMPLETED"}`), "")
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, "Internal Server Error", w.Body.String())
}

func TestAdminListAndGet(t *testing.T) {
	ts := newTestServer(t)
	base := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	for i, ref := range []string{"A", "B", "C"} {
		txn := models.NewTransaction(ref, "M-1", decimal.RequireFromString("10"), "USD")
		txn.CreatedAt = base.Add(time.Duration(i) * time.Hour)
		require.NoError(t, ts.txns.Create(context.Background(), txn))
	}
	_, err := ts.txns.ApplyStatusUpdate(context.Background(), "B",
		store.StatusUpdate{Status: models.TransactionStatusCompleted}, nil)
	require.NoError(t, err)

	w := ts.do(http.MethodGet, "/payplus/transactions?limit=2", nil, "127.0.0.1:5000")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var page struct {
		Transactions []models.Transaction `json:"transactions"`
		Total        int64                `json:"total"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &page))
	assert.Equal(t, int64(3), page.Total)
	require.Len(t, page.Transactions, 2)
	assert.Equal(t, "C", page.Transactions[0].OrderReference)

	w = ts.do(http.MethodGet, "/payplus/transactions?status=completed", nil, "127.0.0.1:5000")
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &page))
	assert.Equal(t, int64(1), page.Total)

	for _, query := range []string{"?status=paid", "?limit=0", "?limit=x", "?offset=-1"} {
		w = ts.do(http.MethodGet, "/payplus/transactions"+query, nil, "127.0.0.1:5000")
		assert.Equal(t, http.StatusBadRequest, w.Code, query)
	}

	w = ts.do(http.MethodGet, "/payplus/transactions/B", nil, "127.0.0.1:5000")
	require.Equal(t, http.StatusOK, w.Code)
	var txn models.Transaction
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &txn))
	assert.Equal(t, models.TransactionStatusCompleted, txn.Status)

	w = ts.do(http.MethodGet, "/payplus/transactions/Z", nil, "127.0.0.1:5000")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestAdminRestrictedToLocalClients(t *testing.T) {
	ts := newTestServer(t)

	w := ts.do(http.MethodGet, "/payplus/transactions", nil, "203.0.113.9:4000")
	assert.Equal(t, http.StatusForbidden, w.Code)

	req := httptest.NewRequest(http.MethodGet, "/payplus/transactions", nil)
	req.RemoteAddr = "203.0.113.9:4000"
	req.Header.Set("X-Forwarded-For", "127.0.0.1")
	rec := httptest.NewRecorder()
	ts.router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	w = ts.do(http.MethodGet, "/payplus/transactions", nil, "[::1]:4000")
	assert.Equal(t, http.StatusOK, w.Code)
}
