package routes

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	goredis "github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/foodstore/internal/cartcount"
	"github.com/angelmondragon/foodstore/internal/catalog"
	"github.com/angelmondragon/foodstore/internal/checkout"
	"github.com/angelmondragon/foodstore/pkg/auth"
	"github.com/angelmondragon/foodstore/pkg/auth/session"
	"github.com/angelmondragon/foodstore/pkg/backend"
	"github.com/angelmondragon/foodstore/pkg/config"
	"github.com/angelmondragon/foodstore/pkg/enums"
	"github.com/angelmondragon/foodstore/pkg/logger"
)

type memoryRedis struct {
	mu     sync.Mutex
	values map[string]string
	counts map[string]int64
}

func newMemoryRedis() *memoryRedis {
	return &memoryRedis{values: map[string]string{}, counts: map[string]int64{}}
}

func (m *memoryRedis) Ping(ctx context.Context) error { return nil }

func (m *memoryRedis) Get(ctx context.Context, key string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.values[key]
	if !ok {
		return "", goredis.Nil
	}
	return v, nil
}

func (m *memoryRedis) SetNX(ctx context.Context, key string, value any, ttl time.Duration) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.values[key]; ok {
		return false, nil
	}
	switch v := value.(type) {
	case string:
		m.values[key] = v
	case []byte:
		m.values[key] = string(v)
	default:
		raw, _ := json.Marshal(v)
		m.values[key] = string(raw)
	}
	return true, nil
}

func (m *memoryRedis) IdempotencyKey(scope, id string) string {
	return "idempotency:" + scope + ":" + id
}

func (m *memoryRedis) IncrWithTTL(ctx context.Context, key string, ttl time.Duration) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.counts[key]++
	return m.counts[key], nil
}

type sessionTable map[string]*session.Session

func (s sessionTable) Load(ctx context.Context, sessionID string) (*session.Session, error) {
	sess, ok := s[sessionID]
	if !ok {
		return nil, session.ErrSessionNotFound
	}
	return sess, nil
}

type fakeStore struct {
	mu         sync.Mutex
	lines      []backend.CartLine
	payments   int
	executed   int
	checkouts  int
	executeErr error
	cancelErr  error
}

func (f *fakeStore) ListCartLines(ctx context.Context, token string, userID int64) ([]backend.CartLine, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.lines, nil
}

func (f *fakeStore) CheckoutCart(ctx context.Context, token string, userID int64) (json.RawMessage, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.checkouts++
	f.lines = nil
	return json.RawMessage(`{"id":99}`), nil
}

func (f *fakeStore) CreatePayment(ctx context.Context, token string, amount decimal.Decimal, orderID string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.payments++
	return "https://gateway.test/approve?token=EC-1", nil
}

func (f *fakeStore) ExecutePayment(ctx context.Context, token string, ret backend.PaymentReturn) (backend.ExecutionResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.executed++
	return backend.ExecutionResult{}, f.executeErr
}

func (f *fakeStore) CancelPayment(ctx context.Context, token, orderID string) (string, error) {
	return "", f.cancelErr
}

type stubCatalog struct {
	catalog.Service
}

func (stubCatalog) List(ctx context.Context, sess *session.Session, kind catalog.Kind) ([]json.RawMessage, error) {
	return []json.RawMessage{json.RawMessage(`{"id":1,"name":"Pho"}`)}, nil
}

type harness struct {
	handler  http.Handler
	store    *fakeStore
	cfg      *config.Config
	sessions sessionTable
}

func newHarness(t *testing.T, metricsHandler http.Handler) *harness {
	t.Helper()
	cfg := &config.Config{
		App: config.AppConfig{Env: "test"},
		JWT: config.JWTConfig{Secret: "secret", Issuer: "foodstore", ExpirationMinutes: 60, CookieName: "fs_session"},
		AuthRateLimit: config.AuthRateLimitConfig{
			LoginWindow:        time.Minute,
			LoginUsernameLimit: 5,
			LoginIPLimit:       20,
		},
		Metrics: config.MetricsConfig{Enabled: true, Path: "/metrics"},
	}
	logg := logger.Nop()
	store := &fakeStore{lines: []backend.CartLine{
		{ID: 1, Food: backend.CartFood{ID: 3, Price: decimal.NewFromInt(120000)}, Quantity: 2},
	}}
	holder, err := cartcount.NewHolder(store, logg, nil)
	require.NoError(t, err)
	converter, err := checkout.NewConverter(config.CheckoutConfig{ExchangeRate: "24000", SettlementScale: 2})
	require.NoError(t, err)
	checkoutSvc, err := checkout.NewService(checkout.ServiceParams{
		Carts:     store,
		Payments:  store,
		CartCount: holder,
		Converter: converter,
		Logger:    logg,
	})
	require.NoError(t, err)

	sessions := sessionTable{
		"customer-session": {ID: "customer-session", UserID: 7, Username: "lan", Role: enums.RoleCustomer, BackendToken: "upstream-7"},
		"admin-session":    {ID: "admin-session", UserID: 1, Username: "admin", Role: enums.RoleAdmin, BackendToken: "upstream-1"},
	}
	handler := NewRouter(cfg, logg, newMemoryRedis(), sessions, Services{
		Catalog:  stubCatalog{},
		Checkout: checkoutSvc,
	}, metricsHandler)
	return &harness{handler: handler, store: store, cfg: cfg, sessions: sessions}
}

func (h *harness) token(t *testing.T, sessionID string) string {
	t.Helper()
	sess := h.sessions[sessionID]
	token, err := auth.MintAccessToken(h.cfg.JWT, time.Now(), auth.AccessTokenPayload{
		SessionID: sess.ID,
		UserID:    sess.UserID,
		Username:  sess.Username,
		Role:      sess.Role,
	})
	require.NoError(t, err)
	return token
}

func (h *harness) do(req *http.Request) *httptest.ResponseRecorder {
	resp := httptest.NewRecorder()
	h.handler.ServeHTTP(resp, req)
	return resp
}

func decodeData(t *testing.T, resp *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var envelope struct {
		Data map[string]any `json:"data"`
	}
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &envelope))
	return envelope.Data
}

func TestHealthRoutes(t *testing.T) {
	h := newHarness(t, nil)

	for _, path := range []string{"/health/live", "/health/ready"} {
		resp := h.do(httptest.NewRequest(http.MethodGet, path, nil))
		require.Equal(t, http.StatusOK, resp.Code, path)
	}
}

func TestMetricsRouteServesHandler(t *testing.T) {
	metrics := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("# metrics"))
	})
	h := newHarness(t, metrics)

	resp := h.do(httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, resp.Code)
	require.Equal(t, "# metrics", resp.Body.String())
}

func TestMenuIsPublic(t *testing.T) {
	h := newHarness(t, nil)

	resp := h.do(httptest.NewRequest(http.MethodGet, "/api/v1/foods", nil))
	require.Equal(t, http.StatusOK, resp.Code)
	require.Contains(t, resp.Body.String(), "Pho")
}

func TestCartRequiresSession(t *testing.T) {
	h := newHarness(t, nil)

	resp := h.do(httptest.NewRequest(http.MethodGet, "/api/v1/cart", nil))
	require.Equal(t, http.StatusUnauthorized, resp.Code)
}

func TestAdminRoutesRejectCustomers(t *testing.T) {
	h := newHarness(t, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/admin/v1/statistics", nil)
	req.Header.Set("Authorization", "Bearer "+h.token(t, "customer-session"))
	resp := h.do(req)
	require.Equal(t, http.StatusForbidden, resp.Code)
}

func TestCheckoutStartRequiresIdempotencyKey(t *testing.T) {
	h := newHarness(t, nil)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/checkout", nil)
	req.Header.Set("Authorization", "Bearer "+h.token(t, "customer-session"))
	resp := h.do(req)
	require.Equal(t, http.StatusBadRequest, resp.Code)
	require.Zero(t, h.store.payments)
}

func TestCheckoutStartReplaysWithSameKey(t *testing.T) {
	h := newHarness(t, nil)
	token := h.token(t, "customer-session")

	send := func() *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/checkout", strings.NewReader(`{"order_id":"42"}`))
		req.Header.Set("Authorization", "Bearer "+token)
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Idempotency-Key", "checkout-1")
		return h.do(req)
	}

	first := send()
	require.Equal(t, http.StatusCreated, first.Code)
	data := decodeData(t, first)
	require.Equal(t, "https://gateway.test/approve?token=EC-1", data["redirect_url"])
	require.Equal(t, "10", data["amount"])

	second := send()
	require.Equal(t, http.StatusCreated, second.Code)
	require.JSONEq(t, first.Body.String(), second.Body.String())
	require.Equal(t, 1, h.store.payments)
}

func TestPaymentSuccessFinalizesCart(t *testing.T) {
	h := newHarness(t, nil)

	req := httptest.NewRequest(http.MethodGet, "/payment/success?paymentId=PAY-1&PayerID=P-1&orderId=42", nil)
	req.AddCookie(&http.Cookie{Name: "fs_session", Value: h.token(t, "customer-session")})
	resp := h.do(req)

	require.Equal(t, http.StatusOK, resp.Code)
	data := decodeData(t, resp)
	require.Equal(t, string(enums.CheckoutOutcomeConfirmed), data["outcome"])
	require.Equal(t, "42", data["order_id"])
	require.EqualValues(t, 0, data["cart_count"])
	require.Equal(t, 1, h.store.executed)
	require.Equal(t, 1, h.store.checkouts)
}

func TestPaymentSuccessRejectsMissingParameters(t *testing.T) {
	h := newHarness(t, nil)

	resp := h.do(httptest.NewRequest(http.MethodGet, "/payment/success?paymentId=PAY-1", nil))
	require.Equal(t, http.StatusBadRequest, resp.Code)
	require.Zero(t, h.store.executed)
	require.Zero(t, h.store.checkouts)
}

func TestPaymentCancelWithoutSession(t *testing.T) {
	h := newHarness(t, nil)

	resp := h.do(httptest.NewRequest(http.MethodGet, "/payment/cancel?orderId=42", nil))
	require.Equal(t, http.StatusOK, resp.Code)
	data := decodeData(t, resp)
	require.Equal(t, string(enums.CheckoutOutcomeCancelled), data["outcome"])
	require.Zero(t, h.store.checkouts)
}

func TestPaymentCancelFailureIsInformational(t *testing.T) {
	h := newHarness(t, nil)
	h.store.cancelErr = errors.New("gateway unreachable")

	resp := h.do(httptest.NewRequest(http.MethodGet, "/payment/cancel?orderId=42", nil))
	require.Equal(t, http.StatusOK, resp.Code)
	data := decodeData(t, resp)
	require.Equal(t, string(enums.CheckoutOutcomeFailed), data["outcome"])
	require.Equal(t, "42", data["order_id"])
	require.Equal(t, "/home", data["next"])
	require.NotEmpty(t, data["message"])
	require.Zero(t, h.store.checkouts)
}

func TestPaymentSuccessExecuteFailureIsDependencyError(t *testing.T) {
	h := newHarness(t, nil)
	h.store.executeErr = errors.New("gateway unreachable")

	req := httptest.NewRequest(http.MethodGet, "/payment/success?paymentId=PAY-1&PayerID=P-1&orderId=42", nil)
	req.AddCookie(&http.Cookie{Name: "fs_session", Value: h.token(t, "customer-session")})
	resp := h.do(req)

	require.Equal(t, http.StatusServiceUnavailable, resp.Code)
	require.Contains(t, resp.Body.String(), `"DEPENDENCY_ERROR"`)
	require.Zero(t, h.store.checkouts)
}
