package routes

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/angelmondragon/marketplace-client/api/controllers"
	"github.com/angelmondragon/marketplace-client/internal/devserver"
	"github.com/angelmondragon/marketplace-client/pkg/config"
	"github.com/angelmondragon/marketplace-client/pkg/types"
)

type stubPinger struct{ err error }

func (s stubPinger) Ping(context.Context) error { return s.err }

func testRouter(t *testing.T, deps Deps) http.Handler {
	t.Helper()
	cfg := &config.Config{
		App: config.AppConfig{Env: "test"},
		DevServer: config.DevServerConfig{
			JWTSecret:         "router-secret",
			JWTIssuer:         "market-router",
			ExpirationMinutes: 30,
			SellerPassword:    "seller-pass",
			CORSOrigins:       []string{"http://localhost:19006"},
			LoginWindow:       time.Minute,
			LoginIPLimit:      2,
			LoginEmailLimit:   5,
		},
		Password: config.PasswordConfig{ArgonMemoryKB: 8 * 1024, ArgonTime: 1, ArgonParallelism: 1, ArgonSaltLen: 16, ArgonKeyLen: 32},
	}
	backend, err := devserver.New(cfg.DevServer, cfg.Password, cfg.Checkout)
	if err != nil {
		t.Fatalf("new backend: %v", err)
	}
	if err := backend.Seed(); err != nil {
		t.Fatalf("seed: %v", err)
	}
	if deps.Counter == nil {
		deps.Counter = devserver.NewCounter(time.Now)
	}
	return NewRouter(cfg, nil, backend, deps)
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) types.APIError {
	t.Helper()
	var env types.ErrorEnvelope
	if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
		t.Fatalf("decode error envelope %q: %v", rec.Body.String(), err)
	}
	return env.Error
}

func TestHealthLive(t *testing.T) {
	router := testRouter(t, Deps{})
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health/live", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if got := rec.Header().Get("X-Market-Env"); got != "test" {
		t.Fatalf("expected env header, got %q", got)
	}
	if rec.Header().Get("X-Request-Id") == "" {
		t.Fatal("expected request id header")
	}
}

func TestHealthReadyReportsFailingDependency(t *testing.T) {
	router := testRouter(t, Deps{Ready: map[string]controllers.Pinger{
		"redis": stubPinger{err: errors.New("connection refused")},
	}})
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health/ready", nil))

	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `"redis":"unreachable"`) {
		t.Fatalf("unexpected body %s", rec.Body.String())
	}
}

func TestBuyerRoutesRequireToken(t *testing.T) {
	router := testRouter(t, Deps{})
	for _, path := range []string{"/api/v1/customer/cart", "/api/v1/customer/wishlist", "/api/v1/customer/orders", "/api/v1/seller/orders"} {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
		if rec.Code != http.StatusUnauthorized {
			t.Fatalf("%s: expected 401, got %d", path, rec.Code)
		}
		if got := decodeError(t, rec).Code; got != "UNAUTHORIZED" {
			t.Fatalf("%s: unexpected code %q", path, got)
		}
	}
}

func login(t *testing.T, router http.Handler, prefix, email, password string) string {
	t.Helper()
	body := `{"email":"` + email + `","password":"` + password + `"}`
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, prefix+"/auth/login", strings.NewReader(body)))
	if rec.Code != http.StatusOK {
		t.Fatalf("login: expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var env struct {
		Data struct {
			Token string `json:"token"`
		} `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil || env.Data.Token == "" {
		t.Fatalf("decode login response %q: %v", rec.Body.String(), err)
	}
	return env.Data.Token
}

func TestSellerTokenDoesNotOpenBuyerRoutes(t *testing.T) {
	router := testRouter(t, Deps{})
	token := login(t, router, config.SellerPathPrefix, "farm@seller.test", "seller-pass")

	req := httptest.NewRequest(http.MethodGet, "/api/v1/customer/cart/count", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected seller token to be rejected on buyer routes, got %d", rec.Code)
	}

	req = httptest.NewRequest(http.MethodGet, "/api/v1/seller/orders?limit=5", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected seller orders, got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestLogoutRevokesToken(t *testing.T) {
	router := testRouter(t, Deps{})
	token := login(t, router, config.SellerPathPrefix, "pets@seller.test", "seller-pass")

	req := httptest.NewRequest(http.MethodPost, "/api/v1/seller/auth/logout", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", rec.Code)
	}

	req = httptest.NewRequest(http.MethodGet, "/api/v1/seller/orders", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected revoked token to fail, got %d", rec.Code)
	}
}

func TestLoginIsRateLimitedPerIP(t *testing.T) {
	router := testRouter(t, Deps{})
	var last int
	for i := 0; i < 3; i++ {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/customer/auth/login", strings.NewReader(`{"email":"nobody@buyer.test","password":"wrong-pass"}`))
		req.RemoteAddr = "10.1.1.1:5000"
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		last = rec.Code
		if i < 2 && rec.Code != http.StatusUnauthorized {
			t.Fatalf("attempt %d: expected 401, got %d", i+1, rec.Code)
		}
	}
	if last != http.StatusTooManyRequests {
		t.Fatalf("expected third attempt to be throttled, got %d", last)
	}
}

func TestCORSPreflight(t *testing.T) {
	router := testRouter(t, Deps{})
	req := httptest.NewRequest(http.MethodOptions, "/api/v1/customer/cart", nil)
	req.Header.Set("Origin", "http://localhost:19006")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	req.Header.Set("Access-Control-Request-Headers", "Authorization, Content-Type")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "http://localhost:19006" {
		t.Fatalf("expected allowed origin, got %q", got)
	}
}

func TestUnknownBodyFieldsAreRejected(t *testing.T) {
	router := testRouter(t, Deps{})
	req := httptest.NewRequest(http.MethodPost, "/api/v1/customer/auth/register", strings.NewReader(`{"name":"A","email":"a@buyer.test","password":"long-enough","admin":true}`))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d: %s", rec.Code, rec.Body.String())
	}
	if got := decodeError(t, rec).Code; got != "VALIDATION_ERROR" {
		t.Fatalf("unexpected code %q", got)
	}
}
