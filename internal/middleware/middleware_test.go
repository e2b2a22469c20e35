package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/javajoker/story-txprep/internal/handlers"
	"github.com/javajoker/story-txprep/internal/i18n"
	"github.com/javajoker/story-txprep/internal/models"
	"github.com/javajoker/story-txprep/internal/utils"
)

func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)
	if err := i18n.Initialize(); err != nil {
		panic(err)
	}
	m.Run()
}

func newEngine(mw ...gin.HandlerFunc) *gin.Engine {
	r := gin.New()
	r.Use(I18nMiddleware())
	r.Use(mw...)
	ok := func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"requestId":  utils.GetRequestIDFromContext(c),
			"ctxRequest": utils.RequestIDFromContext(c.Request.Context()),
			"clientId":   utils.GetClientIDFromContext(c),
		})
	}
	r.GET("/ping", ok)
	r.POST("/ping", ok)
	r.GET("/other", ok)
	return r
}

func serve(r http.Handler, req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decodeError(t *testing.T, w *httptest.ResponseRecorder) models.ErrorBody {
	t.Helper()
	var resp models.ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.False(t, resp.Success)
	return resp.Error
}

func TestRequestIDAcceptsWellFormedInboundID(t *testing.T) {
	r := newEngine(RequestID())

	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.Header.Set(HeaderRequestID, "client-trace_0001")
	w := serve(r, req)
	assert.Equal(t, "client-trace_0001", w.Header().Get(HeaderRequestID))

	var body map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "client-trace_0001", body["requestId"])
	assert.Equal(t, "client-trace_0001", body["ctxRequest"])
}

func TestRequestIDReplacesMalformedInboundID(t *testing.T) {
	r := newEngine(RequestID())

	for _, inbound := range []string{"", "short", "has spaces in it", strings.Repeat("a", 65)} {
		req := httptest.NewRequest(http.MethodGet, "/ping", nil)
		req.Header.Set(HeaderRequestID, inbound)
		id := serve(r, req).Header().Get(HeaderRequestID)
		assert.True(t, strings.HasPrefix(id, "req_"), id)
		assert.Len(t, id, len("req_")+36)
	}
}

func TestRateLimiterRejectsWithRetryAfter(t *testing.T) {
	limiter := NewRateLimiter(2, time.Minute, handlers.NewErrorWriter(false))
	r := newEngine(RequestID(), limiter.Middleware())

	for i := 0; i < 2; i++ {
		w := serve(r, httptest.NewRequest(http.MethodGet, "/ping", nil))
		require.Equal(t, http.StatusOK, w.Code)
	}

	w := serve(r, httptest.NewRequest(http.MethodGet, "/ping", nil))
	require.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.NotEmpty(t, w.Header().Get("Retry-After"))

	body := decodeError(t, w)
	assert.Equal(t, "RATE_LIMITED", body.Code)
	assert.True(t, body.Retryable)
	assert.Contains(t, body.Message, "Rate limit exceeded, retry after")
	assert.NotEmpty(t, body.RequestID)

	// buckets are per path and per client
	assert.Equal(t, http.StatusOK, serve(r, httptest.NewRequest(http.MethodGet, "/other", nil)).Code)
	other := httptest.NewRequest(http.MethodGet, "/ping", nil)
	other.RemoteAddr = "198.51.100.7:5555"
	assert.Equal(t, http.StatusOK, serve(r, other).Code)
}

func TestRateLimiterAllowReportsWait(t *testing.T) {
	limiter := NewRateLimiter(1, time.Minute, handlers.NewErrorWriter(false))

	ok, wait := limiter.Allow("client", "/p")
	assert.True(t, ok)
	assert.Zero(t, wait)

	ok, wait = limiter.Allow("client", "/p")
	assert.False(t, ok)
	assert.Greater(t, wait, 50*time.Second)
}

func TestPayloadGuard(t *testing.T) {
	r := newEngine(PayloadGuard(16, handlers.NewErrorWriter(false)))

	req := httptest.NewRequest(http.MethodPost, "/ping", strings.NewReader(`{}`))
	req.Header.Set("Content-Type", "text/plain")
	w := serve(r, req)
	require.Equal(t, http.StatusUnsupportedMediaType, w.Code)
	body := decodeError(t, w)
	assert.Equal(t, "PAYLOAD_REJECTED", body.Code)
	assert.Equal(t, "Request body must be application/json", body.Message)

	req = httptest.NewRequest(http.MethodPost, "/ping", strings.NewReader(`{"a":"0123456789abcdef"}`))
	req.Header.Set("Content-Type", "application/json")
	w = serve(r, req)
	require.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
	assert.Equal(t, "Request body exceeds 16 B", decodeError(t, w).Message)

	req = httptest.NewRequest(http.MethodPost, "/ping", strings.NewReader(`{"a":1}`))
	req.Header.Set("Content-Type", "application/json; charset=utf-8")
	assert.Equal(t, http.StatusOK, serve(r, req).Code)

	// GET requests are not inspected
	assert.Equal(t, http.StatusOK, serve(r, httptest.NewRequest(http.MethodGet, "/ping", nil)).Code)
}

func TestPayloadGuardLocalizesMessage(t *testing.T) {
	r := newEngine(PayloadGuard(16, handlers.NewErrorWriter(false)))

	req := httptest.NewRequest(http.MethodPost, "/ping", strings.NewReader(`{}`))
	req.Header.Set("Content-Type", "text/plain")
	req.Header.Set("Accept-Language", "zh-TW,zh;q=0.9")
	w := serve(r, req)
	assert.Equal(t, "請求內容必須為 application/json", decodeError(t, w).Message)
}

func TestCORSPreflight(t *testing.T) {
	r := newEngine(CORS(nil))

	req := httptest.NewRequest(http.MethodOptions, "/ping", nil)
	req.Header.Set("Origin", "https://app.example")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	w := serve(r, req)

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
	assert.Contains(t, w.Header().Get("Access-Control-Allow-Methods"), http.MethodPost)
}

func TestCORSRestrictsOrigins(t *testing.T) {
	r := newEngine(CORS([]string{"https://app.example"}))

	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.Header.Set("Origin", "https://app.example")
	w := serve(r, req)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "https://app.example", w.Header().Get("Access-Control-Allow-Origin"))

	req = httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.Header.Set("Origin", "https://evil.example")
	assert.Equal(t, http.StatusForbidden, serve(r, req).Code)
}

func TestSecurityHeaders(t *testing.T) {
	w := serve(newEngine(SecurityHeaders(false)), httptest.NewRequest(http.MethodGet, "/ping", nil))
	assert.Equal(t, "nosniff", w.Header().Get("X-Content-Type-Options"))
	assert.Equal(t, "DENY", w.Header().Get("X-Frame-Options"))
	assert.Empty(t, w.Header().Get("Strict-Transport-Security"))

	w = serve(newEngine(SecurityHeaders(true)), httptest.NewRequest(http.MethodGet, "/ping", nil))
	assert.NotEmpty(t, w.Header().Get("Strict-Transport-Security"))
}

func TestClientIdentity(t *testing.T) {
	const secret = "test-secret"
	r := newEngine(ClientIdentity(secret, handlers.NewErrorWriter(false)))

	token, err := utils.GenerateClientToken("wallet-app", secret, time.Hour)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	w := serve(r, req)
	require.Equal(t, http.StatusOK, w.Code)
	var body map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "sub:wallet-app", body["clientId"])

	for _, header := range []string{"Bearer not-a-jwt", "Basic dXNlcjpwYXNz", token} {
		req := httptest.NewRequest(http.MethodGet, "/ping", nil)
		req.Header.Set("Authorization", header)
		w := serve(r, req)
		require.Equal(t, http.StatusBadRequest, w.Code, header)
		assert.Equal(t, "VALIDATION_ERROR", decodeError(t, w).Code)
	}

	// anonymous callers are identified by address
	w = serve(r, httptest.NewRequest(http.MethodGet, "/ping", nil))
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "192.0.2.1", body["clientId"])
}

func TestClientIdentityIgnoresHeaderWithoutSecret(t *testing.T) {
	r := newEngine(ClientIdentity("", handlers.NewErrorWriter(false)))
	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.Header.Set("Authorization", "Bearer whatever")
	assert.Equal(t, http.StatusOK, serve(r, req).Code)
}

func TestRecoveryReturnsInternalError(t *testing.T) {
	r := gin.New()
	r.Use(RequestID(), Recovery(handlers.NewErrorWriter(false)))
	r.GET("/boom", func(c *gin.Context) { panic("nil map write") })

	w := serve(r, httptest.NewRequest(http.MethodGet, "/boom", nil))
	require.Equal(t, http.StatusInternalServerError, w.Code)
	body := decodeError(t, w)
	assert.Equal(t, "INTERNAL_ERROR", body.Code)
	assert.True(t, body.Retryable)
	assert.NotContains(t, body.Message, "nil map write")
}

func TestParseLanguage(t *testing.T) {
	cases := map[string]string{
		"":                         "en",
		"en-US,en;q=0.9":           "en",
		"zh-TW,zh;q=0.9,en;q=0.8":  "zh_TW",
		"zh-Hant":                  "zh_TW",
		"ZH":                       "zh_TW",
		"fr-FR;q=0.8, zh-TW;q=0.7": "en",
	}
	for header, want := range cases {
		assert.Equal(t, want, parseLanguage(header), header)
	}
}
