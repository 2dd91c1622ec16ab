package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func sessionRouter(tk *Tokens, roles ...string) *gin.Engine {
	r := gin.New()
	handlers := []gin.HandlerFunc{tk.RequireSession()}
	if len(roles) > 0 {
		handlers = append(handlers, RequireRole(roles...))
	}
	handlers = append(handlers, func(c *gin.Context) {
		s, _ := SessionFrom(c)
		c.JSON(http.StatusOK, gin.H{"sid": s.ID, "admin_id": s.AdminID, "bt": s.Token})
	})
	r.GET("/me", handlers...)
	return r
}

func TestTokenRoundTripCarriesBackendToken(t *testing.T) {
	tk := NewTokens("secret", time.Hour)
	signed, s, err := tk.GenerateToken(5, "admin", "backend-tok")
	require.NoError(t, err)
	_, err = uuid.Parse(s.ID)
	require.NoError(t, err)

	got, err := tk.ValidateToken(signed)
	require.NoError(t, err)
	assert.Equal(t, s, got)
	assert.Equal(t, "backend-tok", got.Token)
}

func TestValidateTokenRejectsExpiredAndForeign(t *testing.T) {
	tk := NewTokens("secret", time.Hour)
	signed, _, err := tk.GenerateToken(5, "admin", "bt")
	require.NoError(t, err)

	later := NewTokens("secret", time.Hour)
	later.now = func() time.Time { return time.Now().Add(2 * time.Hour) }
	_, err = later.ValidateToken(signed)
	assert.Error(t, err)

	_, err = NewTokens("other", time.Hour).ValidateToken(signed)
	assert.Error(t, err)
}

func TestRequireSessionHeaderAndQuery(t *testing.T) {
	tk := NewTokens("secret", time.Hour)
	signed, s, err := tk.GenerateToken(5, "admin", "bt")
	require.NoError(t, err)
	r := sessionRouter(tk)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("Authorization", "Bearer "+signed)
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), s.ID)

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/me?token="+signed, nil))
	assert.Equal(t, http.StatusOK, w.Code)

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/me", nil))
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("Authorization", "Bearer garbage")
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestRequireRole(t *testing.T) {
	tk := NewTokens("secret", time.Hour)
	r := sessionRouter(tk, "superadmin")

	signed, _, err := tk.GenerateToken(5, "admin", "bt")
	require.NoError(t, err)
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("Authorization", "Bearer "+signed)
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusForbidden, w.Code)

	signed, _, err = tk.GenerateToken(6, "superadmin", "bt")
	require.NoError(t, err)
	w = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("Authorization", "Bearer "+signed)
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestEnableCORS(t *testing.T) {
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusTeapot) })
	h := EnableCORS([]string{"https://dash.example"}, next)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodOptions, "/orders", nil)
	req.Header.Set("Origin", "https://dash.example")
	h.ServeHTTP(w, req)
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "https://dash.example", w.Header().Get("Access-Control-Allow-Origin"))
	assert.Contains(t, w.Header().Get("Access-Control-Allow-Headers"), "token")

	w = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodGet, "/orders", nil)
	req.Header.Set("Origin", "https://evil.example")
	h.ServeHTTP(w, req)
	assert.Equal(t, http.StatusTeapot, w.Code)
	assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))

	w = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodGet, "/orders", nil)
	req.Header.Set("Origin", "http://anything")
	EnableCORS([]string{"*"}, next).ServeHTTP(w, req)
	assert.Equal(t, "http://anything", w.Header().Get("Access-Control-Allow-Origin"))
}

func TestRequestID(t *testing.T) {
	r := gin.New()
	r.Use(RequestID())
	r.GET("/", func(c *gin.Context) { c.String(http.StatusOK, c.GetString("request_id")) })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	id := w.Header().Get(RequestIDHeader)
	_, err := uuid.Parse(id)
	require.NoError(t, err)
	assert.Equal(t, id, w.Body.String())

	keep := uuid.NewString()
	w = httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(RequestIDHeader, keep)
	r.ServeHTTP(w, req)
	assert.Equal(t, keep, w.Header().Get(RequestIDHeader))
}
