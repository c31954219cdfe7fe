package middleware_test

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"deeptech/internal/middleware"
	"deeptech/internal/models"
)

var testKey = []byte("test-secret")

func signToken(t *testing.T, key []byte, method jwt.SigningMethod, claims middleware.Claims) string {
	t.Helper()
	s, err := jwt.NewWithClaims(method, claims).SignedString(key)
	require.NoError(t, err)
	return s
}

func validClaims(role string, ttl time.Duration) middleware.Claims {
	return middleware.Claims{
		AccountID: uuid.NewString(),
		Email:     "a@x.com",
		Role:      role,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}
}

func newProtectedRouter(handler gin.HandlerFunc) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(middleware.AuthMiddleware(testKey))
	r.GET("/me", handler)
	r.GET("/admin-only", middleware.RequireRoles(models.RoleAdmin), handler)
	return r
}

func get(r *gin.Engine, auth string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	if auth != "" {
		req.Header.Set("Authorization", auth)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestAuthMiddlewareSetsContext(t *testing.T) {
	claims := validClaims(models.RoleAnnotator, time.Hour)
	r := newProtectedRouter(func(c *gin.Context) {
		id, _ := c.Get("account_id")
		assert.Equal(t, claims.AccountID, id.(uuid.UUID).String())
		email, _ := c.Get("email")
		assert.Equal(t, "a@x.com", email)
		role, _ := c.Get("role")
		assert.Equal(t, models.RoleAnnotator, role)
		c.Status(http.StatusOK)
	})

	w := get(r, "Bearer "+signToken(t, testKey, jwt.SigningMethodHS256, claims))
	assert.Equal(t, http.StatusOK, w.Code)

	// регистр схемы не важен
	w = get(r, "bearer "+signToken(t, testKey, jwt.SigningMethodHS256, claims))
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestAuthMiddlewareRejectsBadTokens(t *testing.T) {
	r := newProtectedRouter(func(c *gin.Context) { c.Status(http.StatusOK) })

	// нет заголовка / не Bearer / мусор
	assert.Equal(t, http.StatusUnauthorized, get(r, "").Code)
	assert.Equal(t, http.StatusUnauthorized, get(r, "Basic abc").Code)
	assert.Equal(t, http.StatusUnauthorized, get(r, "Bearer ").Code)
	assert.Equal(t, http.StatusUnauthorized, get(r, "Bearer not.a.jwt").Code)

	// чужой ключ
	bad := signToken(t, []byte("other-key"), jwt.SigningMethodHS256, validClaims(models.RoleAnnotator, time.Hour))
	assert.Equal(t, http.StatusUnauthorized, get(r, "Bearer "+bad).Code)

	// истёкший за пределами leeway
	expired := signToken(t, testKey, jwt.SigningMethodHS256, validClaims(models.RoleAnnotator, -time.Hour))
	assert.Equal(t, http.StatusUnauthorized, get(r, "Bearer "+expired).Code)

	// accountId не uuid
	claims := validClaims(models.RoleAnnotator, time.Hour)
	claims.AccountID = "42"
	assert.Equal(t, http.StatusUnauthorized, get(r, "Bearer "+signToken(t, testKey, jwt.SigningMethodHS256, claims)).Code)
}

func TestRequireRoles(t *testing.T) {
	r := newProtectedRouter(func(c *gin.Context) { c.Status(http.StatusOK) })

	adminToken := signToken(t, testKey, jwt.SigningMethodHS256, validClaims(models.RoleAdmin, time.Hour))
	annotatorToken := signToken(t, testKey, jwt.SigningMethodHS256, validClaims(models.RoleAnnotator, time.Hour))

	do := func(token string) int {
		req := httptest.NewRequest(http.MethodGet, "/admin-only", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		return w.Code
	}
	assert.Equal(t, http.StatusOK, do(adminToken))
	assert.Equal(t, http.StatusForbidden, do(annotatorToken))
}
