package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/Dhoini/coach-billing/internal/config"
	"github.com/Dhoini/coach-billing/pkg/logger"
	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testJWTSecret = []byte("test-secret")

func signToken(t *testing.T, secret []byte, claims TokenClaims) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
	require.NoError(t, err)
	return token
}

func claimsFor(sub, email, role string) TokenClaims {
	c := TokenClaims{
		Email: email,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   sub,
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}
	c.AppMetadata.Role = role
	return c
}

func authRouter(cfg *config.Config) *gin.Engine {
	gin.SetMode(gin.TestMode)
	m := NewJWTMiddleware(cfg, logger.NewNop(), &DefaultTokenValidator{Secret: testJWTSecret})

	r := gin.New()
	r.GET("/me", m.RequireAuth(), func(c *gin.Context) {
		caller, _ := CallerFromContext(c)
		c.JSON(http.StatusOK, caller)
	})
	r.GET("/admin", m.RequireAuth(), m.RequireSuperAdmin(), func(c *gin.Context) {
		c.Status(http.StatusNoContent)
	})
	return r
}

func get(r *gin.Engine, path, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestRequireAuthRejectsMissingAndForgedTokens(t *testing.T) {
	r := authRouter(&config.Config{})

	assert.Equal(t, http.StatusUnauthorized, get(r, "/me", "").Code)
	forged := signToken(t, []byte("other"), claimsFor("coach-1", "coach@example.com", ""))
	assert.Equal(t, http.StatusUnauthorized, get(r, "/me", forged).Code)
	noSubject := signToken(t, testJWTSecret, claimsFor("", "coach@example.com", ""))
	assert.Equal(t, http.StatusUnauthorized, get(r, "/me", noSubject).Code)
}

func TestEmptySecretRejectsEveryToken(t *testing.T) {
	forged := signToken(t, []byte(""), claimsFor("attacker", "attacker@example.com", RoleSuperAdmin))

	claims, err := (&DefaultTokenValidator{Secret: []byte("")}).Validate(forged)
	assert.ErrorIs(t, err, ErrEmptySecret)
	assert.Nil(t, claims)

	gin.SetMode(gin.TestMode)
	m := NewJWTMiddleware(&config.Config{}, logger.NewNop(), &DefaultTokenValidator{})
	r := gin.New()
	r.GET("/admin", m.RequireAuth(), m.RequireSuperAdmin(), func(c *gin.Context) {
		c.Status(http.StatusNoContent)
	})
	assert.Equal(t, http.StatusUnauthorized, get(r, "/admin", forged).Code)
}

func TestValidateRequiresExpiration(t *testing.T) {
	c := claimsFor("coach-1", "coach@example.com", "")
	c.ExpiresAt = nil

	_, err := (&DefaultTokenValidator{Secret: testJWTSecret}).Validate(signToken(t, testJWTSecret, c))
	assert.ErrorIs(t, err, jwt.ErrTokenRequiredClaimMissing)

	expired := claimsFor("coach-1", "coach@example.com", "")
	expired.ExpiresAt = jwt.NewNumericDate(time.Now().Add(-time.Minute))
	_, err = (&DefaultTokenValidator{Secret: testJWTSecret}).Validate(signToken(t, testJWTSecret, expired))
	assert.Error(t, err)
}

func TestRequireAuthSetsCaller(t *testing.T) {
	r := authRouter(&config.Config{})

	w := get(r, "/me", signToken(t, testJWTSecret, claimsFor("coach-1", "coach@example.com", "")))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "coach-1")
}

func TestRequireSuperAdmin(t *testing.T) {
	cfg := &config.Config{}
	cfg.Auth.OperatorEmails = []string{"Ops@Example.com"}
	r := authRouter(cfg)

	coach := signToken(t, testJWTSecret, claimsFor("coach-1", "coach@example.com", "coach"))
	assert.Equal(t, http.StatusForbidden, get(r, "/admin", coach).Code)

	admin := signToken(t, testJWTSecret, claimsFor("admin-1", "admin@example.com", RoleSuperAdmin))
	assert.Equal(t, http.StatusNoContent, get(r, "/admin", admin).Code)

	operator := signToken(t, testJWTSecret, claimsFor("op-1", "ops@example.com", ""))
	assert.Equal(t, http.StatusNoContent, get(r, "/admin", operator).Code)
}
