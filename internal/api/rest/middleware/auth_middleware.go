package middleware

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/Dhoini/coach-billing/internal/config"
	"github.com/Dhoini/coach-billing/internal/domain"
	"github.com/Dhoini/coach-billing/pkg/logger"
	"github.com/Dhoini/coach-billing/pkg/res"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

// ContextKey тип для ключей контекста во избежание коллизий.
type ContextKey string

const (
	// ContextCallerKey ключ для хранения domain.Caller в контексте.
	ContextCallerKey ContextKey = "caller"
	authHeaderPrefix            = "Bearer "

	// RoleSuperAdmin роль в app_metadata с полным обходом проверок доступа.
	RoleSuperAdmin = "super_admin"
)

type TokenValidator interface {
	Validate(tokenString string) (*TokenClaims, error)
}

// TokenClaims claims токена, выпущенного бэкендом аутентификации.
type TokenClaims struct {
	Email       string `json:"email"`
	AppMetadata struct {
		Role string `json:"role"`
	} `json:"app_metadata"`
	jwt.RegisteredClaims
}

type JWTMiddleware struct {
	cfg       *config.Config
	log       *logger.Logger
	validator TokenValidator
}

func NewJWTMiddleware(cfg *config.Config, log *logger.Logger, validator TokenValidator) *JWTMiddleware {
	return &JWTMiddleware{
		cfg:       cfg,
		log:       log,
		validator: validator,
	}
}

// RequireAuth проверяет bearer-токен и кладет Caller в контекст.
func (m *JWTMiddleware) RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" || !strings.HasPrefix(authHeader, authHeaderPrefix) {
			m.handleAuthError(c, http.StatusUnauthorized, "Missing authorization token")
			return
		}

		tokenString := strings.TrimPrefix(authHeader, authHeaderPrefix)
		claims, err := m.validator.Validate(tokenString)
		if err != nil {
			m.handleAuthError(c, http.StatusUnauthorized, fmt.Sprintf("Token validation failed: %v", err))
			return
		}

		if claims.Subject == "" {
			m.handleAuthError(c, http.StatusUnauthorized, "User ID (sub) missing in token")
			return
		}

		caller := domain.Caller{
			UserID:       claims.Subject,
			Email:        claims.Email,
			IsSuperAdmin: claims.AppMetadata.Role == RoleSuperAdmin || m.cfg.IsOperatorEmail(claims.Email),
		}
		c.Set(string(ContextCallerKey), caller)
		m.log.Debugw("User authenticated via HTTP", "userID", caller.UserID, "superAdmin", caller.IsSuperAdmin)
		c.Next()
	}
}

// RequireSuperAdmin пропускает только суперадминов. Ставится после RequireAuth.
func (m *JWTMiddleware) RequireSuperAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		caller, ok := CallerFromContext(c)
		if !ok || !caller.IsSuperAdmin {
			m.handleAuthError(c, http.StatusForbidden, "Super admin role required")
			return
		}
		c.Next()
	}
}

// CallerFromContext достает Caller, установленный RequireAuth.
func CallerFromContext(c *gin.Context) (domain.Caller, bool) {
	v, ok := c.Get(string(ContextCallerKey))
	if !ok {
		return domain.Caller{}, false
	}
	caller, ok := v.(domain.Caller)
	return caller, ok
}

func (m *JWTMiddleware) handleAuthError(c *gin.Context, status int, message string) {
	res.Error(c, status, res.ErrorResponse{Error: message}, m.log)
}

// DefaultTokenValidator - реализация валидатора по умолчанию (HS256).
type DefaultTokenValidator struct {
	Secret []byte
}

// ErrEmptySecret пустым ключом HS256 может подписать кто угодно.
var ErrEmptySecret = errors.New("token secret is not configured")

func (v *DefaultTokenValidator) Validate(tokenString string) (*TokenClaims, error) {
	if len(v.Secret) == 0 {
		return nil, ErrEmptySecret
	}

	token, err := jwt.ParseWithClaims(tokenString, &TokenClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return v.Secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
	)

	if err != nil {
		if errors.Is(err, jwt.ErrTokenMalformed) {
			return nil, errors.New("malformed token")
		} else if errors.Is(err, jwt.ErrTokenSignatureInvalid) {
			return nil, errors.New("invalid token signature")
		} else if errors.Is(err, jwt.ErrTokenExpired) || errors.Is(err, jwt.ErrTokenNotValidYet) {
			return nil, errors.New("token expired")
		} else {
			return nil, fmt.Errorf("invalid token: %w", err)
		}
	}

	if claims, ok := token.Claims.(*TokenClaims); ok && token.Valid {
		return claims, nil
	}

	return nil, errors.New("invalid token claims")
}
