package auth

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"

	"loanmarket/internal/config"
)

// accountIDKey is where the middleware stores the caller's account after
// token validation.
const accountIDKey = "auth_account_id"

// Claims is the token payload. Subject carries the marketplace account id.
type Claims struct {
	AccountID string `json:"account_id"`
	jwt.RegisteredClaims
}

// RequireBearer validates JWT bearer tokens on /api/* routes. Infra
// endpoints stay open so probes and scrapers keep working.
func RequireBearer(cfg config.AuthConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		if cfg.Disabled {
			c.Next()
			return
		}
		p := c.Request.URL.Path
		if p == "/healthz" || p == "/readyz" || p == "/metrics" {
			c.Next()
			return
		}
		if !strings.HasPrefix(p, "/api/") {
			c.Next()
			return
		}

		header := strings.TrimSpace(c.GetHeader("Authorization"))
		if !strings.HasPrefix(header, "Bearer ") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing bearer token"})
			return
		}
		raw := strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))

		claims := &Claims{}
		token, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (any, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, jwt.ErrSignatureInvalid
			}
			return []byte(cfg.Secret), nil
		}, jwt.WithIssuer(cfg.Issuer), jwt.WithExpirationRequired())
		if err != nil || !token.Valid {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid bearer token"})
			return
		}

		account := claims.AccountID
		if account == "" {
			account = claims.Subject
		}
		c.Set(accountIDKey, account)
		c.Next()
	}
}

// AccountID returns the authenticated caller's account, empty when auth is
// disabled or the route is unprotected.
func AccountID(c *gin.Context) string {
	v, ok := c.Get(accountIDKey)
	if !ok {
		return ""
	}
	s, _ := v.(string)
	return s
}
