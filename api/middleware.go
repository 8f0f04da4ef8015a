package api

import (
	"net/http"
	"strings"

	"github.com/DummAir/DummAirApp-sub001/internal/domain"
	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

const (
	ctxUserID   = "userID"
	ctxUserRole = "userRole"
)

func bearerToken(c *gin.Context) string {
	header := c.GetHeader("Authorization")
	if after, ok := strings.CutPrefix(header, "Bearer "); ok {
		return strings.TrimSpace(after)
	}
	return ""
}

func parseSession(secret, token string) (userID, role string, err error) {
	parsed, err := jwt.Parse(token, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return []byte(secret), nil
	})
	if err != nil || !parsed.Valid {
		return "", "", domain.ErrUnauthorized
	}

	claims, ok := parsed.Claims.(jwt.MapClaims)
	if !ok {
		return "", "", domain.ErrUnauthorized
	}
	userID, _ = claims["user_id"].(string)
	role, _ = claims["role"].(string)
	if userID == "" {
		return "", "", domain.ErrUnauthorized
	}
	return userID, role, nil
}

// SessionOptional resolves the session when a bearer token is present and
// passes through otherwise. Invalid tokens are simply ignored here.
func SessionOptional(jwtSecret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if token := bearerToken(c); token != "" {
			if userID, role, err := parseSession(jwtSecret, token); err == nil {
				c.Set(ctxUserID, userID)
				c.Set(ctxUserRole, role)
			}
		}
		c.Next()
	}
}

func RequireSession(jwtSecret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := bearerToken(c)
		if token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})
			return
		}
		userID, role, err := parseSession(jwtSecret, token)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid session"})
			return
		}
		c.Set(ctxUserID, userID)
		c.Set(ctxUserRole, role)
		c.Next()
	}
}

// RequireAdmin guards the administrative surface with an explicit role
// check; deployment-level trust alone is not enough to mutate orders.
func RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.GetString(ctxUserRole) != domain.RoleAdmin {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "admin role required"})
			return
		}
		c.Next()
	}
}
