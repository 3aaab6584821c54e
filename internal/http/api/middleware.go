package api

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/virshi-ai/visibility-api/internal/config"
	"github.com/virshi-ai/visibility-api/internal/models"
	"github.com/virshi-ai/visibility-api/internal/ratelimit"
	"github.com/virshi-ai/visibility-api/internal/security"
	"gorm.io/gorm"
)

// Context keys set by the auth middleware.
const (
	ctxUserID   = "userID"
	ctxUserRole = "userRole"
)

// CurrentUserID returns the authenticated user ID from the request context.
func CurrentUserID(c *gin.Context) uint64 {
	id, _ := c.Get(ctxUserID)
	userID, _ := id.(uint64)
	return userID
}

// CurrentUserRole returns the authenticated user's role.
func CurrentUserRole(c *gin.Context) string {
	role, _ := c.Get(ctxUserRole)
	name, _ := role.(string)
	return name
}

// IsAdmin reports whether the current request is from an admin account.
func IsAdmin(c *gin.Context) bool {
	return CurrentUserRole(c) == models.RoleAdmin
}

func authMiddleware(db *gorm.DB, jwtCfg config.JWTConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing authorization header"})
			return
		}

		token := strings.TrimPrefix(authHeader, "Bearer ")
		if token == authHeader {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid authorization format"})
			return
		}
		token = strings.TrimSpace(token)
		if token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "empty token"})
			return
		}

		claims, errJWT := security.ParseToken(jwtCfg.Secret, token)
		if errJWT != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			return
		}
		userID, errID := claims.UserID()
		if errID != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			return
		}

		var user models.User
		if errFind := db.WithContext(c.Request.Context()).First(&user, userID).Error; errFind != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "user not found"})
			return
		}
		if !user.Active {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "account disabled"})
			return
		}

		role := user.Role
		if role == "" {
			role = models.RoleUser
		}
		c.Set(ctxUserID, user.ID)
		c.Set(ctxUserRole, role)
		c.Next()
	}
}

// rateLimitMiddleware throttles automation-backed endpoints per user.
// Limiter failures never block the request.
func rateLimitMiddleware(db *gorm.DB, manager *ratelimit.Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := CurrentUserID(c)
		if userID == 0 || manager == nil {
			c.Next()
			return
		}

		limit, errResolve := ratelimit.ResolveLimit(c.Request.Context(), db, userID)
		if errResolve != nil {
			c.Next()
			return
		}

		result, errAllow := manager.Allow(c.Request.Context(), ratelimit.UserKey(userID, limit), limit)
		if errAllow != nil {
			c.Next()
			return
		}
		if !result.Allowed {
			c.Header("Retry-After", "1")
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "rate limit exceeded"})
			return
		}
		c.Next()
	}
}
