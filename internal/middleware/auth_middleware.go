package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/bharatabhiyan/marketplace-backend/pkg/jwt"
)

// UserContextKey is the key used to store user information in Gin context
const UserContextKey = "user"

// UserContext represents the authenticated user's information
type UserContext struct {
	UserID        uuid.UUID `json:"user_id"`
	Roles         []string  `json:"roles"`
	IsActive      bool      `json:"is_active"`
	AdminVerified bool      `json:"admin_verified"`
}

func abortWith(c *gin.Context, status int, message, code string) {
	c.JSON(status, gin.H{
		"success": false,
		"message": message,
		"errors":  gin.H{"code": code},
	})
	c.Abort()
}

// AuthMiddleware creates a middleware that validates JWT access tokens
func AuthMiddleware(jwtService *jwt.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			abortWith(c, http.StatusUnauthorized, "Authorization header is required", "MISSING_AUTH_HEADER")
			return
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || parts[0] != "Bearer" {
			abortWith(c, http.StatusUnauthorized, "Invalid authorization header format. Expected: Bearer <token>", "INVALID_AUTH_FORMAT")
			return
		}

		tokenString := strings.TrimSpace(parts[1])
		if tokenString == "" {
			abortWith(c, http.StatusUnauthorized, "Token cannot be empty", "INVALID_AUTH_FORMAT")
			return
		}

		claims, err := jwtService.ValidateAccessToken(tokenString)
		if err != nil {
			if jwtService.IsTokenExpired(tokenString) {
				abortWith(c, http.StatusUnauthorized, "Access token has expired. Please refresh your token.", "TOKEN_EXPIRED")
			} else {
				abortWith(c, http.StatusUnauthorized, "Invalid access token", "INVALID_TOKEN")
			}
			return
		}

		c.Set(UserContextKey, UserContext{
			UserID:        claims.UserID,
			Roles:         claims.Roles,
			IsActive:      claims.IsActive,
			AdminVerified: claims.AdminVerified,
		})

		c.Next()
	}
}

// RequireRole creates a middleware that checks if the user has any of the
// required roles. Must be used after AuthMiddleware.
func RequireRole(roles ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		userCtx, exists := GetUserContext(c)
		if !exists {
			abortWith(c, http.StatusUnauthorized, "User context not found. Auth middleware may not be applied.", "MISSING_USER_CONTEXT")
			return
		}

		hasRole := false
		for _, requiredRole := range roles {
			for _, userRole := range userCtx.Roles {
				if userRole == requiredRole {
					hasRole = true
					break
				}
			}
			if hasRole {
				break
			}
		}

		if !hasRole {
			abortWith(c, http.StatusForbidden, "You don't have permission to access this resource", "INSUFFICIENT_PERMISSIONS")
			return
		}

		c.Next()
	}
}

// RequireCaptain shorthand for verified-captain routes
func RequireCaptain() gin.HandlerFunc {
	return RequireRole("captain")
}

// RequireAdmin shorthand for admin routes
func RequireAdmin() gin.HandlerFunc {
	return RequireRole("admin")
}

// GetUserContext retrieves the user context from Gin context
func GetUserContext(c *gin.Context) (UserContext, bool) {
	value, exists := c.Get(UserContextKey)
	if !exists {
		return UserContext{}, false
	}

	userCtx, ok := value.(UserContext)
	if !ok {
		return UserContext{}, false
	}

	return userCtx, true
}

// MustGetUserContext retrieves the user context or panics (use only after AuthMiddleware)
func MustGetUserContext(c *gin.Context) UserContext {
	userCtx, exists := GetUserContext(c)
	if !exists {
		panic("user context not found - ensure AuthMiddleware is applied")
	}
	return userCtx
}
