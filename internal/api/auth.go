package api

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/megbaru-hub/teffexpo/internal/models"
)

// AuthMiddleware validates JWT tokens
func AuthMiddleware(secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.JSON(http.StatusUnauthorized, models.ErrorResponse{
				Error:   "Authorization header required",
				Message: "Please provide a valid authorization token",
			})
			c.Abort()
			return
		}
		if !authenticate(c, secret, authHeader) {
			c.Abort()
			return
		}
		c.Next()
	}
}

// OptionalAuthMiddleware identifies the caller when a token is present and lets guests through.
// A malformed or invalid token is still rejected.
func OptionalAuthMiddleware(secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader != "" && !authenticate(c, secret, authHeader) {
			c.Abort()
			return
		}
		c.Next()
	}
}

// authenticate parses the bearer token and stores its claims on the context.
// It writes the error response itself and reports whether the request may proceed.
func authenticate(c *gin.Context, secret, authHeader string) bool {
	// Extract token from "Bearer <token>"
	tokenParts := strings.Split(authHeader, " ")
	if len(tokenParts) != 2 || tokenParts[0] != "Bearer" {
		c.JSON(http.StatusUnauthorized, models.ErrorResponse{
			Error:   "Invalid authorization format",
			Message: "Authorization header must be in format 'Bearer <token>'",
		})
		return false
	}

	if secret == "" {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Error:   "Server not configured",
			Message: "JWT secret missing",
		})
		return false
	}

	token, err := jwt.Parse(tokenParts[1], func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return []byte(secret), nil
	})
	if err != nil || !token.Valid {
		c.JSON(http.StatusUnauthorized, models.ErrorResponse{
			Error:   "Invalid token",
			Message: "The provided token is invalid or expired",
		})
		return false
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return true
	}
	if userID, ok := claims["user_id"].(string); ok && userID != "" {
		c.Set("user_id", userID)
	}
	if email, ok := claims["email"].(string); ok {
		c.Set("email", email)
	}
	if r, ok := claims["role"].(string); ok {
		c.Set("role", strings.ToLower(r))
	}
	return true
}

// GetUserID extracts user ID from the JWT token claims
func GetUserID(c *gin.Context) (string, bool) {
	userID, exists := c.Get("user_id")
	if !exists {
		return "", false
	}

	userIDStr, ok := userID.(string)
	return userIDStr, ok
}

// GetRole extracts the caller's role, defaulting to user for authenticated callers
func GetRole(c *gin.Context) models.Role {
	roleVal, _ := c.Get("role")
	if role, ok := roleVal.(string); ok && role != "" {
		return models.Role(role)
	}
	return models.RoleUser
}

// callerFrom builds the operation caller from the request context. Guests get an empty caller.
func callerFrom(c *gin.Context) models.Caller {
	userID, ok := GetUserID(c)
	if !ok || userID == "" {
		return models.Caller{}
	}
	return models.Caller{UserID: userID, Role: GetRole(c)}
}

// AdminMiddleware ensures the user has the admin role for admin endpoints
func AdminMiddleware() gin.HandlerFunc {
	return requireRole(models.RoleAdmin, "Admin access required", "Admin role required")
}

// MerchantMiddleware ensures the user has the merchant role
func MerchantMiddleware() gin.HandlerFunc {
	return requireRole(models.RoleMerchant, "Merchant access required", "Merchant role required")
}

func requireRole(role models.Role, title, message string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, ok := GetUserID(c); !ok || GetRole(c) != role {
			c.JSON(http.StatusForbidden, models.ErrorResponse{
				Error:   title,
				Message: message,
			})
			c.Abort()
			return
		}
		c.Next()
	}
}
