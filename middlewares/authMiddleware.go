package middlewares

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"civicpulse-be/engine"
	"civicpulse-be/models"
	authUtils "civicpulse-be/utils"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

const (
	userIDKey = "user_id"
	userKey   = "user"
)

// UserLoader resolves the account behind a session token.
type UserLoader interface {
	GetUser(ctx context.Context, id primitive.ObjectID) (*models.User, error)
}

// AuthMiddleware validates the bearer token and loads the caller's current
// account, so role and verification checks never trust stale claims.
func AuthMiddleware(tokens *authUtils.Tokens, users UserLoader, log *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.Request.Header.Get("Authorization")
		if authHeader == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "No authorization token provided"})
			return
		}
		tokenString := strings.TrimPrefix(authHeader, "Bearer ")

		claims, err := tokens.ParseToken(tokenString)
		if err != nil {
			log.DebugContext(c.Request.Context(), "token validation failed", "error", err)
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid authorization token"})
			return
		}
		id, err := primitive.ObjectIDFromHex(claims.UserID)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid token claims"})
			return
		}

		user, err := users.GetUser(c.Request.Context(), id)
		if errors.Is(err, engine.ErrNotFound) {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "User not found"})
			return
		}
		if err != nil {
			log.ErrorContext(c.Request.Context(), "load session user", "user", claims.UserID, "error", err)
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Something went wrong"})
			return
		}

		c.Set(userIDKey, claims.UserID)
		c.Set(userKey, user)
		c.Next()
	}
}

// CurrentUser returns the account stored by AuthMiddleware.
func CurrentUser(c *gin.Context) *models.User {
	if v, ok := c.Get(userKey); ok {
		if u, ok := v.(*models.User); ok {
			return u
		}
	}
	return nil
}

// RequireVerified rejects callers whose email or phone is unconfirmed.
func RequireVerified() gin.HandlerFunc {
	return func(c *gin.Context) {
		user := CurrentUser(c)
		if user == nil || !user.IsVerified() {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "Account not verified. Please verify your email and phone number."})
			return
		}
		c.Next()
	}
}
