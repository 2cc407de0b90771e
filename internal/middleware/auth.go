package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/taskswap/taskswap/internal/auth"
	"github.com/taskswap/taskswap/internal/services"
	"github.com/taskswap/taskswap/internal/types"
)

type AuthenticatedUser struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

// AuthMiddleware requires a bearer token in the Authorization header.
func AuthMiddleware(issuer *auth.Issuer, users *services.UserService) gin.HandlerFunc {
	return authenticate(issuer, users, false)
}

// WebSocketAuthMiddleware also accepts a token query parameter, since browser
// websocket clients cannot set headers. Use it on the upgrade route only.
func WebSocketAuthMiddleware(issuer *auth.Issuer, users *services.UserService) gin.HandlerFunc {
	return authenticate(issuer, users, true)
}

func authenticate(issuer *auth.Issuer, users *services.UserService, allowQuery bool) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		tokenString, ok := bearerToken(ctx, allowQuery)

		if !ok {
			return
		}

		userID, err := issuer.VerifyJWT(tokenString)

		if err != nil {
			ctx.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid or expired token"})
			return
		}

		user, err := users.GetUser(ctx.Request.Context(), userID)

		if err != nil {
			ctx.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "User not found"})
			return
		}

		ctx.Set(types.ContextUserKey, AuthenticatedUser{
			ID:    user.ID,
			Name:  user.Name,
			Email: user.Email,
		})
		ctx.Next()
	}
}

func bearerToken(ctx *gin.Context, allowQuery bool) (string, bool) {
	authHeader := ctx.GetHeader("Authorization")

	if authHeader == "" {
		if token := ctx.Query("token"); allowQuery && token != "" {
			return token, true
		}

		ctx.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Authorization token is required"})
		return "", false
	}

	parts := strings.SplitN(authHeader, " ", 2)

	if len(parts) != 2 || parts[0] != "Bearer" || parts[1] == "" {
		ctx.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Authorization header format must be Bearer {token}"})
		return "", false
	}

	return parts[1], true
}
