package middleware

import (
	"log"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

const (
	RoleUser   = "user"
	RoleSeller = "seller"
)

func parseBearer(header, secret string) (jwt.MapClaims, error) {
	raw := strings.TrimSpace(header)
	if raw == "" {
		return nil, jwt.ErrTokenMalformed
	}

	parts := strings.Split(raw, " ")
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return nil, jwt.ErrTokenMalformed
	}

	token, err := jwt.Parse(parts[1], func(t *jwt.Token) (interface{}, error) {
		return []byte(secret), nil
	})
	if err != nil || !token.Valid {
		return nil, jwt.ErrTokenInvalidClaims
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, jwt.ErrTokenInvalidClaims
	}
	return claims, nil
}

func guard(secret, role, idClaim, ctxKey string) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, err := parseBearer(c.GetHeader("Authorization"), secret)
		if err != nil {
			log.Println("[AUTH] [ERROR] token validation failed:", err)
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}

		if got, _ := claims["role"].(string); got != role {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "forbidden"})
			return
		}

		idValue, ok := claims[idClaim].(string)
		if !ok || strings.TrimSpace(idValue) == "" {
			log.Printf("[AUTH] [ERROR] %s claim missing", idClaim)
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}

		id, err := primitive.ObjectIDFromHex(idValue)
		if err != nil {
			log.Printf("[AUTH] [ERROR] invalid %s claim", idClaim)
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}

		c.Set(ctxKey, id)
		c.Next()
	}
}

// UserAuth validates user tokens and injects userId into the context.
func UserAuth(secret string) gin.HandlerFunc {
	return guard(secret, RoleUser, "userId", "userId")
}

// SellerAuth validates seller tokens and injects sellerId into the context.
func SellerAuth(secret string) gin.HandlerFunc {
	return guard(secret, RoleSeller, "sellerId", "sellerId")
}
