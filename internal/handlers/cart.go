package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

type updateCartRequest struct {
	CartItems map[string]int `json:"cartItems" binding:"required"`
}

// sanitizeCartItems drops entries with non-positive quantity or malformed
// product ids; a zero quantity removes the entry by contract.
func sanitizeCartItems(items map[string]int) map[string]int {
	out := make(map[string]int, len(items))
	for id, qty := range items {
		if qty <= 0 {
			continue
		}
		if _, err := primitive.ObjectIDFromHex(id); err != nil {
			continue
		}
		out[id] = qty
	}
	return out
}

// UpdateCart mirrors the client cart onto the user's profile.
func UpdateCart(db *mongo.Database) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "POST /api/cart/update"
		defer handlePanic(c, route)

		if err := ensureDBConnection(c.Request.Context(), db); err != nil {
			respondWithError(c, http.StatusServiceUnavailable, route, "database unavailable")
			return
		}

		var req updateCartRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondWithError(c, http.StatusBadRequest, route, "cartItems is required")
			return
		}

		userID, ok := userIDFromContext(c)
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}

		items := sanitizeCartItems(req.CartItems)

		ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
		defer cancel()

		res, err := db.Collection("users").UpdateOne(
			ctx,
			bson.M{"_id": userID},
			bson.M{"$set": bson.M{"cartItems": items, "updatedAt": time.Now()}},
		)
		if err != nil {
			respondWithError(c, http.StatusInternalServerError, route, "db error")
			return
		}
		if res.MatchedCount == 0 {
			respondWithError(c, http.StatusNotFound, route, "user not found")
			return
		}

		c.JSON(http.StatusOK, gin.H{"message": "cart updated", "cartItems": items})
	}
}
