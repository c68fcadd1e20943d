package handlers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"storefront/internal/inventory"
	"storefront/internal/models"
)

type addProductRequest struct {
	Name        string `json:"name" binding:"required"`
	Description string `json:"description"`
	Category    string `json:"category"`
	Price       int64  `json:"price" binding:"required"`
	OfferPrice  int64  `json:"offerPrice" binding:"required"`
	Stock       int    `json:"stock"`
}

type changeStockRequest struct {
	ID      string `json:"id" binding:"required"`
	InStock *bool  `json:"inStock" binding:"required"`
}

type updateStockRequest struct {
	ID    string `json:"id" binding:"required"`
	Stock *int   `json:"stock" binding:"required"`
}

// AddProduct creates a seller-owned product.
func AddProduct(db *mongo.Database) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "POST /api/product/add"
		defer handlePanic(c, route)

		var req addProductRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondWithError(c, http.StatusBadRequest, route, "invalid request body")
			return
		}
		if req.Price <= 0 || req.OfferPrice <= 0 || req.OfferPrice > req.Price {
			respondWithError(c, http.StatusBadRequest, route, "offerPrice must be positive and not exceed price")
			return
		}

		sellerID, ok := sellerIDFromContext(c)
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}

		stock := inventory.ClampStock(req.Stock)
		now := time.Now()
		product := models.Product{
			Name:        req.Name,
			Description: req.Description,
			Category:    req.Category,
			Price:       req.Price,
			OfferPrice:  req.OfferPrice,
			Stock:       stock,
			InStock:     stock > 0,
			Seller:      sellerID,
			CreatedAt:   now,
			UpdatedAt:   now,
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
		defer cancel()

		res, err := db.Collection("products").InsertOne(ctx, product)
		if err != nil {
			respondWithError(c, http.StatusInternalServerError, route, "db error")
			return
		}
		if id, ok := res.InsertedID.(primitive.ObjectID); ok {
			product.ID = id
		}

		c.JSON(http.StatusCreated, gin.H{"message": "product added", "product": product})
	}
}

// GetProducts returns the public catalog: in-stock items only.
func GetProducts(db *mongo.Database) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
		defer cancel()

		cursor, err := db.Collection("products").Find(ctx, bson.M{"inStock": true})
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "products could not be fetched"})
			return
		}
		defer cursor.Close(ctx)

		products := make([]models.Product, 0)
		if err := cursor.All(ctx, &products); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to parse products"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"products": products})
	}
}

// GetProductByID returns a single product.
func GetProductByID(db *mongo.Database) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := primitive.ObjectIDFromHex(c.Param("id"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
		defer cancel()

		var product models.Product
		if err := db.Collection("products").FindOne(ctx, bson.M{"_id": id}).Decode(&product); err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "product not found"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"product": product})
	}
}

// GetSellerProducts lists the caller's own products, in or out of stock.
func GetSellerProducts(db *mongo.Database) gin.HandlerFunc {
	return func(c *gin.Context) {
		sellerID, ok := sellerIDFromContext(c)
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
		defer cancel()

		cursor, err := db.Collection("products").Find(ctx, bson.M{"seller": sellerID})
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "products could not be fetched"})
			return
		}
		defer cursor.Close(ctx)

		products := make([]models.Product, 0)
		if err := cursor.All(ctx, &products); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to parse products"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"products": products})
	}
}

// ChangeStock is the manual availability override: turning a product off
// zeroes its stock, turning it on does not guarantee stock.
func ChangeStock(ledger *inventory.Ledger) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "POST /api/product/stock"
		defer handlePanic(c, route)

		var req changeStockRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondWithError(c, http.StatusBadRequest, route, "id and inStock are required")
			return
		}

		productID, err := primitive.ObjectIDFromHex(req.ID)
		if err != nil {
			respondWithError(c, http.StatusBadRequest, route, "invalid id")
			return
		}

		sellerID, ok := sellerIDFromContext(c)
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
		defer cancel()

		product, err := ledger.SetAvailability(ctx, productID, sellerID, *req.InStock)
		if errors.Is(err, inventory.ErrProductNotFound) {
			respondWithError(c, http.StatusNotFound, route, "not authorized or product not found")
			return
		}
		if err != nil {
			respondWithError(c, http.StatusInternalServerError, route, "db error")
			return
		}

		c.JSON(http.StatusOK, gin.H{"message": "stock status updated", "product": product})
	}
}

// UpdateProductStock sets an absolute stock level.
func UpdateProductStock(ledger *inventory.Ledger) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "PATCH /api/product/stock/update"
		defer handlePanic(c, route)

		var req updateStockRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondWithError(c, http.StatusBadRequest, route, "id and stock are required")
			return
		}

		productID, err := primitive.ObjectIDFromHex(req.ID)
		if err != nil {
			respondWithError(c, http.StatusBadRequest, route, "invalid id")
			return
		}

		sellerID, ok := sellerIDFromContext(c)
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
		defer cancel()

		product, err := ledger.SetStock(ctx, productID, sellerID, *req.Stock)
		if errors.Is(err, inventory.ErrProductNotFound) {
			respondWithError(c, http.StatusNotFound, route, "not authorized or product not found")
			return
		}
		if err != nil {
			respondWithError(c, http.StatusInternalServerError, route, "db error")
			return
		}

		c.JSON(http.StatusOK, gin.H{"message": "stock updated", "product": product})
	}
}
