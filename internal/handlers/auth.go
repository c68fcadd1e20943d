package handlers

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"golang.org/x/crypto/bcrypt"

	"storefront/internal/middleware"
	"storefront/internal/models"
)

type registerRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
	Name     string `json:"name" binding:"required"`
}

type loginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

func issueToken(secret, role, idClaim string, id primitive.ObjectID, ttl time.Duration) (string, error) {
	claims := jwt.MapClaims{
		"role":  role,
		idClaim: id.Hex(),
		"exp":   time.Now().Add(ttl).Unix(),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
}

// RegisterUser creates a shopper account and returns an access token.
func RegisterUser(db *mongo.Database, jwtSecret string, ttl time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "POST /api/user/register"
		defer handlePanic(c, route)

		var req registerRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondWithError(c, http.StatusBadRequest, route, "email, password and name are required")
			return
		}

		hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
		if err != nil {
			respondWithError(c, http.StatusInternalServerError, route, "could not hash password")
			return
		}

		now := time.Now()
		user := models.User{
			Email:        strings.ToLower(strings.TrimSpace(req.Email)),
			PasswordHash: string(hash),
			Name:         strings.TrimSpace(req.Name),
			CartItems:    map[string]int{},
			Addresses:    []models.Address{},
			CreatedAt:    now,
			UpdatedAt:    now,
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
		defer cancel()

		res, err := db.Collection("users").InsertOne(ctx, user)
		if mongo.IsDuplicateKeyError(err) {
			respondWithError(c, http.StatusConflict, route, "email already registered")
			return
		}
		if err != nil {
			respondWithError(c, http.StatusInternalServerError, route, "db error")
			return
		}
		userID, _ := res.InsertedID.(primitive.ObjectID)

		token, err := issueToken(jwtSecret, middleware.RoleUser, "userId", userID, ttl)
		if err != nil {
			respondWithError(c, http.StatusInternalServerError, route, "could not issue token")
			return
		}

		c.JSON(http.StatusCreated, gin.H{"token": token, "id": userID.Hex()})
	}
}

// LoginUser authenticates a shopper.
func LoginUser(db *mongo.Database, jwtSecret string, ttl time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "POST /api/user/login"
		defer handlePanic(c, route)

		var req loginRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondWithError(c, http.StatusBadRequest, route, "email and password are required")
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
		defer cancel()

		var user models.User
		err := db.Collection("users").FindOne(ctx, bson.M{"email": strings.ToLower(strings.TrimSpace(req.Email))}).Decode(&user)
		if err != nil || bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)) != nil {
			respondWithError(c, http.StatusUnauthorized, route, "invalid credentials")
			return
		}

		token, err := issueToken(jwtSecret, middleware.RoleUser, "userId", user.ID, ttl)
		if err != nil {
			respondWithError(c, http.StatusInternalServerError, route, "could not issue token")
			return
		}

		c.JSON(http.StatusOK, gin.H{"token": token, "id": user.ID.Hex()})
	}
}

// RegisterSeller creates a seller account and returns an access token.
func RegisterSeller(db *mongo.Database, jwtSecret string, ttl time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "POST /api/seller/register"
		defer handlePanic(c, route)

		var req registerRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondWithError(c, http.StatusBadRequest, route, "email, password and name are required")
			return
		}

		hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
		if err != nil {
			respondWithError(c, http.StatusInternalServerError, route, "could not hash password")
			return
		}

		seller := models.Seller{
			Email:        strings.ToLower(strings.TrimSpace(req.Email)),
			PasswordHash: string(hash),
			Name:         strings.TrimSpace(req.Name),
			CreatedAt:    time.Now(),
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
		defer cancel()

		res, err := db.Collection("sellers").InsertOne(ctx, seller)
		if mongo.IsDuplicateKeyError(err) {
			respondWithError(c, http.StatusConflict, route, "email already registered")
			return
		}
		if err != nil {
			respondWithError(c, http.StatusInternalServerError, route, "db error")
			return
		}
		sellerID, _ := res.InsertedID.(primitive.ObjectID)

		token, err := issueToken(jwtSecret, middleware.RoleSeller, "sellerId", sellerID, ttl)
		if err != nil {
			respondWithError(c, http.StatusInternalServerError, route, "could not issue token")
			return
		}

		c.JSON(http.StatusCreated, gin.H{"token": token, "id": sellerID.Hex()})
	}
}

// LoginSeller authenticates a seller.
func LoginSeller(db *mongo.Database, jwtSecret string, ttl time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "POST /api/seller/login"
		defer handlePanic(c, route)

		var req loginRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondWithError(c, http.StatusBadRequest, route, "email and password are required")
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
		defer cancel()

		var seller models.Seller
		err := db.Collection("sellers").FindOne(ctx, bson.M{"email": strings.ToLower(strings.TrimSpace(req.Email))}).Decode(&seller)
		if err != nil || bcrypt.CompareHashAndPassword([]byte(seller.PasswordHash), []byte(req.Password)) != nil {
			respondWithError(c, http.StatusUnauthorized, route, "invalid credentials")
			return
		}

		token, err := issueToken(jwtSecret, middleware.RoleSeller, "sellerId", seller.ID, ttl)
		if err != nil {
			respondWithError(c, http.StatusInternalServerError, route, "could not issue token")
			return
		}

		c.JSON(http.StatusOK, gin.H{"token": token, "id": seller.ID.Hex()})
	}
}
