package middleware

import (
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

const testSecret = "test-secret"

func signToken(t *testing.T, claims jwt.MapClaims) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testSecret))
	if err != nil {
		t.Fatalf("failed to sign token: %v", err)
	}
	return token
}

func performAuth(t *testing.T, handler gin.HandlerFunc, authorization string) (*httptest.ResponseRecorder, *gin.Context) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest("GET", "/", nil)
	if authorization != "" {
		c.Request.Header.Set("Authorization", authorization)
	}

	handler(c)
	return w, c
}

func TestUserAuthInjectsUserID(t *testing.T) {
	userID := primitive.NewObjectID()
	token := signToken(t, jwt.MapClaims{
		"role":   RoleUser,
		"userId": userID.Hex(),
		"exp":    time.Now().Add(time.Hour).Unix(),
	})

	w, c := performAuth(t, UserAuth(testSecret), "Bearer "+token)
	if w.Code != 200 {
		t.Fatalf("expected pass-through, got %d: %s", w.Code, w.Body.String())
	}

	got, ok := c.Get("userId")
	if !ok || got.(primitive.ObjectID) != userID {
		t.Fatalf("expected userId %s in context, got %v", userID.Hex(), got)
	}
}

func TestUserAuthRejectsMissingToken(t *testing.T) {
	w, _ := performAuth(t, UserAuth(testSecret), "")
	if w.Code != 401 {
		t.Fatalf("expected 401, got %d", w.Code)
	}
}

func TestUserAuthRejectsSellerToken(t *testing.T) {
	token := signToken(t, jwt.MapClaims{
		"role":     RoleSeller,
		"sellerId": primitive.NewObjectID().Hex(),
		"exp":      time.Now().Add(time.Hour).Unix(),
	})

	w, _ := performAuth(t, UserAuth(testSecret), "Bearer "+token)
	if w.Code != 403 {
		t.Fatalf("expected 403 for wrong role, got %d", w.Code)
	}
}

func TestSellerAuthRejectsExpiredToken(t *testing.T) {
	token := signToken(t, jwt.MapClaims{
		"role":     RoleSeller,
		"sellerId": primitive.NewObjectID().Hex(),
		"exp":      time.Now().Add(-time.Hour).Unix(),
	})

	w, _ := performAuth(t, SellerAuth(testSecret), "Bearer "+token)
	if w.Code != 401 {
		t.Fatalf("expected 401 for expired token, got %d", w.Code)
	}
}

func TestSellerAuthRejectsMalformedHeader(t *testing.T) {
	w, _ := performAuth(t, SellerAuth(testSecret), "Token abc")
	if w.Code != 401 {
		t.Fatalf("expected 401 for malformed header, got %d", w.Code)
	}
}
