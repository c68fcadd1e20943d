package handlers

import (
	"bytes"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"storefront/internal/models"
)

func performPlaceOrder(t *testing.T, body string, withUser bool) *httptest.ResponseRecorder {
	t.Helper()
	gin.SetMode(gin.TestMode)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest("POST", "/api/order/cod", bytes.NewBufferString(body))
	c.Request.Header.Set("Content-Type", "application/json")
	if withUser {
		c.Set("userId", primitive.NewObjectID())
	}

	// validation fails before the orchestrator is ever used
	placeOrder(nil, models.PaymentTypeCOD, "POST /api/order/cod")(c)
	return w
}

func TestPlaceOrderRejectsMissingAddress(t *testing.T) {
	body := `{"items":[{"product":"656caf7d8a2e4b0f5c3d2e1a","quantity":1}]}`
	w := performPlaceOrder(t, body, true)
	if w.Code != 400 {
		t.Fatalf("expected 400, got %d: %s", w.Code, w.Body.String())
	}
}

func TestPlaceOrderRejectsEmptyBody(t *testing.T) {
	w := performPlaceOrder(t, `{}`, true)
	if w.Code != 400 {
		t.Fatalf("expected 400, got %d", w.Code)
	}
}

func TestPlaceOrderRejectsInvalidProductID(t *testing.T) {
	body := `{"address":"addr-1","items":[{"product":"not-hex","quantity":1}]}`
	w := performPlaceOrder(t, body, true)
	if w.Code != 400 {
		t.Fatalf("expected 400 for invalid product id, got %d", w.Code)
	}
	if !bytes.Contains(w.Body.Bytes(), []byte("invalid product id")) {
		t.Fatalf("expected invalid product id message, got %s", w.Body.String())
	}
}

func TestPlaceOrderRequiresAuthenticatedUser(t *testing.T) {
	body := `{"address":"addr-1","items":[{"product":"656caf7d8a2e4b0f5c3d2e1a","quantity":1}]}`
	w := performPlaceOrder(t, body, false)
	if w.Code != 401 {
		t.Fatalf("expected 401 without user, got %d", w.Code)
	}
}

func TestBuildPlaceOrderInput(t *testing.T) {
	productID := primitive.NewObjectID()
	req := placeOrderRequest{
		Address: "addr-1",
		Items:   []orderLineRequest{{Product: productID.Hex(), Quantity: 3}},
	}
	userID := primitive.NewObjectID()

	input, err := buildPlaceOrderInput(req, userID, models.PaymentTypeOnline)
	if err != nil {
		t.Fatalf("buildPlaceOrderInput returned error: %v", err)
	}
	if input.UserID != userID || input.AddressID != "addr-1" {
		t.Fatalf("unexpected input: %+v", input)
	}
	if len(input.Lines) != 1 || input.Lines[0].ProductID != productID || input.Lines[0].Quantity != 3 {
		t.Fatalf("unexpected lines: %+v", input.Lines)
	}
}
