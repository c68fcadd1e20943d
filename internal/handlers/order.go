package handlers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"storefront/internal/checkout"
	"storefront/internal/inventory"
	"storefront/internal/models"
	"storefront/internal/orders"
	"storefront/internal/payment"
)

type orderLineRequest struct {
	Product  string `json:"product" binding:"required"`
	Quantity int    `json:"quantity" binding:"required"`
}

type placeOrderRequest struct {
	Address string             `json:"address" binding:"required"`
	Items   []orderLineRequest `json:"items" binding:"required"`
}

type updateStatusRequest struct {
	Status string `json:"status" binding:"required"`
}

func buildPlaceOrderInput(req placeOrderRequest, userID primitive.ObjectID, paymentType string) (checkout.PlaceOrderInput, error) {
	lines := make([]checkout.OrderLine, 0, len(req.Items))
	for _, item := range req.Items {
		productID, err := primitive.ObjectIDFromHex(item.Product)
		if err != nil {
			return checkout.PlaceOrderInput{}, errors.New("invalid product id")
		}
		lines = append(lines, checkout.OrderLine{ProductID: productID, Quantity: item.Quantity})
	}
	return checkout.PlaceOrderInput{
		UserID:      userID,
		AddressID:   req.Address,
		Lines:       lines,
		PaymentType: paymentType,
	}, nil
}

func placeOrder(orch *checkout.Orchestrator, paymentType, route string) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer handlePanic(c, route)

		var req placeOrderRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondWithError(c, http.StatusBadRequest, route, "invalid request body")
			return
		}

		userID, ok := userIDFromContext(c)
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}

		input, err := buildPlaceOrderInput(req, userID, paymentType)
		if err != nil {
			respondWithError(c, http.StatusBadRequest, route, err.Error())
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 15*time.Second)
		defer cancel()

		result, err := orch.PlaceOrder(ctx, input)
		if err != nil {
			respondWithError(c, checkoutErrorStatus(err), route, err.Error())
			return
		}

		if paymentType == models.PaymentTypeOnline {
			c.JSON(http.StatusOK, gin.H{
				"orderId": result.OrderID.Hex(),
				"url":     result.CheckoutURL,
			})
			return
		}
		c.JSON(http.StatusCreated, gin.H{
			"orderId": result.OrderID.Hex(),
			"message": "order placed",
		})
	}
}

// PlaceOrderCOD places a cash-on-delivery order.
func PlaceOrderCOD(orch *checkout.Orchestrator) gin.HandlerFunc {
	return placeOrder(orch, models.PaymentTypeCOD, "POST /api/order/cod")
}

// PlaceOrderStripe places an unpaid Online order and returns the hosted
// checkout URL.
func PlaceOrderStripe(orch *checkout.Orchestrator) gin.HandlerFunc {
	return placeOrder(orch, models.PaymentTypeOnline, "POST /api/order/stripe")
}

// GetUserOrders lists the caller's orders; unpaid Online orders stay hidden.
func GetUserOrders(svc *orders.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := userIDFromContext(c)
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
		defer cancel()

		list, err := svc.UserOrders(ctx, userID)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "orders could not be fetched"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"orders": list})
	}
}

// GetSellerOrders lists orders containing at least one line item owned by
// the caller.
func GetSellerOrders(svc *orders.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		sellerID, ok := sellerIDFromContext(c)
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
		defer cancel()

		list, err := svc.SellerOrders(ctx, sellerID)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "orders could not be fetched"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"orders": list})
	}
}

// UpdateOrderStatus applies one seller-driven lifecycle transition.
func UpdateOrderStatus(svc *orders.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "PATCH /api/order/:id/status"
		defer handlePanic(c, route)

		orderID, err := primitive.ObjectIDFromHex(c.Param("id"))
		if err != nil {
			respondWithError(c, http.StatusBadRequest, route, "invalid id")
			return
		}

		var req updateStatusRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondWithError(c, http.StatusBadRequest, route, "status is required")
			return
		}

		sellerID, ok := sellerIDFromContext(c)
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 10*time.Second)
		defer cancel()

		order, err := svc.UpdateStatus(ctx, orderID, sellerID, req.Status)
		if err != nil {
			respondWithError(c, statusErrorStatus(err), route, err.Error())
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"message": "order updated to " + order.Status,
			"order":   order,
		})
	}
}

func checkoutErrorStatus(err error) int {
	var insufficient checkout.InsufficientStockError
	var notFound checkout.ProductNotFoundError
	var missingSeller checkout.MissingSellerError
	var providerErr *payment.ProviderError

	switch {
	case errors.As(err, &insufficient):
		return http.StatusConflict
	case errors.As(err, &notFound):
		return http.StatusNotFound
	case errors.As(err, &missingSeller):
		return http.StatusInternalServerError
	case errors.As(err, &providerErr):
		return http.StatusBadGateway
	case errors.Is(err, checkout.ErrBelowMinimum),
		errors.Is(err, checkout.ErrEmptyOrder),
		errors.Is(err, checkout.ErrAddressRequired),
		errors.Is(err, checkout.ErrInvalidPayment),
		errors.Is(err, inventory.ErrInvalidQuantity):
		return http.StatusBadRequest
	case errors.Is(err, checkout.ErrAddressUnknown):
		return http.StatusNotFound
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, mongo.ErrClientDisconnected):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func statusErrorStatus(err error) int {
	var invalidTransition orders.InvalidTransitionError

	switch {
	case errors.Is(err, orders.ErrOrderNotFound):
		return http.StatusNotFound
	case errors.Is(err, orders.ErrNotSeller):
		return http.StatusForbidden
	case errors.Is(err, orders.ErrInvalidStatus):
		return http.StatusBadRequest
	case errors.Is(err, orders.ErrOrderLocked), errors.As(err, &invalidTransition):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}
