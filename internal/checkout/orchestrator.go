package checkout

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"storefront/internal/inventory"
	"storefront/internal/models"
	"storefront/internal/payment"
	"storefront/internal/telemetry"
)

// MinOnlineAmount is the provider's minimum charge in whole currency units,
// checked against the tax-inclusive total.
const MinOnlineAmount = 30

var (
	ErrEmptyOrder      = errors.New("at least one item is required")
	ErrAddressRequired = errors.New("address is required")
	ErrAddressUnknown  = errors.New("address not found")
	ErrBelowMinimum    = fmt.Errorf("online payment requires a minimum amount of %d", MinOnlineAmount)
	ErrInvalidPayment  = errors.New("invalid payment type")
)

// InsufficientStockError names the offending product so the buyer can fix
// their cart without guessing.
type InsufficientStockError struct {
	ProductName string
}

func (e InsufficientStockError) Error() string {
	return fmt.Sprintf("not enough stock for %s", e.ProductName)
}

// ProductNotFoundError reports a cart line referencing a missing product.
type ProductNotFoundError struct {
	ProductID primitive.ObjectID
}

func (e ProductNotFoundError) Error() string {
	return "product not found"
}

// MissingSellerError reports a product without an owning seller. This is data
// corruption, surfaced rather than silently patched.
type MissingSellerError struct {
	ProductName string
}

func (e MissingSellerError) Error() string {
	return fmt.Sprintf("product %s is missing seller link", e.ProductName)
}

type OrderLine struct {
	ProductID primitive.ObjectID
	Quantity  int
}

type PlaceOrderInput struct {
	UserID      primitive.ObjectID
	AddressID   string
	Lines       []OrderLine
	PaymentType string
}

type PlaceOrderResult struct {
	OrderID     primitive.ObjectID
	CheckoutURL string
}

// Orchestrator places orders under either payment mode. All line
// reservations and the order insert commit atomically; a failure on any line
// rolls the whole request back, so no partial reservation can leak.
type Orchestrator struct {
	db        *mongo.Database
	ledger    *inventory.Ledger
	provider  payment.Provider
	clientURL string
	currency  string
}

func NewOrchestrator(db *mongo.Database, ledger *inventory.Ledger, provider payment.Provider, clientURL, currency string) *Orchestrator {
	return &Orchestrator{
		db:        db,
		ledger:    ledger,
		provider:  provider,
		clientURL: clientURL,
		currency:  currency,
	}
}

// AddTax applies the flat 2% tax as floor(amount * 1.02). For integer
// amounts this is identical to amount + floor(amount * 0.02).
func AddTax(amount int64) int64 {
	return amount * 102 / 100
}

// ValidateInput checks the request shape before any storage access.
func ValidateInput(input PlaceOrderInput) error {
	if input.AddressID == "" {
		return ErrAddressRequired
	}
	if len(input.Lines) == 0 {
		return ErrEmptyOrder
	}
	if input.PaymentType != models.PaymentTypeCOD && input.PaymentType != models.PaymentTypeOnline {
		return ErrInvalidPayment
	}
	for _, line := range input.Lines {
		if line.Quantity <= 0 {
			return inventory.ErrInvalidQuantity
		}
	}
	return nil
}

func (o *Orchestrator) PlaceOrder(ctx context.Context, input PlaceOrderInput) (PlaceOrderResult, error) {
	if err := ValidateInput(input); err != nil {
		telemetry.CheckoutFailures.WithLabelValues(FailureReason(err)).Inc()
		return PlaceOrderResult{}, err
	}

	user, err := o.loadUser(ctx, input.UserID)
	if err != nil {
		telemetry.CheckoutFailures.WithLabelValues(FailureReason(err)).Inc()
		return PlaceOrderResult{}, err
	}
	if !hasAddress(user.Addresses, input.AddressID) {
		telemetry.CheckoutFailures.WithLabelValues(FailureReason(ErrAddressUnknown)).Inc()
		return PlaceOrderResult{}, ErrAddressUnknown
	}

	session, err := o.db.Client().StartSession()
	if err != nil {
		telemetry.CheckoutFailures.WithLabelValues(FailureReason(err)).Inc()
		return PlaceOrderResult{}, err
	}
	defer session.EndSession(ctx)

	var (
		order    models.Order
		reserved []models.Product
		lines    []payment.LineItem
	)

	_, err = session.WithTransaction(ctx, func(sessCtx mongo.SessionContext) (interface{}, error) {
		reserved = reserved[:0]
		lines = lines[:0]

		items := make([]models.OrderItem, 0, len(input.Lines))
		var amount int64

		for _, line := range input.Lines {
			var product models.Product
			err := o.db.Collection("products").FindOne(sessCtx, bson.M{"_id": line.ProductID}).Decode(&product)
			if err == mongo.ErrNoDocuments {
				return nil, ProductNotFoundError{ProductID: line.ProductID}
			}
			if err != nil {
				return nil, err
			}
			if product.Seller.IsZero() {
				return nil, MissingSellerError{ProductName: product.Name}
			}

			updated, err := o.ledger.Reserve(sessCtx, line.ProductID, line.Quantity)
			if errors.Is(err, inventory.ErrInsufficientStock) {
				return nil, InsufficientStockError{ProductName: product.Name}
			}
			if err != nil {
				return nil, err
			}
			reserved = append(reserved, updated)

			amount += product.OfferPrice * int64(line.Quantity)
			items = append(items, models.OrderItem{
				Product:  product.ID,
				Quantity: line.Quantity,
				Seller:   product.Seller,
			})
			lines = append(lines, payment.LineItem{
				Name:       product.Name,
				UnitAmount: product.OfferPrice * 100,
				Quantity:   int64(line.Quantity),
			})
		}

		amount = AddTax(amount)

		if input.PaymentType == models.PaymentTypeOnline && amount < MinOnlineAmount {
			return nil, ErrBelowMinimum
		}

		now := time.Now()
		order = models.Order{
			UserID:      input.UserID,
			Items:       items,
			Amount:      amount,
			Address:     input.AddressID,
			Status:      models.StatusPlaced,
			PaymentType: input.PaymentType,
			IsPaid:      false,
			CreatedAt:   now,
			UpdatedAt:   now,
		}

		res, err := o.db.Collection("orders").InsertOne(sessCtx, order)
		if err != nil {
			return nil, err
		}
		if id, ok := res.InsertedID.(primitive.ObjectID); ok {
			order.ID = id
		}
		return nil, nil
	})
	if err != nil {
		telemetry.CheckoutFailures.WithLabelValues(FailureReason(err)).Inc()
		return PlaceOrderResult{}, err
	}

	for _, product := range reserved {
		o.ledger.Notify(product)
	}

	if input.PaymentType == models.PaymentTypeCOD {
		if err := o.clearCart(ctx, input.UserID); err != nil {
			log.Println("[ORDER] [ERROR] cart clear failed:", err)
		}
		telemetry.OrdersPlaced.WithLabelValues(models.PaymentTypeCOD).Inc()
		log.Println("[ORDER] [INFO] COD order placed:", order.ID.Hex())
		return PlaceOrderResult{OrderID: order.ID}, nil
	}

	checkoutSession, err := o.provider.CreateSession(ctx, payment.SessionInput{
		LineItems:  lines,
		Currency:   o.currency,
		SuccessURL: o.clientURL + "/my-orders?payment=success&session_id={CHECKOUT_SESSION_ID}",
		CancelURL:  o.clientURL + "/cart",
		Metadata: map[string]string{
			"orderId": order.ID.Hex(),
			"userId":  input.UserID.Hex(),
		},
	})
	if err != nil {
		// The order and its reservations are already committed; undo both
		// rather than stranding stock behind a session that never existed.
		o.rollbackOrder(ctx, order)
		telemetry.CheckoutFailures.WithLabelValues(FailureReason(err)).Inc()
		return PlaceOrderResult{}, err
	}

	telemetry.OrdersPlaced.WithLabelValues(models.PaymentTypeOnline).Inc()
	log.Println("[ORDER] [INFO] online order awaiting payment:", order.ID.Hex())
	return PlaceOrderResult{OrderID: order.ID, CheckoutURL: checkoutSession.URL}, nil
}

func (o *Orchestrator) loadUser(ctx context.Context, userID primitive.ObjectID) (models.User, error) {
	var user models.User
	err := o.db.Collection("users").FindOne(ctx, bson.M{"_id": userID}).Decode(&user)
	if err == mongo.ErrNoDocuments {
		return models.User{}, errors.New("user not found")
	}
	return user, err
}

func (o *Orchestrator) clearCart(ctx context.Context, userID primitive.ObjectID) error {
	_, err := o.db.Collection("users").UpdateOne(
		ctx,
		bson.M{"_id": userID},
		bson.M{"$set": bson.M{"cartItems": bson.M{}}},
	)
	return err
}

func (o *Orchestrator) rollbackOrder(ctx context.Context, order models.Order) {
	for _, item := range order.Items {
		if _, err := o.ledger.Release(ctx, item.Product, item.Quantity); err != nil {
			log.Println("[ORDER] [ERROR] rollback release failed:", err)
		}
	}
	if _, err := o.db.Collection("orders").DeleteOne(ctx, bson.M{"_id": order.ID}); err != nil {
		log.Println("[ORDER] [ERROR] rollback delete failed:", err)
	}
}

func hasAddress(addresses []models.Address, id string) bool {
	for _, addr := range addresses {
		if addr.ID == id {
			return true
		}
	}
	return false
}

// FailureReason maps checkout errors to a low-cardinality metrics label.
func FailureReason(err error) string {
	var insufficient InsufficientStockError
	var notFound ProductNotFoundError
	var missingSeller MissingSellerError
	var providerErr *payment.ProviderError

	switch {
	case errors.As(err, &insufficient):
		return "insufficient_stock"
	case errors.As(err, &notFound):
		return "product_not_found"
	case errors.As(err, &missingSeller):
		return "missing_seller"
	case errors.As(err, &providerErr):
		return "provider"
	case errors.Is(err, ErrBelowMinimum):
		return "below_minimum"
	case errors.Is(err, ErrEmptyOrder),
		errors.Is(err, ErrAddressRequired),
		errors.Is(err, ErrAddressUnknown),
		errors.Is(err, ErrInvalidPayment),
		errors.Is(err, inventory.ErrInvalidQuantity):
		return "validation"
	default:
		return "internal"
	}
}
