package reconcile

import (
	"context"
	"errors"
	"log"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"storefront/internal/inventory"
	"storefront/internal/models"
	"storefront/internal/payment"
)

var ErrMissingMetadata = errors.New("session metadata missing order reference")

// OrderRef is the order/user pair carried in a checkout session's metadata.
type OrderRef struct {
	OrderID primitive.ObjectID
	UserID  primitive.ObjectID
}

// Reconciler converges order and stock state across the three confirmation
// sources: webhook push, client fallback poll, and session expiry. Every
// entry point is idempotent; webhook and fallback may run concurrently for
// the same session and reach the same terminal state.
type Reconciler struct {
	db       *mongo.Database
	ledger   *inventory.Ledger
	provider payment.Provider
}

func NewReconciler(db *mongo.Database, ledger *inventory.Ledger, provider payment.Provider) *Reconciler {
	return &Reconciler{db: db, ledger: ledger, provider: provider}
}

// SessionOrderRef extracts the order reference a checkout session was
// created with.
func SessionOrderRef(s payment.Session) (OrderRef, error) {
	orderID, err := primitive.ObjectIDFromHex(s.Metadata["orderId"])
	if err != nil {
		return OrderRef{}, ErrMissingMetadata
	}
	userID, err := primitive.ObjectIDFromHex(s.Metadata["userId"])
	if err != nil {
		return OrderRef{}, ErrMissingMetadata
	}
	return OrderRef{OrderID: orderID, UserID: userID}, nil
}

// BuildReceipt converts a paid session into the opaque receipt stored on the
// order. AmountReceived is converted back to whole currency units.
func BuildReceipt(s payment.Session) models.PaymentReceipt {
	return models.PaymentReceipt{
		ID:             s.PaymentIntentID,
		Status:         s.PaymentStatus,
		AmountReceived: s.AmountTotal / 100,
	}
}

// HandleSessionCompleted marks the order paid and clears the user's cart.
// The update is filtered on isPaid=false, so replays and races keep the
// first paidAt and receipt. No stock moves here; it was reserved at order
// creation.
func (r *Reconciler) HandleSessionCompleted(ctx context.Context, s payment.Session) error {
	ref, err := SessionOrderRef(s)
	if err != nil {
		return err
	}

	now := time.Now()
	update := bson.M{"$set": bson.M{
		"isPaid":        true,
		"paidAt":        now,
		"paymentMethod": "Stripe",
		"paymentInfo":   BuildReceipt(s),
		"updatedAt":     now,
	}}

	res, err := r.db.Collection("orders").UpdateOne(
		ctx,
		bson.M{"_id": ref.OrderID, "isPaid": false},
		update,
	)
	if err != nil {
		return err
	}
	if res.ModifiedCount == 0 {
		// already applied, or the order is gone; either way nothing to do
		log.Println("[PAYMENT] [INFO] completed event already reconciled:", ref.OrderID.Hex())
	} else {
		log.Println("[PAYMENT] [INFO] order marked paid:", ref.OrderID.Hex())
	}

	_, err = r.db.Collection("users").UpdateOne(
		ctx,
		bson.M{"_id": ref.UserID},
		bson.M{"$set": bson.M{"cartItems": bson.M{}}},
	)
	return err
}

// HandleSessionExpired restores stock for every line item and hard-deletes
// the order; an unpaid Online order whose session died was never real. The
// guarded delete runs at most once, so replays are no-ops.
func (r *Reconciler) HandleSessionExpired(ctx context.Context, s payment.Session) error {
	return r.removeOrder(ctx, s, true)
}

// HandlePaymentFailed removes the order for a failed payment. Async payment
// methods can fail after the session completed and the order was marked paid,
// so unlike expiry the delete does not require isPaid=false.
func (r *Reconciler) HandlePaymentFailed(ctx context.Context, s payment.Session) error {
	return r.removeOrder(ctx, s, false)
}

// removalFilter selects the Online order to delete. unpaidOnly restricts the
// delete to orders not yet marked paid.
func removalFilter(orderID primitive.ObjectID, unpaidOnly bool) bson.M {
	filter := bson.M{
		"_id":         orderID,
		"paymentType": models.PaymentTypeOnline,
	}
	if unpaidOnly {
		filter["isPaid"] = false
	}
	return filter
}

func (r *Reconciler) removeOrder(ctx context.Context, s payment.Session, unpaidOnly bool) error {
	orderID, err := primitive.ObjectIDFromHex(s.Metadata["orderId"])
	if err != nil {
		return ErrMissingMetadata
	}

	session, err := r.db.Client().StartSession()
	if err != nil {
		return err
	}
	defer session.EndSession(ctx)

	var released []models.Product
	_, err = session.WithTransaction(ctx, func(sessCtx mongo.SessionContext) (interface{}, error) {
		released = released[:0]

		var order models.Order
		err := r.db.Collection("orders").FindOneAndDelete(sessCtx, removalFilter(orderID, unpaidOnly)).Decode(&order)
		if err == mongo.ErrNoDocuments {
			return nil, nil
		}
		if err != nil {
			return nil, err
		}

		for _, item := range order.Items {
			product, err := r.ledger.Release(sessCtx, item.Product, item.Quantity)
			if errors.Is(err, inventory.ErrProductNotFound) {
				continue
			}
			if err != nil {
				return nil, err
			}
			released = append(released, product)
		}
		return nil, nil
	})
	if err != nil {
		return err
	}

	for _, product := range released {
		r.ledger.Notify(product)
	}
	if len(released) > 0 {
		log.Println("[PAYMENT] [INFO] session reconciled, order deleted:", orderID.Hex())
	}
	return nil
}

// ConfirmSession is the client-side fallback for deployments where webhooks
// never arrive. It reports whether the session is paid; an unpaid session is
// not an error.
func (r *Reconciler) ConfirmSession(ctx context.Context, sessionID string) (bool, error) {
	s, err := r.provider.GetSession(ctx, sessionID)
	if err != nil {
		return false, err
	}
	if !s.Paid {
		return false, nil
	}
	if err := r.HandleSessionCompleted(ctx, s); err != nil {
		return false, err
	}
	return true, nil
}
