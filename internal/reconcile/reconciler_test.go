package reconcile

import (
	"errors"
	"testing"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"storefront/internal/models"
	"storefront/internal/payment"
)

func TestSessionOrderRef(t *testing.T) {
	orderID := primitive.NewObjectID()
	userID := primitive.NewObjectID()

	ref, err := SessionOrderRef(payment.Session{Metadata: map[string]string{
		"orderId": orderID.Hex(),
		"userId":  userID.Hex(),
	}})
	if err != nil {
		t.Fatalf("SessionOrderRef returned error: %v", err)
	}
	if ref.OrderID != orderID || ref.UserID != userID {
		t.Fatalf("unexpected ref: %+v", ref)
	}
}

func TestSessionOrderRefMissingMetadata(t *testing.T) {
	cases := []map[string]string{
		nil,
		{"orderId": primitive.NewObjectID().Hex()},
		{"userId": primitive.NewObjectID().Hex()},
		{"orderId": "not-an-id", "userId": primitive.NewObjectID().Hex()},
	}
	for _, metadata := range cases {
		_, err := SessionOrderRef(payment.Session{Metadata: metadata})
		if !errors.Is(err, ErrMissingMetadata) {
			t.Fatalf("expected ErrMissingMetadata for %v, got %v", metadata, err)
		}
	}
}

func TestRemovalFilter(t *testing.T) {
	orderID := primitive.NewObjectID()

	expired := removalFilter(orderID, true)
	if expired["_id"] != orderID || expired["paymentType"] != models.PaymentTypeOnline {
		t.Fatalf("unexpected expiry filter: %v", expired)
	}
	if paid, ok := expired["isPaid"]; !ok || paid != false {
		t.Fatalf("expiry delete must only match unpaid orders, got filter %v", expired)
	}

	// An async payment can fail after the completed event marked the order
	// paid; the failed-payment delete must still match it.
	failed := removalFilter(orderID, false)
	if failed["_id"] != orderID || failed["paymentType"] != models.PaymentTypeOnline {
		t.Fatalf("unexpected failed-payment filter: %v", failed)
	}
	if _, ok := failed["isPaid"]; ok {
		t.Fatalf("failed-payment delete must not be restricted to unpaid orders, got filter %v", failed)
	}
}

func TestBuildReceipt(t *testing.T) {
	receipt := BuildReceipt(payment.Session{
		PaymentIntentID: "pi_123",
		PaymentStatus:   "paid",
		AmountTotal:     10200,
	})
	if receipt.ID != "pi_123" {
		t.Fatalf("expected payment intent id, got %q", receipt.ID)
	}
	if receipt.Status != "paid" {
		t.Fatalf("expected status paid, got %q", receipt.Status)
	}
	if receipt.AmountReceived != 102 {
		t.Fatalf("expected minor units converted to 102, got %d", receipt.AmountReceived)
	}
}
