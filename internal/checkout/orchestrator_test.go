package checkout

import (
	"errors"
	"testing"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"storefront/internal/inventory"
	"storefront/internal/models"
)

func TestAddTax(t *testing.T) {
	tests := []struct {
		amount int64
		want   int64
	}{
		{0, 0},
		{25, 25}, // below the rounding threshold, tax floors away
		{49, 49}, // 49.98 floors to 49
		{50, 51}, // first amount where the 2% survives the floor
		{100, 102},
		{147, 149}, // 149.94 floors to 149
		{1000, 1020},
	}
	for _, tt := range tests {
		if got := AddTax(tt.amount); got != tt.want {
			t.Fatalf("AddTax(%d) = %d, want %d", tt.amount, got, tt.want)
		}
	}
}

func TestAddTaxFormulaVariantsAgree(t *testing.T) {
	// floor(a*1.02) and a+floor(a*0.02) only drift under float math; for
	// integer amounts they must coincide
	for amount := int64(0); amount <= 5000; amount++ {
		alt := amount + amount*2/100
		if got := AddTax(amount); got != alt {
			t.Fatalf("variants disagree at %d: %d vs %d", amount, got, alt)
		}
	}
}

func TestValidateInputRejectsMissingAddress(t *testing.T) {
	err := ValidateInput(PlaceOrderInput{
		UserID:      primitive.NewObjectID(),
		Lines:       []OrderLine{{ProductID: primitive.NewObjectID(), Quantity: 1}},
		PaymentType: models.PaymentTypeCOD,
	})
	if !errors.Is(err, ErrAddressRequired) {
		t.Fatalf("expected ErrAddressRequired, got %v", err)
	}
}

func TestValidateInputRejectsEmptyLines(t *testing.T) {
	err := ValidateInput(PlaceOrderInput{
		UserID:      primitive.NewObjectID(),
		AddressID:   "addr-1",
		PaymentType: models.PaymentTypeCOD,
	})
	if !errors.Is(err, ErrEmptyOrder) {
		t.Fatalf("expected ErrEmptyOrder, got %v", err)
	}
}

func TestValidateInputRejectsBadQuantity(t *testing.T) {
	for _, qty := range []int{0, -3} {
		err := ValidateInput(PlaceOrderInput{
			UserID:      primitive.NewObjectID(),
			AddressID:   "addr-1",
			Lines:       []OrderLine{{ProductID: primitive.NewObjectID(), Quantity: qty}},
			PaymentType: models.PaymentTypeOnline,
		})
		if !errors.Is(err, inventory.ErrInvalidQuantity) {
			t.Fatalf("expected ErrInvalidQuantity for qty=%d, got %v", qty, err)
		}
	}
}

func TestValidateInputRejectsUnknownPaymentType(t *testing.T) {
	err := ValidateInput(PlaceOrderInput{
		UserID:      primitive.NewObjectID(),
		AddressID:   "addr-1",
		Lines:       []OrderLine{{ProductID: primitive.NewObjectID(), Quantity: 1}},
		PaymentType: "Barter",
	})
	if !errors.Is(err, ErrInvalidPayment) {
		t.Fatalf("expected ErrInvalidPayment, got %v", err)
	}
}

func TestFailureReasonLabels(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{InsufficientStockError{ProductName: "Milk"}, "insufficient_stock"},
		{ProductNotFoundError{ProductID: primitive.NewObjectID()}, "product_not_found"},
		{MissingSellerError{ProductName: "Milk"}, "missing_seller"},
		{ErrBelowMinimum, "below_minimum"},
		{ErrEmptyOrder, "validation"},
		{ErrAddressUnknown, "validation"},
		{errors.New("boom"), "internal"},
	}
	for _, tt := range tests {
		if got := FailureReason(tt.err); got != tt.want {
			t.Fatalf("FailureReason(%v) = %q, want %q", tt.err, got, tt.want)
		}
	}
}

func TestInsufficientStockErrorNamesProduct(t *testing.T) {
	err := InsufficientStockError{ProductName: "Basmati Rice"}
	if err.Error() != "not enough stock for Basmati Rice" {
		t.Fatalf("unexpected message: %s", err.Error())
	}
}
