package checkout

import (
	"context"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/integration/mtest"

	"storefront/internal/inventory"
	"storefront/internal/models"
	"storefront/internal/telemetry"
)

func TestPlaceOrderUnknownUserCountsFailure(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("missing user", func(mt *mtest.T) {
		ledger := inventory.NewLedger(mt.DB, nil)
		orch := NewOrchestrator(mt.DB, ledger, nil, "http://localhost:5173", "usd")

		mt.AddMockResponses(mtest.CreateCursorResponse(0, mt.DB.Name()+".users", mtest.FirstBatch))

		counter := telemetry.CheckoutFailures.WithLabelValues("internal")
		before := testutil.ToFloat64(counter)

		_, err := orch.PlaceOrder(context.Background(), PlaceOrderInput{
			UserID:      primitive.NewObjectID(),
			AddressID:   "addr-1",
			Lines:       []OrderLine{{ProductID: primitive.NewObjectID(), Quantity: 1}},
			PaymentType: models.PaymentTypeCOD,
		})
		if err == nil {
			mt.Fatalf("expected an error for an unknown user")
		}
		if got := testutil.ToFloat64(counter); got != before+1 {
			mt.Fatalf("expected checkout failure counter to move from %v to %v, got %v", before, before+1, got)
		}
	})
}
