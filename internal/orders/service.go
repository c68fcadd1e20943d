package orders

import (
	"context"
	"errors"
	"log"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"storefront/internal/inventory"
	"storefront/internal/models"
)

// Service drives seller lifecycle transitions and the buyer/seller order
// views.
type Service struct {
	db     *mongo.Database
	ledger *inventory.Ledger
}

func NewService(db *mongo.Database, ledger *inventory.Ledger) *Service {
	return &Service{db: db, ledger: ledger}
}

// visibleFilter hides unpaid Online orders: to the buyer they do not exist
// until payment confirms.
func visibleFilter() bson.M {
	return bson.M{"$or": bson.A{
		bson.M{"paymentType": models.PaymentTypeCOD},
		bson.M{"isPaid": true},
	}}
}

func (s *Service) UserOrders(ctx context.Context, userID primitive.ObjectID) ([]models.Order, error) {
	filter := visibleFilter()
	filter["userId"] = userID
	return s.find(ctx, filter)
}

func (s *Service) SellerOrders(ctx context.Context, sellerID primitive.ObjectID) ([]models.Order, error) {
	filter := visibleFilter()
	filter["items.seller"] = sellerID
	return s.find(ctx, filter)
}

func (s *Service) find(ctx context.Context, filter bson.M) ([]models.Order, error) {
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})
	cursor, err := s.db.Collection("orders").Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	orders := make([]models.Order, 0)
	if err := cursor.All(ctx, &orders); err != nil {
		return nil, err
	}
	return orders, nil
}

// UpdateStatus applies one seller-driven transition. Cancellation restores
// every line's reserved stock in the same transaction as the status write,
// then broadcasts the new levels.
func (s *Service) UpdateStatus(ctx context.Context, orderID, sellerID primitive.ObjectID, target string) (models.Order, error) {
	var order models.Order
	err := s.db.Collection("orders").FindOne(ctx, bson.M{"_id": orderID}).Decode(&order)
	if err == mongo.ErrNoDocuments {
		return models.Order{}, ErrOrderNotFound
	}
	if err != nil {
		return models.Order{}, err
	}

	if !orderContainsSeller(order, sellerID) {
		return models.Order{}, ErrNotSeller
	}
	if err := CanTransition(order.Status, target); err != nil {
		return models.Order{}, err
	}

	session, err := s.db.Client().StartSession()
	if err != nil {
		return models.Order{}, err
	}
	defer session.EndSession(ctx)

	var released []models.Product
	_, err = session.WithTransaction(ctx, func(sessCtx mongo.SessionContext) (interface{}, error) {
		released = released[:0]

		// filtered on the previously read status so a concurrent transition
		// aborts instead of double-applying compensation
		res, err := s.db.Collection("orders").UpdateOne(
			sessCtx,
			bson.M{"_id": orderID, "status": order.Status},
			bson.M{"$set": bson.M{"status": target, "updatedAt": time.Now()}},
		)
		if err != nil {
			return nil, err
		}
		if res.MatchedCount == 0 {
			return nil, InvalidTransitionError{From: order.Status, To: target}
		}

		if target == models.StatusCancelled {
			for _, item := range order.Items {
				product, err := s.ledger.Release(sessCtx, item.Product, item.Quantity)
				if errors.Is(err, inventory.ErrProductNotFound) {
					continue
				}
				if err != nil {
					return nil, err
				}
				released = append(released, product)
			}
		}
		return nil, nil
	})
	if err != nil {
		return models.Order{}, err
	}

	for _, product := range released {
		s.ledger.Notify(product)
	}

	order.Status = target
	log.Printf("[ORDER] [INFO] order %s moved to %s", orderID.Hex(), target)
	return order, nil
}

func orderContainsSeller(order models.Order, sellerID primitive.ObjectID) bool {
	for _, item := range order.Items {
		if item.Seller == sellerID {
			return true
		}
	}
	return false
}
