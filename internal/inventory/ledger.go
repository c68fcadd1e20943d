package inventory

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"storefront/internal/models"
)

var (
	ErrInsufficientStock = errors.New("insufficient stock")
	ErrProductNotFound   = errors.New("product not found")
	ErrInvalidQuantity   = errors.New("quantity must be greater than zero")
)

// Broadcaster receives stock change notifications. Implemented by
// broadcast.Hub; injected so the ledger never reaches for a global.
type Broadcaster interface {
	Notify(productID string, stock int)
}

// Ledger owns per-product stock. Reserve and Release are single conditional
// updates at the storage layer, so concurrent checkouts can never drive stock
// negative.
type Ledger struct {
	db  *mongo.Database
	hub Broadcaster
}

func NewLedger(db *mongo.Database, hub Broadcaster) *Ledger {
	return &Ledger{db: db, hub: hub}
}

func (l *Ledger) products() *mongo.Collection {
	return l.db.Collection("products")
}

// stockPipeline applies delta to stock and recomputes inStock from the
// decremented value in one storage-side update.
func stockPipeline(delta int) mongo.Pipeline {
	return mongo.Pipeline{
		bson.D{{Key: "$set", Value: bson.M{
			"stock": bson.M{"$add": bson.A{"$stock", delta}},
		}}},
		bson.D{{Key: "$set", Value: bson.M{
			"inStock": bson.M{"$gt": bson.A{"$stock", 0}},
		}}},
	}
}

// Reserve atomically decrements stock if at least qty is available and
// returns the updated product. When called outside a transaction the new
// stock level is broadcast immediately; inside one, the caller broadcasts
// after commit.
func (l *Ledger) Reserve(ctx context.Context, productID primitive.ObjectID, qty int) (models.Product, error) {
	if qty <= 0 {
		return models.Product{}, ErrInvalidQuantity
	}

	filter := bson.M{
		"_id":   productID,
		"stock": bson.M{"$gte": qty},
	}

	var product models.Product
	err := l.products().FindOneAndUpdate(
		ctx,
		filter,
		stockPipeline(-qty),
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&product)
	if err == mongo.ErrNoDocuments {
		return models.Product{}, l.classifyMiss(ctx, productID)
	}
	if err != nil {
		return models.Product{}, err
	}

	l.notify(ctx, product)
	return product, nil
}

// Release increments stock unconditionally. Restoring more than was ever
// reserved is a caller error and is not guarded here.
func (l *Ledger) Release(ctx context.Context, productID primitive.ObjectID, qty int) (models.Product, error) {
	if qty <= 0 {
		return models.Product{}, ErrInvalidQuantity
	}

	var product models.Product
	err := l.products().FindOneAndUpdate(
		ctx,
		bson.M{"_id": productID},
		stockPipeline(qty),
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&product)
	if err == mongo.ErrNoDocuments {
		return models.Product{}, ErrProductNotFound
	}
	if err != nil {
		return models.Product{}, err
	}

	l.notify(ctx, product)
	return product, nil
}

// SetStock sets an absolute, seller-scoped stock level and recomputes
// inStock. Negative values are clamped to zero.
func (l *Ledger) SetStock(ctx context.Context, productID, sellerID primitive.ObjectID, stock int) (models.Product, error) {
	stock = ClampStock(stock)

	filter := bson.M{"_id": productID, "seller": sellerID}
	update := bson.M{"$set": bson.M{
		"stock":   stock,
		"inStock": stock > 0,
	}}

	var product models.Product
	err := l.products().FindOneAndUpdate(
		ctx,
		filter,
		update,
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&product)
	if err == mongo.ErrNoDocuments {
		return models.Product{}, ErrProductNotFound
	}
	if err != nil {
		return models.Product{}, err
	}

	l.notify(ctx, product)
	return product, nil
}

// SetAvailability is the manual seller override. Turning a product off also
// zeroes its stock; turning it on does not guarantee stock > 0.
func (l *Ledger) SetAvailability(ctx context.Context, productID, sellerID primitive.ObjectID, inStock bool) (models.Product, error) {
	set := bson.M{"inStock": inStock}
	if !inStock {
		set["stock"] = 0
	}

	var product models.Product
	err := l.products().FindOneAndUpdate(
		ctx,
		bson.M{"_id": productID, "seller": sellerID},
		bson.M{"$set": set},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&product)
	if err == mongo.ErrNoDocuments {
		return models.Product{}, ErrProductNotFound
	}
	if err != nil {
		return models.Product{}, err
	}

	l.notify(ctx, product)
	return product, nil
}

// Notify broadcasts a product's current stock. Used by callers that batch
// reservations in a transaction and broadcast after commit.
func (l *Ledger) Notify(product models.Product) {
	l.hub.Notify(product.ID.Hex(), product.Stock)
}

func (l *Ledger) notify(ctx context.Context, product models.Product) {
	if mongo.SessionFromContext(ctx) != nil {
		return
	}
	l.Notify(product)
}

// classifyMiss distinguishes a missing product from an existing one with too
// little stock after a failed conditional update.
func (l *Ledger) classifyMiss(ctx context.Context, productID primitive.ObjectID) error {
	err := l.products().FindOne(ctx, bson.M{"_id": productID}).Err()
	if err == mongo.ErrNoDocuments {
		return ErrProductNotFound
	}
	if err != nil {
		return err
	}
	return ErrInsufficientStock
}

// ClampStock normalizes seller-supplied stock values.
func ClampStock(stock int) int {
	if stock < 0 {
		return 0
	}
	return stock
}
