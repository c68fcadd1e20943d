package inventory

import (
	"context"
	"errors"
	"testing"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/integration/mtest"
)

type captureBroadcaster struct {
	ids    []string
	levels []int
}

func (c *captureBroadcaster) Notify(productID string, stock int) {
	c.ids = append(c.ids, productID)
	c.levels = append(c.levels, stock)
}

func TestReserveGuardsAgainstOverselling(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	productID := primitive.NewObjectID()
	productDoc := bson.D{
		{Key: "_id", Value: productID},
		{Key: "name", Value: "Mug"},
		{Key: "offerPrice", Value: int64(120)},
		{Key: "stock", Value: 1},
		{Key: "inStock", Value: true},
		{Key: "seller", Value: primitive.NewObjectID()},
	}

	mt.Run("insufficient stock", func(mt *mtest.T) {
		hub := &captureBroadcaster{}
		ledger := NewLedger(mt.DB, hub)

		// conditional update misses, the product exists with less stock
		mt.AddMockResponses(
			mtest.CreateSuccessResponse(bson.E{Key: "value", Value: nil}),
			mtest.CreateCursorResponse(0, mt.DB.Name()+".products", mtest.FirstBatch, productDoc),
		)

		_, err := ledger.Reserve(context.Background(), productID, 3)
		if !errors.Is(err, ErrInsufficientStock) {
			mt.Fatalf("expected ErrInsufficientStock, got %v", err)
		}
		if len(hub.ids) != 0 {
			mt.Fatalf("failed reservation must not broadcast, got %v", hub.ids)
		}

		// the decrement must be fenced on stock >= qty at the storage layer
		var seen bool
		for _, evt := range mt.GetAllStartedEvents() {
			if evt.CommandName != "findAndModify" {
				continue
			}
			seen = true
			query := evt.Command.Lookup("query").Document()
			min, ok := query.Lookup("stock", "$gte").AsInt64OK()
			if !ok || min != 3 {
				mt.Fatalf("expected stock $gte 3 fence, got filter %v", query)
			}
		}
		if !seen {
			mt.Fatalf("expected a findAndModify command")
		}
	})

	mt.Run("missing product", func(mt *mtest.T) {
		ledger := NewLedger(mt.DB, &captureBroadcaster{})

		mt.AddMockResponses(
			mtest.CreateSuccessResponse(bson.E{Key: "value", Value: nil}),
			mtest.CreateCursorResponse(0, mt.DB.Name()+".products", mtest.FirstBatch),
		)

		_, err := ledger.Reserve(context.Background(), productID, 1)
		if !errors.Is(err, ErrProductNotFound) {
			mt.Fatalf("expected ErrProductNotFound, got %v", err)
		}
	})

	mt.Run("successful reservation broadcasts new level", func(mt *mtest.T) {
		hub := &captureBroadcaster{}
		ledger := NewLedger(mt.DB, hub)

		updated := bson.D{
			{Key: "_id", Value: productID},
			{Key: "name", Value: "Mug"},
			{Key: "stock", Value: 0},
			{Key: "inStock", Value: false},
		}
		mt.AddMockResponses(mtest.CreateSuccessResponse(bson.E{Key: "value", Value: updated}))

		product, err := ledger.Reserve(context.Background(), productID, 1)
		if err != nil {
			mt.Fatalf("Reserve returned error: %v", err)
		}
		if product.Stock != 0 || product.InStock {
			mt.Fatalf("expected updated product with zero stock, got %+v", product)
		}
		if len(hub.ids) != 1 || hub.ids[0] != productID.Hex() || hub.levels[0] != 0 {
			mt.Fatalf("expected one broadcast with the post-reserve level, got %v %v", hub.ids, hub.levels)
		}
	})
}
