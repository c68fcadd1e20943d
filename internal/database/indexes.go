package database

import (
	"context"
	"log"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

func EnsureProductIndexes(db *mongo.Database) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	indexes := db.Collection("products").Indexes()

	sellerIndex := mongo.IndexModel{
		Keys:    bson.D{{Key: "seller", Value: 1}},
		Options: options.Index().SetName("seller_index"),
	}
	inStockIndex := mongo.IndexModel{
		Keys:    bson.D{{Key: "inStock", Value: 1}},
		Options: options.Index().SetName("inStock_index"),
	}

	log.Println("EnsureProductIndexes: creating seller_index and inStock_index")
	_, err := indexes.CreateMany(ctx, []mongo.IndexModel{sellerIndex, inStockIndex})
	if err != nil {
		log.Println("EnsureProductIndexes: index error:", err)
		return err
	}
	return nil
}

func EnsureUserIndexes(db *mongo.Database) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	for _, coll := range []string{"users", "sellers"} {
		emailIndex := mongo.IndexModel{
			Keys: bson.D{{Key: "email", Value: 1}},
			Options: options.Index().
				SetName("email_unique").
				SetUnique(true),
		}

		log.Printf("EnsureUserIndexes: creating email_unique index on %s", coll)
		if _, err := db.Collection(coll).Indexes().CreateOne(ctx, emailIndex); err != nil {
			log.Printf("EnsureUserIndexes: %s email index error: %v", coll, err)
			return err
		}
	}
	return nil
}

func EnsureOrderIndexes(db *mongo.Database) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	indexes := db.Collection("orders").Indexes()

	userIDIndex := mongo.IndexModel{
		Keys:    bson.D{{Key: "userId", Value: 1}},
		Options: options.Index().SetName("userId_index"),
	}
	sellerIndex := mongo.IndexModel{
		Keys:    bson.D{{Key: "items.seller", Value: 1}},
		Options: options.Index().SetName("items_seller_index"),
	}

	log.Println("EnsureOrderIndexes: creating userId_index and items_seller_index")
	_, err := indexes.CreateMany(ctx, []mongo.IndexModel{userIDIndex, sellerIndex})
	if err != nil {
		log.Println("EnsureOrderIndexes: index error:", err)
		return err
	}
	return nil
}
