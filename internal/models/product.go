package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Product prices are whole currency units. Stock never goes below zero;
// inStock is recomputed on every ledger mutation but sellers may override it.
type Product struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Name        string             `bson:"name" json:"name"`
	Description string             `bson:"description,omitempty" json:"description,omitempty"`
	Category    string             `bson:"category,omitempty" json:"category,omitempty"`
	Price       int64              `bson:"price" json:"price"`
	OfferPrice  int64              `bson:"offerPrice" json:"offerPrice"`
	Stock       int                `bson:"stock" json:"stock"`
	InStock     bool               `bson:"inStock" json:"inStock"`
	Seller      primitive.ObjectID `bson:"seller" json:"seller"`
	CreatedAt   time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt   time.Time          `bson:"updatedAt" json:"updatedAt"`
}
