package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

const (
	PaymentTypeCOD    = "COD"
	PaymentTypeOnline = "Online"
)

// Order lifecycle states. Delivered and Cancelled are terminal.
const (
	StatusPlaced    = "Order Placed"
	StatusConfirmed = "Confirmed"
	StatusShipped   = "Shipped"
	StatusDelivered = "Delivered"
	StatusCancelled = "Cancelled"
)

// OrderItem is immutable once the order exists. The seller reference is
// denormalized at order time so attribution survives later product edits.
type OrderItem struct {
	Product  primitive.ObjectID `bson:"product" json:"product"`
	Quantity int                `bson:"quantity" json:"quantity"`
	Seller   primitive.ObjectID `bson:"seller" json:"seller"`
}

// PaymentReceipt is the opaque provider receipt attached on confirmation.
type PaymentReceipt struct {
	ID             string `bson:"id" json:"id"`
	Status         string `bson:"status" json:"status"`
	AmountReceived int64  `bson:"amountReceived" json:"amountReceived"`
}

// Order is the persisted order document. Amount is tax inclusive, fixed at
// creation and never recomputed.
type Order struct {
	ID            primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	UserID        primitive.ObjectID `bson:"userId" json:"userId"`
	Items         []OrderItem        `bson:"items" json:"items"`
	Amount        int64              `bson:"amount" json:"amount"`
	Address       string             `bson:"address" json:"address"`
	Status        string             `bson:"status" json:"status"`
	PaymentType   string             `bson:"paymentType" json:"paymentType"`
	IsPaid        bool               `bson:"isPaid" json:"isPaid"`
	PaidAt        *time.Time         `bson:"paidAt,omitempty" json:"paidAt,omitempty"`
	PaymentMethod string             `bson:"paymentMethod,omitempty" json:"paymentMethod,omitempty"`
	PaymentInfo   *PaymentReceipt    `bson:"paymentInfo,omitempty" json:"paymentInfo,omitempty"`
	CreatedAt     time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt     time.Time          `bson:"updatedAt" json:"updatedAt"`
}
