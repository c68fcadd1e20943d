package handlers

import (
	"testing"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestSanitizeCartItemsDropsNonPositiveQuantities(t *testing.T) {
	keep := primitive.NewObjectID().Hex()
	zero := primitive.NewObjectID().Hex()
	negative := primitive.NewObjectID().Hex()

	items := sanitizeCartItems(map[string]int{
		keep:     2,
		zero:     0,
		negative: -4,
	})

	if len(items) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(items))
	}
	if items[keep] != 2 {
		t.Fatalf("expected quantity 2 for kept entry, got %d", items[keep])
	}
}

func TestSanitizeCartItemsDropsMalformedIDs(t *testing.T) {
	items := sanitizeCartItems(map[string]int{
		"not-an-object-id": 3,
	})
	if len(items) != 0 {
		t.Fatalf("expected malformed id to be dropped, got %v", items)
	}
}
