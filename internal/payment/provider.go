package payment

import (
	"context"
	"fmt"
)

// Webhook event types the reconciler reacts to.
const (
	EventSessionCompleted = "checkout.session.completed"
	EventSessionExpired   = "checkout.session.expired"
	EventPaymentFailed    = "checkout.session.async_payment_failed"
)

// Session is the provider-agnostic view of a hosted checkout session.
type Session struct {
	ID              string
	URL             string
	Paid            bool
	PaymentStatus   string
	PaymentIntentID string
	AmountTotal     int64
	Metadata        map[string]string
}

// LineItem is one product entry in a checkout session. UnitAmount is in
// minor currency units.
type LineItem struct {
	Name       string
	UnitAmount int64
	Quantity   int64
}

type SessionInput struct {
	LineItems  []LineItem
	Currency   string
	SuccessURL string
	CancelURL  string
	Metadata   map[string]string
}

// Event is a verified webhook notification.
type Event struct {
	Type    string
	Session Session
}

// Provider is the hosted card-payment collaborator. Implemented by
// StripeProvider; tests use fakes.
type Provider interface {
	CreateSession(ctx context.Context, input SessionInput) (Session, error)
	GetSession(ctx context.Context, sessionID string) (Session, error)
	// ParseWebhook verifies the signature against the exact raw payload
	// bytes before trusting anything in it.
	ParseWebhook(payload []byte, signature string) (Event, error)
}

// ProviderError wraps failures talking to the payment provider so handlers
// can map them to a gateway-style response.
type ProviderError struct {
	Op  string
	Err error
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("payment provider %s failed: %v", e.Op, e.Err)
}

func (e *ProviderError) Unwrap() error { return e.Err }
