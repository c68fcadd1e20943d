package telemetry

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	OrdersPlaced = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "storefront_orders_placed_total",
		Help: "Orders successfully placed, by payment type.",
	}, []string{"payment_type"})

	CheckoutFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "storefront_checkout_failures_total",
		Help: "Checkout requests rejected, by reason.",
	}, []string{"reason"})

	WebhookEvents = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "storefront_payment_webhook_events_total",
		Help: "Payment provider webhook events received, by type.",
	}, []string{"type"})

	StockBroadcasts = promauto.NewCounter(prometheus.CounterOpts{
		Name: "storefront_stock_broadcasts_total",
		Help: "Stock update events fanned out to subscribers.",
	})
)

// Handler serves the prometheus scrape endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}
