package handlers

import (
	"context"
	"io"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"storefront/internal/payment"
	"storefront/internal/reconcile"
	"storefront/internal/telemetry"
)

// StripeWebhook receives provider push notifications. The signature is
// verified against the exact raw body bytes before any state is touched;
// handler failures answer 500 so the provider retries.
func StripeWebhook(provider payment.Provider, rec *reconcile.Reconciler) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "POST /api/order/stripe/webhook"
		defer handlePanic(c, route)

		payload, err := io.ReadAll(c.Request.Body)
		if err != nil {
			respondWithError(c, http.StatusBadRequest, route, "unreadable body")
			return
		}

		event, err := provider.ParseWebhook(payload, c.GetHeader("Stripe-Signature"))
		if err != nil {
			log.Println("[WEBHOOK] [ERROR] signature verification failed:", err)
			c.String(http.StatusBadRequest, "webhook error: %v", err)
			return
		}

		telemetry.WebhookEvents.WithLabelValues(event.Type).Inc()

		ctx, cancel := context.WithTimeout(c.Request.Context(), 15*time.Second)
		defer cancel()

		switch event.Type {
		case payment.EventSessionCompleted:
			err = rec.HandleSessionCompleted(ctx, event.Session)
		case payment.EventSessionExpired:
			err = rec.HandleSessionExpired(ctx, event.Session)
		case payment.EventPaymentFailed:
			err = rec.HandlePaymentFailed(ctx, event.Session)
		default:
			log.Println("[WEBHOOK] [INFO] ignoring event type:", event.Type)
		}
		if err != nil {
			log.Println("[WEBHOOK] [ERROR] reconcile failed:", err)
			c.JSON(http.StatusInternalServerError, gin.H{"received": false})
			return
		}

		c.JSON(http.StatusOK, gin.H{"received": true})
	}
}

// ConfirmStripeSession is the client fallback after the success redirect,
// for deployments where the webhook never arrives. The session id is the
// credential; no further auth. Idempotent.
func ConfirmStripeSession(rec *reconcile.Reconciler) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "GET /api/order/stripe/confirm"
		defer handlePanic(c, route)

		sessionID := c.Query("session_id")
		if sessionID == "" {
			respondWithError(c, http.StatusBadRequest, route, "missing session_id")
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 15*time.Second)
		defer cancel()

		paid, err := rec.ConfirmSession(ctx, sessionID)
		if err != nil {
			respondWithError(c, http.StatusBadGateway, route, "payment confirmation failed")
			return
		}
		if !paid {
			c.JSON(http.StatusOK, gin.H{"paid": false, "message": "payment not completed yet"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"paid": true})
	}
}
