package main

import (
	"log"
	"os"
	"time"

	"github.com/gin-gonic/gin"

	"storefront/internal/broadcast"
	"storefront/internal/checkout"
	"storefront/internal/config"
	"storefront/internal/database"
	"storefront/internal/handlers"
	"storefront/internal/inventory"
	"storefront/internal/middleware"
	"storefront/internal/orders"
	"storefront/internal/payment"
	"storefront/internal/reconcile"
	"storefront/internal/telemetry"
)

func main() {
	config.Load()

	client, err := database.Connect(config.AppEnv.MongoURI)
	if err != nil {
		log.Fatal(err)
	}

	db := client.Database(config.AppEnv.DBName)

	log.Println("MongoDB connected to:", db.Name())

	if err := database.EnsureProductIndexes(db); err != nil {
		log.Printf("product index warning: %v", err)
	}
	if err := database.EnsureUserIndexes(db); err != nil {
		log.Printf("user index warning: %v", err)
	}
	if err := database.EnsureOrderIndexes(db); err != nil {
		log.Printf("order index warning: %v", err)
	}

	hub := broadcast.NewHub()
	ledger := inventory.NewLedger(db, hub)
	provider := payment.NewStripeProvider(config.AppEnv.StripeSecretKey, config.AppEnv.StripeWebhookSecret)
	orchestrator := checkout.NewOrchestrator(db, ledger, provider, config.AppEnv.ClientURL, config.AppEnv.Currency)
	reconciler := reconcile.NewReconciler(db, ledger, provider)
	orderSvc := orders.NewService(db, ledger)

	jwtSecret := config.AppEnv.JWTSecret
	ttl := config.AppEnv.AccessTokenTTL

	r := gin.Default()

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(200, gin.H{"ok": true, "time": time.Now().Unix()})
	})
	r.GET("/metrics", gin.WrapH(telemetry.Handler()))

	r.POST("/api/user/register", handlers.RegisterUser(db, jwtSecret, ttl))
	r.POST("/api/user/login", handlers.LoginUser(db, jwtSecret, ttl))
	r.POST("/api/seller/register", handlers.RegisterSeller(db, jwtSecret, ttl))
	r.POST("/api/seller/login", handlers.LoginSeller(db, jwtSecret, ttl))

	r.GET("/api/product/list", handlers.GetProducts(db))
	r.GET("/api/product/id/:id", handlers.GetProductByID(db))
	r.GET("/api/stock/stream", handlers.StockStream(hub))

	// webhook reads the raw body itself: signature verification depends on
	// the exact bytes
	r.POST("/api/order/stripe/webhook", handlers.StripeWebhook(provider, reconciler))
	r.GET("/api/order/stripe/confirm", handlers.ConfirmStripeSession(reconciler))

	user := r.Group("/api")
	user.Use(middleware.UserAuth(jwtSecret))
	{
		user.POST("/order/cod", handlers.PlaceOrderCOD(orchestrator))
		user.POST("/order/stripe", handlers.PlaceOrderStripe(orchestrator))
		user.GET("/order/user", handlers.GetUserOrders(orderSvc))
		user.POST("/cart/update", handlers.UpdateCart(db))
		user.GET("/address/list", handlers.GetUserAddresses(db))
		user.POST("/address/add", handlers.CreateUserAddress(db))
	}

	seller := r.Group("/api")
	seller.Use(middleware.SellerAuth(jwtSecret))
	{
		seller.GET("/order/seller", handlers.GetSellerOrders(orderSvc))
		seller.PATCH("/order/:id/status", handlers.UpdateOrderStatus(orderSvc))
		seller.GET("/product/seller", handlers.GetSellerProducts(db))
		seller.POST("/product/add", handlers.AddProduct(db))
		seller.POST("/product/stock", handlers.ChangeStock(ledger))
		seller.PATCH("/product/stock/update", handlers.UpdateProductStock(ledger))
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}
	r.Run(":" + port)
}
