package cmd

import (
	"log"
	"log/slog"
	"net/http"

	"booking-system/config"
	"booking-system/internal/handlers"
	"booking-system/internal/services"
	"booking-system/monitoring"
	"booking-system/security"
	"booking-system/utils"

	_ "booking-system/migrations"

	"github.com/pocketbase/pocketbase"
	"github.com/pocketbase/pocketbase/core"
	"github.com/pocketbase/pocketbase/plugins/migratecmd"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	pubnub "github.com/pubnub/go"
)

func Start() error {
	app := pocketbase.New()

	cfg := config.LoadConfig()

	redisClient := utils.NewRedisClient(cfg.RedisURL, cfg.RedisPassword, cfg.RedisDB)
	defer redisClient.Close()

	// Realtime notifications are optional; without keys the notifier is a
	// no-op and payments still work.
	var pn *pubnub.PubNub
	if cfg.PubNubPublishKey != "" && cfg.PubNubSubscribeKey != "" {
		pnConfig := pubnub.NewConfig()
		pnConfig.PublishKey = cfg.PubNubPublishKey
		pnConfig.SubscribeKey = cfg.PubNubSubscribeKey
		pnConfig.SecretKey = cfg.PubNubSecretKey
		pn = pubnub.NewPubNub(pnConfig)
	}

	// Services
	authService := services.NewAuthService(app, cfg)
	offerService := services.NewOfferService(app)
	reservationService := services.NewReservationService(app)
	ticketService := services.NewTicketService(app, authService)
	notifier := services.NewNotifier(pn)
	paymentService := services.NewPaymentService(redisClient, cfg, ticketService, notifier)

	// Handlers
	authHandler := handlers.NewAuthHandler(authService)
	offerHandler := handlers.NewOfferHandler(offerService)
	reservationHandler := handlers.NewReservationHandler(authService, reservationService, ticketService)
	ticketHandler := handlers.NewTicketHandler(authService, ticketService)
	paymentHandler := handlers.NewPaymentHandler(authService, paymentService)
	adminHandler := handlers.NewAdminHandler(app, authService, reservationService, offerService)

	rateLimiter := security.NewRateLimiter(redisClient, cfg.RateLimitPerMinute)

	// Enable migrations
	migratecmd.MustRegister(app, app.RootCmd, migratecmd.Config{
		Automigrate: true,
	})

	app.OnServe().BindFunc(func(e *core.ServeEvent) error {
		e.Router.BindFunc(rateLimiter.Middleware())

		// Auth endpoints
		e.Router.POST("/api/v1/auth/register", authHandler.Register)
		e.Router.POST("/api/v1/auth/login", authHandler.Login)
		e.Router.GET("/api/v1/auth/me", authHandler.Me)

		// Public catalog
		e.Router.GET("/api/v1/offers", offerHandler.List)

		// Reservation endpoints
		e.Router.POST("/api/v1/reservations", reservationHandler.Create)
		e.Router.GET("/api/v1/reservations", reservationHandler.List)
		e.Router.GET("/api/v1/reservations/stats", reservationHandler.Stats)
		e.Router.GET("/api/v1/reservations/{id}", reservationHandler.Get)
		e.Router.PUT("/api/v1/reservations/{id}", reservationHandler.Update)
		e.Router.PATCH("/api/v1/reservations/{id}", reservationHandler.Update)
		e.Router.DELETE("/api/v1/reservations/{id}", reservationHandler.Delete)
		e.Router.GET("/api/v1/reservations/{id}/qrcode", reservationHandler.QRCode)

		// Ticket endpoints
		e.Router.POST("/api/v1/tickets", ticketHandler.Create)
		e.Router.GET("/api/v1/tickets/me", ticketHandler.My)
		e.Router.DELETE("/api/v1/tickets/{id}", ticketHandler.Delete)

		// Payment endpoints
		e.Router.POST("/api/v1/payment/simulate", paymentHandler.Simulate)
		e.Router.GET("/api/v1/payment/{ticketId}", paymentHandler.GetReceipt)

		// Admin endpoints
		e.Router.GET("/api/v1/admin/stats", adminHandler.Stats)
		e.Router.GET("/api/v1/admin/reservations/all", adminHandler.ListReservations)
		e.Router.PUT("/api/v1/admin/reservations/{id}", adminHandler.UpdateReservation)
		e.Router.DELETE("/api/v1/admin/reservations/{id}", adminHandler.DeleteReservation)
		e.Router.POST("/api/v1/admin/offers", adminHandler.CreateOffer)
		e.Router.PUT("/api/v1/admin/offers/{id}", adminHandler.UpdateOffer)

		// The monitor needs the bootstrapped db handle, so it is created
		// here rather than with the other services.
		monitor := monitoring.NewMonitor(app, redisClient)

		// Health check
		e.Router.GET("/health", func(e *core.RequestEvent) error {
			if err := monitor.Healthy(e.Request.Context()); err != nil {
				return e.JSON(503, map[string]string{
					"status": "unhealthy",
					"error":  err.Error(),
				})
			}
			return e.JSON(200, map[string]string{"status": "healthy"})
		})

		if cfg.EnableMetrics {
			go serveMetrics(cfg.MetricsPort)
		}

		log.Println("Server routes registered")

		return e.Next()
	})

	return app.Start()
}

func serveMetrics(port string) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	slog.Info("metrics listener started", "port", port)
	if err := http.ListenAndServe(":"+port, mux); err != nil {
		slog.Error("metrics listener stopped", "error", err)
	}
}
