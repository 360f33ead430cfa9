package cmd

import (
	"context"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"flight-system/config"
	"flight-system/internal/handlers"
	"flight-system/internal/services"
	"flight-system/monitoring"
	"flight-system/security"
	"flight-system/utils"

	_ "flight-system/migrations"

	"github.com/pocketbase/pocketbase"
	"github.com/pocketbase/pocketbase/core"
	"github.com/pocketbase/pocketbase/plugins/migratecmd"
	pubnub "github.com/pubnub/go"
)

func Start() error {
	app := pocketbase.New()

	// Load configuration
	cfg := config.LoadConfig()

	// Initialize Redis
	redisClient := utils.NewRedisClient(cfg.RedisURL)
	defer redisClient.Close()

	// Initialize PubNub; without keys the notifier stays disabled
	var pn *pubnub.PubNub
	if cfg.PubNubPublishKey != "" && cfg.PubNubSubscribeKey != "" {
		pnConfig := pubnub.NewConfig()
		pnConfig.PublishKey = cfg.PubNubPublishKey
		pnConfig.SubscribeKey = cfg.PubNubSubscribeKey
		pnConfig.SecretKey = cfg.PubNubSecretKey

		pn = pubnub.NewPubNub(pnConfig)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Initialize services
	flightService := services.NewFlightService(app, cfg)
	notifyService := services.NewNotifyService(pn)
	bookingService := services.NewBookingService(app, flightService, notifyService)
	wishlistService := services.NewWishlistService(app, flightService)
	dealService := services.NewDealService(app, redisClient, cfg)

	// Initialize handlers
	flightHandler := handlers.NewFlightHandler(app, flightService)
	bookingHandler := handlers.NewBookingHandler(app, bookingService)
	wishlistHandler := handlers.NewWishlistHandler(app, wishlistService)

	rateLimiter := security.NewRateLimiter(redisClient, cfg.AutocompleteRateLimit, cfg.AutocompleteRateWindow)

	// Enable migrations
	migratecmd.MustRegister(app, app.RootCmd, migratecmd.Config{
		Automigrate: true,
	})

	registerImportAirports(app)

	// Deal record changes trigger a debounced Redis resync
	dealService.RegisterHooks(app)

	// Setup graceful shutdown
	go handleShutdown(cancel)

	app.OnServe().BindFunc(func(e *core.ServeEvent) error {
		if err := dealService.Sync(ctx); err != nil {
			slog.Error("initial deal sync failed", "error", err)
		}
		go dealService.RunPeriodicSync(ctx, cfg.DealSyncInterval)

		if cfg.EnableMetrics {
			monitoring.NewMonitor(redisClient)
			monitoring.StartMetricsServer(cfg.MetricsPort)
		}

		// Flight endpoints
		e.Router.GET("/api/v1/flights/search", flightHandler.SearchFlights)
		e.Router.GET("/api/v1/flights/{flightId}", flightHandler.GetFlight)
		e.Router.GET("/api/v1/airports/search", flightHandler.SearchAirports).
			BindFunc(security.AntiBot()).
			BindFunc(rateLimiter.Limit("airports"))

		// Booking endpoints
		e.Router.POST("/api/v1/bookings", bookingHandler.BookFlight)
		e.Router.GET("/api/v1/bookings/history", bookingHandler.GetFlightHistory)
		e.Router.GET("/api/v1/bookings/upcoming", bookingHandler.GetUpcomingFlights)

		// Wishlist endpoints
		e.Router.GET("/api/v1/wishlist", wishlistHandler.GetWishlist)
		e.Router.POST("/api/v1/wishlist", wishlistHandler.AddToWishlist)
		e.Router.DELETE("/api/v1/wishlist/{flightId}", wishlistHandler.RemoveFromWishlist)

		// Health check
		e.Router.GET("/health", func(e *core.RequestEvent) error {
			if err := utils.RedisHealthCheck(redisClient); err != nil {
				return e.JSON(http.StatusServiceUnavailable, map[string]string{
					"status": "unhealthy",
					"error":  err.Error(),
				})
			}
			return e.JSON(http.StatusOK, map[string]string{"status": "healthy"})
		})

		log.Println("Server routes registered")

		return e.Next()
	})

	// Start server
	if err := app.Start(); err != nil {
		log.Fatal(err)
	}
	return nil
}

// handleShutdown handles graceful shutdown
func handleShutdown(cancel context.CancelFunc) {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	<-sigChan
	log.Println("Shutdown signal received, cleaning up...")
	cancel()
}
