package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/getsentry/sentry-go"
	sentryfiber "github.com/getsentry/sentry-go/fiber"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"

	"github.com/ahmetcoskunkizilkaya/goodie-backend/internal/auth"
	"github.com/ahmetcoskunkizilkaya/goodie-backend/internal/config"
	"github.com/ahmetcoskunkizilkaya/goodie-backend/internal/database"
	"github.com/ahmetcoskunkizilkaya/goodie-backend/internal/dto"
	"github.com/ahmetcoskunkizilkaya/goodie-backend/internal/handlers"
	"github.com/ahmetcoskunkizilkaya/goodie-backend/internal/imagehost"
	"github.com/ahmetcoskunkizilkaya/goodie-backend/internal/logging"
	"github.com/ahmetcoskunkizilkaya/goodie-backend/internal/mailer"
	"github.com/ahmetcoskunkizilkaya/goodie-backend/internal/metrics"
	"github.com/ahmetcoskunkizilkaya/goodie-backend/internal/middleware"
	"github.com/ahmetcoskunkizilkaya/goodie-backend/internal/repository"
	"github.com/ahmetcoskunkizilkaya/goodie-backend/internal/routes"
	"github.com/ahmetcoskunkizilkaya/goodie-backend/internal/security"
	"github.com/ahmetcoskunkizilkaya/goodie-backend/internal/services"
	"github.com/ahmetcoskunkizilkaya/goodie-backend/internal/throttle"
	"github.com/gofiber/fiber/v2"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
)

func main() {
	cfg := config.Load()

	// Structured logging (JSON to stdout in production)
	logging.Setup(cfg.Environment)

	if cfg.JWTSecret == "" {
		slog.Error("JWT_SECRET environment variable is required")
		os.Exit(1)
	}
	if cfg.DBPassword == "" {
		slog.Error("DB_PASSWORD environment variable is required")
		os.Exit(1)
	}

	issuer, err := auth.NewTokenIssuer(cfg.JWTSecret, cfg.SessionMaxAge, cfg.SessionUpdateAge)
	if err != nil {
		slog.Error("invalid session configuration", "error", err)
		os.Exit(1)
	}

	// Schema
	if err := database.RunMigrations(cfg.MigrationURL()); err != nil {
		slog.Error("migration failed", "error", err)
		os.Exit(1)
	}

	// Database
	db, err := database.Connect(cfg)
	if err != nil {
		slog.Error("database connection failed", "error", err)
		os.Exit(1)
	}

	// PostgreSQL log handler (ERROR+ async batch)
	pgLogHandler := logging.NewPGHandler(db)
	slog.SetDefault(slog.New(logging.NewMultiHandler(
		logging.NewStdoutHandler(os.Stdout, cfg.Environment),
		pgLogHandler,
	)))

	// Log cleanup (30-day retention)
	cleanupDone := make(chan struct{})
	logging.StartCleanup(db, cleanupDone)

	// Redis (optional): reset-request throttle
	var rdb *redis.Client
	var limiter throttle.Limiter
	if cfg.RedisURL != "" {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		rdb, err = throttle.NewClient(ctx, cfg.RedisURL)
		cancel()
		if err != nil {
			slog.Error("redis connection failed", "error", err)
			os.Exit(1)
		}
		limiter = throttle.NewRedisLimiter(rdb, "goodie:reset:", cfg.ResetThrottleWindow)
	} else {
		slog.Warn("REDIS_URL not set, password reset requests are not throttled")
	}

	// Image host
	var images imagehost.Host = imagehost.Unconfigured{}
	if cfg.CloudinaryURL != "" {
		cld, err := imagehost.NewCloudinary(cfg.CloudinaryURL, cfg.CloudinaryFolder)
		if err != nil {
			slog.Error("cloudinary init failed", "error", err)
			os.Exit(1)
		}
		images = cld
	} else {
		slog.Warn("CLOUDINARY_URL not set, product image uploads are disabled")
	}

	// Mailer
	var sender mailer.Sender = mailer.LogSender{}
	if cfg.ResendAPIKey != "" {
		sender = mailer.NewResendSender(cfg.ResendAPIKey, cfg.EmailFrom)
	} else {
		slog.Warn("RESEND_API_KEY not set, emails are logged instead of sent")
	}

	// Metrics
	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	collector := metrics.NewCollector(registry)

	// Federated sign-in providers
	var providers []services.IdentityProvider
	if cfg.GoogleClientID != "" {
		providers = append(providers, services.NewGoogleProvider(services.GoogleConfig{
			ClientID:     cfg.GoogleClientID,
			ClientSecret: cfg.GoogleClientSecret,
			RedirectURL:  cfg.GoogleRedirectURL(),
		}))
	}
	var apple *services.AppleProvider
	if aud := cfg.AppleAudiences(); len(aud) > 0 {
		apple = services.NewAppleProvider(aud, "")
		providers = append(providers, apple)
	}

	// Repositories
	users := repository.NewUserRepository(db)
	identities := repository.NewIdentityRepository(db)
	products := repository.NewProductRepository(db)
	cart := repository.NewCartRepository(db)
	wishlist := repository.NewWishlistRepository(db)
	ratings := repository.NewRatingRepository(db)

	// Services
	hasher := auth.NewPasswordHasher(cfg.BcryptCost)
	sanitizer := security.NewSanitizer()
	authService := services.NewAuthService(users, identities, hasher, issuer, collector, providers...)
	resetService := services.NewResetService(users, hasher, sender, limiter, collector, cfg.BaseURL)
	catalogService := services.NewCatalogService(products, ratings)
	cartService := services.NewCartService(cart, products)
	checkoutService := services.NewCheckoutService(cart)
	wishlistService := services.NewWishlistService(wishlist, products)
	ratingService := services.NewRatingService(ratings, products, sanitizer)
	adminService := services.NewAdminService(products, users, ratings, images, sanitizer)

	// Handlers
	h := routes.Handlers{
		Auth:     handlers.NewAuthHandler(authService, resetService, cfg.CookieSecure),
		Health:   handlers.NewHealthHandler(db, rdb),
		Product:  handlers.NewProductHandler(catalogService),
		Cart:     handlers.NewCartHandler(cartService, checkoutService),
		Wishlist: handlers.NewWishlistHandler(wishlistService),
		Rating:   handlers.NewRatingHandler(ratingService),
		Admin:    handlers.NewAdminHandler(adminService),
	}

	// Sentry error tracking
	if cfg.SentryDSN != "" {
		if err := sentry.Init(sentry.ClientOptions{
			Dsn:              cfg.SentryDSN,
			EnableTracing:    true,
			TracesSampleRate: 0.2,
			Environment:      cfg.Environment,
		}); err != nil {
			slog.Error("sentry init failed", "error", err)
		} else {
			defer sentry.Flush(2 * time.Second)
		}
	}

	// Fiber app. Routing is case sensitive so the admin guard and the router
	// agree on what a path is.
	app := fiber.New(fiber.Config{
		BodyLimit:     8 * 1024 * 1024,
		CaseSensitive: true,
		ErrorHandler:  customErrorHandler,
	})

	// Sentry middleware
	app.Use(sentryfiber.New(sentryfiber.Options{
		Repanic:         true,
		WaitForDelivery: false,
	}))

	// Global middleware
	app.Use(recover.New())
	app.Use(requestid.New())
	app.Use(fiberlogger.New(fiberlogger.Config{
		Format: "${time} | ${status} | ${latency} | ${ip} | ${method} | ${path}\n",
	}))
	app.Use(collector.Middleware())
	app.Use(middleware.CORS(cfg))
	app.Use(middleware.SecurityHeaders())

	// Routes
	routes.Setup(app, cfg, issuer, h, metrics.FiberHandler(registry))

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		slog.Info("server starting", "port", cfg.Port, "env", cfg.Environment)
		if err := app.Listen(":" + cfg.Port); err != nil {
			slog.Error("server failed to start", "error", err)
			os.Exit(1)
		}
	}()

	<-quit
	slog.Info("shutting down server...")

	if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
		slog.Error("server shutdown error", "error", err)
	}

	close(cleanupDone)
	pgLogHandler.Stop()
	sentry.Flush(2 * time.Second)

	if apple != nil {
		apple.Close()
	}
	if rdb != nil {
		if err := rdb.Close(); err != nil {
			slog.Error("redis close error", "error", err)
		}
	}
	if err := database.Close(db); err != nil {
		slog.Error("database close error", "error", err)
	}

	slog.Info("server stopped")
}

func customErrorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	message := "Internal server error"
	var fe *fiber.Error
	if errors.As(err, &fe) {
		code = fe.Code
		message = fe.Message
	}

	// Only expose error details for client errors (4xx), not server errors (5xx)
	if code >= 500 {
		slog.Error("unhandled server error", "method", c.Method(), "path", c.Path(),
			"request_id", c.Locals("requestid"), "error", err.Error())
		message = "Internal server error"
	}

	return c.Status(code).JSON(dto.ErrorResponse{
		Error:   true,
		Message: message,
	})
}
