package routes

import (
	"time"

	"github.com/ahmetcoskunkizilkaya/goodie-backend/internal/auth"
	"github.com/ahmetcoskunkizilkaya/goodie-backend/internal/config"
	"github.com/ahmetcoskunkizilkaya/goodie-backend/internal/handlers"
	"github.com/ahmetcoskunkizilkaya/goodie-backend/internal/middleware"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"
)

type Handlers struct {
	Auth     *handlers.AuthHandler
	Health   *handlers.HealthHandler
	Product  *handlers.ProductHandler
	Cart     *handlers.CartHandler
	Wishlist *handlers.WishlistHandler
	Rating   *handlers.RatingHandler
	Admin    *handlers.AdminHandler
}

// NewGuard protects the admin panel prefix for the admin role.
func NewGuard(cfg *config.Config) *auth.Guard {
	return auth.NewGuard("/", auth.GuardRule{Prefix: cfg.AdminPathPrefix, Roles: []auth.Role{auth.RoleAdmin}})
}

// Setup registers every route. metricsHandler may be nil.
func Setup(app *fiber.App, cfg *config.Config, issuer *auth.TokenIssuer, h Handlers, metricsHandler fiber.Handler) {
	// The guard runs on every path so nothing under the admin prefix is served
	// without a decision, including unmatched routes.
	app.Use(middleware.RouteGuard(NewGuard(cfg), issuer))

	app.Get("/", h.Health.Landing)
	if metricsHandler != nil {
		app.Get("/metrics", metricsHandler)
	}

	api := app.Group("/api")

	// General API rate limiter: 60 req/min per IP
	api.Use(limiter.New(limiter.Config{
		Max:               60,
		Expiration:        1 * time.Minute,
		LimiterMiddleware: limiter.SlidingWindow{},
		KeyGenerator:      func(c *fiber.Ctx) string { return c.IP() },
	}))

	api.Get("/health", h.Health.Check)

	session := middleware.SessionRequired(issuer, cfg.CookieSecure)

	// Auth-specific rate limit: 10 req/min per IP (stricter)
	authGroup := api.Group("/auth")
	authGroup.Use(limiter.New(limiter.Config{
		Max:               10,
		Expiration:        1 * time.Minute,
		LimiterMiddleware: limiter.SlidingWindow{},
		KeyGenerator:      func(c *fiber.Ctx) string { return c.IP() },
	}))
	authGroup.Post("/register", h.Auth.Register)
	authGroup.Post("/login", h.Auth.Login)
	authGroup.Post("/logout", h.Auth.Logout)
	authGroup.Get("/session", session, h.Auth.Session)
	authGroup.Post("/forgot-password", h.Auth.ForgotPassword)
	authGroup.Post("/reset-password", h.Auth.ResetPassword)
	authGroup.Get("/oauth/:provider", h.Auth.OAuthRedirect)
	authGroup.Get("/oauth/:provider/callback", h.Auth.OAuthCallback)
	authGroup.Post("/oauth/:provider", h.Auth.IDTokenSignIn)

	// Catalog (public)
	api.Get("/products", h.Product.List)
	api.Get("/products/:id", h.Product.Detail)

	// Shopper routes (session required)
	api.Get("/account", session, h.Auth.Account)

	api.Post("/cart", session, h.Cart.Add)
	api.Get("/cart/items", session, h.Cart.Items)
	api.Put("/cart/items/:productId", session, h.Cart.Update)
	api.Delete("/cart/items/:productId", session, h.Cart.Remove)
	api.Get("/checkout", session, h.Cart.Checkout)

	api.Post("/wishlist", session, h.Wishlist.Add)
	api.Get("/wishlist/items", session, h.Wishlist.Items)
	api.Delete("/wishlist/:productId", session, h.Wishlist.Remove)

	api.Post("/ratings", session, h.Rating.Rate)

	// Admin panel (route guard + role re-check)
	admin := app.Group(cfg.AdminPathPrefix, middleware.AdminRequired())
	admin.Get("/dashboard", h.Admin.Dashboard)
	admin.Get("/products", h.Admin.ListProducts)
	admin.Post("/products", h.Admin.CreateProduct)
	admin.Get("/products/:id", h.Admin.GetProduct)
	admin.Put("/products/:id", h.Admin.UpdateProduct)
	admin.Delete("/products/:id", h.Admin.DeleteProduct)
}
