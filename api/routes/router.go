package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/angelmondragon/foodstore/api/controllers"
	"github.com/angelmondragon/foodstore/api/middleware"
	"github.com/angelmondragon/foodstore/internal/auth"
	"github.com/angelmondragon/foodstore/internal/cart"
	"github.com/angelmondragon/foodstore/internal/catalog"
	"github.com/angelmondragon/foodstore/internal/checkout"
	"github.com/angelmondragon/foodstore/internal/orders"
	"github.com/angelmondragon/foodstore/internal/statistics"
	"github.com/angelmondragon/foodstore/internal/users"
	"github.com/angelmondragon/foodstore/pkg/auth/session"
	"github.com/angelmondragon/foodstore/pkg/config"
	"github.com/angelmondragon/foodstore/pkg/enums"
	"github.com/angelmondragon/foodstore/pkg/logger"
	"github.com/angelmondragon/foodstore/pkg/redis"
)

// redisStore is the slice of the Redis client the router's middleware uses.
type redisStore interface {
	redis.Pinger
	redis.IdempotencyStore
	middleware.RateLimiterStore
}

// Services groups the domain services exposed over HTTP.
type Services struct {
	Auth       auth.Service
	Cart       cart.Service
	Catalog    catalog.Service
	Checkout   checkout.Service
	Orders     orders.Service
	Users      users.Service
	Statistics statistics.Service
}

func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	redisClient redisStore,
	sessions session.Checker,
	svcs Services,
	metricsHandler http.Handler,
) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(cfg.CORS.AllowedOrigins),
	)

	loginPolicy := middleware.NewAuthRateLimitPolicy(
		"login",
		cfg.AuthRateLimit.LoginWindow,
		cfg.AuthRateLimit.LoginIPLimit,
		cfg.AuthRateLimit.LoginUsernameLimit,
	)
	recoveryPolicy := middleware.NewAuthRateLimitPolicy(
		"password_recovery",
		cfg.AuthRateLimit.LoginWindow,
		cfg.AuthRateLimit.LoginIPLimit,
		0,
	)
	cookie := controllers.SessionCookie{Name: cfg.JWT.CookieName, Secure: cfg.App.IsProd()}
	requireAuth := middleware.Auth(cfg.JWT, sessions, logg)
	optionalAuth := middleware.OptionalAuth(cfg.JWT, sessions, logg)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, redisClient, logg))
	})
	if metricsHandler != nil && cfg.Metrics.Enabled {
		r.Method(http.MethodGet, cfg.Metrics.Path, metricsHandler)
	}

	// The gateway sends the browser back here; the session is used when present.
	r.Route("/payment", func(r chi.Router) {
		r.Use(optionalAuth)
		r.Get("/success", controllers.PaymentSuccess(svcs.Checkout, logg))
		r.Get("/cancel", controllers.PaymentCancel(svcs.Checkout, logg))
	})

	r.Route("/api/v1/auth", func(r chi.Router) {
		r.With(middleware.AuthRateLimit(loginPolicy, redisClient, logg)).Post("/login", controllers.AuthLogin(svcs.Auth, cookie, logg))
		r.With(middleware.AuthRateLimit(recoveryPolicy, redisClient, logg)).Post("/forgot-password", controllers.AuthForgotPassword(svcs.Auth, logg))
		r.With(middleware.AuthRateLimit(recoveryPolicy, redisClient, logg)).Post("/verify-otp", controllers.AuthVerifyOTP(svcs.Auth, logg))
		r.With(middleware.AuthRateLimit(recoveryPolicy, redisClient, logg)).Put("/reset-password", controllers.AuthResetPassword(svcs.Auth, logg))
		r.With(requireAuth).Post("/logout", controllers.AuthLogout(svcs.Auth, cookie, logg))
		r.With(requireAuth).Put("/change-password", controllers.AuthChangePassword(svcs.Auth, logg))
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			r.Use(optionalAuth)
			r.Get("/foods", controllers.CatalogList(svcs.Catalog, catalog.KindFood, logg))
			r.Get("/foods/{id}", controllers.CatalogGet(svcs.Catalog, catalog.KindFood, logg))
			r.Get("/foods/{id}/reviews", controllers.FoodReviews(svcs.Catalog, logg))
			r.Get("/categories", controllers.CatalogList(svcs.Catalog, catalog.KindCategory, logg))
			r.Get("/categories/{id}", controllers.CatalogGet(svcs.Catalog, catalog.KindCategory, logg))
			r.Get("/news", controllers.CatalogList(svcs.Catalog, catalog.KindNews, logg))
			r.Get("/news/{id}", controllers.CatalogGet(svcs.Catalog, catalog.KindNews, logg))
		})

		r.Group(func(r chi.Router) {
			r.Use(requireAuth)
			r.Use(middleware.Idempotency(redisClient, logg))

			r.Post("/reviews", controllers.ReviewCreate(svcs.Catalog, logg))
			r.Delete("/reviews/{id}", controllers.ReviewDelete(svcs.Catalog, logg))

			r.Route("/cart", func(r chi.Router) {
				r.Get("/", controllers.CartList(svcs.Cart, logg))
				r.Post("/", controllers.CartAdd(svcs.Cart, logg))
				r.Get("/count", controllers.CartCount(svcs.Cart, logg))
				r.Post("/checkout", controllers.CartCheckout(svcs.Cart, logg))
				r.Put("/{lineId}", controllers.CartUpdate(svcs.Cart, logg))
				r.Delete("/{lineId}", controllers.CartRemove(svcs.Cart, logg))
			})

			r.Post("/checkout", controllers.CheckoutStart(svcs.Checkout, logg))

			r.Route("/orders", func(r chi.Router) {
				r.Get("/", controllers.OrderHistory(svcs.Orders, logg))
				r.Get("/{orderId}", controllers.OrderGet(svcs.Orders, logg))
				r.Get("/{orderId}/details", controllers.OrderDetails(svcs.Orders, logg))
			})
			r.Get("/order-statuses", controllers.OrderStatusList(svcs.Orders, logg))
			r.Get("/order-statuses/{id}", controllers.OrderStatusGet(svcs.Orders, logg))
		})
	})

	r.Route("/api/admin/v1", func(r chi.Router) {
		r.Use(requireAuth)
		r.Use(middleware.RequireRole(enums.RoleAdmin, logg))
		r.Use(middleware.Idempotency(redisClient, logg))

		r.Get("/statistics", controllers.AdminStatistics(svcs.Statistics, logg))

		r.Route("/users", func(r chi.Router) {
			r.Get("/", controllers.AdminUserList(svcs.Users, logg))
			r.Post("/", controllers.AdminUserCreate(svcs.Users, logg))
			r.Get("/by-username", controllers.AdminUserByUsername(svcs.Users, logg))
			r.Get("/check-account", controllers.AdminCheckAccount(svcs.Users, logg))
			r.Put("/{userId}", controllers.AdminUserUpdate(svcs.Users, logg))
			r.Delete("/{userId}", controllers.AdminUserDelete(svcs.Users, logg))
			r.Put("/{userId}/lock", controllers.AdminLockAccount(svcs.Auth, logg))
		})

		for _, res := range []struct {
			path string
			kind catalog.Kind
		}{
			{"/foods", catalog.KindFood},
			{"/categories", catalog.KindCategory},
			{"/news", catalog.KindNews},
		} {
			r.Route(res.path, func(r chi.Router) {
				r.Post("/", controllers.CatalogCreate(svcs.Catalog, res.kind, logg))
				r.Put("/{id}", controllers.CatalogUpdate(svcs.Catalog, res.kind, logg))
				r.Delete("/{id}", controllers.CatalogDelete(svcs.Catalog, res.kind, logg))
			})
		}

		r.Route("/orders", func(r chi.Router) {
			r.Post("/", controllers.AdminOrderCreate(svcs.Orders, logg))
			r.Put("/{orderId}/status", controllers.AdminOrderUpdateStatus(svcs.Orders, logg))
			r.Put("/{orderId}/deleted", controllers.AdminOrderSetDeleted(svcs.Orders, logg))
			r.Delete("/{orderId}", controllers.AdminOrderDelete(svcs.Orders, logg))
		})

		r.Route("/order-statuses", func(r chi.Router) {
			r.Post("/", controllers.AdminOrderStatusCreate(svcs.Orders, logg))
			r.Put("/{id}", controllers.AdminOrderStatusUpdate(svcs.Orders, logg))
			r.Delete("/{id}", controllers.AdminOrderStatusDelete(svcs.Orders, logg))
		})
	})

	return r
}
