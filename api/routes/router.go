package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/freshfields/storefront-backend/api/controllers"
	"github.com/freshfields/storefront-backend/api/middleware"
	authsvc "github.com/freshfields/storefront-backend/internal/auth"
	billingsvc "github.com/freshfields/storefront-backend/internal/billing"
	cartsvc "github.com/freshfields/storefront-backend/internal/cart"
	ordersvc "github.com/freshfields/storefront-backend/internal/orders"
	productsvc "github.com/freshfields/storefront-backend/internal/products"
	usersvc "github.com/freshfields/storefront-backend/internal/users"
	"github.com/freshfields/storefront-backend/pkg/config"
	"github.com/freshfields/storefront-backend/pkg/enums"
	"github.com/freshfields/storefront-backend/pkg/logger"
	"github.com/freshfields/storefront-backend/pkg/metrics"
	"github.com/freshfields/storefront-backend/pkg/redis"
)

// Services bundles the domain services the router exposes.
type Services struct {
	Auth     authsvc.Service
	Users    *usersvc.Service
	Products *productsvc.Service
	Cart     *cartsvc.Service
	Orders   *ordersvc.Service
	Billing  *billingsvc.Service
}

// NewRouter wires middleware, controllers, and observability endpoints.
func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	dbPinger controllers.Pinger,
	redisClient *redis.Client,
	registry *prometheus.Registry,
	httpMetrics *metrics.HTTPMetrics,
	svcs Services,
) http.Handler {
	r := chi.NewRouter()

	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.Metrics(httpMetrics),
		middleware.CORS(),
	)

	loginPolicy := middleware.NewAuthRateLimitPolicy(
		"login",
		cfg.AuthRateLimit.LoginWindow,
		cfg.AuthRateLimit.LoginIPLimit,
		cfg.AuthRateLimit.LoginEmailLimit,
	)
	registerPolicy := middleware.NewAuthRateLimitPolicy(
		"register",
		cfg.AuthRateLimit.RegisterWindow,
		cfg.AuthRateLimit.RegisterIPLimit,
		cfg.AuthRateLimit.RegisterEmailLimit,
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, map[string]controllers.Pinger{
			"postgres": dbPinger,
			"redis":    redisPinger(redisClient),
		}))
	})

	if registry != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
	}

	r.Route("/api/v1/auth", func(r chi.Router) {
		r.With(authRateLimit(loginPolicy, redisClient, logg)).Post("/login", controllers.AuthLogin(svcs.Auth, logg))
		r.With(authRateLimit(registerPolicy, redisClient, logg)).Post("/register", controllers.AuthRegister(svcs.Auth, logg))
	})

	r.Route("/api/v1/products", func(r chi.Router) {
		r.Get("/", controllers.ProductsList(svcs.Products, logg))
		r.Get("/{productId}", controllers.ProductsGet(svcs.Products, logg))
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, logg))

		r.Route("/cart", func(r chi.Router) {
			r.Get("/", controllers.CartGet(svcs.Cart, logg))
			r.Post("/items", controllers.CartAddItem(svcs.Cart, logg))
			r.Delete("/items/{productId}", controllers.CartRemoveItem(svcs.Cart, logg))
			r.Delete("/", controllers.CartClear(svcs.Cart, logg))
		})

		r.Route("/orders", func(r chi.Router) {
			r.Post("/", controllers.OrdersCreate(svcs.Orders, logg))
			r.Get("/", controllers.OrdersList(svcs.Orders, logg))
			r.Get("/{orderId}", controllers.OrdersGet(svcs.Orders, logg))
		})

		r.Route("/billing", func(r chi.Router) {
			r.Post("/", controllers.BillingCreate(svcs.Billing, logg))
			r.Get("/", controllers.BillingGet(svcs.Billing, logg))
			r.Put("/", controllers.BillingUpdate(svcs.Billing, logg))
			r.Delete("/", controllers.BillingDelete(svcs.Billing, logg))
		})

		r.Route("/users", func(r chi.Router) {
			r.Get("/me", controllers.UsersMe(svcs.Users, logg))
			r.Patch("/me", controllers.UsersUpdateMe(svcs.Users, logg))

			r.Group(func(r chi.Router) {
				r.Use(middleware.RequireRole(string(enums.UserRoleAdmin), logg))
				r.Get("/", controllers.AdminUsersList(svcs.Users, logg))
				r.Get("/{userId}", controllers.AdminUsersGet(svcs.Users, logg))
				r.Delete("/{userId}", controllers.AdminUsersDelete(svcs.Users, logg))
			})
		})

		r.Route("/admin", func(r chi.Router) {
			r.Use(middleware.RequireRole(string(enums.UserRoleAdmin), logg))

			r.Post("/products", controllers.AdminCreateProduct(svcs.Products, logg))
			r.Get("/orders", controllers.AdminOrdersList(svcs.Orders, logg))
			r.Patch("/orders/{orderId}/status", controllers.AdminOrdersUpdateStatus(svcs.Orders, logg))
		})
	})

	return r
}

// authRateLimit skips the limiter when no store is configured so the API
// still serves auth traffic without redis.
func authRateLimit(policy middleware.AuthRateLimitPolicy, store *redis.Client, logg *logger.Logger) func(http.Handler) http.Handler {
	if store == nil {
		return func(next http.Handler) http.Handler { return next }
	}
	return middleware.AuthRateLimit(policy, store, logg)
}

func redisPinger(client *redis.Client) controllers.Pinger {
	if client == nil {
		return nil
	}
	return client
}
