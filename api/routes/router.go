package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/solmart/solmart-backend/api/controllers"
	"github.com/solmart/solmart-backend/api/middleware"
	authsvc "github.com/solmart/solmart-backend/internal/auth"
	cartsvc "github.com/solmart/solmart-backend/internal/cart"
	checkoutsvc "github.com/solmart/solmart-backend/internal/checkout"
	ordersvc "github.com/solmart/solmart-backend/internal/orders"
	productsvc "github.com/solmart/solmart-backend/internal/products"
	vendorsvc "github.com/solmart/solmart-backend/internal/vendors"
	"github.com/solmart/solmart-backend/pkg/config"
	"github.com/solmart/solmart-backend/pkg/db"
	"github.com/solmart/solmart-backend/pkg/enums"
	"github.com/solmart/solmart-backend/pkg/logger"
	"github.com/solmart/solmart-backend/pkg/redis"
	"github.com/solmart/solmart-backend/pkg/solana"
)

func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	database db.Pinger,
	redisClient *redis.Client,
	ledger *solana.Client,
	registry *prometheus.Registry,
	authService authsvc.Service,
	vendorService vendorsvc.Service,
	productService productsvc.Service,
	cartService cartsvc.Service,
	checkoutService checkoutsvc.Service,
	orderService ordersvc.Service,
) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(),
	)

	var idempotencyStore redis.IdempotencyStore
	if redisClient != nil {
		idempotencyStore = redisClient
	}

	connectLimit := func(next http.Handler) http.Handler { return next }
	adminLimit := connectLimit
	if redisClient != nil {
		connectPolicy := middleware.NewAuthRateLimitPolicy(
			"connect",
			cfg.AuthRateLimit.ConnectWindow,
			cfg.AuthRateLimit.ConnectIPLimit,
			cfg.AuthRateLimit.ConnectWalletLimit,
		)
		adminPolicy := middleware.NewAuthRateLimitPolicy(
			"admin",
			cfg.AuthRateLimit.AdminWindow,
			cfg.AuthRateLimit.AdminIPLimit,
			cfg.AuthRateLimit.AdminWalletLimit,
		)
		connectLimit = middleware.AuthRateLimit(connectPolicy, redisClient, logg)
		adminLimit = middleware.AuthRateLimit(adminPolicy, redisClient, logg)
	}

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, database, redisClient))
	})

	if registry != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
	}

	r.Route("/api/v1/auth", func(r chi.Router) {
		r.With(connectLimit).Post("/connect", controllers.AuthConnect(authService, logg))
		r.With(adminLimit).Post("/admin", controllers.AuthAdmin(authService, logg))
		r.Post("/disconnect", controllers.AuthDisconnect(authService, logg))
	})

	// Public storefront surface, no session required.
	r.Route("/api/v1/products", func(r chi.Router) {
		r.Get("/", controllers.CatalogList(productService, logg))
		r.Get("/{productID}", controllers.CatalogGet(productService, logg))
	})
	r.Get("/api/v1/vendors/approved", controllers.VendorsApproved(vendorService, logg))

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Auth(authService, logg))
		r.Use(middleware.Idempotency(idempotencyStore, logg))

		r.Get("/auth/me", controllers.AuthMe(authService, logg))

		r.Route("/cart", func(r chi.Router) {
			r.Get("/", controllers.CartGet(cartService, logg))
			r.Put("/items", controllers.CartUpsertItem(cartService, logg))
			r.Delete("/items/{productID}", controllers.CartRemoveItem(cartService, logg))
			r.Delete("/", controllers.CartClear(cartService, logg))
		})

		r.Route("/checkout", func(r chi.Router) {
			r.Post("/", controllers.CheckoutBegin(checkoutService, ledger, cfg.Payment, logg))
			r.Get("/{token}", controllers.CheckoutGetAttempt(checkoutService, logg))
		})

		r.Route("/orders", func(r chi.Router) {
			r.Get("/", controllers.OrdersList(orderService, logg))
			r.Get("/{orderID}", controllers.OrderGet(orderService, logg))
			r.Post("/{orderID}/cancel", controllers.OrderCancel(orderService, logg))
		})

		r.Route("/vendor", func(r chi.Router) {
			r.Post("/register", controllers.VendorRegister(vendorService, logg))
			r.Get("/me", controllers.VendorMe(vendorService, logg))
			r.Put("/me", controllers.VendorUpdateProfile(vendorService, logg))

			r.Group(func(r chi.Router) {
				r.Use(middleware.RequireAnyRole(logg, string(enums.UserRoleVendor), string(enums.UserRoleAdmin)))
				r.Get("/products", controllers.VendorListProducts(productService, logg))
				r.Post("/products", controllers.VendorCreateProduct(productService, logg))
				r.Put("/products/{productID}", controllers.VendorUpdateProduct(productService, logg))
				r.Delete("/products/{productID}", controllers.VendorDeleteProduct(productService, logg))
			})
		})

		r.Route("/admin", func(r chi.Router) {
			r.Use(middleware.RequireRole(string(enums.UserRoleAdmin), logg))

			r.Get("/vendors", controllers.AdminVendorsList(vendorService, logg))
			r.Post("/vendors/{vendorID}/status", controllers.AdminVendorStatus(vendorService, logg))

			r.Get("/orders", controllers.AdminOrdersList(orderService, logg))
			r.Get("/orders/search", controllers.AdminOrdersSearch(orderService, logg))
			r.Post("/orders/{orderID}/status", controllers.AdminOrderStatus(orderService, logg))
			r.Put("/orders/{orderID}/tracking", controllers.AdminOrderTracking(orderService, logg))
		})
	})

	return r
}
