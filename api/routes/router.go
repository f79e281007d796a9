package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/openmercato/storefront-backend/api/controllers"
	"github.com/openmercato/storefront-backend/api/middleware"
	"github.com/openmercato/storefront-backend/internal/auth"
	"github.com/openmercato/storefront-backend/internal/cart"
	"github.com/openmercato/storefront-backend/internal/catalog"
	"github.com/openmercato/storefront-backend/internal/customers"
	"github.com/openmercato/storefront-backend/internal/orders"
	"github.com/openmercato/storefront-backend/internal/payments"
	"github.com/openmercato/storefront-backend/pkg/auth/session"
	"github.com/openmercato/storefront-backend/pkg/config"
	"github.com/openmercato/storefront-backend/pkg/db"
	"github.com/openmercato/storefront-backend/pkg/logger"
	"github.com/openmercato/storefront-backend/pkg/metrics"
	"github.com/openmercato/storefront-backend/pkg/redis"
)

type Deps struct {
	Config      *config.Config
	Logger      *logger.Logger
	DB          db.Pinger
	Redis       *redis.Client
	Sessions    session.SessionChecker
	HTTPMetrics *metrics.HTTPMetrics
	MetricsPage http.Handler

	Auth      auth.Service
	Catalog   catalog.Service
	Customers customers.Service
	Cart      cart.Service
	Orders    orders.Service
	Payments  payments.Service
}

func NewRouter(deps Deps) http.Handler {
	cfg := deps.Config
	logg := deps.Logger

	// A typed nil would slip past the middleware's interface nil check.
	var idemStore redis.IdempotencyStore
	var redisPinger redis.Pinger
	if deps.Redis != nil {
		idemStore = deps.Redis
		redisPinger = deps.Redis
	}

	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.Metrics(deps.HTTPMetrics),
		middleware.CORS(),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, deps.DB, redisPinger))
	})

	metricsPage := deps.MetricsPage
	if metricsPage == nil {
		metricsPage = promhttp.Handler()
	}
	r.Method(http.MethodGet, "/metrics", metricsPage)

	r.Route("/api/v1/auth", func(r chi.Router) {
		r.With(middleware.Idempotency(idemStore, logg)).Post("/register", controllers.AuthRegister(deps.Auth, logg))
		r.Post("/login", controllers.AuthLogin(deps.Auth, logg))
		r.With(middleware.Auth(cfg.JWT, deps.Sessions, logg)).Post("/logout", controllers.AuthLogout(deps.Auth, logg))
	})

	r.Route("/api/v1/products", func(r chi.Router) {
		r.Get("/", controllers.ListProducts(deps.Catalog, logg))
		r.Get("/{productId}", controllers.GetProduct(deps.Catalog, logg))
	})

	r.Route("/api/v1/admin/products", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, deps.Sessions, logg))
		r.Use(middleware.RequireAdmin(logg))
		r.Post("/", controllers.AdminCreateProduct(deps.Catalog, logg))
		r.Patch("/{productId}", controllers.AdminUpdateProduct(deps.Catalog, logg))
		r.Delete("/{productId}", controllers.AdminDeleteProduct(deps.Catalog, logg))
	})

	r.Group(func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, deps.Sessions, logg))
		r.Use(middleware.Idempotency(idemStore, logg))

		r.Route("/api/v1/profile", func(r chi.Router) {
			r.Get("/", controllers.GetProfile(deps.Customers, logg))
			r.Put("/", controllers.UpsertProfile(deps.Customers, logg))
			r.Delete("/", controllers.DeleteProfile(deps.Customers, logg))
		})

		r.Route("/api/v1/cart", func(r chi.Router) {
			r.Get("/", controllers.FetchCart(deps.Cart, deps.Customers, logg))
			r.Delete("/", controllers.ClearCart(deps.Cart, deps.Customers, logg))
			r.Post("/items", controllers.AddCartItem(deps.Cart, deps.Customers, logg))
			r.Patch("/items/{itemId}", controllers.UpdateCartItem(deps.Cart, deps.Customers, logg))
			r.Delete("/items/{itemId}", controllers.RemoveCartItem(deps.Cart, deps.Customers, logg))
		})

		r.Route("/api/v1/orders", func(r chi.Router) {
			r.Get("/", controllers.ListOrders(deps.Orders, deps.Customers, logg))
			r.Post("/", controllers.PlaceOrder(deps.Orders, deps.Customers, logg))
			r.Get("/{orderId}", controllers.GetOrder(deps.Orders, deps.Customers, logg))
			r.Post("/{orderId}/payments", controllers.CreatePayment(deps.Payments, deps.Customers, logg))
			r.Get("/{orderId}/payments", controllers.ListPayments(deps.Payments, deps.Customers, logg))
		})

		r.Post("/api/v1/checkout", controllers.Checkout(deps.Orders, deps.Customers, logg))
	})

	return r
}
