package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/mraihanfauzii/marketplace-backend/api/controllers"
	"github.com/mraihanfauzii/marketplace-backend/api/middleware"
	"github.com/mraihanfauzii/marketplace-backend/internal/auth"
	cartsvc "github.com/mraihanfauzii/marketplace-backend/internal/cart"
	checkoutsvc "github.com/mraihanfauzii/marketplace-backend/internal/checkout"
	ordersvc "github.com/mraihanfauzii/marketplace-backend/internal/orders"
	productsvc "github.com/mraihanfauzii/marketplace-backend/internal/products"
	reviewsvc "github.com/mraihanfauzii/marketplace-backend/internal/reviews"
	usersvc "github.com/mraihanfauzii/marketplace-backend/internal/users"
	"github.com/mraihanfauzii/marketplace-backend/pkg/auth/session"
	"github.com/mraihanfauzii/marketplace-backend/pkg/config"
	"github.com/mraihanfauzii/marketplace-backend/pkg/db"
	"github.com/mraihanfauzii/marketplace-backend/pkg/enums"
	"github.com/mraihanfauzii/marketplace-backend/pkg/logger"
	"github.com/mraihanfauzii/marketplace-backend/pkg/metrics"
	"github.com/mraihanfauzii/marketplace-backend/pkg/redis"
)

// Params collects everything the router mounts. Services may be nil in
// partial wiring (tests); the controllers answer 500 for those routes.
type Params struct {
	Config *config.Config
	Logger *logger.Logger

	DB    db.Pinger
	Redis *redis.Client

	Sessions        session.AccessSessionChecker
	MetricsRegistry *prometheus.Registry
	HTTPMetrics     *metrics.HTTPMetrics

	AuthService     auth.Service
	RegisterService auth.RegisterService
	ProductService  *productsvc.Service
	CartService     cartsvc.Service
	CheckoutService checkoutsvc.Service
	OrderService    ordersvc.Service
	ReviewService   *reviewsvc.Service
	UserService     *usersvc.Service
}

func NewRouter(p Params) http.Handler {
	cfg := p.Config
	logg := p.Logger

	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(),
	)
	if p.HTTPMetrics != nil {
		r.Use(middleware.Metrics(p.HTTPMetrics))
	}

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
		r.Get("/ready", controllers.HealthReady(cfg, logg, p.DB, p.Redis))
	})

	if p.MetricsRegistry != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(p.MetricsRegistry, promhttp.HandlerOpts{}))
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/auth", func(r chi.Router) {
			r.With(middleware.AuthRateLimit(loginPolicy, p.Redis, logg)).Post("/login", controllers.AuthLogin(p.AuthService, logg))
			r.With(middleware.AuthRateLimit(registerPolicy, p.Redis, logg)).Post("/register", controllers.AuthRegister(p.RegisterService, logg))
			r.Post("/refresh", controllers.AuthRefresh(p.AuthService, logg))
		})

		// Public catalog. Product detail and reviews need no session.
		r.Get("/products", controllers.ProductList(p.ProductService, logg))
		r.Get("/products/{productId}", controllers.ProductDetail(p.ProductService, logg))
		r.Get("/products/{productId}/reviews", controllers.ProductReviews(p.ReviewService, logg))

		r.Group(func(r chi.Router) {
			r.Use(middleware.Auth(cfg.JWT, p.Sessions, logg))

			r.Post("/auth/logout", controllers.AuthLogout(p.AuthService, cfg.JWT, logg))
			r.Get("/auth/profile", controllers.AuthProfile(p.AuthService, logg))
			r.Put("/profile", controllers.ProfileUpdate(p.AuthService, logg))

			r.Post("/products", controllers.ProductCreate(p.ProductService, logg))
			r.Put("/products/{productId}", controllers.ProductUpdate(p.ProductService, logg))
			r.Delete("/products/{productId}", controllers.ProductDelete(p.ProductService, logg))

			r.Route("/cart", func(r chi.Router) {
				r.Get("/", controllers.CartList(p.CartService, logg))
				r.Post("/", controllers.CartAdd(p.CartService, logg))
				r.Patch("/{itemId}", controllers.CartUpdateItem(p.CartService, logg))
				r.Delete("/{itemId}", controllers.CartRemoveItem(p.CartService, logg))
			})

			r.Post("/checkout", controllers.Checkout(p.CheckoutService, logg))

			r.Route("/orders", func(r chi.Router) {
				r.Get("/", controllers.OrderList(p.OrderService, logg))
				r.Get("/store", controllers.StoreOrderList(p.OrderService, logg))
				r.Get("/{orderId}", controllers.OrderDetail(p.OrderService, logg))
				r.Patch("/{orderId}", controllers.OrderTransition(p.OrderService, logg))
			})

			r.Post("/reviews", controllers.ReviewCreate(p.ReviewService, logg))
		})
	})

	r.Route("/api/admin/v1", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, p.Sessions, logg))
		r.Use(middleware.RequireRole(string(enums.RoleAdmin), logg))
		r.Get("/users", controllers.AdminUserList(p.UserService, logg))
		r.Delete("/users/{userId}", controllers.AdminUserDelete(p.UserService, logg))
		r.Post("/users/{userId}/cancel-orders", controllers.AdminCancelUserOrders(p.UserService, logg))
		r.Get("/orders", controllers.AdminOrderList(p.OrderService, logg))
	})

	return r
}
