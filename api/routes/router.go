package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/rkfood/rkfood-backend/api/controllers"
	"github.com/rkfood/rkfood-backend/api/middleware"
	authsvc "github.com/rkfood/rkfood-backend/internal/auth"
	cartsvc "github.com/rkfood/rkfood-backend/internal/cart"
	catalogsvc "github.com/rkfood/rkfood-backend/internal/catalog"
	feedbacksvc "github.com/rkfood/rkfood-backend/internal/feedback"
	notifsvc "github.com/rkfood/rkfood-backend/internal/notifications"
	orderssvc "github.com/rkfood/rkfood-backend/internal/orders"
	"github.com/rkfood/rkfood-backend/pkg/auth/session"
	"github.com/rkfood/rkfood-backend/pkg/config"
	"github.com/rkfood/rkfood-backend/pkg/db"
	"github.com/rkfood/rkfood-backend/pkg/enums"
	"github.com/rkfood/rkfood-backend/pkg/logger"
	"github.com/rkfood/rkfood-backend/pkg/redis"
)

// Deps bundles everything the HTTP surface needs. Optional fields degrade
// gracefully: a nil service answers 500 on its routes and nothing else.
type Deps struct {
	Config   *config.Config
	Logger   *logger.Logger
	DB       db.Pinger
	Redis    *redis.Client
	Sessions session.AccessSessionChecker
	Gatherer prometheus.Gatherer

	Auth          authsvc.Service
	Catalog       catalogsvc.Service
	Cart          cartsvc.Service
	Orders        orderssvc.Service
	Feedback      feedbacksvc.Service
	Notifications notifsvc.Service
}

func NewRouter(deps Deps) http.Handler {
	cfg := deps.Config
	logg := deps.Logger

	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
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
	// OTP issuance shares the login budget. Cheap to request, costly to spam.
	otpPolicy := middleware.NewAuthRateLimitPolicy(
		"otp",
		cfg.AuthRateLimit.LoginWindow,
		cfg.AuthRateLimit.LoginIPLimit,
		cfg.AuthRateLimit.LoginEmailLimit,
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, deps.DB, deps.Redis, logg))
	})

	if deps.Gatherer != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(deps.Gatherer, promhttp.HandlerOpts{}))
	}

	r.Route("/api/v1", func(r chi.Router) {
		// Public catalog. Browsing needs no account.
		r.Get("/restaurants", controllers.ListRestaurants(deps.Catalog, logg))
		r.Get("/restaurants/{restaurantID}/menus", controllers.GetRestaurantMenus(deps.Catalog, logg))
		r.Get("/menus/{menuID}/items", controllers.ListMenuItems(deps.Catalog, logg))
		r.Get("/items/search", controllers.SearchMenuItems(deps.Catalog, logg))
		r.Get("/items/by-slug/{slug}", controllers.GetMenuItemBySlug(deps.Catalog, logg))
		r.Get("/items/{itemID}", controllers.GetMenuItem(deps.Catalog, logg))
		r.Get("/items/{itemID}/comments", controllers.ListItemComments(deps.Feedback, logg))

		r.Route("/auth", func(r chi.Router) {
			r.With(
				middleware.AuthRateLimit(registerPolicy, deps.Redis, logg),
				middleware.Idempotency(deps.Redis, logg),
			).Post("/register", controllers.Register(deps.Auth, logg))
			r.With(middleware.AuthRateLimit(loginPolicy, deps.Redis, logg)).Post("/login", controllers.Login(deps.Auth, logg))
			r.With(middleware.AuthRateLimit(otpPolicy, deps.Redis, logg)).Post("/otp/request", controllers.RequestOTP(deps.Auth, logg))
			r.With(middleware.AuthRateLimit(otpPolicy, deps.Redis, logg)).Post("/otp/verify", controllers.VerifyOTP(deps.Auth, logg))
			r.Post("/refresh", controllers.Refresh(deps.Auth, logg))

			r.Group(func(r chi.Router) {
				r.Use(middleware.Auth(cfg.JWT, deps.Sessions, logg))
				r.Post("/logout", controllers.Logout(deps.Auth, logg))
				r.Get("/me", controllers.Me(deps.Auth, logg))
			})
		})

		// Authenticated customer surface.
		r.Group(func(r chi.Router) {
			r.Use(middleware.Auth(cfg.JWT, deps.Sessions, logg))
			r.Use(middleware.Idempotency(deps.Redis, logg))

			r.Route("/cart", func(r chi.Router) {
				r.Get("/", controllers.ViewCart(deps.Cart, logg))
				r.Post("/items", controllers.AddCartItem(deps.Cart, logg))
				r.Post("/items/{menuItemID}/increment", controllers.IncrementCartItem(deps.Cart, logg))
				r.Post("/items/{menuItemID}/decrement", controllers.DecrementCartItem(deps.Cart, logg))
				r.Delete("/items/{menuItemID}", controllers.RemoveCartItem(deps.Cart, logg))
				r.Delete("/", controllers.ClearCart(deps.Cart, logg))
				r.Post("/checkout", controllers.Checkout(deps.Orders, logg))
			})

			r.Route("/orders", func(r chi.Router) {
				r.Get("/", controllers.ListMyOrders(deps.Orders, logg))
				r.Get("/{orderID}", controllers.GetOrder(deps.Orders, logg))
				r.Post("/{orderID}/payment", controllers.SelectPayment(deps.Orders, logg))
			})

			r.Post("/items/{itemID}/comments", controllers.AddComment(deps.Feedback, logg))
			r.Delete("/comments/{commentID}", controllers.DeleteComment(deps.Feedback, logg))
			r.Post("/feedback", controllers.SubmitFeedback(deps.Feedback, logg))

			r.Route("/notifications", func(r chi.Router) {
				r.Get("/", controllers.ListNotifications(deps.Notifications, logg))
				r.Post("/{notificationID}/read", controllers.MarkNotificationRead(deps.Notifications, logg))
				r.Post("/read-all", controllers.MarkAllNotificationsRead(deps.Notifications, logg))
			})
		})

		// Operator surface.
		r.Group(func(r chi.Router) {
			r.Use(middleware.Auth(cfg.JWT, deps.Sessions, logg))
			r.Use(middleware.RequireRole(string(enums.MemberRoleOperator), logg))

			r.Post("/restaurants", controllers.CreateRestaurant(deps.Catalog, logg))
			r.Post("/restaurants/{restaurantID}/menus", controllers.CreateMenu(deps.Catalog, logg))
			r.Post("/menus/{menuID}/items", controllers.AddMenuItem(deps.Catalog, logg))
			r.Patch("/items/{itemID}", controllers.UpdateMenuItem(deps.Catalog, logg))
			r.Put("/items/{itemID}/availability", controllers.SetMenuItemAvailability(deps.Catalog, logg))

			r.Get("/admin/orders", controllers.ListOrders(deps.Orders, logg))
			r.Put("/admin/orders/{orderID}/delivery", controllers.UpdateDeliveryStatus(deps.Orders, logg))
			r.Get("/admin/feedback", controllers.ListFeedback(deps.Feedback, logg))
		})
	})

	return r
}
