package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/spacestar-shop/backend/api/controllers"
	"github.com/spacestar-shop/backend/api/middleware"
	"github.com/spacestar-shop/backend/internal/auth"
	"github.com/spacestar-shop/backend/internal/cart"
	"github.com/spacestar-shop/backend/internal/catalog"
	"github.com/spacestar-shop/backend/internal/content"
	"github.com/spacestar-shop/backend/internal/media"
	"github.com/spacestar-shop/backend/internal/orders"
	"github.com/spacestar-shop/backend/internal/payments"
	"github.com/spacestar-shop/backend/pkg/config"
	"github.com/spacestar-shop/backend/pkg/logger"
	"github.com/spacestar-shop/backend/pkg/mongo"
	"github.com/spacestar-shop/backend/pkg/redis"
)

func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	storePinger mongo.Pinger,
	redisClient *redis.Client,
	cartService cart.Service,
	orderService orders.Service,
	paymentService payments.Service,
	catalogService catalog.Service,
	contentService content.Service,
	authService auth.Service,
	mediaService media.Service,
) http.Handler {
	r := chi.NewRouter()

	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(cfg.CORS),
	)

	loginPolicy := middleware.NewAuthRateLimitPolicy(
		"login",
		cfg.AuthRateLimit.LoginWindow,
		cfg.AuthRateLimit.LoginIPLimit,
		cfg.AuthRateLimit.LoginEmailLimit,
	)
	adminOnly := middleware.AdminAuth(authService, logg)
	idempotency := middleware.Idempotency(redisClient, logg)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, storePinger, redisClient, logg))
	})

	r.Route("/api/cart", func(r chi.Router) {
		r.Get("/new", controllers.CartNew(cartService, logg))
		r.Get("/{cartId}", controllers.CartGet(cartService, logg))
		r.Post("/{cartId}/add", controllers.CartAddItem(cartService, logg))
		r.Post("/{cartId}/add-size/{productId}", controllers.CartAddSizeVariant(cartService, logg))
		r.Patch("/{cartId}/item/{itemId}", controllers.CartUpdateItem(cartService, logg))
		r.Delete("/{cartId}/item/{itemId}", controllers.CartRemoveItem(cartService, logg))
		r.Delete("/{cartId}", controllers.CartClear(cartService, logg))
	})

	r.Route("/api/orders", func(r chi.Router) {
		r.With(idempotency).Post("/", controllers.OrderCreate(orderService, logg))
		r.Group(func(r chi.Router) {
			r.Use(adminOnly)
			r.Get("/", controllers.OrderList(orderService, logg))
			r.Get("/{id}", controllers.OrderGet(orderService, logg))
			r.Patch("/{id}", controllers.OrderUpdate(orderService, logg))
			r.Patch("/{id}/status", controllers.OrderUpdateStatus(orderService, logg))
			r.Delete("/{id}", controllers.OrderDelete(orderService, logg))
		})
	})

	r.Route("/api/payments", func(r chi.Router) {
		r.With(idempotency).Post("/{orderId}/initiate", controllers.PaymentInitiate(paymentService, logg))
		// The provider redirects the shopper here; no session to gate on.
		r.Post("/callback", controllers.PaymentCallback(paymentService, logg))
		r.Get("/callback", controllers.PaymentCallback(paymentService, logg))
	})

	r.Route("/api/products", func(r chi.Router) {
		r.Get("/", controllers.ProductList(catalogService, logg))
		r.Get("/categories", controllers.ProductCategories(catalogService, logg))
		r.Get("/{id}", controllers.ProductGet(catalogService, logg))
		r.Group(func(r chi.Router) {
			r.Use(adminOnly)
			r.Post("/", controllers.ProductCreate(catalogService, logg))
			r.Patch("/{id}", controllers.ProductUpdate(catalogService, logg))
			r.Delete("/{id}", controllers.ProductDelete(catalogService, logg))
		})
	})

	r.Route("/api/frames", func(r chi.Router) {
		r.Get("/", controllers.FrameList(catalogService, logg))
		r.Get("/options", controllers.FrameOptions(catalogService, logg))
		r.Get("/{id}", controllers.FrameGet(catalogService, logg))
		r.Group(func(r chi.Router) {
			r.Use(adminOnly)
			r.Post("/", controllers.FrameCreate(catalogService, logg))
			r.Patch("/{id}", controllers.FrameUpdate(catalogService, logg))
			r.Delete("/{id}", controllers.FrameDelete(catalogService, logg))
		})
	})

	r.Route("/api/reviews", func(r chi.Router) {
		r.Get("/", controllers.ReviewList(contentService, logg))
		r.Post("/", controllers.ReviewCreate(contentService, logg))
		r.With(adminOnly).Delete("/{id}", controllers.ReviewDelete(contentService, logg))
	})

	r.Route("/api/banner", func(r chi.Router) {
		r.Get("/", controllers.BannerGet(contentService, logg))
		r.With(adminOnly).Put("/", controllers.BannerSave(contentService, logg))
	})

	r.Route("/api/story", func(r chi.Router) {
		r.Get("/", controllers.StoryList(contentService, logg))
		r.Group(func(r chi.Router) {
			r.Use(adminOnly)
			r.Post("/", controllers.StoryCreate(contentService, logg))
			r.Delete("/{id}", controllers.StoryDelete(contentService, logg))
		})
	})

	r.Route("/api/home", func(r chi.Router) {
		r.Get("/", controllers.HomeGet(contentService, logg))
		r.With(adminOnly).Put("/", controllers.HomeSave(contentService, logg))
	})

	r.Route("/api/about", func(r chi.Router) {
		r.Get("/", controllers.AboutGet(contentService, logg))
		r.With(adminOnly).Put("/", controllers.AboutSave(contentService, logg))
	})

	r.Route("/api/settings", func(r chi.Router) {
		r.Get("/", controllers.SettingsGet(contentService, logg))
		r.With(adminOnly).Put("/", controllers.SettingsSave(contentService, logg))
	})

	r.Route("/api/auth", func(r chi.Router) {
		r.With(middleware.AuthRateLimit(loginPolicy, redisClient, logg)).Post("/login", controllers.AuthLogin(authService, cfg, logg))
		r.Post("/logout", controllers.AuthLogout(cfg))
		r.Post("/register", controllers.AuthRegister(authService, cfg, logg))
		r.With(adminOnly).Get("/me", controllers.AuthMe(authService, logg))
	})

	r.Route("/api/media", func(r chi.Router) {
		r.Use(adminOnly)
		r.Post("/upload", controllers.MediaUpload(mediaService, int64(cfg.Media.MaxUploadMB)<<20, logg))
	})

	return r
}
