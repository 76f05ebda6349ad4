package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/gamesage/gamesage-backend/api/controllers"
	"github.com/gamesage/gamesage-backend/api/middleware"
	"github.com/gamesage/gamesage-backend/internal/auth"
	"github.com/gamesage/gamesage-backend/internal/cart"
	"github.com/gamesage/gamesage-backend/internal/chat"
	"github.com/gamesage/gamesage-backend/internal/favorites"
	"github.com/gamesage/gamesage-backend/internal/games"
	"github.com/gamesage/gamesage-backend/internal/media"
	"github.com/gamesage/gamesage-backend/internal/purchases"
	"github.com/gamesage/gamesage-backend/internal/users"
	"github.com/gamesage/gamesage-backend/pkg/auth/session"
	"github.com/gamesage/gamesage-backend/pkg/config"
	"github.com/gamesage/gamesage-backend/pkg/logger"
	"github.com/gamesage/gamesage-backend/pkg/metrics"
	"github.com/gamesage/gamesage-backend/pkg/redis"
)

// RouterParams collects everything the HTTP surface needs. All services are
// required; Metrics may be nil to disable instrumentation.
type RouterParams struct {
	Config  *config.Config
	Logger  *logger.Logger
	Metrics *metrics.HTTPMetrics

	Health      controllers.HealthDeps
	RedisClient *redis.Client
	Sessions    session.AccessSessionChecker

	AuthService      auth.Service
	RegisterService  auth.RegisterService
	UsersService     users.Service
	GamesService     games.Service
	CartService      cart.Service
	PurchasesService purchases.Service
	FavoritesService favorites.Service
	MediaService     media.Service
	ChatService      chat.Service
}

// NewRouter assembles the full route tree with its middleware stack.
func NewRouter(params RouterParams) http.Handler {
	cfg := params.Config
	logg := params.Logger

	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.Metrics(params.Metrics),
		middleware.CORS(cfg.CORS),
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
		r.Get("/live", controllers.HealthLive())
		r.Get("/ready", controllers.HealthReady(params.Health, logg))
	})

	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Route("/api/v1/auth", func(r chi.Router) {
		r.With(
			middleware.AuthRateLimit(registerPolicy, params.RedisClient, logg),
			middleware.Idempotency(params.RedisClient, logg),
		).Post("/register", controllers.AuthRegister(params.RegisterService, logg))
		r.With(middleware.AuthRateLimit(loginPolicy, params.RedisClient, logg)).Post("/login", controllers.AuthLogin(params.AuthService, logg))
		r.Post("/refresh", controllers.AuthRefresh(params.AuthService, logg))
		r.Post("/logout", controllers.AuthLogout(params.AuthService, cfg.JWT, logg))
	})

	// Catalog reads are public; mutations live in the admin group below.
	r.Route("/api/v1/games", func(r chi.Router) {
		r.Get("/", controllers.GamesList(params.GamesService, logg))
		r.Get("/{gameId}", controllers.GameGet(params.GamesService, logg))

		r.Group(func(r chi.Router) {
			r.Use(middleware.Auth(cfg.JWT, params.Sessions, logg))
			r.Use(middleware.RequireRole("admin", logg))
			r.Post("/", controllers.GameCreate(params.GamesService, logg))
			r.Patch("/{gameId}", controllers.GameUpdate(params.GamesService, logg))
			r.Delete("/{gameId}", controllers.GameDelete(params.GamesService, logg))
		})
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, params.Sessions, logg))
		r.Use(middleware.Idempotency(params.RedisClient, logg))

		r.Route("/users/me", func(r chi.Router) {
			r.Get("/", controllers.UsersMe(params.UsersService, logg))
			r.Patch("/", controllers.UsersMeUpdate(params.UsersService, logg))
			r.Post("/password", controllers.UsersMePassword(params.UsersService, logg))
		})

		r.Route("/cart", func(r chi.Router) {
			r.Get("/", controllers.CartGet(params.CartService, logg))
			r.Delete("/", controllers.CartClear(params.CartService, logg))
			r.Post("/{gameId}", controllers.CartAdd(params.CartService, logg))
			r.Patch("/{gameId}", controllers.CartUpdate(params.CartService, logg))
			r.Delete("/{gameId}", controllers.CartRemove(params.CartService, logg))
		})

		r.Route("/purchases", func(r chi.Router) {
			r.Get("/", controllers.PurchasesList(params.PurchasesService, logg))
			r.Post("/checkout", controllers.PurchasesCheckout(params.PurchasesService, logg))
			r.Post("/checkout/games", controllers.PurchasesCheckoutGames(params.PurchasesService, logg))
			r.Get("/{purchaseId}", controllers.PurchaseGet(params.PurchasesService, logg))
			r.Post("/{purchaseId}/refund", controllers.PurchaseRefund(params.PurchasesService, logg))
		})

		r.Route("/favorites", func(r chi.Router) {
			r.Get("/", controllers.FavoritesList(params.FavoritesService, logg))
			r.Post("/{gameId}", controllers.FavoriteAdd(params.FavoritesService, logg))
			r.Delete("/{gameId}", controllers.FavoriteRemove(params.FavoritesService, logg))
			r.Get("/check/{gameId}", controllers.FavoriteCheck(params.FavoritesService, logg))
		})

		r.Route("/media", func(r chi.Router) {
			r.Get("/", controllers.MediaList(params.MediaService, logg))
			r.Post("/upload", controllers.MediaUpload(params.MediaService, logg))
			r.Get("/{mediaId}", controllers.MediaGet(params.MediaService, logg))
			r.Put("/{mediaId}/upload", controllers.MediaReplace(params.MediaService, logg))
			r.Delete("/{mediaId}", controllers.MediaDelete(params.MediaService, logg))
		})

		r.Post("/chat", controllers.ChatStream(params.ChatService, logg))
	})

	return r
}
