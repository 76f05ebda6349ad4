package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/gamesage/gamesage-backend/api/controllers"
	"github.com/gamesage/gamesage-backend/api/routes"
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
	"github.com/gamesage/gamesage-backend/pkg/db"
	"github.com/gamesage/gamesage-backend/pkg/logger"
	"github.com/gamesage/gamesage-backend/pkg/metrics"
	"github.com/gamesage/gamesage-backend/pkg/migrate"
	"github.com/gamesage/gamesage-backend/pkg/openai"
	"github.com/gamesage/gamesage-backend/pkg/redis"
	"github.com/gamesage/gamesage-backend/pkg/storage/cloudinary"
)

const shutdownGrace = 15 * time.Second

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "api",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	dbClient, err := db.New(context.Background(), cfg.DB, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap database", err)
		os.Exit(1)
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing database", err)
		}
	}()

	if err := migrate.MaybeRunDev(context.Background(), cfg, logg, dbClient); err != nil {
		logg.Error(context.Background(), "failed to run dev migrations", err)
		os.Exit(1)
	}

	if err := auth.SeedAdmin(context.Background(), auth.SeedAdminParams{
		DB:             dbClient,
		FeatureFlags:   cfg.FeatureFlags,
		AdminSeed:      cfg.AdminSeed,
		PasswordConfig: cfg.Password,
		Logger:         logg,
	}); err != nil {
		logg.Error(context.Background(), "failed to seed admin user", err)
		os.Exit(1)
	}

	redisClient, err := redis.New(context.Background(), cfg.Redis, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap redis", err)
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing redis", err)
		}
	}()

	storageClient, err := cloudinary.NewClient(context.Background(), cfg.Cloudinary, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap cloudinary", err)
		os.Exit(1)
	}

	sessionManager, err := session.NewManager(redisClient, cfg.JWT)
	if err != nil {
		logg.Error(context.Background(), "failed to create session manager", err)
		os.Exit(1)
	}

	gormDB := dbClient.DB()
	userRepo := users.NewRepository(gormDB)
	gameRepo := games.NewRepository(gormDB)
	cartRepo := cart.NewRepository(gormDB)
	purchaseRepo := purchases.NewRepository(gormDB)
	favoriteRepo := favorites.NewRepository(gormDB)
	mediaRepo := media.NewRepository(gormDB)

	authService, err := auth.NewService(auth.ServiceParams{
		UserRepo:       userRepo,
		SessionManager: sessionManager,
		JWTConfig:      cfg.JWT,
	})
	exitOnServiceError(logg, "auth", err)

	registerService, err := auth.NewRegisterService(auth.RegisterServiceParams{
		DB:             dbClient,
		SessionManager: sessionManager,
		JWTConfig:      cfg.JWT,
		PasswordConfig: cfg.Password,
	})
	exitOnServiceError(logg, "register", err)

	usersService, err := users.NewService(users.ServiceParams{
		UserRepo:    userRepo,
		PasswordCfg: cfg.Password,
	})
	exitOnServiceError(logg, "users", err)

	gamesService, err := games.NewService(games.ServiceParams{
		GameRepo: gameRepo,
	})
	exitOnServiceError(logg, "games", err)

	cartService, err := cart.NewService(cart.ServiceParams{
		CartRepo: cartRepo,
		GameRepo: gameRepo,
	})
	exitOnServiceError(logg, "cart", err)

	purchasesService, err := purchases.NewService(purchases.ServiceParams{
		Tx:           dbClient,
		PurchaseRepo: purchaseRepo,
		CartRepo:     cartRepo,
		GameRepo:     gameRepo,
	})
	exitOnServiceError(logg, "purchases", err)

	favoritesService, err := favorites.NewService(favorites.ServiceParams{
		FavoriteRepo: favoriteRepo,
		GameRepo:     gameRepo,
	})
	exitOnServiceError(logg, "favorites", err)

	mediaService, err := media.NewService(media.ServiceParams{
		MediaRepo: mediaRepo,
		Storage:   storageClient,
		UserRepo:  userRepo,
		GameRepo:  gameRepo,
		Config:    cfg.Media,
		Logger:    logg,
	})
	exitOnServiceError(logg, "media", err)

	llmClient, err := openai.NewClient(cfg.OpenAI, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create openai client", err)
		os.Exit(1)
	}

	chatService, err := chat.NewService(chat.ServiceParams{
		LLM:      llmClient,
		GamesSvc: gamesService,
		Logger:   logg,
	})
	exitOnServiceError(logg, "chat", err)

	httpMetrics := metrics.NewHTTPMetrics(prometheus.DefaultRegisterer)

	router := routes.NewRouter(routes.RouterParams{
		Config:  cfg,
		Logger:  logg,
		Metrics: httpMetrics,
		Health: controllers.HealthDeps{
			DB:      dbClient,
			Redis:   redisClient,
			Storage: storageClient,
		},
		RedisClient:      redisClient,
		Sessions:         sessionManager,
		AuthService:      authService,
		RegisterService:  registerService,
		UsersService:     usersService,
		GamesService:     gamesService,
		CartService:      cartService,
		PurchasesService: purchasesService,
		FavoritesService: favoritesService,
		MediaService:     mediaService,
		ChatService:      chatService,
	})

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx = logg.WithFields(ctx, map[string]any{
		"env":  cfg.App.Env,
		"addr": addr,
	})
	logg.Info(ctx, "starting api server")

	server := &http.Server{
		Addr:    addr,
		Handler: router,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logg.Error(ctx, "api server stopped unexpectedly", err)
			os.Exit(1)
		}
	case <-ctx.Done():
		logg.Info(ctx, "shutdown signal received")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logg.Error(ctx, "forced shutdown after grace period", err)
		}
	}

	logg.Info(ctx, "api server stopped")
}

func exitOnServiceError(logg *logger.Logger, name string, err error) {
	if err != nil {
		logg.Error(context.Background(), "failed to create "+name+" service", err)
		os.Exit(1)
	}
}
