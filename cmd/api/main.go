package main

import (
	"context"
	"net/http"
	"os"

	"github.com/joho/godotenv"

	"github.com/spacestar-shop/backend/api/routes"
	"github.com/spacestar-shop/backend/internal/auth"
	"github.com/spacestar-shop/backend/internal/cart"
	"github.com/spacestar-shop/backend/internal/catalog"
	"github.com/spacestar-shop/backend/internal/content"
	"github.com/spacestar-shop/backend/internal/media"
	"github.com/spacestar-shop/backend/internal/orders"
	"github.com/spacestar-shop/backend/internal/payments"
	"github.com/spacestar-shop/backend/pkg/bkash"
	"github.com/spacestar-shop/backend/pkg/config"
	"github.com/spacestar-shop/backend/pkg/logger"
	"github.com/spacestar-shop/backend/pkg/mongo"
	"github.com/spacestar-shop/backend/pkg/redis"
	"github.com/spacestar-shop/backend/pkg/storage/s3"
)

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

	mongoClient, err := mongo.New(context.Background(), cfg.Mongo, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap mongo", err)
		os.Exit(1)
	}
	defer func() {
		if err := mongoClient.Close(context.Background()); err != nil {
			logg.Error(context.Background(), "error closing mongo", err)
		}
	}()

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

	blobStore, err := s3.NewClient(cfg.S3, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap blob storage", err)
		os.Exit(1)
	}

	gateway, err := bkash.NewClient(cfg.Bkash, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap payment gateway", err)
		os.Exit(1)
	}

	if err := cart.EnsureIndexes(context.Background(), mongoClient.Collection("carts")); err != nil {
		logg.Error(context.Background(), "failed to ensure cart indexes", err)
		os.Exit(1)
	}

	cartService, err := cart.NewService(cart.NewRepository(mongoClient.Collection("carts")))
	if err != nil {
		logg.Error(context.Background(), "failed to create cart service", err)
		os.Exit(1)
	}

	orderService, err := orders.NewService(orders.NewRepository(mongoClient.Collection("orders")))
	if err != nil {
		logg.Error(context.Background(), "failed to create order service", err)
		os.Exit(1)
	}

	paymentService, err := payments.NewService(gateway, orderService, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create payment service", err)
		os.Exit(1)
	}

	catalogService, err := catalog.NewService(catalog.NewRepository(
		mongoClient.Collection("products"),
		mongoClient.Collection("frames"),
	))
	if err != nil {
		logg.Error(context.Background(), "failed to create catalog service", err)
		os.Exit(1)
	}

	contentService, err := content.NewService(content.NewRepository(content.Collections{
		Reviews:  mongoClient.Collection("reviews"),
		Banners:  mongoClient.Collection("banners"),
		Stories:  mongoClient.Collection("stories"),
		Home:     mongoClient.Collection("home"),
		About:    mongoClient.Collection("about"),
		Settings: mongoClient.Collection("settings"),
	}))
	if err != nil {
		logg.Error(context.Background(), "failed to create content service", err)
		os.Exit(1)
	}

	authService, err := auth.NewService(auth.NewRepository(mongoClient.Collection("admins")), cfg.JWT, cfg.Password)
	if err != nil {
		logg.Error(context.Background(), "failed to create auth service", err)
		os.Exit(1)
	}

	mediaService, err := media.NewService(blobStore, cfg.Media)
	if err != nil {
		logg.Error(context.Background(), "failed to create media service", err)
		os.Exit(1)
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	ctx := logg.WithFields(context.Background(), map[string]any{
		"env":  cfg.App.Env,
		"addr": addr,
	})
	logg.Info(ctx, "starting api server")

	server := &http.Server{
		Addr: addr,
		Handler: routes.NewRouter(
			cfg,
			logg,
			mongoClient,
			redisClient,
			cartService,
			orderService,
			paymentService,
			catalogService,
			contentService,
			authService,
			mediaService,
		),
	}

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logg.Error(ctx, "api server stopped unexpectedly", err)
		os.Exit(1)
	}
}
