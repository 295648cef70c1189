package main

import (
	"context"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-redis/redis/v8"

	"github.com/devaalay/asset-service/internal/archive"
	"github.com/devaalay/asset-service/internal/config"
	"github.com/devaalay/asset-service/internal/http/handlers/animations"
	"github.com/devaalay/asset-service/internal/http/handlers/categories"
	"github.com/devaalay/asset-service/internal/http/handlers/idols"
	"github.com/devaalay/asset-service/internal/http/handlers/splash"
	"github.com/devaalay/asset-service/internal/http/middleware"
	"github.com/devaalay/asset-service/internal/services/media"
	"github.com/devaalay/asset-service/internal/storage/mongodb"
	"github.com/devaalay/asset-service/internal/upload"
)

// @title Devaalay Asset Service API
// @version 1.0
// @description Admin backend for devotional media assets: god idol videos, ritual animations, and splash screens.
// @BasePath /api
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	// load config
	cfg := config.MustLoad()

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	// database setup
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	store, err := mongodb.New(ctx, cfg)
	cancel()
	if err != nil {
		log.Fatal("Failed to initialize database:", err)
	}
	slog.Info("Connected to MongoDB")

	// object store setup
	mediaService, err := media.NewService(cfg, logger)
	if err != nil {
		log.Fatal("Failed to initialize media service:", err)
	}
	slog.Info("Connected to object store", "bucket", cfg.MinIO.BucketName)

	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Address,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})

	coordinator := upload.NewCoordinator(mediaService, logger)
	expander := archive.NewExpander(mediaService, cfg.Media.ImageExtensions, logger)

	auth := middleware.AuthMiddleware(cfg.JWTSecret)
	rateLimits := middleware.NewRateLimitConfig(redisClient)
	uploadLimit := rateLimits.RateLimitMiddleware("upload")
	zipLimit := rateLimits.RateLimitMiddleware("upload_zip")

	// setup server
	router := http.NewServeMux()

	router.HandleFunc("GET /", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("Devaalay Asset Service"))
	})

	// animations
	router.Handle("POST /api/animations", auth(uploadLimit(animations.Create(coordinator, store, mediaService))))
	router.Handle("POST /api/animations/upload-zip", auth(zipLimit(animations.UploadZip(coordinator, store, mediaService, expander))))
	router.Handle("PUT /api/animations/{id}", auth(uploadLimit(animations.Update(coordinator, store, mediaService))))
	router.Handle("DELETE /api/animations/{id}", auth(animations.Delete(store, mediaService)))
	router.Handle("PATCH /api/animations/{id}/toggle", auth(animations.Toggle(store)))
	router.Handle("PATCH /api/animations/{id}/order", auth(animations.UpdateOrder(store)))
	router.HandleFunc("GET /api/animations", animations.GetAll(store, mediaService))
	router.HandleFunc("GET /api/animations/{id}", animations.GetByID(store, mediaService))
	router.HandleFunc("GET /api/animations/by-idol/{godIdolId}", animations.GetByIdol(store, mediaService))
	router.HandleFunc("GET /api/animations/by-category/{category}", animations.GetByCategory(store, mediaService))

	// god idols
	router.Handle("POST /api/idols", auth(uploadLimit(idols.Create(coordinator, store, mediaService))))
	router.Handle("POST /api/idols/with-animation", auth(uploadLimit(idols.CreateWithAnimation(coordinator, store, mediaService))))
	router.Handle("PUT /api/idols/{id}", auth(uploadLimit(idols.Update(coordinator, store, mediaService))))
	router.Handle("DELETE /api/idols/{id}", auth(idols.Delete(store, mediaService, store)))
	router.Handle("PATCH /api/idols/{id}/toggle", auth(idols.Toggle(store)))
	router.HandleFunc("GET /api/idols", idols.GetAll(store, mediaService))
	router.HandleFunc("GET /api/idols/active", idols.GetActive(store, mediaService))
	router.HandleFunc("GET /api/idols/{id}", idols.GetByID(store, mediaService))
	router.HandleFunc("GET /api/idols/by-god/{godId}", idols.GetByGod(store, mediaService))

	// splash screens
	router.Handle("POST /api/splash", auth(uploadLimit(splash.Create(coordinator, store, mediaService))))
	router.Handle("PUT /api/splash/{id}", auth(uploadLimit(splash.Update(coordinator, store, mediaService))))
	router.Handle("DELETE /api/splash/{id}", auth(splash.Delete(store, mediaService)))
	router.Handle("PATCH /api/splash/{id}/toggle", auth(splash.Toggle(store)))
	router.HandleFunc("GET /api/splash", splash.GetAll(store, mediaService))
	router.HandleFunc("GET /api/splash/active", splash.GetActive(store, mediaService))
	router.HandleFunc("GET /api/splash/{id}", splash.GetByID(store, mediaService))

	// animation categories
	router.Handle("POST /api/categories", auth(categories.Create(store)))
	router.Handle("PUT /api/categories/{id}", auth(categories.Update(store)))
	router.Handle("DELETE /api/categories/{id}", auth(categories.Delete(store)))
	router.Handle("PATCH /api/categories/{id}/toggle", auth(categories.Toggle(store)))
	router.Handle("PATCH /api/categories/{id}/order", auth(categories.UpdateOrder(store)))
	router.HandleFunc("GET /api/categories", categories.GetAll(store))
	router.HandleFunc("GET /api/categories/{id}", categories.GetByID(store))

	server := http.Server{
		Addr:    cfg.HTTPServer.Address,
		Handler: router,
	}

	log.Println("server started on", cfg.HTTPServer.Address)

	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		err := server.ListenAndServe()
		if err != nil && err != http.ErrServerClosed {
			log.Fatalf("failed to start server: %s", err)
		}
	}()

	<-done

	slog.Info("Shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		slog.Error("failed to gracefully shutdown server", slog.String("error", err.Error()))
		return
	}

	if err := redisClient.Close(); err != nil {
		slog.Error("failed to close redis client", slog.String("error", err.Error()))
	}
	if err := store.Close(context.Background()); err != nil {
		slog.Error("failed to close mongo client", slog.String("error", err.Error()))
	}

	slog.Info("Server stopped")
}
