// Command server runs the foodgram HTTP API.
//
// @title                      Foodgram API
// @version                    1.0
// @description                Recipes, favorites, subscriptions and shopping lists.
// @BasePath                   /api
// @securityDefinitions.apikey BearerAuth
// @in                         header
// @name                       Authorization
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/tbourn/go-foodgram-backend/internal/cache"
	"github.com/tbourn/go-foodgram-backend/internal/catalog"
	"github.com/tbourn/go-foodgram-backend/internal/config"
	httpapi "github.com/tbourn/go-foodgram-backend/internal/http"
	"github.com/tbourn/go-foodgram-backend/internal/observability"
	"github.com/tbourn/go-foodgram-backend/internal/repo"
	"github.com/tbourn/go-foodgram-backend/internal/services"
	"github.com/tbourn/go-foodgram-backend/internal/storage"
	"github.com/tbourn/go-foodgram-backend/internal/sysutil"
)

const idempotencyPurgeEvery = 10 * time.Minute

func main() {
	// .env is optional
	_ = godotenv.Load()

	cfg := config.MustLoad()

	sysutil.SetLogLevel(cfg.LogLevel)
	logger, closer, err := sysutil.NewLogger(os.Stderr, sysutil.LogOptions{
		Pretty: cfg.LogPretty,
		File:   cfg.LogFile,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("logger")
	}
	defer closer.Close()
	log.Logger = logger

	gin.SetMode(cfg.GinMode)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	version := sysutil.FirstNonEmpty(os.Getenv("APP_VERSION"), "dev")
	shutdownOTel, err := observability.SetupOTel(ctx, cfg.OTEL, version)
	if err != nil {
		log.Fatal().Err(err).Msg("otel")
	}

	db, err := repo.Open(cfg)
	if err != nil {
		log.Fatal().Err(err).Str("driver", cfg.DBDriver).Msg("open database")
	}
	if cfg.OTEL.Enabled {
		if err := repo.UseTracing(db); err != nil {
			log.Fatal().Err(err).Msg("gorm tracing")
		}
	}
	if err := repo.AutoMigrate(db); err != nil {
		log.Fatal().Err(err).Msg("migrate")
	}

	var c cache.Cache
	if cfg.RedisURL != "" {
		rc, err := cache.NewRedis(ctx, cfg.RedisURL, "foodgram:")
		if err != nil {
			log.Fatal().Err(err).Msg("redis")
		}
		defer rc.Close()
		c = rc
	} else {
		c = cache.NewMemory()
	}

	res, err := catalog.Load(ctx, db, cfg.IngredientsPath, cfg.TagsPath)
	if err != nil {
		log.Fatal().Err(err).Msg("load catalog")
	}
	if res.Changed() {
		services.NewCatalogService(db, c, cfg.CacheTTL).Invalidate(ctx)
	}
	log.Info().Int64("ingredients", res.Ingredients).Int64("tags", res.Tags).Msg("catalog loaded")

	images, err := newImageStore(ctx, cfg.Storage)
	if err != nil {
		log.Fatal().Err(err).Str("backend", cfg.Storage.Backend).Msg("image storage")
	}

	r := gin.New()
	httpapi.RegisterRoutes(r, db, httpapi.Deps{Images: images, Cache: c}, cfg)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadTimeout:       cfg.ReadTimeout,
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
		WriteTimeout:      cfg.WriteTimeout,
		IdleTimeout:       cfg.IdleTimeout,
		MaxHeaderBytes:    cfg.MaxHeaderBytes,
	}

	go purgeIdempotency(ctx, db)

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", srv.Addr).Str("version", version).Msg("listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		log.Error().Err(err).Msg("server")
	case <-ctx.Done():
		log.Info().Msg("shutting down")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("http shutdown")
	}
	if err := shutdownOTel(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("otel shutdown")
	}
	if sqlDB, err := db.DB(); err == nil {
		_ = sqlDB.Close()
	}
}

func newImageStore(ctx context.Context, sc config.StorageConfig) (storage.ImageStore, error) {
	if sc.Backend == "s3" {
		return storage.NewS3Store(ctx, sc.S3Bucket, sc.S3Region, sc.S3PublicURL)
	}
	return storage.NewFileStore(sc.MediaRoot, sc.MediaURL)
}

// purgeIdempotency drops expired Idempotency-Key records until ctx ends.
func purgeIdempotency(ctx context.Context, db *gorm.DB) {
	t := time.NewTicker(idempotencyPurgeEvery)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-t.C:
			n, err := repo.PurgeExpiredIdempotency(ctx, db, now.UTC())
			if err != nil {
				log.Warn().Err(err).Msg("purge idempotency")
				continue
			}
			if n > 0 {
				log.Debug().Int64("rows", n).Msg("purged idempotency keys")
			}
		}
	}
}
