// Package httpapi wires the HTTP transport (Gin) to application services,
// middleware, and route handlers. It centralizes cross-cutting concerns such
// as tracing, correlation IDs, logging/redaction, panic recovery, metrics,
// authentication, idempotency, rate limiting, CORS and security headers.
package httpapi

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"gorm.io/gorm"

	_ "github.com/tbourn/go-foodgram-backend/docs"
	"github.com/tbourn/go-foodgram-backend/internal/cache"
	"github.com/tbourn/go-foodgram-backend/internal/config"
	"github.com/tbourn/go-foodgram-backend/internal/domain"
	"github.com/tbourn/go-foodgram-backend/internal/http/handlers"
	"github.com/tbourn/go-foodgram-backend/internal/http/middleware"
	"github.com/tbourn/go-foodgram-backend/internal/repo"
	"github.com/tbourn/go-foodgram-backend/internal/services"
	"github.com/tbourn/go-foodgram-backend/internal/storage"
)

// userRepoShim adapts the repository free functions to the services.UserRepo
// interface expected by the UserService.
type userRepoShim struct{}

// CreateUser proxies repo.CreateUser.
func (userRepoShim) CreateUser(ctx context.Context, db *gorm.DB, u *domain.User) error {
	return repo.CreateUser(ctx, db, u)
}

// GetUser proxies repo.GetUser.
func (userRepoShim) GetUser(ctx context.Context, db *gorm.DB, id uint) (*domain.User, error) {
	return repo.GetUser(ctx, db, id)
}

// CountUsers proxies repo.CountUsers (pagination support).
func (userRepoShim) CountUsers(ctx context.Context, db *gorm.DB) (int64, error) {
	return repo.CountUsers(ctx, db)
}

// ListUsersPage proxies repo.ListUsersPage (pagination support).
func (userRepoShim) ListUsersPage(ctx context.Context, db *gorm.DB, offset, limit int) ([]domain.User, error) {
	return repo.ListUsersPage(ctx, db, offset, limit)
}

// FollowedAuthorIDs proxies repo.FollowedAuthorIDs.
func (userRepoShim) FollowedAuthorIDs(ctx context.Context, db *gorm.DB, userID uint, authorIDs []uint) (map[uint]bool, error) {
	return repo.FollowedAuthorIDs(ctx, db, userID, authorIDs)
}

// idempotencyStore persists Idempotency-Key results in the database.
type idempotencyStore struct {
	db  *gorm.DB
	ttl time.Duration
}

// Save records resourceID for the key. A concurrent duplicate is not an
// error: the first record wins.
func (s idempotencyStore) Save(ctx context.Context, userID uint, scope, key string, resourceID uint, status int) error {
	_, err := repo.CreateIdempotency(ctx, s.db, userID, scope, key, resourceID, status, s.ttl)
	if errors.Is(err, repo.ErrDuplicate) {
		return nil
	}
	return err
}

// lookup implements middleware.IdempotencyLookup.
func (s idempotencyStore) lookup(ctx context.Context, userID uint, scope, key string, now time.Time) (uint, bool, error) {
	rec, err := repo.GetIdempotency(ctx, s.db, userID, scope, key, now)
	if errors.Is(err, repo.ErrNotFound) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, err
	}
	return rec.ResourceID, true, nil
}

// Deps are the infrastructure adapters used besides the database.
type Deps struct {
	Images storage.ImageStore // nil stores image values verbatim
	Cache  cache.Cache        // nil disables catalog caching
}

// RegisterRoutes attaches all middleware and HTTP endpoints to the given Gin
// engine and mounts the public API under cfg.APIBasePath.
//
// Middleware order matters:
//  1. OpenTelemetry: trace everything
//  2. RequestID: generate/propagate correlation id
//  3. RedactingLogger: structured logs with PII scrubbing
//  4. Recovery: capture panics after logger
//  5. Body size limiter and gzip
//  6. Metrics
//  7. Auth: resolve the caller (bearer token or X-User-ID)
//  8. Idempotency validator (needs the caller; before rate limiter for bypass)
//  9. Rate limiter (per user/IP, bypass on replay)
//  10. CORS and Security headers
func RegisterRoutes(r *gin.Engine, db *gorm.DB, deps Deps, cfg config.Config) {
	r.HandleMethodNotAllowed = true

	r.Use(otelgin.Middleware(cfg.OTEL.ServiceName))
	r.Use(middleware.RequestID())
	r.Use(middleware.RedactingLogger(middleware.RedactOptions{
		MaskHeaders: []string{"X-API-Key"},
	}))
	r.Use(middleware.Recovery())

	r.Use(limitBody(cfg.MaxBodyBytes))
	r.Use(gzip.Gzip(gzip.DefaultCompression, gzip.WithExcludedPaths([]string{"/metrics"})))

	r.Use(middleware.Metrics("/metrics", "/health"))
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	r.Use(middleware.Auth(middleware.AuthOptions{
		Secret:      cfg.JWTSecret,
		TrustHeader: cfg.TrustUserHeader,
	}))

	idem := idempotencyStore{db: db, ttl: cfg.IdempotencyTTL}
	r.Use(middleware.IdempotencyValidator(middleware.IdempotencyOptions{MaxLen: 200}, idem.lookup))

	rl := middleware.NewRateLimiter(cfg.RateRPS, cfg.RateBurst, middleware.KeyByUserOrIP())
	r.Use(rl.Handler())

	allowHeaders := []string{"Origin", "Content-Type", "Accept", "Authorization", middleware.HeaderUserID, middleware.HeaderIdempotencyKey, "If-None-Match"}
	exposeHeaders := []string{"X-Request-ID", "Content-Length", "Content-Disposition", "ETag"}
	if len(cfg.CORS.AllowedOrigins) == 0 {
		// Force ACAO: * even for requests without an Origin header.
		r.Use(func(c *gin.Context) {
			c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
			c.Next()
		})
		r.Use(cors.New(cors.Config{
			AllowAllOrigins:  true,
			AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
			AllowHeaders:     allowHeaders,
			ExposeHeaders:    exposeHeaders,
			AllowCredentials: false, // must remain false with AllowAllOrigins
			MaxAge:           12 * time.Hour,
		}))
	} else {
		r.Use(cors.New(cors.Config{
			AllowOrigins:     cfg.CORS.AllowedOrigins,
			AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
			AllowHeaders:     allowHeaders,
			ExposeHeaders:    exposeHeaders,
			AllowCredentials: true,
			MaxAge:           12 * time.Hour,
		}))
	}

	r.Use(middleware.SecurityHeaders(middleware.SecurityOptions{
		EnableHSTS:   cfg.Security.EnableHSTS,
		HSTSMaxAge:   cfg.Security.HSTSMaxAge,
		EnablePolicy: true,
	}))

	// Fallbacks
	r.NoRoute(func(c *gin.Context) {
		handlers.Fail(c, http.StatusNotFound, handlers.ErrCodeNotFound, "route not found")
	})
	r.NoMethod(func(c *gin.Context) {
		handlers.Fail(c, http.StatusMethodNotAllowed, handlers.ErrCodeMethodNotAllowed, "method not allowed")
	})

	r.GET("/health", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"status": "ok"}) })

	if cfg.Storage.Backend == "local" && cfg.Storage.MediaRoot != "" {
		r.Static(cfg.Storage.MediaURL, cfg.Storage.MediaRoot)
	}
	if cfg.SwaggerEnabled {
		r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	// Dependency injection: services ← repo/db/storage/cache
	h := handlers.New(handlers.Deps{
		Recipes:   services.NewRecipeService(db, deps.Images, cfg.Recipes.MinAmount, cfg.Recipes.MinCookingTime),
		Relations: &services.RelationService{DB: db},
		Shopping:  &services.ShoppingService{DB: db},
		Catalog:   services.NewCatalogService(db, deps.Cache, cfg.CacheTTL),
		Users:     services.NewUserService(db, userRepoShim{}),
		Follows:   &services.FollowService{DB: db},
		Idem:      idem,
	})

	auth := middleware.RequireAuth()
	private := middleware.PrivateCache()

	api := groupWithPrefix(r, cfg.APIBasePath)
	{
		recipes := api.Group("/recipes")
		recipes.GET("/", h.ListRecipes)
		recipes.POST("/", auth, h.CreateRecipe)
		recipes.GET("/shopping_cart/", auth, private, h.ListCart)
		recipes.GET("/download_shopping_cart/", auth, private, h.DownloadShoppingCart)
		recipes.GET("/:id/", h.GetRecipe)
		recipes.PUT("/:id/", auth, h.UpdateRecipe)
		recipes.PATCH("/:id/", auth, h.UpdateRecipe)
		recipes.DELETE("/:id/", auth, h.DeleteRecipe)
		recipes.POST("/:id/favorite/", auth, h.AddFavorite)
		recipes.DELETE("/:id/favorite/", auth, h.RemoveFavorite)
		recipes.POST("/:id/shopping_cart/", auth, h.AddToCart)
		recipes.DELETE("/:id/shopping_cart/", auth, h.RemoveFromCart)

		api.GET("/ingredients/", h.ListIngredients)
		api.GET("/ingredients/:id/", h.GetIngredient)
		api.GET("/tags/", h.ListTags)
		api.GET("/tags/:id/", h.GetTag)

		users := api.Group("/users")
		users.POST("/", h.RegisterUser)
		users.GET("/", h.ListUsers)
		users.GET("/me/", auth, private, h.Me)
		users.GET("/subscriptions/", auth, private, h.ListSubscriptions)
		users.GET("/:id/", h.GetUser)
		users.POST("/:id/subscribe/", auth, h.Subscribe)
		users.DELETE("/:id/subscribe/", auth, h.Unsubscribe)
	}
}

// limitBody caps the request body size to maxBytes using
// http.MaxBytesReader; larger bodies fail when read. maxBytes <= 0 disables
// the cap.
func limitBody(maxBytes int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		if maxBytes > 0 {
			c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
		}
		c.Next()
	}
}

// groupWithPrefix mounts a group at prefix, treating "/" (or empty) as root.
func groupWithPrefix(r *gin.Engine, prefix string) *gin.RouterGroup {
	if prefix == "" || prefix == "/" {
		return r.Group("")
	}
	return r.Group(prefix)
}
