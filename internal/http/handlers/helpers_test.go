package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	sqlite "github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/tbourn/go-foodgram-backend/internal/domain"
	"github.com/tbourn/go-foodgram-backend/internal/http/middleware"
	"github.com/tbourn/go-foodgram-backend/internal/repo"
	"github.com/tbourn/go-foodgram-backend/internal/services"
)

// ---------- test DB + repo shim ----------

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:handlers_%s?mode=memory&cache=shared&_pragma=foreign_keys(1)", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := repo.AutoMigrate(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

// testUserRepo implements services.UserRepo with the repo package (like router.go).
type testUserRepo struct{}

func (testUserRepo) CreateUser(ctx context.Context, db *gorm.DB, u *domain.User) error {
	return repo.CreateUser(ctx, db, u)
}

func (testUserRepo) GetUser(ctx context.Context, db *gorm.DB, id uint) (*domain.User, error) {
	return repo.GetUser(ctx, db, id)
}

func (testUserRepo) CountUsers(ctx context.Context, db *gorm.DB) (int64, error) {
	return repo.CountUsers(ctx, db)
}

func (testUserRepo) ListUsersPage(ctx context.Context, db *gorm.DB, offset, limit int) ([]domain.User, error) {
	return repo.ListUsersPage(ctx, db, offset, limit)
}

func (testUserRepo) FollowedAuthorIDs(ctx context.Context, db *gorm.DB, userID uint, ids []uint) (map[uint]bool, error) {
	return repo.FollowedAuthorIDs(ctx, db, userID, ids)
}

// memIdem is an in-memory IdempotencyStore plus the matching lookup.
type memIdem struct {
	mu   sync.Mutex
	rows map[string]uint
}

func (m *memIdem) Save(_ context.Context, userID uint, scope, key string, resourceID uint, _ int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.rows == nil {
		m.rows = map[string]uint{}
	}
	m.rows[fmt.Sprintf("%d|%s|%s", userID, scope, key)] = resourceID
	return nil
}

func (m *memIdem) lookup(_ context.Context, userID uint, scope, key string, _ time.Time) (uint, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	id, found := m.rows[fmt.Sprintf("%d|%s|%s", userID, scope, key)]
	return id, found, nil
}

// ---------- environment ----------

type env struct {
	t          *testing.T
	db         *gorm.DB
	r          *gin.Engine
	idem       *memIdem
	alice, bob *domain.User
	salt       *domain.Ingredient
	sugar      *domain.Ingredient
	breakfast  *domain.Tag
	dinner     *domain.Tag
}

func newEnv(t *testing.T) *env {
	t.Helper()
	gin.SetMode(gin.TestMode)
	db := newTestDB(t)
	e := &env{t: t, db: db, idem: &memIdem{}}

	ctx := context.Background()
	e.alice = &domain.User{Email: "alice@example.com", Username: "alice", FirstName: "Alice", LastName: "A"}
	e.bob = &domain.User{Email: "bob@example.com", Username: "bob", FirstName: "Bob", LastName: "B"}
	for _, u := range []*domain.User{e.alice, e.bob} {
		if err := repo.CreateUser(ctx, db, u); err != nil {
			t.Fatalf("user: %v", err)
		}
	}
	e.salt = &domain.Ingredient{Name: "salt", MeasurementUnit: "g"}
	e.sugar = &domain.Ingredient{Name: "sugar", MeasurementUnit: "g"}
	e.breakfast = &domain.Tag{Name: "Breakfast", Color: "#E26C2D", Slug: "breakfast"}
	e.dinner = &domain.Tag{Name: "Dinner", Color: "#49B64E", Slug: "dinner"}
	for _, row := range []any{e.salt, e.sugar, e.breakfast, e.dinner} {
		if err := db.Create(row).Error; err != nil {
			t.Fatalf("seed: %v", err)
		}
	}

	h := New(Deps{
		Recipes:   services.NewRecipeService(db, nil, 1, 1),
		Relations: &services.RelationService{DB: db},
		Shopping:  &services.ShoppingService{DB: db},
		Catalog:   services.NewCatalogService(db, nil, 0),
		Users:     services.NewUserService(db, testUserRepo{}),
		Follows:   &services.FollowService{DB: db},
		Idem:      e.idem,
	})

	r := gin.New()
	r.Use(middleware.RequestID(), middleware.Auth(middleware.AuthOptions{TrustHeader: true}))
	r.Use(middleware.IdempotencyValidator(middleware.IdempotencyOptions{}, e.idem.lookup))
	api := r.Group("/api")
	api.GET("/recipes/", h.ListRecipes)
	api.POST("/recipes/", h.CreateRecipe)
	api.GET("/recipes/shopping_cart/", h.ListCart)
	api.GET("/recipes/download_shopping_cart/", h.DownloadShoppingCart)
	api.GET("/recipes/:id/", h.GetRecipe)
	api.PUT("/recipes/:id/", h.UpdateRecipe)
	api.PATCH("/recipes/:id/", h.UpdateRecipe)
	api.DELETE("/recipes/:id/", h.DeleteRecipe)
	api.POST("/recipes/:id/favorite/", h.AddFavorite)
	api.DELETE("/recipes/:id/favorite/", h.RemoveFavorite)
	api.POST("/recipes/:id/shopping_cart/", h.AddToCart)
	api.DELETE("/recipes/:id/shopping_cart/", h.RemoveFromCart)
	api.GET("/tags/", h.ListTags)
	api.GET("/tags/:id/", h.GetTag)
	api.GET("/ingredients/", h.ListIngredients)
	api.GET("/ingredients/:id/", h.GetIngredient)
	api.POST("/users/", h.RegisterUser)
	api.GET("/users/", h.ListUsers)
	api.GET("/users/me/", h.Me)
	api.GET("/users/subscriptions/", h.ListSubscriptions)
	api.GET("/users/:id/", h.GetUser)
	api.POST("/users/:id/subscribe/", h.Subscribe)
	api.DELETE("/users/:id/subscribe/", h.Unsubscribe)
	e.r = r
	return e
}

// do sends a request as uid (0 = anonymous). Extra headers come in pairs.
func (e *env) do(method, path string, uid uint, body any, hdr ...string) *httptest.ResponseRecorder {
	e.t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if s, isRaw := body.(string); isRaw {
			buf.WriteString(s)
		} else if err := json.NewEncoder(&buf).Encode(body); err != nil {
			e.t.Fatalf("encode: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if uid != 0 {
		req.Header.Set(middleware.HeaderUserID, strconv.FormatUint(uint64(uid), 10))
	}
	for i := 0; i+1 < len(hdr); i += 2 {
		req.Header.Set(hdr[i], hdr[i+1])
	}
	w := httptest.NewRecorder()
	e.r.ServeHTTP(w, req)
	return w
}

func (e *env) recipeInput(name string, amounts ...int) map[string]any {
	ings := []map[string]any{{"id": e.salt.ID, "amount": 5}}
	if len(amounts) > 0 {
		ings = []map[string]any{{"id": e.salt.ID, "amount": amounts[0]}}
		if len(amounts) > 1 {
			ings = append(ings, map[string]any{"id": e.sugar.ID, "amount": amounts[1]})
		}
	}
	return map[string]any{
		"name":         name,
		"text":         "Mix and cook.",
		"cooking_time": 10,
		"image":        "/media/pancakes.png",
		"tags":         []uint{e.breakfast.ID},
		"ingredients":  ings,
	}
}

// mkRecipe creates a recipe through the API and returns its id.
func (e *env) mkRecipe(author uint, name string, amounts ...int) uint {
	e.t.Helper()
	w := e.do(http.MethodPost, "/api/recipes/", author, e.recipeInput(name, amounts...))
	if w.Code != http.StatusCreated {
		e.t.Fatalf("create %q: %d %s", name, w.Code, w.Body.String())
	}
	var v services.RecipeView
	decode(e.t, w, &v)
	return v.ID
}

func decode(t *testing.T, w *httptest.ResponseRecorder, dst any) {
	t.Helper()
	if err := json.Unmarshal(w.Body.Bytes(), dst); err != nil {
		t.Fatalf("json: %v; body=%s", err, w.Body.String())
	}
}

// wantError asserts status and the envelope code (and field when given).
func wantError(t *testing.T, w *httptest.ResponseRecorder, status int, code string, field ...string) ErrorResponse {
	t.Helper()
	if w.Code != status {
		t.Fatalf("status: want %d, got %d (%s)", status, w.Code, w.Body.String())
	}
	var resp ErrorResponse
	decode(t, w, &resp)
	if resp.Code != code || resp.RequestID == "" || resp.Message == "" {
		t.Fatalf("envelope: %+v", resp)
	}
	if len(field) > 0 && resp.Field != field[0] {
		t.Fatalf("field: want %q, got %q", field[0], resp.Field)
	}
	return resp
}

func itoa(id uint) string { return strconv.FormatUint(uint64(id), 10) }
