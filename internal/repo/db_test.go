package repo

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"gorm.io/gorm"

	"github.com/tbourn/go-foodgram-backend/internal/config"
	"github.com/tbourn/go-foodgram-backend/internal/domain"
)

func TestOpenSQLite_ErrorOnBadPath(t *testing.T) {
	base := t.TempDir()
	bad := filepath.Join(base, "does-not-exist", "app.db")

	db, err := OpenSQLite(bad)
	if err == nil || db != nil {
		t.Fatalf("expected error opening %q, got db=%v err=%v", bad, db, err)
	}

	// Be tolerant across platforms/drivers:
	// - Windows: *os.PathError ("CreateFile ... cannot find the file specified")
	// - SQLite:  "unable to open database file" / "out of memory (14)"
	// - Unix:    "no such file or directory"
	lower := strings.ToLower(err.Error())
	if !(os.IsNotExist(err) ||
		strings.Contains(lower, "unable to open database file") ||
		strings.Contains(lower, "no such file or directory") ||
		strings.Contains(lower, "out of memory")) {
		t.Fatalf("unexpected error opening %q: %v", bad, err)
	}
}

func TestOpenSQLite_SetsPragmas_Pool_AndAutoMigrate(t *testing.T) {
	tmp := t.TempDir()
	path := filepath.Join(tmp, "app.db")

	db, err := OpenSQLite(path)
	if err != nil {
		t.Fatalf("OpenSQLite: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("db.DB(): %v", err)
	}
	t.Cleanup(func() { _ = sqlDB.Close() })

	// --- Verify PRAGMAs set by OpenSQLite ---
	var (
		journalMode string
		syncVal     int
		fkOn        int
		busyMS      int
	)

	if err := db.Raw("PRAGMA journal_mode;").Row().Scan(&journalMode); err != nil {
		t.Fatalf("PRAGMA journal_mode: %v", err)
	}
	if strings.ToLower(journalMode) != "wal" {
		t.Fatalf("expected journal_mode=wal, got %q", journalMode)
	}

	if err := db.Raw("PRAGMA synchronous;").Row().Scan(&syncVal); err != nil {
		t.Fatalf("PRAGMA synchronous: %v", err)
	}
	// NORMAL == 1
	if syncVal != 1 {
		t.Fatalf("expected synchronous=1 (NORMAL), got %d", syncVal)
	}

	if err := db.Raw("PRAGMA foreign_keys;").Row().Scan(&fkOn); err != nil {
		t.Fatalf("PRAGMA foreign_keys: %v", err)
	}
	if fkOn != 1 {
		t.Fatalf("expected foreign_keys=1, got %d", fkOn)
	}

	if err := db.Raw("PRAGMA busy_timeout;").Row().Scan(&busyMS); err != nil {
		t.Fatalf("PRAGMA busy_timeout: %v", err)
	}
	if busyMS != 5000 {
		t.Fatalf("expected busy_timeout=5000, got %d", busyMS)
	}

	// --- Verify pool tuning applied ---
	if stats := sqlDB.Stats(); stats.MaxOpenConnections != 10 {
		t.Fatalf("expected MaxOpenConnections=10, got %d", stats.MaxOpenConnections)
	}

	// --- AutoMigrate should create all tables ---
	if err := AutoMigrate(db); err != nil {
		t.Fatalf("AutoMigrate: %v", err)
	}
	m := db.Migrator()
	for _, tbl := range []any{
		&domain.User{}, &domain.Ingredient{}, &domain.Tag{}, &domain.Recipe{},
		&domain.RecipeIngredient{}, &domain.Favorite{}, &domain.Cart{}, &domain.Follow{}, &domain.Idempotency{},
	} {
		if !m.HasTable(tbl) {
			t.Fatalf("expected table for %T to exist", tbl)
		}
	}
	if !m.HasTable("recipe_tags") {
		t.Fatalf("expected join table recipe_tags to exist")
	}

	// Quick insert round-trip to prove schema is usable.
	u := &domain.User{Email: "a@b.c", Username: "ab"}
	if err := db.Create(u).Error; err != nil {
		t.Fatalf("insert user: %v", err)
	}
	now := time.Now().UTC()
	r := &domain.Recipe{AuthorID: u.ID, Name: "Soup", Image: "x", Text: "t", CookingTime: 5, CreatedAt: now, UpdatedAt: now}
	if err := db.Create(r).Error; err != nil {
		t.Fatalf("insert recipe: %v", err)
	}
	var got domain.Recipe
	if err := db.First(&got, r.ID).Error; err != nil || got.AuthorID != u.ID {
		t.Fatalf("readback recipe failed: err=%v got=%+v", err, got)
	}
}

func TestOpen_DispatchesOnDriver(t *testing.T) {
	path := filepath.Join(t.TempDir(), "app.db")
	db, err := Open(config.Config{DBDriver: "sqlite", DBPath: path})
	if err != nil || db == nil {
		t.Fatalf("Open sqlite: db=%v err=%v", db, err)
	}
	if sqlDB, err := db.DB(); err == nil {
		_ = sqlDB.Close()
	}

	if _, err := Open(config.Config{DBDriver: "mysql"}); err == nil || !strings.Contains(err.Error(), "unsupported") {
		t.Fatalf("expected unsupported driver error, got %v", err)
	}
}

func TestUseTracing_RegistersPlugin(t *testing.T) {
	db := newTestDB(t)
	if err := UseTracing(db); err != nil {
		t.Fatalf("UseTracing: %v", err)
	}
	if _, ok := db.Config.Plugins["otelgorm"]; !ok {
		t.Fatalf("expected otelgorm plugin registered, got %v", db.Config.Plugins)
	}
	// Queries still work with the plugin in place and no tracer provider.
	if _, err := CountUsers(context.Background(), db); err != nil {
		t.Fatalf("count after tracing: %v", err)
	}
}

// Compile-time guard to ensure signature stability.
var _ func(string) (*gorm.DB, error) = OpenSQLite
