// Package services – CatalogService
//
// This file implements read access to the ingredient and tag catalog. The
// catalog changes only when seed data is loaded, so tag listings and
// ingredient searches are served through a cache that is flushed by
// Invalidate.
package services

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/tbourn/go-foodgram-backend/internal/cache"
	"github.com/tbourn/go-foodgram-backend/internal/domain"
	"github.com/tbourn/go-foodgram-backend/internal/repo"
)

const (
	cacheKeyTags          = "catalog:tags"
	cacheKeyIngredientsV  = "catalog:ingredients:v"
	cacheKeyIngredientsQ  = "catalog:ingredients:q:"
	defaultCatalogTTL     = 10 * time.Minute
	maxCachedPrefixLength = 64
)

// CatalogService serves tags and ingredients.
type CatalogService struct {
	DB    *gorm.DB
	Cache cache.Cache // nil disables caching
	TTL   time.Duration
}

// NewCatalogService wires a CatalogService; ttl <= 0 uses a default.
func NewCatalogService(db *gorm.DB, c cache.Cache, ttl time.Duration) *CatalogService {
	if ttl <= 0 {
		ttl = defaultCatalogTTL
	}
	return &CatalogService{DB: db, Cache: c, TTL: ttl}
}

// ListTags returns every tag ordered by id.
func (s *CatalogService) ListTags(ctx context.Context) ([]domain.Tag, error) {
	var out []domain.Tag
	if s.cacheGet(ctx, cacheKeyTags, &out) {
		return out, nil
	}
	out, err := repo.ListTags(ctx, s.DB)
	if err != nil {
		return nil, err
	}
	s.cacheSet(ctx, cacheKeyTags, out)
	return out, nil
}

// GetTag returns one tag.
func (s *CatalogService) GetTag(ctx context.Context, id uint) (*domain.Tag, error) {
	t, err := repo.GetTag(ctx, s.DB, id)
	if err != nil {
		if isNotFound(err) {
			return nil, notFound("", "tag not found")
		}
		return nil, err
	}
	return t, nil
}

// SearchIngredients returns ingredients whose name starts with prefix,
// case-insensitively. An empty prefix returns the whole catalog.
func (s *CatalogService) SearchIngredients(ctx context.Context, prefix string) ([]domain.Ingredient, error) {
	key := domain.SearchKey(prefix)
	cacheable := len(key) <= maxCachedPrefixLength
	ck := cacheKeyIngredientsQ + s.ingredientsVersion(ctx) + ":" + key

	var out []domain.Ingredient
	if cacheable && s.cacheGet(ctx, ck, &out) {
		return out, nil
	}
	out, err := repo.SearchIngredients(ctx, s.DB, key)
	if err != nil {
		return nil, err
	}
	if cacheable {
		s.cacheSet(ctx, ck, out)
	}
	return out, nil
}

// GetIngredient returns one ingredient.
func (s *CatalogService) GetIngredient(ctx context.Context, id uint) (*domain.Ingredient, error) {
	i, err := repo.GetIngredient(ctx, s.DB, id)
	if err != nil {
		if isNotFound(err) {
			return nil, notFound("", "ingredient not found")
		}
		return nil, err
	}
	return i, nil
}

// Invalidate drops cached catalog data. Ingredient searches are keyed by a
// version stamp, so bumping it orphans every cached prefix at once.
func (s *CatalogService) Invalidate(ctx context.Context) {
	if s.Cache == nil {
		return
	}
	if err := s.Cache.Delete(ctx, cacheKeyTags); err != nil {
		log.Ctx(ctx).Warn().Err(err).Msg("catalog cache: delete tags")
	}
	v := time.Now().UTC().Format(time.RFC3339Nano)
	if err := s.Cache.Set(ctx, cacheKeyIngredientsV, v, 0); err != nil {
		log.Ctx(ctx).Warn().Err(err).Msg("catalog cache: bump version")
	}
}

func (s *CatalogService) ingredientsVersion(ctx context.Context) string {
	var v string
	if s.Cache == nil || !s.cacheGet(ctx, cacheKeyIngredientsV, &v) {
		return "0"
	}
	return v
}

func (s *CatalogService) cacheGet(ctx context.Context, key string, dst any) bool {
	if s.Cache == nil {
		return false
	}
	ok, err := s.Cache.Get(ctx, key, dst)
	if err != nil {
		log.Ctx(ctx).Warn().Err(err).Str("key", key).Msg("catalog cache: get")
		return false
	}
	return ok
}

func (s *CatalogService) cacheSet(ctx context.Context, key string, v any) {
	if s.Cache == nil {
		return
	}
	if err := s.Cache.Set(ctx, key, v, s.TTL); err != nil {
		log.Ctx(ctx).Warn().Err(err).Str("key", key).Msg("catalog cache: set")
	}
}
