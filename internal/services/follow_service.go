// Package services – FollowService
//
// This file implements subscriptions between users. A user may follow an
// author at most once and never themselves; the self check runs before the
// duplicate check. Subscription listings include a preview of each author's
// recipes and their total recipe count.
package services

import (
	"context"
	"errors"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"

	"github.com/tbourn/go-foodgram-backend/internal/domain"
	"github.com/tbourn/go-foodgram-backend/internal/observability"
	"github.com/tbourn/go-foodgram-backend/internal/repo"
)

// FollowService manages subscriptions.
type FollowService struct {
	DB *gorm.DB
}

func (s *FollowService) tracer() trace.Tracer { return otel.Tracer("services/FollowService") }

func selfFollow() error {
	return &FieldError{Kind: ErrSelfFollow, Message: "cannot follow yourself"}
}

// Subscribe makes userID follow authorID and returns the author's
// subscription view, truncated to recipesLimit recipes when positive.
func (s *FollowService) Subscribe(ctx context.Context, userID, authorID uint, recipesLimit int) (*SubscriptionView, error) {
	ctx, span := s.tracer().Start(ctx, "Subscribe", trace.WithAttributes(
		attribute.Int64("user.id", int64(userID)),
		attribute.Int64("author.id", int64(authorID)),
	))
	defer span.End()

	if userID == authorID {
		return nil, selfFollow()
	}

	var author *domain.User
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		a, err := repo.GetUser(ctx, tx, authorID)
		if err != nil {
			if isNotFound(err) {
				return notFound("author", "user not found")
			}
			return err
		}
		author = a

		ok, err := repo.FollowExists(ctx, tx, userID, authorID)
		if err != nil {
			return err
		}
		if ok {
			return duplicate("already following this author")
		}
		if _, err := repo.AddFollow(ctx, tx, userID, authorID); err != nil {
			switch {
			case errors.Is(err, repo.ErrDuplicate):
				return duplicate("already following this author")
			case errors.Is(err, repo.ErrCheck):
				return selfFollow()
			}
			return err
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	observability.RelationChanges.WithLabelValues("follow", "add").Inc()

	views, err := s.views(ctx, []domain.User{*author}, recipesLimit)
	if err != nil {
		return nil, err
	}
	return &views[0], nil
}

// Unsubscribe removes the exact (userID, authorID) follow.
func (s *FollowService) Unsubscribe(ctx context.Context, userID, authorID uint) error {
	ctx, span := s.tracer().Start(ctx, "Unsubscribe", trace.WithAttributes(
		attribute.Int64("user.id", int64(userID)),
		attribute.Int64("author.id", int64(authorID)),
	))
	defer span.End()

	ok, err := repo.UserExists(ctx, s.DB, authorID)
	if err != nil {
		return err
	}
	if !ok {
		return notFound("author", "user not found")
	}
	if err := repo.RemoveFollow(ctx, s.DB, userID, authorID); err != nil {
		if isNotFound(err) {
			return notFound("", "not following this author")
		}
		return err
	}
	observability.RelationChanges.WithLabelValues("follow", "remove").Inc()
	return nil
}

// ListSubscriptions returns a page of the authors userID follows, most
// recent first, each with up to recipesLimit recipes (all when <= 0).
func (s *FollowService) ListSubscriptions(ctx context.Context, userID uint, page, pageSize, recipesLimit int) ([]SubscriptionView, int64, error) {
	ctx, span := s.tracer().Start(ctx, "ListSubscriptions", trace.WithAttributes(
		attribute.Int64("user.id", int64(userID)),
		attribute.Int("page", page),
		attribute.Int("page_size", pageSize),
		attribute.Int("recipes_limit", recipesLimit),
	))
	defer span.End()

	if page < 1 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = 6
	}
	total, err := repo.CountFollows(ctx, s.DB, userID)
	if err != nil {
		return nil, 0, err
	}
	if total == 0 {
		return []SubscriptionView{}, 0, nil
	}
	follows, err := repo.ListFollowsPage(ctx, s.DB, userID, (page-1)*pageSize, pageSize)
	if err != nil {
		return nil, 0, err
	}
	authors := make([]domain.User, 0, len(follows))
	for _, f := range follows {
		authors = append(authors, f.Author)
	}
	views, err := s.views(ctx, authors, recipesLimit)
	return views, total, err
}

func (s *FollowService) views(ctx context.Context, authors []domain.User, recipesLimit int) ([]SubscriptionView, error) {
	ids := make([]uint, 0, len(authors))
	for _, a := range authors {
		ids = append(ids, a.ID)
	}
	counts, err := repo.CountAuthorRecipes(ctx, s.DB, ids)
	if err != nil {
		return nil, err
	}
	out := make([]SubscriptionView, 0, len(authors))
	for _, a := range authors {
		recipes, err := repo.ListAuthorRecipes(ctx, s.DB, a.ID, recipesLimit)
		if err != nil {
			return nil, err
		}
		out = append(out, ToSubscriptionView(a, recipes, counts[a.ID], recipesLimit))
	}
	return out, nil
}
