// Package services – UserService
//
// This file implements user profile registration and the user read paths.
// Authentication is handled outside this service; it only stores profiles
// and decorates them with the viewer's subscription flag.
package services

import (
	"context"
	"errors"
	"strings"

	"gorm.io/gorm"

	"github.com/tbourn/go-foodgram-backend/internal/domain"
	"github.com/tbourn/go-foodgram-backend/internal/repo"
	"github.com/tbourn/go-foodgram-backend/internal/validation"
)

// UserRepo defines the repository contract required by UserService.
type UserRepo interface {
	// CreateUser inserts a user; ErrDuplicate when email or username is taken.
	CreateUser(ctx context.Context, db *gorm.DB, u *domain.User) error

	// GetUser fetches a user by id.
	GetUser(ctx context.Context, db *gorm.DB, id uint) (*domain.User, error)

	// CountUsers returns the number of users for pagination.
	CountUsers(ctx context.Context, db *gorm.DB) (int64, error)

	// ListUsersPage returns a page of users ordered by id.
	ListUsersPage(ctx context.Context, db *gorm.DB, offset, limit int) ([]domain.User, error)

	// FollowedAuthorIDs returns which of authorIDs the user follows.
	FollowedAuthorIDs(ctx context.Context, db *gorm.DB, userID uint, authorIDs []uint) (map[uint]bool, error)
}

// UserInput is the registration payload.
type UserInput struct {
	Email     string `json:"email"      validate:"required,email,max=254"`
	Username  string `json:"username"   validate:"required,max=150,username"`
	FirstName string `json:"first_name" validate:"required,max=150"`
	LastName  string `json:"last_name"  validate:"required,max=150"`
}

// UserService provides user registration and lookup.
type UserService struct {
	DB   *gorm.DB
	Repo UserRepo
}

// NewUserService constructs a UserService.
func NewUserService(db *gorm.DB, r UserRepo) *UserService {
	return &UserService{DB: db, Repo: r}
}

// Register validates in and stores a new user profile.
func (s *UserService) Register(ctx context.Context, in UserInput) (*UserView, error) {
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))
	in.Username = strings.TrimSpace(in.Username)
	in.FirstName = strings.TrimSpace(in.FirstName)
	in.LastName = strings.TrimSpace(in.LastName)
	if errs := validation.ValidateStruct(&in); errs != nil {
		first := errs.First()
		return nil, invalid(first.Field(), first.Error())
	}

	u := &domain.User{Email: in.Email, Username: in.Username, FirstName: in.FirstName, LastName: in.LastName}
	if err := s.Repo.CreateUser(ctx, s.DB, u); err != nil {
		if errors.Is(err, repo.ErrDuplicate) {
			return nil, duplicate("a user with this email or username already exists")
		}
		return nil, err
	}
	v := ToUserView(*u, false)
	return &v, nil
}

// Get returns user id as seen by viewerID (0 = anonymous).
func (s *UserService) Get(ctx context.Context, viewerID, id uint) (*UserView, error) {
	u, err := s.Repo.GetUser(ctx, s.DB, id)
	if err != nil {
		if isNotFound(err) {
			return nil, notFound("", "user not found")
		}
		return nil, err
	}
	views, err := s.decorate(ctx, viewerID, []domain.User{*u})
	if err != nil {
		return nil, err
	}
	return &views[0], nil
}

// ListPage returns a page of users as seen by viewerID and the total.
func (s *UserService) ListPage(ctx context.Context, viewerID uint, page, pageSize int) ([]UserView, int64, error) {
	if page < 1 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = 6
	}
	total, err := s.Repo.CountUsers(ctx, s.DB)
	if err != nil {
		return nil, 0, err
	}
	if total == 0 {
		return []UserView{}, 0, nil
	}
	users, err := s.Repo.ListUsersPage(ctx, s.DB, (page-1)*pageSize, pageSize)
	if err != nil {
		return nil, 0, err
	}
	views, err := s.decorate(ctx, viewerID, users)
	return views, total, err
}

func (s *UserService) decorate(ctx context.Context, viewerID uint, users []domain.User) ([]UserView, error) {
	subs := map[uint]bool{}
	if viewerID != 0 && len(users) > 0 {
		ids := make([]uint, 0, len(users))
		for _, u := range users {
			ids = append(ids, u.ID)
		}
		var err error
		if subs, err = s.Repo.FollowedAuthorIDs(ctx, s.DB, viewerID, ids); err != nil {
			return nil, err
		}
	}
	out := make([]UserView, 0, len(users))
	for _, u := range users {
		out = append(out, ToUserView(u, subs[u.ID]))
	}
	return out, nil
}
