// Package services – RecipeService
//
// This file implements RecipeService, which owns recipe creation, full
// replacement updates and deletion, plus the read paths that decorate recipes
// with the viewer's favorite / shopping-cart / subscription flags.
//
// All input is validated before anything is written. The recipe row, its tag
// links and its ingredient lines are written in a single transaction; on
// update both sets are deleted and recreated.
//
// Observability: public methods are OpenTelemetry-instrumented.
package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"

	"github.com/tbourn/go-foodgram-backend/internal/domain"
	"github.com/tbourn/go-foodgram-backend/internal/observability"
	"github.com/tbourn/go-foodgram-backend/internal/repo"
	"github.com/tbourn/go-foodgram-backend/internal/storage"
	"github.com/tbourn/go-foodgram-backend/internal/validation"
)

// IngredientAmount references a catalog ingredient with the amount used.
type IngredientAmount struct {
	ID     uint `json:"id"     validate:"required"`
	Amount int  `json:"amount" validate:"max=32000"`
}

// MaxAmount caps a single ingredient amount so cart sums stay in range.
const MaxAmount = 32000

// RecipeInput is the payload for creating or replacing a recipe. Image is a
// base64 data URI; on update it may be omitted to keep the current image.
type RecipeInput struct {
	Name        string             `json:"name"         validate:"required,max=200"`
	Text        string             `json:"text"         validate:"required"`
	CookingTime int                `json:"cooking_time"`
	Image       string             `json:"image"`
	Tags        []uint             `json:"tags"         validate:"required,min=1,unique"`
	Ingredients []IngredientAmount `json:"ingredients"  validate:"dive"`
}

// RecipeQuery selects recipes for List. Boolean flags are relative to the
// viewer; an anonymous viewer asking for them gets an empty page.
type RecipeQuery struct {
	Tags             []string
	Name             string
	AuthorID         uint
	IsFavorited      bool
	IsInShoppingCart bool
}

// RecipeService implements recipe use-cases.
type RecipeService struct {
	DB     *gorm.DB
	Images storage.ImageStore // nil stores non-data-URI image values verbatim

	MinAmount      int
	MinCookingTime int
}

// NewRecipeService constructs a RecipeService with the given lower bounds.
func NewRecipeService(db *gorm.DB, images storage.ImageStore, minAmount, minCookingTime int) *RecipeService {
	if minAmount < 1 {
		minAmount = 1
	}
	if minCookingTime < 1 {
		minCookingTime = 1
	}
	return &RecipeService{DB: db, Images: images, MinAmount: minAmount, MinCookingTime: minCookingTime}
}

func (s *RecipeService) tracer() trace.Tracer { return otel.Tracer("services/RecipeService") }

// Create validates in and stores a new recipe owned by authorID.
func (s *RecipeService) Create(ctx context.Context, authorID uint, in RecipeInput) (*domain.Recipe, error) {
	ctx, span := s.tracer().Start(ctx, "Create", trace.WithAttributes(attribute.Int64("user.id", int64(authorID))))
	defer span.End()

	in = normalizeInput(in)
	if err := s.validate(in); err != nil {
		return nil, err
	}
	if strings.TrimSpace(in.Image) == "" {
		return nil, invalid("image", "image is required")
	}
	if err := s.checkReferences(ctx, in); err != nil {
		return nil, err
	}

	image, stored, err := s.storeImage(ctx, in.Image, "")
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	r := &domain.Recipe{
		AuthorID:    authorID,
		Name:        in.Name,
		Image:       image,
		Text:        in.Text,
		CookingTime: in.CookingTime,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	err = s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		taken, err := repo.RecipeNameTaken(ctx, tx, authorID, in.Name, 0)
		if err != nil {
			return err
		}
		if taken {
			return duplicateField("name", "you already have a recipe with this name")
		}
		if err := repo.CreateRecipe(ctx, tx, r); err != nil {
			if errors.Is(err, repo.ErrDuplicate) {
				return duplicateField("name", "you already have a recipe with this name")
			}
			return err
		}
		return s.writeSets(ctx, tx, r.ID, in)
	})
	if err != nil {
		s.discardImage(ctx, stored)
		return nil, err
	}
	observability.RecipeWrites.WithLabelValues("create").Inc()
	return repo.GetRecipe(ctx, s.DB, r.ID)
}

// Update replaces every field, the tag set and the ingredient lines of
// recipeID. Only the author may update; others get ErrForbidden.
func (s *RecipeService) Update(ctx context.Context, userID, recipeID uint, in RecipeInput) (*domain.Recipe, error) {
	ctx, span := s.tracer().Start(ctx, "Update", trace.WithAttributes(
		attribute.Int64("user.id", int64(userID)),
		attribute.Int64("recipe.id", int64(recipeID)),
	))
	defer span.End()

	cur, err := s.ownRecipe(ctx, userID, recipeID, "only the author can change this recipe")
	if err != nil {
		return nil, err
	}

	in = normalizeInput(in)
	if err := s.validate(in); err != nil {
		return nil, err
	}
	if err := s.checkReferences(ctx, in); err != nil {
		return nil, err
	}

	image, stored, err := s.storeImage(ctx, in.Image, cur.Image)
	if err != nil {
		return nil, err
	}

	oldImage := cur.Image
	cur.Name, cur.Text, cur.CookingTime, cur.Image = in.Name, in.Text, in.CookingTime, image
	cur.UpdatedAt = time.Now().UTC()
	err = s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		taken, err := repo.RecipeNameTaken(ctx, tx, userID, in.Name, recipeID)
		if err != nil {
			return err
		}
		if taken {
			return duplicateField("name", "you already have a recipe with this name")
		}
		if err := repo.UpdateRecipeFields(ctx, tx, cur); err != nil {
			switch {
			case errors.Is(err, repo.ErrDuplicate):
				return duplicateField("name", "you already have a recipe with this name")
			case isNotFound(err):
				return notFound("", "recipe not found")
			}
			return err
		}
		return s.writeSets(ctx, tx, recipeID, in)
	})
	if err != nil {
		s.discardImage(ctx, stored)
		return nil, err
	}
	if stored != "" {
		// The old image is no longer referenced.
		s.discardImage(ctx, oldImage)
	}
	observability.RecipeWrites.WithLabelValues("update").Inc()
	return repo.GetRecipe(ctx, s.DB, recipeID)
}

// Delete removes recipeID and everything that references it. Only the author
// may delete; others get ErrForbidden.
func (s *RecipeService) Delete(ctx context.Context, userID, recipeID uint) error {
	ctx, span := s.tracer().Start(ctx, "Delete", trace.WithAttributes(
		attribute.Int64("user.id", int64(userID)),
		attribute.Int64("recipe.id", int64(recipeID)),
	))
	defer span.End()

	cur, err := s.ownRecipe(ctx, userID, recipeID, "only the author can delete this recipe")
	if err != nil {
		return err
	}
	if err := repo.DeleteRecipe(ctx, s.DB, recipeID); err != nil {
		if isNotFound(err) {
			return notFound("", "recipe not found")
		}
		return err
	}
	s.discardImage(ctx, cur.Image)
	observability.RecipeWrites.WithLabelValues("delete").Inc()
	return nil
}

// Get returns one recipe decorated for viewerID (0 = anonymous).
func (s *RecipeService) Get(ctx context.Context, viewerID, recipeID uint) (*RecipeView, error) {
	ctx, span := s.tracer().Start(ctx, "Get", trace.WithAttributes(attribute.Int64("recipe.id", int64(recipeID))))
	defer span.End()

	r, err := repo.GetRecipe(ctx, s.DB, recipeID)
	if err != nil {
		if isNotFound(err) {
			return nil, notFound("", "recipe not found")
		}
		return nil, err
	}
	views, err := s.Views(ctx, viewerID, []domain.Recipe{*r})
	if err != nil {
		return nil, err
	}
	return &views[0], nil
}

// List returns a page of recipes matching q, newest first, and the total.
func (s *RecipeService) List(ctx context.Context, viewerID uint, q RecipeQuery, page, pageSize int) ([]RecipeView, int64, error) {
	ctx, span := s.tracer().Start(ctx, "List", trace.WithAttributes(
		attribute.Int("page", page),
		attribute.Int("page_size", pageSize),
	))
	defer span.End()

	if page < 1 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = 6
	}
	if viewerID == 0 && (q.IsFavorited || q.IsInShoppingCart) {
		return []RecipeView{}, 0, nil
	}

	f := repo.RecipeFilter{TagSlugs: q.Tags, Name: q.Name, AuthorID: q.AuthorID}
	if q.IsFavorited {
		f.FavoritedBy = viewerID
	}
	if q.IsInShoppingCart {
		f.InCartOf = viewerID
	}

	total, err := repo.CountRecipes(ctx, s.DB, f)
	if err != nil {
		return nil, 0, err
	}
	if total == 0 {
		return []RecipeView{}, 0, nil
	}
	items, err := repo.ListRecipesPage(ctx, s.DB, f, (page-1)*pageSize, pageSize)
	if err != nil {
		return nil, 0, err
	}
	views, err := s.Views(ctx, viewerID, items)
	return views, total, err
}

// Views decorates recipes with viewerID's flags using one query per flag.
func (s *RecipeService) Views(ctx context.Context, viewerID uint, recipes []domain.Recipe) ([]RecipeView, error) {
	out := make([]RecipeView, 0, len(recipes))
	if len(recipes) == 0 {
		return out, nil
	}
	fav, cart, subs := map[uint]bool{}, map[uint]bool{}, map[uint]bool{}
	if viewerID != 0 {
		ids := make([]uint, 0, len(recipes))
		authors := make([]uint, 0, len(recipes))
		for _, r := range recipes {
			ids = append(ids, r.ID)
			authors = append(authors, r.AuthorID)
		}
		var err error
		if fav, err = repo.FavoritedRecipeIDs(ctx, s.DB, viewerID, ids); err != nil {
			return nil, err
		}
		if cart, err = repo.CartRecipeIDs(ctx, s.DB, viewerID, ids); err != nil {
			return nil, err
		}
		if subs, err = repo.FollowedAuthorIDs(ctx, s.DB, viewerID, authors); err != nil {
			return nil, err
		}
	}
	for _, r := range recipes {
		out = append(out, toRecipeView(r, subs[r.AuthorID], fav[r.ID], cart[r.ID]))
	}
	return out, nil
}

// ---- internals ----

func normalizeInput(in RecipeInput) RecipeInput {
	in.Name = strings.TrimSpace(in.Name)
	in.Text = strings.TrimSpace(in.Text)
	return in
}

// validate checks everything that does not need the database, in a fixed
// order so the first failing rule is reported.
func (s *RecipeService) validate(in RecipeInput) error {
	if len(in.Ingredients) == 0 {
		return invalid("ingredients", "missing ingredients")
	}
	seen := make(map[uint]struct{}, len(in.Ingredients))
	for _, ia := range in.Ingredients {
		if ia.Amount < s.MinAmount {
			if s.MinAmount <= 1 {
				return invalid("ingredients", "amount must be greater than 0")
			}
			return invalid("ingredients", fmt.Sprintf("amount must be at least %d", s.MinAmount))
		}
		if ia.Amount > MaxAmount {
			return invalid("ingredients", fmt.Sprintf("amount must be at most %d", MaxAmount))
		}
		if _, dup := seen[ia.ID]; dup {
			return invalid("ingredients", "ingredients must be unique")
		}
		seen[ia.ID] = struct{}{}
	}
	if errs := validation.ValidateStruct(&in); errs != nil {
		first := errs.First()
		return invalid(first.Field(), first.Error())
	}
	if in.CookingTime < s.MinCookingTime {
		return invalid("cooking_time", fmt.Sprintf("cooking time must be at least %d minute(s)", s.MinCookingTime))
	}
	return nil
}

// checkReferences verifies every ingredient and tag id exists.
func (s *RecipeService) checkReferences(ctx context.Context, in RecipeInput) error {
	ids := make([]uint, 0, len(in.Ingredients))
	for _, ia := range in.Ingredients {
		ids = append(ids, ia.ID)
	}
	ings, err := repo.IngredientsByIDs(ctx, s.DB, ids)
	if err != nil {
		return err
	}
	if missing, ok := firstMissing(ids, len(ings), func(i int) uint { return ings[i].ID }); ok {
		return notFound("ingredients", fmt.Sprintf("ingredient %d not found", missing))
	}

	tags, err := repo.TagsByIDs(ctx, s.DB, in.Tags)
	if err != nil {
		return err
	}
	if missing, ok := firstMissing(in.Tags, len(tags), func(i int) uint { return tags[i].ID }); ok {
		return invalid("tags", fmt.Sprintf("tag %d does not exist", missing))
	}
	return nil
}

// firstMissing returns the first id in want that is not among the n found ids.
func firstMissing(want []uint, n int, found func(int) uint) (uint, bool) {
	have := make(map[uint]struct{}, n)
	for i := 0; i < n; i++ {
		have[found(i)] = struct{}{}
	}
	for _, id := range want {
		if _, ok := have[id]; !ok {
			return id, true
		}
	}
	return 0, false
}

func (s *RecipeService) writeSets(ctx context.Context, tx *gorm.DB, recipeID uint, in RecipeInput) error {
	if err := repo.ReplaceRecipeTags(ctx, tx, recipeID, in.Tags); err != nil {
		return err
	}
	lines := make([]domain.RecipeIngredient, 0, len(in.Ingredients))
	for _, ia := range in.Ingredients {
		lines = append(lines, domain.RecipeIngredient{IngredientID: ia.ID, Amount: ia.Amount})
	}
	if err := repo.ReplaceRecipeIngredients(ctx, tx, recipeID, lines); err != nil {
		if errors.Is(err, repo.ErrDuplicate) {
			return invalid("ingredients", "ingredients must be unique")
		}
		return err
	}
	return nil
}

func (s *RecipeService) ownRecipe(ctx context.Context, userID, recipeID uint, denied string) (*domain.Recipe, error) {
	cur, err := repo.GetRecipeRow(ctx, s.DB, recipeID)
	if err != nil {
		if isNotFound(err) {
			return nil, notFound("", "recipe not found")
		}
		return nil, err
	}
	if cur.AuthorID != userID {
		return nil, forbidden(denied)
	}
	return cur, nil
}

// storeImage resolves the image value of an input. A data URI is decoded and
// saved (stored is its new URL); an empty value keeps current; any other
// value must equal current unless no ImageStore is configured.
func (s *RecipeService) storeImage(ctx context.Context, raw, current string) (url, stored string, err error) {
	raw = strings.TrimSpace(raw)
	switch {
	case raw == "":
		return current, "", nil
	case storage.IsDataURI(raw):
		if s.Images == nil {
			return raw, "", nil
		}
		data, ct, ext, err := storage.DecodeDataURI(raw)
		if err != nil {
			return "", "", invalid("image", "image must be a base64 encoded png, jpeg, gif or webp data URI")
		}
		u, err := s.Images.Save(ctx, storage.NewKey(ext), data, ct)
		if err != nil {
			return "", "", err
		}
		return u, u, nil
	case raw == current || s.Images == nil:
		return raw, "", nil
	default:
		return "", "", invalid("image", "image must be a base64 encoded png, jpeg, gif or webp data URI")
	}
}

func (s *RecipeService) discardImage(ctx context.Context, url string) {
	if url == "" || s.Images == nil {
		return
	}
	if err := s.Images.Delete(ctx, url); err != nil {
		log.Ctx(ctx).Warn().Err(err).Str("image", url).Msg("image cleanup failed")
	}
}
