package catalog

import (
	"context"
	"errors"
	"io/fs"

	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/tbourn/go-foodgram-backend/internal/repo"
)

// Result counts the rows a Load call inserted.
type Result struct {
	Ingredients int64
	Tags        int64
}

// Changed reports whether anything was inserted.
func (r Result) Changed() bool { return r.Ingredients > 0 || r.Tags > 0 }

// Load reads the seed files and inserts rows that do not exist yet. An empty
// path skips that file; so does a path that does not exist, which is logged.
func Load(ctx context.Context, db *gorm.DB, ingredientsPath, tagsPath string, opts ...Option) (Result, error) {
	var res Result
	log := zerolog.Ctx(ctx)

	if ingredientsPath != "" {
		items, err := ReadIngredientsFile(ingredientsPath, opts...)
		switch {
		case errors.Is(err, fs.ErrNotExist):
			log.Warn().Str("path", ingredientsPath).Msg("ingredients seed file not found")
		case err != nil:
			return res, err
		default:
			n, err := repo.UpsertIngredients(ctx, db, items)
			if err != nil {
				return res, err
			}
			res.Ingredients = n
			log.Info().Str("path", ingredientsPath).Int("rows", len(items)).Int64("inserted", n).Msg("ingredients loaded")
		}
	}

	if tagsPath != "" {
		items, err := ReadTagsFile(tagsPath, opts...)
		switch {
		case errors.Is(err, fs.ErrNotExist):
			log.Warn().Str("path", tagsPath).Msg("tags seed file not found")
		case err != nil:
			return res, err
		default:
			n, err := repo.UpsertTags(ctx, db, items)
			if err != nil {
				return res, err
			}
			res.Tags = n
			log.Info().Str("path", tagsPath).Int("rows", len(items)).Int64("inserted", n).Msg("tags loaded")
		}
	}
	return res, nil
}
