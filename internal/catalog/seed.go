// Package catalog reads ingredient and tag seed data and loads it into the
// database. Loading is idempotent: rows that already exist are skipped, so
// the server can run it on every start.
//
// Ingredients come from CSV ("name,measurement_unit", header optional) or a
// JSON array of {"name", "measurement_unit"}; tags come from a JSON array of
// {"name", "color", "slug"}. Every row is validated before anything is
// written.
package catalog

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/tbourn/go-foodgram-backend/internal/domain"
	"github.com/tbourn/go-foodgram-backend/internal/validation"
)

// Seed file formats.
const (
	FormatCSV  = "csv"
	FormatJSON = "json"
)

// ErrFormat is returned for unknown seed formats.
var ErrFormat = errors.New("unsupported seed format")

// IngredientSeed is one ingredient row.
type IngredientSeed struct {
	Name            string `json:"name"             validate:"required,max=200"`
	MeasurementUnit string `json:"measurement_unit" validate:"required,max=200"`
}

// TagSeed is one tag row.
type TagSeed struct {
	Name  string `json:"name"  validate:"required,max=200"`
	Color string `json:"color" validate:"required,hexcolor,len=7"`
	Slug  string `json:"slug"  validate:"required,slug,max=200"`
}

// RowError reports an invalid seed row. Row is 1-based and counts data rows
// only (a CSV header is not a row).
type RowError struct {
	Row     int
	Field   string
	Message string
}

func (e *RowError) Error() string {
	return fmt.Sprintf("row %d: %s", e.Row, e.Message)
}

// ----------------------------------------------------------------------------
// Options

type Option func(*config)

type config struct {
	skipInvalid bool
	maxRows     int
}

func defaultConfig() config {
	return config{}
}

// WithSkipInvalid drops invalid rows instead of failing the whole file.
func WithSkipInvalid() Option {
	return func(c *config) { c.skipInvalid = true }
}

// WithMaxRows stops reading after n valid rows (n <= 0 is ignored).
func WithMaxRows(n int) Option {
	return func(c *config) {
		if n > 0 {
			c.maxRows = n
		}
	}
}

// ----------------------------------------------------------------------------
// Readers

// FormatFromPath infers a seed format from the file extension.
func FormatFromPath(path string) (string, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		return FormatCSV, nil
	case ".json":
		return FormatJSON, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrFormat, filepath.Ext(path))
	}
}

// ReadIngredientsFile reads ingredients from path, choosing the format by
// extension.
func ReadIngredientsFile(path string, opts ...Option) ([]domain.Ingredient, error) {
	format, err := FormatFromPath(path)
	if err != nil {
		return nil, err
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return ReadIngredients(bytes.NewReader(b), format, opts...)
}

// ReadIngredients parses ingredient rows from r in the given format.
// Duplicate (name, unit) pairs keep their first occurrence.
func ReadIngredients(r io.Reader, format string, opts ...Option) ([]domain.Ingredient, error) {
	cfg := defaultConfig()
	for _, o := range opts {
		o(&cfg)
	}

	var rows []IngredientSeed
	switch format {
	case FormatCSV:
		var err error
		if rows, err = readIngredientCSV(r); err != nil {
			return nil, err
		}
	case FormatJSON:
		if err := json.NewDecoder(r).Decode(&rows); err != nil {
			return nil, fmt.Errorf("decode ingredients: %w", err)
		}
	default:
		return nil, fmt.Errorf("%w: %q", ErrFormat, format)
	}

	out := make([]domain.Ingredient, 0, len(rows))
	seen := make(map[[2]string]struct{}, len(rows))
	for i, row := range rows {
		row.Name = strings.TrimSpace(row.Name)
		row.MeasurementUnit = strings.TrimSpace(row.MeasurementUnit)
		if err := check(&row, i+1); err != nil {
			if cfg.skipInvalid {
				continue
			}
			return nil, err
		}
		k := [2]string{row.Name, row.MeasurementUnit}
		if _, dup := seen[k]; dup {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, domain.Ingredient{Name: row.Name, MeasurementUnit: row.MeasurementUnit})
		if cfg.maxRows > 0 && len(out) >= cfg.maxRows {
			break
		}
	}
	return out, nil
}

func readIngredientCSV(r io.Reader) ([]IngredientSeed, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	var rows []IngredientSeed
	first := true
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read ingredients csv: %w", err)
		}
		if first {
			first = false
			if len(rec) >= 1 && strings.EqualFold(strings.TrimSpace(rec[0]), "name") {
				continue
			}
		}
		var row IngredientSeed
		if len(rec) > 0 {
			row.Name = rec[0]
		}
		if len(rec) > 1 {
			row.MeasurementUnit = rec[1]
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// ReadTagsFile reads tags from a JSON file.
func ReadTagsFile(path string, opts ...Option) ([]domain.Tag, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return ReadTags(bytes.NewReader(b), opts...)
}

// ReadTags parses a JSON array of tags. Colors are upper-cased; rows that
// repeat an earlier slug are dropped.
func ReadTags(r io.Reader, opts ...Option) ([]domain.Tag, error) {
	cfg := defaultConfig()
	for _, o := range opts {
		o(&cfg)
	}

	var rows []TagSeed
	if err := json.NewDecoder(r).Decode(&rows); err != nil {
		return nil, fmt.Errorf("decode tags: %w", err)
	}
	out := make([]domain.Tag, 0, len(rows))
	seen := make(map[string]struct{}, len(rows))
	for i, row := range rows {
		row.Name = strings.TrimSpace(row.Name)
		row.Color = strings.ToUpper(strings.TrimSpace(row.Color))
		row.Slug = strings.TrimSpace(row.Slug)
		if err := check(&row, i+1); err != nil {
			if cfg.skipInvalid {
				continue
			}
			return nil, err
		}
		if _, dup := seen[row.Slug]; dup {
			continue
		}
		seen[row.Slug] = struct{}{}
		out = append(out, domain.Tag{Name: row.Name, Color: row.Color, Slug: row.Slug})
		if cfg.maxRows > 0 && len(out) >= cfg.maxRows {
			break
		}
	}
	return out, nil
}

func check(row any, n int) error {
	errs := validation.ValidateStruct(row)
	if errs == nil {
		return nil
	}
	first := errs.First()
	return &RowError{Row: n, Field: first.Field(), Message: first.Error()}
}
