// Package services – ShoppingService
//
// This file implements the shopping-list aggregation: the total amount of
// every (ingredient, unit) pair across the recipes in a user's cart, and its
// rendering as a downloadable document.
package services

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"

	"github.com/tbourn/go-foodgram-backend/internal/domain"
	"github.com/tbourn/go-foodgram-backend/internal/observability"
	"github.com/tbourn/go-foodgram-backend/internal/repo"
)

// Shopping list formats.
const (
	FormatTXT  = "txt"
	FormatCSV  = "csv"
	FormatJSON = "json"
)

// ShoppingListTitle heads the plain-text document.
const ShoppingListTitle = "Shopping list"

// Document is a rendered shopping list ready to be sent as an attachment.
type Document struct {
	Body        []byte
	ContentType string
	Filename    string
}

// ShoppingService aggregates and renders shopping lists.
type ShoppingService struct {
	DB *gorm.DB
}

// Aggregate returns userID's shopping list ordered by ingredient name, then
// unit. An empty cart yields an empty slice.
func (s *ShoppingService) Aggregate(ctx context.Context, userID uint) ([]domain.ShoppingLine, error) {
	ctx, span := otel.Tracer("services/ShoppingService").Start(ctx, "Aggregate",
		trace.WithAttributes(attribute.Int64("user.id", int64(userID))),
	)
	defer span.End()

	lines, err := repo.AggregateCart(ctx, s.DB, userID)
	if err != nil {
		return nil, err
	}
	span.SetAttributes(attribute.Int("lines", len(lines)))
	return lines, nil
}

// Stats returns the cart size and the latest change time, for ETags.
func (s *ShoppingService) Stats(ctx context.Context, userID uint) (int64, *time.Time, error) {
	return repo.CartStats(ctx, s.DB, userID)
}

// Download aggregates userID's cart and renders it in format.
func (s *ShoppingService) Download(ctx context.Context, userID uint, format string) (*Document, error) {
	lines, err := s.Aggregate(ctx, userID)
	if err != nil {
		return nil, err
	}
	doc, err := Render(lines, format)
	if err != nil {
		return nil, err
	}
	observability.ShoppingListExports.WithLabelValues(strings.ToLower(strings.TrimSpace(format))).Inc()
	return doc, nil
}

// ParseFormat normalizes a format name; empty means txt.
func ParseFormat(format string) (string, error) {
	switch f := strings.ToLower(strings.TrimSpace(format)); f {
	case "", FormatTXT:
		return FormatTXT, nil
	case FormatCSV, FormatJSON:
		return f, nil
	default:
		return "", invalid("format", "format must be one of: txt, csv, json")
	}
}

// Render formats lines as a document:
//
//	txt:  a title followed by "N. name (unit) - amount" lines
//	csv:  header "name,measurement_unit,amount" then one row per line
//	json: an array of {name, measurement_unit, amount}
func Render(lines []domain.ShoppingLine, format string) (*Document, error) {
	f, err := ParseFormat(format)
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	doc := &Document{Filename: "shopping_list." + f}

	switch f {
	case FormatTXT:
		doc.ContentType = "text/plain; charset=utf-8"
		buf.WriteString(ShoppingListTitle + "\n\n")
		for i, l := range lines {
			fmt.Fprintf(&buf, "%d. %s (%s) - %d\n", i+1, l.Name, l.MeasurementUnit, l.Amount)
		}
	case FormatCSV:
		doc.ContentType = "text/csv; charset=utf-8"
		w := csv.NewWriter(&buf)
		_ = w.Write([]string{"name", "measurement_unit", "amount"})
		for _, l := range lines {
			_ = w.Write([]string{l.Name, l.MeasurementUnit, strconv.FormatInt(l.Amount, 10)})
		}
		w.Flush()
		if err := w.Error(); err != nil {
			return nil, err
		}
	case FormatJSON:
		doc.ContentType = "application/json; charset=utf-8"
		if lines == nil {
			lines = []domain.ShoppingLine{}
		}
		if err := json.NewEncoder(&buf).Encode(lines); err != nil {
			return nil, err
		}
	}
	doc.Body = buf.Bytes()
	return doc, nil
}
