// Package storage persists recipe images. Clients upload images inline as
// base64 data URIs; the decoded bytes are written to an ImageStore which
// returns the public URL saved on the recipe.
package storage

import (
	"context"
	"encoding/base64"
	"errors"
	"path"
	"strings"

	"github.com/google/uuid"
)

// ErrInvalidImage is returned for malformed or unsupported data URIs.
var ErrInvalidImage = errors.New("invalid image")

// ImageStore writes and removes image objects.
type ImageStore interface {
	// Save writes data under key and returns the public URL.
	Save(ctx context.Context, key string, data []byte, contentType string) (string, error)
	// Delete removes the object previously returned by Save. Unknown URLs
	// are ignored.
	Delete(ctx context.Context, url string) error
}

// supported image types and their file extensions
var imageTypes = map[string]string{
	"image/png":  ".png",
	"image/jpeg": ".jpg",
	"image/jpg":  ".jpg",
	"image/gif":  ".gif",
	"image/webp": ".webp",
}

// IsDataURI reports whether s looks like a data URI.
func IsDataURI(s string) bool {
	return strings.HasPrefix(strings.TrimSpace(s), "data:")
}

// DecodeDataURI parses "data:image/png;base64,<payload>" and returns the
// decoded bytes with their content type and file extension.
func DecodeDataURI(s string) (data []byte, contentType, ext string, err error) {
	s = strings.TrimSpace(s)
	header, payload, ok := strings.Cut(s, ",")
	if !ok || !strings.HasPrefix(header, "data:") {
		return nil, "", "", ErrInvalidImage
	}
	meta := strings.TrimPrefix(header, "data:")
	mediaType, params, _ := strings.Cut(meta, ";")
	if params != "base64" {
		return nil, "", "", ErrInvalidImage
	}
	contentType = strings.ToLower(mediaType)
	ext, ok = imageTypes[contentType]
	if !ok {
		return nil, "", "", ErrInvalidImage
	}

	data, err = base64.StdEncoding.DecodeString(payload)
	if err != nil {
		// some clients strip padding
		if data, err = base64.RawStdEncoding.DecodeString(payload); err != nil {
			return nil, "", "", ErrInvalidImage
		}
	}
	if len(data) == 0 {
		return nil, "", "", ErrInvalidImage
	}
	return data, contentType, ext, nil
}

// NewKey returns a fresh object key for a recipe image.
func NewKey(ext string) string {
	return path.Join("recipes", "images", uuid.NewString()+ext)
}
