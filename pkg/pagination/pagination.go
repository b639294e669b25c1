// Package pagination implements the opaque keyset cursors used by the
// catalog, order, and vendor listings. A cursor pins the (created_at, id)
// position of the last row served, so pages stay stable while new rows land.
package pagination

import (
	"encoding/base64"
	"strings"
	"time"

	"github.com/google/uuid"

	pkgerrors "github.com/solmart/solmart-backend/pkg/errors"
)

const (
	// DefaultLimit applies when a listing request names no page size.
	DefaultLimit = 25
	// MaxLimit bounds a single page regardless of what the client asks for.
	MaxLimit = 100
)

// Params carries the page size and opaque cursor a caller supplied.
type Params struct {
	Limit  int
	Cursor string
}

// Cursor is the keyset position of the last row already served. Listings
// order by (created_at, id) descending; the id breaks timestamp ties.
type Cursor struct {
	CreatedAt time.Time
	ID        uuid.UUID
}

// NormalizeLimit clamps the requested page size, substituting DefaultLimit
// for zero or negative values.
func NormalizeLimit(limit int) int {
	if limit <= 0 {
		return DefaultLimit
	}
	if limit > MaxLimit {
		return MaxLimit
	}
	return limit
}

// LimitWithBuffer asks for one row beyond the page so repositories can tell
// whether another page exists without a count query.
func LimitWithBuffer(limit int) int {
	return NormalizeLimit(limit) + 1
}

// EncodeCursor serializes the keyset position into a token safe to place in
// a query string without escaping.
func EncodeCursor(cursor Cursor) string {
	payload := cursor.CreatedAt.UTC().Format(time.RFC3339Nano) + "|" + cursor.ID.String()
	return base64.RawURLEncoding.EncodeToString([]byte(payload))
}

// ParseCursor reverses EncodeCursor. An empty value means the first page and
// yields a nil cursor. Cursors only ever come from our own responses, so
// anything malformed is a client error, not a server fault.
func ParseCursor(value string) (*Cursor, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil, nil
	}

	decoded, err := base64.RawURLEncoding.DecodeString(value)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "malformed pagination cursor")
	}
	stamp, rawID, ok := strings.Cut(string(decoded), "|")
	if !ok {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "malformed pagination cursor")
	}

	createdAt, err := time.Parse(time.RFC3339Nano, stamp)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "pagination cursor carries a bad timestamp")
	}
	id, err := uuid.Parse(rawID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "pagination cursor carries a bad id")
	}
	return &Cursor{CreatedAt: createdAt, ID: id}, nil
}
