package store

import (
	"encoding/base64"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/stocklite/stocklite/internal/model"
)

// ErrInvalidCursor is returned when a cursor string cannot be decoded.
var ErrInvalidCursor = errors.New("invalid cursor")

// Position is a point in the (at, id) total order.
type Position struct {
	At time.Time
	ID string
}

// PositionOf returns the ordering key of ev.
func PositionOf(ev model.Event) Position {
	return Position{At: ev.At, ID: ev.ID}
}

// EncodeCursor renders p as an opaque, URL-safe token.
// The token is base64url (unpadded) of "<unix millis>:<id>".
func EncodeCursor(p Position) string {
	raw := strconv.FormatInt(toMillis(p.At), 10) + ":" + p.ID
	return base64.RawURLEncoding.EncodeToString([]byte(raw))
}

// DecodeCursor parses a token produced by EncodeCursor.
func DecodeCursor(cursor string) (Position, error) {
	raw, err := base64.RawURLEncoding.DecodeString(cursor)
	if err != nil {
		return Position{}, fmt.Errorf("%w: %v", ErrInvalidCursor, err)
	}

	millis, id, ok := strings.Cut(string(raw), ":")
	if !ok || id == "" {
		return Position{}, fmt.Errorf("%w: malformed token", ErrInvalidCursor)
	}

	ms, err := strconv.ParseInt(millis, 10, 64)
	if err != nil {
		return Position{}, fmt.Errorf("%w: bad timestamp: %v", ErrInvalidCursor, err)
	}

	return Position{At: fromMillis(ms), ID: id}, nil
}
