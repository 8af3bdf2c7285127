// Package feed holds the pagination cursor shared by feed-shaped reads. A
// FeedEntry itself lives only in the cache.
package feed

import (
	"encoding/base64"
	"strconv"
	"strings"

	"instafeed/internal/core/apperr"
)

const cursorPrefix = "o:"

// EncodeCursor returns the opaque cursor for offset.
func EncodeCursor(offset int) string {
	return base64.RawURLEncoding.EncodeToString([]byte(cursorPrefix + strconv.Itoa(offset)))
}

// DecodeCursor parses a cursor from EncodeCursor. The empty cursor is offset 0.
func DecodeCursor(cursor string) (int, error) {
	if cursor == "" {
		return 0, nil
	}
	raw, err := base64.RawURLEncoding.DecodeString(cursor)
	if err != nil || !strings.HasPrefix(string(raw), cursorPrefix) {
		return 0, apperr.Invalid("cursor", "malformed cursor")
	}
	offset, err := strconv.Atoi(strings.TrimPrefix(string(raw), cursorPrefix))
	if err != nil || offset < 0 {
		return 0, apperr.Invalid("cursor", "malformed cursor")
	}
	return offset, nil
}
