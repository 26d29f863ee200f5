package feed

import (
	"encoding/base64"
	"time"

	"github.com/anonto42/nano-midea/feedengine/internal/apperr"
	"github.com/goccy/go-json"
)

// cursor is the last-seen sort key of a page. Score is set only for trending.
type cursor struct {
	Order     Order     `json:"o"`
	Score     int64     `json:"s,omitempty"`
	CreatedAt time.Time `json:"t"`
	ID        string    `json:"i"`
}

func encodeCursor(c cursor) string {
	raw, err := json.Marshal(c)
	if err != nil {
		return ""
	}
	return base64.RawURLEncoding.EncodeToString(raw)
}

// decodeCursor parses s and checks it was issued for order. An empty s means
// the first page.
func decodeCursor(s string, order Order) (*cursor, error) {
	if s == "" {
		return nil, nil
	}
	raw, err := base64.RawURLEncoding.DecodeString(s)
	if err != nil {
		return nil, apperr.Validation("feed.cursor", "malformed cursor")
	}
	var c cursor
	if err := json.Unmarshal(raw, &c); err != nil || c.ID == "" || c.CreatedAt.IsZero() {
		return nil, apperr.Validation("feed.cursor", "malformed cursor")
	}
	if c.Order != order {
		return nil, apperr.Validation("feed.cursor", "cursor was issued for %s order", c.Order)
	}
	return &c, nil
}
