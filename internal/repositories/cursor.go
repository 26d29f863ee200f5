package repositories

import (
	"encoding/base64"
	"time"

	"github.com/anonto42/nano-midea/feedengine/internal/apperr"
	"github.com/goccy/go-json"
)

type keysetToken struct {
	CreatedAt time.Time `json:"t"`
	ID        string    `json:"i"`
}

// EncodeKeyset renders k as an opaque URL-safe page token.
func EncodeKeyset(k Keyset) string {
	raw, err := json.Marshal(keysetToken{CreatedAt: k.CreatedAt, ID: k.ID})
	if err != nil {
		return ""
	}
	return base64.RawURLEncoding.EncodeToString(raw)
}

// DecodeKeyset parses a token produced by EncodeKeyset. An empty token means
// the first page and yields nil.
func DecodeKeyset(token string) (*Keyset, error) {
	if token == "" {
		return nil, nil
	}
	raw, err := base64.RawURLEncoding.DecodeString(token)
	if err != nil {
		return nil, apperr.Validation("cursor.decode", "malformed cursor")
	}
	var t keysetToken
	if err := json.Unmarshal(raw, &t); err != nil || t.ID == "" || t.CreatedAt.IsZero() {
		return nil, apperr.Validation("cursor.decode", "malformed cursor")
	}
	return &Keyset{CreatedAt: t.CreatedAt, ID: t.ID}, nil
}
