package domain

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"

	"github.com/google/uuid"
)

// MaxTokenAttempts bounds regeneration after token collisions.
const MaxTokenAttempts = 8

// TokenFunc produces a candidate linkage token.
type TokenFunc func() string

// NewToken returns an 8 character URL-safe token taken from the random part
// of a v4 UUID.
func NewToken() string {
	id := uuid.New()
	return base64.RawURLEncoding.EncodeToString(id[:6])
}

// CreateChild inserts c with a fresh token, regenerating it on collision.
func CreateChild(ctx context.Context, tx Tx, tokens TokenFunc, c *Child) error {
	if tokens == nil {
		tokens = NewToken
	}
	for attempt := 1; attempt <= MaxTokenAttempts; attempt++ {
		c.Token = tokens()
		err := tx.CreateChild(ctx, c)
		if err == nil {
			return nil
		}
		if !errors.Is(err, ErrTokenConflict) {
			return err
		}
	}
	return fmt.Errorf("create child: %w after %d attempts", ErrTokenConflict, MaxTokenAttempts)
}
