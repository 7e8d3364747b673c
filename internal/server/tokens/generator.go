// Package tokens issues and expires the opaque tokens behind sessions, email
// verification and password resets, and generates the short public ids of
// users and books.
package tokens

import (
	"context"
	"fmt"

	"github.com/norsebooks/norsebooks/internal/common"
	"github.com/norsebooks/norsebooks/internal/server/metrics"
)

const (
	// HexBytes is the entropy of hex tokens; they are twice as many characters.
	HexBytes = 32
	// BookIDLength is the length of public book ids.
	BookIDLength = 4
	// UserIDLength is the length of public user ids.
	UserIDLength = 8
)

// ExistsFunc reports whether candidate is already taken by a live row.
type ExistsFunc func(ctx context.Context, candidate string) (bool, error)

// Generator draws random identifiers and retries until one is unused.
type Generator struct {
	hex    func(size int) (string, error)
	base64 func(length int) (string, error)
}

func NewGenerator() *Generator {
	return &Generator{hex: common.MakeRandHexString, base64: common.MakeRandBase64String}
}

// NewHex returns a 64-character lowercase hex token not accepted by exists.
func (g *Generator) NewHex(ctx context.Context, exists ExistsFunc) (string, error) {
	return g.unique(ctx, exists, func() (string, error) { return g.hex(HexBytes) })
}

// NewBase64 returns a length-character id over [A-Za-z0-9_-] not accepted
// by exists.
func (g *Generator) NewBase64(ctx context.Context, length int, exists ExistsFunc) (string, error) {
	return g.unique(ctx, exists, func() (string, error) { return g.base64(length) })
}

// unique retries draw until exists rejects the value. There is no attempt
// cap; only a cancelled context or an error stops it.
func (g *Generator) unique(ctx context.Context, exists ExistsFunc, draw func() (string, error)) (string, error) {
	for {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		candidate, err := draw()
		if err != nil {
			return "", fmt.Errorf("random source: %w", err)
		}
		taken, err := exists(ctx, candidate)
		if err != nil {
			return "", err
		}
		if !taken {
			return candidate, nil
		}
		metrics.TokenCollisions.Inc()
	}
}
