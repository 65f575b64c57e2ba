package slug

import (
	"context"
	"fmt"
	"go-newsroom/internal/apperr"
	"time"
)

// Mode selects the collision policy.
type Mode int

const (
	// Strict rejects a colliding slug with a Conflict error.
	Strict Mode = iota
	// Permissive appends a numeric disambiguator until the slug is free.
	Permissive
)

func (m Mode) String() string {
	if m == Permissive {
		return "permissive"
	}
	return "strict"
}

// ExistsFunc reports whether slug is taken within the entity type. Callers
// renaming an existing row must exclude that row themselves.
type ExistsFunc func(ctx context.Context, slug string) (bool, error)

// maxAttempts bounds the disambiguation loop in permissive mode.
const maxAttempts = 50

// Allocator assigns slugs under one collision policy.
type Allocator struct {
	Mode Mode
	// Now supplies the disambiguator base; it defaults to time.Now.
	Now func() time.Time
}

// New returns an Allocator for mode.
func New(mode Mode) *Allocator {
	return &Allocator{Mode: mode, Now: time.Now}
}

// Allocate returns a unique slug for raw. Given the same existing slugs it
// always yields the same result in strict mode; permissive mode only departs
// from Normalize(raw) when that slug is taken.
func (a *Allocator) Allocate(ctx context.Context, raw string, exists ExistsFunc) (string, error) {
	base := Normalize(raw)
	if base == "" {
		return "", apperr.Validation("%q does not contain any letters or digits to build a slug from", raw)
	}

	taken, err := exists(ctx, base)
	if err != nil {
		return "", apperr.Internal(err, "failed to check slug availability")
	}
	if !taken {
		return base, nil
	}
	if a.Mode == Strict {
		return "", apperr.Conflict("slug %q already exists", base)
	}
	return a.disambiguate(ctx, base, exists)
}

// Rename recomputes the slug only when the title actually changed. The exists
// func must exclude the row being renamed.
func (a *Allocator) Rename(ctx context.Context, current, oldTitle, newTitle string, exists ExistsFunc) (string, error) {
	if newTitle == oldTitle {
		return current, nil
	}
	if Normalize(newTitle) == current {
		return current, nil
	}
	return a.Allocate(ctx, newTitle, exists)
}

// disambiguate appends a millisecond timestamp, bumping it until free, so that
// suffixes increase monotonically.
func (a *Allocator) disambiguate(ctx context.Context, base string, exists ExistsFunc) (string, error) {
	now := a.Now
	if now == nil {
		now = time.Now
	}
	suffix := now().UnixMilli()
	for i := 0; i < maxAttempts; i++ {
		candidate := fmt.Sprintf("%s-%d", base, suffix+int64(i))
		taken, err := exists(ctx, candidate)
		if err != nil {
			return "", apperr.Internal(err, "failed to check slug availability")
		}
		if !taken {
			return candidate, nil
		}
	}
	return "", apperr.Conflict("could not find a free slug for %q", base)
}
