// Package directory resolves sender ids to display attributes. A chat
// must render even when a sender cannot be resolved, so resolution
// degrades to the raw id instead of failing.
package directory

import (
	"context"
	"errors"

	"github.com/rs/zerolog"
)

// ErrNotFound is returned by a Directory when no user record exists.
var ErrNotFound = errors.New("directory: user not found")

// User is a directory record, read-only to this core.
type User struct {
	DisplayName string
	PhotoURL    string
}

// Directory looks up user records by id.
type Directory interface {
	GetUser(ctx context.Context, id string) (*User, error)
}

// Sender holds the display attributes attached to a projected message.
// PhotoURL is empty when the sender could not be resolved.
type Sender struct {
	Name     string
	PhotoURL string
}

// Resolver turns sender ids into Sender values with graceful fallback.
// Resolutions of distinct ids are independent; Resolver is safe for
// concurrent use as long as the underlying Directory is.
type Resolver struct {
	dir Directory
	log *zerolog.Logger
}

// NewResolver builds a resolver over the given directory.
func NewResolver(dir Directory, logger *zerolog.Logger) *Resolver {
	return &Resolver{dir: dir, log: logger}
}

// Resolve returns the sender's display attributes. On lookup failure or a
// missing record it falls back to the raw id as the name and no photo;
// the error is logged, never surfaced.
func (r *Resolver) Resolve(ctx context.Context, senderID string) Sender {
	user, err := r.dir.GetUser(ctx, senderID)
	if err != nil {
		if !errors.Is(err, ErrNotFound) {
			r.log.Debug().Err(err).Str("sender_id", senderID).Msg("sender lookup failed")
		}
		return Sender{Name: senderID}
	}
	return Sender{Name: user.DisplayName, PhotoURL: user.PhotoURL}
}
