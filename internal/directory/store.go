package directory

import (
	"context"
	"errors"
	"fmt"

	"github.com/vovakirdan/roomview/internal/rtdb"
)

const usersPath = "Users"

// StoreDirectory reads user records from the realtime store, one document
// per user at Users/<id>. This is the layout the chat data itself lives in.
type StoreDirectory struct {
	store rtdb.Store
}

// NewStoreDirectory builds a directory over the given store.
func NewStoreDirectory(store rtdb.Store) *StoreDirectory {
	return &StoreDirectory{store: store}
}

// GetUser reads Users/<id> once.
func (d *StoreDirectory) GetUser(ctx context.Context, id string) (*User, error) {
	doc, err := d.store.Get(ctx, rtdb.Join(usersPath, id))
	if err != nil {
		if errors.Is(err, rtdb.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("read user %s: %w", id, err)
	}

	user := &User{}
	if name, ok := doc["displayName"].(string); ok {
		user.DisplayName = name
	}
	if photo, ok := doc["photoURL"].(string); ok {
		user.PhotoURL = photo
	}
	return user, nil
}
