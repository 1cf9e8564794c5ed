// Package clientstore persists the terminal's session credential between runs.
package clientstore

import "context"

// Keys written by the session manager.
const (
	KeyToken = "token"
	KeyUser  = "user"
)

// Store is a small string key/value store scoped to one terminal.
type Store interface {
	// Get returns the value and whether the key was present.
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string) error
	// Delete removes the keys; missing keys are not an error.
	Delete(ctx context.Context, keys ...string) error
}
