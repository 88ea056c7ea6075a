// Package storage defines the opaque key-value persistence boundary. Keys are
// namespaced per user and per concern; values are opaque byte slices owned by
// the calling component.
package storage

import "errors"

var (
	ErrKeyNotFound = errors.New("key not found")
	ErrStoreClosed = errors.New("store is closed")
	ErrWriteFailed = errors.New("store write failed")
)

// Store is the persistence contract. Get returns ErrKeyNotFound for absent
// keys; callers that treat absence as a valid empty state check for it with
// errors.Is.
type Store interface {
	Get(key string) ([]byte, error)
	Set(key string, value []byte) error
	Delete(key string) error
	// List returns all keys with the given prefix.
	List(prefix string) ([]string, error)
	Close() error
}

// Key namespaces. The exact names are an implementation detail, not a
// compatibility surface.
const (
	collectionPrefix = "collection:"
	watchlistPrefix  = "watchlist:"
	badgesPrefix     = "badges:"
)

// CollectionKey returns the key holding a user's film collection.
func CollectionKey(userID string) string { return collectionPrefix + userID }

// WatchlistKey returns the key holding a user's watchlist.
func WatchlistKey(userID string) string { return watchlistPrefix + userID }

// BadgesKey returns the key holding a user's badge progress table.
func BadgesKey(userID string) string { return badgesPrefix + userID }

// WatchlistPrefix is used to enumerate all users' watchlists.
func WatchlistPrefix() string { return watchlistPrefix }
