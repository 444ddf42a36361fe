// Package credential persists the single bearer credential of the console.
//
// A Store holds at most one token under the fixed key "jwt_token". The token
// is opaque; stores never inspect it and never expire it.
package credential

import (
	"errors"
	"fmt"

	"github.com/autopeer-io/patrolctl/pkg/log"
	"github.com/autopeer-io/patrolctl/pkg/options"
)

// Key is the storage key of the credential slot.
const Key = "jwt_token"

var (
	// ErrNoCredential is returned by Get when the slot is empty.
	ErrNoCredential = errors.New("no credential stored")

	// ErrEmptyCredential is returned by Set for an empty token. Use Clear to
	// empty the slot.
	ErrEmptyCredential = errors.New("credential must not be empty")
)

// Store is a durable single-slot credential holder. Implementations are safe
// for concurrent use.
type Store interface {
	// Get returns the stored token, or ErrNoCredential.
	Get() (string, error)

	// Set overwrites the slot.
	Set(token string) error

	// Clear empties the slot. Clearing an empty slot succeeds.
	Clear() error

	// Close releases the underlying storage.
	Close() error
}

// Present reports whether s holds a non-empty credential. Read errors other
// than ErrNoCredential are returned.
func Present(s Store) (bool, error) {
	token, err := s.Get()
	if errors.Is(err, ErrNoCredential) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return token != "", nil
}

// Open creates the store selected by opts.
func Open(opts *options.StoreOptions, logger log.Logger) (Store, error) {
	if opts.Driver == options.StoreDriverMemory {
		return NewMemoryStore(), nil
	}

	path, err := opts.ResolvedPath()
	if err != nil {
		return nil, err
	}

	switch opts.Driver {
	case options.StoreDriverFile, "":
		return NewFileStore(path), nil
	case options.StoreDriverBadger:
		return OpenBadgerStore(path, logger)
	default:
		return nil, fmt.Errorf("unknown credential store driver %q", opts.Driver)
	}
}
