// Package store is the document store: JSON blobs addressed by
// slash-namespaced keys, e.g. "interviews/<id>" or "snapshots/<id>/<sid>".
// Writes are last-writer-wins; there is no cross-key transaction.
package store

import (
	"context"
	"errors"
)

// ErrNotFound is returned by Get when no document exists for the key.
var ErrNotFound = errors.New("document not found")

type Store interface {
	// Get unmarshals the document at key into the value pointed to by into.
	Get(ctx context.Context, key string, into any) error
	// Put marshals doc and writes it at key, replacing any existing document.
	Put(ctx context.Context, key string, doc any) error
	// Delete removes the document at key. Deleting an absent key is not an error.
	Delete(ctx context.Context, key string) error
	// List returns the final key segments of the documents directly under
	// prefix, e.g. List("snapshots/abc") -> the snapshot ids for interview abc.
	List(ctx context.Context, prefix string) ([]string, error)
	// DeleteAll removes every document under prefix. Used for cascades.
	DeleteAll(ctx context.Context, prefix string) error
}
