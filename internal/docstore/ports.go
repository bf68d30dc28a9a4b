// Package docstore defines the document store the application persists to:
// user-scoped collections of documents with merge writes, atomic batches and
// change subscriptions.
package docstore

import (
	"context"
	"errors"
)

var (
	ErrNotFound    = errors.New("document not found")
	ErrInvalidPath = errors.New("invalid document path")
)

type (
	// Fields is the content of a document. Values are strings, bools, int64,
	// float64, Timestamp, nested Fields, []any or nil.
	Fields map[string]any

	Document struct {
		ID     string
		Path   string
		Fields Fields
	}

	ChangeKind string

	Change struct {
		Kind ChangeKind
		Path string
		ID   string
	}

	// Snapshot is delivered to subscribers: the full collection after the
	// changes were committed. The first snapshot has no changes.
	Snapshot struct {
		Collection string
		Documents  []Document
		Changes    []Change
	}

	Listener func(Snapshot)

	// Write is one operation of a batch. Fields are merged; Delete removes the document.
	Write struct {
		Path   string
		Fields Fields
		Delete bool
	}
)

const (
	Added    ChangeKind = "added"
	Modified ChangeKind = "modified"
	Removed  ChangeKind = "removed"
)

// Store is the persistence port.
type Store interface {
	ReadCollection(ctx context.Context, collection string) ([]Document, error)
	// ReadDocument returns ok=false when the document does not exist.
	ReadDocument(ctx context.Context, path string) (doc Document, ok bool, err error)
	// WriteDocument merges fields into the document, creating it when absent.
	WriteDocument(ctx context.Context, path string, fields Fields) error
	DeleteDocument(ctx context.Context, path string) error
	AddDocument(ctx context.Context, collection string, fields Fields) (id string, err error)
	// Subscribe calls fn with a snapshot now and after every committed change
	// to the collection, until unsubscribe is called or ctx is done.
	// Bursts of changes may be coalesced into one snapshot.
	Subscribe(ctx context.Context, collection string, fn Listener) (unsubscribe func(), err error)
	// BatchWrite applies all writes atomically.
	BatchWrite(ctx context.Context, writes []Write) error
}
