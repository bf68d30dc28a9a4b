// Package memory is an in-process document store used for development and tests.
package memory

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"carteira/internal/docstore"

	"github.com/google/uuid"
)

type Store struct {
	mu   sync.Mutex
	docs map[string]docstore.Fields

	notifier *docstore.Notifier
}

func New() *Store {
	s := &Store{docs: map[string]docstore.Fields{}}
	s.notifier = docstore.NewNotifier(s.ReadCollection)
	return s
}

// ReadCollection returns the direct children of collection ordered by id.
func (s *Store) ReadCollection(_ context.Context, collection string) ([]docstore.Document, error) {
	if err := docstore.ValidateCollection(collection); err != nil {
		return nil, err
	}
	prefix := strings.Trim(collection, "/") + "/"

	s.mu.Lock()
	defer s.mu.Unlock()
	var out []docstore.Document
	for path, fields := range s.docs {
		id, ok := strings.CutPrefix(path, prefix)
		if !ok || strings.Contains(id, "/") {
			continue
		}
		out = append(out, docstore.Document{ID: id, Path: path, Fields: docstore.Clone(fields)})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *Store) ReadDocument(_ context.Context, path string) (docstore.Document, bool, error) {
	_, id, err := docstore.SplitPath(path)
	if err != nil {
		return docstore.Document{}, false, err
	}
	path = strings.Trim(path, "/")

	s.mu.Lock()
	defer s.mu.Unlock()
	fields, ok := s.docs[path]
	if !ok {
		return docstore.Document{}, false, nil
	}
	return docstore.Document{ID: id, Path: path, Fields: docstore.Clone(fields)}, true, nil
}

func (s *Store) WriteDocument(ctx context.Context, path string, fields docstore.Fields) error {
	return s.BatchWrite(ctx, []docstore.Write{{Path: path, Fields: fields}})
}

func (s *Store) DeleteDocument(ctx context.Context, path string) error {
	return s.BatchWrite(ctx, []docstore.Write{{Path: path, Delete: true}})
}

func (s *Store) AddDocument(ctx context.Context, collection string, fields docstore.Fields) (string, error) {
	if err := docstore.ValidateCollection(collection); err != nil {
		return "", err
	}
	id := uuid.NewString()
	if err := s.WriteDocument(ctx, strings.Trim(collection, "/")+"/"+id, fields); err != nil {
		return "", err
	}
	return id, nil
}

// BatchWrite validates every path before touching state, so either all
// writes apply or none do.
func (s *Store) BatchWrite(_ context.Context, writes []docstore.Write) error {
	paths := make([]string, len(writes))
	for i, w := range writes {
		if _, _, err := docstore.SplitPath(w.Path); err != nil {
			return fmt.Errorf("batch write %d: %w", i, err)
		}
		paths[i] = strings.Trim(w.Path, "/")
	}

	s.mu.Lock()
	changes := make([]docstore.Change, 0, len(writes))
	for i, w := range writes {
		path := paths[i]
		_, id, _ := docstore.SplitPath(path)
		existing, exists := s.docs[path]
		if w.Delete {
			if exists {
				delete(s.docs, path)
				changes = append(changes, docstore.Change{Kind: docstore.Removed, Path: path, ID: id})
			}
			continue
		}
		s.docs[path] = docstore.Merge(docstore.Clone(existing), w.Fields)
		kind := docstore.Added
		if exists {
			kind = docstore.Modified
		}
		changes = append(changes, docstore.Change{Kind: kind, Path: path, ID: id})
	}
	s.mu.Unlock()

	s.notifier.Publish(changes)
	return nil
}

func (s *Store) Subscribe(ctx context.Context, collection string, fn docstore.Listener) (func(), error) {
	return s.notifier.Subscribe(ctx, collection, fn)
}

// Close stops all subscriptions.
func (s *Store) Close() error {
	s.notifier.Close()
	return nil
}
