// Package adapters decorates the document store with cross-cutting behavior.
package adapters

import (
	"context"
	"log/slog"
	"strings"

	"carteira/internal/amqp"
	"carteira/internal/docstore"
)

// ChangePublisher is satisfied by *amqp.Client.
type ChangePublisher interface {
	PublishDocumentChange(ctx context.Context, msg *amqp.DocumentChangeMessage) error
}

// PublishingStore forwards every call to the wrapped store and, once a
// write has committed, announces it on the message bus. Publish failures
// are logged and never fail the write.
type PublishingStore struct {
	docstore.Store
	publisher ChangePublisher
}

func NewPublishingStore(store docstore.Store, publisher ChangePublisher) *PublishingStore {
	return &PublishingStore{Store: store, publisher: publisher}
}

func (s *PublishingStore) WriteDocument(ctx context.Context, path string, fields docstore.Fields) error {
	if err := s.Store.WriteDocument(ctx, path, fields); err != nil {
		return err
	}
	s.publish(ctx, path, docstore.Modified)
	return nil
}

func (s *PublishingStore) DeleteDocument(ctx context.Context, path string) error {
	if err := s.Store.DeleteDocument(ctx, path); err != nil {
		return err
	}
	s.publish(ctx, path, docstore.Removed)
	return nil
}

func (s *PublishingStore) AddDocument(ctx context.Context, collection string, fields docstore.Fields) (string, error) {
	id, err := s.Store.AddDocument(ctx, collection, fields)
	if err != nil {
		return "", err
	}
	s.publish(ctx, strings.Trim(collection, "/")+"/"+id, docstore.Added)
	return id, nil
}

func (s *PublishingStore) BatchWrite(ctx context.Context, writes []docstore.Write) error {
	if err := s.Store.BatchWrite(ctx, writes); err != nil {
		return err
	}
	for _, w := range writes {
		kind := docstore.Modified
		if w.Delete {
			kind = docstore.Removed
		}
		s.publish(ctx, w.Path, kind)
	}
	return nil
}

func (s *PublishingStore) publish(ctx context.Context, path string, kind docstore.ChangeKind) {
	if s.publisher == nil {
		return
	}
	collection, id, err := docstore.SplitPath(path)
	if err != nil {
		return
	}
	msg := amqp.NewDocumentChangeMessage(UserOf(collection), docstore.LastSegment(collection), id, string(kind))
	if err := s.publisher.PublishDocumentChange(ctx, msg); err != nil {
		slog.WarnContext(ctx, "Failed to publish document change",
			"collection", msg.Collection, "document_id", id, "error", err)
	}
}

// UserOf extracts the user id from a users/{uid}/... path.
func UserOf(path string) string {
	segs := strings.Split(strings.Trim(path, "/"), "/")
	if len(segs) >= 2 && segs[0] == "users" {
		return segs[1]
	}
	return ""
}
