// Package sqlite persists documents in a single SQLite table, one JSON row per document.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"carteira/internal/docstore"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

type Store struct {
	db       *sql.DB
	notifier *docstore.Notifier
}

func New(dbPath string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	// A single connection serialises writers and avoids SQLITE_BUSY.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	s := &Store{db: db}
	s.notifier = docstore.NewNotifier(s.ReadCollection)
	slog.Info("SQLite document store ready", "path", dbPath)
	return s, nil
}

func (s *Store) Close() error {
	s.notifier.Close()
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

func (s *Store) ReadCollection(ctx context.Context, collection string) ([]docstore.Document, error) {
	if err := docstore.ValidateCollection(collection); err != nil {
		return nil, err
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, path, fields FROM documents WHERE collection = ? ORDER BY id`,
		strings.Trim(collection, "/"))
	if err != nil {
		return nil, fmt.Errorf("query collection %s: %w", collection, err)
	}
	defer rows.Close()

	var out []docstore.Document
	for rows.Next() {
		var (
			doc  docstore.Document
			data string
		)
		if err := rows.Scan(&doc.ID, &doc.Path, &data); err != nil {
			return nil, fmt.Errorf("scan document: %w", err)
		}
		if doc.Fields, err = docstore.DecodeJSON([]byte(data)); err != nil {
			return nil, fmt.Errorf("document %s: %w", doc.Path, err)
		}
		out = append(out, doc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate collection %s: %w", collection, err)
	}
	return out, nil
}

func (s *Store) ReadDocument(ctx context.Context, path string) (docstore.Document, bool, error) {
	if _, _, err := docstore.SplitPath(path); err != nil {
		return docstore.Document{}, false, err
	}
	return readDocument(ctx, s.db, strings.Trim(path, "/"))
}

type querier interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func readDocument(ctx context.Context, q querier, path string) (docstore.Document, bool, error) {
	var (
		doc  docstore.Document
		data string
	)
	err := q.QueryRowContext(ctx,
		`SELECT id, path, fields FROM documents WHERE path = ?`, path).
		Scan(&doc.ID, &doc.Path, &data)
	if errors.Is(err, sql.ErrNoRows) {
		return docstore.Document{}, false, nil
	}
	if err != nil {
		return docstore.Document{}, false, fmt.Errorf("read document %s: %w", path, err)
	}
	if doc.Fields, err = docstore.DecodeJSON([]byte(data)); err != nil {
		return docstore.Document{}, false, fmt.Errorf("document %s: %w", path, err)
	}
	return doc, true, nil
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

// BatchWrite runs every write inside one SQL transaction.
func (s *Store) BatchWrite(ctx context.Context, writes []docstore.Write) error {
	for i, w := range writes {
		if _, _, err := docstore.SplitPath(w.Path); err != nil {
			return fmt.Errorf("batch write %d: %w", i, err)
		}
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	changes := make([]docstore.Change, 0, len(writes))
	for _, w := range writes {
		path := strings.Trim(w.Path, "/")
		collection, id, _ := docstore.SplitPath(path)

		existing, exists, err := readDocument(ctx, tx, path)
		if err != nil {
			return err
		}

		if w.Delete {
			if !exists {
				continue
			}
			if _, err := tx.ExecContext(ctx, `DELETE FROM documents WHERE path = ?`, path); err != nil {
				return fmt.Errorf("delete document %s: %w", path, err)
			}
			changes = append(changes, docstore.Change{Kind: docstore.Removed, Path: path, ID: id})
			continue
		}

		merged := docstore.Merge(existing.Fields, w.Fields)
		data, err := docstore.EncodeJSON(merged)
		if err != nil {
			return fmt.Errorf("document %s: %w", path, err)
		}
		_, err = tx.ExecContext(ctx, `
			INSERT INTO documents (path, collection, id, fields, updated_at)
			VALUES (?, ?, ?, ?, CURRENT_TIMESTAMP)
			ON CONFLICT(path) DO UPDATE SET fields = excluded.fields, updated_at = CURRENT_TIMESTAMP`,
			path, collection, id, string(data))
		if err != nil {
			return fmt.Errorf("upsert document %s: %w", path, err)
		}
		kind := docstore.Added
		if exists {
			kind = docstore.Modified
		}
		changes = append(changes, docstore.Change{Kind: kind, Path: path, ID: id})
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	s.notifier.Publish(changes)
	return nil
}

func (s *Store) Subscribe(ctx context.Context, collection string, fn docstore.Listener) (func(), error) {
	return s.notifier.Subscribe(ctx, collection, fn)
}
