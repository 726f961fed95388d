package postgres

import (
	"context"
	"strings"

	"github.com/skillera/skillera-hub/internal/domain/shared"
	"github.com/skillera/skillera-hub/internal/infrastructure/persistence/docstore"
)

// DocumentStore implements docstore.Store on the documents table.
type DocumentStore struct {
	conn *Connection
}

// NewDocumentStore creates a new DocumentStore.
func NewDocumentStore(conn *Connection) *DocumentStore {
	return &DocumentStore{conn: conn}
}

func (s *DocumentStore) Name() string { return "postgres" }

// Ping implements docstore.Pinger.
func (s *DocumentStore) Ping(ctx context.Context) error {
	return s.conn.Ping(ctx)
}

// Get implements docstore.Store.
func (s *DocumentStore) Get(ctx context.Context, key string) (docstore.Document, error) {
	q, err := s.conn.querier()
	if err != nil {
		return docstore.Document{}, docstore.Persistence("Get", err)
	}

	doc := docstore.Document{Key: key}
	err = q.QueryRow(ctx, `SELECT body, version FROM documents WHERE key = $1`, key).Scan(&doc.Data, &doc.Version)
	if err != nil {
		if IsNoRows(err) {
			return docstore.Document{}, shared.ErrDocumentMissing
		}
		return docstore.Document{}, docstore.Persistence("Get", err)
	}
	return doc, nil
}

// Put implements docstore.Store. Creation relies on the primary key;
// updates match on the expected version so exactly one writer wins.
func (s *DocumentStore) Put(ctx context.Context, key string, data []byte, expectedVersion int64) (int64, error) {
	q, err := s.conn.querier()
	if err != nil {
		return 0, docstore.Persistence("Put", err)
	}

	if expectedVersion == 0 {
		tag, err := q.Exec(ctx, `
			INSERT INTO documents (key, body, version, updated_at)
			VALUES ($1, $2, 1, NOW())
			ON CONFLICT (key) DO NOTHING
		`, key, data)
		if err != nil {
			if IsUniqueViolation(err) {
				return 0, shared.ErrVersionConflict
			}
			return 0, docstore.Persistence("Put", err)
		}
		if tag.RowsAffected() == 0 {
			return 0, shared.ErrVersionConflict
		}
		return 1, nil
	}

	var version int64
	err = q.QueryRow(ctx, `
		UPDATE documents
		SET body = $2, version = version + 1, updated_at = NOW()
		WHERE key = $1 AND version = $3
		RETURNING version
	`, key, data, expectedVersion).Scan(&version)
	if err != nil {
		if IsNoRows(err) {
			return 0, shared.ErrVersionConflict
		}
		return 0, docstore.Persistence("Put", err)
	}
	return version, nil
}

// Delete implements docstore.Store.
func (s *DocumentStore) Delete(ctx context.Context, key string) error {
	q, err := s.conn.querier()
	if err != nil {
		return docstore.Persistence("Delete", err)
	}
	_, err = q.Exec(ctx, `DELETE FROM documents WHERE key = $1`, key)
	return docstore.Persistence("Delete", err)
}

// List implements docstore.Store.
func (s *DocumentStore) List(ctx context.Context, prefix string) ([]string, error) {
	q, err := s.conn.querier()
	if err != nil {
		return nil, docstore.Persistence("List", err)
	}

	rows, err := q.Query(ctx, `SELECT key FROM documents WHERE key LIKE $1 ESCAPE '\' ORDER BY key`, likePrefix(prefix))
	if err != nil {
		return nil, docstore.Persistence("List", err)
	}
	defer rows.Close()

	var keys []string
	for rows.Next() {
		var key string
		if err := rows.Scan(&key); err != nil {
			return nil, docstore.Persistence("List", err)
		}
		keys = append(keys, key)
	}
	return keys, docstore.Persistence("List", rows.Err())
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func likePrefix(prefix string) string {
	return likeEscaper.Replace(prefix) + "%"
}

var _ docstore.Store = (*DocumentStore)(nil)
