package store

import (
	"context"
	"database/sql"
)

// SQLiteStore is the single-file backend, the Go counterpart of the JSON users file
// the portal started with.
type SQLiteStore struct {
	db *sql.DB
}

func NewSQLiteStore(db *sql.DB) *SQLiteStore {
	return &SQLiteStore{db: db}
}

func (s *SQLiteStore) Get(ctx context.Context, collection, key string) (Document, error) {
	var raw string
	err := s.db.QueryRowContext(ctx,
		`SELECT data FROM documents WHERE collection = ? AND doc_key = ?`, collection, key,
	).Scan(&raw)
	if err == sql.ErrNoRows {
		return Document{}, ErrNotFound
	}
	if err != nil {
		return Document{}, err
	}

	data, err := decode([]byte(raw))
	if err != nil {
		return Document{}, err
	}
	return Document{Key: key, Data: data}, nil
}

func (s *SQLiteStore) GetAll(ctx context.Context, collection string) ([]Document, error) {
	return s.query(ctx,
		`SELECT doc_key, data FROM documents WHERE collection = ? ORDER BY doc_key`, collection)
}

func (s *SQLiteStore) Set(ctx context.Context, collection, key string, data map[string]any) error {
	raw, err := encode(data)
	if err != nil {
		return err
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO documents (collection, doc_key, data, created_at, updated_at)
		VALUES (?, ?, ?, CURRENT_TIMESTAMP, CURRENT_TIMESTAMP)
		ON CONFLICT (collection, doc_key) DO UPDATE
		SET data = excluded.data, updated_at = CURRENT_TIMESTAMP
	`, collection, key, string(raw))
	return err
}

func (s *SQLiteStore) Delete(ctx context.Context, collection, key string) error {
	_, err := s.db.ExecContext(ctx,
		`DELETE FROM documents WHERE collection = ? AND doc_key = ?`, collection, key)
	return err
}

func (s *SQLiteStore) CreateIfAbsent(ctx context.Context, collection, key string, data map[string]any) error {
	raw, err := encode(data)
	if err != nil {
		return err
	}

	res, err := s.db.ExecContext(ctx, `
		INSERT INTO documents (collection, doc_key, data, created_at, updated_at)
		VALUES (?, ?, ?, CURRENT_TIMESTAMP, CURRENT_TIMESTAMP)
		ON CONFLICT (collection, doc_key) DO NOTHING
	`, collection, key, string(raw))
	if err != nil {
		return err
	}

	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrAlreadyExists
	}
	return nil
}

func (s *SQLiteStore) QueryByField(ctx context.Context, collection, field, value string) ([]Document, error) {
	if err := validateField(field); err != nil {
		return nil, err
	}
	return s.query(ctx,
		`SELECT doc_key, data FROM documents WHERE collection = ? AND json_extract(data, ?) = ? ORDER BY doc_key`,
		collection, "$."+field, value)
}

func (s *SQLiteStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) query(ctx context.Context, q string, args ...any) ([]Document, error) {
	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Document
	for rows.Next() {
		var key, raw string
		if err := rows.Scan(&key, &raw); err != nil {
			return nil, err
		}
		data, err := decode([]byte(raw))
		if err != nil {
			return nil, err
		}
		out = append(out, Document{Key: key, Data: data})
	}
	return out, rows.Err()
}
