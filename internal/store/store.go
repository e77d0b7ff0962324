// Package store is the record store: JSON documents addressed by collection and key.
package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
)

var (
	ErrNotFound      = errors.New("store: document not found")
	ErrAlreadyExists = errors.New("store: document already exists")
	ErrInvalidField  = errors.New("store: invalid field name")
)

// Document is one stored record. Data only holds JSON-compatible values.
type Document struct {
	Key  string
	Data map[string]any
}

//go:generate mockgen -source=store.go -destination=mock/store_mock.go -package=mock
type Store interface {
	Get(ctx context.Context, collection, key string) (Document, error)
	GetAll(ctx context.Context, collection string) ([]Document, error)
	// Set creates the document or fully replaces it.
	Set(ctx context.Context, collection, key string, data map[string]any) error
	Delete(ctx context.Context, collection, key string) error
	// CreateIfAbsent writes the document only if key is free, else ErrAlreadyExists.
	CreateIfAbsent(ctx context.Context, collection, key string, data map[string]any) error
	QueryByField(ctx context.Context, collection, field, value string) ([]Document, error)
	Ping(ctx context.Context) error
	Close() error
}

var fieldPattern = regexp.MustCompile(`^[A-Za-z0-9_]+$`)

func validateField(field string) error {
	if !fieldPattern.MatchString(field) {
		return fmt.Errorf("%w: %q", ErrInvalidField, field)
	}
	return nil
}

// encode turns data into the JSON bytes every backend persists.
func encode(data map[string]any) ([]byte, error) {
	if data == nil {
		data = map[string]any{}
	}
	b, err := json.Marshal(data)
	if err != nil {
		return nil, fmt.Errorf("store: encode document: %w", err)
	}
	return b, nil
}

func decode(b []byte) (map[string]any, error) {
	data := map[string]any{}
	if len(b) == 0 {
		return data, nil
	}
	if err := json.Unmarshal(b, &data); err != nil {
		return nil, fmt.Errorf("store: decode document: %w", err)
	}
	return data, nil
}

// normalize gives data the shape it has after a round trip through storage
// (numbers as float64, slices as []any, times as RFC3339 strings).
func normalize(data map[string]any) (map[string]any, error) {
	b, err := encode(data)
	if err != nil {
		return nil, err
	}
	return decode(b)
}
