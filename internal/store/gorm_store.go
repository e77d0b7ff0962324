package store

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// documentRow is the documents table shared by the SQL backends.
type documentRow struct {
	Collection string    `gorm:"column:collection;primaryKey"`
	DocKey     string    `gorm:"column:doc_key;primaryKey"`
	Data       []byte    `gorm:"column:data;type:jsonb;not null"`
	CreatedAt  time.Time `gorm:"column:created_at"`
	UpdatedAt  time.Time `gorm:"column:updated_at"`
}

func (documentRow) TableName() string {
	return "documents"
}

// GormStore persists documents in PostgreSQL as jsonb.
type GormStore struct {
	db *gorm.DB
}

func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

func (s *GormStore) Get(ctx context.Context, collection, key string) (Document, error) {
	var rows []documentRow
	err := s.db.WithContext(ctx).
		Where("collection = ? AND doc_key = ?", collection, key).
		Find(&rows).Error
	if err != nil {
		return Document{}, err
	}
	if len(rows) == 0 {
		return Document{}, ErrNotFound
	}
	return rowToDocument(rows[0])
}

func (s *GormStore) GetAll(ctx context.Context, collection string) ([]Document, error) {
	var rows []documentRow
	err := s.db.WithContext(ctx).
		Where("collection = ?", collection).
		Order("doc_key").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rowsToDocuments(rows)
}

func (s *GormStore) Set(ctx context.Context, collection, key string, data map[string]any) error {
	raw, err := encode(data)
	if err != nil {
		return err
	}

	row := documentRow{Collection: collection, DocKey: key, Data: raw}
	return s.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "collection"}, {Name: "doc_key"}},
			DoUpdates: clause.AssignmentColumns([]string{"data", "updated_at"}),
		}).
		Create(&row).Error
}

func (s *GormStore) Delete(ctx context.Context, collection, key string) error {
	return s.db.WithContext(ctx).
		Where("collection = ? AND doc_key = ?", collection, key).
		Delete(&documentRow{}).Error
}

func (s *GormStore) CreateIfAbsent(ctx context.Context, collection, key string, data map[string]any) error {
	raw, err := encode(data)
	if err != nil {
		return err
	}

	// Primary key (collection, doc_key) makes the insert the uniqueness check.
	row := documentRow{Collection: collection, DocKey: key, Data: raw}
	err = s.db.WithContext(ctx).Create(&row).Error
	if isUniqueViolation(err) {
		return ErrAlreadyExists
	}
	return err
}

func (s *GormStore) QueryByField(ctx context.Context, collection, field, value string) ([]Document, error) {
	if err := validateField(field); err != nil {
		return nil, err
	}

	var rows []documentRow
	err := s.db.WithContext(ctx).
		Where("collection = ? AND data ->> ? = ?", collection, field, value).
		Order("doc_key").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rowsToDocuments(rows)
}

func (s *GormStore) Ping(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

func (s *GormStore) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}

	errMsg := strings.ToLower(err.Error())
	return strings.Contains(errMsg, "duplicate key value") || strings.Contains(errMsg, "unique constraint failed")
}

func rowToDocument(r documentRow) (Document, error) {
	data, err := decode(r.Data)
	if err != nil {
		return Document{}, err
	}
	return Document{Key: r.DocKey, Data: data}, nil
}

func rowsToDocuments(rows []documentRow) ([]Document, error) {
	out := make([]Document, 0, len(rows))
	for _, r := range rows {
		d, err := rowToDocument(r)
		if err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, nil
}
