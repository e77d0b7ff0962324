package auth

import (
	"context"
	"errors"

	"go-portal/internal/store"
)

//go:generate mockgen -source=auth_repo.go -destination=mock/auth_repo_mock.go -package=mock
type Repository interface {
	// FindByEmail returns store.ErrNotFound when no user has exactly this email.
	FindByEmail(ctx context.Context, email string) (*UserRecord, error)
	// Create returns store.ErrAlreadyExists when the email is taken.
	Create(ctx context.Context, user *UserRecord) error
}

type repository struct {
	store store.Store
}

func NewRepository(s store.Store) Repository {
	return &repository{store: s}
}

func (r *repository) FindByEmail(ctx context.Context, email string) (*UserRecord, error) {
	docs, err := r.store.QueryByField(ctx, UsersCollection, "email", email)
	if err != nil {
		return nil, err
	}
	if len(docs) == 0 {
		return nil, store.ErrNotFound
	}
	return userFromDocument(docs[0].Data)
}

func (r *repository) Create(ctx context.Context, user *UserRecord) error {
	if user == nil {
		return errors.New("nil user")
	}
	return r.store.CreateIfAbsent(ctx, UsersCollection, user.Email, user.toDocument())
}
