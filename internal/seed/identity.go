package seed

import (
	"context"
	"errors"
	"fmt"

	"go-portal/internal/auth"
	autherrors "go-portal/internal/auth/errors"
	"go-portal/internal/store"

	firebase "firebase.google.com/go/v4"
	firebaseauth "firebase.google.com/go/v4/auth"
)

const (
	IdentityDirectory = "directory"
	IdentityFirebase  = "firebase"
)

type Identity struct {
	UID         string
	Email       string
	Password    string
	DisplayName string
}

// IdentityProvider creates sign-in accounts for seeded customers. When the
// account is already there it returns ErrIdentityExists together with the
// existing uid, or "" if the provider cannot tell.
//
//go:generate mockgen -source=identity.go -destination=mock/identity_mock.go -package=mock
type IdentityProvider interface {
	CreateUser(ctx context.Context, identity Identity) (uid string, err error)
}

// DirectoryIdentityProvider registers customers as directory users, so they
// can sign in through POST /auth.
type DirectoryIdentityProvider struct {
	auth  auth.Service
	users auth.Repository
}

func NewDirectoryIdentityProvider(svc auth.Service, users auth.Repository) *DirectoryIdentityProvider {
	return &DirectoryIdentityProvider{auth: svc, users: users}
}

func (p *DirectoryIdentityProvider) CreateUser(ctx context.Context, identity Identity) (string, error) {
	profile, err := p.auth.Register(ctx, identity.DisplayName, identity.Email, identity.Password)
	if err == nil {
		return profile.ID, nil
	}
	if !errors.Is(err, autherrors.ErrEmailAlreadyExists) {
		return "", err
	}

	existing, ferr := p.users.FindByEmail(ctx, identity.Email)
	if errors.Is(ferr, store.ErrNotFound) {
		return "", ErrIdentityExists
	}
	if ferr != nil {
		return "", fmt.Errorf("look up existing user: %w", ferr)
	}
	return existing.ID, ErrIdentityExists
}

type firebaseUserCreator interface {
	CreateUser(ctx context.Context, user *firebaseauth.UserToCreate) (*firebaseauth.UserRecord, error)
	GetUserByEmail(ctx context.Context, email string) (*firebaseauth.UserRecord, error)
}

type FirebaseIdentityProvider struct {
	client firebaseUserCreator
}

func NewFirebaseIdentityProvider(ctx context.Context, projectID string) (*FirebaseIdentityProvider, error) {
	app, err := firebase.NewApp(ctx, &firebase.Config{ProjectID: projectID})
	if err != nil {
		return nil, fmt.Errorf("firebase app: %w", err)
	}
	client, err := app.Auth(ctx)
	if err != nil {
		return nil, fmt.Errorf("firebase auth: %w", err)
	}
	return &FirebaseIdentityProvider{client: client}, nil
}

func (p *FirebaseIdentityProvider) CreateUser(ctx context.Context, identity Identity) (string, error) {
	params := (&firebaseauth.UserToCreate{}).
		Email(identity.Email).
		Password(identity.Password)
	if identity.UID != "" {
		params = params.UID(identity.UID)
	}
	if identity.DisplayName != "" {
		params = params.DisplayName(identity.DisplayName)
	}

	user, err := p.client.CreateUser(ctx, params)
	if err != nil {
		if firebaseauth.IsEmailAlreadyExists(err) || firebaseauth.IsUIDAlreadyExists(err) {
			return p.existingUID(ctx, identity)
		}
		return "", err
	}
	return user.UID, nil
}

// existingUID resolves the account that blocked CreateUser. The email may
// belong to an account created with a different uid.
func (p *FirebaseIdentityProvider) existingUID(ctx context.Context, identity Identity) (string, error) {
	existing, err := p.client.GetUserByEmail(ctx, identity.Email)
	if firebaseauth.IsUserNotFound(err) {
		// uid taken by an account with another email
		return identity.UID, ErrIdentityExists
	}
	if err != nil {
		return "", fmt.Errorf("look up existing firebase user: %w", err)
	}
	return existing.UID, ErrIdentityExists
}
