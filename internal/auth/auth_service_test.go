package auth_test

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"testing"

	"go-portal/internal/auth"
	autherrors "go-portal/internal/auth/errors"
	authMock "go-portal/internal/auth/mock"
	"go-portal/internal/events"
	"go-portal/internal/shared/apperror"
	"go-portal/internal/store"
	storeMock "go-portal/internal/store/mock"
	"go-portal/internal/validation"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
	"golang.org/x/crypto/bcrypt"
)

var fastHasher = auth.BcryptHasher{Cost: bcrypt.MinCost}

func newMemoryService(t *testing.T) (auth.Service, *store.MemoryStore) {
	t.Helper()
	s := store.NewMemoryStore()
	return auth.NewService(auth.NewRepository(s), fastHasher, nil), s
}

func TestService_RegisterThenAuthenticate(t *testing.T) {
	ctx := context.Background()
	svc, s := newMemoryService(t)

	registered, err := svc.Register(ctx, "Ann", "ann@example.com", "secret1")
	require.NoError(t, err)
	assert.NotEmpty(t, registered.ID)
	assert.Equal(t, "Ann", registered.Name)
	assert.Equal(t, "ann@example.com", registered.Email)
	assert.NotEmpty(t, registered.CreatedAt)

	t.Run("password is stored hashed", func(t *testing.T) {
		doc, err := s.Get(ctx, auth.UsersCollection, "ann@example.com")
		require.NoError(t, err)
		assert.NotEqual(t, "secret1", doc.Data["password"])
	})

	t.Run("authenticate returns the profile without password", func(t *testing.T) {
		profile, err := svc.Authenticate(ctx, "ann@example.com", "secret1")
		require.NoError(t, err)
		assert.Equal(t, registered, profile)

		raw, err := json.Marshal(profile)
		require.NoError(t, err)
		assert.NotContains(t, string(raw), "password")
		assert.NotContains(t, string(raw), "secret1")
	})

	t.Run("email match is case-sensitive", func(t *testing.T) {
		_, err := svc.Authenticate(ctx, "ANN@example.com", "secret1")
		assert.ErrorIs(t, err, autherrors.ErrInvalidCredentials)
	})
}

func TestService_AuthenticateDoesNotRevealWhichPartFailed(t *testing.T) {
	ctx := context.Background()
	svc, _ := newMemoryService(t)
	_, err := svc.Register(ctx, "Ann", "ann@example.com", "secret1")
	require.NoError(t, err)

	_, wrongPassword := svc.Authenticate(ctx, "ann@example.com", "nope-nope")
	_, unknownEmail := svc.Authenticate(ctx, "ghost@example.com", "secret1")

	require.Error(t, wrongPassword)
	require.Error(t, unknownEmail)
	assert.ErrorIs(t, wrongPassword, autherrors.ErrInvalidCredentials)
	assert.ErrorIs(t, unknownEmail, autherrors.ErrInvalidCredentials)
	assert.Equal(t, wrongPassword.Error(), unknownEmail.Error())
	assert.Equal(t, apperror.ToHTTP(wrongPassword), apperror.ToHTTP(unknownEmail))
}

func TestService_RegisterDuplicateEmail(t *testing.T) {
	ctx := context.Background()
	svc, s := newMemoryService(t)

	first, err := svc.Register(ctx, "Ann", "ann@example.com", "secret1")
	require.NoError(t, err)

	_, err = svc.Register(ctx, "Other Ann", "ann@example.com", "secret2")
	assert.ErrorIs(t, err, autherrors.ErrEmailAlreadyExists)
	assert.Equal(t, "User with this email already exists", apperror.ToHTTP(err).Message)

	docs, err := s.GetAll(ctx, auth.UsersCollection)
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Equal(t, first.ID, docs[0].Data["id"])
}

func TestService_RegisterConcurrently(t *testing.T) {
	ctx := context.Background()

	t.Run("same email yields exactly one success", func(t *testing.T) {
		svc, s := newMemoryService(t)

		const workers = 16
		var (
			wg        sync.WaitGroup
			mu        sync.Mutex
			succeeded int
			conflicts int
		)
		for i := 0; i < workers; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				_, err := svc.Register(ctx, fmt.Sprintf("User %d", i), "race@example.com", "secret1")
				mu.Lock()
				defer mu.Unlock()
				switch {
				case err == nil:
					succeeded++
				case errors.Is(err, autherrors.ErrEmailAlreadyExists):
					conflicts++
				default:
					t.Errorf("unexpected error: %v", err)
				}
			}(i)
		}
		wg.Wait()

		assert.Equal(t, 1, succeeded)
		assert.Equal(t, workers-1, conflicts)

		docs, err := s.GetAll(ctx, auth.UsersCollection)
		require.NoError(t, err)
		assert.Len(t, docs, 1)
	})

	t.Run("distinct emails all persist", func(t *testing.T) {
		svc, s := newMemoryService(t)

		const workers = 16
		var wg sync.WaitGroup
		for i := 0; i < workers; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				_, err := svc.Register(ctx, "User", fmt.Sprintf("user%d@example.com", i), "secret1")
				assert.NoError(t, err)
			}(i)
		}
		wg.Wait()

		docs, err := s.GetAll(ctx, auth.UsersCollection)
		require.NoError(t, err)
		assert.Len(t, docs, workers)
	})
}

func TestService_StoreFailureIsNotEchoed(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	ctx := context.Background()
	mockStore := storeMock.NewMockStore(ctrl)
	svc := auth.NewService(auth.NewRepository(mockStore), fastHasher, nil)
	cause := errors.New("dial tcp 10.0.0.7:5432: connection refused")

	t.Run("register", func(t *testing.T) {
		mockStore.EXPECT().
			CreateIfAbsent(ctx, auth.UsersCollection, "ann@example.com", gomock.Any()).
			Return(cause)

		_, err := svc.Register(ctx, "Ann", "ann@example.com", "secret1")

		assert.ErrorIs(t, err, autherrors.ErrStoreUnavailable)
		assert.ErrorIs(t, err, cause)
		httpErr := apperror.ToHTTP(err)
		assert.Equal(t, 500, httpErr.Status)
		assert.NotContains(t, httpErr.Message, "10.0.0.7")
	})

	t.Run("authenticate", func(t *testing.T) {
		mockStore.EXPECT().
			QueryByField(ctx, auth.UsersCollection, "email", "ann@example.com").
			Return(nil, cause)

		_, err := svc.Authenticate(ctx, "ann@example.com", "secret1")

		assert.ErrorIs(t, err, autherrors.ErrStoreUnavailable)
		assert.NotContains(t, apperror.ToHTTP(err).Message, "connection refused")
	})
}

func TestService_ValidationRunsBeforeTheStore(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	// no expectations: any repository call fails the test
	mockRepo := authMock.NewMockRepository(ctrl)
	svc := auth.NewService(mockRepo, fastHasher, nil)
	ctx := context.Background()

	_, err := svc.Register(ctx, "", "a@b.com", "abcdef")
	assert.ErrorIs(t, err, validation.ErrMissingField)

	_, err = svc.Register(ctx, "A", "not-an-email", "abcdef")
	assert.ErrorIs(t, err, validation.ErrInvalidEmailFormat)

	_, err = svc.Register(ctx, "A", "a@b.com", "abc12")
	assert.ErrorIs(t, err, validation.ErrPasswordTooShort)

	_, err = svc.Authenticate(ctx, "", "abcdef")
	assert.ErrorIs(t, err, validation.ErrMissingField)
}

func TestService_PublishesUserRegistered(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	ctx := context.Background()
	publisher := authMock.NewMockEventPublisher(ctrl)
	svc := auth.NewService(auth.NewRepository(store.NewMemoryStore()), fastHasher, publisher)

	t.Run("event carries the new user", func(t *testing.T) {
		var got events.UserRegisteredEvent
		publisher.EXPECT().
			PublishUserRegistered(ctx, gomock.Any()).
			DoAndReturn(func(_ context.Context, e events.UserRegisteredEvent) error {
				got = e
				return nil
			})

		profile, err := svc.Register(ctx, "Ann", "ann@example.com", "secret1")

		require.NoError(t, err)
		assert.Equal(t, events.UserRegisteredType, got.EventType)
		assert.Equal(t, profile.ID, got.UserID)
		assert.Equal(t, "ann@example.com", got.Email)
	})

	t.Run("publish failure does not fail the signup", func(t *testing.T) {
		publisher.EXPECT().
			PublishUserRegistered(ctx, gomock.Any()).
			Return(errors.New("broker down"))

		_, err := svc.Register(ctx, "Bob", "bob@example.com", "secret1")
		assert.NoError(t, err)
	})
}

func TestService_PlaintextHasher(t *testing.T) {
	ctx := context.Background()
	s := store.NewMemoryStore()
	require.NoError(t, s.Set(ctx, auth.UsersCollection, "fixture@example.com", map[string]any{
		"id":        "u-1",
		"name":      "Fixture",
		"email":     "fixture@example.com",
		"password":  "plain-pass",
		"createdAt": "2024-01-02T03:04:05Z",
	}))
	svc := auth.NewService(auth.NewRepository(s), auth.HasherByName("plain"), nil)

	profile, err := svc.Authenticate(ctx, "fixture@example.com", "plain-pass")

	require.NoError(t, err)
	assert.Equal(t, auth.PublicProfile{
		ID:        "u-1",
		Name:      "Fixture",
		Email:     "fixture@example.com",
		CreatedAt: "2024-01-02T03:04:05Z",
	}, profile)
}

func TestHasherByName(t *testing.T) {
	assert.IsType(t, auth.PlaintextHasher{}, auth.HasherByName(" PLAIN "))
	assert.IsType(t, auth.BcryptHasher{}, auth.HasherByName(""))
	assert.IsType(t, auth.BcryptHasher{}, auth.HasherByName("bcrypt"))
}
