package auth

import (
	"context"
	"errors"
	"time"

	autherrors "go-portal/internal/auth/errors"
	"go-portal/internal/events"
	"go-portal/internal/shared/contextutil"
	"go-portal/internal/store"
	"go-portal/internal/validation"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

//go:generate mockgen -source=auth_service.go -destination=mock/auth_service_mock.go -package=mock
type Service interface {
	Authenticate(ctx context.Context, email, password string) (PublicProfile, error)
	Register(ctx context.Context, name, email, password string) (PublicProfile, error)
}

type EventPublisher interface {
	PublishUserRegistered(ctx context.Context, event events.UserRegisteredEvent) error
}

// NoopPublisher drops every event. Used when no broker is configured.
type NoopPublisher struct{}

func (NoopPublisher) PublishUserRegistered(context.Context, events.UserRegisteredEvent) error {
	return nil
}

type service struct {
	repo      Repository
	hasher    Hasher
	publisher EventPublisher
	logger    *zap.Logger
}

func NewService(repo Repository, hasher Hasher, publisher EventPublisher, logger ...*zap.Logger) Service {
	l := zap.L().Named("auth.service")
	if len(logger) > 0 && logger[0] != nil {
		l = logger[0].Named("auth.service")
	}
	if hasher == nil {
		hasher = BcryptHasher{}
	}
	if publisher == nil {
		publisher = NoopPublisher{}
	}
	return &service{repo: repo, hasher: hasher, publisher: publisher, logger: l}
}

func (s *service) Authenticate(ctx context.Context, email, password string) (PublicProfile, error) {
	rid := contextutil.GetRequestID(ctx)
	if err := validation.ValidateCredentials(email, password); err != nil {
		return PublicProfile{}, err
	}

	user, err := s.repo.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			s.logger.Debug("authenticate unknown email", zap.String("request_id", rid))
			return PublicProfile{}, autherrors.ErrInvalidCredentials
		}
		s.logger.Error("authenticate lookup failed", zap.String("request_id", rid), zap.Error(err))
		return PublicProfile{}, autherrors.ErrStoreUnavailable.WithCause(err)
	}

	if !s.hasher.Compare(user.Password, password) {
		s.logger.Debug("authenticate password mismatch", zap.String("request_id", rid))
		return PublicProfile{}, autherrors.ErrInvalidCredentials
	}

	return user.Profile(), nil
}

func (s *service) Register(ctx context.Context, name, email, password string) (PublicProfile, error) {
	rid := contextutil.GetRequestID(ctx)
	if err := validation.ValidateSignup(name, email, password); err != nil {
		return PublicProfile{}, err
	}

	hashed, err := s.hasher.Hash(password)
	if err != nil {
		s.logger.Error("register hash password failed", zap.String("request_id", rid), zap.Error(err))
		return PublicProfile{}, autherrors.ErrStoreUnavailable.WithCause(err)
	}

	user := &UserRecord{
		ID:        uuid.NewString(),
		Name:      name,
		Email:     email,
		Password:  hashed,
		CreatedAt: time.Now().UTC().Truncate(time.Second),
	}

	if err := s.repo.Create(ctx, user); err != nil {
		if errors.Is(err, store.ErrAlreadyExists) {
			s.logger.Info("register email already taken", zap.String("request_id", rid))
			return PublicProfile{}, autherrors.ErrEmailAlreadyExists
		}
		s.logger.Error("register persist failed", zap.String("request_id", rid), zap.Error(err))
		return PublicProfile{}, autherrors.ErrStoreUnavailable.WithCause(err)
	}

	s.logger.Info("user registered", zap.String("request_id", rid), zap.String("user_id", user.ID))

	event := events.UserRegisteredEvent{
		EventType:  events.UserRegisteredType,
		UserID:     user.ID,
		Email:      user.Email,
		OccurredAt: user.CreatedAt,
	}
	if err := s.publisher.PublishUserRegistered(ctx, event); err != nil {
		s.logger.Warn("publish user_registered failed",
			zap.String("request_id", rid),
			zap.String("user_id", user.ID),
			zap.Error(err),
		)
	}

	return user.Profile(), nil
}
