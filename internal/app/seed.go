package app

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"

	"go-portal/internal/auth"
	"go-portal/internal/seed"
	"go-portal/internal/store"

	"go.uber.org/zap"
)

const (
	IdentityDirectory = "directory"
	IdentityFirebase  = "firebase"
	IdentityNone      = "none"
)

// NewSeedRunner builds a seed.Runner over s configured from the environment:
// IDENTITY_PROVIDER picks where customer accounts are created, PASSWORD_HASHER
// how stored passwords are hashed and SEED_CONCURRENCY how many records are
// written at once. extra options are applied last.
func NewSeedRunner(ctx context.Context, s store.Store, extra ...seed.Option) (*seed.Runner, error) {
	logger := zap.L().Named("app.seed")
	hasher := auth.HasherByName(os.Getenv("PASSWORD_HASHER"))

	opts := []seed.Option{
		seed.WithHasher(hasher),
		seed.WithLogger(zap.L()),
	}

	if raw := os.Getenv("SEED_CONCURRENCY"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			return nil, fmt.Errorf("SEED_CONCURRENCY must be a positive integer, got %q", raw)
		}
		opts = append(opts, seed.WithConcurrency(n))
	}

	provider, err := identityProviderFromEnv(ctx, s, hasher)
	if err != nil {
		return nil, err
	}
	if provider != nil {
		opts = append(opts, seed.WithIdentityProvider(provider))
	}
	logger.Debug("seed runner configured", zap.Bool("identity_provider", provider != nil))

	return seed.NewRunner(s, append(opts, extra...)...), nil
}

func identityProviderFromEnv(ctx context.Context, s store.Store, hasher auth.Hasher) (seed.IdentityProvider, error) {
	name := strings.ToLower(strings.TrimSpace(os.Getenv("IDENTITY_PROVIDER")))
	switch name {
	case "", IdentityDirectory:
		users := auth.NewRepository(s)
		svc := auth.NewService(users, hasher, auth.NoopPublisher{})
		return seed.NewDirectoryIdentityProvider(svc, users), nil
	case IdentityFirebase:
		projectID := os.Getenv("FIRESTORE_PROJECT_ID")
		if projectID == "" {
			return nil, fmt.Errorf("FIRESTORE_PROJECT_ID is required for the firebase identity provider")
		}
		return seed.NewFirebaseIdentityProvider(ctx, projectID)
	case IdentityNone:
		return nil, nil
	default:
		return nil, fmt.Errorf("unknown IDENTITY_PROVIDER %q", name)
	}
}
