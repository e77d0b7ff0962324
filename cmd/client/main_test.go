package main

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"go-portal/internal/auth"
	"go-portal/internal/client"
	"go-portal/internal/session"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeAPI struct {
	password string
	calls    []string
}

func (f *fakeAPI) Login(_ context.Context, email, password string) (auth.PublicProfile, error) {
	f.calls = append(f.calls, "login:"+email)
	if password != f.password {
		return auth.PublicProfile{}, &client.APIError{Status: 401, Code: "INVALID_CREDENTIALS", Message: "Invalid credentials"}
	}
	return auth.PublicProfile{Email: email}, nil
}

func (f *fakeAPI) Signup(_ context.Context, name, email, password string) (auth.PublicProfile, error) {
	f.calls = append(f.calls, "signup:"+email)
	return auth.PublicProfile{ID: "u-1", Name: name, Email: email, CreatedAt: "2024-05-01T10:00:00Z"}, nil
}

func run(t *testing.T, api authAPI, cache *session.Cache, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := newRootCommand(api, cache, &out)
	cmd.SetArgs(args)
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	err := cmd.ExecuteContext(t.Context())
	return out.String(), err
}

func TestClientSession(t *testing.T) {
	api := &fakeAPI{password: "secret1"}
	cache := session.NewCache(session.NewMemoryStorage(), zap.NewNop())

	out, err := run(t, api, cache, "whoami")
	require.NoError(t, err)
	assert.Contains(t, out, "Not signed in")

	out, err = run(t, api, cache, "signup", "ana@acme.io", "--name", "Ana", "--password", "secret1")
	require.NoError(t, err)
	assert.Contains(t, out, "Account created for Ana (u-1)")

	out, err = run(t, api, cache, "whoami")
	require.NoError(t, err)
	assert.Contains(t, out, "ana@acme.io")
	assert.Contains(t, out, "id: u-1")

	out, err = run(t, api, cache, "logout")
	require.NoError(t, err)
	assert.Contains(t, out, "Signed out")
	assert.Nil(t, cache.Load())
}

func TestLogin_PromptsForPassword(t *testing.T) {
	orig := readPassword
	readPassword = func(int) ([]byte, error) { return []byte("secret1"), nil }
	t.Cleanup(func() { readPassword = orig })

	api := &fakeAPI{password: "secret1"}
	cache := session.NewCache(session.NewMemoryStorage(), zap.NewNop())

	out, err := run(t, api, cache, "login", "ana@acme.io")
	require.NoError(t, err)
	assert.Contains(t, out, "Signed in as ana@acme.io")
	require.NotNil(t, cache.Load())
	assert.Equal(t, "ana@acme.io", cache.Load().Email)
}

func TestLogin_FailureKeepsPreviousSession(t *testing.T) {
	api := &fakeAPI{password: "secret1"}
	cache := session.NewCache(session.NewMemoryStorage(), zap.NewNop())
	cache.Save(auth.PublicProfile{Email: "old@acme.io"})

	_, err := run(t, api, cache, "login", "ana@acme.io", "--password", "wrong-pw")
	require.Error(t, err)
	assert.ErrorIs(t, err, client.ErrUnauthorized)
	assert.Equal(t, "old@acme.io", cache.Load().Email)
}

func TestLogin_PromptError(t *testing.T) {
	orig := readPassword
	readPassword = func(int) ([]byte, error) { return nil, errors.New("not a terminal") }
	t.Cleanup(func() { readPassword = orig })

	api := &fakeAPI{password: "secret1"}
	_, err := run(t, api, session.NewCache(session.NewMemoryStorage(), zap.NewNop()), "login", "ana@acme.io")
	assert.ErrorContains(t, err, "not a terminal")
	assert.Empty(t, api.calls)
}
