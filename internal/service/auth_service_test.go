package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/entity-review-api/internal/models"
	appErrors "github.com/noah-isme/entity-review-api/pkg/errors"
)

type stubAuthBackend struct {
	login    *models.UpstreamLogin
	err      error
	username string
	password string
}

func (s *stubAuthBackend) Login(ctx context.Context, username, password string) (*models.UpstreamLogin, error) {
	s.username, s.password = username, password
	if s.err != nil {
		return nil, s.err
	}
	return s.login, nil
}

type memorySessionStore struct {
	sessions map[string]*models.Session
	ttls     map[string]time.Duration
	saveErr  error
}

func newMemorySessionStore() *memorySessionStore {
	return &memorySessionStore{sessions: map[string]*models.Session{}, ttls: map[string]time.Duration{}}
}

func (m *memorySessionStore) Save(ctx context.Context, session *models.Session, ttl time.Duration) error {
	if m.saveErr != nil {
		return m.saveErr
	}
	copied := *session
	m.sessions[session.ID] = &copied
	m.ttls[session.ID] = ttl
	return nil
}

func (m *memorySessionStore) Find(ctx context.Context, id string) (*models.Session, error) {
	session, ok := m.sessions[id]
	if !ok {
		return nil, appErrors.ErrNotFound
	}
	copied := *session
	return &copied, nil
}

func (m *memorySessionStore) Delete(ctx context.Context, id string) error {
	delete(m.sessions, id)
	return nil
}

func newTestAuthService(backend *stubAuthBackend, store *memorySessionStore, workspaces workspaceDropper) *AuthService {
	return NewAuthService(backend, store, workspaces, validator.New(), zap.NewNop(), AuthConfig{
		TokenSecret: "secret",
		Issuer:      "entity-review-api",
		SessionTTL:  time.Hour,
	})
}

func TestAuthServiceLoginIssuesSessionToken(t *testing.T) {
	backend := &stubAuthBackend{login: &models.UpstreamLogin{
		AccessToken: "upstream-token",
		User:        &models.UserInfo{Username: "analyst", DisplayName: "Analyst One"},
	}}
	store := newMemorySessionStore()
	svc := newTestAuthService(backend, store, nil)

	resp, err := svc.Login(context.Background(), models.LoginRequest{Username: " analyst ", Password: "pw"})
	require.NoError(t, err)
	assert.Equal(t, "analyst", backend.username)
	assert.Equal(t, "Analyst One", resp.User.DisplayName)
	assert.Equal(t, int64(3600), resp.ExpiresIn)
	require.NotEmpty(t, resp.AccessToken)
	assert.NotContains(t, resp.AccessToken, "upstream-token")

	claims, err := svc.ValidateToken(resp.AccessToken)
	require.NoError(t, err)
	session, ok := store.sessions[claims.SessionID]
	require.True(t, ok)
	assert.Equal(t, "upstream-token", session.UpstreamToken)
	assert.Equal(t, time.Hour, store.ttls[claims.SessionID])

	authed, gotClaims, err := svc.Authenticate(context.Background(), resp.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, session.ID, authed.ID)
	assert.Equal(t, "analyst", gotClaims.Username)
}

func TestAuthServiceLoginValidation(t *testing.T) {
	backend := &stubAuthBackend{}
	svc := newTestAuthService(backend, newMemorySessionStore(), nil)

	_, err := svc.Login(context.Background(), models.LoginRequest{Username: "  ", Password: "pw"})
	require.True(t, errors.Is(err, appErrors.ErrValidation))
	assert.Empty(t, backend.username)
}

func TestAuthServiceLoginRejected(t *testing.T) {
	backend := &stubAuthBackend{err: appErrors.ErrInvalidCredentials}
	store := newMemorySessionStore()
	svc := newTestAuthService(backend, store, nil)

	_, err := svc.Login(context.Background(), models.LoginRequest{Username: "a", Password: "b"})
	require.True(t, errors.Is(err, appErrors.ErrInvalidCredentials))
	assert.Empty(t, store.sessions)
}

func TestAuthServiceValidateTokenRejectsForeignSecret(t *testing.T) {
	backend := &stubAuthBackend{login: &models.UpstreamLogin{AccessToken: "t"}}
	issuer := newTestAuthService(backend, newMemorySessionStore(), nil)
	resp, err := issuer.Login(context.Background(), models.LoginRequest{Username: "a", Password: "b"})
	require.NoError(t, err)

	other := NewAuthService(backend, newMemorySessionStore(), nil, nil, nil, AuthConfig{TokenSecret: "other", Issuer: "entity-review-api"})
	_, err = other.ValidateToken(resp.AccessToken)
	require.True(t, errors.Is(err, appErrors.ErrUnauthorized))
}

func TestAuthServiceLogoutEndsSessionAndWorkspaces(t *testing.T) {
	backend := &stubAuthBackend{login: &models.UpstreamLogin{AccessToken: "t"}}
	store := newMemorySessionStore()
	workspaces := NewWorkspaceRegistry()
	svc := newTestAuthService(backend, store, workspaces)

	resp, err := svc.Login(context.Background(), models.LoginRequest{Username: "a", Password: "b"})
	require.NoError(t, err)
	session, _, err := svc.Authenticate(context.Background(), resp.AccessToken)
	require.NoError(t, err)
	workspaces.Put(session.ID, hydrate(t, "new"))

	require.NoError(t, svc.Logout(context.Background(), session.ID))
	assert.Equal(t, 0, workspaces.Len())

	_, _, err = svc.Authenticate(context.Background(), resp.AccessToken)
	require.True(t, errors.Is(err, appErrors.ErrSessionExpired))
}

func TestAuthServiceAuthenticateExpiredSession(t *testing.T) {
	store := newMemorySessionStore()
	backend := &stubAuthBackend{login: &models.UpstreamLogin{AccessToken: "t"}}
	svc := newTestAuthService(backend, store, nil)
	resp, err := svc.Login(context.Background(), models.LoginRequest{Username: "a", Password: "b"})
	require.NoError(t, err)

	svc.now = func() time.Time { return time.Now().UTC().Add(2 * time.Hour) }
	_, _, err = svc.Authenticate(context.Background(), resp.AccessToken)
	require.True(t, errors.Is(err, appErrors.ErrSessionExpired))
	assert.Empty(t, store.sessions)
}
