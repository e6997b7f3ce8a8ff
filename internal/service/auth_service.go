package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/noah-isme/entity-review-api/internal/models"
	appErrors "github.com/noah-isme/entity-review-api/pkg/errors"
)

type upstreamAuthenticator interface {
	Login(ctx context.Context, username, password string) (*models.UpstreamLogin, error)
}

type sessionStore interface {
	Save(ctx context.Context, session *models.Session, ttl time.Duration) error
	Find(ctx context.Context, id string) (*models.Session, error)
	Delete(ctx context.Context, id string) error
}

type workspaceDropper interface {
	DiscardSession(sessionID string) int
}

// AuthConfig defines configuration for authentication flows.
type AuthConfig struct {
	TokenSecret string
	Issuer      string
	SessionTTL  time.Duration
}

// AuthService exchanges reviewer credentials for a session and guards it afterwards.
// The backend's access token never leaves the server; clients hold a token naming the session.
type AuthService struct {
	backend    upstreamAuthenticator
	sessions   sessionStore
	workspaces workspaceDropper
	validator  *validator.Validate
	logger     *zap.Logger
	config     AuthConfig
	now        func() time.Time
}

// NewAuthService constructs an AuthService instance.
func NewAuthService(backend upstreamAuthenticator, sessions sessionStore, workspaces workspaceDropper, validate *validator.Validate, logger *zap.Logger, config AuthConfig) *AuthService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	if config.SessionTTL <= 0 {
		config.SessionTTL = 8 * time.Hour
	}
	return &AuthService{
		backend:    backend,
		sessions:   sessions,
		workspaces: workspaces,
		validator:  validate,
		logger:     logger,
		config:     config,
		now:        func() time.Time { return time.Now().UTC() },
	}
}

// Login authenticates against the backend and opens a session.
func (s *AuthService) Login(ctx context.Context, req models.LoginRequest) (*models.LoginResponse, error) {
	req.Username = strings.TrimSpace(req.Username)
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid login payload")
	}

	upstream, err := s.backend.Login(ctx, req.Username, req.Password)
	if err != nil {
		s.logger.Info("login rejected", zap.String("username", req.Username), zap.String("ip", req.IP), zap.Error(err))
		return nil, err
	}

	user := models.UserInfo{Username: req.Username}
	if upstream.User != nil {
		if upstream.User.Username != "" {
			user.Username = upstream.User.Username
		}
		user.DisplayName = upstream.User.DisplayName
	}

	issuedAt := s.now()
	session := &models.Session{
		ID:            uuid.NewString(),
		Username:      user.Username,
		DisplayName:   user.DisplayName,
		UpstreamToken: upstream.AccessToken,
		CreatedAt:     issuedAt,
		ExpiresAt:     issuedAt.Add(s.config.SessionTTL),
	}
	if err := s.sessions.Save(ctx, session, s.config.SessionTTL); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to persist session")
	}

	token, err := s.signToken(session)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create access token")
	}

	s.logger.Info("reviewer logged in",
		zap.String("username", user.Username),
		zap.String("session_id", session.ID),
		zap.String("ip", req.IP),
		zap.String("user_agent", req.UserAgent),
	)
	return &models.LoginResponse{
		AccessToken: token,
		ExpiresIn:   int64(s.config.SessionTTL.Seconds()),
		User:        user,
		IssuedAt:    issuedAt,
	}, nil
}

// ValidateToken parses and validates an access token returning the claims.
func (s *AuthService) ValidateToken(tokenString string) (*models.JWTClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &models.JWTClaims{}, func(token *jwt.Token) (interface{}, error) {
		if token.Method != jwt.SigningMethodHS256 {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(s.config.TokenSecret), nil
	}, jwt.WithIssuer(s.config.Issuer))
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrUnauthorized.Code, appErrors.ErrUnauthorized.Status, "invalid token")
	}

	claims, ok := token.Claims.(*models.JWTClaims)
	if !ok || !token.Valid || claims.SessionID == "" {
		return nil, appErrors.Clone(appErrors.ErrUnauthorized, "invalid token claims")
	}
	return claims, nil
}

// Authenticate resolves a bearer token to its live session.
func (s *AuthService) Authenticate(ctx context.Context, tokenString string) (*models.Session, *models.JWTClaims, error) {
	claims, err := s.ValidateToken(tokenString)
	if err != nil {
		return nil, nil, err
	}
	session, err := s.sessions.Find(ctx, claims.SessionID)
	if err != nil {
		if errors.Is(err, appErrors.ErrNotFound) {
			return nil, nil, appErrors.Clone(appErrors.ErrSessionExpired, "session has ended")
		}
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load session")
	}
	if session.Expired(s.now()) {
		_ = s.Invalidate(ctx, session.ID)
		return nil, nil, appErrors.Clone(appErrors.ErrSessionExpired, "session has expired")
	}
	return session, claims, nil
}

// Logout ends the session and drops its open workspaces.
func (s *AuthService) Logout(ctx context.Context, sessionID string) error {
	if err := s.Invalidate(ctx, sessionID); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to end session")
	}
	s.logger.Info("reviewer logged out", zap.String("session_id", sessionID))
	return nil
}

// Invalidate removes the session and its workspaces.
func (s *AuthService) Invalidate(ctx context.Context, sessionID string) error {
	if s.workspaces != nil {
		s.workspaces.DiscardSession(sessionID)
	}
	return s.sessions.Delete(ctx, sessionID)
}

func (s *AuthService) signToken(session *models.Session) (string, error) {
	claims := &models.JWTClaims{
		SessionID: session.ID,
		Username:  session.Username,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    s.config.Issuer,
			Subject:   session.Username,
			ID:        uuid.NewString(),
			ExpiresAt: jwt.NewNumericDate(session.ExpiresAt),
			IssuedAt:  jwt.NewNumericDate(session.CreatedAt),
			NotBefore: jwt.NewNumericDate(session.CreatedAt),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(s.config.TokenSecret))
}
