package models

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Session binds a reviewer to the backend access token obtained at login.
// It is created by AuthService.Login and removed on logout or when the backend rejects the token.
type Session struct {
	ID            string    `json:"id"`
	Username      string    `json:"username"`
	DisplayName   string    `json:"display_name,omitempty"`
	UpstreamToken string    `json:"upstream_token"`
	CreatedAt     time.Time `json:"created_at"`
	ExpiresAt     time.Time `json:"expires_at"`
}

// Expired reports whether the session is past its expiry at now.
func (s *Session) Expired(now time.Time) bool {
	return s == nil || (!s.ExpiresAt.IsZero() && !now.Before(s.ExpiresAt))
}

// LoginRequest holds reviewer credentials forwarded to the backend.
type LoginRequest struct {
	Username  string `json:"username" validate:"required"`
	Password  string `json:"password" validate:"required"`
	IP        string `json:"-"`
	UserAgent string `json:"-"`
}

// UpstreamLogin is the backend's login response.
type UpstreamLogin struct {
	AccessToken string    `json:"access_token"`
	User        *UserInfo `json:"user,omitempty"`
}

// UserInfo describes the reviewer in responses.
type UserInfo struct {
	Username    string `json:"username"`
	DisplayName string `json:"display_name,omitempty"`
}

// LoginResponse returns the service token and reviewer info.
type LoginResponse struct {
	AccessToken string    `json:"access_token"`
	ExpiresIn   int64     `json:"expires_in"`
	User        UserInfo  `json:"user"`
	IssuedAt    time.Time `json:"issued_at"`
}

// JWTClaims is the payload of tokens issued by this service.
type JWTClaims struct {
	SessionID string `json:"sid"`
	Username  string `json:"username"`
	jwt.RegisteredClaims
}
