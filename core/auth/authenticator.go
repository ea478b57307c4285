// Package auth implements the Session Authenticator: token extraction from
// a cookie or bearer header, and validation against the Token Store, as a
// plain Go function the HTTP edge's middleware calls directly.
package auth

import (
	"context"
	"strings"
	"time"

	"github.com/frostbyte-dev/santa-ring/core/apperr"
	"github.com/frostbyte-dev/santa-ring/core/domain"
	"github.com/frostbyte-dev/santa-ring/core/store"
)

const bearerPrefix = "Bearer "

// ExtractToken prefers the session cookie, falling back to the
// Authorization bearer header.
func ExtractToken(cookieValue, authHeader string) (string, error) {
	if cookieValue != "" {
		return cookieValue, nil
	}
	if authHeader != "" {
		return strings.TrimPrefix(authHeader, bearerPrefix), nil
	}
	return "", apperr.MissingToken()
}

// Authenticate resolves a raw token value to its Session token, touching
// its last-seen timestamp and rejecting it if absent or expired.
func Authenticate(ctx context.Context, tokens store.TokenStore, cookieValue, authHeader string) (*domain.Token, error) {
	value, err := ExtractToken(cookieValue, authHeader)
	if err != nil {
		return nil, err
	}

	session, err := tokens.TouchSession(ctx, value)
	if err != nil {
		return nil, err
	}
	if session == nil {
		return nil, apperr.ExpiredToken()
	}
	if session.Expired(time.Now()) {
		return nil, apperr.ExpiredToken()
	}
	return session, nil
}
