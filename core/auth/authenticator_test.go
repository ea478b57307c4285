package auth

import (
	"context"
	"testing"
	"time"

	"github.com/frostbyte-dev/santa-ring/core/domain"
	"github.com/frostbyte-dev/santa-ring/core/store"
)

// fakeTokenStore is a minimal in-memory store.TokenStore for exercising
// Authenticate without a database.
type fakeTokenStore struct {
	sessions map[string]*domain.Token
}

var _ store.TokenStore = (*fakeTokenStore)(nil)

func (f *fakeTokenStore) Issue(ctx context.Context, memberID string, kind domain.TokenType, value string, expiresAt time.Time, userAgent, ipAddress *string) error {
	return nil
}

func (f *fakeTokenStore) TouchSession(ctx context.Context, value string) (*domain.Token, error) {
	tok, ok := f.sessions[value]
	if !ok {
		return nil, nil
	}
	return tok, nil
}

func (f *fakeTokenStore) ConsumeChallenge(ctx context.Context, fingerprint, value string) (*domain.Token, error) {
	return nil, nil
}

func (f *fakeTokenStore) ConsumeEphemeralByRoom(ctx context.Context, roomCode, value string) (*domain.Token, error) {
	return nil, nil
}

func (f *fakeTokenStore) RevokeAll(ctx context.Context, memberID string) error {
	return nil
}

func TestExtractTokenPrefersCookie(t *testing.T) {
	value, err := ExtractToken("cookie-value", "Bearer header-value")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if value != "cookie-value" {
		t.Errorf("expected cookie-value, got %s", value)
	}
}

func TestExtractTokenFallsBackToHeader(t *testing.T) {
	value, err := ExtractToken("", "Bearer header-value")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if value != "header-value" {
		t.Errorf("expected header-value, got %s", value)
	}
}

func TestExtractTokenMissing(t *testing.T) {
	if _, err := ExtractToken("", ""); err == nil {
		t.Error("expected an error when neither cookie nor header is present")
	}
}

func TestAuthenticateSuccess(t *testing.T) {
	store := &fakeTokenStore{sessions: map[string]*domain.Token{
		"sess-1": {MemberID: "member-1", Type: domain.TokenSession, Value: "sess-1", ExpiresAt: time.Now().Add(time.Hour)},
	}}

	tok, err := Authenticate(context.Background(), store, "sess-1", "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if tok.MemberID != "member-1" {
		t.Errorf("expected member-1, got %s", tok.MemberID)
	}
}

func TestAuthenticateExpired(t *testing.T) {
	store := &fakeTokenStore{sessions: map[string]*domain.Token{
		"sess-1": {MemberID: "member-1", Type: domain.TokenSession, Value: "sess-1", ExpiresAt: time.Now().Add(-time.Hour)},
	}}

	if _, err := Authenticate(context.Background(), store, "sess-1", ""); err == nil {
		t.Error("expected an error for an expired session")
	}
}

func TestAuthenticateUnknownToken(t *testing.T) {
	store := &fakeTokenStore{sessions: map[string]*domain.Token{}}

	if _, err := Authenticate(context.Background(), store, "missing", ""); err == nil {
		t.Error("expected an error for an unknown session token")
	}
}
