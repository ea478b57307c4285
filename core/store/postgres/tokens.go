package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/frostbyte-dev/santa-ring/core/apperr"
	"github.com/frostbyte-dev/santa-ring/core/domain"
)

// Issue deletes any existing token of (memberID, kind) then inserts the new
// one, as two statements in a single transaction. The unique index on
// (member_id, token_type) backstops this against races.
func (s *Store) Issue(ctx context.Context, memberID string, kind domain.TokenType, value string, expiresAt time.Time, userAgent, ipAddress *string) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return apperr.Database(err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `DELETE FROM token WHERE member_id = $1 AND token_type = $2`, memberID, string(kind)); err != nil {
		return apperr.Database(err)
	}
	if _, err := tx.Exec(ctx, `
		INSERT INTO token (member_id, token_type, token, expires_at, user_agent, ip_address)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, memberID, string(kind), value, expiresAt, userAgent, ipAddress); err != nil {
		return apperr.Database(err)
	}
	if err := tx.Commit(ctx); err != nil {
		return apperr.Database(err)
	}
	return nil
}

// TouchSession updates last_seen_at on the Session token matching value and
// returns the refreshed row.
func (s *Store) TouchSession(ctx context.Context, value string) (*domain.Token, error) {
	var t domain.Token
	err := s.pool.QueryRow(ctx, `
		UPDATE token SET last_seen_at = NOW()
		WHERE token = $1 AND token_type = 'session'
		RETURNING id, member_id, token_type, token, created_at, expires_at, last_seen_at, user_agent, ip_address
	`, value).Scan(&t.ID, &t.MemberID, &t.Type, &t.Value, &t.CreatedAt, &t.ExpiresAt, &t.LastSeenAt, &t.UserAgent, &t.IPAddress)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, apperr.Database(err)
	}
	return &t, nil
}

// ConsumeChallenge atomically deletes and returns the Challenge token
// matching value owned by the member with the given fingerprint
// (DELETE ... USING ... RETURNING).
func (s *Store) ConsumeChallenge(ctx context.Context, fingerprint, value string) (*domain.Token, error) {
	var t domain.Token
	err := s.pool.QueryRow(ctx, `
		DELETE FROM token USING room_member
		WHERE token.member_id = room_member.id
		  AND room_member.fingerprint = $1
		  AND token.token = $2
		  AND token.token_type = 'challenge'
		RETURNING token.id, token.member_id, token.token_type, token.token,
		          token.created_at, token.expires_at, token.last_seen_at,
		          token.user_agent, token.ip_address
	`, fingerprint, value).Scan(&t.ID, &t.MemberID, &t.Type, &t.Value, &t.CreatedAt, &t.ExpiresAt, &t.LastSeenAt, &t.UserAgent, &t.IPAddress)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperr.InvalidToken()
	}
	if err != nil {
		return nil, apperr.Database(err)
	}
	return &t, nil
}

// ConsumeEphemeralByRoom atomically deletes and returns the Ephemeral token
// matching value owned by a member of the room with the given join code.
func (s *Store) ConsumeEphemeralByRoom(ctx context.Context, roomCode, value string) (*domain.Token, error) {
	var t domain.Token
	err := s.pool.QueryRow(ctx, `
		DELETE FROM token USING room_member, room
		WHERE token.member_id = room_member.id
		  AND room_member.room_id = room.id
		  AND room.join_code = $1
		  AND room.deleted_at IS NULL
		  AND token.token = $2
		  AND token.token_type = 'ephemeral'
		RETURNING token.id, token.member_id, token.token_type, token.token,
		          token.created_at, token.expires_at, token.last_seen_at,
		          token.user_agent, token.ip_address
	`, roomCode, value).Scan(&t.ID, &t.MemberID, &t.Type, &t.Value, &t.CreatedAt, &t.ExpiresAt, &t.LastSeenAt, &t.UserAgent, &t.IPAddress)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperr.InvalidToken()
	}
	if err != nil {
		return nil, apperr.Database(err)
	}
	return &t, nil
}

// RevokeAll deletes every token owned by memberID (logout).
func (s *Store) RevokeAll(ctx context.Context, memberID string) error {
	if _, err := s.pool.Exec(ctx, `DELETE FROM token WHERE member_id = $1`, memberID); err != nil {
		return apperr.Database(err)
	}
	return nil
}
