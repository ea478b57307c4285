package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/frostbyte-dev/santa-ring/core/apperr"
	"github.com/frostbyte-dev/santa-ring/core/domain"
	"github.com/frostbyte-dev/santa-ring/core/identity"
)

// CreateRoom inserts Room, Iteration(0, Lobby), the owning Member and its
// MemberIterationState in one transaction.
func (s *Store) CreateRoom(ctx context.Context, roomName, username string, der []byte, fingerprint, seedCommitment string, maxMembers *int) (string, string, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return "", "", apperr.Database(err)
	}
	defer tx.Rollback(ctx)

	var roomID, joinCode string
	const maxAttempts = 5
	for attempt := 0; attempt < maxAttempts; attempt++ {
		code, err := identity.GenerateRoomCode()
		if err != nil {
			return "", "", apperr.TokenGenerationFailed(err)
		}

		// A failed INSERT aborts the enclosing transaction, so each attempt
		// runs under its own savepoint that a collision can roll back.
		sp, err := tx.Begin(ctx)
		if err != nil {
			return "", "", apperr.Database(err)
		}
		err = sp.QueryRow(ctx,
			`INSERT INTO room (name, join_code, max_members) VALUES ($1, $2, $3) RETURNING id`,
			roomName, code, maxMembers,
		).Scan(&roomID)
		if err == nil {
			if err := sp.Commit(ctx); err != nil {
				return "", "", apperr.Database(err)
			}
			joinCode = code
			break
		}
		_ = sp.Rollback(ctx)
		if isUniqueViolation(err) {
			continue
		}
		return "", "", apperr.Database(err)
	}
	if joinCode == "" {
		return "", "", apperr.Unknown(fmt.Errorf("failed to allocate a unique join code after %d attempts", maxAttempts))
	}

	var iterationID string
	if err := tx.QueryRow(ctx,
		`INSERT INTO game_iteration (room_id, iteration, phase) VALUES ($1, 0, 'lobby') RETURNING id`,
		roomID,
	).Scan(&iterationID); err != nil {
		return "", "", apperr.Database(err)
	}

	var memberID string
	if err := tx.QueryRow(ctx,
		`INSERT INTO room_member (room_id, name, fingerprint, public_key, is_owner)
		 VALUES ($1, $2, $3, $4, TRUE) RETURNING id`,
		roomID, username, fingerprint, der,
	).Scan(&memberID); err != nil {
		return "", "", apperr.Database(err)
	}

	if _, err := tx.Exec(ctx,
		`INSERT INTO member_iteration_state (member_id, iteration_id, seed_commitment) VALUES ($1, $2, $3)`,
		memberID, iterationID, seedCommitment,
	); err != nil {
		return "", "", apperr.Database(err)
	}

	if err := tx.Commit(ctx); err != nil {
		return "", "", apperr.Database(err)
	}
	return memberID, joinCode, nil
}

// JoinRoom looks up the room by join code, enforces capacity, and inserts
// the new Member + MemberIterationState into the room's current iteration.
// Joins are only permitted while that iteration is still in Lobby; the
// iteration lookup filters on phase = 'lobby' rather than assuming iteration
// 0, since a rejection can advance the room to a later Lobby-less iteration.
func (s *Store) JoinRoom(ctx context.Context, joinCode, username string, der []byte, fingerprint, seedCommitment string) (string, bool, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return "", false, apperr.Database(err)
	}
	defer tx.Rollback(ctx)

	var roomID string
	var maxMembers *int
	err = tx.QueryRow(ctx,
		`SELECT id, max_members FROM room WHERE join_code = $1 AND deleted_at IS NULL`,
		joinCode,
	).Scan(&roomID, &maxMembers)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", false, apperr.RoomNotFound()
	}
	if err != nil {
		return "", false, apperr.Database(err)
	}

	var iterationID string
	err = tx.QueryRow(ctx,
		`SELECT id FROM game_iteration WHERE room_id = $1 AND phase = 'lobby' ORDER BY iteration DESC LIMIT 1`,
		roomID,
	).Scan(&iterationID)
	if errors.Is(err, pgx.ErrNoRows) {
		var current string
		if cerr := tx.QueryRow(ctx,
			`SELECT phase FROM game_iteration WHERE room_id = $1 ORDER BY iteration DESC LIMIT 1`,
			roomID,
		).Scan(&current); cerr != nil {
			return "", false, apperr.Database(cerr)
		}
		return "", false, apperr.InvalidGamePhase(string(domain.PhaseLobby), current)
	}
	if err != nil {
		return "", false, apperr.Database(err)
	}

	var currentCount int
	wasLastSlot := false
	if maxMembers != nil {
		if err := tx.QueryRow(ctx,
			`SELECT COUNT(*) FROM room_member WHERE room_id = $1`, roomID,
		).Scan(&currentCount); err != nil {
			return "", false, apperr.Database(err)
		}
		if currentCount >= *maxMembers {
			return "", false, apperr.RoomFull()
		}
		wasLastSlot = currentCount+1 == *maxMembers
	}

	var memberID string
	if err := tx.QueryRow(ctx,
		`INSERT INTO room_member (room_id, name, fingerprint, public_key) VALUES ($1, $2, $3, $4) RETURNING id`,
		roomID, username, fingerprint, der,
	).Scan(&memberID); err != nil {
		return "", false, apperr.Database(err)
	}

	if _, err := tx.Exec(ctx,
		`INSERT INTO member_iteration_state (member_id, iteration_id, seed_commitment) VALUES ($1, $2, $3)`,
		memberID, iterationID, seedCommitment,
	); err != nil {
		return "", false, apperr.Database(err)
	}

	if err := tx.Commit(ctx); err != nil {
		return "", false, apperr.Database(err)
	}
	return memberID, wasLastSlot, nil
}

func (s *Store) GetRoomIDByMember(ctx context.Context, memberID string) (string, error) {
	var roomID string
	err := s.pool.QueryRow(ctx, `SELECT room_id FROM room_member WHERE id = $1`, memberID).Scan(&roomID)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", apperr.MemberNotFound()
	}
	if err != nil {
		return "", apperr.Database(err)
	}
	return roomID, nil
}

func (s *Store) IsOwner(ctx context.Context, memberID string) (bool, error) {
	var isOwner bool
	err := s.pool.QueryRow(ctx, `SELECT is_owner FROM room_member WHERE id = $1`, memberID).Scan(&isOwner)
	if errors.Is(err, pgx.ErrNoRows) {
		return false, apperr.MemberNotFound()
	}
	if err != nil {
		return false, apperr.Database(err)
	}
	return isOwner, nil
}

func (s *Store) GetMemberByFingerprint(ctx context.Context, fingerprint string) (string, []byte, error) {
	var memberID string
	var der []byte
	err := s.pool.QueryRow(ctx,
		`SELECT id, public_key FROM room_member WHERE fingerprint = $1`, fingerprint,
	).Scan(&memberID, &der)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", nil, apperr.MemberNotFound()
	}
	if err != nil {
		return "", nil, apperr.Database(err)
	}
	return memberID, der, nil
}

func (s *Store) GetMemberName(ctx context.Context, memberID string) (string, error) {
	var name string
	err := s.pool.QueryRow(ctx, `SELECT name FROM room_member WHERE id = $1`, memberID).Scan(&name)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", apperr.MemberNotFound()
	}
	if err != nil {
		return "", apperr.Database(err)
	}
	return name, nil
}

func (s *Store) GetMemberNames(ctx context.Context, roomID string) ([]string, error) {
	rows, err := s.pool.Query(ctx, `SELECT name FROM room_member WHERE room_id = $1`, roomID)
	if err != nil {
		return nil, apperr.Database(err)
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, apperr.Database(err)
		}
		names = append(names, name)
	}
	return names, rows.Err()
}

func (s *Store) RoomJoinCode(ctx context.Context, roomID string) (string, error) {
	var code string
	err := s.pool.QueryRow(ctx, `SELECT join_code FROM room WHERE id = $1 AND deleted_at IS NULL`, roomID).Scan(&code)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", apperr.RoomNotFound()
	}
	if err != nil {
		return "", apperr.Database(err)
	}
	return code, nil
}

func (s *Store) ListRooms(ctx context.Context, limit int) ([]domain.Room, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, name, join_code, max_members, created_at FROM room
		 WHERE deleted_at IS NULL ORDER BY created_at DESC LIMIT $1`,
		limit,
	)
	if err != nil {
		return nil, apperr.Database(err)
	}
	defer rows.Close()

	var out []domain.Room
	for rows.Next() {
		var r domain.Room
		if err := rows.Scan(&r.ID, &r.Name, &r.JoinCode, &r.MaxMembers, &r.CreatedAt); err != nil {
			return nil, apperr.Database(err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// isUniqueViolation reports whether err is a Postgres unique_violation
// (SQLSTATE 23505), used to retry join-code generation on collision.
func isUniqueViolation(err error) bool {
	var pgErr interface{ SQLState() string }
	if errors.As(err, &pgErr) {
		return pgErr.SQLState() == "23505"
	}
	return false
}
