package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"github.com/frostbyte-dev/santa-ring/core/apperr"
	"github.com/frostbyte-dev/santa-ring/core/domain"
)

func (s *Store) GetGamePhaseByMember(ctx context.Context, memberID string) (domain.GamePhase, error) {
	var phase string
	err := s.pool.QueryRow(ctx,
		`SELECT gi.phase FROM room_member rm
		 JOIN game_iteration gi ON gi.room_id = rm.room_id
		 WHERE rm.id = $1 ORDER BY gi.iteration DESC LIMIT 1`,
		memberID,
	).Scan(&phase)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", apperr.MemberNotFound()
	}
	if err != nil {
		return "", apperr.Database(err)
	}
	return domain.GamePhase(phase), nil
}

// StartGame uses a single conditional UPDATE to guard the Lobby->SantaId
// precondition so two racing owners can't both advance the phase.
func (s *Store) StartGame(ctx context.Context, memberID string) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return apperr.Database(err)
	}
	defer tx.Rollback(ctx)

	var roomID string
	tag, err := tx.Exec(ctx,
		`UPDATE game_iteration SET started_at = NOW(), phase = 'santa_id'
		 WHERE room_id = (SELECT room_id FROM room_member WHERE id = $1)
		   AND iteration = 0 AND started_at IS NULL AND phase = 'lobby'`,
		memberID,
	)
	if err != nil {
		return apperr.Database(err)
	}
	if tag.RowsAffected() == 0 {
		current, cerr := s.GetGamePhaseByMember(ctx, memberID)
		if cerr != nil {
			return cerr
		}
		return apperr.InvalidGamePhase(string(domain.PhaseLobby), string(current))
	}

	if err := tx.QueryRow(ctx, `SELECT room_id FROM room_member WHERE id = $1`, memberID).Scan(&roomID); err != nil {
		return apperr.Database(err)
	}
	var iterationID string
	if err := tx.QueryRow(ctx,
		`SELECT id FROM game_iteration WHERE room_id = $1 AND iteration = 0`, roomID,
	).Scan(&iterationID); err != nil {
		return apperr.Database(err)
	}
	if _, err := tx.Exec(ctx,
		`INSERT INTO onion_round (iteration_id, round_number) VALUES ($1, 1)`, iterationID,
	); err != nil {
		return apperr.Database(err)
	}

	if err := tx.Commit(ctx); err != nil {
		return apperr.Database(err)
	}
	return nil
}

// GetOnionRoundStatus runs a single CTE chain to gather the current round,
// whether this member has sent, the remaining count, and total members.
func (s *Store) GetOnionRoundStatus(ctx context.Context, memberID string) (domain.OnionRoundStatus, error) {
	var status domain.OnionRoundStatus
	err := s.pool.QueryRow(ctx, `
		WITH members_room AS (
			SELECT room_id AS id FROM room_member WHERE id = $1
		),
		current_iteration AS (
			SELECT id FROM game_iteration
			WHERE room_id = (SELECT id FROM members_room)
			ORDER BY iteration DESC LIMIT 1
		),
		current_round AS (
			SELECT id, round_number FROM onion_round
			WHERE iteration_id = (SELECT id FROM current_iteration)
			ORDER BY round_number DESC LIMIT 1
		),
		has_sent AS (
			SELECT EXISTS(
				SELECT 1 FROM onion_message m
				JOIN current_round cr ON m.round_id = cr.id
				WHERE m.member_id = $1
			) AS value
		),
		remaining AS (
			SELECT COUNT(*) AS value FROM room_member rm
			WHERE rm.room_id = (SELECT id FROM members_room)
			AND rm.id NOT IN (
				SELECT m.member_id FROM onion_message m
				JOIN current_round cr ON m.round_id = cr.id
			)
		),
		total AS (
			SELECT COUNT(*) AS value FROM room_member WHERE room_id = (SELECT id FROM members_room)
		)
		SELECT cr.round_number, mr.id, hs.value, rem.value, t.value
		FROM members_room mr, current_round cr, has_sent hs, remaining rem, total t
	`, memberID).Scan(&status.CurrentRound, &status.RoomID, &status.UserHasSent, &status.UsersRemaining, &status.TotalUsers)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.OnionRoundStatus{}, apperr.MemberNotFound()
	}
	if err != nil {
		return domain.OnionRoundStatus{}, apperr.Database(err)
	}
	return status, nil
}

func (s *Store) CreateOnionMessage(ctx context.Context, roomID, memberID string, content []string) error {
	tag, err := s.pool.Exec(ctx, `
		WITH current_iteration AS (
			SELECT id FROM game_iteration WHERE room_id = $1 ORDER BY iteration DESC LIMIT 1
		),
		current_round AS (
			SELECT id FROM onion_round
			WHERE iteration_id = (SELECT id FROM current_iteration)
			ORDER BY round_number DESC LIMIT 1
		)
		INSERT INTO onion_message (member_id, round_id, content)
		SELECT $2, cr.id, $3 FROM current_round cr
	`, roomID, memberID, content)
	if err != nil {
		return apperr.Database(err)
	}
	if tag.RowsAffected() == 0 {
		return apperr.Unknown(errors.New("no current onion round to insert into"))
	}
	return nil
}

// AdvanceRound opens the next round or transitions to SeedReveal.
func (s *Store) AdvanceRound(ctx context.Context, roomID string, currentRound, totalMembers int) error {
	if currentRound == totalMembers {
		return s.SetGamePhase(ctx, roomID, domain.PhaseSeedReveal)
	}

	_, err := s.pool.Exec(ctx, `
		WITH current_iteration AS (
			SELECT id FROM game_iteration WHERE room_id = $1 ORDER BY iteration DESC LIMIT 1
		)
		INSERT INTO onion_round (iteration_id, round_number)
		SELECT id, $2 FROM current_iteration
	`, roomID, currentRound+1)
	if err != nil {
		return apperr.Database(err)
	}
	return nil
}

func (s *Store) GetSeedCommitmentForMember(ctx context.Context, memberID string) (string, error) {
	var commitment string
	err := s.pool.QueryRow(ctx, `
		SELECT mis.seed_commitment FROM member_iteration_state mis
		JOIN game_iteration gi ON mis.iteration_id = gi.id
		WHERE mis.member_id = $1 ORDER BY gi.iteration DESC LIMIT 1
	`, memberID).Scan(&commitment)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", apperr.MemberNotFound()
	}
	if err != nil {
		return "", apperr.Database(err)
	}
	return commitment, nil
}

// RevealSeed uses a single UPDATE ... RETURNING to close the per-round-quorum
// race that a read-then-write would leave open. The final SELECT scans
// member_iteration_state under the query's start-of-statement snapshot, so
// it does not see the updated CTE's own write to this row's seed column —
// it still counts this row as NULL. That means "remaining" is the count of
// unrevealed seeds *before* this call, so the last member to reveal sees
// remaining == 1, not 0; callers compare against 1 (see DESIGN.md).
func (s *Store) RevealSeed(ctx context.Context, memberID, seedB64 string) (int, error) {
	var remaining int
	err := s.pool.QueryRow(ctx, `
		WITH current_iteration AS (
			SELECT gi.id FROM room_member rm
			JOIN game_iteration gi ON rm.room_id = gi.room_id
			WHERE rm.id = $1 ORDER BY gi.iteration DESC LIMIT 1
		),
		updated AS (
			UPDATE member_iteration_state
			SET seed = $2
			WHERE member_id = $1
			AND iteration_id = (SELECT id FROM current_iteration)
			RETURNING iteration_id
		)
		SELECT COUNT(*) FROM member_iteration_state mis
		JOIN updated u ON mis.iteration_id = u.iteration_id
		WHERE mis.seed IS NULL
	`, memberID, seedB64).Scan(&remaining)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, apperr.MemberNotFound()
	}
	if err != nil {
		return 0, apperr.Database(err)
	}
	return remaining, nil
}

func (s *Store) SetGamePhase(ctx context.Context, roomID string, phase domain.GamePhase) error {
	_, err := s.pool.Exec(ctx, `
		UPDATE game_iteration SET phase = $2
		WHERE room_id = $1 AND iteration = (SELECT MAX(iteration) FROM game_iteration WHERE room_id = $1)
	`, roomID, string(phase))
	if err != nil {
		return apperr.Database(err)
	}
	return nil
}

// MarkVerified uses the same pre-update-count convention RevealSeed uses:
// the caller's own row still counts as pending, so the last member to
// accept sees remaining == 1.
func (s *Store) MarkVerified(ctx context.Context, memberID string) (int, error) {
	var remaining int
	err := s.pool.QueryRow(ctx, `
		WITH current_iteration AS (
			SELECT gi.id FROM room_member rm
			JOIN game_iteration gi ON rm.room_id = gi.room_id
			WHERE rm.id = $1 ORDER BY gi.iteration DESC LIMIT 1
		),
		updated AS (
			UPDATE member_iteration_state
			SET verification_status = TRUE
			WHERE member_id = $1
			AND iteration_id = (SELECT id FROM current_iteration)
			RETURNING iteration_id
		)
		SELECT COUNT(*) FROM member_iteration_state mis
		JOIN updated u ON mis.iteration_id = u.iteration_id
		WHERE mis.verification_status = FALSE
	`, memberID).Scan(&remaining)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, apperr.MemberNotFound()
	}
	if err != nil {
		return 0, apperr.Database(err)
	}
	return remaining, nil
}

// GetSantaIDMessages flattens every onion message's content array in the
// current (final) round of the room via a row-to-array unnest.
func (s *Store) GetSantaIDMessages(ctx context.Context, roomID string) ([]string, error) {
	rows, err := s.pool.Query(ctx, `
		WITH current_iteration AS (
			SELECT id FROM game_iteration WHERE room_id = $1 ORDER BY iteration DESC LIMIT 1
		),
		latest_round AS (
			SELECT id FROM onion_round
			WHERE iteration_id = (SELECT id FROM current_iteration)
			ORDER BY round_number DESC LIMIT 1
		)
		SELECT unnest(content) FROM onion_message m
		JOIN latest_round lr ON m.round_id = lr.id
	`, roomID)
	if err != nil {
		return nil, apperr.Database(err)
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var v string
		if err := rows.Scan(&v); err != nil {
			return nil, apperr.Database(err)
		}
		out = append(out, v)
	}
	return out, rows.Err()
}

func (s *Store) GetSeedReveals(ctx context.Context, roomID string) ([]string, error) {
	rows, err := s.pool.Query(ctx, `
		WITH current_iteration AS (
			SELECT id FROM game_iteration WHERE room_id = $1 ORDER BY iteration DESC LIMIT 1
		)
		SELECT mis.seed FROM member_iteration_state mis
		JOIN current_iteration ci ON mis.iteration_id = ci.id
		WHERE mis.seed IS NOT NULL
	`, roomID)
	if err != nil {
		return nil, apperr.Database(err)
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var v string
		if err := rows.Scan(&v); err != nil {
			return nil, apperr.Database(err)
		}
		out = append(out, v)
	}
	return out, rows.Err()
}

// MarkRejectedAndRestart runs one atomic CTE chain that closes out the old
// iteration and opens the new one, so two concurrent valid rejections can't
// both succeed (the WHERE phase = 'verification' guard means the loser's
// CTE matches zero rows).
func (s *Store) MarkRejectedAndRestart(ctx context.Context, memberID, proof, newSeedCommitment string) error {
	tag, err := s.pool.Exec(ctx, `
		WITH current_iteration AS (
			SELECT gi.id, gi.iteration, gi.room_id FROM room_member rm
			JOIN game_iteration gi ON rm.room_id = gi.room_id
			WHERE rm.id = $1 AND gi.phase = 'verification'
			ORDER BY gi.iteration DESC LIMIT 1
		),
		state_update AS (
			UPDATE member_iteration_state
			SET verification_status = TRUE, rejected_proof = $2
			WHERE member_id = $1 AND iteration_id = (SELECT id FROM current_iteration)
			RETURNING member_id
		),
		phase_update AS (
			UPDATE game_iteration SET phase = 'rejected'
			WHERE id = (SELECT id FROM current_iteration)
			RETURNING id
		),
		new_iteration AS (
			INSERT INTO game_iteration (room_id, iteration, phase)
			SELECT room_id, iteration + 1, 'santa_id' FROM current_iteration
			RETURNING id
		)
		INSERT INTO member_iteration_state (member_id, iteration_id, seed_commitment)
		SELECT $1, new_iteration.id, $3 FROM new_iteration, state_update, phase_update
	`, memberID, proof, newSeedCommitment)
	if err != nil {
		return apperr.Database(err)
	}
	if tag.RowsAffected() == 0 {
		current, cerr := s.GetGamePhaseByMember(ctx, memberID)
		if cerr != nil {
			return cerr
		}
		return apperr.InvalidGamePhase(string(domain.PhaseVerification), string(current))
	}
	return nil
}

func (s *Store) JoinNextIteration(ctx context.Context, memberID, newSeedCommitment string) error {
	tag, err := s.pool.Exec(ctx, `
		WITH current_iteration AS (
			SELECT id FROM game_iteration
			WHERE room_id = (SELECT room_id FROM room_member WHERE id = $1)
			AND phase = 'santa_id'
			ORDER BY iteration DESC LIMIT 1
		)
		INSERT INTO member_iteration_state (member_id, iteration_id, seed_commitment)
		SELECT $1, id, $2 FROM current_iteration
		ON CONFLICT (member_id, iteration_id) DO NOTHING
	`, memberID, newSeedCommitment)
	if err != nil {
		return apperr.Database(err)
	}
	if tag.RowsAffected() == 0 {
		current, cerr := s.GetGamePhaseByMember(ctx, memberID)
		if cerr != nil {
			return cerr
		}
		return apperr.InvalidGamePhase(string(domain.PhaseSantaID), string(current))
	}
	return nil
}
