// Package game implements the game state machine and verification engine:
// the transactional per-iteration protocol operations, orchestrating
// core/store, core/broadcast, core/bijection and core/identity.
package game

import (
	"context"
	"encoding/base64"
	"fmt"
	"time"

	"github.com/frostbyte-dev/santa-ring/core/apperr"
	"github.com/frostbyte-dev/santa-ring/core/broadcast"
	"github.com/frostbyte-dev/santa-ring/core/domain"
	"github.com/frostbyte-dev/santa-ring/core/identity"
	"github.com/frostbyte-dev/santa-ring/core/store"
	"github.com/frostbyte-dev/santa-ring/internal/logger"
	"github.com/frostbyte-dev/santa-ring/internal/metrics"
)

// Engine is the game state machine: every public method is one transaction
// against the member's current iteration, followed by an optional
// fire-and-forget broadcast that is always sequenced after its commit.
type Engine struct {
	rooms  store.RoomRepository
	tokens store.TokenStore
	bus    *broadcast.Bus
	log    logger.Logger
}

// NewEngine constructs a Game State Machine over the given repository,
// token store, and broadcast bus.
func NewEngine(rooms store.RoomRepository, tokens store.TokenStore, bus *broadcast.Bus, log logger.Logger) *Engine {
	if log == nil {
		log = logger.GetDefaultLogger()
	}
	return &Engine{rooms: rooms, tokens: tokens, bus: bus, log: log}
}

// CreateRoom decodes the owner's public key, generates a unique join code,
// and inserts Room + Iteration(0, Lobby) + owning Member + its
// MemberIterationState in one transaction, per create_room.
func (e *Engine) CreateRoom(ctx context.Context, roomName, username, pubKeyB64, seedCommitment string, maxPlayers *int) (memberID, joinCode string, err error) {
	der, fingerprint, err := identity.DecodePublicKey(pubKeyB64)
	if err != nil {
		return "", "", err
	}
	return e.rooms.CreateRoom(ctx, roomName, username, der, fingerprint, seedCommitment, maxPlayers)
}

// JoinRoom inserts the new Member + MemberIterationState and, if the join
// filled the room to capacity, implicitly starts the game, per join_room.
func (e *Engine) JoinRoom(ctx context.Context, joinCode, username, pubKeyB64, seedCommitment string) (string, error) {
	der, fingerprint, err := identity.DecodePublicKey(pubKeyB64)
	if err != nil {
		return "", err
	}

	memberID, wasLastSlot, err := e.rooms.JoinRoom(ctx, joinCode, username, der, fingerprint, seedCommitment)
	if err != nil {
		return "", err
	}

	if wasLastSlot {
		if err := e.StartGame(ctx, memberID); err != nil {
			return "", err
		}
	}
	return memberID, nil
}

// StartGame transitions Lobby -> SantaId and opens round 1. The owner-only
// requirement is enforced by the caller; the implicit auto-start path from
// JoinRoom bypasses it by design.
func (e *Engine) StartGame(ctx context.Context, memberID string) error {
	if err := e.rooms.StartGame(ctx, memberID); err != nil {
		return err
	}

	roomID, err := e.rooms.GetRoomIDByMember(ctx, memberID)
	if err != nil {
		return err
	}
	e.broadcastPhase(roomID, domain.PhaseSantaID)
	return nil
}

// RequiresOwnerPermission enforces that memberID owns its room, per
// requires_owner_permission.
func (e *Engine) RequiresOwnerPermission(ctx context.Context, memberID string) error {
	isOwner, err := e.rooms.IsOwner(ctx, memberID)
	if err != nil {
		return err
	}
	if !isOwner {
		return apperr.RequiresOwnerPermission()
	}
	return nil
}

// PublishOnionMessage inserts this member's message into the current
// round, advancing the round (or the phase, after the final round) if this
// was the last missing message, per publish_onion_message /
// handle_santa_id_message.
func (e *Engine) PublishOnionMessage(ctx context.Context, memberID string, content []string) error {
	if err := e.expectPhase(ctx, memberID, domain.PhaseSantaID); err != nil {
		return err
	}

	status, err := e.rooms.GetOnionRoundStatus(ctx, memberID)
	if err != nil {
		return err
	}
	if status.UserHasSent {
		return apperr.AlreadySentMessage()
	}
	if status.UsersRemaining == 0 {
		return apperr.Unknown(fmt.Errorf("member has not sent a message but no users remaining"))
	}

	if err := e.rooms.CreateOnionMessage(ctx, status.RoomID, memberID, content); err != nil {
		return err
	}

	if status.UsersRemaining == 1 {
		if err := e.rooms.AdvanceRound(ctx, status.RoomID, status.CurrentRound, status.TotalUsers); err != nil {
			return err
		}
		if status.CurrentRound == status.TotalUsers {
			e.broadcastPhase(status.RoomID, domain.PhaseSeedReveal)
		} else {
			e.broadcastRound(status.RoomID, status.CurrentRound+1)
		}
	}
	return nil
}

// RevealSeed verifies the revealed seed against its commitment and stores
// it, transitioning SeedReveal -> Verification once every member in the
// iteration has revealed, per reveal_seed. The "remaining" comparison
// follows Open Question 1's pinned convention: compare to 1, not 0 (see
// core/store/postgres's RevealSeed doc comment for why the SQL naturally
// produces this pre-update count).
func (e *Engine) RevealSeed(ctx context.Context, memberID, seedB64 string) error {
	if err := e.expectPhase(ctx, memberID, domain.PhaseSeedReveal); err != nil {
		return err
	}

	commitment, err := e.rooms.GetSeedCommitmentForMember(ctx, memberID)
	if err != nil {
		return err
	}

	decoded, err := base64.StdEncoding.DecodeString(seedB64)
	if err != nil {
		return apperr.LiarLiarPantsOnFire("seed is not valid base64")
	}
	if identity.Sha256Hex(decoded) != commitment {
		return apperr.LiarLiarPantsOnFire("seed commitment does not match provided seed")
	}

	remaining, err := e.rooms.RevealSeed(ctx, memberID, seedB64)
	if err != nil {
		return err
	}

	if remaining == 1 {
		roomID, err := e.rooms.GetRoomIDByMember(ctx, memberID)
		if err != nil {
			return err
		}
		if err := e.rooms.SetGamePhase(ctx, roomID, domain.PhaseVerification); err != nil {
			return err
		}
		e.broadcastPhase(roomID, domain.PhaseVerification)
	}
	return nil
}

// Verify records an Accept or invokes the Verification Engine on a Reject,
// per verify / handle_verification.
func (e *Engine) Verify(ctx context.Context, memberID string, decision domain.VerificationDecision) error {
	if err := e.expectPhase(ctx, memberID, domain.PhaseVerification); err != nil {
		return err
	}

	if !decision.Accept {
		return e.handleRejection(ctx, memberID, decision.Proof, decision.SeedHash)
	}

	remaining, err := e.rooms.MarkVerified(ctx, memberID)
	if err != nil {
		return err
	}

	if remaining == 1 {
		roomID, err := e.rooms.GetRoomIDByMember(ctx, memberID)
		if err != nil {
			return err
		}
		if err := e.rooms.SetGamePhase(ctx, roomID, domain.PhaseCompleted); err != nil {
			return err
		}
		e.broadcastPhase(roomID, domain.PhaseCompleted)
	}
	return nil
}

func (e *Engine) handleRejection(ctx context.Context, memberID, proof, newSeedCommitment string) error {
	roomID, err := e.rooms.GetRoomIDByMember(ctx, memberID)
	if err != nil {
		return err
	}

	if err := verifyRejection(ctx, e.rooms, roomID, memberID, proof); err != nil {
		return err
	}

	if err := e.rooms.MarkRejectedAndRestart(ctx, memberID, proof, newSeedCommitment); err != nil {
		return err
	}

	e.broadcastPhase(roomID, domain.PhaseRejected)
	return nil
}

// RejoinNextIteration inserts this member's MemberIterationState for the
// current SantaId-phase iteration.
func (e *Engine) RejoinNextIteration(ctx context.Context, memberID, newSeedCommitment string) error {
	return e.rooms.JoinNextIteration(ctx, memberID, newSeedCommitment)
}

// ValidateWebsocketTicket consumes an ephemeral token scoped to roomCode.
func (e *Engine) ValidateWebsocketTicket(ctx context.Context, token, roomCode string) (string, error) {
	t, err := e.tokens.ConsumeEphemeralByRoom(ctx, roomCode, token)
	if err != nil {
		return "", err
	}
	if t.Expired(time.Now()) {
		return "", apperr.ExpiredToken()
	}
	return t.MemberID, nil
}

func (e *Engine) expectPhase(ctx context.Context, memberID string, expected domain.GamePhase) error {
	current, err := e.rooms.GetGamePhaseByMember(ctx, memberID)
	if err != nil {
		return err
	}
	if current != expected {
		return apperr.InvalidGamePhase(string(expected), string(current))
	}
	return nil
}

func (e *Engine) broadcastPhase(roomID string, phase domain.GamePhase) {
	metrics.PhaseTransitions.WithLabelValues(string(phase)).Inc()
	e.bus.Broadcast(roomID, marshalEvent(Event{Type: EventPhaseChanged, Phase: string(phase)}))
}

func (e *Engine) broadcastRound(roomID string, round int) {
	e.bus.Broadcast(roomID, marshalEvent(Event{Type: EventRoundAdvanced, Round: round}))
}
