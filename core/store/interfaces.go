// Package store defines the persistence contracts the Game State Machine
// depends on — a Room Repository and a Token Store — leaving the concrete
// backend (core/store/postgres) as the only component that speaks SQL.
package store

import (
	"context"
	"time"

	"github.com/frostbyte-dev/santa-ring/core/domain"
)

// RoomRepository is CRUD for rooms, members, iterations, member-iteration
// state, onion rounds and messages. Every mutation here is a single
// transaction against the member's current iteration.
type RoomRepository interface {
	// CreateRoom inserts Room, Iteration(0, Lobby), the owning Member, and
	// its MemberIterationState in one transaction. Returns the new member
	// (owner) ID and the generated join code.
	CreateRoom(ctx context.Context, roomName, username string, der []byte, fingerprint, seedCommitment string, maxMembers *int) (memberID, joinCode string, err error)

	// JoinRoom looks up the room by join code, checks capacity, and inserts
	// the new Member + MemberIterationState for the current iteration.
	// wasLastSlot reports whether this join filled the room to max_members.
	JoinRoom(ctx context.Context, joinCode, username string, der []byte, fingerprint, seedCommitment string) (memberID string, wasLastSlot bool, err error)

	// GetRoomIDByMember resolves a member to its owning room.
	GetRoomIDByMember(ctx context.Context, memberID string) (roomID string, err error)

	// IsOwner reports whether memberID is the owning member of its room.
	IsOwner(ctx context.Context, memberID string) (bool, error)

	// GetGamePhaseByMember returns the phase of the member's room's current
	// (highest-iteration) iteration.
	GetGamePhaseByMember(ctx context.Context, memberID string) (domain.GamePhase, error)

	// StartGame transitions Lobby -> SantaId and opens round 1. Returns
	// apperr.InvalidGamePhase if the current phase isn't Lobby.
	StartGame(ctx context.Context, memberID string) error

	// GetOnionRoundStatus reads the current round's quorum state for the
	// member's room: current round number, whether this member has already
	// sent a message, how many members are still missing one, and the
	// total member count.
	GetOnionRoundStatus(ctx context.Context, memberID string) (domain.OnionRoundStatus, error)

	// CreateOnionMessage inserts this member's message into the current
	// round of the given room.
	CreateOnionMessage(ctx context.Context, roomID, memberID string, content []string) error

	// AdvanceRound opens OnionRound(currentRound+1), or transitions phase
	// to SeedReveal if currentRound == totalMembers.
	AdvanceRound(ctx context.Context, roomID string, currentRound, totalMembers int) error

	// GetSeedCommitmentForMember returns the commitment pinned for the
	// member's current iteration.
	GetSeedCommitmentForMember(ctx context.Context, memberID string) (string, error)

	// RevealSeed stores the seed for the member's current iteration and
	// returns the number of members in that iteration still missing a
	// seed, counted INCLUDING the row just updated (the row's own
	// now-non-null seed does not decrement the count — see DESIGN.md's
	// resolution of Open Question 1).
	RevealSeed(ctx context.Context, memberID, seedB64 string) (remaining int, err error)

	// SetGamePhase sets the phase of the room's current (highest) iteration.
	SetGamePhase(ctx context.Context, roomID string, phase domain.GamePhase) error

	// MarkVerified flips verification_status=true for this member in the
	// current iteration and returns the number of members in that
	// iteration still pending, by the same including-self convention as
	// RevealSeed.
	MarkVerified(ctx context.Context, memberID string) (remaining int, err error)

	// GetSantaIDMessages returns every opaque string from every onion
	// message in the current (final) round of the member's room — the
	// pseudonymous Santa-ID handles.
	GetSantaIDMessages(ctx context.Context, roomID string) ([]string, error)

	// GetSeedReveals returns every non-null revealed seed for the current
	// iteration of the room.
	GetSeedReveals(ctx context.Context, roomID string) ([]string, error)

	// GetMemberNames returns the names of every member of the room.
	GetMemberNames(ctx context.Context, roomID string) ([]string, error)

	// GetMemberName returns a single member's display name.
	GetMemberName(ctx context.Context, memberID string) (string, error)

	// MarkRejectedAndRestart atomically: sets this member's
	// verification_status=true and rejected_proof, sets the current
	// iteration's phase to Rejected, creates Iteration(iteration+1,
	// SantaId), and inserts this member's MemberIterationState for it.
	MarkRejectedAndRestart(ctx context.Context, memberID, proof, newSeedCommitment string) error

	// JoinNextIteration inserts a MemberIterationState row for memberID in
	// the current (SantaId-phase) iteration of its room, if absent.
	JoinNextIteration(ctx context.Context, memberID, newSeedCommitment string) error

	// GetMemberByFingerprint resolves a fingerprint to a member ID and its
	// stored public key.
	GetMemberByFingerprint(ctx context.Context, fingerprint string) (memberID string, der []byte, err error)

	// RoomJoinCode resolves a room ID to its join code (used by the CLI).
	RoomJoinCode(ctx context.Context, roomID string) (string, error)

	// ListRooms returns a page of non-deleted rooms, most-recent first.
	ListRooms(ctx context.Context, limit int) ([]domain.Room, error)

	// Ping verifies connectivity to the backing store.
	Ping(ctx context.Context) error
}

// TokenStore persists the three token kinds with per-kind single-active
// invariants and atomic consume-on-use semantics.
type TokenStore interface {
	// Issue deletes any existing row of (memberID, kind) then inserts the
	// new one, in a single transaction.
	Issue(ctx context.Context, memberID string, kind domain.TokenType, value string, expiresAt time.Time, userAgent, ipAddress *string) error

	// TouchSession updates last_seen_at on the Session token matching
	// value and returns the row, or (nil, nil) if absent.
	TouchSession(ctx context.Context, value string) (*domain.Token, error)

	// ConsumeChallenge atomically deletes and returns the Challenge token
	// matching value whose owning member has the given fingerprint.
	ConsumeChallenge(ctx context.Context, fingerprint, value string) (*domain.Token, error)

	// ConsumeEphemeralByRoom atomically deletes and returns the Ephemeral
	// token matching value whose owning member belongs to the room with
	// the given join code.
	ConsumeEphemeralByRoom(ctx context.Context, roomCode, value string) (*domain.Token, error)

	// RevokeAll deletes every token owned by memberID (logout).
	RevokeAll(ctx context.Context, memberID string) error
}
