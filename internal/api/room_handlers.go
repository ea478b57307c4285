package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/frostbyte-dev/santa-ring/core/apperr"
	"github.com/frostbyte-dev/santa-ring/core/domain"
	"github.com/frostbyte-dev/santa-ring/core/identity"
	"github.com/frostbyte-dev/santa-ring/internal/metrics"
)

type createRoomRequest struct {
	RoomName   string `json:"room_name" binding:"required"`
	Username   string `json:"username" binding:"required"`
	PublicKey  string `json:"public_key" binding:"required"`
	SeedHash   string `json:"seed_hash" binding:"required"`
	MaxPlayers *int   `json:"max_players"`
}

// handleCreateRoom implements POST /room/create: creates the room and its
// owning member, then issues an ephemeral ticket and session.
func (h *Handler) handleCreateRoom(c *gin.Context) {
	var req createRoomRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, apperr.ValidationError(err.Error()))
		return
	}

	ctx := c.Request.Context()
	memberID, _, err := h.engine.CreateRoom(ctx, req.RoomName, req.Username, req.PublicKey, req.SeedHash, req.MaxPlayers)
	if err != nil {
		writeError(c, err)
		return
	}

	roomID, err := h.rooms.GetRoomIDByMember(ctx, memberID)
	if err != nil {
		writeError(c, err)
		return
	}

	if err := h.issueSessionAndRespond(c, memberID, roomID, http.StatusCreated); err != nil {
		writeError(c, err)
		return
	}
	metrics.RoomsCreated.Inc()
}

type joinRoomRequest struct {
	RoomID    string `json:"room_id" binding:"required"`
	Name      string `json:"name" binding:"required"`
	PublicKey string `json:"public_key" binding:"required"`
	SeedHash  string `json:"seed_hash" binding:"required"`
}

// handleJoinRoom implements POST /room/join. The "room_id" field actually
// carries the join code, not the room's primary key.
func (h *Handler) handleJoinRoom(c *gin.Context) {
	var req joinRoomRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, apperr.ValidationError(err.Error()))
		return
	}

	ctx := c.Request.Context()
	memberID, err := h.engine.JoinRoom(ctx, req.RoomID, req.Name, req.PublicKey, req.SeedHash)
	if err != nil {
		writeError(c, err)
		return
	}

	roomID, err := h.rooms.GetRoomIDByMember(ctx, memberID)
	if err != nil {
		writeError(c, err)
		return
	}

	if err := h.issueSessionAndRespond(c, memberID, roomID, http.StatusCreated); err != nil {
		writeError(c, err)
	}
}

// issueSessionAndRespond mints the ephemeral + session tokens a successful
// create/join returns.
func (h *Handler) issueSessionAndRespond(c *gin.Context, memberID, roomID string, status int) error {
	ctx := c.Request.Context()
	ua := c.Request.UserAgent()
	ip := c.ClientIP()

	ephemeralValue, err := identity.GenerateSecureToken()
	if err != nil {
		return err
	}
	if err := h.tokens.Issue(ctx, memberID, domain.TokenEphemeral, ephemeralValue, time.Now().Add(domain.TokenEphemeral.TTL()), &ua, &ip); err != nil {
		return err
	}

	sessionValue, err := identity.GenerateSecureToken()
	if err != nil {
		return err
	}
	if err := h.tokens.Issue(ctx, memberID, domain.TokenSession, sessionValue, time.Now().Add(domain.TokenSession.TTL()), &ua, &ip); err != nil {
		return err
	}

	h.setSessionCookie(c, sessionValue)
	metrics.TokensIssued.WithLabelValues(string(domain.TokenEphemeral)).Inc()
	metrics.TokensIssued.WithLabelValues(string(domain.TokenSession)).Inc()

	if status == http.StatusCreated {
		c.JSON(status, gin.H{"room_id": roomID, "ephemeral_token": ephemeralValue})
	} else {
		c.Status(status)
	}
	return nil
}

// handleStartGame implements POST /room/start: owner-only.
func (h *Handler) handleStartGame(c *gin.Context) {
	ctx := c.Request.Context()
	id := memberID(c)

	if err := h.engine.RequiresOwnerPermission(ctx, id); err != nil {
		writeError(c, err)
		return
	}
	if err := h.engine.StartGame(ctx, id); err != nil {
		writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

type rejoinRequest struct {
	SeedHash string `json:"seed_hash" binding:"required"`
}

// handleRejoin implements POST /room/rejoin: re-enters the authenticated
// member into the room's current SantaId-phase iteration after a rejection
// restarted it, registering a fresh seed commitment for the new round.
func (h *Handler) handleRejoin(c *gin.Context) {
	var req rejoinRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, apperr.ValidationError(err.Error()))
		return
	}
	if err := h.engine.RejoinNextIteration(c.Request.Context(), memberID(c), req.SeedHash); err != nil {
		writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

type publishMessageRequest struct {
	MessageContent []string `json:"message_content" binding:"required"`
}

// handlePublishMessage implements POST /room/publish/message.
func (h *Handler) handlePublishMessage(c *gin.Context) {
	var req publishMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, apperr.ValidationError(err.Error()))
		return
	}
	if err := h.engine.PublishOnionMessage(c.Request.Context(), memberID(c), req.MessageContent); err != nil {
		writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

type publishSeedRequest struct {
	Seed string `json:"seed" binding:"required"`
}

// handlePublishSeed implements POST /room/publish/seed.
func (h *Handler) handlePublishSeed(c *gin.Context) {
	var req publishSeedRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, apperr.ValidationError(err.Error()))
		return
	}
	if err := h.engine.RevealSeed(c.Request.Context(), memberID(c), req.Seed); err != nil {
		writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

type publishVerificationRequest struct {
	Status   string `json:"status" binding:"required"`
	Proof    string `json:"proof"`
	SeedHash string `json:"seed_hash"`
}

// handlePublishVerification implements POST /room/publish/verification.
func (h *Handler) handlePublishVerification(c *gin.Context) {
	var req publishVerificationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, apperr.ValidationError(err.Error()))
		return
	}

	decision := domain.VerificationDecision{
		Accept:   req.Status == "accept",
		Proof:    req.Proof,
		SeedHash: req.SeedHash,
	}

	err := h.engine.Verify(c.Request.Context(), memberID(c), decision)
	outcome := "accept"
	if !decision.Accept {
		outcome = "reject_valid"
		if err != nil {
			outcome = "reject_invalid"
		}
	}
	metrics.VerificationOutcomes.WithLabelValues(outcome).Inc()

	if err != nil {
		writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// handleHealthCheck implements POST /health/check, reporting whether the
// room repository is reachable.
func (h *Handler) handleHealthCheck(c *gin.Context) {
	if err := h.rooms.Ping(c.Request.Context()); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"result": "unhealthy", "checks": gin.H{"database": err.Error()}})
		return
	}
	c.JSON(http.StatusOK, gin.H{"result": "healthy", "checks": gin.H{"database": "ok"}})
}
