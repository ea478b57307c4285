package api

import (
	"crypto/rand"
	"encoding/base64"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/frostbyte-dev/santa-ring/core/apperr"
	"github.com/frostbyte-dev/santa-ring/core/domain"
	"github.com/frostbyte-dev/santa-ring/core/identity"
	"github.com/frostbyte-dev/santa-ring/internal/metrics"
)

const challengeSecretSize = 32

type challengeRequest struct {
	Fingerprint string `json:"fingerprint" binding:"required"`
}

// handleChallenge issues an RSA-OAEP-encrypted 32-byte secret for the
// member matching the given fingerprint, as a Challenge-kind token.
func (h *Handler) handleChallenge(c *gin.Context) {
	var req challengeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, apperr.ValidationError(err.Error()))
		return
	}

	ctx := c.Request.Context()
	memberID, der, err := h.rooms.GetMemberByFingerprint(ctx, req.Fingerprint)
	if err != nil {
		writeError(c, err)
		return
	}

	secret := make([]byte, challengeSecretSize)
	if _, err := rand.Read(secret); err != nil {
		writeError(c, apperr.TokenGenerationFailed(err))
		return
	}
	secretB64 := base64.StdEncoding.EncodeToString(secret)

	ua := c.Request.UserAgent()
	ip := c.ClientIP()
	if err := h.tokens.Issue(ctx, memberID, domain.TokenChallenge, secretB64, time.Now().Add(domain.TokenChallenge.TTL()), &ua, &ip); err != nil {
		writeError(c, err)
		return
	}

	ciphertext, err := identity.EncryptChallenge(secret, der)
	if err != nil {
		writeError(c, err)
		return
	}

	metrics.TokensIssued.WithLabelValues(string(domain.TokenChallenge)).Inc()
	c.JSON(http.StatusCreated, gin.H{"challenge": ciphertext})
}

type verifyChallengeRequest struct {
	Token       string `json:"token" binding:"required"`
	Fingerprint string `json:"fingerprint" binding:"required"`
}

// handleVerifyChallenge consumes the Challenge token and issues a Session
// token, setting the session cookie, per S5.
func (h *Handler) handleVerifyChallenge(c *gin.Context) {
	var req verifyChallengeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, apperr.ValidationError(err.Error()))
		return
	}

	ctx := c.Request.Context()
	consumed, err := h.tokens.ConsumeChallenge(ctx, req.Fingerprint, req.Token)
	if err != nil {
		writeError(c, err)
		return
	}
	if consumed.Expired(time.Now()) {
		writeError(c, apperr.ExpiredToken())
		return
	}

	sessionValue, err := identity.GenerateSecureToken()
	if err != nil {
		writeError(c, err)
		return
	}

	ua := c.Request.UserAgent()
	ip := c.ClientIP()
	if err := h.tokens.Issue(ctx, consumed.MemberID, domain.TokenSession, sessionValue, time.Now().Add(domain.TokenSession.TTL()), &ua, &ip); err != nil {
		writeError(c, err)
		return
	}

	h.setSessionCookie(c, sessionValue)
	metrics.TokensIssued.WithLabelValues(string(domain.TokenSession)).Inc()
	c.Status(http.StatusCreated)
}

// handleEphemeral issues a single-use WebSocket ticket for the
// authenticated member, as an Ephemeral-kind token.
func (h *Handler) handleEphemeral(c *gin.Context) {
	ctx := c.Request.Context()
	id := memberID(c)

	value, err := identity.GenerateSecureToken()
	if err != nil {
		writeError(c, err)
		return
	}

	ua := c.Request.UserAgent()
	ip := c.ClientIP()
	if err := h.tokens.Issue(ctx, id, domain.TokenEphemeral, value, time.Now().Add(domain.TokenEphemeral.TTL()), &ua, &ip); err != nil {
		writeError(c, err)
		return
	}

	metrics.TokensIssued.WithLabelValues(string(domain.TokenEphemeral)).Inc()
	c.JSON(http.StatusCreated, gin.H{"ephemeral_token": value})
}

// handleLogout revokes every token owned by the authenticated member and
// clears the session cookie.
func (h *Handler) handleLogout(c *gin.Context) {
	if err := h.tokens.RevokeAll(c.Request.Context(), memberID(c)); err != nil {
		writeError(c, err)
		return
	}
	h.clearSessionCookie(c)
	c.Status(http.StatusNoContent)
}
