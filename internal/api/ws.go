package api

import (
	"github.com/gin-gonic/gin"

	"github.com/frostbyte-dev/santa-ring/core/apperr"
	"github.com/frostbyte-dev/santa-ring/internal/logger"
)

// handleWebsocket implements GET /room/ws?room=<code>&token=<ephemeral>:
// validates the single-use ticket, then hands the connection to the
// Broadcast Bus for the member's room.
func (h *Handler) handleWebsocket(c *gin.Context) {
	roomCode := c.Query("room")
	token := c.Query("token")
	if roomCode == "" || token == "" {
		writeError(c, apperr.ValidationError("room and token query parameters are required"))
		return
	}

	ctx := c.Request.Context()
	memberID, err := h.engine.ValidateWebsocketTicket(ctx, token, roomCode)
	if err != nil {
		writeError(c, err)
		return
	}

	roomID, err := h.rooms.GetRoomIDByMember(ctx, memberID)
	if err != nil {
		writeError(c, err)
		return
	}

	if err := h.bus.Subscribe(roomID, c.Writer, c.Request); err != nil {
		h.log.Debug("websocket upgrade failed", logger.Error(err))
		return
	}
}
