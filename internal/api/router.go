package api

import (
	"github.com/gin-gonic/gin"

	"github.com/frostbyte-dev/santa-ring/core/broadcast"
	"github.com/frostbyte-dev/santa-ring/core/game"
	"github.com/frostbyte-dev/santa-ring/core/store"
	"github.com/frostbyte-dev/santa-ring/internal/logger"
)

// Handler holds every dependency the route handlers need.
type Handler struct {
	engine       *game.Engine
	rooms        store.RoomRepository
	tokens       store.TokenStore
	bus          *broadcast.Bus
	log          logger.Logger
	cookieName   string
	cookieSecure bool
}

// NewRouter builds the gin.Engine implementing the HTTP surface.
func NewRouter(engine *game.Engine, rooms store.RoomRepository, tokens store.TokenStore, bus *broadcast.Bus, log logger.Logger, cookieName string, cookieSecure bool) *gin.Engine {
	if log == nil {
		log = logger.GetDefaultLogger()
	}
	h := &Handler{
		engine:       engine,
		rooms:        rooms,
		tokens:       tokens,
		bus:          bus,
		log:          log,
		cookieName:   cookieName,
		cookieSecure: cookieSecure,
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(corsMiddleware())
	r.Use(metricsMiddleware())

	v1 := r.Group("/api/v1")
	{
		v1.POST("/room/create", h.handleCreateRoom)
		v1.POST("/room/join", h.handleJoinRoom)
		v1.GET("/room/ws", h.handleWebsocket)

		v1.POST("/auth/challenge", h.handleChallenge)
		v1.POST("/auth/challenge/verify", h.handleVerifyChallenge)

		v1.POST("/health/check", h.handleHealthCheck)
	}

	protected := r.Group("/api/v1")
	protected.Use(h.sessionMiddleware())
	{
		protected.POST("/room/start", h.handleStartGame)
		protected.POST("/room/rejoin", h.handleRejoin)
		protected.POST("/room/publish/message", h.handlePublishMessage)
		protected.POST("/room/publish/seed", h.handlePublishSeed)
		protected.POST("/room/publish/verification", h.handlePublishVerification)
		protected.POST("/auth/ephemeral", h.handleEphemeral)
		protected.POST("/auth/logout", h.handleLogout)
	}

	return r
}
