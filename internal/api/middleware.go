// Package api is the HTTP edge: a gin router translating the service's
// route table onto core/game.Engine, core/auth, and core/broadcast.
package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/frostbyte-dev/santa-ring/core/apperr"
	"github.com/frostbyte-dev/santa-ring/core/auth"
	"github.com/frostbyte-dev/santa-ring/internal/metrics"
)

const memberContextKey = "member_id"

// corsMiddleware is a manual allow-all CORS handler, with
// Allow-Credentials always on since the session travels as a cookie.
func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", c.Request.Header.Get("Origin"))
		c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, Accept")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}

// metricsMiddleware records HTTPRequestDuration for every request, labeled
// by the matched route so templated paths (e.g. "/room/:id") don't blow up
// cardinality.
func metricsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		metrics.HTTPRequestDuration.WithLabelValues(route, c.Request.Method, strconv.Itoa(c.Writer.Status())).Observe(time.Since(start).Seconds())
	}
}

// writeError renders an apperr.Error (or an opaque 500) as the client error envelope.
func writeError(c *gin.Context, err error) {
	appErr, ok := err.(*apperr.Error)
	if !ok {
		appErr = apperr.Unknown(err)
	}
	c.AbortWithStatusJSON(appErr.HTTPStatus(), appErr.Envelope())
}

// sessionMiddleware authenticates the request via core/auth: cookie first,
// then Authorization bearer. On success it stashes the member ID in the gin
// context for handlers.
func (h *Handler) sessionMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		cookieValue, _ := c.Cookie(h.cookieName)
		authHeader := c.GetHeader("Authorization")

		session, err := auth.Authenticate(c.Request.Context(), h.tokens, cookieValue, authHeader)
		if err != nil {
			writeError(c, err)
			return
		}
		c.Set(memberContextKey, session.MemberID)
		c.Next()
	}
}

func memberID(c *gin.Context) string {
	v, _ := c.Get(memberContextKey)
	id, _ := v.(string)
	return id
}

// setSessionCookie writes the HttpOnly, SameSite=Strict session cookie,
// effectively permanent since the token table (not the cookie's Max-Age)
// governs expiry.
func (h *Handler) setSessionCookie(c *gin.Context, value string) {
	c.SetSameSite(http.SameSiteStrictMode)
	c.SetCookie(h.cookieName, value, int((20 * 365 * 24 * time.Hour).Seconds()), "/", "", h.cookieSecure, true)
}

func (h *Handler) clearSessionCookie(c *gin.Context) {
	c.SetSameSite(http.SameSiteStrictMode)
	c.SetCookie(h.cookieName, "", -1, "/", "", h.cookieSecure, true)
}
