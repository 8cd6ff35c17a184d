package api

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"shareadmin/pkg/auth"
)

// Context keys set by RequireSession.
const (
	ctxKeySession = "session"
	ctxKeyUserID  = "user_id"
	ctxKeyToken   = "token"
)

// RequireSession is Gin middleware resolving the bearer token to an
// active session.
func RequireSession(sessions *auth.Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := bearerToken(c.GetHeader("Authorization"))
		if token == "" {
			RespondError(c, http.StatusUnauthorized, MsgUnauthorized)
			c.Abort()
			return
		}

		rec, ok := sessions.Resolve(token)
		if !ok {
			RespondError(c, http.StatusUnauthorized, MsgUnauthorized)
			c.Abort()
			return
		}

		c.Set(ctxKeySession, rec)
		c.Set(ctxKeyUserID, rec.UserID)
		c.Set(ctxKeyToken, token)
		c.Next()
	}
}

// RequireRole is Gin middleware gating admin-only endpoints. It must run
// after RequireSession.
func RequireRole(h *Handler, role string) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := c.GetString(ctxKeyUserID)
		user, err := h.store.GetUser(userID)
		if err != nil || user.Role != role {
			RespondError(c, http.StatusForbidden, "forbidden")
			c.Abort()
			return
		}
		c.Next()
	}
}

func bearerToken(header string) string {
	const prefix = "Bearer "
	if !strings.HasPrefix(header, prefix) {
		return ""
	}
	return strings.TrimSpace(strings.TrimPrefix(header, prefix))
}
