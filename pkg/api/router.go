package api

import (
	"github.com/gin-gonic/gin"

	"shareadmin/pkg/auth"
)

// NewRouter builds the gin engine with all routes registered.
func NewRouter(h *Handler, sessions *auth.Manager) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())

	r.GET("/health", h.HandleHealth)
	r.POST("/api/login", h.HandleLogin)

	authed := r.Group("/api", RequireSession(sessions))
	{
		authed.POST("/logout", h.HandleLogout)
		authed.POST("/change-password", h.HandleChangePassword)
		authed.POST("/close-other-sessions", h.HandleCloseOtherSessions)
		authed.GET("/active-sessions", h.HandleActiveSessions)
		authed.GET("/ws/sessions", h.HandleSessionsWS)

		authed.GET("/folders", h.HandleListFolders)
		authed.POST("/folders", h.HandleCreateFolder)
		authed.PUT("/folders/:id", h.HandleUpdateFolder)
		authed.DELETE("/folders/:id", h.HandleDeleteFolder)

		admin := authed.Group("", RequireRole(h, "admin"))
		{
			admin.GET("/users", h.HandleListUsers)
			admin.POST("/users", h.HandleCreateUser)
			admin.PUT("/users/:id", h.HandleUpdateUser)
			admin.DELETE("/users/:id", h.HandleDeleteUser)
		}
	}

	return r
}
