package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"shareadmin/pkg/auth"
	apperrors "shareadmin/pkg/errors"
	"shareadmin/pkg/logger"
	"shareadmin/pkg/password"
	"shareadmin/pkg/protocol"
	"shareadmin/pkg/storage"
)

// Handler encapsulates the REST API handlers.
type Handler struct {
	sessions *auth.Manager
	store    storage.Store
	hasher   *auth.PasswordHasher
	log      *logger.Logger
}

// NewHandler creates a new API handler.
func NewHandler(sessions *auth.Manager, store storage.Store) *Handler {
	return &Handler{
		sessions: sessions,
		store:    store,
		hasher:   auth.NewPasswordHasher(),
		log:      logger.Component("api"),
	}
}

// HandleLogin handles POST /api/login. The device identifier arrives in
// the X-Device-Id header; logins without one are rejected before any
// credential check.
func (h *Handler) HandleLogin(c *gin.Context) {
	deviceID := c.GetHeader(protocol.HeaderDeviceID)
	if deviceID == "" {
		RespondError(c, http.StatusBadRequest, MsgMissingDeviceID)
		return
	}

	var req protocol.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, MsgInvalidRequest)
		return
	}

	user, hash, err := h.store.GetUserByEmail(req.Email)
	if err != nil {
		RespondCodedError(c, http.StatusUnauthorized, protocol.CodeInvalidCredentials, MsgInvalidCredentials)
		return
	}
	if !h.verifyPassword(user.ID, hash, req.Password) {
		RespondCodedError(c, http.StatusUnauthorized, protocol.CodeInvalidCredentials, MsgInvalidCredentials)
		return
	}

	token, err := h.sessions.Open(user.ID, deviceID, req.Device)
	if err != nil {
		var qe *auth.QuotaError
		if errors.As(err, &qe) {
			RespondQuotaExceeded(c, qe)
			return
		}
		h.log.ErrorWithErr("open session", err, "user_id", user.ID)
		RespondError(c, http.StatusInternalServerError, MsgInternalServer)
		return
	}

	c.JSON(http.StatusOK, protocol.LoginResponse{
		Token:  token,
		UserID: user.ID,
		Role:   user.Role,
		Email:  user.Email,
		Name:   user.Name,
	})
}

// verifyPassword checks the password against the stored hash, upgrading
// legacy SHA256 digests to bcrypt on first successful login.
func (h *Handler) verifyPassword(userID, hash, candidate string) bool {
	if auth.NeedsMigration(hash) {
		if !auth.VerifyLegacy(hash, candidate) {
			return false
		}
		upgraded, err := h.hasher.Hash(candidate)
		if err == nil {
			if err := h.store.UpdateUserPassword(userID, upgraded); err != nil {
				h.log.Warn("legacy hash upgrade failed", "user_id", userID, "error", err)
			} else {
				h.log.Info("upgraded legacy password hash", "user_id", userID)
			}
		}
		return true
	}
	return h.hasher.Verify(hash, candidate)
}

// HandleChangePassword handles POST /api/change-password. On success all
// of the user's sessions are revoked; the client is expected to drop its
// token and re-authenticate.
func (h *Handler) HandleChangePassword(c *gin.Context) {
	var req protocol.ChangePasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, MsgInvalidRequest)
		return
	}

	userID := c.GetString(ctxKeyUserID)
	user, hash, err := h.userWithHash(userID)
	if err != nil {
		RespondError(c, http.StatusInternalServerError, MsgInternalServer)
		return
	}

	if !h.verifyPassword(user.ID, hash, req.CurrentPassword) {
		RespondError(c, http.StatusForbidden, "current password is incorrect")
		return
	}
	if req.NewPassword == req.CurrentPassword {
		RespondError(c, http.StatusBadRequest, password.ErrPasswordUnchanged.Error())
		return
	}
	if err := password.CheckStrength(req.NewPassword); err != nil {
		RespondError(c, http.StatusBadRequest, err.Error())
		return
	}

	newHash, err := h.hasher.Hash(req.NewPassword)
	if err != nil {
		RespondError(c, http.StatusInternalServerError, MsgInternalServer)
		return
	}
	if err := h.store.UpdateUserPassword(user.ID, newHash); err != nil {
		RespondError(c, http.StatusInternalServerError, MsgInternalServer)
		return
	}

	// Every token issued under the old password dies with it.
	if _, err := h.sessions.CloseAll(user.ID); err != nil {
		h.log.Warn("revoke sessions after password change", "user_id", user.ID, "error", err)
	}

	c.JSON(http.StatusOK, gin.H{"success": true})
}

// HandleCloseOtherSessions handles POST /api/close-other-sessions.
func (h *Handler) HandleCloseOtherSessions(c *gin.Context) {
	var req protocol.CloseOtherSessionsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, MsgInvalidRequest)
		return
	}
	if req.DeviceID == "" {
		req.DeviceID = c.GetHeader(protocol.HeaderDeviceID)
	}
	if req.DeviceID == "" {
		RespondError(c, http.StatusBadRequest, MsgMissingDeviceID)
		return
	}

	userID := c.GetString(ctxKeyUserID)
	closed, err := h.sessions.CloseOthers(userID, req.DeviceID)
	if err != nil {
		RespondError(c, http.StatusInternalServerError, MsgInternalServer)
		return
	}
	c.JSON(http.StatusOK, protocol.CloseOtherSessionsResponse{Closed: closed})
}

// HandleActiveSessions handles GET /api/active-sessions.
func (h *Handler) HandleActiveSessions(c *gin.Context) {
	userID := c.GetString(ctxKeyUserID)
	sessions, err := h.sessions.Sessions(userID, c.GetHeader(protocol.HeaderDeviceID))
	if err != nil {
		RespondError(c, http.StatusInternalServerError, MsgInternalServer)
		return
	}
	c.JSON(http.StatusOK, sessions)
}

// HandleLogout handles POST /api/logout, terminating the presenting
// session server-side.
func (h *Handler) HandleLogout(c *gin.Context) {
	token := c.GetString(ctxKeyToken)
	if err := h.sessions.Close(token); err != nil {
		RespondError(c, http.StatusInternalServerError, MsgInternalServer)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

// HandleHealth handles GET /health.
func (h *Handler) HandleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (h *Handler) userWithHash(userID string) (*protocol.User, string, error) {
	user, err := h.store.GetUser(userID)
	if err != nil {
		return nil, "", err
	}
	u, hash, err := h.store.GetUserByEmail(user.Email)
	if err != nil {
		return nil, "", err
	}
	return u, hash, nil
}

// EnsureAdmin creates the seed administrator account when no users exist
// yet.
func (h *Handler) EnsureAdmin(email, plaintext string) error {
	users, err := h.store.GetAllUsers()
	if err != nil {
		return err
	}
	if len(users) > 0 {
		return nil
	}

	hash, err := h.hasher.Hash(plaintext)
	if err != nil {
		return err
	}
	if err := h.store.CreateUser(&protocol.User{
		ID:        newID(),
		Email:     email,
		Name:      "Administrator",
		Role:      "admin",
		CreatedAt: nowUTC(),
	}, hash); err != nil && !errors.Is(err, apperrors.ErrDuplicateEmail) {
		return err
	}
	h.log.Info("created default admin user", "email", email)
	return nil
}
