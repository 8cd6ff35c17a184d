package api

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	apperrors "shareadmin/pkg/errors"
	"shareadmin/pkg/password"
	"shareadmin/pkg/protocol"
)

func newID() string     { return uuid.NewString() }
func nowUTC() time.Time { return time.Now().UTC() }

// HandleListUsers handles GET /api/users.
func (h *Handler) HandleListUsers(c *gin.Context) {
	users, err := h.store.GetAllUsers()
	if err != nil {
		RespondError(c, http.StatusInternalServerError, MsgInternalServer)
		return
	}
	if users == nil {
		users = []*protocol.User{}
	}
	c.JSON(http.StatusOK, users)
}

// HandleCreateUser handles POST /api/users.
func (h *Handler) HandleCreateUser(c *gin.Context) {
	var req protocol.CreateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Email == "" {
		RespondError(c, http.StatusBadRequest, MsgInvalidRequest)
		return
	}
	if err := password.CheckStrength(req.Password); err != nil {
		RespondError(c, http.StatusBadRequest, err.Error())
		return
	}

	role := req.Role
	if role == "" {
		role = "user"
	}
	hash, err := h.hasher.Hash(req.Password)
	if err != nil {
		RespondError(c, http.StatusInternalServerError, MsgInternalServer)
		return
	}

	user := &protocol.User{
		ID:        newID(),
		Email:     req.Email,
		Name:      req.Name,
		Role:      role,
		CreatedAt: nowUTC(),
	}
	if err := h.store.CreateUser(user, hash); err != nil {
		if errors.Is(err, apperrors.ErrDuplicateEmail) {
			RespondError(c, http.StatusConflict, err.Error())
			return
		}
		RespondError(c, http.StatusInternalServerError, MsgInternalServer)
		return
	}
	c.JSON(http.StatusCreated, user)
}

// HandleUpdateUser handles PUT /api/users/:id.
func (h *Handler) HandleUpdateUser(c *gin.Context) {
	var req protocol.UpdateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, MsgInvalidRequest)
		return
	}
	id := c.Param("id")
	if err := h.store.UpdateUser(id, req.Name, req.Role); err != nil {
		if errors.Is(err, apperrors.ErrUserNotFound) {
			RespondError(c, http.StatusNotFound, MsgUserNotFound)
			return
		}
		RespondError(c, http.StatusInternalServerError, MsgInternalServer)
		return
	}
	user, err := h.store.GetUser(id)
	if err != nil {
		RespondError(c, http.StatusInternalServerError, MsgInternalServer)
		return
	}
	c.JSON(http.StatusOK, user)
}

// HandleDeleteUser handles DELETE /api/users/:id. Deleting a user also
// terminates all of their sessions.
func (h *Handler) HandleDeleteUser(c *gin.Context) {
	id := c.Param("id")
	if id == c.GetString(ctxKeyUserID) {
		RespondError(c, http.StatusBadRequest, "cannot delete the account you are logged in with")
		return
	}
	if err := h.store.DeleteUser(id); err != nil {
		if errors.Is(err, apperrors.ErrUserNotFound) {
			RespondError(c, http.StatusNotFound, MsgUserNotFound)
			return
		}
		RespondError(c, http.StatusInternalServerError, MsgInternalServer)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

// HandleListFolders handles GET /api/folders.
func (h *Handler) HandleListFolders(c *gin.Context) {
	folders, err := h.store.GetAllFolders()
	if err != nil {
		RespondError(c, http.StatusInternalServerError, MsgInternalServer)
		return
	}
	if folders == nil {
		folders = []*protocol.Folder{}
	}
	c.JSON(http.StatusOK, folders)
}

// HandleCreateFolder handles POST /api/folders.
func (h *Handler) HandleCreateFolder(c *gin.Context) {
	var req protocol.CreateFolderRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Name == "" {
		RespondError(c, http.StatusBadRequest, MsgInvalidRequest)
		return
	}

	owner := req.OwnerID
	if owner == "" {
		owner = c.GetString(ctxKeyUserID)
	}
	folder := &protocol.Folder{
		ID:        newID(),
		Name:      req.Name,
		OwnerID:   owner,
		Shared:    req.Shared,
		CreatedAt: nowUTC(),
	}
	if err := h.store.CreateFolder(folder); err != nil {
		RespondError(c, http.StatusInternalServerError, MsgInternalServer)
		return
	}
	c.JSON(http.StatusCreated, folder)
}

// HandleUpdateFolder handles PUT /api/folders/:id.
func (h *Handler) HandleUpdateFolder(c *gin.Context) {
	var req protocol.UpdateFolderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, MsgInvalidRequest)
		return
	}
	id := c.Param("id")
	if err := h.store.UpdateFolder(id, req.Name, req.Shared); err != nil {
		if errors.Is(err, apperrors.ErrFolderNotFound) {
			RespondError(c, http.StatusNotFound, MsgFolderNotFound)
			return
		}
		RespondError(c, http.StatusInternalServerError, MsgInternalServer)
		return
	}
	folder, err := h.store.GetFolder(id)
	if err != nil {
		RespondError(c, http.StatusInternalServerError, MsgInternalServer)
		return
	}
	c.JSON(http.StatusOK, folder)
}

// HandleDeleteFolder handles DELETE /api/folders/:id.
func (h *Handler) HandleDeleteFolder(c *gin.Context) {
	if err := h.store.DeleteFolder(c.Param("id")); err != nil {
		if errors.Is(err, apperrors.ErrFolderNotFound) {
			RespondError(c, http.StatusNotFound, MsgFolderNotFound)
			return
		}
		RespondError(c, http.StatusInternalServerError, MsgInternalServer)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}
