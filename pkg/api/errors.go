package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"shareadmin/pkg/auth"
	"shareadmin/pkg/protocol"
)

// RespondError writes a plain error payload.
func RespondError(c *gin.Context, statusCode int, message string) {
	c.JSON(statusCode, protocol.ErrorResponse{Message: message})
}

// RespondCodedError writes an error payload with a discriminant code.
func RespondCodedError(c *gin.Context, statusCode int, code, message string) {
	c.JSON(statusCode, protocol.ErrorResponse{Code: code, Message: message})
}

// RespondQuotaExceeded writes the structured session-limit payload the
// client surfaces verbatim.
func RespondQuotaExceeded(c *gin.Context, qe *auth.QuotaError) {
	c.JSON(http.StatusForbidden, protocol.ErrorResponse{
		Code:           protocol.CodeSessionLimit,
		Message:        "maximum number of active devices reached for this account",
		MaxSessions:    qe.Max,
		ActiveSessions: qe.Active,
	})
}

// Common error messages
const (
	MsgInvalidRequest     = "invalid request"
	MsgUnauthorized       = "unauthorized"
	MsgInvalidCredentials = "invalid credentials"
	MsgInternalServer     = "internal server error"
	MsgUserNotFound       = "user not found"
	MsgFolderNotFound     = "folder not found"
	MsgMissingDeviceID    = "missing device identifier"
)
