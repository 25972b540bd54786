package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/pngcrypt-go/internal/errors"
	"github.com/pngcrypt-go/internal/trace"
)

// APIResponse represents a standard API response
type APIResponse struct {
	Code int         `json:"code"`
	Msg  string      `json:"msg,omitempty"`
	Data interface{} `json:"data,omitempty"`
}

// RespondError writes a JSON error response with logging
func RespondError(c *gin.Context, err error) {
	appErr, ok := err.(*errors.AppError)
	if !ok {
		appErr = errors.NewInternalWithCause("Internal server error", err)
	}

	logger := trace.Logger(c.Request.Context())
	var ev *zerolog.Event
	if appErr.HTTPStatus >= http.StatusInternalServerError {
		ev = logger.Error()
	} else {
		ev = logger.Warn()
	}
	if appErr.Cause != nil {
		ev = ev.Err(appErr.Cause)
	}
	ev.Int("code", int(appErr.Code)).Msg(appErr.Message)

	c.AbortWithStatusJSON(appErr.HTTPStatus, APIResponse{
		Code: int(appErr.Code),
		Msg:  appErr.Message,
	})
}

// RespondSuccess writes a JSON success response
func RespondSuccess(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, APIResponse{
		Code: 0,
		Data: data,
	})
}

// RespondSuccessMsg writes a JSON success response with a message
func RespondSuccessMsg(c *gin.Context, message string) {
	c.JSON(http.StatusOK, APIResponse{
		Code: 0,
		Msg:  message,
	})
}

// RespondRaw writes raw bytes with custom content type
func RespondRaw(c *gin.Context, contentType string, data []byte) {
	c.Data(http.StatusOK, contentType, data)
}
