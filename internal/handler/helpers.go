package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/creditchek/devbot/internal/middleware"
	"github.com/creditchek/devbot/internal/pkg/errcode"
	appErr "github.com/creditchek/devbot/internal/pkg/errors"
	"github.com/creditchek/devbot/internal/pkg/response"
)

func getUserID(c *gin.Context) string {
	value, _ := c.Get(middleware.ContextUserIDKey)
	userID, _ := value.(string)
	return userID
}

// handleError maps the error taxonomy to HTTP responses. Messages stay
// generic on purpose; the original error only goes to the log.
func handleError(c *gin.Context, err error) {
	if err == nil {
		return
	}
	logutil.GetLogger(c.Request.Context()).Error("request failed",
		zap.String("method", c.Request.Method),
		zap.String("path", c.Request.URL.Path),
		zap.String("user_id", getUserID(c)),
		zap.Error(err),
	)
	switch {
	case appErr.IsInvalidInput(err):
		response.Error(c, http.StatusBadRequest, errcode.ErrInvalid, "invalid request")
	case errors.Is(err, appErr.ErrUnauthorized):
		response.Error(c, http.StatusUnauthorized, errcode.ErrUnauthorized, "unauthorized")
	case appErr.IsNotFound(err):
		response.Error(c, http.StatusNotFound, errcode.ErrNotFound, "not found")
	case appErr.IsConflict(err):
		response.Error(c, http.StatusConflict, errcode.ErrConflict, "user already exists")
	case errors.Is(err, appErr.ErrTooMany):
		response.Error(c, http.StatusTooManyRequests, errcode.ErrTooMany, "too many requests")
	case errors.Is(err, appErr.ErrGeneration):
		response.Error(c, http.StatusBadGateway, errcode.ErrGeneration, "failed to generate a response")
	case errors.Is(err, appErr.ErrProvider):
		response.Error(c, http.StatusBadGateway, errcode.ErrProvider, "upstream provider error")
	default:
		response.Error(c, http.StatusInternalServerError, errcode.ErrInternal, "internal error")
	}
}
