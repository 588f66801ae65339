package handler

import (
	"errors"
	"net/http"

	"poscore/internal/service"
	"poscore/pkg/response"

	"github.com/gin-gonic/gin"
)

// abortWithServiceError maps service sentinel errors to HTTP status codes
func abortWithServiceError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrNotFound):
		c.JSON(http.StatusNotFound, response.Error(http.StatusNotFound, err.Error()))
	case errors.Is(err, service.ErrConflict):
		c.JSON(http.StatusConflict, response.Error(http.StatusConflict, err.Error()))
	case errors.Is(err, service.ErrInsufficientStock), errors.Is(err, service.ErrDuplicateSerial):
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, err.Error()))
	default:
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, err.Error()))
	}
}

// currentUserID reads the authenticated user ID set by the auth middleware
func currentUserID(c *gin.Context) string {
	if v, ok := c.Get("userID"); ok {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}
