package handlers

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/Shoshak/album-ranking-v2/internal/api/middleware"
	"github.com/Shoshak/album-ranking-v2/internal/rounds"
)

// statusOf maps an error kind to its HTTP status.
func statusOf(err error) int {
	switch kind := rounds.KindOf(err); {
	case errors.Is(kind, rounds.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(kind, rounds.ErrConflict):
		return http.StatusConflict
	case errors.Is(kind, rounds.ErrInvalidInput):
		return http.StatusBadRequest
	case errors.Is(kind, rounds.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(kind, rounds.ErrExpired):
		return http.StatusRequestTimeout
	default:
		return http.StatusInternalServerError
	}
}

// respondError writes err as {"error": msg}. Unexpected errors are logged
// and hidden from the client.
func respondError(c *gin.Context, err error) {
	status := statusOf(err)
	if status == http.StatusInternalServerError {
		slog.Error("request failed", "method", c.Request.Method, "path", c.FullPath(), "error", err)
	}
	_ = c.Error(err)
	c.JSON(status, gin.H{"error": rounds.Message(err)})
}

func badRequest(c *gin.Context, msg string) {
	c.JSON(http.StatusBadRequest, gin.H{"error": msg})
}

// idParam parses a positive numeric path parameter.
func idParam(c *gin.Context, name string) (uint, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 32)
	if err != nil || id == 0 {
		badRequest(c, "Invalid "+name)
		return 0, false
	}
	return uint(id), true
}

func username(c *gin.Context) string {
	return c.GetString(middleware.CtxUsername)
}
