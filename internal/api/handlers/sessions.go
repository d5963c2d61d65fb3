package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/Shoshak/album-ranking-v2/internal/api/middleware"
	"github.com/Shoshak/album-ranking-v2/internal/rounds"
	"github.com/Shoshak/album-ranking-v2/internal/telegram"
)

// SessionHandler exchanges Telegram logins for session tokens
type SessionHandler struct {
	sessions *rounds.Sessions
}

func NewSessionHandler(sessions *rounds.Sessions) *SessionHandler {
	return &SessionHandler{sessions: sessions}
}

// CreateSession handles the first login of a Telegram account
func (h *SessionHandler) CreateSession(c *gin.Context) {
	var login telegram.LoginData
	if err := c.ShouldBindJSON(&login); err != nil {
		badRequest(c, err.Error())
		return
	}

	issued, err := h.sessions.Create(c.Request.Context(), login)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, issued)
}

// RefreshSession extends a session with a newer login payload
func (h *SessionHandler) RefreshSession(c *gin.Context) {
	var login telegram.LoginData
	if err := c.ShouldBindJSON(&login); err != nil {
		badRequest(c, err.Error())
		return
	}

	issued, err := h.sessions.Refresh(c.Request.Context(), login)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, issued)
}

// GetSession returns the session of ?telegram_id=. Members only see their own.
func (h *SessionHandler) GetSession(c *gin.Context) {
	id, err := strconv.ParseInt(c.Query("telegram_id"), 10, 64)
	if err != nil {
		badRequest(c, "Invalid telegram_id")
		return
	}
	if c.GetString(middleware.CtxUserRole) != middleware.RoleAdmin && c.GetInt64(middleware.CtxUserID) != id {
		c.JSON(http.StatusForbidden, gin.H{"error": "Forbidden: not your session"})
		return
	}

	sess, err := h.sessions.Get(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, sess)
}
