package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/Shoshak/album-ranking-v2/internal/models"
	"github.com/Shoshak/album-ranking-v2/internal/rounds"
)

// UserHandler exposes participant administration
type UserHandler struct {
	users *rounds.Users
}

func NewUserHandler(users *rounds.Users) *UserHandler {
	return &UserHandler{users: users}
}

// GetUsers lists users, optionally only ?telegram_id=
func (h *UserHandler) GetUsers(c *gin.Context) {
	var telegramID *int64
	if raw := c.Query("telegram_id"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			badRequest(c, "Invalid telegram_id")
			return
		}
		telegramID = &id
	}

	users, err := h.users.List(c.Request.Context(), telegramID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, users)
}

func (h *UserHandler) CreateUser(c *gin.Context) {
	var input struct {
		ID          int64  `json:"id" binding:"required"`
		Username    string `json:"username" binding:"required"`
		AdminRights bool   `json:"admin_rights"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		badRequest(c, err.Error())
		return
	}

	user, err := h.users.Create(c.Request.Context(), models.User{
		ID:          input.ID,
		Username:    input.Username,
		AdminRights: input.AdminRights,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, user)
}
