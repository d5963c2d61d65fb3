package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Shoshak/album-ranking-v2/internal/rounds"
)

// ConfigHandler reads and patches the competition settings
type ConfigHandler struct {
	controller *rounds.Controller
}

func NewConfigHandler(controller *rounds.Controller) *ConfigHandler {
	return &ConfigHandler{controller: controller}
}

func (h *ConfigHandler) GetConfig(c *gin.Context) {
	cfg, err := h.controller.Get(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, cfg)
}

// PatchConfig applies only the fields present in the body
func (h *ConfigHandler) PatchConfig(c *gin.Context) {
	var patch rounds.ConfigPatch
	if err := c.ShouldBindJSON(&patch); err != nil {
		badRequest(c, err.Error())
		return
	}

	cfg, err := h.controller.Update(c.Request.Context(), patch)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, cfg)
}
