package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Shoshak/album-ranking-v2/internal/rounds"
)

// RankingHandler records placements and publishes standings
type RankingHandler struct {
	aggregator *rounds.Aggregator
}

func NewRankingHandler(aggregator *rounds.Aggregator) *RankingHandler {
	return &RankingHandler{aggregator: aggregator}
}

type rankingInput struct {
	// placements[i] ranks the i-th track of the album
	Placements []int `json:"placements" binding:"required"`
}

func (h *RankingHandler) CreateRanking(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	var input rankingInput
	if err := c.ShouldBindJSON(&input); err != nil {
		badRequest(c, err.Error())
		return
	}

	album, err := h.aggregator.SubmitRanking(c.Request.Context(), id, username(c), input.Placements)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, album)
}

func (h *RankingHandler) UpdateRanking(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	var input rankingInput
	if err := c.ShouldBindJSON(&input); err != nil {
		badRequest(c, err.Error())
		return
	}

	album, err := h.aggregator.UpdateRanking(c.Request.Context(), id, username(c), input.Placements)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, album)
}

// GetAlbumRankings returns the album's tracks ordered by mean placement
func (h *RankingHandler) GetAlbumRankings(c *gin.Context) {
	id, ok := idParam(c, "album_id")
	if !ok {
		return
	}
	standings, err := h.aggregator.AlbumRankings(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, standings)
}
