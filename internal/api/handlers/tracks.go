package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Shoshak/album-ranking-v2/internal/rounds"
)

// TrackHandler lists the tracks open for ranking and their votes
type TrackHandler struct {
	controller *rounds.Controller
	aggregator *rounds.Aggregator
}

func NewTrackHandler(controller *rounds.Controller, aggregator *rounds.Aggregator) *TrackHandler {
	return &TrackHandler{controller: controller, aggregator: aggregator}
}

// GetTracks returns the tracks of the current album, optionally ?track_name=
func (h *TrackHandler) GetTracks(c *gin.Context) {
	tracks, err := h.controller.CurrentTracks(c.Request.Context(), c.Query("track_name"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, tracks)
}

// GetTrackRankings returns the votes on one track, optionally ?username=
func (h *TrackHandler) GetTrackRankings(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	rankings, err := h.aggregator.TrackRankings(c.Request.Context(), id, c.Query("username"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, rankings)
}
