package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/Shoshak/album-ranking-v2/internal/rounds"
)

// AlbumHandler serves the album catalogue and submissions
type AlbumHandler struct {
	controller *rounds.Controller
	submitter  *rounds.Submitter
	albums     *rounds.Albums
}

func NewAlbumHandler(controller *rounds.Controller, submitter *rounds.Submitter, albums *rounds.Albums) *AlbumHandler {
	return &AlbumHandler{controller: controller, submitter: submitter, albums: albums}
}

// GetAlbums lists albums filtered by ?artist= ?name= ?release_year= ?no_spoilers=
func (h *AlbumHandler) GetAlbums(c *gin.Context) {
	filter := rounds.AlbumFilter{
		Artist: c.Query("artist"),
		Name:   c.Query("name"),
	}
	if raw := c.Query("release_year"); raw != "" {
		year, err := strconv.Atoi(raw)
		if err != nil {
			badRequest(c, "Invalid release_year")
			return
		}
		filter.ReleaseYear = &year
	}
	if raw := c.Query("no_spoilers"); raw != "" {
		noSpoilers, err := strconv.ParseBool(raw)
		if err != nil {
			badRequest(c, "Invalid no_spoilers")
			return
		}
		filter.NoSpoilers = noSpoilers
	}

	albums, err := h.controller.VisibleAlbums(c.Request.Context(), filter)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, albums)
}

// SubmitAlbum resolves {source, url} and submits it for the caller
func (h *AlbumHandler) SubmitAlbum(c *gin.Context) {
	var input struct {
		Source string `json:"source" binding:"required"`
		URL    string `json:"url" binding:"required,url"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		badRequest(c, err.Error())
		return
	}

	album, err := h.submitter.SubmitFromSource(c.Request.Context(), username(c), input.Source, input.URL)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, album)
}

func (h *AlbumHandler) GetAlbum(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	album, err := h.albums.Get(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, album)
}

// DeleteAlbum removes an album with its tracks and rankings
func (h *AlbumHandler) DeleteAlbum(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	if err := h.albums.Delete(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
