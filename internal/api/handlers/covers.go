package handlers

import (
	"errors"
	"io"
	"net/http"
	"path"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/Shoshak/album-ranking-v2/internal/storage"
)

// CoverHandler serves archived album covers
type CoverHandler struct {
	storage *storage.Client
}

func NewCoverHandler(st *storage.Client) *CoverHandler {
	return &CoverHandler{storage: st}
}

// StreamCover streams a cover image from the archive
func (h *CoverHandler) StreamCover(c *gin.Context) {
	key := strings.TrimPrefix(c.Param("key"), "/")
	if key == "" {
		badRequest(c, "Invalid key")
		return
	}

	obj, err := h.storage.OpenCover(c.Request.Context(), key)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Cover not found"})
			return
		}
		respondError(c, err)
		return
	}
	defer obj.Body.Close()

	c.Header("Cache-Control", "public, max-age=31536000, immutable")
	if seeker, ok := obj.Body.(io.ReadSeeker); ok {
		c.Header("Content-Type", obj.ContentType)
		http.ServeContent(c.Writer, c.Request, path.Base(key), obj.LastModified, seeker)
		return
	}

	c.DataFromReader(http.StatusOK, obj.ContentLength, obj.ContentType, obj.Body, nil)
}
