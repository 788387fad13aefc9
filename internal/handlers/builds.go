package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/pandeptwidyaop/buildstamp/internal/services"
)

const maxListLimit = 500

// BuildHandler serves recorded builds.
type BuildHandler struct {
	history *services.HistoryService
}

// NewBuildHandler creates a new BuildHandler instance.
func NewBuildHandler(history *services.HistoryService) *BuildHandler {
	return &BuildHandler{history: history}
}

// List returns builds newest first.
// GET /api/builds?limit=&offset=
func (h *BuildHandler) List(c *gin.Context) {
	limit, err := queryInt(c, "limit", 50)
	if err != nil || limit < 1 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid limit"})
		return
	}
	if limit > maxListLimit {
		limit = maxListLimit
	}

	offset, err := queryInt(c, "offset", 0)
	if err != nil || offset < 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid offset"})
		return
	}

	builds, err := h.history.GetBuilds(limit, offset)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, builds)
}

// Get returns a single build by ID.
// GET /api/builds/:id
func (h *BuildHandler) Get(c *gin.Context) {
	build, err := h.history.GetBuildByID(c.Param("id"))
	if err != nil {
		if errors.Is(err, services.ErrBuildNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "build not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, build)
}

// Latest returns the most recent successful build.
// GET /api/builds/latest
func (h *BuildHandler) Latest(c *gin.Context) {
	build, err := h.history.LastSuccessful()
	if err != nil {
		if errors.Is(err, services.ErrBuildNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "no successful build recorded"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, build)
}

func queryInt(c *gin.Context, key string, def int) (int, error) {
	raw := c.Query(key)
	if raw == "" {
		return def, nil
	}
	return strconv.Atoi(raw)
}
