// Package router wires the build history API onto a gin engine.
package router

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/pandeptwidyaop/buildstamp/internal/config"
	"github.com/pandeptwidyaop/buildstamp/internal/handlers"
	"github.com/pandeptwidyaop/buildstamp/internal/logger"
	"github.com/pandeptwidyaop/buildstamp/internal/middleware"
	"github.com/pandeptwidyaop/buildstamp/internal/services"
)

func New(cfg *config.Config, history *services.HistoryService, log logger.Logger) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.Logger(log))
	r.Use(middleware.SecurityHeaders())

	pathPrefix := strings.TrimRight(cfg.Server.PathPrefix, "/")
	prefix := r.Group(pathPrefix)

	versionHandler := handlers.NewVersionHandler()
	buildHandler := handlers.NewBuildHandler(history)

	prefix.GET("/health", handlers.Health)

	api := prefix.Group("/api")
	{
		api.GET("/version", versionHandler.Get)
		api.GET("/builds", buildHandler.List)
		api.GET("/builds/latest", buildHandler.Latest)
		api.GET("/builds/:id", buildHandler.Get)
	}

	// Redirect root to path prefix (only if prefix is not empty)
	if pathPrefix != "" {
		r.GET("/", func(c *gin.Context) {
			c.Redirect(http.StatusFound, pathPrefix+"/api/builds")
		})
	}

	return r
}
