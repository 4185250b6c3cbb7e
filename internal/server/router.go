package server

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/abhisek/lectern/internal/platform/logger"
	"github.com/abhisek/lectern/internal/session"
)

func newRouter(svc *session.Service, cfg Config, log *logger.Logger) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery(), requestLogger(log), corsAll())

	h := &handlers{svc: svc}

	router.GET("/healthcheck", h.healthCheck)

	api := router.Group("/api")
	{
		api.GET("/lessons", h.listLessons)
		api.GET("/lessons/:id/next", h.nextLesson)
		api.GET("/lessons/:id/prev", h.previousLesson)

		api.GET("/session/new", h.newSession)
		api.POST("/session/new", h.newSession)
		api.POST("/session/command", h.command)
		api.GET("/session/audio", h.play)
		api.POST("/session/audio", h.play)
		api.POST("/session/audio/pause", h.pause)
		api.POST("/session/audio/resume", h.resume)
		api.POST("/session/audio/stop", h.stop)
		api.POST("/session/rate", h.rate)
		api.GET("/session/state", h.state)
		api.GET("/session/progress", h.progress)
		api.POST("/session/answer", h.answer)
		api.GET("/session/feedback", h.feedback)
		api.POST("/session/end", h.end)
	}

	var files http.Handler
	if cfg.PublicDir != "" {
		files = http.FileServer(http.Dir(cfg.PublicDir))
	}
	router.NoRoute(func(c *gin.Context) {
		if files == nil || strings.HasPrefix(c.Request.URL.Path, "/api/") {
			respondError(c, http.StatusNotFound, "not_found", errors.New("Not Found"))
			return
		}
		files.ServeHTTP(c.Writer, c.Request)
	})

	return router
}
