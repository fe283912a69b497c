// Package api exposes storycut over HTTP: project CRUD, script import,
// scene/shot editing, generation endpoints, task status and asset serving.
package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"storycut/store"
	"storycut/storyboard"
	"storycut/studio"
)

type Server struct {
	studio      *studio.Studio
	defaultGrid storyboard.Grid
	logger      *zap.Logger
	router      *gin.Engine
}

func NewServer(s *studio.Studio, defaultGrid storyboard.Grid, logger *zap.Logger) *Server {
	gin.SetMode(gin.ReleaseMode)
	srv := &Server{
		studio:      s,
		defaultGrid: defaultGrid,
		logger:      logger.Named("api"),
		router:      gin.New(),
	}
	srv.router.Use(gin.Recovery(), srv.requestLog())
	srv.routes()
	return srv
}

func (s *Server) Handler() http.Handler { return s.router }

// Run serves until the listener fails.
func (s *Server) Run(listen string) error {
	s.logger.Info("listening", zap.String("addr", listen))
	return s.router.Run(listen)
}

func (s *Server) routes() {
	api := s.router.Group("/api")

	api.POST("/projects", s.createProject)
	api.GET("/projects", s.listProjects)
	api.GET("/projects/:id", s.getProject)
	api.DELETE("/projects/:id", s.deleteProject)

	api.POST("/projects/:id/script", s.importScript)
	api.POST("/projects/:id/plan", s.planProject)
	api.POST("/projects/:id/narrate", s.narrateProject)
	api.POST("/projects/:id/export", s.exportProject)

	api.GET("/projects/:id/scenes", s.listScenes)
	api.GET("/scenes/:id", s.getScene)
	api.PUT("/scenes/:id", s.updateScene)
	api.GET("/scenes/:id/shots", s.listShots)
	api.POST("/scenes/:id/generate", s.generateScene)
	api.POST("/scenes/:id/storyboard", s.uploadStoryboard)

	api.GET("/shots/:id", s.getShot)
	api.PUT("/shots/:id", s.updateShot)
	api.DELETE("/shots/:id", s.deleteShot)
	api.POST("/shots/:id/image", s.generateShotImage)
	api.POST("/shots/:id/video", s.generateShotVideo)

	api.GET("/projects/:id/characters", s.listCharacters)
	api.POST("/projects/:id/characters", s.createCharacter)
	api.POST("/characters/:id/sheet", s.generateSheet)

	api.GET("/tasks/:id", s.getTask)
	api.POST("/tasks/:id/cancel", s.cancelTask)

	s.router.Static("/assets", s.studio.AssetsDir)
	s.router.Static("/audio", s.studio.AudioDir)
}

func (s *Server) requestLog() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()
		s.logger.Debug("request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()))
	}
}

// fail writes the JSON error envelope, translating store.ErrNotFound to 404.
func (s *Server) fail(c *gin.Context, status int, err error) {
	if errors.Is(err, store.ErrNotFound) {
		status = http.StatusNotFound
	}
	c.JSON(status, gin.H{"error": err.Error()})
}
