package httpapi

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"stagegate/internal/domain/identity"
	"stagegate/internal/domain/project"
)

// Server adapts the workflow engine to REST. Authentication is out of
// scope: the caller identity arrives as the X-User-Email header, set by
// whatever sits in front of this service.
type Server struct {
	projects *project.Service
	users    *identity.Service
	logger   *slog.Logger
}

// NewServer creates a new API server.
func NewServer(projects *project.Service, users *identity.Service, logger *slog.Logger) *Server {
	return &Server{projects: projects, users: users, logger: logger}
}

// Router builds the gin engine with CORS and all routes.
func (s *Server) Router(mode string, allowedOrigins []string) *gin.Engine {
	setGinMode(mode)
	engine := gin.Default()

	corsconfig := cors.DefaultConfig()
	corsconfig.AllowOrigins = allowedOrigins
	corsconfig.AddAllowHeaders("X-User-Email")
	engine.Use(cors.New(corsconfig))

	engine.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "alive"})
	})

	engine.POST("/users", s.registerUser)

	projects := engine.Group("/projects")
	{
		projects.GET("", s.listProjects)
		projects.POST("", s.createProject)
		projects.GET("/pending", s.pendingFinalApprovals)
		projects.GET("/:id", s.getProject)
		projects.POST("/:id/launch", s.launchProject)
		projects.POST("/:id/tasks", s.assignTasks)
		projects.GET("/:id/requests", s.pendingRequests)
		projects.POST("/:id/requests", s.submitTaskProof)
		projects.POST("/:id/requests/resolve", s.resolveRequest)
		projects.POST("/:id/submit", s.submitFinalReport)
		projects.POST("/:id/approve", s.approveFinalProject)
	}

	return engine
}

func setGinMode(mode string) {
	switch strings.ToLower(mode) {
	case "release":
		gin.SetMode(gin.ReleaseMode)
	case "test":
		gin.SetMode(gin.TestMode)
	default:
		gin.SetMode(gin.DebugMode)
	}
}

// actor returns the caller identity from the X-User-Email header.
func actor(c *gin.Context) (string, bool) {
	email := strings.TrimSpace(c.GetHeader("X-User-Email"))
	if email == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing X-User-Email header"})
		return "", false
	}
	return email, true
}
