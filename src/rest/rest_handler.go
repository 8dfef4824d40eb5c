package rest

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"resource-streamer/src/config"
	"resource-streamer/src/interfaces"
	"resource-streamer/src/logger"
	"resource-streamer/src/models"
	"resource-streamer/src/streamer"

	"github.com/gin-gonic/gin"
)

// -----------------------------------------------------------------------------
// RESTServer exposes the subscription control surface over HTTP
// -----------------------------------------------------------------------------

type RESTServer struct {
	config   *config.Config
	logger   *logger.Logger
	streamer interfaces.IResourceStreamer
	gateway  interfaces.IGatewayClient

	engine *gin.Engine
	server *http.Server
}

// -----------------------------------------------------------------------------

// startRequest is the body of POST /api/v1/resources
type startRequest struct {
	ResourceType models.MResourceType   `json:"resource_type" binding:"required"`
	Params       models.MResourceParams `json:"params"`
}

// -----------------------------------------------------------------------------

// NewRESTServer creates a new REST server instance
func NewRESTServer(cfg *config.Config, log *logger.Logger, rs interfaces.IResourceStreamer, gw interfaces.IGatewayClient) *RESTServer {
	if cfg.LogLevel != "DEBUG" {
		gin.SetMode(gin.ReleaseMode)
	}

	s := &RESTServer{
		config:   cfg,
		logger:   log,
		streamer: rs,
		gateway:  gw,
		engine:   gin.Default(),
	}

	s.setupRoutes()
	return s
}

// -----------------------------------------------------------------------------

func (s *RESTServer) setupRoutes() {
	v1 := s.engine.Group("/api/v1")
	v1.POST("/resources", s.startResource)
	v1.GET("/resources", s.listResources)
	v1.GET("/resources/:type/:id", s.readResource)
	v1.DELETE("/resources/:type/:id", s.stopResource)

	s.engine.GET("/health", s.getHealth)
}

// -----------------------------------------------------------------------------
// Server lifecycle
// -----------------------------------------------------------------------------

// Start blocks serving HTTP until Stop is called
func (s *RESTServer) Start() error {
	addr := fmt.Sprintf("%s:%d", s.config.RestHost, s.config.RestPort)
	s.logger.Info("RESTServer : starting on %s", addr)

	s.server = &http.Server{
		Addr:    addr,
		Handler: s.engine,
	}

	if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("rest server failed: %w", err)
	}
	return nil
}

// -----------------------------------------------------------------------------

// Stop drains in-flight requests and shuts the listener down
func (s *RESTServer) Stop(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	s.logger.Info("RESTServer : shutting down")
	return s.server.Shutdown(ctx)
}

// -----------------------------------------------------------------------------
// Route handlers
// -----------------------------------------------------------------------------

// startResource handles POST /api/v1/resources
func (s *RESTServer) startResource(c *gin.Context) {
	var req startRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("invalid request body: %v", err)})
		return
	}

	desc, status, err := s.streamer.Start(c.Request.Context(), req.ResourceType, req.Params)
	if err != nil {
		s.renderError(c, err)
		return
	}

	code := http.StatusCreated
	if status == models.StartAlreadySubscribed {
		code = http.StatusOK
	}

	c.JSON(code, gin.H{
		"status":   status,
		"resource": desc,
	})
}

// -----------------------------------------------------------------------------

// stopResource handles DELETE /api/v1/resources/:type/:id
func (s *RESTServer) stopResource(c *gin.Context) {
	resourceType := models.MResourceType(c.Param("type"))
	resourceID := c.Param("id")

	if err := s.streamer.Stop(c.Request.Context(), resourceType, resourceID); err != nil {
		s.renderError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "stopped"})
}

// -----------------------------------------------------------------------------

// readResource handles GET /api/v1/resources/:type/:id. The id "*" returns
// the aggregate snapshot across all live resources of the type.
func (s *RESTServer) readResource(c *gin.Context) {
	resourceType := models.MResourceType(c.Param("type"))
	resourceID := c.Param("id")

	snap, err := s.streamer.Read(resourceType, resourceID)
	if err != nil {
		if errors.Is(err, streamer.ErrEmptyAggregate) {
			// A readable state, not a failure
			c.JSON(http.StatusOK, models.MSnapshot{
				ResourceType:   resourceType,
				ResourceID:     models.WildcardID,
				EmptyAggregate: true,
			})
			return
		}
		s.renderError(c, err)
		return
	}

	c.JSON(http.StatusOK, snap)
}

// -----------------------------------------------------------------------------

// listResources handles GET /api/v1/resources
func (s *RESTServer) listResources(c *gin.Context) {
	infos := s.streamer.List()
	c.JSON(http.StatusOK, gin.H{
		"count":     len(infos),
		"resources": infos,
	})
}

// -----------------------------------------------------------------------------

func (s *RESTServer) getHealth(c *gin.Context) {
	status := "ok"
	code := http.StatusOK
	if !s.gateway.IsConnected() {
		status = "degraded"
		code = http.StatusServiceUnavailable
	}

	c.JSON(code, gin.H{
		"status":    status,
		"gateway":   s.gateway.IsConnected(),
		"resources": len(s.streamer.List()),
	})
}

// -----------------------------------------------------------------------------

// renderError maps the subsystem's error taxonomy onto HTTP status codes
func (s *RESTServer) renderError(c *gin.Context, err error) {
	code := http.StatusInternalServerError

	switch {
	case errors.Is(err, streamer.ErrNotFound),
		errors.Is(err, streamer.ErrNotSubscribed):
		code = http.StatusNotFound
	case errors.Is(err, streamer.ErrInvalidResource),
		errors.Is(err, streamer.ErrWildcardNotStartable):
		code = http.StatusBadRequest
	case errors.Is(err, streamer.ErrConnectionLost):
		code = http.StatusServiceUnavailable
	case errors.Is(err, streamer.ErrAttachTimeout),
		errors.Is(err, streamer.ErrDetachTimeout):
		code = http.StatusGatewayTimeout
	}

	c.JSON(code, gin.H{"error": err.Error()})
}
