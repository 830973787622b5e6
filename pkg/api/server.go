package api

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"

	"github.com/Nephrolytics-ai/lecture-notes/pkg/metrics"
	"github.com/Nephrolytics-ai/lecture-notes/pkg/model"
	"github.com/Nephrolytics-ai/lecture-notes/pkg/orchestrator"
	"github.com/Nephrolytics-ai/lecture-notes/pkg/registry"
	"github.com/Nephrolytics-ai/lecture-notes/pkg/storage"
)

// Runner executes one pipeline run; *orchestrator.Orchestrator implements it.
type Runner interface {
	Run(ctx context.Context, req orchestrator.Request) (*orchestrator.SessionResult, error)
}

// Catalog lists providers; *registry.Registry implements it.
type Catalog interface {
	Catalog() []registry.VendorInfo
}

type Deps struct {
	Runner  Runner
	Catalog Catalog
	// Sink is optional; without it exports can only be downloaded.
	Sink     storage.Sink
	Defaults orchestrator.Request
	Store    *SessionStore
	Logger   *logrus.Logger
}

type Server struct {
	runner   Runner
	catalog  Catalog
	sink     storage.Sink
	defaults orchestrator.Request
	store    *SessionStore
}

func NewRouter(d Deps) *gin.Engine {
	store := d.Store
	if store == nil {
		store = NewSessionStore()
	}
	logger := d.Logger
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	s := &Server{
		runner:   d.Runner,
		catalog:  d.Catalog,
		sink:     d.Sink,
		defaults: d.Defaults,
		store:    store,
	}

	r := gin.New()
	r.Use(RequestLogger(logger), Recovery(), metrics.InstrumentHandler())
	r.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, APIError{Code: model.KindNotFound, Message: "route not found"})
	})

	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	v1 := r.Group("/api/v1")
	v1.GET("/health", s.health)
	v1.GET("/providers", s.providers)
	v1.GET("/schema", s.schema)

	v1.POST("/sessions", s.createSession)
	v1.GET("/sessions/:id", s.getSession)
	v1.PUT("/sessions/:id/audio", s.reprocessSession)
	v1.DELETE("/sessions/:id", s.deleteSession)
	v1.GET("/sessions/:id/export/:content", s.downloadExport)
	v1.POST("/sessions/:id/export/:content", s.saveExport)

	return r
}
