package api

import (
	"context"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"github.com/evnavlabs/evnav-simulator/core"
	"github.com/evnavlabs/evnav-simulator/internal/logging"
	"github.com/evnavlabs/evnav-simulator/internal/observability"
	"github.com/evnavlabs/evnav-simulator/model"
	"github.com/evnavlabs/evnav-simulator/traffic"
)

// Server exposes the road network, vehicle catalog, traffic model, and
// route planner over HTTP. The network and catalog are read-only after
// construction; the traffic model carries all mutable state, so the
// server itself needs no locking.
type Server struct {
	network  *core.RoadNetwork
	vehicles map[string]model.Vehicle
	traffic  *traffic.Model

	log         logging.Logger
	collector   *observability.PlannerCollector
	planTimeout time.Duration
	serviceName string
}

// ServerOption customises a Server.
type ServerOption func(*Server)

// WithLogger sets the base logger. Nil keeps the noop default.
func WithLogger(log logging.Logger) ServerOption {
	return func(s *Server) {
		if log != nil {
			s.log = log
		}
	}
}

// WithCollector attaches Prometheus instrumentation to the router and
// the plan handlers.
func WithCollector(c *observability.PlannerCollector) ServerOption {
	return func(s *Server) { s.collector = c }
}

// WithPlanTimeout bounds the wall time of a single route search. Zero
// disables the bound.
func WithPlanTimeout(d time.Duration) ServerOption {
	return func(s *Server) { s.planTimeout = d }
}

// WithServiceName overrides the name reported on trace spans.
func WithServiceName(name string) ServerOption {
	return func(s *Server) {
		if name != "" {
			s.serviceName = name
		}
	}
}

// NewServer wires the API over its dependencies. The traffic model may
// be nil, in which case every plan prices at free flow and the traffic
// endpoints operate on a private model.
func NewServer(network *core.RoadNetwork, vehicles map[string]model.Vehicle, trafficModel *traffic.Model, opts ...ServerOption) *Server {
	if trafficModel == nil {
		trafficModel = traffic.NewModel(0)
	}
	s := &Server{
		network:     network,
		vehicles:    vehicles,
		traffic:     trafficModel,
		log:         logging.Noop(),
		planTimeout: 10 * time.Second,
		serviceName: "evnav-api",
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Router builds the gin engine with all middleware and routes attached.
func (s *Server) Router() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(requestLogging(s.log))
	r.Use(otelgin.Middleware(s.serviceName))
	if s.collector != nil {
		r.Use(s.collector.Middleware())
	}

	corsCfg := cors.DefaultConfig()
	corsCfg.AllowAllOrigins = true
	corsCfg.AllowMethods = []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}
	corsCfg.AllowHeaders = []string{"*"}
	r.Use(cors.New(corsCfg))

	r.GET("/health", s.handleHealth)

	apiGroup := r.Group("/api")
	{
		apiGroup.GET("/city", s.handleCity)
		apiGroup.GET("/vehicles", s.handleVehicles)
		apiGroup.POST("/route/score", s.handleScoreRoute)
		apiGroup.POST("/route/plan", s.handlePlanRoute)
		apiGroup.GET("/traffic", s.handleTrafficState)
		apiGroup.POST("/traffic/intensity", s.handleSetIntensity)
		apiGroup.POST("/traffic/block", s.handleBlockConnection)
		apiGroup.POST("/traffic/unblock", s.handleUnblockConnection)
	}

	return r
}

// logger prefers the request-scoped logger installed by the middleware.
func (s *Server) logger(ctx context.Context) logging.Logger {
	if l := logging.LoggerFromContext(ctx); l != nil {
		return l
	}
	return s.log
}

// lookupVehicle resolves a catalog ID or reports ErrUnknownVehicle.
func (s *Server) lookupVehicle(id string) (model.Vehicle, error) {
	v, ok := s.vehicles[id]
	if !ok {
		return model.Vehicle{}, unknownVehicleError(id)
	}
	return v, nil
}
