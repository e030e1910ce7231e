// Package http assembles the kernel's host-UI bridge HTTP surface
// (SPEC_FULL.md §6-EXP) into a single http.Handler. Route registration
// follows the teacher's RouterConfig/NewRouter shape, generalized from
// chi (never an actual module dependency in the teacher's own go.mod) to
// gin, the router the rest of the platform's stack already depends on.
package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/latticeforge/kernel/internal/infrastructure/auth/apitoken"
	"github.com/latticeforge/kernel/internal/infrastructure/monitoring/logging"
	"github.com/latticeforge/kernel/internal/interfaces/http/handlers"
	"github.com/latticeforge/kernel/internal/interfaces/http/middleware"
)

// RouterConfig aggregates every handler and middleware dependency needed to
// build the complete route tree.
type RouterConfig struct {
	NetworkHandler *handlers.NetworkHandler
	ProjectHandler *handlers.ProjectHandler
	FillJobHandler *handlers.FillJobHandler
	HealthHandler  *handlers.HealthHandler

	AuthMiddleware *apitoken.AuthMiddleware
	CORSMiddleware *middleware.CORSMiddleware
	Logger         logging.Logger
	RateLimiter    middleware.RateLimiter
	RateLimitConfig middleware.RateLimitConfig
}

// NewRouter constructs the complete HTTP route tree: global middleware
// (recovery, CORS, request logging, rate limiting), unauthenticated health
// probes, and the bearer-token-gated §6-EXP API surface.
func NewRouter(cfg RouterConfig) http.Handler {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery())

	if cfg.CORSMiddleware != nil {
		r.Use(wrapMiddleware(cfg.CORSMiddleware.Handler))
	}
	if cfg.Logger != nil {
		logCfg := middleware.DefaultLoggingConfig()
		r.Use(wrapMiddleware(middleware.RequestLogging(cfg.Logger, logCfg)))
	}
	if cfg.RateLimiter != nil {
		rlCfg := cfg.RateLimitConfig
		if rlCfg.KeyFunc == nil {
			rlCfg.KeyFunc = middleware.SubjectKeyFunc
		}
		r.Use(wrapMiddleware(middleware.RateLimit(cfg.RateLimiter, rlCfg)))
	}

	if cfg.HealthHandler != nil {
		r.GET("/healthz", gin.WrapF(cfg.HealthHandler.Liveness))
		r.GET("/readyz", gin.WrapF(cfg.HealthHandler.Readiness))
		r.GET("/healthz/detail", gin.WrapF(cfg.HealthHandler.Detailed))
	}

	api := r.Group("")
	if cfg.AuthMiddleware != nil {
		api.Use(wrapMiddleware(cfg.AuthMiddleware.Handler))
	}

	registerNetworkRoutes(api, cfg.NetworkHandler)
	registerProjectRoutes(api, cfg.ProjectHandler)
	registerFillJobRoutes(api, cfg.FillJobHandler)

	return r
}

// wrapMiddleware adapts a net/http-style `func(http.Handler) http.Handler`
// middleware (the shape every middleware in internal/interfaces/http/middleware
// is written in) into a gin.HandlerFunc, so the generic CORS/logging/
// rate-limit middleware can sit in the same chain as gin-native handlers.
func wrapMiddleware(mw func(http.Handler) http.Handler) gin.HandlerFunc {
	return func(c *gin.Context) {
		next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			c.Request = r
			c.Next()
		})
		mw(next).ServeHTTP(c.Writer, c.Request)
	}
}

// registerNetworkRoutes mounts the view/node/wire/selection verbs from
// spec.md §6.
func registerNetworkRoutes(r gin.IRoutes, h *handlers.NetworkHandler) {
	if h == nil {
		return
	}
	r.GET("/networks/:name/view", h.View)
	r.POST("/nodes/move", h.MoveNode)
	r.POST("/nodes", h.CreateNode)
	r.GET("/nodes/:id/data", h.GetNodeData)
	r.POST("/nodes/:id/data", h.SetNodeData)
	r.POST("/wires", h.CreateWire)
	r.POST("/select", h.Select)
	r.DELETE("/selection", h.DeleteSelection)
}

// registerProjectRoutes mounts project save/load.
func registerProjectRoutes(r gin.IRoutes, h *handlers.ProjectHandler) {
	if h == nil {
		return
	}
	r.POST("/projects/save", h.Save)
	r.POST("/projects/load", h.Load)
}

// registerFillJobRoutes mounts the asynchronous AtomFill job queue surface
// (SPEC_FULL.md §4.5-EXP).
func registerFillJobRoutes(r gin.IRoutes, h *handlers.FillJobHandler) {
	if h == nil {
		return
	}
	r.POST("/fill-jobs", h.Submit)
	r.GET("/fill-jobs/:id", h.Get)
}
