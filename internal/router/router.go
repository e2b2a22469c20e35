// internal/router/router.go
package router

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"github.com/javajoker/story-txprep/internal/config"
	"github.com/javajoker/story-txprep/internal/handlers"
	"github.com/javajoker/story-txprep/internal/i18n"
	"github.com/javajoker/story-txprep/internal/middleware"
	"github.com/javajoker/story-txprep/internal/services"
	"github.com/javajoker/story-txprep/internal/utils"
)

const Version = "1.0.0"

// Dependencies are the long-lived collaborators built in main.
type Dependencies struct {
	Store services.ContentStore
	Chain Chain
}

// Chain is the chain client plus the health probe.
type Chain interface {
	services.ChainClient
	handlers.Prober
}

func Initialize(cfg *config.Config, deps Dependencies) *gin.Engine {
	network := cfg.Network.Active
	errs := handlers.NewErrorWriter(cfg.IsDevelopment())

	pipeline := services.NewPipeline(
		services.NewSchemaValidator(),
		&services.StageDeps{
			Store:   deps.Store,
			Chain:   deps.Chain,
			Network: network,
		},
		services.NewTransactionBuilder(deps.Chain, network, cfg.Gas.BufferPercent),
	)

	prepareHandler := handlers.NewPrepareHandler(pipeline, errs)
	healthHandler := handlers.NewHealthHandler(deps.Chain, network, deps.Store.Name(), Version)
	limiter := middleware.NewRateLimiter(cfg.RateLimit.Requests, time.Duration(cfg.RateLimit.WindowSeconds)*time.Second, errs)

	r := gin.New()
	r.HandleMethodNotAllowed = true

	// Global middleware
	r.Use(middleware.Recovery(errs))
	r.Use(middleware.RequestID())
	r.Use(otelgin.Middleware(cfg.Tracing.ServiceName))
	r.Use(middleware.RequestLogger())
	r.Use(middleware.SecurityHeaders(cfg.Environment == config.EnvProduction))
	r.Use(middleware.CORS(cfg.Security.CORSAllowedOrigins))
	r.Use(middleware.I18nMiddleware())

	r.NoRoute(func(c *gin.Context) {
		lang := utils.GetLangFromContext(c)
		utils.ErrorResponse(c, http.StatusNotFound, "NOT_FOUND", i18n.T(lang, i18n.KeyRouteNotFound), nil, false)
	})
	r.NoMethod(func(c *gin.Context) {
		lang := utils.GetLangFromContext(c)
		utils.ErrorResponse(c, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", i18n.T(lang, i18n.KeyMethodNotAllowed), nil, false)
	})

	// Health check
	r.GET("/health", healthHandler.Health)

	v1 := r.Group("/api/v1")
	{
		v1.GET("/network", healthHandler.Network)

		prepare := v1.Group("/prepare")
		prepare.Use(middleware.ClientIdentity(cfg.Security.APIJWTSecret, errs))
		prepare.Use(limiter.Middleware())
		prepare.Use(middleware.PayloadGuard(cfg.Security.MaxBodyBytes, errs))
		{
			prepare.GET("", prepareHandler.Index)
			for _, op := range services.Operations() {
				path := "/" + string(op.Kind)
				prepare.POST(path, prepareHandler.Prepare(op))
				prepare.GET(path, prepareHandler.Docs(op))
				prepare.OPTIONS(path, prepareHandler.Options)
			}
		}
	}

	return r
}
