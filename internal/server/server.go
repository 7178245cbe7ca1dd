package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/smallbiznis/cyberdesk/internal/config"
	deskservice "github.com/smallbiznis/cyberdesk/internal/desk/service"
	"github.com/smallbiznis/cyberdesk/internal/observability"
	obsmiddleware "github.com/smallbiznis/cyberdesk/internal/observability/logger"
	obsmetrics "github.com/smallbiznis/cyberdesk/internal/observability/metrics"
	obstracing "github.com/smallbiznis/cyberdesk/internal/observability/tracing"
	receiptservice "github.com/smallbiznis/cyberdesk/internal/receipt/service"
	"github.com/smallbiznis/cyberdesk/internal/session/live"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var Module = fx.Module("http.server",
	fx.Provide(NewEngine),
	fx.Provide(NewServer),
	fx.Invoke(run),
)

type EngineParams struct {
	fx.In

	ObsConfig   observability.Config
	HTTPMetrics *obsmetrics.HTTPMetrics `optional:"true"`
}

func NewEngine(p EngineParams) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(obsmiddleware.GinMiddleware(obsmiddleware.MiddlewareConfig{
		Debug:           p.ObsConfig.Debug(),
		ErrorClassifier: classifyErrorForLog,
	}))
	r.Use(obstracing.GinMiddleware())
	r.Use(p.HTTPMetrics.GinMiddleware())
	r.Use(ErrorHandlingMiddleware())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	return r
}

func run(lc fx.Lifecycle, cfg config.Config, s *Server, log *zap.Logger) {
	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           s.engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			log.Info("http server listening", zap.String("addr", cfg.HTTPAddr))
			go func() {
				if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					log.Fatal("http server stopped", zap.Error(err))
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		},
	})
}

type Server struct {
	engine   *gin.Engine
	cfg      config.Config
	log      *zap.Logger
	desk     *deskservice.Service
	receipts *receiptservice.Service
	live     *live.Hub

	heartbeat time.Duration
}

type ServerParams struct {
	fx.In

	Gin      *gin.Engine
	Cfg      config.Config
	Log      *zap.Logger
	Desk     *deskservice.Service
	Receipts *receiptservice.Service
	Live     *live.Hub `optional:"true"`
}

func NewServer(p ServerParams) *Server {
	s := &Server{
		engine:    p.Gin,
		cfg:       p.Cfg,
		log:       p.Log.Named("http.server"),
		desk:      p.Desk,
		receipts:  p.Receipts,
		live:      p.Live,
		heartbeat: 15 * time.Second,
	}
	s.registerAPIRoutes()
	return s
}

func (s *Server) Engine() *gin.Engine {
	return s.engine
}

func (s *Server) registerAPIRoutes() {
	api := s.engine.Group("/api")

	api.GET("/business", s.GetBusiness)
	api.PUT("/business", s.ConfigureBusiness)
	api.POST("/business/reconfigure", s.ReconfigureBusiness)
	api.GET("/catalog", s.GetCatalog)

	api.GET("/sessions", s.ListSessions)
	api.POST("/sessions", s.StartSession)
	api.GET("/sessions/:id", s.GetSessionByID)
	api.POST("/sessions/:id/finish", s.FinishSession)
	api.GET("/sessions/:id/timer", s.GetSessionTimer)
	api.GET("/sessions/:id/stream", s.StreamSessionTimer)

	api.GET("/timers", s.ListTimers)
	api.GET("/timers/stream", s.StreamAllTimers)

	api.GET("/subscriptions", s.ListSubscriptions)
	api.POST("/subscriptions", s.CreateSubscription)

	api.GET("/orders", s.ListOrders)
	api.POST("/orders", s.CreateOrder)

	api.GET("/transactions", s.ListTransactions)
	api.GET("/dashboard", s.GetDashboard)

	api.GET("/receipts/:kind/:id", s.GetReceipt)
	api.GET("/statement", s.GetStatement)
}
