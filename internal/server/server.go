package server

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/smallbiznis/mainservice/internal/apiregistry"
	apiregistrydomain "github.com/smallbiznis/mainservice/internal/apiregistry/domain"
	"github.com/smallbiznis/mainservice/internal/audit"
	"github.com/smallbiznis/mainservice/internal/auth"
	authdomain "github.com/smallbiznis/mainservice/internal/auth/domain"
	"github.com/smallbiznis/mainservice/internal/authorization"
	"github.com/smallbiznis/mainservice/internal/config"
	"github.com/smallbiznis/mainservice/internal/events"
	"github.com/smallbiznis/mainservice/internal/notification"
	notificationdomain "github.com/smallbiznis/mainservice/internal/notification/domain"
	"github.com/smallbiznis/mainservice/internal/notification/relay"
	"github.com/smallbiznis/mainservice/internal/observability"
	obsmiddleware "github.com/smallbiznis/mainservice/internal/observability/logger"
	obsmetrics "github.com/smallbiznis/mainservice/internal/observability/metrics"
	obstracing "github.com/smallbiznis/mainservice/internal/observability/tracing"
	"github.com/smallbiznis/mainservice/internal/ratelimit"
	"github.com/smallbiznis/mainservice/internal/units"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var Module = fx.Module("http.server",
	fx.Provide(registerGin),
	authorization.Module,
	audit.Module,
	auth.Module,
	events.Module,
	units.Module,
	ratelimit.Module,
	apiregistry.Module,
	notification.Module,
	relay.Module,
	fx.Invoke(NewServer),
	fx.Invoke(run),
)

func NewEngine(obsCfg observability.Config, httpMetrics *obsmetrics.HTTPMetrics) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(obsmiddleware.GinMiddleware(obsmiddleware.MiddlewareConfig{
		Debug:           obsCfg.Debug(),
		ErrorClassifier: classifyErrorForLog,
		QuietRoutes:     []string{"/health", "/metrics"},
	}))
	r.Use(obstracing.GinMiddleware())
	r.Use(obsmetrics.GinMiddleware(httpMetrics))
	r.Use(ErrorHandlingMiddleware())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	return r
}

func registerGin(obsCfg observability.Config, httpMetrics *obsmetrics.HTTPMetrics) *gin.Engine {
	return NewEngine(obsCfg, httpMetrics)
}

func run(lc fx.Lifecycle, cfg config.Config, r *gin.Engine, log *zap.Logger) {
	srv := &http.Server{
		Addr:              ":" + cfg.ListenPort,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			log.Info("http server listening", zap.String("addr", srv.Addr))
			go func() {
				if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					panic(err)
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
	engine          *gin.Engine
	cfg             config.Config
	authsvc         authdomain.Service
	authzSvc        authorization.Service
	apiRegistrySvc  apiregistrydomain.Service
	notificationSvc notificationdomain.Service
	ingestLimiter   *ratelimit.NotificationIngestLimiter
	obsMetrics      *obsmetrics.Metrics
}

type ServerParams struct {
	fx.In

	Gin             *gin.Engine
	Cfg             config.Config
	Authsvc         authdomain.Service
	AuthzSvc        authorization.Service
	APIRegistrySvc  apiregistrydomain.Service
	NotificationSvc notificationdomain.Service
	IngestLimiter   *ratelimit.NotificationIngestLimiter `optional:"true"`
	ObsMetrics      *obsmetrics.Metrics                  `optional:"true"`
}

func NewServer(p ServerParams) *Server {
	svc := &Server{
		engine:          p.Gin,
		cfg:             p.Cfg,
		authsvc:         p.Authsvc,
		authzSvc:        p.AuthzSvc,
		apiRegistrySvc:  p.APIRegistrySvc,
		notificationSvc: p.NotificationSvc,
		ingestLimiter:   p.IngestLimiter,
		obsMetrics:      p.ObsMetrics,
	}

	svc.registerRoutes()
	return svc
}

func (s *Server) registerRoutes() {
	root := s.engine.Group("/" + s.cfg.HTTPPrefix)

	registries := root.Group("/api-registries")
	registries.Use(s.SessionRequired())
	{
		registries.POST("",
			s.Authorize(authorization.ObjectAPIRegistry, authorization.ActionAPIRegistryCreate),
			s.CreateAPIRegistry)
		registries.POST("/get-apis",
			s.Authorize(authorization.ObjectAPIRegistry, authorization.ActionAPIRegistryView),
			s.ListAPIRegistries)
		registries.GET("/get-combo-opts",
			s.Authorize(authorization.ObjectAPIRegistry, authorization.ActionAPIRegistryView),
			s.APIRegistryComboOptions)
		registries.POST("/delete-apis",
			s.Authorize(authorization.ObjectAPIRegistry, authorization.ActionAPIRegistryDelete),
			s.DeleteAPIRegistries)
		registries.PATCH("/update-api/:id",
			s.Authorize(authorization.ObjectAPIRegistry, authorization.ActionAPIRegistryUpdate),
			s.UpdateAPIRegistry)
	}

	notifications := root.Group("/notifications")
	{
		ingest := notifications.Group("", s.NotificationIngestRateLimit())
		ingest.POST("/create-notification-energy", s.CreateEnergyNotification)
		ingest.POST("/create-notification-water", s.CreateWaterNotification)
		ingest.POST("/create-notification-machine-health-index", s.CreateMachineHealthNotification)

		viewer := notifications.Group("",
			s.SessionRequired(),
			s.Authorize(authorization.ObjectNotification, authorization.ActionNotificationView),
		)
		viewer.PATCH("/view-notification", s.ViewNotification)
		viewer.POST("/view-all-notifications", s.ViewAllNotifications)
		viewer.GET("/get-notifications", s.ListNotifications)
		viewer.GET("/get-count-notifications", s.CountNotifications)
	}
}
