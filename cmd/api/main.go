package main

import (
	"context"
	"errors"
	"log"
	"net"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	_ "github.com/justsurfingit/job-board/docs"
	"github.com/justsurfingit/job-board/internal/access"
	"github.com/justsurfingit/job-board/internal/auth"
	"github.com/justsurfingit/job-board/internal/cache"
	"github.com/justsurfingit/job-board/internal/cache/redis"
	"github.com/justsurfingit/job-board/internal/chat"
	"github.com/justsurfingit/job-board/internal/config"
	"github.com/justsurfingit/job-board/internal/database"
	"github.com/justsurfingit/job-board/internal/handlers"
	"github.com/justsurfingit/job-board/internal/notify"
	"github.com/justsurfingit/job-board/internal/services"
	"github.com/justsurfingit/job-board/internal/session"
	"github.com/justsurfingit/job-board/internal/telemetry"
	"github.com/justsurfingit/job-board/internal/uploads"
	"github.com/nats-io/nats.go"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

// @title Job Board API
// @version 1.0
// @description Job postings, applications and the hiring workflow.
// @BasePath /api/v1
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization

func newLogger(cfg *config.Config) (*zap.Logger, error) {
	if cfg.IsDevelopment() {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}

func newGate() access.Gate {
	return access.NewRoleGate()
}

func newSessionResolver(cfg *config.Config, logger *zap.Logger, lc fx.Lifecycle) (session.Resolver, error) {
	platform := session.NewPlatformResolver(cfg.PlatformURL, cfg.PlatformTimeout)
	if cfg.RedisAddr == "" {
		logger.Info("REDIS_ADDR not set, sessions are not cached")
		return platform, nil
	}

	c := redis.New(cache.RedisConfig{
		Addr:      cfg.RedisAddr,
		Password:  cfg.RedisPassword,
		DB:        cfg.RedisDB,
		Namespace: telemetry.ServiceName + ":",
	})

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			if err := c.Ping(ctx); err != nil {
				logger.Warn("redis unreachable, session lookups will fall through", zap.Error(err))
			}
			return nil
		},
		OnStop: func(context.Context) error {
			return c.Close()
		},
	})
	return session.NewCachedResolver(platform, c, cfg.SessionCacheTTL, logger), nil
}

// newNATSConnection returns nil when NATS is not configured.
func newNATSConnection(cfg *config.Config, logger *zap.Logger, lc fx.Lifecycle) (*nats.Conn, error) {
	if cfg.NATSURL == "" {
		logger.Warn("NATS_URL not set, chat and push notifications disabled")
		return nil, nil
	}
	conn, err := nats.Connect(cfg.NATSURL,
		nats.Timeout(cfg.NATSConnTimeout),
		nats.Name(telemetry.ServiceName),
		nats.RetryOnFailedConnect(true),
	)
	if err != nil {
		return nil, err
	}
	lc.Append(fx.Hook{
		OnStop: func(context.Context) error {
			return conn.Drain()
		},
	})
	return conn, nil
}

func newChatClient(conn *nats.Conn, cfg *config.Config, logger *zap.Logger) chat.Client {
	if conn == nil {
		return chat.Disabled{}
	}
	return chat.NewNATSClient(conn, cfg.NATSConnTimeout, logger)
}

func newNotifier(conn *nats.Conn, cfg *config.Config, logger *zap.Logger) notify.Dispatcher {
	var fanout notify.Fanout
	if conn != nil {
		fanout = append(fanout, notify.NewNATSDispatcher(conn, logger))
	}

	if cfg.GmailCredentialsFile != "" {
		svc, err := auth.GmailService(context.Background(), cfg.GmailCredentialsFile, cfg.GmailTokenFile)
		switch {
		case errors.Is(err, auth.ErrNoToken):
			logger.Warn("gmail token missing, email notifications disabled", zap.String("token_file", cfg.GmailTokenFile))
		case err != nil:
			logger.Error("gmail client unavailable, email notifications disabled", zap.Error(err))
		default:
			fanout = append(fanout, notify.NewEmailDispatcher(notify.NewGmailSender(svc, cfg.NotifyFrom), logger))
		}
	}

	if len(fanout) == 0 {
		logger.Warn("no notification channel configured")
	}
	return fanout
}

func newLLMService(cfg *config.Config, logger *zap.Logger) (*services.LLMService, error) {
	return services.NewLLMService(context.Background(), cfg.GeminiAPIKey, logger)
}

func newUploadStore(cfg *config.Config) (*uploads.DiskStore, error) {
	return uploads.NewDiskStore(cfg.UploadsDir, cfg.PublicBaseURL)
}

func newRouter(
	cfg *config.Config,
	logger *zap.Logger,
	resolver session.Resolver,
	users *services.UserService,
	jobs *handlers.JobHandler,
	applications *handlers.ApplicationHandler,
	directory *handlers.DirectoryHandler,
	up *handlers.UploadHandler,
) *gin.Engine {
	if !cfg.IsDevelopment() {
		gin.SetMode(gin.ReleaseMode)
	}
	return handlers.NewRouter(handlers.RouterDeps{
		Logger:       logger,
		Sessions:     resolver,
		Users:        users,
		CORSOrigins:  cfg.CORSOrigins,
		UploadsDir:   cfg.UploadsDir,
		Jobs:         jobs,
		Applications: applications,
		Directory:    directory,
		Uploads:      up,
	})
}

func registerTracing(cfg *config.Config, logger *zap.Logger, lc fx.Lifecycle) {
	var shutdown func(context.Context) error
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			var err error
			shutdown, err = telemetry.InitTracer(ctx, cfg.OTelCollectorURL, cfg.AppEnv)
			if err != nil {
				return err
			}
			if cfg.OTelCollectorURL != "" {
				logger.Info("tracing enabled", zap.String("collector", cfg.OTelCollectorURL))
			}
			return nil
		},
		OnStop: func(ctx context.Context) error {
			if shutdown == nil {
				return nil
			}
			return shutdown(ctx)
		},
	})
}

func registerServer(cfg *config.Config, router *gin.Engine, logger *zap.Logger, lc fx.Lifecycle) {
	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			ln, err := net.Listen("tcp", srv.Addr)
			if err != nil {
				return err
			}
			logger.Info("server starting", zap.String("addr", srv.Addr))
			go func() {
				if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
					logger.Error("server stopped", zap.Error(err))
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			return srv.Shutdown(ctx)
		},
	})
}

func main() {
	app := fx.New(
		fx.Provide(
			config.LoadConfig,
			newLogger,
			database.Connect,
			newGate,
			newSessionResolver,
			newNATSConnection,
			newChatClient,
			newNotifier,
			newLLMService,
			newUploadStore,
			services.NewJobService,
			services.NewApplicationService,
			services.NewUserService,
			services.NewCompanyService,
			handlers.NewJobHandler,
			handlers.NewApplicationHandler,
			handlers.NewDirectoryHandler,
			handlers.NewUploadHandler,
			newRouter,
		),
		fx.Invoke(
			registerTracing,
			registerServer,
		),
	)

	if err := app.Start(context.Background()); err != nil {
		log.Fatal(err)
	}

	<-app.Done()

	if err := app.Stop(context.Background()); err != nil {
		log.Fatal(err)
	}
}
