package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"
	"github.com/virshi-ai/visibility-api/internal/automation"
	"github.com/virshi-ai/visibility-api/internal/config"
	"github.com/virshi-ai/visibility-api/internal/db"
	api "github.com/virshi-ai/visibility-api/internal/http/api"
	"github.com/virshi-ai/visibility-api/internal/ratelimit"
	"github.com/virshi-ai/visibility-api/internal/scan"
	"github.com/virshi-ai/visibility-api/internal/store"
)

// ErrMissingJWTSecret is returned when no session signing secret is
// configured. The server refuses to start without one.
var ErrMissingJWTSecret = errors.New("app: missing jwt secret (set jwt.secret in config or JWT_SECRET)")

// Migrate opens the database and runs migrations.
func Migrate(_ context.Context, cfg config.AppConfig) error {
	configPath := config.ResolveConfigPath(cfg.ConfigPath)
	dsn, err := config.LoadDatabaseDSN(configPath)
	if err != nil {
		return err
	}
	conn, err := db.Open(dsn)
	if err != nil {
		return err
	}
	return db.Migrate(conn)
}

// RunServer boots the visibility API server.
func RunServer(ctx context.Context, cfg config.AppConfig, port int) error {
	configPath := config.ResolveConfigPath(cfg.ConfigPath)

	dsn, errDSN := config.LoadDatabaseDSN(configPath)
	if errDSN != nil {
		return errDSN
	}
	conn, errOpen := db.Open(dsn)
	if errOpen != nil {
		return errOpen
	}
	if errMigrate := db.Migrate(conn); errMigrate != nil {
		return errMigrate
	}

	jwtCfg, errJWT := config.LoadJWTConfig(configPath)
	if errJWT != nil {
		return errJWT
	}
	if jwtCfg.Secret == "" {
		return ErrMissingJWTSecret
	}

	automationCfg, errAutomation := config.LoadAutomationConfig(configPath)
	if errAutomation != nil {
		return errAutomation
	}
	gateway := automation.NewClient(automation.Options{
		Endpoints: map[string]string{
			automation.EndpointGeneratePrompts: automationCfg.GeneratePromptsURL,
			automation.EndpointRunAnalysis:     automationCfg.RunAnalysisURL,
			automation.EndpointRecommendations: automationCfg.RecommendationsURL,
			automation.EndpointChat:            automationCfg.ChatURL,
		},
		AuthHeader:   automationCfg.AuthHeader,
		AuthValue:    automationCfg.AuthToken,
		TimeoutShort: automationCfg.TimeoutShort,
		TimeoutLong:  automationCfg.TimeoutLong,
		MaxRetries:   automationCfg.MaxRetries,
	})

	redisCfg, errRedis := config.LoadRedisConfig(configPath)
	if errRedis != nil {
		return errRedis
	}
	limiter := ratelimit.NewManager(ratelimit.Backend{
		Addr:     redisCfg.Addr,
		Password: redisCfg.Password,
		Prefix:   redisCfg.Prefix,
		DB:       redisCfg.DB,
	}, nil, nil)
	if redisCfg.Addr == "" {
		log.Info("rate limit: redis not configured, using in-memory limiter")
	}

	stores := api.Stores{
		Users:    store.NewUserStore(conn),
		Projects: store.NewProjectStore(conn),
		Keywords: store.NewKeywordStore(conn),
		Scans:    store.NewScanStore(conn),
		Chat:     store.NewChatStore(conn),
	}
	service := scan.NewService(stores.Projects, stores.Keywords, stores.Scans, gateway)

	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()
	engine.Use(gin.Recovery())
	api.RegisterRoutes(engine, conn, jwtCfg, stores, service, limiter)

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", port),
		Handler:           engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Infof("visibility api listening on %s", server.Addr)
		if errServe := server.ListenAndServe(); errServe != nil && !errors.Is(errServe, http.ErrServerClosed) {
			errCh <- errServe
			return
		}
		errCh <- nil
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		if errShutdown := server.Shutdown(shutdownCtx); errShutdown != nil {
			log.WithError(errShutdown).Warn("server shutdown failed")
		}
		return <-errCh
	case errServe := <-errCh:
		return errServe
	}
}
