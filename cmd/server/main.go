package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"dropscout/internal/cache"
	"dropscout/internal/config"
	cronrunner "dropscout/internal/cron"
	"dropscout/internal/db"
	"dropscout/internal/handler"
	"dropscout/internal/livetest"
	"dropscout/internal/logger"
	"dropscout/internal/metrics"
	gormrepository "dropscout/internal/repository/gorm"
	"dropscout/internal/scraper"
	"dropscout/internal/service"
	"dropscout/internal/verdict"
)

func main() {
	cfgPath := os.Getenv("DS_CONFIG")
	if cfgPath == "" {
		cfgPath = "config/config.yaml"
	}

	envOnly := false
	if envOnlyRaw := os.Getenv("DS_ENV_ONLY"); envOnlyRaw != "" {
		envOnly = strings.EqualFold(envOnlyRaw, "true") || envOnlyRaw == "1"
	}

	cfg, err := config.Load(cfgPath, envOnly)
	if err != nil {
		panic(err)
	}
	if err := cfg.Validate(); err != nil {
		panic(err)
	}

	logger, err := logger.New(cfg.Log)
	if err != nil {
		panic(err)
	}
	defer logger.Sync()

	dbConn, err := db.Open(cfg.DB)
	if err != nil {
		logger.Fatal("db open failed", zap.Error(err))
	}
	defer db.Close(dbConn)

	if err := db.SetTimezone(dbConn, cfg.DB.Timezone); err != nil {
		logger.Warn("failed to set timezone", zap.Error(err))
	}
	if err := db.AutoMigrate(dbConn); err != nil {
		logger.Fatal("auto-migrate failed", zap.Error(err))
	}

	m := metrics.New()
	store := gormrepository.New(dbConn.Gorm)

	search, err := scraper.New(cfg.Scraper, logger, m)
	if err != nil {
		logger.Fatal("scraper init failed", zap.Error(err))
	}

	analysisSvc := &service.AnalysisService{
		Repo:    store,
		Scraper: search,
		Engine:  verdict.NewEngine(cfg.Verdict, cfg.Risk, cfg.Scenario),
		Cache:   cache.NewKeyword[service.AnalysisReport](cfg.Cache.MaxEntries, cfg.Cache.VerdictTTL),
		Metrics: m,
		Logger:  logger,

		ReuseWindow: cfg.Cache.VerdictTTL,
	}
	testDesk := &service.TestDeskService{
		Repo:    store,
		Monitor: livetest.NewMonitor(cfg.LiveTest),
		Metrics: m,
		Logger:  logger,
	}

	if strings.EqualFold(cfg.App.Env, "dev") {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}
	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.Use(corsMiddleware())

	healthHandler := &handler.HealthHandler{DB: dbConn.Gorm}
	healthHandler.Register(engine)
	analysisHandler := &handler.AnalysisHandler{Service: analysisSvc}
	analysisHandler.Register(engine)
	scenarioHandler := handler.NewScenarioHandler(cfg.Risk, cfg.Scenario)
	scenarioHandler.Register(engine)
	liveTestHandler := &handler.LiveTestHandler{Desk: testDesk}
	liveTestHandler.Register(engine)

	engine.GET("/metrics", gin.WrapH(promhttp.HandlerFor(m.Registry, promhttp.HandlerOpts{})))

	srv := &http.Server{
		Addr:    cfg.Server.HTTPAddr,
		Handler: engine,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cronRunner := cronrunner.New(logger, ctx)
	if cfg.Cron.Enabled {
		_, err = cronRunner.Add("test_sweep", cfg.Cron.TestSweep, func(ctx context.Context) {
			if flagged := testDesk.Sweep(ctx); flagged > 0 {
				logger.Info("test sweep finished", zap.Int("flagged", flagged))
			}
		})
		if err != nil {
			logger.Warn("cron register test sweep failed", zap.Error(err))
		}
		_, err = cronRunner.Add("keyword_refresh", cfg.Cron.KeywordRefresh, func(ctx context.Context) {
			if refreshed := analysisSvc.RefreshStale(ctx, cfg.Cache.VerdictTTL, 10); refreshed > 0 {
				logger.Info("keyword refresh finished", zap.Int("refreshed", refreshed))
			}
		})
		if err != nil {
			logger.Warn("cron register keyword refresh failed", zap.Error(err))
		}
		cronRunner.Start()
		defer cronRunner.Stop()
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("http server starting", zap.String("addr", cfg.Server.HTTPAddr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		logger.Info("shutdown requested")
	case err := <-errCh:
		logger.Error("server error", zap.Error(err))
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = srv.Shutdown(shutdownCtx)
}

func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET,POST,PUT,DELETE,OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type,Authorization")
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(204)
			return
		}
		c.Next()
	}
}
