package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"loanmarket/internal/auth"
	"loanmarket/internal/client/near"
	"loanmarket/internal/config"
	cronrunner "loanmarket/internal/cron"
	"loanmarket/internal/db"
	"loanmarket/internal/handler"
	"loanmarket/internal/logger"
	"loanmarket/internal/pricing"
	gormrepository "loanmarket/internal/repository/gorm"
	"loanmarket/internal/risk"
	"loanmarket/internal/service"
)

func main() {
	cfgPath := os.Getenv("LM_CONFIG")
	if cfgPath == "" {
		cfgPath = "config/config.yaml"
	}

	envOnly := false
	if envOnlyRaw := os.Getenv("LM_ENV_ONLY"); envOnlyRaw != "" {
		envOnly = strings.EqualFold(envOnlyRaw, "true") || envOnlyRaw == "1"
	}

	cfg, err := config.Load(cfgPath, envOnly)
	if err != nil {
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

	riskEngine := risk.NewEngine(logger)
	if err := installModel(riskEngine, cfg.Model, logger); err != nil {
		logger.Fatal("risk model bootstrap failed", zap.Error(err))
	}
	pricingEngine := pricing.NewEngine(logger)

	chainClient := near.NewClient(near.Config{
		Network:    cfg.Near.Network,
		ContractID: cfg.Near.ContractID,
		AccountID:  cfg.Near.AccountID,
		RPCURL:     cfg.Near.RPCURL,
		Timeout:    cfg.Near.Timeout,
	}, logger)

	store := gormrepository.New(dbConn.Gorm)
	loanService := &service.LoanService{
		Repo:    store,
		Risk:    riskEngine,
		Pricing: pricingEngine,
		Chain:   chainClient,
		Logger:  logger,
	}
	tradeService := &service.TradeService{
		Repo:   store,
		Chain:  chainClient,
		Logger: logger,
	}

	if strings.EqualFold(cfg.App.Env, "dev") {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}
	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.Use(corsMiddleware())
	engine.Use(auth.RequireBearer(cfg.Auth))

	healthHandler := &handler.HealthHandler{DB: dbConn.Gorm, Risk: riskEngine}
	healthHandler.Register(engine)
	loanHandler := &handler.LoanHandler{Loans: loanService}
	loanHandler.Register(engine)
	pricingHandler := &handler.PricingHandler{Loans: loanService}
	pricingHandler.Register(engine)
	marketplaceHandler := &handler.MarketplaceHandler{Loans: loanService}
	marketplaceHandler.Register(engine)
	txHandler := &handler.TransactionHandler{Trades: tradeService}
	txHandler.Register(engine)

	srv := &http.Server{
		Addr:    cfg.Server.HTTPAddr,
		Handler: engine,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cronRunner := cronrunner.New(logger, ctx)
	if cfg.Cron.Enabled {
		revaluer := &service.Revaluer{
			Loans:      loanService,
			StaleAfter: cfg.Model.StaleAfter,
			Logger:     logger,
		}
		if _, err := cronRunner.Add(cfg.Cron.Revalue, revaluer.Run); err != nil {
			logger.Warn("cron register revaluer failed", zap.Error(err))
		}
		cronRunner.Start()
		defer cronRunner.Stop()
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("http server starting", zap.String("addr", cfg.Server.HTTPAddr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
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

// installModel loads the configured artifact version, or, only when the
// artifact has never been written, trains a bootstrap model on synthetic
// data and persists it. Any other load failure is fatal rather than silently
// retrained over.
func installModel(engine *risk.Engine, cfg config.ModelConfig, logger *zap.Logger) error {
	model, err := risk.LoadModel(cfg.ArtifactDir, cfg.Version)
	if err == nil {
		engine.Swap(model)
		return nil
	}
	if !errors.Is(err, risk.ErrArtifactNotFound) {
		return err
	}

	logger.Info("no model artifact found, training bootstrap model",
		zap.String("version", cfg.Version),
		zap.Int("samples", cfg.SyntheticSamples))
	samples, labels := risk.GenerateSyntheticTrainingSet(cfg.SyntheticSamples, 42)
	model, metrics := risk.Train(samples, labels, cfg.Version, risk.TrainOptions{
		Epochs:       cfg.TrainEpochs,
		LearningRate: cfg.LearningRate,
	})
	logger.Info("bootstrap model trained",
		zap.Float64("accuracy", metrics.Accuracy),
		zap.Int("samples", metrics.Samples))

	if err := risk.SaveModel(cfg.ArtifactDir, model); err != nil {
		return err
	}
	engine.Swap(model)
	return nil
}

func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET,POST,PUT,DELETE,OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type,Authorization")
		c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(204)
			return
		}
		c.Next()
	}
}
