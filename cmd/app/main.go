package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"time"

	"lmx_presale/internal/api"
	"lmx_presale/internal/cache"
	"lmx_presale/internal/feed"
	"lmx_presale/internal/repository"
	"lmx_presale/internal/service"
	"lmx_presale/internal/worker"
	"lmx_presale/pkg/auth"
	"lmx_presale/pkg/chainrpc"
	"lmx_presale/pkg/logger"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

func main() {
	cfg, err := LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	err = logger.Initialize(cfg.LogLevel)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logger.Sync()
	zapLogger := logger.Logger()

	repo, err := repository.New(cfg.Database)
	if err != nil {
		zapLogger.Fatal("Failed to initialize repository", zap.Error(err))
	}
	defer repo.Close()

	var statsCache service.StatsCache
	if cfg.Redis.Addr != "" {
		redisCache, err := cache.New(cfg.Redis)
		if err != nil {
			zapLogger.Fatal("Failed to initialize redis cache", zap.Error(err))
		}
		defer redisCache.Close()
		statsCache = redisCache
	}

	verifier := chainrpc.NewClient(cfg.ChainRPC)

	codeGenerator := service.NewReferralCodeGenerator(repo)
	referralService := service.NewReferralService(repo, codeGenerator)
	bonusService := service.NewBonusService(repo, decimal.NewFromInt(cfg.Referral.BonusPercent))
	minPayment := decimal.Zero
	if cfg.Presale.MinPayment != "" {
		minPayment, err = decimal.NewFromString(cfg.Presale.MinPayment)
		if err != nil {
			zapLogger.Fatal("Invalid presale.minPayment", zap.Error(err))
		}
	}
	purchaseService := service.NewPurchaseService(repo, verifier, bonusService, minPayment)
	reportingService := service.NewReportingService(repo, statsCache)

	serviceAuth := auth.NewServiceAuth(cfg.Auth.ServiceTokenSecret)

	sweeper := worker.NewBonusSweeper(cfg.Sweeper, repo, bonusService)
	if err := sweeper.Start(); err != nil {
		zapLogger.Fatal("Failed to start bonus sweeper", zap.Error(err))
	}
	defer sweeper.Stop()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if cfg.Feed.URL != "" {
		listener := feed.NewListener(cfg.Feed.URL, purchaseService)
		go listener.Run(ctx)
	}

	router := gin.New()
	router.Use(gin.Recovery())

	config := cors.DefaultConfig()
	config.AllowAllOrigins = true
	config.AllowMethods = []string{
		http.MethodHead,
		http.MethodGet,
		http.MethodPost,
		http.MethodPut,
		http.MethodPatch,
		http.MethodDelete,
	}
	config.AllowHeaders = []string{"*"}
	config.AllowCredentials = true
	config.MaxAge = 12 * time.Hour

	router.Use(cors.New(config))

	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	a := router.Group("/api/v1")
	api.NewReferralRoutes(a, referralService, reportingService)
	api.NewPurchaseRoutes(a, purchaseService, bonusService, serviceAuth)

	addr := fmt.Sprintf("%s:%s", cfg.Server.Host, cfg.Server.Port)
	zapLogger.Info("Starting server", zap.String("addr", addr))
	if err := router.Run(addr); err != nil {
		zapLogger.Fatal("Failed to start server", zap.Error(err))
	}
}
