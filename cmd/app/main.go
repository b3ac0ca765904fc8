package main

import (
	"context"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	goredis "github.com/redis/go-redis/v9"
	swaggerfiles "github.com/swaggo/files"
	ginswagger "github.com/swaggo/gin-swagger"

	_ "ad-escrow-backend/docs"
	"ad-escrow-backend/internal/common/config"
	"ad-escrow-backend/internal/common/logger"
	"ad-escrow-backend/internal/common/middleware"
	escrowhttp "ad-escrow-backend/internal/features/escrow/delivery/http"
	"ad-escrow-backend/internal/features/escrow/keys"
	"ad-escrow-backend/internal/features/escrow/registry"
	escrowservice "ad-escrow-backend/internal/features/escrow/service"
	"ad-escrow-backend/internal/features/escrow/signature"
	redisplatform "ad-escrow-backend/internal/platform/redis"
	"ad-escrow-backend/internal/platform/telegram"
	tonplatform "ad-escrow-backend/internal/platform/ton"
)

// @title           TEE Escrow Service API
// @version         1.0
// @description     Autonomous escrow authority for Telegram paid-post deals settled in TON. Derives per-deal custody wallets, verifies TonConnect deal signatures, and settles deposits against on-chain and channel state.

// @host      localhost:8080
// @BasePath  /api/v1

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		// Logger not up yet; the config error names the missing variable.
		panic(err)
	}

	logger.Init("ad-escrow", cfg.Debug)

	// Missing or malformed mnemonic is the one fatal configuration error:
	// without the key tree the service cannot do anything at all.
	deriver, err := keys.NewDeriver(cfg.TON.Mnemonic)
	if err != nil {
		logger.Fatal().Err(err).Msg("Escrow mnemonic rejected")
	}

	var (
		chain          escrowservice.Chain
		registryClient escrowservice.Registry
		content        escrowservice.ContentVerifier
	)

	if cfg.ChainConfigured() {
		tonClient, err := tonplatform.Connect(ctx, cfg.LiteserverConfigURL(), tonplatform.DefaultRetryPolicy())
		if err != nil {
			logger.Fatal().Err(err).Msg("Liteserver connection failed")
		}

		var cache *goredis.Client
		if cfg.Redis.Addr != "" {
			cache, err = redisplatform.Open(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
			if err != nil {
				logger.Warn().Err(err).Msg("Redis unavailable, deal cache disabled")
				cache = nil
			}
		}

		reg, err := registry.New(tonClient, cfg.TON.RegistryAddress, cache)
		if err != nil {
			logger.Fatal().Err(err).Msg("Registry address rejected")
		}
		chain = tonClient
		registryClient = reg
	} else {
		logger.Warn().Msg("DEAL_REGISTRY_ADDRESS not set, running in wallet-derivation-only mode")
	}

	if cfg.Telegram.BotToken != "" {
		content = telegram.NewClient(cfg.Telegram.BotToken)
	} else {
		logger.Warn().Msg("BOT_TOKEN not set, content verification disabled")
	}

	svc := escrowservice.NewEscrowService(
		deriver,
		signature.NewVerifier(),
		chain,
		registryClient,
		content,
		cfg.Telegram.VerificationChatID,
	)

	if !cfg.Debug {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.Recovery(), middleware.RequestID(), middleware.Logger())
	router.Use(cors.New(cors.Config{
		AllowOrigins:     []string{cfg.Server.Origin},
		AllowMethods:     []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	router.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	router.GET("/swagger/*any", ginswagger.WrapHandler(swaggerfiles.Handler))

	api := router.Group("/api/v1")
	escrowhttp.NewHandler(svc).RegisterRoutes(api)

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Server.Port),
		Handler: router,
	}

	go func() {
		logger.Info().Int("port", cfg.Server.Port).Msg("HTTP server listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("HTTP server failed")
		}
	}()

	<-ctx.Done()
	stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("Server shutdown failed")
	}
	logger.Info().Msg("Server stopped")
}
