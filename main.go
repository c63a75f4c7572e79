package main

import (
	"context"
	"net/http"
	"time"

	"github.com/lakkhi/walletd/src/chains"
	"github.com/lakkhi/walletd/src/config"
	"github.com/lakkhi/walletd/src/logger"

	donationHD "github.com/lakkhi/walletd/src/donation/delivery/http"
	donationdomain "github.com/lakkhi/walletd/src/donation/domain"
	donationRepo "github.com/lakkhi/walletd/src/donation/repository"
	donation "github.com/lakkhi/walletd/src/donation/usecase"
	pricingHD "github.com/lakkhi/walletd/src/pricing/delivery/http"
	pricingdomain "github.com/lakkhi/walletd/src/pricing/domain"
	txflowHD "github.com/lakkhi/walletd/src/txflow/delivery/http"
	txdomain "github.com/lakkhi/walletd/src/txflow/domain"
	txflow "github.com/lakkhi/walletd/src/txflow/usecase"
	walletHD "github.com/lakkhi/walletd/src/wallet/delivery/http"
	walletRepo "github.com/lakkhi/walletd/src/wallet/repository"
	wallet "github.com/lakkhi/walletd/src/wallet/usecase"

	"github.com/lakkhi/walletd/src/Infrastructure/backendapi"
	"github.com/lakkhi/walletd/src/Infrastructure/dexscreener"
	"github.com/lakkhi/walletd/src/Infrastructure/ethereum"
	"github.com/lakkhi/walletd/src/Infrastructure/walletbridge"
	"github.com/lakkhi/walletd/src/pricing/adapter/backend"
	"github.com/lakkhi/walletd/src/pricing/adapter/dex"
	"github.com/lakkhi/walletd/src/pricing/adapter/market"
	pricing "github.com/lakkhi/walletd/src/pricing/usecase"

	_ "github.com/lakkhi/walletd/docs" // Swagger docs
	_ "github.com/lib/pq"

	"github.com/gin-gonic/gin"
	"github.com/robfig/cron/v3"
	"github.com/shopspring/decimal"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormLogger "gorm.io/gorm/logger"
)

func main() {
	cfg := config.LoadFromEnv()
	logg := logger.New(cfg.Env)

	// --- Database connection ---
	logg.Infof("Connecting to database: %s", cfg.DatabaseURL)

	gormDB, err := gorm.Open(postgres.Open(cfg.DatabaseURL), &gorm.Config{
		Logger: gormLogger.Default.LogMode(gormLogger.Warn),
	})
	if err != nil {
		logg.Fatalf("Failed to connect to database: %v", err)
	}

	sqlDB, err := gormDB.DB()
	if err != nil {
		logg.Fatalf("Failed to get generic DB handle: %v", err)
	}
	defer sqlDB.Close()

	// Connection pool tuning
	sqlDB.SetMaxOpenConns(20)
	sqlDB.SetMaxIdleConns(5)
	sqlDB.SetConnMaxLifetime(10 * time.Minute)

	// --- Chains and RPC clients ---
	registry := chains.NewRegistry()
	chainPool := ethereum.NewPool(registry, logg)
	defer chainPool.Close()

	// --- Wallet session ---
	detector := walletbridge.NewDetector(
		cfg.Bridge.URL,
		cfg.Bridge.DetectFast,
		cfg.Bridge.DetectProbe,
		cfg.Bridge.RequestTimeout,
		logg.Zerolog(),
	)
	accountRepo := walletRepo.NewAccountRepo(gormDB, logg)
	session := wallet.NewService(detector, accountRepo, registry, logg, cfg.Bridge.ConnectTimeout)
	session.Initialize(context.Background())
	switcher := wallet.NewSwitcher(session, registry, logg)

	// --- Pricing sources, in fallback order ---
	backendClient, err := backendapi.NewClient(cfg.Backend.BaseURL,
		backendapi.WithAuthToken(cfg.Backend.Token),
		backendapi.WithLogger(logg.Zerolog()),
	)
	if err != nil {
		logg.Fatalf("backend client: %v", err)
	}
	dexscreenerClient, err := dexscreener.NewClient(cfg.Dexscreener.BaseURL,
		dexscreener.WithLogger(logg.Zerolog()),
	)
	if err != nil {
		logg.Fatalf("dexscreener client: %v", err)
	}

	dexSource := dex.NewSource(dex.PoolFunc(func(ctx context.Context, chainID uint64) (dex.ChainClient, error) {
		return chainPool.ForChain(ctx, chainID)
	}), logg)
	placeholder, err := decimal.NewFromString(cfg.Pricing.PlaceholderUSD)
	if err != nil {
		logg.Fatalf("invalid placeholder price %q: %v", cfg.Pricing.PlaceholderUSD, err)
	}
	priceSvc := pricing.NewService(
		[]pricingdomain.Source{
			dexSource,
			backend.NewSource(backendClient),
			market.NewSource(dexscreenerClient),
		},
		cfg.Pricing.SourceTimeout,
		placeholder,
		logg,
	)

	// --- Platform token price refresh ---
	scheduler := cron.New(cron.WithSeconds())
	if _, err := scheduler.AddFunc(cfg.Pricing.RefreshSpec, func() {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		priceSvc.RefreshPlatformPrice(ctx, cfg.Pricing.PlatformToken, cfg.Pricing.PlatformChain)
	}); err != nil {
		logg.Fatalf("price refresh schedule: %v", err)
	}
	scheduler.Start()
	defer scheduler.Stop()

	// --- Transaction orchestration ---
	txSvc := txflow.NewService(session, txdomain.PoolFunc(func(ctx context.Context, chainID uint64) (txdomain.ChainBackend, error) {
		return chainPool.ForChain(ctx, chainID)
	}), backendClient, txflow.Config{
		PollInterval:   cfg.Tx.PollInterval,
		PollAttempts:   cfg.Tx.PollAttempts,
		DeployGasLimit: cfg.Tx.DeployGasLimit,
		GasMarginPct:   uint64(cfg.Tx.StakeGasMargin),
	}, logg)

	// --- Donation flow ---
	intentRepo := donationRepo.NewIntentRepo(gormDB, logg)
	donationSvc, err := donation.NewService(session, donationdomain.PoolFunc(func(ctx context.Context, chainID uint64) (donationdomain.TokenReader, error) {
		return chainPool.ForChain(ctx, chainID)
	}), txSvc, priceSvc, intentRepo, donation.Config{ApproveGasLimit: cfg.Tx.ApproveGasLimit}, logg)
	if err != nil {
		logg.Fatalf("donation service: %v", err)
	}

	// --- Router ---
	r := gin.New()

	// Core middleware
	r.Use(gin.Recovery())
	r.Use(func(c *gin.Context) {
		start := time.Now()
		c.Next()
		logg.Infof("%s %s status:%d duration:%s",
			c.Request.Method,
			c.Request.URL.Path,
			c.Writer.Status(),
			time.Since(start),
		)
	})

	// --- Healthcheck ---
	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	// --- Swagger ---
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// --- API routes ---
	walletHD.NewHandler(session, switcher, logg).RegisterRoutes(r)
	pricingHD.NewHandler(priceSvc, logg).RegisterRoutes(r)
	txflowHD.NewHandler(txSvc, logg).RegisterRoutes(r)
	donationHD.NewHandler(donationSvc, logg).RegisterRoutes(r)

	// --- Start server ---
	logg.Infof("Starting walletd on %s (env=%s)", cfg.ListenAddr, cfg.Env)
	logg.Infof("Swagger UI available at http://localhost%s/swagger/index.html", cfg.ListenAddr)

	srv := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           r,
		ReadTimeout:       5 * time.Second,
		WriteTimeout:      0, // SSE and long polls manage their own lifetimes
		IdleTimeout:       60 * time.Second,
		ReadHeaderTimeout: 2 * time.Second,
	}

	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logg.Fatalf("Server terminated unexpectedly: %v", err)
	}
}
