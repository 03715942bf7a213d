package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"second-order-engine/internal/engine/config"
	enginehttp "second-order-engine/internal/engine/delivery/http"
	"second-order-engine/internal/engine/graph"
	"second-order-engine/internal/engine/repository"
	"second-order-engine/internal/engine/scheduler"
	"second-order-engine/internal/engine/service"
	"second-order-engine/internal/entity"
	"second-order-engine/pkg/logger"
	"second-order-engine/pkg/postgres"
	"second-order-engine/pkg/redis"
	"second-order-engine/pkg/telegram"

	"google.golang.org/genai"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var configPath string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Starts the second-order effects engine",
	Run:   runServe,
}

func runServe(cmd *cobra.Command, args []string) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Load configuration
	cfg, err := config.Load(configPath)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Initialize logger
	appLogger, err := logger.New(cfg.Logger.Level, cfg.Logger.Encoding)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer func() { _ = appLogger.Sync() }()

	appLogger.Info("Starting Second-Order Effects Engine", zap.String("name", cfg.App.Name))

	// Initialize database
	postgresCfg := postgres.Config{
		Host:            cfg.Database.Host,
		Port:            cfg.Database.Port,
		User:            cfg.Database.User,
		Password:        cfg.Database.Password,
		DBName:          cfg.Database.DBName,
		SSLMode:         cfg.Database.SSLMode,
		MaxIdleConns:    cfg.Database.MaxIdleConns,
		MaxOpenConns:    cfg.Database.MaxOpenConns,
		ConnMaxLifetime: cfg.Database.ConnMaxLifetime,
	}
	db, err := postgres.NewDB(postgresCfg)
	if err != nil {
		appLogger.Fatal("Failed to initialize database", zap.Error(err))
	}
	if sqlDB, err := db.DB.DB(); err == nil {
		defer sqlDB.Close()
	}

	// Initialize Redis
	redisCfg := redis.Config{
		Host:     cfg.Redis.Host,
		Port:     cfg.Redis.Port,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
		PoolSize: cfg.Redis.PoolSize,
	}
	redisClient, err := redis.NewClient(redisCfg)
	if err != nil {
		appLogger.Fatal("Failed to initialize Redis", zap.Error(err))
	}
	defer redisClient.Close()

	// Initialize repositories
	edgeRepo := repository.NewRelationshipEdgeRepository(db.DB)
	auditRepo := repository.NewPositionAuditRepository(db.DB)
	marketDataRepo := repository.NewMarketDataRepository(cfg, appLogger)
	brokerRepo := repository.NewRedisBrokerRepository(appLogger, redisClient, cfg.Redis.StreamMaxLen)

	var newsRepo repository.NewsFeedRepository
	if len(cfg.NewsFeed.FeedURLs) > 0 {
		newsRepo = repository.NewNewsFeedRepository(cfg, appLogger)
	}

	// Initialize AI collaborators
	genAiClient, err := genai.NewClient(context.Background(), &genai.ClientConfig{
		APIKey: cfg.Gemini.APIKey,
	})
	if err != nil {
		appLogger.Fatal("Failed to initialize Gemini AI client", zap.Error(err))
	}
	aiRepo, err := repository.NewGeminiAIRepository(cfg, appLogger, genAiClient)
	if err != nil {
		appLogger.Fatal("Failed to initialize Gemini AI repository", zap.Error(err))
	}

	var telegramNotifier telegram.Notifier
	if cfg.Telegram.BotToken != "" {
		telegramNotifier, err = telegram.NewClient(cfg.Telegram.BotToken, cfg.Telegram.ChatID)
		if err != nil {
			appLogger.Fatal("Failed to initialize Telegram notifier", zap.Error(err))
		}
	}

	// Build the relationship graph from config plus whatever edges are
	// stored in the database. A missing edges table only costs the stored
	// edges.
	edges := make([]entity.RelationshipEdge, 0, len(cfg.Engine.Graph))
	for _, edge := range cfg.Engine.Graph {
		edges = append(edges, entity.RelationshipEdge{
			Source:       edge.Source,
			Target:       edge.Target,
			Category:     entity.RelationshipCategory(edge.Category),
			ImpactWeight: edge.Weight,
		})
	}
	storedEdges, err := edgeRepo.GetAll(ctx)
	if err != nil {
		appLogger.Warn("Failed to load stored relationship edges, using config edges only", zap.Error(err))
	} else {
		edges = append(edges, storedEdges...)
	}

	weightOverrides := make(map[entity.RelationshipCategory]float64, len(cfg.Engine.CategoryWeights))
	for category, weight := range cfg.Engine.CategoryWeights {
		weightOverrides[entity.RelationshipCategory(category)] = weight
	}
	graphProvider := graph.NewStaticProvider(edges, weightOverrides)

	// Initialize services
	detector := service.NewDetector(cfg, appLogger)
	mapper := service.NewEffectMapper(cfg, appLogger, graphProvider, aiRepo)
	generator := service.NewSignalGenerator(cfg, appLogger)
	lifecycle := service.NewLifecycleManager(cfg, appLogger, brokerRepo, auditRepo, telegramNotifier)
	engineSvc := service.NewEngine(cfg, appLogger, detector, mapper, generator, lifecycle, marketDataRepo, aiRepo, newsRepo)

	// Start the scheduler
	sched := scheduler.NewScheduler(cfg, appLogger, engineSvc)
	if err := sched.Start(ctx); err != nil {
		appLogger.Fatal("Failed to start scheduler", zap.Error(err))
	}

	// Start the HTTP API
	e := echo.New()
	e.HideBanner = true
	e.Use(middleware.Recover())
	handler := enginehttp.NewHandler(appLogger, engineSvc, auditRepo)
	handler.RegisterRoutes(e)

	go func() {
		addr := fmt.Sprintf("%s:%d", cfg.API.Host, cfg.API.Port)
		if err := e.Start(addr); err != nil && err != http.ErrServerClosed {
			appLogger.Fatal("HTTP server failed", zap.Error(err))
		}
	}()

	appLogger.Info("Engine started. Watching primary movers...",
		zap.Int("primary_movers", len(cfg.Engine.PrimaryMovers)))

	// Wait for interrupt signal to gracefully shut down the service
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	appLogger.Info("Shutting down engine...")
	cancel()
	sched.Stop()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		appLogger.Error("HTTP server shutdown failed", zap.Error(err))
	}
	appLogger.Info("Engine stopped.")
}

func main() {
	rootCmd := &cobra.Command{Use: "engine"}

	serveCmd.Flags().StringVarP(&configPath, "config", "c", "configs/config.yaml", "Path to the configuration file")

	rootCmd.AddCommand(serveCmd)
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error executing engine CLI: %s\n", err)
		os.Exit(1)
	}
}
