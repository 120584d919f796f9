package main

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"github.com/xxxsen/common/logger"
	"github.com/xxxsen/common/logutil"
	"github.com/xxxsen/common/webapi"
	"go.uber.org/zap"

	"github.com/creditchek/devbot/internal/ai"
	"github.com/creditchek/devbot/internal/config"
	"github.com/creditchek/devbot/internal/corpus"
	"github.com/creditchek/devbot/internal/crawler"
	"github.com/creditchek/devbot/internal/db"
	"github.com/creditchek/devbot/internal/handler"
	"github.com/creditchek/devbot/internal/job"
	"github.com/creditchek/devbot/internal/middleware"
	"github.com/creditchek/devbot/internal/rag"
	"github.com/creditchek/devbot/internal/repo"
	"github.com/creditchek/devbot/internal/schedule"
	"github.com/creditchek/devbot/internal/service"
)

func main() {
	var configPath string

	rootCmd := &cobra.Command{
		Use:   "devbot",
		Short: "devbot backend server",
	}

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "run devbot server",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(configPath)
			if err != nil {
				return err
			}
			database, err := openDatabase(cfg)
			if err != nil {
				return err
			}
			return runServer(cfg, database)
		},
	}

	crawlCmd := &cobra.Command{
		Use:   "crawl",
		Short: "crawl the configured seed sites into the corpus store",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(configPath)
			if err != nil {
				return err
			}
			return runCrawl(cmd.Context(), cfg)
		},
	}

	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "path to config.json")
	rootCmd.AddCommand(runCmd, crawlCmd)

	if err := rootCmd.Execute(); err != nil {
		logutil.GetLogger(context.Background()).Fatal("startup error", zap.Error(err))
	}
}

func loadConfig(configPath string) (*config.Config, error) {
	if configPath == "" {
		return nil, fmt.Errorf("--config is required")
	}
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	logger.Init(
		cfg.LogConfig.File,
		cfg.LogConfig.Level,
		int(cfg.LogConfig.FileCount),
		int(cfg.LogConfig.FileSize),
		int(cfg.LogConfig.KeepDays),
		cfg.LogConfig.Console,
	)
	logutil.GetLogger(context.Background()).Info("config loaded", zap.String("config", configPath))
	return cfg, nil
}

func openDatabase(cfg *config.Config) (*sql.DB, error) {
	database, err := db.Open(cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	if err := db.ApplyMigrations(database); err != nil {
		return nil, fmt.Errorf("migrations: %w", err)
	}
	return database, nil
}

func runServer(cfg *config.Config, database *sql.DB) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	logutil.GetLogger(ctx).Info(
		"starting server",
		zap.Int("port", cfg.Port),
		zap.String("ai_provider", cfg.AI.Provider),
		zap.String("namespace", cfg.Index.Namespace),
	)

	userRepo := repo.NewUserRepo(database)
	chatRepo := repo.NewChatRepo(database)
	chunkRepo := repo.NewChunkRepo(database)
	cacheRepo := repo.NewEmbeddingCacheRepo(database)

	providerArgs := cfg.AI.Data
	if providerArgs == nil {
		providerArgs = cfg.AI
	}
	aiProvider, err := ai.NewProvider(cfg.AI.Provider, providerArgs)
	if err != nil {
		return fmt.Errorf("init ai provider: %w", err)
	}
	generator := ai.NewGenerator(aiProvider, cfg.AI.Model, ai.GenOptions{
		Temperature:     cfg.AI.Temperature,
		MaxOutputTokens: cfg.AI.MaxOutputTokens,
		TopP:            cfg.AI.TopP,
	})
	embedder := ai.NewEmbedder(aiProvider, cfg.AI.EmbedModel)

	// The corpus store is only needed for the initial build; a deployment
	// attaching to an already populated index can omit it.
	var source rag.DocumentSource
	if cfg.Corpus.Type != "" {
		store, err := corpus.New(cfg.Corpus)
		if err != nil {
			return fmt.Errorf("init corpus store: %w", err)
		}
		source = corpus.NewLoader(store)
	}

	queryTimeout := time.Duration(cfg.AI.TimeoutSeconds) * time.Second
	manager := rag.NewManager(chunkRepo, embedder, generator, source, cacheRepo, cfg.Index, queryTimeout)
	index, err := manager.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("prepare index: %w", err)
	}

	authService := service.NewAuthService(userRepo, []byte(cfg.JWTSecret), time.Hour*time.Duration(cfg.JWTTTLHours))
	chatService := service.NewChatService(chatRepo, index, cfg.Chat)

	deps := handler.RouterDeps{
		Auth:          handler.NewAuthHandler(authService),
		Chat:          handler.NewChatHandler(chatService),
		JWTSecret:     []byte(cfg.JWTSecret),
		ChatRateLimit: time.Duration(cfg.Chat.RateLimitSeconds) * time.Second,
	}

	engine, err := webapi.NewEngine(
		"/api/v1",
		fmt.Sprintf("0.0.0.0:%d", cfg.Port),
		webapi.WithRegister(func(group *gin.RouterGroup) {
			handler.RegisterRoutes(group, deps)
		}),
		webapi.WithExtraMiddlewares(
			middleware.CORS(cfg.CORSOrigins),
			gzip.Gzip(gzip.DefaultCompression),
		),
	)
	if err != nil {
		return fmt.Errorf("init web engine: %w", err)
	}

	scheduler := schedule.NewCronScheduler()
	cleanup := job.NewEmbeddingCacheCleanupJob(cacheRepo, cfg.Schedule.CacheKeepDays)
	if err := scheduler.AddJob(cleanup, cfg.Schedule.CacheCleanupSpec); err != nil {
		return fmt.Errorf("schedule cleanup job: %w", err)
	}
	scheduler.Start(ctx)
	defer scheduler.Stop()

	logutil.GetLogger(ctx).Info("http server listening", zap.String("addr", fmt.Sprintf("0.0.0.0:%d", cfg.Port)))
	go func() {
		if err := engine.Run(); err != nil && err != http.ErrServerClosed {
			logutil.GetLogger(context.Background()).Error("server error", zap.Error(err))
		}
	}()

	<-ctx.Done()
	logutil.GetLogger(context.Background()).Info("server stopping...")
	return nil
}

func runCrawl(ctx context.Context, cfg *config.Config) error {
	if len(cfg.Crawler.Seeds) == 0 {
		return fmt.Errorf("crawler.seeds is required")
	}
	if cfg.Corpus.Type == "" {
		return fmt.Errorf("corpus.type is required for crawling")
	}
	store, err := corpus.New(cfg.Corpus)
	if err != nil {
		return fmt.Errorf("init corpus store: %w", err)
	}
	stopCtx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()
	c := crawler.New(store, cfg.Crawler.MaxPages, time.Duration(cfg.Crawler.TimeoutSeconds)*time.Second)
	saved, err := c.Run(stopCtx, cfg.Crawler.Seeds)
	if err != nil {
		return err
	}
	logutil.GetLogger(ctx).Info("crawl saved pages", zap.Int("pages", saved))
	return nil
}
