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

	"github.com/xxxsen/cindyai/internal/ai"
	"github.com/xxxsen/cindyai/internal/config"
	"github.com/xxxsen/cindyai/internal/db"
	"github.com/xxxsen/cindyai/internal/filestore"
	"github.com/xxxsen/cindyai/internal/handler"
	"github.com/xxxsen/cindyai/internal/job"
	"github.com/xxxsen/cindyai/internal/middleware"
	"github.com/xxxsen/cindyai/internal/repo"
	"github.com/xxxsen/cindyai/internal/schedule"
	"github.com/xxxsen/cindyai/internal/service"
	"github.com/xxxsen/cindyai/internal/youtube"
)

func main() {
	var configPath string

	rootCmd := &cobra.Command{
		Use:   "cindyai",
		Short: "cindyai backend server",
	}

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "run cindyai server",
		RunE: func(cmd *cobra.Command, args []string) error {
			if configPath == "" {
				return fmt.Errorf("--config is required")
			}
			cfg, err := config.Load(configPath)
			if err != nil {
				return err
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

			database, err := db.Open(cfg.Database)
			if err != nil {
				return fmt.Errorf("open db: %w", err)
			}
			if err := db.ApplyMigrations(database); err != nil {
				return fmt.Errorf("migrations: %w", err)
			}
			return runServer(cfg, database)
		},
	}

	runCmd.Flags().StringVar(&configPath, "config", "", "path to config.json")
	rootCmd.AddCommand(runCmd)

	if err := rootCmd.Execute(); err != nil {
		logutil.GetLogger(context.Background()).Fatal("startup error", zap.Error(err))
	}
}

func runServer(cfg *config.Config, database *sql.DB) error {
	logutil.GetLogger(context.Background()).Info(
		"starting server",
		zap.Int("port", cfg.Port),
		zap.String("ai_provider", cfg.AI.Provider),
		zap.String("archive", cfg.Archive.Type),
	)

	userRepo := repo.NewUserRepo(database)
	contentRepo := repo.NewContentRepo(database)
	chatRepo := repo.NewChatRepo(database)
	messageRepo := repo.NewMessageRepo(database)
	chunkRepo := repo.NewChunkRepo(database)

	aiProvider, err := ai.NewProvider(cfg.AI.Provider, cfg.AI.Data)
	if err != nil {
		return fmt.Errorf("init ai provider: %w", err)
	}
	manager := ai.NewManager(aiProvider, ai.ManagerConfig{
		Model:         cfg.AI.Model,
		EmbedModel:    cfg.AI.EmbedModel,
		Timeout:       cfg.AI.Timeout,
		MaxInputChars: cfg.AI.MaxInputChars,
	})
	splitter := ai.NewSplitter(cfg.Retrieval.ChunkSize, cfg.Retrieval.ChunkOverlap)

	archive, err := filestore.New(cfg.Archive)
	if err != nil {
		return fmt.Errorf("init archive store: %w", err)
	}
	extractor := youtube.NewExtractor(youtube.Config{
		Languages: cfg.YouTube.Languages,
		Formats:   cfg.YouTube.Formats,
		BinPath:   cfg.YouTube.YTDLPPath,
		Timeout:   time.Duration(cfg.YouTube.TimeoutSec) * time.Second,
	})

	authService := service.NewAuthService(userRepo, []byte(cfg.JWTSecret), time.Hour*time.Duration(cfg.JWTTTLHours))
	contentService := service.NewContentService(contentRepo, chunkRepo, extractor, archive)
	retrievalService := service.NewRetrievalService(chunkRepo, contentRepo, manager, splitter, cfg.Retrieval.TopK)
	chatService := service.NewChatService(chatRepo, messageRepo, contentRepo, retrievalService, manager, cfg.Retrieval.TopK)

	deps := handler.RouterDeps{
		Auth:          handler.NewAuthHandler(authService),
		Contents:      handler.NewContentHandler(contentService),
		Chats:         handler.NewChatHandler(chatService),
		JWTSecret:     []byte(cfg.JWTSecret),
		AuthRateLimit: time.Second,
	}

	scheduler := schedule.NewCronScheduler()
	if err := scheduler.AddJob(job.NewIndexSyncJob(chunkRepo, retrievalService, cfg.Jobs.IndexSyncBatch), cfg.Jobs.IndexSyncSpec); err != nil {
		return fmt.Errorf("schedule index sync: %w", err)
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
	logutil.GetLogger(context.Background()).Info("http server listening", zap.String("addr", fmt.Sprintf("0.0.0.0:%d", cfg.Port)))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	scheduler.Start(ctx)
	defer scheduler.Stop()

	go func() {
		if err := engine.Run(); err != nil && err != http.ErrServerClosed {
			logutil.GetLogger(context.Background()).Error("server error", zap.Error(err))
		}
	}()

	<-ctx.Done()
	logutil.GetLogger(context.Background()).Info("server stopping...")
	return nil
}
