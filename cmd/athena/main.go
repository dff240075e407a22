package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"athena/internal/assistant"
	"athena/internal/config"
	"athena/internal/embedding"
	"athena/internal/extractor"
	"athena/internal/llm"
	"athena/internal/server"
	"athena/internal/vectordb"
	"athena/internal/vectorstore"
	"athena/pkg/logger"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to the YAML configuration file")
	flag.Parse()

	// .env is optional; environment variables win either way.
	_ = godotenv.Load()

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger.Init(logger.ParseLevel(cfg.Logger.Level))
	appLogger := logger.New(cfg.App.Name)
	appLogger.Info("Starting research assistant...")

	ctx := context.Background()

	store, err := vectorstore.New(ctx, cfg.VectorStore, logger.New("vectorstore"))
	if err != nil {
		log.Fatalf("Failed to create vector store: %v", err)
	}

	embedder, err := embedding.NewModel(cfg.Embedding)
	if err != nil {
		log.Fatalf("Failed to create embedding client: %v", err)
	}

	llmClient, err := llm.NewClient(cfg.LLM)
	if err != nil {
		log.Fatalf("Failed to create LLM client: %v", err)
	}

	db, err := vectordb.New(ctx, store, embedder, cfg.Documents, logger.New("vectordb"))
	if err != nil {
		log.Fatalf("Failed to create vector database: %v", err)
	}

	processor := extractor.NewProcessor(cfg.Documents.MaxFileSizeMB, logger.New("extractor"))
	ragAssistant := assistant.New(cfg, processor, db, llmClient, logger.New("assistant"))

	if cfg.App.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := server.SetupRouter(server.NewHandler(ragAssistant, logger.New("server")))

	srv := &http.Server{
		Addr:    cfg.Server.Address,
		Handler: router,
	}
	go func() {
		appLogger.Infof("HTTP server listening at %s", cfg.Server.Address)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("Failed to serve HTTP: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	appLogger.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		appLogger.WithError(err).Error("forced shutdown")
	}
	if closer, ok := store.(interface{ Close() }); ok {
		closer.Close()
	}
	appLogger.Info("Server gracefully stopped")
}
