package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"dmeflow/internal/config"
	"dmeflow/internal/email/noop"
	"dmeflow/internal/email/ses"
	"dmeflow/internal/extraction"
	"dmeflow/internal/handler"
	"dmeflow/internal/llm"
	_ "dmeflow/internal/llm/providers"
	"dmeflow/internal/port"
	"dmeflow/internal/repository/postgres"
	"dmeflow/internal/router"
	"dmeflow/internal/service"
	s3storage "dmeflow/internal/storage/s3"
	"dmeflow/internal/submit"
	"dmeflow/internal/validator"
)

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	db, err := postgres.NewDB(&cfg.DB)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer db.Close()

	// Repositories
	noteRepo := postgres.NewNoteRepo(db)
	orderRepo := postgres.NewOrderRepo(db)
	userRepo := postgres.NewUserRepo(db)

	// Note archive
	archive, err := s3storage.NewNoteArchive(&cfg.S3)
	if err != nil {
		return fmt.Errorf("failed to initialize note archive: %w", err)
	}

	// Model client; nil means deterministic-only extraction
	llmClient, err := llm.NewClientFromConfig(&cfg.LLM)
	if err != nil {
		return fmt.Errorf("failed to initialize model client: %w", err)
	}
	if llmClient == nil {
		log.Printf("no model provider configured, extraction degrades to pattern matching")
	}

	// Extraction chain
	engine := validator.NewEngine()
	orchestrator := extraction.NewOrchestrator(cfg.Extraction, llmClient, engine)

	// Review alerts
	var emailSender port.EmailSender
	if cfg.Email.Provider == "ses" {
		emailSender, err = ses.NewSESSender(cfg.Email.Region, cfg.Email.FromAddress,
			cfg.Email.FromName, cfg.Email.ReviewList, cfg.Email.ConsoleURL)
		if err != nil {
			return fmt.Errorf("failed to initialize SES sender: %w", err)
		}
	} else {
		emailSender = noop.NewNoopSender(cfg.Email.ConsoleURL)
	}

	// Services
	authSvc := service.NewAuthService(userRepo, cfg.JWT)
	noteSvc := service.NewNoteService(noteRepo, orderRepo, archive, orchestrator, emailSender, cfg.S3, cfg.Extraction)
	orderSvc := service.NewOrderService(orderRepo, submit.NewClient(cfg.OrderAPI))
	userSvc := service.NewUserService(userRepo)

	// Handlers
	authH := handler.NewAuthHandler(authSvc)
	noteH := handler.NewNoteHandler(noteSvc, orderSvc)
	orderH := handler.NewOrderHandler(orderSvc)
	extractH := handler.NewExtractHandler(orchestrator)
	userH := handler.NewUserHandler(userSvc)
	healthH := handler.NewHealthHandler(db)

	r := router.Setup(cfg.CORS, authSvc, authH, noteH, orderH, extractH, userH, healthH)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Extraction queue worker
	worker := service.NewExtractQueueWorker(noteRepo, noteSvc, service.ExtractQueueConfig{
		PollInterval: time.Duration(cfg.Queue.PollIntervalSecs) * time.Second,
		MaxRetries:   cfg.Queue.MaxRetries,
		Concurrency:  cfg.Queue.Concurrency,
	})
	workerDone := make(chan struct{})
	go func() {
		defer close(workerDone)
		worker.Start(ctx)
	}()

	srv := &http.Server{
		Addr:         cfg.Server.Port,
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	serverErr := make(chan error, 1)
	go func() {
		log.Printf("server starting on %s", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	select {
	case err := <-serverErr:
		stop()
		<-workerDone
		return fmt.Errorf("server failed: %w", err)
	case <-ctx.Done():
	}

	log.Printf("shutdown signal received")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("server shutdown: %v", err)
	}
	<-workerDone
	log.Printf("shutdown complete")
	return nil
}
