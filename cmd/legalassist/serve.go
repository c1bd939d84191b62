package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Anshul-ydv/Legal-document-agentic-assistant/handler"
	"github.com/Anshul-ydv/Legal-document-agentic-assistant/middleware"
	"github.com/Anshul-ydv/Legal-document-agentic-assistant/service"
	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
)

func serveProcessorCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve-a",
		Short: "Run the document processor service",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}

			st, err := openStores(cfg)
			if err != nil {
				return err
			}
			defer st.closer()

			var objects *service.ObjectStore
			if cfg.Minio.Endpoint != "" {
				objects, err = service.NewObjectStore(&cfg.Minio)
				if err != nil {
					return err
				}
				if err := objects.EnsureBucket(context.Background()); err != nil {
					return fmt.Errorf("failed to ensure bucket: %w", err)
				}
			}

			processor := buildProcessor(cfg, st)

			pushMode := cfg.Bridge.Mode == "push"
			var intake service.AdvisorIntake
			if pushMode {
				intake = service.NewAdvisorClient(cfg.Bridge.AdvisorURL, serviceToken(cfg, "processor"))
			}
			bridge := service.NewBridge(st.documents, st.audit, st.transfers, intake, cfg.Bridge)

			router := newRouter()
			authHandler := handler.NewAuthHandler(cfg)
			procHandler := handler.NewProcessorHandler(processor, bridge, st.audit, objects, pushMode)

			router.GET("/health", procHandler.Health)
			api := router.Group("/api")
			api.POST("/auth/login", authHandler.Login)

			protected := api.Group("/v1")
			protected.Use(middleware.AuthMiddleware(&cfg.Auth))
			{
				protected.GET("/auth/me", authHandler.GetCurrentUser)
				protected.POST("/documents", procHandler.Upload)
				protected.POST("/documents/:id/process", procHandler.Process)
				protected.GET("/documents/:id", procHandler.Get)
				protected.GET("/documents/:id/status", procHandler.GetStatus)
				protected.GET("/documents/:id/audit", procHandler.GetAudit)
				protected.GET("/transfers/pending", procHandler.PollTransfers)
				protected.POST("/transfers/:id/ack", procHandler.AckTransfer)
				protected.POST("/transfers/:id/requeue", procHandler.RequeueTransfer)
			}

			return runServer(router, cfg.Server.ProcessorPort, nil)
		},
	}
}

func serveAdvisorCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve-b",
		Short: "Run the compliance advisor service",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}

			st, err := openStores(cfg)
			if err != nil {
				return err
			}
			defer st.closer()

			advisor := buildAdvisor(cfg, st)

			router := newRouter()
			authHandler := handler.NewAuthHandler(cfg)
			advHandler := handler.NewAdvisorHandler(advisor)

			router.GET("/health", advHandler.Health)
			api := router.Group("/api")
			api.POST("/auth/login", authHandler.Login)

			protected := api.Group("/v1")
			protected.Use(middleware.AuthMiddleware(&cfg.Auth))
			{
				protected.GET("/auth/me", authHandler.GetCurrentUser)
				protected.POST("/suggestions/generate", advHandler.GenerateSuggestions)
				protected.GET("/reports/:id", advHandler.GetReport)
			}

			// In pull mode the advisor claims work from the processor
			// instead of waiting for pushes.
			var startWorker func(ctx context.Context)
			if cfg.Bridge.Mode == "pull" {
				client := service.NewProcessorClient(cfg.Bridge.ProcessorURL, serviceToken(cfg, "advisor"))
				worker := service.NewPullWorker(client, advisor, cfg.Bridge)
				startWorker = func(ctx context.Context) { go worker.Run(ctx) }
			}

			return runServer(router, cfg.Server.AdvisorPort, startWorker)
		},
	}
}

func newRouter() *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(middleware.RequestID())
	router.Use(middleware.Recovery())
	router.Use(middleware.RequestLogger())
	router.Use(middleware.RateLimit(100, time.Minute))
	return router
}

func runServer(router *gin.Engine, port int, startWorker func(ctx context.Context)) error {
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", port),
		Handler:      router,
		ReadTimeout:  60 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	workerCtx, stopWorker := context.WithCancel(context.Background())
	defer stopWorker()
	if startWorker != nil {
		startWorker(workerCtx)
	}

	go func() {
		slog.Info("server starting", "port", port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("failed to start server", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	slog.Info("shutting down server...")
	stopWorker()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}

	slog.Info("server exited gracefully")
	return nil
}
