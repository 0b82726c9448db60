package main

import (
	"context"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/nekogravitycat/booking-sync/internal/app"
	"github.com/nekogravitycat/booking-sync/internal/config"
	"github.com/nekogravitycat/booking-sync/internal/db"
)

func main() {
	// For receiving Ctrl+C / SIGTERM
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Load config
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	// Log to stderr, and also to a rotating file when LOG_FILE is set
	var logOutput io.Writer = os.Stderr
	if cfg.LogFile != "" {
		logFile := &lumberjack.Logger{
			Filename:   cfg.LogFile,
			MaxSize:    50, // megabytes
			MaxBackups: 5,
			MaxAge:     28, // days
			Compress:   true,
		}
		defer logFile.Close()
		logOutput = io.MultiWriter(os.Stderr, logFile)
	}
	log.SetOutput(logOutput)
	gin.DefaultWriter = logOutput
	gin.DefaultErrorWriter = logOutput
	if cfg.IsProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	// Connect DB
	var pool *pgxpool.Pool
	if cfg.RemoteBackend == config.BackendPostgres {
		pool, err = db.NewPool(ctx, cfg.DBDSN, cfg.DBMaxConns)
		if err != nil {
			log.Fatalf("failed to connect to db: %v", err)
		}
		defer pool.Close()
	} else {
		log.Printf("using in-memory remote store; data is lost on exit")
	}

	container, err := app.NewContainer(app.Config{
		IsProduction:       cfg.IsProduction,
		ProdOrigins:        cfg.ProdOrigins,
		DBPool:             pool,
		JWTSecret:          cfg.JWTSecret,
		JWTTTL:             cfg.JWTAccessTokenTTL,
		BcryptCost:         cfg.BcryptCost,
		NotificationBuffer: cfg.NotificationBuffer,
		RefetchCron:        cfg.RefetchCron,
		SessionIdleTTL:     cfg.SessionIdleTTL,
		LogOutput:          logOutput,
	})
	if err != nil {
		log.Fatalf("failed to initialize app: %v", err)
	}
	container.Jobs.Start()

	// Use http.Server for graceful shutdown
	server := &http.Server{
		Addr:    cfg.HTTPAddr,
		Handler: container.Router,
	}

	// Run server in separate goroutine
	go func() {
		log.Printf("server running on %s", cfg.HTTPAddr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server error: %v", err)
		}
	}()

	// Wait for Ctrl+C
	<-ctx.Done()
	log.Println("shutdown signal received")

	// Create a shutdown context with timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	// Shutdown HTTP server
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("server forced to shutdown: %v", err)
	}

	container.Jobs.Stop(shutdownCtx)
	log.Printf("closed %d sessions", container.Sessions.CloseAll())

	log.Println("server exited gracefully")
}
