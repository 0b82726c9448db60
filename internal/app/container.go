package app

import (
	"fmt"
	"io"
	"log"
	"os"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/nekogravitycat/booking-sync/internal/api"
	"github.com/nekogravitycat/booking-sync/internal/auth"
	"github.com/nekogravitycat/booking-sync/internal/booking"
	"github.com/nekogravitycat/booking-sync/internal/event"
	"github.com/nekogravitycat/booking-sync/internal/jobs"
	"github.com/nekogravitycat/booking-sync/internal/owner"
	"github.com/nekogravitycat/booking-sync/internal/remote/memory"
	"github.com/nekogravitycat/booking-sync/internal/syncer"
)

// Config holds the dependencies and settings required to start the application.
type Config struct {
	IsProduction bool
	ProdOrigins  string
	// DBPool backs the remote tables. When nil an in-process memory backend is used.
	DBPool     *pgxpool.Pool
	JWTSecret  string
	JWTTTL     time.Duration
	BcryptCost int

	NotificationBuffer int
	RefetchCron        string
	SessionIdleTTL     time.Duration
	// LogOutput receives component logs; defaults to stderr.
	LogOutput io.Writer
}

// Container holds the initialized components that are needed externally.
type Container struct {
	Router     *gin.Engine
	JWTManager *auth.JWTManager
	Sessions   *syncer.Manager
	Jobs       *jobs.Runner
}

// NewContainer initializes all modules and returns the container.
func NewContainer(cfg Config) (*Container, error) {
	out := cfg.LogOutput
	if out == nil {
		out = os.Stderr
	}

	passwordHasher := auth.NewBcryptPasswordHasher(cfg.BcryptCost)
	jwtManager := auth.NewJWTManager(cfg.JWTSecret, cfg.JWTTTL)

	// Remote tables
	var (
		remote    syncer.Backend
		ownerRepo owner.Repository
	)
	if cfg.DBPool != nil {
		remote = syncer.Backend{
			Events:   event.NewPgxRepository(cfg.DBPool),
			Bookings: booking.NewPgxRepository(cfg.DBPool),
		}
		ownerRepo = owner.NewPgxRepository(cfg.DBPool)
	} else {
		backend := memory.New()
		remote = syncer.Backend{Events: backend.Events(), Bookings: backend.Bookings()}
		ownerRepo = backend.Owners()
	}

	// Owner Module
	ownerService := owner.NewService(ownerRepo, passwordHasher)

	// Sync sessions
	sessions := syncer.NewManager(remote, syncer.Options{
		Logger:             log.New(out, "[sync] ", log.LstdFlags),
		NotificationBuffer: cfg.NotificationBuffer,
	})

	// Background jobs
	runner, err := jobs.New(sessions, jobs.Config{
		RefetchSpec: cfg.RefetchCron,
		IdleTTL:     cfg.SessionIdleTTL,
		Logger:      log.New(out, "[jobs] ", log.LstdFlags),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to set up jobs: %w", err)
	}

	router := api.NewRouter(api.Config{
		IsProduction: cfg.IsProduction,
		ProdOrigins:  cfg.ProdOrigins,
		OwnerService: ownerService,
		Sessions:     sessions,
		JWTManager:   jwtManager,
	})

	return &Container{
		Router:     router,
		JWTManager: jwtManager,
		Sessions:   sessions,
		Jobs:       runner,
	}, nil
}
