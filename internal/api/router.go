package api

import (
	"net/http"
	"strings"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/nekogravitycat/booking-sync/internal/auth"
	"github.com/nekogravitycat/booking-sync/internal/owner"
	ownerHttp "github.com/nekogravitycat/booking-sync/internal/owner/http"
	"github.com/nekogravitycat/booking-sync/internal/syncer"
	syncHttp "github.com/nekogravitycat/booking-sync/internal/syncer/http"
)

// Config holds what the router needs to build its handlers.
type Config struct {
	IsProduction bool
	ProdOrigins  string
	OwnerService owner.Service
	Sessions     *syncer.Manager
	JWTManager   *auth.JWTManager
}

// NewRouter initializes the HTTP router engine.
// It assembles middleware (CORS, Logger, Auth) and registers the routes of each module.
func NewRouter(cfg Config) *gin.Engine {
	r := gin.New()

	// Global Middleware:
	// - Logger: Logs request information to the console, with access tokens redacted.
	// - Recovery: Captures panics to prevent server crashes and returns a 500 error.
	r.Use(gin.LoggerWithConfig(gin.LoggerConfig{Formatter: logFormatter}), gin.Recovery())

	// Configure CORS (Cross-Origin Resource Sharing). With no production
	// origins configured only same-origin requests are served.
	origins := []string{
		"http://localhost:3000", // Dashboard dev server
		"http://localhost:8081", // Swagger
	}
	if cfg.IsProduction {
		origins = splitOrigins(cfg.ProdOrigins)
	}
	if len(origins) > 0 {
		corsConfig := cors.DefaultConfig()
		corsConfig.AllowOrigins = origins
		corsConfig.AllowMethods = []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"}
		corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "Authorization"}
		r.Use(cors.New(corsConfig))
	}

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "sessions": len(cfg.Sessions.Sessions())})
	})

	// authMiddleware: Validates if the request contains a valid JWT.
	// feedAuthMiddleware also takes the token from ?access_token= for calendar clients.
	authMiddleware := auth.AuthRequired(cfg.JWTManager)
	feedAuthMiddleware := auth.FeedAuthRequired(cfg.JWTManager)

	ownerHandler := ownerHttp.NewHandler(cfg.OwnerService, cfg.Sessions, cfg.JWTManager)
	syncHandler := syncHttp.NewHandler(cfg.Sessions)

	// Register API routes under /v1
	v1 := r.Group("/v1")
	{
		ownerHttp.RegisterRoutes(v1, ownerHandler, authMiddleware)
		syncHttp.RegisterRoutes(v1, syncHandler, authMiddleware, feedAuthMiddleware)
	}

	return r
}

func splitOrigins(s string) []string {
	var out []string
	for _, o := range strings.Split(s, ",") {
		if o = strings.TrimSpace(o); o != "" {
			out = append(out, o)
		}
	}
	return out
}
