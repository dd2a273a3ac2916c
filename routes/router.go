package routes

import (
	"log/slog"
	"net/http"
	"time"

	"civicresolve-be/controllers"
	"civicresolve-be/middlewares"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

// Handlers bundles everything the router mounts.
type Handlers struct {
	Users  *controllers.UserController
	Auth   *controllers.AuthController
	Issues *controllers.IssueController
	Gates  IssueGates

	// OfficerSignup guards officer registration. Nil leaves it public.
	OfficerSignup gin.HandlerFunc
}

// RouterOptions configures the global middleware chain.
type RouterOptions struct {
	CORSOrigins    []string
	RequestTimeout time.Duration
	Logger         *slog.Logger
}

func NewRouter(h Handlers, opts RouterOptions) *gin.Engine {
	r := gin.New()
	r.Use(middlewares.Recovery(opts.Logger))
	r.Use(middlewares.RequestLogger(opts.Logger))
	r.Use(cors.New(corsConfig(opts.CORSOrigins)))
	r.Use(middlewares.RequestTimeout(opts.RequestTimeout))

	UserRoutes(r, h.Users)
	AuthRoutes(r, h.Auth, h.OfficerSignup)
	IssueRoutes(r, h.Issues, h.Gates)

	r.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "pong"})
	})
	return r
}

func corsConfig(origins []string) cors.Config {
	cfg := cors.Config{
		AllowMethods: []string{"GET", "POST", "PUT", "OPTIONS"},
		AllowHeaders: []string{"Origin", "Content-Type", "Authorization"},
		MaxAge:       12 * time.Hour,
	}
	if len(origins) == 0 || (len(origins) == 1 && origins[0] == "*") {
		cfg.AllowAllOrigins = true
		return cfg
	}
	cfg.AllowOrigins = origins
	cfg.AllowCredentials = true
	return cfg
}
