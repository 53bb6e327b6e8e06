package bootstrap

import (
	"log/slog"
	"net/http"
	"os"

	"github.com/getsentry/sentry-go"
	sentrygin "github.com/getsentry/sentry-go/gin"
	pprof_gin "github.com/gin-contrib/pprof"
	"github.com/gin-gonic/gin"
	sloggin "github.com/samber/slog-gin"

	"github.com/deckprep/backend/config"
	"github.com/deckprep/backend/controllers"
	"github.com/deckprep/backend/middleware"
	"github.com/deckprep/backend/models"
	"github.com/deckprep/backend/utils"
)

// based on https://www.digitalocean.com/community/tutorials/using-ldflags-to-set-version-information-for-go-applications
var Version = "dev"

func Bootstrap() (*gin.Engine, error) {
	initLogging()
	cfg := config.DeckprepConfig

	if err := sentry.Init(sentry.ClientOptions{
		Dsn:              os.Getenv("SENTRY_DSN"),
		EnableTracing:    true,
		TracesSampleRate: 0.1,
		Release:          "api@" + Version,
		DebugWriter:      utils.NewSentrySlogWriter(slog.Default()),
	}); err != nil {
		slog.Error("Sentry initialization failed", "error", err)
	}

	db, err := models.ConnectDatabase()
	if err != nil {
		return nil, err
	}

	r := gin.Default()

	r.Use(middleware.RequestID())
	r.Use(sloggin.New(slog.Default().WithGroup("http")))
	r.Use(sentrygin.New(sentrygin.Options{Repanic: true}))
	r.Use(middleware.CORSMiddleware())

	if config.PprofDebugEnabled() {
		pprof_gin.Register(r)
	}

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"build_date":  cfg.GetString("build_date"),
			"deployed_at": cfg.GetString("deployed_at"),
			"version":     Version,
		})
	})

	wc := controllers.WebController{DB: db}

	webhooks := r.Group("/webhooks")
	webhooks.Use(middleware.WebhookSignatureAuth())
	webhooks.POST("/identity", wc.IdentityWebhook)

	api := r.Group("/api")
	api.Use(middleware.GetApiMiddleware())

	api.GET("/profile", wc.GetProfile)
	api.POST("/profile", wc.CreateProfile)
	api.PUT("/profile", wc.UpdateProfile)

	api.GET("/orgs", wc.ListMyOrgs)
	api.POST("/orgs", wc.CreateOrg)
	api.GET("/orgs/:slug", wc.GetOrg)
	api.POST("/orgs/:slug/members", wc.AddOrgMember)
	api.PUT("/orgs/:slug/members/:userId", wc.UpdateOrgMember)
	api.DELETE("/orgs/:slug/members/:userId", wc.RemoveOrgMember)
	api.POST("/orgs/:slug/tokens", wc.IssueOrgToken)
	api.GET("/orgs/:slug/billing", wc.BillingStatus)

	return r, nil
}

func initLogging() {
	logLevel := os.Getenv("DECKPREP_LOG_LEVEL")
	var level slog.Leveler

	switch logLevel {
	case "DEBUG":
		level = slog.LevelDebug
	case "WARN":
		level = slog.LevelWarn
	case "ERROR":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	handler := slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: level,
	})
	slog.SetDefault(slog.New(handler))
}
