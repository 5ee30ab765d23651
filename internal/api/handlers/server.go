package handlers

import (
	"log/slog"
	"strings"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humaecho"
	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/donaldgifford/classmart/internal/api/middleware"
	"github.com/donaldgifford/classmart/pkg/logger"
)

// ServerConfig configures NewServer.
type ServerConfig struct {
	// BasePath prefixes every API route, e.g. "/api/v1".
	BasePath string
	// BotToken enables init data signature checks. Empty trusts init data.
	BotToken string
	Version  string
	Store    *MemoryStore
	Logger   *slog.Logger
}

// NewServer assembles the mock backend: middleware, /healthz, /metrics, the
// huma JSON operations, and the echo photo routes.
func NewServer(cfg ServerConfig) *echo.Echo {
	log := logger.OrDiscard(cfg.Logger)
	basePath := "/" + strings.Trim(cfg.BasePath, "/")
	if basePath == "/" {
		basePath = ""
	}
	store := cfg.Store
	if store == nil {
		store = NewMemoryStore()
	}
	version := cfg.Version
	if version == "" {
		version = "dev"
	}
	auth := Auth{BotToken: cfg.BotToken}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Use(middleware.Recovery(log))
	e.Use(middleware.RequestLog(log))
	e.Use(middleware.Metrics())

	e.GET("/healthz", NewHealthHandler().Healthz)
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	api := humaecho.New(e, huma.DefaultConfig("classmart mock backend", version))
	RegisterListingRoutes(api, basePath, NewListingsHandler(store, auth, log))
	RegisterTelegramRoutes(api, basePath, NewTelegramHandler(auth, log))
	RegisterPhotoRoutes(e, NewPhotosHandler(store, auth, basePath, log))

	return e
}
