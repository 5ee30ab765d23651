package cmd

import (
	"log/slog"
	"os"

	"golang.org/x/time/rate"

	"github.com/donaldgifford/classmart/internal/api/client"
	"github.com/donaldgifford/classmart/internal/cache"
	"github.com/donaldgifford/classmart/internal/config"
	"github.com/donaldgifford/classmart/internal/host"
	"github.com/donaldgifford/classmart/internal/identity"
	"github.com/donaldgifford/classmart/internal/listings"
	"github.com/donaldgifford/classmart/pkg/logger"
	domain "github.com/donaldgifford/classmart/pkg/types"
)

// app holds the client core for one command invocation.
type app struct {
	cfg      *config.Config
	log      *slog.Logger
	bridge   host.Bridge
	client   *client.Client
	repo     *listings.Repository
	identity *identity.Service
}

// appCreated sees every app newApp returns. Tests swap it to inspect the
// session a command ran in.
var appCreated = func(*app) {}

// newApp builds the client core for a command. The host bridge is
// initialized here, once, before any request can read its token.
func newApp() (*app, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}

	log := logger.NewWithWriter(os.Stderr, cfg.Logging.Level, cfg.Logging.Format)
	bridge := host.New(cfg.Host.InitData, host.WithLogger(log))
	bridge.Initialize()

	opts := []client.Option{
		client.WithTimeout(cfg.API.Timeout),
		client.WithTokenSource(bridge.AuthToken),
		client.WithLogger(log),
	}
	if cfg.API.RateLimit.Enabled() {
		opts = append(opts, client.WithRateLimiter(
			rate.NewLimiter(rate.Limit(cfg.API.RateLimit.PerSecond), cfg.API.RateLimit.Burst),
		))
	}
	c := client.New(cfg.API.BaseURL, opts...)

	listingCache := cache.New(cache.WithStaleTime[[]domain.ListingViewModel](cfg.Cache.StaleTime))

	a := &app{
		cfg:      cfg,
		log:      log,
		bridge:   bridge,
		client:   c,
		repo:     listings.New(c, listingCache, log),
		identity: identity.New(bridge, c, log),
	}
	appCreated(a)
	return a, nil
}
