package api

import (
	"context"
	"strings"
	"time"

	redis "github.com/redis/go-redis/v9"

	"fleetplan/internal/auth"
	"fleetplan/internal/config"
	"fleetplan/internal/roads"
	"fleetplan/internal/store"
	"fleetplan/internal/webhooks"
)

type Server struct {
	Cfg    config.Config
	Store  store.Store
	Roads  roads.Provider
	Pub    *webhooks.Publisher
	Auth   *auth.Verifier
	Broker EventBroker
}

// NewServer wires the server from config. Without DATABASE_URL the store is
// in-memory; without OSRM_URL plans carry geometric metrics only.
func NewServer(cfg config.Config) (*Server, error) {
	var s store.Store
	if strings.TrimSpace(cfg.DatabaseURL) == "" {
		s = store.NewMemory()
	} else {
		sp, err := store.NewPostgres(cfg.DatabaseURL)
		if err != nil {
			return nil, err
		}
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := sp.Migrate(ctx); err != nil {
			return nil, err
		}
		s = sp
	}

	var provider roads.Provider
	if cfg.OSRMURL != "" {
		osrm, err := roads.NewOSRM(cfg.OSRMURL, cfg.OSRMRPS)
		if err != nil {
			return nil, err
		}
		provider = osrm
		if cfg.RedisURL != "" {
			if opt, err := redis.ParseURL(cfg.RedisURL); err == nil {
				provider = roads.NewRedisCache(redis.NewClient(opt), osrm, 0)
			}
		}
	}

	var broker EventBroker
	if cfg.RedisURL != "" {
		if rb, err := NewRedisBroker(cfg.RedisURL); err == nil {
			broker = rb
		} else {
			broker = NewBroker()
		}
	} else {
		broker = NewBroker()
	}

	return &Server{
		Cfg:    cfg,
		Store:  s,
		Roads:  provider,
		Pub:    webhooks.NewPublisher(s),
		Auth:   auth.NewVerifier(cfg.AuthMode, cfg.AuthHMACSecret),
		Broker: broker,
	}, nil
}

// NewWebhookWorker creates the background worker for webhook deliveries.
func (s *Server) NewWebhookWorker() *webhooks.Worker {
	return webhooks.NewWorker(s.Store, s.Cfg.WebhookMaxAttempts)
}
