package configuration

import (
	"os"

	"go.uber.org/zap"

	"github.com/KailasMahavarkar/syncboard/internal/engine"
	"github.com/KailasMahavarkar/syncboard/internal/hub"
)

type Container struct {
	Hub      *hub.Hub
	Router   *engine.Router
	Store    *engine.Store
	Registry *engine.Registry
	Config   Config
	Logger   *zap.Logger
}

func BuildContainer() (*Container, error) {
	config, err := LoadConfig(os.Getenv("SYNCBOARD_CONFIG"))
	if err != nil {
		return nil, err
	}

	logger, err := zap.NewProduction()
	if err != nil {
		return nil, err
	}

	registry := engine.NewRegistry()
	store := engine.NewStore()
	router := engine.NewRouter(registry, store, logger)

	h := hub.NewHub(router, hub.Options{
		EgressBuffer:    config.Hub.EgressBuffer,
		InboundBuffer:   config.Hub.InboundBuffer,
		Workers:         config.Hub.Workers,
		MaxMessageBytes: config.Hub.MaxMessageBytes,
		AllowedOrigins:  config.Server.AllowedOrigins,
	}, logger)

	return &Container{
		Hub:      h,
		Router:   router,
		Store:    store,
		Registry: registry,
		Config:   *config,
		Logger:   logger,
	}, nil
}

// Close gracefully shuts down the hub and flushes the logger.
func (c *Container) Close() error {
	if c.Hub != nil {
		c.Hub.Stop()
	}

	if c.Logger != nil {
		_ = c.Logger.Sync()
	}

	return nil
}
