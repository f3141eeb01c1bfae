package team

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Provider serves the current registry snapshot and rebuilds it from
// its loader at the configured interval. Visibility decisions always
// read a complete snapshot.
type Provider struct {
	mu       sync.RWMutex
	registry *Registry
	loader   Loader
	interval time.Duration
	logger   *zap.Logger
}

// NewProvider builds a provider with an initial snapshot loaded.
func NewProvider(ctx context.Context, loader Loader, interval time.Duration, logger *zap.Logger) (*Provider, error) {
	teams, err := loader.List(ctx)
	if err != nil {
		return nil, err
	}

	return &Provider{
		registry: NewRegistry(teams, logger),
		loader:   loader,
		interval: interval,
		logger:   logger,
	}, nil
}

// Registry returns the current snapshot.
func (p *Provider) Registry() *Registry {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.registry
}

// Start runs the background refresh loop until ctx is cancelled.
// A failed refresh keeps the previous snapshot.
func (p *Provider) Start(ctx context.Context) {
	if p.interval <= 0 {
		return
	}

	go func() {
		ticker := time.NewTicker(p.interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				teams, err := p.loader.List(ctx)
				if err != nil {
					p.logger.Warn("team registry refresh failed", zap.Error(err))
					continue
				}
				p.mu.Lock()
				p.registry = NewRegistry(teams, p.logger)
				p.mu.Unlock()
			}
		}
	}()
}
