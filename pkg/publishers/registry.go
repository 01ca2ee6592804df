package publishers

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/Skshirin/factify/internal/logger"
)

// Builder creates a Publisher from a config entry.
type Builder func(ctx context.Context, cfg PublisherConfig, log logger.Logger) (Publisher, error)

// Registry maps sink types to builders.
type Registry interface {
	Register(typ string, builder Builder)
	PublisherFor(ctx context.Context, cfg PublisherConfig, log logger.Logger) (Publisher, error)
}

type registry struct {
	mu       sync.RWMutex
	builders map[string]Builder
}

func NewRegistry(builders map[string]Builder) Registry {
	r := &registry{builders: make(map[string]Builder, len(builders))}
	for typ, b := range builders {
		r.Register(typ, b)
	}
	return r
}

func (r *registry) Register(typ string, builder Builder) {
	typ = strings.TrimSpace(strings.ToLower(typ))
	if typ == "" || builder == nil {
		return
	}
	r.mu.Lock()
	r.builders[typ] = builder
	r.mu.Unlock()
}

func (r *registry) PublisherFor(ctx context.Context, cfg PublisherConfig, log logger.Logger) (Publisher, error) {
	cfg = sanitizePublisherConfig(cfg)
	if cfg.ID == "" || cfg.Type == "" {
		return nil, fmt.Errorf("publisher needs an id and a type (id %q, type %q)", cfg.ID, cfg.Type)
	}
	if err := validateFilter(cfg.Filter); err != nil {
		return nil, err
	}

	r.mu.RLock()
	builder := r.builders[cfg.Type]
	r.mu.RUnlock()
	if builder == nil {
		return nil, fmt.Errorf("no publisher registered for type %q", cfg.Type)
	}
	return builder(ctx, cfg, logger.Ensure(log))
}

// DefaultRegistry knows every built-in verdict sink.
func DefaultRegistry() Registry {
	return NewRegistry(map[string]Builder{
		TypeHTTP:   newHTTPPublisher,
		TypeSQS:    newSQSPublisher,
		TypeSNS:    newSNSPublisher,
		TypePubSub: newPubSubPublisher,
	})
}

// BuildAll builds a route per config. On failure the sinks built so far are closed.
func BuildAll(ctx context.Context, reg Registry, cfgs []PublisherConfig, log logger.Logger) ([]Route, error) {
	if reg == nil || len(cfgs) == 0 {
		return nil, nil
	}

	routes := make([]Route, 0, len(cfgs))
	for _, cfg := range cfgs {
		pub, err := reg.PublisherFor(ctx, cfg, log)
		if err != nil {
			_ = closeAll(routes)
			return nil, fmt.Errorf("publisher %q: %w", cfg.ID, err)
		}
		routes = append(routes, Route{Publisher: pub, Filter: sanitizeFilter(cfg.Filter)})
	}
	return routes, nil
}
