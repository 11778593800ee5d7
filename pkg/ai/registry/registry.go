package registry

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync/atomic"

	"ai-query-router-be/internal/entity"
	"ai-query-router-be/internal/pkg/logger"
	"ai-query-router-be/pkg/ai/handler"
)

var (
	ErrUnknownCategory = errors.New("registry: category is not configured")
	ErrNotInstantiated = errors.New("registry: handler failed to instantiate")
)

type slot struct {
	config  entity.HandlerConfiguration
	handler handler.Handler
	err     error
	enabled atomic.Bool
}

// HandlerStatus is a point in time view of one category for admin surfaces
type HandlerStatus struct {
	Category       entity.Category `json:"category"`
	Implementation string          `json:"implementation"`
	Provider       string          `json:"provider,omitempty"`
	Model          string          `json:"model,omitempty"`
	Instantiated   bool            `json:"instantiated"`
	Enabled        bool            `json:"enabled"`
	Available      bool            `json:"available"`
	Error          string          `json:"error,omitempty"`
}

// Registry owns the category to handler map. The map is built once by
// InstantiateHandlers; afterwards only the enabled flags change.
type Registry struct {
	slots     map[entity.Category]*slot
	factories map[string]handler.Factory
	deps      handler.Dependencies
	logger    logger.ILogger
}

func NewRegistry(
	configs []entity.HandlerConfiguration,
	factories map[string]handler.Factory,
	deps handler.Dependencies,
	log logger.ILogger,
) *Registry {
	if log == nil {
		log = logger.NewNopLogger()
	}
	if deps.Logger == nil {
		deps.Logger = log
	}
	slots := make(map[entity.Category]*slot, len(configs))
	for _, cfg := range configs {
		s := &slot{config: cfg}
		s.enabled.Store(cfg.Enabled)
		slots[cfg.Category] = s
	}
	return &Registry{
		slots:     slots,
		factories: factories,
		deps:      deps,
		logger:    log,
	}
}

// InstantiateHandlers builds every configured handler. A failing category is
// recorded and skipped; the returned map lists the failures.
func (r *Registry) InstantiateHandlers(ctx context.Context) map[entity.Category]error {
	failures := make(map[entity.Category]error)

	for _, category := range r.categories() {
		if err := ctx.Err(); err != nil {
			failures[category] = err
			r.slots[category].err = err
			continue
		}
		s := r.slots[category]
		h, err := r.build(s.config)
		if err != nil {
			s.err = err
			failures[category] = err
			r.logger.Error("Registry", "Handler instantiation failed", map[string]interface{}{
				"category":       string(category),
				"implementation": s.config.Implementation,
				"error":          err.Error(),
			})
			continue
		}
		s.handler = h
		r.logger.Info("Registry", "Handler ready", map[string]interface{}{
			"category":       string(category),
			"implementation": s.config.Implementation,
			"enabled":        s.enabled.Load(),
		})
	}

	return failures
}

func (r *Registry) build(cfg entity.HandlerConfiguration) (h handler.Handler, err error) {
	factory, ok := r.factories[cfg.Implementation]
	if !ok {
		return nil, fmt.Errorf("unknown handler implementation %q", cfg.Implementation)
	}
	defer func() {
		if rec := recover(); rec != nil {
			h, err = nil, fmt.Errorf("handler constructor panicked: %v", rec)
		}
	}()
	h, err = factory(cfg, r.deps)
	if err != nil {
		return nil, err
	}
	if h == nil {
		return nil, fmt.Errorf("handler factory %q returned nil", cfg.Implementation)
	}
	if h.Category() != cfg.Category {
		return nil, fmt.Errorf("handler serves %s, configured for %s", h.Category(), cfg.Category)
	}
	return h, nil
}

// GetHandler returns a handler only when it was built and is enabled
func (r *Registry) GetHandler(category entity.Category) (handler.Handler, bool) {
	s, ok := r.slots[category]
	if !ok || s.handler == nil || !s.enabled.Load() {
		return nil, false
	}
	return s.handler, true
}

func (r *Registry) Enable(category entity.Category) error {
	return r.setEnabled(category, true)
}

func (r *Registry) Disable(category entity.Category) error {
	return r.setEnabled(category, false)
}

func (r *Registry) setEnabled(category entity.Category, enabled bool) error {
	s, ok := r.slots[category]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownCategory, category)
	}
	if s.handler == nil {
		return fmt.Errorf("%w: %s", ErrNotInstantiated, category)
	}
	if s.enabled.Swap(enabled) != enabled {
		r.logger.Info("Registry", "Handler availability changed", map[string]interface{}{
			"category": string(category),
			"enabled":  enabled,
		})
	}
	return nil
}

// Config returns the configuration of a category
func (r *Registry) Config(category entity.Category) (entity.HandlerConfiguration, bool) {
	s, ok := r.slots[category]
	if !ok {
		return entity.HandlerConfiguration{}, false
	}
	return s.config, true
}

// Status lists every configured category by priority
func (r *Registry) Status() []HandlerStatus {
	out := make([]HandlerStatus, 0, len(r.slots))
	for _, category := range r.categories() {
		s := r.slots[category]
		st := HandlerStatus{
			Category:       category,
			Implementation: s.config.Implementation,
			Provider:       s.config.Provider,
			Model:          s.config.Model,
			Instantiated:   s.handler != nil,
			Enabled:        s.enabled.Load(),
		}
		st.Available = st.Instantiated && st.Enabled
		if s.err != nil {
			st.Error = s.err.Error()
		}
		out = append(out, st)
	}
	return out
}

func (r *Registry) categories() []entity.Category {
	out := make([]entity.Category, 0, len(r.slots))
	for c := range r.slots {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].Priority() < out[j].Priority()
	})
	return out
}
