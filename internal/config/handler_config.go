package config

import (
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"

	"ai-query-router-be/internal/constant"
	"ai-query-router-be/internal/entity"
)

type handlerFile struct {
	Router     routerSection              `mapstructure:"router"`
	Categories map[string]categorySection `mapstructure:"categories" validate:"required,min=1,dive"`
}

type routerSection struct {
	ConfidenceThreshold float64 `mapstructure:"confidence_threshold" validate:"gt=0,lte=1"`
	FallbackCategory    string  `mapstructure:"fallback_category" validate:"required"`
	Classifier          string  `mapstructure:"classifier" validate:"oneof=similarity generative"`
}

type categorySection struct {
	Implementation string            `mapstructure:"implementation" validate:"required"`
	Provider       string            `mapstructure:"provider"`
	Model          string            `mapstructure:"model"`
	Timeout        time.Duration     `mapstructure:"timeout"`
	RetryCount     int               `mapstructure:"retry_count" validate:"gte=0,lte=5"`
	RetryDelay     time.Duration     `mapstructure:"retry_delay" validate:"gte=0"`
	Resources      map[string]string `mapstructure:"resources"`
	Instructions   string            `mapstructure:"instructions"`
	Enabled        *bool             `mapstructure:"enabled"`
	Examples       []string          `mapstructure:"examples"`
}

// RouterSettings are the global knobs of the orchestrator
type RouterSettings struct {
	ConfidenceThreshold float64
	FallbackCategory    entity.Category
	Classifier          string
}

// HandlerSettings is the validated content of the handler configuration file
type HandlerSettings struct {
	Router   RouterSettings
	Handlers []entity.HandlerConfiguration
}

// Examples returns the example phrases per category for the similarity classifier
func (s *HandlerSettings) Examples() map[entity.Category][]string {
	out := make(map[entity.Category][]string, len(s.Handlers))
	for _, h := range s.Handlers {
		if len(h.Examples) > 0 {
			out[h.Category] = append([]string(nil), h.Examples...)
		}
	}
	return out
}

// Handler returns the configuration of one category
func (s *HandlerSettings) Handler(category entity.Category) (entity.HandlerConfiguration, bool) {
	for _, h := range s.Handlers {
		if h.Category == category {
			return h, true
		}
	}
	return entity.HandlerConfiguration{}, false
}

// LoadHandlerFile reads, validates and converts the YAML handler configuration.
// Any violation fails the whole load.
func LoadHandlerFile(path string) (*HandlerSettings, error) {
	v := viper.New()

	v.SetDefault("router.confidence_threshold", constant.DefaultConfidenceThreshold)
	v.SetDefault("router.fallback_category", string(entity.CategoryGeneralChat))
	v.SetDefault("router.classifier", "similarity")

	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read handler config %s: %w", path, err)
	}

	var raw handlerFile
	if err := v.Unmarshal(&raw); err != nil {
		return nil, fmt.Errorf("failed to decode handler config: %w", err)
	}

	return buildHandlerSettings(raw)
}

func buildHandlerSettings(raw handlerFile) (*HandlerSettings, error) {
	if err := validator.New().Struct(raw); err != nil {
		return nil, fmt.Errorf("invalid handler config: %w", err)
	}

	fallback, err := entity.ParseCategory(raw.Router.FallbackCategory)
	if err != nil {
		return nil, fmt.Errorf("invalid handler config: fallback_category: %w", err)
	}

	settings := &HandlerSettings{
		Router: RouterSettings{
			ConfidenceThreshold: raw.Router.ConfidenceThreshold,
			FallbackCategory:    fallback,
			Classifier:          raw.Router.Classifier,
		},
	}

	var errs []error
	seen := make(map[entity.Category]bool, len(raw.Categories))
	for key, section := range raw.Categories {
		category, err := entity.ParseCategory(key)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		if seen[category] {
			errs = append(errs, fmt.Errorf("%s: configured more than once", category))
			continue
		}
		seen[category] = true

		cfg := entity.HandlerConfiguration{
			Category:       category,
			Implementation: section.Implementation,
			Provider:       section.Provider,
			Model:          section.Model,
			Timeout:        section.Timeout,
			RetryCount:     section.RetryCount,
			RetryDelay:     section.RetryDelay,
			Resources:      section.Resources,
			Instructions:   section.Instructions,
			Enabled:        section.Enabled == nil || *section.Enabled,
			Examples:       section.Examples,
		}
		if cfg.Timeout == 0 {
			cfg.Timeout = constant.DefaultHandlerTimeout
		}
		if cfg.Resources == nil {
			cfg.Resources = map[string]string{}
		}

		if err := cfg.Validate(); err != nil {
			errs = append(errs, err)
			continue
		}
		settings.Handlers = append(settings.Handlers, cfg)
	}
	if len(errs) > 0 {
		return nil, fmt.Errorf("invalid handler config: %w", errors.Join(errs...))
	}

	sort.Slice(settings.Handlers, func(i, j int) bool {
		return settings.Handlers[i].Category.Priority() < settings.Handlers[j].Category.Priority()
	})

	if _, ok := settings.Handler(fallback); !ok {
		return nil, fmt.Errorf("invalid handler config: fallback category %s has no handler configuration", fallback)
	}

	return settings, nil
}
