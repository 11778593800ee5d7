package service

import (
	"errors"
	"fmt"

	"ai-query-router-be/internal/dto"
	"ai-query-router-be/internal/entity"
	"ai-query-router-be/pkg/ai/registry"
)

var (
	ErrCategoryNotFound   = errors.New("category not configured")
	ErrHandlerUnavailable  = errors.New("handler failed to start")
)

// HandlerRegistry is the admin view of the registry
type HandlerRegistry interface {
	Status() []registry.HandlerStatus
	Config(category entity.Category) (entity.HandlerConfiguration, bool)
	Enable(category entity.Category) error
	Disable(category entity.Category) error
}

type IHandlerService interface {
	List() []dto.HandlerStatusResponse
	SetEnabled(category string, enabled bool) (*dto.HandlerStatusResponse, error)
}

type handlerService struct {
	registry HandlerRegistry
}

func NewHandlerService(r HandlerRegistry) IHandlerService {
	return &handlerService{registry: r}
}

func (s *handlerService) List() []dto.HandlerStatusResponse {
	statuses := s.registry.Status()
	out := make([]dto.HandlerStatusResponse, 0, len(statuses))
	for _, st := range statuses {
		out = append(out, s.toDTO(st))
	}
	return out
}

func (s *handlerService) SetEnabled(name string, enabled bool) (*dto.HandlerStatusResponse, error) {
	category, err := entity.ParseCategory(name)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrCategoryNotFound, name)
	}

	if enabled {
		err = s.registry.Enable(category)
	} else {
		err = s.registry.Disable(category)
	}
	switch {
	case errors.Is(err, registry.ErrUnknownCategory):
		return nil, fmt.Errorf("%w: %s", ErrCategoryNotFound, category)
	case errors.Is(err, registry.ErrNotInstantiated):
		return nil, fmt.Errorf("%w: %s", ErrHandlerUnavailable, category)
	case err != nil:
		return nil, err
	}

	for _, st := range s.registry.Status() {
		if st.Category == category {
			res := s.toDTO(st)
			return &res, nil
		}
	}
	return nil, fmt.Errorf("%w: %s", ErrCategoryNotFound, category)
}

func (s *handlerService) toDTO(st registry.HandlerStatus) dto.HandlerStatusResponse {
	out := dto.HandlerStatusResponse{
		Category:       string(st.Category),
		Priority:       st.Category.Priority(),
		Implementation: st.Implementation,
		Provider:       st.Provider,
		Model:          st.Model,
		Instantiated:   st.Instantiated,
		Enabled:        st.Enabled,
		Available:      st.Available,
		Error:          st.Error,
	}
	if cfg, ok := s.registry.Config(st.Category); ok {
		out.TimeoutMs = cfg.Timeout.Milliseconds()
		out.RetryCount = cfg.RetryCount
	}
	return out
}
