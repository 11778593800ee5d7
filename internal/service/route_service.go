package service

import (
	"context"
	"errors"
	"fmt"

	"ai-query-router-be/internal/dto"
	"ai-query-router-be/pkg/ai/handler"
	"ai-query-router-be/pkg/ai/router"
)

var ErrInvalidQuery = errors.New("invalid query")

// QueryRouter is the orchestrator entry point
type QueryRouter interface {
	Route(ctx context.Context, text, userId, sessionId string) *router.Result
}

type IRouteService interface {
	Route(ctx context.Context, req *dto.RouteRequest) (*dto.RouteResponse, error)
}

type routeService struct {
	router QueryRouter
}

func NewRouteService(r QueryRouter) IRouteService {
	return &routeService{router: r}
}

// Route returns ErrInvalidQuery for input the orchestrator rejected; every
// other outcome, including failures, is a normal response.
func (s *routeService) Route(ctx context.Context, req *dto.RouteRequest) (*dto.RouteResponse, error) {
	res := s.router.Route(handler.WithRole(ctx, req.Role), req.Text, req.UserId, req.SessionId)
	if res.ErrorKind == router.ErrorKindValidation {
		return nil, fmt.Errorf("%w: %s", ErrInvalidQuery, res.Error)
	}
	return ToRouteResponse(res), nil
}

// ToRouteResponse flattens an orchestrator result for HTTP and CLI output
func ToRouteResponse(res *router.Result) *dto.RouteResponse {
	out := &dto.RouteResponse{
		Success:       res.Success,
		Outcome:       string(res.Outcome),
		Reply:         res.Reply(),
		Clarification: res.Clarification,
		Error:         res.Error,
		LatencyMs:     res.LatencyMs,
	}
	if res.Query != nil {
		out.QueryId = res.Query.Id.String()
		out.Truncated = res.Query.Truncated
		out.WordCount = res.Query.WordCount
		out.ReceivedAt = res.Query.ReceivedAt
	}
	if d := res.Decision; d != nil {
		out.Decision = &dto.RoutingDecisionDTO{
			Id:                      d.Id.String(),
			PrimaryCategory:         string(d.PrimaryCategory),
			PrimaryConfidence:       d.PrimaryConfidence,
			SecondaryConfidence:     d.SecondaryConfidence,
			Reasoning:               d.Reasoning,
			ClassificationLatencyMs: d.ClassificationLatencyMs,
			FallbackTriggered:       d.FallbackTriggered,
			UserOverride:            d.UserOverride,
		}
		if d.SecondaryCategory != nil {
			c := string(*d.SecondaryCategory)
			out.Decision.SecondaryCategory = &c
		}
	}
	if r := res.Response; r != nil {
		out.Response = &dto.HandlerResponseDTO{
			Success:  r.Success,
			Text:     r.Text,
			Sources:  r.Sources,
			Metadata: r.Metadata,
			Error:    r.Error,
		}
		if res.HandledBy != nil {
			out.Response.HandledBy = string(*res.HandledBy)
		}
	}
	return out
}
