package service

import (
	"context"
	"fmt"
	"time"

	"ai-query-router-be/internal/dto"
	"ai-query-router-be/internal/entity"
	"ai-query-router-be/internal/repository/contract"
)

const DefaultReportWindow = 24 * time.Hour

type IReportService interface {
	Summary(ctx context.Context, window time.Duration) (*dto.ReportSummaryResponse, error)
}

type reportService struct {
	decisions contract.DecisionLogRepository
	now       func() time.Time
}

func NewReportService(decisions contract.DecisionLogRepository) IReportService {
	return &reportService{decisions: decisions, now: time.Now}
}

// Summary aggregates the trailing window of the decision log.
// Accuracy is the share of dispatched queries the primary handler answered without fallback.
func (s *reportService) Summary(ctx context.Context, window time.Duration) (*dto.ReportSummaryResponse, error) {
	if window <= 0 {
		window = DefaultReportWindow
	}
	since := s.now().Add(-window)
	records, err := s.decisions.FindSince(ctx, since)
	if err != nil {
		return nil, fmt.Errorf("failed to read decision log: %w", err)
	}

	out := &dto.ReportSummaryResponse{
		Window:     window.String(),
		Since:      since,
		Total:      len(records),
		Categories: make(map[string]int),
	}

	var confidenceSum, latencySum float64
	var fallbacks, overrides, accurate int
	for _, rec := range records {
		out.Categories[string(rec.Decision.PrimaryCategory)]++
		confidenceSum += rec.Decision.PrimaryConfidence
		if rec.Decision.UserOverride {
			overrides++
		}

		switch rec.Outcome {
		case entity.OutcomeAnswered:
			out.Answered++
		case entity.OutcomeClarification:
			out.Clarification++
		default:
			out.Unanswered++
		}

		if rec.HandlerCategory == nil {
			continue
		}
		out.Dispatched++
		latencySum += float64(rec.HandlerLatencyMs)
		if rec.Decision.FallbackTriggered {
			fallbacks++
		} else if rec.HandlerSuccess {
			accurate++
		}
	}

	out.FallbackRate = ratio(fallbacks, out.Dispatched)
	out.Accuracy = ratio(accurate, out.Dispatched)
	out.OverrideRate = ratio(overrides, out.Total)
	if out.Total > 0 {
		out.MeanConfidence = confidenceSum / float64(out.Total)
	}
	if out.Dispatched > 0 {
		out.MeanHandlerLatencyMs = latencySum / float64(out.Dispatched)
	}
	return out, nil
}

func ratio(n, d int) float64 {
	if d == 0 {
		return 0
	}
	return float64(n) / float64(d)
}
