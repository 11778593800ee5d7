package router

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"ai-query-router-be/internal/constant"
	"ai-query-router-be/internal/entity"
	"ai-query-router-be/internal/pkg/logger"
	"ai-query-router-be/internal/repository/contract"
	"ai-query-router-be/pkg/ai/classifier"
	"ai-query-router-be/pkg/ai/handler"
	"ai-query-router-be/pkg/ai/session"
	"ai-query-router-be/pkg/events"
)

const defaultHistoryTurns = 10

// HandlerSource is the part of the registry the router needs
type HandlerSource interface {
	GetHandler(category entity.Category) (handler.Handler, bool)
	Config(category entity.Category) (entity.HandlerConfiguration, bool)
}

// SessionStore loads and saves conversation contexts without surfacing cache errors
type SessionStore interface {
	LoadOrCreate(ctx context.Context, userId, sessionId string, now time.Time) *entity.SessionContext
	Save(ctx context.Context, s *entity.SessionContext) bool
}

type Options struct {
	ConfidenceThreshold float64
	FallbackCategory    entity.Category
	// HistoryTurns is how many prior turns are handed to handlers
	HistoryTurns int
	Publisher    events.Publisher // optional
	Logger       logger.ILogger
	Now          func() time.Time
}

// Router runs the classify, dispatch, fallback flow for one query at a time.
// It holds no per-query state, so one instance serves concurrent calls.
type Router struct {
	classifier   classifier.Classifier
	handlers     HandlerSource
	sessions     SessionStore
	decisions    contract.DecisionLogRepository
	publisher    events.Publisher
	logger       logger.ILogger
	tracer       trace.Tracer
	threshold    float64
	fallback     entity.Category
	historyTurns int
	now          func() time.Time
}

func NewRouter(
	cls classifier.Classifier,
	handlers HandlerSource,
	sessions SessionStore,
	decisions contract.DecisionLogRepository,
	opts Options,
) *Router {
	if opts.ConfidenceThreshold <= 0 || opts.ConfidenceThreshold > 1 {
		opts.ConfidenceThreshold = constant.DefaultConfidenceThreshold
	}
	if !opts.FallbackCategory.Valid() {
		opts.FallbackCategory = entity.CategoryGeneralChat
	}
	if opts.HistoryTurns <= 0 {
		opts.HistoryTurns = defaultHistoryTurns
	}
	if opts.Logger == nil {
		opts.Logger = logger.NewNopLogger()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Router{
		classifier:   cls,
		handlers:     handlers,
		sessions:     sessions,
		decisions:    decisions,
		publisher:    opts.Publisher,
		logger:       opts.Logger,
		tracer:       otel.Tracer("ai-query-router-be/router"),
		threshold:    opts.ConfidenceThreshold,
		fallback:     opts.FallbackCategory,
		historyTurns: opts.HistoryTurns,
		now:          opts.Now,
	}
}

func (r *Router) Threshold() float64 {
	return r.threshold
}

// Route never panics and never returns nil; every failure becomes a structured Result.
func (r *Router) Route(ctx context.Context, text, userId, sessionId string) (result *Result) {
	started := r.now()
	ctx, span := r.tracer.Start(ctx, "router.Route")
	defer span.End()

	defer func() {
		if rec := recover(); rec != nil {
			r.logger.Error("Router", "Recovered from panic", map[string]interface{}{
				"panic": fmt.Sprint(rec),
				"stack": string(debug.Stack()),
			})
			span.SetStatus(codes.Error, "panic")
			result = &Result{
				Outcome:   entity.OutcomeUnanswered,
				ErrorKind: ErrorKindInternal,
				Error:     fmt.Sprintf("router error: %v", rec),
			}
		}
		result.LatencyMs = r.now().Sub(started).Milliseconds()
		span.SetAttributes(
			attribute.String("router.outcome", string(result.Outcome)),
			attribute.String("router.error_kind", string(result.ErrorKind)),
		)
	}()

	// 1. Validate
	parsed := Parse(text)
	query, err := entity.NewQuery(parsed.CleanPrompt, userId, sessionId, started)
	if err != nil {
		kind := ErrorKindValidation
		if !entity.IsValidationError(err) {
			kind = ErrorKindInternal
		}
		span.SetStatus(codes.Error, err.Error())
		return &Result{
			Outcome:   entity.OutcomeUnanswered,
			ErrorKind: kind,
			Error:     err.Error(),
		}
	}
	span.SetAttributes(attribute.String("query.id", query.Id.String()))

	// 2. Load state
	state := r.sessions.LoadOrCreate(ctx, query.UserId, query.SessionId.String(), started)

	// 3. Classify
	decision, err := r.classify(ctx, query, parsed, state)
	if err != nil {
		r.logger.Error("Router", "Classification failed", map[string]interface{}{
			"query_id": query.Id.String(),
			"error":    err.Error(),
		})
		span.SetStatus(codes.Error, err.Error())
		return &Result{
			Outcome:   entity.OutcomeUnanswered,
			ErrorKind: ErrorKindInternal,
			Query:     query,
			Error:     "router error: " + err.Error(),
		}
	}

	// 4. Confidence gate
	if decision.PrimaryConfidence < r.threshold {
		res := &Result{
			Outcome:       entity.OutcomeClarification,
			ErrorKind:     ErrorKindLowConfidence,
			Query:         query,
			Decision:      &decision,
			Clarification: clarificationPrompt(decision),
			Error: fmt.Sprintf("confidence %.1f%% is below the %.1f%% threshold, clarification needed",
				decision.PrimaryConfidence*100, r.threshold*100),
		}
		r.log(ctx, res, nil, Execution{})
		return res
	}

	// 5. Dispatch
	primary, ok := r.handlers.GetHandler(decision.PrimaryCategory)
	if !ok {
		res := &Result{
			Outcome:   entity.OutcomeUnanswered,
			ErrorKind: ErrorKindNoHandler,
			Query:     query,
			Decision:  &decision,
			Error:     fmt.Sprintf("no handler available for %s", decision.PrimaryCategory),
		}
		r.log(ctx, res, nil, Execution{})
		return res
	}

	// 6. Execute with resilience
	cfg, _ := r.handlers.Config(decision.PrimaryCategory)
	req := r.buildRequest(ctx, query, state)
	exec := r.execute(ctx, primary, req, PolicyFor(cfg))

	res := &Result{Query: query}
	handledBy := decision.PrimaryCategory
	final := exec

	// 7. Fallback cascade
	if !exec.Succeeded() {
		decision = decision.WithFallbackTriggered()
		final, handledBy = r.runFallback(ctx, req, decision.PrimaryCategory, exec, PolicyFor(cfg).Timeout)
		final.Attempts += exec.Attempts
		final.LatencyMs += exec.LatencyMs
	}

	res.Decision = &decision
	res.HandledBy = &handledBy
	res.Success = final.Succeeded()
	res.Response = final.Response
	if res.Success {
		res.Outcome = entity.OutcomeAnswered
	} else {
		res.Outcome = entity.OutcomeUnanswered
		res.ErrorKind = ErrorKindHandlerFailure
		res.Error = failureText(exec, final, decision.FallbackTriggered)
		if res.Response == nil {
			res.Response = &handler.Response{Success: false, Error: res.Error}
		}
	}

	// 8. Persist state
	r.persist(ctx, state, query, decision, res)

	// 9. Log
	r.log(ctx, res, &exec, final)

	// 10. Return
	return res
}

func (r *Router) classify(ctx context.Context, query *entity.Query, parsed *ParsedPrompt, state *entity.SessionContext) (entity.RoutingDecision, error) {
	ctx, span := r.tracer.Start(ctx, "router.classify")
	defer span.End()

	if parsed.IsOverride() {
		category := *parsed.Category
		span.SetAttributes(attribute.Bool("router.user_override", true))
		return entity.NewRoutingDecision(entity.DecisionInput{
			QueryId:           query.Id,
			PrimaryCategory:   category,
			PrimaryConfidence: 1,
			Reasoning:         classifier.BuildReasoning(category, 1, r.threshold, "user override"),
			UserOverride:      true,
			CreatedAt:         r.now(),
		}), nil
	}

	decision, err := r.classifier.Classify(ctx, classifier.Input{
		Text:             query.Text,
		QueryID:          query.Id,
		PreviousCategory: state.LastCategory(),
	})
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return entity.RoutingDecision{}, err
	}
	if !decision.PrimaryCategory.Valid() {
		return entity.RoutingDecision{}, fmt.Errorf("classifier %s returned unknown category %q", r.classifier.Name(), decision.PrimaryCategory)
	}

	span.SetAttributes(
		attribute.String("router.category", string(decision.PrimaryCategory)),
		attribute.Float64("router.confidence", decision.PrimaryConfidence),
	)
	r.logger.Debug("Router", "Query classified", map[string]interface{}{
		"query_id":   query.Id.String(),
		"strategy":   r.classifier.Name(),
		"category":   string(decision.PrimaryCategory),
		"confidence": decision.PrimaryConfidence,
		"latency_ms": decision.ClassificationLatencyMs,
	})
	return decision, nil
}

func (r *Router) execute(ctx context.Context, h handler.Handler, req *handler.Request, policy Policy) Execution {
	ctx, span := r.tracer.Start(ctx, "router.execute", trace.WithAttributes(
		attribute.String("handler.category", string(h.Category())),
		attribute.Int("handler.retry_count", policy.RetryCount),
	))
	defer span.End()

	exec := Execute(ctx, h, req, policy)
	span.SetAttributes(attribute.Int("handler.attempts", exec.Attempts))
	if !exec.Succeeded() {
		span.SetStatus(codes.Error, errText(exec.Err))
		r.logger.Warn("Router", "Primary handler failed", map[string]interface{}{
			"query_id": req.QueryID.String(),
			"category": string(h.Category()),
			"attempts": exec.Attempts,
			"error":    errText(exec.Err),
		})
	}
	return exec
}

// runFallback invokes the fallback handler exactly once, without retries,
// under the primary handler's deadline.
func (r *Router) runFallback(
	ctx context.Context,
	req *handler.Request,
	original entity.Category,
	primary Execution,
	timeout time.Duration,
) (Execution, entity.Category) {
	ctx, span := r.tracer.Start(ctx, "router.fallback", trace.WithAttributes(
		attribute.String("handler.category", string(r.fallback)),
		attribute.String("router.original_category", string(original)),
	))
	defer span.End()

	h, ok := r.handlers.GetHandler(r.fallback)
	if !ok {
		span.SetStatus(codes.Error, "fallback unavailable")
		return Execution{Err: fmt.Errorf("no handler available for fallback category %s", r.fallback)}, r.fallback
	}

	fbReq := *req
	fbReq.Metadata = map[string]string{
		constant.MetadataFallbackReason:   errText(primary.Err),
		constant.MetadataOriginalCategory: string(original),
	}
	exec := Execute(ctx, h, &fbReq, Policy{Timeout: timeout})

	fields := map[string]interface{}{
		"query_id":          req.QueryID.String(),
		"original_category": string(original),
		"success":           exec.Succeeded(),
	}
	if !exec.Succeeded() {
		span.SetStatus(codes.Error, errText(exec.Err))
		fields["error"] = errText(exec.Err)
		r.logger.Error("Router", "Fallback handler failed", fields)
	} else {
		r.logger.Info("Router", "Fallback handler answered", fields)
	}
	return exec, r.fallback
}

func (r *Router) buildRequest(ctx context.Context, query *entity.Query, state *entity.SessionContext) *handler.Request {
	return &handler.Request{
		QueryID:   query.Id,
		QueryText: query.Text,
		UserID:    query.UserId,
		SessionID: query.SessionId.String(),
		Role:      handler.RoleFromContext(ctx),
		Context:   session.History(state, r.historyTurns),
		Metadata:  map[string]string{},
	}
}

func (r *Router) persist(ctx context.Context, state *entity.SessionContext, query *entity.Query, decision entity.RoutingDecision, res *Result) {
	now := r.now()
	category := decision.PrimaryCategory
	state.AppendMessage(constant.ChatMessageRoleUser, query.Text, &category, query.ReceivedAt)
	if res.Success && res.Response != nil {
		state.AppendMessage(constant.ChatMessageRoleAssistant, res.Response.Text, res.HandledBy, now)
	}
	state.AppendDecision(decision.Id.String())
	state.Touch(now)

	// the write must survive a caller that has already gone away
	r.sessions.Save(context.WithoutCancel(ctx), state)
}

func (r *Router) log(ctx context.Context, res *Result, primary *Execution, final Execution) {
	record := entity.NewDecisionRecord(res.Query, *res.Decision, r.now())
	record.HandlerCategory = res.HandledBy
	record.HandlerSuccess = res.Success
	record.HandlerLatencyMs = final.LatencyMs
	record.HandlerAttempts = final.Attempts
	record.Outcome = res.Outcome
	record.Error = res.Error
	record.Details["strategy"] = r.classifier.Name()
	if res.ErrorKind != ErrorKindNone {
		record.Details["error_kind"] = string(res.ErrorKind)
	}
	if primary != nil && res.Decision.FallbackTriggered {
		record.Details["fallback_reason"] = errText(primary.Err)
	}

	ctx = context.WithoutCancel(ctx)
	if err := r.decisions.Record(ctx, record); err != nil {
		r.logger.Error("DecisionLog", "Failed to record decision", map[string]interface{}{
			"query_id": record.QueryId.String(),
			"error":    err.Error(),
		})
	}

	r.logger.Info("Router", "Query routed", map[string]interface{}{
		"query_id":   record.QueryId.String(),
		"category":   string(record.Decision.PrimaryCategory),
		"confidence": record.Decision.PrimaryConfidence,
		"outcome":    string(record.Outcome),
		"fallback":   record.Decision.FallbackTriggered,
		"attempts":   record.HandlerAttempts,
	})

	if r.publisher != nil {
		if err := r.publisher.Publish(ctx, events.NewRoutingDecidedEvent(record)); err != nil {
			r.logger.Warn("Events", "Failed to publish routing event", map[string]interface{}{
				"query_id": record.QueryId.String(),
				"error":    err.Error(),
			})
		}
	}
}

func clarificationPrompt(decision entity.RoutingDecision) string {
	var b strings.Builder
	b.WriteString("I'm not sure I understood. Are you asking about ")
	b.WriteString(strings.ToLower(decision.PrimaryCategory.Description()))
	if decision.HasSecondary() {
		b.WriteString(", or ")
		b.WriteString(strings.ToLower(decision.SecondaryCategory.Description()))
	}
	b.WriteString("? Could you add a bit more detail?")
	return b.String()
}

func failureText(primary, final Execution, fallbackRan bool) string {
	if !fallbackRan {
		return errText(final.Err)
	}
	return fmt.Sprintf("primary handler failed: %s; fallback failed: %s", errText(primary.Err), errText(final.Err))
}

func errText(err error) string {
	if err == nil {
		return ""
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return "request cancelled: " + err.Error()
	}
	return err.Error()
}
