package router

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"ai-query-router-be/internal/constant"
	"ai-query-router-be/internal/entity"
	"ai-query-router-be/pkg/ai/handler"
)

var (
	ErrHandlerTimeout = errors.New("handler timed out")
	ErrHandlerFailed  = errors.New("handler reported failure")
)

// Policy bounds one handler execution
type Policy struct {
	Timeout    time.Duration
	RetryCount int
	RetryDelay time.Duration
}

// PolicyFor derives the execution policy of a category configuration
func PolicyFor(cfg entity.HandlerConfiguration) Policy {
	timeout := cfg.Timeout
	if timeout <= 0 || timeout > constant.MaxHandlerTimeout {
		timeout = constant.MaxHandlerTimeout
	}
	return Policy{Timeout: timeout, RetryCount: cfg.RetryCount, RetryDelay: cfg.RetryDelay}
}

// Execution is the outcome of running a handler under a policy
type Execution struct {
	Response  *handler.Response
	Attempts  int
	LatencyMs int64
	Err       error
}

func (e Execution) Succeeded() bool {
	return e.Err == nil && e.Response != nil && e.Response.Success
}

// Execute validates the request once, then runs up to 1+RetryCount attempts,
// each under its own deadline, sleeping RetryDelay between attempts.
func Execute(ctx context.Context, h handler.Handler, req *handler.Request, policy Policy) Execution {
	started := time.Now()
	exec := Execution{}

	if err := h.Validate(req); err != nil {
		exec.Err = fmt.Errorf("%s: request rejected: %w", h.Category(), err)
		exec.LatencyMs = time.Since(started).Milliseconds()
		return exec
	}

	for attempt := 0; attempt <= policy.RetryCount; attempt++ {
		if attempt > 0 && !wait(ctx, policy.RetryDelay) {
			exec.Err = fmt.Errorf("%s: %w", h.Category(), ctx.Err())
			break
		}
		exec.Attempts++

		resp, err := runAttempt(ctx, h, attemptRequest(req, attempt+1), policy.Timeout)
		exec.Response = resp
		exec.Err = err
		if err == nil {
			break
		}
		if ctx.Err() != nil {
			break
		}
	}

	exec.LatencyMs = time.Since(started).Milliseconds()
	if exec.Response != nil {
		if exec.Response.Metadata == nil {
			exec.Response.Metadata = map[string]string{}
		}
		exec.Response.Metadata["latency_ms"] = strconv.FormatInt(exec.LatencyMs, 10)
	}
	return exec
}

type attemptOutcome struct {
	resp *handler.Response
	err  error
}

// runAttempt races the handler against the attempt deadline.
// On timeout the handler goroutine is abandoned; its context is cancelled and
// the buffered channel lets it finish without blocking.
func runAttempt(ctx context.Context, h handler.Handler, req *handler.Request, timeout time.Duration) (*handler.Response, error) {
	attemptCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	done := make(chan attemptOutcome, 1)
	go func() {
		defer func() {
			if rec := recover(); rec != nil {
				done <- attemptOutcome{err: fmt.Errorf("%s: handler panicked: %v", h.Category(), rec)}
			}
		}()
		resp, err := h.Handle(attemptCtx, req)
		done <- attemptOutcome{resp: resp, err: err}
	}()

	select {
	case out := <-done:
		switch {
		case out.err != nil:
			return out.resp, fmt.Errorf("%s: %w", h.Category(), out.err)
		case out.resp == nil:
			return nil, fmt.Errorf("%s: handler returned no response", h.Category())
		case !out.resp.Success:
			reason := out.resp.Error
			if reason == "" {
				reason = "no reason given"
			}
			return out.resp, fmt.Errorf("%s: %w: %s", h.Category(), ErrHandlerFailed, reason)
		}
		return out.resp, nil
	case <-attemptCtx.Done():
		if ctx.Err() != nil {
			return nil, fmt.Errorf("%s: %w", h.Category(), ctx.Err())
		}
		return nil, fmt.Errorf("%s: %w after %s", h.Category(), ErrHandlerTimeout, timeout)
	}
}

// attemptRequest copies the request so an abandoned attempt never shares its metadata map
func attemptRequest(req *handler.Request, attempt int) *handler.Request {
	clone := *req
	clone.Metadata = make(map[string]string, len(req.Metadata)+1)
	for k, v := range req.Metadata {
		clone.Metadata[k] = v
	}
	clone.Metadata[constant.MetadataAttempt] = strconv.Itoa(attempt)
	return &clone
}

func wait(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return ctx.Err() == nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return true
	case <-ctx.Done():
		return false
	}
}
