package entity

import (
	"errors"
	"fmt"
	"time"

	"ai-query-router-be/internal/constant"
)

// HandlerConfiguration describes how the handler of one category is built and run
type HandlerConfiguration struct {
	Category       Category
	Implementation string
	Provider       string
	Model          string
	Timeout        time.Duration
	RetryCount     int
	RetryDelay     time.Duration
	Resources      map[string]string
	Instructions   string
	Enabled        bool
	Examples       []string
}

// Validate checks the cross-field rules that struct tags cannot express
func (c HandlerConfiguration) Validate() error {
	var errs []error

	if !c.Category.Valid() {
		errs = append(errs, fmt.Errorf("unknown category %q", c.Category))
	}
	if c.Implementation == "" {
		errs = append(errs, fmt.Errorf("%s: implementation is required", c.Category))
	}
	if c.Timeout <= 0 {
		errs = append(errs, fmt.Errorf("%s: timeout must be positive", c.Category))
	}
	if c.Timeout > constant.MaxHandlerTimeout {
		errs = append(errs, fmt.Errorf("%s: timeout %s exceeds ceiling %s", c.Category, c.Timeout, constant.MaxHandlerTimeout))
	}
	if c.RetryCount < 0 || c.RetryCount > constant.MaxRetryCount {
		errs = append(errs, fmt.Errorf("%s: retry_count must be between 0 and %d", c.Category, constant.MaxRetryCount))
	}
	if c.RetryDelay < 0 {
		errs = append(errs, fmt.Errorf("%s: retry_delay must not be negative", c.Category))
	}
	if c.Timeout > 0 && c.RetryDelay >= 0 && !c.WithinLatencyBudget() {
		errs = append(errs, fmt.Errorf("%s: worst case latency %s exceeds the %s budget", c.Category, c.WorstCaseLatency(), constant.LatencyBudget))
	}
	if c.needsKnowledgeBase() && c.Resources[constant.ResourceKnowledgeBase] == "" {
		errs = append(errs, fmt.Errorf("%s: resources.%s is required", c.Category, constant.ResourceKnowledgeBase))
	}

	return errors.Join(errs...)
}

func (c HandlerConfiguration) needsKnowledgeBase() bool {
	return c.Category.RequiresKnowledgeResource() || c.Implementation == constant.ImplementationKnowledge
}

// WorstCaseLatency is (timeout + retry delay) for every attempt including the first.
// At least one retry is always budgeted, so a zero retry count still counts two attempts.
func (c HandlerConfiguration) WorstCaseLatency() time.Duration {
	retries := c.RetryCount
	if retries < 1 {
		retries = 1
	}
	return (c.Timeout + c.RetryDelay) * time.Duration(1+retries)
}

// WithinLatencyBudget reports whether the worst case stays under the end-to-end target
func (c HandlerConfiguration) WithinLatencyBudget() bool {
	return c.WorstCaseLatency() <= constant.LatencyBudget
}

// Resource returns a declared resource reference
func (c HandlerConfiguration) Resource(key string) (string, bool) {
	v, ok := c.Resources[key]
	return v, ok && v != ""
}
