package router

import (
	"ai-query-router-be/internal/entity"
	"ai-query-router-be/pkg/ai/handler"
)

// ErrorKind is the fine grained failure class, meant for logs and metrics only
type ErrorKind string

const (
	ErrorKindNone           ErrorKind = ""
	ErrorKindValidation     ErrorKind = "validation"
	ErrorKindLowConfidence  ErrorKind = "low_confidence"
	ErrorKindNoHandler      ErrorKind = "no_handler"
	ErrorKindHandlerFailure ErrorKind = "handler_failure"
	ErrorKindInternal       ErrorKind = "internal"
)

// Result is what Route returns for every query, whatever happened
type Result struct {
	Success   bool
	Outcome   entity.Outcome
	ErrorKind ErrorKind
	Query     *entity.Query
	Decision  *entity.RoutingDecision
	// Response is the final handler answer, the fallback's when fallback ran
	Response *handler.Response
	// HandledBy is the category whose handler produced Response
	HandledBy *entity.Category
	// Clarification is the question sent back when confidence is too low
	Clarification string
	Error         string
	LatencyMs     int64
}

// Reply is the text a chat surface should show the user
func (r *Result) Reply() string {
	switch {
	case r.Outcome == entity.OutcomeClarification:
		return r.Clarification
	case r.Response != nil && r.Response.Success:
		return r.Response.Text
	default:
		return "Sorry, I could not answer that right now. Please try again later."
	}
}
