package constant

import "time"

const (
	ChatMessageRoleUser      = "user"
	ChatMessageRoleAssistant = "assistant"
	ChatMessageRoleSystem    = "system"
)

const (
	// MaxQueryWords is the word ceiling applied once when a query is built
	MaxQueryWords = 1000

	// MaxReasoningLength caps the classifier reasoning (characters, not bytes)
	MaxReasoningLength = 500

	// SessionTTL is the sliding idle window of a conversation context
	SessionTTL = 30 * time.Minute

	// MaxSessionHistory bounds both message and decision history
	MaxSessionHistory = 50
)

const (
	DefaultConfidenceThreshold = 0.7

	// SecondaryConfidenceFloor is the minimum score for a runner-up category to be reported
	SecondaryConfidenceFloor = 0.5

	// FallbackConfidence is assigned when a classifier cannot produce an answer
	FallbackConfidence = 0.5
)

const (
	// MaxHandlerTimeout is the hard ceiling for a single handler attempt
	MaxHandlerTimeout = 2 * time.Second

	// LatencyBudget is the end-to-end target for one routed query
	LatencyBudget = 3 * time.Second

	MaxRetryCount = 5

	// DefaultHandlerTimeout leaves room for one retry inside LatencyBudget
	DefaultHandlerTimeout = 1400 * time.Millisecond
)

// Resource keys understood by the built-in handlers
const (
	ResourceKnowledgeBase = "knowledge_base"
	ResourceReply         = "reply"
)

// Implementation identifiers of the built-in handlers
const (
	ImplementationPrompt    = "prompt"
	ImplementationKnowledge = "knowledge"
	ImplementationStatic    = "static"
)

const EventTypeRoutingDecided = "ROUTING_DECIDED"

// Request metadata keys set by the orchestrator
const (
	MetadataFallbackReason   = "fallback_reason"
	MetadataOriginalCategory = "original_category"
	MetadataAttempt          = "attempt"
)
