// Package types defines the shared data model for the agent-orchestration
// runtime: requests, results, agents, and the error taxonomy every other
// package classifies failures against.
package types

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// ErrorKind is the taxonomy error values are classified into (spec §7).
// It is not a type hierarchy — components branch on the kind, never on a
// concrete error type, so retry/breaker logic stays a pure function of
// classification.
type ErrorKind int8

const (
	// KindInternal is the zero value: an unexpected failure with no more
	// specific classification.
	KindInternal ErrorKind = iota
	// KindInvalidArgument marks a validation rejection at ingress.
	KindInvalidArgument
	// KindNotFound marks "no agent/model/server matches".
	KindNotFound
	// KindAlreadyExists marks a duplicate registration.
	KindAlreadyExists
	// KindServiceUnavailable marks breaker-open, no active model, or no
	// connected MCP server.
	KindServiceUnavailable
	// KindTimeout marks a per-call deadline exceeded.
	KindTimeout
	// KindTransient marks a retryable network/HTTP failure.
	KindTransient
	// KindCancelled marks cooperative cancellation; never retried.
	KindCancelled
)

func (k ErrorKind) String() string {
	switch k {
	case KindInvalidArgument:
		return "InvalidArgument"
	case KindNotFound:
		return "NotFound"
	case KindAlreadyExists:
		return "AlreadyExists"
	case KindServiceUnavailable:
		return "ServiceUnavailable"
	case KindTimeout:
		return "Timeout"
	case KindTransient:
		return "Transient"
	case KindCancelled:
		return "Cancelled"
	default:
		return "Internal"
	}
}

// Error is the concrete error value carrying a Kind plus context. Every
// error surfaced across a component boundary is either an *Error or wraps
// one; callers classify with KindOf, never with errors.Is on a sentinel.
type Error struct {
	Kind ErrorKind
	Op   string // component/operation that raised it, e.g. "orchestrator.dispatch"
	Err  error  // wrapped cause, may be nil
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Op, e.Kind, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Op, e.Kind)
}

func (e *Error) Unwrap() error { return e.Err }

// NewError builds an *Error with the given kind and wrapped cause.
func NewError(kind ErrorKind, op string, cause error) *Error {
	return &Error{Kind: kind, Op: op, Err: cause}
}

// KindOf extracts the ErrorKind of err, defaulting to KindInternal when err
// doesn't carry one.
func KindOf(err error) ErrorKind {
	var e *Error
	if ok := asError(err, &e); ok {
		return e.Kind
	}
	return KindInternal
}

// asError is a small errors.As wrapper kept local to avoid importing
// "errors" in every caller that just wants KindOf.
func asError(err error, target **Error) bool {
	for err != nil {
		if e, ok := err.(*Error); ok { //nolint:errorlint // manual unwrap loop mirrors errors.As deliberately
			*target = e
			return true
		}
		u, ok := err.(interface{ Unwrap() error })
		if !ok {
			return false
		}
		err = u.Unwrap()
	}
	return false
}

// AgentType is advisory metadata on an Agent; capability is resolved by
// CanHandle, not by type (spec §3).
type AgentType string

const (
	AgentTypeCSharp      AgentType = "CSharp"
	AgentTypeJavaScript  AgentType = "JavaScript"
	AgentTypePython      AgentType = "Python"
	AgentTypeFixer       AgentType = "Fixer"
	AgentTypeRefactor    AgentType = "Refactor"
	AgentTypeValidator   AgentType = "Validator"
	AgentTypeKnowledge   AgentType = "Knowledge"
	AgentTypeShell       AgentType = "Shell"
	AgentTypeDispatcher  AgentType = "Dispatcher"
	AgentTypeIntentRoute AgentType = "IntentRouter"
	AgentTypeUtility     AgentType = "Utility"
	AgentTypeUnknown     AgentType = "Unknown"
)

// Priority orders QueueItems within the priority task queue (spec §4.1).
type Priority int8

const (
	PriorityCritical Priority = iota
	PriorityHigh
	PriorityNormal
	PriorityLow
)

func (p Priority) String() string {
	switch p {
	case PriorityCritical:
		return "Critical"
	case PriorityHigh:
		return "High"
	case PriorityNormal:
		return "Normal"
	default:
		return "Low"
	}
}

// priorityOrder lists priorities from highest to lowest, the order Dequeue
// scans in.
//
//nolint:gochecknoglobals // fixed scan order, not mutable configuration
var priorityOrder = [...]Priority{PriorityCritical, PriorityHigh, PriorityNormal, PriorityLow}

// PriorityOrder returns the fixed highest-to-lowest scan order.
func PriorityOrder() []Priority { return priorityOrder[:] }

// Request is the unit of work submitted to the orchestrator (spec §3).
// Once validated at ingress it is treated as immutable by every downstream
// component.
type Request struct {
	ID                 uuid.UUID
	Prompt             string
	Content            string
	FilePath           string
	UserID             string
	PreferredAgentType AgentType
	Context            map[string]any
	CreatedAt          time.Time
}

// Validate enforces the Request invariant from spec §3: id, prompt, and
// userId are required.
func (r *Request) Validate() error {
	if r == nil {
		return NewError(KindInvalidArgument, "request.Validate", fmt.Errorf("request is nil"))
	}
	if r.ID == uuid.Nil {
		return NewError(KindInvalidArgument, "request.Validate", fmt.Errorf("id is required"))
	}
	if r.Prompt == "" {
		return NewError(KindInvalidArgument, "request.Validate", fmt.Errorf("prompt is required"))
	}
	if r.UserID == "" {
		return NewError(KindInvalidArgument, "request.Validate", fmt.Errorf("userId is required"))
	}
	return nil
}

// Result is returned by ProcessRequest and by every Agent.Handle call
// (spec §3).
type Result struct {
	Success        bool
	Message        string
	Content        string
	AgentName      string
	ProcessingTime time.Duration
	Metadata       map[string]any
	Exception      *Error
}

// WithMetadata sets a metadata key, initializing the map if needed, and
// returns the result for chaining.
func (r *Result) WithMetadata(key string, value any) *Result {
	if r.Metadata == nil {
		r.Metadata = make(map[string]any)
	}
	r.Metadata[key] = value
	return r
}

// AgentState is the lifecycle of a registered Agent (spec §3).
type AgentState string

const (
	AgentPending      AgentState = "Pending"
	AgentInitializing AgentState = "Initializing"
	AgentRunning      AgentState = "Running"
	AgentStopping     AgentState = "Stopping"
	AgentStopped      AgentState = "Stopped"
	AgentFaulted      AgentState = "Faulted"
)

// Health is the health rollup of a registered Agent (spec §3).
type Health string

const (
	HealthHealthy   Health = "Healthy"
	HealthDegraded  Health = "Degraded"
	HealthUnhealthy Health = "Unhealthy"
	HealthUnknown   Health = "Unknown"
)

// Agent is the capability set every worker implements (spec §3, §9 —
// a small interface implemented by tagged variants, not a class hierarchy).
type Agent interface {
	Name() string
	Type() AgentType
	CanHandle(req *Request) bool
	Handle(ctx context.Context, req *Request) (*Result, error)
	Init(ctx context.Context) error
	Shutdown(ctx context.Context) error
}

// RoutingDecision is carried in an IntentRouter agent's Result.Metadata
// (spec §4.4 step 3).
type RoutingDecision struct {
	TargetAgent     string
	TargetAgentType AgentType
	Confidence      float64
}

// WorkflowRunner is the external collaborator consumed when a request
// opts into multi-step workflow execution (spec §4.4 step 2, §6). The
// core never implements it; it is supplied by the process composing the
// runtime.
type WorkflowRunner interface {
	ExecuteWorkflow(ctx context.Context, req *Request) (*Result, error)
}

// NewRequestID generates a fresh, nonzero request identifier.
func NewRequestID() uuid.UUID {
	return uuid.New()
}

// FindingSeverity classifies a scan Finding's urgency (spec §4.6).
type FindingSeverity string

const (
	SeverityCritical FindingSeverity = "Critical"
	SeverityHigh     FindingSeverity = "High"
	SeverityMedium   FindingSeverity = "Medium"
	SeverityLow      FindingSeverity = "Low"
	SeverityInfo     FindingSeverity = "Info"
)

// FindingType classifies the category of issue a Finding represents (spec
// §4.6 step 4 names SecurityIssue/PerformanceIssue as the two that drive
// synthesized recommendations).
type FindingType string

const (
	FindingSecurityIssue    FindingType = "SecurityIssue"
	FindingPerformanceIssue FindingType = "PerformanceIssue"
	FindingStyleIssue       FindingType = "StyleIssue"
	FindingBug              FindingType = "Bug"
	FindingMaintainability  FindingType = "Maintainability"
)

// Issue is a single problem the CodeAnalysis collaborator detects in a
// file's content (spec §6). The scan engine maps each Issue onto a
// Finding, attaching the file path it came from.
type Issue struct {
	Severity   FindingSeverity
	Type       FindingType
	Message    string
	Line       int
	Confidence float64
}

// Finding is one issue surfaced by the scan engine for a single file
// (spec §3 ScanReport.findings).
type Finding struct {
	FilePath   string
	Language   string
	Severity   FindingSeverity
	Type       FindingType
	Message    string
	Line       int
	Confidence float64
}

// Recommendation is a report-level suggestion, either synthesized from
// aggregate findings (spec §4.6 step 4) or returned as an AI insight
// (spec §4.6 step 3).
type Recommendation struct {
	Title  string
	Detail string
}

// ScanStatus is the lifecycle of a ScanReport (spec §3).
type ScanStatus string

const (
	ScanNotStarted ScanStatus = "NotStarted"
	ScanRunning    ScanStatus = "Running"
	ScanCompleted  ScanStatus = "Completed"
	ScanCancelled  ScanStatus = "Cancelled"
	ScanFailed     ScanStatus = "Failed"
)

// ScanReport is a scan Engine's current scan state (spec §3,
// §4.6). Mutations are serialized by the scan engine's mutex; a snapshot
// returned to a caller is a value copy, safe to read without locking.
type ScanReport struct {
	ID              uuid.UUID
	WorkspacePath   string
	StartTime       time.Time
	EndTime         time.Time
	Status          ScanStatus
	TotalFiles      int
	FilesAnalyzed   int
	Findings        []Finding
	Recommendations []Recommendation
	Statistics      map[string]float64
	Error           string
}

// CodeContext is returned by CodeAnalysis.ExtractContext (spec §6).
type CodeContext struct {
	Snippet   string
	Language  string
	StartLine int
	EndLine   int
}

// CodeAnalysis is the external collaborator that understands source code
// (spec §6): it detects a file's language and analyzes its content for
// issues. The core never implements it; pkg/codeanalysis supplies a
// concrete adapter, and the scan engine (pkg/scan) is its primary
// consumer.
type CodeAnalysis interface {
	DetectLanguage(content string, fileName string) string
	AnalyzeCode(ctx context.Context, content string, language string) ([]Issue, error)
	ExtractContext(code string, position int) (CodeContext, error)
}

// KnowledgeItem is one retrieved snippet from the optional Knowledge
// collaborator (spec §6).
type KnowledgeItem struct {
	Source  string
	Content string
	Score   float64
}

// Knowledge is the optional external collaborator retrieving context
// snippets to augment provider prompts and scan insights (spec §6).
type Knowledge interface {
	Retrieve(ctx context.Context, query string, k int) ([]KnowledgeItem, error)
}
