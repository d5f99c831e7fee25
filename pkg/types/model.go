package types

import "time"

// ModelLocation distinguishes a model hosted on the local machine/network
// from one reached over the public internet (spec §3).
type ModelLocation string

const (
	ModelLocal  ModelLocation = "Local"
	ModelRemote ModelLocation = "Remote"
)

// ModelInfo describes a configured LLM backend (spec §3).
type ModelInfo struct {
	ID             string
	Name           string
	Provider       string // "anthropic" | "openai" | "ollama" | "google" | custom endpoint
	Endpoint       string
	Type           ModelLocation
	APIKey         string
	ModelID        string
	MaxTokens      int
	Temperature    float32
	TimeoutSeconds int
	IsAvailable    bool
	LastTested     time.Time
	CustomHeaders  map[string]string

	// RateLimit bounds per-model request throughput, daily spend, and
	// concurrent in-flight requests (enforced by pkg/limiter, spec §4.7).
	// provider.Manager.SendRequest reserves throughput and a connection
	// slot but makes no daily-spend reservation, so the spend bound applies
	// only to callers of limiter.ReserveBudget. The zero value means
	// unlimited on every axis.
	RateLimit RateLimit
}

// RateLimit is the per-model throughput/budget/connection bound consumed
// by pkg/limiter. A zero field on any axis disables enforcement for that
// axis.
type RateLimit struct {
	MaxTokensPerMinute int
	MaxBudgetPerDayUSD float64
	MaxConcurrent      int
}

// MCPServerInfo describes a configured MCP tool server (spec §3).
type MCPServerInfo struct {
	ID                string
	Name              string
	Endpoint          string
	Type              ModelLocation
	SupportedTools    []string
	RequiresAuth      bool
	APIKey            string
	TimeoutSeconds    int
	KeepAliveInterval time.Duration
	AutoReconnect     bool
	IsConnected       bool
}

// Scan lifecycle, Finding/Recommendation, and the CodeAnalysis/Knowledge
// collaborator types live in types.go alongside ScanReport, which the scan
// engine (pkg/scan) and its CodeAnalysis collaborator (pkg/codeanalysis)
// are built against.
