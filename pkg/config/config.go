// Package config provides configuration loading, validation, and
// persistence for the A3sist runtime: the configured model/MCP-server
// lists and the tunables for the queue, breaker, governor, and scan
// components. Grounded on the teacher's pkg/config: a single mutex-guarded
// global Config, JSON-on-disk persistence, schema versioning, and atomic
// Update* functions that validate before they persist.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/ShadmanAbir/A3sist-sub000/pkg/breaker/circuit"
	"github.com/ShadmanAbir/A3sist-sub000/pkg/breaker/retry"
	"github.com/ShadmanAbir/A3sist-sub000/pkg/types"
)

// SchemaVersion identifies the on-disk config shape. Bump it for any
// breaking structural change.
const SchemaVersion = "1.0"

// ConfigDirName and ConfigFileName locate the config file relative to a
// project/workspace root: <root>/.a3sist/config.json.
const (
	ConfigDirName  = ".a3sist"
	ConfigFileName = "config.json"
)

//nolint:gochecknoglobals // intentional singleton, guarded by mu
var (
	current   *Config
	configDir string
	mu        sync.RWMutex
)

// QueueConfig tunes the priority task queue (pkg/queue).
type QueueConfig struct {
	MaxDepth int `json:"max_depth"` // 0 means unbounded
}

// GovernorConfig tunes the concurrency governor's auto-tune loop
// (pkg/governor).
type GovernorConfig struct {
	TuneSchedule string `json:"tune_schedule"` // cron expression, e.g. "@every 30s"
}

// ScanConfig tunes the workspace scan engine (pkg/scan).
type ScanConfig struct {
	SupportedExtensions []string `json:"supported_extensions"`
	MaxFileBytes        int64    `json:"max_file_bytes"`
}

// ResilienceConfig bundles the breaker/retry settings shared by every
// middleware-wrapped call the orchestrator and provider/mcp clients make.
type ResilienceConfig struct {
	CircuitBreaker circuit.Config `json:"circuit_breaker"`
	Retry          retry.Config   `json:"retry"`
	Timeout        time.Duration  `json:"timeout"`
}

// Config is the complete, persisted A3sist configuration.
type Config struct {
	SchemaVersion string `json:"schema_version"`

	Models     []types.ModelInfo     `json:"models"`
	MCPServers []types.MCPServerInfo `json:"mcp_servers"`

	Queue      QueueConfig      `json:"queue"`
	Governor   GovernorConfig   `json:"governor"`
	Scan       ScanConfig       `json:"scan"`
	Resilience ResilienceConfig `json:"resilience"`
}

// GetConfig returns the current global config by value, preventing
// external mutation; callers must go through the Update* functions to
// change anything.
func GetConfig() (Config, error) {
	mu.RLock()
	defer mu.RUnlock()
	if current == nil {
		return Config{}, fmt.Errorf("config not loaded - call Load first")
	}
	return *current, nil
}

// Load reads <dir>/.a3sist/config.json into the global singleton,
// decrypting any API keys found in the sibling secrets store
// (see secrets.go). A missing file is not an error: a default config is
// created and saved. An existing but unparseable file IS an error, to
// avoid silently discarding the user's configuration.
func Load(dir string) error {
	mu.Lock()
	defer mu.Unlock()

	configDir = dir
	path := filepath.Join(dir, ConfigDirName, ConfigFileName)

	if _, err := os.Stat(path); os.IsNotExist(err) {
		current = defaultConfig()
		if err := validate(current); err != nil {
			return fmt.Errorf("default config failed validation: %w", err)
		}
		return saveLocked()
	}

	data, err := os.ReadFile(path) //nolint:gosec // path is built from a caller-supplied project dir, not request input
	if err != nil {
		return fmt.Errorf("failed to read config file %s: %w", path, err)
	}
	var loaded Config
	if err := json.Unmarshal(data, &loaded); err != nil {
		return fmt.Errorf("config file exists but cannot be parsed, refusing to overwrite it: %w", err)
	}

	applyDefaults(&loaded)
	if err := hydrateSecrets(dir, &loaded); err != nil {
		return fmt.Errorf("failed to hydrate secrets: %w", err)
	}
	if err := validate(&loaded); err != nil {
		return fmt.Errorf("config validation failed: %w", err)
	}

	current = &loaded
	return nil
}

// UpdateModels atomically replaces the configured model list, validating
// and persisting it. API keys are re-encrypted into the secrets store;
// the on-disk config.json never holds a plaintext key.
func UpdateModels(models []types.ModelInfo) error {
	mu.Lock()
	defer mu.Unlock()
	if current == nil {
		return fmt.Errorf("config not loaded - call Load first")
	}
	prev := current.Models
	current.Models = models
	if err := validate(current); err != nil {
		current.Models = prev
		return err
	}
	return saveLocked()
}

// UpdateMCPServers atomically replaces the configured MCP server list.
func UpdateMCPServers(servers []types.MCPServerInfo) error {
	mu.Lock()
	defer mu.Unlock()
	if current == nil {
		return fmt.Errorf("config not loaded - call Load first")
	}
	prev := current.MCPServers
	current.MCPServers = servers
	if err := validate(current); err != nil {
		current.MCPServers = prev
		return err
	}
	return saveLocked()
}

// UpdateResilience atomically replaces the breaker/retry/timeout tunables.
func UpdateResilience(r ResilienceConfig) error {
	mu.Lock()
	defer mu.Unlock()
	if current == nil {
		return fmt.Errorf("config not loaded - call Load first")
	}
	prev := current.Resilience
	current.Resilience = r
	if err := validate(current); err != nil {
		current.Resilience = prev
		return err
	}
	return saveLocked()
}

// UpdateScan atomically replaces the scan engine tunables.
func UpdateScan(s ScanConfig) error {
	mu.Lock()
	defer mu.Unlock()
	if current == nil {
		return fmt.Errorf("config not loaded - call Load first")
	}
	prev := current.Scan
	current.Scan = s
	if err := validate(current); err != nil {
		current.Scan = prev
		return err
	}
	return saveLocked()
}

// saveLocked persists the current config, with API keys stripped out into
// the encrypted secrets store. Caller must hold mu.
func saveLocked() error {
	if configDir == "" {
		return fmt.Errorf("config not loaded - call Load first")
	}

	onDisk := *current
	onDisk.Models = make([]types.ModelInfo, len(current.Models))
	copy(onDisk.Models, current.Models)
	onDisk.MCPServers = make([]types.MCPServerInfo, len(current.MCPServers))
	copy(onDisk.MCPServers, current.MCPServers)

	if err := extractSecrets(configDir, &onDisk); err != nil {
		return fmt.Errorf("failed to persist secrets: %w", err)
	}

	dir := filepath.Join(configDir, ConfigDirName)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := json.MarshalIndent(onDisk, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	path := filepath.Join(dir, ConfigFileName)
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// defaultConfig builds a config with sensible defaults, grounded on the
// teacher's createDefaultConfig.
func defaultConfig() *Config {
	return &Config{
		SchemaVersion: SchemaVersion,
		Queue:         QueueConfig{MaxDepth: 0},
		Governor:      GovernorConfig{TuneSchedule: "@every 30s"},
		Scan: ScanConfig{
			SupportedExtensions: []string{
				".go", ".py", ".js", ".jsx", ".ts", ".tsx", ".java", ".cs",
				".cpp", ".cc", ".c", ".h", ".hpp", ".rb", ".php", ".rs",
				".md", ".json", ".yaml", ".yml", ".sql",
			},
			MaxFileBytes: 2 * 1024 * 1024,
		},
		Resilience: ResilienceConfig{
			CircuitBreaker: circuit.DefaultConfig,
			Retry:          retry.DefaultConfig,
			Timeout:        60 * time.Second,
		},
	}
}

// applyDefaults fills in zero-valued sections of a loaded config, so that
// a config.json predating a new field doesn't break.
func applyDefaults(c *Config) {
	if c.SchemaVersion == "" {
		c.SchemaVersion = SchemaVersion
	}
	if len(c.Scan.SupportedExtensions) == 0 {
		c.Scan.SupportedExtensions = defaultConfig().Scan.SupportedExtensions
	}
	if c.Scan.MaxFileBytes == 0 {
		c.Scan.MaxFileBytes = 2 * 1024 * 1024
	}
	if c.Governor.TuneSchedule == "" {
		c.Governor.TuneSchedule = "@every 30s"
	}
	if c.Resilience.CircuitBreaker.FailureThreshold == 0 {
		c.Resilience.CircuitBreaker = circuit.DefaultConfig
	}
	if c.Resilience.Retry.MaxAttempts == 0 {
		c.Resilience.Retry = retry.DefaultConfig
	}
	if c.Resilience.Timeout == 0 {
		c.Resilience.Timeout = 60 * time.Second
	}
}

// validate checks every cross-reference and required field: model/server
// IDs are unique, and SetActive-style lookups in pkg/provider/pkg/mcp will
// find what they expect.
func validate(c *Config) error {
	seen := make(map[string]bool, len(c.Models))
	for _, m := range c.Models {
		if m.ID == "" {
			return fmt.Errorf("model entry missing id")
		}
		if seen[m.ID] {
			return fmt.Errorf("duplicate model id %q", m.ID)
		}
		seen[m.ID] = true
	}

	seenServers := make(map[string]bool, len(c.MCPServers))
	for _, s := range c.MCPServers {
		if s.ID == "" {
			return fmt.Errorf("mcp server entry missing id")
		}
		if seenServers[s.ID] {
			return fmt.Errorf("duplicate mcp server id %q", s.ID)
		}
		seenServers[s.ID] = true
	}

	if c.Resilience.CircuitBreaker.FailureThreshold <= 0 {
		return fmt.Errorf("resilience.circuit_breaker.failure_threshold must be positive")
	}
	if c.Resilience.Retry.MaxAttempts <= 0 {
		return fmt.Errorf("resilience.retry.max_attempts must be positive")
	}
	return nil
}
