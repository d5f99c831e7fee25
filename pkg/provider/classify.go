package provider

import (
	"crypto/sha256"
	"fmt"
	"strings"

	"github.com/ShadmanAbir/A3sist-sub000/pkg/types"
)

// classifyHTTPStatus maps a provider's HTTP status code to the shared error
// taxonomy (spec §7), the same blocklist classification the teacher used to
// pick per-error-type retry configs, now feeding pkg/breaker/retry instead
// of a provider-local RetryConfig table.
func classifyHTTPStatus(statusCode int, body string, cause error) *types.Error {
	op := "provider.classify"
	switch {
	case statusCode == 401 || statusCode == 403:
		return types.NewError(types.KindInvalidArgument, op, fmt.Errorf("authentication rejected: %w", cause))
	case statusCode == 400 || statusCode == 404:
		return types.NewError(types.KindInvalidArgument, op, fmt.Errorf("bad request: %w", cause))
	case statusCode == 429:
		return types.NewError(types.KindTransient, op, fmt.Errorf("rate limited: %w", cause))
	case statusCode >= 500:
		return types.NewError(types.KindTransient, op, fmt.Errorf("upstream error %d: %w", statusCode, cause))
	case statusCode == 200 && strings.TrimSpace(body) == "":
		return types.NewError(types.KindTransient, op, fmt.Errorf("empty response body"))
	default:
		return types.NewError(types.KindInternal, op, cause)
	}
}

// sanitizePrompt returns a safe representation of prompt for logging: short
// prompts pass through unchanged, long ones are truncated to a head/tail
// plus a content hash for correlation across log lines.
func sanitizePrompt(prompt string, maxChars int) string {
	if len(prompt) <= maxChars {
		return prompt
	}

	halfMax := maxChars / 2
	if halfMax < 100 {
		halfMax = 100
	}

	first := prompt[:halfMax]
	last := prompt[len(prompt)-halfMax:]
	hash := sha256.Sum256([]byte(prompt))

	return fmt.Sprintf("%s...[%d chars, hash:%x]...%s", first, len(prompt), hash[:8], last)
}
