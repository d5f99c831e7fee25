package orchestrator

import "errors"

var (
	errBreakerOpen  = errors.New("circuit breaker open for target agent")
	errNoCandidates = errors.New("no registered agent can handle this request")
)
