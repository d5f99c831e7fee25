// Package codeanalysis provides a concrete implementation of the
// CodeAnalysis collaborator consumed by the scan engine and other core
// components (spec §6). It detects a file's language from its extension
// and flags common security/style/maintainability patterns via compiled
// regular expressions, grounded on the teacher's pattern-scanner idiom
// (pkg/chat/scanner.go: compiled regex list applied line-by-line),
// generalized from secret redaction to general-purpose issue detection.
package codeanalysis

import (
	"context"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/ShadmanAbir/A3sist-sub000/pkg/types"
)

//nolint:gochecknoglobals // fixed extension-to-language lookup table
var languageByExtension = map[string]string{
	".go": "Go", ".py": "Python", ".js": "JavaScript", ".jsx": "JavaScript",
	".ts": "TypeScript", ".tsx": "TypeScript", ".cs": "CSharp", ".java": "Java",
	".cpp": "C++", ".cc": "C++", ".c": "C", ".h": "C", ".hpp": "C++",
	".rb": "Ruby", ".php": "PHP", ".rs": "Rust", ".sql": "SQL",
	".json": "JSON", ".yaml": "YAML", ".yml": "YAML", ".md": "Markdown",
}

// rule is one compiled detection pattern, applied line-by-line, mapped
// onto an Issue shape.
type rule struct {
	pattern    *regexp.Regexp
	severity   types.FindingSeverity
	kind       types.FindingType
	message    string
	confidence float64
}

// Analyzer is a regex-pattern-based types.CodeAnalysis implementation.
// Construct with New for the default rule set.
type Analyzer struct {
	rules []rule
}

// New builds an Analyzer with the default detection rules.
func New() *Analyzer {
	return &Analyzer{rules: defaultRules()}
}

// DetectLanguage implements types.CodeAnalysis. Language is resolved
// from the file extension; content is accepted for interface symmetry
// but unused by this implementation.
func (a *Analyzer) DetectLanguage(_ string, fileName string) string {
	ext := strings.ToLower(filepath.Ext(fileName))
	if lang, ok := languageByExtension[ext]; ok {
		return lang
	}
	return "Unknown"
}

// AnalyzeCode implements types.CodeAnalysis: it scans content against
// every compiled rule, line by line, and returns one Issue per match.
func (a *Analyzer) AnalyzeCode(ctx context.Context, content, _ string) ([]types.Issue, error) {
	lines := strings.Split(content, "\n")
	var issues []types.Issue

	for _, r := range a.rules {
		if err := ctx.Err(); err != nil {
			return issues, types.NewError(types.KindCancelled, "codeanalysis.AnalyzeCode", err)
		}
		for lineNum, line := range lines {
			if r.pattern.MatchString(line) {
				issues = append(issues, types.Issue{
					Severity:   r.severity,
					Type:       r.kind,
					Message:    r.message,
					Line:       lineNum + 1,
					Confidence: r.confidence,
				})
			}
		}
	}
	return issues, nil
}

// ExtractContext implements types.CodeAnalysis: it returns the single
// line containing the byte offset position.
func (a *Analyzer) ExtractContext(code string, position int) (types.CodeContext, error) {
	if position < 0 || position > len(code) {
		return types.CodeContext{}, types.NewError(types.KindInvalidArgument, "codeanalysis.ExtractContext", nil)
	}

	lineStart := strings.LastIndexByte(code[:position], '\n') + 1
	lineEnd := len(code)
	if rel := strings.IndexByte(code[position:], '\n'); rel >= 0 {
		lineEnd = position + rel
	}
	lineNum := strings.Count(code[:lineStart], "\n") + 1

	return types.CodeContext{
		Snippet:   code[lineStart:lineEnd],
		StartLine: lineNum,
		EndLine:   lineNum,
	}, nil
}

// defaultRules returns the built-in detection patterns. These are
// deliberately simple single-line heuristics, not a full static
// analyzer; a real deployment would configure rules per language.
func defaultRules() []rule {
	return []rule{
		{
			pattern:    regexp.MustCompile(`(?i)(api[_-]?key|secret|password|token)\s*[:=]\s*['"][A-Za-z0-9_\-]{8,}['"]`),
			severity:   types.SeverityCritical,
			kind:       types.FindingSecurityIssue,
			message:    "hardcoded credential",
			confidence: 0.9,
		},
		{
			pattern:    regexp.MustCompile(`(?i)\beval\s*\(`),
			severity:   types.SeverityHigh,
			kind:       types.FindingSecurityIssue,
			message:    "use of eval is a common injection vector",
			confidence: 0.7,
		},
		{
			pattern:    regexp.MustCompile(`(?i)\bselect\b.*\+.*\bfrom\b`),
			severity:   types.SeverityHigh,
			kind:       types.FindingSecurityIssue,
			message:    "possible SQL injection via string concatenation",
			confidence: 0.6,
		},
		{
			pattern:    regexp.MustCompile(`(?i)\bTODO\b|\bFIXME\b|\bHACK\b`),
			severity:   types.SeverityLow,
			kind:       types.FindingMaintainability,
			message:    "unresolved TODO/FIXME/HACK marker",
			confidence: 0.95,
		},
		{
			pattern:    regexp.MustCompile(`^.{121,}$`),
			severity:   types.SeverityLow,
			kind:       types.FindingStyleIssue,
			message:    "line exceeds 120 characters",
			confidence: 0.99,
		},
	}
}
