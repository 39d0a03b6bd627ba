package diag

import "fmt"

// Severity indicates the importance level of a diagnostic.
type Severity int

const (
	// SeverityInfo indicates informational messages.
	SeverityInfo Severity = iota
	// SeverityWarning indicates advisory issues that never abort a build.
	SeverityWarning
	// SeverityError indicates fatal conditions, reported before aborting.
	SeverityError
)

// String returns the human-readable severity name.
func (s Severity) String() string {
	switch s {
	case SeverityInfo:
		return "INFO"
	case SeverityWarning:
		return "WARNING"
	case SeverityError:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

// Issue is a single diagnostic produced while rendering a tree.
type Issue struct {
	Severity Severity
	Message  string // Human-readable description
	Path     string // File the issue concerns (source-relative)
	Source   string // Page that referenced it, when applicable
}

// MissingLinkTarget builds the advisory issue for a markup link whose
// resolved target does not exist on disk.
func MissingLinkTarget(target, source string) Issue {
	return Issue{
		Severity: SeverityWarning,
		Message:  fmt.Sprintf("Missing link target: %s referenced from %s", target, source),
		Path:     target,
		Source:   source,
	}
}

// TemplateMissingPlaceholder builds the usage warning for a custom template
// lacking one of the required placeholders. Rendering proceeds regardless.
func TemplateMissingPlaceholder(placeholder, templatePath string) Issue {
	return Issue{
		Severity: SeverityWarning,
		Message:  fmt.Sprintf("Template %s is missing the %s placeholder", templatePath, placeholder),
		Path:     templatePath,
	}
}

// Collector accumulates issues for one build pass. Not safe for concurrent
// use; a build pass runs on a single goroutine.
type Collector struct {
	issues []Issue
}

// Add appends an issue.
func (c *Collector) Add(issue Issue) {
	c.issues = append(c.issues, issue)
}

// Issues returns everything collected, in emission order.
func (c *Collector) Issues() []Issue {
	return c.issues
}

// WarningCount returns the number of warning-level issues. In check mode
// this count is the pass/fail signal.
func (c *Collector) WarningCount() int {
	count := 0
	for _, issue := range c.issues {
		if issue.Severity == SeverityWarning {
			count++
		}
	}
	return count
}

// HasWarnings returns true if any warning-level issues exist.
func (c *Collector) HasWarnings() bool {
	return c.WarningCount() > 0
}
