// File path: internal/corpus/types.go
package corpus

import (
	"fmt"
	"strings"
)

// SourceSpan locates a piece of analyzed code. The fields are pass-through
// descriptors for the oracle and the report; nothing in the pipeline
// interprets them.
type SourceSpan struct {
	File      string `json:"code_file"`
	StartLine int    `json:"code_start_line"`
	EndLine   int    `json:"code_end_line"`
}

func (s SourceSpan) String() string {
	if s.StartLine == 0 && s.EndLine == 0 {
		return s.File
	}
	return fmt.Sprintf("%s:%d-%d", s.File, s.StartLine, s.EndLine)
}

// CodeUnit identifies one analyzed function: its name, the analyzed source
// text (opaque to this package), the chain of callers that reach it, and
// source-location metadata. A CodeUnit is immutable once constructed.
type CodeUnit struct {
	FunctionName string       `json:"function_name"`
	SourceText   string       `json:"source_text"`
	CallerChain  []string     `json:"caller_chain,omitempty"`
	Meta         []SourceSpan `json:"meta,omitempty"`
}

// CallerText renders the caller chain as a single descriptor for judgment
// requests.
func (u *CodeUnit) CallerText() string {
	if u == nil || len(u.CallerChain) == 0 {
		return ""
	}
	return strings.Join(u.CallerChain, " -> ")
}

// MetaText renders the source-location descriptors for judgment requests.
func (u *CodeUnit) MetaText() string {
	if u == nil || len(u.Meta) == 0 {
		return ""
	}
	parts := make([]string, 0, len(u.Meta))
	for _, span := range u.Meta {
		parts = append(parts, span.String())
	}
	return strings.Join(parts, "; ")
}

// Validate checks the identifying fields required for a comparison job.
func (u *CodeUnit) Validate() error {
	var missing []string
	if u == nil {
		return &MalformedUnitError{Missing: []string{"code unit"}}
	}
	if strings.TrimSpace(u.FunctionName) == "" {
		missing = append(missing, "function_name")
	}
	if strings.TrimSpace(u.SourceText) == "" {
		missing = append(missing, "source_text")
	}
	if len(missing) > 0 {
		return &MalformedUnitError{Missing: missing}
	}
	return nil
}

// MalformedUnitError reports a code unit that cannot anchor a comparison.
// It fails the whole job and is surfaced to the caller.
type MalformedUnitError struct {
	Missing []string
}

func (e *MalformedUnitError) Error() string {
	return fmt.Sprintf("corpus: malformed code unit: missing %s", strings.Join(e.Missing, ", "))
}

// SqlArtifact is one recovered SQL statement attributed to a code unit.
// Origin is a back-reference only; the artifact never owns the unit.
type SqlArtifact struct {
	RawText       string    `json:"raw_text"`
	ScenarioLabel string    `json:"scenario_label,omitempty"`
	Origin        *CodeUnit `json:"-"`
}
