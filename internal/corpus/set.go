// File path: internal/corpus/set.go
package corpus

import (
	"strings"

	"github.com/nicodishanthj/sqlverdict/internal/extract"
	"github.com/nicodishanthj/sqlverdict/internal/fingerprint"
)

// FingerprintSet maps each fingerprint to the artifacts that normalize to
// it, preserving first-seen order. A set belongs to exactly one code unit's
// analysis pass.
type FingerprintSet struct {
	owner *CodeUnit
	order []fingerprint.Fingerprint
	byFP  map[fingerprint.Fingerprint][]*SqlArtifact
}

// NewFingerprintSet constructs an empty set owned by the given unit.
func NewFingerprintSet(owner *CodeUnit) *FingerprintSet {
	return &FingerprintSet{
		owner: owner,
		byFP:  make(map[fingerprint.Fingerprint][]*SqlArtifact),
	}
}

// BuildFingerprintSet extracts statements from an arbitrary oracle output
// value and fingerprints them for the unit. The boolean reports whether
// extraction degraded to the raw-text fallback.
func BuildFingerprintSet(owner *CodeUnit, value interface{}) (*FingerprintSet, bool) {
	statements, degraded := extract.Statements(value)
	set := NewFingerprintSet(owner)
	for _, stmt := range statements {
		set.Add(&SqlArtifact{
			RawText:       stmt.SQL,
			ScenarioLabel: stmt.Scenario,
			Origin:        owner,
		})
	}
	return set, degraded
}

// Add fingerprints the artifact and appends it under its fingerprint.
// Artifacts with empty raw text are ignored.
func (s *FingerprintSet) Add(artifact *SqlArtifact) {
	if artifact == nil || strings.TrimSpace(artifact.RawText) == "" {
		return
	}
	fp := fingerprint.Normalize(artifact.RawText)
	if _, seen := s.byFP[fp]; !seen {
		s.order = append(s.order, fp)
	}
	s.byFP[fp] = append(s.byFP[fp], artifact)
}

// Owner returns the code unit this set was built for.
func (s *FingerprintSet) Owner() *CodeUnit { return s.owner }

// Len returns the number of distinct fingerprints.
func (s *FingerprintSet) Len() int { return len(s.order) }

// StatementCount returns the total number of artifacts across fingerprints.
func (s *FingerprintSet) StatementCount() int {
	n := 0
	for _, artifacts := range s.byFP {
		n += len(artifacts)
	}
	return n
}

// Fingerprints returns the fingerprints in first-seen order.
func (s *FingerprintSet) Fingerprints() []fingerprint.Fingerprint {
	out := make([]fingerprint.Fingerprint, len(s.order))
	copy(out, s.order)
	return out
}

// Contains reports whether the fingerprint is present.
func (s *FingerprintSet) Contains(fp fingerprint.Fingerprint) bool {
	_, ok := s.byFP[fp]
	return ok
}

// Artifacts returns the artifacts for a fingerprint in arrival order.
func (s *FingerprintSet) Artifacts(fp fingerprint.Fingerprint) []*SqlArtifact {
	return s.byFP[fp]
}

// First returns the earliest artifact for a fingerprint, or nil.
func (s *FingerprintSet) First(fp fingerprint.Fingerprint) *SqlArtifact {
	if artifacts := s.byFP[fp]; len(artifacts) > 0 {
		return artifacts[0]
	}
	return nil
}

// RawStatements returns the raw text of every artifact in first-seen order,
// one entry per fingerprint. Judgment requests use it to describe the whole
// set compactly.
func (s *FingerprintSet) RawStatements() []string {
	out := make([]string, 0, len(s.order))
	for _, fp := range s.order {
		if first := s.First(fp); first != nil {
			out = append(out, first.RawText)
		}
	}
	return out
}
