// File path: internal/corpus/set_test.go
package corpus

import (
	"testing"

	"github.com/nicodishanthj/sqlverdict/internal/fingerprint"
)

func testUnit(name string) *CodeUnit {
	return &CodeUnit{
		FunctionName: name,
		SourceText:   "def " + name + "(): pass",
		CallerChain:  []string{"caller_a", "caller_b"},
	}
}

func TestFingerprintSetDeduplicatesByNormalization(t *testing.T) {
	set := NewFingerprintSet(testUnit("get_users"))
	set.Add(&SqlArtifact{RawText: "SELECT id FROM users"})
	set.Add(&SqlArtifact{RawText: "select  id\nfrom users"})
	set.Add(&SqlArtifact{RawText: "SELECT name FROM users"})

	if set.Len() != 2 {
		t.Fatalf("expected 2 distinct fingerprints, got %d", set.Len())
	}
	if set.StatementCount() != 3 {
		t.Fatalf("expected 3 artifacts, got %d", set.StatementCount())
	}
	fp := fingerprint.Normalize("SELECT id FROM users")
	if got := len(set.Artifacts(fp)); got != 2 {
		t.Fatalf("expected 2 artifacts under %q, got %d", fp, got)
	}
	if first := set.First(fp); first == nil || first.RawText != "SELECT id FROM users" {
		t.Fatalf("First must return the earliest artifact, got %+v", first)
	}
}

func TestFingerprintSetOrderAndRawStatements(t *testing.T) {
	set := NewFingerprintSet(testUnit("get_orders"))
	set.Add(&SqlArtifact{RawText: "SELECT b FROM t"})
	set.Add(&SqlArtifact{RawText: "SELECT a FROM t"})
	set.Add(&SqlArtifact{RawText: "select b from t"})

	fps := set.Fingerprints()
	if len(fps) != 2 || fps[0] != fingerprint.Normalize("SELECT b FROM t") {
		t.Fatalf("first-seen order lost: %v", fps)
	}
	raws := set.RawStatements()
	if len(raws) != 2 || raws[0] != "SELECT b FROM t" || raws[1] != "SELECT a FROM t" {
		t.Fatalf("unexpected raw statements: %v", raws)
	}
}

func TestFingerprintSetIgnoresEmpty(t *testing.T) {
	set := NewFingerprintSet(testUnit("noop"))
	set.Add(nil)
	set.Add(&SqlArtifact{RawText: "   "})
	if set.Len() != 0 || set.StatementCount() != 0 {
		t.Fatalf("empty artifacts must be ignored")
	}
}

func TestBuildFingerprintSetFromOracleValue(t *testing.T) {
	unit := testUnit("get_users")
	set, degraded := BuildFingerprintSet(unit, []interface{}{
		"SELECT id FROM users",
		map[string]interface{}{"sql": "SELECT name FROM users"},
	})
	if degraded {
		t.Fatalf("well-formed value should not degrade")
	}
	if set.Len() != 2 {
		t.Fatalf("expected 2 fingerprints, got %d", set.Len())
	}
	if set.Owner() != unit {
		t.Fatalf("owner lost")
	}
	for _, fp := range set.Fingerprints() {
		for _, artifact := range set.Artifacts(fp) {
			if artifact.Origin != unit {
				t.Fatalf("artifact origin must point at the owning unit")
			}
		}
	}
}

func TestCodeUnitValidate(t *testing.T) {
	valid := testUnit("ok")
	if err := valid.Validate(); err != nil {
		t.Fatalf("valid unit rejected: %v", err)
	}
	invalid := &CodeUnit{FunctionName: " ", SourceText: ""}
	err := invalid.Validate()
	if err == nil {
		t.Fatalf("expected validation failure")
	}
	malformed, ok := err.(*MalformedUnitError)
	if !ok {
		t.Fatalf("expected MalformedUnitError, got %T", err)
	}
	if len(malformed.Missing) != 2 {
		t.Fatalf("expected both identifying fields reported, got %v", malformed.Missing)
	}
}

func TestCallerAndMetaText(t *testing.T) {
	unit := &CodeUnit{
		FunctionName: "get_users",
		SourceText:   "...",
		CallerChain:  []string{"handler", "service"},
		Meta: []SourceSpan{
			{File: "app/models.py", StartLine: 10, EndLine: 25},
			{File: "app/util.py"},
		},
	}
	if got := unit.CallerText(); got != "handler -> service" {
		t.Fatalf("CallerText = %q", got)
	}
	if got := unit.MetaText(); got != "app/models.py:10-25; app/util.py" {
		t.Fatalf("MetaText = %q", got)
	}
}
