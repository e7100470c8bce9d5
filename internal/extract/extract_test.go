// File path: internal/extract/extract_test.go
package extract

import (
	"strings"
	"testing"
)

func sqls(statements []Statement) []string {
	out := make([]string, 0, len(statements))
	for _, s := range statements {
		out = append(out, s.SQL)
	}
	return out
}

func TestFromTextPlainStatement(t *testing.T) {
	got, degraded := FromText("  SELECT * FROM users  ")
	if degraded {
		t.Fatalf("plain text should not degrade")
	}
	if len(got) != 1 || got[0].SQL != "SELECT * FROM users" {
		t.Fatalf("unexpected statements: %+v", got)
	}
}

func TestFromTextEmpty(t *testing.T) {
	got, degraded := FromText("   ")
	if degraded || len(got) != 0 {
		t.Fatalf("empty input should yield nothing, got %+v degraded=%v", got, degraded)
	}
}

func TestFromTextJSONArray(t *testing.T) {
	got, degraded := FromText(`["SELECT 1", "SELECT 2"]`)
	if degraded {
		t.Fatalf("valid JSON should not degrade")
	}
	want := []string{"SELECT 1", "SELECT 2"}
	if len(got) != len(want) {
		t.Fatalf("got %d statements, want %d: %+v", len(got), len(want), got)
	}
	for i, s := range sqls(got) {
		if s != want[i] {
			t.Fatalf("statement %d = %q, want %q", i, s, want[i])
		}
	}
}

func TestFromTextObjectWithVariants(t *testing.T) {
	raw := `{
		"sql": "SELECT base FROM t",
		"variants": [
			{"scenario": "admin", "sql": "SELECT * FROM t"},
			{"scenario": "batch", "sql": ["SELECT a FROM t", "SELECT b FROM t"]}
		]
	}`
	got, degraded := FromText(raw)
	if degraded {
		t.Fatalf("valid JSON should not degrade")
	}
	if len(got) != 4 {
		t.Fatalf("got %d statements, want 4: %+v", len(got), got)
	}
	if got[0].SQL != "SELECT base FROM t" || got[0].Scenario != "" {
		t.Fatalf("unexpected base statement: %+v", got[0])
	}
	if got[1].Scenario != "admin" {
		t.Fatalf("variant scenario lost: %+v", got[1])
	}
	if got[2].Scenario != "batch" || got[3].Scenario != "batch" {
		t.Fatalf("list variant scenarios lost: %+v", got[2:])
	}
}

func TestFromTextScenarioObjectList(t *testing.T) {
	raw := `[{"scenario":"a","sql":"SELECT 1;"},{"scenario":"b","sql":"SELECT 2;"}]`
	got, degraded := FromText(raw)
	if degraded {
		t.Fatalf("valid JSON should not degrade")
	}
	if len(got) != 2 {
		t.Fatalf("got %d statements, want 2: %+v", len(got), got)
	}
	if got[0].SQL != "SELECT 1;" || got[0].Scenario != "a" {
		t.Fatalf("unexpected first statement: %+v", got[0])
	}
	if got[1].SQL != "SELECT 2;" || got[1].Scenario != "b" {
		t.Fatalf("unexpected second statement: %+v", got[1])
	}
}

func TestFromTextSQLKeyHoldingList(t *testing.T) {
	got, degraded := FromText(`{"sql": ["SELECT 1;", "SELECT 2;"]}`)
	if degraded {
		t.Fatalf("valid JSON should not degrade")
	}
	want := []string{"SELECT 1;", "SELECT 2;"}
	if len(got) != len(want) {
		t.Fatalf("sql key holding a list must yield its statements, got %+v", got)
	}
	for i, s := range sqls(got) {
		if s != want[i] {
			t.Fatalf("statement %d = %q, want %q", i, s, want[i])
		}
	}
}

func TestFromTextRecoversEmbeddedJSON(t *testing.T) {
	raw := "Here are the statements you asked for:\n" +
		`{"sql": "SELECT id FROM users"}` + "\nHope that helps!"
	// Prose prefix means the text is not JSON-shaped, so it stays a single
	// raw statement.
	got, degraded := FromText(raw)
	if degraded || len(got) != 1 {
		t.Fatalf("prose-wrapped text: got %+v degraded=%v", got, degraded)
	}

	// A reply that starts with a bracket but has trailing garbage exercises
	// the fragment matcher.
	raw = `["SELECT id FROM users", "SELECT name FROM users"] -- and that's all`
	got, degraded = FromText(raw)
	if degraded {
		t.Fatalf("embedded fragment should be recovered, got degraded")
	}
	if len(got) != 2 || got[1].SQL != "SELECT name FROM users" {
		t.Fatalf("unexpected recovery: %+v", got)
	}
}

func TestFromTextDegradesToRawText(t *testing.T) {
	raw := `{"sql": "SELECT broken`
	got, degraded := FromText(raw)
	if !degraded {
		t.Fatalf("unparseable JSON-shaped text must degrade")
	}
	if len(got) != 1 || got[0].SQL != raw {
		t.Fatalf("degraded output must preserve the trimmed input: %+v", got)
	}
}

func TestStatementsSkipsNonSQLKeys(t *testing.T) {
	value := map[string]interface{}{
		"sql":        "SELECT a FROM t",
		"confidence": 0.9,
		"nested": map[string]interface{}{
			"sql": "SELECT b FROM t",
		},
	}
	got, degraded := Statements(value)
	if degraded {
		t.Fatalf("decoded value should not degrade")
	}
	want := []string{"SELECT a FROM t", "SELECT b FROM t"}
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", sqls(got), want)
	}
	for i, s := range sqls(got) {
		if s != want[i] {
			t.Fatalf("statement %d = %q, want %q", i, s, want[i])
		}
	}
}

func TestCollectDepthBound(t *testing.T) {
	depth := maxDepth + 8
	raw := strings.Repeat("[", depth) + `"SELECT 1"` + strings.Repeat("]", depth)
	got, degraded := FromText(raw)
	if degraded {
		t.Fatalf("deep nesting should parse without degrading")
	}
	if len(got) != 0 {
		t.Fatalf("statements past the depth bound must be dropped, got %+v", got)
	}
}

func TestMatchFragment(t *testing.T) {
	fragment, ok := matchFragment(`noise {"sql": "x"} trailer`)
	if !ok || fragment != `{"sql": "x"}` {
		t.Fatalf("matchFragment = %q, %v", fragment, ok)
	}
	if _, ok := matchFragment("no brackets here"); ok {
		t.Fatalf("expected no fragment")
	}
	if _, ok := matchFragment(`{"unbalanced": [`); ok {
		t.Fatalf("unbalanced input must not match")
	}
}
