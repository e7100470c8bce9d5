// File path: internal/corpus/dataset_test.go
package corpus

import (
	"os"
	"path/filepath"
	"testing"
)

func writeDataset(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write dataset: %v", err)
	}
	return path
}

func TestLoadRecordsArray(t *testing.T) {
	path := writeDataset(t, "dataset.json", `[
		{"function_name": "get_users", "orm_code": "code-a", "caller": "handler",
		 "sql_statement_list": "SELECT id FROM users"},
		{"function_name": "get_users", "orm_code": "code-a", "caller": "job",
		 "sql_statement_list": ["SELECT id FROM users", "SELECT name FROM users"]}
	]`)
	records, err := LoadRecords(path)
	if err != nil {
		t.Fatalf("LoadRecords: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("expected 2 records, got %d", len(records))
	}
	if records[0].Caller != "handler" || records[1].Caller != "job" {
		t.Fatalf("unexpected callers: %+v", records)
	}
}

func TestLoadRecordsJSONLines(t *testing.T) {
	path := writeDataset(t, "dataset.jsonl",
		`{"function_name": "f", "orm_code": "c", "caller": "a", "sql_statement_list": "SELECT 1"}

{"function_name": "f", "orm_code": "c", "caller": "b", "sql_statement_list": "SELECT 2"}`)
	records, err := LoadRecords(path)
	if err != nil {
		t.Fatalf("LoadRecords: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("expected 2 records, got %d", len(records))
	}
}

func TestLoadRecordsBadLine(t *testing.T) {
	path := writeDataset(t, "broken.jsonl", `{"function_name": "f"}
not json at all`)
	if _, err := LoadRecords(path); err == nil {
		t.Fatalf("expected decode error")
	}
}

func TestGroupRecords(t *testing.T) {
	records := []Record{
		{FunctionName: "get_users", Code: "code-a", Caller: "handler",
			SQLStatementList: "SELECT id FROM users"},
		{FunctionName: "get_users", Code: "code-a", Caller: "job",
			SQLStatementList: []interface{}{"SELECT id FROM users", "SELECT name FROM users"}},
		{FunctionName: "get_orders", Code: "code-b", Caller: "handler",
			SQLStatementList: "SELECT * FROM orders"},
		{FunctionName: "skipped", Code: "  ",
			SQLStatementList: "SELECT 1"},
	}
	groups := GroupRecords(records)
	if len(groups) != 2 {
		t.Fatalf("expected 2 groups, got %d", len(groups))
	}
	users := groups[0]
	if users.FunctionName != "get_users" {
		t.Fatalf("group order lost: %+v", users)
	}
	if callers := users.Callers(); len(callers) != 2 || callers[0] != "handler" {
		t.Fatalf("unexpected callers: %v", callers)
	}
	if set := users.Set("job"); set == nil || set.Len() != 2 {
		t.Fatalf("job set not built: %+v", set)
	}
	if set := users.Set("handler"); set.Owner().FunctionName != "get_users" {
		t.Fatalf("set owner wrong: %+v", set.Owner())
	}
}

func TestSelectReference(t *testing.T) {
	records := []Record{
		{FunctionName: "f", Code: "c", Caller: "small",
			SQLStatementList: "SELECT 1"},
		{FunctionName: "f", Code: "c", Caller: "large",
			SQLStatementList: []interface{}{"SELECT 1", "SELECT 2", "SELECT 3"}},
		{FunctionName: "f", Code: "c", Caller: "medium",
			SQLStatementList: []interface{}{"SELECT 1", "SELECT 2"}},
	}
	groups := GroupRecords(records)
	reference, targets := groups[0].SelectReference()
	if reference.Owner().CallerText() != "large" {
		t.Fatalf("expected the most comprehensive caller, got %q", reference.Owner().CallerText())
	}
	if len(targets) != 2 {
		t.Fatalf("expected 2 targets, got %d", len(targets))
	}
	if targets[0].Owner().CallerText() != "small" || targets[1].Owner().CallerText() != "medium" {
		t.Fatalf("targets must keep first-seen order: %q, %q",
			targets[0].Owner().CallerText(), targets[1].Owner().CallerText())
	}
}

func TestSelectReferenceTieBreaks(t *testing.T) {
	// Same fingerprint count; more statements wins.
	records := []Record{
		{FunctionName: "f", Code: "c", Caller: "lean",
			SQLStatementList: []interface{}{"SELECT 1", "SELECT 2"}},
		{FunctionName: "f", Code: "c", Caller: "dense",
			SQLStatementList: []interface{}{"SELECT 1", "select 1", "SELECT 2"}},
	}
	groups := GroupRecords(records)
	reference, _ := groups[0].SelectReference()
	if reference.Owner().CallerText() != "dense" {
		t.Fatalf("statement count tie-break failed, got %q", reference.Owner().CallerText())
	}

	// Fully tied: the earliest caller stays reference.
	records = []Record{
		{FunctionName: "f", Code: "c2", Caller: "first", SQLStatementList: "SELECT 1"},
		{FunctionName: "f", Code: "c2", Caller: "second", SQLStatementList: "SELECT 9"},
	}
	groups = GroupRecords(records)
	reference, _ = groups[0].SelectReference()
	if reference.Owner().CallerText() != "first" {
		t.Fatalf("earliest-caller tie-break failed, got %q", reference.Owner().CallerText())
	}
}
