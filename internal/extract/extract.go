// File path: internal/extract/extract.go
package extract

import (
	"encoding/json"
	"sort"
	"strings"

	"github.com/nicodishanthj/sqlverdict/internal/common"
	"github.com/nicodishanthj/sqlverdict/internal/common/telemetry"
)

// maxDepth bounds recursion into pathological nesting. Past the bound the
// collector stops descending into containers and keeps what it has.
const maxDepth = 64

// Statement is one recovered SQL statement. Scenario is set when the
// statement came from a variant branch of a conditional.
type Statement struct {
	SQL      string
	Scenario string
}

// FromText recovers an ordered list of SQL statements from a raw oracle
// reply. It never fails: plain text becomes a single statement, JSON-looking
// text is parsed (with bracket-matching recovery for replies that embed JSON
// in prose), and anything unrecoverable degrades to the trimmed original
// text. The boolean reports whether the degraded fallback was taken.
func FromText(raw string) ([]Statement, bool) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		telemetry.RecordExtraction(0, false)
		return nil, false
	}
	if !looksLikeJSON(trimmed) {
		out := []Statement{{SQL: trimmed}}
		telemetry.RecordExtraction(1, false)
		return out, false
	}

	var parsed interface{}
	if err := json.Unmarshal([]byte(trimmed), &parsed); err == nil {
		out := collect(parsed, 0)
		telemetry.RecordExtraction(len(out), false)
		return out, false
	}

	if fragment, ok := matchFragment(trimmed); ok {
		if err := json.Unmarshal([]byte(fragment), &parsed); err == nil {
			out := collect(parsed, 0)
			telemetry.RecordExtraction(len(out), false)
			return out, false
		}
	}

	common.Logger().Warn("extract: degraded to raw text", "length", len(trimmed))
	telemetry.RecordExtraction(1, true)
	return []Statement{{SQL: trimmed}}, true
}

// Statements recovers SQL statements from an already-decoded value, such as
// one field of an ingested dataset record. Like FromText it is total.
func Statements(value interface{}) ([]Statement, bool) {
	if raw, ok := value.(string); ok {
		return FromText(raw)
	}
	out := collect(value, 0)
	telemetry.RecordExtraction(len(out), false)
	return out, false
}

func collect(value interface{}, depth int) []Statement {
	var out []Statement

	switch v := value.(type) {
	case string:
		trimmed := strings.TrimSpace(v)
		if trimmed == "" {
			return nil
		}
		if !looksLikeJSON(trimmed) {
			return []Statement{{SQL: trimmed}}
		}
		// Nested JSON-in-a-string: parse if possible, otherwise drop the
		// fragment rather than emit structural noise as SQL.
		if depth >= maxDepth {
			return nil
		}
		var parsed interface{}
		if err := json.Unmarshal([]byte(trimmed), &parsed); err != nil {
			return nil
		}
		return collect(parsed, depth+1)

	case []interface{}:
		if depth >= maxDepth {
			return nil
		}
		for _, item := range v {
			out = append(out, collect(item, depth+1)...)
		}
		return out

	case map[string]interface{}:
		if depth >= maxDepth {
			return nil
		}
		if sql, ok := v["sql"].(string); ok && strings.TrimSpace(sql) != "" {
			scenario, _ := v["scenario"].(string)
			out = append(out, Statement{SQL: strings.TrimSpace(sql), Scenario: strings.TrimSpace(scenario)})
		}
		if variants, ok := v["variants"].([]interface{}); ok {
			out = append(out, collectVariants(variants, depth+1)...)
		}
		// Descend into remaining container values so unfamiliar nesting
		// shapes still surrender their statements. The sql key is skipped
		// only when its string value was already emitted above; a sql key
		// holding a list recurses like any other container. Keys are
		// visited in sorted order since decoded JSON objects carry no
		// ordering.
		keys := make([]string, 0, len(v))
		for key := range v {
			if key == "variants" {
				continue
			}
			if key == "sql" {
				if _, isString := v[key].(string); isString {
					continue
				}
			}
			keys = append(keys, key)
		}
		sort.Strings(keys)
		for _, key := range keys {
			switch v[key].(type) {
			case map[string]interface{}, []interface{}:
				out = append(out, collect(v[key], depth+1)...)
			}
		}
		return out
	}

	return nil
}

func collectVariants(variants []interface{}, depth int) []Statement {
	var out []Statement
	for _, item := range variants {
		member, ok := item.(map[string]interface{})
		if !ok {
			continue
		}
		scenario, _ := member["scenario"].(string)
		switch sql := member["sql"].(type) {
		case string:
			if strings.TrimSpace(sql) != "" {
				out = append(out, Statement{SQL: strings.TrimSpace(sql), Scenario: strings.TrimSpace(scenario)})
			}
		case []interface{}:
			if depth >= maxDepth {
				continue
			}
			for _, stmt := range collect(sql, depth+1) {
				stmt.Scenario = strings.TrimSpace(scenario)
				out = append(out, stmt)
			}
		}
	}
	return out
}

func looksLikeJSON(s string) bool {
	return strings.HasPrefix(s, "[") || strings.HasPrefix(s, "{")
}

// matchFragment scans for the first balanced JSON array or object embedded in
// the text, walking a bracket stack until it first returns to empty.
func matchFragment(s string) (string, bool) {
	start := strings.IndexAny(s, "[{")
	if start < 0 {
		return "", false
	}
	var stack []byte
	for i := start; i < len(s); i++ {
		switch c := s[i]; c {
		case '[', '{':
			stack = append(stack, c)
		case ']', '}':
			if len(stack) == 0 {
				return "", false
			}
			top := stack[len(stack)-1]
			if (top == '[' && c == ']') || (top == '{' && c == '}') {
				stack = stack[:len(stack)-1]
				if len(stack) == 0 {
					return s[start : i+1], true
				}
			}
		}
	}
	return "", false
}
