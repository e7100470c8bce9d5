// File path: internal/corpus/dataset.go
package corpus

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/nicodishanthj/sqlverdict/internal/common"
	"github.com/nicodishanthj/sqlverdict/internal/extract"
)

// Record is one ingested dataset row: a function, the code it was analyzed
// from, one caller of that code, and the SQL the oracle attributed to the
// pair. SQLStatementList is kept undecoded because upstream emits anything
// from a plain string to nested variant structures.
type Record struct {
	FunctionName     string       `json:"function_name"`
	Code             string       `json:"orm_code"`
	Caller           string       `json:"caller"`
	SQLTypes         []string     `json:"sql_types,omitempty"`
	CodeMeta         []SourceSpan `json:"code_meta_data,omitempty"`
	SourceFile       string       `json:"source_file,omitempty"`
	SQLStatementList interface{}  `json:"sql_statement_list"`
}

// LoadRecords reads dataset records from a JSON array file or a JSON-lines
// file.
func LoadRecords(path string) ([]Record, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("corpus: read dataset: %w", err)
	}
	trimmed := strings.TrimSpace(string(data))
	if trimmed == "" {
		return nil, nil
	}
	if strings.HasPrefix(trimmed, "[") {
		var records []Record
		if err := json.Unmarshal([]byte(trimmed), &records); err != nil {
			return nil, fmt.Errorf("corpus: decode dataset array: %w", err)
		}
		return records, nil
	}

	var records []Record
	scanner := bufio.NewScanner(strings.NewReader(trimmed))
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	line := 0
	for scanner.Scan() {
		line++
		text := strings.TrimSpace(scanner.Text())
		if text == "" {
			continue
		}
		var record Record
		if err := json.Unmarshal([]byte(text), &record); err != nil {
			return nil, fmt.Errorf("corpus: decode dataset line %d: %w", line, err)
		}
		records = append(records, record)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("corpus: scan dataset: %w", err)
	}
	return records, nil
}

// Group collects the per-caller fingerprint sets built for one analyzed
// piece of code.
type Group struct {
	Code         string
	FunctionName string

	callers []string
	sets    map[string]*FingerprintSet
}

// GroupRecords buckets records by their analyzed code and builds one
// fingerprint set per caller. Records without code are skipped; extraction
// degradation is logged but never fatal.
func GroupRecords(records []Record) []*Group {
	logger := common.Logger()
	var order []string
	groups := make(map[string]*Group)
	for _, record := range records {
		code := strings.TrimSpace(record.Code)
		if code == "" {
			continue
		}
		group, ok := groups[code]
		if !ok {
			group = &Group{
				Code:         record.Code,
				FunctionName: record.FunctionName,
				sets:         make(map[string]*FingerprintSet),
			}
			groups[code] = group
			order = append(order, code)
		}
		caller := record.Caller
		if caller == "" {
			caller = "unknown_caller"
		}
		set, ok := group.sets[caller]
		if !ok {
			unit := &CodeUnit{
				FunctionName: record.FunctionName,
				SourceText:   record.Code,
				CallerChain:  []string{caller},
				Meta:         record.CodeMeta,
			}
			set = NewFingerprintSet(unit)
			group.sets[caller] = set
			group.callers = append(group.callers, caller)
		}
		statements, degraded := extract.Statements(record.SQLStatementList)
		if degraded {
			logger.Warn("corpus: extraction degraded",
				"function", record.FunctionName, "caller", caller)
		}
		for _, stmt := range statements {
			set.Add(&SqlArtifact{
				RawText:       stmt.SQL,
				ScenarioLabel: stmt.Scenario,
				Origin:        set.Owner(),
			})
		}
	}

	out := make([]*Group, 0, len(order))
	for _, code := range order {
		out = append(out, groups[code])
	}
	return out
}

// Callers returns the callers in first-seen order.
func (g *Group) Callers() []string {
	out := make([]string, len(g.callers))
	copy(out, g.callers)
	return out
}

// Set returns the fingerprint set built for the caller, or nil.
func (g *Group) Set(caller string) *FingerprintSet {
	return g.sets[caller]
}

// SelectReference picks the most comprehensive caller as the reference set:
// most distinct fingerprints, then most statements, then earliest seen. The
// remaining callers become comparison targets, in first-seen order.
func (g *Group) SelectReference() (*FingerprintSet, []*FingerprintSet) {
	if len(g.callers) == 0 {
		return nil, nil
	}
	best := g.callers[0]
	for _, caller := range g.callers[1:] {
		candidate, current := g.sets[caller], g.sets[best]
		if candidate.Len() > current.Len() ||
			(candidate.Len() == current.Len() && candidate.StatementCount() > current.StatementCount()) {
			best = caller
		}
	}
	reference := g.sets[best]
	var targets []*FingerprintSet
	for _, caller := range g.callers {
		if caller != best {
			targets = append(targets, g.sets[caller])
		}
	}
	return reference, targets
}
