// File path: internal/oracle/judge.go
package oracle

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/nicodishanthj/sqlverdict/internal/common"
	"github.com/nicodishanthj/sqlverdict/internal/common/telemetry"
	"github.com/nicodishanthj/sqlverdict/internal/oracle/providers"
)

// maxSourceChars caps the analyzed code passed to the model so one oversized
// function cannot blow the request budget.
const maxSourceChars = 2000

const systemPrompt = "You are a database reviewer. Answer every question " +
	"with a fenced ```json object containing the requested boolean field " +
	"and a short \"reasoning\" string."

// LLMJudge answers stage questions through a chat provider and recovers a
// structured verdict from the free-text reply. Transport or parse failures
// surface as Inconclusive verdicts, never errors.
type LLMJudge struct {
	provider providers.Provider
}

func NewLLMJudge(provider providers.Provider) *LLMJudge {
	return &LLMJudge{provider: provider}
}

func (j *LLMJudge) Judge(ctx context.Context, stage StageKind, jc JudgmentContext) (Verdict, error) {
	prompt, err := buildPrompt(stage, jc)
	if err != nil {
		return InconclusiveVerdict(err.Error()), nil
	}
	start := time.Now()
	reply, err := j.provider.Chat(ctx, []providers.Message{
		{Role: "system", Content: systemPrompt},
		{Role: "user", Content: prompt},
	})
	if err != nil {
		telemetry.RecordOracleCall(string(stage), time.Since(start), true)
		common.Logger().Warn("oracle: judgment call failed", "stage", stage, "error", err)
		return InconclusiveVerdict(fmt.Sprintf("adapter failure: %v", err)), nil
	}
	verdict := parseVerdict(stage, reply)
	telemetry.RecordOracleCall(string(stage), time.Since(start), verdict.Kind == Inconclusive)
	if verdict.Kind == Inconclusive {
		common.Logger().Warn("oracle: unparseable reply", "stage", stage, "length", len(reply))
	}
	return verdict, nil
}

func buildPrompt(stage StageKind, jc JudgmentContext) (string, error) {
	var b strings.Builder
	writeSection := func(label, value string) {
		if strings.TrimSpace(value) == "" {
			return
		}
		fmt.Fprintf(&b, "%s:\n%s\n\n", label, value)
	}

	source := jc.SourceText
	if len(source) > maxSourceChars {
		// Back off to a rune boundary so multi-byte source text is not cut
		// mid-sequence.
		cut := maxSourceChars
		for cut > 0 && !utf8.RuneStart(source[cut]) {
			cut--
		}
		source = source[:cut]
	}
	writeSection("Analyzed code", source)
	writeSection("Code location", jc.CodeMeta)
	writeSection("Target caller", jc.TargetCaller)
	writeSection("Reference caller", jc.ReferenceCaller)
	writeSection("Scenario", jc.ScenarioLabel)

	switch stage {
	case StageSyntax:
		writeSection("Statement A", jc.TargetSQL)
		writeSection("Statement B", jc.ReferenceSQL)
		b.WriteString("Are these two SQL statements syntactically equivalent, ignoring " +
			"whitespace, letter case, comments, and clause ordering? " +
			"Reply with {\"is_equivalent\": true|false, \"reasoning\": \"...\"}.")
	case StageRedundancy:
		writeSection("Target SQL", jc.TargetSQL)
		writeSection("Reference SQL set", marshalList(jc.ReferenceSQLs))
		b.WriteString("Is the target SQL a genuinely unnecessary duplicate of work " +
			"already covered by the reference set? " +
			"Reply with {\"is_redundant\": true|false, \"reasoning\": \"...\"}.")
	case StageNewFingerprint:
		writeSection("New SQL", jc.TargetSQL)
		writeSection("Reference SQL set", marshalList(jc.ReferenceSQLs))
		b.WriteString("Is this a legitimate new operation for the analyzed code, " +
			"rather than a mistaken addition? " +
			"Reply with {\"is_valid_new\": true|false, \"reasoning\": \"...\"}.")
	case StageMissing:
		writeSection("Missing SQL", jc.ReferenceSQL)
		writeSection("Target SQL set", marshalList(jc.TargetSQLs))
		b.WriteString("The target produces the SQL set above but not the missing " +
			"statement. Is the omission a real defect? " +
			"Reply with {\"is_truly_missing\": true|false, \"reasoning\": \"...\"}.")
	default:
		return "", fmt.Errorf("oracle: unknown stage %q", stage)
	}
	return b.String(), nil
}

func marshalList(values []string) string {
	if len(values) == 0 {
		return ""
	}
	data, err := json.MarshalIndent(values, "", "  ")
	if err != nil {
		return strings.Join(values, "\n")
	}
	return string(data)
}

var fencedJSONRE = regexp.MustCompile("(?s)```(?:json)?\\s*(\\{.*?\\})\\s*```")

type verdictReply struct {
	IsEquivalent   *bool  `json:"is_equivalent"`
	IsRedundant    *bool  `json:"is_redundant"`
	IsValidNew     *bool  `json:"is_valid_new"`
	IsTrulyMissing *bool  `json:"is_truly_missing"`
	Reasoning      string `json:"reasoning"`
}

func parseVerdict(stage StageKind, reply string) Verdict {
	var decoded verdictReply
	if object, ok := verdictObject(reply); ok {
		if err := json.Unmarshal([]byte(object), &decoded); err != nil {
			decoded = verdictReply{}
		}
	}

	answer := stageAnswer(stage, decoded)
	if answer == nil {
		// Legacy replies answered with a bare affirmative prefix.
		affirmative := strings.HasPrefix(strings.ToLower(strings.TrimSpace(reply)), "yes")
		if !affirmative {
			return InconclusiveVerdict("reply carried no verdict field")
		}
		answer = &affirmative
	}
	return stageVerdict(stage, *answer, decoded.Reasoning)
}

func verdictObject(reply string) (string, bool) {
	if match := fencedJSONRE.FindStringSubmatch(reply); match != nil {
		return match[1], true
	}
	start := strings.IndexByte(reply, '{')
	if start < 0 {
		return "", false
	}
	depth := 0
	for i := start; i < len(reply); i++ {
		switch reply[i] {
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return reply[start : i+1], true
			}
		}
	}
	return "", false
}

func stageAnswer(stage StageKind, decoded verdictReply) *bool {
	switch stage {
	case StageSyntax:
		return decoded.IsEquivalent
	case StageRedundancy:
		return decoded.IsRedundant
	case StageNewFingerprint:
		return decoded.IsValidNew
	case StageMissing:
		return decoded.IsTrulyMissing
	}
	return nil
}

func stageVerdict(stage StageKind, answer bool, reasoning string) Verdict {
	switch stage {
	case StageSyntax:
		if answer {
			return Verdict{Kind: FormatEquivalent, Reasoning: reasoning}
		}
		return Verdict{Kind: SemanticDifferent, Reasoning: reasoning}
	case StageRedundancy:
		if answer {
			return Verdict{Kind: Redundant, Reasoning: reasoning}
		}
		return Verdict{Kind: NotRedundant, Reasoning: reasoning}
	case StageNewFingerprint:
		if answer {
			return Verdict{Kind: ValidNew, Reasoning: reasoning}
		}
		return Verdict{Kind: InvalidNew, Reasoning: reasoning}
	case StageMissing:
		if answer {
			return Verdict{Kind: TrulyMissing, Reasoning: reasoning}
		}
		return Verdict{Kind: NotMissing, Reasoning: reasoning}
	}
	return InconclusiveVerdict("unknown stage")
}
