// File path: internal/fingerprint/fingerprint.go
package fingerprint

import (
	"regexp"
	"strings"
)

// Fingerprint is the normalized form of a SQL statement. Two statements with
// equal fingerprints are textually equivalent ignoring formatting: comments,
// whitespace runs, letter case, and identifier quoting.
type Fingerprint string

func (f Fingerprint) String() string { return string(f) }

var (
	blockCommentRE = regexp.MustCompile(`(?s)/\*.*?\*/`)
	lineCommentRE  = regexp.MustCompile(`(?m)(--|//).*?$`)
	whitespaceRE   = regexp.MustCompile(`\s+`)

	// Matched identifier delimiters around bare names. Quoted string
	// literals use single quotes and are left alone; the bare-name pattern
	// keeps delimited values with spaces or punctuation intact as well.
	backtickIdentRE = regexp.MustCompile("`([a-z_][a-z0-9_$.]*)`")
	bracketIdentRE  = regexp.MustCompile(`\[([a-z_][a-z0-9_$.]*)\]`)
	quotedIdentRE   = regexp.MustCompile(`"([a-z_][a-z0-9_$.]*)"`)
)

// Normalize canonicalizes SQL text into its fingerprint: comments stripped,
// whitespace collapsed, lower-cased, identifier delimiters removed.
// Normalize is idempotent.
func Normalize(sql string) Fingerprint {
	text := blockCommentRE.ReplaceAllString(sql, " ")
	text = lineCommentRE.ReplaceAllString(text, " ")
	text = whitespaceRE.ReplaceAllString(text, " ")
	text = strings.ToLower(strings.TrimSpace(text))
	text = backtickIdentRE.ReplaceAllString(text, "$1")
	text = bracketIdentRE.ReplaceAllString(text, "$1")
	text = quotedIdentRE.ReplaceAllString(text, "$1")
	return Fingerprint(text)
}

// Equivalent reports whether two SQL statements are format-equivalent, the
// deterministic rule-prefilter check. It is symmetric by construction.
func Equivalent(a, b string) bool {
	return Normalize(a) == Normalize(b)
}

// Distance returns the Levenshtein edit distance between two fingerprints,
// used to pick the closest comparison partner for an unmatched statement.
func Distance(a, b Fingerprint) int {
	if a == b {
		return 0
	}
	ra, rb := []rune(string(a)), []rune(string(b))
	if len(ra) == 0 {
		return len(rb)
	}
	if len(rb) == 0 {
		return len(ra)
	}
	prev := make([]int, len(rb)+1)
	curr := make([]int, len(rb)+1)
	for j := range prev {
		prev[j] = j
	}
	for i := 1; i <= len(ra); i++ {
		curr[0] = i
		for j := 1; j <= len(rb); j++ {
			cost := 1
			if ra[i-1] == rb[j-1] {
				cost = 0
			}
			curr[j] = min3(prev[j]+1, curr[j-1]+1, prev[j-1]+cost)
		}
		prev, curr = curr, prev
	}
	return prev[len(rb)]
}

func min3(a, b, c int) int {
	if b < a {
		a = b
	}
	if c < a {
		a = c
	}
	return a
}
