package schema

import (
	"fmt"
	"strings"
)

// SchemaParseError reports an unreadable or malformed schema file with the
// position of the offending token when one is known.
type SchemaParseError struct {
	Path       string
	Line       int
	Col        int
	Message    string
	Suggestion string // "did you mean 'model'?" or ""
	Err        error  // underlying I/O error, if any
}

func (e *SchemaParseError) Error() string {
	var b strings.Builder
	if e.Path != "" {
		b.WriteString(e.Path)
		b.WriteString(": ")
	}
	if e.Line > 0 {
		fmt.Fprintf(&b, "line %d col %d: ", e.Line, e.Col)
	}
	b.WriteString(e.Message)
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	if e.Suggestion != "" {
		b.WriteString(" (" + e.Suggestion + ")")
	}
	return b.String()
}

func (e *SchemaParseError) Unwrap() error { return e.Err }

// EntityMissing lists the audit fields one entity lacks.
type EntityMissing struct {
	Entity string   `json:"entity"`
	Fields []string `json:"fields"`
}

// MissingAuditFieldsError is returned by Validate when at least one entity
// lacks createdAt, updatedAt or deletedAt. Every offending entity is listed.
type MissingAuditFieldsError struct {
	Missing []EntityMissing
}

func (e *MissingAuditFieldsError) Error() string {
	var b strings.Builder
	b.WriteString("some models are missing required audit fields:")
	for _, m := range e.Missing {
		quoted := make([]string, len(m.Fields))
		for i, f := range m.Fields {
			quoted[i] = `"` + f + `"`
		}
		fmt.Fprintf(&b, "\n  model %q is missing fields: %s", m.Entity, strings.Join(quoted, ", "))
	}
	return b.String()
}

// MissingIDError is returned by Validate when entities have no id field.
type MissingIDError struct {
	Entities []string
}

func (e *MissingIDError) Error() string {
	return fmt.Sprintf("models without an %q field: %s", IDField, strings.Join(e.Entities, ", "))
}

// ReservedNameError is returned by Validate when entities would be written
// into a generated project's support directories.
type ReservedNameError struct {
	Entities []string
}

func (e *ReservedNameError) Error() string {
	return fmt.Sprintf("model names collide with generated directories: %s (reserved: %s)",
		strings.Join(e.Entities, ", "), strings.Join(ReservedNames, ", "))
}

// levenshtein computes the edit distance between two strings.
func levenshtein(a, b string) int {
	la, lb := len(a), len(b)
	if la == 0 {
		return lb
	}
	if lb == 0 {
		return la
	}
	prev := make([]int, lb+1)
	for j := range prev {
		prev[j] = j
	}
	for i := 1; i <= la; i++ {
		curr := make([]int, lb+1)
		curr[0] = i
		for j := 1; j <= lb; j++ {
			cost := 1
			if a[i-1] == b[j-1] {
				cost = 0
			}
			curr[j] = min(curr[j-1]+1, prev[j]+1, prev[j-1]+cost)
		}
		prev = curr
	}
	return prev[lb]
}

// suggestFrom returns "did you mean 'x'?" for the closest candidate within
// maxDist edits, or "".
func suggestFrom(input string, candidates []string, maxDist int) string {
	best, bestDist := "", maxDist+1
	for _, c := range candidates {
		if d := levenshtein(input, c); d < bestDist {
			best, bestDist = c, d
		}
	}
	if bestDist <= maxDist {
		return fmt.Sprintf("did you mean '%s'?", best)
	}
	return ""
}
