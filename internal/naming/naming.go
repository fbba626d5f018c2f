// Package naming derives every identifier the generators emit from an entity
// or field name. All emitters go through this package so that a route, a
// directory, a context key and a component name for the same entity can
// never disagree.
package naming

import (
	"strings"
	"unicode"

	"github.com/jinzhu/inflection"
)

// Names holds the derived forms of one entity name.
type Names struct {
	Name         string `json:"name" yaml:"name"`                  // as declared: BlogPost
	Pascal       string `json:"pascal" yaml:"pascal"`              // BlogPost
	Camel        string `json:"camel" yaml:"camel"`                // blogPost
	Accessor     string `json:"accessor" yaml:"accessor"`          // Prisma client property: blogPost
	Lower        string `json:"lower" yaml:"lower"`                // blogpost
	Kebab        string `json:"kebab" yaml:"kebab"`                // blog-post
	Plural       string `json:"plural" yaml:"plural"`              // blogPosts
	PluralPascal string `json:"pluralPascal" yaml:"pluralPascal"` // BlogPosts
	Route        string `json:"route" yaml:"route"`                // /blogpost
}

// For returns the derived names of an entity. Lower is the plain lower-cased
// name and keys routes, directories, API resources and data-context entries.
// Accessor is the Prisma client property: the declared name with its first
// rune lower-cased.
func For(name string) Names {
	pascal := Pascal(name)
	camel := Camel(name)
	lower := strings.ToLower(pascal)
	return Names{
		Name:         name,
		Pascal:       pascal,
		Camel:        camel,
		Accessor:     lowerFirst(name),
		Lower:        lower,
		Kebab:        Kebab(name),
		Plural:       inflection.Plural(camel),
		PluralPascal: inflection.Plural(pascal),
		Route:        "/" + lower,
	}
}

// Pascal upper-cases the first letter of every word and joins them. The rest
// of each word is kept as written, so Pascal is idempotent.
func Pascal(s string) string {
	var b strings.Builder
	for _, w := range words(s) {
		b.WriteString(upperFirst(w))
	}
	return b.String()
}

// Camel is Pascal with the first rune lower-cased.
func Camel(s string) string {
	return lowerFirst(Pascal(s))
}

// Kebab lower-cases every word and joins them with hyphens.
func Kebab(s string) string {
	ws := words(s)
	for i, w := range ws {
		ws[i] = strings.ToLower(w)
	}
	return strings.Join(ws, "-")
}

// Label turns a field name into a human label: authorId -> "Author Id".
func Label(s string) string {
	ws := words(s)
	for i, w := range ws {
		ws[i] = upperFirst(w)
	}
	return strings.Join(ws, " ")
}

// words splits an identifier on separators and case boundaries. A run of
// capitals followed by a lower-case letter ends before the last capital, so
// HTTPRequest splits as HTTP, Request.
func words(s string) []string {
	rs := []rune(s)
	var out []string
	start := -1
	flush := func(end int) {
		if start >= 0 && end > start {
			out = append(out, string(rs[start:end]))
		}
		start = -1
	}
	for i, r := range rs {
		if !unicode.IsLetter(r) && !unicode.IsDigit(r) {
			flush(i)
			continue
		}
		if start < 0 {
			start = i
			continue
		}
		prev := rs[i-1]
		switch {
		case unicode.IsUpper(r) && (unicode.IsLower(prev) || unicode.IsDigit(prev)):
			flush(i)
			start = i
		case unicode.IsUpper(r) && unicode.IsUpper(prev) && i+1 < len(rs) && unicode.IsLower(rs[i+1]):
			flush(i)
			start = i
		}
	}
	flush(len(rs))
	return out
}

func upperFirst(s string) string {
	if s == "" {
		return s
	}
	rs := []rune(s)
	rs[0] = unicode.ToUpper(rs[0])
	return string(rs)
}

func lowerFirst(s string) string {
	if s == "" {
		return s
	}
	rs := []rune(s)
	rs[0] = unicode.ToLower(rs[0])
	return string(rs)
}

// EnumLabel turns an enum member into a display label: IN_PROGRESS ->
// "In Progress". Mixed-case members keep their casing past the first rune.
func EnumLabel(v string) string {
	ws := words(v)
	for i, w := range ws {
		if strings.ToUpper(w) == w {
			w = strings.ToLower(w)
		}
		ws[i] = upperFirst(w)
	}
	return strings.Join(ws, " ")
}
