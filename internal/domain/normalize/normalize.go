// Package normalize canonicalizes free-text instructor names and
// subject/department labels into comparable tokens.
//
// All functions are pure and deterministic: identical input always yields
// identical output, independent of locale. Rules are fixed and documented on
// each function.
package normalize

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// NameToken is the canonical form of an instructor name. Last is always
// present for a well-formed name; First may be empty (institutional records
// sometimes carry last-name-only) or a single letter when the source only
// supplied an initial.
type NameToken struct {
	Last           string
	First          string
	MiddleInitials []string
}

// FirstInitial returns the first letter of the given name, or "" when the
// given name is missing.
func (t NameToken) FirstInitial() string {
	if t.First == "" {
		return ""
	}
	return t.First[:1]
}

// honorifics are stripped from the front of a name; suffixes from the end.
// Comparison happens after case folding and period removal.
var honorifics = map[string]struct{}{
	"dr": {}, "prof": {}, "professor": {}, "instructor": {},
	"mr": {}, "mrs": {}, "ms": {}, "mx": {}, "rev": {}, "fr": {}, "sir": {},
}

var suffixes = map[string]struct{}{
	"jr": {}, "sr": {}, "ii": {}, "iii": {}, "iv": {},
	"phd": {}, "md": {}, "jd": {}, "esq": {},
}

// foldMarks removes combining diacritical marks: NFD decompose, drop marks,
// recompose.
var foldMarks = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

func stripDiacritics(s string) string {
	out, _, err := transform.String(foldMarks, s)
	if err != nil {
		return s
	}
	return out
}

// Name canonicalizes a raw display name into a (last, first, middle
// initials) tuple. It strips honorifics and generational/degree suffixes,
// folds case, strips diacritics, collapses whitespace, and recognizes both
// "Last, First M." and "First M. Last" orderings. A single remaining token
// is treated as a bare last name. Returns ErrMalformedName when nothing
// usable remains.
func Name(raw string) (NameToken, error) {
	cleaned := strings.ToLower(stripDiacritics(raw))

	var last, given string
	if i := strings.IndexByte(cleaned, ','); i >= 0 {
		// "Last, First M." — everything left of the comma is the surname,
		// which may itself be multi-word ("van der berg, jan").
		last = lastWord(nameTokens(cleaned[:i]))
		given = cleaned[i+1:]
	} else {
		toks := nameTokens(cleaned)
		if len(toks) == 0 {
			return NameToken{}, ErrMalformedName
		}
		last = toks[len(toks)-1]
		given = strings.Join(toks[:len(toks)-1], " ")
	}
	if last == "" {
		return NameToken{}, ErrMalformedName
	}

	t := NameToken{Last: last}
	for i, tok := range nameTokens(given) {
		if i == 0 {
			t.First = tok
			continue
		}
		// Middle tokens collapse to initials regardless of whether the
		// source spelled them out.
		t.MiddleInitials = append(t.MiddleInitials, tok[:1])
	}
	return t, nil
}

// nameTokens splits a name fragment into lowercase word tokens, dropping
// punctuation, honorifics, and suffixes.
func nameTokens(s string) []string {
	fields := strings.FieldsFunc(s, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsNumber(r) && r != '-' && r != '\''
	})
	out := make([]string, 0, len(fields))
	for _, f := range fields {
		f = strings.Trim(f, "-'")
		if f == "" {
			continue
		}
		if _, ok := honorifics[f]; ok && len(out) == 0 {
			continue
		}
		out = append(out, f)
	}
	// Trailing suffixes ("jr", "phd") are not part of the name.
	for len(out) > 0 {
		if _, ok := suffixes[out[len(out)-1]]; !ok {
			break
		}
		out = out[:len(out)-1]
	}
	return out
}

func lastWord(toks []string) string {
	if len(toks) == 0 {
		return ""
	}
	return toks[len(toks)-1]
}

// Subject canonicalizes a department/subject label for department-identity
// comparison: diacritics stripped, uppercased, whitespace collapsed, and
// trailing course-number digits removed ("CS101" and "CS 101" both
// normalize to "CS").
func Subject(raw string) string {
	s := strings.ToUpper(stripDiacritics(strings.TrimSpace(raw)))
	s = strings.TrimRight(s, "0123456789")
	s = strings.TrimRight(s, " -_.")
	return strings.Join(strings.Fields(s), " ")
}

// SubjectSet splits a multi-department string ("CS / MATH", "ECE & CS") and
// normalizes each part, dropping empties and duplicates. Order follows the
// input.
func SubjectSet(raw string) []string {
	parts := strings.FieldsFunc(raw, func(r rune) bool {
		return r == '/' || r == ',' || r == '&' || r == ';' || r == '|'
	})
	seen := make(map[string]struct{}, len(parts))
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		n := Subject(p)
		if n == "" {
			continue
		}
		if _, dup := seen[n]; dup {
			continue
		}
		seen[n] = struct{}{}
		out = append(out, n)
	}
	return out
}

// CoursePrefix extracts the subject-code prefix of a course code: the
// leading run of letters after uppercasing ("CS 4820" -> "CS"). Returns ""
// when the code has no letter prefix.
func CoursePrefix(raw string) string {
	s := strings.ToUpper(stripDiacritics(strings.TrimSpace(raw)))
	var b strings.Builder
	for _, r := range s {
		if r == ' ' && b.Len() == 0 {
			continue
		}
		if r < 'A' || r > 'Z' {
			break
		}
		b.WriteRune(r)
	}
	return b.String()
}
