// Package alias provides canonicalizing lookups for the two closed
// enumerations that accept multiple spellings on ingest: season slugs and
// speaker names. It is a narrowed, single-word descendant of the teacher's
// lexicon package: no contextual co-occurrence tracking, no YAML loader,
// just a canonical form plus its accepted spellings, built once in code for
// a small fixed vocabulary.
package alias

import "strings"

// Table maps variant spellings to a canonical lowercase form.
type Table struct {
	// canonical -> every accepted spelling, including itself
	groups map[string][]string
	// variant -> canonical
	reverse map[string]string
}

// New returns an empty Table.
func New() *Table {
	return &Table{
		groups:  make(map[string][]string),
		reverse: make(map[string]string),
	}
}

// Add registers canonical with its accepted spellings. canonical is always
// included in its own variant list even if the caller omits it.
func (t *Table) Add(canonical string, spellings ...string) {
	canonical = strings.ToLower(strings.TrimSpace(canonical))

	variants := make([]string, 0, len(spellings)+1)
	seen := make(map[string]bool, len(spellings)+1)

	variants = append(variants, canonical)
	seen[canonical] = true

	for _, s := range spellings {
		s = strings.ToLower(strings.TrimSpace(s))
		if s == "" || seen[s] {
			continue
		}
		variants = append(variants, s)
		seen[s] = true
	}

	t.groups[canonical] = variants
	for _, v := range variants {
		t.reverse[v] = canonical
	}
}

// Canonicalize returns the canonical form of a spelling, or the lower-cased
// input itself if it is not a known spelling of anything.
func (t *Table) Canonicalize(spelling string) string {
	spelling = strings.ToLower(strings.TrimSpace(spelling))
	if canonical, ok := t.reverse[spelling]; ok {
		return canonical
	}
	return spelling
}

// Known reports whether spelling resolves to some canonical form in the
// table (including being a canonical form itself).
func (t *Table) Known(spelling string) bool {
	spelling = strings.ToLower(strings.TrimSpace(spelling))
	_, ok := t.reverse[spelling]
	return ok
}
