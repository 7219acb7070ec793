// Package query is the query planner: it turns a free-text query plus a
// requested kind into a bleve.Query and the ordered list of internal term
// IDs the highlighter needs, using the same analyzer the index was built
// with. Its Planner mirrors the shape of the teacher's query.Parser:
// a struct constructed once and an entry-point method that dispatches on
// an enumerated kind.
package query

import (
	"fmt"
	"strings"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/analysis"
	bleveQuery "github.com/blevesearch/bleve/v2/search/query"

	"github.com/atthetable/curiosity/pkg/curiosity/curiosityerr"
	"github.com/atthetable/curiosity/pkg/curiosity/termdict"
	"github.com/atthetable/curiosity/pkg/curiosity/tokenize"
)

// Kind selects which of the three query variants to plan.
type Kind int

const (
	// KindKeywords treats the input as an unordered set of terms.
	KindKeywords Kind = iota
	// KindPhrase treats the input as an ordered phrase; inputs of fewer
	// than two words fall back to KindKeywords.
	KindPhrase
	// KindWeb parses the input with the external query-string syntax,
	// accepting operators and field qualifiers over {body, title}.
	KindWeb
)

// bodyField and titleField name the two searchable fields in ftsindex's
// mapping; query construction must agree with that mapping exactly.
const (
	bodyField  = "body"
	titleField = "title"
)

// Plan is the result of planning a query: the executable bleve.Query plus
// the ordered term IDs needed to drive highlighting.
type Plan struct {
	Query    bleve.Query
	TermIDs  []uint32
	IsPhrase bool
}

// Planner builds Plans. It is constructed once and reused across
// requests; its analyzer instance is built the same way
// tokenize.SentenceBuilder's is, so query-time and index-time token
// boundaries never drift apart.
type Planner struct {
	analyzer *analysis.DefaultAnalyzer
	dict     *termdict.Guard
}

// NewPlanner returns a Planner resolving term IDs against dict.
func NewPlanner(dict *termdict.Guard) *Planner {
	return &Planner{analyzer: tokenize.NewAnalyzer(), dict: dict}
}

// analyzeWords runs the shared analyzer over text and returns the
// resulting token texts in the order the analyzer produced them.
func (p *Planner) analyzeWords(text string) []string {
	stream := p.analyzer.Analyze([]byte(text))
	words := make([]string, len(stream))
	for i, tok := range stream {
		words[i] = string(tok.Term)
	}
	return words
}

// Plan builds a Plan for the given kind and free-text query.
func (p *Planner) Plan(kind Kind, text string) (Plan, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return Plan{}, fmt.Errorf("query: empty query text: %w", curiosityerr.ErrInvalidQuery)
	}

	switch kind {
	case KindPhrase:
		words := p.analyzeWords(text)
		if len(words) < 2 {
			return p.planKeywords(words)
		}
		return p.planPhrase(words)
	case KindWeb:
		return p.planWeb(text)
	default:
		return p.planKeywords(p.analyzeWords(text))
	}
}

func (p *Planner) planKeywords(words []string) (Plan, error) {
	if len(words) == 0 {
		return Plan{}, fmt.Errorf("query: no searchable terms: %w", curiosityerr.ErrInvalidQuery)
	}

	conj := bleve.NewConjunctionQuery()
	for _, w := range words {
		mq := bleve.NewMatchQuery(w)
		mq.SetField(bodyField)
		conj.AddQuery(mq)
	}

	termIDs := p.resolveSorted(words)
	return Plan{Query: conj, TermIDs: termIDs, IsPhrase: false}, nil
}

func (p *Planner) planPhrase(words []string) (Plan, error) {
	pq := bleve.NewPhraseQuery(words, bodyField)

	termIDs := p.resolveOrdered(words)
	return Plan{Query: pq, TermIDs: termIDs, IsPhrase: true}, nil
}

func (p *Planner) planWeb(text string) (Plan, error) {
	qsq := bleve.NewQueryStringQuery(text)

	parsed, err := qsq.Parse()
	if err != nil {
		return Plan{}, fmt.Errorf("query: parse query string %q: %w", text, curiosityerr.ErrInvalidQuery)
	}

	leaves := bodyFieldLeafTerms(parsed)
	words := p.analyzeWords(strings.Join(leaves, " "))
	termIDs := p.resolveSorted(words)
	return Plan{Query: qsq, TermIDs: termIDs, IsPhrase: false}, nil
}

// bodyFieldLeafTerms walks q's clause tree and collects the raw term or
// phrase text of every leaf that matches the unqualified or body-field
// search, the same leaves a plain-text match against the transcript body
// would hit. Field-qualified leaves for any other field (title:foo) are
// left out, since the highlighter only marks up the body. Clauses under a
// MustNot are skipped entirely: a query the user wrote to exclude a term
// must never highlight it.
func bodyFieldLeafTerms(q bleveQuery.Query) []string {
	switch v := q.(type) {
	case *bleveQuery.ConjunctionQuery:
		var out []string
		for _, c := range v.Conjuncts {
			out = append(out, bodyFieldLeafTerms(c)...)
		}
		return out
	case *bleveQuery.DisjunctionQuery:
		var out []string
		for _, d := range v.Disjuncts {
			out = append(out, bodyFieldLeafTerms(d)...)
		}
		return out
	case *bleveQuery.BooleanQuery:
		var out []string
		if v.Must != nil {
			out = append(out, bodyFieldLeafTerms(v.Must)...)
		}
		if v.Should != nil {
			out = append(out, bodyFieldLeafTerms(v.Should)...)
		}
		return out
	case *bleveQuery.MatchQuery:
		if isBodyField(v.Field()) {
			return []string{v.Match}
		}
	case *bleveQuery.MatchPhraseQuery:
		if isBodyField(v.Field()) {
			return []string{v.MatchPhrase}
		}
	case *bleveQuery.TermQuery:
		if isBodyField(v.Field()) {
			return []string{v.Term}
		}
	}
	return nil
}

// isBodyField reports whether field names the body field or is absent
// (a query-string leaf with no field qualifier searches bleve's default
// _all field, which in ftsindex's mapping covers both body and title).
func isBodyField(field string) bool {
	return field == "" || field == bodyField
}

// resolveSorted looks up every word in the term dictionary, keeps only
// the resolved ones, and sorts the result ascending.
func (p *Planner) resolveSorted(words []string) []uint32 {
	dict := p.dict.Current()
	ids := make([]uint32, 0, len(words))
	for _, w := range words {
		if id, ok := dict.Get(w); ok {
			ids = append(ids, id)
		}
	}
	sortUint32(ids)
	return dedupeSorted(ids)
}

// resolveOrdered looks up every word in the term dictionary, keeps only
// the resolved ones, and preserves the input order (required for phrase
// matching in the highlighter).
func (p *Planner) resolveOrdered(words []string) []uint32 {
	dict := p.dict.Current()
	ids := make([]uint32, 0, len(words))
	for _, w := range words {
		if id, ok := dict.Get(w); ok {
			ids = append(ids, id)
		}
	}
	return ids
}

func sortUint32(ids []uint32) {
	for i := 1; i < len(ids); i++ {
		for j := i; j > 0 && ids[j-1] > ids[j]; j-- {
			ids[j-1], ids[j] = ids[j], ids[j-1]
		}
	}
}

func dedupeSorted(ids []uint32) []uint32 {
	if len(ids) == 0 {
		return ids
	}
	out := ids[:1]
	for _, id := range ids[1:] {
		if id != out[len(out)-1] {
			out = append(out, id)
		}
	}
	return out
}
