package tokenize

import (
	"github.com/blevesearch/bleve/v2/analysis"
	"github.com/blevesearch/bleve/v2/analysis/lang/en"
	"github.com/blevesearch/bleve/v2/analysis/token/lowercase"
	"github.com/blevesearch/bleve/v2/analysis/token/stop"
	"github.com/blevesearch/bleve/v2/analysis/tokenizer/unicode"
	"github.com/blevesearch/bleve/v2/registry"
	snowballeng "github.com/kljensen/snowball/english"
)

// AnalyzerName is the bleve custom analyzer name registered for this
// pipeline; the index mapping (ftsindex) uses this exact name for its
// title and body fields so that index-time and query-time token
// boundaries and stemming agree by construction.
const AnalyzerName = "curiosity_en"

// snowballStemFilter replaces bleve's built-in porter stemmer with
// kljensen/snowball's English stemmer, applied after word splitting,
// lowercasing, and stopword removal.
type snowballStemFilter struct{}

func (snowballStemFilter) Filter(input analysis.TokenStream) analysis.TokenStream {
	for _, token := range input {
		if token.Type == analysis.Numeric {
			continue
		}
		token.Term = []byte(snowballeng.Stem(string(token.Term), true))
	}
	return input
}

// NewAnalyzer builds the shared tokenizer+stemmer pipeline: bleve's
// Unicode word tokenizer, lowercasing, English stopword removal, then
// snowball stemming. Both the index builder and the query planner
// construct their analyzer through this one function so the two sides
// never drift apart.
func NewAnalyzer() *analysis.DefaultAnalyzer {
	return &analysis.DefaultAnalyzer{
		Tokenizer: unicode.NewUnicodeTokenizer(),
		TokenFilters: []analysis.TokenFilter{
			lowercase.NewLowerCaseFilter(),
			stop.NewStopTokensFilter(en.StopTokenMap()),
			snowballStemFilter{},
		},
	}
}

// Registered under AnalyzerName so bleve's index mapping (ftsindex) can
// name this pipeline by string for its title and body fields, just as it
// would name any other bleve-ecosystem analyzer.
func init() {
	registry.RegisterAnalyzer(AnalyzerName, func(config map[string]interface{}, cache *registry.Cache) (*analysis.DefaultAnalyzer, error) {
		return NewAnalyzer(), nil
	})
}
