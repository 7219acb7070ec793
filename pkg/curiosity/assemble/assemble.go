// Package assemble is the result assembler: for each searcher hit, it
// reads the forward-store record and, if highlighting was requested,
// walks the query's term IDs through the posting store to find and
// highlight the matching sentences.
package assemble

import (
	"fmt"
	"strings"

	"github.com/atthetable/curiosity/pkg/curiosity/fstore"
	"github.com/atthetable/curiosity/pkg/curiosity/highlight"
	"github.com/atthetable/curiosity/pkg/curiosity/model"
	"github.com/atthetable/curiosity/pkg/curiosity/pstore"
	plan "github.com/atthetable/curiosity/pkg/curiosity/query"
	"github.com/atthetable/curiosity/pkg/curiosity/search"
)

// Highlight is one highlighted sentence surfaced in a result.
type Highlight struct {
	SentenceOrdinal int
	Spans           []highlight.Span
}

// Result is one fully assembled search result: an episode's metadata
// plus, if requested, the sentences that matched the query.
type Result struct {
	EpisodeID  uint64
	Season     model.SeasonID
	Slug       string
	Title      string
	DocsID     string
	Highlights []Highlight
}

// Assembler ties the forward store, posting store, and highlighter
// together to build Results from raw Searcher hits.
type Assembler struct {
	forward  *fstore.Store
	postings *pstore.Store
}

// New returns an Assembler reading from forward and postings.
func New(forward *fstore.Store, postings *pstore.Store) *Assembler {
	return &Assembler{forward: forward, postings: postings}
}

// Assemble builds one Result per hit, in order. If p.TermIDs is empty or
// withHighlights is false, no highlighting work is done.
func (a *Assembler) Assemble(hits []search.Hit, p plan.Plan, withHighlights bool) ([]Result, error) {
	results := make([]Result, 0, len(hits))
	for _, hit := range hits {
		result, err := a.assembleOne(hit, p, withHighlights)
		if err != nil {
			return nil, err
		}
		results = append(results, result)
	}
	return results, nil
}

func (a *Assembler) assembleOne(hit search.Hit, p plan.Plan, withHighlights bool) (Result, error) {
	var result Result

	err := a.forward.Get(hit.EpisodeID, func(buf []byte) error {
		archived, err := model.Decode(buf)
		if err != nil {
			return err
		}

		// archived's string and slice fields alias the read transaction's
		// buffer and become invalid once this callback returns, so every
		// piece of data the Result needs to outlive the callback is
		// copied here with strings.Clone.
		result = Result{
			EpisodeID: archived.EpisodeID,
			Season:    archived.Season,
			Slug:      strings.Clone(archived.Slug),
			Title:     strings.Clone(archived.Title),
			DocsID:    strings.Clone(archived.DocsID),
		}

		if !withHighlights || len(p.TermIDs) == 0 {
			return nil
		}

		seen := make(map[int]bool)
		for _, termID := range p.TermIDs {
			ordinals, ok, err := a.postings.Get(hit.EpisodeID, termID)
			if err != nil {
				return err
			}
			if !ok {
				continue
			}
			for _, ord := range ordinals {
				ordinal := int(ord)
				if seen[ordinal] || ordinal >= len(archived.Sentences) {
					continue
				}
				seen[ordinal] = true

				spans, found := highlight.Highlight(archived.Sentences[ordinal], p.TermIDs, archived.Text, p.IsPhrase)
				if !found {
					continue
				}
				for i := range spans {
					spans[i].Text = strings.Clone(spans[i].Text)
				}
				result.Highlights = append(result.Highlights, Highlight{SentenceOrdinal: ordinal, Spans: spans})
			}
		}
		return nil
	})
	if err != nil {
		return Result{}, fmt.Errorf("assemble: episode %d: %w", hit.EpisodeID, err)
	}
	return result, nil
}
