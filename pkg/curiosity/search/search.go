// Package search is the searcher: it executes a planned query against
// the text index, applying the season filter and the newest-first sort
// order, and returns a bounded page of hits. It is a thin wrapper over
// ftsindex — all query construction happens upstream in package query.
package search

import (
	"context"
	"fmt"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/search/query"

	"github.com/atthetable/curiosity/pkg/curiosity/curiosityerr"
	"github.com/atthetable/curiosity/pkg/curiosity/ftsindex"
	plan "github.com/atthetable/curiosity/pkg/curiosity/query"
)

// MaxPageSize is the hard cap on requested page size, regardless of what
// a caller asks for.
const MaxPageSize = 100

// Hit is one result: an episode ID and the fields the caller needs to
// look it up in the forward store.
type Hit struct {
	EpisodeID uint64
	Season    uint64
}

// Results is a bounded page of hits plus whether more pages remain.
type Results struct {
	Hits    []Hit
	HasMore bool
}

// Searcher runs planned queries against a text index.
type Searcher struct {
	index *ftsindex.Index
}

// New returns a Searcher reading from index.
func New(index *ftsindex.Index) *Searcher {
	return &Searcher{index: index}
}

// Search runs p against the index, restricting results to seasons (empty
// means no restriction), returning up to pageSize hits starting at
// offset, newest episode first. pageSize is capped at MaxPageSize.
func (s *Searcher) Search(ctx context.Context, p plan.Plan, seasons []uint64, pageSize, offset int) (Results, error) {
	if pageSize <= 0 {
		pageSize = MaxPageSize
	}
	if pageSize > MaxPageSize {
		pageSize = MaxPageSize
	}
	if offset < 0 {
		return Results{}, fmt.Errorf("search: negative offset: %w", curiosityerr.ErrInvalidPage)
	}

	q := p.Query
	if len(seasons) > 0 {
		conj := bleve.NewConjunctionQuery(q, seasonFilter(seasons))
		q = conj
	}

	req := bleve.NewSearchRequestOptions(q, pageSize, offset, false)
	req.Fields = []string{"episode_id", "season"}
	req.SortBy([]string{"-episode_id"})

	res, err := s.index.Execute(req)
	if err != nil {
		return Results{}, fmt.Errorf("search: execute: %w", err)
	}

	hits := make([]Hit, 0, len(res.Hits))
	for _, h := range res.Hits {
		hits = append(hits, Hit{
			EpisodeID: numericField(h.Fields, "episode_id"),
			Season:    numericField(h.Fields, "season"),
		})
	}

	hasMore := uint64(offset+len(hits)) < res.Total
	return Results{Hits: hits, HasMore: hasMore}, nil
}

func numericField(fields map[string]interface{}, name string) uint64 {
	v, ok := fields[name]
	if !ok {
		return 0
	}
	f, ok := v.(float64)
	if !ok {
		return 0
	}
	return uint64(f)
}

// seasonFilter builds a disjunction of exact-match numeric range queries
// over the season field, one per allowed season code.
func seasonFilter(seasons []uint64) query.Query {
	disj := bleve.NewDisjunctionQuery()
	for _, season := range seasons {
		lo, hi := float64(season), float64(season)
		inclusive := true
		nq := bleve.NewNumericRangeInclusiveQuery(&lo, &hi, &inclusive, &inclusive)
		nq.SetField("season")
		disj.AddQuery(nq)
	}
	return disj
}
