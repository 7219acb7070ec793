package search

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/blevesearch/bleve/v2"

	"github.com/atthetable/curiosity/pkg/curiosity/ftsindex"
	plan "github.com/atthetable/curiosity/pkg/curiosity/query"
)

func buildTestIndex(t *testing.T) *ftsindex.Index {
	t.Helper()
	dir := filepath.Join(t.TempDir(), "fts")

	b, err := ftsindex.NewBuilder(dir)
	if err != nil {
		t.Fatalf("NewBuilder: %v", err)
	}
	docs := []struct {
		id     uint64
		season uint64
		title  string
		body   string
	}{
		{2001, 2, "The Road to Ankhar", "General Kenobi arrives at the gates of Ankhar."},
		{2002, 2, "Leviathan Rising", "Ankhar's shadow falls over the pirate crew."},
		{3001, 3, "Homecoming Pilot", "A quiet town hides an ankhar-shaped secret."},
	}
	for _, d := range docs {
		if err := b.AddDocument(d.id, d.season, d.title, d.body); err != nil {
			t.Fatalf("AddDocument(%d): %v", d.id, err)
		}
	}
	if err := b.Close(); err != nil {
		t.Fatalf("Close builder: %v", err)
	}

	idx, err := ftsindex.Open(dir)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { idx.Close() })
	return idx
}

func keywordPlan(word string) plan.Plan {
	q := bleve.NewMatchQuery(word)
	q.SetField("body")
	return plan.Plan{Query: q}
}

func TestSearchOrdersNewestFirst(t *testing.T) {
	idx := buildTestIndex(t)
	s := New(idx)

	res, err := s.Search(context.Background(), keywordPlan("ankhar"), nil, 10, 0)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(res.Hits) != 3 {
		t.Fatalf("len(Hits) = %d, want 3", len(res.Hits))
	}
	for i := 1; i < len(res.Hits); i++ {
		if res.Hits[i].EpisodeID > res.Hits[i-1].EpisodeID {
			t.Errorf("hit %d EpisodeID %d > previous %d, want descending", i, res.Hits[i].EpisodeID, res.Hits[i-1].EpisodeID)
		}
	}
}

func TestSearchSeasonFilter(t *testing.T) {
	idx := buildTestIndex(t)
	s := New(idx)

	res, err := s.Search(context.Background(), keywordPlan("ankhar"), []uint64{3}, 10, 0)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(res.Hits) != 1 {
		t.Fatalf("len(Hits) = %d, want 1", len(res.Hits))
	}
	if res.Hits[0].Season != 3 {
		t.Errorf("Season = %d, want 3", res.Hits[0].Season)
	}
}

func TestSearchPageSizeCapped(t *testing.T) {
	idx := buildTestIndex(t)
	s := New(idx)

	res, err := s.Search(context.Background(), keywordPlan("ankhar"), nil, MaxPageSize+50, 0)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(res.Hits) > MaxPageSize {
		t.Errorf("len(Hits) = %d, exceeds MaxPageSize %d", len(res.Hits), MaxPageSize)
	}
}

func TestSearchOffsetPagination(t *testing.T) {
	idx := buildTestIndex(t)
	s := New(idx)

	page1, err := s.Search(context.Background(), keywordPlan("ankhar"), nil, 2, 0)
	if err != nil {
		t.Fatalf("Search page1: %v", err)
	}
	if !page1.HasMore {
		t.Error("page1.HasMore = false, want true")
	}

	page2, err := s.Search(context.Background(), keywordPlan("ankhar"), nil, 2, 2)
	if err != nil {
		t.Fatalf("Search page2: %v", err)
	}
	if page2.HasMore {
		t.Error("page2.HasMore = true, want false")
	}
	if len(page1.Hits)+len(page2.Hits) != 3 {
		t.Errorf("total hits across pages = %d, want 3", len(page1.Hits)+len(page2.Hits))
	}
}

func TestSearchRejectsNegativeOffset(t *testing.T) {
	idx := buildTestIndex(t)
	s := New(idx)

	if _, err := s.Search(context.Background(), keywordPlan("ankhar"), nil, 10, -1); err == nil {
		t.Error("Search(offset=-1) = nil error, want error")
	}
}
