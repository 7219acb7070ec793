package curiosity

import (
	"context"
	"testing"

	"github.com/atthetable/curiosity/pkg/curiosity/model"
	"github.com/atthetable/curiosity/pkg/curiosity/query"
)

func testSeasons() []model.Season {
	return []model.Season{
		{
			ID: model.SeasonMarielda,
			Episodes: []model.Episode{
				{Title: "The Cat Returns", Slug: "the-cat-returns", Ordinal: 1, Download: &model.Download{Plain: "s1e1.txt"}},
				{Title: "A Quiet Evening", Slug: "a-quiet-evening", Ordinal: 2, Download: &model.Download{Plain: "s1e2.txt"}},
			},
		},
	}
}

func testReadDocument(season model.SeasonID, episode model.Episode) (string, error) {
	switch episode.Slug {
	case "the-cat-returns":
		return "Austin: the cat sat on the mat.\nAli: the cat purred.\n", nil
	case "a-quiet-evening":
		return "Austin: nothing much happened tonight.\n", nil
	}
	return "", nil
}

func newTestEngine(t *testing.T) *Engine {
	t.Helper()
	e, err := New(Options{DataDir: t.TempDir()})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(func() { e.Close() })
	return e
}

func TestEngineRebuildAndSearch(t *testing.T) {
	e := newTestEngine(t)
	ctx := context.Background()

	stats, err := e.Rebuild(ctx, testSeasons(), testReadDocument)
	if err != nil {
		t.Fatalf("Rebuild: %v", err)
	}
	if stats.EpisodesIndexed != 2 {
		t.Fatalf("EpisodesIndexed = %d, want 2", stats.EpisodesIndexed)
	}

	resp, err := e.Search(ctx, SearchRequest{
		Kind:           query.KindKeywords,
		Query:          "cat",
		WithHighlights: true,
		PageSize:       10,
	})
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(resp.Results) != 1 {
		t.Fatalf("len(Results) = %d, want 1 (only one episode mentions cat)", len(resp.Results))
	}
	if resp.Results[0].Slug != "the-cat-returns" {
		t.Errorf("Slug = %q, want the-cat-returns", resp.Results[0].Slug)
	}
	if len(resp.Results[0].Highlights) != 2 {
		t.Errorf("len(Highlights) = %d, want 2 (both lines mention cat)", len(resp.Results[0].Highlights))
	}
}

func TestEngineSearchWithNoMatchesReturnsEmpty(t *testing.T) {
	e := newTestEngine(t)
	ctx := context.Background()

	if _, err := e.Rebuild(ctx, testSeasons(), testReadDocument); err != nil {
		t.Fatalf("Rebuild: %v", err)
	}

	resp, err := e.Search(ctx, SearchRequest{
		Kind:     query.KindKeywords,
		Query:    "spaceship",
		PageSize: 10,
	})
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(resp.Results) != 0 {
		t.Errorf("len(Results) = %d, want 0", len(resp.Results))
	}
}

func TestEngineSearchFiltersBySeason(t *testing.T) {
	e := newTestEngine(t)
	ctx := context.Background()

	if _, err := e.Rebuild(ctx, testSeasons(), testReadDocument); err != nil {
		t.Fatalf("Rebuild: %v", err)
	}

	resp, err := e.Search(ctx, SearchRequest{
		Kind:     query.KindKeywords,
		Query:    "cat",
		Seasons:  []uint64{uint64(model.SeasonHomecoming)},
		PageSize: 10,
	})
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(resp.Results) != 0 {
		t.Errorf("len(Results) = %d, want 0 when filtered to a season with no episodes", len(resp.Results))
	}
}

func TestNewIsIdempotentAcrossReopens(t *testing.T) {
	dir := t.TempDir()

	e1, err := New(Options{DataDir: dir})
	if err != nil {
		t.Fatalf("New (first open): %v", err)
	}
	ctx := context.Background()
	if _, err := e1.Rebuild(ctx, testSeasons(), testReadDocument); err != nil {
		t.Fatalf("Rebuild: %v", err)
	}
	if err := e1.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	e2, err := New(Options{DataDir: dir})
	if err != nil {
		t.Fatalf("New (second open): %v", err)
	}
	defer e2.Close()

	resp, err := e2.Search(ctx, SearchRequest{Kind: query.KindKeywords, Query: "cat", PageSize: 10})
	if err != nil {
		t.Fatalf("Search after reopen: %v", err)
	}
	if len(resp.Results) != 1 {
		t.Errorf("len(Results) after reopen = %d, want 1", len(resp.Results))
	}
}
