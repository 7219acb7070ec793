package build

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"

	"go.etcd.io/bbolt"

	"github.com/atthetable/curiosity/pkg/curiosity/alias"
	"github.com/atthetable/curiosity/pkg/curiosity/curiosityerr"
	"github.com/atthetable/curiosity/pkg/curiosity/fstore"
	"github.com/atthetable/curiosity/pkg/curiosity/model"
	"github.com/atthetable/curiosity/pkg/curiosity/pstore"
	"github.com/atthetable/curiosity/pkg/curiosity/termdict"
)

func newTestBuilder(t *testing.T) (*Builder, *fstore.Store, *pstore.Store, string) {
	t.Helper()
	dir := t.TempDir()

	db, err := bbolt.Open(filepath.Join(dir, "index.db"), 0o600, nil)
	if err != nil {
		t.Fatalf("bbolt.Open: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	forward, err := fstore.Open(db)
	if err != nil {
		t.Fatalf("fstore.Open: %v", err)
	}
	postings, err := pstore.Open(db)
	if err != nil {
		t.Fatalf("pstore.Open: %v", err)
	}

	bootstrap, err := termdict.New()
	if err != nil {
		t.Fatalf("termdict.New: %v", err)
	}
	guard := termdict.NewGuard(bootstrap)

	ftsDir := filepath.Join(dir, "fts")
	dictPath := filepath.Join(dir, "terms.fst")

	b := New(forward, postings, ftsDir, dictPath, guard, alias.Speakers())
	return b, forward, postings, dictPath
}

func testSeasons() []model.Season {
	return []model.Season{
		{
			ID: model.SeasonMarielda,
			Episodes: []model.Episode{
				{
					Title:    "The Road to Ankhar",
					Slug:     "road-to-ankhar",
					Ordinal:  1,
					Download: &model.Download{Plain: "s2/e1.txt"},
				},
				{
					Title:    "No Transcript Yet",
					Slug:     "no-transcript",
					Ordinal:  2,
					Download: nil,
				},
			},
		},
	}
}

func testReadDocument(season model.SeasonID, episode model.Episode) (string, error) {
	return "Austin: The road to Ankhar is long.\nBrennan: Indeed it is.", nil
}

func TestRebuildIndexesEpisodesAndSkipsMissingDownloads(t *testing.T) {
	b, forward, _, _ := newTestBuilder(t)

	stats, err := b.Rebuild(context.Background(), testSeasons(), testReadDocument)
	if err != nil {
		t.Fatalf("Rebuild: %v", err)
	}

	if stats.EpisodesIndexed != 1 {
		t.Errorf("EpisodesIndexed = %d, want 1", stats.EpisodesIndexed)
	}
	if stats.EpisodesSkipped != 1 {
		t.Errorf("EpisodesSkipped = %d, want 1", stats.EpisodesSkipped)
	}
	if stats.Sentences != 2 {
		t.Errorf("Sentences = %d, want 2", stats.Sentences)
	}
	if stats.Terms <= 1 {
		t.Errorf("Terms = %d, want more than the bootstrap entry", stats.Terms)
	}

	episodeID := model.EpisodeID(model.SeasonMarielda, 1)
	var gotTitle string
	err = forward.Get(episodeID, func(buf []byte) error {
		a, err := model.Decode(buf)
		if err != nil {
			return err
		}
		gotTitle = a.Title
		return nil
	})
	if err != nil {
		t.Fatalf("forward.Get: %v", err)
	}
	if gotTitle != "The Road to Ankhar" {
		t.Errorf("archived title = %q, want %q", gotTitle, "The Road to Ankhar")
	}
}

func TestRebuildSkipsNotFoundTranscriptAndContinues(t *testing.T) {
	b, forward, _, _ := newTestBuilder(t)

	readDocument := func(season model.SeasonID, episode model.Episode) (string, error) {
		if episode.Slug == "road-to-ankhar" {
			return "", fmt.Errorf("archive: open %s: %w", episode.Download.Plain, curiosityerr.ErrNotFound)
		}
		return testReadDocument(season, episode)
	}

	seasons := []model.Season{
		{
			ID: model.SeasonMarielda,
			Episodes: []model.Episode{
				{Title: "The Road to Ankhar", Slug: "road-to-ankhar", Ordinal: 1, Download: &model.Download{Plain: "s2/e1.txt"}},
				{Title: "Hinterlands", Slug: "hinterlands", Ordinal: 2, Download: &model.Download{Plain: "s2/e2.txt"}},
			},
		},
	}

	stats, err := b.Rebuild(context.Background(), seasons, readDocument)
	if err != nil {
		t.Fatalf("Rebuild: %v", err)
	}
	if stats.EpisodesIndexed != 1 {
		t.Errorf("EpisodesIndexed = %d, want 1", stats.EpisodesIndexed)
	}
	if stats.EpisodesSkipped != 1 {
		t.Errorf("EpisodesSkipped = %d, want 1 (missing transcript logged and skipped, not aborted)", stats.EpisodesSkipped)
	}

	n, err := forward.Count()
	if err != nil {
		t.Fatalf("Count: %v", err)
	}
	if n != 1 {
		t.Errorf("Count = %d, want 1 (only the episode with a readable transcript)", n)
	}
}

func TestRebuildAbortsOnNonNotFoundReadError(t *testing.T) {
	b, _, _, _ := newTestBuilder(t)

	readDocument := func(season model.SeasonID, episode model.Episode) (string, error) {
		return "", fmt.Errorf("archive: corrupt zip entry for %s", episode.Slug)
	}

	if _, err := b.Rebuild(context.Background(), testSeasons(), readDocument); err == nil {
		t.Error("Rebuild with a non-not-found read error: err = nil, want error")
	}
}

func TestRebuildSwapsTermDictionary(t *testing.T) {
	b, _, _, dictPath := newTestBuilder(t)

	if _, err := b.Rebuild(context.Background(), testSeasons(), testReadDocument); err != nil {
		t.Fatalf("Rebuild: %v", err)
	}

	current := b.dictGuard.Current()
	if _, ok := current.Get("ankhar"); !ok {
		t.Error("term dictionary swap did not include a term seen during rebuild")
	}

	loaded, err := LoadOrBootstrap(dictPath)
	if err != nil {
		t.Fatalf("LoadOrBootstrap: %v", err)
	}
	if _, ok := loaded.Get("ankhar"); !ok {
		t.Error("persisted term dictionary file does not include a term seen during rebuild")
	}
}

func TestRebuildIsIdempotent(t *testing.T) {
	b, forward, _, _ := newTestBuilder(t)

	if _, err := b.Rebuild(context.Background(), testSeasons(), testReadDocument); err != nil {
		t.Fatalf("first Rebuild: %v", err)
	}
	if _, err := b.Rebuild(context.Background(), testSeasons(), testReadDocument); err != nil {
		t.Fatalf("second Rebuild: %v", err)
	}

	n, err := forward.Count()
	if err != nil {
		t.Fatalf("Count: %v", err)
	}
	if n != 1 {
		t.Errorf("Count after two rebuilds = %d, want 1 (truncate-then-repopulate)", n)
	}
}

func TestLoadOrBootstrapMissingFile(t *testing.T) {
	d, err := LoadOrBootstrap(filepath.Join(t.TempDir(), "does-not-exist.fst"))
	if err != nil {
		t.Fatalf("LoadOrBootstrap: %v", err)
	}
	if _, ok := d.Get(" "); !ok {
		t.Error("bootstrap dictionary missing its single entry")
	}
}
