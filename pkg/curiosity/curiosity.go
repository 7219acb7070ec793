// Package curiosity wires components A–J into a single facade, in the
// style of the teacher's korel.go: an Options struct, a New constructor,
// and a handful of high-level methods (Rebuild, Search) that hide the
// component wiring from cmd/* callers.
package curiosity

import (
	"context"
	"fmt"
	"path/filepath"

	"go.etcd.io/bbolt"

	"github.com/atthetable/curiosity/pkg/curiosity/alias"
	"github.com/atthetable/curiosity/pkg/curiosity/assemble"
	"github.com/atthetable/curiosity/pkg/curiosity/build"
	"github.com/atthetable/curiosity/pkg/curiosity/ftsindex"
	"github.com/atthetable/curiosity/pkg/curiosity/fstore"
	"github.com/atthetable/curiosity/pkg/curiosity/model"
	"github.com/atthetable/curiosity/pkg/curiosity/pstore"
	"github.com/atthetable/curiosity/pkg/curiosity/query"
	"github.com/atthetable/curiosity/pkg/curiosity/search"
	"github.com/atthetable/curiosity/pkg/curiosity/termdict"
)

const (
	dbFileName   = "store.bbolt"
	ftsDirName   = "index"
	dictFileName = "terms.fst"
)

// Options configures a new Engine.
type Options struct {
	// DataDir holds store.bbolt, index/, and terms.fst. Created if absent.
	DataDir string

	// Speakers resolves transcript speaker prefixes to the closed Speaker
	// enumeration. alias.Speakers() if nil.
	Speakers *alias.Table
}

// Engine is curiosity's top-level handle: the live term dictionary, the
// two bbolt-backed stores, the text index, and the planner/searcher/
// assembler/builder built on top of them.
type Engine struct {
	db        *bbolt.DB
	forward   *fstore.Store
	postings  *pstore.Store
	ftsIndex  *ftsindex.Index
	dictGuard *termdict.Guard
	builder   *build.Builder
	planner   *query.Planner
	searcher  *search.Searcher
	assembler *assemble.Assembler

	ftsDir string
}

// New opens (creating if necessary) the on-disk stores under
// opts.DataDir and returns a ready-to-use Engine.
func New(opts Options) (*Engine, error) {
	if err := build.EnsureDir(opts.DataDir); err != nil {
		return nil, fmt.Errorf("curiosity: data dir: %w", err)
	}

	speakers := opts.Speakers
	if speakers == nil {
		speakers = alias.Speakers()
	}

	dbPath := filepath.Join(opts.DataDir, dbFileName)
	// bbolt has no cache of its own; a 1 GB initial mmap lets the OS page
	// cache serve reads of the forward and posting stores.
	db, err := bbolt.Open(dbPath, 0o600, &bbolt.Options{InitialMmapSize: 1 << 30})
	if err != nil {
		return nil, fmt.Errorf("curiosity: open %s: %w", dbPath, err)
	}

	forward, err := fstore.Open(db)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("curiosity: %w", err)
	}
	postings, err := pstore.Open(db)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("curiosity: %w", err)
	}

	dictPath := filepath.Join(opts.DataDir, dictFileName)
	dict, err := build.LoadOrBootstrap(dictPath)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("curiosity: %w", err)
	}
	dictGuard := termdict.NewGuard(dict)

	ftsDir := filepath.Join(opts.DataDir, ftsDirName)
	ftsIndex, err := openOrBootstrapFTSIndex(ftsDir)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("curiosity: %w", err)
	}

	builder := build.New(forward, postings, ftsDir, dictPath, dictGuard, speakers)
	planner := query.NewPlanner(dictGuard)
	searcher := search.New(ftsIndex)
	assembler := assemble.New(forward, postings)

	return &Engine{
		db:        db,
		forward:   forward,
		postings:  postings,
		ftsIndex:  ftsIndex,
		dictGuard: dictGuard,
		builder:   builder,
		planner:   planner,
		searcher:  searcher,
		assembler: assembler,
		ftsDir:    ftsDir,
	}, nil
}

// openOrBootstrapFTSIndex opens the text index at dir, first creating an
// empty one if this is a brand new data directory (bleve.Open fails
// against a directory that has never been built).
func openOrBootstrapFTSIndex(dir string) (*ftsindex.Index, error) {
	idx, err := ftsindex.Open(dir)
	if err == nil {
		return idx, nil
	}

	builder, buildErr := ftsindex.NewBuilder(dir)
	if buildErr != nil {
		return nil, err
	}
	if closeErr := builder.Close(); closeErr != nil {
		return nil, closeErr
	}
	return ftsindex.Open(dir)
}

// Close releases the text index and the shared bbolt database.
func (e *Engine) Close() error {
	if err := e.ftsIndex.Close(); err != nil {
		e.db.Close()
		return fmt.Errorf("curiosity: close text index: %w", err)
	}
	return e.db.Close()
}

// Rebuild re-indexes the whole corpus from seasons, reading each
// episode's transcript with readDocument, then reloads the text index so
// subsequent Search calls see the new generation.
func (e *Engine) Rebuild(ctx context.Context, seasons []model.Season, readDocument build.ReadDocument) (build.Stats, error) {
	stats, err := e.builder.Rebuild(ctx, seasons, readDocument)
	if err != nil {
		return stats, err
	}
	if err := e.ftsIndex.Reload(); err != nil {
		return stats, fmt.Errorf("curiosity: reload text index: %w", err)
	}
	return stats, nil
}

// SearchRequest is one query-endpoint request, independent of how it
// arrived (HTTP, a direct Go call in tests, …).
type SearchRequest struct {
	Kind           query.Kind
	Query          string
	Seasons        []uint64
	WithHighlights bool
	PageSize       int
	Offset         int
}

// SearchResponse is the fully assembled answer to a SearchRequest.
type SearchResponse struct {
	Results []assemble.Result
	HasMore bool
}

// Search plans req.Query, executes it against the text index, and
// assembles the resulting hits into full Results, highlighting matched
// sentences if requested.
func (e *Engine) Search(ctx context.Context, req SearchRequest) (SearchResponse, error) {
	plan, err := e.planner.Plan(req.Kind, req.Query)
	if err != nil {
		return SearchResponse{}, err
	}

	results, err := e.searcher.Search(ctx, plan, req.Seasons, req.PageSize, req.Offset)
	if err != nil {
		return SearchResponse{}, err
	}

	assembled, err := e.assembler.Assemble(results.Hits, plan, req.WithHighlights)
	if err != nil {
		return SearchResponse{}, err
	}

	return SearchResponse{Results: assembled, HasMore: results.HasMore}, nil
}
