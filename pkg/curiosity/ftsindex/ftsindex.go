// Package ftsindex wraps the ranked text index: a bleve full-text index
// over episode title/body text, with episode_id and season kept as
// stored, doc-valued numeric fields for fast sort and filter. Bleve's own
// stored-fields codec for title/body is disabled — the forward store is
// the canonical record of that text, so the index only needs to be able
// to find and score it, not return it.
package ftsindex

import (
	"fmt"
	"os"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/mapping"

	"github.com/atthetable/curiosity/pkg/curiosity/tokenize"
)

const batchFlushSize = 2000

// Index wraps an open bleve index for either bulk building or querying.
type Index struct {
	bleve bleve.Index
	dir   string
}

// documentType is the mapping name given to every indexed episode.
const documentType = "episode"

func buildMapping() mapping.IndexMapping {
	episodeIDField := bleve.NewNumericFieldMapping()
	episodeIDField.Store = true
	episodeIDField.DocValues = true
	episodeIDField.IncludeInAll = false

	seasonField := bleve.NewNumericFieldMapping()
	seasonField.Store = true
	seasonField.DocValues = true
	seasonField.IncludeInAll = false

	titleField := bleve.NewTextFieldMapping()
	titleField.Analyzer = tokenize.AnalyzerName
	titleField.Store = false
	titleField.DocValues = false

	bodyField := bleve.NewTextFieldMapping()
	bodyField.Analyzer = tokenize.AnalyzerName
	bodyField.Store = false
	bodyField.DocValues = false

	doc := bleve.NewDocumentMapping()
	doc.AddFieldMappingsAt("episode_id", episodeIDField)
	doc.AddFieldMappingsAt("season", seasonField)
	doc.AddFieldMappingsAt("title", titleField)
	doc.AddFieldMappingsAt("body", bodyField)
	doc.StoreDynamic = false
	doc.DocValuesDynamic = false

	im := bleve.NewIndexMapping()
	im.DefaultMapping = doc
	im.AddDocumentMapping(documentType, doc)
	im.StoreDynamic = false
	im.DocValuesDynamic = false
	return im
}

// document is the payload shape AddDocument hands to bleve.
type document struct {
	Type      string `json:"_type"`
	EpisodeID uint64 `json:"episode_id"`
	Season    uint64 `json:"season"`
	Title     string `json:"title"`
	Body      string `json:"body"`
}

// Builder is a bulk-rebuild writer: a fresh index at dir, batching
// documents to bound heap during a rebuild of the whole corpus.
type Builder struct {
	idx   *Index
	batch *bleve.Batch
	n     int
}

// NewBuilder removes any existing index at dir and opens a fresh one
// ready to receive AddDocument calls.
func NewBuilder(dir string) (*Builder, error) {
	if err := os.RemoveAll(dir); err != nil {
		return nil, fmt.Errorf("ftsindex: clearing %s: %w", dir, err)
	}
	bi, err := bleve.New(dir, buildMapping())
	if err != nil {
		return nil, fmt.Errorf("ftsindex: new index at %s: %w", dir, err)
	}
	idx := &Index{bleve: bi, dir: dir}
	return &Builder{idx: idx, batch: bi.NewBatch()}, nil
}

// AddDocument queues episodeID for indexing under the given season,
// title, and body text, flushing the batch whenever it grows past
// batchFlushSize documents.
func (b *Builder) AddDocument(episodeID uint64, season uint64, title, body string) error {
	doc := document{Type: documentType, EpisodeID: episodeID, Season: season, Title: title, Body: body}
	id := fmt.Sprintf("%d", episodeID)
	if err := b.batch.Index(id, doc); err != nil {
		return fmt.Errorf("ftsindex: batch index %d: %w", episodeID, err)
	}
	b.n++
	if b.n >= batchFlushSize {
		return b.flush()
	}
	return nil
}

func (b *Builder) flush() error {
	if b.n == 0 {
		return nil
	}
	if err := b.idx.bleve.Batch(b.batch); err != nil {
		return fmt.Errorf("ftsindex: flush batch: %w", err)
	}
	b.batch = b.idx.bleve.NewBatch()
	b.n = 0
	return nil
}

// Close flushes any pending documents and closes the underlying index.
// Callers that want to query what they just built should use Open on the
// same directory instead of continuing to use the Builder's Index.
func (b *Builder) Close() error {
	if err := b.flush(); err != nil {
		return err
	}
	return b.idx.bleve.Close()
}

// Open opens an existing index directory for read (query) use.
func Open(dir string) (*Index, error) {
	bi, err := bleve.Open(dir)
	if err != nil {
		return nil, fmt.Errorf("ftsindex: open %s: %w", dir, err)
	}
	return &Index{bleve: bi, dir: dir}, nil
}

// Reload drops the current reader and reopens it, exposing documents
// committed by a rebuild that finished after this Index was opened.
func (idx *Index) Reload() error {
	if err := idx.bleve.Close(); err != nil {
		return fmt.Errorf("ftsindex: reload close: %w", err)
	}
	bi, err := bleve.Open(idx.dir)
	if err != nil {
		return fmt.Errorf("ftsindex: reload open: %w", err)
	}
	idx.bleve = bi
	return nil
}

// Close releases the underlying index.
func (idx *Index) Close() error {
	return idx.bleve.Close()
}

// Execute runs a fully constructed search request against the index.
// Query construction lives in the query and search packages, which build
// bleve.Query/bleve.SearchRequest values and pass them through here —
// ftsindex itself only knows how to execute whatever it is given.
func (idx *Index) Execute(req *bleve.SearchRequest) (*bleve.SearchResult, error) {
	res, err := idx.bleve.Search(req)
	if err != nil {
		return nil, fmt.Errorf("ftsindex: search: %w", err)
	}
	return res, nil
}
