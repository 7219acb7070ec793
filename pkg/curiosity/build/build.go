// Package build is the index builder: it orchestrates a full rebuild of
// the forward store, posting store, text index, and term dictionary from
// a corpus of seasons and episodes. It plays the role the teacher's
// ingest.Pipeline and cmd/rss-indexer/main.go's ingest loop play together:
// a thin orchestrator over already-built components.
package build

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"go.etcd.io/bbolt"

	"github.com/atthetable/curiosity/pkg/curiosity/alias"
	"github.com/atthetable/curiosity/pkg/curiosity/curiosityerr"
	"github.com/atthetable/curiosity/pkg/curiosity/ftsindex"
	"github.com/atthetable/curiosity/pkg/curiosity/fstore"
	"github.com/atthetable/curiosity/pkg/curiosity/model"
	"github.com/atthetable/curiosity/pkg/curiosity/pstore"
	"github.com/atthetable/curiosity/pkg/curiosity/termdict"
	"github.com/atthetable/curiosity/pkg/curiosity/tokenize"
)

// Stats reports what a Rebuild did, the Go analogue of the teacher's
// "Ingested %d/%d documents" progress logging — returned here so callers
// can log it however they like instead of Rebuild logging directly.
type Stats struct {
	EpisodesIndexed int
	EpisodesSkipped int
	Sentences       int
	Terms           int
}

// ReadDocument fetches the plaintext transcript for one episode.
type ReadDocument func(season model.SeasonID, episode model.Episode) (string, error)

// Builder rebuilds the whole index from scratch on each call to Rebuild.
type Builder struct {
	forward   *fstore.Store
	postings  *pstore.Store
	ftsDir    string
	dictPath  string
	dictGuard *termdict.Guard
	sentences *tokenize.SentenceBuilder
}

// New constructs a Builder. ftsDir is the directory the bleve index lives
// in; dictPath is the file the serialized term dictionary is persisted
// to; dictGuard is the live, queryable term dictionary that Rebuild
// atomically swaps at the end of a successful build.
func New(forward *fstore.Store, postings *pstore.Store, ftsDir, dictPath string, dictGuard *termdict.Guard, speakers *alias.Table) *Builder {
	return &Builder{
		forward:   forward,
		postings:  postings,
		ftsDir:    ftsDir,
		dictPath:  dictPath,
		dictGuard: dictGuard,
		sentences: tokenize.NewSentenceBuilder(speakers),
	}
}

// Rebuild truncates the forward and posting stores, deletes and rebuilds
// the text index, and replaces the term dictionary, all from the given
// seasons. Episodes with no download descriptor, or whose transcript
// readDocument reports missing, are skipped and counted in
// Stats.EpisodesSkipped; any other failure aborts the whole rebuild. The
// forward and posting store writes happen inside one bbolt write transaction;
// the text index batch writer and the term dictionary are committed
// afterward, matching the ordering guarantee in the concurrency model:
// if the KV commit succeeds but the index commit fails, the next
// periodic rebuild starts over, which is acceptable because rebuilds are
// idempotent.
func (b *Builder) Rebuild(ctx context.Context, seasons []model.Season, readDocument ReadDocument) (Stats, error) {
	var stats Stats
	terms := tokenize.NewTermMap()

	ftsBuilder, err := ftsindex.NewBuilder(b.ftsDir)
	if err != nil {
		return stats, fmt.Errorf("build: new text index builder: %w", err)
	}

	err = b.forward.DB().Update(func(tx *bbolt.Tx) error {
		if err := b.forward.TruncateTx(tx); err != nil {
			return fmt.Errorf("build: truncate forward store: %w", err)
		}
		if err := b.postings.TruncateTx(tx); err != nil {
			return fmt.Errorf("build: truncate posting store: %w", err)
		}

		for _, season := range seasons {
			for _, episode := range season.Episodes {
				if err := ctx.Err(); err != nil {
					return err
				}

				if episode.Download == nil {
					stats.EpisodesSkipped++
					continue
				}

				if err := b.indexEpisode(tx, ftsBuilder, terms, season.ID, episode, readDocument, &stats); err != nil {
					if errors.Is(err, curiosityerr.ErrNotFound) || errors.Is(err, curiosityerr.ErrEmptyDownload) {
						stats.EpisodesSkipped++
						continue
					}
					return err
				}
			}
		}
		return nil
	})
	if err != nil {
		ftsBuilder.Close()
		return stats, err
	}

	if err := ftsBuilder.Close(); err != nil {
		return stats, fmt.Errorf("build: commit text index: %w", err)
	}

	keys, ids := terms.Sorted()
	dict, err := termdict.Build(keys, ids)
	if err != nil {
		return stats, fmt.Errorf("build: build term dictionary: %w", err)
	}
	stats.Terms = dict.Len()

	if err := persistDict(b.dictPath, dict); err != nil {
		return stats, fmt.Errorf("build: persist term dictionary: %w", err)
	}
	b.dictGuard.Swap(dict)

	return stats, nil
}

func (b *Builder) indexEpisode(
	tx *bbolt.Tx,
	ftsBuilder *ftsindex.Builder,
	terms *tokenize.TermMap,
	season model.SeasonID,
	episode model.Episode,
	readDocument ReadDocument,
	stats *Stats,
) error {
	episodeID := model.EpisodeID(season, episode.Ordinal)

	text, err := readDocument(season, episode)
	if err != nil {
		return fmt.Errorf("build: read document %s: %w", episode.Slug, err)
	}

	sentences, err := b.sentences.Build(text, terms)
	if err != nil {
		return fmt.Errorf("build: tokenize %s: %w", episode.Slug, err)
	}

	archived := model.Archive(model.BuiltEpisode{
		ID:        episodeID,
		Season:    season,
		DocsID:    episode.DocsID,
		Slug:      episode.Slug,
		Title:     episode.Title,
		Text:      text,
		Sentences: sentences,
	})
	if err := b.forward.PutTx(tx, episodeID, archived); err != nil {
		return fmt.Errorf("build: store forward record %s: %w", episode.Slug, err)
	}

	postings := make(map[uint32][]uint32)
	var order []uint32
	for ordinal, sentence := range sentences {
		for _, tok := range sentence.Tokens {
			if _, seen := postings[tok.TermID]; !seen {
				order = append(order, tok.TermID)
			}
			postings[tok.TermID] = append(postings[tok.TermID], uint32(ordinal))
		}
	}
	for _, termID := range order {
		if err := b.postings.PutTx(tx, episodeID, termID, postings[termID]); err != nil {
			return fmt.Errorf("build: store posting %s/%d: %w", episode.Slug, termID, err)
		}
	}

	if err := ftsBuilder.AddDocument(episodeID, uint64(season), episode.Title, text); err != nil {
		return fmt.Errorf("build: add text index document %s: %w", episode.Slug, err)
	}

	stats.EpisodesIndexed++
	stats.Sentences += len(sentences)
	return nil
}

func persistDict(path string, dict *termdict.Dict) error {
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, dict.Bytes(), 0o644); err != nil {
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("rename into place: %w", err)
	}
	return nil
}

// LoadOrBootstrap loads a previously persisted term dictionary from path,
// or returns the bootstrap dictionary if no file exists yet.
func LoadOrBootstrap(path string) (*termdict.Dict, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return termdict.New()
		}
		return nil, fmt.Errorf("build: read %s: %w", path, err)
	}
	return termdict.Load(raw)
}

// EnsureDir creates dir (and any parents) if it does not already exist.
func EnsureDir(dir string) error {
	return os.MkdirAll(filepath.Clean(dir), 0o755)
}
