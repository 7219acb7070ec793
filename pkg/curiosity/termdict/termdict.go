// Package termdict is the immutable term dictionary: an ordered-key
// finite-state transducer mapping term text to a dense term ID, built
// once per index rebuild and swapped in atomically for readers.
package termdict

import (
	"bytes"
	"fmt"
	"sort"
	"sync"

	"github.com/blevesearch/vellum"
)

// Dict is a read-only, serializable term dictionary backed by an FST.
type Dict struct {
	fst *vellum.FST
	raw []byte
}

// bootstrapKey is the single entry a freshly created Dict starts with
// before any real build has run, so callers always have a non-nil, valid
// Dict to query.
const bootstrapKey = " "

// New returns the bootstrap dictionary containing only {" ": 0}.
func New() (*Dict, error) {
	return Build([]string{bootstrapKey}, []uint32{0})
}

// Build constructs a Dict from keys and their term IDs. keys must already
// be sorted in ascending byte order — vellum's builder requires strictly
// increasing insertion order and returns an error otherwise. Callers
// (the index builder) are responsible for sorting the accumulated term
// map before calling Build.
func Build(keys []string, ids []uint32) (*Dict, error) {
	if len(keys) != len(ids) {
		return nil, fmt.Errorf("termdict: keys and ids length mismatch: %d vs %d", len(keys), len(ids))
	}
	if !sort.StringsAreSorted(keys) {
		return nil, fmt.Errorf("termdict: keys must be sorted ascending")
	}

	var buf bytes.Buffer
	builder, err := vellum.New(&buf, nil)
	if err != nil {
		return nil, fmt.Errorf("termdict: new builder: %w", err)
	}
	for i, k := range keys {
		if err := builder.Insert([]byte(k), uint64(ids[i])); err != nil {
			return nil, fmt.Errorf("termdict: insert %q: %w", k, err)
		}
	}
	if err := builder.Close(); err != nil {
		return nil, fmt.Errorf("termdict: close builder: %w", err)
	}

	return Load(buf.Bytes())
}

// Load deserializes a Dict from its on-disk FST byte form.
func Load(raw []byte) (*Dict, error) {
	fst, err := vellum.Load(raw)
	if err != nil {
		return nil, fmt.Errorf("termdict: load fst: %w", err)
	}
	return &Dict{fst: fst, raw: raw}, nil
}

// Get resolves term text to its term ID. ok is false if the term is
// absent from the dictionary; vellum performs the full-key match
// internally, so there is no possibility of a false positive here.
func (d *Dict) Get(text string) (uint32, bool) {
	v, exists, err := d.fst.Get([]byte(text))
	if err != nil || !exists {
		return 0, false
	}
	return uint32(v), true
}

// Len reports the number of distinct terms in the dictionary.
func (d *Dict) Len() int {
	return int(d.fst.Len())
}

// Bytes returns the dictionary's self-contained serialized form, suitable
// for writing to terms.fst and reloading later with Load.
func (d *Dict) Bytes() []byte {
	return d.raw
}

// Close releases resources backing the FST. Safe to call on a Dict built
// from an in-memory byte slice (Load); it is a no-op there.
func (d *Dict) Close() error {
	return d.fst.Close()
}

// Guard is a single-writer/many-readers holder for the live Dict. Readers
// call Current, which only takes the read lock long enough to copy the
// pointer; the write lock is held only for the pointer swap itself, never
// for the build that produces the new Dict.
type Guard struct {
	mu   sync.RWMutex
	dict *Dict
}

// NewGuard wraps an initial Dict (typically the bootstrap dictionary or
// one loaded from terms.fst at startup).
func NewGuard(d *Dict) *Guard {
	return &Guard{dict: d}
}

// Current returns the currently live Dict.
func (g *Guard) Current() *Dict {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.dict
}

// Swap installs a newly built Dict as the live one. Callers should build
// the replacement fully before calling Swap, since Swap holds the write
// lock only for the duration of the pointer assignment.
func (g *Guard) Swap(d *Dict) {
	g.mu.Lock()
	g.dict = d
	g.mu.Unlock()
}
