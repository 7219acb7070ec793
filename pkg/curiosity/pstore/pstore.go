// Package pstore is the posting store: for every (episode, term) pair
// that occurs in the corpus, the list of sentence ordinals in that
// episode where the term appears. It shares the forward store's bbolt
// file but keeps its own bucket and key encoding.
package pstore

import (
	"encoding/binary"
	"fmt"

	"go.etcd.io/bbolt"
)

var postingsBucket = []byte("postings")

const postingKeyLen = 12 // 8-byte episode ID + 4-byte term ID, both big-endian

// Store is the posting store.
type Store struct {
	db *bbolt.DB
}

// Open creates (or reuses) the postings bucket on an already-open
// bbolt.DB.
func Open(db *bbolt.DB) (*Store, error) {
	err := db.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(postingsBucket)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("pstore: open: %w", err)
	}
	return &Store{db: db}, nil
}

// postingKey encodes the posting key big-endian so that bbolt's
// byte-lexicographic key order matches (episode_id, term_id) numeric
// order — required for ScanEpisode's prefix-seek to visit every term for
// an episode contiguously.
func postingKey(episodeID uint64, termID uint32) []byte {
	key := make([]byte, postingKeyLen)
	binary.BigEndian.PutUint64(key[:8], episodeID)
	binary.BigEndian.PutUint32(key[8:], termID)
	return key
}

// encodeOrdinals packs a sentence-ordinal list as little-endian u32s.
func encodeOrdinals(ordinals []uint32) []byte {
	buf := make([]byte, len(ordinals)*4)
	for i, o := range ordinals {
		binary.LittleEndian.PutUint32(buf[i*4:], o)
	}
	return buf
}

func decodeOrdinals(buf []byte) []uint32 {
	ordinals := make([]uint32, len(buf)/4)
	for i := range ordinals {
		ordinals[i] = binary.LittleEndian.Uint32(buf[i*4:])
	}
	return ordinals
}

// Put stores the sentence-ordinal posting list for (episodeID, termID).
func (s *Store) Put(episodeID uint64, termID uint32, ordinals []uint32) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket(postingsBucket).Put(postingKey(episodeID, termID), encodeOrdinals(ordinals))
	})
}

// Get returns the sentence-ordinal posting list for (episodeID, termID),
// or nil with ok=false if no posting exists for that pair.
func (s *Store) Get(episodeID uint64, termID uint32) (ordinals []uint32, ok bool, err error) {
	err = s.db.View(func(tx *bbolt.Tx) error {
		v := tx.Bucket(postingsBucket).Get(postingKey(episodeID, termID))
		if v == nil {
			return nil
		}
		ok = true
		ordinals = decodeOrdinals(v)
		return nil
	})
	return ordinals, ok, err
}

// ScanEpisode returns a range-over-func iterator over every (term ID,
// ordinals) posting recorded for episodeID, in ascending term-ID order.
// It fixes the episode portion of the posting key and varies the term
// portion by seeking to the episode's key prefix and walking the cursor
// until the prefix no longer matches.
func (s *Store) ScanEpisode(episodeID uint64) func(yield func(termID uint32, ordinals []uint32) bool) {
	return func(yield func(termID uint32, ordinals []uint32) bool) {
		prefix := make([]byte, 8)
		binary.BigEndian.PutUint64(prefix, episodeID)

		_ = s.db.View(func(tx *bbolt.Tx) error {
			c := tx.Bucket(postingsBucket).Cursor()
			for k, v := c.Seek(prefix); k != nil && hasPrefix(k, prefix); k, v = c.Next() {
				termID := binary.BigEndian.Uint32(k[8:])
				if !yield(termID, decodeOrdinals(v)) {
					return nil
				}
			}
			return nil
		})
	}
}

func hasPrefix(key, prefix []byte) bool {
	if len(key) < len(prefix) {
		return false
	}
	for i, b := range prefix {
		if key[i] != b {
			return false
		}
	}
	return true
}

// Truncate deletes every posting, preparing the store for a full rebuild.
func (s *Store) Truncate() error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		return s.TruncateTx(tx)
	})
}

// PutTx is Put against an already-open write transaction.
func (s *Store) PutTx(tx *bbolt.Tx, episodeID uint64, termID uint32, ordinals []uint32) error {
	return tx.Bucket(postingsBucket).Put(postingKey(episodeID, termID), encodeOrdinals(ordinals))
}

// TruncateTx is Truncate against an already-open write transaction.
func (s *Store) TruncateTx(tx *bbolt.Tx) error {
	if err := tx.DeleteBucket(postingsBucket); err != nil && err != bbolt.ErrBucketNotFound {
		return err
	}
	_, err := tx.CreateBucket(postingsBucket)
	return err
}
