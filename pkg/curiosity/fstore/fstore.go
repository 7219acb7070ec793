// Package fstore is the forward store: the canonical, byte-exact record
// of every episode, keyed by episode ID. It is backed by a bbolt bucket
// and holds the archived model.BuiltEpisode records that model.Decode
// reads back without copying their text or token tables.
package fstore

import (
	"encoding/binary"
	"fmt"

	"go.etcd.io/bbolt"

	"github.com/atthetable/curiosity/pkg/curiosity/curiosityerr"
)

var docsBucket = []byte("docs")

// Store is the forward store. It wraps a bbolt.DB opened on the shared
// index database file; the caller owns opening and closing that file.
type Store struct {
	db *bbolt.DB
}

// Open creates (or reuses) the docs bucket on an already-open bbolt.DB.
func Open(db *bbolt.DB) (*Store, error) {
	err := db.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(docsBucket)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("fstore: open: %w", err)
	}
	return &Store{db: db}, nil
}

func episodeKey(episodeID uint64) []byte {
	key := make([]byte, 8)
	binary.BigEndian.PutUint64(key, episodeID)
	return key
}

// Put stores the archived record for episodeID, overwriting any existing
// record under the same key.
func (s *Store) Put(episodeID uint64, archived []byte) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket(docsBucket).Put(episodeKey(episodeID), archived)
	})
}

// Get looks up the archived record for episodeID and invokes view with
// the raw bytes. The slice passed to view is only valid for the duration
// of the call — it is backed by memory owned by bbolt's read transaction
// and must not be retained. Returns curiosityerr.ErrNotFound if no record
// exists under episodeID.
func (s *Store) Get(episodeID uint64, view func([]byte) error) error {
	return s.db.View(func(tx *bbolt.Tx) error {
		v := tx.Bucket(docsBucket).Get(episodeKey(episodeID))
		if v == nil {
			return curiosityerr.ErrNotFound
		}
		return view(v)
	})
}

// Truncate deletes every record in the forward store, preparing it for a
// full rebuild.
func (s *Store) Truncate() error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		return s.TruncateTx(tx)
	})
}

// PutTx is Put against an already-open write transaction, letting the
// index builder share one bbolt transaction across the forward and
// posting stores.
func (s *Store) PutTx(tx *bbolt.Tx, episodeID uint64, archived []byte) error {
	return tx.Bucket(docsBucket).Put(episodeKey(episodeID), archived)
}

// TruncateTx is Truncate against an already-open write transaction.
func (s *Store) TruncateTx(tx *bbolt.Tx) error {
	if err := tx.DeleteBucket(docsBucket); err != nil && err != bbolt.ErrBucketNotFound {
		return err
	}
	_, err := tx.CreateBucket(docsBucket)
	return err
}

// DB returns the underlying bbolt database, letting callers that need to
// coordinate a transaction across both the forward and posting stores
// (the index builder) open it themselves.
func (s *Store) DB() *bbolt.DB {
	return s.db
}

// Count reports the number of episodes currently stored.
func (s *Store) Count() (int, error) {
	var n int
	err := s.db.View(func(tx *bbolt.Tx) error {
		n = tx.Bucket(docsBucket).Stats().KeyN
		return nil
	})
	return n, err
}
