package journal

import (
	"bytes"
	"encoding/binary"
	"encoding/gob"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"go.etcd.io/bbolt"

	"github.com/bitfsorg/stakevault-go/account"
	"github.com/bitfsorg/stakevault-go/stake"
)

var (
	bucketEvents        = []byte("events")
	bucketEventsID      = []byte("events_id")
	bucketEventsAccount = []byte("events_account")
)

// BoltStore persists vault events in a bbolt database.
//
// Events are keyed by the bucket sequence, so a cursor walk returns them in
// append order. Two index buckets map event id to sequence and
// account||sequence to nothing for prefix scans.
type BoltStore struct {
	db *bbolt.DB
}

// Compile-time interface checks.
var (
	_ Store          = (*BoltStore)(nil)
	_ stake.Recorder = (*BoltStore)(nil)
)

// lockTimeout bounds the wait for another process's lock on the database.
const lockTimeout = 2 * time.Second

// OpenBoltStore opens or creates the bbolt database at dbPath.
// The parent directory is created if it does not exist.
func OpenBoltStore(dbPath string) (*BoltStore, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0700); err != nil {
		return nil, fmt.Errorf("journal: create directory: %w", err)
	}
	db, err := bbolt.Open(dbPath, 0600, &bbolt.Options{Timeout: lockTimeout})
	if err != nil {
		return nil, fmt.Errorf("journal: open bolt db: %w", err)
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		for _, name := range [][]byte{bucketEvents, bucketEventsID, bucketEventsAccount} {
			if _, err := tx.CreateBucketIfNotExists(name); err != nil {
				return fmt.Errorf("boltstore: create bucket %q: %w", name, err)
			}
		}
		return nil
	})
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("journal: create buckets: %w", err)
	}

	return &BoltStore{db: db}, nil
}

// Close closes the underlying database.
func (s *BoltStore) Close() error { return s.db.Close() }

// Path returns the database file path.
func (s *BoltStore) Path() string { return s.db.Path() }

// Append implements Store.
func (s *BoltStore) Append(ev stake.Event) error {
	if err := prepare(&ev); err != nil {
		return err
	}

	return s.db.Update(func(tx *bbolt.Tx) error {
		ids := tx.Bucket(bucketEventsID)
		if ids.Get(ev.ID[:]) != nil {
			return fmt.Errorf("%w: %s", ErrDuplicateEvent, ev.ID)
		}

		events := tx.Bucket(bucketEvents)
		seq, err := events.NextSequence()
		if err != nil {
			return fmt.Errorf("boltstore: next sequence: %w", err)
		}
		key := seqKey(seq)

		data, err := encodeGob(ev)
		if err != nil {
			return fmt.Errorf("boltstore: encode event: %w", err)
		}
		if err := events.Put(key, data); err != nil {
			return fmt.Errorf("boltstore: put event: %w", err)
		}
		if err := ids.Put(ev.ID[:], key); err != nil {
			return fmt.Errorf("boltstore: put event id index: %w", err)
		}
		if err := tx.Bucket(bucketEventsAccount).Put(accountKey(ev.Account, key), []byte{}); err != nil {
			return fmt.Errorf("boltstore: put event account index: %w", err)
		}
		return nil
	})
}

// Get implements Store.
func (s *BoltStore) Get(id uuid.UUID) (stake.Event, error) {
	var ev stake.Event
	err := s.db.View(func(tx *bbolt.Tx) error {
		key := tx.Bucket(bucketEventsID).Get(id[:])
		if key == nil {
			return fmt.Errorf("%w: %s", ErrEventNotFound, id)
		}
		data := tx.Bucket(bucketEvents).Get(key)
		if data == nil {
			return fmt.Errorf("%w: %s", ErrEventNotFound, id)
		}
		if err := decodeGob(data, &ev); err != nil {
			return fmt.Errorf("boltstore: decode event: %w", err)
		}
		return nil
	})
	if err != nil {
		return stake.Event{}, err
	}
	return ev, nil
}

// List implements Store.
func (s *BoltStore) List() ([]stake.Event, error) {
	var out []stake.Event
	err := s.db.View(func(tx *bbolt.Tx) error {
		return tx.Bucket(bucketEvents).ForEach(func(_, v []byte) error {
			var ev stake.Event
			if err := decodeGob(v, &ev); err != nil {
				return fmt.Errorf("boltstore: decode event in list: %w", err)
			}
			out = append(out, ev)
			return nil
		})
	})
	if err != nil {
		return nil, fmt.Errorf("boltstore: list events: %w", err)
	}
	return out, nil
}

// ListByAccount implements Store.
func (s *BoltStore) ListByAccount(addr account.Address) ([]stake.Event, error) {
	var out []stake.Event
	err := s.db.View(func(tx *bbolt.Tx) error {
		events := tx.Bucket(bucketEvents)
		prefix := addr[:]

		c := tx.Bucket(bucketEventsAccount).Cursor()
		for k, _ := c.Seek(prefix); k != nil && bytes.HasPrefix(k, prefix); k, _ = c.Next() {
			data := events.Get(k[len(prefix):])
			if data == nil {
				continue // stale index entry
			}
			var ev stake.Event
			if err := decodeGob(data, &ev); err != nil {
				return fmt.Errorf("boltstore: decode event by account: %w", err)
			}
			out = append(out, ev)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("boltstore: list events by account: %w", err)
	}
	return out, nil
}

// Len implements Store.
func (s *BoltStore) Len() (uint64, error) {
	var n uint64
	err := s.db.View(func(tx *bbolt.Tx) error {
		n = uint64(tx.Bucket(bucketEvents).Stats().KeyN)
		return nil
	})
	return n, err
}

// seqKey encodes a sequence number as an 8-byte big-endian key for sorted storage.
func seqKey(seq uint64) []byte {
	k := make([]byte, 8)
	binary.BigEndian.PutUint64(k, seq)
	return k
}

// accountKey builds the composite index key addr||seqKey.
func accountKey(addr account.Address, key []byte) []byte {
	k := make([]byte, 0, len(addr)+len(key))
	k = append(k, addr[:]...)
	return append(k, key...)
}

// encodeGob serializes a value using gob encoding.
func encodeGob(v interface{}) ([]byte, error) {
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(v); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// decodeGob deserializes gob-encoded data into a value.
func decodeGob(data []byte, v interface{}) error {
	return gob.NewDecoder(bytes.NewReader(data)).Decode(v)
}
