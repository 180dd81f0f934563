package session

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	bolt "go.etcd.io/bbolt"
)

var bucketSessions = []byte("sessions")

// BoltStore persists sessions in a BoltDB file so logins survive restarts.
type BoltStore struct {
	db *bolt.DB
}

// NewBoltStore opens (creating if needed) the session database at path.
func NewBoltStore(path string) (*BoltStore, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create session directory: %w", err)
	}

	db, err := bolt.Open(path, 0600, &bolt.Options{
		Timeout: 5 * time.Second,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open session database: %w", err)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(bucketSessions)
		return err
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create session bucket: %w", err)
	}

	return &BoltStore{db: db}, nil
}

func (b *BoltStore) Create(s *Session) error {
	return b.put(s)
}

func (b *BoltStore) Update(s *Session) error {
	return b.put(s)
}

func (b *BoltStore) put(s *Session) error {
	return b.db.Update(func(tx *bolt.Tx) error {
		data, err := json.Marshal(s)
		if err != nil {
			return fmt.Errorf("failed to marshal session: %w", err)
		}
		return tx.Bucket(bucketSessions).Put([]byte(s.ID), data)
	})
}

func (b *BoltStore) Get(id string) (*Session, error) {
	var s *Session
	err := b.db.View(func(tx *bolt.Tx) error {
		data := tx.Bucket(bucketSessions).Get([]byte(id))
		if data == nil {
			return nil
		}
		var loaded Session
		if err := json.Unmarshal(data, &loaded); err != nil {
			return fmt.Errorf("failed to unmarshal session: %w", err)
		}
		s = &loaded
		return nil
	})
	if err != nil {
		return nil, err
	}
	return s, nil
}

func (b *BoltStore) Delete(id string) error {
	return b.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketSessions).Delete([]byte(id))
	})
}

func (b *BoltStore) DeleteExpired(now time.Time) (int, error) {
	deleted := 0
	err := b.db.Update(func(tx *bolt.Tx) error {
		c := tx.Bucket(bucketSessions).Cursor()
		for k, v := c.First(); k != nil; k, v = c.Next() {
			var s Session
			if err := json.Unmarshal(v, &s); err != nil {
				// Unreadable record: drop it rather than keep it forever.
				if err := c.Delete(); err != nil {
					return err
				}
				deleted++
				continue
			}
			if now.After(s.ExpiresAt) {
				if err := c.Delete(); err != nil {
					return err
				}
				deleted++
			}
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return deleted, nil
}

func (b *BoltStore) Count() (int, error) {
	count := 0
	err := b.db.View(func(tx *bolt.Tx) error {
		count = tx.Bucket(bucketSessions).Stats().KeyN
		return nil
	})
	if err != nil {
		return 0, err
	}
	return count, nil
}

func (b *BoltStore) Close() error {
	return b.db.Close()
}
