package storage

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	bolt "go.etcd.io/bbolt"
)

var tagsBucket = []byte("tags")

// Store persists the tag search history.
type Store struct {
	db *bolt.DB
}

// NewStore opens or creates the history database at dbPath.
func NewStore(dbPath string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("creating database directory: %w", err)
	}

	db, err := bolt.Open(dbPath, 0o600, &bolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		_, createErr := tx.CreateBucketIfNotExists(tagsBucket)
		return createErr
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("creating buckets: %w", err)
	}

	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func tagKey(tag string) []byte {
	return []byte(strings.ToLower(tag))
}

// RecordTag bumps the use count of tag. Tags are matched case-insensitively;
// the most recent spelling is kept.
func (s *Store) RecordTag(tag string, at time.Time) error {
	tag = strings.TrimSpace(tag)
	if tag == "" {
		return fmt.Errorf("tag cannot be empty")
	}

	return s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(tagsBucket)
		key := tagKey(tag)

		use := TagUse{}
		if data := b.Get(key); data != nil {
			if err := json.Unmarshal(data, &use); err != nil {
				return fmt.Errorf("decoding tag %s: %w", tag, err)
			}
		}
		use.Tag = tag
		use.Count++
		use.LastUsed = at.UTC()

		data, err := json.Marshal(use)
		if err != nil {
			return err
		}
		return b.Put(key, data)
	})
}

// RecentTags returns up to limit tags, most recently used first. A limit of
// zero returns all of them.
func (s *Store) RecentTags(limit int) ([]TagUse, error) {
	var tags []TagUse
	err := s.db.View(func(tx *bolt.Tx) error {
		return tx.Bucket(tagsBucket).ForEach(func(_ []byte, v []byte) error {
			var use TagUse
			if err := json.Unmarshal(v, &use); err != nil {
				return nil
			}
			tags = append(tags, use)
			return nil
		})
	})
	if err != nil {
		return nil, err
	}

	sort.Slice(tags, func(i, j int) bool {
		if !tags[i].LastUsed.Equal(tags[j].LastUsed) {
			return tags[i].LastUsed.After(tags[j].LastUsed)
		}
		return tags[i].Tag < tags[j].Tag
	})
	if limit > 0 && len(tags) > limit {
		tags = tags[:limit]
	}
	return tags, nil
}

// Prune keeps the keep most recently used tags and deletes the rest.
func (s *Store) Prune(keep int) error {
	tags, err := s.RecentTags(0)
	if err != nil {
		return err
	}
	if keep < 0 || len(tags) <= keep {
		return nil
	}

	return s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(tagsBucket)
		for _, use := range tags[keep:] {
			if err := b.Delete(tagKey(use.Tag)); err != nil {
				return err
			}
		}
		return nil
	})
}

// DeleteTag forgets one tag. Unknown tags are ignored.
func (s *Store) DeleteTag(tag string) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(tagsBucket).Delete(tagKey(tag))
	})
}

// ClearTags forgets every tag.
func (s *Store) ClearTags() error {
	return s.db.Update(func(tx *bolt.Tx) error {
		if err := tx.DeleteBucket(tagsBucket); err != nil && err != bolt.ErrBucketNotFound {
			return err
		}
		_, err := tx.CreateBucket(tagsBucket)
		return err
	})
}
