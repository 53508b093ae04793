package sessionlog

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/tidwall/buntdb"
)

const (
	keyPrefix    = "session:"
	createdIndex = "created_at"
)

// record is the stored form of an Entry. ts orders the index numerically.
type record struct {
	Entry
	TS int64 `json:"ts"`
}

// BuntStore keeps sessions in a buntdb file, or in memory for ":memory:".
type BuntStore struct {
	db *buntdb.DB
}

func OpenBunt(path string) (*BuntStore, error) {
	db, err := buntdb.Open(path)
	if err != nil {
		return nil, err
	}
	if err := db.CreateIndex(createdIndex, keyPrefix+"*", buntdb.IndexJSON("ts")); err != nil {
		db.Close()
		return nil, err
	}
	return &BuntStore{db: db}, nil
}

func (b *BuntStore) Write(ctx context.Context, e Entry) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	data, err := json.Marshal(record{Entry: e, TS: e.CreatedAt.UnixNano()})
	if err != nil {
		return err
	}
	return b.db.Update(func(tx *buntdb.Tx) error {
		_, _, err := tx.Set(keyPrefix+e.ID, string(data), nil)
		return err
	})
}

// Recent returns up to n entries, newest first. n <= 0 returns all.
func (b *BuntStore) Recent(n int) ([]Entry, error) {
	entries := make([]Entry, 0)
	var decodeErr error
	err := b.db.View(func(tx *buntdb.Tx) error {
		return tx.Descend(createdIndex, func(key, value string) bool {
			var rec record
			if err := json.Unmarshal([]byte(value), &rec); err != nil {
				decodeErr = err
				return false
			}
			entries = append(entries, rec.Entry)
			return n <= 0 || len(entries) < n
		})
	})
	if err != nil {
		return nil, err
	}
	if decodeErr != nil {
		return nil, decodeErr
	}
	return entries, nil
}

// Get returns the entry with the given ID, or ErrNotFound.
func (b *BuntStore) Get(id string) (Entry, error) {
	var rec record
	err := b.db.View(func(tx *buntdb.Tx) error {
		value, err := tx.Get(keyPrefix + id)
		if errors.Is(err, buntdb.ErrNotFound) {
			return ErrNotFound
		}
		if err != nil {
			return err
		}
		return json.Unmarshal([]byte(value), &rec)
	})
	return rec.Entry, err
}

func (b *BuntStore) Close() error {
	return b.db.Close()
}
