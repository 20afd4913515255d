package state

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dgraph-io/badger/v4"
)

// BadgerStore keeps JSON snapshots in an embedded badger database, keyed the
// same way as the Redis store.
type BadgerStore struct {
	db  *badger.DB
	ttl time.Duration
}

// NewBadgerStore opens (or creates) a database under dir. An empty dir opens
// an in-memory database.
func NewBadgerStore(dir string, ttl time.Duration) (*BadgerStore, error) {
	if ttl < 0 {
		return nil, errors.New("ttl must be >= 0")
	}

	dir = strings.TrimSpace(dir)
	opts := badger.DefaultOptions(dir).WithLogger(nil)
	if dir == "" {
		opts = badger.DefaultOptions("").WithInMemory(true).WithLogger(nil)
	}

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open badger: %w", err)
	}
	return &BadgerStore{db: db, ttl: ttl}, nil
}

func (s *BadgerStore) Close() error {
	return s.db.Close()
}

func (s *BadgerStore) Load(ctx context.Context, threadID string) (*ConversationState, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	key, err := checkpointKey(threadID)
	if err != nil {
		return nil, err
	}

	var raw []byte
	err = s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(key)
		if errors.Is(err, badger.ErrKeyNotFound) {
			return ErrStateNotFound
		}
		if err != nil {
			return fmt.Errorf("get checkpoint: %w", err)
		}
		raw, err = item.ValueCopy(nil)
		return err
	})
	if err != nil {
		return nil, err
	}
	return decodeSnapshot(raw)
}

func (s *BadgerStore) Save(ctx context.Context, st *ConversationState) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	payload, err := encodeSnapshot(st)
	if err != nil {
		return err
	}
	key, err := checkpointKey(st.ThreadID)
	if err != nil {
		return err
	}

	return s.db.Update(func(txn *badger.Txn) error {
		entry := badger.NewEntry(key, payload)
		if s.ttl > 0 {
			entry = entry.WithTTL(s.ttl)
		}
		return txn.SetEntry(entry)
	})
}

func (s *BadgerStore) Delete(ctx context.Context, threadID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	key, err := checkpointKey(threadID)
	if err != nil {
		return err
	}
	return s.db.Update(func(txn *badger.Txn) error {
		if err := txn.Delete(key); err != nil && !errors.Is(err, badger.ErrKeyNotFound) {
			return err
		}
		return nil
	})
}

func checkpointKey(threadID string) ([]byte, error) {
	threadID = strings.TrimSpace(threadID)
	if threadID == "" {
		return nil, ErrInvalidThread
	}
	return []byte(defaultStoreKeyPrefix + threadID + defaultStoreKeySuffix), nil
}
