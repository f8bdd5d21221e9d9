// Package ledger records which sample indices have been durably logged, so
// an interrupted or retried run only fills in the gaps.
package ledger

import (
	"encoding/binary"
	"errors"
	"sync"

	"github.com/dgraph-io/badger/v4"
)

var ErrClosed = errors.New("ledger closed")

type Ledger struct {
	mu     sync.RWMutex
	db     *badger.DB
	closed bool
}

// Open opens (or creates) a ledger stored in dir. Commits are synced to
// disk before MarkAll returns.
func Open(dir string) (*Ledger, error) {
	opts := badger.DefaultOptions(dir).WithLogger(nil).WithSyncWrites(true)
	db, err := badger.Open(opts)
	if err != nil {
		return nil, err
	}
	return &Ledger{db: db}, nil
}

// OpenInMemory is used by tests and dry runs.
func OpenInMemory() (*Ledger, error) {
	db, err := badger.Open(badger.DefaultOptions("").WithInMemory(true).WithLogger(nil))
	if err != nil {
		return nil, err
	}
	return &Ledger{db: db}, nil
}

func key(index int64) []byte {
	k := make([]byte, 8)
	binary.BigEndian.PutUint64(k, uint64(index))
	return k
}

// MarkAll records a batch of indices in one transaction. Marking an index
// twice is a no-op.
func (l *Ledger) MarkAll(indices []int64) error {
	if len(indices) == 0 {
		return nil
	}
	l.mu.RLock()
	defer l.mu.RUnlock()
	if l.closed {
		return ErrClosed
	}
	return l.db.Update(func(txn *badger.Txn) error {
		for _, i := range indices {
			if err := txn.Set(key(i), []byte{1}); err != nil {
				return err
			}
		}
		return nil
	})
}

// Range returns the logged indices in [start, start+count) in ascending order.
func (l *Ledger) Range(start int64, count int) ([]int64, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	if l.closed {
		return nil, ErrClosed
	}
	end := start + int64(count)
	var out []int64
	err := l.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		it := txn.NewIterator(opts)
		defer it.Close()
		for it.Seek(key(start)); it.Valid(); it.Next() {
			idx := int64(binary.BigEndian.Uint64(it.Item().Key()))
			if idx >= end {
				break
			}
			out = append(out, idx)
		}
		return nil
	})
	return out, err
}

// All returns every logged index in ascending order.
func (l *Ledger) All() ([]int64, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	if l.closed {
		return nil, ErrClosed
	}
	var out []int64
	err := l.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		it := txn.NewIterator(opts)
		defer it.Close()
		for it.Rewind(); it.Valid(); it.Next() {
			out = append(out, int64(binary.BigEndian.Uint64(it.Item().Key())))
		}
		return nil
	})
	return out, err
}

func (l *Ledger) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.closed {
		return nil
	}
	l.closed = true
	return l.db.Close()
}
