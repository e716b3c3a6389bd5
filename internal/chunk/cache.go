package chunk

import (
	"errors"
	"fmt"
	"slices"

	"github.com/robert-malhotra/go-zarr/internal/dtype"
)

// DefaultCacheSize is the number of chunks an array keeps resident unless
// configured otherwise.
const DefaultCacheSize = 6

// Cache is a fixed-capacity ring of resident chunks keyed by grid id.
// Insertion order defines eviction order: when the ring is full the oldest
// chunk is evicted and flushed. Lookups never reorder slots. A chunk id is
// resident at most once; Insert is a no-op for ids already present.
//
// The cache is owned by exactly one array and shares its single-thread
// contract. It must not be used from multiple goroutines.
type Cache[T dtype.Scalar] struct {
	slots []*Chunk[T]
	begin int
	count int
}

// NewCache creates a cache holding at most max chunks. Values below one
// select DefaultCacheSize.
func NewCache[T dtype.Scalar](max int) *Cache[T] {
	if max < 1 {
		max = DefaultCacheSize
	}
	return &Cache[T]{slots: make([]*Chunk[T], max)}
}

// Len returns the number of resident chunks.
func (q *Cache[T]) Len() int { return q.count }

// Cap returns the maximum number of resident chunks.
func (q *Cache[T]) Cap() int { return len(q.slots) }

func (q *Cache[T]) find(id []uint64) int {
	for i := 0; i < q.count; i++ {
		slot := (q.begin + i) % len(q.slots)
		if slices.Equal(q.slots[slot].ID(), id) {
			return slot
		}
	}
	return -1
}

// Contains reports whether a chunk with the given id is resident.
func (q *Cache[T]) Contains(id []uint64) bool {
	return q.find(id) >= 0
}

// Get returns the resident chunk with the given id. Calling Get for an id
// that is not resident is a caller error.
func (q *Cache[T]) Get(id []uint64) (*Chunk[T], error) {
	slot := q.find(id)
	if slot < 0 {
		return nil, fmt.Errorf("%w: id %v", ErrNotCached, id)
	}
	return q.slots[slot], nil
}

// Insert places a chunk at the tail of the ring, evicting and flushing the
// oldest chunk when the ring is full. A flush failure of the evicted chunk
// is returned to the caller; the insertion itself still happens.
func (q *Cache[T]) Insert(c *Chunk[T]) error {
	if q.Contains(c.ID()) {
		return nil
	}

	var evictErr error
	if q.count == len(q.slots) {
		evicted := q.slots[q.begin]
		q.slots[q.begin] = nil
		q.begin = (q.begin + 1) % len(q.slots)
		q.count--
		if err := evicted.Flush(); err != nil {
			evictErr = fmt.Errorf("evicting chunk %s: %w", Name(evicted.ID()), err)
		}
	}

	q.slots[(q.begin+q.count)%len(q.slots)] = c
	q.count++
	return evictErr
}

// Flush writes every resident chunk with unflushed writes to disk. All
// chunks are attempted; failures are joined.
func (q *Cache[T]) Flush() error {
	var errs []error
	for i := 0; i < q.count; i++ {
		slot := (q.begin + i) % len(q.slots)
		if err := q.slots[slot].Flush(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
