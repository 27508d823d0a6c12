// Package dedupe tracks which import payloads have already been accepted.
package dedupe

import (
	"container/list"
	"context"
	"sync"
	"sync/atomic"
)

const defaultMaxSize = 50_000

// Deduper maps content keys (checksums) to the job that first claimed them.
type Deduper interface {
	// SeenAndRecord atomically checks whether key was seen. If it was, the
	// owning job ID and true are returned. Otherwise jobID is recorded as
	// the owner and false is returned.
	SeenAndRecord(ctx context.Context, key, jobID string) (string, bool)

	// Unrecord forgets key so the payload can be submitted again. Used when
	// a claimed job could not be enqueued.
	Unrecord(ctx context.Context, key string)

	Size() int64
}

type entry struct {
	key   string
	jobID string
}

// inMemoryDeduper keeps keys in insertion order so the oldest can be evicted
// in O(1) when bounded.
type inMemoryDeduper struct {
	mu      sync.Mutex
	seen    map[string]*list.Element
	order   *list.List
	maxSize int
	size    atomic.Int64
}

// NewInMemoryDeduper creates a new in-memory deduper with configuration options.
func NewInMemoryDeduper(opts ...Option) Deduper {
	d := &inMemoryDeduper{
		maxSize: defaultMaxSize,
		seen:    make(map[string]*list.Element),
		order:   list.New(),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

func (d *inMemoryDeduper) SeenAndRecord(_ context.Context, key, jobID string) (string, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if el, ok := d.seen[key]; ok {
		return el.Value.(*entry).jobID, true
	}

	if d.maxSize > 0 && d.order.Len() >= d.maxSize {
		if oldest := d.order.Front(); oldest != nil {
			delete(d.seen, oldest.Value.(*entry).key)
			d.order.Remove(oldest)
			d.size.Add(-1)
		}
	}

	d.seen[key] = d.order.PushBack(&entry{key: key, jobID: jobID})
	d.size.Add(1)
	return jobID, false
}

func (d *inMemoryDeduper) Unrecord(_ context.Context, key string) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if el, ok := d.seen[key]; ok {
		delete(d.seen, key)
		d.order.Remove(el)
		d.size.Add(-1)
	}
}

// Size returns the current number of remembered keys.
func (d *inMemoryDeduper) Size() int64 {
	return d.size.Load()
}
