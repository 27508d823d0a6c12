package repository

import (
	"context"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/okian/scores/internal/domain/model"
	"github.com/okian/scores/internal/domain/ranking"
	"github.com/okian/scores/pkg/metrics"
)

// Treap-based, in-memory Store implementation.
//
// Ordering: value DESC, then insertion sequence ASC. "less" means "listed
// earlier", so an in-order walk yields All directly and the maximum value
// sits at the leftmost node.

type node struct {
	seq   uint64
	score model.Score
	prio  uint64
	left  *node
	right *node
	size  int
}

func nsize(n *node) int {
	if n == nil {
		return 0
	}
	return n.size
}

func fix(n *node) {
	if n != nil {
		n.size = 1 + nsize(n.left) + nsize(n.right)
	}
}

// less returns true if a should be listed before b.
func less(a, b *node) bool {
	if a.score.Value != b.score.Value {
		return a.score.Value > b.score.Value
	}
	return a.seq < b.seq
}

func rotateRight(y *node) *node {
	x := y.left
	t2 := x.right
	x.right = y
	y.left = t2
	fix(y)
	fix(x)
	return x
}

func rotateLeft(x *node) *node {
	y := x.right
	t2 := y.left
	y.left = x
	x.right = t2
	fix(x)
	fix(y)
	return y
}

func insert(n, nn *node) *node {
	if n == nil {
		return nn
	}
	if less(nn, n) {
		n.left = insert(n.left, nn)
		if n.left.prio > n.prio {
			n = rotateRight(n)
		}
	} else {
		n.right = insert(n.right, nn)
		if n.right.prio > n.prio {
			n = rotateLeft(n)
		}
	}
	fix(n)
	return n
}

// collectAll appends every score in listing order.
func collectAll(n *node, out *[]model.Score) {
	if n == nil {
		return
	}
	collectAll(n.left, out)
	*out = append(*out, n.score)
	collectAll(n.right, out)
}

// collectValue appends the in-order run of scores equal to value. Everything
// right of a smaller node is smaller too, so those subtrees are skipped.
func collectValue(n *node, value int, out *[]model.Score) {
	if n == nil {
		return
	}
	collectValue(n.left, value, out)
	if n.score.Value != value {
		return
	}
	*out = append(*out, n.score)
	collectValue(n.right, value, out)
}

type nameKey struct {
	first  string
	second string
}

// TreapStore keeps scores in memory. Safe for concurrent use.
type TreapStore struct {
	mu     sync.RWMutex
	root   *node
	seq    uint64
	rng    *rand.Rand
	byName map[nameKey]model.Score
	closed bool
}

// NewTreapStore constructs an empty in-memory store.
func NewTreapStore(opts ...Option) *TreapStore {
	s := &TreapStore{
		rng:    rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64())),
		byName: make(map[nameKey]model.Score),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Add implements Store.Add in O(k log n) expected time.
func (s *TreapStore) Add(ctx context.Context, scores []model.Score) ([]model.Score, error) {
	start := time.Now()
	defer func() {
		metrics.RecordRepositoryUpdateLatency(float64(time.Since(start).Milliseconds()))
	}()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	out := make([]model.Score, len(scores))
	for i, sc := range scores {
		sc.ID = uuid.NewString()
		out[i] = sc
	}

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil, ErrClosed
	}
	for _, sc := range out {
		s.seq++
		s.root = insert(s.root, &node{seq: s.seq, score: sc, prio: s.rng.Uint64(), size: 1})
		key := nameKey{sc.FirstName, sc.SecondName}
		if _, ok := s.byName[key]; !ok {
			s.byName[key] = sc
		}
	}
	total := nsize(s.root)
	s.mu.Unlock()

	metrics.RecordScoresStored(len(out))
	metrics.UpdateScoresTotal(total)
	return out, nil
}

// All implements Store.All.
func (s *TreapStore) All(ctx context.Context) ([]model.Score, error) {
	defer observeQuery(time.Now())

	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return nil, ErrClosed
	}

	out := make([]model.Score, 0, nsize(s.root))
	collectAll(s.root, &out)
	return out, nil
}

// Top implements Store.Top. Only the leading run of equal values is visited.
func (s *TreapStore) Top(ctx context.Context) ([]model.Score, error) {
	defer observeQuery(time.Now())

	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return nil, ErrClosed
	}

	out := []model.Score{}
	if s.root == nil {
		return out, nil
	}
	best := s.root
	for best.left != nil {
		best = best.left
	}
	collectValue(s.root, best.score.Value, &out)
	ranking.SortByName(out)
	return out, nil
}

// Find implements Store.Find in O(1).
func (s *TreapStore) Find(ctx context.Context, firstName, secondName string) (model.Score, error) {
	defer observeQuery(time.Now())

	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return model.Score{}, ErrClosed
	}

	sc, ok := s.byName[nameKey{firstName, secondName}]
	if !ok {
		metrics.RecordErrorByComponent("repository", "not_found")
		return model.Score{}, ErrNotFound
	}
	return sc, nil
}

// Count returns the number of stored scores.
func (s *TreapStore) Count(ctx context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return 0, ErrClosed
	}
	return nsize(s.root), nil
}

// Close releases the tree. Later calls fail with ErrClosed.
func (s *TreapStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	s.root = nil
	s.byName = nil
	return nil
}
