package crawl

import (
	"sync"

	"github.com/jsliwa/docatlas"
	"github.com/jsliwa/docatlas/bloom"
)

// Compile-time interface verification.
var _ docatlas.URLFrontier = (*Frontier)(nil)

// Frontier is an in-memory FIFO crawl frontier with Bloom filter
// deduplication. Nodes come out in the order they were pushed, which
// preserves BFS levels and keeps traversal deterministic for a
// deterministic fetcher. Safe for concurrent use.
type Frontier struct {
	mu    sync.Mutex
	seen  *bloom.SeenSet
	queue []docatlas.CrawlNode
}

// NewFrontier creates a Frontier sized for n expected URLs with the given
// false positive rate for deduplication.
func NewFrontier(n uint, fpRate float64) *Frontier {
	return &Frontier{
		seen: bloom.NewSeenSet(n, fpRate),
	}
}

// Push adds a node to the frontier. Returns false if the URL has already
// been seen; the seen-set never forgets within a session, so each URL is
// queued at most once.
func (f *Frontier) Push(node docatlas.CrawlNode) bool {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.seen.Seen(node.URL) {
		return false
	}
	f.seen.Add(node.URL)
	f.queue = append(f.queue, node)
	return true
}

// PopLevel removes and returns all queued nodes at the given depth in push
// order. Depths are pushed in nondecreasing order during BFS, so the
// matching nodes form a prefix of the queue.
func (f *Frontier) PopLevel(depth int) []docatlas.CrawlNode {
	f.mu.Lock()
	defer f.mu.Unlock()

	n := 0
	for n < len(f.queue) && f.queue[n].Depth == depth {
		n++
	}
	if n == 0 {
		return nil
	}
	level := make([]docatlas.CrawlNode, n)
	copy(level, f.queue[:n])
	f.queue = f.queue[n:]
	return level
}

// Len returns the number of queued nodes.
func (f *Frontier) Len() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.queue)
}

// Seen returns true if the URL has been queued at any point.
func (f *Frontier) Seen(url string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.seen.Seen(url)
}
