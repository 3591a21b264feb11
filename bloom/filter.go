// Package bloom provides a memory-bounded seen-set for URL deduplication.
package bloom

import "github.com/bits-and-blooms/bloom/v3"

// SeenSet records URLs with a fixed memory footprint. Membership answers
// may be false positives at the configured rate; false negatives never
// occur, so a URL reported unseen is guaranteed new.
type SeenSet struct {
	f *bloom.BloomFilter
}

// NewSeenSet creates a seen-set sized for n expected URLs with the given
// false positive rate.
func NewSeenSet(n uint, fpRate float64) *SeenSet {
	return &SeenSet{
		f: bloom.NewWithEstimates(n, fpRate),
	}
}

// Add records a URL.
func (s *SeenSet) Add(url string) {
	s.f.AddString(url)
}

// Seen returns true if the URL might have been added before.
func (s *SeenSet) Seen(url string) bool {
	return s.f.TestString(url)
}

// ApproxCount returns the approximate number of URLs recorded.
func (s *SeenSet) ApproxCount() uint {
	return uint(s.f.ApproximatedSize())
}
