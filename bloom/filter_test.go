package bloom_test

import (
	"fmt"
	"testing"

	"github.com/jsliwa/docatlas/bloom"
	"github.com/stretchr/testify/assert"
)

func TestSeenSet(t *testing.T) {
	t.Parallel()

	t.Run("added URLs are always seen", func(t *testing.T) {
		t.Parallel()

		s := bloom.NewSeenSet(1000, 0.01)
		urls := []string{
			"https://example.com/",
			"https://example.com/docs",
			"https://example.com/docs?page=2",
		}
		for _, u := range urls {
			assert.False(t, s.Seen(u), u)
			s.Add(u)
		}
		for _, u := range urls {
			assert.True(t, s.Seen(u), u)
		}
	})

	t.Run("false positive rate stays near configured bound", func(t *testing.T) {
		t.Parallel()

		s := bloom.NewSeenSet(10000, 0.01)
		for i := 0; i < 10000; i++ {
			s.Add(fmt.Sprintf("https://example.com/page/%d", i))
		}

		falsePositives := 0
		const probes = 10000
		for i := 0; i < probes; i++ {
			if s.Seen(fmt.Sprintf("https://other.com/page/%d", i)) {
				falsePositives++
			}
		}
		// Allow generous slack over the nominal 1% to keep the test stable.
		assert.Less(t, falsePositives, probes/20)
	})

	t.Run("approximates count", func(t *testing.T) {
		t.Parallel()

		s := bloom.NewSeenSet(1000, 0.01)
		for i := 0; i < 100; i++ {
			s.Add(fmt.Sprintf("https://example.com/%d", i))
		}
		count := s.ApproxCount()
		assert.InDelta(t, 100, float64(count), 20)
	})
}
