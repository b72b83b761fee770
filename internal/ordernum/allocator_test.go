package ordernum

import (
	"context"
	"regexp"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/plateful/plateful/internal/models"
)

// fakeStore records every allocated number so repeated draws collide.
type fakeStore struct {
	mu    sync.Mutex
	taken map[string]bool
}

func newFakeStore() *fakeStore {
	return &fakeStore{taken: make(map[string]bool)}
}

func (s *fakeStore) OrderNumberExists(_ context.Context, number string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.taken[number], nil
}

func (s *fakeStore) claim(number string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.taken[number] = true
}

func TestNextFormat(t *testing.T) {
	alloc := New(newFakeStore())

	number, err := alloc.Next(context.Background())
	require.NoError(t, err)
	assert.Regexp(t, regexp.MustCompile(`^ORD-\d{8}$`), number)
}

func TestNextUniqueUnderConcurrency(t *testing.T) {
	store := newFakeStore()
	alloc := New(store)

	const n = 200
	var wg sync.WaitGroup
	results := make(chan string, n)

	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			number, err := alloc.Next(context.Background())
			if err != nil {
				t.Error(err)
				return
			}
			store.claim(number)
			results <- number
		}()
	}
	wg.Wait()
	close(results)

	seen := make(map[string]bool)
	for number := range results {
		assert.False(t, seen[number], "duplicate order number %s", number)
		seen[number] = true
	}
}

func TestNextGivesUpAfterBoundedRetries(t *testing.T) {
	// everythingTaken forces a collision on every draw.
	alloc := New(everythingTaken{})

	_, err := alloc.Next(context.Background())
	assert.ErrorIs(t, err, models.ErrDuplicateNumber)
}

type everythingTaken struct{}

func (everythingTaken) OrderNumberExists(context.Context, string) (bool, error) {
	return true, nil
}
