package identity

import (
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ZentaChain/chatrelay/pkg/registry"
)

func TestWordsAreDistinct(t *testing.T) {
	seen := make(map[string]bool, len(Words))
	for _, w := range Words {
		if seen[w] {
			t.Errorf("duplicate word %q", w)
		}
		seen[w] = true
		if strings.Contains(w, Separator) {
			t.Errorf("word %q contains the separator", w)
		}
	}
}

func TestGenerateShape(t *testing.T) {
	for i := 0; i < 100; i++ {
		id := Generate()
		assert.True(t, IsIdentifier(id), "generated %q", id)
		assert.Len(t, strings.Split(id, Separator), WordCount)
	}
}

func TestIsIdentifier(t *testing.T) {
	assert.True(t, IsIdentifier("votes-purer-tills"))
	assert.False(t, IsIdentifier("votes-purer"))
	assert.False(t, IsIdentifier("votes-purer-tills-boggy"))
	assert.False(t, IsIdentifier("votes-purer-alice"))
	assert.False(t, IsIdentifier("alice"))
	assert.False(t, IsIdentifier(""))
}

func TestAllocateRetriesOnCollision(t *testing.T) {
	reg := registry.New()
	require.NoError(t, reg.Register("votes-votes-votes", registry.NewEndpoint("a", nil, 1, 0)))

	candidates := []string{"votes-votes-votes", "votes-votes-votes", "purer-purer-purer"}
	calls := 0
	gen := func() string {
		id := candidates[calls]
		calls++
		return id
	}

	ep := registry.NewEndpoint("b", nil, 1, 0)
	id, err := AllocateWith(reg, ep, gen)
	require.NoError(t, err)
	assert.Equal(t, "purer-purer-purer", id)
	assert.Equal(t, id, ep.ID())
	assert.Equal(t, 3, calls)
}

func TestAllocateClosedEndpoint(t *testing.T) {
	reg := registry.New()
	ep := registry.NewEndpoint("a", nil, 1, 0)
	ep.Close()

	_, err := Allocate(reg, ep)
	assert.ErrorIs(t, err, registry.ErrEndpointClosed)
}

func TestConcurrentAllocateUnique(t *testing.T) {
	reg := registry.New()

	// A tiny identifier space forces concurrent collisions
	small := []string{"a-a-a", "b-b-b", "c-c-c", "d-d-d", "e-e-e", "f-f-f", "g-g-g", "h-h-h"}
	var mu sync.Mutex
	next := 0
	gen := func() string {
		mu.Lock()
		defer mu.Unlock()
		next++
		return small[next%len(small)]
	}

	var wg sync.WaitGroup
	ids := make([]string, len(small))
	for i := range small {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			id, err := AllocateWith(reg, registry.NewEndpoint("c", nil, 1, 0), gen)
			assert.NoError(t, err)
			ids[i] = id
		}(i)
	}
	wg.Wait()

	seen := make(map[string]bool)
	for _, id := range ids {
		assert.False(t, seen[id], "identifier %q allocated twice", id)
		seen[id] = true
	}
	assert.Equal(t, len(small), reg.Len())
}
