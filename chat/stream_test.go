package chat

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStreamAppendKeepsOrder(t *testing.T) {
	s := NewStream()
	s.Append(Message{Role: RoleAssistant, Content: "hi there"})
	s.Append(Message{Role: RoleUser, Content: "hello"})
	s.Append(Message{Role: RoleAssistant, Content: "how can I help?"})

	got := s.Snapshot()
	assert.Equal(t, 3, s.Len())
	assert.Equal(t, "hi there", got[0].Content)
	assert.Equal(t, "hello", got[1].Content)
	assert.Equal(t, "how can I help?", got[2].Content)
}

func TestStreamSnapshotIsACopy(t *testing.T) {
	s := NewStream()
	s.Append(Message{Role: RoleUser, Content: "original"})

	snap := s.Snapshot()
	snap[0].Content = "mutated"
	s.Append(Message{Role: RoleUser, Content: "second"})

	got := s.Snapshot()
	assert.Equal(t, "original", got[0].Content)
	assert.Len(t, snap, 1)
}

func TestStreamConcurrentAppends(t *testing.T) {
	s := NewStream()
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			for j := 0; j < 25; j++ {
				s.Append(Message{Role: RoleUser, Content: fmt.Sprintf("%d-%d", n, j)})
			}
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 200, s.Len())
	assert.Len(t, s.Snapshot(), 200)
}
