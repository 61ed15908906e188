package handlers

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(id string) *ChatClient {
	ctx, cancel := context.WithCancel(context.Background())
	return &ChatClient{
		ID:     id,
		Send:   make(chan ChatEvent, 8),
		ctx:    ctx,
		cancel: cancel,
	}
}

func TestChatRegistry_Bind(t *testing.T) {
	r := NewChatRegistry()
	client := newTestClient("conn-1")
	r.Register(client)

	t.Run("first bind joins the room", func(t *testing.T) {
		require.True(t, r.Bind("conn-1", "session-a"))

		sessionID, ok := r.SessionFor("conn-1")
		require.True(t, ok)
		assert.Equal(t, "session-a", sessionID)
		assert.Len(t, r.RoomClients("session-a"), 1)
	})

	t.Run("rebinding same session is a no-op", func(t *testing.T) {
		assert.False(t, r.Bind("conn-1", "session-a"))
		assert.Len(t, r.RoomClients("session-a"), 1)
	})

	t.Run("rebinding another session leaves the old room", func(t *testing.T) {
		require.True(t, r.Bind("conn-1", "session-b"))

		assert.Empty(t, r.RoomClients("session-a"))
		assert.Len(t, r.RoomClients("session-b"), 1)

		sessionID, _ := r.SessionFor("conn-1")
		assert.Equal(t, "session-b", sessionID)
	})

	t.Run("unknown connection cannot bind", func(t *testing.T) {
		assert.False(t, r.Bind("ghost", "session-a"))
		assert.Empty(t, r.RoomClients("session-a"))
	})
}

func TestChatRegistry_Unregister(t *testing.T) {
	r := NewChatRegistry()
	client := newTestClient("conn-1")
	r.Register(client)
	require.True(t, r.Bind("conn-1", "session-a"))

	sessionID, bound := r.Unregister("conn-1")
	require.True(t, bound)
	assert.Equal(t, "session-a", sessionID)

	assert.Empty(t, r.RoomClients("session-a"))
	assert.Empty(t, r.AllClients())
	_, ok := r.SessionFor("conn-1")
	assert.False(t, ok)

	// Unregistering twice must not panic or report a binding.
	_, bound = r.Unregister("conn-1")
	assert.False(t, bound)
}

func TestChatRegistry_RoomMembership(t *testing.T) {
	r := NewChatRegistry()

	// A visitor tab and two admin dashboards watching the same session.
	for _, id := range []string{"visitor", "admin-1", "admin-2"} {
		r.Register(newTestClient(id))
		require.True(t, r.Bind(id, "session-a"))
	}
	r.Register(newTestClient("other"))
	require.True(t, r.Bind("other", "session-b"))

	assert.Len(t, r.RoomClients("session-a"), 3)
	assert.Len(t, r.RoomClients("session-b"), 1)
	assert.Len(t, r.AllClients(), 4)
	assert.Empty(t, r.RoomClients("session-c"))
}

func TestChatRegistry_ConcurrentAccess(t *testing.T) {
	r := NewChatRegistry()

	var wg sync.WaitGroup
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			id := fmt.Sprintf("conn-%d", i)
			r.Register(newTestClient(id))
			r.Bind(id, fmt.Sprintf("session-%d", i%4))
			r.RoomClients(fmt.Sprintf("session-%d", i%4))
			if i%2 == 0 {
				r.Unregister(id)
			}
		}(i)
	}
	wg.Wait()

	assert.Len(t, r.AllClients(), 16)
}
