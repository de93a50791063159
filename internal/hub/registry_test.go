package hub

import (
	"errors"
	"net"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

func testClient(t *testing.T) *Client {
	t.Helper()
	server, peer := net.Pipe()
	t.Cleanup(func() {
		server.Close()
		peer.Close()
	})
	return newClient(server, 4, 0)
}

func TestRegistry_Register(t *testing.T) {
	req := require.New(t)
	registry := NewRegistry()
	alice := testClient(t)

	// Given an empty registry
	req.Zero(registry.Len())

	// When alice registers
	req.NoError(registry.Register("alice", alice, nil))

	// Then she can be looked up by name
	req.Equal(1, registry.Len())
	got, ok := registry.Lookup("alice")
	req.True(ok)
	req.Same(alice, got)
	req.Equal("alice", alice.Name())
}

func TestRegistry_RejectsInvalidNames(t *testing.T) {
	req := require.New(t)
	registry := NewRegistry()
	req.NoError(registry.Register("alice", testClient(t), nil))

	other := testClient(t)
	err := registry.Register("alice", other, nil)
	req.ErrorIs(err, ErrNameTaken)
	req.ErrorIs(err, ErrInvalidName)

	err = registry.Register("al>ice", other, nil)
	req.ErrorIs(err, ErrReservedName)
	req.ErrorIs(err, ErrInvalidName)

	req.Equal(1, registry.Len())
	req.Empty(other.Name())
}

func TestRegistry_AdmittedFailurePreventsInsert(t *testing.T) {
	req := require.New(t)
	registry := NewRegistry()
	boom := errors.New("boom")

	err := registry.Register("bob", testClient(t), func(*Client) error { return boom })
	req.ErrorIs(err, boom)
	req.Zero(registry.Len())

	// admitted is not called for an invalid name
	called := false
	err = registry.Register("b>b", testClient(t), func(*Client) error {
		called = true
		return nil
	})
	req.Error(err)
	req.False(called)
}

func TestRegistry_RemoveOnlyOwnEntry(t *testing.T) {
	req := require.New(t)
	registry := NewRegistry()
	first, second := testClient(t), testClient(t)

	req.NoError(registry.Register("carol", first, nil))
	req.False(registry.Remove("carol", second))
	req.Equal(1, registry.Len())

	req.True(registry.Remove("carol", first))
	req.False(registry.Remove("carol", first))
	req.Zero(registry.Len())

	// The name is free again
	req.NoError(registry.Register("carol", second, nil))
}

func TestRegistry_NamesAndSnapshot(t *testing.T) {
	req := require.New(t)
	registry := NewRegistry()
	for _, name := range []string{"dave", "alice", "carol", "bob"} {
		req.NoError(registry.Register(name, testClient(t), nil))
	}

	req.Equal([]string{"alice", "bob", "carol", "dave"}, registry.Names())
	req.Len(registry.Snapshot(), 4)
}

func TestRegistry_ConcurrentSameName(t *testing.T) {
	req := require.New(t)
	registry := NewRegistry()
	const contenders = 50

	clients := make([]*Client, contenders)
	for i := range clients {
		clients[i] = testClient(t)
	}

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		winners int
	)
	start := make(chan struct{})
	for _, c := range clients {
		wg.Add(1)
		go func(c *Client) {
			defer wg.Done()
			<-start
			if registry.Register("same", c, nil) == nil {
				mu.Lock()
				winners++
				mu.Unlock()
			}
		}(c)
	}
	close(start)
	wg.Wait()

	req.Equal(1, winners)
	req.Equal(1, registry.Len())
}
