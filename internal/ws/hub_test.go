// internal/ws/hub_test.go
package ws

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func startHub(t *testing.T) (*Hub, context.CancelFunc) {
	t.Helper()
	hub := NewHub(zap.NewNop())
	ctx, cancel := context.WithCancel(context.Background())
	go hub.Run(ctx)
	return hub, cancel
}

// registerClient attaches a pump-less client so tests can read frames
// straight off its buffer.
func registerClient(t *testing.T, hub *Hub, userID uuid.UUID) *Client {
	t.Helper()
	before := hub.ConnectedClients(userID)
	c := NewClient(hub, nil, userID)
	hub.register <- c
	require.Eventually(t, func() bool { return hub.ConnectedClients(userID) == before+1 },
		time.Second, 5*time.Millisecond)
	return c
}

func TestHubDeliversToOwnerOnly(t *testing.T) {
	hub, cancel := startHub(t)
	defer cancel()

	userID := uuid.New()
	owner := registerClient(t, hub, userID)
	other := registerClient(t, hub, uuid.New())

	contractID := uuid.New()
	hub.NotifyAnalysis(userID, contractID, EventAnalysisCompleted, "completed")

	select {
	case data := <-owner.out:
		assert.Contains(t, string(data), EventAnalysisCompleted)
		assert.Contains(t, string(data), contractID.String())
	case <-time.After(time.Second):
		t.Fatal("owner received no event")
	}
	assert.Equal(t, 0, len(other.out), "events must not leak to other users")
}

func TestHubDropsSlowConsumerAndKeepsRunning(t *testing.T) {
	hub, cancel := startHub(t)
	defer cancel()

	userID := uuid.New()
	slow := registerClient(t, hub, userID)

	// The client never drains; one event more than its buffer holds
	// must get it dropped instead of wedging the hub loop.
	contractID := uuid.New()
	for i := 0; i < cap(slow.out)+1; i++ {
		hub.NotifyAnalysis(userID, contractID, EventAnalysisStarted, "analyzing")
	}

	require.Eventually(t, func() bool { return hub.ConnectedClients(userID) == 0 },
		time.Second, 5*time.Millisecond, "laggard must be dropped")

	fresh := registerClient(t, hub, userID)
	hub.NotifyAnalysis(userID, contractID, EventAnalysisCompleted, "completed")

	select {
	case <-fresh.out:
	case <-time.After(time.Second):
		t.Fatal("hub stopped delivering after dropping a slow consumer")
	}
}

func TestHubDropRemovesClient(t *testing.T) {
	hub, cancel := startHub(t)
	defer cancel()

	userID := uuid.New()
	c := registerClient(t, hub, userID)

	hub.drop(c)
	require.Eventually(t, func() bool { return hub.ConnectedClients(userID) == 0 },
		time.Second, 5*time.Millisecond)

	// A second drop of the same client is a no-op, not a hang.
	hub.drop(c)
}

func TestHubDropReturnsAfterShutdown(t *testing.T) {
	hub, cancel := startHub(t)

	userID := uuid.New()
	c := registerClient(t, hub, userID)

	cancel()

	done := make(chan struct{})
	go func() {
		hub.drop(c)
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("drop blocked after the hub shut down")
	}
}
