package connection_test

import (
	"sync"
	"testing"

	"github.com/serroba/short-links/internal/connection"
	"github.com/stretchr/testify/assert"
)

func TestState_String(t *testing.T) {
	tests := []struct {
		state connection.State
		want  string
	}{
		{connection.StateDisconnected, "disconnected"},
		{connection.StateConnected, "connected"},
		{connection.StateConnecting, "connecting"},
		{connection.StateDisconnecting, "disconnecting"},
		{connection.State(42), "unknown"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.state.String())
		})
	}
}

func TestState_Values(t *testing.T) {
	assert.Equal(t, 0, int(connection.StateDisconnected))
	assert.Equal(t, 1, int(connection.StateConnected))
	assert.Equal(t, 2, int(connection.StateConnecting))
	assert.Equal(t, 3, int(connection.StateDisconnecting))
}

func TestTracker(t *testing.T) {
	t.Run("starts in the initial state", func(t *testing.T) {
		tracker := connection.NewTracker(connection.StateConnected)

		assert.Equal(t, connection.StateConnected, tracker.State())
	})

	t.Run("set returns previous state", func(t *testing.T) {
		tracker := connection.NewTracker(connection.StateDisconnected)

		prev := tracker.Set(connection.StateConnecting)

		assert.Equal(t, connection.StateDisconnected, prev)
		assert.Equal(t, connection.StateConnecting, tracker.State())
	})

	t.Run("concurrent reads and writes", func(t *testing.T) {
		tracker := connection.NewTracker(connection.StateDisconnected)

		var wg sync.WaitGroup

		for i := range 50 {
			wg.Add(2)

			go func() {
				defer wg.Done()
				tracker.Set(connection.State(i % 4))
			}()

			go func() {
				defer wg.Done()
				_ = tracker.State()
			}()
		}

		wg.Wait()

		assert.Contains(t, []connection.State{
			connection.StateDisconnected,
			connection.StateConnected,
			connection.StateConnecting,
			connection.StateDisconnecting,
		}, tracker.State())
	})
}
