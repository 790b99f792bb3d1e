package bsp

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func drain(it MessageIterator) []float64 {
	var out []float64
	for v, ok := it(); ok; v, ok = it() {
		out = append(out, v)
	}
	return out
}

func TestSyncMessengerVisibleOnlyAfterSwap(t *testing.T) {
	m := NewSyncMessenger(NewSyncMessageQueue(3, 0))
	require.NoError(t, m.SendTo(0, 1, 5))
	require.True(t, m.HasSentMessage())
	require.False(t, m.HasInbox(1)) // not readable until Swap

	m.Swap()
	require.True(t, m.HasInbox(1))
	require.Equal(t, []float64{5}, drain(m.Receive(1)))
}

func TestAsyncMessengerVisibleImmediately(t *testing.T) {
	m := NewAsyncMessenger(NewAsyncMessageQueue(3, 0))
	require.NoError(t, m.SendTo(0, 1, 9))
	require.True(t, m.HasInbox(1))
	require.Equal(t, []float64{9}, drain(m.Receive(1)))
	require.False(t, m.HasInbox(1))
}

func TestReducingMessengerCombinesWithinGeneration(t *testing.T) {
	m := NewReducingMessenger(3, Sum(), false)
	require.NoError(t, m.SendTo(0, 2, 1))
	require.NoError(t, m.SendTo(1, 2, 4))
	require.False(t, m.HasInbox(2)) // current generation, not yet readable

	m.Swap()
	require.True(t, m.HasInbox(2))
	require.Equal(t, []float64{5}, drain(m.Receive(2)))
}

func TestReducingMessengerGenerationDoesNotLeakIntoNext(t *testing.T) {
	m := NewReducingMessenger(2, Min(), false)
	require.NoError(t, m.SendTo(0, 1, 3))
	m.Swap()
	require.True(t, m.HasInbox(1))
	m.InitIteration()
	// current generation (for the next send round) must start clean.
	require.NoError(t, m.SendTo(0, 1, 7))
	require.Equal(t, []float64{3}, drain(m.Receive(1))) // still reading prev gen
	m.Swap()
	require.Equal(t, []float64{7}, drain(m.Receive(1)))
}

func TestReducingMessengerTracksSender(t *testing.T) {
	m := NewReducingMessenger(2, Min(), true)
	require.NoError(t, m.SendTo(0, 1, 3))
	m.Swap()
	sender, ok := m.Sender(1)
	require.True(t, ok)
	require.Equal(t, int64(0), sender)
}

func TestReducingMessengerOutOfRangeFailsFast(t *testing.T) {
	m := NewReducingMessenger(2, Sum(), false)
	require.Error(t, m.SendTo(0, 5, 1))
}

func TestReducingMessengerEmptySlotHasNoMessage(t *testing.T) {
	m := NewReducingMessenger(2, Sum(), false)
	m.Swap()
	require.False(t, m.HasInbox(0))
	_, ok := m.Receive(0)()
	require.False(t, ok)
}
