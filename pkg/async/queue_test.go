package async

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/KolosalAI/kolosal-agent-sub000/pkg/agentdata"
)

func noopCallable() agentdata.FunctionResult { return agentdata.Ok(nil) }

func TestQueuePopsHighestPriorityFirst(t *testing.T) {
	q := newQueue(10)
	q.push(newTask("low", "t", 1, noopCallable))
	q.push(newTask("high", "t", 9, noopCallable))
	q.push(newTask("mid", "t", 5, noopCallable))

	require.Equal(t, "high", q.pop().OperationID)
	require.Equal(t, "mid", q.pop().OperationID)
	require.Equal(t, "low", q.pop().OperationID)
	require.Nil(t, q.pop())
}

func TestQueueBreaksTiesByFIFOSubmitOrder(t *testing.T) {
	q := newQueue(10)
	q.push(newTask("first", "t", 5, noopCallable))
	q.push(newTask("second", "t", 5, noopCallable))
	q.push(newTask("third", "t", 5, noopCallable))

	require.Equal(t, "first", q.pop().OperationID)
	require.Equal(t, "second", q.pop().OperationID)
	require.Equal(t, "third", q.pop().OperationID)
}

func TestQueueFullReportsAtCapacity(t *testing.T) {
	q := newQueue(2)
	require.False(t, q.full())
	q.push(newTask("a", "t", 1, noopCallable))
	require.False(t, q.full())
	q.push(newTask("b", "t", 1, noopCallable))
	require.True(t, q.full())
}

func TestQueueDefaultsCapacityWhenNonPositive(t *testing.T) {
	q := newQueue(0)
	require.Equal(t, 1000, q.capacity)
}
