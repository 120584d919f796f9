package service

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/creditchek/devbot/internal/model"
)

func TestHistoryBuffer_EvictsOldestAtCapacity(t *testing.T) {
	buffer := newHistoryBuffer(3)
	for i := 1; i <= 5; i++ {
		buffer.Push(model.HistoryPair{Input: fmt.Sprintf("q%d", i), Response: fmt.Sprintf("a%d", i)})
	}

	pairs := buffer.Pairs()
	require.Len(t, pairs, 3)
	require.Equal(t, "q3", pairs[0].Input)
	require.Equal(t, "q5", pairs[2].Input)
}

func TestHistoryBuffer_OldestFirstOrder(t *testing.T) {
	buffer := newHistoryBuffer(5)
	buffer.Push(model.HistoryPair{Input: "first"})
	buffer.Push(model.HistoryPair{Input: "second"})

	pairs := buffer.Pairs()
	require.Equal(t, "first", pairs[0].Input)
	require.Equal(t, "second", pairs[1].Input)
	require.Equal(t, 2, buffer.Len())
}

func TestHistoryBuffer_ZeroCapacityFallsBackToOne(t *testing.T) {
	buffer := newHistoryBuffer(0)
	buffer.Push(model.HistoryPair{Input: "a"})
	buffer.Push(model.HistoryPair{Input: "b"})
	require.Equal(t, 1, buffer.Len())
	require.Equal(t, "b", buffer.Pairs()[0].Input)
}
