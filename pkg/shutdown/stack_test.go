package shutdown

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func recorder(order *[]string, id string, err error) Handler {
	return func(ctx context.Context) error {
		*order = append(*order, id)
		return err
	}
}

func TestDrainRunsByPriorityThenLatest(t *testing.T) {
	var order []string
	s := NewStack()
	s.Push("db", PriorityStorage, recorder(&order, "db", nil))
	s.Push("http", PriorityHTTP, recorder(&order, "http", nil))
	s.Push("cleanup", PriorityWorkers, recorder(&order, "cleanup", nil))
	s.Push("notifications", PriorityWorkers, recorder(&order, "notifications", nil))

	require.NoError(t, s.Drain(context.Background()))
	assert.Equal(t, []string{"http", "notifications", "cleanup", "db"}, order)
	assert.Equal(t, 0, s.Len())
}

func TestHandleRunsOnlyTop(t *testing.T) {
	var order []string
	s := NewStack()
	s.Push("low", 1, recorder(&order, "low", nil))
	s.Push("high", 5, recorder(&order, "high", nil))

	handled, err := s.Handle(context.Background())
	require.NoError(t, err)
	assert.True(t, handled)
	assert.Equal(t, []string{"high"}, order)
	assert.Equal(t, 1, s.Len())

	_, _ = s.Handle(context.Background())
	handled, err = s.Handle(context.Background())
	assert.NoError(t, err)
	assert.False(t, handled)
}

func TestPushReplacesAndRemove(t *testing.T) {
	var order []string
	s := NewStack()
	s.Push("a", 1, recorder(&order, "a1", nil))
	s.Push("a", 1, recorder(&order, "a2", nil))
	s.Push("b", 1, recorder(&order, "b", nil))
	assert.Equal(t, 2, s.Len())

	assert.True(t, s.Remove("b"))
	assert.False(t, s.Remove("b"))

	require.NoError(t, s.Drain(context.Background()))
	assert.Equal(t, []string{"a2"}, order)
}

func TestDrainCollectsErrors(t *testing.T) {
	var order []string
	boom := errors.New("boom")
	s := NewStack()
	s.Push("first", 2, recorder(&order, "first", boom))
	s.Push("second", 1, recorder(&order, "second", nil))

	err := s.Drain(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, boom)
	assert.Contains(t, err.Error(), "first")
	assert.Equal(t, []string{"first", "second"}, order)
}

func TestDrainRunsHandlersPushedWhileDraining(t *testing.T) {
	var order []string
	s := NewStack()
	s.Push("storage", PriorityStorage, recorder(&order, "storage", nil))
	s.Push("workers", PriorityWorkers, func(ctx context.Context) error {
		order = append(order, "workers")
		s.Push("queue", PriorityBrokers, recorder(&order, "queue", nil))
		return nil
	})

	require.NoError(t, s.Drain(context.Background()))
	assert.Equal(t, []string{"workers", "queue", "storage"}, order)
}
