package kafka

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewProducerFallsBackWithoutBroker(t *testing.T) {
	p := NewProducer("127.0.0.1:1", "rental-lifecycle")
	_, ok := p.(*loggingProducer)
	require.True(t, ok)

	assert.NoError(t, p.SendMessage(context.Background(), "booking-1", map[string]string{"action": "confirm"}))
	assert.NoError(t, p.Close())
}

func TestLoggingProducerRejectsUnmarshalable(t *testing.T) {
	p := NewLoggingProducer("t")
	assert.Error(t, p.SendMessage(context.Background(), "k", make(chan int)))
}
