package queue

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestShouldRetry(t *testing.T) {
	rm := NewRetryManager(3, time.Second)
	transient := errors.New("timeout")

	tests := []struct {
		name  string
		task  *Task
		err   error
		retry bool
	}{
		{"first failure", &Task{Attempts: 1}, transient, true},
		{"limit from manager", &Task{Attempts: 3}, transient, false},
		{"limit from task", &Task{Attempts: 1, MaxRetries: 1}, transient, false},
		{"task allows more", &Task{Attempts: 4, MaxRetries: 5}, transient, true},
		{"permanent", &Task{Attempts: 1}, Permanent(transient), false},
		{"wrapped permanent", &Task{Attempts: 1}, fmt.Errorf("handler: %w", Permanent(transient)), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			retry, delay := rm.ShouldRetry(tt.task, tt.err)
			assert.Equal(t, tt.retry, retry)
			if retry {
				assert.Positive(t, delay)
			}
		})
	}
}

func TestBackoffIsCapped(t *testing.T) {
	rm := NewRetryManager(10, time.Second)

	for attempt := 1; attempt <= 10; attempt++ {
		d := rm.calculateBackoff(attempt)
		assert.LessOrEqual(t, d, 16*time.Second)
		assert.GreaterOrEqual(t, d, 750*time.Millisecond)
	}
}

func TestPermanentNil(t *testing.T) {
	assert.NoError(t, Permanent(nil))
	assert.False(t, IsPermanent(errors.New("x")))
}
