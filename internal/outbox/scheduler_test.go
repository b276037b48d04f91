package outbox

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSchedulerRunsTasks(t *testing.T) {
	s := NewScheduler(quietLog())
	var ok, failing int32
	require.NoError(t, s.Add("@every 1s", "count", func(context.Context) error {
		atomic.AddInt32(&ok, 1)
		return nil
	}))
	require.NoError(t, s.Add("@every 1s", "fail", func(context.Context) error {
		atomic.AddInt32(&failing, 1)
		return errors.New("boom")
	}))
	s.Start()
	defer s.Stop(context.Background())

	assert.Eventually(t, func() bool {
		return atomic.LoadInt32(&ok) > 0 && atomic.LoadInt32(&failing) > 0
	}, 3*time.Second, 50*time.Millisecond)
}

func TestSchedulerRejectsBadSpec(t *testing.T) {
	s := NewScheduler(quietLog())
	assert.Error(t, s.Add("not a schedule", "bad", func(context.Context) error { return nil }))
}
