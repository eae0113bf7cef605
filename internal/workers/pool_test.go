package workers

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"phishsim-server/internal/observability"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mockProcessor is a test implementation of JobProcessor
type mockProcessor struct {
	name           string
	processedCount atomic.Int32
	processingTime time.Duration
	onProcess      func(job DeliveryJob) error
}

func newMockProcessor(name string, processingTime time.Duration) *mockProcessor {
	return &mockProcessor{
		name:           name,
		processingTime: processingTime,
	}
}

func (m *mockProcessor) Process(ctx context.Context, job DeliveryJob) error {
	if m.processingTime > 0 {
		time.Sleep(m.processingTime)
	}
	m.processedCount.Add(1)

	if m.onProcess != nil {
		return m.onProcess(job)
	}
	return nil
}

func (m *mockProcessor) Name() string {
	return m.name
}

func testJob(i int) DeliveryJob {
	return DeliveryJob{
		InteractionID: int64(i),
		CampaignID:    1,
		TargetID:      int64(i),
		TargetEmail:   fmt.Sprintf("target%d@example.com", i),
		Subject:       "Security notice",
	}
}

func TestPoolProcessesSubmittedJobs(t *testing.T) {
	t.Parallel()

	logger := observability.NewLogger()
	processor := newMockProcessor("delivery", 0)

	p := NewWorkerPool(WorkerPoolConfig{
		NumWorkers:   3,
		QueueSize:    10,
		DrainTimeout: 5 * time.Second,
	}, processor, logger)

	ctx := context.Background()
	require.NoError(t, p.Start(ctx))

	for i := 0; i < 8; i++ {
		require.NoError(t, p.Submit(ctx, testJob(i)))
	}

	require.NoError(t, p.Drain(ctx))
	assert.Equal(t, int32(8), processor.processedCount.Load())
}

func TestPoolRejectsSubmitAfterDrain(t *testing.T) {
	t.Parallel()

	logger := observability.NewLogger()
	processor := newMockProcessor("delivery", 0)

	p := NewWorkerPool(WorkerPoolConfig{
		NumWorkers:   1,
		QueueSize:    1,
		DrainTimeout: time.Second,
	}, processor, logger)

	ctx := context.Background()
	require.NoError(t, p.Start(ctx))
	require.NoError(t, p.Drain(ctx))

	err := p.Submit(ctx, testJob(1))
	assert.ErrorContains(t, err, "shutting down")
}

// TestPoolSubmitDuringDrainDoesNotPanic hammers Submit from many goroutines
// while Drain closes the channel. A Submit that passed the state check must
// either enqueue its job or return the shutdown error, never panic.
func TestPoolSubmitDuringDrainDoesNotPanic(t *testing.T) {
	t.Parallel()

	logger := observability.NewLogger()

	for round := 0; round < 20; round++ {
		processor := newMockProcessor("delivery", time.Millisecond)

		p := NewWorkerPool(WorkerPoolConfig{
			NumWorkers:   2,
			QueueSize:    4,
			DrainTimeout: 5 * time.Second,
		}, processor, logger)

		ctx := context.Background()
		require.NoError(t, p.Start(ctx))

		var submitted atomic.Int32
		var wg sync.WaitGroup
		for i := 0; i < 16; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				if err := p.Submit(ctx, testJob(i)); err == nil {
					submitted.Add(1)
				}
			}(i)
		}

		require.NoError(t, p.Drain(ctx))
		wg.Wait()

		// Every job accepted by Submit was processed before Drain returned.
		assert.Equal(t, submitted.Load(), processor.processedCount.Load())
	}
}

func TestPoolStopWakesIdleWorkers(t *testing.T) {
	t.Parallel()

	logger := observability.NewLogger()
	processor := newMockProcessor("delivery", 0)

	p := NewWorkerPool(WorkerPoolConfig{
		NumWorkers:   2,
		QueueSize:    2,
		DrainTimeout: time.Second,
	}, processor, logger)

	ctx := context.Background()
	require.NoError(t, p.Start(ctx))
	p.Stop()

	err := p.Submit(ctx, testJob(1))
	assert.ErrorContains(t, err, "shutting down")
}
