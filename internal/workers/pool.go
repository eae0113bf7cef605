package workers

import (
	"context"
	"fmt"
	"sync"
	"time"

	"phishsim-server/internal/observability"
)

// ProcessingResult represents the result of processing a delivery job.
type ProcessingResult struct {
	Job   DeliveryJob
	Error error
}

// ResultCallback is called after each job is processed.
type ResultCallback func(result ProcessingResult)

// WorkerPoolConfig holds configuration for the worker pool.
type WorkerPoolConfig struct {
	// NumWorkers is the number of concurrent workers to run.
	NumWorkers int

	// QueueSize is the size of the job queue buffer.
	// If the queue is full, Submit() will block.
	QueueSize int

	// DrainTimeout is the maximum time to wait for in-flight jobs
	// to complete during graceful shutdown.
	DrainTimeout time.Duration

	// OnResult is called after each job is processed (optional).
	OnResult ResultCallback
}

// DefaultWorkerPoolConfig returns sensible defaults for a worker pool.
func DefaultWorkerPoolConfig() WorkerPoolConfig {
	return WorkerPoolConfig{
		NumWorkers:   5,
		QueueSize:    100,
		DrainTimeout: 30 * time.Second,
	}
}

// pool implements the WorkerPool interface.
type pool struct {
	config    WorkerPoolConfig
	processor JobProcessor
	logger    *observability.Logger

	jobChan chan DeliveryJob
	wg      sync.WaitGroup

	// submitters counts Submit calls that passed the state check and may
	// be blocked on the channel send. Drain waits it out before closing
	// jobChan so a late send never hits a closed channel.
	submitters sync.WaitGroup

	mu       sync.Mutex
	started  bool
	draining bool
	stopped  bool
	cancelFn context.CancelFunc
}

// NewWorkerPool creates a new worker pool for processing delivery jobs.
func NewWorkerPool(
	config WorkerPoolConfig,
	processor JobProcessor,
	logger *observability.Logger,
) WorkerPool {
	if config.NumWorkers <= 0 {
		config.NumWorkers = DefaultWorkerPoolConfig().NumWorkers
	}
	if config.QueueSize <= 0 {
		config.QueueSize = DefaultWorkerPoolConfig().QueueSize
	}
	if config.DrainTimeout <= 0 {
		config.DrainTimeout = DefaultWorkerPoolConfig().DrainTimeout
	}

	return &pool{
		config:    config,
		processor: processor,
		logger:    logger,
		jobChan:   make(chan DeliveryJob, config.QueueSize),
	}
}

// Start initializes the worker pool with N workers.
func (p *pool) Start(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.started {
		return fmt.Errorf("worker pool already started")
	}
	if p.stopped {
		return fmt.Errorf("worker pool already stopped")
	}

	workerCtx, cancel := context.WithCancel(ctx)
	p.cancelFn = cancel
	p.started = true

	for i := 0; i < p.config.NumWorkers; i++ {
		p.wg.Add(1)
		go p.worker(workerCtx, i)
	}

	p.logger.Info(ctx, fmt.Sprintf("Started %d workers for %s processor",
		p.config.NumWorkers, p.processor.Name()))

	return nil
}

// Submit adds a job to the worker pool for processing.
func (p *pool) Submit(ctx context.Context, job DeliveryJob) error {
	p.mu.Lock()
	if !p.started {
		p.mu.Unlock()
		return fmt.Errorf("worker pool not started")
	}
	if p.draining || p.stopped {
		p.mu.Unlock()
		return fmt.Errorf("worker pool is shutting down")
	}
	p.submitters.Add(1)
	p.mu.Unlock()
	defer p.submitters.Done()

	// Block until the job can be queued or context cancelled
	select {
	case p.jobChan <- job:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Drain stops accepting new jobs and waits for in-flight jobs to complete.
func (p *pool) Drain(ctx context.Context) error {
	p.mu.Lock()
	if !p.started {
		p.mu.Unlock()
		return fmt.Errorf("worker pool not started")
	}
	if p.draining {
		p.mu.Unlock()
		return fmt.Errorf("worker pool already draining")
	}
	p.draining = true
	p.mu.Unlock()

	p.logger.Info(ctx, fmt.Sprintf("Draining worker pool for %s processor, waiting for %d in-flight jobs",
		p.processor.Name(), len(p.jobChan)))

	// No new submitters can register once draining is set. Wait for the
	// ones already past the state check before closing the channel.
	p.submitters.Wait()
	close(p.jobChan)

	done := make(chan struct{})
	go func() {
		p.wg.Wait()
		close(done)
	}()

	drainCtx, cancel := context.WithTimeout(ctx, p.config.DrainTimeout)
	defer cancel()

	select {
	case <-done:
		p.logger.Info(ctx, fmt.Sprintf("Successfully drained worker pool for %s processor",
			p.processor.Name()))
		return nil
	case <-drainCtx.Done():
		p.logger.Warn(ctx, fmt.Sprintf("Drain timeout exceeded for %s processor, forcing shutdown",
			p.processor.Name()))
		p.Stop()
		return fmt.Errorf("drain timeout exceeded")
	}
}

// Stop immediately stops all workers.
func (p *pool) Stop() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.stopped {
		return
	}
	p.stopped = true

	// Workers exit via context cancellation. The channel is only closed
	// on the Drain path, where no Submit can be mid-send.
	if p.cancelFn != nil {
		p.cancelFn()
	}
}

// worker is the main worker loop that processes jobs from the queue.
func (p *pool) worker(ctx context.Context, workerID int) {
	defer p.wg.Done()

	workerCtx := observability.WithFields(ctx,
		observability.Field{Key: "worker_id", Value: workerID},
		observability.Field{Key: "processor", Value: p.processor.Name()},
	)

	for {
		select {
		case <-ctx.Done():
			p.logger.Info(workerCtx, fmt.Sprintf("Worker %d stopping: context cancelled", workerID))
			return

		case job, ok := <-p.jobChan:
			if !ok {
				p.logger.Info(workerCtx, fmt.Sprintf("Worker %d stopping: job channel closed", workerID))
				return
			}

			jobCtx := observability.WithFields(workerCtx,
				observability.Field{Key: "interaction_id", Value: job.InteractionID},
				observability.Field{Key: "campaign_id", Value: job.CampaignID},
				observability.Field{Key: "email", Value: job.TargetEmail},
			)

			err := p.processor.Process(jobCtx, job)
			if err != nil {
				p.logger.Error(jobCtx, fmt.Sprintf("Worker %d failed to process job", workerID), err)
			}

			if p.config.OnResult != nil {
				p.config.OnResult(ProcessingResult{
					Job:   job,
					Error: err,
				})
			}
		}
	}
}
