package workers

import (
	"context"
)

// DeliveryJob is one personalized email queued for asynchronous delivery.
// Content is rendered before enqueueing, so a job is self-contained and
// workers never touch templates.
type DeliveryJob struct {
	InteractionID int64
	CampaignID    int64
	TargetID      int64
	TargetName    string
	TargetEmail   string
	Subject       string
	HTMLContent   string
	Token         string
}

// JobProcessor defines the interface for processing delivery jobs.
// Implementations should be idempotent as jobs may be retried on failure.
type JobProcessor interface {
	// Process handles a single delivery job.
	Process(ctx context.Context, job DeliveryJob) error

	// Name returns the processor name for logging and metrics.
	Name() string
}

// WorkerPool defines the interface for managing a pool of delivery workers.
type WorkerPool interface {
	// Start initializes the worker pool with N workers.
	// Each worker will process jobs by calling the JobProcessor.
	Start(ctx context.Context) error

	// Submit adds a job to the worker pool for processing.
	// Blocks if the job queue is full.
	Submit(ctx context.Context, job DeliveryJob) error

	// Drain stops accepting new jobs and waits for in-flight jobs to complete.
	// Returns after all workers have finished processing or context is cancelled.
	Drain(ctx context.Context) error

	// Stop immediately stops all workers.
	Stop()
}
