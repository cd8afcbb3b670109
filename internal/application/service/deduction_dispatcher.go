package service

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/sangkips/tableside-api/internal/domain/entity"
	infraRepo "github.com/sangkips/tableside-api/internal/infrastructure/repository"
)

// DeductionJob is one claimed batch of order items whose ingredients still
// have to be booked against the inventory ledger
type DeductionJob struct {
	RestaurantID uuid.UUID
	OrderID      uuid.UUID
	Items        []entity.OrderItem
	Actor        *uuid.UUID
	Reason       string
}

// DeductionDispatcher accepts deduction jobs after the status change that
// claimed them has committed. Submit never blocks and reports whether the
// job was accepted. Delivery is at most once.
type DeductionDispatcher interface {
	Submit(job DeductionJob) bool
}

// AsyncDeductionDispatcher runs jobs on a fixed pool of worker goroutines
// fed by a bounded queue
type AsyncDeductionDispatcher struct {
	inventory *InventoryService
	queue     chan DeductionJob
	timeout   time.Duration
	log       zerolog.Logger

	mu     sync.RWMutex
	closed bool
	wg     sync.WaitGroup
}

// NewAsyncDeductionDispatcher starts workers goroutines draining a queue of queueSize jobs
func NewAsyncDeductionDispatcher(inventory *InventoryService, workers, queueSize int, timeout time.Duration, log zerolog.Logger) *AsyncDeductionDispatcher {
	if workers <= 0 {
		workers = 1
	}
	if queueSize <= 0 {
		queueSize = 1
	}
	if timeout <= 0 {
		timeout = 15 * time.Second
	}

	d := &AsyncDeductionDispatcher{
		inventory: inventory,
		queue:     make(chan DeductionJob, queueSize),
		timeout:   timeout,
		log:       log,
	}

	d.wg.Add(workers)
	for i := 0; i < workers; i++ {
		go d.worker(i)
	}
	return d
}

// Submit enqueues the job. A full queue or a stopped dispatcher drops it with a warning.
func (d *AsyncDeductionDispatcher) Submit(job DeductionJob) bool {
	if len(job.Items) == 0 {
		return true
	}

	d.mu.RLock()
	defer d.mu.RUnlock()

	if d.closed {
		d.log.Warn().
			Str("order_id", job.OrderID.String()).
			Msg("deduction dispatcher stopped, job dropped")
		return false
	}

	select {
	case d.queue <- job:
		return true
	default:
		d.log.Warn().
			Str("order_id", job.OrderID.String()).
			Int("items", len(job.Items)).
			Msg("deduction queue full, job dropped")
		return false
	}
}

func (d *AsyncDeductionDispatcher) worker(id int) {
	defer d.wg.Done()
	log := d.log.With().Int("worker", id).Logger()

	for job := range d.queue {
		d.run(job, log)
	}
}

func (d *AsyncDeductionDispatcher) run(job DeductionJob, log zerolog.Logger) {
	defer func() {
		if r := recover(); r != nil {
			log.Error().Interface("panic", r).Str("order_id", job.OrderID.String()).Msg("deduction job panicked")
		}
	}()

	ctx, cancel := context.WithTimeout(infraRepo.WithRestaurant(context.Background(), job.RestaurantID), d.timeout)
	defer cancel()

	result := d.inventory.DeductForItems(ctx, job.OrderID, job.Items, job.Actor)
	log.Debug().
		Str("order_id", job.OrderID.String()).
		Str("reason", job.Reason).
		Int("applied", result.Applied).
		Int("skipped", result.Skipped).
		Int("failed", len(result.Failures)).
		Msg("deduction job finished")
}

// Shutdown stops accepting jobs and waits for queued jobs to drain or ctx to end
func (d *AsyncDeductionDispatcher) Shutdown(ctx context.Context) error {
	d.mu.Lock()
	if !d.closed {
		d.closed = true
		close(d.queue)
	}
	d.mu.Unlock()

	done := make(chan struct{})
	go func() {
		d.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// SyncDeductionDispatcher runs each job on the submitting goroutine
type SyncDeductionDispatcher struct {
	Inventory *InventoryService
}

func (d SyncDeductionDispatcher) Submit(job DeductionJob) bool {
	if len(job.Items) == 0 {
		return true
	}
	ctx := infraRepo.WithRestaurant(context.Background(), job.RestaurantID)
	d.Inventory.DeductForItems(ctx, job.OrderID, job.Items, job.Actor)
	return true
}
