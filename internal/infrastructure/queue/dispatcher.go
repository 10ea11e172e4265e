package queue

import (
	"context"
	"hash/fnv"
	"strconv"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/hamudihigo-collab/aidcore/internal/api/metrics"
	"github.com/hamudihigo-collab/aidcore/internal/core/domain"
	"github.com/hamudihigo-collab/aidcore/internal/core/ports"
)

const (
	defaultWorkers   = 4
	defaultQueueSize = 256
)

// Dispatcher routes activity events to a fixed set of workers using
// consistent hashing on the case number, so events of one case are recorded
// in publish order. It implements ports.ActivityPublisher.
type Dispatcher struct {
	workers []chan domain.ActivityEvent
	repo    ports.ActivityRepository
	log     zerolog.Logger

	mu      sync.RWMutex
	stopped bool
	wg      sync.WaitGroup
}

var _ ports.ActivityPublisher = (*Dispatcher)(nil)

// NewDispatcher creates a Dispatcher with numWorkers sharded workers, each
// buffering up to queueSize events. Non-positive values fall back to defaults.
func NewDispatcher(numWorkers, queueSize int, repo ports.ActivityRepository, log zerolog.Logger) *Dispatcher {
	if numWorkers <= 0 {
		numWorkers = defaultWorkers
	}
	if queueSize <= 0 {
		queueSize = defaultQueueSize
	}
	d := &Dispatcher{
		workers: make([]chan domain.ActivityEvent, numWorkers),
		repo:    repo,
		log:     log,
	}
	for i := range d.workers {
		d.workers[i] = make(chan domain.ActivityEvent, queueSize)
	}
	return d
}

// Start launches all worker goroutines. Workers stop when ctx is cancelled
// or, after draining their queue, when Stop is called.
func (d *Dispatcher) Start(ctx context.Context) {
	for i, ch := range d.workers {
		d.wg.Add(1)
		go d.runWorker(ctx, i, ch)
	}
}

// Publish hands event to the worker responsible for its case. It never
// blocks: when that worker's queue is full the event is dropped and counted.
func (d *Dispatcher) Publish(event domain.ActivityEvent) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	if d.stopped {
		metrics.ActivityErrorsTotal.WithLabelValues("stopped").Inc()
		return
	}

	idx := d.shardIndex(event.CaseNumber)
	select {
	case d.workers[idx] <- event:
		metrics.ActivityQueueDepth.WithLabelValues(strconv.Itoa(idx)).Set(float64(len(d.workers[idx])))
	default:
		metrics.ActivityErrorsTotal.WithLabelValues("queue_full").Inc()
		d.log.Warn().
			Str("case_number", event.CaseNumber).
			Str("action", string(event.Action)).
			Int("worker_id", idx).
			Msg("activity queue full, event dropped")
	}
}

// Stop rejects further events and waits until the workers have drained what
// is already queued, or until ctx is done.
func (d *Dispatcher) Stop(ctx context.Context) error {
	d.mu.Lock()
	if !d.stopped {
		d.stopped = true
		for _, ch := range d.workers {
			close(ch)
		}
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

// shardIndex maps a case number deterministically to a worker index.
func (d *Dispatcher) shardIndex(caseNumber string) int {
	h := fnv.New32a()
	_, _ = h.Write([]byte(caseNumber))
	return int(h.Sum32() % uint32(len(d.workers)))
}

func (d *Dispatcher) runWorker(ctx context.Context, id int, ch <-chan domain.ActivityEvent) {
	defer d.wg.Done()
	workerID := strconv.Itoa(id)

	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-ch:
			if !ok {
				return
			}
			metrics.ActivityQueueDepth.WithLabelValues(workerID).Set(float64(len(ch)))
			d.record(ctx, id, event)
		}
	}
}

func (d *Dispatcher) record(ctx context.Context, id int, event domain.ActivityEvent) {
	start := time.Now()
	err := d.repo.Record(ctx, event)
	metrics.ActivityRecordDuration.Observe(time.Since(start).Seconds())

	if err != nil {
		metrics.ActivityErrorsTotal.WithLabelValues("record_failed").Inc()
		d.log.Error().Err(err).
			Str("case_number", event.CaseNumber).
			Str("action", string(event.Action)).
			Int("worker_id", id).
			Msg("activity recording failed")
		return
	}
	metrics.ActivityRecordedTotal.WithLabelValues(string(event.Action)).Inc()
}
