package services

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/sourcegraph/conc"
	"go.uber.org/zap"

	"task-review-system.com/task-review-system/internal/metrics"
	"task-review-system.com/task-review-system/internal/notify"
	repository "task-review-system.com/task-review-system/internal/repositories"
)

const deliveryTimeout = 10 * time.Second

type DispatchConfig struct {
	Workers      int
	QueueSize    int
	PollInterval time.Duration
	BatchSize    int
}

// DispatchService drains the event outbox into a notification sink. Events are
// pushed by id right after commit; a poll loop picks up anything that missed
// the queue or failed delivery.
type DispatchService struct {
	queue       chan string
	wg          conc.WaitGroup
	requeueWG   conc.WaitGroup
	enqueued    sync.Map
	mu          sync.RWMutex
	closed      bool
	events      *repository.EventRepository
	sink        notify.Sink
	metrics     *metrics.Recorder
	logger      *zap.Logger
	batchSize   int
	requeueStop chan struct{}
}

func NewDispatchService(
	events *repository.EventRepository,
	sink notify.Sink,
	cfg DispatchConfig,
	recorder *metrics.Recorder,
	logger *zap.Logger,
) *DispatchService {
	if logger == nil {
		logger = zap.NewNop()
	}

	p := &DispatchService{
		queue:       make(chan string, cfg.QueueSize),
		events:      events,
		sink:        sink,
		metrics:     recorder,
		logger:      logger.Named("dispatch"),
		batchSize:   cfg.BatchSize,
		requeueStop: make(chan struct{}),
	}

	if cfg.PollInterval > 0 {
		p.requeueWG.Go(func() { p.requeuePendingLoop(cfg.PollInterval) })
	}

	for i := 1; i <= cfg.Workers; i++ {
		workerID := i
		p.wg.Go(func() { p.worker(workerID) })
	}

	return p
}

// Enqueue schedules delivery of a committed event. It reports false when the
// event is already queued, the queue is full or the service is shut down.
func (p *DispatchService) Enqueue(eventID string) bool {
	ok, _ := p.enqueueIfNotPresent(eventID)
	return ok
}

func (p *DispatchService) worker(workerID int) {
	p.logger.Debug("worker started", zap.Int("worker", workerID))

	for eventID := range p.queue {
		p.metrics.SetQueueLength(len(p.queue))
		p.handleEvent(workerID, eventID)
	}

	p.logger.Debug("worker stopped", zap.Int("worker", workerID))
}

func (p *DispatchService) handleEvent(workerID int, eventID string) {
	defer p.untrackEnqueued(eventID)

	ctx, cancel := context.WithTimeout(context.Background(), deliveryTimeout)
	defer cancel()

	event, err := p.events.FindByID(ctx, eventID)
	if err != nil {
		if !errors.Is(err, repository.ErrEventNotFound) {
			p.logger.Error("load event failed", zap.Int("worker", workerID), zap.String("event_id", eventID), zap.Error(err))
		}
		return
	}
	if event.DispatchedAt != nil {
		return
	}

	start := time.Now()
	err = p.sink.Deliver(ctx, *event)
	p.metrics.ObserveDelivery(err, time.Since(start))

	if err != nil {
		p.logger.Warn("delivery failed",
			zap.Int("worker", workerID),
			zap.String("event_id", eventID),
			zap.Int("attempt", event.Attempts+1),
			zap.Error(err),
		)
		if rerr := p.events.RecordFailure(ctx, eventID, err); rerr != nil {
			p.logger.Error("record failure failed", zap.String("event_id", eventID), zap.Error(rerr))
		}
		return
	}

	if err := p.events.MarkDispatched(ctx, eventID, time.Now().UTC()); err != nil {
		p.logger.Error("mark dispatched failed", zap.String("event_id", eventID), zap.Error(err))
		return
	}

	p.logger.Debug("event delivered",
		zap.Int("worker", workerID),
		zap.String("event_id", eventID),
		zap.String("idempotency_key", event.IdempotencyKey()),
	)
}

func (p *DispatchService) requeuePendingLoop(interval time.Duration) {
	p.requeuePendingOnce()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			p.requeuePendingOnce()
		case <-p.requeueStop:
			return
		}
	}
}

func (p *DispatchService) requeuePendingOnce() int {
	ctx, cancel := context.WithTimeout(context.Background(), deliveryTimeout)
	defer cancel()

	events, err := p.events.ListUndispatched(ctx, p.batchSize)
	if err != nil {
		p.logger.Error("requeue: list undispatched failed", zap.Error(err))
		return 0
	}

	count := 0
	for _, event := range events {
		enqueued, queueFull := p.enqueueIfNotPresent(event.ID)
		if queueFull {
			break
		}
		if enqueued {
			count++
		}
	}
	return count
}

func (p *DispatchService) enqueueIfNotPresent(eventID string) (bool, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	if p.closed {
		return false, false
	}
	if !p.trackEnqueued(eventID) {
		return false, false
	}

	select {
	case p.queue <- eventID:
		p.metrics.SetQueueLength(len(p.queue))
		return true, false
	default:
		p.untrackEnqueued(eventID)
		return false, true
	}
}

func (p *DispatchService) trackEnqueued(eventID string) bool {
	_, loaded := p.enqueued.LoadOrStore(eventID, struct{}{})
	return !loaded
}

func (p *DispatchService) untrackEnqueued(eventID string) {
	p.enqueued.Delete(eventID)
}

// Shutdown stops the poll loop, lets workers drain what is already queued and
// waits for them until ctx expires. Undelivered events stay in the outbox.
func (p *DispatchService) Shutdown(ctx context.Context) {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return
	}
	p.closed = true
	close(p.requeueStop)
	close(p.queue)
	p.mu.Unlock()

	p.requeueWG.Wait()

	done := make(chan struct{})
	go func() {
		p.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		p.logger.Info("dispatcher shut down cleanly")
	case <-ctx.Done():
		p.logger.Warn("dispatcher shutdown timed out")
	}
}
