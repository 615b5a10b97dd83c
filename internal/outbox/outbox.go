// Package outbox is a sharded FIFO work queue for non-critical
// submissions (telemetry, feedback) that must not block or fail the
// caller. Jobs for the same key run in order on one shard; different keys
// may run in parallel. Failed jobs retry with exponential backoff until
// the error is non-retryable or the attempt budget is spent, then the
// error handler (if any) sees them and they are dropped.
//
// Callers must not invoke Submit concurrently for the same key; FIFO
// ordering relies on that external serialisation.
package outbox

import (
	"context"
	"errors"
	"fmt"
	"hash/fnv"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	backoff "github.com/cenkalti/backoff/v4"
	"github.com/rs/zerolog"

	"github.com/complyon/complyon-go/internal/apierrors"
)

// ErrClosed is returned by Submit after Stop.
var ErrClosed = errors.New("outbox closed")

// ErrQueueFull is the sentinel matched by errors.Is for *QueueFullError.
var ErrQueueFull = errors.New("outbox queue full")

// QueueFullError reports which shard rejected a submission.
type QueueFullError struct {
	Shard    int
	Length   int
	Capacity int
}

func (e *QueueFullError) Error() string {
	return fmt.Sprintf("outbox shard %d full (%d/%d)", e.Shard, e.Length, e.Capacity)
}

// Is lets errors.Is(err, ErrQueueFull) match.
func (e *QueueFullError) Is(target error) bool { return target == ErrQueueFull }

// Job is a unit of work executed by the outbox.
type Job func(ctx context.Context) error

type queuedJob struct {
	ctx context.Context
	job Job
}

// Outbox executes jobs on worker goroutines partitioned by a stable hash
// of the key.
type Outbox struct {
	cfg    Config
	queues []chan queuedJob
	log    zerolog.Logger

	done   chan struct{}
	closed uint32

	wg sync.WaitGroup
}

// New constructs the outbox and starts its shard workers.
func New(cfg Config, log zerolog.Logger) *Outbox {
	cfg.applyDefaults()
	o := &Outbox{
		cfg:    cfg,
		queues: make([]chan queuedJob, cfg.Shards),
		log:    log,
		done:   make(chan struct{}),
	}
	for i := 0; i < cfg.Shards; i++ {
		ch := make(chan queuedJob, cfg.QueueSize)
		o.queues[i] = ch
		o.wg.Add(1)
		go o.runWorker(i, ch)
	}
	return o
}

// Submit enqueues job for the shard derived from key. It returns ErrClosed
// after Stop, a *QueueFullError when the shard stays full past the enqueue
// timeout, or ctx.Err() if the caller's context ends first.
func (o *Outbox) Submit(ctx context.Context, key string, job Job) error {
	if atomic.LoadUint32(&o.closed) == 1 {
		return ErrClosed
	}
	select {
	case <-o.done:
		return ErrClosed
	default:
	}

	shard := o.shardFor(key)
	ch := o.queues[shard]

	timer := time.NewTimer(o.cfg.EnqueueTimeout)
	defer timer.Stop()

	select {
	case ch <- queuedJob{ctx: ctx, job: job}:
		submissionsTotal.WithLabelValues(strconv.Itoa(shard)).Inc()
		return nil
	case <-o.done:
		return ErrClosed
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		queueFullTotal.WithLabelValues(strconv.Itoa(shard)).Inc()
		return &QueueFullError{Shard: shard, Length: len(ch), Capacity: cap(ch)}
	}
}

// Barrier enqueues a no-op job on key's shard and waits for it to run,
// guaranteeing all previously submitted jobs for that key have completed.
func (o *Outbox) Barrier(ctx context.Context, key string) error {
	ran := make(chan struct{})
	if err := o.Submit(ctx, key, func(context.Context) error {
		close(ran)
		return nil
	}); err != nil {
		return err
	}
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-ran:
		return nil
	}
}

// Stop drains every shard, waits for workers to finish, and returns. It is
// idempotent and safe for concurrent use.
func (o *Outbox) Stop() {
	if !atomic.CompareAndSwapUint32(&o.closed, 0, 1) {
		return
	}
	o.log.Debug().Int("shards", o.cfg.Shards).Msg("outbox stopping, draining shards")
	close(o.done)
	o.wg.Wait()
	o.log.Debug().Msg("outbox stopped")
}

// ------------------------- internals -------------------------

func (o *Outbox) runWorker(idx int, ch <-chan queuedJob) {
	defer o.wg.Done()
	defer func() {
		if r := recover(); r != nil {
			o.log.Error().Int("shard", idx).Interface("panic", r).Msg("outbox worker panic")
		}
	}()

	label := strconv.Itoa(idx)

	for {
		select {
		case qj := <-ch:
			if qj.job == nil {
				continue
			}
			select {
			case <-qj.ctx.Done():
				o.handleError(qj.ctx.Err())
			default:
				o.runWithRetry(qj, label)
			}
			queueDepth.WithLabelValues(label).Set(float64(len(ch)))

		case <-o.done:
			// Drain remaining jobs, preserving FIFO, then exit.
			for {
				select {
				case qj := <-ch:
					if qj.job != nil {
						if err := qj.job(qj.ctx); err != nil {
							o.handleError(err)
						}
					}
				default:
					queueDepth.WithLabelValues(label).Set(0)
					return
				}
			}
		}
	}
}

// runWithRetry executes one job, retrying retryable failures with
// exponential backoff up to the attempt budget.
func (o *Outbox) runWithRetry(qj queuedJob, label string) {
	exp := backoff.NewExponentialBackOff()
	exp.InitialInterval = o.cfg.BaseBackoff
	exp.Multiplier = 2
	exp.MaxInterval = o.cfg.MaxInterval
	exp.Reset()

	for attempt := 1; ; attempt++ {
		start := time.Now()
		err := qj.job(qj.ctx)
		runDuration.WithLabelValues(label).Observe(time.Since(start).Seconds())
		if err == nil {
			return
		}
		if !apierrors.Retryable(err) || attempt >= o.cfg.MaxAttempts {
			failuresTotal.WithLabelValues(label).Inc()
			o.handleError(err)
			return
		}
		select {
		case <-time.After(exp.NextBackOff()):
		case <-o.done:
			return
		case <-qj.ctx.Done():
			o.handleError(qj.ctx.Err())
			return
		}
	}
}

func (o *Outbox) handleError(err error) {
	if err == nil || o.cfg.ErrorHandler == nil {
		return
	}
	func() {
		defer func() {
			if r := recover(); r != nil {
				o.log.Error().Interface("panic", r).Msg("outbox error handler panic")
			}
		}()
		o.cfg.ErrorHandler(err)
	}()
}

func (o *Outbox) shardFor(key string) int {
	h := fnv.New32a()
	_, _ = h.Write([]byte(key))
	return int(h.Sum32()) % o.cfg.Shards
}
