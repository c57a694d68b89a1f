// Package consumer routes decoded events through the dedup gate and a
// hash-partitioned worker pool into the economics updater and the reputation
// ledger.
package consumer

import (
	"context"
	"errors"
	"fmt"
	"hash/fnv"
	"strconv"
	"sync"
	"time"

	"go.uber.org/zap"

	"launchpad-indexer/internal/candles"
	"launchpad-indexer/internal/domain"
	"launchpad-indexer/internal/economics"
	"launchpad-indexer/internal/idhash"
	"launchpad-indexer/internal/ledger"
	"launchpad-indexer/internal/observability"
	"launchpad-indexer/internal/storage"
)

const (
	defaultWorkers   = 8
	defaultQueueSize = 256

	maxApplyAttempts = 5
	retryBaseDelay   = 200 * time.Millisecond
)

// Config tunes the worker pool.
type Config struct {
	Workers   int
	QueueSize int
}

// Consumer applies events under at-least-once delivery. Redeliveries are
// dropped by the processed-event gate; events sharing an aggregation key are
// routed to the same worker so all derived state for that key mutates
// serially. Counter keys shared across partitions (user profiles) are safe
// anyway: the ledger stores increment atomically.
type Consumer struct {
	cfg       Config
	processed storage.ProcessedEventStore
	economics *economics.Updater
	ledger    *ledger.Ledger
	candles   *candles.Aggregator
	logger    *zap.Logger

	queues []chan domain.Event
	wg     sync.WaitGroup
}

// New creates a Consumer. candleAgg may be nil when candle rebuilds are
// disabled.
func New(
	cfg Config,
	processed storage.ProcessedEventStore,
	econ *economics.Updater,
	led *ledger.Ledger,
	candleAgg *candles.Aggregator,
	logger *zap.Logger,
) *Consumer {
	if cfg.Workers <= 0 {
		cfg.Workers = defaultWorkers
	}
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = defaultQueueSize
	}

	return &Consumer{
		cfg:       cfg,
		processed: processed,
		economics: econ,
		ledger:    led,
		candles:   candleAgg,
		logger:    logger.Named("consumer"),
	}
}

// Run consumes events until the channel closes or the context is cancelled.
// Blocks until all workers drain.
func (c *Consumer) Run(ctx context.Context, events <-chan domain.Event) {
	c.queues = make([]chan domain.Event, c.cfg.Workers)
	for i := range c.queues {
		c.queues[i] = make(chan domain.Event, c.cfg.QueueSize)
		c.wg.Add(1)
		go c.worker(ctx, i)
	}

	defer func() {
		for _, q := range c.queues {
			close(q)
		}
		c.wg.Wait()
	}()

	for {
		select {
		case <-ctx.Done():
			return
		case e, ok := <-events:
			if !ok {
				return
			}
			q := c.queues[partition(e.AggregationKey(), c.cfg.Workers)]
			select {
			case <-ctx.Done():
				return
			case q <- e:
			}
		}
	}
}

func (c *Consumer) worker(ctx context.Context, id int) {
	defer c.wg.Done()

	label := strconv.Itoa(id)
	q := c.queues[id]
	for e := range q {
		observability.DefaultMetrics.QueueDepth.WithLabelValues(label).Set(float64(len(q)))
		c.process(ctx, e)
	}
}

// process applies one event: dedup gate first, then the kind handler with
// retry on transient failures. Malformed and missing-reference events are
// logged and skipped; an exhausted retry drops the event with an error log
// (redelivery or the candle sweep recovers it).
func (c *Consumer) process(ctx context.Context, e domain.Event) {
	kind := string(e.Kind())
	eventID := idhash.ComputeEventID(e.Meta(), e.Kind())

	fresh, err := c.markWithRetry(ctx, eventID)
	if err != nil {
		observability.RecordEventError(kind)
		c.logger.Error("dedup mark failed, dropping event",
			zap.String("kind", kind), zap.String("event_id", eventID), zap.Error(err))
		return
	}
	if !fresh {
		observability.RecordEventDeduped()
		c.logger.Debug("duplicate event skipped",
			zap.String("kind", kind), zap.String("event_id", eventID))
		return
	}

	start := time.Now()
	err = c.applyWithRetry(ctx, e)
	observability.RecordEventApplyLatency(kind, time.Since(start).Seconds())

	switch {
	case err == nil:
		observability.RecordEventProcessed(kind, float64(time.Now().Unix()))
		if trade, ok := e.(*domain.TradeEvent); ok && c.candles != nil {
			c.candles.Trigger(ctx, trade.MemecoinAddress)
		}
	case errors.Is(err, domain.ErrMalformedEvent):
		observability.RecordEventSkipped(kind, "malformed")
		c.logger.Warn("malformed event skipped",
			zap.String("kind", kind), zap.String("event_id", eventID), zap.Error(err))
	case errors.Is(err, domain.ErrMissingReference):
		observability.RecordEventSkipped(kind, "missing_reference")
		c.logger.Warn("event references missing state, skipped",
			zap.String("kind", kind), zap.String("event_id", eventID), zap.Error(err))
	default:
		observability.RecordEventError(kind)
		c.logger.Error("event apply failed",
			zap.String("kind", kind), zap.String("event_id", eventID), zap.Error(err))
	}
}

func (c *Consumer) markWithRetry(ctx context.Context, eventID string) (bool, error) {
	var lastErr error
	for attempt := 0; attempt < maxApplyAttempts; attempt++ {
		if err := sleepBackoff(ctx, attempt); err != nil {
			return false, err
		}
		fresh, err := c.processed.Mark(ctx, eventID)
		if err == nil {
			return fresh, nil
		}
		lastErr = err
	}
	return false, lastErr
}

func (c *Consumer) applyWithRetry(ctx context.Context, e domain.Event) error {
	var lastErr error
	for attempt := 0; attempt < maxApplyAttempts; attempt++ {
		if err := sleepBackoff(ctx, attempt); err != nil {
			return err
		}
		err := c.apply(ctx, e)
		if err == nil ||
			errors.Is(err, domain.ErrMalformedEvent) ||
			errors.Is(err, domain.ErrMissingReference) {
			return err
		}
		lastErr = err
	}
	return lastErr
}

func (c *Consumer) apply(ctx context.Context, e domain.Event) error {
	switch ev := e.(type) {
	case *domain.DeployEvent:
		return c.economics.ApplyDeploy(ctx, ev)
	case *domain.LaunchEvent:
		return c.economics.ApplyLaunch(ctx, ev)
	case *domain.MetadataEvent:
		return c.economics.ApplyMetadata(ctx, ev)
	case *domain.TradeEvent:
		return c.economics.ApplyTransaction(ctx, ev)
	case *domain.LinkIdentityEvent:
		return c.ledger.ApplyLinkIdentity(ctx, ev)
	case *domain.TipEvent:
		return c.ledger.ApplyTip(ctx, ev)
	case *domain.DepositEvent:
		return c.ledger.ApplyDeposit(ctx, ev)
	case *domain.DistributionEvent:
		return c.ledger.ApplyDistribution(ctx, ev)
	case *domain.NewEpochEvent:
		return c.ledger.ApplyNewEpoch(ctx, ev)
	default:
		return fmt.Errorf("event kind %s: %w", e.Kind(), domain.ErrMalformedEvent)
	}
}

// sleepBackoff waits before retry attempts; attempt 0 is immediate.
func sleepBackoff(ctx context.Context, attempt int) error {
	if attempt == 0 {
		return nil
	}
	delay := retryBaseDelay << (attempt - 1)
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(delay):
		return nil
	}
}

// partition maps an aggregation key to a worker index via FNV-32a.
func partition(key string, workers int) int {
	h := fnv.New32a()
	h.Write([]byte(key))
	return int(h.Sum32() % uint32(workers))
}
