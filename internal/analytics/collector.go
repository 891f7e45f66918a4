package analytics

import (
	"context"
	"log/slog"
	"time"

	"github.com/BotCoder254/story-discovery/pkg/kafka"
)

const (
	defaultBufferSize = 10000
	flushBatchSize    = 100
	flushInterval     = time.Second
)

// Collector buffers events and publishes them to Kafka in batches. Track
// never blocks: when the buffer is full the event is dropped and counted in
// a log line rather than stalling a search request.
type Collector struct {
	producer *kafka.Producer
	eventCh  chan Event
	logger   *slog.Logger
	done     chan struct{}
}

// NewCollector creates a Collector with the given buffer size (0 for the
// default).
func NewCollector(producer *kafka.Producer, bufferSize int) *Collector {
	if bufferSize <= 0 {
		bufferSize = defaultBufferSize
	}
	return &Collector{
		producer: producer,
		eventCh:  make(chan Event, bufferSize),
		logger:   slog.Default().With("component", "analytics-collector"),
		done:     make(chan struct{}),
	}
}

// Start launches the publish loop. Events are flushed when a batch fills or
// the flush interval elapses, whichever comes first.
func (c *Collector) Start(ctx context.Context) {
	go func() {
		defer close(c.done)
		ticker := time.NewTicker(flushInterval)
		defer ticker.Stop()
		batch := make([]Event, 0, flushBatchSize)
		for {
			select {
			case ev, ok := <-c.eventCh:
				if !ok {
					c.flush(context.Background(), batch)
					return
				}
				batch = append(batch, ev)
				if len(batch) >= flushBatchSize {
					c.flush(ctx, batch)
					batch = batch[:0]
				}
			case <-ticker.C:
				if len(batch) > 0 {
					c.flush(ctx, batch)
					batch = batch[:0]
				}
			case <-ctx.Done():
				c.drainInto(&batch)
				c.flush(context.Background(), batch)
				return
			}
		}
	}()
	c.logger.Info("analytics collector started", "buffer_size", cap(c.eventCh))
}

// Track enqueues an event without blocking.
func (c *Collector) Track(ev Event) {
	select {
	case c.eventCh <- ev:
	default:
		c.logger.Warn("analytics event dropped (buffer full)")
	}
}

// Close flushes buffered events and stops the publish loop.
func (c *Collector) Close() {
	close(c.eventCh)
	<-c.done
}

func (c *Collector) flush(ctx context.Context, batch []Event) {
	if len(batch) == 0 {
		return
	}
	events := make([]kafka.Event, 0, len(batch))
	for _, ev := range batch {
		events = append(events, kafka.Event{Key: string(ev.Operation), Value: ev})
	}
	if err := c.producer.PublishBatch(ctx, events); err != nil {
		c.logger.Error("failed to publish analytics batch", "count", len(batch), "error", err)
	}
}

func (c *Collector) drainInto(batch *[]Event) {
	for {
		select {
		case ev, ok := <-c.eventCh:
			if !ok {
				return
			}
			*batch = append(*batch, ev)
		default:
			return
		}
	}
}
