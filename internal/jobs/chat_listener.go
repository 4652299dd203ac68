package jobs

import (
	"context"
	"hash/fnv"
	"sync"
	"sync/atomic"
	"time"

	"sports-meetup/internal/messaging"
	"sports-meetup/internal/models"
	"sports-meetup/internal/services"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
)

// Ingester persists one bus message
type Ingester interface {
	Ingest(ctx context.Context, topic string, payload []byte) (*models.ChatMessage, error)
}

// ListenerConfig sizes the worker pool and sets the reconnect delay
type ListenerConfig struct {
	Workers        int
	QueueSize      int
	ReconnectDelay time.Duration
}

// ListenerStats counts what the listener has done since it started
type ListenerStats struct {
	Stored     uint64
	Dropped    uint64
	Reconnects uint64
}

// ChatListener keeps a broker subscription alive for the lifetime of the
// process and persists every chat message it receives. Messages are sharded
// by topic over a fixed set of workers, so one channel is written in arrival
// order while a slow write never stalls other channels.
type ChatListener struct {
	subscriber messaging.Subscriber
	ingester   Ingester
	cfg        ListenerConfig

	stored     atomic.Uint64
	dropped    atomic.Uint64
	reconnects atomic.Uint64
}

func NewChatListener(subscriber messaging.Subscriber, ingester Ingester, cfg ListenerConfig) *ChatListener {
	if cfg.Workers < 1 {
		cfg.Workers = 1
	}
	if cfg.QueueSize < 1 {
		cfg.QueueSize = 1
	}
	return &ChatListener{
		subscriber: subscriber,
		ingester:   ingester,
		cfg:        cfg,
	}
}

// Run blocks until ctx is cancelled. Queued messages are drained before it
// returns; anything delivered after that is counted as dropped.
func (l *ChatListener) Run(ctx context.Context) error {
	shards := make([]chan messaging.Message, l.cfg.Workers)
	for i := range shards {
		shards[i] = make(chan messaging.Message, l.cfg.QueueSize)
	}

	// Writes in flight at shutdown still get to finish
	workCtx := context.WithoutCancel(ctx)

	var g errgroup.Group
	for i := range shards {
		shard := shards[i]
		g.Go(func() error {
			l.work(workCtx, shard)
			return nil
		})
	}

	// Sends hold the read lock; closed is only set under the write lock
	var (
		intake    sync.RWMutex
		closed    bool
		closeOnce sync.Once
	)
	dispatch := func(msg messaging.Message) {
		intake.RLock()
		defer intake.RUnlock()

		if closed {
			l.dropped.Add(1)
			log.Warn().Str("topic", msg.Topic).Msg("[ChatListener] Dropping message received after shutdown")
			return
		}
		shards[shardFor(msg.Topic, len(shards))] <- msg
	}
	stopIntake := func() {
		closeOnce.Do(func() {
			intake.Lock()
			closed = true
			intake.Unlock()

			for _, shard := range shards {
				close(shard)
			}
		})
	}

	log.Info().
		Str("broker", l.subscriber.Name()).
		Int("workers", l.cfg.Workers).
		Dur("reconnect_delay", l.cfg.ReconnectDelay).
		Msg("[ChatListener] Starting chat ingestion")

	l.listen(ctx, dispatch)

	stopIntake()
	err := g.Wait()

	stats := l.Stats()
	log.Info().
		Uint64("stored", stats.Stored).
		Uint64("dropped", stats.Dropped).
		Uint64("reconnects", stats.Reconnects).
		Msg("[ChatListener] Stopped chat ingestion")
	return err
}

// Stats returns a snapshot of the counters
func (l *ChatListener) Stats() ListenerStats {
	return ListenerStats{
		Stored:     l.stored.Load(),
		Dropped:    l.dropped.Load(),
		Reconnects: l.reconnects.Load(),
	}
}

// listen reconnects after every failure with a fixed delay, forever
func (l *ChatListener) listen(ctx context.Context, dispatch func(messaging.Message)) {
	for {
		err := l.subscriber.Listen(ctx, dispatch)
		if ctx.Err() != nil {
			return
		}

		l.reconnects.Add(1)
		log.Error().
			Err(err).
			Str("broker", l.subscriber.Name()).
			Dur("retry_in", l.cfg.ReconnectDelay).
			Msg("[ChatListener] Subscription failed, reconnecting")

		timer := time.NewTimer(l.cfg.ReconnectDelay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return
		case <-timer.C:
		}
	}
}

// work stores a shard's messages in order until the shard is closed and empty
func (l *ChatListener) work(ctx context.Context, shard <-chan messaging.Message) {
	for msg := range shard {
		l.process(ctx, msg)
	}
}

func (l *ChatListener) process(ctx context.Context, msg messaging.Message) {
	defer func() {
		if r := recover(); r != nil {
			l.dropped.Add(1)
			log.Error().Interface("panic", r).Str("topic", msg.Topic).Msg("[ChatListener] Recovered while storing message")
		}
	}()

	stored, err := l.ingester.Ingest(ctx, msg.Topic, msg.Payload)
	if err == nil {
		l.stored.Add(1)
		log.Debug().
			Str("channel_id", stored.ChannelID.String()).
			Str("sender", stored.SenderID.String()).
			Msg("[ChatListener] Stored message")
		return
	}

	l.dropped.Add(1)
	switch {
	case errors.Is(err, services.ErrMalformedTopic), errors.Is(err, services.ErrMalformedPayload):
		log.Warn().Err(err).Str("topic", msg.Topic).Msg("[ChatListener] Dropping malformed message")
	case errors.Is(err, services.ErrUnknownChannel):
		log.Warn().Str("topic", msg.Topic).Msg("[ChatListener] Dropping message for unknown channel")
	default:
		log.Error().Err(err).Str("topic", msg.Topic).Msg("[ChatListener] Failed to store message")
	}
}

func shardFor(topic string, n int) int {
	h := fnv.New32a()
	_, _ = h.Write([]byte(topic))
	return int(h.Sum32() % uint32(n))
}
