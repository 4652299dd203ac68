package jobs

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"sports-meetup/internal/messaging"
	"sports-meetup/internal/models"
	"sports-meetup/internal/services"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// scriptedSubscriber delivers one batch per connection. Every batch but the
// last ends with a dropped connection; the last connection stays up.
type scriptedSubscriber struct {
	mu      sync.Mutex
	batches [][]messaging.Message
	calls   int
}

func (s *scriptedSubscriber) Name() string { return "scripted" }

func (s *scriptedSubscriber) Listen(ctx context.Context, handle func(messaging.Message)) error {
	s.mu.Lock()
	call := s.calls
	s.calls++
	s.mu.Unlock()

	if call < len(s.batches) {
		for _, msg := range s.batches[call] {
			handle(msg)
		}
	}
	if call < len(s.batches)-1 {
		return messaging.ErrConnectionLost
	}

	<-ctx.Done()
	return ctx.Err()
}

func (s *scriptedSubscriber) Calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

type recordingIngester struct {
	mu      sync.Mutex
	byTopic map[string][]string
}

func (r *recordingIngester) Ingest(_ context.Context, topic string, payload []byte) (*models.ChatMessage, error) {
	switch string(payload) {
	case "malformed":
		return nil, errors.Wrap(services.ErrMalformedPayload, "test")
	case "orphan":
		return nil, services.ErrUnknownChannel
	case "broken":
		return nil, errors.New("database is down")
	case "panic":
		panic("boom")
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.byTopic == nil {
		r.byTopic = make(map[string][]string)
	}
	r.byTopic[topic] = append(r.byTopic[topic], string(payload))
	return &models.ChatMessage{ChannelID: uuid.New(), SenderID: uuid.New()}, nil
}

func (r *recordingIngester) Messages(topic string) []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.byTopic[topic]...)
}

func msg(topic, payload string) messaging.Message {
	return messaging.Message{Topic: topic, Payload: []byte(payload)}
}

func TestChatListenerReconnectsAndCounts(t *testing.T) {
	sub := &scriptedSubscriber{batches: [][]messaging.Message{
		{msg("TownPass/a", "1"), msg("TownPass/a", "malformed")},
		{msg("TownPass/a", "2"), msg("TownPass/b", "orphan"), msg("TownPass/b", "panic")},
		{msg("TownPass/a", "3"), msg("TownPass/b", "broken"), msg("TownPass/b", "4")},
	}}
	ing := &recordingIngester{}
	listener := NewChatListener(sub, ing, ListenerConfig{
		Workers:        4,
		QueueSize:      2,
		ReconnectDelay: 10 * time.Millisecond,
	})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- listener.Run(ctx) }()

	require.Eventually(t, func() bool {
		s := listener.Stats()
		return s.Stored == 4 && s.Dropped == 4
	}, 5*time.Second, 10*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("listener did not stop")
	}

	stats := listener.Stats()
	assert.EqualValues(t, 2, stats.Reconnects)
	assert.Equal(t, 3, sub.Calls())
	assert.Equal(t, []string{"1", "2", "3"}, ing.Messages("TownPass/a"))
	assert.Equal(t, []string{"4"}, ing.Messages("TownPass/b"))
}

func TestChatListenerKeepsPerTopicOrder(t *testing.T) {
	var batch []messaging.Message
	for i := 0; i < 200; i++ {
		batch = append(batch, msg(fmt.Sprintf("TownPass/%d", i%7), fmt.Sprint(i)))
	}
	sub := &scriptedSubscriber{batches: [][]messaging.Message{batch}}
	ing := &recordingIngester{}
	listener := NewChatListener(sub, ing, ListenerConfig{Workers: 3, QueueSize: 1, ReconnectDelay: time.Second})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- listener.Run(ctx) }()

	require.Eventually(t, func() bool {
		return listener.Stats().Stored == 200
	}, 5*time.Second, 10*time.Millisecond)
	cancel()
	require.NoError(t, <-done)

	for topic := 0; topic < 7; topic++ {
		var want []string
		for i := topic; i < 200; i += 7 {
			want = append(want, fmt.Sprint(i))
		}
		assert.Equal(t, want, ing.Messages(fmt.Sprintf("TownPass/%d", topic)))
	}
	assert.Zero(t, listener.Stats().Reconnects)
}

func TestChatListenerStopsDuringBackoff(t *testing.T) {
	sub := &scriptedSubscriber{batches: [][]messaging.Message{{}, {}}}
	listener := NewChatListener(sub, &recordingIngester{}, ListenerConfig{ReconnectDelay: time.Hour})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- listener.Run(ctx) }()

	require.Eventually(t, func() bool {
		return listener.Stats().Reconnects == 1
	}, 5*time.Second, 5*time.Millisecond)
	cancel()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("listener stuck in backoff")
	}
	assert.Equal(t, 1, sub.Calls())
}

// lingeringSubscriber keeps the delivery callback after Listen returns, the
// way a broker client can fire one last callback during disconnect.
type lingeringSubscriber struct {
	mu     sync.Mutex
	handle func(messaging.Message)
}

func (s *lingeringSubscriber) Name() string { return "lingering" }

func (s *lingeringSubscriber) Listen(ctx context.Context, handle func(messaging.Message)) error {
	s.mu.Lock()
	s.handle = handle
	s.mu.Unlock()

	handle(msg("TownPass/a", "before"))
	<-ctx.Done()
	return ctx.Err()
}

func (s *lingeringSubscriber) deliver(m messaging.Message) {
	s.mu.Lock()
	handle := s.handle
	s.mu.Unlock()
	handle(m)
}

func TestChatListenerCountsDeliveriesAfterStop(t *testing.T) {
	sub := &lingeringSubscriber{}
	ing := &recordingIngester{}
	listener := NewChatListener(sub, ing, ListenerConfig{Workers: 2, QueueSize: 1, ReconnectDelay: time.Second})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- listener.Run(ctx) }()

	require.Eventually(t, func() bool {
		return listener.Stats().Stored == 1
	}, 5*time.Second, 5*time.Millisecond)
	cancel()
	require.NoError(t, <-done)

	assert.NotPanics(t, func() {
		sub.deliver(msg("TownPass/a", "after"))
		sub.deliver(msg("TownPass/b", "after"))
	})

	stats := listener.Stats()
	assert.EqualValues(t, 1, stats.Stored)
	assert.EqualValues(t, 2, stats.Dropped)
	assert.Equal(t, []string{"before"}, ing.Messages("TownPass/a"))
	assert.Empty(t, ing.Messages("TownPass/b"))
}

func TestChatListenerDrainsQueuedMessagesOnStop(t *testing.T) {
	var batch []messaging.Message
	for i := 0; i < 50; i++ {
		batch = append(batch, msg("TownPass/a", fmt.Sprint(i)))
	}
	sub := &scriptedSubscriber{batches: [][]messaging.Message{batch}}
	ing := &recordingIngester{}
	listener := NewChatListener(sub, ing, ListenerConfig{Workers: 1, QueueSize: 64, ReconnectDelay: time.Second})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- listener.Run(ctx) }()

	require.Eventually(t, func() bool { return sub.Calls() == 1 }, 5*time.Second, time.Millisecond)
	cancel()
	require.NoError(t, <-done)

	assert.EqualValues(t, 50, listener.Stats().Stored)
	assert.Len(t, ing.Messages("TownPass/a"), 50)
}

func TestShardForIsStable(t *testing.T) {
	for _, topic := range []string{"TownPass/a", "TownPass/b", "TownPass/" + uuid.NewString()} {
		first := shardFor(topic, 8)
		assert.GreaterOrEqual(t, first, 0)
		assert.Less(t, first, 8)
		assert.Equal(t, first, shardFor(topic, 8))
	}
	assert.Equal(t, 0, shardFor("anything", 1))
}
