package messaging

import (
	"context"
	"net/url"

	"sports-meetup/internal/config"

	"github.com/go-redis/redis/v8"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

// RedisSubscriber consumes chat messages published on Redis channels named
// like MQTT topics, via PSUBSCRIBE "<namespace>/*".
type RedisSubscriber struct {
	cfg  config.BrokerConfig
	opts *redis.Options
}

func NewRedisSubscriber(cfg config.BrokerConfig) (*RedisSubscriber, error) {
	opts, err := redis.ParseURL(cfg.URL)
	if err != nil {
		return nil, errors.Wrapf(err, "invalid redis url %q", redactURL(cfg.URL))
	}
	if cfg.Password != "" {
		opts.Password = cfg.Password
	}
	return &RedisSubscriber{cfg: cfg, opts: opts}, nil
}

func (s *RedisSubscriber) Name() string {
	return "redis"
}

// Pattern is the PSUBSCRIBE glob covering every channel topic
func (s *RedisSubscriber) Pattern() string {
	return s.cfg.Namespace + "/*"
}

func (s *RedisSubscriber) Listen(ctx context.Context, handle func(Message)) error {
	client := redis.NewClient(s.opts)
	defer client.Close()

	pubsub := client.PSubscribe(ctx, s.Pattern())
	defer pubsub.Close()

	// Receive blocks until the subscription is confirmed or fails
	if _, err := pubsub.Receive(ctx); err != nil {
		return errors.Wrap(err, "redis psubscribe")
	}

	log.Info().Str("pattern", s.Pattern()).Msg("Subscribed to chat topics")

	ch := pubsub.Channel()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case msg, ok := <-ch:
			if !ok {
				return ErrConnectionLost
			}
			handle(Message{Topic: msg.Channel, Payload: []byte(msg.Payload)})
		}
	}
}

func redactURL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return "<invalid>"
	}
	return u.Redacted()
}
