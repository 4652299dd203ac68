package messaging

import (
	"context"

	"sports-meetup/internal/config"

	"github.com/pkg/errors"
)

// Message is one delivery from the bus, with the topic normalised to
// slash-separated MQTT form.
type Message struct {
	Topic   string
	Payload []byte
}

// Subscriber connects to a broker and delivers every message matching the
// namespace wildcard. Listen blocks until ctx is done or the connection fails;
// each call dials a fresh connection.
type Subscriber interface {
	Listen(ctx context.Context, handle func(Message)) error
	Name() string
}

// ErrConnectionLost is returned by Listen when the broker drops the connection
var ErrConnectionLost = errors.New("broker connection lost")

// NewSubscriber builds the subscriber selected by cfg.Kind
func NewSubscriber(cfg config.BrokerConfig) (Subscriber, error) {
	switch cfg.Kind {
	case "mqtt":
		return NewMQTTSubscriber(cfg), nil
	case "redis":
		return NewRedisSubscriber(cfg)
	case "amqp":
		return NewAMQPSubscriber(cfg), nil
	default:
		return nil, errors.Errorf("unsupported broker kind %q", cfg.Kind)
	}
}
