package messaging

import (
	"context"
	"strings"

	"sports-meetup/internal/config"

	"github.com/pkg/errors"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/rs/zerolog/log"
)

// AMQPSubscriber consumes chat messages from a topic exchange. Routing keys use
// dots where MQTT topics use slashes, the mapping RabbitMQ's MQTT plugin applies
// on amq.topic.
type AMQPSubscriber struct {
	cfg config.BrokerConfig
}

func NewAMQPSubscriber(cfg config.BrokerConfig) *AMQPSubscriber {
	return &AMQPSubscriber{cfg: cfg}
}

func (s *AMQPSubscriber) Name() string {
	return "amqp"
}

// BindingKey is the routing pattern covering every channel
func (s *AMQPSubscriber) BindingKey() string {
	return s.cfg.Namespace + ".#"
}

func (s *AMQPSubscriber) Listen(ctx context.Context, handle func(Message)) error {
	conn, err := amqp.Dial(s.cfg.URL)
	if err != nil {
		return errors.Wrap(err, "dial rabbitmq")
	}
	defer conn.Close()

	ch, err := conn.Channel()
	if err != nil {
		return errors.Wrap(err, "open channel")
	}
	defer ch.Close()

	if err := ch.ExchangeDeclare(s.cfg.Exchange, "topic", true, false, false, false, nil); err != nil {
		return errors.Wrap(err, "declare exchange")
	}
	q, err := ch.QueueDeclare(s.cfg.Queue, true, false, false, false, nil)
	if err != nil {
		return errors.Wrap(err, "declare queue")
	}
	if err := ch.QueueBind(q.Name, s.BindingKey(), s.cfg.Exchange, false, nil); err != nil {
		return errors.Wrapf(err, "bind %s", s.BindingKey())
	}

	deliveries, err := ch.ConsumeWithContext(ctx, q.Name, s.cfg.ClientID, true, false, false, false, nil)
	if err != nil {
		return errors.Wrap(err, "consume")
	}

	closed := conn.NotifyClose(make(chan *amqp.Error, 1))

	log.Info().Str("exchange", s.cfg.Exchange).Str("binding", s.BindingKey()).Msg("Subscribed to chat topics")

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case amqpErr := <-closed:
			if amqpErr != nil {
				return errors.Wrap(ErrConnectionLost, amqpErr.Error())
			}
			return ErrConnectionLost
		case d, ok := <-deliveries:
			if !ok {
				return ErrConnectionLost
			}
			handle(Message{Topic: RoutingKeyToTopic(d.RoutingKey), Payload: d.Body})
		}
	}
}

// RoutingKeyToTopic turns "TownPass.<id>" into "TownPass/<id>"
func RoutingKeyToTopic(key string) string {
	return strings.ReplaceAll(key, ".", "/")
}

// TopicToRoutingKey turns "TownPass/<id>" into "TownPass.<id>"
func TopicToRoutingKey(topic string) string {
	return strings.ReplaceAll(topic, "/", ".")
}
