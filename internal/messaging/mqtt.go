package messaging

import (
	"context"
	"time"

	"sports-meetup/internal/config"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

const mqttTimeout = 10 * time.Second

// MQTTSubscriber consumes "<namespace>/#" from an MQTT broker
type MQTTSubscriber struct {
	cfg config.BrokerConfig
}

func NewMQTTSubscriber(cfg config.BrokerConfig) *MQTTSubscriber {
	return &MQTTSubscriber{cfg: cfg}
}

func (s *MQTTSubscriber) Name() string {
	return "mqtt"
}

// Filter is the MQTT topic filter covering every channel
func (s *MQTTSubscriber) Filter() string {
	return s.cfg.Namespace + "/#"
}

// Listen connects, subscribes with QoS 1 and hands every message to handle
func (s *MQTTSubscriber) Listen(ctx context.Context, handle func(Message)) error {
	lost := make(chan error, 1)

	opts := mqtt.NewClientOptions().
		AddBroker(s.cfg.URL).
		SetClientID(s.cfg.ClientID).
		SetUsername(s.cfg.Username).
		SetPassword(s.cfg.Password).
		SetAutoReconnect(false).
		SetConnectRetry(false).
		SetOrderMatters(true).
		SetConnectTimeout(mqttTimeout).
		SetConnectionLostHandler(func(_ mqtt.Client, err error) {
			select {
			case lost <- err:
			default:
			}
		})

	client := mqtt.NewClient(opts)
	if err := wait(client.Connect()); err != nil {
		return errors.Wrap(err, "mqtt connect")
	}
	defer client.Disconnect(250)

	topic := s.Filter()
	token := client.Subscribe(topic, 1, func(_ mqtt.Client, m mqtt.Message) {
		handle(Message{Topic: m.Topic(), Payload: m.Payload()})
	})
	if err := wait(token); err != nil {
		return errors.Wrapf(err, "mqtt subscribe %s", topic)
	}

	log.Info().Str("broker", s.cfg.URL).Str("topic", topic).Msg("Subscribed to chat topics")

	select {
	case <-ctx.Done():
		return ctx.Err()
	case err := <-lost:
		return errors.Wrap(ErrConnectionLost, err.Error())
	}
}

func wait(token mqtt.Token) error {
	if !token.WaitTimeout(mqttTimeout) {
		return errors.New("timed out")
	}
	return token.Error()
}
