package sink

import (
	"errors"
	"fmt"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/rs/zerolog/log"

	"github.com/gstoney/mcpot"
)

const DefaultMQTTTopic = "mcpot/logins"

var ErrPublishTimeout = errors.New("publish timed out")

type MQTTOptions struct {
	Broker   string // e.g. tcp://localhost:1883
	Topic    string
	ClientID string
}

// MQTT publishes each event as a JSON message with QoS 1.
type MQTT struct {
	client  mqtt.Client
	topic   string
	timeout time.Duration
}

func NewMQTT(opts MQTTOptions) (*MQTT, error) {
	if opts.Broker == "" {
		return nil, fmt.Errorf("mqtt: %w", ErrNoEndpoint)
	}

	co := mqtt.NewClientOptions()
	co.AddBroker(opts.Broker)
	if opts.ClientID != "" {
		co.SetClientID(opts.ClientID)
	} else {
		co.SetClientID("mcpot")
	}
	co.SetAutoReconnect(true)
	co.SetMaxReconnectInterval(30 * time.Second)
	co.SetKeepAlive(60 * time.Second)
	co.SetConnectTimeout(5 * time.Second)

	co.SetOnConnectHandler(func(client mqtt.Client) {
		log.Info().Str("broker", opts.Broker).Msg("MQTT connected")
	})
	co.SetConnectionLostHandler(func(client mqtt.Client, err error) {
		log.Warn().Err(err).Msg("MQTT connection lost")
	})

	client := mqtt.NewClient(co)
	token := client.Connect()
	if token.Wait() && token.Error() != nil {
		return nil, fmt.Errorf("MQTT connect failed: %w", token.Error())
	}

	return newMQTT(client, opts.Topic), nil
}

func newMQTT(client mqtt.Client, topic string) *MQTT {
	if topic == "" {
		topic = DefaultMQTTTopic
	}
	return &MQTT{client: client, topic: topic, timeout: 5 * time.Second}
}

func (s *MQTT) Write(ev mcpot.LoginEvent) error {
	data, err := json.Marshal(ev)
	if err != nil {
		return err
	}

	token := s.client.Publish(s.topic, 1, false, data)
	if !token.WaitTimeout(s.timeout) {
		return ErrPublishTimeout
	}
	return token.Error()
}

func (s *MQTT) Name() string {
	return FormatMQTT
}

func (s *MQTT) Close() error {
	s.client.Disconnect(250)
	return nil
}
