package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"saferoute-api/config"

	mqtt "github.com/eclipse/paho.mqtt.golang"
)

const (
	mqttQoS            = 1
	mqttConnectTimeout = 10 * time.Second
)

// MQTTPublisher announces verification requests on a broker topic so
// dispatch consoles can pick them up alongside email.
type MQTTPublisher struct {
	client mqtt.Client
	topic  string
}

// NewMQTTPublisher connects to the configured broker. The client reconnects
// on its own after the first successful connect.
func NewMQTTPublisher(cfg config.MQTTConfig, logger *slog.Logger) (*MQTTPublisher, error) {
	opts := mqtt.NewClientOptions()
	opts.AddBroker(cfg.URL)
	opts.SetClientID("saferoute-api-" + time.Now().Format("20060102150405"))
	opts.SetAutoReconnect(true)
	opts.SetConnectRetry(true)
	opts.SetConnectRetryInterval(2 * time.Second)
	opts.OnConnect = func(mqtt.Client) {
		logger.Info("mqtt connected", "broker", cfg.URL, "topic", cfg.Topic)
	}
	opts.OnConnectionLost = func(_ mqtt.Client, err error) {
		logger.Warn("mqtt connection lost", "error", err)
	}

	client := mqtt.NewClient(opts)
	if err := connectMQTT(client, cfg.URL, mqttConnectTimeout); err != nil {
		return nil, err
	}
	return newMQTTPublisher(client, cfg.Topic), nil
}

// connectMQTT waits for the first connect. On failure the client is
// disconnected so its retry loop stops.
func connectMQTT(client mqtt.Client, broker string, timeout time.Duration) error {
	token := client.Connect()
	if !token.WaitTimeout(timeout) {
		client.Disconnect(0)
		return fmt.Errorf("mqtt connect to %s timed out", broker)
	}
	if err := token.Error(); err != nil {
		client.Disconnect(0)
		return fmt.Errorf("mqtt connect: %w", err)
	}
	return nil
}

func newMQTTPublisher(client mqtt.Client, topic string) *MQTTPublisher {
	return &MQTTPublisher{client: client, topic: topic}
}

func (p *MQTTPublisher) Publish(ctx context.Context, notice VerificationNotice) error {
	payload, err := json.Marshal(notice)
	if err != nil {
		return fmt.Errorf("encode verification notice: %w", err)
	}

	token := p.client.Publish(p.topic, mqttQoS, false, payload)
	select {
	case <-token.Done():
		return token.Error()
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (p *MQTTPublisher) Close() {
	p.client.Disconnect(250)
}
