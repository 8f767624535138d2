package sink

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"gitlab.com/resynctech/resync-cloud/fleetsim/config"
	"gitlab.com/resynctech/resync-cloud/fleetsim/shared"
)

const DefaultMQTTTopic = "fleet/{device_id}/readings"

// publisher is the part of mqtt.Client the sink needs.
type publisher interface {
	Publish(topic string, qos byte, retained bool, payload interface{}) mqtt.Token
	Disconnect(quiesce uint)
}

// MQTT publishes each reading with QoS 1 to a per-device topic.
type MQTT struct {
	client  publisher
	topic   string
	timeout time.Duration
}

func ConnectMQTT(cfg config.MQTTConfig, timeout time.Duration, log logrus.FieldLogger) (*MQTT, error) {
	// suffix keeps two simulators on one broker from kicking each other off
	clientID := cfg.ClientID + "-" + uuid.NewString()[:8]

	opts := mqtt.NewClientOptions()
	opts.AddBroker(cfg.Broker)
	opts.SetClientID(clientID)
	opts.SetUsername(cfg.Username)
	opts.SetPassword(cfg.Password)
	opts.SetAutoReconnect(true)
	opts.SetKeepAlive(60 * time.Second)
	opts.SetPingTimeout(10 * time.Second)
	opts.SetOnConnectHandler(func(mqtt.Client) {
		log.WithField("broker", cfg.Broker).Info("mqtt connected")
	})
	opts.SetConnectionLostHandler(func(_ mqtt.Client, err error) {
		log.WithError(err).Warn("mqtt connection lost")
	})

	client := mqtt.NewClient(opts)
	if token := client.Connect(); token.Wait() && token.Error() != nil {
		return nil, errors.Wrap(token.Error(), "connect mqtt broker")
	}
	return newMQTT(client, cfg.Topic, timeout), nil
}

func newMQTT(client publisher, topic string, timeout time.Duration) *MQTT {
	if topic == "" {
		topic = DefaultMQTTTopic
	}
	return &MQTT{client: client, topic: topic, timeout: timeout}
}

func (m *MQTT) Name() string {
	return "mqtt"
}

func (m *MQTT) Send(ctx context.Context, r shared.Reading) error {
	payload, err := json.Marshal(r)
	if err != nil {
		return errors.Wrap(err, "marshal reading")
	}

	token := m.client.Publish(formatTopic(m.topic, r.DeviceID), 1, false, payload)

	wait := m.timeout
	if deadline, ok := ctx.Deadline(); ok {
		if d := time.Until(deadline); d < wait {
			wait = d
		}
	}
	if !token.WaitTimeout(wait) {
		return errors.Errorf("publish timed out after %s", wait)
	}
	return errors.Wrap(token.Error(), "publish reading")
}

func (m *MQTT) Close() error {
	m.client.Disconnect(250)
	return nil
}

// formatTopic replaces the {device_id} placeholder.
func formatTopic(pattern, deviceID string) string {
	return strings.ReplaceAll(pattern, "{device_id}", deviceID)
}
