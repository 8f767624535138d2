package sink

import (
	"context"
	"encoding/json"

	"github.com/pkg/errors"
	"github.com/segmentio/kafka-go"
	"gitlab.com/resynctech/resync-cloud/fleetsim/config"
	"gitlab.com/resynctech/resync-cloud/fleetsim/shared"
)

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Kafka keys messages by device id so one device's readings stay ordered
// on a single partition.
type Kafka struct {
	writer messageWriter
}

func NewKafka(cfg config.KafkaConfig) *Kafka {
	return &Kafka{writer: &kafka.Writer{
		Addr:         kafka.TCP(cfg.Brokers...),
		Topic:        cfg.Topic,
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireAll,
	}}
}

func (k *Kafka) Name() string {
	return "kafka"
}

func (k *Kafka) Send(ctx context.Context, r shared.Reading) error {
	msg, err := message(r)
	if err != nil {
		return err
	}
	return errors.Wrap(k.writer.WriteMessages(ctx, msg), "write message")
}

func (k *Kafka) Close() error {
	return k.writer.Close()
}

func message(r shared.Reading) (kafka.Message, error) {
	value, err := json.Marshal(r)
	if err != nil {
		return kafka.Message{}, errors.Wrap(err, "marshal reading")
	}
	msg := kafka.Message{
		Key:   []byte(r.DeviceID),
		Value: value,
		Headers: []kafka.Header{
			{Key: "sensor_type", Value: []byte(r.SensorType)},
			{Key: "fault", Value: []byte(r.Fault)},
		},
	}
	if ts, err := r.Time(); err == nil {
		msg.Time = ts
	}
	return msg, nil
}
