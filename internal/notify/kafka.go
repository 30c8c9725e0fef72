// Copyright 2026 The wallettrust Authors
//
// Licensed under the GNU Lesser General Public License, version 3 or
// (at your option) any later version. See LICENSE for details.

package notify

import (
	"context"
	"encoding/json"

	"github.com/Shopify/sarama"
	"github.com/pkg/errors"
)

// KafkaPublisher is the optional secondary ScoreChanged event-stream
// path: an additive publish alongside synchronous webhook delivery,
// never a replacement for it.
type KafkaPublisher struct {
	producer sarama.SyncProducer
	topic    string
}

// NewKafkaPublisher dials brokers and returns a Publisher bound to
// topic. Callers that don't configure KAFKA_BROKERS simply never
// construct one, and the Dispatcher runs with publisher == nil.
func NewKafkaPublisher(brokers []string, topic string) (*KafkaPublisher, error) {
	cfg := sarama.NewConfig()
	cfg.Producer.Return.Successes = true
	cfg.Producer.RequiredAcks = sarama.WaitForLocal
	cfg.Producer.Retry.Max = 3

	producer, err := sarama.NewSyncProducer(brokers, cfg)
	if err != nil {
		return nil, errors.Wrap(err, "dialing kafka brokers")
	}
	return &KafkaPublisher{producer: producer, topic: topic}, nil
}

// Publish implements Publisher.
func (k *KafkaPublisher) Publish(ctx context.Context, payload Payload) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return errors.Wrap(err, "encoding score-changed event")
	}

	msg := &sarama.ProducerMessage{
		Topic: k.topic,
		Key:   sarama.StringEncoder(payload.Address),
		Value: sarama.ByteEncoder(body),
	}
	_, _, err = k.producer.SendMessage(msg)
	return errors.Wrap(err, "publishing score-changed event")
}

// Close releases the underlying producer's connections.
func (k *KafkaPublisher) Close() error {
	return k.producer.Close()
}
