package producer

import (
	"context"
	"fmt"

	"github.com/Dhoini/coach-billing/internal/domain"
	"github.com/Dhoini/coach-billing/internal/kafka"
	"github.com/Dhoini/coach-billing/pkg/logger"
	"github.com/IBM/sarama"
)

type saramaSubscriptionProducer struct {
	producer sarama.SyncProducer
	topic    string
	log      *logger.Logger
}

var _ kafka.Producer = (*saramaSubscriptionProducer)(nil)

// NewSaramaProducer подключается к брокерам и создает продюсер на sarama
func NewSaramaProducer(cfg *kafka.Config, log *logger.Logger) (kafka.Producer, error) {
	syncProducer, err := sarama.NewSyncProducer(cfg.Brokers, kafka.NewSaramaConfig(cfg))
	if err != nil {
		return nil, fmt.Errorf("failed to create sarama producer: %w", err)
	}
	log.Infow("Kafka producer initialized", "brokers", cfg.Brokers, "topic", cfg.Topic, "driver", kafka.DriverSarama)
	return NewSubscriptionProducer(syncProducer, cfg.Topic, log), nil
}

// NewSubscriptionProducer создает новый продюсер событий подписок
func NewSubscriptionProducer(producer sarama.SyncProducer, topic string, log *logger.Logger) kafka.Producer {
	return &saramaSubscriptionProducer{
		producer: producer,
		topic:    topic,
		log:      log,
	}
}

// PublishSubscriptionEvent публикует событие подписки в Kafka
func (p *saramaSubscriptionProducer) PublishSubscriptionEvent(_ context.Context, event *domain.SubscriptionEvent) error {
	key, value, err := kafka.EncodeEvent(event)
	if err != nil {
		return err
	}

	message := &sarama.ProducerMessage{
		Topic: p.topic,
		Key:   sarama.ByteEncoder(key),
		Value: sarama.ByteEncoder(value),
		Headers: []sarama.RecordHeader{
			{
				Key:   []byte(kafka.HeaderEventKind),
				Value: []byte(event.Kind),
			},
		},
		Timestamp: event.OccurredAt,
	}

	partition, offset, err := p.producer.SendMessage(message)
	if err != nil {
		return fmt.Errorf("failed to publish subscription event: %w", err)
	}

	p.log.Debugw("Published subscription event",
		"topic", p.topic, "kind", event.Kind, "partition", partition, "offset", offset)
	return nil
}

// Close закрывает продюсер
func (p *saramaSubscriptionProducer) Close() error {
	return p.producer.Close()
}
