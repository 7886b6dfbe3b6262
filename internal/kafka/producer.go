package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/Dhoini/coach-billing/internal/domain"
	"github.com/Dhoini/coach-billing/pkg/logger"
	"github.com/segmentio/kafka-go"
)

// TopicSubscriptionEvents топик событий жизненного цикла подписок по умолчанию
const TopicSubscriptionEvents = "subscription_events"

// HeaderEventKind заголовок сообщения с типом события
const HeaderEventKind = "event_kind"

// Producer определяет интерфейс для публикации событий подписок.
type Producer interface {
	// PublishSubscriptionEvent отправляет событие. Ключ сообщения UserID,
	// поэтому события одного тренера попадают в одну партицию.
	PublishSubscriptionEvent(ctx context.Context, event *domain.SubscriptionEvent) error
	Close() error
}

// EncodeEvent возвращает ключ и тело сообщения для события.
func EncodeEvent(event *domain.SubscriptionEvent) (key, value []byte, err error) {
	value, err = json.Marshal(event)
	if err != nil {
		return nil, nil, fmt.Errorf("kafka: failed to marshal message data: %w", err)
	}
	return []byte(event.UserID), value, nil
}

// kafkaProducer реализует интерфейс Producer, используя segmentio/kafka-go.
type kafkaProducer struct {
	writer *kafka.Writer
	topic  string
	log    *logger.Logger
}

// NewKafkaProducer создает и настраивает новый продюсер Kafka.
func NewKafkaProducer(cfg *Config, log *logger.Logger) (Producer, error) {
	if len(cfg.Brokers) == 0 {
		return nil, errors.New("kafka brokers are not configured")
	}

	writer := &kafka.Writer{
		Addr:         kafka.TCP(cfg.Brokers...),
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireOne,
		BatchSize:    100,
		BatchTimeout: 10 * time.Millisecond,
		WriteTimeout: 10 * time.Second,
		ReadTimeout:  10 * time.Second,
	}

	log.Infow("Kafka producer initialized", "brokers", cfg.Brokers, "topic", cfg.Topic, "driver", DriverKafkaGo)
	return &kafkaProducer{
		writer: writer,
		topic:  cfg.Topic,
		log:    log,
	}, nil
}

// PublishSubscriptionEvent отправляет событие в топик
func (k *kafkaProducer) PublishSubscriptionEvent(ctx context.Context, event *domain.SubscriptionEvent) error {
	key, value, err := EncodeEvent(event)
	if err != nil {
		return err
	}

	message := kafka.Message{
		Topic: k.topic,
		Key:   key,
		Value: value,
		Headers: []kafka.Header{
			{Key: HeaderEventKind, Value: []byte(event.Kind)},
		},
		Time: event.OccurredAt,
	}

	writeCtx, cancel := context.WithTimeout(ctx, 15*time.Second)
	defer cancel()

	if err := k.writer.WriteMessages(writeCtx, message); err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return fmt.Errorf("kafka: write timeout: %w", err)
		}
		return fmt.Errorf("kafka: failed to write message: %w", err)
	}

	k.log.Debugw("Published subscription event", "topic", k.topic, "kind", event.Kind, "userID", event.UserID)
	return nil
}

// Close закрывает соединение Kafka Writer.
func (k *kafkaProducer) Close() error {
	if err := k.writer.Close(); err != nil {
		return fmt.Errorf("kafka: failed to close writer: %w", err)
	}
	k.log.Infow("Kafka producer writer closed")
	return nil
}

// NoopProducer продюсер-заглушка, когда Kafka отключена.
type NoopProducer struct{}

func (NoopProducer) PublishSubscriptionEvent(context.Context, *domain.SubscriptionEvent) error {
	return nil
}

func (NoopProducer) Close() error { return nil }
