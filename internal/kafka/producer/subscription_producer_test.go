package producer

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/Dhoini/coach-billing/internal/domain"
	"github.com/Dhoini/coach-billing/internal/kafka"
	"github.com/Dhoini/coach-billing/pkg/logger"
	"github.com/IBM/sarama"
	"github.com/IBM/sarama/mocks"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testEvent() *domain.SubscriptionEvent {
	return &domain.SubscriptionEvent{
		Kind:       domain.SubscriptionEventCanceled,
		UserID:     "user-9",
		Status:     domain.SubscriptionStatusCanceled,
		OccurredAt: time.Now().UTC(),
	}
}

func TestPublishSubscriptionEvent(t *testing.T) {
	cfg := kafka.NewSaramaConfig(kafka.NewConfig([]string{"localhost:9092"}, "events"))
	mock := mocks.NewSyncProducer(t, cfg)
	mock.ExpectSendMessageWithMessageCheckerFunctionAndSucceed(func(msg *sarama.ProducerMessage) error {
		if msg.Topic != "events" {
			return errors.New("unexpected topic " + msg.Topic)
		}
		key, err := msg.Key.Encode()
		if err != nil {
			return err
		}
		if string(key) != "user-9" {
			return errors.New("unexpected key " + string(key))
		}
		return nil
	})

	p := NewSubscriptionProducer(mock, "events", logger.NewNop())
	require.NoError(t, p.PublishSubscriptionEvent(context.Background(), testEvent()))
	require.NoError(t, p.Close())
}

func TestPublishSubscriptionEventFailure(t *testing.T) {
	mock := mocks.NewSyncProducer(t, nil)
	mock.ExpectSendMessageAndFail(sarama.ErrOutOfBrokers)

	p := NewSubscriptionProducer(mock, "events", logger.NewNop())
	err := p.PublishSubscriptionEvent(context.Background(), testEvent())
	assert.ErrorIs(t, err, sarama.ErrOutOfBrokers)
	require.NoError(t, p.Close())
}
