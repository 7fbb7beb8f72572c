//go:build unit

package notify

import (
	"context"
	"errors"
	"testing"
	"time"

	"handicraft-store/internal/usecase/shared"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeWriter struct {
	msgs  []kafka.Message
	err   error
	calls int
}

func (w *fakeWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	w.calls++
	if w.err != nil {
		return w.err
	}
	w.msgs = append(w.msgs, msgs...)
	return nil
}

func (w *fakeWriter) Close() error { return nil }

func TestKafkaPublisher_Publish(t *testing.T) {
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	job, err := shared.NewNotificationJob(shared.NotificationOrderPlaced, "order-42", map[string]string{"order_id": "order-42"}, now)
	require.NoError(t, err)

	tests := []struct {
		name      string
		prefix    string
		wantTopic string
	}{
		{name: "with prefix", prefix: "handicraft", wantTopic: "handicraft.orders"},
		{name: "without prefix", prefix: "", wantTopic: "orders"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := &fakeWriter{}
			p := &KafkaPublisher{writer: w, topicPrefix: tt.prefix}

			assert.Equal(t, []error{nil}, p.Publish(context.Background(), []shared.NotificationJob{job}))
			require.Len(t, w.msgs, 1)
			msg := w.msgs[0]
			assert.Equal(t, tt.wantTopic, msg.Topic)
			assert.Equal(t, []byte("order-42"), msg.Key)
			assert.JSONEq(t, `{"order_id":"order-42"}`, string(msg.Value))
			assert.Equal(t, now, msg.Time)
			require.Len(t, msg.Headers, 2)
			assert.Equal(t, "event_type", msg.Headers[0].Key)
			assert.Equal(t, "order_placed", string(msg.Headers[0].Value))
			assert.Equal(t, job.ID.String(), string(msg.Headers[1].Value))
		})
	}
}

func TestKafkaPublisher_PublishError(t *testing.T) {
	job, err := shared.NewNotificationJob(shared.NotificationOrderPlaced, "k", struct{}{}, time.Now())
	require.NoError(t, err)
	p := &KafkaPublisher{writer: &fakeWriter{err: errors.New("leader not available")}}

	results := p.Publish(context.Background(), []shared.NotificationJob{job, job})
	require.Len(t, results, 2)
	for _, err := range results {
		require.Error(t, err)
		assert.Contains(t, err.Error(), "leader not available")
	}
}

func TestKafkaPublisher_BatchIsOneWrite(t *testing.T) {
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	var jobs []shared.NotificationJob
	for _, key := range []string{"order-1", "order-2", "order-3"} {
		job, err := shared.NewNotificationJob(shared.NotificationOrderPlaced, key, map[string]string{}, now)
		require.NoError(t, err)
		jobs = append(jobs, job)
	}
	w := &fakeWriter{}
	p := &KafkaPublisher{writer: w, topicPrefix: "handicraft"}

	results := p.Publish(context.Background(), jobs)

	assert.Equal(t, []error{nil, nil, nil}, results)
	assert.Equal(t, 1, w.calls)
	require.Len(t, w.msgs, 3)
	assert.Equal(t, []byte("order-3"), w.msgs[2].Key)
}

func TestKafkaPublisher_PerMessageErrors(t *testing.T) {
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	a, err := shared.NewNotificationJob(shared.NotificationOrderPlaced, "a", map[string]string{}, now)
	require.NoError(t, err)
	b, err := shared.NewNotificationJob(shared.NotificationPointsAwarded, "b", map[string]string{}, now)
	require.NoError(t, err)
	w := &fakeWriter{err: kafka.WriteErrors{nil, errors.New("message too large")}}
	p := &KafkaPublisher{writer: w}

	results := p.Publish(context.Background(), []shared.NotificationJob{a, b})

	require.Len(t, results, 2)
	assert.NoError(t, results[0])
	require.Error(t, results[1])
	assert.Contains(t, results[1].Error(), "message too large")
}

func TestNewKafkaPublisher_ShortBatchTimeout(t *testing.T) {
	p := NewKafkaPublisher([]string{"localhost:9092"}, "handicraft")
	w, ok := p.writer.(*kafka.Writer)
	require.True(t, ok)
	assert.Equal(t, writerBatchTimeout, w.BatchTimeout)
	assert.NoError(t, p.Close())
}

func TestOutboxPoller_RetryDelayIsCapped(t *testing.T) {
	p := &OutboxPoller{interval: time.Second}

	assert.Equal(t, time.Second, p.retryDelay(0))
	assert.Equal(t, 4*time.Second, p.retryDelay(2))
	assert.Equal(t, maxRetryDelay, p.retryDelay(30))
}
