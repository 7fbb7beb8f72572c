package notify

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"handicraft-store/internal/pkg/errs"
	"handicraft-store/internal/usecase/shared"

	"github.com/segmentio/kafka-go"
)

// Publisher delivers a claimed batch. The result has one slot per job; a nil
// slot means that job was delivered.
type Publisher interface {
	Publish(ctx context.Context, jobs []shared.NotificationJob) []error
	Close() error
}

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// writerBatchTimeout caps how long the writer waits to fill a batch; the
// library default of one second would stall every flush.
const writerBatchTimeout = 10 * time.Millisecond

// KafkaPublisher writes each job to <prefix>.<topic>, keyed so events for one
// order or account land on one partition in order. A batch goes out in a
// single WriteMessages call.
type KafkaPublisher struct {
	writer      messageWriter
	topicPrefix string
}

func NewKafkaPublisher(brokers []string, topicPrefix string) *KafkaPublisher {
	w := &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Balancer:               &kafka.Hash{},
		RequiredAcks:           kafka.RequireAll,
		AllowAutoTopicCreation: true,
		BatchTimeout:           writerBatchTimeout,
	}
	return &KafkaPublisher{writer: w, topicPrefix: topicPrefix}
}

func (p *KafkaPublisher) Publish(ctx context.Context, jobs []shared.NotificationJob) []error {
	results := make([]error, len(jobs))
	if len(jobs) == 0 {
		return results
	}
	msgs := make([]kafka.Message, len(jobs))
	for i, job := range jobs {
		msgs[i] = p.message(job)
	}

	err := p.writer.WriteMessages(ctx, msgs...)
	if err == nil {
		return results
	}
	var perMessage kafka.WriteErrors
	if errors.As(err, &perMessage) && len(perMessage) == len(jobs) {
		for i, werr := range perMessage {
			if werr != nil {
				results[i] = errs.Wrapf(werr, "publish %s to kafka", jobs[i].Kind)
			}
		}
		return results
	}
	for i, job := range jobs {
		results[i] = errs.Wrapf(err, "publish %s to kafka", job.Kind)
	}
	return results
}

func (p *KafkaPublisher) Close() error {
	return p.writer.Close()
}

func (p *KafkaPublisher) message(job shared.NotificationJob) kafka.Message {
	topic := job.Topic
	if p.topicPrefix != "" {
		topic = p.topicPrefix + "." + job.Topic
	}
	return kafka.Message{
		Topic: topic,
		Key:   []byte(job.Key),
		Value: job.Payload,
		Headers: []kafka.Header{
			{Key: "event_type", Value: []byte(job.Kind)},
			{Key: "event_id", Value: []byte(job.ID.String())},
		},
		Time: job.CreatedAt,
	}
}

// LogPublisher stands in for a broker in local runs.
type LogPublisher struct {
	logger *slog.Logger
}

func NewLogPublisher(logger *slog.Logger) *LogPublisher {
	return &LogPublisher{logger: logger}
}

func (p *LogPublisher) Publish(_ context.Context, jobs []shared.NotificationJob) []error {
	for _, job := range jobs {
		p.logger.Info("notification published",
			"id", job.ID,
			"kind", job.Kind,
			"topic", job.Topic,
			"key", job.Key,
			"payload", string(job.Payload),
		)
	}
	return make([]error, len(jobs))
}

func (p *LogPublisher) Close() error { return nil }
