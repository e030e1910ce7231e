package filljob

import (
	"context"

	"github.com/latticeforge/kernel/internal/infrastructure/messaging/kafka"
	"github.com/latticeforge/kernel/pkg/errors"
)

// kafkaEnqueuer publishes a Job onto the atomfill.jobs topic as a
// kafka.FillJobPayload wrapped in a kafka.EventEnvelope, the same envelope
// shape every event on the bus uses.
type kafkaEnqueuer struct {
	producer *kafka.Producer
	source   string
}

// NewKafkaEnqueuer returns an Enqueuer that publishes to producer. source
// identifies the publishing process (e.g. "kernelserver") in the envelope.
func NewKafkaEnqueuer(producer *kafka.Producer, source string) Enqueuer {
	return &kafkaEnqueuer{producer: producer, source: source}
}

func (e *kafkaEnqueuer) Enqueue(ctx context.Context, job *Job) error {
	payload := kafka.FillJobPayload{
		JobID:       job.ID,
		NetworkName: job.NetworkName,
		NodeID:      job.NodeID,
		RequestedAt: job.RequestedAt,
	}
	env, err := kafka.NewEventEnvelope("atomfill.job.requested", e.source, payload)
	if err != nil {
		return err
	}
	msg, err := env.ToMessage(kafka.TopicAtomFillJobs)
	if err != nil {
		return err
	}
	msg.Key = []byte(job.ID)
	if err := e.producer.Publish(ctx, msg); err != nil {
		return errors.Wrap(err, errors.CodeFillJobFailed, "failed to publish fill job")
	}
	return nil
}
