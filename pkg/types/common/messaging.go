package common

import "context"

// Message is a consumed broker message, decoupled from any one driver's
// wire representation (kafka-go's Message in this kernel's case).
type Message struct {
	Topic     string
	Partition int
	Offset    int64
	Key       []byte
	Value     []byte
	Timestamp Time
	Headers   map[string]string
}

// ProducerMessage is an outbound broker message.
type ProducerMessage struct {
	Topic     string
	Partition int
	Key       []byte
	Value     []byte
	Headers   map[string]string
	Timestamp Time
}

// MessageHandler processes one consumed Message. A non-nil error triggers
// the consumer's retry/dead-letter policy.
type MessageHandler func(ctx context.Context, msg *Message) error

// BatchItemError records one failed message within a PublishBatch call.
type BatchItemError struct {
	Index int
	Topic string
	Error error
}

// BatchPublishResult summarizes a PublishBatch call.
type BatchPublishResult struct {
	Succeeded int
	Failed    int
	Errors    []BatchItemError
}

// TopicConfig describes a topic to provision via TopicManager.EnsureTopics.
type TopicConfig struct {
	Name              string
	NumPartitions     int
	ReplicationFactor int
	RetentionMs       int64
	CleanupPolicy     string
	MaxMessageBytes   int
	Configs           map[string]string
}
