package kafka

import "github.com/latticeforge/kernel/pkg/types/common"

// Aliases so callers and tests in this package can use the bare names while
// the wire types themselves stay defined once in pkg/types/common, shared
// with any other transport that needs them.
type (
	Message            = common.Message
	ProducerMessage    = common.ProducerMessage
	MessageHandler     = common.MessageHandler
	BatchItemError     = common.BatchItemError
	BatchPublishResult = common.BatchPublishResult
	TopicConfig        = common.TopicConfig
)
