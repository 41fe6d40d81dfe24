package kafka

import (
	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

var ErrDrained = errDrained

// NewFakeConsumer returns a consumer over an in-memory reader and a func
// reporting the committed offsets.
func NewFakeConsumer(messages []kafka.Message, logger *zap.Logger) (*Consumer, func() []int64) {
	reader := &fakeReader{messages: messages}
	return &Consumer{reader: reader, logger: logger}, func() []int64 { return reader.committed }
}
