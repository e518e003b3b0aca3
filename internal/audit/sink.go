package audit

import (
	"context"
	"encoding/json"
	"io"
	"sync"
)

// Sink receives mirrored audit documents from the dispatcher.
type Sink interface {
	Emit(ctx context.Context, doc Document)
}

// NoOpSink drops every document.
type NoOpSink struct{}

func (NoOpSink) Emit(context.Context, Document) {}

// ChannelSink forwards documents into a buffered channel.
type ChannelSink struct {
	docs chan Document
}

func NewChannelSink(buffer int) *ChannelSink {
	if buffer <= 0 {
		buffer = 1
	}
	return &ChannelSink{
		docs: make(chan Document, buffer),
	}
}

func (s *ChannelSink) Emit(ctx context.Context, doc Document) {
	select {
	case s.docs <- doc:
	case <-ctx.Done():
	}
}

func (s *ChannelSink) Documents() <-chan Document {
	return s.docs
}

// JSONWriterSink writes one JSON object per line.
type JSONWriterSink struct {
	writer io.Writer
	mu     sync.Mutex
}

func NewJSONWriterSink(w io.Writer) *JSONWriterSink {
	return &JSONWriterSink{
		writer: w,
	}
}

func (s *JSONWriterSink) Emit(ctx context.Context, doc Document) {
	if s == nil || s.writer == nil {
		return
	}
	data, err := json.Marshal(doc)
	if err != nil {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	_, _ = s.writer.Write(data)
	_, _ = s.writer.Write([]byte("\n"))
}
