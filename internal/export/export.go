// Package export streams normalized Brightpearl records to a sink.
package export

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"iter"
	"sync"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/fivetwenty-io/brightpearl/internal/constants"
	"github.com/fivetwenty-io/brightpearl/pkg/brightpearl"
)

// Sink receives exported records.
type Sink interface {
	Write(ctx context.Context, record brightpearl.Record) error
	Close() error
}

// Export writes every record of seq to sink and returns how many were
// written. It stops at the first sequence, sink or context error.
func Export(ctx context.Context, seq iter.Seq2[brightpearl.Record, error], sink Sink) (int, error) {
	written := 0

	for record, err := range seq {
		if err != nil {
			return written, fmt.Errorf("reading records: %w", err)
		}

		if ctx.Err() != nil {
			return written, fmt.Errorf("export interrupted: %w", ctx.Err())
		}

		err = sink.Write(ctx, record)
		if err != nil {
			return written, fmt.Errorf("writing record %d: %w", written+1, err)
		}

		written++
	}

	return written, nil
}

// JSONLinesSink writes one JSON object per line.
type JSONLinesSink struct {
	mu      sync.Mutex
	encoder *json.Encoder
	closer  io.Closer
}

// NewJSONLinesSink writes to w. If w is an io.Closer it is closed by Close.
func NewJSONLinesSink(w io.Writer) *JSONLinesSink {
	sink := &JSONLinesSink{encoder: json.NewEncoder(w)}
	if closer, ok := w.(io.Closer); ok {
		sink.closer = closer
	}

	return sink
}

// Write implements Sink.
func (s *JSONLinesSink) Write(_ context.Context, record brightpearl.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	err := s.encoder.Encode(record)
	if err != nil {
		return fmt.Errorf("encoding record: %w", err)
	}

	return nil
}

// Close implements Sink.
func (s *JSONLinesSink) Close() error {
	if s.closer == nil {
		return nil
	}

	return s.closer.Close()
}

// Publisher is the part of *nats.Conn used by NATSSink.
type Publisher interface {
	Publish(subject string, data []byte) error
	FlushTimeout(timeout time.Duration) error
}

// NATSSink publishes each record as a JSON message on a fixed subject.
type NATSSink struct {
	publisher Publisher
	subject   string
	closeConn func()
}

// NewNATSSink publishes on subject through publisher.
func NewNATSSink(publisher Publisher, subject string) (*NATSSink, error) {
	if subject == "" {
		return nil, constants.ErrNATSSubjectRequired
	}

	return &NATSSink{publisher: publisher, subject: subject}, nil
}

// DialNATS connects to url and returns a sink that owns the connection.
func DialNATS(url, subject string, opts ...nats.Option) (*NATSSink, error) {
	if subject == "" {
		return nil, constants.ErrNATSSubjectRequired
	}

	opts = append([]nats.Option{nats.Name("brightpearl-export")}, opts...)

	conn, err := nats.Connect(url, opts...)
	if err != nil {
		return nil, fmt.Errorf("connecting to NATS at %s: %w", url, err)
	}

	return &NATSSink{publisher: conn, subject: subject, closeConn: conn.Close}, nil
}

// Write implements Sink.
func (s *NATSSink) Write(_ context.Context, record brightpearl.Record) error {
	data, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("encoding record: %w", err)
	}

	err = s.publisher.Publish(s.subject, data)
	if err != nil {
		return fmt.Errorf("publishing to %s: %w", s.subject, err)
	}

	return nil
}

// Close flushes pending messages and closes an owned connection.
func (s *NATSSink) Close() error {
	err := s.publisher.FlushTimeout(constants.NATSFlushTimeout)

	if s.closeConn != nil {
		s.closeConn()
	}

	if err != nil {
		return fmt.Errorf("flushing NATS messages: %w", err)
	}

	return nil
}
