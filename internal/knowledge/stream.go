package knowledge

import (
	"context"
	"errors"
	"io"

	"github.com/cloudwego/eino/schema"
)

// Stream delivers incremental answer text.
//
// Deltas is closed when the provider finishes or fails. Err reports the
// terminal error and is valid once Deltas is closed; nil means the answer
// completed normally.
type Stream struct {
	deltas chan string
	err    error
}

// newStream pumps reader into a channel until EOF, error or cancellation.
// onDone runs once with the terminal error before Deltas is closed.
func newStream(ctx context.Context, reader *schema.StreamReader[*schema.Message], onDone func(error)) *Stream {
	s := &Stream{deltas: make(chan string)}
	go func() {
		defer close(s.deltas)
		defer reader.Close()

		s.err = s.pump(ctx, reader)
		if onDone != nil {
			onDone(s.err)
		}
	}()
	return s
}

func (s *Stream) pump(ctx context.Context, reader *schema.StreamReader[*schema.Message]) error {
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		msg, err := reader.Recv()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return err
		}
		if msg == nil || msg.Content == "" {
			continue
		}
		select {
		case s.deltas <- msg.Content:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// Deltas returns the channel of text deltas.
func (s *Stream) Deltas() <-chan string {
	return s.deltas
}

// Err returns the terminal error. Call it only after Deltas is closed.
func (s *Stream) Err() error {
	return s.err
}

// Collect drains the stream and returns the concatenated text.
func (s *Stream) Collect() (string, error) {
	var text []byte
	for d := range s.deltas {
		text = append(text, d...)
	}
	return string(text), s.err
}
