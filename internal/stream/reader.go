package stream

import (
	"context"
	"errors"
	"io"

	"github.com/cloudwego/eino/schema"

	"github.com/zhouzirui/weather-chat/backend/internal/model/weather"
)

const (
	// DefaultChunkSize is the read size used against the transport body.
	DefaultChunkSize = 4096
	pipeCapacity     = 16
)

// NewEventReader reads body in chunks on a separate goroutine, decodes them
// with dec and exposes the events as a stream. The stream ends with io.EOF
// after the body is exhausted and the decoder flushed, or with the read error
// (or ctx error) otherwise. Closing the returned reader stops delivery; the
// caller still owns body and must close it to unblock a pending read.
func NewEventReader(ctx context.Context, body io.Reader, dec *Decoder, chunkSize int) *schema.StreamReader[weather.Event] {
	if chunkSize <= 0 {
		chunkSize = DefaultChunkSize
	}

	sr, sw := schema.Pipe[weather.Event](pipeCapacity)

	go func() {
		defer sw.Close()

		buf := make([]byte, chunkSize)
		for {
			if err := ctx.Err(); err != nil {
				sw.Send(weather.Event{}, err)
				return
			}

			n, err := body.Read(buf)
			if n > 0 {
				for _, ev := range dec.Feed(buf[:n]) {
					if closed := sw.Send(ev, nil); closed {
						return
					}
				}
			}

			if errors.Is(err, io.EOF) {
				for _, ev := range dec.Flush() {
					if closed := sw.Send(ev, nil); closed {
						return
					}
				}
				return
			}
			if err != nil {
				if ctxErr := ctx.Err(); ctxErr != nil {
					err = ctxErr
				}
				sw.Send(weather.Event{}, err)
				return
			}
		}
	}()

	return sr
}
