// Package stream turns the agent's newline-delimited stream into chat text.
//
// The wire format is a sequence of records, one per line, each made of a
// two-character type prefix followed by a JSON body:
//
//	0:{"content":"Hel"}
//	0:{"content":"lo"}
//	a:{"result":{"location":"Mumbai","temperature":30,...}}
//
// Decoder splits raw byte chunks into records and classifies them as
// weather.Event values. Aggregator folds those events into the final reply.
package stream

import (
	"bytes"
	"encoding/json"
	"errors"

	"github.com/zhouzirui/weather-chat/backend/internal/model/weather"
)

// prefixLen is the width of the record type prefix, e.g. "0:".
const prefixLen = 2

// DefaultMaxRecordSize bounds a single buffered record.
const DefaultMaxRecordSize = 1 << 20

// SkipReason explains why a record produced no event.
type SkipReason string

const (
	// SkipMalformed marks a record whose body is not valid JSON for its shape.
	SkipMalformed SkipReason = "malformed"
	// SkipUnrecognized marks valid JSON with neither a usable result nor content.
	SkipUnrecognized SkipReason = "unrecognized"
	// SkipOversize marks a record that grew past the configured size limit.
	SkipOversize SkipReason = "oversize"
)

// Skip is the observable outcome of a record that was dropped.
type Skip struct {
	Reason SkipReason
	Line   string
	Err    error
}

// Stats counts decode outcomes since the decoder was created.
type Stats struct {
	Decoded int
	Skipped int
}

// Option configures a Decoder.
type Option func(*Decoder)

// WithResults controls whether structured result records are expected. When
// disabled only content records produce events.
func WithResults(enabled bool) Option {
	return func(d *Decoder) {
		d.results = enabled
	}
}

// WithSkipHandler registers fn to observe every dropped record.
func WithSkipHandler(fn func(Skip)) Option {
	return func(d *Decoder) {
		d.onSkip = fn
	}
}

// WithMaxRecordSize overrides DefaultMaxRecordSize.
func WithMaxRecordSize(n int) Option {
	return func(d *Decoder) {
		if n > 0 {
			d.maxRecord = n
		}
	}
}

// Decoder is a FrameDecoder. Bytes after the last newline of a chunk are
// carried over and prefixed onto the next chunk, so records and multi-byte
// characters may straddle chunk boundaries. A Decoder is not safe for
// concurrent use.
type Decoder struct {
	// buf[off:] is the carried partial record; it never contains a newline.
	buf       []byte
	off       int
	results   bool
	maxRecord int
	onSkip    func(Skip)
	stats     Stats
	// discarding is set while dropping the tail of an oversized record.
	discarding bool
}

// NewDecoder returns a decoder expecting both result and content records
// unless configured otherwise.
func NewDecoder(opts ...Option) *Decoder {
	d := &Decoder{
		results:   true,
		maxRecord: DefaultMaxRecordSize,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Feed consumes one chunk and returns the events completed by it.
func (d *Decoder) Feed(chunk []byte) []weather.Event {
	if len(chunk) == 0 {
		return nil
	}

	if d.discarding {
		idx := bytes.IndexByte(chunk, '\n')
		if idx < 0 {
			return nil
		}
		d.discarding = false
		chunk = chunk[idx+1:]
	}

	scan := len(d.buf)
	d.buf = append(d.buf, chunk...)

	var events []weather.Event
	for {
		idx := bytes.IndexByte(d.buf[scan:], '\n')
		if idx < 0 {
			break
		}
		eol := scan + idx
		if ev, ok := d.decodeLine(d.buf[d.off:eol]); ok {
			events = append(events, ev)
		}
		d.off = eol + 1
		scan = d.off
	}

	if d.Buffered() > d.maxRecord {
		d.skip(SkipOversize, d.buf[d.off:d.off+d.maxRecord], nil)
		d.reset()
		d.discarding = true
	}

	// Shift the carried bytes down once the consumed prefix dominates, so a
	// long record costs amortized linear copying.
	switch {
	case d.off == len(d.buf):
		d.reset()
	case d.off > len(d.buf)/2:
		n := copy(d.buf, d.buf[d.off:])
		d.buf = d.buf[:n]
		d.off = 0
	}

	return events
}

// Flush decodes a final record that was not terminated by a newline. It is
// called once the transport signals end of stream.
func (d *Decoder) Flush() []weather.Event {
	d.discarding = false
	if d.Buffered() == 0 {
		d.reset()
		return nil
	}
	line := append([]byte(nil), d.buf[d.off:]...)
	d.reset()

	if ev, ok := d.decodeLine(line); ok {
		return []weather.Event{ev}
	}
	return nil
}

func (d *Decoder) reset() {
	d.buf = d.buf[:0]
	d.off = 0
}

// Buffered reports how many bytes are waiting for a newline.
func (d *Decoder) Buffered() int {
	return len(d.buf) - d.off
}

// Stats returns decode counters.
func (d *Decoder) Stats() Stats {
	return d.stats
}

type record struct {
	Result  json.RawMessage `json:"result"`
	Content json.RawMessage `json:"content"`
}

var errNotObject = errors.New("record body is not a JSON object")

func (d *Decoder) decodeLine(line []byte) (weather.Event, bool) {
	if len(bytes.TrimSpace(line)) == 0 {
		return weather.Event{}, false
	}

	if len(line) < prefixLen {
		d.skip(SkipMalformed, line, errNotObject)
		return weather.Event{}, false
	}
	body := bytes.TrimSpace(line[prefixLen:])
	if len(body) == 0 || body[0] != '{' {
		d.skip(SkipMalformed, line, errNotObject)
		return weather.Event{}, false
	}

	var rec record
	if err := json.Unmarshal(body, &rec); err != nil {
		d.skip(SkipMalformed, line, err)
		return weather.Event{}, false
	}

	// A result that is not an object (false, 0, "") counts as absent.
	if isObject(rec.Result) {
		if !d.results {
			d.skip(SkipUnrecognized, line, nil)
			return weather.Event{}, false
		}
		var result weather.Result
		if err := json.Unmarshal(rec.Result, &result); err != nil {
			d.skip(SkipMalformed, line, err)
			return weather.Event{}, false
		}
		d.stats.Decoded++
		return weather.ResultEvent(result), true
	}

	if present(rec.Content) {
		var text string
		if err := json.Unmarshal(rec.Content, &text); err == nil && text != "" {
			d.stats.Decoded++
			return weather.ContentEvent(text), true
		}
	}

	d.skip(SkipUnrecognized, line, nil)
	return weather.Event{}, false
}

func (d *Decoder) skip(reason SkipReason, line []byte, err error) {
	d.stats.Skipped++
	if d.onSkip != nil {
		d.onSkip(Skip{Reason: reason, Line: string(line), Err: err})
	}
}

func isObject(raw json.RawMessage) bool {
	raw = bytes.TrimSpace(raw)
	return len(raw) > 0 && raw[0] == '{'
}

// present reports whether a field was set to something other than null.
func present(raw json.RawMessage) bool {
	return len(raw) > 0 && !bytes.Equal(raw, []byte("null"))
}
