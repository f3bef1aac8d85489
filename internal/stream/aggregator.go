package stream

import (
	"strings"

	"github.com/zhouzirui/weather-chat/backend/internal/model/weather"
)

// FallbackText is the reply used when a stream carried no usable text.
const FallbackText = "No response received."

// Aggregator is a StreamAggregator. A result event replaces everything
// accumulated so far with the rendered report; a content event appends.
// The last result wins. An Aggregator serves a single reply.
type Aggregator struct {
	pending  strings.Builder
	results  int
	contents int
}

// NewAggregator returns an empty aggregator.
func NewAggregator() *Aggregator {
	return &Aggregator{}
}

// Apply folds one event into the pending reply.
func (a *Aggregator) Apply(ev weather.Event) {
	switch ev.Kind {
	case weather.KindResult:
		a.results++
		a.pending.Reset()
		a.pending.WriteString(Render(ev.Result))
	case weather.KindContent:
		a.contents++
		a.pending.WriteString(ev.Text)
	}
}

// Pending returns the reply accumulated so far, without fallback.
func (a *Aggregator) Pending() string {
	return a.pending.String()
}

// Text returns the final reply: the trimmed accumulator, or FallbackText when
// nothing usable arrived.
func (a *Aggregator) Text() string {
	text := strings.TrimSpace(a.pending.String())
	if text == "" {
		return FallbackText
	}
	return text
}

// Counts reports how many result and content events were applied.
func (a *Aggregator) Counts() (results, contents int) {
	return a.results, a.contents
}

// Fold runs a fresh aggregator over events and returns the final text.
func Fold(events []weather.Event) string {
	agg := NewAggregator()
	for _, ev := range events {
		agg.Apply(ev)
	}
	return agg.Text()
}

// DecodeAll feeds chunks through a fresh decoder and aggregator and returns
// the final text.
func DecodeAll(chunks [][]byte, opts ...Option) string {
	dec := NewDecoder(opts...)
	agg := NewAggregator()
	for _, chunk := range chunks {
		for _, ev := range dec.Feed(chunk) {
			agg.Apply(ev)
		}
	}
	for _, ev := range dec.Flush() {
		agg.Apply(ev)
	}
	return agg.Text()
}
