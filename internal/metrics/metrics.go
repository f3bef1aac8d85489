package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Turn outcomes.
const (
	OutcomeOK        = "ok"
	OutcomeError     = "error"
	OutcomeCancelled = "cancelled"
)

// Recorder collects decode and turn metrics. A nil *Recorder records nothing.
type Recorder struct {
	framesDecoded prometheus.Counter
	framesSkipped *prometheus.CounterVec
	turns         *prometheus.CounterVec
	turnDuration  prometheus.Histogram
}

// New creates the collectors and registers them with reg.
func New(reg prometheus.Registerer) *Recorder {
	r := &Recorder{
		framesDecoded: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "weatherchat",
			Name:      "frames_decoded_total",
			Help:      "Stream records decoded into events.",
		}),
		framesSkipped: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "weatherchat",
			Name:      "frames_skipped_total",
			Help:      "Stream records dropped by the decoder, by reason.",
		}, []string{"reason"}),
		turns: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "weatherchat",
			Name:      "turns_total",
			Help:      "Completed chat turns, by outcome.",
		}, []string{"outcome"}),
		turnDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "weatherchat",
			Name:      "turn_duration_seconds",
			Help:      "Time from submit to the final message.",
			Buckets:   prometheus.ExponentialBuckets(0.05, 2, 10),
		}),
	}

	if reg != nil {
		reg.MustRegister(r.framesDecoded, r.framesSkipped, r.turns, r.turnDuration)
	}
	return r
}

// FramesDecoded adds n decoded records.
func (r *Recorder) FramesDecoded(n int) {
	if r == nil || n <= 0 {
		return
	}
	r.framesDecoded.Add(float64(n))
}

// FrameSkipped counts one dropped record.
func (r *Recorder) FrameSkipped(reason string) {
	if r == nil {
		return
	}
	r.framesSkipped.WithLabelValues(reason).Inc()
}

// TurnFinished records the outcome and duration of one turn.
func (r *Recorder) TurnFinished(outcome string, d time.Duration) {
	if r == nil {
		return
	}
	r.turns.WithLabelValues(outcome).Inc()
	r.turnDuration.Observe(d.Seconds())
}
