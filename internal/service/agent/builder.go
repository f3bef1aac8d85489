package agent

import (
	"strings"

	"github.com/zhouzirui/weather-chat/backend/internal/analysis/location"
	model "github.com/zhouzirui/weather-chat/backend/internal/model/agent"
)

// Default request parameters.
const (
	DefaultTemperature = 0.5
	DefaultTopP        = 1.0
	DefaultMaxRetries  = 2
	DefaultMaxSteps    = 5
)

// Options are the recognized request overrides. A nil field keeps the default.
type Options struct {
	// Temperature is the sampling randomness.
	Temperature *float64 `yaml:"temperature"`
	// TopP is the nucleus-sampling cutoff.
	TopP *float64 `yaml:"topP"`
	// MaxRetries is the upstream retry budget.
	MaxRetries *int `yaml:"maxRetries"`
	// MaxSteps is the upstream reasoning-step budget.
	MaxSteps *int `yaml:"maxSteps"`
}

// Builder is the RequestBuilder. It holds no mutable state and does no I/O.
type Builder struct {
	profile  model.Profile
	sampling model.Sampling
	retry    model.RetryPolicy
}

// NewBuilder resolves opts against the defaults for the given agent.
func NewBuilder(profile model.Profile, opts Options) *Builder {
	b := &Builder{
		profile: profile,
		sampling: model.Sampling{
			Temperature: DefaultTemperature,
			TopP:        DefaultTopP,
		},
		retry: model.RetryPolicy{
			MaxRetries: DefaultMaxRetries,
			MaxSteps:   DefaultMaxSteps,
		},
	}
	if opts.Temperature != nil {
		b.sampling.Temperature = *opts.Temperature
	}
	if opts.TopP != nil {
		b.sampling.TopP = *opts.TopP
	}
	if opts.MaxRetries != nil {
		b.retry.MaxRetries = *opts.MaxRetries
	}
	if opts.MaxSteps != nil {
		b.retry.MaxSteps = *opts.MaxSteps
	}
	return b
}

// Build constructs the request for one user turn.
func (b *Builder) Build(userText, sessionID string) (model.OutboundRequest, error) {
	if strings.TrimSpace(userText) == "" {
		return model.OutboundRequest{}, &ValidationError{Field: "userText", Reason: "must not be blank"}
	}

	return model.OutboundRequest{
		UserText:       userText,
		SessionID:      sessionID,
		ResourceID:     b.profile.ResourceID,
		RunID:          b.profile.RunID,
		Sampling:       b.sampling,
		Retry:          b.retry,
		RuntimeContext: location.RuntimeContext(userText),
	}, nil
}
