package agent

import "github.com/cloudwego/eino/schema"

// WireMessage is one entry of the request's message list.
type WireMessage struct {
	Role    schema.RoleType `json:"role"`
	Content string          `json:"content"`
}

// Sampling holds the model sampling parameters forwarded to the agent.
type Sampling struct {
	Temperature float64
	TopP        float64
}

// RetryPolicy is the budget the remote agent applies on its side.
type RetryPolicy struct {
	MaxRetries int
	MaxSteps   int
}

// OutboundRequest is the payload of one agent stream call. It is built once
// per send and not modified afterwards.
type OutboundRequest struct {
	UserText       string
	SessionID      string
	ResourceID     string
	RunID          string
	Sampling       Sampling
	Retry          RetryPolicy
	RuntimeContext map[string]string
}

// Body is the JSON document posted to the agent stream endpoint.
type Body struct {
	Messages       []WireMessage     `json:"messages"`
	RunID          string            `json:"runId"`
	ThreadID       string            `json:"threadId"`
	ResourceID     string            `json:"resourceId"`
	MaxRetries     int               `json:"maxRetries"`
	MaxSteps       int               `json:"maxSteps"`
	Temperature    float64           `json:"temperature"`
	TopP           float64           `json:"topP"`
	RuntimeContext map[string]string `json:"runtimeContext"`
}

// Body converts the request to its wire shape.
func (r OutboundRequest) Body() Body {
	runtime := make(map[string]string, len(r.RuntimeContext))
	for k, v := range r.RuntimeContext {
		runtime[k] = v
	}
	return Body{
		Messages:       []WireMessage{{Role: schema.User, Content: r.UserText}},
		RunID:          r.RunID,
		ThreadID:       r.SessionID,
		ResourceID:     r.ResourceID,
		MaxRetries:     r.Retry.MaxRetries,
		MaxSteps:       r.Retry.MaxSteps,
		Temperature:    r.Sampling.Temperature,
		TopP:           r.Sampling.TopP,
		RuntimeContext: runtime,
	}
}
