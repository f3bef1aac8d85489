package agent

// Profile describes a remote agent the client can talk to.
type Profile struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	ResourceID  string `json:"resourceId"`
	RunID       string `json:"runId"`
	Greeting    string `json:"greeting"`
	Structured  bool   `json:"structured"`
}

// DefaultID is the agent the clients use when none is configured.
const DefaultID = "weatherAgent"

// Seed provides the built-in agent profiles.
func Seed() []Profile {
	return []Profile{
		{
			ID:          DefaultID,
			Name:        "Weather Chat",
			Description: "Current conditions for a city: temperature, humidity and wind.",
			ResourceID:  DefaultID,
			RunID:       DefaultID,
			Greeting:    "Hi! Ask me about the weather 🌤️",
			Structured:  true,
		},
	}
}
