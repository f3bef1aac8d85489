package weather

// Kind discriminates the variants of Event.
type Kind int

const (
	KindContent Kind = iota + 1
	KindResult
)

func (k Kind) String() string {
	switch k {
	case KindContent:
		return "content"
	case KindResult:
		return "result"
	default:
		return "unknown"
	}
}

// Result is the structured weather report emitted by the agent's tool call.
type Result struct {
	Temperature float64 `json:"temperature"`
	FeelsLike   float64 `json:"feelsLike"`
	Humidity    float64 `json:"humidity"`
	WindSpeed   float64 `json:"windSpeed"`
	WindGust    float64 `json:"windGust"`
	Conditions  string  `json:"conditions"`
	Location    string  `json:"location"`
}

// Event is one decoded stream record. Exactly one of Result or Text is
// meaningful, selected by Kind.
type Event struct {
	Kind   Kind
	Result Result
	Text   string
}

// ContentEvent wraps a free-text token.
func ContentEvent(text string) Event {
	return Event{Kind: KindContent, Text: text}
}

// ResultEvent wraps a structured weather result.
func ResultEvent(r Result) Event {
	return Event{Kind: KindResult, Result: r}
}
