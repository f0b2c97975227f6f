package hitlkit

// Pattern is one way of wiring a chat UI to the agent backend.
// Each pattern keeps its threads under its own namespace.
type Pattern struct {
	// ID is the short identifier, also used as the URL path segment.
	ID string `json:"id"`

	// Name is the display name.
	Name string `json:"name"`

	// Description summarizes how the UI reaches the backend.
	Description string `json:"description"`

	// Namespace is the storage key of the pattern's active thread id.
	Namespace string `json:"namespace"`
}

// The integration patterns of the demo.
var (
	// PatternDirect talks to the agent endpoint directly from the client.
	PatternDirect = Pattern{
		ID:          "pattern1",
		Name:        "Pattern 1: Direct AG-UI",
		Description: "HTTP agent client connected straight to the backend",
		Namespace:   "cpk-p1-thread",
	}

	// PatternProxy routes every request through a server-side proxy.
	PatternProxy = Pattern{
		ID:          "pattern2",
		Name:        "Pattern 2: Server Proxy",
		Description: "runtime URL served by a pass-through proxy route",
		Namespace:   "cpk-p2-thread",
	}

	// PatternStreaming uses a single streaming endpoint with state updates.
	PatternStreaming = Pattern{
		ID:          "pattern3",
		Name:        "Pattern 3: LangGraph + State Streaming",
		Description: "single streaming endpoint emitting state in real time",
		Namespace:   "cpk-p3-thread",
	}
)

// Patterns returns the integration patterns in display order.
func Patterns() []Pattern {
	return []Pattern{PatternDirect, PatternProxy, PatternStreaming}
}

// PatternByID returns the pattern with the given id.
func PatternByID(id string) (Pattern, bool) {
	for _, p := range Patterns() {
		if p.ID == id {
			return p, true
		}
	}
	return Pattern{}, false
}
