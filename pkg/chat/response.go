package chat

// TurnResponse is the body of a successful (2xx) chat turn.
type TurnResponse struct {
	Answer   string `json:"answer"`
	UsedTool string `json:"used_tool,omitempty"` // Tool that produced the answer, if any

	// Latencies are optional; nil means the server did not report them.
	ModelLatencyMs *float64 `json:"model_latency_ms,omitempty"`
	ToolLatencyMs  *float64 `json:"tool_latency_ms,omitempty"`
}
