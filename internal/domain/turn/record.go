package turn

import (
	"time"

	"github.com/wgabrys88/windows-ai-agent-toolset-v39.2-Avoidance-HEATMAP/internal/domain/action"
)

// Record is one completed inference round trip. It is built once, after the
// upstream reply is known, and never modified.
type Record struct {
	Turn         int64           `json:"turn"`
	Timestamp    string          `json:"timestamp"`
	LatencyMs    float64         `json:"latency_ms"`
	ImageDataURI string          `json:"image_data_uri,omitempty"`
	Request      RequestSummary  `json:"request"`
	Response     ResponseSummary `json:"response"`
	Actions      []action.Action `json:"actions"`
}

// RequestSummary describes the agent's outbound request.
type RequestSummary struct {
	Model         string         `json:"model"`
	StoryText     string         `json:"story_text"`
	SystemPrompt  string         `json:"system_prompt,omitempty"`
	HasImage      bool           `json:"has_image"`
	Sampling      map[string]any `json:"sampling"`
	MessagesCount int            `json:"messages_count"`
	BodySize      int            `json:"body_size"`
	ParseError    *string        `json:"parse_error"`
}

// ResponseSummary describes the upstream reply.
type ResponseSummary struct {
	Status        int            `json:"status"`
	ResponseID    string         `json:"response_id"`
	VLMText       string         `json:"vlm_text"`
	VLMTextLength int            `json:"vlm_text_length"`
	FinishReason  string         `json:"finish_reason"`
	Usage         map[string]any `json:"usage"`
	BodySize      int            `json:"body_size"`
	ParseError    *string        `json:"parse_error"`
	Error         *string        `json:"error"`
}

// WithoutImage returns a copy with the image payload removed. Journal lines
// and live events carry this form.
func (r Record) WithoutImage() Record {
	r.ImageDataURI = ""
	return r
}

// Timestamp formats t the way records store it.
func Timestamp(t time.Time) string {
	return t.Format(time.RFC3339Nano)
}

// RoundLatency converts d to milliseconds with one decimal place.
func RoundLatency(d time.Duration) float64 {
	ms := float64(d.Microseconds()) / 1000
	return float64(int64(ms*10+0.5)) / 10
}

// StringPtr returns nil for an empty string, else a pointer to s.
func StringPtr(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
