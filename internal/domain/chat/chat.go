package chat

import (
	"errors"
	"fmt"
	"strings"

	"github.com/bytedance/sonic"
)

// ImagePrefix marks an inline PNG screenshot.
const ImagePrefix = "data:image/png;base64,"

// Sampling keys copied from the request.
var samplingKeys = []string{"temperature", "top_p", "max_tokens"}

var (
	errNotObject = errors.New("body is not a JSON object")

	// Numbers stay json.Number so sampling values and usage counters are
	// recorded exactly as sent.
	codec = sonic.Config{UseNumber: true}.Froze()
)

// Request holds the fields extracted from an outbound request.
type Request struct {
	Model         string
	Sampling      map[string]any
	MessagesCount int
	SystemPrompt  string
	StoryText     string
	HasImage      bool
	ImageB64      string
	ParseError    string
}

// Response holds the fields extracted from an upstream reply.
type Response struct {
	ID           string
	Text         string
	FinishReason string
	Usage        map[string]any
	ParseError   string
}

// ParseRequest extracts dashboard fields from a chat-completion request.
func ParseRequest(raw []byte) Request {
	r := Request{Sampling: map[string]any{}}

	obj, err := decodeObject(raw)
	if err != nil {
		r.ParseError = err.Error()
		return r
	}

	r.Model = text(obj["model"])
	for _, k := range samplingKeys {
		if v, ok := obj[k]; ok {
			r.Sampling[k] = v
		}
	}

	msgs, _ := obj["messages"].([]any)
	r.MessagesCount = len(msgs)

	for _, m := range msgs {
		msg, ok := m.(map[string]any)
		if ok && msg["role"] == "system" {
			r.SystemPrompt = text(msg["content"])
			break
		}
	}

	if msg := lastUser(msgs); msg != nil {
		switch content := msg["content"].(type) {
		case string:
			r.StoryText = content
		case []any:
			var texts []string
			for _, p := range content {
				part, ok := p.(map[string]any)
				if !ok {
					continue
				}
				switch part["type"] {
				case "text":
					texts = append(texts, text(part["text"]))
				case "image_url":
					r.HasImage = true
					if b64, ok := strings.CutPrefix(imageURL(part), ImagePrefix); ok {
						r.ImageB64 = b64
					}
				}
			}
			if len(texts) > 0 {
				r.StoryText = texts[0]
			}
		}
	}
	return r
}

// ParseResponse extracts dashboard fields from an upstream reply.
func ParseResponse(raw []byte) Response {
	r := Response{Usage: map[string]any{}}

	obj, err := decodeObject(raw)
	if err != nil {
		r.ParseError = err.Error()
		return r
	}

	r.ID = text(obj["id"])
	if choices, ok := obj["choices"].([]any); ok && len(choices) > 0 {
		if first, ok := choices[0].(map[string]any); ok {
			if msg, ok := first["message"].(map[string]any); ok {
				r.Text = text(msg["content"])
			}
			r.FinishReason = text(first["finish_reason"])
		}
	}
	if usage, ok := obj["usage"].(map[string]any); ok {
		r.Usage = usage
	}
	return r
}

// SwapImage replaces the screenshot that ParseRequest extracted with b64.
// It reports false and returns raw unchanged when there is nothing to swap.
func SwapImage(raw []byte, b64 string) ([]byte, bool, error) {
	obj, err := decodeObject(raw)
	if err != nil {
		return raw, false, err
	}

	msgs, _ := obj["messages"].([]any)
	msg := lastUser(msgs)
	if msg == nil {
		return raw, false, nil
	}
	content, ok := msg["content"].([]any)
	if !ok {
		return raw, false, nil
	}

	var target map[string]any
	for _, p := range content {
		part, ok := p.(map[string]any)
		if !ok || part["type"] != "image_url" {
			continue
		}
		if strings.HasPrefix(imageURL(part), ImagePrefix) {
			target = part
		}
	}
	if target == nil {
		return raw, false, nil
	}

	switch iu := target["image_url"].(type) {
	case map[string]any:
		iu["url"] = ImagePrefix + b64
	default:
		target["image_url"] = ImagePrefix + b64
	}

	out, err := codec.Marshal(obj)
	if err != nil {
		return raw, false, fmt.Errorf("encode request: %w", err)
	}
	return out, true, nil
}

func decodeObject(raw []byte) (map[string]any, error) {
	var v any
	if err := codec.Unmarshal(raw, &v); err != nil {
		return nil, err
	}
	obj, ok := v.(map[string]any)
	if !ok {
		return nil, errNotObject
	}
	return obj, nil
}

func lastUser(msgs []any) map[string]any {
	for i := len(msgs) - 1; i >= 0; i-- {
		if msg, ok := msgs[i].(map[string]any); ok && msg["role"] == "user" {
			return msg
		}
	}
	return nil
}

// imageURL accepts both {"image_url":{"url":...}} and {"image_url":"..."}.
func imageURL(part map[string]any) string {
	switch iu := part["image_url"].(type) {
	case map[string]any:
		return text(iu["url"])
	case string:
		return iu
	default:
		return ""
	}
}

func text(v any) string {
	switch s := v.(type) {
	case nil:
		return ""
	case string:
		return s
	default:
		return fmt.Sprint(s)
	}
}
