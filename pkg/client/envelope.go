package client

import (
	"bytes"
	"encoding/json"
)

// envelope is the backend's standard response body.
type envelope struct {
	Success *bool           `json:"success"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
	Error   json.RawMessage `json:"error"`
}

// unwrapData returns the "data" member of an envelope, or raw unchanged when
// the body is not an envelope.
func unwrapData(raw []byte) json.RawMessage {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return trimmed
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(trimmed, &fields); err != nil {
		return trimmed
	}
	if data, ok := fields["data"]; ok {
		return data
	}
	return trimmed
}

// errorMessage extracts a user-facing message from an error body: the
// "error" field, then "message", then a generic text.
func errorMessage(raw []byte) string {
	var env envelope
	if err := json.Unmarshal(raw, &env); err == nil {
		if msg := rawString(env.Error); msg != "" {
			return msg
		}
		if env.Message != "" {
			return env.Message
		}
	}
	return "request error"
}

// rawString returns a JSON string value, or the raw JSON text for other
// non-null values.
func rawString(raw json.RawMessage) string {
	if len(raw) == 0 || string(raw) == "null" {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	return string(raw)
}
