package ai

import (
	"context"
	"encoding/json"
	"errors"
)

// ErrEmptyResponse is returned when the provider answers without any content.
var ErrEmptyResponse = errors.New("ai: provider returned no content")

// Request is a single structured completion. Schema, when set, is the JSON
// schema the response content must satisfy.
type Request struct {
	System     string
	Prompt     string
	SchemaName string
	Schema     json.RawMessage
}

// Response carries the raw text produced by the model.
type Response struct {
	Content      string
	Model        string
	InputTokens  int64
	OutputTokens int64
}

// Completer is a language model capable of answering structured prompts.
type Completer interface {
	Complete(ctx context.Context, req Request) (Response, error)
	Provider() string
}
