// Package agentbridge defines the port for streaming from an external AI
// coding agent. The agent runs outside the process (typically a CLI spawned
// in the repository working directory) and streams raw text back.
package agentbridge

import "context"

// EventKind discriminates the variants of Event.
type EventKind int

const (
	// EventDelta carries a chunk of generated text.
	EventDelta EventKind = iota
	// EventError reports an upstream failure. It is terminal: the channel
	// closes after it and any buffered text is not to be trusted.
	EventError
)

// Event is one item in an agent output stream.
type Event struct {
	Kind EventKind
	// Text is the delta payload; set only for EventDelta.
	Text string
	// Err describes the upstream failure; set only for EventError.
	Err error
}

// Request describes one generation run.
type Request struct {
	// WorkDir is the repository path the agent is launched in.
	WorkDir string
	// SystemPrompt pins the output format.
	SystemPrompt string
	// Prompt is the user-facing content (notes plus prior context).
	Prompt string
}

// Bridge streams agent output for a single request. The returned channel is
// closed when the stream ends, whether normally or after an EventError.
// Cancelling ctx terminates the agent and closes the channel.
type Bridge interface {
	Stream(ctx context.Context, req Request) (<-chan Event, error)
}
