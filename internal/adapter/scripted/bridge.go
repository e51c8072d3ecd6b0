// Package scripted implements agentbridge.Bridge by playing back a fixed
// script of chunks. It backs development setups without the Claude CLI
// installed and gives tests a deterministic upstream.
package scripted

import (
	"context"

	"github.com/codeverse-ai/codeverse/internal/port/agentbridge"
)

const bridgeName = "scripted"

// Bridge plays back its configured chunks for every request.
type Bridge struct {
	chunks []string
	err    error
}

// New creates a scripted bridge emitting the given chunks in order.
func New(chunks ...string) *Bridge {
	return &Bridge{chunks: chunks}
}

// NewFailing creates a scripted bridge that emits the given chunks and then
// a terminal error event.
func NewFailing(err error, chunks ...string) *Bridge {
	return &Bridge{chunks: chunks, err: err}
}

// Register registers a scripted bridge factory with a built-in demo plan.
func Register() {
	agentbridge.Register(bridgeName, func(_ map[string]string) (agentbridge.Bridge, error) {
		return New(
			"# Plan name\nScripted Demo Plan\n\n",
			"# Plan draft\n1. Wire the pieces together\n2. Ship it\n\n",
			"# Clarifying questions\n- Which environment is this for?\n",
		), nil
	})
}

// Stream emits the script and closes. Cancelling ctx stops playback early.
func (b *Bridge) Stream(ctx context.Context, _ agentbridge.Request) (<-chan agentbridge.Event, error) {
	out := make(chan agentbridge.Event)
	go func() {
		defer close(out)
		for _, chunk := range b.chunks {
			select {
			case out <- agentbridge.Event{Kind: agentbridge.EventDelta, Text: chunk}:
			case <-ctx.Done():
				return
			}
		}
		if b.err != nil {
			select {
			case out <- agentbridge.Event{Kind: agentbridge.EventError, Err: b.err}:
			case <-ctx.Done():
			}
		}
	}()
	return out, nil
}
