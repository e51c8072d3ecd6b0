package stt

import (
	"bytes"
	"context"
	"fmt"
	"time"

	openai "github.com/sashabaranov/go-openai"

	"github.com/codeverse-ai/codeverse/internal/port/speech"
)

// Transcriber implements speech.Transcriber against the OpenAI audio API.
type Transcriber struct {
	client  *openai.Client
	model   string
	timeout time.Duration
}

// New creates an OpenAI-backed transcriber. model defaults to whisper-1.
func New(apiKey, model string, timeout time.Duration) *Transcriber {
	if model == "" {
		model = openai.Whisper1
	}
	return &Transcriber{
		client:  openai.NewClient(apiKey),
		model:   model,
		timeout: timeout,
	}
}

// Transcribe sends the WAV payload for transcription. The provider call is
// bounded by the configured timeout on top of the caller's ctx.
func (t *Transcriber) Transcribe(ctx context.Context, wav []byte, prompt string) (speech.Result, error) {
	if t.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, t.timeout)
		defer cancel()
	}

	resp, err := t.client.CreateTranscription(ctx, openai.AudioRequest{
		Model:    t.model,
		FilePath: "audio.wav",
		Reader:   bytes.NewReader(wav),
		Language: "en",
		Prompt:   prompt,
	})
	if err != nil {
		return speech.Result{}, fmt.Errorf("stt: transcription: %w", err)
	}

	return speech.Result{Text: resp.Text}, nil
}
