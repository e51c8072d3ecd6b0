package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/codeverse-ai/codeverse/internal/adapter/otel"
	"github.com/codeverse-ai/codeverse/internal/adapter/stt"
	"github.com/codeverse-ai/codeverse/internal/domain"
	"github.com/codeverse-ai/codeverse/internal/port/database"
	"github.com/codeverse-ai/codeverse/internal/port/speech"
	"github.com/codeverse-ai/codeverse/internal/resilience"
)

// sttPrompt biases the provider toward code-adjacent dictation.
const sttPrompt = "Use developer punctuation. Keep exact case for identifiers and file paths."

const (
	breakerThreshold = 5
	breakerCooldown  = 30 * time.Second
)

// TranscribeLimits caps what audio is accepted before anything is sent to
// the provider.
type TranscribeLimits struct {
	MaxBytes   int
	MaxSeconds float64
}

// TranscribeResult is the outcome of one transcription request.
type TranscribeResult struct {
	RawText      string   `json:"raw_text"`
	Confidence   *float64 `json:"confidence,omitempty"`
	AudioSeconds float64  `json:"audio_seconds"`
	LatencyMS    int64    `json:"latency_ms"`
}

// TranscribeService converts dictated WAV audio into plan notes text.
type TranscribeService struct {
	store       database.Store
	transcriber speech.Transcriber
	limits      TranscribeLimits
	breaker     *resilience.Breaker
}

// NewTranscribeService creates a TranscribeService. Provider calls run
// behind a circuit breaker so a failing provider sheds load fast instead
// of holding every request for the full provider timeout.
func NewTranscribeService(store database.Store, t speech.Transcriber, limits TranscribeLimits) *TranscribeService {
	return &TranscribeService{
		store:       store,
		transcriber: t,
		limits:      limits,
		breaker:     resilience.NewBreaker(breakerThreshold, breakerCooldown),
	}
}

// Transcribe validates the audio payload against the configured limits and
// sends it to the speech provider. The plan must exist; the audio must be a
// PCM WAV within the byte and duration caps.
func (s *TranscribeService) Transcribe(ctx context.Context, planID string, audio []byte) (*TranscribeResult, error) {
	if _, err := s.store.GetPlan(ctx, planID); err != nil {
		return nil, err
	}

	if s.limits.MaxBytes > 0 && len(audio) > s.limits.MaxBytes {
		return nil, fmt.Errorf("audio exceeds %d bytes: %w", s.limits.MaxBytes, domain.ErrValidation)
	}

	info, err := stt.ParseWav(audio)
	if err != nil {
		return nil, err
	}
	if s.limits.MaxSeconds > 0 && info.Duration > s.limits.MaxSeconds {
		return nil, fmt.Errorf("audio exceeds %.0f seconds: %w", s.limits.MaxSeconds, domain.ErrValidation)
	}

	ctx, span := otel.StartTranscribeSpan(ctx, planID)
	defer span.End()

	start := time.Now()
	var res speech.Result
	err = s.breaker.Execute(func() error {
		var callErr error
		res, callErr = s.transcriber.Transcribe(ctx, audio, sttPrompt)
		return callErr
	})
	latency := time.Since(start)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, fmt.Errorf("speech provider: %w", domain.ErrTimeout)
		}
		return nil, fmt.Errorf("speech provider: %v: %w", err, domain.ErrUpstream)
	}

	slog.Info("transcription completed",
		"plan_id", planID,
		"audio_seconds", info.Duration,
		"latency", latency,
	)

	return &TranscribeResult{
		RawText:      res.Text,
		Confidence:   res.Confidence,
		AudioSeconds: info.Duration,
		LatencyMS:    latency.Milliseconds(),
	}, nil
}
