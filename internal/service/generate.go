package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/codeverse-ai/codeverse/internal/adapter/otel"
	"github.com/codeverse-ai/codeverse/internal/domain"
	"github.com/codeverse-ai/codeverse/internal/domain/chat"
	"github.com/codeverse-ai/codeverse/internal/domain/plan"
	"github.com/codeverse-ai/codeverse/internal/domain/prompt"
	"github.com/codeverse-ai/codeverse/internal/domain/section"
	"github.com/codeverse-ai/codeverse/internal/port/agentbridge"
	"github.com/codeverse-ai/codeverse/internal/port/broadcast"
	"github.com/codeverse-ai/codeverse/internal/port/database"
)

// fallbackPlanTemplate is persisted when the agent produced no plan text at
// all, so a generation run never leaves the plan without a version.
const fallbackPlanTemplate = `# Plan for %s

## Overview
Implementation plan is being generated.

## Next Steps
1. Review requirements
2. Design architecture
3. Implement features
4. Add testing`

// GenerateRequest carries the caller's input for one generation run. The
// override fields let the caller pin the prior context instead of having it
// loaded from storage; a client that holds unsaved edits uses these.
type GenerateRequest struct {
	// UserMessage is the user's raw notes. Required.
	UserMessage string `json:"user_message"`
	// PlanArtifact, when non-nil, replaces the stored latest plan version as
	// the previous draft. An empty string forces a first iteration.
	PlanArtifact *string `json:"plan_artifact,omitempty"`
	// ChatMessages, when non-nil, replaces the stored chat transcript as the
	// source of previous clarifying questions.
	ChatMessages *[]chat.Message `json:"chat_messages,omitempty"`
}

// StreamEvent is one section-labeled chunk relayed to the caller.
type StreamEvent struct {
	Chunk      string `json:"chunk"`
	OutputType string `json:"output_type"`
}

// EmitFunc receives stream events in order. Returning an error aborts the
// run; the agent is terminated and nothing is persisted.
type EmitFunc func(StreamEvent) error

// GenerateService orchestrates a plan generation run: it assembles the
// prompts from stored context, streams the agent's output through the section
// classifier, relays labeled chunks to the caller, and persists the result.
type GenerateService struct {
	store       database.Store
	bridge      agentbridge.Bridge
	registry    *section.Registry
	broadcaster broadcast.Broadcaster
	metrics     *otel.Metrics
}

// NewGenerateService creates a GenerateService. broadcaster and metrics may
// be nil.
func NewGenerateService(store database.Store, bridge agentbridge.Bridge, reg *section.Registry, b broadcast.Broadcaster, m *otel.Metrics) *GenerateService {
	return &GenerateService{
		store:       store,
		bridge:      bridge,
		registry:    reg,
		broadcaster: b,
		metrics:     m,
	}
}

// Generate runs one generation for the given plan, calling emit for every
// labeled chunk. On success the accumulated plan text (or a fallback when the
// agent produced none) is persisted as the next plan version and the user
// note plus any clarifying questions are appended to the plan's chat session.
func (s *GenerateService) Generate(ctx context.Context, planID string, req GenerateRequest, emit EmitFunc) error {
	if strings.TrimSpace(req.UserMessage) == "" {
		return fmt.Errorf("%w: user_message is required", domain.ErrValidation)
	}

	p, err := s.store.GetPlan(ctx, planID)
	if err != nil {
		return err
	}
	r, err := s.store.GetRepository(ctx, p.RepositoryID)
	if err != nil {
		return err
	}

	prevPlan, err := s.previousPlan(ctx, planID, req)
	if err != nil {
		return err
	}
	prevQuestions, err := s.previousQuestions(ctx, planID, req)
	if err != nil {
		return err
	}

	firstIteration := strings.TrimSpace(prevPlan) == ""
	systemPrompt := prompt.BuildSystem(s.registry, firstIteration)
	userContent := prompt.BuildUserContent(req.UserMessage, prevPlan, prevQuestions)

	ctx, span := otel.StartGenerationSpan(ctx, planID, p.RepositoryID)
	defer span.End()
	start := time.Now()
	if s.metrics != nil {
		s.metrics.GenerationsStarted.Add(ctx, 1)
	}

	slog.Info("generation started",
		"plan_id", planID,
		"repository_id", p.RepositoryID,
		"first_iteration", firstIteration,
	)
	if s.broadcaster != nil {
		s.broadcaster.BroadcastEvent(ctx, broadcast.EventGenerationStatus, map[string]string{
			"plan_id": planID,
			"status":  "started",
		})
	}

	// The agent gets its own cancelable context so a consumer abort
	// terminates the process instead of leaving it streaming into the void.
	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	events, err := s.bridge.Stream(runCtx, agentbridge.Request{
		WorkDir:      r.Path,
		SystemPrompt: systemPrompt,
		Prompt:       userContent,
	})
	if err != nil {
		s.finishFailed(ctx, planID, err)
		return fmt.Errorf("%w: %v", domain.ErrUpstream, err)
	}

	cls := section.NewClassifier(s.registry)
	byName := make(map[string]*strings.Builder)

	relay := func(lc section.Labeled) error {
		b, ok := byName[lc.Section]
		if !ok {
			b = &strings.Builder{}
			byName[lc.Section] = b
		}
		b.WriteString(lc.Text)
		if s.metrics != nil {
			s.metrics.ChunksRelayed.Add(ctx, 1)
		}
		if s.broadcaster != nil {
			s.broadcaster.BroadcastEvent(ctx, broadcast.EventGenerationOutput, map[string]string{
				"plan_id":     planID,
				"chunk":       lc.Text,
				"output_type": lc.Section,
			})
		}
		return emit(StreamEvent{Chunk: lc.Text, OutputType: lc.Section})
	}

stream:
	for {
		select {
		case <-runCtx.Done():
			s.finishFailed(ctx, planID, runCtx.Err())
			return runCtx.Err()
		case ev, ok := <-events:
			if !ok {
				break stream
			}
			switch ev.Kind {
			case agentbridge.EventDelta:
				for _, lc := range cls.Feed(ev.Text) {
					if err := relay(lc); err != nil {
						cancel()
						s.finishFailed(ctx, planID, err)
						return err
					}
				}
			case agentbridge.EventError:
				s.finishFailed(ctx, planID, ev.Err)
				return fmt.Errorf("%w: %v", domain.ErrUpstream, ev.Err)
			}
		}
	}

	if lc, ok := cls.Flush(); ok {
		if err := relay(lc); err != nil {
			s.finishFailed(ctx, planID, err)
			return err
		}
	}

	planText := sectionText(byName, section.NamePlan)
	if strings.TrimSpace(planText) == "" {
		fallback := fmt.Sprintf(fallbackPlanTemplate, p.Name)
		slog.Warn("agent produced no plan text, using fallback", "plan_id", planID)
		if err := relay(section.Labeled{Section: section.NamePlan, Text: fallback}); err != nil {
			s.finishFailed(ctx, planID, err)
			return err
		}
		planText = fallback
	}

	v, err := s.persistVersion(ctx, planID, planText)
	if err != nil {
		s.finishFailed(ctx, planID, err)
		return err
	}

	if err := s.recordChat(ctx, planID, req.UserMessage, sectionText(byName, section.NameClarifyQuestions)); err != nil {
		// The version is already saved; losing the transcript entry is not
		// worth failing the whole run over.
		slog.Error("failed to record chat transcript", "plan_id", planID, "error", err)
	}

	elapsed := time.Since(start)
	if s.metrics != nil {
		s.metrics.GenerationsCompleted.Add(ctx, 1)
		s.metrics.GenerationDuration.Record(ctx, elapsed.Seconds())
	}
	if s.broadcaster != nil {
		s.broadcaster.BroadcastEvent(ctx, broadcast.EventGenerationStatus, map[string]string{
			"plan_id": planID,
			"status":  "completed",
		})
	}
	slog.Info("generation completed",
		"plan_id", planID,
		"version", v.Version,
		"duration", elapsed,
	)
	return nil
}

// previousPlan resolves the previous plan draft, preferring the request
// override over the stored latest version.
func (s *GenerateService) previousPlan(ctx context.Context, planID string, req GenerateRequest) (string, error) {
	if req.PlanArtifact != nil {
		return *req.PlanArtifact, nil
	}
	latest, err := s.store.LatestPlanVersion(ctx, planID)
	if err != nil {
		return "", err
	}
	if latest == nil {
		return "", nil
	}
	return latest.Content, nil
}

// previousQuestions resolves the clarifying questions from the prior run: the
// newest assistant message in the override transcript when given, otherwise
// in the plan's latest stored chat session.
func (s *GenerateService) previousQuestions(ctx context.Context, planID string, req GenerateRequest) (string, error) {
	if req.ChatMessages != nil {
		sess := chat.Session{Messages: *req.ChatMessages}
		return sess.LatestAssistantContent(), nil
	}
	sess, err := s.store.LatestChatSession(ctx, planID)
	if err != nil {
		return "", err
	}
	if sess == nil {
		return "", nil
	}
	return sess.LatestAssistantContent(), nil
}

// persistVersion saves content as the plan's next version and announces it.
func (s *GenerateService) persistVersion(ctx context.Context, planID, content string) (*plan.Version, error) {
	latest, err := s.store.LatestPlanVersion(ctx, planID)
	if err != nil {
		return nil, err
	}
	next := 1
	if latest != nil {
		next = latest.Version + 1
	}

	v, err := s.store.CreatePlanVersion(ctx, planID, strings.TrimSpace(content), next)
	if err != nil {
		return nil, err
	}

	if s.broadcaster != nil {
		s.broadcaster.BroadcastEvent(ctx, broadcast.EventPlanVersionCreate, map[string]any{
			"plan_id":    planID,
			"version_id": v.ID,
			"version":    v.Version,
		})
	}
	return v, nil
}

// recordChat appends the user's note and, when the agent asked any, the
// clarifying questions to the plan's latest chat session, creating the
// session on first use.
func (s *GenerateService) recordChat(ctx context.Context, planID, userMessage, questions string) error {
	sess, err := s.store.LatestChatSession(ctx, planID)
	if err != nil {
		return err
	}
	if sess == nil {
		sess, err = s.store.CreateChatSession(ctx, chat.CreateRequest{PlanID: planID})
		if err != nil {
			return err
		}
	}

	now := time.Now().UTC()
	msgs := []chat.Message{{Role: chat.RoleUser, Content: userMessage, Timestamp: now}}
	if strings.TrimSpace(questions) != "" {
		msgs = append(msgs, chat.Message{Role: chat.RoleAssistant, Content: questions, Timestamp: now})
	}

	_, err = s.store.AppendChatMessages(ctx, sess.ID, msgs...)
	return err
}

func (s *GenerateService) finishFailed(ctx context.Context, planID string, cause error) {
	if s.metrics != nil {
		s.metrics.GenerationsFailed.Add(ctx, 1)
	}
	if s.broadcaster != nil {
		msg := ""
		if cause != nil {
			msg = cause.Error()
		}
		s.broadcaster.BroadcastEvent(ctx, broadcast.EventGenerationStatus, map[string]string{
			"plan_id": planID,
			"status":  "failed",
			"error":   msg,
		})
	}
	slog.Error("generation failed", "plan_id", planID, "error", cause)
}

func sectionText(byName map[string]*strings.Builder, name string) string {
	if b, ok := byName[name]; ok {
		return b.String()
	}
	return ""
}
