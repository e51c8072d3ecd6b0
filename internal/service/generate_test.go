package service

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/codeverse-ai/codeverse/internal/adapter/scripted"
	"github.com/codeverse-ai/codeverse/internal/domain"
	"github.com/codeverse-ai/codeverse/internal/domain/chat"
	"github.com/codeverse-ai/codeverse/internal/domain/section"
	"github.com/codeverse-ai/codeverse/internal/port/agentbridge"
	"github.com/codeverse-ai/codeverse/internal/port/broadcast"
)

// recordingBridge captures the request passed to the inner bridge so tests
// can assert on the assembled prompts.
type recordingBridge struct {
	inner agentbridge.Bridge
	req   agentbridge.Request
}

func (b *recordingBridge) Stream(ctx context.Context, req agentbridge.Request) (<-chan agentbridge.Event, error) {
	b.req = req
	return b.inner.Stream(ctx, req)
}

// collectEvents returns an EmitFunc that appends into dst.
func collectEvents(dst *[]StreamEvent) EmitFunc {
	return func(ev StreamEvent) error {
		*dst = append(*dst, ev)
		return nil
	}
}

func scriptedOutput() *scripted.Bridge {
	return scripted.New(
		"# Plan name\nAuth Overhaul\n\n",
		"# Plan draft\n1. Add refresh tokens\n",
		"2. Rotate signing keys\n\n",
		"# Clarifying questions\n- Which identity provider?\n",
	)
}

func TestGenerateFirstIteration(t *testing.T) {
	store := &mockStore{}
	_, p := seedRepoAndPlan(store)
	bc := &recordingBroadcaster{}
	bridge := &recordingBridge{inner: scriptedOutput()}
	svc := NewGenerateService(store, bridge, section.Default(), bc, nil)

	var events []StreamEvent
	err := svc.Generate(context.Background(), p.ID, GenerateRequest{UserMessage: "build token auth"}, collectEvents(&events))
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}

	if !strings.Contains(bridge.req.Prompt, "build token auth") {
		t.Errorf("prompt missing user notes: %q", bridge.req.Prompt)
	}
	if strings.Contains(bridge.req.SystemPrompt, "NOT the first iteration") {
		t.Error("system prompt is a refinement prompt on a plan with no versions")
	}

	// Every relayed chunk carries a section label and no header text.
	var sawPlan, sawClarify bool
	for _, ev := range events {
		if strings.Contains(ev.Chunk, "# Plan draft") || strings.Contains(ev.Chunk, "# Clarifying questions") {
			t.Errorf("header leaked into chunk %q", ev.Chunk)
		}
		switch ev.OutputType {
		case section.NamePlan:
			sawPlan = true
		case section.NameClarifyQuestions:
			sawClarify = true
		}
	}
	if !sawPlan || !sawClarify {
		t.Errorf("events missing sections: plan=%v clarify=%v", sawPlan, sawClarify)
	}

	// The plan text was persisted as version 1.
	latest, err := store.LatestPlanVersion(context.Background(), p.ID)
	if err != nil || latest == nil {
		t.Fatalf("LatestPlanVersion: %v, %v", latest, err)
	}
	if latest.Version != 1 {
		t.Errorf("Version = %d, want 1", latest.Version)
	}
	if !strings.Contains(latest.Content, "Rotate signing keys") {
		t.Errorf("persisted content = %q", latest.Content)
	}
	if strings.Contains(latest.Content, "Which identity provider") {
		t.Error("clarifying questions leaked into the persisted plan")
	}

	// A chat session now holds the user note and the questions.
	sess, err := store.LatestChatSession(context.Background(), p.ID)
	if err != nil || sess == nil {
		t.Fatalf("LatestChatSession: %v, %v", sess, err)
	}
	if len(sess.Messages) != 2 {
		t.Fatalf("transcript has %d messages, want 2", len(sess.Messages))
	}
	if sess.Messages[0].Role != chat.RoleUser || sess.Messages[1].Role != chat.RoleAssistant {
		t.Errorf("roles = %q, %q", sess.Messages[0].Role, sess.Messages[1].Role)
	}
	if !strings.Contains(sess.Messages[1].Content, "Which identity provider?") {
		t.Errorf("assistant message = %q", sess.Messages[1].Content)
	}

	if got := bc.byType(broadcast.EventPlanVersionCreate); len(got) != 1 {
		t.Errorf("plan.version.created events = %d, want 1", len(got))
	}
	status := bc.byType(broadcast.EventGenerationStatus)
	if len(status) != 2 {
		t.Fatalf("generation.status events = %d, want 2", len(status))
	}
	if got := statusOf(t, status[0]); got != "started" {
		t.Errorf("first status = %q, want started", got)
	}
	if got := statusOf(t, status[1]); got != "completed" {
		t.Errorf("last status = %q, want completed", got)
	}
}

// statusOf extracts the status field from a recorded generation.status event.
func statusOf(t *testing.T, rec broadcastRecord) string {
	t.Helper()
	payload, ok := rec.payload.(map[string]string)
	if !ok {
		t.Fatalf("status payload is %T, want map[string]string", rec.payload)
	}
	return payload["status"]
}

func TestGenerateRequiresUserMessage(t *testing.T) {
	store := &mockStore{}
	_, p := seedRepoAndPlan(store)
	svc := NewGenerateService(store, scriptedOutput(), section.Default(), nil, nil)

	err := svc.Generate(context.Background(), p.ID, GenerateRequest{UserMessage: "   "}, func(StreamEvent) error { return nil })
	if !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("err = %v, want ErrValidation", err)
	}
}

func TestGenerateUnknownPlan(t *testing.T) {
	store := &mockStore{}
	svc := NewGenerateService(store, scriptedOutput(), section.Default(), nil, nil)

	err := svc.Generate(context.Background(), "missing", GenerateRequest{UserMessage: "notes"}, func(StreamEvent) error { return nil })
	if !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestGenerateRefinementFromStoredContext(t *testing.T) {
	store := &mockStore{}
	_, p := seedRepoAndPlan(store)
	store.CreatePlanVersion(context.Background(), p.ID, "## Existing plan\nOld content", 1)
	store.CreateChatSession(context.Background(), chat.CreateRequest{
		PlanID: p.ID,
		Messages: []chat.Message{
			{Role: chat.RoleUser, Content: "first notes"},
			{Role: chat.RoleAssistant, Content: "- What database?"},
		},
	})
	bridge := &recordingBridge{inner: scriptedOutput()}
	svc := NewGenerateService(store, bridge, section.Default(), nil, nil)

	err := svc.Generate(context.Background(), p.ID, GenerateRequest{UserMessage: "postgres, self-hosted"}, func(StreamEvent) error { return nil })
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}

	if !strings.Contains(bridge.req.SystemPrompt, "NOT the first iteration") {
		t.Error("system prompt is not a refinement prompt despite an existing version")
	}
	if !strings.Contains(bridge.req.Prompt, "Old content") {
		t.Errorf("prompt missing previous draft: %q", bridge.req.Prompt)
	}
	if !strings.Contains(bridge.req.Prompt, "What database?") {
		t.Errorf("prompt missing previous questions: %q", bridge.req.Prompt)
	}

	latest, _ := store.LatestPlanVersion(context.Background(), p.ID)
	if latest.Version != 2 {
		t.Errorf("Version = %d, want 2", latest.Version)
	}
}

func TestGenerateRequestOverridesBeatStorage(t *testing.T) {
	store := &mockStore{}
	_, p := seedRepoAndPlan(store)
	store.CreatePlanVersion(context.Background(), p.ID, "stored draft", 1)
	bridge := &recordingBridge{inner: scriptedOutput()}
	svc := NewGenerateService(store, bridge, section.Default(), nil, nil)

	override := "client-side draft"
	msgs := []chat.Message{{Role: chat.RoleAssistant, Content: "- Override question?"}}
	err := svc.Generate(context.Background(), p.ID, GenerateRequest{
		UserMessage:  "notes",
		PlanArtifact: &override,
		ChatMessages: &msgs,
	}, func(StreamEvent) error { return nil })
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}

	if !strings.Contains(bridge.req.Prompt, "client-side draft") {
		t.Error("prompt missing the plan artifact override")
	}
	if strings.Contains(bridge.req.Prompt, "stored draft") {
		t.Error("stored version used despite override")
	}
	if !strings.Contains(bridge.req.Prompt, "Override question?") {
		t.Error("prompt missing the chat override questions")
	}
}

func TestGenerateFallbackWhenAgentProducesNothing(t *testing.T) {
	store := &mockStore{}
	_, p := seedRepoAndPlan(store)
	// Preamble without any recognized header is dropped entirely.
	svc := NewGenerateService(store, scripted.New("thinking out loud, no headers"), section.Default(), nil, nil)

	var events []StreamEvent
	err := svc.Generate(context.Background(), p.ID, GenerateRequest{UserMessage: "notes"}, collectEvents(&events))
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}

	latest, _ := store.LatestPlanVersion(context.Background(), p.ID)
	if latest == nil {
		t.Fatal("no version persisted")
	}
	want := "# Plan for " + p.Name
	if !strings.HasPrefix(latest.Content, want) {
		t.Errorf("content = %q, want prefix %q", latest.Content, want)
	}
	if len(events) == 0 || events[len(events)-1].OutputType != section.NamePlan {
		t.Errorf("fallback not relayed to the caller: %+v", events)
	}
}

func TestGenerateUpstreamError(t *testing.T) {
	store := &mockStore{}
	_, p := seedRepoAndPlan(store)
	bc := &recordingBroadcaster{}
	boom := errors.New("agent exited with status 1")
	svc := NewGenerateService(store, scripted.NewFailing(boom, "# Plan draft\npartial"), section.Default(), bc, nil)

	err := svc.Generate(context.Background(), p.ID, GenerateRequest{UserMessage: "notes"}, func(StreamEvent) error { return nil })
	if !errors.Is(err, domain.ErrUpstream) {
		t.Fatalf("err = %v, want ErrUpstream", err)
	}

	// Nothing persisted after a failed run.
	if latest, _ := store.LatestPlanVersion(context.Background(), p.ID); latest != nil {
		t.Errorf("version persisted despite failure: %+v", latest)
	}
	if sess, _ := store.LatestChatSession(context.Background(), p.ID); sess != nil {
		t.Errorf("chat session written despite failure: %+v", sess)
	}

	status := bc.byType(broadcast.EventGenerationStatus)
	if len(status) != 2 {
		t.Fatalf("generation.status events = %d, want 2", len(status))
	}
	if got := statusOf(t, status[0]); got != "started" {
		t.Errorf("first status = %q, want started", got)
	}
	if got := statusOf(t, status[1]); got != "failed" {
		t.Errorf("last status = %q, want failed", got)
	}
}

func TestGenerateConsumerAbort(t *testing.T) {
	store := &mockStore{}
	_, p := seedRepoAndPlan(store)
	svc := NewGenerateService(store, scriptedOutput(), section.Default(), nil, nil)

	abort := errors.New("client went away")
	err := svc.Generate(context.Background(), p.ID, GenerateRequest{UserMessage: "notes"}, func(StreamEvent) error { return abort })
	if !errors.Is(err, abort) {
		t.Fatalf("err = %v, want %v", err, abort)
	}
	if latest, _ := store.LatestPlanVersion(context.Background(), p.ID); latest != nil {
		t.Errorf("version persisted despite abort: %+v", latest)
	}
}
