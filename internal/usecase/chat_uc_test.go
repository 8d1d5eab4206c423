package usecase

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"hotel-guest-concierge/internal/domain"
	"hotel-guest-concierge/internal/domain/model"
	"hotel-guest-concierge/internal/domain/ports/adapter"
	"hotel-guest-concierge/internal/llmjson"
)

type testEnv struct {
	prompts  *fakePromptProvider
	tenants  *fakeTenantRepo
	sessions *fakeSessionStore
	cache    *fakeKnowledgeCache
	source   *fakeKnowledgeSource
	emailer  *fakeEmailSender
	registry *fakeRegistry
	locker   *fakeLocker
	cfg      ChatConfig
}

func happyScript(req adapter.CompletionRequest) (string, error) {
	switch taskOf(req) {
	case model.TaskButtons:
		return `{"result":[{"title":"Book spa","payload":"BOOK_SPA"}],"language":"de"}`, nil
	case model.TaskEmail:
		return `{"shouldSendEmail":false,"emailText":"","duringEmailClarification":false,"clarificationText":""}`, nil
	case model.TaskSheetMatching:
		return "Pool | Open 8-20", nil
	default:
		return `{"text":"The pool is open from 8 to 20.","isDuringServiceRequest":false}`, nil
	}
}

func newTestEnv(script func(req adapter.CompletionRequest) (string, error)) *testEnv {
	return &testEnv{
		prompts:  &fakePromptProvider{},
		tenants:  &fakeTenantRepo{},
		sessions: &fakeSessionStore{},
		cache:    &fakeKnowledgeCache{},
		source:   &fakeKnowledgeSource{data: "Pool | Open 8-20\nSpa | Booking required"},
		emailer:  newFakeEmailSender(),
		registry: &fakeRegistry{providers: map[string]adapter.LLMProvider{
			"openai": &fakeProvider{name: "openai", fn: script},
		}},
		cfg: ChatConfig{
			Window:         15,
			CallTimeout:    time.Second,
			DefaultEmailTo: "desk@example.com",
		},
	}
}

func (e *testEnv) service() *ChatService {
	loader := NewKnowledgeLoader(e.source, e.cache, time.Hour, testLogger())
	collector := NewDataCollector(e.prompts, e.tenants, e.sessions, loader, "default-sheet", testLogger())
	var locker SessionLocker
	if e.locker != nil {
		locker = e.locker
	}
	return NewChatService(collector, e.registry, e.sessions, e.emailer, nil, locker, testTracer(), e.cfg, testLogger())
}

func chatReq() ChatRequest {
	return ChatRequest{TenantID: "grand-hotel", SessionID: "sess-1", Message: "When is the pool open?"}
}

func TestHandleMessageHappyPath(t *testing.T) {
	env := newTestEnv(happyScript)
	svc := env.service()

	resp, err := svc.HandleMessage(context.Background(), chatReq())
	if err != nil {
		t.Fatalf("HandleMessage: %v", err)
	}

	if resp.Recipient.ID != "sess-1" {
		t.Errorf("recipient = %q", resp.Recipient.ID)
	}
	if resp.MessagingType != "RESPONSE" {
		t.Errorf("messaging_type = %q", resp.MessagingType)
	}
	payload := resp.Message.Attachment.Payload
	if payload.TemplateType != "button" {
		t.Errorf("template_type = %q", payload.TemplateType)
	}
	if payload.Text != "The pool is open from 8 to 20." {
		t.Errorf("text = %q", payload.Text)
	}
	if payload.Language != "de" {
		t.Errorf("language should come from the buttons stage, got %q", payload.Language)
	}
	if len(payload.Buttons) != 1 || payload.Buttons[0].Title != "Book spa" || payload.Buttons[0].Type != "postback" {
		t.Errorf("buttons = %+v", payload.Buttons)
	}

	// User turn and assistant turn must be persisted.
	mem, err := env.sessions.Get(context.Background(), "grand-hotel", "sess-1")
	if err != nil {
		t.Fatalf("session not saved: %v", err)
	}
	if len(mem.Messages) != 2 {
		t.Fatalf("expected 2 persisted messages, got %d", len(mem.Messages))
	}
	if mem.Messages[0].Role != model.RoleUser || mem.Messages[1].Role != model.RoleAssistant {
		t.Errorf("persisted roles wrong: %+v", mem.Messages)
	}
}

func TestHandleMessageGuestFallsBackToAlternative(t *testing.T) {
	env := newTestEnv(func(req adapter.CompletionRequest) (string, error) {
		if taskOf(req) == model.TaskGuestService {
			return "", errors.New("openai down")
		}
		return happyScript(req)
	})
	env.registry.providers["gemini"] = &fakeProvider{name: "gemini", fn: func(req adapter.CompletionRequest) (string, error) {
		return `{"text":"Answer from the alternative model.","isDuringServiceRequest":false}`, nil
	}}

	resp, err := env.service().HandleMessage(context.Background(), chatReq())
	if err != nil {
		t.Fatalf("HandleMessage: %v", err)
	}
	if got := resp.Message.Attachment.Payload.Text; got != "Answer from the alternative model." {
		t.Errorf("text = %q", got)
	}
}

func TestHandleMessageGuestFailureIsFatal(t *testing.T) {
	env := newTestEnv(func(req adapter.CompletionRequest) (string, error) {
		if taskOf(req) == model.TaskGuestService {
			return "", errors.New("provider down")
		}
		return happyScript(req)
	})
	// Alternative provider missing too, so both attempts fail.

	if _, err := env.service().HandleMessage(context.Background(), chatReq()); err == nil {
		t.Fatal("expected error when guest stage fails on both configs")
	}
	if env.sessions.saves != 0 {
		t.Error("failed request must not write history")
	}
}

func TestHandleMessageButtonsFailureIsNotFatal(t *testing.T) {
	env := newTestEnv(func(req adapter.CompletionRequest) (string, error) {
		if taskOf(req) == model.TaskButtons {
			return "", errors.New("buttons model down")
		}
		return happyScript(req)
	})

	req := chatReq()
	req.Language = "pl"
	resp, err := env.service().HandleMessage(context.Background(), req)
	if err != nil {
		t.Fatalf("HandleMessage: %v", err)
	}
	payload := resp.Message.Attachment.Payload
	if payload.Buttons == nil || len(payload.Buttons) != 0 {
		t.Errorf("expected empty non-nil buttons, got %+v", payload.Buttons)
	}
	if payload.Language != "pl" {
		t.Errorf("language should fall back to the request language, got %q", payload.Language)
	}
}

func TestHandleMessagePlainTextReplySurvives(t *testing.T) {
	env := newTestEnv(func(req adapter.CompletionRequest) (string, error) {
		if taskOf(req) == model.TaskGuestService {
			return "Just a plain sentence, no JSON.", nil
		}
		return happyScript(req)
	})

	resp, err := env.service().HandleMessage(context.Background(), chatReq())
	if err != nil {
		t.Fatalf("HandleMessage: %v", err)
	}
	if got := resp.Message.Attachment.Payload.Text; got != "Just a plain sentence, no JSON." {
		t.Errorf("text = %q", got)
	}
}

func TestHandleMessageEscalationEmail(t *testing.T) {
	env := newTestEnv(func(req adapter.CompletionRequest) (string, error) {
		if taskOf(req) == model.TaskEmail {
			return `{"shouldSendEmail":true,"emailText":"Guest in sess-1 needs towels.","duringEmailClarification":false,"clarificationText":""}`, nil
		}
		return happyScript(req)
	})
	env.tenants.tenants = map[string]*model.TenantConfig{
		"grand-hotel": {ID: "grand-hotel", EmailTo: "staff@grand-hotel.example"},
	}

	if _, err := env.service().HandleMessage(context.Background(), chatReq()); err != nil {
		t.Fatalf("HandleMessage: %v", err)
	}

	select {
	case <-env.emailer.ready:
	case <-time.After(time.Second):
		t.Fatal("escalation email never sent")
	}
	sent := env.emailer.sent[0]
	if sent.To != "staff@grand-hotel.example" {
		t.Errorf("recipient = %q", sent.To)
	}
	if !strings.Contains(sent.Subject, "grand-hotel") {
		t.Errorf("subject should name the tenant, got %q", sent.Subject)
	}
	if sent.Text != "Guest in sess-1 needs towels." {
		t.Errorf("text = %q", sent.Text)
	}
}

func TestHandleMessageClarificationReplacesReply(t *testing.T) {
	env := newTestEnv(func(req adapter.CompletionRequest) (string, error) {
		if taskOf(req) == model.TaskEmail {
			return `{"shouldSendEmail":false,"emailText":"","duringEmailClarification":true,"clarificationText":"Which room are you in?"}`, nil
		}
		return happyScript(req)
	})

	resp, err := env.service().HandleMessage(context.Background(), chatReq())
	if err != nil {
		t.Fatalf("HandleMessage: %v", err)
	}
	if got := resp.Message.Attachment.Payload.Text; got != "Which room are you in?" {
		t.Errorf("clarification should replace the reply, got %q", got)
	}
	// The clarification is what the guest saw, so it is what gets persisted.
	mem, _ := env.sessions.Get(context.Background(), "grand-hotel", "sess-1")
	if mem.Messages[1].Content != "Which room are you in?" {
		t.Errorf("persisted assistant turn = %q", mem.Messages[1].Content)
	}
}

func TestHandleMessageSaveFailureDoesNotFailRequest(t *testing.T) {
	env := newTestEnv(happyScript)
	env.sessions.saveErr = errors.New("redis down")

	if _, err := env.service().HandleMessage(context.Background(), chatReq()); err != nil {
		t.Fatalf("save failure must not surface: %v", err)
	}
}

func TestHandleMessageTrimsHistoryWindow(t *testing.T) {
	env := newTestEnv(happyScript)
	env.cfg.Window = 4

	mem := model.NewSessionMemory()
	for i := 0; i < 10; i++ {
		mem.Append(model.RoleUser, "older message")
		mem.Append(model.RoleAssistant, "older reply")
	}
	env.sessions.mems = map[string]*model.SessionMemory{
		sessionKey("grand-hotel", "sess-1"): mem,
	}

	if _, err := env.service().HandleMessage(context.Background(), chatReq()); err != nil {
		t.Fatalf("HandleMessage: %v", err)
	}
	saved, _ := env.sessions.Get(context.Background(), "grand-hotel", "sess-1")
	if len(saved.Messages) != 4 {
		t.Fatalf("expected history trimmed to 4, got %d", len(saved.Messages))
	}
	// Newest turns survive the trim.
	last := saved.Messages[len(saved.Messages)-1]
	if last.Role != model.RoleAssistant || last.Content != "The pool is open from 8 to 20." {
		t.Errorf("unexpected newest message: %+v", last)
	}
}

func TestHandleMessageKnowledgeSentinelOnTotalFailure(t *testing.T) {
	var seenSystem string
	env := newTestEnv(func(req adapter.CompletionRequest) (string, error) {
		if taskOf(req) == model.TaskGuestService {
			seenSystem = req.Messages[0].Content
		}
		return happyScript(req)
	})
	env.source.err = errors.New("sheet unreachable")

	if _, err := env.service().HandleMessage(context.Background(), chatReq()); err != nil {
		t.Fatalf("HandleMessage: %v", err)
	}
	if !strings.Contains(seenSystem, "error loading data") {
		t.Error("system prompt should carry the sentinel when knowledge cannot load")
	}
}

func TestHandleMessageBusySessionRejected(t *testing.T) {
	env := newTestEnv(happyScript)
	env.locker = &fakeLocker{err: domain.ErrSessionBusy}

	_, err := env.service().HandleMessage(context.Background(), chatReq())
	if !errors.Is(err, domain.ErrSessionBusy) {
		t.Errorf("expected ErrSessionBusy, got %v", err)
	}
}

func TestHandleMessageUnlocksAfterSuccess(t *testing.T) {
	env := newTestEnv(happyScript)
	env.locker = &fakeLocker{}

	if _, err := env.service().HandleMessage(context.Background(), chatReq()); err != nil {
		t.Fatalf("HandleMessage: %v", err)
	}
	if env.locker.locks != 1 || env.locker.unlocks != 1 {
		t.Errorf("lock/unlock = %d/%d", env.locker.locks, env.locker.unlocks)
	}
}

func TestButtonsAndEmailStagesSeeReplyAndKnowledge(t *testing.T) {
	var buttonsReq, emailReq adapter.CompletionRequest
	env := newTestEnv(func(req adapter.CompletionRequest) (string, error) {
		switch taskOf(req) {
		case model.TaskButtons:
			buttonsReq = req
		case model.TaskEmail:
			emailReq = req
		}
		return happyScript(req)
	})

	if _, err := env.service().HandleMessage(context.Background(), chatReq()); err != nil {
		t.Fatalf("HandleMessage: %v", err)
	}

	for name, req := range map[string]adapter.CompletionRequest{
		"buttons": buttonsReq,
		"email":   emailReq,
	} {
		if len(req.Messages) == 0 {
			t.Fatalf("%s stage never called", name)
		}
		if !strings.Contains(req.Messages[0].Content, "Pool | Open 8-20") {
			t.Errorf("%s system prompt should carry the knowledge text, got %q", name, req.Messages[0].Content)
		}
		last := req.Messages[len(req.Messages)-1]
		if last.Role != "assistant" || last.Content != "The pool is open from 8 to 20." {
			t.Errorf("%s should see the guest reply as the final assistant turn, got %+v", name, last)
		}
	}
}

func TestNoteParseLogsTruncatedRaw(t *testing.T) {
	var buf bytes.Buffer
	logger := zerolog.New(&buf)
	svc := &ChatService{log: &logger}

	raw := `{"text": "broken` + strings.Repeat("x", 600)
	svc.noteParse("guest_service", llmjson.Fields, raw)
	out := buf.String()
	if !strings.Contains(out, "guest_service") || !strings.Contains(out, "fields") {
		t.Errorf("log missing stage or outcome: %s", out)
	}
	if !strings.Contains(out, "...") {
		t.Errorf("raw content should be truncated in the log: %s", out)
	}
	if strings.Contains(out, strings.Repeat("x", 600)) {
		t.Error("full raw content must not reach the log")
	}

	buf.Reset()
	svc.noteParse("buttons", llmjson.Direct, raw)
	if buf.Len() != 0 {
		t.Errorf("clean parse must not log, got %s", buf.String())
	}
}

func TestAssembleResponseLanguagePrecedence(t *testing.T) {
	guest := model.GuestReply{Text: "hello"}
	resp := assembleResponse("s1", "en", guest, model.ButtonsResult{Language: "fr"}, model.EmailDecision{})
	if resp.Message.Attachment.Payload.Language != "fr" {
		t.Error("detected language should win over the request language")
	}
	resp = assembleResponse("s1", "en", guest, model.ButtonsResult{}, model.EmailDecision{})
	if resp.Message.Attachment.Payload.Language != "en" {
		t.Error("request language should be the fallback")
	}
}
