package usecase

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"hotel-guest-concierge/internal/domain"
	"hotel-guest-concierge/internal/domain/model"
	"hotel-guest-concierge/internal/domain/ports/adapter"
	"hotel-guest-concierge/internal/domain/ports/repository"
	"hotel-guest-concierge/internal/infra/logging"
	"hotel-guest-concierge/internal/infra/metrics"
)

// Compile-time check
var _ ChatUseCase = (*ChatService)(nil)

const sessionLockTTL = 30 * time.Second

type ChatUseCase interface {
	HandleMessage(ctx context.Context, req ChatRequest) (*model.ChatResponse, error)
}

// ChatRequest is one inbound guest message.
type ChatRequest struct {
	TenantID  string
	SessionID string
	Message   string
	Language  string
}

// SessionLocker serializes concurrent requests on the same session. Optional;
// without it simultaneous requests race on the history write and the later
// save wins.
type SessionLocker interface {
	TryLock(ctx context.Context, key string, ttl time.Duration) (token string, err error)
	Unlock(ctx context.Context, key, token string) error
}

// BackgroundRunner runs fire-and-forget jobs off the request path.
type BackgroundRunner interface {
	Submit(task func(ctx context.Context) error) error
}

// ChatConfig carries the tunables of the pipeline.
type ChatConfig struct {
	Window         int           // session history cap, in messages
	CallTimeout    time.Duration // per LLM/provider call
	TokenBudget    int           // max knowledge tokens per prompt, 0 disables condensing
	DefaultEmailTo string        // escalation recipient when the tenant has none
	Dev            bool          // dev mode logs full guest messages
}

// ChatService orchestrates the pipeline: collect, guest reply, buttons and
// email in parallel, assemble, persist.
type ChatService struct {
	collector *DataCollector
	registry  adapter.ProviderRegistry
	sessions  repository.SessionStore
	emailer   adapter.EmailSender
	runner    BackgroundRunner // nil sends emails inline
	locker    SessionLocker    // nil means last-write-wins
	tracer    trace.Tracer

	window         int
	callTimeout    time.Duration
	tokenBudget    int
	defaultEmailTo string
	dev            bool
	log            *zerolog.Logger
}

func NewChatService(
	collector *DataCollector,
	registry adapter.ProviderRegistry,
	sessions repository.SessionStore,
	emailer adapter.EmailSender,
	runner BackgroundRunner,
	locker SessionLocker,
	tracer trace.Tracer,
	cfg ChatConfig,
	logger *zerolog.Logger,
) *ChatService {
	compLog := logger.With().Str("component", "ChatService").Logger()
	return &ChatService{
		collector:      collector,
		registry:       registry,
		sessions:       sessions,
		emailer:        emailer,
		runner:         runner,
		locker:         locker,
		tracer:         tracer,
		window:         cfg.Window,
		callTimeout:    cfg.CallTimeout,
		tokenBudget:    cfg.TokenBudget,
		defaultEmailTo: cfg.DefaultEmailTo,
		dev:            cfg.Dev,
		log:            &compLog,
	}
}

func (s *ChatService) HandleMessage(ctx context.Context, req ChatRequest) (*model.ChatResponse, error) {
	start := time.Now()
	defer logging.TraceDuration(s.log, "ChatService.HandleMessage")()
	if req.TenantID == "" || req.SessionID == "" || req.Message == "" {
		return nil, domain.ErrInvalidArgument
	}
	if req.Language == "" {
		req.Language = "en"
	}
	logging.With(ctx, s.log).Debug().
		Str("message", logging.Redact(req.Message, s.dev)).
		Msg("handling guest message")

	ctx, span := s.tracer.Start(ctx, "chat.pipeline", trace.WithAttributes(
		attribute.String("tenant.id", req.TenantID),
		attribute.String("session.id", req.SessionID),
	))
	defer span.End()

	if s.locker != nil {
		lockKey := fmt.Sprintf("chatlock:%s:%s", req.TenantID, req.SessionID)
		token, err := s.locker.TryLock(ctx, lockKey, sessionLockTTL)
		if err != nil {
			metrics.IncChatRequest("rejected")
			return nil, err
		}
		defer func() {
			if err := s.locker.Unlock(context.WithoutCancel(ctx), lockKey, token); err != nil {
				s.log.Warn().Err(err).Str("session_id", req.SessionID).Msg("session unlock failed")
			}
		}()
	}

	cctx, collectSpan := s.tracer.Start(ctx, "chat.collect")
	data := s.collector.Collect(cctx, req.TenantID, req.SessionID)
	collectSpan.End()

	reg := s.registry
	if data.Tenant != nil {
		reg = reg.ForTenant(data.Tenant.ProviderKeys)
	}

	knowledge := s.condenseKnowledge(ctx, reg, data, req.Message)

	gctx, guestSpan := s.tracer.Start(ctx, "chat.guest_service")
	guest, err := s.guestReply(gctx, reg, data, knowledge, req.Message)
	guestSpan.End()
	if err != nil {
		metrics.IncChatRequest("error")
		metrics.ObserveChatDuration("error", int(time.Since(start).Milliseconds()))
		return nil, fmt.Errorf("guest service stage: %w", err)
	}

	var (
		buttons  model.ButtonsResult
		decision model.EmailDecision
	)
	pctx, parallelSpan := s.tracer.Start(ctx, "chat.buttons_email")
	g, groupCtx := errgroup.WithContext(pctx)
	g.Go(func() error {
		buttons = s.buttonsFor(groupCtx, reg, data, knowledge, req.Message, req.Language, guest)
		return nil
	})
	g.Go(func() error {
		decision = s.emailDecisionFor(groupCtx, reg, data, knowledge, req.Message, guest)
		return nil
	})
	_ = g.Wait() // stage funcs absorb their own failures
	parallelSpan.End()

	resp := assembleResponse(req.SessionID, req.Language, guest, buttons, decision)
	s.dispatchEmail(ctx, data, decision, resp.Message.Attachment.Payload.Language, req)
	s.persist(ctx, req, data.History, resp.Message.Attachment.Payload.Text)

	metrics.IncChatRequest("ok")
	metrics.ObserveChatDuration("ok", int(time.Since(start).Milliseconds()))
	return resp, nil
}

// persist writes the updated history back. Failure here is logged, never
// surfaced; the guest already has their answer.
func (s *ChatService) persist(ctx context.Context, req ChatRequest, mem *model.SessionMemory, assistantText string) {
	mem.Append(model.RoleUser, req.Message)
	mem.Append(model.RoleAssistant, assistantText)
	mem.TrimToWindow(s.window)
	if err := s.sessions.Save(context.WithoutCancel(ctx), req.TenantID, req.SessionID, mem); err != nil {
		s.log.Error().Err(err).
			Str("tenant_id", req.TenantID).
			Str("session_id", req.SessionID).
			Msg("session save failed")
		metrics.IncStageFailure("persist", "session_save")
	}
}

// dispatchEmail hands the escalation email to the background pool. Inline
// delivery is the fallback when no runner is wired.
func (s *ChatService) dispatchEmail(ctx context.Context, data *CollectedData, decision model.EmailDecision, lang string, req ChatRequest) {
	if !decision.ShouldSendEmail || strings.TrimSpace(decision.EmailText) == "" {
		return
	}

	to := s.defaultEmailTo
	if data.Tenant != nil && data.Tenant.EmailTo != "" {
		to = data.Tenant.EmailTo
	}
	if to == "" {
		s.log.Warn().Str("tenant_id", req.TenantID).Msg("escalation email skipped, no recipient configured")
		metrics.IncEmail("skipped")
		return
	}

	email := adapter.Email{
		To:      to,
		Subject: fmt.Sprintf("[%s] Guest service request - %s", lang, req.TenantID),
		Text:    decision.EmailText,
	}
	job := func(jctx context.Context) error {
		id, err := s.emailer.Send(jctx, email)
		if err != nil {
			metrics.IncEmail("failed")
			return fmt.Errorf("escalation email to %s: %w", to, err)
		}
		metrics.IncEmail("sent")
		s.log.Info().Str("email_id", id).Str("tenant_id", req.TenantID).Msg("escalation email sent")
		return nil
	}

	if s.runner != nil {
		if err := s.runner.Submit(job); err != nil {
			s.log.Error().Err(err).Msg("email dispatch rejected by worker pool")
			metrics.IncEmail("failed")
		}
		return
	}
	if err := job(context.WithoutCancel(ctx)); err != nil {
		s.log.Error().Err(err).Msg("inline email delivery failed")
	}
}

// assembleResponse merges the stage outputs into the reply envelope. A
// pending clarification from the email stage replaces the guest-service text
// so the guest answers the staff's question first.
func assembleResponse(sessionID, requestLang string, guest model.GuestReply, buttons model.ButtonsResult, decision model.EmailDecision) *model.ChatResponse {
	text := guest.Text
	if decision.DuringEmailClarification && strings.TrimSpace(decision.ClarificationText) != "" {
		text = decision.ClarificationText
	}
	lang := buttons.Language
	if lang == "" {
		lang = requestLang
	}
	return model.NewButtonTemplateResponse(sessionID, lang, text, buttons.Result)
}
