package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"hotel-guest-concierge/internal/domain"
	"hotel-guest-concierge/internal/domain/model"
	"hotel-guest-concierge/internal/domain/ports/repository"
	"hotel-guest-concierge/internal/infra/i18n"
	"hotel-guest-concierge/internal/infra/logging"
	"hotel-guest-concierge/internal/infra/metrics"
	"hotel-guest-concierge/internal/usecase"
)

// RateLimiter is satisfied by the Redis limiter; nil disables limiting.
type RateLimiter interface {
	Allow(ctx context.Context, key string, limit int, window time.Duration) (bool, error)
}

// Server wires the chat and admin routes.
type Server struct {
	chat       usecase.ChatUseCase
	tenants    repository.TenantConfigRepository
	auth       *AuthManager
	limiter    RateLimiter
	bundle     *i18n.Bundle
	adminKey   string
	rateLimit  int
	rateWindow time.Duration
	log        *zerolog.Logger
}

func NewServer(
	chat usecase.ChatUseCase,
	tenants repository.TenantConfigRepository,
	auth *AuthManager,
	limiter RateLimiter,
	bundle *i18n.Bundle,
	adminKey string,
	rateLimit int,
	rateWindow time.Duration,
	logger *zerolog.Logger,
) *Server {
	compLog := logger.With().Str("component", "APIServer").Logger()
	return &Server{
		chat:       chat,
		tenants:    tenants,
		auth:       auth,
		limiter:    limiter,
		bundle:     bundle,
		adminKey:   adminKey,
		rateLimit:  rateLimit,
		rateWindow: rateWindow,
		log:        &compLog,
	}
}

func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(CORS(), RequestID(), Recover(s.log), RequestLog(s.log))

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/chat", s.handleChat)
		r.Post("/admin/login", s.handleAdminLogin)
		r.Route("/tenants", func(r chi.Router) {
			r.Use(s.requireAdmin)
			r.Get("/", s.handleListTenants)
			r.Post("/", s.handleSaveTenant)
			r.Get("/{id}", s.handleGetTenant)
			r.Delete("/{id}", s.handleDeleteTenant)
		})
	})
	return r
}

type chatRequestBody struct {
	SessionID string `json:"sessionId"`
	Message   string `json:"message"`
	Language  string `json:"language,omitempty"`
	TenantID  string `json:"tenantId,omitempty"`
}

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	var body chatRequestBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.SessionID == "" || body.Message == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{
			"error": "Missing required fields: sessionId and message are required",
		})
		return
	}
	if body.TenantID == "" {
		body.TenantID = "default"
	}
	if body.Language == "" {
		body.Language = "en"
	}

	ctx := logging.WithTenantID(r.Context(), body.TenantID)
	ctx = logging.WithSessID(ctx, body.SessionID)

	if s.limiter != nil {
		key := "rate_limit:" + body.TenantID + ":" + body.SessionID
		allowed, err := s.limiter.Allow(ctx, key, s.rateLimit, s.rateWindow)
		if err != nil {
			// A broken limiter must not take chat down.
			logging.With(ctx, s.log).Warn().Err(err).Msg("rate limiter unavailable")
		} else if !allowed {
			metrics.IncChatRequest("rate_limited")
			writeJSON(w, http.StatusTooManyRequests, map[string]string{
				"error": s.bundle.For(body.Language).T("rate_limited"),
			})
			return
		}
	}

	resp, err := s.chat.HandleMessage(ctx, usecase.ChatRequest{
		TenantID:  body.TenantID,
		SessionID: body.SessionID,
		Message:   body.Message,
		Language:  body.Language,
	})
	if err != nil {
		if errors.Is(err, domain.ErrSessionBusy) {
			writeJSON(w, http.StatusTooManyRequests, map[string]string{
				"error": s.bundle.For(body.Language).T("rate_limited"),
			})
			return
		}
		logging.With(ctx, s.log).Error().Err(err).Msg("chat pipeline failed")
		writeJSON(w, http.StatusInternalServerError, map[string]string{
			"error": s.bundle.For(body.Language).T("apology"),
		})
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// ===== Admin routes =====

func (s *Server) handleAdminLogin(w http.ResponseWriter, r *http.Request) {
	var body struct {
		APIKey string `json:"apiKey"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.APIKey == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "apiKey is required"})
		return
	}
	if s.adminKey == "" || body.APIKey != s.adminKey {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "invalid api key"})
		return
	}
	token, err := s.auth.Mint()
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "token mint failed"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"token": token})
}

func (s *Server) requireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, err := s.auth.ParseFromRequest(r); err != nil {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "unauthorized"})
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) handleGetTenant(w http.ResponseWriter, r *http.Request) {
	cfg, err := s.tenants.FindByID(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "tenant not found"})
			return
		}
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "lookup failed"})
		return
	}
	writeJSON(w, http.StatusOK, cfg)
}

func (s *Server) handleSaveTenant(w http.ResponseWriter, r *http.Request) {
	var cfg model.TenantConfig
	if err := json.NewDecoder(r.Body).Decode(&cfg); err != nil || cfg.ID == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "tenant id is required"})
		return
	}
	if err := s.tenants.Save(r.Context(), &cfg); err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "save failed"})
		return
	}
	writeJSON(w, http.StatusOK, cfg)
}

func (s *Server) handleDeleteTenant(w http.ResponseWriter, r *http.Request) {
	if err := s.tenants.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "tenant not found"})
			return
		}
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "delete failed"})
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleListTenants(w http.ResponseWriter, r *http.Request) {
	list, err := s.tenants.List(r.Context(), 0, 100)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "list failed"})
		return
	}
	if list == nil {
		list = []*model.TenantConfig{}
	}
	writeJSON(w, http.StatusOK, list)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
