// Package langfuse fetches managed prompt templates from the Langfuse
// public API. Prompts are cached in process for a short TTL so a burst of
// chat requests does not hammer the prompt service.
package langfuse

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"hotel-guest-concierge/internal/domain/model"
	"hotel-guest-concierge/internal/domain/ports/repository"
)

var _ repository.PromptProvider = (*Client)(nil)

type cachedPrompt struct {
	prompt    *model.PromptTemplate
	fetchedAt time.Time
}

type Client struct {
	baseURL   string
	publicKey string
	secretKey string
	cacheTTL  time.Duration
	httpCli   *http.Client
	log       *zerolog.Logger

	mu    sync.RWMutex
	cache map[string]cachedPrompt
}

func NewClient(baseURL, publicKey, secretKey string, cacheTTL time.Duration, logger *zerolog.Logger) *Client {
	compLog := logger.With().Str("component", "LangfuseClient").Logger()
	return &Client{
		baseURL:   strings.TrimRight(baseURL, "/"),
		publicKey: publicKey,
		secretKey: secretKey,
		cacheTTL:  cacheTTL,
		httpCli:   &http.Client{Timeout: 10 * time.Second},
		log:       &compLog,
		cache:     make(map[string]cachedPrompt),
	}
}

// IsConfigured reports whether credentials were supplied. An unconfigured
// client returns (nil, nil) from GetPrompt so callers fall back to their
// built-in defaults.
func (c *Client) IsConfigured() bool {
	return c.baseURL != "" && c.publicKey != "" && c.secretKey != ""
}

type promptResponse struct {
	Name   string          `json:"name"`
	Prompt string          `json:"prompt"`
	Config json.RawMessage `json:"config"`
}

// GetPrompt resolves a prompt template by name. A 404 from the API is not
// an error; it means the prompt is not managed remotely and the caller
// should use its default.
func (c *Client) GetPrompt(ctx context.Context, name string) (*model.PromptTemplate, error) {
	if !c.IsConfigured() {
		return nil, nil
	}

	c.mu.RLock()
	entry, hit := c.cache[name]
	c.mu.RUnlock()
	if hit && time.Since(entry.fetchedAt) < c.cacheTTL {
		return entry.prompt, nil
	}

	endpoint := c.baseURL + "/api/public/v2/prompts/" + url.PathEscape(name)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	req.SetBasicAuth(c.publicKey, c.secretKey)

	resp, err := c.httpCli.Do(req)
	if err != nil {
		return nil, fmt.Errorf("langfuse: fetch prompt %q: %w", name, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		c.store(name, nil)
		return nil, nil
	}
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("langfuse: prompt %q: status %d: %s", name, resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var parsed promptResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("langfuse: decode prompt %q: %w", name, err)
	}

	tmpl := &model.PromptTemplate{Prompt: parsed.Prompt}
	if len(parsed.Config) > 0 {
		if err := json.Unmarshal(parsed.Config, &tmpl.Config); err != nil {
			c.log.Warn().Err(err).Str("prompt", name).Msg("malformed prompt config, ignoring")
		}
	}
	c.store(name, tmpl)
	return tmpl, nil
}

func (c *Client) store(name string, tmpl *model.PromptTemplate) {
	c.mu.Lock()
	c.cache[name] = cachedPrompt{prompt: tmpl, fetchedAt: time.Now()}
	c.mu.Unlock()
}
