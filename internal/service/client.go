package service

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/privexbot/widget/internal/config"
	"github.com/privexbot/widget/internal/domain"
)

// Client performs all HTTP calls to the widget backend. Every failure is
// normalized into a domain.APIError; callers decide whether a given endpoint
// is optional (config fetch, analytics) or primary (chat, lead, feedback).
type Client struct {
	baseURL    string
	botID      string
	apiKey     string
	httpClient *http.Client
	identity   *Identity
	cache      *configCache

	mu             sync.Mutex
	conversationID string
}

func NewClient(cfg domain.WidgetConfig, identity *Identity) *Client {
	return &Client{
		baseURL:    cfg.BaseURL,
		botID:      cfg.BotID,
		apiKey:     cfg.APIKey,
		httpClient: &http.Client{Timeout: config.RequestTimeout},
		identity:   identity,
		cache:      newConfigCache(config.ConfigCacheDuration),
	}
}

// ChatReply is the decoded response of one chat turn.
type ChatReply struct {
	Content        string
	SessionID      string
	ConversationID string
}

// SendMessage posts one user message and returns the bot reply. A
// conversation id returned by the backend is retained and echoed on
// subsequent calls for continuity.
func (c *Client) SendMessage(ctx context.Context, message string, meta domain.PageMetadata) (*ChatReply, error) {
	body := map[string]any{
		"message":    message,
		"session_id": c.identity.Current(),
		"metadata":   meta,
	}
	if cid := c.ConversationID(); cid != "" {
		body["conversation_id"] = cid
	}

	raw, err := c.request(ctx, http.MethodPost, fmt.Sprintf("/public/bots/%s/chat", c.botID), body, config.RequestTimeout)
	if err != nil {
		return nil, err
	}

	var resp struct {
		Response       string `json:"response"`
		Message        string `json:"message"`
		SessionID      string `json:"session_id"`
		ConversationID string `json:"conversation_id"`
	}
	if err := json.Unmarshal(raw, &resp); err != nil {
		return nil, &domain.APIError{Kind: domain.ErrKindGeneric, Detail: fmt.Sprintf("parse chat response: %v", err)}
	}

	// Older backends answer with "message" instead of "response".
	content := resp.Response
	if content == "" {
		content = resp.Message
	}

	if resp.ConversationID != "" {
		c.mu.Lock()
		c.conversationID = resp.ConversationID
		c.mu.Unlock()
	}

	return &ChatReply{
		Content:        content,
		SessionID:      resp.SessionID,
		ConversationID: resp.ConversationID,
	}, nil
}

// FetchConfig retrieves the server-side widget config. The endpoint is
// optional; results are cached so re-initialization does not refetch.
func (c *Client) FetchConfig(ctx context.Context) (map[string]any, error) {
	if cached := c.cache.Get(); cached != nil {
		return cached, nil
	}

	raw, err := c.request(ctx, http.MethodGet, fmt.Sprintf("/public/bots/%s/config", c.botID), nil, config.OptionalTimeout)
	if err != nil {
		return nil, err
	}

	var serverCfg map[string]any
	if err := json.Unmarshal(raw, &serverCfg); err != nil {
		return nil, &domain.APIError{Kind: domain.ErrKindGeneric, Detail: fmt.Sprintf("parse config response: %v", err)}
	}

	c.cache.Set(serverCfg)
	return serverCfg, nil
}

// SubmitLead posts a validated lead form.
func (c *Client) SubmitLead(ctx context.Context, sub domain.LeadSubmission, meta domain.PageMetadata) error {
	body := map[string]any{
		"session_id":    c.identity.Current(),
		"consent_given": sub.ConsentGiven,
		"metadata":      meta,
	}
	for name, value := range sub.Fields {
		body[name] = value
	}
	if cid := c.ConversationID(); cid != "" {
		body["conversation_id"] = cid
	}

	path := fmt.Sprintf("/public/leads/capture?bot_id=%s", url.QueryEscape(c.botID))
	_, err := c.request(ctx, http.MethodPost, path, body, config.RequestTimeout)
	return err
}

// SubmitFeedback posts a message rating. A well-formed ack with
// success=false counts as a failure so the caller rolls back.
func (c *Client) SubmitFeedback(ctx context.Context, messageID string, rating domain.Rating, comment string) error {
	body := map[string]any{"rating": string(rating)}
	if comment != "" {
		body["comment"] = comment
	}

	path := fmt.Sprintf("/public/bots/%s/feedback?message_id=%s", c.botID, url.QueryEscape(messageID))
	raw, err := c.request(ctx, http.MethodPost, path, body, config.RequestTimeout)
	if err != nil {
		return err
	}

	var ack struct {
		Success *bool `json:"success"`
	}
	if err := json.Unmarshal(raw, &ack); err == nil && ack.Success != nil && !*ack.Success {
		return &domain.APIError{Kind: domain.ErrKindGeneric, Detail: "feedback rejected"}
	}
	return nil
}

// TrackEvent posts one analytics event. Callers treat failures as
// non-errors.
func (c *Client) TrackEvent(ctx context.Context, eventType string, eventData map[string]any) error {
	if eventData == nil {
		eventData = map[string]any{}
	}
	if cid := c.ConversationID(); cid != "" {
		eventData["conversation_id"] = cid
	}

	body := map[string]any{
		"event_type": eventType,
		"event_data": eventData,
		"session_id": c.identity.Current(),
		"timestamp":  time.Now().UTC().Format(time.RFC3339),
	}

	_, err := c.request(ctx, http.MethodPost, fmt.Sprintf("/public/bots/%s/events", c.botID), body, config.OptionalTimeout)
	return err
}

// TrackAsync fires an analytics event without blocking the caller. Failures
// are noted at debug level and otherwise ignored.
func (c *Client) TrackAsync(eventType string, eventData map[string]any) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), config.OptionalTimeout)
		defer cancel()

		if err := c.TrackEvent(ctx, eventType, eventData); err != nil {
			slog.Debug("analytics event failed", "event", eventType, "error", err)
		}
	}()
}

// History fetches prior messages for the retained conversation id. Returns
// an empty slice when no conversation has started yet.
func (c *Client) History(ctx context.Context) ([]domain.Message, error) {
	cid := c.ConversationID()
	if cid == "" {
		return []domain.Message{}, nil
	}

	path := fmt.Sprintf("/public/bots/%s/conversations/%s", c.botID, url.PathEscape(cid))
	raw, err := c.request(ctx, http.MethodGet, path, nil, config.OptionalTimeout)
	if err != nil {
		return nil, err
	}

	var resp struct {
		Messages []domain.Message `json:"messages"`
	}
	if err := json.Unmarshal(raw, &resp); err != nil {
		return nil, &domain.APIError{Kind: domain.ErrKindGeneric, Detail: fmt.Sprintf("parse history response: %v", err)}
	}
	if resp.Messages == nil {
		resp.Messages = []domain.Message{}
	}
	return resp.Messages, nil
}

// ConversationID returns the backend-issued conversation id, if any.
func (c *Client) ConversationID() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.conversationID
}

// ResetConversation drops the retained conversation id on widget reset.
func (c *Client) ResetConversation() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.conversationID = ""
}

func (c *Client) request(ctx context.Context, method, path string, body any, timeout time.Duration) (json.RawMessage, error) {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return nil, &domain.APIError{Kind: domain.ErrKindGeneric, Detail: fmt.Sprintf("marshal request: %v", err)}
		}
		reader = bytes.NewReader(payload)
	}

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return nil, &domain.APIError{Kind: domain.ErrKindGeneric, Detail: fmt.Sprintf("create request: %v", err)}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Widget-Session", c.identity.Current())
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if isTimeout(err) {
			return nil, &domain.APIError{Kind: domain.ErrKindTimeout, Status: http.StatusRequestTimeout, Detail: "request timed out"}
		}
		return nil, &domain.APIError{Kind: domain.ErrKindGeneric, Detail: err.Error()}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &domain.APIError{Kind: domain.ErrKindGeneric, Status: resp.StatusCode, Detail: fmt.Sprintf("read response: %v", err)}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, normalizeStatusError(resp.StatusCode, raw)
	}

	return raw, nil
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}

func normalizeStatusError(status int, body []byte) *domain.APIError {
	detail := ""
	var parsed struct {
		Detail string `json:"detail"`
		Error  string `json:"error"`
	}
	if err := json.Unmarshal(body, &parsed); err == nil {
		detail = parsed.Detail
		if detail == "" {
			detail = parsed.Error
		}
	}

	kind := domain.ErrKindGeneric
	switch status {
	case http.StatusTooManyRequests:
		kind = domain.ErrKindRateLimited
	case http.StatusUnauthorized:
		kind = domain.ErrKindUnauthorized
	case http.StatusRequestTimeout:
		kind = domain.ErrKindTimeout
	}

	return &domain.APIError{Kind: kind, Status: status, Detail: detail}
}
