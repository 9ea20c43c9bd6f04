package service

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/privexbot/widget/internal/config"
	"github.com/privexbot/widget/internal/domain"
)

// Listener receives state-change notifications from the conversation. The
// presentation layer subscribes here instead of the engine owning any
// rendering.
type Listener interface {
	MessageAppended(msg domain.Message)
	TypingChanged(active bool)
	LeadGateTriggered(lead *domain.LeadCaptureConfig)
	FeedbackChanged(messageID string, rating domain.Rating, rated bool)
}

// NopListener discards all notifications.
type NopListener struct{}

func (NopListener) MessageAppended(domain.Message)              {}
func (NopListener) TypingChanged(bool)                          {}
func (NopListener) LeadGateTriggered(*domain.LeadCaptureConfig) {}
func (NopListener) FeedbackChanged(string, domain.Rating, bool) {}

var (
	emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
	phonePattern = regexp.MustCompile(`^[\d\s\-\+\(\)]+$`)
	digitPattern = regexp.MustCompile(`\D`)
)

// Conversation drives the message-send protocol, the lead-capture gating
// policy and the feedback flow for one widget session. Message sends are
// strictly sequential: a second send while one is awaiting its response is
// rejected instead of pipelined.
type Conversation struct {
	cfg      domain.WidgetConfig
	client   *Client
	identity *Identity
	feedback *FeedbackStore
	listener Listener
	meta     domain.PageMetadata

	mu            sync.Mutex
	messages      []domain.Message
	awaiting      bool
	leadCollected bool
	leadPrompted  bool
	chatLocked    bool
}

func NewConversation(cfg domain.WidgetConfig, client *Client, identity *Identity, feedback *FeedbackStore, listener Listener, meta domain.PageMetadata) *Conversation {
	if listener == nil {
		listener = NopListener{}
	}
	c := &Conversation{
		cfg:      cfg,
		client:   client,
		identity: identity,
		feedback: feedback,
		listener: listener,
		meta:     meta,
	}

	// before_chat gating locks the input until the lead form is
	// submitted or explicitly skipped.
	if lead := cfg.Lead; lead != nil && lead.Enabled && lead.Timing == domain.LeadTimingBeforeChat {
		c.chatLocked = true
		c.leadPrompted = true
		listener.LeadGateTriggered(lead)
	}

	return c
}

// Greet seeds the configured greeting as the opening bot message.
func (c *Conversation) Greet() {
	if c.cfg.Greeting == "" {
		return
	}
	c.appendMessage(domain.Message{
		ID:        uuid.NewString(),
		Role:      domain.RoleBot,
		Content:   c.cfg.Greeting,
		Timestamp: time.Now(),
	})
}

// SendMessage appends a user turn and exchanges it with the backend. A
// transport failure is rendered as an error bot turn, never an exception:
// the only error returns are the gating conditions (busy, chat locked).
func (c *Conversation) SendMessage(ctx context.Context, text string) error {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}

	c.mu.Lock()
	if c.chatLocked {
		c.mu.Unlock()
		return domain.ErrChatLocked
	}
	if c.awaiting {
		c.mu.Unlock()
		return domain.ErrBusy
	}
	c.awaiting = true
	c.mu.Unlock()

	c.appendMessage(domain.Message{
		Role:      domain.RoleUser,
		Content:   text,
		Timestamp: time.Now(),
	})
	c.listener.TypingChanged(true)
	c.client.TrackAsync(domain.EventMessageSent, map[string]any{"message": text})

	reply, err := c.client.SendMessage(ctx, text, c.meta)

	c.mu.Lock()
	c.awaiting = false
	c.mu.Unlock()
	c.listener.TypingChanged(false)

	if err != nil {
		apiErr := domain.AsAPIError(err)
		slog.Debug("send message failed", "kind", apiErr.Kind, "status", apiErr.Status)
		c.appendMessage(domain.Message{
			ID:        uuid.NewString(),
			Role:      domain.RoleBot,
			Content:   apiErr.UserMessage(),
			Timestamp: time.Now(),
		})
		return nil
	}

	// A server-issued continuity id supersedes the local session id.
	if reply.SessionID != "" {
		c.identity.Adopt(ctx, reply.SessionID)
	}

	c.appendMessage(domain.Message{
		ID:        uuid.NewString(),
		Role:      domain.RoleBot,
		Content:   reply.Content,
		Timestamp: time.Now(),
	})

	c.maybeTriggerLeadGate()
	return nil
}

// maybeTriggerLeadGate fires the after-messages lead prompt exactly once per
// conversation, once the user turn count reaches the configured threshold.
func (c *Conversation) maybeTriggerLeadGate() {
	lead := c.cfg.Lead
	if lead == nil || !lead.Enabled || lead.Timing != domain.LeadTimingAfterMessages {
		return
	}

	c.mu.Lock()
	if c.leadCollected || c.leadPrompted || c.userMessageCountLocked() < lead.MessageCount {
		c.mu.Unlock()
		return
	}
	c.leadPrompted = true
	c.mu.Unlock()

	c.appendMessage(domain.Message{
		ID:        uuid.NewString(),
		Role:      domain.RoleBot,
		Content:   "Before we continue, I'd love to get to know you better!",
		Timestamp: time.Now(),
	})
	c.listener.LeadGateTriggered(lead)
}

// SubmitLead validates the form and posts it. Validation failures return
// field-level errors and make no network call.
func (c *Conversation) SubmitLead(ctx context.Context, formData map[string]string, consentGiven bool) (map[string]string, error) {
	lead := c.cfg.Lead
	if lead == nil {
		return nil, nil
	}

	fieldErrors := validateLead(lead, formData, consentGiven)
	if len(fieldErrors) > 0 {
		return fieldErrors, nil
	}

	sub := domain.LeadSubmission{Fields: formData, ConsentGiven: consentGiven}
	if err := c.client.SubmitLead(ctx, sub, c.meta); err != nil {
		return nil, err
	}

	c.mu.Lock()
	c.leadCollected = true
	wasLocked := c.chatLocked
	c.chatLocked = false
	c.mu.Unlock()

	c.client.TrackAsync(domain.EventLeadCollected, map[string]any{"fields": fieldNames(formData)})

	if !wasLocked {
		c.appendMessage(domain.Message{
			ID:        uuid.NewString(),
			Role:      domain.RoleBot,
			Content:   "Thank you! Your information has been saved. How can I help you?",
			Timestamp: time.Now(),
		})
	}
	return nil, nil
}

// SkipLead dismisses the lead form without collecting anything. The gate
// does not re-fire afterwards.
func (c *Conversation) SkipLead() {
	c.mu.Lock()
	c.chatLocked = false
	c.leadPrompted = true
	c.mu.Unlock()

	c.client.TrackAsync(domain.EventLeadSkipped, nil)
}

// SubmitFeedback optimistically records a rating, posts it, and rolls the
// record back if the call fails so the choice can be re-offered. A second
// attempt for an already-rated message is a no-op without network traffic.
func (c *Conversation) SubmitFeedback(ctx context.Context, messageID string, rating domain.Rating) error {
	if !c.feedback.SetIfAbsent(ctx, messageID, rating) {
		return nil
	}
	c.listener.FeedbackChanged(messageID, rating, true)

	if err := c.client.SubmitFeedback(ctx, messageID, rating, ""); err != nil {
		c.feedback.Revert(ctx, messageID)
		c.listener.FeedbackChanged(messageID, "", false)
		return fmt.Errorf("submit feedback: %w", err)
	}

	c.client.TrackAsync(domain.EventFeedbackGiven, map[string]any{
		"message_id": messageID,
		"rating":     string(rating),
	})
	return nil
}

// History fetches the server-side transcript for the retained conversation
// id, for hosts that restore prior messages across reloads.
func (c *Conversation) History(ctx context.Context) ([]domain.Message, error) {
	messages, err := c.client.History(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetch history: %w", err)
	}
	return messages, nil
}

// Messages returns a copy of the conversation so far.
func (c *Conversation) Messages() []domain.Message {
	c.mu.Lock()
	defer c.mu.Unlock()

	out := make([]domain.Message, len(c.messages))
	copy(out, c.messages)
	return out
}

// Awaiting reports whether a send is in flight; the input surface stays
// disabled while true.
func (c *Conversation) Awaiting() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.awaiting
}

// LeadCollected reports whether a lead was accepted this conversation.
func (c *Conversation) LeadCollected() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.leadCollected
}

// ChatLocked reports whether the before-chat gate is still holding input.
func (c *Conversation) ChatLocked() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.chatLocked
}

// Reset clears history and conversation continuity, then re-issues the
// greeting. Lead state is conversation-scoped and resets with it.
func (c *Conversation) Reset() {
	c.mu.Lock()
	c.messages = nil
	c.leadCollected = false
	c.leadPrompted = false
	if lead := c.cfg.Lead; lead != nil && lead.Enabled && lead.Timing == domain.LeadTimingBeforeChat {
		c.chatLocked = true
		c.leadPrompted = true
	}
	c.mu.Unlock()

	c.client.ResetConversation()
	c.Greet()
}

func (c *Conversation) appendMessage(msg domain.Message) {
	c.mu.Lock()
	c.messages = append(c.messages, msg)
	c.mu.Unlock()
	c.listener.MessageAppended(msg)
}

func (c *Conversation) userMessageCountLocked() int {
	count := 0
	for _, msg := range c.messages {
		if msg.Role == domain.RoleUser {
			count++
		}
	}
	return count
}

func validateLead(lead *domain.LeadCaptureConfig, formData map[string]string, consentGiven bool) map[string]string {
	fieldErrors := map[string]string{}

	for _, field := range lead.Fields {
		value := strings.TrimSpace(formData[field.Name])

		if field.Required && value == "" {
			fieldErrors[field.Name] = field.Label + " is required"
			continue
		}
		if value == "" {
			continue
		}

		switch field.Type {
		case "email":
			if !emailPattern.MatchString(value) {
				fieldErrors[field.Name] = "Please enter a valid email"
			}
		case "tel":
			digits := digitPattern.ReplaceAllString(value, "")
			if !phonePattern.MatchString(value) || len(digits) < config.MinPhoneDigits {
				fieldErrors[field.Name] = "Please enter a valid phone number"
			}
		}
	}

	if lead.Consent.Require && !consentGiven {
		fieldErrors["consent"] = "You must agree to continue"
	}

	return fieldErrors
}

func fieldNames(formData map[string]string) []string {
	names := make([]string, 0, len(formData))
	for name := range formData {
		names = append(names, name)
	}
	return names
}
