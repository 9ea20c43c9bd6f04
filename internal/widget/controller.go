package widget

import (
	"context"
	"log/slog"
	"sync"

	"github.com/privexbot/widget/internal/domain"
	"github.com/privexbot/widget/internal/service"
	"github.com/privexbot/widget/internal/storage"
)

// LifecycleState tracks initialization progress. The open/closed flag is
// orthogonal and only meaningful once Ready.
type LifecycleState string

const (
	StateUninitialized LifecycleState = "uninitialized"
	StateInitializing  LifecycleState = "initializing"
	StateReady         LifecycleState = "ready"
)

// Status is a side-effect-free snapshot of the widget.
type Status struct {
	Initialized bool   `json:"initialized"`
	IsOpen      bool   `json:"isOpen"`
	SessionID   string `json:"sessionId"`
}

// Deps contains everything a Controller needs from its host. Stores default
// to in-memory when absent so a host without persistence still works.
type Deps struct {
	// PersistentStore survives reloads; holds one session-id entry per
	// bot id.
	PersistentStore storage.Store

	// SessionStore is browsing-session scoped; holds feedback state.
	SessionStore storage.Store

	Host     domain.HostInfo
	Listener service.Listener
}

// Controller is the top-level lifecycle state machine behind the command
// surface. It owns no rendering and no global state; the host reaches it
// through a Dispatcher.
type Controller struct {
	deps Deps

	mu       sync.Mutex
	state    LifecycleState
	isOpen   bool
	cfg      domain.WidgetConfig
	identity *service.Identity
	client   *service.Client
	feedback *service.FeedbackStore
	conv     *service.Conversation
}

func New(deps Deps) *Controller {
	if deps.PersistentStore == nil {
		deps.PersistentStore, _ = storage.NewStore(storage.StoreTypeMemory)
	}
	if deps.SessionStore == nil {
		deps.SessionStore, _ = storage.NewStore(storage.StoreTypeMemory)
	}
	if deps.Listener == nil {
		deps.Listener = service.NopListener{}
	}
	return &Controller{deps: deps, state: StateUninitialized}
}

// Init resolves configuration, best-effort fetches the server config and
// constructs the conversation surface. A second call after a successful
// initialization is a warning no-op; missing identity or base URL rejects
// without changing state.
func (c *Controller) Init(ctx context.Context, rawConfig any) error {
	c.mu.Lock()
	if c.state != StateUninitialized {
		c.mu.Unlock()
		slog.Warn("widget already initialized")
		return nil
	}
	c.state = StateInitializing
	c.mu.Unlock()

	localCfg := service.NormalizeInit(rawConfig)
	cfg := service.Finalize(localCfg)

	if cfg.BotID == "" {
		slog.Error("init rejected", "error", domain.ErrMissingBotID)
		c.setState(StateUninitialized)
		return domain.ErrMissingBotID
	}
	if cfg.BaseURL == "" {
		slog.Error("init rejected", "error", domain.ErrMissingBaseURL)
		c.setState(StateUninitialized)
		return domain.ErrMissingBaseURL
	}

	identity := service.NewIdentity(c.deps.PersistentStore, cfg.BotID, c.deps.Host)
	identity.GetOrCreate(ctx)
	client := service.NewClient(cfg, identity)

	// Server config is an optional endpoint: a failed fetch leaves the
	// local config intact.
	if serverCfg, err := client.FetchConfig(ctx); err != nil {
		slog.Debug("using local config only", "error", err)
	} else {
		cfg = service.Finalize(service.MergeServerConfig(localCfg, serverCfg))
	}

	feedback := service.NewFeedbackStore(ctx, c.deps.SessionStore, cfg.BotID)
	meta := service.BuildPageMetadata(c.deps.Host)
	conv := service.NewConversation(cfg, client, identity, feedback, c.deps.Listener, meta)
	conv.Greet()

	c.mu.Lock()
	c.cfg = cfg
	c.identity = identity
	c.client = client
	c.feedback = feedback
	c.conv = conv
	c.state = StateReady
	c.mu.Unlock()

	client.TrackAsync(domain.EventWidgetLoaded, map[string]any{"url": c.deps.Host.URL})
	slog.Info("widget initialized", "bot_id", cfg.BotID, "session_id", identity.Current())
	return nil
}

// Open shows the widget. No-op when already open or not ready.
func (c *Controller) Open(ctx context.Context) {
	c.mu.Lock()
	if c.state != StateReady || c.isOpen {
		c.mu.Unlock()
		return
	}
	c.isOpen = true
	client := c.client
	c.mu.Unlock()

	client.TrackAsync(domain.EventWidgetOpened, nil)
}

// Close hides the widget. No-op when already closed or not ready.
func (c *Controller) Close(ctx context.Context) {
	c.mu.Lock()
	if c.state != StateReady || !c.isOpen {
		c.mu.Unlock()
		return
	}
	c.isOpen = false
	client := c.client
	c.mu.Unlock()

	client.TrackAsync(domain.EventWidgetClosed, nil)
}

// Toggle flips between open and closed.
func (c *Controller) Toggle(ctx context.Context) {
	c.mu.Lock()
	open := c.isOpen
	c.mu.Unlock()

	if open {
		c.Close(ctx)
	} else {
		c.Open(ctx)
	}
}

// Reset clears conversation history, re-issues the greeting and rotates the
// session identifier.
func (c *Controller) Reset(ctx context.Context) {
	c.mu.Lock()
	if c.state != StateReady {
		c.mu.Unlock()
		return
	}
	conv, identity := c.conv, c.identity
	c.mu.Unlock()

	conv.Reset()
	identity.Reset(ctx)
}

// Destroy tears down all owned resources and returns to Uninitialized. The
// stores belong to the host and stay open.
func (c *Controller) Destroy() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.state = StateUninitialized
	c.isOpen = false
	c.cfg = domain.WidgetConfig{}
	c.identity = nil
	c.client = nil
	c.feedback = nil
	c.conv = nil
}

// Status returns a snapshot without side effects.
func (c *Controller) Status() Status {
	c.mu.Lock()
	defer c.mu.Unlock()

	sessionID := ""
	if c.identity != nil {
		sessionID = c.identity.Current()
	}
	return Status{
		Initialized: c.state == StateReady,
		IsOpen:      c.isOpen,
		SessionID:   sessionID,
	}
}

// Ready reports whether initialization has completed.
func (c *Controller) Ready() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state == StateReady
}

// Config returns the resolved widget configuration.
func (c *Controller) Config() domain.WidgetConfig {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.cfg
}

// Conversation exposes the conversation surface to the presentation layer.
// Nil until Ready.
func (c *Controller) Conversation() *service.Conversation {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.conv
}

func (c *Controller) setState(state LifecycleState) {
	c.mu.Lock()
	c.state = state
	c.mu.Unlock()
}
