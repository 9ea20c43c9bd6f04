package main

import (
	"bufio"
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/redis/go-redis/v9"

	"github.com/privexbot/widget/internal/config"
	"github.com/privexbot/widget/internal/domain"
	"github.com/privexbot/widget/internal/middleware"
	"github.com/privexbot/widget/internal/service"
	"github.com/privexbot/widget/internal/storage"
	"github.com/privexbot/widget/internal/widget"
)

func main() {
	// Setup structured logging
	level := new(slog.LevelVar)
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))
	slog.SetDefault(logger)

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	if cfg.Debug {
		level.Set(slog.LevelDebug)
	}

	// Setup context with graceful shutdown
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Build the persistent store for session continuity
	store, err := buildStore(ctx, cfg)
	if err != nil {
		slog.Error("failed to build store", "error", err, "driver", cfg.StorageDriver)
		os.Exit(1)
	}
	defer store.Close()

	// Feedback state is browsing-session scoped
	sessionStore, _ := storage.NewStore(storage.StoreTypeMemory)

	ctrl := widget.New(widget.Deps{
		PersistentStore: store,
		SessionStore:    sessionStore,
		Host: domain.HostInfo{
			URL:       cfg.PageURL,
			UserAgent: cfg.UserAgent,
		},
		Listener: &consoleListener{},
	})

	dispatcher := widget.NewDispatcher(ctrl,
		middleware.Recover(),
		middleware.Logging(),
	)

	initPayload := map[string]any{
		"id":      cfg.BotID,
		"apiKey":  cfg.APIKey,
		"baseURL": cfg.BaseURL,
		"options": map[string]any{
			"greeting": cfg.Greeting,
			"botName":  cfg.BotName,
			"color":    cfg.Color,
		},
	}
	if _, err := dispatcher.Dispatch(ctx, widget.CmdInit, initPayload); err != nil {
		slog.Error("failed to initialize widget", "error", err)
		os.Exit(1)
	}
	dispatcher.Dispatch(ctx, widget.CmdOpen)

	runConsole(ctx, dispatcher, ctrl)

	slog.Info("widget host stopped")
}

func buildStore(ctx context.Context, cfg *config.Config) (storage.Store, error) {
	switch storage.StoreType(cfg.StorageDriver) {
	case storage.StoreTypeRedis:
		client := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		return storage.NewStore(storage.StoreTypeRedis, storage.WithRedisClient(client))

	case storage.StoreTypePostgres:
		pool, err := storage.NewPool(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, err
		}
		if err := storage.RunMigrations(cfg.DatabaseURL); err != nil {
			pool.Close()
			return nil, err
		}
		return storage.NewStore(storage.StoreTypePostgres, storage.WithPostgresPool(pool))

	default:
		return storage.NewStore(storage.StoreTypeMemory)
	}
}

func runConsole(ctx context.Context, dispatcher *widget.Dispatcher, ctrl *widget.Controller) {
	fmt.Println("Type a message, or /open /close /toggle /reset /status /skip /history /lead k=v... /quit")

	scanner := bufio.NewScanner(os.Stdin)
	for scanner.Scan() {
		if ctx.Err() != nil {
			return
		}

		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		if !strings.HasPrefix(line, "/") {
			conv := ctrl.Conversation()
			if conv == nil {
				continue
			}
			if err := conv.SendMessage(ctx, line); err != nil {
				fmt.Println("!", err)
			}
			continue
		}

		parts := strings.Fields(line[1:])
		switch parts[0] {
		case "quit":
			return
		case "status":
			result, _ := dispatcher.Dispatch(ctx, widget.CmdStatus)
			fmt.Printf("%+v\n", result)
		case "skip":
			if conv := ctrl.Conversation(); conv != nil {
				conv.SkipLead()
			}
		case "history":
			if conv := ctrl.Conversation(); conv != nil {
				printHistory(ctx, conv)
			}
		case "lead":
			submitLead(ctx, ctrl, parts[1:])
		default:
			if _, err := dispatcher.Dispatch(ctx, parts[0]); err != nil {
				fmt.Println("!", err)
			}
		}
	}
}

func printHistory(ctx context.Context, conv *service.Conversation) {
	history, err := conv.History(ctx)
	if err != nil {
		fmt.Println("!", domain.AsAPIError(err).UserMessage())
		return
	}
	for _, msg := range history {
		fmt.Printf("[%s] %s\n", msg.Role, msg.Content)
	}
}

func submitLead(ctx context.Context, ctrl *widget.Controller, pairs []string) {
	conv := ctrl.Conversation()
	if conv == nil {
		return
	}

	formData := map[string]string{}
	for _, pair := range pairs {
		if key, value, ok := strings.Cut(pair, "="); ok {
			formData[key] = value
		}
	}

	fieldErrors, err := conv.SubmitLead(ctx, formData, true)
	if err != nil {
		fmt.Println("!", domain.AsAPIError(err).UserMessage())
		return
	}
	for field, msg := range fieldErrors {
		fmt.Printf("! %s: %s\n", field, msg)
	}
}

// consoleListener renders conversation state changes on stdout; it stands in
// for the DOM presentation layer.
type consoleListener struct{}

func (consoleListener) MessageAppended(msg domain.Message) {
	fmt.Printf("[%s] %s\n", msg.Role, msg.Content)
}

func (consoleListener) TypingChanged(active bool) {
	if active {
		fmt.Println("[bot] ...")
	}
}

func (consoleListener) LeadGateTriggered(lead *domain.LeadCaptureConfig) {
	fmt.Printf("[form] %s — fields:", lead.Title)
	for _, field := range lead.Fields {
		fmt.Printf(" %s", field.Name)
		if field.Required {
			fmt.Print("*")
		}
	}
	fmt.Println()
}

func (consoleListener) FeedbackChanged(messageID string, rating domain.Rating, rated bool) {
	if rated {
		fmt.Printf("[feedback] %s: %s\n", messageID, rating)
	} else {
		fmt.Printf("[feedback] %s: reverted\n", messageID)
	}
}

var _ service.Listener = (*consoleListener)(nil)
