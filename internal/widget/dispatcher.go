package widget

import (
	"context"
	"log/slog"
	"sync"

	"github.com/privexbot/widget/internal/domain"
	"github.com/privexbot/widget/internal/middleware"
)

// Command names accepted on the external surface.
const (
	CmdInit    = "init"
	CmdOpen    = "open"
	CmdClose   = "close"
	CmdToggle  = "toggle"
	CmdDestroy = "destroy"
	CmdReset   = "reset"
	CmdStatus  = "status"
)

type queuedCommand struct {
	name string
	args []any
}

// Dispatcher maps the external command protocol onto controller methods. It
// is the only boundary adapter: the controller itself holds no global state.
// Commands issued before initialization completes are queued and replayed in
// arrival order once the widget is ready; status and init bypass the queue.
type Dispatcher struct {
	ctrl *Controller
	exec middleware.CommandFunc

	mu    sync.Mutex
	queue []queuedCommand
}

func NewDispatcher(ctrl *Controller, mws ...middleware.Middleware) *Dispatcher {
	d := &Dispatcher{ctrl: ctrl}

	exec := middleware.CommandFunc(d.execute)
	for i := len(mws) - 1; i >= 0; i-- {
		exec = mws[i](exec)
	}
	d.exec = exec
	return d
}

// Dispatch runs one command.
func (d *Dispatcher) Dispatch(ctx context.Context, name string, args ...any) (any, error) {
	switch name {
	case CmdStatus:
		// Snapshot is always answerable, even before init.
		return d.exec(ctx, name, args)

	case CmdInit:
		result, err := d.exec(ctx, name, args)
		if err == nil && d.ctrl.Ready() {
			d.replayQueue(ctx)
		}
		return result, err

	default:
		if !d.ctrl.Ready() {
			d.mu.Lock()
			d.queue = append(d.queue, queuedCommand{name: name, args: args})
			d.mu.Unlock()
			slog.Debug("command queued until ready", "command", name)
			return nil, nil
		}
		return d.exec(ctx, name, args)
	}
}

func (d *Dispatcher) replayQueue(ctx context.Context) {
	d.mu.Lock()
	pending := d.queue
	d.queue = nil
	d.mu.Unlock()

	for _, cmd := range pending {
		if _, err := d.exec(ctx, cmd.name, cmd.args); err != nil {
			slog.Warn("replayed command failed", "command", cmd.name, "error", err)
		}
	}
}

func (d *Dispatcher) execute(ctx context.Context, name string, args []any) (any, error) {
	switch name {
	case CmdInit:
		return nil, d.ctrl.Init(ctx, initPayload(args))
	case CmdOpen:
		d.ctrl.Open(ctx)
		return nil, nil
	case CmdClose:
		d.ctrl.Close(ctx)
		return nil, nil
	case CmdToggle:
		d.ctrl.Toggle(ctx)
		return nil, nil
	case CmdReset:
		d.ctrl.Reset(ctx)
		return nil, nil
	case CmdDestroy:
		d.ctrl.Destroy()
		return nil, nil
	case CmdStatus:
		return d.ctrl.Status(), nil
	default:
		slog.Warn("unknown command", "command", name)
		return nil, domain.ErrUnknownCommand
	}
}

// initPayload supports both invocation shapes: init(config) and
// init(id, options).
func initPayload(args []any) any {
	if len(args) == 0 {
		return nil
	}

	if id, ok := args[0].(string); ok {
		payload := map[string]any{"id": id}
		if len(args) > 1 {
			if options, ok := args[1].(map[string]any); ok {
				payload["options"] = options
			}
		}
		return payload
	}

	return args[0]
}
