// Package cli implements the interactive daily-plan editor. Every edit goes
// through an autosave session: it is buffered locally, sent to the server
// after a quiet period and offered for restore after a crash.
package cli

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/iudanet/autosave/internal/client/autosync"
	"github.com/iudanet/autosave/internal/client/buffer"
	"github.com/iudanet/autosave/internal/client/connectivity"
	"github.com/iudanet/autosave/internal/client/exitguard"
	"github.com/iudanet/autosave/internal/client/iocli"
	"github.com/iudanet/autosave/internal/client/session"
	"github.com/iudanet/autosave/internal/client/status"
	"github.com/iudanet/autosave/internal/client/storage"
	"github.com/iudanet/autosave/internal/models"
)

// Remote доступ к серверу, которым пользуется редактор
type Remote interface {
	FetchSnapshot(ctx context.Context, surface, id string) (models.Entity, error)
	Health(ctx context.Context) error
}

// Deps зависимости редактора
type Deps struct {
	IO            iocli.IO
	Remote        Remote
	NewSaver      func(surface string) autosync.Saver
	Buffer        *buffer.Buffer
	Metadata      storage.MetadataStorage
	Logger        *slog.Logger
	Now           func() time.Time
	Session       session.Config
	SavedWindow   time.Duration
	ProbeInterval time.Duration
}

// Cli интерактивный редактор
type Cli struct {
	io            iocli.IO
	remote        Remote
	newSaver      func(surface string) autosync.Saver
	buffer        *buffer.Buffer
	metadata      storage.MetadataStorage
	logger        *slog.Logger
	now           func() time.Time
	watch         func(ctx context.Context, g *exitguard.Guard) <-chan exitguard.Event
	sessionCfg    session.Config
	savedWindow   time.Duration
	probeInterval time.Duration
}

// New creates the editor.
func New(deps Deps) *Cli {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	now := deps.Now
	if now == nil {
		now = time.Now
	}
	window := deps.SavedWindow
	if window <= 0 {
		window = status.DefaultSavedWindow
	}
	probe := deps.ProbeInterval
	if probe <= 0 {
		probe = connectivity.DefaultInterval
	}

	return &Cli{
		io:            deps.IO,
		remote:        deps.Remote,
		newSaver:      deps.NewSaver,
		buffer:        deps.Buffer,
		metadata:      deps.Metadata,
		logger:        logger,
		now:           now,
		sessionCfg:    deps.Session,
		savedWindow:   window,
		probeInterval: probe,
		watch: func(ctx context.Context, g *exitguard.Guard) <-chan exitguard.Event {
			return g.Watch(ctx, exitguard.DefaultUnloadSignals, exitguard.DefaultBackgroundSignals)
		},
	}
}

// Run executes one command.
func (c *Cli) Run(ctx context.Context, command string, args []string) error {
	switch command {
	case "edit":
		return c.runEdit(ctx, args)
	case "status":
		return c.runStatus(ctx, args)
	case "help":
		PrintUsage(c.io)
		return nil
	default:
		PrintUsage(c.io)
		return fmt.Errorf("unknown command: %s", command)
	}
}

// PrintUsage prints the command line help.
func PrintUsage(out iocli.IO) {
	out.Println("Autosave Client")
	out.Println()
	out.Println("Usage:")
	out.Println("  autosave-client [OPTIONS] COMMAND")
	out.Println()
	out.Println("Options:")
	out.Println("  -version                Show version information")
	out.Println("  -server URL             Server URL (default: http://localhost:8080)")
	out.Println("  -db PATH                Path to local database (default: autosave-client.db)")
	out.Println("  -fallback-db PATH       Path to local fallback database (default: autosave-client.sqlite)")
	out.Println("  -debounce DURATION      Quiet period before an edit is sent (default: 1s)")
	out.Println("  -log-level LEVEL        debug, info, warn, error (default: warn)")
	out.Println()
	out.Println("Commands:")
	out.Println("  edit [<surface>] <id>   Edit a daily plan with autosave (surface defaults to daily-plan)")
	out.Println("  status [<surface>] <id> Show last sync time and local backup of an entity")
	out.Println()
	out.Println("Examples:")
	out.Println("  autosave-client edit 2026-10-16")
	out.Println("  autosave-client -server https://example.com edit daily-plan 2026-10-16")
	out.Println("  autosave-client status 2026-10-16")
}
