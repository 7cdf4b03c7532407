package cli

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/iudanet/autosave/internal/client/autosync"
	"github.com/iudanet/autosave/internal/client/connectivity"
	"github.com/iudanet/autosave/internal/client/session"
	"github.com/iudanet/autosave/internal/client/status"
	"github.com/iudanet/autosave/internal/models"
	"github.com/iudanet/autosave/internal/validation"
)

// quitFlushTimeout сколько ждать сервер при выходе
const quitFlushTimeout = 5 * time.Second

// parseTarget разбирает [<surface>] <id>
func parseTarget(command string, args []string) (string, string, error) {
	var surface, id string
	switch len(args) {
	case 1:
		surface, id = SurfaceDailyPlan, args[0]
	case 2:
		surface, id = args[0], args[1]
	default:
		return "", "", fmt.Errorf("usage: autosave-client %s [<surface>] <id>", command)
	}

	if err := validation.ValidateSurface(surface); err != nil {
		return "", "", fmt.Errorf("invalid surface: %w", err)
	}
	if err := validation.ValidateEntityID(id); err != nil {
		return "", "", fmt.Errorf("invalid id: %w", err)
	}
	return surface, id, nil
}

func (c *Cli) runEdit(ctx context.Context, args []string) error {
	surface, id, err := parseTarget("edit", args)
	if err != nil {
		return err
	}

	remote, err := c.remote.FetchSnapshot(ctx, surface, id)
	if err != nil {
		return fmt.Errorf("failed to load %s/%s: %w", surface, id, err)
	}
	if _, err := decodePlan(remote); err != nil {
		return fmt.Errorf("failed to load %s/%s: %w", surface, id, err)
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	monitor := connectivity.NewMonitor(c.remote, c.probeInterval, c.logger)
	go monitor.Run(ctx)

	sess, offer := session.Open(ctx, session.Deps{
		Buffer:   c.buffer,
		Metadata: c.metadata,
		Saver:    c.newSaver(surface),
		Monitor:  monitor,
		Logger:   c.logger,
		Now:      c.now,
		Config:   c.sessionCfg,
	}, surface, remote)
	defer sess.Close()

	unsubscribe := sess.Subscribe(c.reportTransitions())
	defer unsubscribe()

	if offer != nil {
		c.offerRestore(ctx, offer)
	}

	c.showPlan(sess.Current())
	c.io.Println("Type 'help' for commands.")

	return c.editLoop(ctx, sess)
}

func (c *Cli) editLoop(ctx context.Context, sess *session.Session) error {
	events := c.watch(ctx, sess.Guard())
	lines, ack := c.readLines(ctx)
	confirming := false

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case ev, ok := <-events:
			if !ok {
				events = nil
				continue
			}
			if !ev.Confirm || confirming {
				c.io.Println()
				if sess.HasUnsavedChanges() {
					c.io.Println("Unsaved changes are kept locally and will be offered on the next edit.")
				}
				return nil
			}
			confirming = true
			c.io.Println()
			c.io.Println("⚠️  Unsaved changes were saved locally. Press Ctrl+C again to quit, or type 'quit' to save and exit.")

		case line, ok := <-lines:
			if !ok {
				// Конец ввода
				return c.quit(ctx, sess)
			}
			confirming = false
			done := c.handleLine(ctx, sess, line)
			if done {
				return c.quit(ctx, sess)
			}
			ack <- struct{}{}
		}
	}
}

// readLines читает ввод в отдельной горутине; следующая строка
// запрашивается только после подтверждения через ack
func (c *Cli) readLines(ctx context.Context) (<-chan string, chan<- struct{}) {
	lines := make(chan string)
	ack := make(chan struct{}, 1)

	go func() {
		defer close(lines)
		for {
			line, err := c.io.ReadInput("> ")
			if err != nil {
				return
			}
			select {
			case lines <- line:
			case <-ctx.Done():
				return
			}
			select {
			case <-ack:
			case <-ctx.Done():
				return
			}
		}
	}()

	return lines, ack
}

// handleLine выполняет одну команду; true означает выход
func (c *Cli) handleLine(ctx context.Context, sess *session.Session, line string) bool {
	command, arg := splitCommand(line)

	switch command {
	case "":
		return false
	case "quit", "exit", "q":
		return true
	case "help":
		c.io.Printf("%s", helpText)
	case "show":
		c.showPlan(sess.Current())
	case "status":
		c.showState(sess)
	case "save":
		// Успех и ошибку записи печатает reportTransitions
		err := sess.Save(ctx)
		switch {
		case errors.Is(err, autosync.ErrOffline):
			c.io.Println("Offline: the edit will be saved when the server is reachable.")
		case err != nil && sess.State().Status != models.StatusError:
			c.io.Printf("⚠️  Save failed: %v\n", err)
		}
	default:
		if err := c.edit(ctx, sess, command, arg); err != nil {
			c.io.Printf("Error: %v\n", err)
		}
	}
	return false
}

func (c *Cli) edit(ctx context.Context, sess *session.Session, command, arg string) error {
	current := sess.Current()
	plan, err := decodePlan(current)
	if err != nil {
		return err
	}

	changed, err := applyCommand(&plan, command, arg)
	if err != nil {
		if errors.Is(err, errUnknownCommand) {
			return fmt.Errorf("%w (type 'help' for commands)", err)
		}
		return err
	}
	if !changed {
		return nil
	}

	entity, err := encodePlan(current.ID, plan)
	if err != nil {
		return fmt.Errorf("failed to encode plan: %w", err)
	}
	return sess.Edit(ctx, entity)
}

// quit отправляет несохраненные изменения и завершает редактирование
func (c *Cli) quit(ctx context.Context, sess *session.Session) error {
	if !sess.HasUnsavedChanges() {
		return nil
	}

	c.io.Println("Saving…")
	flushCtx, cancel := context.WithTimeout(ctx, quitFlushTimeout)
	defer cancel()

	if err := sess.Blur(flushCtx); err != nil {
		c.io.Println("Changes are kept locally and will be offered on the next edit.")
	}
	return nil
}

func (c *Cli) offerRestore(ctx context.Context, offer *session.Offer) {
	c.io.Printf("Found unsaved changes from %s ago:\n", offer.Age.Round(time.Second))
	c.showPlan(offer.Payload)

	if !c.io.IsTerminal() {
		c.io.Println("Input is not a terminal; the recovered changes are discarded unless restored interactively.")
		return
	}

	answer, err := c.io.ReadInput("Restore them? [y/N]: ")
	if err == nil && isYes(answer) {
		if offer.Accept(ctx) {
			c.io.Println("✓ Restored; the changes will be saved to the server.")
		}
		return
	}

	offer.Dismiss()
	c.io.Println("Discarded the recovered changes.")
}

func isYes(answer string) bool {
	switch strings.ToLower(strings.TrimSpace(answer)) {
	case "y", "yes":
		return true
	}
	return false
}

func (c *Cli) showPlan(e models.Entity) {
	plan, err := decodePlan(e)
	if err != nil {
		c.io.Printf("Error: %v\n", err)
		return
	}
	if err := planTmpl.Execute(c.io, plan); err != nil {
		c.io.Printf("Error: %v\n", err)
	}
}

func (c *Cli) showState(sess *session.Session) {
	st := sess.State()
	label := status.Indicator(status.Snapshot{
		Status:       st.Status,
		LastSyncedAt: st.LastSyncedAt,
		LastError:    st.LastError,
	}, c.now(), c.savedWindow)
	if label == "" {
		label = st.Status.String()
	}

	c.io.Printf("Entity: %s/%s\n", sess.Surface(), sess.Current().ID)
	c.io.Printf("Status: %s\n", label)
	if st.LastSyncedAt != nil {
		c.io.Printf("Last synced: %s\n", st.LastSyncedAt.Local().Format(time.RFC3339))
	}
	if st.LastError != nil {
		c.io.Printf("Last error: %v\n", st.LastError)
	}
	if !st.IsOnline {
		c.io.Println("Offline: changes are kept locally until the server is reachable.")
	}
}

// reportTransitions печатает результат фоновых сохранений и смену связи
func (c *Cli) reportTransitions() func(session.State) {
	var (
		mu     sync.Mutex
		last   = models.StatusIdle
		online = true
	)

	return func(st session.State) {
		mu.Lock()
		defer mu.Unlock()

		if st.IsOnline != online {
			online = st.IsOnline
			if online {
				c.io.Println("✓ Server is reachable again")
			} else {
				c.io.Println("⚠️  Server is unreachable; edits are kept locally")
			}
		}

		if st.Status == last {
			return
		}
		last = st.Status

		switch st.Status {
		case models.StatusSaved:
			c.io.Println("✓ Saved")
		case models.StatusError:
			c.io.Printf("⚠️  Save failed: %v\n", st.LastError)
		}
	}
}
