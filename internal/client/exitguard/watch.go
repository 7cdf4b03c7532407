package exitguard

import (
	"context"
	"os"
	"os/signal"
	"slices"
)

// Event is reported for every unload signal received by Watch.
type Event struct {
	Signal os.Signal
	// Confirm true если были несохраненные изменения и хост должен переспросить пользователя
	Confirm bool
}

// Watch maps OS signals onto the guard until ctx is done. Unload signals are
// reported on the returned channel; background signals are handled in place.
// The channel is closed when ctx is done.
func (g *Guard) Watch(ctx context.Context, unload, background []os.Signal) <-chan Event {
	events := make(chan Event, 1)
	if len(unload)+len(background) == 0 {
		close(events)
		return events
	}

	sigCh := make(chan os.Signal, 4)
	signal.Notify(sigCh, append(slices.Clone(unload), background...)...)

	go func() {
		defer close(events)
		defer signal.Stop(sigCh)

		for {
			select {
			case <-ctx.Done():
				return
			case sig := <-sigCh:
				if slices.Contains(background, sig) {
					g.HandleBackground()
					afterBackground(sig)
					continue
				}

				ev := Event{Signal: sig, Confirm: g.HandleUnload()}
				select {
				case events <- ev:
				case <-ctx.Done():
					return
				}
			}
		}
	}()

	return events
}
