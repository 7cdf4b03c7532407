// Package restore decides, at the start of an edit session, whether a local
// backup is worth offering to the user instead of the freshly loaded remote
// state.
package restore

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/iudanet/autosave/internal/models"
)

// DefaultMaxAge бэкапы старше этого возраста не предлагаются
const DefaultMaxAge = time.Hour

// Buffer is the part of the local durability buffer the reconciler needs.
type Buffer interface {
	Load(ctx context.Context, key string) *models.LocalBackup
	Clear(ctx context.Context, key string)
}

// Reconciler runs at most once per key.
type Reconciler struct {
	buffer Buffer
	logger *slog.Logger
	now    func() time.Time

	mu   sync.Mutex
	seen map[string]struct{}
}

// Option настраивает Reconciler.
type Option func(*Reconciler)

// WithClock подменяет источник времени для расчета возраста бэкапа.
func WithClock(now func() time.Time) Option {
	return func(r *Reconciler) {
		r.now = now
	}
}

// New creates a reconciler over buffer.
func New(buffer Buffer, logger *slog.Logger, opts ...Option) *Reconciler {
	r := &Reconciler{
		buffer: buffer,
		logger: logger,
		now:    time.Now,
		seen:   make(map[string]struct{}),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Reconcile compares the backup under key with remote. It returns an offer
// when the backup is at most maxAge old and differs from remote; otherwise
// the backup is deleted and nil is returned. A non-positive maxAge disables
// the age check. Only the first call for a key does any work.
func (r *Reconciler) Reconcile(ctx context.Context, key string, remote models.Entity, maxAge time.Duration) *Offer {
	r.mu.Lock()
	if _, ok := r.seen[key]; ok {
		r.mu.Unlock()
		return nil
	}
	r.seen[key] = struct{}{}
	r.mu.Unlock()

	backup := r.buffer.Load(ctx, key)
	if backup == nil {
		return nil
	}

	savedAt, err := backup.SavedAt()
	if err != nil {
		r.logger.Warn("Discarding backup with unreadable timestamp", "key", key, "error", err)
		r.buffer.Clear(ctx, key)
		return nil
	}

	// Часы могли уйти назад; такой бэкап считаем свежим
	age := r.now().Sub(savedAt)
	if age < 0 {
		age = 0
	}

	if maxAge > 0 && age > maxAge {
		r.logger.Info("Discarding stale backup", "key", key, "age", age.String())
		r.buffer.Clear(ctx, key)
		return nil
	}

	if models.PayloadEqual(backup.Payload, remote.Payload) {
		r.logger.Debug("Discarding backup identical to remote state", "key", key)
		r.buffer.Clear(ctx, key)
		return nil
	}

	r.logger.Info("Offering restore of unsaved edit", "key", key, "entity_id", backup.EntityID, "age", age.String())

	return &Offer{
		Payload: backup.Entity(),
		Age:     age,
		SavedAt: savedAt,
		clear: func() {
			r.buffer.Clear(context.WithoutCancel(ctx), key)
		},
	}
}

// Offer is a pending restore decision. Whichever of Accept and Dismiss is
// called first resolves it; later calls are no-ops.
type Offer struct {
	SavedAt time.Time
	clear   func()
	Payload models.Entity
	Age     time.Duration

	mu       sync.Mutex
	resolved bool
	accepted bool
}

// Accept resolves the offer in favour of the backup. It returns the payload
// and true if this call resolved the offer. The backup stays in place until
// the restored state is synced.
func (o *Offer) Accept() (models.Entity, bool) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.resolved {
		return models.Entity{}, false
	}
	o.resolved = true
	o.accepted = true
	return o.Payload.Clone(), true
}

// Dismiss resolves the offer in favour of the remote state and deletes the backup.
// It reports whether this call resolved the offer.
func (o *Offer) Dismiss() bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.resolved {
		return false
	}
	o.resolved = true
	if o.clear != nil {
		o.clear()
	}
	return true
}

// Resolved reports whether Accept or Dismiss has been called.
func (o *Offer) Resolved() bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.resolved
}

// Accepted reports whether the offer was accepted.
func (o *Offer) Accepted() bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.accepted
}
