package status

import (
	"time"

	"github.com/iudanet/autosave/internal/models"
)

// DefaultSavedWindow сколько индикатор показывает "Saved" после успешной записи
const DefaultSavedWindow = 2 * time.Second

// Indicator labels.
const (
	LabelNone   = ""
	LabelSaving = "Saving…"
	LabelSaved  = "Saved"
	LabelFailed = "Save failed"
)

// Indicator renders the label a UI shows for snap at now. The saved label
// reverts to neutral once window has passed since LastSyncedAt; the machine
// itself stays in saved.
func Indicator(snap Snapshot, now time.Time, window time.Duration) string {
	switch snap.Status {
	case models.StatusSaving:
		return LabelSaving
	case models.StatusError:
		return LabelFailed
	case models.StatusSaved:
		if snap.LastSyncedAt == nil || now.Sub(*snap.LastSyncedAt) < window {
			return LabelSaved
		}
		return LabelNone
	default:
		return LabelNone
	}
}
