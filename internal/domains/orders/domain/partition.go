package domain

import (
	"fmt"
	"time"
)

// StorageWindow is the half-open UTC range [Start, End) of one calendar
// month. Orders are stored in monthly segments keyed by these windows.
type StorageWindow struct {
	Start time.Time
	End   time.Time
}

// WindowFor maps an instant to its storage window. Total and pure: every
// instant belongs to exactly one window.
func WindowFor(t time.Time) StorageWindow {
	t = t.UTC()
	start := time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
	return StorageWindow{Start: start, End: start.AddDate(0, 1, 0)}
}

// Contains reports whether the instant falls inside the window.
func (w StorageWindow) Contains(t time.Time) bool {
	t = t.UTC()
	return !t.Before(w.Start) && t.Before(w.End)
}

// Next returns the following month's window.
func (w StorageWindow) Next() StorageWindow {
	return StorageWindow{Start: w.End, End: w.End.AddDate(0, 1, 0)}
}

// Suffix is the segment name suffix for the window, digits only so it can be
// embedded in a relation name.
func (w StorageWindow) Suffix() string {
	return fmt.Sprintf("p%04d%02d", w.Start.Year(), int(w.Start.Month()))
}

func (w StorageWindow) String() string {
	return fmt.Sprintf("[%s, %s)", w.Start.Format("2006-01-02"), w.End.Format("2006-01-02"))
}
