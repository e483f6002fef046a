package model

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

var (
	// ErrInvalidRange is returned when a window ends before it starts.
	// It is a caller bug and must be surfaced, not swallowed.
	ErrInvalidRange = errors.New("invalid range: end is before start")

	ErrUnknownGranularity = errors.New("unknown granularity")
)

// Granularity is the calendar view a window is resolved for.
type Granularity uint8

const (
	GranularityMonth Granularity = iota
	GranularityWeek
	GranularityDay
	GranularityAgenda
)

var granularityNames = [...]string{
	GranularityMonth:  "month",
	GranularityWeek:   "week",
	GranularityDay:    "day",
	GranularityAgenda: "agenda",
}

func (g Granularity) String() string {
	if int(g) < len(granularityNames) {
		return granularityNames[g]
	}
	return fmt.Sprintf("granularity(%d)", uint8(g))
}

func ParseGranularity(s string) (Granularity, error) {
	key := strings.ToLower(strings.TrimSpace(s))
	for i, name := range granularityNames {
		if name == key {
			return Granularity(i), nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownGranularity, s)
}

func (g Granularity) MarshalText() ([]byte, error) { return []byte(g.String()), nil }

func (g *Granularity) UnmarshalText(b []byte) error {
	v, err := ParseGranularity(string(b))
	if err != nil {
		return err
	}
	*g = v
	return nil
}

// ViewWindow is an inclusive [Start, End] range bounding a query.
type ViewWindow struct {
	Start       time.Time   `json:"start"`
	End         time.Time   `json:"end"`
	Granularity Granularity `json:"granularity"`
}

// NewViewWindow builds a window and rejects End < Start.
func NewViewWindow(start, end time.Time, g Granularity) (ViewWindow, error) {
	w := ViewWindow{Start: start, End: end, Granularity: g}
	if err := w.Validate(); err != nil {
		return ViewWindow{}, err
	}
	return w, nil
}

func (w ViewWindow) Validate() error {
	if w.End.Before(w.Start) {
		return fmt.Errorf("%w (start=%s end=%s)", ErrInvalidRange,
			w.Start.Format(time.RFC3339), w.End.Format(time.RFC3339))
	}
	return nil
}

// Contains reports whether t lies within the window, both ends inclusive.
func (w ViewWindow) Contains(t time.Time) bool {
	return !t.Before(w.Start) && !t.After(w.End)
}
