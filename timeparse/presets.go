package timeparse

import (
	"errors"
	"time"
)

var (
	// ErrCustomPreset means the user wants to type the time instead.
	ErrCustomPreset  = errors.New("custom preset requires typed input")
	ErrUnknownPreset = errors.New("unknown preset")
)

type Preset string

const (
	PresetNow        Preset = "now"
	PresetToday08    Preset = "today_08"
	PresetToday13    Preset = "today_13"
	PresetTomorrow08 Preset = "tomorrow_08"
	PresetCustom     Preset = "custom"
)

// Presets in the order they are offered as buttons.
var Presets = []Preset{PresetNow, PresetToday08, PresetToday13, PresetTomorrow08, PresetCustom}

func (p Preset) Label() string {
	switch p {
	case PresetNow:
		return "Now"
	case PresetToday08:
		return "Today 08:00"
	case PresetToday13:
		return "Today 13:00"
	case PresetTomorrow08:
		return "Tomorrow 08:00"
	case PresetCustom:
		return "Custom…"
	}
	return string(p)
}

// ResolvePreset computes the preset against now, which must be the moment the
// button was pressed.
func (r *Resolver) ResolvePreset(p Preset, now time.Time) (time.Time, error) {
	now = now.In(r.loc)
	switch p {
	case PresetNow:
		return now.Truncate(time.Minute), nil
	case PresetToday08:
		return atClock(now, 0, 8, 0), nil
	case PresetToday13:
		return atClock(now, 0, 13, 0), nil
	case PresetTomorrow08:
		return atClock(now, 1, 8, 0), nil
	case PresetCustom:
		return time.Time{}, ErrCustomPreset
	}
	return time.Time{}, ErrUnknownPreset
}
