// Package timeparse turns colloquial or typed time phrases into absolute
// timestamps. Phrases may be English or Indonesian ("jam 9 pagi", "besok",
// "hari ini jam 14:30").
package timeparse

import (
	"errors"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/araddon/dateparse"
	"github.com/olebedev/when"
	"github.com/olebedev/when/rules/common"
	"github.com/olebedev/when/rules/en"
)

var ErrUnrecognizedTime = errors.New("unrecognized time")

// CustomLayout is the canonical typed stamp accepted in strict custom mode.
const CustomLayout = "2006-01-02 15:04"

type Mode int

const (
	// ModeNatural accepts free phrases and biases results forward in time.
	ModeNatural Mode = iota
	// ModeStrictCustom accepts typed absolute stamps only.
	ModeStrictCustom
)

// Resolution is the outcome of a successful Resolve.
//
// When Passed is set, At is today's candidate which has already elapsed and
// the phrase said "today" explicitly. The caller has to ask before moving it
// to tomorrow.
type Resolution struct {
	At     time.Time
	Passed bool
}

// naturalParser is the forward-biased fallback; *when.Parser satisfies it.
type naturalParser interface {
	Parse(text string, base time.Time) (*when.Result, error)
}

type Resolver struct {
	loc *time.Location
	nl  naturalParser
}

func NewResolver(loc *time.Location) *Resolver {
	if loc == nil {
		loc = time.Local
	}
	w := when.New(nil)
	w.Add(en.All...)
	w.Add(common.All...)
	return &Resolver{loc: loc, nl: w}
}

func (r *Resolver) Location() *time.Location {
	return r.loc
}

const meridiemAlt = `pagi|siang|sore|malam|morning|noon|afternoon|evening|am|pm`

var (
	canonicalRe    = regexp.MustCompile(`\b(\d{4}-\d{2}-\d{2} \d{1,2}:\d{2})\b`)
	prefixedHourRe = regexp.MustCompile(`\b(?:jam|pukul|pkl|at)\s*(\d{1,2})(?:[:.](\d{2}))?(?:\s*(` + meridiemAlt + `)\b)?`)
	meridiemHourRe = regexp.MustCompile(`\b(\d{1,2})(?:[:.](\d{2}))?\s*(` + meridiemAlt + `)\b`)
	clockRe        = regexp.MustCompile(`\b(\d{1,2})[:.](\d{2})\b`)
	// Period words that may appear apart from the hour ("malam ini jam 8"),
	// or stand in for it ("besok pagi").
	loosePeriodRe = regexp.MustCompile(`\b(pagi|siang|sore|malam|morning|noon|afternoon|evening|tonight)\b`)

	todayRe = regexp.MustCompile(`\b(hari ini|today|malam ini|tonight)\b`)
)

// Hour used when a period word is the only time of day given.
var periodHours = map[string]int{
	"pagi": 8, "morning": 8,
	"siang": 12, "noon": 12,
	"sore": 15, "afternoon": 15,
	"malam": 20, "evening": 20, "tonight": 20,
}

// Relative-day markers, longest first so "day after tomorrow" wins over "tomorrow".
var dayOffsets = []struct {
	re   *regexp.Regexp
	days int
}{
	{regexp.MustCompile(`\b(lusa|day after tomorrow)\b`), 2},
	{regexp.MustCompile(`\b(besok|tomorrow|tmr)\b`), 1},
	{regexp.MustCompile(`\b(minggu depan|next week)\b`), 7},
}

const durationUnits = `jam|hours?|hrs?|menit|minutes?|mins?|detik|seconds?|secs?|hari|days?|minggu|weeks?`

var (
	durationPairRe = regexp.MustCompile(`(\d+)\s*(` + durationUnits + `)\b`)
	durationList   = `\d+\s*(?:` + durationUnits + `)(?:(?:\s*,\s*|\s+(?:dan|and)\s+|\s+)\d+\s*(?:` + durationUnits + `))*`
	durationRe     = regexp.MustCompile(`^(?:dalam|in)\s+(` + durationList + `)$|^(` + durationList + `)\s+(?:lagi|from now)$`)
	// A phrase that opens like a duration but carries more than unit pairs.
	durationLeadRe = regexp.MustCompile(`^(?:dalam|in)\s+\d+\s*(?:` + durationUnits + `)\b`)
)

var normalizers = []struct {
	re   *regexp.Regexp
	repl string
}{
	{regexp.MustCompile(`\b(lusa|day after tomorrow)\b`), "in 2 days"},
	{regexp.MustCompile(`\bbesok\b`), "tomorrow"},
	{regexp.MustCompile(`\b(nanti malam|malam ini)\b`), "tonight"},
	{regexp.MustCompile(`\bpagi\b`), "morning"},
	{regexp.MustCompile(`\bsiang\b`), "noon"},
	{regexp.MustCompile(`\bsore\b`), "afternoon"},
	{regexp.MustCompile(`\bmalam\b`), "evening"},
	{regexp.MustCompile(`\b(minggu depan|next week)\b`), "in 1 week"},
	{regexp.MustCompile(`\bhari ini\b`), "today"},
	{regexp.MustCompile(`\b(nanti|later)\b`), "in 1 hour"},
}

// Resolve turns phrase into an absolute time relative to now.
func (r *Resolver) Resolve(phrase string, now time.Time, mode Mode) (Resolution, error) {
	phrase = strings.TrimSpace(phrase)
	if phrase == "" {
		return Resolution{}, ErrUnrecognizedTime
	}
	now = now.In(r.loc)

	if mode == ModeStrictCustom {
		at, err := r.resolveCustom(phrase)
		if err != nil {
			return Resolution{}, err
		}
		return Resolution{At: at}, nil
	}
	return r.resolveNatural(phrase, now)
}

func (r *Resolver) resolveCustom(phrase string) (time.Time, error) {
	if t, err := time.ParseInLocation(CustomLayout, phrase, r.loc); err == nil {
		return t, nil
	}
	if t, err := dateparse.ParseIn(phrase, r.loc); err == nil {
		return t, nil
	}
	return time.Time{}, ErrUnrecognizedTime
}

func (r *Resolver) resolveNatural(phrase string, now time.Time) (Resolution, error) {
	lower := strings.ToLower(phrase)

	// A full stamp is unambiguous and bypasses the forward bias.
	if m := canonicalRe.FindString(lower); m != "" {
		if t, err := time.ParseInLocation(CustomLayout, m, r.loc); err == nil {
			return Resolution{At: t}, nil
		}
	}

	if d, ok, err := scanDuration(lower); err != nil {
		return Resolution{}, err
	} else if ok {
		return Resolution{At: now.Add(d)}, nil
	}

	day, rest, err := scanDay(lower, now)
	if err != nil {
		return Resolution{}, err
	}

	hour, minute, ok := scanClock(rest)
	if !ok {
		hour, ok = periodHour(rest)
	}
	if ok {
		if day != nil {
			return Resolution{At: day.at(now, hour, minute)}, nil
		}
		if days := dayOffset(lower); days > 0 {
			return Resolution{At: atClock(now, days, hour, minute)}, nil
		}
		candidate := atClock(now, 0, hour, minute)
		switch {
		case candidate.After(now):
			return Resolution{At: candidate}, nil
		case todayRe.MatchString(lower):
			return Resolution{At: candidate, Passed: true}, nil
		default:
			return Resolution{At: candidate.AddDate(0, 0, 1)}, nil
		}
	}
	if day != nil {
		return Resolution{At: day.at(now, now.Hour(), now.Minute())}, nil
	}

	if t, ok := r.parseNatural(normalize(lower), now); ok {
		if t.Before(now) && dayOffset(lower) == 0 {
			t = t.AddDate(0, 0, 1)
		}
		return Resolution{At: t}, nil
	}
	if t, ok := r.parseNatural(phrase, now); ok {
		return Resolution{At: t}, nil
	}
	return Resolution{}, ErrUnrecognizedTime
}

func (r *Resolver) parseNatural(text string, now time.Time) (time.Time, bool) {
	res, err := r.nl.Parse(text, now)
	if err != nil || res == nil {
		return time.Time{}, false
	}
	return res.Time.In(r.loc), true
}

// scanDuration sums every "N unit" pair of a "dalam ..." / "in ..." /
// "... lagi" phrase. A phrase that opens like a duration but does not parse
// completely is rejected rather than cut short.
func scanDuration(lower string) (time.Duration, bool, error) {
	lower = strings.TrimSpace(lower)
	if lower == "nanti" || lower == "later" {
		return time.Hour, true, nil
	}
	if !durationRe.MatchString(lower) {
		if durationLeadRe.MatchString(lower) {
			return 0, false, ErrUnrecognizedTime
		}
		return 0, false, nil
	}

	var total time.Duration
	for _, m := range durationPairRe.FindAllStringSubmatch(lower, -1) {
		n, err := strconv.Atoi(m[1])
		if err != nil {
			return 0, false, ErrUnrecognizedTime
		}
		total += time.Duration(n) * unitOf(m[2])
	}
	return total, true, nil
}

func unitOf(unit string) time.Duration {
	switch {
	case unit == "minggu" || strings.HasPrefix(unit, "week"):
		return 7 * 24 * time.Hour
	case unit == "hari" || strings.HasPrefix(unit, "day"):
		return 24 * time.Hour
	case unit == "jam" || strings.HasPrefix(unit, "h"):
		return time.Hour
	case unit == "menit" || strings.HasPrefix(unit, "min"):
		return time.Minute
	default:
		return time.Second
	}
}

func periodHour(lower string) (int, bool) {
	p := loosePeriodRe.FindString(lower)
	if p == "" {
		return 0, false
	}
	return periodHours[p], true
}

// scanClock finds an explicit hour[:minute] and applies the meridiem.
func scanClock(lower string) (hour, minute int, ok bool) {
	var m []string
	for _, re := range []*regexp.Regexp{prefixedHourRe, meridiemHourRe, clockRe} {
		if m = re.FindStringSubmatch(lower); m != nil {
			break
		}
	}
	if m == nil {
		return 0, 0, false
	}

	hour, err := strconv.Atoi(m[1])
	if err != nil {
		return 0, 0, false
	}
	if len(m) > 2 && m[2] != "" {
		if minute, err = strconv.Atoi(m[2]); err != nil {
			return 0, 0, false
		}
	}
	if hour > 23 || minute > 59 {
		return 0, 0, false
	}

	meridiem := ""
	if len(m) > 3 {
		meridiem = m[3]
	}
	if meridiem == "" {
		if p := loosePeriodRe.FindString(lower); p != "" {
			meridiem = p
		}
	}
	return applyMeridiem(hour, meridiem), minute, true
}

func applyMeridiem(hour int, meridiem string) int {
	switch meridiem {
	case "pagi", "morning":
		if hour == 12 {
			return 0
		}
	case "siang", "noon", "sore", "afternoon", "malam", "evening", "tonight":
		if hour < 12 {
			return hour + 12
		}
	case "pm":
		if hour < 12 {
			return hour + 12
		}
	case "am":
		if hour == 12 {
			return 0
		}
	}
	return hour
}

func dayOffset(lower string) int {
	for _, d := range dayOffsets {
		if d.re.MatchString(lower) {
			return d.days
		}
	}
	return 0
}

func normalize(lower string) string {
	out := lower
	for _, n := range normalizers {
		out = n.re.ReplaceAllString(out, n.repl)
	}
	return out
}

// atClock is now's calendar day plus days, at hour:minute in now's zone.
func atClock(now time.Time, days, hour, minute int) time.Time {
	y, mo, d := now.Date()
	return time.Date(y, mo, d+days, hour, minute, 0, 0, now.Location())
}
