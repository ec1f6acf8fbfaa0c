package timeparse

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

const monthAlt = `januari|january|jan|februari|february|feb|maret|march|mar|april|apr|mei|may|juni|june|jun|juli|july|jul|agustus|august|agu|aug|september|sept|sep|oktober|october|okt|oct|november|nov|desember|december|des|dec`

const weekdayAlt = `monday|mon|tuesday|tues|tue|wednesday|wed|thursday|thurs|thu|friday|fri|saturday|sat|sunday|sun|senin|selasa|rabu|kamis|jumat|jum'at|sabtu|minggu`

var (
	// "20 oktober", "20 oct 2026"
	dayMonthRe = regexp.MustCompile(`\b(\d{1,2})\s+(` + monthAlt + `)(?:\s+(\d{4}))?\b`)
	// "october 20", "oct 20th, 2026"
	monthDayRe = regexp.MustCompile(`\b(` + monthAlt + `)\s+(\d{1,2})(?:st|nd|rd|th)?(?:,?\s+(\d{4}))?\b`)

	weekdayRe  = regexp.MustCompile(`\b(` + weekdayAlt + `)\b`)
	nextWeekRe = regexp.MustCompile(`\b(minggu depan|next week)\b`)
	nextRe     = regexp.MustCompile(`\b(next|depan)\b`)
)

var months = map[string]time.Month{
	"jan": time.January, "feb": time.February, "mar": time.March,
	"apr": time.April, "mei": time.May, "may": time.May,
	"jun": time.June, "jul": time.July, "agu": time.August,
	"aug": time.August, "sep": time.September, "okt": time.October,
	"oct": time.October, "nov": time.November, "des": time.December,
	"dec": time.December,
}

var weekdays = map[string]time.Weekday{
	"monday": time.Monday, "mon": time.Monday, "senin": time.Monday,
	"tuesday": time.Tuesday, "tues": time.Tuesday, "tue": time.Tuesday, "selasa": time.Tuesday,
	"wednesday": time.Wednesday, "wed": time.Wednesday, "rabu": time.Wednesday,
	"thursday": time.Thursday, "thurs": time.Thursday, "thu": time.Thursday, "kamis": time.Thursday,
	"friday": time.Friday, "fri": time.Friday, "jumat": time.Friday, "jum'at": time.Friday,
	"saturday": time.Saturday, "sat": time.Saturday, "sabtu": time.Saturday,
	"sunday": time.Sunday, "sun": time.Sunday, "minggu": time.Sunday,
}

// dayRef is a calendar day named in the phrase by date or weekday.
type dayRef struct {
	date time.Time
	// rollover is set for a bare weekday naming today: a time already
	// passed moves on a week.
	rollover bool
}

func (d *dayRef) at(now time.Time, hour, minute int) time.Time {
	y, m, day := d.date.Date()
	t := time.Date(y, m, day, hour, minute, 0, 0, now.Location())
	if d.rollover && !t.After(now) {
		t = t.AddDate(0, 0, 7)
	}
	return t
}

// scanDay finds a calendar date or weekday and returns it with the rest of
// the phrase, token removed, for the clock scan. A date without a year is
// the next one on or after today.
func scanDay(lower string, now time.Time) (*dayRef, string, error) {
	if m := dayMonthRe.FindStringSubmatchIndex(lower); m != nil {
		return dateRef(lower, m, 1, 2, now)
	}
	if m := monthDayRe.FindStringSubmatchIndex(lower); m != nil {
		return dateRef(lower, m, 2, 1, now)
	}

	// "minggu depan" is next week, not Sunday.
	masked := nextWeekRe.ReplaceAllString(lower, "next week")
	loc := weekdayRe.FindStringSubmatchIndex(masked)
	if loc == nil {
		return nil, lower, nil
	}
	wd := weekdays[masked[loc[2]:loc[3]]]
	days := (int(wd) - int(now.Weekday()) + 7) % 7
	next := nextRe.MatchString(masked)
	if next && days == 0 {
		days = 7
	}
	rest := masked[:loc[0]] + " " + masked[loc[1]:]
	return &dayRef{
		date:     atClock(now, days, 0, 0),
		rollover: !next && days == 0,
	}, rest, nil
}

// dateRef builds the day from submatch groups dayGroup and monthGroup of a
// date match m; group 3 is the optional year.
func dateRef(lower string, m []int, dayGroup, monthGroup int, now time.Time) (*dayRef, string, error) {
	group := func(i int) string {
		if m[2*i] < 0 {
			return ""
		}
		return lower[m[2*i]:m[2*i+1]]
	}

	day, err := strconv.Atoi(group(dayGroup))
	if err != nil {
		return nil, "", ErrUnrecognizedTime
	}
	month := months[group(monthGroup)[:3]]

	year := now.Year()
	explicitYear := group(3) != ""
	if explicitYear {
		if year, err = strconv.Atoi(group(3)); err != nil {
			return nil, "", ErrUnrecognizedTime
		}
	}

	date := time.Date(year, month, day, 0, 0, 0, 0, now.Location())
	if date.Day() != day {
		return nil, "", ErrUnrecognizedTime
	}
	if !explicitYear && date.Before(atClock(now, 0, 0, 0)) {
		date = date.AddDate(1, 0, 0)
	}

	rest := strings.TrimSpace(lower[:m[0]] + " " + lower[m[1]:])
	return &dayRef{date: date}, rest, nil
}
