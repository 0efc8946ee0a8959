// Package timebucket builds contiguous calendar-month windows for trend reports.
package timebucket

import "time"

// LabelLayout renders a month as "Jan 06".
const LabelLayout = "Jan 06"

// Month is one calendar month [Start, End) in a given location.
type Month struct {
	Start time.Time
	End   time.Time
	Label string
}

// Window is n contiguous months ending with the month containing now, oldest first.
type Window []Month

// Months returns the trailing n-month window for now in loc.
func Months(now time.Time, n int, loc *time.Location) Window {
	if loc == nil {
		loc = time.UTC
	}
	now = now.In(loc)
	first := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, loc)
	w := make(Window, n)
	for i := 0; i < n; i++ {
		start := first.AddDate(0, i-(n-1), 0)
		w[i] = Month{Start: start, End: start.AddDate(0, 1, 0), Label: start.Format(LabelLayout)}
	}
	return w
}

// Start is the beginning of the oldest month.
func (w Window) Start() time.Time {
	if len(w) == 0 {
		return time.Time{}
	}
	return w[0].Start
}

// Index returns the bucket holding t, or -1 when t is outside the window.
func (w Window) Index(t time.Time) int {
	for i, m := range w {
		if !t.Before(m.Start) && t.Before(m.End) {
			return i
		}
	}
	return -1
}

// Labels lists the month labels, oldest first.
func (w Window) Labels() []string {
	out := make([]string, len(w))
	for i, m := range w {
		out[i] = m.Label
	}
	return out
}
