package timebucket

import (
	"testing"
	"time"
)

func TestMonths_ContiguousOldestFirst(t *testing.T) {
	now := time.Date(2026, 2, 15, 10, 0, 0, 0, time.UTC)
	w := Months(now, 12, time.UTC)
	if len(w) != 12 {
		t.Fatalf("len = %d", len(w))
	}
	if w[0].Label != "Mar 25" || w[11].Label != "Feb 26" {
		t.Fatalf("labels = %v", w.Labels())
	}
	for i := 1; i < len(w); i++ {
		if !w[i].Start.Equal(w[i-1].End) {
			t.Fatalf("gap between %s and %s", w[i-1].Label, w[i].Label)
		}
	}
	if !w.Start().Equal(time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("start = %v", w.Start())
	}
}

func TestMonths_EndOfMonthNoSkip(t *testing.T) {
	// AddDate from the 31st would skip February; the window anchors on the 1st.
	w := Months(time.Date(2026, 3, 31, 0, 0, 0, 0, time.UTC), 3, time.UTC)
	want := []string{"Jan 26", "Feb 26", "Mar 26"}
	for i, l := range w.Labels() {
		if l != want[i] {
			t.Fatalf("labels = %v", w.Labels())
		}
	}
}

func TestIndex(t *testing.T) {
	w := Months(time.Date(2026, 6, 10, 0, 0, 0, 0, time.UTC), 6, time.UTC)
	tests := []struct {
		at   time.Time
		want int
	}{
		{time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC), 0},
		{time.Date(2025, 12, 31, 23, 59, 0, 0, time.UTC), -1},
		{time.Date(2026, 6, 30, 23, 0, 0, 0, time.UTC), 5},
		{time.Date(2026, 7, 1, 0, 0, 0, 0, time.UTC), -1},
		{time.Date(2026, 3, 15, 0, 0, 0, 0, time.UTC), 2},
	}
	for _, tc := range tests {
		if got := w.Index(tc.at); got != tc.want {
			t.Fatalf("Index(%v) = %d, want %d", tc.at, got, tc.want)
		}
	}
}

func TestMonths_Location(t *testing.T) {
	loc := time.FixedZone("UTC-5", -5*3600)
	// 02:00 UTC on Mar 1 is still Feb 28 in UTC-5.
	w := Months(time.Date(2026, 3, 1, 2, 0, 0, 0, time.UTC), 1, loc)
	if w[0].Label != "Feb 26" {
		t.Fatalf("label = %s", w[0].Label)
	}
}
