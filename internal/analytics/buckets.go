package analytics

import (
	"math"
	"time"

	"github.com/ShivaprasadMurashillin/LexDash/pkg/timebucket"
)

// CountByMonth tallies ts into the months of w. Times outside w are ignored,
// so every month is present, zero when empty.
func CountByMonth(w timebucket.Window, ts []time.Time) []int64 {
	out := make([]int64, len(w))
	for _, t := range ts {
		if i := w.Index(t); i >= 0 {
			out[i]++
		}
	}
	return out
}

// Cumulative turns per-month counts into running totals starting at seed.
func Cumulative(seed int64, counts []int64) []int64 {
	out := make([]int64, len(counts))
	for i, n := range counts {
		seed += n
		out[i] = seed
	}
	return out
}

// Rate is n/d as a whole percentage, 0 when d is 0.
func Rate(n, d int64) int {
	if d == 0 {
		return 0
	}
	return int(math.Round(float64(n) / float64(d) * 100))
}
