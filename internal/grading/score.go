package grading

import (
	"math"
	"strconv"
	"strings"

	"github.com/tobenna/quizforge/internal/model"
)

// FormatScore reduces grade entries to the "obtained/total" display
// string. Whole obtained values print as integers, fractional ones
// rounded to two decimals, so full marks on three questions reads
// "3/3" and a single partial-credit rubric score reads "0.33/1".
func FormatScore(entries []model.GradeEntry) string {
	var obtained float64
	for _, e := range entries {
		obtained += e.Score
	}
	return formatPoints(obtained) + "/" + strconv.Itoa(len(entries))
}

// Percent returns the score as a percentage rounded to one decimal.
// An empty entry set is 0, not a division by zero.
func Percent(entries []model.GradeEntry) float64 {
	if len(entries) == 0 {
		return 0
	}
	var obtained float64
	for _, e := range entries {
		obtained += e.Score
	}
	return math.Round(obtained/float64(len(entries))*1000) / 10
}

// ParseDisplayScore recovers the numeric parts of an "obtained/total"
// display string. Dashboard averages are computed from stored display
// scores, so malformed or legacy values report ok=false and are
// skipped instead of poisoning the average.
func ParseDisplayScore(s string) (obtained float64, total int, ok bool) {
	head, tail, found := strings.Cut(s, "/")
	if !found {
		return 0, 0, false
	}
	obtained, err := strconv.ParseFloat(strings.TrimSpace(head), 64)
	if err != nil {
		return 0, 0, false
	}
	total, err = strconv.Atoi(strings.TrimSpace(tail))
	if err != nil || total <= 0 {
		return 0, 0, false
	}
	return obtained, total, true
}

func formatPoints(x float64) string {
	rounded := math.Round(x*100) / 100
	if rounded == math.Trunc(rounded) {
		return strconv.Itoa(int(rounded))
	}
	return strconv.FormatFloat(rounded, 'f', -1, 64)
}
