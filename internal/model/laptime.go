package model

import (
	"fmt"
	"math"
)

// FormatLapTime renders seconds as minutes, sep, then zero-padded seconds
// with millisecond precision, e.g. "1:38.250". Non-finite or negative
// values render as "-".
func FormatLapTime(seconds float64, sep string) string {
	if math.IsNaN(seconds) || math.IsInf(seconds, 0) || seconds < 0 {
		return "-"
	}
	if sep == "" {
		sep = ":"
	}
	millis := int64(math.Round(seconds * 1000))
	minutes := millis / 60000
	rest := millis % 60000
	return fmt.Sprintf("%d%s%02d.%03d", minutes, sep, rest/1000, rest%1000)
}
