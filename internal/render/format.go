package render

import "strconv"

// FormatCompact abbreviates large counts: 1500 -> 1.5K, 2300000 -> 2.3M.
func FormatCompact(n float64) string {
	switch {
	case n >= 1_000_000:
		return strconv.FormatFloat(n/1_000_000, 'f', 1, 64) + "M"
	case n >= 1000:
		return strconv.FormatFloat(n/1000, 'f', 1, 64) + "K"
	}
	return strconv.FormatFloat(n, 'f', -1, 64)
}
