package pricing

import "math"

// confidenceHalfPoint is the line count at which confidence reaches 0.5.
const confidenceHalfPoint = 50

// Confidence maps the number of estimate lines behind a learn cycle onto
// [0, 1): n / (n + 50). It measures how much data was seen, not how well it
// matched the cost book.
func Confidence(lineCount int) float64 {
	if lineCount <= 0 {
		return 0
	}
	n := float64(lineCount)
	c := math.Min(1, n/(n+confidenceHalfPoint))
	if c >= 1 {
		// float64 saturates for astronomically large n; stay below 1.
		c = math.Nextafter(1, 0)
	}
	return c
}
