package progress

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"streamstrip/internal/textutil"
)

// elapsedEpsilon replaces a non-positive elapsed time so speed stays finite.
const elapsedEpsilon = time.Millisecond

// ETAUnknown marks an ETA that cannot be derived (no bytes moved yet).
const ETAUnknown = time.Duration(-1)

const barSegments = 10

const (
	segmentFilled = "⬢"
	segmentEmpty  = "⬡"
)

// Sample is one progress observation plus its derived rates.
type Sample struct {
	Current int64
	Total   int64
	Elapsed time.Duration

	Percent float64
	Speed   float64 // bytes per second
	ETA     time.Duration
}

// maxETASeconds is the largest ETA a time.Duration can hold.
const maxETASeconds = float64(math.MaxInt64 / int64(time.Second))

// Compute derives percent, speed, and ETA for a transfer observation.
func Compute(current, total int64, elapsed time.Duration) Sample {
	if elapsed <= 0 {
		elapsed = elapsedEpsilon
	}
	s := Sample{Current: current, Total: total, Elapsed: elapsed}
	s.Speed = float64(current) / elapsed.Seconds()
	if total > 0 {
		s.Percent = 100 * float64(current) / float64(total)
	}
	switch {
	case s.Speed <= 0:
		s.ETA = ETAUnknown
	case total <= current:
		s.ETA = 0
	default:
		seconds := float64(total-current) / s.Speed
		if seconds >= maxETASeconds {
			s.ETA = ETAUnknown
		} else {
			s.ETA = time.Duration(seconds * float64(time.Second))
		}
	}
	return s
}

// RenderBar draws a ten segment bar for percent, clamped to [0, 100].
func RenderBar(percent float64) string {
	filled := int(math.Floor(clampPercent(percent) / 10))
	return "[" + strings.Repeat(segmentFilled, filled) + strings.Repeat(segmentEmpty, barSegments-filled) + "]"
}

// Render formats the status message body for a sample.
func Render(s Sample) string {
	var b strings.Builder
	b.WriteString(RenderBar(s.Percent))
	b.WriteByte('\n')
	fmt.Fprintf(&b, "Progress: %s%%\n", strconv.FormatFloat(math.Round(s.Percent*100)/100, 'f', -1, 64))
	fmt.Fprintf(&b, "Downloaded: %s / %s\n", textutil.FormatSize(float64(s.Current)), textutil.FormatSize(float64(s.Total)))
	fmt.Fprintf(&b, "Speed: %s/s\n", textutil.FormatSize(s.Speed))
	b.WriteString("ETA: ")
	b.WriteString(formatETA(s.ETA))
	return b.String()
}

func formatETA(eta time.Duration) string {
	if eta == ETAUnknown {
		return "unknown"
	}
	return textutil.FormatDuration(eta.Seconds())
}

func clampPercent(p float64) float64 {
	switch {
	case math.IsNaN(p) || p < 0:
		return 0
	case p > 100:
		return 100
	default:
		return p
	}
}
