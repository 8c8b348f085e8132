// Package duration formats a nanosecond count as a short human-readable
// string, bucketed the same way the original crawler and query front-end
// did: ns, μs, ms, s, min, h.
package duration

import (
	"fmt"
	"time"
)

// Format renders d using the bucket boundaries ns < 1µs < 1ms < 1s < 1min <
// 1h, printing two decimal places for every bucket above plain nanoseconds.
func Format(d time.Duration) string {
	ns := d.Nanoseconds()

	switch {
	case ns < 1_000:
		return fmt.Sprintf("%dns", ns)
	case ns < 1_000_000:
		return fmt.Sprintf("%.2fμs", float64(ns)/1_000)
	case ns < 1_000_000_000:
		return fmt.Sprintf("%.2fms", float64(ns)/1_000_000)
	case ns < 60*1_000_000_000:
		return fmt.Sprintf("%.2fs", float64(ns)/1_000_000_000)
	case ns < 60*60*1_000_000_000:
		return fmt.Sprintf("%.2fmin", float64(ns)/(60*1_000_000_000))
	default:
		return fmt.Sprintf("%.2fh", float64(ns)/(60*60*1_000_000_000))
	}
}
