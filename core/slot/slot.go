// Package slot finds free charging intervals on a station timeline.
//
// A station's bookings split the day into gaps: before the first session,
// between consecutive sessions and after the last one. Every side of a gap
// that touches a booking is shrunk by the minimum inter-session gap, and the
// result is clipped to the vehicle's availability window. FindBestSlot returns
// the longest such gap that is at least the minimum duration long.
package slot

import "github.com/ejosa-pasquale/HoreCa/core/model"

// Epsilon absorbs floating point noise when comparing durations.
const Epsilon = 1e-9

// FindBestSlot returns the longest free interval of at least minDuration
// inside [windowStart, windowEnd). Ties are broken by the earliest start.
// sessions must be sorted by start. The function has no side effects.
func FindBestSlot(sessions []model.Session, windowStart, windowEnd, minGap, minDuration float64) (model.Interval, bool) {
	if windowEnd-windowStart < minDuration-Epsilon || windowEnd <= windowStart {
		return model.Interval{}, false
	}
	var (
		best  model.Interval
		found bool
	)
	consider := func(start, end float64) {
		if start < windowStart {
			start = windowStart
		}
		if end > windowEnd {
			end = windowEnd
		}
		length := end - start
		if length <= 0 || length < minDuration-Epsilon {
			return
		}
		if !found || length > best.Duration()+Epsilon {
			best = model.Interval{Start: start, End: end}
			found = true
		}
	}

	if len(sessions) == 0 {
		consider(windowStart, windowEnd)
		return best, found
	}
	consider(windowStart, sessions[0].Start-minGap)
	for i := 0; i+1 < len(sessions); i++ {
		consider(sessions[i].End+minGap, sessions[i+1].Start-minGap)
	}
	consider(sessions[len(sessions)-1].End+minGap, windowEnd)
	return best, found
}
