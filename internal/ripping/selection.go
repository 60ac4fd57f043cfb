package ripping

import "discripper/internal/makemkv"

// SelectTitles returns the title indexes worth extracting, in ascending
// order. A title is kept when its duration lies within [minDuration,
// maxDuration] and, with featureOnly set, is at least movieMinimum of the
// running maximum duration.
//
// The running maximum is updated by every title in the same left-to-right
// pass that evaluates the drop, including titles already dropped by the
// duration bounds, so the feature threshold can lag behind titles seen
// later in the pass. Titles without a reported duration are dropped.
func SelectTitles(session *makemkv.Session, minDuration, maxDuration int, featureOnly bool, movieMinimum float64) []int {
	var kept []int
	runningMax := 0
	for _, number := range session.TitleNumbers() {
		duration, ok := session.Titles[number].Duration()
		if !ok {
			continue
		}
		drop := duration < minDuration || duration > maxDuration
		if duration >= runningMax {
			runningMax = duration
		}
		if featureOnly && float64(duration) < float64(runningMax)*movieMinimum {
			drop = true
		}
		if !drop {
			kept = append(kept, number)
		}
	}
	return kept
}
