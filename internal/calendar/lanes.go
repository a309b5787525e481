package calendar

import (
	"sort"

	"yearcal/internal/model"
)

// packLanes assigns lanes to the bars at the given indices, which must all
// belong to the same month.
//
// Greedy interval partitioning: bars are visited by StartDay (stable, so
// equal start days keep caller order) and each one takes the lowest lane
// whose last bar ended strictly before it starts. Day ranges are inclusive,
// so a bar starting on the day another ends cannot share its lane.
func packLanes(bars []model.MonthBar, idx []int) {
	order := append([]int(nil), idx...)
	sort.SliceStable(order, func(a, b int) bool {
		return bars[order[a]].StartDay < bars[order[b]].StartDay
	})

	var laneEnd []int
	for _, i := range order {
		b := &bars[i]
		placed := false
		for lane, end := range laneEnd {
			if b.StartDay > end {
				b.Lane = lane
				laneEnd[lane] = b.EndDay
				placed = true
				break
			}
		}
		if !placed {
			b.Lane = len(laneEnd)
			laneEnd = append(laneEnd, b.EndDay)
		}
	}
}

// LaneCount returns the number of lanes used by bars in monthIndex.
func LaneCount(bars []model.MonthBar, monthIndex int) int {
	n := 0
	for _, b := range bars {
		if b.MonthIndex == monthIndex && b.Lane+1 > n {
			n = b.Lane + 1
		}
	}
	return n
}
