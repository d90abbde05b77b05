package schedule

import (
	"sort"
	"time"
)

// maxSuggestions caps how many slots one suggest call returns.
const maxSuggestions = 5

// Suggest scans horizonDays days starting today and proposes up to five
// free slots of durationMin minutes inside the policy's working window.
// busy holds every interval the user is committed to inside the horizon
// (owned events plus pending/accepted invites), keyed by day through the
// Date field. The result is a ranked shortlist, not an optimum: slots
// are scored by a fixed heuristic favoring mornings, mid-afternoons and
// near dates, then ordered by date ascending and score descending.
func Suggest(durationMin, horizonDays int, busy []Candidate, now time.Time, policy Policy) []Slot {
	if durationMin <= 0 || horizonDays <= 0 {
		return nil
	}

	busyByDay := make(map[time.Time][]Interval)
	for _, b := range busy {
		day := DateOf(b.Date)
		busyByDay[day] = append(busyByDay[day], b.Interval)
	}

	today := DateOf(now)
	cutoff := now.Add(policy.GraceBuffer)

	slots := make([]Slot, 0)
	for d := 0; d < horizonDays; d++ {
		day := today.AddDate(0, 0, d)
		if policy.IsOffDay(day) {
			continue
		}
		dayBusy := busyByDay[day]

		for start := policy.WorkStartMin; start+durationMin <= policy.WorkEndMin; start += policy.SlotStepMin {
			candidate := Interval{StartMin: start, EndMin: start + durationMin}

			if d == 0 {
				startAt := day.Add(time.Duration(start) * time.Minute)
				if !startAt.After(cutoff) {
					continue
				}
			}

			free := true
			for _, iv := range dayBusy {
				if candidate.Overlaps(iv) {
					free = false
					break
				}
			}
			if !free {
				continue
			}

			slots = append(slots, Slot{
				Date:  day,
				Start: start,
				End:   start + durationMin,
				Score: scoreSlot(start, d),
			})
		}
	}

	sort.SliceStable(slots, func(i, j int) bool {
		if !slots[i].Date.Equal(slots[j].Date) {
			return slots[i].Date.Before(slots[j].Date)
		}
		return slots[i].Score > slots[j].Score
	})

	if len(slots) > maxSuggestions {
		slots = slots[:maxSuggestions]
	}
	return slots
}

// scoreSlot ranks a free slot by start hour and how soon its day is.
func scoreSlot(startMin, dayOffset int) int {
	score := 100
	hour := startMin / 60
	switch {
	case hour < 11:
		score += 20
	case hour >= 14 && hour < 16:
		score += 10
	}
	if hour >= 16 {
		score -= 10
	}
	switch dayOffset {
	case 0:
		score += 10
	case 1:
		score += 5
	}
	return score
}
