package schedule

// Layout packs one day's events into visual columns so overlapping
// events never share a lane. Events are processed in the order given:
// each goes into the first column whose latest occupant it doesn't
// overlap, or opens a new column. The packing is greedy first-fit, so
// the result depends on input order and is valid rather than minimal.
//
// Every returned Placed carries the same TotalColumns, the final number
// of columns opened, so rendered widths stay consistent across the day.
func Layout(events []Booked) []Placed {
	if len(events) == 0 {
		return nil
	}

	// last interval placed in each open column
	columns := make([]Interval, 0, 1)

	placed := make([]Placed, len(events))
	for i, ev := range events {
		col := -1
		for c, last := range columns {
			if !ev.Overlaps(last) {
				col = c
				break
			}
		}
		if col == -1 {
			columns = append(columns, ev.Interval)
			col = len(columns) - 1
		} else {
			columns[col] = ev.Interval
		}
		placed[i] = Placed{ID: ev.ID, Column: col}
	}

	for i := range placed {
		placed[i].TotalColumns = len(columns)
	}
	return placed
}
