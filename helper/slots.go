package helper

// GenerateSlots produces the candidate start times ("HH:MM") between opens
// and closes for one day. The first slot is the opening time, subsequent
// slots step by granularityMin, and a slot is kept only while
// start+durationMin still fits before closing. Pure computation.
func GenerateSlots(opens, closes string, granularityMin, durationMin int) []string {
	if granularityMin <= 0 || durationMin <= 0 {
		return nil
	}
	open, err := ParseClock(opens)
	if err != nil {
		return nil
	}
	close, err := ParseClock(closes)
	if err != nil {
		return nil
	}

	var slots []string
	for t := open; t+durationMin <= close; t += granularityMin {
		slots = append(slots, FormatClock(t))
	}
	return slots
}
