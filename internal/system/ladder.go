package system

// Ladder math shared by character level, rift attunement and style mastery.
// thresholds[i] is the counter value needed to reach level i+2; level 1 needs
// nothing. A level of len(thresholds)+1 is the top of the ladder.

// ladderAdvance raises *level one step at a time while counter has crossed the
// next threshold, calling step with each new level.
func ladderAdvance(thresholds []int64, level *int, counter int64, step func(newLevel int)) {
	for *level >= 1 && *level <= len(thresholds) && counter >= thresholds[*level-1] {
		*level++
		step(*level)
	}
}

// ladderToNext is the remaining amount to the next threshold, 0 at the top.
func ladderToNext(thresholds []int64, level int, counter int64) int64 {
	if level < 1 || level > len(thresholds) {
		return 0
	}
	return thresholds[level-1] - counter
}

// ladderProgress is the fraction of the current band covered, clamped to
// [0,1]. The top of the ladder and zero-width bands report 1.
func ladderProgress(thresholds []int64, level int, counter int64) float64 {
	if level < 1 || level > len(thresholds) {
		return 1
	}
	var lower int64
	if level >= 2 {
		lower = thresholds[level-2]
	}
	return bandRatio(lower, thresholds[level-1], counter)
}

// rankFor returns the highest rank index whose threshold counter has reached,
// scanning from the top down. 0 when none is reached.
func rankFor(thresholds []int64, counter int64) int {
	for i := len(thresholds) - 1; i >= 0; i-- {
		if counter >= thresholds[i] {
			return i
		}
	}
	return 0
}

// rankToNext is the amount to the next rank threshold, 0 at the last rank.
func rankToNext(thresholds []int64, rank int, counter int64) int64 {
	if rank < 0 || rank+1 >= len(thresholds) {
		return 0
	}
	return thresholds[rank+1] - counter
}

// rankProgress is the fraction of the band between the current and next rank.
func rankProgress(thresholds []int64, rank int, counter int64) float64 {
	if rank < 0 || rank+1 >= len(thresholds) {
		return 1
	}
	return bandRatio(thresholds[rank], thresholds[rank+1], counter)
}

func bandRatio(lower, upper, counter int64) float64 {
	width := upper - lower
	if width <= 0 {
		return 1
	}
	r := float64(counter-lower) / float64(width)
	switch {
	case r < 0:
		return 0
	case r > 1:
		return 1
	}
	return r
}
