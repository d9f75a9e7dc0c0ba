package system

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLadderProgress(t *testing.T) {
	ladder := []int64{1000, 2500, 5000}
	tests := []struct {
		name    string
		level   int
		counter int64
		want    float64
	}{
		{"start of first band", 1, 0, 0},
		{"middle of first band", 1, 500, 0.5},
		{"second band", 2, 1750, 0.5},
		{"top of ladder", 4, 9000, 1},
		{"below band clamps", 2, 10, 0},
		{"above band clamps", 2, 4000, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, ladderProgress(ladder, tt.level, tt.counter), 1e-9)
		})
	}
}

func TestLadderProgress_ZeroWidthBand(t *testing.T) {
	assert.Equal(t, 1.0, ladderProgress([]int64{10, 10, 40}, 2, 10))
	assert.Equal(t, 1.0, rankProgress([]int64{0, 500, 500}, 1, 500))
}

func TestLadderAdvance(t *testing.T) {
	ladder := []int64{10, 10, 40}
	level := 1
	var steps []int
	ladderAdvance(ladder, &level, 10, func(l int) { steps = append(steps, l) })
	assert.Equal(t, []int{2, 3}, steps, "equal thresholds are crossed together")
	assert.Equal(t, 3, level)
	assert.Equal(t, int64(30), ladderToNext(ladder, level, 10))

	ladderAdvance(ladder, &level, 1000, func(l int) { steps = append(steps, l) })
	assert.Equal(t, 4, level, "never past len+1")
	assert.Zero(t, ladderToNext(ladder, level, 1000))

	empty := 1
	ladderAdvance(nil, &empty, 1<<40, func(int) { t.Fatal("no rungs") })
	assert.Equal(t, 1, empty)
	assert.Equal(t, 1.0, ladderProgress(nil, 1, 0))
}

func TestRankFor(t *testing.T) {
	ranks := []int64{0, 5000, 15000}
	assert.Equal(t, 0, rankFor(ranks, 0))
	assert.Equal(t, 0, rankFor(ranks, 4999))
	assert.Equal(t, 1, rankFor(ranks, 5000))
	assert.Equal(t, 2, rankFor(ranks, 1<<40))
	assert.Equal(t, 0, rankFor([]int64{100}, 5), "below every threshold")
	assert.Equal(t, 0, rankFor(nil, 5))

	assert.Equal(t, int64(10000), rankToNext(ranks, 1, 5000))
	assert.Zero(t, rankToNext(ranks, 2, 20000))
	assert.Equal(t, 1.0, rankProgress(ranks, 2, 20000))
}
