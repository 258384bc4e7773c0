package leveling

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCalculator_LevelForXP(t *testing.T) {
	calc := NewCalculator(nil)

	tests := []struct {
		name    string
		totalXP int64
		want    int
	}{
		{name: "zero xp is level 1", totalXP: 0, want: 1},
		{name: "just below first threshold", totalXP: 299, want: 1},
		{name: "first threshold", totalXP: 300, want: 2},
		{name: "just below second threshold", totalXP: 799, want: 2},
		{name: "second threshold", totalXP: 800, want: 3},
		{name: "third threshold", totalXP: 1500, want: 4},
		{name: "between thresholds", totalXP: 1000, want: 3},
		{name: "negative xp clamps to level 1", totalXP: -50, want: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, calc.LevelForXP(tt.totalXP))
		})
	}
}

func TestCalculator_XPForLevel(t *testing.T) {
	calc := NewCalculator(nil)

	assert.Equal(t, int64(0), calc.XPForLevel(1))
	assert.Equal(t, int64(300), calc.XPForLevel(2))
	assert.Equal(t, int64(800), calc.XPForLevel(3))
	assert.Equal(t, int64(1500), calc.XPForLevel(4))

	// The two functions must agree at every boundary.
	for level := 2; level <= 40; level++ {
		threshold := calc.XPForLevel(level)
		require.Equal(t, level, calc.LevelForXP(threshold))
		require.Equal(t, level-1, calc.LevelForXP(threshold-1))
	}
}

func TestCalculator_LevelMonotonicity(t *testing.T) {
	calc := NewCalculator(nil)

	prev := 0
	for xp := int64(0); xp <= 20000; xp += 37 {
		level := calc.LevelForXP(xp)
		require.GreaterOrEqual(t, level, prev, "level regressed at %d xp", xp)
		prev = level
	}
}

func TestCalculator_TierForLevel(t *testing.T) {
	calc := NewCalculator(nil)

	tests := []struct {
		level int
		want  string
	}{
		{1, ""},
		{4, ""},
		{5, "A1"},
		{9, "A1"},
		{10, "A2"},
		{15, "B1"},
		{20, "B2"},
		{25, "C1"},
		{30, "C2"},
		{99, "C2"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, calc.TierForLevel(tt.level), "level %d", tt.level)
	}
}

func TestCalculator_XPForAnswer(t *testing.T) {
	calc := NewCalculator(nil)

	assert.Equal(t, int64(10), calc.XPForAnswer(true))
	assert.Equal(t, int64(5), calc.XPForAnswer(false))
}
