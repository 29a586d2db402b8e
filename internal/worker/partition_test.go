package worker

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPartitionRangeCoversEveryNumberOnce(t *testing.T) {
	tests := []struct {
		name             string
		start, end, n    int
		wantFirst        Range
		wantLast         Range
	}{
		{"even split", 1, 100, 4, Range{1, 25}, Range{76, 100}},
		{"remainder to last", 1, 10, 3, Range{1, 3}, Range{7, 10}},
		{"single worker", 5, 9, 1, Range{5, 9}, Range{5, 9}},
		{"more workers than numbers", 1, 3, 10, Range{1, 1}, Range{3, 3}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ranges := PartitionRange(tt.start, tt.end, tt.n)
			require.NotEmpty(t, ranges)
			assert.Equal(t, tt.wantFirst, ranges[0])
			assert.Equal(t, tt.wantLast, ranges[len(ranges)-1])

			// Contiguous, in order, covering [start, end] exactly.
			next := tt.start
			for _, r := range ranges {
				assert.Equal(t, next, r.Start)
				assert.GreaterOrEqual(t, r.End, r.Start)
				next = r.End + 1
			}
			assert.Equal(t, tt.end+1, next)
		})
	}
}

func TestPartitionRangeEmpty(t *testing.T) {
	assert.Nil(t, PartitionRange(10, 9, 4))
}

func TestGeneratePatterns(t *testing.T) {
	patterns := GeneratePatterns()
	require.Len(t, patterns, 676)
	assert.Equal(t, "aa", patterns[0])
	assert.Equal(t, "ab", patterns[1])
	assert.Equal(t, "ba", patterns[26])
	assert.Equal(t, "zz", patterns[675])
}

func TestPartitionPatterns(t *testing.T) {
	patterns := GeneratePatterns()

	chunks := PartitionPatterns(patterns, 8)
	require.Len(t, chunks, 8)

	// 676 / 8 = 84 with remainder 4 absorbed by the last worker.
	for i := 0; i < 7; i++ {
		assert.Len(t, chunks[i], 84)
	}
	assert.Len(t, chunks[7], 88)

	// Concatenation restores the original order with nothing lost.
	var joined []string
	for _, c := range chunks {
		joined = append(joined, c...)
	}
	assert.Equal(t, patterns, joined)
}

func TestPartitionPatternsSingleWorker(t *testing.T) {
	chunks := PartitionPatterns([]string{"aa", "ab"}, 1)
	require.Len(t, chunks, 1)
	assert.Equal(t, []string{"aa", "ab"}, chunks[0])
}
