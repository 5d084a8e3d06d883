package trajectory

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFilterSeeds(t *testing.T) {
	t.Parallel()

	b := Bounds{Width: 20, Height: 20}

	tests := []struct {
		name       string
		candidates []Point
		tips       []Point
		want       []Point
	}{
		{
			name:       "empty",
			candidates: nil,
			want:       nil,
		},
		{
			name:       "distinct cells kept",
			candidates: []Point{{X: 1, Y: 1}, {X: 6, Y: 1}, {X: 1, Y: 11}},
			want:       []Point{{X: 1, Y: 1}, {X: 6, Y: 1}, {X: 1, Y: 11}},
		},
		{
			name:       "second candidate in same cell dropped",
			candidates: []Point{{X: 1, Y: 1}, {X: 4, Y: 4}},
			want:       []Point{{X: 1, Y: 1}},
		},
		{
			name:       "cell holding a live tip rejects",
			candidates: []Point{{X: 1, Y: 1}, {X: 12, Y: 12}},
			tips:       []Point{{X: 3, Y: 2}},
			want:       []Point{{X: 12, Y: 12}},
		},
		{
			name:       "outside frame dropped",
			candidates: []Point{{X: 0, Y: 5}, {X: 25, Y: 5}, {X: 7, Y: 7}},
			want:       []Point{{X: 7, Y: 7}},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := FilterSeeds(tt.candidates, tt.tips, b, 5)
			if len(tt.want) == 0 {
				assert.Empty(t, got)
				return
			}
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestFilterSeeds_NonPositiveDistance(t *testing.T) {
	t.Parallel()
	got := FilterSeeds([]Point{{X: 1.2, Y: 1.2}, {X: 1.7, Y: 1.9}, {X: 2.1, Y: 1.5}}, nil, Bounds{Width: 4, Height: 4}, 0)
	assert.Equal(t, []Point{{X: 1.2, Y: 1.2}, {X: 2.1, Y: 1.5}}, got)
}
