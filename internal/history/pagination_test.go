package history

import (
	"reflect"
	"testing"
)

func TestPageNumbers(t *testing.T) {
	testCases := []struct {
		name    string
		current int
		total   int
		want    []int
	}{
		{
			name:    "single page",
			current: 1,
			total:   1,
			want:    []int{1},
		},
		{
			name:    "few pages show everything",
			current: 2,
			total:   4,
			want:    []int{1, 2, 3, 4},
		},
		{
			name:    "middle of a long run collapses both sides",
			current: 5,
			total:   9,
			want:    []int{1, Ellipsis, 4, 5, 6, Ellipsis, 9},
		},
		{
			name:    "current near the start collapses only the tail",
			current: 2,
			total:   9,
			want:    []int{1, 2, 3, Ellipsis, 9},
		},
		{
			name:    "current near the end collapses only the head",
			current: 8,
			total:   9,
			want:    []int{1, Ellipsis, 7, 8, 9},
		},
		{
			name:    "adjacent run is not collapsed",
			current: 3,
			total:   5,
			want:    []int{1, 2, 3, 4, 5},
		},
		{
			name:    "current out of range is clamped",
			current: 99,
			total:   9,
			want:    []int{1, Ellipsis, 8, 9},
		},
		{
			name:    "zero total",
			current: 1,
			total:   0,
			want:    nil,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got := PageNumbers(tc.current, tc.total)
			if !reflect.DeepEqual(got, tc.want) {
				t.Errorf("PageNumbers(%d, %d) = %v, want %v", tc.current, tc.total, got, tc.want)
			}
		})
	}
}
