package ripping

import (
	"fmt"
	"reflect"
	"testing"

	"discripper/internal/makemkv"
)

func sessionWithDurations(t *testing.T, durations map[int]int) *makemkv.Session {
	t.Helper()
	s := makemkv.NewSession()
	for number, seconds := range durations {
		line := fmt.Sprintf(`TINFO:%d,9,0,"%d:%02d:%02d"`,
			number, seconds/3600, seconds/60%60, seconds%60)
		s.Feed(line)
	}
	return s
}

func TestSelectTitlesDurationWindow(t *testing.T) {
	tests := []struct {
		name        string
		durations   map[int]int
		min, max    int
		featureOnly bool
		want        []int
	}{
		{
			"within window",
			map[int]int{0: 1000, 1: 2000},
			900, 99999, false,
			[]int{0, 1},
		},
		{
			"below minimum dropped",
			map[int]int{0: 500, 1: 4000},
			900, 99999, false,
			[]int{1},
		},
		{
			"above maximum dropped",
			map[int]int{0: 1000, 1: 90000},
			900, 50000, false,
			[]int{0},
		},
		{
			"boundaries inclusive",
			map[int]int{0: 900, 1: 50000},
			900, 50000, false,
			[]int{0, 1},
		},
		{
			"feature only keeps near maximum",
			map[int]int{0: 4000, 1: 3700, 2: 500},
			0, 99999, true,
			[]int{0, 1},
		},
		{
			"feature only drops short extras",
			map[int]int{0: 500, 1: 4000},
			900, 99999, true,
			[]int{1},
		},
		{
			"nothing kept",
			map[int]int{0: 100, 1: 200},
			900, 99999, false,
			nil,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := SelectTitles(sessionWithDurations(t, tt.durations), tt.min, tt.max, tt.featureOnly, 0.9)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("SelectTitles = %v, want %v", got, tt.want)
			}
		})
	}
}

// The feature threshold is a running maximum evaluated in the same
// ascending pass as the drops, so a long title appearing late cannot
// retroactively drop earlier short titles.
func TestSelectTitlesRunningMaxIsLeftToRight(t *testing.T) {
	durations := map[int]int{0: 1000, 1: 4000, 2: 1000}
	got := SelectTitles(sessionWithDurations(t, durations), 0, 99999, true, 0.9)
	want := []int{0, 1}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("SelectTitles = %v, want %v", got, want)
	}
}

func TestSelectTitlesSkipsTitlesWithoutDuration(t *testing.T) {
	s := makemkv.NewSession()
	s.Feed(`TINFO:0,27,0,"title_t00.mkv"`)
	s.Feed(`TINFO:1,9,0,"1:00:00"`)
	got := SelectTitles(s, 0, 99999, false, 0.9)
	want := []int{1}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("SelectTitles = %v, want %v", got, want)
	}
}
