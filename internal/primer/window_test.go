package primer

import "testing"

func TestWindow(t *testing.T) {
	cases := []struct {
		name                       string
		selected, num, spacing     int
		wantFrom, wantTo, wantStep int
	}{
		{name: "centered", selected: 100, num: 5, spacing: 1, wantFrom: 98, wantTo: 102, wantStep: 1},
		{name: "clamped low", selected: 81, num: 5, spacing: 1, wantFrom: 80, wantTo: 84, wantStep: 1},
		{name: "clamped high", selected: 119, num: 5, spacing: 2, wantFrom: 117, wantTo: 120, wantStep: 2},
		{name: "even width", selected: 100, num: 4, spacing: 1, wantFrom: 98, wantTo: 101, wantStep: 1},
		{name: "zero spacing", selected: 100, num: 1, spacing: 0, wantFrom: 100, wantTo: 100, wantStep: 1},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			from, to, step := Window(tc.selected, tc.num, tc.spacing, 80, 120)
			if from != tc.wantFrom || to != tc.wantTo || step != tc.wantStep {
				t.Fatalf("Window(%d, %d, %d) = %d..%d step %d, want %d..%d step %d",
					tc.selected, tc.num, tc.spacing, from, to, step, tc.wantFrom, tc.wantTo, tc.wantStep)
			}
		})
	}
}
