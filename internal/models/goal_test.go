package models

import "testing"

func TestGoalProgress(t *testing.T) {
	cases := []struct {
		name    string
		current int64
		target  int64
		want    float64
	}{
		{"quarter", 5000, 20000, 25.0},
		{"overshoot unclamped", 25000, 20000, 125.0},
		{"zero target", 5000, 0, 0},
		{"zero current", 0, 20000, 0},
	}

	for _, tc := range cases {
		g := FinancialGoal{CurrentCents: tc.current, TargetCents: tc.target}
		if got := g.Progress(); got != tc.want {
			t.Errorf("%s: Progress() = %v, want %v", tc.name, got, tc.want)
		}
	}
}
