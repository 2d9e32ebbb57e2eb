package stats

import "testing"

func TestCalculateScore(t *testing.T) {
	// The file with max commits and max lines scores 100.
	if got := calculateScore(10, 500, 10, 500); got != 100 {
		t.Errorf("expected max score 100, got %f", got)
	}
	if got := calculateScore(0, 0, 0, 0); got != 0 {
		t.Errorf("expected 0 for empty history, got %f", got)
	}
	low := calculateScore(1, 10, 10, 500)
	high := calculateScore(9, 400, 10, 500)
	if low >= high {
		t.Errorf("score must grow with churn: low=%f high=%f", low, high)
	}
}

func TestCategorizeFile(t *testing.T) {
	cases := []struct {
		commits, lines int
		want           string
	}{
		{10, 500, CategoryHotspot},
		{10, 10, CategoryFrequent},
		{1, 500, CategoryMassive},
		{1, 10, CategoryStable},
	}
	for _, tc := range cases {
		if got := categorizeFile(tc.commits, tc.lines, 10, 500); got != tc.want {
			t.Errorf("categorizeFile(%d, %d) = %q, want %q", tc.commits, tc.lines, got, tc.want)
		}
	}
	if got := categorizeFile(0, 0, 0, 0); got != CategoryStable {
		t.Errorf("empty history categorizes stable, got %q", got)
	}
}
