package risk

import "testing"

func TestGradeFromPD_Boundaries(t *testing.T) {
	cases := []struct {
		pd   float64
		want string
	}{
		{0.0, "A"},
		{0.049999, "A"},
		{0.05, "B"},
		{0.149999, "B"},
		{0.15, "C"},
		{0.299999, "C"},
		{0.30, "D"},
		{1.0, "D"},
		{-0.01, "D"},
	}
	for _, tc := range cases {
		if got := GradeFromPD(tc.pd); got != tc.want {
			t.Errorf("GradeFromPD(%v) = %s, want %s", tc.pd, got, tc.want)
		}
	}
}
