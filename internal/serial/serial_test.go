package serial

import "testing"

func TestIsNoOlderThan(t *testing.T) {
	cases := []struct {
		name     string
		s, other Serial
		want     bool
	}{
		{"equal", 5, 5, true},
		{"plain newer", 10, 5, true},
		{"plain older", 5, 10, false},
		{"wrap newer", 1, 0xFFFFFFFE, true},
		{"wrap older", 0xFFFFFFFE, 1, false},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			if got := c.s.IsNoOlderThan(c.other); got != c.want {
				t.Errorf("%d.IsNoOlderThan(%d) = %v, want %v", c.s, c.other, got, c.want)
			}
		})
	}
}

func TestIsNewerThan(t *testing.T) {
	if (Serial(5)).IsNewerThan(5) {
		t.Error("equal serials must not be newer")
	}
	if !(Serial(6)).IsNewerThan(5) {
		t.Error("6 must be newer than 5")
	}
}
