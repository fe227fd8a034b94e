package envutil

import (
	"testing"
	"time"
)

func TestParseBool(t *testing.T) {
	cases := []struct {
		raw    string
		want   bool
		wantOK bool
	}{
		{"true", true, true},
		{" YES ", true, true},
		{"1", true, true},
		{"on", true, true},
		{"false", false, true},
		{"0", false, true},
		{"Off", false, true},
		{"no", false, true},
		{"maybe", false, false},
		{"", false, false},
	}
	for _, tc := range cases {
		got, ok := ParseBool(tc.raw)
		if got != tc.want || ok != tc.wantOK {
			t.Fatalf("ParseBool(%q): want=(%v,%v) got=(%v,%v)", tc.raw, tc.want, tc.wantOK, got, ok)
		}
	}
}

func TestDuration(t *testing.T) {
	t.Setenv("X_TIMEOUT", "90s")
	if got := Duration("X_TIMEOUT", time.Second, nil); got != 90*time.Second {
		t.Fatalf("duration string: got=%s", got)
	}
	t.Setenv("X_TIMEOUT", "15")
	if got := Duration("X_TIMEOUT", time.Second, nil); got != 15*time.Second {
		t.Fatalf("bare seconds: got=%s", got)
	}
	t.Setenv("X_TIMEOUT", "soon")
	if got := Duration("X_TIMEOUT", time.Second, nil); got != time.Second {
		t.Fatalf("fallback: got=%s", got)
	}
}

func TestList(t *testing.T) {
	t.Setenv("X_LIST", " a, ,b ,c")
	got := List("X_LIST", nil)
	if len(got) != 3 || got[0] != "a" || got[1] != "b" || got[2] != "c" {
		t.Fatalf("List: got=%v", got)
	}
}
