package keypad

import "testing"

func TestEncode(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"AI1234", "241234"},
		{"ai1234", "241234"},
		{"UK5678", "855678"},
		{"SG9876", "749876"},
		{"QF4444", "734444"},
		{"6E1111", "631111"},
		{"EK3333", "353333"},
		{"BA 22-22", "222222"},
		{"241234", "241234"},
		{"", ""},
	}
	for _, c := range cases {
		if got := Encode(c.in); got != c.want {
			t.Fatalf("Encode(%q) = %q, want %q", c.in, got, c.want)
		}
	}
}
