package litfmt

import "testing"

func TestFloat(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"1.0", "1.0"},
		{"1f", "1.0"},
		{"1.5h", "1.5"},
		{"1.", "1.0"},
		{"2", "2.0"},
		{"1e3", "1e3"},
		{"1.5E-4", "1.5E-4"},
		{"0.5f", "0.5"},
	}
	for _, c := range cases {
		if got := Float(c.in); got != c.want {
			t.Errorf("Float(%q): expected %q, got %q", c.in, c.want, got)
		}
	}
}

func TestInt(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"1", "1"},
		{"42i", "42"},
		{"7u", "7u"},
	}
	for _, c := range cases {
		if got := Int(c.in); got != c.want {
			t.Errorf("Int(%q): expected %q, got %q", c.in, c.want, got)
		}
	}
}
