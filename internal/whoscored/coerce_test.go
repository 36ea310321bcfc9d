package whoscored

import (
	"testing"
)

func TestParseNumber(t *testing.T) {
	cases := []struct {
		in   string
		want float64
	}{
		{"8.86", 8.86},
		{" 33 ", 33},
		{"81.3%", 81.3},
		{"2,880", 2880},
		{"1\u00A0234", 1234},
		{"", 0},
		{"-", 0},
		{"—", 0},
		{"N/A", 0},
		{"30(3)", 0},
		{"NaN", 0},
		{"+Inf", 0},
		{"%", 0},
		{"12%%", 0},
		{"1,234.5", 1234.5},
		{"12,345,678", 12345678},
		{"5,2", 0},
		{"1,23", 0},
		{",123", 0},
		{"0x1p4", 0},
		{"-0X10", 0},
	}
	for _, c := range cases {
		if got := ParseNumber(c.in); got != c.want {
			t.Errorf("ParseNumber(%q) = %v, want %v", c.in, got, c.want)
		}
	}
}

func TestParseInt(t *testing.T) {
	if got := ParseInt("34"); got != 34 {
		t.Fatalf("got %d", got)
	}
	if got := ParseInt("2.9"); got != 2 {
		t.Fatalf("expected truncation, got %d", got)
	}
	if got := ParseInt("1e40"); got != 0 {
		t.Fatalf("expected overflow to 0, got %d", got)
	}
}

func FuzzParseNumberIsTotal(f *testing.F) {
	for _, s := range []string{"", "-", "1.5", "abc", "9%", "1e309"} {
		f.Add(s)
	}
	f.Fuzz(func(t *testing.T, s string) {
		got := ParseNumber(s)
		if got != got {
			t.Fatalf("NaN for %q", s)
		}
		_ = ParseInt(s)
	})
}
