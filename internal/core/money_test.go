package core

import (
	"errors"
	"testing"
)

func TestParseAmount(t *testing.T) {
	cases := []struct {
		in  string
		out int64
		ok  bool
	}{
		{"1500", 1500, true},
		{" 25000 ", 25000, true},
		{"25000\r", 25000, true},
		{"0", 0, true},
		{"+42", 42, true},
		{"-7", -7, true},
		{"1500.75", 1500, true},
		{"12abc", 12, true},
		{"abc", 0, false},
		{"", 0, false},
		{"-", 0, false},
		{"99999999999999999999", 0, false},
	}
	for _, tc := range cases {
		got, err := ParseAmount(tc.in)
		if tc.ok {
			if err != nil || got.Units != tc.out {
				t.Fatalf("%q expected %d, got %d (err=%v)", tc.in, tc.out, got.Units, err)
			}
		} else if !errors.Is(err, ErrInvalidAmount) {
			t.Fatalf("%q expected ErrInvalidAmount, got %v", tc.in, err)
		}
	}
}

func TestShortenMoney(t *testing.T) {
	cases := []struct {
		in  int64
		out string
	}{
		{0, "?"},
		{999, "999"},
		{1000, "1K"},
		{1500, "2K"},
		{10000, "10K"},
		{500000, "500K"},
		{1000000, "1M"},
		{50000000, "50M"},
		{1000000000, "1B"},
		{5000000000, "5B"},
		{5000000000000, "5000B"},
	}
	for _, tc := range cases {
		if got := ShortenMoney(tc.in); got != tc.out {
			t.Errorf("ShortenMoney(%d) = %q, want %q", tc.in, got, tc.out)
		}
	}
}

func TestFormatSize(t *testing.T) {
	cases := []struct {
		in  float64
		out string
	}{
		{0, "?"},
		{-1, "?"},
		{512, "512B"},
		{1024, "1KB"},
		{1536, "2KB"},
		{5 * 1024 * 1024, "5MB"},
	}
	for _, tc := range cases {
		if got := FormatSize(tc.in); got != tc.out {
			t.Errorf("FormatSize(%v) = %q, want %q", tc.in, got, tc.out)
		}
	}
}

func TestFormatNumberAndMoney(t *testing.T) {
	if got := FormatNumber(1234567); got != "1,234,567" {
		t.Fatalf("FormatNumber = %q", got)
	}
	if got := FormatNumber(-1000); got != "-1,000" {
		t.Fatalf("FormatNumber negative = %q", got)
	}
	if got := FormatNumber(999); got != "999" {
		t.Fatalf("FormatNumber short = %q", got)
	}
	if got := FormatMoney(13250); got != "13.250 ₫" {
		t.Fatalf("FormatMoney = %q", got)
	}
}
