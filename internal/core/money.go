// Package core provides money parsing and handling utilities.
//
// This file contains the coercion of the textual money field into an
// integer amount and the display helpers used by reports and the HTTP
// adapter.
package core

import (
	"math"
	"strconv"
	"strings"
)

// ParseAmount converts the money field of a line into an integer amount.
//
// It follows leading-integer semantics: surrounding whitespace is ignored,
// an optional sign is accepted and digits are read up to the first
// non-digit character. Anything after that is discarded, so "1500.75"
// yields 1500. A field without leading digits, or one that overflows
// int64, returns ErrInvalidAmount.
//
// Examples:
//
//	ParseAmount("1500")     -> 1500, nil
//	ParseAmount(" 25000\r") -> 25000, nil
//	ParseAmount("12abc")    -> 12, nil
//	ParseAmount("abc")      -> 0, ErrInvalidAmount
func ParseAmount(s string) (Money, error) {
	s = strings.TrimSpace(s)
	end := 0
	if end < len(s) && (s[end] == '+' || s[end] == '-') {
		end++
	}
	start := end
	for end < len(s) && s[end] >= '0' && s[end] <= '9' {
		end++
	}
	if end == start {
		return Money{}, ErrInvalidAmount
	}
	v, err := strconv.ParseInt(s[:end], 10, 64)
	if err != nil {
		return Money{}, ErrInvalidAmount
	}
	return Money{Units: v}, nil
}

// ShortenMoney abbreviates an amount with K, M or B suffixes (1000-based)
// and rounds to a whole number. Zero renders as "?".
func ShortenMoney(amount int64) string {
	if amount == 0 {
		return "?"
	}
	units := []string{"", "K", "M", "B"}
	v := float64(amount)
	i := 0
	for v >= 1000 && i < len(units)-1 {
		v /= 1000
		i++
	}
	return strconv.FormatFloat(math.Round(v), 'f', 0, 64) + units[i]
}

// FormatSize renders a byte count with 1024-based units. Zero and negative
// (unknown) sizes render as "?".
func FormatSize(size float64) string {
	if size <= 0 || math.IsNaN(size) || math.IsInf(size, 0) {
		return "?"
	}
	units := []string{"B", "KB", "MB", "GB", "TB", "PB", "EB", "ZB", "YB"}
	i := 0
	for size >= 1024 && i < len(units)-1 {
		size /= 1024
		i++
	}
	return strconv.FormatFloat(math.Round(size), 'f', 0, 64) + units[i]
}

// FormatNumber groups the digits of n by thousands with commas.
func FormatNumber(n int64) string {
	return groupDigits(n, ",")
}

// FormatMoney renders an amount in Vietnamese dong, e.g. "1.234.567 ₫".
func FormatMoney(amount float64) string {
	if math.IsNaN(amount) || math.IsInf(amount, 0) {
		return "NaN ₫"
	}
	return groupDigits(int64(math.Round(amount)), ".") + " ₫"
}

func groupDigits(n int64, sep string) string {
	s := strconv.FormatInt(n, 10)
	neg := strings.HasPrefix(s, "-")
	if neg {
		s = s[1:]
	}
	var b strings.Builder
	lead := len(s) % 3
	if lead == 0 {
		lead = 3
	}
	b.WriteString(s[:lead])
	for i := lead; i < len(s); i += 3 {
		b.WriteString(sep)
		b.WriteString(s[i : i+3])
	}
	if neg {
		return "-" + b.String()
	}
	return b.String()
}
