package core

import (
	"errors"
	"fmt"
)

// FieldCount is the number of positional fields in one transaction line.
const FieldCount = 5

type (
	// Money is an integer amount in the smallest currency unit.
	Money struct {
		Units int64
	}

	// Record is one transaction line. Records are built once by the parser
	// and never mutated afterwards.
	Record struct {
		Date      string
		DocNumber string
		RawMoney  string // money field exactly as it appeared in the line
		Amount    Money  // coerced RawMoney, zero when AmountOK is false
		AmountOK  bool
		Detail    string
		Page      string
	}

	// Range is a half-open [Lower, Upper) interval over amounts.
	Range struct {
		Lower int64  `yaml:"lower" json:"lower"`
		Upper int64  `yaml:"upper" json:"upper"`
		Name  string `yaml:"label,omitempty" json:"label,omitempty"`
	}

	// Bucket is a Range together with the number of records it holds.
	Bucket struct {
		Label string `json:"label"`
		Lower int64  `json:"lower"`
		Upper int64  `json:"upper"`
		Count int    `json:"count"`
	}

	// Summary holds the aggregate statistics of one run. All fields are
	// zero when Count is zero.
	Summary struct {
		Count int
		Total int64
		Mean  float64
		Max   int64
		Min   int64
	}
)

var (
	ErrInvalidAmount = errors.New("invalid amount")
	ErrInvalidRange  = errors.New("invalid range")
)

// NewRecord maps positional fields onto a Record. Missing trailing fields
// are left empty and fields past the fifth are dropped.
func NewRecord(fields []string) Record {
	get := func(i int) string {
		if i < len(fields) {
			return fields[i]
		}
		return ""
	}
	r := Record{
		Date:      get(0),
		DocNumber: get(1),
		RawMoney:  get(2),
		Detail:    get(3),
		Page:      get(4),
	}
	if m, err := ParseAmount(r.RawMoney); err == nil {
		r.Amount = m
		r.AmountOK = true
	}
	return r
}

// Contains reports whether v lies in [Lower, Upper).
func (r Range) Contains(v int64) bool {
	return v >= r.Lower && v < r.Upper
}

// Label returns the configured name, or the shortened bounds ("1K - 10K").
func (r Range) Label() string {
	if r.Name != "" {
		return r.Name
	}
	return ShortenMoney(r.Lower) + " - " + ShortenMoney(r.Upper)
}

func (r Range) Validate() error {
	if r.Lower >= r.Upper {
		return fmt.Errorf("%w: lower %d must be below upper %d", ErrInvalidRange, r.Lower, r.Upper)
	}
	return nil
}

// Overlaps reports whether the two ranges share at least one value.
func (r Range) Overlaps(o Range) bool {
	return r.Lower < o.Upper && o.Lower < r.Upper
}

// Empty reports whether the summary was computed over no records.
func (s Summary) Empty() bool {
	return s.Count == 0
}
