package preset

import (
	"errors"
	"fmt"
	"sort"
)

// Values maps a parameter code (e.g. "0x10") to its value in [0,100].
type Values map[string]int

// Value bounds for every parameter.
const (
	MinValue = 0
	MaxValue = 100
)

// Preset is a named set of target parameter values.
type Preset struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	Values     Values `json:"values"`
	IsCustom   bool   `json:"isCustom"`
	IsModified bool   `json:"isModified"`
}

var (
	ErrNotFound        = errors.New("preset not found")
	ErrDuplicateID     = errors.New("preset id already exists")
	ErrValueOutOfRange = errors.New("parameter value out of range")
	ErrInvalidPreset   = errors.New("invalid preset")
)

// StorageCorruptError reports a persisted blob that could not be decoded.
// The store recovers from it by starting with no custom presets.
type StorageCorruptError struct {
	Err error
}

func (e *StorageCorruptError) Error() string {
	return fmt.Sprintf("preset storage corrupt: %v", e.Err)
}

func (e *StorageCorruptError) Unwrap() error { return e.Err }

// Equal reports whether v and o have the same codes with the same values.
func (v Values) Equal(o Values) bool {
	if len(v) != len(o) {
		return false
	}
	for code, val := range v {
		other, ok := o[code]
		if !ok || other != val {
			return false
		}
	}
	return true
}

// Clone returns a copy that shares no storage with v. Nil stays nil.
func (v Values) Clone() Values {
	if v == nil {
		return nil
	}
	cp := make(Values, len(v))
	for code, val := range v {
		cp[code] = val
	}
	return cp
}

// With returns a copy of v with code set to value.
func (v Values) With(code string, value int) Values {
	cp := v.Clone()
	if cp == nil {
		cp = make(Values, 1)
	}
	cp[code] = value
	return cp
}

// Codes returns the parameter codes in ascending order.
func (v Values) Codes() []string {
	codes := make([]string, 0, len(v))
	for code := range v {
		codes = append(codes, code)
	}
	sort.Strings(codes)
	return codes
}

// Validate checks every value is within [MinValue, MaxValue].
func (v Values) Validate() error {
	for _, code := range v.Codes() {
		if err := ValidateValue(code, v[code]); err != nil {
			return err
		}
	}
	return nil
}

// ValidateValue checks a single code/value pair.
func ValidateValue(code string, value int) error {
	if code == "" {
		return fmt.Errorf("%w: empty parameter code", ErrInvalidPreset)
	}
	if value < MinValue || value > MaxValue {
		return fmt.Errorf("%w: %s=%d", ErrValueOutOfRange, code, value)
	}
	return nil
}

func (p Preset) clone() Preset {
	p.Values = p.Values.Clone()
	return p
}
