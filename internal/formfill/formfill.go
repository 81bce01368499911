// Package formfill binds server-supplied settings into form controls and
// keeps dependent fields enabled or disabled to match a mode selector.
//
// All operations degrade silently: absent controls are skipped and a value
// with no matching option leaves the selection as it was.
package formfill

import (
	"log/slog"
	"strconv"
	"strings"
)

type SelectField interface {
	Len() int
	OptionValue(i int) string
	SelectedIndex() int
	SetSelectedIndex(i int)
}

type InputField interface {
	Value() string
	SetValue(v string)
	SetDisabled(disabled bool)
}

// Document gives access to the controls of one form. Missing controls are
// reported as nil.
type Document interface {
	Select(id string) SelectField
	Input(id string) InputField
}

// SelectedValue returns the value of the selected option, or "" when
// nothing valid is selected.
func SelectedValue(sel SelectField) string {
	i := sel.SelectedIndex()
	if i < 0 || i >= sel.Len() {
		return ""
	}
	return sel.OptionValue(i)
}

// SelectNearestValue selects the first option whose numeric value lies
// strictly between 0.9*target and 1.1*target. The window is fixed by target,
// so this is first-in-range rather than the closest option.
func SelectNearestValue(sel SelectField, target float64) bool {
	if sel == nil {
		return false
	}
	low, high := 0.9*target, 1.1*target
	for i := 0; i < sel.Len(); i++ {
		v, err := strconv.ParseFloat(strings.TrimSpace(sel.OptionValue(i)), 64)
		if err != nil {
			continue
		}
		if v > low && v < high {
			sel.SetSelectedIndex(i)
			return true
		}
	}
	slog.Debug("formfill: no option within range", "target", target)
	return false
}

// SelectExactValue selects the first option equal to target, comparing
// numerically when both sides are numbers.
func SelectExactValue(sel SelectField, target string) bool {
	if sel == nil {
		return false
	}
	for i := 0; i < sel.Len(); i++ {
		if looseEqual(sel.OptionValue(i), target) {
			sel.SetSelectedIndex(i)
			return true
		}
	}
	slog.Debug("formfill: no matching option", "target", target)
	return false
}

func looseEqual(a, b string) bool {
	if a == b {
		return true
	}
	x, errX := strconv.ParseFloat(strings.TrimSpace(a), 64)
	y, errY := strconv.ParseFloat(strings.TrimSpace(b), 64)
	return errX == nil && errY == nil && x == y
}
