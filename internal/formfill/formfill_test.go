package formfill

import "testing"

func options(values ...string) []Option {
	opts := make([]Option, len(values))
	for i, v := range values {
		opts[i] = Option{Value: v, Label: v}
	}
	return opts
}

func TestSelectExactValue_FirstMatchWins(t *testing.T) {
	f := NewForm()
	sel := f.AddSelect("parity", options("1", "2", "3", "2")...)

	if !SelectExactValue(sel, "2") {
		t.Fatal("expected a match")
	}
	if sel.Selected != 1 {
		t.Errorf("expected first matching option (1), got %d", sel.Selected)
	}
}

func TestSelectExactValue_NoMatchLeavesSelection(t *testing.T) {
	f := NewForm()
	sel := f.AddSelect("flow", options("1", "3")...)
	sel.Selected = 1

	if SelectExactValue(sel, "2") {
		t.Error("expected no match")
	}
	if sel.Selected != 1 {
		t.Errorf("expected selection unchanged at 1, got %d", sel.Selected)
	}
}

func TestSelectExactValue_LooseNumericEquality(t *testing.T) {
	f := NewForm()
	sel := f.AddSelect("bc", options("5", "6", "07", "8")...)

	if !SelectExactValue(sel, "7") {
		t.Fatal("expected numeric match for 07")
	}
	if sel.Selected != 2 {
		t.Errorf("expected option 2, got %d", sel.Selected)
	}
}

func TestSelectExactValue_NilSelect(t *testing.T) {
	if SelectExactValue(nil, "1") {
		t.Error("expected nil select to be ignored")
	}
}

func TestSelectNearestValue_FirstInRange(t *testing.T) {
	tests := []struct {
		name    string
		options []string
		target  float64
		want    int
	}{
		{"exact preset", []string{"9600", "19200", "38400", "115200"}, 115200, 3},
		{"within ten percent", []string{"9600", "19200", "38400", "115200"}, 110000, 3},
		{"skips non numeric", []string{"custom", "57600", "115200"}, 57000, 1},
		{"window is not narrowed per option", []string{"100", "95", "105"}, 100, 0},
		// Both 91 and 100 are in range; the first wins even though 100 is
		// closer. This is first-in-range, not truly nearest.
		{"first in range not closest", []string{"91", "100"}, 100, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := NewForm()
			sel := f.AddSelect("br", options(tt.options...)...)
			sel.Selected = -1

			if !SelectNearestValue(sel, tt.target) {
				t.Fatal("expected a match")
			}
			if sel.Selected != tt.want {
				t.Errorf("expected option %d, got %d", tt.want, sel.Selected)
			}
		})
	}
}

func TestSelectNearestValue_BoundsAreExclusive(t *testing.T) {
	f := NewForm()
	sel := f.AddSelect("br", options("90", "110")...)
	sel.Selected = -1

	if SelectNearestValue(sel, 100) {
		t.Error("expected values exactly on the window edges not to match")
	}
	if sel.Selected != -1 {
		t.Errorf("expected selection unchanged, got %d", sel.Selected)
	}
}

func TestSelectNearestValue_NoMatchLeavesSelection(t *testing.T) {
	f := NewForm()
	sel := f.AddSelect("br", options("9600", "19200")...)
	sel.Selected = 1

	SelectNearestValue(sel, 230400)

	if sel.Selected != 1 {
		t.Errorf("expected selection unchanged at 1, got %d", sel.Selected)
	}
}

func TestSelectedValue(t *testing.T) {
	f := NewForm()
	sel := f.AddSelect("tnmode", options("0", "1")...)

	if got := SelectedValue(sel); got != "0" {
		t.Errorf("expected first option selected by default, got %q", got)
	}
	sel.Selected = 5
	if got := SelectedValue(sel); got != "" {
		t.Errorf("expected empty value for out-of-range selection, got %q", got)
	}
}

func TestForm_MissingControlsAreNil(t *testing.T) {
	f := NewForm()

	if f.Select("nope") != nil {
		t.Error("expected nil select interface for a missing control")
	}
	if f.Input("nope") != nil {
		t.Error("expected nil input interface for a missing control")
	}
}

func TestSelect_Choices(t *testing.T) {
	f := NewForm()
	sel := f.AddSelect("stop", Option{Value: "1", Label: "1"}, Option{Value: "2", Label: "2"})
	sel.Selected = 1

	choices := sel.Choices()
	if len(choices) != 2 {
		t.Fatalf("expected 2 choices, got %d", len(choices))
	}
	if choices[0].Selected || !choices[1].Selected {
		t.Errorf("unexpected selection flags: %+v", choices)
	}
}
