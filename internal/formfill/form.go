package formfill

type Option struct {
	Value string
	Label string
}

// Select is an in-memory select control. Selected is -1 when nothing is
// selected.
type Select struct {
	ID       string
	Options  []Option
	Selected int
}

func (s *Select) Len() int                 { return len(s.Options) }
func (s *Select) OptionValue(i int) string { return s.Options[i].Value }
func (s *Select) SelectedIndex() int       { return s.Selected }
func (s *Select) SetSelectedIndex(i int)   { s.Selected = i }

// Choice is an option as a template renders it.
type Choice struct {
	Value    string
	Label    string
	Selected bool
}

func (s *Select) Choices() []Choice {
	choices := make([]Choice, len(s.Options))
	for i, o := range s.Options {
		choices[i] = Choice{Value: o.Value, Label: o.Label, Selected: i == s.Selected}
	}
	return choices
}

type Input struct {
	ID       string
	Val      string
	Disabled bool
}

func (in *Input) Value() string      { return in.Val }
func (in *Input) SetValue(v string)  { in.Val = v }
func (in *Input) SetDisabled(d bool) { in.Disabled = d }

// Form is a Document backed by plain structs, used for server-side
// rendering.
type Form struct {
	selects map[string]*Select
	inputs  map[string]*Input
}

func NewForm() *Form {
	return &Form{
		selects: make(map[string]*Select),
		inputs:  make(map[string]*Input),
	}
}

// AddSelect registers a select with its first option selected, as a browser
// would.
func (f *Form) AddSelect(id string, options ...Option) *Select {
	s := &Select{ID: id, Options: options, Selected: -1}
	if len(options) > 0 {
		s.Selected = 0
	}
	f.selects[id] = s
	return s
}

func (f *Form) AddInput(id, value string) *Input {
	in := &Input{ID: id, Val: value}
	f.inputs[id] = in
	return in
}

func (f *Form) Select(id string) SelectField {
	s, ok := f.selects[id]
	if !ok {
		return nil
	}
	return s
}

func (f *Form) Input(id string) InputField {
	in, ok := f.inputs[id]
	if !ok {
		return nil
	}
	return in
}

func (f *Form) SelectControl(id string) *Select {
	return f.selects[id]
}

func (f *Form) InputControl(id string) *Input {
	return f.inputs[id]
}
