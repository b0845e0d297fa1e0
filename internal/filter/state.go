package filter

import "time"

// DateMode says which boundary the next committed date sets.
type DateMode string

const (
	PickingStart DateMode = "picking-start"
	PickingEnd   DateMode = "picking-end"
)

// DateRange holds inclusive calendar-day boundaries; nil is unbounded.
type DateRange struct {
	Start *time.Time `json:"startDate"`
	End   *time.Time `json:"endDate"`
}

// Active reports whether at least one boundary is set.
func (d DateRange) Active() bool {
	return d.Start != nil || d.End != nil
}

// State is the complete filter selection of one view.
type State struct {
	Keyword    string    `json:"searchKeyword"`
	DateRange  DateRange `json:"dateRange"`
	DateMode   DateMode  `json:"dateMode"`
	PickerOpen bool      `json:"pickerOpen"`
	Assistants []string  `json:"selectedAssistants"`
	Subjects   []string  `json:"selectedSubjects"`
	Chapters   []string  `json:"selectedChapters"`
	Exercises  []string  `json:"selectedExercises"`
	MinScore   *float64  `json:"minScore,omitempty"`
	MaxScore   *float64  `json:"maxScore,omitempty"`
}

// InitialState returns the state of a freshly created engine.
func InitialState() State {
	return State{
		DateMode:   PickingStart,
		Assistants: []string{},
		Subjects:   []string{},
		Chapters:   []string{},
		Exercises:  []string{},
	}
}

func (s State) clone() State {
	out := s
	out.DateRange = DateRange{Start: cloneTime(s.DateRange.Start), End: cloneTime(s.DateRange.End)}
	out.Assistants = cloneStrings(s.Assistants)
	out.Subjects = cloneStrings(s.Subjects)
	out.Chapters = cloneStrings(s.Chapters)
	out.Exercises = cloneStrings(s.Exercises)
	out.MinScore = cloneFloat(s.MinScore)
	out.MaxScore = cloneFloat(s.MaxScore)
	return out
}

func cloneStrings(in []string) []string {
	out := make([]string, len(in))
	copy(out, in)
	return out
}

func cloneTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := *t
	return &v
}

func cloneFloat(f *float64) *float64 {
	if f == nil {
		return nil
	}
	v := *f
	return &v
}

// uniq drops empty and repeated values, keeping first-seen order.
func uniq(values []string) []string {
	out := make([]string, 0, len(values))
	seen := make(map[string]struct{}, len(values))
	for _, v := range values {
		if v == "" {
			continue
		}
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}

// toggle removes value when present and appends it otherwise.
func toggle(values []string, value string) []string {
	if value == "" {
		return cloneStrings(values)
	}
	out := make([]string, 0, len(values)+1)
	found := false
	for _, v := range values {
		if v == value {
			found = true
			continue
		}
		out = append(out, v)
	}
	if !found {
		out = append(out, value)
	}
	return out
}

// intersect keeps the values of selected that are also in allowed, in the
// order of selected.
func intersect(selected, allowed []string) []string {
	set := toSet(allowed)
	out := make([]string, 0, len(selected))
	for _, v := range selected {
		if _, ok := set[v]; ok {
			out = append(out, v)
		}
	}
	return out
}

func toSet(values []string) map[string]struct{} {
	set := make(map[string]struct{}, len(values))
	for _, v := range values {
		set[v] = struct{}{}
	}
	return set
}

func contains(values []string, value string) bool {
	for _, v := range values {
		if v == value {
			return true
		}
	}
	return false
}
