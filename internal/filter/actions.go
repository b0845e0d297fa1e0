package filter

import (
	"time"

	"learnlens/internal/models"
)

// Action is a state transition understood by Reduce.
type Action interface {
	apply(r *reducer, s State) State
}

type reducer struct {
	cfg        Config
	activities []models.Activity
}

// Reduce applies a to s and returns the next state. It does not modify s
// and keeps every cascade invariant: subjects need the unlock assistant,
// chapters need a reachable subject, exercises need a reachable chapter.
func Reduce(cfg Config, activities []models.Activity, s State, a Action) State {
	r := &reducer{cfg: cfg.normalized(), activities: activities}
	return a.apply(r, s.clone())
}

// prune intersects each dependent selection with the options its parent
// level now allows, top-down, so one pass reaches a fixed point.
func (r *reducer) prune(s State) State {
	if !r.cfg.Assistants {
		s.Assistants = []string{}
	}
	if !r.cfg.Cascade {
		s.Subjects, s.Chapters, s.Exercises = []string{}, []string{}, []string{}
		return s
	}
	unlock := r.cfg.UnlockAssistant
	s.Subjects = intersect(s.Subjects, AvailableSubjects(r.activities, unlock, s.Assistants))
	s.Chapters = intersect(s.Chapters, AvailableChapters(r.activities, unlock, s.Subjects))
	s.Exercises = intersect(s.Exercises, AvailableExercises(r.activities, unlock, s.Subjects, s.Chapters))
	return s
}

func (r *reducer) day(t time.Time) *time.Time {
	d := startOfDay(t, r.cfg.Location)
	return &d
}

// SetKeyword replaces the search keyword.
type SetKeyword struct{ Keyword string }

func (a SetKeyword) apply(r *reducer, s State) State {
	s.Keyword = a.Keyword
	return s
}

// SetAssistants replaces the assistant selection.
type SetAssistants struct{ Names []string }

func (a SetAssistants) apply(r *reducer, s State) State {
	if !r.cfg.Assistants {
		return s
	}
	s.Assistants = uniq(a.Names)
	return r.prune(s)
}

// ToggleAssistant adds or removes one assistant.
type ToggleAssistant struct{ Name string }

func (a ToggleAssistant) apply(r *reducer, s State) State {
	if !r.cfg.Assistants {
		return s
	}
	s.Assistants = toggle(s.Assistants, a.Name)
	return r.prune(s)
}

// SetSubjects replaces the subject selection.
type SetSubjects struct{ Names []string }

func (a SetSubjects) apply(r *reducer, s State) State {
	if !r.cfg.Cascade {
		return s
	}
	s.Subjects = uniq(a.Names)
	return r.prune(s)
}

// ToggleSubject adds or removes one subject.
type ToggleSubject struct{ Name string }

func (a ToggleSubject) apply(r *reducer, s State) State {
	if !r.cfg.Cascade {
		return s
	}
	s.Subjects = toggle(s.Subjects, a.Name)
	return r.prune(s)
}

// SetChapters replaces the chapter selection.
type SetChapters struct{ Names []string }

func (a SetChapters) apply(r *reducer, s State) State {
	if !r.cfg.Cascade {
		return s
	}
	s.Chapters = uniq(a.Names)
	return r.prune(s)
}

// ToggleChapter adds or removes one chapter.
type ToggleChapter struct{ Name string }

func (a ToggleChapter) apply(r *reducer, s State) State {
	if !r.cfg.Cascade {
		return s
	}
	s.Chapters = toggle(s.Chapters, a.Name)
	return r.prune(s)
}

// SetExercises replaces the exercise type selection.
type SetExercises struct{ Names []string }

func (a SetExercises) apply(r *reducer, s State) State {
	if !r.cfg.Cascade {
		return s
	}
	s.Exercises = uniq(a.Names)
	return r.prune(s)
}

// ToggleExercise adds or removes one exercise type.
type ToggleExercise struct{ Name string }

func (a ToggleExercise) apply(r *reducer, s State) State {
	if !r.cfg.Cascade {
		return s
	}
	s.Exercises = toggle(s.Exercises, a.Name)
	return r.prune(s)
}

// OpenDatePicker shows the picker. The picking mode is left as is.
type OpenDatePicker struct{}

func (OpenDatePicker) apply(r *reducer, s State) State {
	s.PickerOpen = true
	return s
}

// CloseDatePicker hides the picker without committing a date.
type CloseDatePicker struct{}

func (CloseDatePicker) apply(r *reducer, s State) State {
	s.PickerOpen = false
	return s
}

// SetDateMode selects which boundary the next commit sets.
type SetDateMode struct{ Mode DateMode }

func (a SetDateMode) apply(r *reducer, s State) State {
	if a.Mode == PickingStart || a.Mode == PickingEnd {
		s.DateMode = a.Mode
	}
	return s
}

// ToggleDateMode switches between picking the start and the end.
type ToggleDateMode struct{}

func (ToggleDateMode) apply(r *reducer, s State) State {
	if s.DateMode == PickingEnd {
		s.DateMode = PickingStart
	} else {
		s.DateMode = PickingEnd
	}
	return s
}

// CommitDate sets the boundary selected by the current mode and closes
// the picker. A start after the end clears the end, and an end before the
// start clears the start. The mode does not advance.
type CommitDate struct{ Date time.Time }

func (a CommitDate) apply(r *reducer, s State) State {
	day := r.day(a.Date)
	if s.DateMode == PickingEnd {
		s.DateRange.End = day
		if s.DateRange.Start != nil && s.DateRange.Start.After(*day) {
			s.DateRange.Start = nil
		}
	} else {
		s.DateRange.Start = day
		if s.DateRange.End != nil && s.DateRange.End.Before(*day) {
			s.DateRange.End = nil
		}
	}
	s.PickerOpen = false
	return s
}

// SetDateRange sets both boundaries at once. When the end precedes the
// start the end is dropped.
type SetDateRange struct{ Start, End *time.Time }

func (a SetDateRange) apply(r *reducer, s State) State {
	s.DateRange = DateRange{}
	if a.Start != nil {
		s.DateRange.Start = r.day(*a.Start)
	}
	if a.End != nil {
		s.DateRange.End = r.day(*a.End)
	}
	if s.DateRange.Start != nil && s.DateRange.End != nil && s.DateRange.End.Before(*s.DateRange.Start) {
		s.DateRange.End = nil
	}
	return s
}

// ClearDateRange removes both boundaries.
type ClearDateRange struct{}

func (ClearDateRange) apply(r *reducer, s State) State {
	s.DateRange = DateRange{}
	return s
}

// SetScoreRange bounds the score percentage, inclusive. Bounds are
// clamped to [0, 100] and swapped when inverted; nil leaves a side open.
type SetScoreRange struct{ Min, Max *float64 }

func (a SetScoreRange) apply(r *reducer, s State) State {
	if !r.cfg.ScoreRange {
		return s
	}
	lo, hi := clampPercent(a.Min), clampPercent(a.Max)
	if lo != nil && hi != nil && *lo > *hi {
		lo, hi = hi, lo
	}
	s.MinScore, s.MaxScore = lo, hi
	return s
}

func clampPercent(v *float64) *float64 {
	if v == nil {
		return nil
	}
	c := *v
	if c < 0 {
		c = 0
	}
	if c > 100 {
		c = 100
	}
	return &c
}

// Reset returns to the initial state.
type Reset struct{}

func (Reset) apply(r *reducer, s State) State {
	return InitialState()
}
