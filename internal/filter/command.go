package filter

import (
	"errors"
	"fmt"
	"time"
)

// ErrUnknownCommand is returned for a command type the engine does not know.
var ErrUnknownCommand = errors.New("unknown filter command")

// Command is the wire form of an Action.
type Command struct {
	Type   string   `json:"type"`
	Value  string   `json:"value,omitempty"`
	Values []string `json:"values,omitempty"`
	Date   string   `json:"date,omitempty"`
	Start  string   `json:"start,omitempty"`
	End    string   `json:"end,omitempty"`
	Mode   string   `json:"mode,omitempty"`
	Min    *float64 `json:"min,omitempty"`
	Max    *float64 `json:"max,omitempty"`
}

// Action decodes the command. Dates are read in loc.
func (c Command) Action(loc *time.Location) (Action, error) {
	switch c.Type {
	case "set_keyword":
		return SetKeyword{Keyword: c.Value}, nil
	case "set_assistants":
		return SetAssistants{Names: c.Values}, nil
	case "toggle_assistant":
		return ToggleAssistant{Name: c.Value}, nil
	case "set_subjects":
		return SetSubjects{Names: c.Values}, nil
	case "toggle_subject":
		return ToggleSubject{Name: c.Value}, nil
	case "set_chapters":
		return SetChapters{Names: c.Values}, nil
	case "toggle_chapter":
		return ToggleChapter{Name: c.Value}, nil
	case "set_exercises":
		return SetExercises{Names: c.Values}, nil
	case "toggle_exercise":
		return ToggleExercise{Name: c.Value}, nil
	case "open_date_picker":
		return OpenDatePicker{}, nil
	case "close_date_picker":
		return CloseDatePicker{}, nil
	case "set_date_mode":
		mode := DateMode(c.Mode)
		if mode != PickingStart && mode != PickingEnd {
			return nil, fmt.Errorf("invalid date mode %q", c.Mode)
		}
		return SetDateMode{Mode: mode}, nil
	case "toggle_date_mode":
		return ToggleDateMode{}, nil
	case "commit_date":
		t, ok := ParseDate(c.Date, loc)
		if !ok {
			return nil, fmt.Errorf("invalid date %q", c.Date)
		}
		return CommitDate{Date: t}, nil
	case "set_date_range":
		start, err := optionalDate(c.Start, loc)
		if err != nil {
			return nil, err
		}
		end, err := optionalDate(c.End, loc)
		if err != nil {
			return nil, err
		}
		return SetDateRange{Start: start, End: end}, nil
	case "clear_date_range":
		return ClearDateRange{}, nil
	case "set_score_range":
		return SetScoreRange{Min: c.Min, Max: c.Max}, nil
	case "reset":
		return Reset{}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownCommand, c.Type)
	}
}

func optionalDate(value string, loc *time.Location) (*time.Time, error) {
	if value == "" {
		return nil, nil
	}
	t, ok := ParseDate(value, loc)
	if !ok {
		return nil, fmt.Errorf("invalid date %q", value)
	}
	return &t, nil
}

// Actions decodes a list of commands, stopping at the first bad one.
func Actions(commands []Command, loc *time.Location) ([]Action, error) {
	out := make([]Action, 0, len(commands))
	for i, c := range commands {
		a, err := c.Action(loc)
		if err != nil {
			return nil, fmt.Errorf("command %d: %w", i, err)
		}
		out = append(out, a)
	}
	return out, nil
}
