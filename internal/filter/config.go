package filter

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"learnlens/internal/enrich"
)

// Config selects which filter dimensions an engine exposes.
type Config struct {
	// Assistants enables the assistant multi-select.
	Assistants bool
	// Cascade enables the dependent subject, chapter and exercise
	// multi-selects. It implies Assistants.
	Cascade bool
	// ScoreRange enables the min/max percentage filter.
	ScoreRange bool
	// UnlockAssistant is the assistant whose selection unlocks subject
	// level filtering.
	UnlockAssistant string
	// Location is the calendar used for date-only values and day
	// boundaries. Nil means UTC.
	Location *time.Location
}

// CascadeConfig filters by keyword, date, assistant, subject, chapter and
// exercise type.
func CascadeConfig() Config {
	return Config{
		Assistants:      true,
		Cascade:         true,
		UnlockAssistant: enrich.AssistantLessons,
		Location:        time.UTC,
	}
}

// ScoreConfig filters by keyword, date, assistant and score percentage.
func ScoreConfig() Config {
	return Config{
		Assistants:      true,
		ScoreRange:      true,
		UnlockAssistant: enrich.AssistantLessons,
		Location:        time.UTC,
	}
}

// SimpleConfig filters by keyword and date only.
func SimpleConfig() Config {
	return Config{
		UnlockAssistant: enrich.AssistantLessons,
		Location:        time.UTC,
	}
}

// ErrUnknownProfile is returned for a profile name ConfigByName does not know
var ErrUnknownProfile = errors.New("unknown filter profile")

// Profiles lists the names ConfigByName accepts
var Profiles = []string{"cascade", "score", "simple"}

// ConfigByName maps a profile name to its config. Names are case-insensitive
// and an empty name selects the cascade profile.
func ConfigByName(name string) (Config, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "cascade", "":
		return CascadeConfig(), nil
	case "score":
		return ScoreConfig(), nil
	case "simple":
		return SimpleConfig(), nil
	}
	return Config{}, fmt.Errorf("%w %q (want one of %s)", ErrUnknownProfile, name, strings.Join(Profiles, ", "))
}

func (c Config) normalized() Config {
	if c.Cascade {
		c.Assistants = true
	}
	if c.UnlockAssistant == "" {
		c.UnlockAssistant = enrich.AssistantLessons
	}
	if c.Location == nil {
		c.Location = time.UTC
	}
	return c
}
