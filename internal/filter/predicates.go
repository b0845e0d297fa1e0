package filter

import (
	"strings"
	"time"

	"learnlens/internal/models"
)

var dateLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006-01-02",
}

// ParseDate parses an ISO-like activity date. Values without a zone are
// read in loc.
func ParseDate(value string, loc *time.Location) (time.Time, bool) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, false
	}
	if loc == nil {
		loc = time.UTC
	}
	for _, layout := range dateLayouts {
		if t, err := time.ParseInLocation(layout, value, loc); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// startOfDay truncates t to midnight of its calendar day in loc.
func startOfDay(t time.Time, loc *time.Location) time.Time {
	y, m, d := t.In(loc).Date()
	return time.Date(y, m, d, 0, 0, 0, 0, loc)
}

// endOfDay is the last millisecond of t's calendar day in loc.
func endOfDay(t time.Time, loc *time.Location) time.Time {
	return startOfDay(t, loc).AddDate(0, 0, 1).Add(-time.Millisecond)
}

// matcher evaluates every active predicate of a state.
type matcher struct {
	loc *time.Location

	keyword       string
	keywordActive bool

	dateActive bool
	from       *time.Time
	to         *time.Time

	assistants map[string]struct{}
	subjects   map[string]struct{}
	chapters   map[string]struct{}
	exercises  map[string]struct{}

	scoreActive bool
	minScore    float64
	maxScore    float64
}

func newMatcher(cfg Config, s State) *matcher {
	m := &matcher{
		loc:           cfg.Location,
		keyword:       strings.ToLower(s.Keyword),
		keywordActive: strings.TrimSpace(s.Keyword) != "",
		dateActive:    s.DateRange.Active(),
	}
	if s.DateRange.Start != nil {
		from := startOfDay(*s.DateRange.Start, m.loc)
		m.from = &from
	}
	if s.DateRange.End != nil {
		to := endOfDay(*s.DateRange.End, m.loc)
		m.to = &to
	}
	if cfg.Assistants && len(s.Assistants) > 0 {
		m.assistants = toSet(s.Assistants)
	}
	if cfg.Cascade {
		if len(s.Subjects) > 0 {
			m.subjects = toSet(s.Subjects)
		}
		if len(s.Chapters) > 0 {
			m.chapters = toSet(s.Chapters)
		}
		if len(s.Exercises) > 0 {
			m.exercises = toSet(s.Exercises)
		}
	}
	if cfg.ScoreRange && (s.MinScore != nil || s.MaxScore != nil) {
		m.scoreActive = true
		m.minScore, m.maxScore = 0, 100
		if s.MinScore != nil {
			m.minScore = *s.MinScore
		}
		if s.MaxScore != nil {
			m.maxScore = *s.MaxScore
		}
	}
	return m
}

func (m *matcher) match(a *models.Activity) bool {
	if m.keywordActive && !m.matchKeyword(a) {
		return false
	}
	if m.dateActive && !m.matchDate(a) {
		return false
	}
	if !inSet(m.assistants, a.Assistant) ||
		!inSet(m.subjects, a.Subject) ||
		!inSet(m.chapters, a.Chapter) ||
		!inSet(m.exercises, a.ExerciseType) {
		return false
	}
	if m.scoreActive {
		if a.ScoreDetails == nil {
			return false
		}
		pct := a.ScoreDetails.Percentage
		if pct < m.minScore || pct > m.maxScore {
			return false
		}
	}
	return true
}

func (m *matcher) matchKeyword(a *models.Activity) bool {
	for _, field := range []string{a.Title, a.Subject, a.Assistant} {
		if field != "" && strings.Contains(strings.ToLower(field), m.keyword) {
			return true
		}
	}
	return false
}

// matchDate fails closed: an unparseable date never satisfies a range.
func (m *matcher) matchDate(a *models.Activity) bool {
	t, ok := ParseDate(a.Date, m.loc)
	if !ok {
		return false
	}
	if m.from != nil && t.Before(*m.from) {
		return false
	}
	if m.to != nil && t.After(*m.to) {
		return false
	}
	return true
}

// inSet treats a nil set as an inactive dimension.
func inSet(set map[string]struct{}, value string) bool {
	if set == nil {
		return true
	}
	if value == "" {
		return false
	}
	_, ok := set[value]
	return ok
}

// Apply returns the activities that satisfy every active predicate of s,
// in source order.
func Apply(cfg Config, activities []models.Activity, s State) []models.Activity {
	idx := matchIndices(cfg, activities, s)
	out := make([]models.Activity, len(idx))
	for i, j := range idx {
		out[i] = activities[j]
	}
	return out
}

func matchIndices(cfg Config, activities []models.Activity, s State) []int {
	m := newMatcher(cfg.normalized(), s)
	out := make([]int, 0, len(activities))
	for i := range activities {
		if m.match(&activities[i]) {
			out = append(out, i)
		}
	}
	return out
}
