// Package filter keeps the cascading filter state of one activity view
// and derives the matching activities and the options each dependent
// dimension may offer.
package filter

import (
	"time"

	"learnlens/internal/enrich"
	"learnlens/internal/models"
)

// Item is an enriched activity with its stable key.
type Item struct {
	Key string `json:"key"`
	models.Activity
}

// View is a read-only snapshot of an engine.
type View struct {
	Filters            State    `json:"filters"`
	Activities         []Item   `json:"activities"`
	Total              int      `json:"total"`
	Matched            int      `json:"matched"`
	AvailableSubjects  []string `json:"availableSubjects"`
	AvailableChapters  []string `json:"availableChapters"`
	AvailableExercises []string `json:"availableExercises"`
}

// Engine holds the filter state over one activity collection. Every read
// reflects the latest write. An Engine is not safe for concurrent use; it
// expects a single owner that funnels all writes through its setters.
type Engine struct {
	cfg      Config
	enricher *enrich.Enricher

	activities []models.Activity
	keys       []string
	state      State

	matched   []int
	subjects  []string
	chapters  []string
	exercises []string
}

// Option configures an Engine.
type Option func(*Engine)

// WithConfig selects the active dimensions.
func WithConfig(cfg Config) Option {
	return func(e *Engine) {
		e.cfg = cfg.normalized()
	}
}

// WithEnricher sets the enricher used on the source collection.
func WithEnricher(en *enrich.Enricher) Option {
	return func(e *Engine) {
		if en != nil {
			e.enricher = en
		}
	}
}

// New creates an engine over raw activities in the initial state.
func New(raw []models.Activity, opts ...Option) *Engine {
	e := &Engine{
		cfg:      CascadeConfig(),
		enricher: enrich.New(nil),
		state:    InitialState(),
	}
	for _, opt := range opts {
		opt(e)
	}
	e.SetActivities(raw)
	return e
}

// Replay builds an engine and applies actions in order.
func Replay(raw []models.Activity, actions []Action, opts ...Option) *Engine {
	e := New(raw, opts...)
	for _, a := range actions {
		e.Dispatch(a)
	}
	return e
}

// Config returns the engine's dimension config.
func (e *Engine) Config() Config {
	return e.cfg
}

// SetActivities replaces the source collection. Selections that are no
// longer reachable in the new collection are dropped.
func (e *Engine) SetActivities(raw []models.Activity) {
	e.activities = e.enricher.EnrichAll(raw)
	e.keys = make([]string, len(e.activities))
	for i := range e.activities {
		e.keys[i] = e.activities[i].Key(i)
	}
	r := &reducer{cfg: e.cfg, activities: e.activities}
	e.state = r.prune(e.state.clone())
	e.refresh()
}

// Dispatch applies an action and recomputes every derived value.
func (e *Engine) Dispatch(a Action) {
	e.state = Reduce(e.cfg, e.activities, e.state, a)
	e.refresh()
}

func (e *Engine) refresh() {
	unlock := e.cfg.UnlockAssistant
	e.matched = matchIndices(e.cfg, e.activities, e.state)
	e.subjects = AvailableSubjects(e.activities, unlock, e.state.Assistants)
	e.chapters = AvailableChapters(e.activities, unlock, e.state.Subjects)
	e.exercises = AvailableExercises(e.activities, unlock, e.state.Subjects, e.state.Chapters)
	if !e.cfg.Cascade {
		e.subjects, e.chapters, e.exercises = []string{}, []string{}, []string{}
	}
}

// SetKeyword sets the search keyword.
func (e *Engine) SetKeyword(keyword string) { e.Dispatch(SetKeyword{Keyword: keyword}) }

// SetAssistants replaces the assistant selection.
func (e *Engine) SetAssistants(names ...string) { e.Dispatch(SetAssistants{Names: names}) }

// ToggleAssistant adds or removes an assistant.
func (e *Engine) ToggleAssistant(name string) { e.Dispatch(ToggleAssistant{Name: name}) }

// SetSubjects replaces the subject selection.
func (e *Engine) SetSubjects(names ...string) { e.Dispatch(SetSubjects{Names: names}) }

// ToggleSubject adds or removes a subject.
func (e *Engine) ToggleSubject(name string) { e.Dispatch(ToggleSubject{Name: name}) }

// SetChapters replaces the chapter selection.
func (e *Engine) SetChapters(names ...string) { e.Dispatch(SetChapters{Names: names}) }

// ToggleChapter adds or removes a chapter.
func (e *Engine) ToggleChapter(name string) { e.Dispatch(ToggleChapter{Name: name}) }

// SetExercises replaces the exercise type selection.
func (e *Engine) SetExercises(names ...string) { e.Dispatch(SetExercises{Names: names}) }

// ToggleExercise adds or removes an exercise type.
func (e *Engine) ToggleExercise(name string) { e.Dispatch(ToggleExercise{Name: name}) }

// OpenDatePicker opens the date picker in the current mode.
func (e *Engine) OpenDatePicker() { e.Dispatch(OpenDatePicker{}) }

// CloseDatePicker closes the date picker.
func (e *Engine) CloseDatePicker() { e.Dispatch(CloseDatePicker{}) }

// SetDateMode selects the boundary the next commit sets.
func (e *Engine) SetDateMode(mode DateMode) { e.Dispatch(SetDateMode{Mode: mode}) }

// ToggleDateMode flips between start and end picking.
func (e *Engine) ToggleDateMode() { e.Dispatch(ToggleDateMode{}) }

// CommitDate sets the boundary chosen by the current mode.
func (e *Engine) CommitDate(date time.Time) { e.Dispatch(CommitDate{Date: date}) }

// SetDateRange sets both boundaries; nil leaves a side open.
func (e *Engine) SetDateRange(start, end *time.Time) {
	e.Dispatch(SetDateRange{Start: start, End: end})
}

// ClearDateRange removes both date boundaries.
func (e *Engine) ClearDateRange() { e.Dispatch(ClearDateRange{}) }

// SetScoreRange bounds the score percentage.
func (e *Engine) SetScoreRange(min, max *float64) { e.Dispatch(SetScoreRange{Min: min, Max: max}) }

// Reset clears every filter at once.
func (e *Engine) Reset() { e.Dispatch(Reset{}) }

// State returns a copy of the current filter state.
func (e *Engine) State() State {
	return e.state.clone()
}

// Activities returns every enriched activity in source order.
func (e *Engine) Activities() []models.Activity {
	out := make([]models.Activity, len(e.activities))
	for i := range e.activities {
		out[i] = e.activities[i].Clone()
	}
	return out
}

// Filtered returns the activities matching the current state.
func (e *Engine) Filtered() []models.Activity {
	out := make([]models.Activity, len(e.matched))
	for i, j := range e.matched {
		out[i] = e.activities[j].Clone()
	}
	return out
}

// AvailableSubjects returns the subjects that may currently be selected.
func (e *Engine) AvailableSubjects() []string { return cloneStrings(e.subjects) }

// AvailableChapters returns the chapters that may currently be selected.
func (e *Engine) AvailableChapters() []string { return cloneStrings(e.chapters) }

// AvailableExercises returns the exercise types that may currently be
// selected.
func (e *Engine) AvailableExercises() []string { return cloneStrings(e.exercises) }

// Lookup finds an enriched activity by key, whether or not it matches the
// current filters.
func (e *Engine) Lookup(key string) (models.Activity, bool) {
	for i, k := range e.keys {
		if k == key {
			return e.activities[i].Clone(), true
		}
	}
	return models.Activity{}, false
}

// View snapshots the state, the matching activities and the options.
func (e *Engine) View() View {
	items := make([]Item, len(e.matched))
	for i, j := range e.matched {
		items[i] = Item{Key: e.keys[j], Activity: e.activities[j].Clone()}
	}
	return View{
		Filters:            e.State(),
		Activities:         items,
		Total:              len(e.activities),
		Matched:            len(e.matched),
		AvailableSubjects:  e.AvailableSubjects(),
		AvailableChapters:  e.AvailableChapters(),
		AvailableExercises: e.AvailableExercises(),
	}
}
