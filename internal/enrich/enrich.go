// Package enrich derives the queryable fields of an activity (score
// breakdown, assistant, subject, canned exercises, commentary and
// conversation) from the loosely-typed record a child's app produced.
package enrich

import (
	"strings"

	"learnlens/internal/models"
)

const assistantMarker = "Assistant "

// Enricher fills in derived activity fields from a set of lookup tables.
type Enricher struct {
	tables *Tables
}

// New creates an enricher. A nil tables value selects DefaultTables.
func New(tables *Tables) *Enricher {
	if tables == nil {
		tables = DefaultTables()
	}
	return &Enricher{tables: tables}
}

// Tables returns the lookup tables the enricher reads from.
func (e *Enricher) Tables() *Tables {
	return e.tables
}

var defaultEnricher = New(nil)

// Enrich enriches a single activity with the default tables.
func Enrich(a models.Activity) models.Activity {
	return defaultEnricher.Enrich(a)
}

// EnrichAll enriches every activity, preserving order.
func (e *Enricher) EnrichAll(activities []models.Activity) []models.Activity {
	out := make([]models.Activity, len(activities))
	for i, a := range activities {
		out[i] = e.Enrich(a)
	}
	return out
}

// Enrich returns a copy of a with every derivable field populated. Fields
// already set on a are authoritative and never overwritten, so enriching
// an enriched activity returns it unchanged.
func (e *Enricher) Enrich(a models.Activity) models.Activity {
	out := a.Clone()

	out.ScoreDetails = models.ParseScore(out.Score)

	if out.Assistant == "" {
		out.Assistant = e.deriveAssistant(out.Title)
	}

	if out.Subject == "" && !e.skipsSubject(out.Assistant) {
		out.Subject = e.deriveSubject(out.Title)
	}

	if out.Assistant == e.tables.LessonAssistant && out.Exercises == nil {
		if canned, ok := e.tables.Exercises[out.Subject]; ok && len(canned) > 0 {
			out.Exercises = append([]models.Exercise(nil), canned...)
		}
	}

	if c, ok := e.tables.Commentary[out.Assistant]; ok {
		if out.Comments == "" {
			out.Comments = c.Comments
		}
		if out.SpecificComment == "" {
			out.SpecificComment = c.SpecificComment
		}
		if out.Recommendations == "" {
			out.Recommendations = c.Recommendations
		}
	}

	if out.Conversation == nil && len(e.tables.Conversation) > 0 {
		out.Conversation = append([]models.Message(nil), e.tables.Conversation...)
	}

	return out
}

// deriveAssistant takes the word that follows "Assistant " in the title.
func (e *Enricher) deriveAssistant(title string) string {
	idx := strings.Index(title, assistantMarker)
	if idx < 0 {
		return e.tables.DefaultAssistant
	}
	fields := strings.Fields(title[idx+len(assistantMarker):])
	if len(fields) == 0 {
		return e.tables.DefaultAssistant
	}
	return fields[0]
}

func (e *Enricher) skipsSubject(assistant string) bool {
	for _, name := range e.tables.NoSubjectAssistants {
		if name == assistant {
			return true
		}
	}
	return false
}

// deriveSubject applies the subject rules in order; the first match wins.
func (e *Enricher) deriveSubject(title string) string {
	lower := strings.ToLower(title)
	for _, rule := range e.tables.SubjectRules {
		for _, kw := range rule.Keywords {
			if kw != "" && strings.Contains(lower, strings.ToLower(kw)) {
				return rule.Subject
			}
		}
	}
	return ""
}
