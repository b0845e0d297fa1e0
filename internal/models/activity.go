package models

import (
	"regexp"
	"strconv"
)

// Activity is a learning activity as recorded for a child. The same type
// carries raw records and enriched ones; enrichment only fills fields that
// are empty. Conversation and Exercises distinguish absent (nil) from
// present but empty, and keep that distinction through JSON.
type Activity struct {
	ID           *int64    `json:"id,omitempty"`
	Date         string    `json:"date"`
	Title        string    `json:"activite"`
	Duration     string    `json:"duree,omitempty"`
	Score        string    `json:"score,omitempty"`
	Assistant    string    `json:"assistant,omitempty"`
	Subject      string    `json:"matiere,omitempty"`
	Chapter      string    `json:"chapitre,omitempty"`
	ExerciseType string    `json:"typeExercice,omitempty"`
	Conversation []Message `json:"conversation,omitzero"`

	Comments        string     `json:"commentaires,omitempty"`
	SpecificComment string     `json:"commentaireSpecifique,omitempty"`
	Recommendations string     `json:"recommandations,omitempty"`
	Exercises       []Exercise `json:"exercices,omitzero"`

	ScoreDetails *ScoreDetails `json:"scoreDetails,omitempty"`
}

// Message is one turn of the conversation between a child and an assistant.
type Message struct {
	Sender    string `json:"sender" yaml:"sender"`
	Text      string `json:"text" yaml:"text"`
	Timestamp string `json:"timestamp,omitempty" yaml:"timestamp"`
}

// Exercise is a single exercise completed during an activity.
type Exercise struct {
	Title  string `json:"titre" yaml:"title"`
	Result string `json:"resultat,omitempty" yaml:"result"`
}

// ScoreDetails is the parsed form of a "<correct>/<total>" score. Counts are
// float64 so that long digit strings still parse; they are exact up to 2^53.
type ScoreDetails struct {
	Correct    float64 `json:"correct"`
	Total      float64 `json:"total"`
	Percentage float64 `json:"percentage"`
}

var scorePattern = regexp.MustCompile(`^(\d+)/(\d+)$`)

// ParseScore parses the canonical score format. It returns nil when the
// string does not match, the total is zero, or a count exceeds the float64
// range (hundreds of digits), which would make the percentage infinite.
func ParseScore(score string) *ScoreDetails {
	m := scorePattern.FindStringSubmatch(score)
	if m == nil {
		return nil
	}
	correct, err := strconv.ParseFloat(m[1], 64)
	if err != nil {
		return nil
	}
	total, err := strconv.ParseFloat(m[2], 64)
	if err != nil || total == 0 {
		return nil
	}
	return &ScoreDetails{
		Correct:    correct,
		Total:      total,
		Percentage: correct / total * 100,
	}
}

// String renders the score back in "<correct>/<total>" form.
func (s ScoreDetails) String() string {
	return formatCount(s.Correct) + "/" + formatCount(s.Total)
}

func formatCount(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// Key returns a stable identity for the activity. Legacy records without
// an ID fall back to their position in the source collection.
func (a *Activity) Key(position int) string {
	if a.ID != nil {
		return "id-" + strconv.FormatInt(*a.ID, 10)
	}
	return "pos-" + strconv.Itoa(position)
}

// Clone returns a deep copy so callers can hand activities out without
// sharing slices.
func (a Activity) Clone() Activity {
	out := a
	if a.ID != nil {
		id := *a.ID
		out.ID = &id
	}
	if a.Conversation != nil {
		out.Conversation = make([]Message, len(a.Conversation))
		copy(out.Conversation, a.Conversation)
	}
	if a.Exercises != nil {
		out.Exercises = make([]Exercise, len(a.Exercises))
		copy(out.Exercises, a.Exercises)
	}
	if a.ScoreDetails != nil {
		sd := *a.ScoreDetails
		out.ScoreDetails = &sd
	}
	return out
}
