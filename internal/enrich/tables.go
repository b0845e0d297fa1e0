package enrich

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"learnlens/internal/models"
)

// Well-known assistant names.
const (
	AssistantLessons  = "J'Apprends"
	AssistantResearch = "Recherche"
	AssistantHome     = "Accueil"
	AssistantOther    = "Autre"
)

const defaultColor = "#9E9E9E"

// SubjectRule maps any of its lowercase keywords, found in an activity
// title, to a subject.
type SubjectRule struct {
	Keywords []string `yaml:"keywords"`
	Subject  string   `yaml:"subject"`
}

// Commentary is the canned feedback attached to an activity.
type Commentary struct {
	Comments        string `yaml:"comments"`
	SpecificComment string `yaml:"specific_comment"`
	Recommendations string `yaml:"recommendations"`
}

// Tables holds the lookup data used to derive missing activity fields.
// Tables are treated as immutable once handed to an Enricher.
type Tables struct {
	LessonAssistant     string                       `yaml:"lesson_assistant"`
	DefaultAssistant    string                       `yaml:"default_assistant"`
	NoSubjectAssistants []string                     `yaml:"no_subject_assistants"`
	SubjectRules        []SubjectRule                `yaml:"subject_rules"`
	Exercises           map[string][]models.Exercise `yaml:"exercises"`
	Commentary          map[string]Commentary        `yaml:"commentary"`
	Conversation        []models.Message             `yaml:"conversation"`
	AssistantColors     map[string]string            `yaml:"assistant_colors"`
}

// DefaultTables returns the built-in lookup tables.
func DefaultTables() *Tables {
	return &Tables{
		LessonAssistant:     AssistantLessons,
		DefaultAssistant:    AssistantOther,
		NoSubjectAssistants: []string{AssistantHome, AssistantResearch},
		SubjectRules: []SubjectRule{
			{Keywords: []string{"mathématiques"}, Subject: "Mathématiques"},
			{Keywords: []string{"lecture", "vocabulaire", "conjugaison"}, Subject: "Français"},
		},
		Exercises: map[string][]models.Exercise{
			"Mathématiques": {
				{Title: "Additions à deux chiffres", Result: "4/5"},
				{Title: "Problèmes de multiplication", Result: "3/5"},
				{Title: "Calcul mental", Result: "5/5"},
			},
			"Français": {
				{Title: "Compréhension de texte", Result: "4/5"},
				{Title: "Accords du verbe", Result: "3/5"},
				{Title: "Dictée de mots", Result: "5/5"},
			},
		},
		Commentary: map[string]Commentary{
			AssistantLessons: {
				Comments:        "Bonne séance, l'enfant est resté concentré du début à la fin.",
				SpecificComment: "Quelques hésitations sur les dernières questions.",
				Recommendations: "Reprendre les exercices manqués lors de la prochaine séance.",
			},
			AssistantResearch: {
				Comments:        "Recherche menée avec curiosité et de bonnes questions.",
				SpecificComment: "Les sources consultées sont adaptées à son âge.",
				Recommendations: "Encourager la reformulation de ce qui a été appris.",
			},
			AssistantHome: {
				Comments:        "Échange libre avec l'assistant d'accueil.",
				SpecificComment: "Aucune difficulté particulière relevée.",
				Recommendations: "Proposer une activité guidée avec J'Apprends.",
			},
		},
		// Placeholder exchange shown for activities recorded without one.
		Conversation: []models.Message{
			{Sender: "assistant", Text: "Bonjour ! Sur quoi veux-tu travailler aujourd'hui ?", Timestamp: "10:00"},
			{Sender: "child", Text: "Je veux m'entraîner.", Timestamp: "10:01"},
			{Sender: "assistant", Text: "Très bien, commençons !", Timestamp: "10:01"},
		},
		AssistantColors: map[string]string{
			AssistantLessons:  "#4A90E2",
			AssistantResearch: "#7B61FF",
			AssistantHome:     "#2EC4B6",
			AssistantOther:    defaultColor,
		},
	}
}

// LoadTables reads a YAML file and overlays every section it defines on
// top of the defaults.
func LoadTables(path string) (*Tables, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read tables file: %w", err)
	}
	return ParseTables(data)
}

// ParseTables is LoadTables for in-memory YAML.
func ParseTables(data []byte) (*Tables, error) {
	var file Tables
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse tables: %w", err)
	}

	t := DefaultTables()
	if file.LessonAssistant != "" {
		t.LessonAssistant = file.LessonAssistant
	}
	if file.DefaultAssistant != "" {
		t.DefaultAssistant = file.DefaultAssistant
	}
	if file.NoSubjectAssistants != nil {
		t.NoSubjectAssistants = file.NoSubjectAssistants
	}
	if file.SubjectRules != nil {
		t.SubjectRules = file.SubjectRules
	}
	if file.Exercises != nil {
		t.Exercises = file.Exercises
	}
	if file.Commentary != nil {
		t.Commentary = file.Commentary
	}
	if file.Conversation != nil {
		t.Conversation = file.Conversation
	}
	for name, color := range file.AssistantColors {
		t.AssistantColors[name] = color
	}
	return t, nil
}

// AssistantColor returns the display color for an assistant.
func (t *Tables) AssistantColor(name string) string {
	if c, ok := t.AssistantColors[name]; ok {
		return c
	}
	return defaultColor
}
