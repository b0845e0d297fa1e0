package enrich

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"learnlens/internal/models"
)

const overlayYAML = `
lesson_assistant: Leçons
subject_rules:
  - keywords: [histoire]
    subject: Histoire
exercises:
  Histoire:
    - title: Frise chronologique
      result: 2/3
assistant_colors:
  Leçons: "#000000"
`

func TestParseTablesOverlaysDefaults(t *testing.T) {
	tables, err := ParseTables([]byte(overlayYAML))
	require.NoError(t, err)

	assert.Equal(t, "Leçons", tables.LessonAssistant)
	assert.Equal(t, AssistantOther, tables.DefaultAssistant)
	assert.Equal(t, []SubjectRule{{Keywords: []string{"histoire"}, Subject: "Histoire"}}, tables.SubjectRules)
	assert.Equal(t, []models.Exercise{{Title: "Frise chronologique", Result: "2/3"}}, tables.Exercises["Histoire"])
	assert.Equal(t, DefaultTables().Commentary, tables.Commentary)
	assert.Equal(t, "#000000", tables.AssistantColor("Leçons"))
	assert.Equal(t, "#7B61FF", tables.AssistantColor(AssistantResearch))
}

func TestCustomTablesDriveEnrichment(t *testing.T) {
	tables, err := ParseTables([]byte(overlayYAML))
	require.NoError(t, err)
	en := New(tables)

	got := en.Enrich(models.Activity{Title: "Assistant Leçons histoire de Rome"})
	assert.Equal(t, "Leçons", got.Assistant)
	assert.Equal(t, "Histoire", got.Subject)
	assert.Equal(t, tables.Exercises["Histoire"], got.Exercises)

	got = en.Enrich(models.Activity{Title: "lecture"})
	assert.Empty(t, got.Subject, "default rules are replaced, not merged")
}

func TestLoadTables(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tables.yaml")
	require.NoError(t, os.WriteFile(path, []byte(overlayYAML), 0o600))

	tables, err := LoadTables(path)
	require.NoError(t, err)
	assert.Equal(t, "Leçons", tables.LessonAssistant)

	_, err = LoadTables(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	_, err = ParseTables([]byte("subject_rules: {not: [a list"))
	assert.Error(t, err)
}

func TestAssistantColorFallback(t *testing.T) {
	tables := DefaultTables()
	assert.Equal(t, "#4A90E2", tables.AssistantColor(AssistantLessons))
	assert.Equal(t, defaultColor, tables.AssistantColor("Inconnu"))
}

func TestSampleTablesFile(t *testing.T) {
	tables, err := LoadTables(filepath.Join("..", "..", "configs", "tables.yaml"))
	require.NoError(t, err)

	assert.Equal(t, AssistantLessons, tables.LessonAssistant)
	assert.Equal(t, DefaultTables().Commentary, tables.Commentary, "sections left out keep the defaults")

	got := New(tables).Enrich(models.Activity{Title: "Une expérience de sciences"})
	assert.Equal(t, AssistantOther, got.Assistant)
	assert.Equal(t, "Sciences", got.Subject)
}
