package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"learnlens/internal/filter"
	"learnlens/internal/models"
)

const history = `[
  {"date": "2025-03-20", "activite": "Mathématiques : les fractions", "assistant": "J'Apprends", "chapitre": "Fractions", "score": "8/10"},
  {"date": "2025-03-22", "activite": "Lecture du soir", "assistant": "J'Apprends", "score": "3/10"},
  {"date": "2025-03-24T09:15:00Z", "activite": "Assistant Recherche : les volcans"}
]`

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestEnrichCommand(t *testing.T) {
	path := writeFile(t, "history.json", history)

	out, err := run(t, "enrich", path)
	require.NoError(t, err)

	var enriched []models.Activity
	require.NoError(t, json.Unmarshal([]byte(out), &enriched))
	require.Len(t, enriched, 3)
	assert.Equal(t, "Mathématiques", enriched[0].Subject)
	assert.Equal(t, "Français", enriched[1].Subject)
	assert.Equal(t, "Recherche", enriched[2].Assistant)
	assert.Empty(t, enriched[2].Subject)
	require.NotNil(t, enriched[0].ScoreDetails)
	assert.Equal(t, 80.0, enriched[0].ScoreDetails.Percentage)
}

func TestFilterCommand(t *testing.T) {
	path := writeFile(t, "history.json", history)

	tests := []struct {
		name  string
		args  []string
		title []string
	}{
		{"no filters", nil, []string{"Mathématiques : les fractions", "Lecture du soir", "Assistant Recherche : les volcans"}},
		{"keyword", []string{"--keyword", "VOLCAN"}, []string{"Assistant Recherche : les volcans"}},
		{"cascade", []string{"--assistant", "J'Apprends", "--subject", "Français"}, []string{"Lecture du soir"}},
		{"date range", []string{"--from", "2025-03-21", "--to", "2025-03-24"}, []string{"Lecture du soir", "Assistant Recherche : les volcans"}},
		{"score profile", []string{"--profile", "score", "--min-score", "50"}, []string{"Mathématiques : les fractions"}},
		{"score ignored by cascade profile", []string{"--min-score", "50", "--keyword", "lecture"}, []string{"Lecture du soir"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := run(t, append([]string{"filter", path}, tt.args...)...)
			require.NoError(t, err)

			var view filter.View
			require.NoError(t, json.Unmarshal([]byte(out), &view))
			var titles []string
			for _, item := range view.Activities {
				titles = append(titles, item.Title)
			}
			assert.Equal(t, tt.title, titles)
		})
	}
}

func TestReplayCommand(t *testing.T) {
	path := writeFile(t, "history.json", history)
	commands := writeFile(t, "commands.json", `[
		{"type": "set_assistants", "values": ["J'Apprends"]},
		{"type": "toggle_subject", "value": "Mathématiques"},
		{"type": "open_date_picker"},
		{"type": "commit_date", "date": "2025-03-20"}
	]`)

	out, err := run(t, "replay", path, "--commands", commands)
	require.NoError(t, err)

	var view filter.View
	require.NoError(t, json.Unmarshal([]byte(out), &view))
	require.Equal(t, 1, view.Matched)
	assert.Equal(t, "pos-0", view.Activities[0].Key)
	assert.Equal(t, []string{"Fractions"}, view.AvailableChapters)
	assert.False(t, view.Filters.PickerOpen)
	require.NotNil(t, view.Filters.DateRange.Start)
}

func TestCommandErrors(t *testing.T) {
	path := writeFile(t, "history.json", history)
	badCommands := writeFile(t, "commands.json", `[{"type": "launch"}]`)

	_, err := run(t, "replay", path, "--commands", badCommands)
	assert.ErrorIs(t, err, filter.ErrUnknownCommand)

	_, err = run(t, "filter", path, "--from", "someday")
	assert.Error(t, err)

	_, err = run(t, "filter", path, "--timezone", "Mars/Olympus")
	assert.Error(t, err)

	_, err = run(t, "filter", path, "--profile", "scroe")
	assert.ErrorIs(t, err, filter.ErrUnknownProfile)

	_, err = run(t, "enrich", filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, err)

	_, err = run(t, "replay", path)
	assert.Error(t, err, "--commands is required")
}
