package models

import (
	"encoding/json"
	"strings"
	"testing"
	"time"
)

func TestSessionIsExpired(t *testing.T) {
	tests := []struct {
		name      string
		expiresAt time.Time
		want      bool
	}{
		{
			name:      "future expiration",
			expiresAt: time.Now().Add(1 * time.Hour),
			want:      false,
		},
		{
			name:      "just expired",
			expiresAt: time.Now().Add(-1 * time.Second),
			want:      true,
		},
		{
			name:      "expired yesterday",
			expiresAt: time.Now().Add(-24 * time.Hour),
			want:      true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			session := Session{
				ID:        "test-session",
				UserID:    1,
				ExpiresAt: tt.expiresAt,
				CreatedAt: time.Now().Add(-1 * time.Hour),
			}
			result := session.IsExpired()
			if result != tt.want {
				t.Errorf("Session.IsExpired() = %v, want %v", result, tt.want)
			}
		})
	}
}

func TestParseScore(t *testing.T) {
	tests := []struct {
		name  string
		score string
		want  *ScoreDetails
	}{
		{name: "canonical", score: "8/10", want: &ScoreDetails{Correct: 8, Total: 10, Percentage: 80}},
		{name: "perfect", score: "5/5", want: &ScoreDetails{Correct: 5, Total: 5, Percentage: 100}},
		{name: "above total", score: "12/10", want: &ScoreDetails{Correct: 12, Total: 10, Percentage: 120}},
		{name: "zero correct", score: "0/4", want: &ScoreDetails{Correct: 0, Total: 4, Percentage: 0}},
		{name: "zero total", score: "3/0", want: nil},
		{name: "empty", score: "", want: nil},
		{name: "spaces", score: "8 / 10", want: nil},
		{name: "percentage", score: "80%", want: nil},
		{name: "negative", score: "-1/10", want: nil},
		{name: "trailing text", score: "8/10 points", want: nil},
		{name: "wider than int64", score: "99999999999999999999/1", want: &ScoreDetails{Correct: 1e20, Total: 1, Percentage: 1e22}},
		{name: "beyond float range", score: strings.Repeat("9", 400) + "/1", want: nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ParseScore(tt.score)
			if tt.want == nil {
				if got != nil {
					t.Errorf("ParseScore(%q) = %+v, want nil", tt.score, *got)
				}
				return
			}
			if got == nil {
				t.Fatalf("ParseScore(%q) = nil, want %+v", tt.score, *tt.want)
			}
			if *got != *tt.want {
				t.Errorf("ParseScore(%q) = %+v, want %+v", tt.score, *got, *tt.want)
			}
		})
	}
}

func TestScoreDetailsString(t *testing.T) {
	sd := ScoreDetails{Correct: 7, Total: 9}
	if got := sd.String(); got != "7/9" {
		t.Errorf("ScoreDetails.String() = %q, want %q", got, "7/9")
	}

	big := ScoreDetails{Correct: 1e20, Total: 4}
	if got := big.String(); got != "100000000000000000000/4" {
		t.Errorf("ScoreDetails.String() = %q, want %q", got, "100000000000000000000/4")
	}
}

func TestActivityKey(t *testing.T) {
	id := int64(42)
	tests := []struct {
		name     string
		activity Activity
		position int
		want     string
	}{
		{name: "with id", activity: Activity{ID: &id}, position: 3, want: "id-42"},
		{name: "legacy record", activity: Activity{}, position: 3, want: "pos-3"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.activity.Key(tt.position); got != tt.want {
				t.Errorf("Activity.Key() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestActivityClone(t *testing.T) {
	id := int64(1)
	orig := Activity{
		ID:           &id,
		Title:        "Fractions",
		Conversation: []Message{{Sender: "enfant", Text: "Bonjour"}},
		Exercises:    []Exercise{{Title: "Exercice 1", Result: "3/5"}},
		ScoreDetails: &ScoreDetails{Correct: 3, Total: 5, Percentage: 60},
	}

	c := orig.Clone()
	*c.ID = 2
	c.Conversation[0].Text = "Au revoir"
	c.Exercises[0].Result = "5/5"
	c.ScoreDetails.Correct = 5

	if *orig.ID != 1 {
		t.Errorf("clone shares ID with original")
	}
	if orig.Conversation[0].Text != "Bonjour" {
		t.Errorf("clone shares conversation with original")
	}
	if orig.Exercises[0].Result != "3/5" {
		t.Errorf("clone shares exercises with original")
	}
	if orig.ScoreDetails.Correct != 3 {
		t.Errorf("clone shares score details with original")
	}

	empty := Activity{Exercises: []Exercise{}}.Clone()
	if empty.Exercises == nil {
		t.Errorf("Clone() turned an empty exercise list into nil")
	}
	if empty.Conversation != nil {
		t.Errorf("Clone() = %v conversation, want nil", empty.Conversation)
	}
}

func TestActivityJSONKeepsEmptyLists(t *testing.T) {
	present := Activity{Title: "Les volcans", Conversation: []Message{}, Exercises: []Exercise{}}
	absent := Activity{Title: "Les volcans"}

	data, err := json.Marshal(present)
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}
	if !strings.Contains(string(data), `"conversation":[]`) || !strings.Contains(string(data), `"exercices":[]`) {
		t.Errorf("Marshal(empty lists) = %s, want empty arrays kept", data)
	}

	var back Activity
	if err := json.Unmarshal(data, &back); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}
	if back.Conversation == nil || back.Exercises == nil {
		t.Errorf("empty lists came back absent: %+v", back)
	}

	data, err = json.Marshal(absent)
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}
	if strings.Contains(string(data), "conversation") || strings.Contains(string(data), "exercices") {
		t.Errorf("Marshal(absent lists) = %s, want them omitted", data)
	}
}
