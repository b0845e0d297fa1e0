package filter

import "learnlens/internal/models"

// AvailableSubjects lists the subjects of the unlock assistant's
// activities. It is empty unless unlock is among the selected assistants.
func AvailableSubjects(activities []models.Activity, unlock string, assistants []string) []string {
	if !contains(assistants, unlock) {
		return []string{}
	}
	return distinct(activities, func(a *models.Activity) (string, bool) {
		return a.Subject, a.Assistant == unlock
	})
}

// AvailableChapters lists the chapters of the unlock assistant's
// activities whose subject is selected.
func AvailableChapters(activities []models.Activity, unlock string, subjects []string) []string {
	if len(subjects) == 0 {
		return []string{}
	}
	subjectSet := toSet(subjects)
	return distinct(activities, func(a *models.Activity) (string, bool) {
		_, ok := subjectSet[a.Subject]
		return a.Chapter, ok && a.Assistant == unlock
	})
}

// AvailableExercises lists the exercise types of the unlock assistant's
// activities whose subject and chapter are both selected.
func AvailableExercises(activities []models.Activity, unlock string, subjects, chapters []string) []string {
	if len(chapters) == 0 {
		return []string{}
	}
	subjectSet := toSet(subjects)
	chapterSet := toSet(chapters)
	return distinct(activities, func(a *models.Activity) (string, bool) {
		_, subjectOK := subjectSet[a.Subject]
		_, chapterOK := chapterSet[a.Chapter]
		return a.ExerciseType, subjectOK && chapterOK && a.Assistant == unlock
	})
}

// distinct collects the non-empty values pick yields for the activities it
// accepts, in first-seen order.
func distinct(activities []models.Activity, pick func(*models.Activity) (string, bool)) []string {
	out := []string{}
	seen := make(map[string]struct{})
	for i := range activities {
		v, ok := pick(&activities[i])
		if !ok || v == "" {
			continue
		}
		if _, dup := seen[v]; dup {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}
