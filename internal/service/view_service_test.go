package service

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"learnlens/internal/enrich"
	"learnlens/internal/filter"
	"learnlens/internal/logger"
	"learnlens/internal/models"
)

type fakeSource struct {
	mu    sync.Mutex
	byKid map[int64][]models.Activity
	loads int
	err   error
}

func (f *fakeSource) Activities(kidID int64) ([]models.Activity, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.loads++
	if f.err != nil {
		return nil, f.err
	}
	return f.byKid[kidID], nil
}

func history() []models.Activity {
	return []models.Activity{
		{Date: "2025-03-20", Title: "Tables de multiplication", Assistant: "J'Apprends", Subject: "Mathématiques", Chapter: "Multiplications", Score: "8/10"},
		{Date: "2025-03-22", Title: "Lecture d'un conte", Assistant: "J'Apprends", Subject: "Français", Score: "9/10"},
		{Date: "2025-03-24", Title: "Les volcans", Assistant: "Recherche"},
	}
}

func newViewService(src ActivitySource) *ViewService {
	return NewViewService(src, enrich.New(nil), filter.CascadeConfig(), time.Minute, logger.Nop())
}

func TestViewServiceKeepsOneEnginePerSessionAndKid(t *testing.T) {
	src := &fakeSource{byKid: map[int64][]models.Activity{1: history(), 2: history()[:1]}}
	views := newViewService(src)

	v, err := views.Dispatch("s1", 1, filter.Command{Type: "set_assistants", Values: []string{"J'Apprends"}})
	require.NoError(t, err)
	assert.Equal(t, 2, v.Matched)

	other, err := views.View("s2", 1)
	require.NoError(t, err)
	assert.Equal(t, 3, other.Matched, "another session keeps its own selection")

	again, err := views.View("s1", 1)
	require.NoError(t, err)
	assert.Equal(t, []string{"J'Apprends"}, again.Filters.Assistants)

	small, err := views.View("s1", 2)
	require.NoError(t, err)
	assert.Equal(t, 1, small.Total)

	assert.Equal(t, 3, views.Len())
	assert.Equal(t, 3, src.loads, "each view loads once")
}

func TestViewServiceRejectsBadCommands(t *testing.T) {
	views := newViewService(&fakeSource{})

	_, err := views.Dispatch("s", 1, filter.Command{Type: "launch"})
	assert.ErrorIs(t, err, ErrInvalidCommand)

	_, err = views.Dispatch("s", 1, filter.Command{Type: "commit_date", Date: "hier"})
	assert.ErrorIs(t, err, ErrInvalidCommand)
	assert.Zero(t, views.Len(), "bad commands never open a view")
}

func TestViewServiceLookupAndReset(t *testing.T) {
	views := newViewService(&fakeSource{byKid: map[int64][]models.Activity{1: history()}})

	a, err := views.Lookup("s", 1, "pos-2")
	require.NoError(t, err)
	assert.Equal(t, "Les volcans", a.Title)
	assert.NotEmpty(t, a.Comments, "lookups return enriched records")

	_, err = views.Lookup("s", 1, "pos-9")
	assert.ErrorIs(t, err, ErrActivityNotFound)

	_, err = views.Dispatch("s", 1, filter.Command{Type: "set_keyword", Value: "volcan"})
	require.NoError(t, err)
	filtered, state, err := views.Filtered("s", 1)
	require.NoError(t, err)
	assert.Len(t, filtered, 1)
	assert.Equal(t, "volcan", state.Keyword)

	v, err := views.Reset("s", 1)
	require.NoError(t, err)
	assert.Equal(t, filter.InitialState(), v.Filters)
	assert.Equal(t, 3, v.Matched)
}

func TestViewServiceReloadPrunesSelections(t *testing.T) {
	views := newViewService(&fakeSource{byKid: map[int64][]models.Activity{1: history()}})

	_, err := views.Dispatch("s", 1, filter.Command{Type: "set_assistants", Values: []string{"J'Apprends"}})
	require.NoError(t, err)
	_, err = views.Dispatch("s", 1, filter.Command{Type: "set_subjects", Values: []string{"Français"}})
	require.NoError(t, err)

	views.Reload(1, history()[:1])

	v, err := views.View("s", 1)
	require.NoError(t, err)
	assert.Equal(t, 1, v.Total)
	assert.Empty(t, v.Filters.Subjects, "Français is no longer reachable")
	assert.Equal(t, []string{"J'Apprends"}, v.Filters.Assistants)
}

func TestViewServiceSourceErrorDoesNotCache(t *testing.T) {
	src := &fakeSource{err: errors.New("db down")}
	views := newViewService(src)

	_, err := views.View("s", 1)
	assert.Error(t, err)
	assert.Zero(t, views.Len())

	src.err = nil
	src.byKid = map[int64][]models.Activity{1: history()}
	v, err := views.View("s", 1)
	require.NoError(t, err)
	assert.Equal(t, 3, v.Total)
}

func TestViewServiceSweepAndForget(t *testing.T) {
	views := newViewService(&fakeSource{byKid: map[int64][]models.Activity{1: history()}})
	now := time.Date(2025, 3, 20, 10, 0, 0, 0, time.UTC)
	views.now = func() time.Time { return now }

	_, err := views.View("old", 1)
	require.NoError(t, err)
	now = now.Add(2 * time.Minute)
	_, err = views.View("fresh", 1)
	require.NoError(t, err)
	_, err = views.View("other", 1)
	require.NoError(t, err)

	assert.Equal(t, 1, views.Sweep())
	assert.Equal(t, 2, views.Len())

	views.Forget("fresh")
	assert.Equal(t, 1, views.Len())
}

func TestViewServiceConcurrentDispatch(t *testing.T) {
	views := newViewService(&fakeSource{byKid: map[int64][]models.Activity{1: history()}})

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := views.Dispatch("s", 1, filter.Command{Type: "toggle_assistant", Value: "Recherche"})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	v, err := views.View("s", 1)
	require.NoError(t, err)
	assert.Empty(t, v.Filters.Assistants, "an even number of toggles cancels out")
}

func TestViewServiceDispatchAllIsAtomic(t *testing.T) {
	views := newViewService(&fakeSource{byKid: map[int64][]models.Activity{1: history()}})

	_, err := views.DispatchAll("s", 1, []filter.Command{
		{Type: "set_keyword", Value: "volcan"},
		{Type: "set_date_mode", Mode: "sideways"},
	})
	assert.ErrorIs(t, err, ErrInvalidCommand)

	v, err := views.View("s", 1)
	require.NoError(t, err)
	assert.Empty(t, v.Filters.Keyword)

	v, err = views.DispatchAll("s", 1, []filter.Command{
		{Type: "set_assistants", Values: []string{"J'Apprends"}},
		{Type: "set_subjects", Values: []string{"Mathématiques"}},
	})
	require.NoError(t, err)
	assert.Equal(t, 1, v.Matched)
	assert.Equal(t, []string{"Mathématiques"}, v.Filters.Subjects)
}
