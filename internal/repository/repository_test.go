package repository

import (
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"learnlens/internal/database"
	"learnlens/internal/models"
)

func newTestDB(t *testing.T) *database.DB {
	t.Helper()
	if testing.Short() {
		t.Skip("Skipping database test in short mode")
	}
	db, err := database.Initialize(filepath.Join(t.TempDir(), "repo.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func TestUserRepository(t *testing.T) {
	db := newTestDB(t)
	users := NewUserRepository(db)

	created, err := users.CreateUser("parent@example.com", "hash", "Parent")
	require.NoError(t, err)
	assert.NotZero(t, created.ID)

	got, err := users.GetUserByEmail("parent@example.com")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, created.ID, got.ID)
	assert.Equal(t, "", got.OAuthProvider)

	missing, err := users.GetUserByEmail("nobody@example.com")
	require.NoError(t, err)
	assert.Nil(t, missing)

	require.NoError(t, users.LinkOAuthProvider(created.ID, "google", "sub-1"))
	assert.Error(t, users.LinkOAuthProvider(created.ID, "google", "sub-2"), "second link must fail")

	byOAuth, err := users.GetUserByOAuth("google", "sub-1")
	require.NoError(t, err)
	require.NotNil(t, byOAuth)
	assert.Equal(t, created.ID, byOAuth.ID)

	oauthOnly, err := users.CreateOAuthUser("other@example.com", "Other", "google", "sub-9")
	require.NoError(t, err)
	all, err := users.GetAllUsers()
	require.NoError(t, err)
	assert.Len(t, all, 2)
	assert.Equal(t, oauthOnly.ID, all[1].ID)
}

func TestSessions(t *testing.T) {
	db := newTestDB(t)
	users := NewUserRepository(db)
	user, err := users.CreateUser("s@example.com", "hash", "S")
	require.NoError(t, err)

	_, err = users.CreateSession("live", user.ID, time.Now().Add(time.Hour))
	require.NoError(t, err)
	_, err = users.CreateSession("stale", user.ID, time.Now().Add(-time.Hour))
	require.NoError(t, err)

	session, err := users.GetSession("live")
	require.NoError(t, err)
	require.NotNil(t, session)
	assert.Equal(t, user.ID, session.UserID)
	assert.False(t, session.IsExpired())

	n, err := users.DeleteExpiredSessions()
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)

	stale, err := users.GetSession("stale")
	require.NoError(t, err)
	assert.Nil(t, stale)

	require.NoError(t, users.DeleteSession("live"))
	live, err := users.GetSession("live")
	require.NoError(t, err)
	assert.Nil(t, live)
}

func TestKidsAndActivities(t *testing.T) {
	db := newTestDB(t)
	users := NewUserRepository(db)
	kids := NewKidRepository(db)
	activities := NewActivityRepository(db)

	parent, err := users.CreateUser("k@example.com", "hash", "K")
	require.NoError(t, err)
	lea, err := kids.CreateKid(parent.ID, "Léa", "#FF5733")
	require.NoError(t, err)
	tom, err := kids.CreateKid(parent.ID, "Tom", "#4A90E2")
	require.NoError(t, err)

	id := int64(12)
	history := []models.Activity{
		{ID: &id, Date: "2025-03-20", Title: "Tables de multiplication", Assistant: "J'Apprends", Score: "8/10"},
		{Date: "2025-03-24", Title: "Les volcans", Conversation: []models.Message{{Sender: "enfant", Text: "Pourquoi ?"}}},
	}
	require.NoError(t, activities.ReplaceForKid(lea.ID, history))

	got, err := activities.ListByKid(lea.ID)
	require.NoError(t, err)
	if diff := cmp.Diff(history, got); diff != "" {
		t.Errorf("ListByKid() mismatch (-want +got):\n%s", diff)
	}

	// Replacing again drops the previous history.
	require.NoError(t, activities.ReplaceForKid(lea.ID, history[1:]))
	count, err := activities.CountByKid(lea.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	empty, err := activities.ListByKid(tom.ID)
	require.NoError(t, err)
	assert.NotNil(t, empty)
	assert.Empty(t, empty)

	withStats, err := kids.GetUserKids(parent.ID)
	require.NoError(t, err)
	require.Len(t, withStats, 2)
	assert.Equal(t, "Léa", withStats[0].Name)
	assert.Equal(t, 1, withStats[0].ActivityCount)
	assert.Equal(t, "2025-03-24", withStats[0].LastActivity)
	assert.Equal(t, 0, withStats[1].ActivityCount)
	assert.Equal(t, "", withStats[1].LastActivity)

	require.NoError(t, kids.UpdateKid(tom.ID, "Thomas", "#000000"))
	updated, err := kids.GetKidByID(tom.ID)
	require.NoError(t, err)
	assert.Equal(t, "Thomas", updated.Name)

	require.NoError(t, kids.DeleteKid(lea.ID))
	gone, err := kids.GetKidByID(lea.ID)
	require.NoError(t, err)
	assert.Nil(t, gone)
	count, err = activities.CountByKid(lea.ID)
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestActivitiesStoredAsRecorded(t *testing.T) {
	db := newTestDB(t)
	users := NewUserRepository(db)
	kids := NewKidRepository(db)
	activities := NewActivityRepository(db)

	parent, err := users.CreateUser("r@example.com", "hash", "R")
	require.NoError(t, err)
	kid, err := kids.CreateKid(parent.ID, "Zoé", "#4A90E2")
	require.NoError(t, err)

	history := []models.Activity{
		// Malformed dates are kept verbatim whatever their length.
		{Date: "le " + strings.Repeat("lendemain du ", 20) + "mardi", Title: "Date libre"},
		{Date: "2025-03-24", Title: "Sans échanges", Conversation: []models.Message{}, Exercises: []models.Exercise{}},
		{Date: "2025-03-25", Title: "Sans données"},
	}
	require.NoError(t, activities.ReplaceForKid(kid.ID, history))

	got, err := activities.ListByKid(kid.ID)
	require.NoError(t, err)
	if diff := cmp.Diff(history, got); diff != "" {
		t.Errorf("ListByKid() mismatch (-want +got):\n%s", diff)
	}
	assert.NotNil(t, got[1].Conversation, "an empty conversation is not an absent one")
	assert.Nil(t, got[2].Conversation)
}
