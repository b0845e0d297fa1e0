package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"learnlens/internal/security"
	"learnlens/internal/validation"
)

func TestRegisterAndLogin(t *testing.T) {
	f := newFixture(t)

	user, err := f.auth.Register(" Parent@Example.com ", "password123", "Camille")
	require.NoError(t, err)
	assert.Equal(t, "parent@example.com", user.Email)

	_, err = f.auth.Register("parent@example.com", "password123", "Camille")
	assert.ErrorIs(t, err, ErrEmailTaken)

	_, err = f.auth.Register("not-an-email", "password123", "Camille")
	assert.ErrorIs(t, err, validation.ErrInvalidEmail)

	_, _, err = f.auth.Login("parent@example.com", "wrong-password")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	session, loggedIn, err := f.auth.Login("PARENT@example.com", "password123")
	require.NoError(t, err)
	assert.Equal(t, user.ID, loggedIn.ID)

	_, validated, err := f.auth.ValidateSession(session.ID)
	require.NoError(t, err)
	assert.Equal(t, user.ID, validated.ID)
}

func TestTokensAreRevokedByLogout(t *testing.T) {
	f := newFixture(t)

	_, err := f.auth.Register("parent@example.com", "password123", "Camille")
	require.NoError(t, err)
	session, _, err := f.auth.Login("parent@example.com", "password123")
	require.NoError(t, err)

	token, expiresAt, err := f.auth.IssueToken(session)
	require.NoError(t, err)
	assert.False(t, expiresAt.After(session.ExpiresAt))

	got, user, err := f.auth.AuthenticateToken(token)
	require.NoError(t, err)
	assert.Equal(t, session.ID, got.ID)
	assert.Equal(t, session.UserID, user.ID)

	_, _, err = f.auth.AuthenticateToken(token + "x")
	assert.ErrorIs(t, err, security.ErrInvalidToken)

	require.NoError(t, f.auth.Logout(session.ID))
	_, _, err = f.auth.AuthenticateToken(token)
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestOAuthLoginLinksExistingAccount(t *testing.T) {
	f := newFixture(t)

	registered, err := f.auth.Register("parent@example.com", "password123", "Camille")
	require.NoError(t, err)

	_, user, err := f.auth.OAuthLogin("google", "sub-1", "parent@example.com", "Camille")
	require.NoError(t, err)
	assert.Equal(t, registered.ID, user.ID)

	_, again, err := f.auth.OAuthLogin("google", "sub-1", "changed@example.com", "Camille")
	require.NoError(t, err)
	assert.Equal(t, registered.ID, again.ID, "the subject identifies the account")

	_, _, err = f.auth.OAuthLogin("google", "sub-2", "parent@example.com", "Camille")
	assert.ErrorIs(t, err, ErrEmailTaken)

	_, created, err := f.auth.OAuthLogin("google", "sub-3", "new@example.com", "Alex")
	require.NoError(t, err)
	assert.NotEqual(t, registered.ID, created.ID)
}

func TestKidOwnership(t *testing.T) {
	f := newFixture(t)

	owner, err := f.auth.Register("owner@example.com", "password123", "Owner")
	require.NoError(t, err)
	other, err := f.auth.Register("other@example.com", "password123", "Other")
	require.NoError(t, err)

	kid, err := f.kids.CreateKid(owner.ID, "  Léa ", "")
	require.NoError(t, err)
	assert.Equal(t, "Léa", kid.Name)
	assert.Equal(t, "#4A90E2", kid.AvatarColor)

	_, err = f.kids.CreateKid(owner.ID, "Léo", "blue")
	assert.ErrorIs(t, err, validation.ErrInvalidColor)

	_, err = f.kids.GetOwnedKid(owner.ID, kid.ID)
	assert.NoError(t, err)
	_, err = f.kids.GetOwnedKid(other.ID, kid.ID)
	assert.ErrorIs(t, err, ErrForbidden)
	_, err = f.kids.GetOwnedKid(owner.ID, kid.ID+100)
	assert.ErrorIs(t, err, ErrKidNotFound)

	require.NoError(t, f.kids.ReplaceActivities(kid.ID, history()))
	stored, err := f.kids.Activities(kid.ID)
	require.NoError(t, err)
	assert.Len(t, stored, 3)

	kids, err := f.kids.GetUserKids(owner.ID)
	require.NoError(t, err)
	require.Len(t, kids, 1)
	assert.Equal(t, 3, kids[0].ActivityCount)
	assert.Equal(t, "2025-03-24", kids[0].LastActivity)
}
