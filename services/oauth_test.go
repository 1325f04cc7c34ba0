package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/qnahub/qna/models"
)

func TestFindForOAuthReturnsUserForExistingAuthorization(t *testing.T) {
	db := newTestDB(t)
	user := createUser(t, db, "existing", "existing@example.com")
	require.NoError(t, db.Create(&models.Authorization{
		UserID:   user.ID,
		Provider: "github",
		UID:      "12345",
	}).Error)

	resolver := NewOAuthResolver(db)
	found, err := resolver.FindForOAuth(OAuthAssertion{Provider: "github", UID: "12345"})
	require.NoError(t, err)
	assert.Equal(t, user.ID, found.ID)

	var userCount, authCount int64
	require.NoError(t, db.Model(&models.User{}).Count(&userCount).Error)
	require.NoError(t, db.Model(&models.Authorization{}).Count(&authCount).Error)
	assert.Equal(t, int64(1), userCount)
	assert.Equal(t, int64(1), authCount)
}

func TestFindForOAuthLinksAuthorizationToUserByEmail(t *testing.T) {
	db := newTestDB(t)
	user := createUser(t, db, "existing", "existing@example.com")

	resolver := NewOAuthResolver(db)
	found, err := resolver.FindForOAuth(OAuthAssertion{
		Provider: "github",
		UID:      "12345",
		Email:    "existing@example.com",
	})
	require.NoError(t, err)
	assert.Equal(t, user.ID, found.ID)

	var authorization models.Authorization
	require.NoError(t, db.Where("provider = ? AND uid = ?", "github", "12345").First(&authorization).Error)
	assert.Equal(t, user.ID, authorization.UserID)

	var userCount int64
	require.NoError(t, db.Model(&models.User{}).Count(&userCount).Error)
	assert.Equal(t, int64(1), userCount)
}

func TestFindForOAuthCreatesUserAndAuthorization(t *testing.T) {
	db := newTestDB(t)

	resolver := NewOAuthResolver(db)
	found, err := resolver.FindForOAuth(OAuthAssertion{
		Provider: "google",
		UID:      "987",
		Email:    "new@example.com",
		Username: "new.person",
	})
	require.NoError(t, err)
	assert.Equal(t, "new@example.com", found.Email)
	assert.Equal(t, "new_person", found.Username)

	var authorization models.Authorization
	require.NoError(t, db.Where("provider = ? AND uid = ?", "google", "987").First(&authorization).Error)
	assert.Equal(t, found.ID, authorization.UserID)
}

func TestFindForOAuthSynthesizesEmailWhenProviderWithholdsIt(t *testing.T) {
	db := newTestDB(t)

	resolver := NewOAuthResolver(db)
	found, err := resolver.FindForOAuth(OAuthAssertion{Provider: "github", UID: "555"})
	require.NoError(t, err)
	assert.Equal(t, "github_555@qna.local", found.Email)

	// A different provider with the same uid must not collide.
	other, err := resolver.FindForOAuth(OAuthAssertion{Provider: "google", UID: "555"})
	require.NoError(t, err)
	assert.NotEqual(t, found.ID, other.ID)
	assert.Equal(t, "google_555@qna.local", other.Email)
}

func TestFindForOAuthIsIdempotent(t *testing.T) {
	db := newTestDB(t)

	resolver := NewOAuthResolver(db)
	assertion := OAuthAssertion{Provider: "github", UID: "42", Email: "gopher@example.com"}

	first, err := resolver.FindForOAuth(assertion)
	require.NoError(t, err)
	second, err := resolver.FindForOAuth(assertion)
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)

	var userCount, authCount int64
	require.NoError(t, db.Model(&models.User{}).Count(&userCount).Error)
	require.NoError(t, db.Model(&models.Authorization{}).Count(&authCount).Error)
	assert.Equal(t, int64(1), userCount)
	assert.Equal(t, int64(1), authCount)
}

func TestFindForOAuthRejectsEmptyIdentity(t *testing.T) {
	db := newTestDB(t)
	resolver := NewOAuthResolver(db)

	_, err := resolver.FindForOAuth(OAuthAssertion{Provider: "github"})
	assert.ErrorIs(t, err, ErrValidation)

	_, err = resolver.FindForOAuth(OAuthAssertion{UID: "1"})
	assert.ErrorIs(t, err, ErrValidation)
}

func TestFindForOAuthPicksFreshUsernameOnCollision(t *testing.T) {
	db := newTestDB(t)
	createUser(t, db, "gopher", "taken@example.com")

	resolver := NewOAuthResolver(db)
	found, err := resolver.FindForOAuth(OAuthAssertion{
		Provider: "github",
		UID:      "777",
		Email:    "fresh@example.com",
		Username: "gopher",
	})
	require.NoError(t, err)
	assert.Equal(t, "gopher_1", found.Username)
}

func TestPlaceholderEmailFormat(t *testing.T) {
	assert.Equal(t, "github_99@qna.local", PlaceholderEmail("github", "99"))
}
