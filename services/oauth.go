package services

import (
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"github.com/qnahub/qna/models"
)

// placeholderEmailDomain is used when a provider gives us no email address.
const placeholderEmailDomain = "qna.local"

// OAuthAssertion is the identity a third-party provider vouches for. Email is
// optional; some providers never disclose it.
type OAuthAssertion struct {
	Provider string
	UID      string
	Email    string
	Username string
	Avatar   string
}

// OAuthResolver maps provider assertions to local users. Resolution is an
// ordered fallback chain: existing authorization, then existing user by
// email, then a freshly created user.
type OAuthResolver struct {
	db *gorm.DB
}

// NewOAuthResolver creates an OAuthResolver bound to db.
func NewOAuthResolver(db *gorm.DB) *OAuthResolver {
	return &OAuthResolver{db: db}
}

// FindForOAuth resolves the assertion to a user, creating the user and/or the
// authorization row when needed. After any successful call exactly one user
// and one authorization exist for (provider, uid); repeated calls with the
// same assertion return that same user without further writes.
func (s *OAuthResolver) FindForOAuth(auth OAuthAssertion) (*models.User, error) {
	provider := strings.ToLower(strings.TrimSpace(auth.Provider))
	uid := strings.TrimSpace(auth.UID)
	if provider == "" || uid == "" {
		return nil, fmt.Errorf("provider and uid are required: %w", ErrValidation)
	}

	user, err := s.resolve(provider, uid, auth)
	if err == nil {
		return user, nil
	}
	// A concurrent login with the same identity may have won the insert race.
	// The unique (provider, uid) index rejects the duplicate; retry the lookup
	// once and return the winner.
	if isUniqueViolation(err) {
		return s.lookupByAuthorization(provider, uid)
	}
	return nil, err
}

func (s *OAuthResolver) resolve(provider, uid string, auth OAuthAssertion) (*models.User, error) {
	if user, err := s.lookupByAuthorization(provider, uid); err == nil {
		return user, nil
	} else if !errors.Is(err, ErrNotFound) {
		return nil, err
	}

	email := strings.TrimSpace(auth.Email)
	if email != "" {
		var user models.User
		err := s.db.Where("email = ?", email).First(&user).Error
		if err == nil {
			if err := s.db.Create(&models.Authorization{
				UserID:   user.ID,
				Provider: provider,
				UID:      uid,
			}).Error; err != nil {
				return nil, err
			}
			return &user, nil
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, err
		}
	}

	return s.createUser(provider, uid, email, auth)
}

func (s *OAuthResolver) lookupByAuthorization(provider, uid string) (*models.User, error) {
	var authorization models.Authorization
	err := s.db.Where("provider = ? AND uid = ?", provider, uid).First(&authorization).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("authorization %s/%s: %w", provider, uid, ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	var user models.User
	if err := s.db.First(&user, authorization.UserID).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

func (s *OAuthResolver) createUser(provider, uid, email string, auth OAuthAssertion) (*models.User, error) {
	if email == "" {
		email = PlaceholderEmail(provider, uid)
	}

	user := models.User{
		Username:  s.uniqueUsername(auth.Username, provider, uid),
		Email:     email,
		AvatarURL: auth.Avatar,
	}

	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&user).Error; err != nil {
			return err
		}
		return tx.Create(&models.Authorization{
			UserID:   user.ID,
			Provider: provider,
			UID:      uid,
		}).Error
	})
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// PlaceholderEmail synthesizes a deterministic address for assertions without
// one. The provider is part of the local part so two providers reusing the
// same uid space cannot collide.
func PlaceholderEmail(provider, uid string) string {
	return fmt.Sprintf("%s_%s@%s", provider, uid, placeholderEmailDomain)
}

func (s *OAuthResolver) uniqueUsername(base, provider, uid string) string {
	base = sanitizeUsername(base)
	if base == "" {
		base = sanitizeUsername(fmt.Sprintf("%s_%s", provider, uid))
		if base == "" {
			base = fmt.Sprintf("user_%s", uid)
		}
	}

	candidate := base
	suffix := 1
	for {
		var count int64
		if err := s.db.Model(&models.User{}).Where("username = ?", candidate).Count(&count).Error; err != nil {
			return candidate
		}
		if count == 0 {
			return candidate
		}
		candidate = fmt.Sprintf("%s_%d", base, suffix)
		suffix++
	}
}

func sanitizeUsername(input string) string {
	input = strings.ToLower(strings.TrimSpace(input))
	if input == "" {
		return ""
	}
	var builder strings.Builder
	for _, r := range input {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			builder.WriteRune(r)
		case r == '_' || r == '-' || r == '.':
			builder.WriteRune('_')
		}
	}
	return strings.Trim(builder.String(), "_")
}

// isUniqueViolation reports whether err looks like a unique index rejection.
// GORM wraps the driver error, so the check is by message across the MySQL
// and SQLite drivers we run against.
func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "duplicate entry") ||
		strings.Contains(msg, "unique constraint") ||
		strings.Contains(msg, "constraint failed")
}
