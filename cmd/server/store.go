package main

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	oauth "github.com/xershade/discord-oauth-golang"
)

// GormIdentityStore backs the engine's IdentityStore contract with sqlite.
// The unique indexes on discord_links are the authoritative guard against two
// concurrent callbacks claiming the same discord account.
type GormIdentityStore struct {
	db *gorm.DB
}

func (s *GormIdentityStore) FindAccountByProviderID(ctx context.Context, discordID string) (int64, bool, error) {
	var link DiscordLink
	err := s.db.WithContext(ctx).Where("discord_id = ?", discordID).First(&link).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, err
	}

	return link.UserID, true, nil
}

func (s *GormIdentityStore) CreateAccount(ctx context.Context, username, email string) (int64, error) {
	user := User{
		Username: username,
		Email:    email,
		// Provisioned accounts get an opaque credential; they sign in
		// through discord, not with this.
		Password: uuid.NewString(),
	}

	if err := s.db.WithContext(ctx).Create(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return 0, oauth.ErrUsernameTaken
		}
		return 0, err
	}

	return user.ID, nil
}

func (s *GormIdentityStore) DeleteAccount(ctx context.Context, accountID int64) error {
	return s.db.WithContext(ctx).Delete(&User{}, accountID).Error
}

func (s *GormIdentityStore) Link(ctx context.Context, accountID int64, discordID string) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing DiscordLink
		err := tx.Where("discord_id = ?", discordID).First(&existing).Error
		if err == nil {
			if existing.UserID == accountID {
				return nil
			}
			return oauth.ErrAlreadyLinked
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}

		// Relinking replaces the user's previous discord account.
		var mine DiscordLink
		err = tx.Where("user_id = ?", accountID).First(&mine).Error
		if err == nil {
			mine.DiscordID = discordID
			err = tx.Save(&mine).Error
		} else if errors.Is(err, gorm.ErrRecordNotFound) {
			err = tx.Create(&DiscordLink{UserID: accountID, DiscordID: discordID}).Error
		}

		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return oauth.ErrAlreadyLinked
		}

		return err
	})
}

func (s *GormIdentityStore) Unlink(ctx context.Context, accountID int64) error {
	return s.db.WithContext(ctx).Where("user_id = ?", accountID).Delete(&DiscordLink{}).Error
}

func (s *GormIdentityStore) GetUser(ctx context.Context, accountID int64) (*User, error) {
	var user User
	if err := s.db.WithContext(ctx).First(&user, accountID).Error; err != nil {
		return nil, err
	}

	return &user, nil
}

func (s *GormIdentityStore) GetLink(ctx context.Context, accountID int64) (string, bool, error) {
	var link DiscordLink
	err := s.db.WithContext(ctx).Where("user_id = ?", accountID).First(&link).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}

	return link.DiscordID, true, nil
}
