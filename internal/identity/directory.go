package identity

import (
	"context"
	"errors"
	"fmt"

	"agencyblog/internal/models"

	"gorm.io/gorm"
)

var errUserNotFound = errors.New("user not found")

// GormDirectory reads the users table synced from the identity provider.
type GormDirectory struct {
	db *gorm.DB
}

func NewGormDirectory(db *gorm.DB) *GormDirectory {
	return &GormDirectory{db: db}
}

func (d *GormDirectory) FindUser(ctx context.Context, userID string) (*User, error) {
	var row models.User
	err := d.db.WithContext(ctx).Where("id = ?", userID).First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, errUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load user %s: %w", userID, err)
	}
	return &User{
		ID:        row.ID,
		FirstName: row.FirstName,
		LastName:  row.LastName,
		Username:  row.Username,
		Email:     row.Email,
		ImageURL:  row.ImageURL,
	}, nil
}
