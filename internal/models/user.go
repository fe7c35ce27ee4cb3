package models

import (
	"time"
)

// User mirrors the identity provider's profile record. The provider owns the data; this table is
// the read side used for display lookups.
type User struct {
	ID        string    `gorm:"primaryKey;size:64" json:"id"`
	FirstName string    `gorm:"size:100" json:"firstName"`
	LastName  string    `gorm:"size:100" json:"lastName"`
	Username  string    `gorm:"size:100" json:"username"`
	Email     string    `gorm:"size:255;index" json:"email"`
	ImageURL  string    `gorm:"size:500" json:"imageUrl"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}
