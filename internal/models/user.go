package models

import (
	"time"
)

// User represents a registered account. Usernames are unique and the password
// column only ever stores a bcrypt hash.
type User struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	Username    string    `gorm:"uniqueIndex;not null" json:"username"`
	Password    string    `gorm:"not null" json:"-"`
	Bio         string    `gorm:"type:text" json:"bio"`
	ContactInfo string    `json:"contact_info"`
	Posts       []Post    `gorm:"foreignKey:AuthorID" json:"-"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}
