// Package models contains data structures for the application's domain models.
package models

import (
	"time"
)

// Post represents a blog post. AuthorID and CreatedAt are immutable after
// creation; only the author may mutate or delete the row. Deletes are hard
// deletes; there is no soft-delete column on purpose.
type Post struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Title     string    `gorm:"not null" json:"title"`
	Body      string    `gorm:"type:text" json:"body"`
	AuthorID  uint      `gorm:"not null;index" json:"author_id"`
	Author    User      `gorm:"foreignKey:AuthorID" json:"author"`
	CreatedAt time.Time `json:"created"`
	UpdatedAt time.Time `json:"updated_at"`
}
