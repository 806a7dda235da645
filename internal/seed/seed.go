package seed

import (
	"fmt"
	"log"

	"quill/internal/models"

	"gorm.io/gorm"
)

// Options configuration for the seeder.
type Options struct {
	NumUsers int
	NumPosts int
	// MaxDays controls how far back generated post timestamps spread.
	MaxDays int
	// SkipBcrypt stores a plaintext marker password instead of a hash.
	SkipBcrypt bool
}

// Seeder populates the database with generated users and posts.
type Seeder struct {
	db      *gorm.DB
	factory *Factory
}

// NewSeeder creates a Seeder bound to the provided Gorm DB.
func NewSeeder(db *gorm.DB, opts Options) *Seeder {
	return &Seeder{
		db:      db,
		factory: NewFactory(db, opts),
	}
}

// ClearAll removes all seeded rows. Posts go first to keep the author
// foreign key satisfied.
func (s *Seeder) ClearAll() error {
	if err := s.db.Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(&models.Post{}).Error; err != nil {
		return fmt.Errorf("clearing posts: %w", err)
	}
	if err := s.db.Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(&models.User{}).Error; err != nil {
		return fmt.Errorf("clearing users: %w", err)
	}
	log.Println("Cleared existing seed data")
	return nil
}

// SeedUsers creates n generated users.
func (s *Seeder) SeedUsers(n int) ([]*models.User, error) {
	users := make([]*models.User, 0, n)
	for i := 0; i < n; i++ {
		user, err := s.factory.CreateUser()
		if err != nil {
			return nil, fmt.Errorf("creating user %d: %w", i, err)
		}
		users = append(users, user)
	}
	log.Printf("Seeded %d users", len(users))
	return users, nil
}

// SeedPosts spreads n generated posts across the given authors.
func (s *Seeder) SeedPosts(authors []*models.User, n int) ([]*models.Post, error) {
	if len(authors) == 0 {
		return nil, fmt.Errorf("no authors to assign posts to")
	}

	posts := make([]*models.Post, 0, n)
	for i := 0; i < n; i++ {
		author := authors[i%len(authors)]
		posts = append(posts, s.factory.BuildPost(author))
	}
	if err := s.factory.CreatePostsBatch(posts); err != nil {
		return nil, fmt.Errorf("creating posts: %w", err)
	}
	log.Printf("Seeded %d posts across %d authors", len(posts), len(authors))
	return posts, nil
}

// Run executes a full seeding pass per the Seeder's options.
func (s *Seeder) Run(opts Options) error {
	users, err := s.SeedUsers(opts.NumUsers)
	if err != nil {
		return err
	}
	_, err = s.SeedPosts(users, opts.NumPosts)
	return err
}
