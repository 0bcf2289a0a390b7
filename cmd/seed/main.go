// Package main provides a tool to seed the database with sample readers and books.
//
// Usage:
//
//	DATA_PATH=~/Goodreaders/data go run ./cmd/seed
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"math/rand"
	"os"
	"path/filepath"
	"time"

	"github.com/goodreaders/goodreaders-server/internal/auth"
	"github.com/goodreaders/goodreaders-server/internal/domain"
	"github.com/goodreaders/goodreaders-server/internal/id"
	"github.com/goodreaders/goodreaders-server/internal/search"
	"github.com/goodreaders/goodreaders-server/internal/store"
)

var seedPassword = flag.String("password", "readers123", "Password for seeded users")

type seedUser struct {
	name  string
	email string
}

var seedUsers = []seedUser{
	{"Alex Rivera", "alex@example.com"},
	{"Jordan Chen", "jordan@example.com"},
	{"Sam Taylor", "sam@example.com"},
	{"Casey Morgan", "casey@example.com"},
	{"Riley Kim", "riley@example.com"},
}

type seedBook struct {
	title  string
	author string
	genres []string
	rating int
}

var seedBooks = []seedBook{
	{"Dune", "Frank Herbert", []string{"sci-fi", "classic"}, 5},
	{"The Hobbit", "J.R.R. Tolkien", []string{"fantasy", "classic"}, 5},
	{"Project Hail Mary", "Andy Weir", []string{"sci-fi"}, 4},
	{"Gone Girl", "Gillian Flynn", []string{"thriller"}, 4},
	{"The Name of the Wind", "Patrick Rothfuss", []string{"fantasy"}, 5},
	{"Educated", "Tara Westover", []string{"memoir"}, 4},
	{"The Martian", "Andy Weir", []string{"sci-fi"}, 4},
	{"Circe", "Madeline Miller", []string{"fantasy", "mythology"}, 5},
}

func main() {
	flag.Parse()

	dataPath := os.Getenv("DATA_PATH")
	if dataPath == "" {
		dataPath = os.ExpandEnv("$HOME/Goodreaders/data")
	}
	dbPath := filepath.Join(dataPath, "db")

	fmt.Printf("Opening database at: %s\n", dbPath)

	s, err := store.New(dbPath, nil)
	if err != nil {
		log.Fatalf("Failed to open store: %v", err)
	}
	defer s.Close()

	idx, err := search.NewSearchIndex(search.Options{DataPath: dataPath})
	if err != nil {
		log.Fatalf("Failed to open search index: %v", err)
	}
	defer idx.Close()
	s.SetSearchIndexer(idx)

	ctx := context.Background()

	passwordHash, err := auth.HashPassword(*seedPassword)
	if err != nil {
		log.Fatalf("Failed to hash password: %v", err)
	}

	userIDs := createSeedUsers(ctx, s, passwordHash)
	bookIDs := createSeedBooks(ctx, s, userIDs)
	markWantToRead(ctx, s, userIDs, bookIDs)

	fmt.Println("\nSeeding complete!")
}

// createSeedUsers creates the sample users, skipping emails that already exist.
func createSeedUsers(ctx context.Context, s *store.Store, passwordHash string) []string {
	fmt.Println("\n=== Creating Users ===")

	var userIDs []string
	for _, su := range seedUsers {
		email := domain.NormalizeEmail(su.email)
		if existing, _ := s.GetUserByEmail(ctx, email); existing != nil {
			fmt.Printf("  User %s already exists, skipping\n", email)
			userIDs = append(userIDs, existing.ID)
			continue
		}

		user := &domain.User{
			Syncable:     domain.Syncable{ID: id.MustGenerate("user")},
			Name:         su.name,
			Email:        email,
			PasswordHash: passwordHash,
			Role:         domain.RoleUser,
			Books:        []domain.WantToReadEntry{},
		}
		user.InitTimestamps()

		if err := s.CreateUser(ctx, user); err != nil {
			log.Printf("  Failed to create user %s: %v", su.name, err)
			continue
		}

		fmt.Printf("  Created user: %s (%s)\n", su.name, email)
		userIDs = append(userIDs, user.ID)
	}

	return userIDs
}

// createSeedBooks creates the sample books, each attributed to a random seeded user.
func createSeedBooks(ctx context.Context, s *store.Store, userIDs []string) []string {
	fmt.Println("\n=== Creating Books ===")

	if len(userIDs) == 0 {
		log.Fatal("No users available to own seeded books")
	}

	rng := rand.New(rand.NewSource(time.Now().UnixNano()))

	var bookIDs []string
	for _, sb := range seedBooks {
		book := &domain.Book{
			Syncable:        domain.Syncable{ID: id.MustGenerate("book")},
			Title:           sb.title,
			Author:          sb.author,
			Genre:           sb.genres,
			Rating:          sb.rating,
			CreatedBy:       userIDs[rng.Intn(len(userIDs))],
			WantToReadUsers: []string{},
		}
		book.InitTimestamps()

		if err := s.CreateBook(ctx, book); err != nil {
			log.Printf("  Failed to create book %s: %v", sb.title, err)
			continue
		}

		fmt.Printf("  Created book: %s by %s\n", sb.title, sb.author)
		bookIDs = append(bookIDs, book.ID)
	}

	return bookIDs
}

// markWantToRead gives each user a couple of random want-to-read books.
func markWantToRead(ctx context.Context, s *store.Store, userIDs, bookIDs []string) {
	fmt.Println("\n=== Marking Want-to-Read ===")

	if len(bookIDs) == 0 {
		return
	}

	rng := rand.New(rand.NewSource(time.Now().UnixNano()))

	for _, userID := range userIDs {
		numBooks := min(1+rng.Intn(3), len(bookIDs))

		shuffled := make([]string, len(bookIDs))
		copy(shuffled, bookIDs)
		rng.Shuffle(len(shuffled), func(i, j int) {
			shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
		})

		for _, bookID := range shuffled[:numBooks] {
			if _, err := s.SetUserWantToRead(ctx, userID, bookID, true); err != nil {
				log.Printf("  Failed to mark want-to-read for %s: %v", userID, err)
				continue
			}
			if _, err := s.SetBookWantToReadUser(ctx, bookID, userID, true); err != nil {
				log.Printf("  Failed to update book list for %s: %v", bookID, err)
			}
		}

		fmt.Printf("  User %s wants to read %d books\n", userID, numBooks)
	}
}
