package search

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/goodreaders/goodreaders-server/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// setupTestIndex creates a temporary search index for testing.
func setupTestIndex(t *testing.T) (*SearchIndex, func()) {
	t.Helper()

	tmpDir, err := os.MkdirTemp("", "search-test-*")
	require.NoError(t, err)

	index, err := NewSearchIndex(Options{
		DataPath: tmpDir,
		Logger:   nil,
	})
	require.NoError(t, err)

	cleanup := func() {
		_ = index.Close()
		_ = os.RemoveAll(tmpDir)
	}

	return index, cleanup
}

func testBook(id, title, author string) *domain.Book {
	book := &domain.Book{
		Syncable: domain.Syncable{
			ID:        id,
			CreatedAt: time.Now(),
			UpdatedAt: time.Now(),
		},
		Title:  title,
		Author: author,
		Rating: 4,
	}
	return book
}

func TestNewSearchIndex(t *testing.T) {
	index, cleanup := setupTestIndex(t)
	defer cleanup()

	count, err := index.DocumentCount()
	require.NoError(t, err)
	assert.Equal(t, uint64(0), count)
}

func TestSearchIndex_IndexBook(t *testing.T) {
	index, cleanup := setupTestIndex(t)
	defer cleanup()

	err := index.IndexBook(context.Background(), testBook("book-1", "The Hobbit", "J.R.R. Tolkien"))
	require.NoError(t, err)

	count, err := index.DocumentCount()
	require.NoError(t, err)
	assert.Equal(t, uint64(1), count)
}

func TestSearchIndex_IndexBooks_Batch(t *testing.T) {
	index, cleanup := setupTestIndex(t)
	defer cleanup()

	books := []*domain.Book{
		testBook("book-1", "Book One", "Author One"),
		testBook("book-2", "Book Two", "Author Two"),
		testBook("book-3", "Book Three", "Author Three"),
	}

	err := index.IndexBooks(context.Background(), books)
	require.NoError(t, err)

	count, err := index.DocumentCount()
	require.NoError(t, err)
	assert.Equal(t, uint64(3), count)
}

func TestSearchIndex_DeleteBook(t *testing.T) {
	index, cleanup := setupTestIndex(t)
	defer cleanup()

	ctx := context.Background()
	require.NoError(t, index.IndexBook(ctx, testBook("book-1", "The Hobbit", "J.R.R. Tolkien")))
	require.NoError(t, index.DeleteBook(ctx, "book-1"))

	count, err := index.DocumentCount()
	require.NoError(t, err)
	assert.Equal(t, uint64(0), count)
}

func TestSearch_EmptyQueryReturnsNothing(t *testing.T) {
	index, cleanup := setupTestIndex(t)
	defer cleanup()

	ctx := context.Background()
	require.NoError(t, index.IndexBook(ctx, testBook("book-1", "The Hobbit", "J.R.R. Tolkien")))

	hits, err := index.Search(ctx, "   ", 0)
	require.NoError(t, err)
	assert.Empty(t, hits)
}

func TestSearch_MatchesTitleCaseInsensitive(t *testing.T) {
	index, cleanup := setupTestIndex(t)
	defer cleanup()

	ctx := context.Background()
	require.NoError(t, index.IndexBook(ctx, testBook("book-1", "Harry Potter", "J.K. Rowling")))
	require.NoError(t, index.IndexBook(ctx, testBook("book-2", "The Hobbit", "J.R.R. Tolkien")))

	hits, err := index.Search(ctx, "harry", 0)
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, "book-1", hits[0].ID)
	assert.Equal(t, "Harry Potter", hits[0].Title)
}

func TestSearch_MatchesAuthor(t *testing.T) {
	index, cleanup := setupTestIndex(t)
	defer cleanup()

	ctx := context.Background()
	require.NoError(t, index.IndexBook(ctx, testBook("book-1", "Watermelon Sugar", "Harry Stylus")))
	require.NoError(t, index.IndexBook(ctx, testBook("book-2", "The Hobbit", "J.R.R. Tolkien")))

	hits, err := index.Search(ctx, "Harry", 0)
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, "book-1", hits[0].ID)
}

func TestSearch_SubstringMatch(t *testing.T) {
	index, cleanup := setupTestIndex(t)
	defer cleanup()

	ctx := context.Background()
	require.NoError(t, index.IndexBook(ctx, testBook("book-1", "Harry Potter", "J.K. Rowling")))

	// Partial word, not just full terms
	hits, err := index.Search(ctx, "arry pott", 0)
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, "book-1", hits[0].ID)
}

func TestSearch_NoMatches(t *testing.T) {
	index, cleanup := setupTestIndex(t)
	defer cleanup()

	ctx := context.Background()
	require.NoError(t, index.IndexBook(ctx, testBook("book-1", "Harry Potter", "J.K. Rowling")))

	hits, err := index.Search(ctx, "zzzzzz", 0)
	require.NoError(t, err)
	assert.Empty(t, hits)
}

func TestSearch_WildcardCharactersAreLiteral(t *testing.T) {
	index, cleanup := setupTestIndex(t)
	defer cleanup()

	ctx := context.Background()
	require.NoError(t, index.IndexBook(ctx, testBook("book-1", "What If?", "Randall Munroe")))
	require.NoError(t, index.IndexBook(ctx, testBook("book-2", "What Is Life", "Erwin Schrodinger")))

	hits, err := index.Search(ctx, "What If?", 0)
	require.NoError(t, err)
	require.NotEmpty(t, hits)
	assert.Equal(t, "book-1", hits[0].ID)
}

func TestSearch_UpdatedBookReflectsNewTitle(t *testing.T) {
	index, cleanup := setupTestIndex(t)
	defer cleanup()

	ctx := context.Background()
	book := testBook("book-1", "Draft Title", "Anon")
	require.NoError(t, index.IndexBook(ctx, book))

	book.Title = "Final Title"
	require.NoError(t, index.IndexBook(ctx, book))

	hits, err := index.Search(ctx, "Draft", 0)
	require.NoError(t, err)
	assert.Empty(t, hits)

	hits, err = index.Search(ctx, "Final", 0)
	require.NoError(t, err)
	require.Len(t, hits, 1)
}
