package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
	"github.com/goodreaders/goodreaders-server/internal/service"
	"github.com/goodreaders/goodreaders-server/internal/store"
)

func (s *Server) registerBookRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "createBook",
		Method:      http.MethodPost,
		Path:        "/api/v1/books",
		Summary:     "Create book",
		Description: "Adds a book to the catalog, attributed to the caller",
		Tags:        []string{"Books"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleCreateBook)

	huma.Register(s.api, huma.Operation{
		OperationID: "listBooks",
		Method:      http.MethodGet,
		Path:        "/api/v1/books",
		Summary:     "List books",
		Description: "Returns a paginated catalog listing with optional genre filter",
		Tags:        []string{"Books"},
	}, s.handleListBooks)

	huma.Register(s.api, huma.Operation{
		OperationID: "searchBooks",
		Method:      http.MethodGet,
		Path:        "/api/v1/books/search",
		Summary:     "Search books",
		Description: "Case-insensitive substring search over title and author",
		Tags:        []string{"Books"},
	}, s.handleSearchBooks)

	huma.Register(s.api, huma.Operation{
		OperationID: "listGenres",
		Method:      http.MethodGet,
		Path:        "/api/v1/books/genres",
		Summary:     "List genres",
		Description: "Returns the distinct genre labels across the catalog",
		Tags:        []string{"Books"},
	}, s.handleListGenres)

	huma.Register(s.api, huma.Operation{
		OperationID: "listWantToReadBooks",
		Method:      http.MethodGet,
		Path:        "/api/v1/books/want-to-read",
		Summary:     "List want-to-read books",
		Description: "Returns the books the current user has marked as wanted",
		Tags:        []string{"Books"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleListWantToReadBooks)

	huma.Register(s.api, huma.Operation{
		OperationID: "getBook",
		Method:      http.MethodGet,
		Path:        "/api/v1/books/{id}",
		Summary:     "Get book",
		Description: "Returns a book by ID",
		Tags:        []string{"Books"},
	}, s.handleGetBook)

	huma.Register(s.api, huma.Operation{
		OperationID: "updateBook",
		Method:      http.MethodPatch,
		Path:        "/api/v1/books/{id}",
		Summary:     "Update book",
		Description: "Applies a partial update (creator only)",
		Tags:        []string{"Books"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleUpdateBook)

	huma.Register(s.api, huma.Operation{
		OperationID: "deleteBook",
		Method:      http.MethodDelete,
		Path:        "/api/v1/books/{id}",
		Summary:     "Delete book",
		Description: "Removes a book from the catalog (creator only)",
		Tags:        []string{"Books"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleDeleteBook)

	huma.Register(s.api, huma.Operation{
		OperationID: "markWantToRead",
		Method:      http.MethodPatch,
		Path:        "/api/v1/books/{id}/want-to-read",
		Summary:     "Mark want-to-read",
		Description: "Adds the book to the current user's want-to-read list",
		Tags:        []string{"Books"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleMarkWantToRead)

	huma.Register(s.api, huma.Operation{
		OperationID: "unmarkWantToRead",
		Method:      http.MethodPatch,
		Path:        "/api/v1/books/{id}/unmark-want-to-read",
		Summary:     "Unmark want-to-read",
		Description: "Removes the book from the current user's want-to-read list",
		Tags:        []string{"Books"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleUnmarkWantToRead)

	huma.Register(s.api, huma.Operation{
		OperationID: "bookWantToReadStatus",
		Method:      http.MethodGet,
		Path:        "/api/v1/books/{id}/want-to-read-status",
		Summary:     "Get want-to-read status for book",
		Description: "Returns whether the current user wants to read the book",
		Tags:        []string{"Books"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleBookWantToReadStatus)
}

// === DTOs ===

// CreateBookRequest is the request body for adding a book.
type CreateBookRequest struct {
	Title       string   `json:"title" validate:"required,min=1,max=500" doc:"Book title"`
	Author      string   `json:"author" validate:"required,min=1,max=200" doc:"Author name"`
	Description string   `json:"description,omitempty" doc:"Book description"`
	Review      string   `json:"review,omitempty" doc:"Reviewer notes"`
	Cover       string   `json:"cover,omitempty" doc:"Cover image URL"`
	Genre       []string `json:"genre,omitempty" doc:"Genre labels"`
	Rating      int      `json:"rating,omitempty" minimum:"1" maximum:"5" doc:"Rating from 1 to 5"`
}

// CreateBookInput wraps the create request for Huma.
type CreateBookInput struct {
	Body CreateBookRequest
}

// BookOutput wraps a single book response for Huma.
type BookOutput struct {
	Body BookResponse
}

// ListBooksInput contains pagination and filter parameters.
type ListBooksInput struct {
	Page   int      `query:"page" default:"1" minimum:"1" doc:"Page number, starting at 1"`
	Limit  int      `query:"limit" default:"10" minimum:"1" maximum:"50" doc:"Page size, at most 50"`
	Genres []string `query:"genres" doc:"Genres to filter by (OR semantics)"`
}

// ListBooksResponse contains one page of the catalog.
type ListBooksResponse struct {
	Items []BookResponse `json:"items" doc:"Books on this page"`
	Total int            `json:"total" doc:"Total matching books"`
	Page  int            `json:"page" doc:"Current page"`
	Limit int            `json:"limit" doc:"Page size"`
	Pages int            `json:"pages" doc:"Total pages"`
}

// ListBooksOutput wraps the paginated listing for Huma.
type ListBooksOutput struct {
	Body ListBooksResponse
}

// SearchBooksInput contains the free-text search query.
type SearchBooksInput struct {
	Query string `query:"q" doc:"Free-text query matched against title and author"`
	Limit int    `query:"limit" doc:"Maximum results to return"`
}

// BooksResponse contains an unpaginated list of books.
type BooksResponse struct {
	Books []BookResponse `json:"books" doc:"Matching books"`
}

// BooksOutput wraps a book list for Huma.
type BooksOutput struct {
	Body BooksResponse
}

// GenresResponse contains the distinct genre labels.
type GenresResponse struct {
	Genres []string `json:"genres" doc:"Distinct genre labels"`
}

// GenresOutput wraps the genres response for Huma.
type GenresOutput struct {
	Body GenresResponse
}

// GetBookInput contains parameters for fetching a book.
type GetBookInput struct {
	ID string `path:"id" doc:"Book ID"`
}

// UpdateBookRequest contains fields that can be updated on a book.
// Only non-nil fields are applied (true PATCH semantics).
type UpdateBookRequest struct {
	Title       *string  `json:"title,omitempty" doc:"New title"`
	Author      *string  `json:"author,omitempty" doc:"New author"`
	Description *string  `json:"description,omitempty" doc:"New description"`
	Review      *string  `json:"review,omitempty" doc:"New review"`
	Cover       *string  `json:"cover,omitempty" doc:"New cover URL"`
	Genre       []string `json:"genre,omitempty" doc:"Replacement genre labels"`
	Rating      *int     `json:"rating,omitempty" doc:"New rating"`
}

// UpdateBookInput wraps the update request for Huma.
type UpdateBookInput struct {
	ID   string `path:"id" doc:"Book ID"`
	Body UpdateBookRequest
}

// DeleteBookInput contains parameters for deleting a book.
type DeleteBookInput struct {
	ID string `path:"id" doc:"Book ID"`
}

// === Handlers ===

func (s *Server) handleCreateBook(ctx context.Context, input *CreateBookInput) (*BookOutput, error) {
	userID, err := GetUserID(ctx)
	if err != nil {
		return nil, err
	}

	book, err := s.services.Book.CreateBook(ctx, userID, service.CreateBookRequest{
		Title:       input.Body.Title,
		Author:      input.Body.Author,
		Description: input.Body.Description,
		Review:      input.Body.Review,
		Cover:       input.Body.Cover,
		Genre:       input.Body.Genre,
		Rating:      input.Body.Rating,
	})
	if err != nil {
		return nil, err
	}

	return &BookOutput{Body: mapBookResponse(book)}, nil
}

func (s *Server) handleListBooks(ctx context.Context, input *ListBooksInput) (*ListBooksOutput, error) {
	params := store.PageParams{Page: input.Page, Limit: input.Limit}

	result, err := s.services.Book.ListBooks(ctx, params, input.Genres)
	if err != nil {
		return nil, err
	}

	return &ListBooksOutput{
		Body: ListBooksResponse{
			Items: mapBookResponses(result.Items),
			Total: result.Total,
			Page:  result.Page,
			Limit: result.Limit,
			Pages: result.Pages,
		},
	}, nil
}

func (s *Server) handleSearchBooks(ctx context.Context, input *SearchBooksInput) (*BooksOutput, error) {
	books, err := s.services.Book.SearchBooks(ctx, input.Query, input.Limit)
	if err != nil {
		return nil, err
	}

	return &BooksOutput{Body: BooksResponse{Books: mapBookResponses(books)}}, nil
}

func (s *Server) handleListGenres(ctx context.Context, _ *struct{}) (*GenresOutput, error) {
	genres, err := s.services.Book.ListGenres(ctx)
	if err != nil {
		return nil, err
	}
	if genres == nil {
		genres = []string{}
	}

	return &GenresOutput{Body: GenresResponse{Genres: genres}}, nil
}

func (s *Server) handleListWantToReadBooks(ctx context.Context, _ *struct{}) (*BooksOutput, error) {
	userID, err := GetUserID(ctx)
	if err != nil {
		return nil, err
	}

	books, err := s.services.User.ListWantToReadBooks(ctx, userID)
	if err != nil {
		return nil, err
	}

	return &BooksOutput{Body: BooksResponse{Books: mapBookResponses(books)}}, nil
}

func (s *Server) handleGetBook(ctx context.Context, input *GetBookInput) (*BookOutput, error) {
	book, err := s.services.Book.GetBook(ctx, input.ID)
	if err != nil {
		return nil, err
	}

	return &BookOutput{Body: mapBookResponse(book)}, nil
}

func (s *Server) handleUpdateBook(ctx context.Context, input *UpdateBookInput) (*BookOutput, error) {
	userID, err := GetUserID(ctx)
	if err != nil {
		return nil, err
	}

	book, err := s.services.Book.UpdateBook(ctx, userID, input.ID, service.UpdateBookRequest{
		Title:       input.Body.Title,
		Author:      input.Body.Author,
		Description: input.Body.Description,
		Review:      input.Body.Review,
		Cover:       input.Body.Cover,
		Genre:       input.Body.Genre,
		Rating:      input.Body.Rating,
	})
	if err != nil {
		return nil, err
	}

	return &BookOutput{Body: mapBookResponse(book)}, nil
}

func (s *Server) handleDeleteBook(ctx context.Context, input *DeleteBookInput) (*MessageOutput, error) {
	userID, err := GetUserID(ctx)
	if err != nil {
		return nil, err
	}

	if err := s.services.Book.DeleteBook(ctx, userID, input.ID); err != nil {
		return nil, err
	}

	return &MessageOutput{Body: MessageResponse{Message: "book deleted"}}, nil
}

func (s *Server) handleMarkWantToRead(ctx context.Context, input *GetBookInput) (*WantToReadStatusOutput, error) {
	userID, err := GetUserID(ctx)
	if err != nil {
		return nil, err
	}

	status, err := s.services.User.SetWantToRead(ctx, userID, input.ID, true)
	if err != nil {
		return nil, err
	}

	return &WantToReadStatusOutput{Body: mapWantToReadStatus(status)}, nil
}

func (s *Server) handleUnmarkWantToRead(ctx context.Context, input *GetBookInput) (*WantToReadStatusOutput, error) {
	userID, err := GetUserID(ctx)
	if err != nil {
		return nil, err
	}

	status, err := s.services.User.SetWantToRead(ctx, userID, input.ID, false)
	if err != nil {
		return nil, err
	}

	return &WantToReadStatusOutput{Body: mapWantToReadStatus(status)}, nil
}

func (s *Server) handleBookWantToReadStatus(ctx context.Context, input *GetBookInput) (*WantToReadStatusOutput, error) {
	userID, err := GetUserID(ctx)
	if err != nil {
		return nil, err
	}

	status, err := s.services.User.GetWantToReadStatus(ctx, userID, input.ID)
	if err != nil {
		return nil, err
	}

	return &WantToReadStatusOutput{Body: mapWantToReadStatus(status)}, nil
}
