package handler

import (
	"github.com/deppfellow/bookshelf/internal/model/book"
	"github.com/deppfellow/bookshelf/internal/server"
	"github.com/deppfellow/bookshelf/internal/service"
	"github.com/labstack/echo/v4"
)

// BookHandler serves the /api/books resource.
type BookHandler struct {
	Handler
	bookService *service.BookService
}

func NewBookHandler(s *server.Server, bookService *service.BookService) *BookHandler {
	return &BookHandler{
		Handler:     NewHandler(s),
		bookService: bookService,
	}
}

func (h *BookHandler) ListBooks(c echo.Context, _ *book.ListBooksPayload) ([]book.Book, error) {
	return h.bookService.ListBooks(c.Request().Context())
}

func (h *BookHandler) CreateBook(c echo.Context, payload *book.CreateBookPayload) (*book.Book, error) {
	return h.bookService.CreateBook(c.Request().Context(), payload)
}

func (h *BookHandler) GetBook(c echo.Context, payload *book.GetBookByIDPayload) (*book.Book, error) {
	return h.bookService.GetBook(c.Request().Context(), payload.ID)
}

func (h *BookHandler) UpdateBook(c echo.Context, payload *book.UpdateBookPayload) (*book.Book, error) {
	return h.bookService.UpdateBook(c.Request().Context(), payload)
}

func (h *BookHandler) DeleteBook(c echo.Context, payload *book.DeleteBookPayload) error {
	return h.bookService.DeleteBook(c.Request().Context(), payload.ID)
}
