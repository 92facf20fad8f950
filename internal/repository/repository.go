// Package repository handles all interactions with the data store.
//
// It contains the queries and commands that fetch, persist, update or
// delete books, abstracting store details away from the service layer.
package repository

import (
	"context"
	"errors"

	"github.com/deppfellow/bookshelf/internal/model/book"
)

// ErrBookNotFound is returned when no book exists for the requested id.
var ErrBookNotFound = errors.New("book not found")

// BookRepository is the persistence contract of the books resource.
//
// Every method maps onto a single store operation.
type BookRepository interface {
	// ListBooks returns every book ordered by ascending id.
	ListBooks(ctx context.Context) ([]book.Book, error)

	// GetBookByID returns ErrBookNotFound when the id does not exist.
	GetBookByID(ctx context.Context, id int64) (*book.Book, error)

	// CreateBook inserts a new book and returns it with its assigned id.
	CreateBook(ctx context.Context, payload *book.CreateBookPayload) (*book.Book, error)

	// UpdateBook overwrites only the non-nil fields of payload and returns
	// the resulting record, or ErrBookNotFound.
	UpdateBook(ctx context.Context, payload *book.UpdateBookPayload) (*book.Book, error)

	// DeleteBook returns ErrBookNotFound when nothing was deleted.
	DeleteBook(ctx context.Context, id int64) error
}
