package service

import (
	"context"
	"errors"

	"github.com/deppfellow/bookshelf/internal/errs"
	"github.com/deppfellow/bookshelf/internal/lib/metrics"
	"github.com/deppfellow/bookshelf/internal/model/book"
	"github.com/deppfellow/bookshelf/internal/repository"
	"github.com/deppfellow/bookshelf/internal/server"
	"github.com/rs/zerolog"
)

// BookNotFoundCode is the error code returned for unknown book ids.
const BookNotFoundCode = "BOOK_NOT_FOUND"

type BookService struct {
	server *server.Server
	repo   repository.BookRepository
}

func NewBookService(s *server.Server, repo repository.BookRepository) *BookService {
	return &BookService{
		server: s,
		repo:   repo,
	}
}

func (s *BookService) ListBooks(ctx context.Context) ([]book.Book, error) {
	books, err := s.repo.ListBooks(ctx)
	if err != nil {
		return nil, s.fail("list", err)
	}
	s.record("list", metrics.OutcomeSuccess)

	// Empty collections serialize as [] rather than null.
	if books == nil {
		books = []book.Book{}
	}

	return books, nil
}

func (s *BookService) GetBook(ctx context.Context, id int64) (*book.Book, error) {
	b, err := s.repo.GetBookByID(ctx, id)
	if err != nil {
		return nil, s.fail("get", err)
	}
	s.record("get", metrics.OutcomeSuccess)

	return b, nil
}

func (s *BookService) CreateBook(ctx context.Context, payload *book.CreateBookPayload) (*book.Book, error) {
	b, err := s.repo.CreateBook(ctx, payload)
	if err != nil {
		return nil, s.fail("create", err)
	}
	s.record("create", metrics.OutcomeSuccess)

	zerolog.Ctx(ctx).Info().
		Int64("book_id", b.ID).
		Str("title", b.Title).
		Msg("book created")

	return b, nil
}

// UpdateBook applies a partial update. A payload without any field returns
// the stored book unchanged.
func (s *BookService) UpdateBook(ctx context.Context, payload *book.UpdateBookPayload) (*book.Book, error) {
	if payload.IsEmpty() {
		return s.GetBook(ctx, payload.ID)
	}

	b, err := s.repo.UpdateBook(ctx, payload)
	if err != nil {
		return nil, s.fail("update", err)
	}
	s.record("update", metrics.OutcomeSuccess)

	return b, nil
}

func (s *BookService) DeleteBook(ctx context.Context, id int64) error {
	if err := s.repo.DeleteBook(ctx, id); err != nil {
		return s.fail("delete", err)
	}
	s.record("delete", metrics.OutcomeSuccess)

	zerolog.Ctx(ctx).Info().Int64("book_id", id).Msg("book deleted")

	return nil
}

// fail records the outcome of a failed operation and translates a missing
// book into a 404. Other errors are returned unchanged for the global
// error handler.
func (s *BookService) fail(operation string, err error) error {
	if errors.Is(err, repository.ErrBookNotFound) {
		s.record(operation, metrics.OutcomeNotFound)
		code := BookNotFoundCode
		return errs.NewNotFoundError("Book not found", true, &code)
	}

	s.record(operation, metrics.OutcomeError)
	return err
}

func (s *BookService) record(operation, outcome string) {
	if s.server.Metrics != nil {
		s.server.Metrics.RecordBookOperation(operation, outcome)
	}
}
