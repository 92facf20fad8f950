package repository

import (
	"context"
	"errors"

	"github.com/deppfellow/bookshelf/internal/model/book"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	pkgerrors "github.com/pkg/errors"
)

// DBTX is the subset of *pgxpool.Pool the book repository needs.
type DBTX interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// PostgresBookRepository stores books in the PostgreSQL `books` table.
type PostgresBookRepository struct {
	db DBTX
}

// NewPostgresBookRepository returns a repository running its statements on db.
func NewPostgresBookRepository(db DBTX) *PostgresBookRepository {
	return &PostgresBookRepository{db: db}
}

const (
	listBooksQuery = `
		SELECT id, title, author, published_year
		FROM books
		ORDER BY id ASC`

	getBookByIDQuery = `
		SELECT id, title, author, published_year
		FROM books
		WHERE id = $1`

	createBookQuery = `
		INSERT INTO books (title, author, published_year)
		VALUES ($1, $2, $3)
		RETURNING id, title, author, published_year`

	// COALESCE keeps the stored value for every NULL argument, so a partial
	// update is one atomic statement.
	updateBookQuery = `
		UPDATE books
		SET title = COALESCE($2, title),
			author = COALESCE($3, author),
			published_year = COALESCE($4, published_year)
		WHERE id = $1
		RETURNING id, title, author, published_year`

	deleteBookQuery = `
		DELETE FROM books
		WHERE id = $1`
)

func scanBook(row pgx.Row) (book.Book, error) {
	var b book.Book
	err := row.Scan(&b.ID, &b.Title, &b.Author, &b.PublishedYear)
	return b, err
}

func (r *PostgresBookRepository) ListBooks(ctx context.Context) ([]book.Book, error) {
	rows, err := r.db.Query(ctx, listBooksQuery)
	if err != nil {
		return nil, pkgerrors.Wrap(err, "failed to execute list books query")
	}

	books, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (book.Book, error) {
		return scanBook(row)
	})
	if err != nil {
		return nil, pkgerrors.Wrap(err, "failed to collect rows from table:books")
	}

	return books, nil
}

func (r *PostgresBookRepository) GetBookByID(ctx context.Context, id int64) (*book.Book, error) {
	b, err := scanBook(r.db.QueryRow(ctx, getBookByIDQuery, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrBookNotFound
		}
		return nil, pkgerrors.Wrapf(err, "failed to get book by id=%d", id)
	}

	return &b, nil
}

func (r *PostgresBookRepository) CreateBook(ctx context.Context, payload *book.CreateBookPayload) (*book.Book, error) {
	b, err := scanBook(r.db.QueryRow(ctx, createBookQuery,
		payload.Title,
		payload.Author,
		payload.PublishedYear,
	))
	if err != nil {
		return nil, pkgerrors.Wrap(err, "failed to execute create book query")
	}

	return &b, nil
}

func (r *PostgresBookRepository) UpdateBook(ctx context.Context, payload *book.UpdateBookPayload) (*book.Book, error) {
	b, err := scanBook(r.db.QueryRow(ctx, updateBookQuery,
		payload.ID,
		payload.Title,
		payload.Author,
		payload.PublishedYear,
	))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrBookNotFound
		}
		return nil, pkgerrors.Wrapf(err, "failed to update book id=%d", payload.ID)
	}

	return &b, nil
}

func (r *PostgresBookRepository) DeleteBook(ctx context.Context, id int64) error {
	tag, err := r.db.Exec(ctx, deleteBookQuery, id)
	if err != nil {
		return pkgerrors.Wrapf(err, "failed to delete book id=%d", id)
	}

	if tag.RowsAffected() == 0 {
		return ErrBookNotFound
	}

	return nil
}
