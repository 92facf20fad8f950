package book

import (
	"strings"

	"github.com/deppfellow/bookshelf/internal/validation"
)

// MaxTextLength bounds title and author, counted in characters.
const MaxTextLength = 255

// ------------------------------------------------------------

// ListBooksPayload carries no input; the list is never filtered.
type ListBooksPayload struct{}

func (p *ListBooksPayload) Validate() error {
	return nil
}

// ------------------------------------------------------------

// CreateBookPayload is the body of POST /api/books.
//
// PublishedYear is a pointer so a missing year is distinguishable from 0.
type CreateBookPayload struct {
	Title         string `json:"title" validate:"required,max=255"`
	Author        string `json:"author" validate:"required,max=255"`
	PublishedYear *int   `json:"published_year" validate:"required"`
}

func (p *CreateBookPayload) Normalize() {
	p.Title = strings.TrimSpace(p.Title)
	p.Author = strings.TrimSpace(p.Author)
}

func (p *CreateBookPayload) Validate() error {
	return validation.Struct(p)
}

// ------------------------------------------------------------

// GetBookByIDPayload identifies a book from the path.
type GetBookByIDPayload struct {
	ID int64 `param:"id" json:"-"`
}

func (p *GetBookByIDPayload) Validate() error {
	return nil
}

// ------------------------------------------------------------

// UpdateBookPayload is the body of PUT /api/books/{id}.
//
// Every field is optional; nil means the key was absent and the stored value
// is kept. A key sent as null is rejected while binding. The id comes from the
// path only and is never read from the body.
type UpdateBookPayload struct {
	ID            int64   `param:"id" json:"-"`
	Title         *string `json:"title" validate:"omitnil,min=1,max=255"`
	Author        *string `json:"author" validate:"omitnil,min=1,max=255"`
	PublishedYear *int    `json:"published_year"`
}

func (p *UpdateBookPayload) Normalize() {
	if p.Title != nil {
		title := strings.TrimSpace(*p.Title)
		p.Title = &title
	}
	if p.Author != nil {
		author := strings.TrimSpace(*p.Author)
		p.Author = &author
	}
}

func (p *UpdateBookPayload) Validate() error {
	return validation.Struct(p)
}

// IsEmpty reports whether the update changes nothing.
func (p *UpdateBookPayload) IsEmpty() bool {
	return p.Title == nil && p.Author == nil && p.PublishedYear == nil
}

// ------------------------------------------------------------

// DeleteBookPayload identifies the book to delete from the path.
type DeleteBookPayload struct {
	ID int64 `param:"id" json:"-"`
}

func (p *DeleteBookPayload) Validate() error {
	return nil
}
