// Package book holds the Book entity and the request payloads of the
// books resource.
package book

// Book is a persisted book record.
type Book struct {
	ID            int64  `json:"id" db:"id"`
	Title         string `json:"title" db:"title"`
	Author        string `json:"author" db:"author"`
	PublishedYear int    `json:"published_year" db:"published_year"`
}
