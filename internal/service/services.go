package service

import (
	"github.com/deppfellow/bookshelf/internal/repository"
	"github.com/deppfellow/bookshelf/internal/server"
)

// Services groups the business layer.
type Services struct {
	Book *BookService
}

func NewServices(s *server.Server, repos *repository.Repositories) (*Services, error) {
	return &Services{
		Book: NewBookService(s, repos.Book),
	}, nil
}
