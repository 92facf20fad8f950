// Package handler is the HTTP entry point after the router.
//
// It binds and validates requests through the validation package, calls
// the service layer and writes the responses.
package handler

import (
	"github.com/deppfellow/bookshelf/internal/server"
	"github.com/deppfellow/bookshelf/internal/service"
)

// Handlers groups all HTTP handlers.
type Handlers struct {
	Book    *BookHandler
	Health  *HealthHandler
	OpenAPI *OpenAPIHandler
}

func NewHandlers(s *server.Server, services *service.Services) *Handlers {
	return &Handlers{
		Book:    NewBookHandler(s, services.Book),
		Health:  NewHealthHandler(s),
		OpenAPI: NewOpenAPIHandler(s),
	}
}
