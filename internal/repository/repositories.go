package repository

import (
	"github.com/deppfellow/bookshelf/internal/config"
	"github.com/deppfellow/bookshelf/internal/server"
)

// Repositories is a container for all repository instances.
type Repositories struct {
	Book BookRepository
}

// NewRepositories picks the book store matching the configured storage driver.
//
// The server must already hold the matching connection (s.DB for postgres,
// s.Redis for redis).
func NewRepositories(s *server.Server) *Repositories {
	switch s.Config.Storage.Driver {
	case config.DriverRedis:
		return &Repositories{
			Book: NewRedisBookRepository(s.Redis, s.Config.Redis.KeyPrefix),
		}
	default:
		return &Repositories{
			Book: NewPostgresBookRepository(s.DB.Pool),
		}
	}
}
