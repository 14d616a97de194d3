// Package db contains the post stores. Two backends are available: an
// in-memory store, which is lost on restart, and an SQLite store.
package db

import (
	"context"

	"github.com/diamondburned/smolpost/smolpost"
	"github.com/pkg/errors"
)

const (
	BackendMemory = "memory"
	BackendSQLite = "sqlite"
)

type DBConfig struct {
	Backend      string `toml:"backend"`
	DatabasePath string `toml:"databasePath"`
}

func NewConfig() DBConfig {
	return DBConfig{
		Backend: BackendMemory,
	}
}

func (c *DBConfig) Validate() error {
	switch c.Backend {
	case "":
		c.Backend = BackendMemory
	case BackendMemory:
	case BackendSQLite:
		if c.DatabasePath == "" {
			return errors.New("missing `databasePath' value for the sqlite backend")
		}
	default:
		return errors.Errorf("unknown backend %q", c.Backend)
	}

	return nil
}

// Store is an ordered collection of posts, newest first. Implementations must
// be safe to use concurrently.
type Store interface {
	// MakePost assigns the post a new ID and inserts it at the front.
	MakePost(ctx context.Context, p *smolpost.Post) error
	// Post returns the post with the given ID or smolpost.ErrPostNotFound.
	Post(ctx context.Context, id int) (*smolpost.Post, error)
	// Page returns the given page. Out of bounds pages return page 0.
	Page(ctx context.Context, page int) (smolpost.Page, error)
	// Clear removes all posts.
	Clear(ctx context.Context) error
	Close() error
}

// NewStore creates a new store from the config.
func NewStore(config DBConfig) (Store, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	switch config.Backend {
	case BackendSQLite:
		d, err := NewDatabase(config)
		if err != nil {
			return nil, err
		}
		return d, nil
	default:
		return NewMemoryStore(), nil
	}
}
