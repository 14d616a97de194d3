// Package server ties the post store and the HTTP routes together.
package server

import (
	"github.com/diamondburned/smolpost/server/db"
	"github.com/diamondburned/smolpost/server/http"
	"github.com/pkg/errors"
)

// Config is the global application config.
type Config struct {
	db.DBConfig
	http.HTTPConfig
}

func NewConfig() Config {
	return Config{
		DBConfig:   db.NewConfig(),
		HTTPConfig: http.NewConfig(),
	}
}

// Validator is used for configs.
type Validator interface {
	Validate() error
}

func (c *Config) Validate() error {
	var fields = []Validator{
		&c.DBConfig,
		&c.HTTPConfig,
	}

	for _, v := range fields {
		if err := v.Validate(); err != nil {
			return err
		}
	}
	return nil
}

type App struct {
	*http.Routes
	Store db.Store
}

func New(config Config) (*App, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	s, err := db.NewStore(config.DBConfig)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create store")
	}

	h, err := http.New(s, config.HTTPConfig)
	if err != nil {
		s.Close()
		return nil, errors.Wrap(err, "failed to create HTTP")
	}

	app := &App{
		Routes: h,
		Store:  s,
	}

	return app, nil
}

// Close closes the store.
func (a *App) Close() error {
	return a.Store.Close()
}
