// Package api is the read-only JSON API of the post store.
package api

import (
	"net/http"
	"strconv"

	"github.com/diamondburned/smolpost/server/http/internal/form"
	"github.com/diamondburned/smolpost/server/http/internal/handler"
	"github.com/diamondburned/smolpost/server/http/internal/limit"
	"github.com/diamondburned/smolpost/server/httperr"
	"github.com/diamondburned/smolpost/smolpost"
	"github.com/go-chi/chi"
)

// Mount returns the API handler. It is mounted on /api.
func Mount(m handler.Middleware) http.Handler {
	m = m.JSON()

	mux := chi.NewMux()
	mux.Use(limit.RateLimit(64, m.RenderError))
	mux.Get("/posts", m.M(ListPosts))
	mux.Get("/posts/{id}", m.M(GetPost))
	mux.NotFound(m.M(notFound))

	return mux
}

// ListParams is the URL parameter for post listing pagination.
type ListParams struct {
	Page int `schema:"page"`
}

func ListPosts(r handler.Request) (interface{}, error) {
	var p ListParams

	if err := form.Unmarshal(r.Request, &p); err != nil {
		return nil, httperr.Wrap(err, 400, "invalid page")
	}

	return r.Store.Page(r.Context(), p.Page)
}

func GetPost(r handler.Request) (interface{}, error) {
	i, err := strconv.Atoi(r.Param("id"))
	if err != nil {
		return nil, smolpost.ErrPostNotFound
	}

	return r.Store.Post(r.Context(), i)
}

func notFound(r handler.Request) (interface{}, error) {
	return nil, httperr.New(404, "unknown endpoint")
}
