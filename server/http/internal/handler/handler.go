// Package handler provides the request middleware that injects the post store
// and renders whatever the handlers return.
package handler

import (
	"encoding/json"
	"log"
	"net/http"

	"github.com/diamondburned/smolpost/server/db"
	"github.com/diamondburned/smolpost/server/http/render"
	"github.com/diamondburned/smolpost/server/http/upload"
	"github.com/diamondburned/smolpost/server/httperr"
	"github.com/diamondburned/smolpost/smolpost"
	"github.com/go-chi/chi"
)

type Request struct {
	*http.Request
	Writer http.ResponseWriter

	Store  db.Store
	Up     *upload.UploadConfig
	Render render.Config
}

// Param is a helper function that returns a URL parameter from chi.
func (r Request) Param(s string) string {
	return chi.URLParam(r.Request, s)
}

// Redirect returns a renderer that redirects to the given URL with 302 Found.
func (r Request) Redirect(url string) Renderer {
	return func(w http.ResponseWriter) error {
		http.Redirect(w, r.Request, url, http.StatusFound)
		return nil
	}
}

// Page returns a renderer that writes the page inside the site layout.
func (r Request) Page(page render.Render) Renderer {
	return func(w http.ResponseWriter) error {
		r.Render.Write(w, http.StatusOK, page)
		return nil
	}
}

// Handler is the function signature for request handlers. Render could be a
// Renderer; anything else that is non-nil is written as JSON.
type Handler = func(Request) (render interface{}, err error)

// Renderer is a possible return type for Handler's render.
type Renderer = func(w http.ResponseWriter) error

// ErrorRenderer writes the error into the response.
type ErrorRenderer = func(w http.ResponseWriter, r *http.Request, err error)

// Middlewarer is the interface for the handler middleware.
type Middlewarer = func(Handler) http.HandlerFunc

type Middleware struct {
	store  db.Store
	up     upload.UploadConfig
	render render.Config
	errorR ErrorRenderer
}

var _ Middlewarer = (Middleware{}).M

// NewMiddleware creates a middleware that renders errors as HTML pages.
func NewMiddleware(s db.Store, up upload.UploadConfig, cfg render.Config) Middleware {
	return Middleware{
		store:  s,
		up:     up,
		render: cfg,
		errorR: cfg.WriteError,
	}
}

// JSON returns a copy of the middleware that renders errors as JSON.
func (m Middleware) JSON() Middleware {
	m.errorR = RenderError
	return m
}

// Config returns the render configuration.
func (m Middleware) Config() render.Config {
	return m.render
}

// RenderError writes the error using the middleware's error renderer.
func (m Middleware) RenderError(w http.ResponseWriter, r *http.Request, err error) {
	if m.errorR == nil {
		RenderError(w, r, err)
		return
	}
	m.errorR(w, r, err)
}

func (m Middleware) M(h Handler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		v, err := h(Request{
			Request: r,
			Writer:  w,
			Store:   m.store,
			Up:      &m.up,
			Render:  m.render,
		})
		if err != nil {
			m.RenderError(w, r, err)
			return
		}

		m.write(w, r, v)
	}
}

func (m Middleware) write(w http.ResponseWriter, r *http.Request, v interface{}) {
	if v == nil {
		w.WriteHeader(http.StatusNoContent)
		return
	}

	if fn, ok := v.(Renderer); ok {
		if err := fn(w); err != nil {
			m.RenderError(w, r, err)
		}
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(200)

	// Render the body as JSON.
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Println("Encode failed:", err)
	}
}

// RenderError writes the error as a JSON body.
func RenderError(w http.ResponseWriter, r *http.Request, err error) {
	code := httperr.ErrCode(err)
	if code >= 500 {
		log.Printf("Error serving %s %s: %v", r.Method, r.URL.Path, err)
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)

	var jsonError = smolpost.ErrResponse{
		Error: err.Error(),
	}

	if err := json.NewEncoder(w).Encode(jsonError); err != nil {
		log.Println("Encode failed:", err)
	}
}
