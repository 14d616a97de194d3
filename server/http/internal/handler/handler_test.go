package handler

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/diamondburned/smolpost/server/db"
	"github.com/diamondburned/smolpost/server/http/render"
	"github.com/diamondburned/smolpost/server/http/upload"
	"github.com/diamondburned/smolpost/server/httperr"
	"github.com/diamondburned/smolpost/smolpost"
	"github.com/go-test/deep"
)

func newMiddleware() Middleware {
	return NewMiddleware(db.NewMemoryStore(), upload.NewConfig(), render.NewConfig())
}

func serve(h http.HandlerFunc) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	h(w, httptest.NewRequest("GET", "/", nil))
	return w
}

func TestMiddleware(t *testing.T) {
	m := newMiddleware()

	t.Run("no content", func(t *testing.T) {
		w := serve(m.M(func(Request) (interface{}, error) { return nil, nil }))
		if w.Code != http.StatusNoContent {
			t.Fatal("Unexpected status:", w.Code)
		}
	})

	t.Run("json", func(t *testing.T) {
		w := serve(m.M(func(Request) (interface{}, error) {
			return smolpost.NewPost("a", "b", 1, ""), nil
		}))

		if ct := w.Header().Get("Content-Type"); ct != "application/json" {
			t.Fatal("Unexpected Content-Type:", ct)
		}

		var p smolpost.Post
		if err := json.Unmarshal(w.Body.Bytes(), &p); err != nil {
			t.Fatal("Failed to decode:", err)
		}

		if eq := deep.Equal(p, smolpost.NewPost("a", "b", 1, "")); eq != nil {
			t.Fatal("Unexpected post:", eq)
		}
	})

	t.Run("redirect", func(t *testing.T) {
		w := serve(m.M(func(r Request) (interface{}, error) {
			return r.Redirect("/"), nil
		}))

		if w.Code != http.StatusFound || w.Header().Get("Location") != "/" {
			t.Fatal("Unexpected redirect:", w.Code, w.Header().Get("Location"))
		}
	})

	t.Run("html error", func(t *testing.T) {
		w := serve(m.M(func(Request) (interface{}, error) {
			return nil, httperr.New(404, "gone")
		}))

		if w.Code != 404 {
			t.Fatal("Unexpected status:", w.Code)
		}
		if ct := w.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/html") {
			t.Fatal("Unexpected Content-Type:", ct)
		}
	})

	t.Run("renderer error", func(t *testing.T) {
		w := serve(m.JSON().M(func(Request) (interface{}, error) {
			return Renderer(func(http.ResponseWriter) error {
				return httperr.New(418, "teapot")
			}), nil
		}))

		if w.Code != 418 {
			t.Fatal("Unexpected status:", w.Code)
		}

		var resp smolpost.ErrResponse
		if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
			t.Fatal("Failed to decode:", err)
		}

		if resp.Error != "teapot" {
			t.Fatal("Unexpected error:", resp.Error)
		}
	})
}
