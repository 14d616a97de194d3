// Package debug contains the routes that are only available in debug mode.
package debug

import (
	"log"
	"net/http"
	"time"

	"github.com/diamondburned/smolpost/server/http/internal/handler"
	"github.com/go-chi/chi"
	"github.com/pkg/errors"
)

// Routes registers the debug routes onto the given router.
func Routes(mux chi.Router, m handler.Middleware) {
	mux.Get("/clearposts", m.M(ClearPosts))
	mux.Get("/clearcookies", m.M(ClearCookies))
}

// ClearPosts removes every post from the store.
func ClearPosts(r handler.Request) (interface{}, error) {
	if err := r.Store.Clear(r.Context()); err != nil {
		return nil, errors.Wrap(err, "failed to clear posts")
	}

	log.Println("Cleared all posts")

	return r.Redirect("/"), nil
}

// ClearCookies expires every cookie sent with the request.
func ClearCookies(r handler.Request) (interface{}, error) {
	for _, c := range r.Cookies() {
		http.SetCookie(r.Writer, &http.Cookie{
			Name:    c.Name,
			Value:   "",
			Path:    "/",
			Expires: time.Unix(0, 0),
			MaxAge:  -1,
		})
	}

	return r.Redirect("/"), nil
}
