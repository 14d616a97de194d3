// Package static serves files from the root directory.
package static

import (
	"net/http"
	"os"
	"strings"

	"github.com/diamondburned/smolpost/server/http/internal/handler"
	"github.com/diamondburned/smolpost/smolpost"
	"github.com/pkg/errors"
)

type Dir struct {
	Root string
}

// open opens a regular file inside the root directory.
func (d Dir) open(name string) (http.File, os.FileInfo, error) {
	if d.Root == "" {
		return nil, nil, smolpost.ErrPageNotFound
	}

	// http.Dir cleans the path and refuses to escape the root.
	f, err := http.Dir(d.Root).Open("/" + strings.TrimPrefix(name, "/"))
	if err != nil {
		if os.IsNotExist(err) || os.IsPermission(err) {
			return nil, nil, smolpost.ErrPageNotFound
		}
		return nil, nil, errors.Wrap(err, "failed to open file")
	}

	s, err := f.Stat()
	if err != nil || s.IsDir() {
		f.Close()
		return nil, nil, smolpost.ErrPageNotFound
	}

	return f, s, nil
}

// ServeFile serves any file in the root directory. Missing files render the
// not found page.
func (d Dir) ServeFile(r handler.Request) (interface{}, error) {
	// Hidden files are never served.
	for _, part := range strings.Split(r.URL.Path, "/") {
		if strings.HasPrefix(part, ".") {
			return nil, smolpost.ErrPageNotFound
		}
	}

	f, s, err := d.open(r.URL.Path)
	if err != nil {
		return nil, err
	}

	return func(w http.ResponseWriter) error {
		defer f.Close()
		http.ServeContent(w, r.Request, s.Name(), s.ModTime(), f)
		return nil
	}, nil
}

// FaviconFile is the name of the favicon inside the root directory.
const FaviconFile = "favicon.png"

// ServeFavicon serves favicon.png from the root directory for /favicon.ico.
func (d Dir) ServeFavicon(r handler.Request) (interface{}, error) {
	f, s, err := d.open(FaviconFile)
	if err != nil {
		return nil, err
	}

	return func(w http.ResponseWriter) error {
		defer f.Close()
		w.Header().Set("Content-Type", "image/png")
		http.ServeContent(w, r.Request, FaviconFile, s.ModTime(), f)
		return nil
	}, nil
}

// NotFound renders the not found page.
func NotFound(r handler.Request) (interface{}, error) {
	return nil, smolpost.ErrPageNotFound
}
