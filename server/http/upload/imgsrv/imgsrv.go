// Package imgsrv serves stored media files and their thumbnails.
package imgsrv

import (
	"bytes"
	"image"
	"image/draw"
	"image/jpeg"
	"log"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/diamondburned/smolpost/server/http/internal/handler"
	"github.com/diamondburned/smolpost/server/http/internal/limit"
	"github.com/diamondburned/smolpost/server/http/upload"
	"github.com/diamondburned/smolpost/server/http/upload/ff"
	"github.com/diamondburned/smolpost/server/http/upload/imgsrv/thumbcache"
	"github.com/diamondburned/smolpost/server/httperr"
	"github.com/disintegration/imaging"
	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/pkg/errors"
)

// ThumbnailSize controls the dimension of the thumbnail.
const ThumbnailSize = 400

// ThumbPrefix is the URL prefix of thumbnails.
const ThumbPrefix = "/thumbs/"

var (
	ErrFileNotFound = httperr.New(404, "file not found")
)

// ThumbURL returns the thumbnail URL of the stored file name.
func ThumbURL(name string) string {
	return ThumbPrefix + name
}

type Server struct {
	MaxAge time.Duration
	Cache  *thumbcache.Cache
}

func (s Server) cacheControl(w http.ResponseWriter) {
	w.Header().Set(
		"Cache-Control",
		"public, max-age="+strconv.Itoa(int(s.MaxAge/time.Second)),
	)
}

// MountMedia returns the handler serving the media directory. It is mounted
// on /media.
func MountMedia(m handler.Middleware, s Server) http.Handler {
	mux := chi.NewMux()
	mux.Get("/*", m.M(s.ServeMedia))

	return mux
}

// MountThumbs returns the handler serving thumbnails. It is mounted on
// /thumbs.
func MountThumbs(m handler.Middleware, s Server) http.Handler {
	mux := chi.NewMux()
	mux.Use(limit.RateLimit(100, m.RenderError)) // 100 accesses per second

	// Limit the thumbnail processors to 50 simultaneous requests.
	mux.With(middleware.Throttle(50)).Get("/{file}", m.M(s.ServeThumbnail))

	return mux
}

// storedName validates the requested name. Nested paths and dotfiles are never
// served.
func storedName(name string) (string, error) {
	if name == "" || strings.Contains(name, "/") || strings.HasPrefix(name, ".") {
		return "", ErrFileNotFound
	}
	return name, nil
}

func (s Server) ServeMedia(r handler.Request) (interface{}, error) {
	name, err := storedName(r.Param("*"))
	if err != nil {
		return nil, err
	}

	f, err := os.Open(filepath.Join(r.Up.FileDirectory, name))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrFileNotFound
		}
		return nil, errors.Wrap(err, "failed to open file")
	}

	st, err := f.Stat()
	if err != nil || st.IsDir() {
		f.Close()
		return nil, ErrFileNotFound
	}

	return func(w http.ResponseWriter) error {
		defer f.Close()

		s.cacheControl(w)
		// Write the ETag as a Unix timestamp in nanoseconds hexadecimal.
		w.Header().Set("ETag", strconv.FormatInt(st.ModTime().UnixNano(), 16))

		// ServeContent will actually validate the ETag for us.
		http.ServeContent(w, r.Request, name, st.ModTime(), f)
		return nil
	}, nil
}

func (s Server) ServeThumbnail(r handler.Request) (interface{}, error) {
	name, err := storedName(r.Param("file"))
	if err != nil {
		return nil, err
	}

	return func(w http.ResponseWriter) error {
		// Try serving the thumbnail and redirect the user to the original
		// content if there's none available.
		if err := s.serveThumbnail(w, r, name); err != nil {
			log.Printf("Error serving thumbnail %q: %v\n", name, err)
			http.Redirect(w, r.Request, upload.URL(name), http.StatusFound)
		}

		// This never fails.
		return nil
	}, nil
}

var jpegOpts = &jpeg.Options{
	Quality: 90,
}

func (s Server) serveThumbnail(w http.ResponseWriter, r handler.Request, name string) error {
	var path = filepath.Join(r.Up.FileDirectory, name)

	// We should always check if the file still exists. It may not.
	st, err := os.Stat(path)
	if err != nil {
		// Cleanup if any. This isn't important, so we can ignore.
		s.Cache.Delete(name)

		return errors.Wrap(err, "failed to stat file")
	}

	var modTime = st.ModTime()

	w.Header().Set("ETag", strconv.FormatInt(modTime.UnixNano(), 16))
	s.cacheControl(w)

	// Check if the file is in the cache. If it is, return.
	b, err := s.Cache.Get(name)
	if err == nil {
		http.ServeContent(w, r.Request, "thumb.jpeg", modTime, bytes.NewReader(b))
		return nil
	}

	b, err = tryNativeJPEG(path)
	if err != nil {
		b, err = ff.FirstFrameJPEG(r.Context(), path, ThumbnailSize, ThumbnailSize, ff.LanczosScaler)
	}

	if err != nil {
		return err
	}

	// Non-fatal cache error; ignore.
	if err := s.Cache.Put(name, b); err != nil {
		log.Println("Failed to cache thumbnail:", err)
	}

	http.ServeContent(w, r.Request, "thumb.jpeg", modTime, bytes.NewReader(b))
	return nil
}

func tryNativeJPEG(path string) ([]byte, error) {
	i, err := imaging.Open(path, imaging.AutoOrientation(true))
	if err != nil {
		return nil, errors.Wrap(err, "failed to decode image")
	}

	nrgba := imaging.Fit(i, ThumbnailSize, ThumbnailSize, imaging.Lanczos)
	// Since JPEG really wants an *RGBA, we need to redraw everything.
	rgba := image.NewRGBA(nrgba.Rect)
	draw.Draw(rgba, rgba.Rect, nrgba, rgba.Rect.Min, draw.Src)

	var buf bytes.Buffer

	if err := jpeg.Encode(&buf, rgba, jpegOpts); err != nil {
		return nil, errors.Wrap(err, "failed to encode JPEG")
	}

	return buf.Bytes(), nil
}
