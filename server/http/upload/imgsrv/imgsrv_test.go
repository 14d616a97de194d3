package imgsrv

import (
	"bytes"
	"image"
	"image/jpeg"
	"image/png"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/diamondburned/smolpost/server/db"
	"github.com/diamondburned/smolpost/server/http/internal/handler"
	"github.com/diamondburned/smolpost/server/http/render"
	"github.com/diamondburned/smolpost/server/http/upload"
	"github.com/diamondburned/smolpost/server/http/upload/imgsrv/thumbcache"
	"github.com/go-chi/chi"
)

func newTestServer(t *testing.T) (*httptest.Server, string) {
	t.Helper()

	cfg := upload.NewConfig()
	cfg.FileDirectory = t.TempDir()

	m := handler.NewMiddleware(db.NewMemoryStore(), cfg, render.NewConfig())
	s := Server{
		MaxAge: 7 * 24 * time.Hour,
		Cache:  thumbcache.New(t.TempDir()),
	}

	r := chi.NewRouter()
	r.Mount("/media", MountMedia(m, s))
	r.Mount("/thumbs", MountThumbs(m, s))

	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)

	return srv, cfg.FileDirectory
}

var noRedirect = &http.Client{
	CheckRedirect: func(*http.Request, []*http.Request) error {
		return http.ErrUseLastResponse
	},
}

func get(t *testing.T, url string) *http.Response {
	t.Helper()

	r, err := noRedirect.Get(url)
	if err != nil {
		t.Fatal("Failed to GET:", err)
	}
	t.Cleanup(func() { r.Body.Close() })

	return r
}

func writePNG(t *testing.T, path string, w, h int) {
	t.Helper()

	var b bytes.Buffer
	if err := png.Encode(&b, image.NewRGBA(image.Rect(0, 0, w, h))); err != nil {
		t.Fatal("Failed to encode PNG:", err)
	}

	if err := os.WriteFile(path, b.Bytes(), 0644); err != nil {
		t.Fatal("Failed to write PNG:", err)
	}
}

func TestServeMedia(t *testing.T) {
	srv, dir := newTestServer(t)

	if err := os.WriteFile(filepath.Join(dir, "abc.txt"), []byte("hi"), 0644); err != nil {
		t.Fatal(err)
	}

	// A nested file that must never be reachable.
	if err := os.MkdirAll(filepath.Join(dir, "a"), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "a", "b"), []byte("no"), 0644); err != nil {
		t.Fatal(err)
	}

	t.Run("found", func(t *testing.T) {
		r := get(t, srv.URL+"/media/abc.txt")
		if r.StatusCode != 200 {
			t.Fatal("Unexpected status:", r.StatusCode)
		}
		if r.Header.Get("ETag") == "" {
			t.Fatal("Missing ETag")
		}
		if cc := r.Header.Get("Cache-Control"); cc != "public, max-age=604800" {
			t.Fatalf("Unexpected Cache-Control: %q", cc)
		}
	})

	var notFound = []string{
		"/media/a/b",
		"/media/a",
		"/media/missing.png",
		"/media/",
		"/media/.hidden",
	}

	for _, path := range notFound {
		t.Run(path, func(t *testing.T) {
			if r := get(t, srv.URL+path); r.StatusCode != 404 {
				t.Fatal("Unexpected status:", r.StatusCode)
			}
		})
	}
}

func TestServeThumbnail(t *testing.T) {
	srv, dir := newTestServer(t)
	writePNG(t, filepath.Join(dir, "img.png"), 800, 200)

	t.Run("image", func(t *testing.T) {
		r := get(t, srv.URL+"/thumbs/img.png")
		if r.StatusCode != 200 {
			t.Fatal("Unexpected status:", r.StatusCode)
		}

		i, err := jpeg.Decode(r.Body)
		if err != nil {
			t.Fatal("Failed to decode thumbnail:", err)
		}

		if b := i.Bounds(); b.Dx() != ThumbnailSize || b.Dy() != 100 {
			t.Fatal("Unexpected thumbnail size:", b)
		}
	})

	t.Run("fallback", func(t *testing.T) {
		r := get(t, srv.URL+"/thumbs/missing.png")
		if r.StatusCode != http.StatusFound {
			t.Fatal("Unexpected status:", r.StatusCode)
		}
		if loc := r.Header.Get("Location"); loc != "/media/missing.png" {
			t.Fatalf("Unexpected redirect: %q", loc)
		}
	})
}
