// Package feed renders the newest posts as RSS and Atom feeds.
package feed

import (
	"context"
	"mime"
	"net/http"
	"path"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/diamondburned/smolpost/server/db"
	"github.com/diamondburned/smolpost/server/http/internal/handler"
	"github.com/diamondburned/smolpost/server/http/render"
	"github.com/go-chi/chi"
	"github.com/gorilla/feeds"
	"github.com/pkg/errors"
)

// Routes registers /feed.rss and /feed.atom.
func Routes(mux chi.Router, m handler.Middleware) {
	mux.Get("/feed.rss", m.M(RSS))
	mux.Get("/feed.atom", m.M(Atom))
}

// baseURL guesses the public URL of the site from the request.
func baseURL(r *http.Request) string {
	scheme := "http"
	if r.TLS != nil {
		scheme = "https"
	}
	if proto := r.Header.Get("X-Forwarded-Proto"); proto != "" {
		scheme = proto
	}

	return scheme + "://" + r.Host
}

// descLimit is the maximum number of runes in an item's description.
const descLimit = 280

// Build creates a feed of the first page of posts.
func Build(ctx context.Context, s db.Store, siteName, base string) (*feeds.Feed, error) {
	page, err := s.Page(ctx, 0)
	if err != nil {
		return nil, errors.Wrap(err, "failed to get page")
	}

	feed := &feeds.Feed{
		Title:   siteName,
		Link:    &feeds.Link{Href: base + "/"},
		Id:      base + "/",
		Updated: time.Now(),
	}

	for _, post := range page.Posts {
		link := base + "/view?id=" + strconv.Itoa(post.ID)

		item := &feeds.Item{
			Title:       post.Title,
			Link:        &feeds.Link{Href: link},
			Id:          link,
			Description: truncate(post.Content),
			Content:     string(render.Content(post.Content)),
		}

		if url := post.GetMediaURL(); url != "" {
			item.Enclosure = &feeds.Enclosure{
				Url:  base + url,
				Type: mime.TypeByExtension(path.Ext(url)),
			}
		}

		feed.Items = append(feed.Items, item)
	}

	return feed, nil
}

func truncate(s string) string {
	if utf8.RuneCountInString(s) <= descLimit {
		return s
	}

	words := strings.Fields(s)
	var b strings.Builder

	for _, word := range words {
		if utf8.RuneCountInString(b.String())+utf8.RuneCountInString(word) > descLimit {
			break
		}
		if b.Len() > 0 {
			b.WriteByte(' ')
		}
		b.WriteString(word)
	}

	return b.String() + "…"
}

func write(r handler.Request, ctype string, fn func(*feeds.Feed) (string, error)) (interface{}, error) {
	f, err := Build(r.Context(), r.Store, r.Render.SiteName, baseURL(r.Request))
	if err != nil {
		return nil, err
	}

	s, err := fn(f)
	if err != nil {
		return nil, errors.Wrap(err, "failed to render feed")
	}

	return func(w http.ResponseWriter) error {
		w.Header().Set("Content-Type", ctype)
		_, err := w.Write([]byte(s))
		return err
	}, nil
}

func RSS(r handler.Request) (interface{}, error) {
	return write(r, "application/rss+xml; charset=utf-8", (*feeds.Feed).ToRss)
}

func Atom(r handler.Request) (interface{}, error) {
	return write(r, "application/atom+xml; charset=utf-8", (*feeds.Feed).ToAtom)
}
