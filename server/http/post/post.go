// Package post contains the handlers for listing, viewing and adding posts.
package post

import (
	"bytes"
	_ "embed"
	"html/template"
	"log"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/diamondburned/smolpost/server/http/internal/form"
	"github.com/diamondburned/smolpost/server/http/internal/handler"
	"github.com/diamondburned/smolpost/server/http/internal/limit"
	"github.com/diamondburned/smolpost/server/http/render"
	"github.com/diamondburned/smolpost/server/http/render/pager"
	"github.com/diamondburned/smolpost/server/http/render/unblur"
	"github.com/diamondburned/smolpost/server/http/upload/imgsrv"
	"github.com/diamondburned/smolpost/server/httperr"
	"github.com/diamondburned/smolpost/smolpost"
	"github.com/go-chi/chi"
	"github.com/pkg/errors"
)

var (
	//go:embed index.html
	indexHTML string
	//go:embed view.html
	viewHTML string
	//go:embed post.html
	postHTML string
	//go:embed post.css
	postCSS string
	//go:embed addpost.html
	addpostHTML []byte
)

func init() {
	render.RegisterCSS(postCSS)
}

// MediaField is the name of the multipart file field.
const MediaField = "media"

var postComponent = render.Component{
	Template: postHTML,
}

var pageFns = template.FuncMap{
	"view": func(p smolpost.Post) View { return View{Post: p} },
	"full": func(p smolpost.Post) View { return View{Post: p, Full: true} },
}

var indexTmpl = render.BuildPage("index", render.Page{
	Template: indexHTML,
	Components: map[string]render.Component{
		"post":  postComponent,
		"pager": pager.Component,
	},
	Functions: pageFns,
})

var viewTmpl = render.BuildPage("view", render.Page{
	Template: viewHTML,
	Components: map[string]render.Component{
		"post": postComponent,
	},
	Functions: pageFns,
})

// View wraps a post with helpers for the templates.
type View struct {
	smolpost.Post
	Full bool
}

func (v View) Type() string { return v.MediaType().String() }
func (v View) URL() string  { return v.GetMediaURL() }

// ThumbURL returns the thumbnail URL of the post's media.
func (v View) ThumbURL() string {
	return imgsrv.ThumbURL(v.Filename())
}

// Placeholder returns the inline blurred image of the media, or an empty
// string if there is none.
func (v View) Placeholder() template.URL {
	s, err := unblur.InlinePost(v.Post)
	if err != nil {
		return ""
	}
	return template.URL(s)
}

type Config struct {
	// RootDirectory is checked for addpost.html first.
	RootDirectory string
	// UploadRateLimit is the number of posts per second per IP.
	UploadRateLimit float64
}

// Routes registers the post pages onto the given router.
func Routes(mux chi.Router, m handler.Middleware, cfg Config) {
	mux.Get("/", m.M(Index))
	mux.Get("/index.html", m.M(Index))
	mux.Get("/view", m.M(ViewPost))
	mux.Get("/view.html", m.M(ViewPost))

	addpost := ServeAddPost(cfg.RootDirectory)
	mux.Get("/addpost", addpost)
	mux.Get("/addpost.html", addpost)

	// POST but parse form before touching the store. Rejected submissions
	// still redirect home.
	mux.
		With(limit.RateLimit(cfg.UploadRateLimit, rejectPost)).
		With(preparseMultipart).
		Post("/addpost", m.M(AddPost))
}

// rejectPost logs why a submission was dropped and redirects to the index.
func rejectPost(w http.ResponseWriter, r *http.Request, err error) {
	log.Printf("Rejected post from %s: %v", r.RemoteAddr, err)
	http.Redirect(w, r, "/", http.StatusFound)
}

func preparseMultipart(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := form.ParseMultipart(r); err != nil {
			rejectPost(w, r, err)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// PageParams is the query of the index page.
type PageParams struct {
	Page int `schema:"page"`
}

type indexCtx struct {
	Page  smolpost.Page
	Pager pager.Pager
}

func Index(r handler.Request) (interface{}, error) {
	var p PageParams

	// Non-numeric pages are treated as the first page.
	if err := form.Unmarshal(r.Request, &p); err != nil {
		p.Page = 0
	}

	page, err := r.Store.Page(r.Context(), p.Page)
	if err != nil {
		return nil, errors.Wrap(err, "failed to get page")
	}

	return r.Page(render.Render{
		Description: r.Render.SiteName,
		Body: indexTmpl.Render(indexCtx{
			Page:  page,
			Pager: pager.Pager{Number: page.Number, Count: page.Count},
		}),
	}), nil
}

// ViewParams is the query of the view page.
type ViewParams struct {
	ID *int `schema:"id"`
}

func ViewPost(r handler.Request) (interface{}, error) {
	var p ViewParams

	if err := form.Unmarshal(r.Request, &p); err != nil || p.ID == nil {
		return r.Redirect("/"), nil
	}

	post, err := r.Store.Post(r.Context(), *p.ID)
	if err != nil {
		if errors.Is(err, smolpost.ErrPostNotFound) {
			return r.Redirect("/"), nil
		}
		return nil, errors.Wrap(err, "failed to get post")
	}

	v := View{Post: *post, Full: true}

	var image string
	if v.Type() == "image" {
		image = v.ThumbURL()
	}

	return r.Page(render.Render{
		Title:       post.Title,
		Description: post.Content,
		ImageURL:    image,
		Body:        viewTmpl.Render(v),
	}), nil
}

// ServeAddPost serves addpost.html from the root directory, or the built-in
// form if the root directory doesn't have one.
func ServeAddPost(root string) http.HandlerFunc {
	var modTime = time.Now()

	return func(w http.ResponseWriter, r *http.Request) {
		path := filepath.Join(root, "addpost.html")

		if root != "" {
			if _, err := os.Stat(path); err == nil {
				http.ServeFile(w, r, path)
				return
			}
		}

		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		http.ServeContent(w, r, "addpost.html", modTime, bytes.NewReader(addpostHTML))
	}
}

// PostParams is the form of a new post.
type PostParams struct {
	Title   string `schema:"title"`
	Content string `schema:"content"`
}

func AddPost(r handler.Request) (interface{}, error) {
	var p PostParams

	if err := form.Unmarshal(r.Request, &p); err != nil {
		log.Printf("Rejected post with an invalid form: %v", err)
		return r.Redirect("/"), nil
	}

	if p.Title == "" {
		return r.Redirect("/"), nil
	}

	post := smolpost.NewPost(p.Title, p.Content, 0, "")

	if header := mediaHeader(r); header != nil {
		m, err := r.Up.CreateMedia(r.Context(), header)
		if err != nil {
			// Unsupported or oversized media is dropped. Storage failures
			// still surface as errors.
			if code := httperr.ErrCode(err); code >= 400 && code < 500 {
				log.Printf("Rejected upload %q: %v", header.Filename, err)
				return r.Redirect("/"), nil
			}

			return nil, err
		}

		post.SetMediaURL(m.URL)
		post.Attributes = m.Attributes

	} else if p.Content == "" {
		return r.Redirect("/"), nil
	}

	if err := r.Store.MakePost(r.Context(), &post); err != nil {
		return nil, errors.Wrap(err, "failed to make post")
	}

	log.Printf("New post %d: %q (media: %q)", post.ID, post.Title, post.GetMediaURL())

	return r.Redirect("/"), nil
}

func mediaHeader(r handler.Request) *multipart.FileHeader {
	if r.MultipartForm == nil {
		return nil
	}

	files := r.MultipartForm.File[MediaField]
	if len(files) == 0 || files[0].Filename == "" {
		return nil
	}

	return files[0]
}
