// Package render renders HTML pages inside the site layout.
package render

import (
	"bytes"
	_ "embed"
	"html/template"
	"log"
	"net/http"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/diamondburned/smolpost/server/httperr"
)

var (
	//go:embed index.html
	indexHTML string
	//go:embed errorpage.html
	errorpageHTML string
	//go:embed style.css
	styleCSS string
)

var index = template.Must(template.New("index").Parse(indexHTML))

// CSSPath is the path of the global stylesheet.
const CSSPath = "/static/components.css"

type Render struct {
	Title       string // og:title, <title>
	Description string // og:description
	ImageURL    string // og:image

	Body template.HTML
}

// Empty is a blank page.
var Empty = Render{}

type Config struct {
	SiteName string `toml:"siteName"`
}

func NewConfig() Config {
	return Config{
		SiteName: "smolpost",
	}
}

func (c *Config) Validate() error {
	if c.SiteName == "" {
		c.SiteName = "smolpost"
	}
	return nil
}

type renderCtx struct {
	Render  Render
	Config  Config
	CSSPath string
}

func (r renderCtx) FormatTitle() string {
	if r.Render.Title == "" {
		return r.Config.SiteName
	}
	return r.Render.Title + " - " + r.Config.SiteName
}

// Write writes the page inside the layout with the given status code.
func (c Config) Write(w http.ResponseWriter, code int, page Render) {
	var b bytes.Buffer

	err := index.Execute(&b, renderCtx{
		Render:  page,
		Config:  c,
		CSSPath: CSSPath,
	})
	if err != nil {
		log.Println("Failed to render layout:", err)
		w.WriteHeader(http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(code)
	w.Write(b.Bytes())
}

var errorTmpl = BuildPage("errorpage", Page{
	Template: errorpageHTML,
})

type errorCtx struct {
	Code   int
	Status string
	Errors [][]string
}

// WriteError renders the error page with the error's status code.
func (c Config) WriteError(w http.ResponseWriter, r *http.Request, err error) {
	code := httperr.ErrCode(err)
	if code >= 500 {
		log.Printf("Error serving %s %s: %v", r.Method, r.URL.Path, err)
	}

	c.Write(w, code, Render{
		Title: http.StatusText(code),
		Body: errorTmpl.Render(errorCtx{
			Code:   code,
			Status: http.StatusText(code),
			Errors: errorLines(err),
		}),
	})
}

// errorLines splits the error into lines of capitalized parts.
func errorLines(err error) [][]string {
	var lines = strings.Split(err.Error(), "\n")
	var errors = make([][]string, len(lines))

	for i, line := range lines {
		var parts = strings.SplitAfter(line, ": ")

		// Capitalize every single error's first letter.
		for i, err := range parts {
			f, sze := utf8.DecodeRuneInString(err)
			if sze > 0 {
				f = unicode.ToUpper(f)
				parts[i] = string(f) + err[sze:]
			}

			// Append a period at the end for formality.
			if i == len(parts)-1 {
				parts[i] += "."
			}
		}

		errors[i] = parts
	}

	return errors
}

// ServeCSS serves the minified global stylesheet.
func ServeCSS(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/css; charset=utf-8")
	http.ServeContent(w, r, "components.css", cssModTime, bytes.NewReader(componentsCSS()))
}
