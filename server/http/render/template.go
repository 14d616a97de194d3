package render

import (
	"bytes"
	"fmt"
	"html/template"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/kyokomi/emoji"
	"github.com/tdewolff/minify"
	"github.com/tdewolff/minify/css"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	gmhtml "github.com/yuin/goldmark/renderer/html"
)

// runtime minifier
var minifier = func() (minifier *minify.M) {
	minifier = minify.New()
	minifier.AddFunc("text/css", css.Minify)
	return
}()

// markdown renders post contents. Contents are escaped beforehand, so raw HTML
// never reaches the renderer.
var markdown = goldmark.New(
	goldmark.WithExtensions(extension.GFM),
	goldmark.WithRendererOptions(gmhtml.WithHardWraps()),
)

// htmlEscaper escapes what could start raw HTML or an entity. '>' is left
// alone for blockquotes.
var htmlEscaper = strings.NewReplacer("&", "&amp;", "<", "&lt;")

// Content renders the post content as Markdown with emoji shortcodes. Literal
// tags in the content are kept as text.
func Content(content string) template.HTML {
	var b bytes.Buffer

	src := htmlEscaper.Replace(emoji.Sprint(content))

	if err := markdown.Convert([]byte(src), &b); err != nil {
		log.Println("Markdown error:", err)
		return template.HTML("<p>" + template.HTMLEscapeString(content) + "</p>")
	}

	return template.HTML(b.String())
}

var globalFns = template.FuncMap{
	"content": Content,
	"humanizeSize": func(bytes int64) string {
		return humanize.Bytes(uint64(bytes))
	},
	"humanizeNumber": func(number int) string {
		return humanize.Comma(int64(number))
	},
	"humanizeTime": func(t time.Time) string {
		return humanize.Time(t)
	},
	"dec": func(i int) int { return i - 1 },
	"inc": func(i int) int { return i + 1 },
}

type Component struct {
	Template   string
	Components map[string]Component
	Functions  template.FuncMap
}

type Page struct {
	Template   string
	Components map[string]Component
	Functions  template.FuncMap
}

// BuildPage creates a lazily parsed page template. The template is parsed on
// its first render.
func BuildPage(n string, p Page) *Template {
	return &Template{
		name: n,
		page: p,
	}
}

type Template struct {
	*template.Template
	name string
	page Page
	once sync.Once
}

func (t *Template) prepare() {
	t.once.Do(t.do)
}

func (t *Template) do() {
	var components = map[string]Component{}
	var functions = template.FuncMap{}

	// Flatten all nested components.
	for n, component := range t.page.Components {
		components[n] = component
		for n, nested := range component.Components {
			components[n] = nested
		}
	}

	// Combine all functions; the page's functions take priority.
	for _, component := range components {
		for n, fn := range component.Functions {
			functions[n] = fn
		}
	}
	for n, fn := range t.page.Functions {
		functions[n] = fn
	}

	tmpl := template.New(t.name)
	tmpl = tmpl.Funcs(globalFns)
	tmpl = tmpl.Funcs(functions)
	tmpl = template.Must(tmpl.Parse(t.page.Template))

	// Parse all components' HTMLs.
	for n, component := range components {
		tmpl = template.Must(tmpl.Parse(
			fmt.Sprintf("{{ define %q }}%s{{ end }}", n, component.Template),
		))
	}

	t.Template = tmpl
}

// Render renders the template with the given argument into HTML.
func (t *Template) Render(v interface{}) template.HTML {
	t.prepare()

	var b bytes.Buffer

	if err := t.Execute(&b, v); err != nil {
		log.Printf("Template %q error: %v", t.name, err)
		return template.HTML("<p>Failed to render page.</p>")
	}

	return template.HTML(b.String())
}

var (
	cssMutex    sync.Mutex
	cssSources  = []string{styleCSS}
	cssOnce     sync.Once
	cssMinified []byte
	cssModTime  = time.Now()
)

// RegisterCSS adds the CSS into the global stylesheet served at
// /static/components.css. It must be called during init.
func RegisterCSS(src string) {
	cssMutex.Lock()
	cssSources = append(cssSources, src)
	cssMutex.Unlock()
}

func componentsCSS() []byte {
	cssOnce.Do(func() {
		cssMutex.Lock()
		defer cssMutex.Unlock()

		src := strings.Join(cssSources, "\n")

		b, err := minifier.Bytes("text/css", []byte(src))
		if err != nil {
			log.Println("Failed to minify CSS:", err)
			b = []byte(src)
		}

		cssMinified = b
	})

	return cssMinified
}
