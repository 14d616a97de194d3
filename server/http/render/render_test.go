package render

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/diamondburned/smolpost/server/httperr"
	"github.com/go-test/deep"
	"github.com/pkg/errors"
)

func TestErrorLines(t *testing.T) {
	err := errors.Wrap(errors.New("disk full"), "failed to store")

	lines := errorLines(err)
	expect := [][]string{{"Failed to store: ", "Disk full."}}

	if eq := deep.Equal(lines, expect); eq != nil {
		t.Fatal("Unexpected lines:", eq)
	}
}

func TestContent(t *testing.T) {
	var tests = []struct {
		name   string
		in     string
		expect string
	}{
		{"paragraph", "World", "<p>World</p>\n"},
		{"emphasis", "*hi*", "<p><em>hi</em></p>\n"},
		{"escaped", "<script>alert(1)</script>", "&lt;script&gt;alert(1)&lt;/script&gt;"},
		{"inline tag", "use <b> for bold", "<p>use &lt;b&gt; for bold</p>"},
		{"ampersand", "fish &amp; chips", "fish &amp;amp; chips"},
		{"blockquote", "> quoted", "<blockquote>\n<p>quoted</p>\n</blockquote>"},
		{"emoji", ":thumbsup:", "👍"},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			out := string(Content(test.in))
			if !strings.Contains(out, test.expect) {
				t.Fatalf("Expected %q in %q", test.expect, out)
			}
		})
	}
}

func TestWrite(t *testing.T) {
	cfg := NewConfig()
	w := httptest.NewRecorder()

	cfg.Write(w, http.StatusOK, Render{
		Title: "Hello",
		Body:  "<p id=\"body\">World</p>",
	})

	if w.Code != http.StatusOK {
		t.Fatal("Unexpected status:", w.Code)
	}

	doc, err := goquery.NewDocumentFromReader(w.Body)
	if err != nil {
		t.Fatal("Failed to parse HTML:", err)
	}

	if title := doc.Find("title").Text(); title != "Hello - smolpost" {
		t.Fatalf("Unexpected title: %q", title)
	}

	if body := doc.Find("#body").Text(); body != "World" {
		t.Fatalf("Unexpected body: %q", body)
	}
}

func TestWriteError(t *testing.T) {
	cfg := NewConfig()
	w := httptest.NewRecorder()
	r := httptest.NewRequest("GET", "/nothing", nil)

	cfg.WriteError(w, r, httperr.New(404, "the requested page could not be found"))

	if w.Code != http.StatusNotFound {
		t.Fatal("Unexpected status:", w.Code)
	}

	doc, err := goquery.NewDocumentFromReader(w.Body)
	if err != nil {
		t.Fatal("Failed to parse HTML:", err)
	}

	line := doc.Find(".error-line").Text()
	if line != "The requested page could not be found." {
		t.Fatalf("Unexpected error line: %q", line)
	}
}

func TestServeCSS(t *testing.T) {
	w := httptest.NewRecorder()
	ServeCSS(w, httptest.NewRequest("GET", CSSPath, nil))

	if ct := w.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/css") {
		t.Fatal("Unexpected Content-Type:", ct)
	}

	if !strings.Contains(w.Body.String(), ".nav") {
		t.Fatal("Missing layout CSS")
	}
}
