package client

import (
	"bytes"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/diamondburned/smolpost/smolpost"
	"github.com/pkg/errors"
)

// Posts returns the given page from the JSON API.
func (c *Client) Posts(page int) (p smolpost.Page, err error) {
	return p, c.Get("/api/posts", &p, url.Values{
		"page": {strconv.Itoa(page)},
	})
}

// Post returns a single post from the JSON API.
func (c *Client) Post(id int) (p smolpost.Post, err error) {
	return p, c.Get("/api/posts/"+strconv.Itoa(id), &p, nil)
}

// MediaURL returns the absolute URL of the post's media, or an empty string.
func (c *Client) MediaURL(p smolpost.Post) string {
	if u := p.GetMediaURL(); u != "" {
		return c.Endpoint(u)
	}
	return ""
}

// Media is an attached file of a new post.
type Media struct {
	Name string
	// Type is the declared content type. It is guessed from the name if
	// empty.
	Type   string
	Reader io.Reader
}

// NewPost is the form of a new post.
type NewPost struct {
	Title   string
	Content string
	Media   *Media
}

var quoteEscaper = strings.NewReplacer("\\", "\\\\", `"`, "\\\"")

// AddPost submits the post through the /addpost form. The server always
// redirects, so a nil error does not mean the post was created.
func (c *Client) AddPost(post NewPost) error {
	var body bytes.Buffer
	var w = multipart.NewWriter(&body)

	if err := w.WriteField("title", post.Title); err != nil {
		return errors.Wrap(err, "failed to write title")
	}
	if err := w.WriteField("content", post.Content); err != nil {
		return errors.Wrap(err, "failed to write content")
	}

	if m := post.Media; m != nil {
		ctype := m.Type
		if ctype == "" {
			ctype = mime.TypeByExtension(filepath.Ext(m.Name))
		}
		if ctype == "" {
			ctype = "application/octet-stream"
		}

		h := textproto.MIMEHeader{}
		h.Set("Content-Disposition", fmt.Sprintf(
			`form-data; name="media"; filename="%s"`, quoteEscaper.Replace(m.Name),
		))
		h.Set("Content-Type", ctype)

		part, err := w.CreatePart(h)
		if err != nil {
			return errors.Wrap(err, "failed to create media part")
		}

		if _, err := io.Copy(part, m.Reader); err != nil {
			return errors.Wrap(err, "failed to copy media")
		}
	}

	if err := w.Close(); err != nil {
		return errors.Wrap(err, "failed to finish form")
	}

	r, err := http.NewRequest("POST", c.Endpoint("/addpost"), &body)
	if err != nil {
		return errors.Wrap(err, "failed to create request")
	}
	r.Header.Set("Content-Type", w.FormDataContentType())

	q, err := c.Do(r)
	if err != nil {
		return err
	}
	q.Body.Close()

	return nil
}
