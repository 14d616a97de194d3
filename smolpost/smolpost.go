package smolpost

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"mime"
	"path"
	"strings"

	"github.com/diamondburned/smolpost/server/httperr"
	"github.com/pkg/errors"
)

// PageSize is the number of posts in a single page.
const PageSize = 50

// PageCount returns the index of the last page for the given number of posts.
// This is floor(n / PageSize), meaning that a store with exactly PageSize posts
// has a trailing empty page.
func PageCount(n int) int {
	return n / PageSize
}

// MediaType is the generic category of a post's media.
type MediaType uint8

const (
	// MediaNone is the zero-value, which indicates no media or media of an
	// unknown type.
	MediaNone MediaType = iota
	MediaImage
	MediaVideo
	MediaAudio
)

func (t MediaType) String() string {
	switch t {
	case MediaImage:
		return "image"
	case MediaVideo:
		return "video"
	case MediaAudio:
		return "audio"
	default:
		return "none"
	}
}

// MediaTypeFromMIME returns the media type of the given MIME type's top-level
// category, such as "image" in "image/png". Parameters are ignored.
func MediaTypeFromMIME(ctype string) MediaType {
	if t, _, err := mime.ParseMediaType(ctype); err == nil {
		ctype = t
	}

	switch parts := strings.SplitN(ctype, "/", 2); strings.ToLower(parts[0]) {
	case "image":
		return MediaImage
	case "video":
		return MediaVideo
	case "audio":
		return MediaAudio
	default:
		return MediaNone
	}
}

// MediaTypeFromURL guesses the media type from the URL's file extension.
func MediaTypeFromURL(url string) MediaType {
	if url == "" {
		return MediaNone
	}

	ext := path.Ext(url)
	if ext == "" {
		return MediaNone
	}

	ctype := mime.TypeByExtension(ext)
	if ctype == "" {
		return MediaNone
	}

	return MediaTypeFromMIME(ctype)
}

// PostAttribute contains optional media attributes that are computed once on
// upload. It is not a part of the post's JSON representation.
type PostAttribute struct {
	Width    int    `json:"w,omitempty"`
	Height   int    `json:"h,omitempty"`
	Blurhash string `json:"blurhash,omitempty"`
}

func (a *PostAttribute) Scan(v interface{}) error {
	if v == nil {
		return nil
	}

	switch v := v.(type) {
	case []byte:
		return json.Unmarshal(v, a)
	case string:
		return json.Unmarshal([]byte(v), a)
	}

	return fmt.Errorf("Failed to scan %#v: unexpected type", v)
}

func (a PostAttribute) Value() (driver.Value, error) {
	return json.Marshal(a)
}

// IsZero returns true if the attribute has no usable dimensions.
func (a PostAttribute) IsZero() bool {
	return a.Width == 0 || a.Height == 0
}

// Post is a single user submission. The field order matches the JSON
// representation.
type Post struct {
	Title      string        `json:"title"     db:"title"`
	Content    string        `json:"content"   db:"content"`
	ID         int           `json:"id"        db:"id"`
	MediaURL   *string       `json:"media_url" db:"mediaurl"`
	Attributes PostAttribute `json:"-"         db:"attributes"`
}

var (
	ErrPostNotFound    = httperr.New(404, "post not found")
	ErrPageNotFound    = httperr.New(404, "the requested page could not be found")
	ErrMissingTitle    = httperr.New(400, "missing title")
	ErrEmptyPost       = httperr.New(400, "post has neither content nor media")
	ErrMissingFilename = httperr.New(400, "media has no filename")
	ErrFileTooLarge    = httperr.New(413, "file too large")
)

// ErrUnsupportedType is returned when the media's declared content type is not
// allowed.
type ErrUnsupportedType struct {
	ContentType string
}

func (err ErrUnsupportedType) StatusCode() int {
	return 415
}

func (err ErrUnsupportedType) Error() string {
	return "unsupported file type " + err.ContentType
}

// NewPost creates a new post. An empty mediaURL means the post has no media.
func NewPost(title, content string, id int, mediaURL string) Post {
	p := Post{
		Title:   title,
		Content: content,
		ID:      id,
	}

	if mediaURL != "" {
		p.SetMediaURL(mediaURL)
	}

	return p
}

// FromJSON parses a post from its JSON representation.
func FromJSON(b []byte) (Post, error) {
	var p Post

	if err := json.Unmarshal(b, &p); err != nil {
		return p, errors.Wrap(err, "Failed to decode post")
	}

	return p, nil
}

func (p *Post) SetMediaURL(url string) {
	cpy := url
	p.MediaURL = &cpy
}

func (p Post) GetMediaURL() string {
	if p.MediaURL == nil {
		return ""
	}
	return *p.MediaURL
}

// MediaType returns the media type derived from the media URL's extension.
func (p Post) MediaType() MediaType {
	return MediaTypeFromURL(p.GetMediaURL())
}

// Filename returns the base name of the stored media file, or an empty string
// if the post has no media.
func (p Post) Filename() string {
	if u := p.GetMediaURL(); u != "" {
		return path.Base(u)
	}
	return ""
}

// JSON returns the JSON representation of the post.
func (p Post) JSON() string {
	b, err := json.Marshal(p)
	if err != nil {
		// Only strings, an int and a string pointer; this never fails.
		panic(err)
	}
	return string(b)
}

func (p Post) String() string {
	return p.JSON()
}

// Equal returns true if both posts have the same JSON representation.
func (p Post) Equal(other Post) bool {
	return p.JSON() == other.JSON()
}

// Page is a single page of posts.
type Page struct {
	Posts []Post `json:"posts"`
	// Number is the page that was actually returned, which is 0 if the
	// requested page is out of bounds.
	Number int `json:"page"`
	// Count is the index of the last page, which is floor(Total / PageSize).
	Count int `json:"page_count"`
	// Total is the number of posts in the store.
	Total int `json:"total"`
}

// ErrResponse is the JSON body of an API error.
type ErrResponse struct {
	Error string `json:"error"`
}
