// Package form decodes query strings and form bodies into structs.
package form

import (
	"net/http"

	"github.com/c2h5oh/datasize"
	"github.com/gorilla/schema"
	"github.com/pkg/errors"
)

// MaxMemory is the maximum number of bytes of a multipart form kept in memory.
// The rest is stored in temporary files.
const MaxMemory = int64(2 * datasize.MB)

var decoder = func() *schema.Decoder {
	d := schema.NewDecoder()
	d.IgnoreUnknownKeys(true)
	return d
}()

// Unmarshal decodes the form in the given request into the interface.
func Unmarshal(r *http.Request, v interface{}) error {
	// Prioritize multipart.
	if err := r.ParseMultipartForm(MaxMemory); err == nil && r.MultipartForm != nil {
		return decoder.Decode(v, r.MultipartForm.Value)
	}

	if err := r.ParseForm(); err != nil {
		return errors.Wrap(err, "Failed to parse form")
	}

	switch r.Method {
	case http.MethodPatch, http.MethodPost, http.MethodPut:
		return decoder.Decode(v, r.PostForm)
	default:
		return decoder.Decode(v, r.Form)
	}
}

// ParseMultipart parses the request's multipart form. Requests that aren't
// multipart are parsed as normal forms.
func ParseMultipart(r *http.Request) error {
	err := r.ParseMultipartForm(MaxMemory)
	if err == nil || errors.Is(err, http.ErrNotMultipart) {
		return nil
	}
	return errors.Wrap(err, "Failed to parse form")
}
