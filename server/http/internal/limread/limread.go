// Package limread provides readers that error out once a size limit is
// exceeded.
package limread

import (
	"bufio"
	"fmt"
	"io"
	"net/http"

	"github.com/c2h5oh/datasize"
	"github.com/diamondburned/smolpost/server/http/internal/middleware"
)

// BufSz is the buffer size for each request body.
const BufSz = int(256 * datasize.KB)

type ErrFileTooLarge struct {
	Max   int64
	CType string
}

func (err ErrFileTooLarge) StatusCode() int {
	return http.StatusRequestEntityTooLarge
}

func (err ErrFileTooLarge) Error() string {
	var str = fmt.Sprintf(
		"file too large, maximum size allowed is %s",
		datasize.ByteSize(err.Max).HumanReadable(),
	)

	if err.CType != "" {
		str += " for type " + err.CType
	}

	return str
}

// LimitBody limits the size of all request bodies.
func LimitBody(size datasize.ByteSize) middleware.F {
	return middleware.P(func(w http.ResponseWriter, r *http.Request) bool {
		r.Body = newReadCloser(
			NewLimitedReader(
				bufio.NewReaderSize(r.Body, BufSz),
				int64(size.Bytes()),
			),
			r.Body,
		)
		return true
	})
}

type readCloser struct {
	io.Reader
	io.Closer
}

func newReadCloser(r io.Reader, c io.Closer) readCloser {
	return readCloser{r, c}
}

type LimitedReader struct {
	reader io.LimitedReader
	Bytes  int64
	CType  string
}

type LimitedReaderer interface {
	io.Reader
	io.WriterTo
}

var (
	_ LimitedReaderer = (*bufio.Reader)(nil)
	_ LimitedReaderer = (*LimitedReader)(nil)
)

// NewLimitedReader wraps r so that reading more than max bytes returns
// ErrFileTooLarge.
func NewLimitedReader(r LimitedReaderer, max int64) *LimitedReader {
	return &LimitedReader{
		reader: io.LimitedReader{R: r, N: max + 1},
		Bytes:  max,
	}
}

func (r *LimitedReader) Read(b []byte) (int, error) {
	n, err := r.reader.Read(b)

	if r.reader.N <= 0 {
		return n, ErrFileTooLarge{Max: r.Bytes, CType: r.CType}
	}

	return n, err
}

// WriteTo copies at most max+1 bytes into w.
func (r *LimitedReader) WriteTo(w io.Writer) (int64, error) {
	n, err := io.Copy(w, &r.reader)

	if r.reader.N <= 0 {
		return n, ErrFileTooLarge{Max: r.Bytes, CType: r.CType}
	}

	return n, err
}
