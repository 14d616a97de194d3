// Package upload implements the media store: uploaded files are stored once
// under the SHA-224 digest of their content.
package upload

import (
	"bufio"
	"context"
	"fmt"
	"image"
	"io"
	"log"
	"mime"
	"mime/multipart"
	"os"
	"path/filepath"
	"strings"

	"github.com/bbrks/go-blurhash"
	"github.com/c2h5oh/datasize"
	"github.com/diamondburned/smolpost/server/http/internal/limread"
	"github.com/diamondburned/smolpost/server/http/upload/atomdl"
	"github.com/diamondburned/smolpost/server/http/upload/ff"
	"github.com/diamondburned/smolpost/smolpost"
	"github.com/disintegration/imaging"
	"github.com/pkg/errors"
)

// BufSz is the buffer size for each upload. This is 1MB.
const BufSz = int(datasize.MB)

// URLPrefix is the path that media files are served under.
const URLPrefix = "/media/"

type UploadConfig struct {
	FileDirectory string            `toml:"fileDirectory"`
	MaxFileSize   datasize.ByteSize `toml:"maxFileSize"`
	// AllowedTypes contains either top-level types such as "image" or full
	// MIME types such as "image/png". Only image, video and audio types are
	// ever accepted.
	AllowedTypes []string `toml:"allowedTypes"`
	MaxSize      MaxSize
}

func NewConfig() UploadConfig {
	return UploadConfig{
		FileDirectory: "mediastorage",
		MaxFileSize:   500 * datasize.MB,
		AllowedTypes:  []string{"image", "video", "audio"},
	}
}

func (c *UploadConfig) Validate() error {
	if c.FileDirectory == "" {
		return errors.New("missing `fileDirectory' value")
	}

	s, err := os.Stat(c.FileDirectory)
	if err == nil {
		if !s.IsDir() {
			return fmt.Errorf("fileDirectory %q is not a directory", c.FileDirectory)
		}
	} else {
		if err := os.MkdirAll(c.FileDirectory, os.ModePerm|os.ModeDir); err != nil {
			return errors.Wrap(err, "Failed to create fileDirectory")
		}
	}

	return nil
}

// ContentTypeAllowed returns true if the given declared content type may be
// uploaded.
func (c UploadConfig) ContentTypeAllowed(ctype string) bool {
	if smolpost.MediaTypeFromMIME(ctype) == smolpost.MediaNone {
		return false
	}

	// Bare types such as "image" don't parse; use them as they are.
	t, _, err := mime.ParseMediaType(ctype)
	if err != nil {
		t = strings.ToLower(strings.TrimSpace(ctype))
	}

	top := strings.SplitN(t, "/", 2)[0]

	for _, allowed := range c.AllowedTypes {
		allowed = strings.ToLower(allowed)

		if strings.Contains(allowed, "/") {
			if allowed == t {
				return true
			}
			continue
		}

		if allowed == top {
			return true
		}
	}

	return false
}

// Extension returns everything after the last dot of the filename. A filename
// without a dot is returned as-is.
func Extension(filename string) string {
	return filename[strings.LastIndexByte(filename, '.')+1:]
}

// SanitizeExtension drops every character that is not an ASCII letter, digit,
// dash or underscore, so the extension can never escape the media directory.
func SanitizeExtension(ext string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case 'a' <= r && r <= 'z', 'A' <= r && r <= 'Z', '0' <= r && r <= '9':
			return r
		case r == '-' || r == '_':
			return r
		default:
			return -1
		}
	}, ext)
}

// URL returns the public URL of the stored file.
func URL(name string) string {
	return URLPrefix + name
}

// Media is a stored media file.
type Media struct {
	URL        string
	Name       string
	Size       int64
	Attributes smolpost.PostAttribute
}

// Store writes the content of r into the media directory and returns the
// public URL. Storing the same content with the same extension twice results
// in the same URL.
func (c UploadConfig) Store(r io.Reader, filename string) (*Media, error) {
	ext := SanitizeExtension(Extension(filename))

	f, err := atomdl.Download(r, c.FileDirectory, ext)
	if err != nil {
		return nil, errors.Wrap(err, "Failed to store file")
	}

	return &Media{
		URL:  URL(f.Name),
		Name: f.Name,
		Size: f.Size,
	}, nil
}

// CreateMedia validates the uploaded file's declared content type and size,
// then stores it.
func (c UploadConfig) CreateMedia(ctx context.Context, header *multipart.FileHeader) (*Media, error) {
	ctype := header.Header.Get("Content-Type")

	// Fast path.
	if !c.ContentTypeAllowed(ctype) {
		return nil, smolpost.ErrUnsupportedType{ContentType: ctype}
	}

	var lim = c.MaxFileSize
	if l := c.MaxSize.SizeLimit(ctype); l > 0 {
		lim = l
	}

	// Fast path.
	if header.Size > int64(lim) {
		return nil, limread.ErrFileTooLarge{Max: int64(lim), CType: ctype}
	}

	// Open the temporary file to read from.
	f, err := header.Open()
	if err != nil {
		return nil, errors.Wrap(err, "Failed to open file header")
	}
	defer f.Close()

	lr := limread.NewLimitedReader(bufio.NewReaderSize(f, BufSz), int64(lim))
	lr.CType = ctype

	m, err := c.Store(lr, header.Filename)
	if err != nil {
		return nil, err
	}

	m.Attributes = c.Attributes(ctx, m.Name)
	return m, nil
}

// Attributes computes the dimensions and the blurhash of a stored image or
// video. The attributes are optional, so failures only get logged.
func (c UploadConfig) Attributes(ctx context.Context, name string) (attrs smolpost.PostAttribute) {
	var path = filepath.Join(c.FileDirectory, name)

	switch smolpost.MediaTypeFromURL(name) {
	case smolpost.MediaImage:
		i, err := imaging.Open(path, imaging.AutoOrientation(true))
		if err != nil {
			log.Printf("Failed to decode image %q: %v", name, err)
			return
		}

		bounds := i.Bounds()
		attrs.Width = bounds.Dx()
		attrs.Height = bounds.Dy()
		attrs.Blurhash = hash(i)

	case smolpost.MediaVideo:
		s, err := ff.ProbeSize(ctx, path)
		if err != nil {
			if !errors.Is(err, ff.ErrUnavailable) {
				log.Printf("Failed to probe video %q: %v", name, err)
			}
			return
		}

		attrs.Width = s.Width
		attrs.Height = s.Height

		i, err := ff.FirstFrame(ctx, path, 50, 50, ff.NeighborScaler)
		if err == nil {
			attrs.Blurhash = hash(i)
		}
	}

	return
}

func hash(i image.Image) string {
	// Resize the image using a rough algorithm.
	small := imaging.Fit(i, 50, 50, imaging.Box)

	h, err := blurhash.Encode(4, 3, small)
	if err != nil {
		return ""
	}

	return h
}
