// Package unblur renders blurhashes into inline JPEG data URLs.
package unblur

import (
	"bytes"
	"encoding/base64"
	"image"
	"image/jpeg"

	"github.com/bbrks/go-blurhash"
	"github.com/diamondburned/smolpost/server/httperr"
	"github.com/diamondburned/smolpost/smolpost"
	"github.com/pkg/errors"
)

const ThumbSize = 45
const Prefix = "data:image/jpeg;base64,"

var ErrHashUnavailable = httperr.New(404, "hash not available")

// InlinePost returns the placeholder of the post's media.
func InlinePost(p smolpost.Post) (string, error) {
	a := p.Attributes
	if a.Blurhash == "" || a.Height == 0 || a.Width == 0 {
		return "", ErrHashUnavailable
	}

	return InlineJPEG(a.Blurhash, a.Width, a.Height)
}

var JPEGOptions = &jpeg.Options{
	Quality: 65,
}

func InlineJPEG(hash string, w, h int) (string, error) {
	w, h = MaxSize(w, h, ThumbSize, ThumbSize)

	var rgba = image.NewRGBA(image.Rect(0, 0, w, h))

	if err := blurhash.DecodeDraw(rgba, hash, 1); err != nil {
		return "", errors.Wrap(err, "failed to decode blurhash")
	}

	var b bytes.Buffer

	if err := jpeg.Encode(&b, rgba, JPEGOptions); err != nil {
		return "", errors.Wrap(err, "failed to encode JPEG")
	}

	return Prefix + base64.StdEncoding.EncodeToString(b.Bytes()), nil
}

// MaxSize scales w and h down to fit within maxW and maxH while keeping the
// aspect ratio.
func MaxSize(w, h, maxW, maxH int) (int, int) {
	if w < maxW && h < maxH {
		return w, h
	}

	if w > h {
		h = h * maxW / w
		w = maxW
	} else {
		w = w * maxH / h
		h = maxH
	}

	if w < 1 {
		w = 1
	}
	if h < 1 {
		h = 1
	}

	return w, h
}
