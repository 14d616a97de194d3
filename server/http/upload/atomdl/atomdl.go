// Package atomdl provides helper functions to allow atomic, content-addressed
// file downloads.
package atomdl

import (
	"crypto/sha256"
	"encoding/hex"
	"io"
	"os"
	"path/filepath"

	"github.com/bwmarrin/snowflake"
	"github.com/pkg/errors"
)

var tmpIDGen = func() *snowflake.Node {
	n, err := snowflake.NewNode(0)
	if err != nil {
		panic(err)
	}
	return n
}()

// File describes a downloaded file.
type File struct {
	Name   string // <digest>.<ext>
	Digest string // SHA-224 hex digest
	Size   int64
}

// Download copies r into dir, naming the file after the SHA-224 digest of its
// content followed by the given extension. The file is first written to a
// uniquely named temporary file, so concurrent downloads of the same content
// never observe a partially written file.
func Download(r io.Reader, dir, ext string) (File, error) {
	t, f, err := download(r, dir, ext)
	if err != nil {
		os.Remove(t)
	}
	return f, err
}

func download(r io.Reader, dir, ext string) (tmpname string, f File, err error) {
	tmpname = filepath.Join(dir, "."+tmpIDGen.Generate().String()+".tmp")

	w, err := os.Create(tmpname)
	if err != nil {
		return tmpname, f, errors.Wrap(err, "Failed to create file in directory")
	}
	defer w.Close()

	h := sha256.New224()

	f.Size, err = io.Copy(io.MultiWriter(w, h), r)
	if err != nil {
		return tmpname, f, errors.Wrap(err, "Failed to save uploading file")
	}

	if err := w.Close(); err != nil {
		return tmpname, f, errors.Wrap(err, "Failed to flush uploading file")
	}

	f.Digest = hex.EncodeToString(h.Sum(nil))
	f.Name = Filename(f.Digest, ext)

	if err := os.Rename(tmpname, filepath.Join(dir, f.Name)); err != nil {
		return tmpname, f, errors.Wrap(err, "Failed to move file back")
	}

	// Already moved; no need to clean up.
	return tmpname, f, nil
}

// Filename joins the digest and the extension. An empty extension results in
// just the digest.
func Filename(digest, ext string) string {
	if ext == "" {
		return digest
	}
	return digest + "." + ext
}
