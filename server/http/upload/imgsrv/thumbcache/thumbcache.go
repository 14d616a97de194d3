// Package thumbcache caches rendered thumbnails on disk with a small in-memory
// layer on top.
package thumbcache

import (
	"io"
	"os"
	"path/filepath"

	"github.com/c2h5oh/datasize"
	"github.com/peterbourgon/diskv"
)

// DefaultPath is the cache directory used when none is configured.
var DefaultPath = filepath.Join(os.TempDir(), "smolpost-thumbs")

type Cache struct {
	disk *diskv.Diskv
}

// New creates a cache in the given directory. An empty string uses
// DefaultPath.
func New(dir string) *Cache {
	if dir == "" {
		dir = DefaultPath
	}

	return &Cache{
		disk: diskv.New(diskv.Options{
			BasePath: dir,
			Transform: func(s string) []string {
				return nil
			},
			// 4MB cache in memory strictly.
			CacheSizeMax: uint64(4 * datasize.MB),
		}),
	}
}

func (c *Cache) Get(name string) ([]byte, error) {
	b, err := c.disk.Read(name)
	if err != nil {
		return nil, err
	}

	if len(b) == 0 {
		return nil, io.ErrUnexpectedEOF
	}

	return b, nil
}

func (c *Cache) Put(name string, b []byte) error {
	return c.disk.Write(name, b)
}

func (c *Cache) Delete(name string) error {
	return c.disk.Erase(name)
}
