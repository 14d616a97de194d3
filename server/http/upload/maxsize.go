package upload

import (
	"strings"

	"github.com/c2h5oh/datasize"
	"github.com/pkg/errors"
)

// MaxSize contains a list of size overrides keyed by a partial content type,
// such as "video" or "image/gif". A zero-value instance is a valid instance.
type MaxSize struct {
	vals map[string]datasize.ByteSize
	keys []string
}

func (c *MaxSize) UnmarshalTOML(v interface{}) error {
	mp, ok := v.(map[string]interface{})
	if !ok {
		return errors.New("invalid TOML type; should be key-value map")
	}

	for k, v := range mp {
		sr, ok := v.(string)
		if !ok {
			return errors.New("invalid TOML type; should be string")
		}

		if err := c.Set(k, sr); err != nil {
			return errors.Wrapf(err, "invalid size for %q", k)
		}
	}

	return nil
}

// Set parses and sets the size limit for the given partial content type.
func (c *MaxSize) Set(ctype, size string) error {
	var b datasize.ByteSize
	if err := b.UnmarshalText([]byte(size)); err != nil {
		return err
	}

	if c.vals == nil {
		c.vals = make(map[string]datasize.ByteSize, 1)
	}

	if _, ok := c.vals[ctype]; !ok {
		c.keys = append(c.keys, ctype)
	}

	c.vals[ctype] = b
	return nil
}

// SizeLimit returns the size limit for the content type, or 0 if there is no
// override. The longest matching key wins.
func (c MaxSize) SizeLimit(ctype string) (bytes datasize.ByteSize) {
	var matched string

	for _, cfgtype := range c.keys {
		if strings.Contains(ctype, cfgtype) && len(cfgtype) >= len(matched) {
			matched = cfgtype
			bytes = c.vals[cfgtype]
		}
	}

	return
}
