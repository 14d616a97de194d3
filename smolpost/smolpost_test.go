package smolpost

import (
	"testing"

	"github.com/go-test/deep"
)

func TestMediaType(t *testing.T) {
	var tests = []struct {
		url  string
		kind MediaType
	}{
		{"", MediaNone},
		{"/media/abc", MediaNone},
		{"/media/abc.png", MediaImage},
		{"/media/abc.JPG", MediaImage},
		{"/media/abc.webm", MediaVideo},
		{"/media/abc.mp4", MediaVideo},
		{"/media/abc.mp3", MediaAudio},
		{"/media/abc.flac", MediaAudio},
		{"/media/abc.txt", MediaNone},
		{"/media/abc.pdf", MediaNone},
		{"/media/abc.notanextension", MediaNone},
	}

	for _, test := range tests {
		t.Run(test.url, func(t *testing.T) {
			if kind := MediaTypeFromURL(test.url); kind != test.kind {
				t.Fatalf("Unexpected media type %v, expected %v", kind, test.kind)
			}
		})
	}
}

func TestMediaTypeFromMIME(t *testing.T) {
	var tests = map[string]MediaType{
		"image/png":                MediaImage,
		"video/webm; codecs=vp9":   MediaVideo,
		"audio/ogg":                MediaAudio,
		"text/plain":               MediaNone,
		"text/plain; charset=utf8": MediaNone,
		"application/octet-stream": MediaNone,
		"":                         MediaNone,
		"image":                    MediaImage,
	}

	for ctype, kind := range tests {
		if got := MediaTypeFromMIME(ctype); got != kind {
			t.Errorf("MIME %q: unexpected media type %v, expected %v", ctype, got, kind)
		}
	}
}

func TestPostJSON(t *testing.T) {
	t.Run("NoMedia", func(t *testing.T) {
		p := NewPost("Hello", "World", 0, "")

		const expect = `{"title":"Hello","content":"World","id":0,"media_url":null}`
		if j := p.JSON(); j != expect {
			t.Fatalf("Unexpected JSON %s", j)
		}

		if p.MediaType() != MediaNone {
			t.Fatal("Unexpected media type:", p.MediaType())
		}
	})

	t.Run("Media", func(t *testing.T) {
		p := NewPost("Cat", "", 3, "/media/abcdef.png")
		p.Attributes = PostAttribute{Width: 10, Height: 20}

		const expect = `{"title":"Cat","content":"","id":3,"media_url":"/media/abcdef.png"}`
		if j := p.JSON(); j != expect {
			t.Fatalf("Unexpected JSON %s", j)
		}

		if name := p.Filename(); name != "abcdef.png" {
			t.Fatal("Unexpected filename:", name)
		}

		if p.MediaType() != MediaImage {
			t.Fatal("Unexpected media type:", p.MediaType())
		}
	})

	t.Run("FromJSON", func(t *testing.T) {
		p := NewPost("Song", "la la", 7, "/media/123.mp3")

		q, err := FromJSON([]byte(p.JSON()))
		if err != nil {
			t.Fatal("Failed to parse JSON:", err)
		}

		if eq := deep.Equal(p, q); eq != nil {
			t.Fatal("Post mismatch:", eq)
		}
	})

	t.Run("FromInvalidJSON", func(t *testing.T) {
		if _, err := FromJSON([]byte(`{"title":`)); err == nil {
			t.Fatal("Unexpected nil error")
		}
	})
}

func TestPostEqual(t *testing.T) {
	a := NewPost("a", "b", 1, "/media/x.png")
	b := NewPost("a", "b", 1, "/media/x.png")

	// Attributes are not a part of the representation.
	b.Attributes.Blurhash = "LKO2?U%2Tw=w]~RBVZRi};RPxuwH"

	if !a.Equal(b) {
		t.Fatal("Posts with the same representation are not equal")
	}

	if a.Equal(NewPost("a", "b", 2, "/media/x.png")) {
		t.Fatal("Posts with different IDs are equal")
	}

	if a.Equal(NewPost("a", "b", 1, "")) {
		t.Fatal("Posts with different media are equal")
	}
}

func TestPageCount(t *testing.T) {
	var tests = map[int]int{0: 0, 1: 0, 49: 0, 50: 1, 99: 1, 100: 2, 151: 3}

	for n, count := range tests {
		if c := PageCount(n); c != count {
			t.Errorf("PageCount(%d) = %d, expected %d", n, c, count)
		}
	}
}
