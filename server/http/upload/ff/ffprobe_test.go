package ff

import "testing"

func TestParseSize(t *testing.T) {
	s, err := parseSize([]byte("width=1920\nheight=1080\n"))
	if err != nil {
		t.Fatal("Failed to parse:", err)
	}

	if s.Width != 1920 || s.Height != 1080 {
		t.Fatalf("Unexpected size: %#v", s)
	}

	if _, err := parseSize([]byte("width=abc\n")); err == nil {
		t.Fatal("Unexpected nil error for invalid integer")
	}

	if _, err := parseSize([]byte("garbage\n")); err == nil {
		t.Fatal("Unexpected nil error for invalid line")
	}

	if _, err := parseSize(nil); err == nil {
		t.Fatal("Unexpected nil error for an audio-only file")
	}
}
