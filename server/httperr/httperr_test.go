package httperr

import (
	"net/http/httptest"
	"testing"

	"github.com/pkg/errors"
)

var errNotHere = New(404, "not here")

func TestErrCode(t *testing.T) {
	var tests = []struct {
		name string
		err  error
		code int
	}{
		{"basic", errNotHere, 404},
		{"wrapped", Wrap(errors.New("disk on fire"), 507, "Failed to write"), 507},
		{"pkg wrapped", errors.Wrap(errNotHere, "Failed to find"), 404},
		{"plain", errors.New("oops"), 500},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			if code := ErrCode(test.err); code != test.code {
				t.Fatalf("Unexpected code %d, expected %d", code, test.code)
			}
		})
	}
}

func TestWrapNil(t *testing.T) {
	if err := Wrap(nil, 400, "nothing"); err != nil {
		t.Fatal("Unexpected non-nil error:", err)
	}
	if err := Wrapf(nil, 400, "nothing %d", 1); err != nil {
		t.Fatal("Unexpected non-nil error:", err)
	}
}

func TestWrapIs(t *testing.T) {
	err := Wrapf(errNotHere, 410, "Failed to find post %d", 3)

	if !errors.Is(err, errNotHere) {
		t.Fatal("Wrapped error does not match the cause:", err)
	}

	if msg := err.Error(); msg != "Failed to find post 3: not here" {
		t.Fatalf("Unexpected error message %q", msg)
	}
}

func TestWriteErr(t *testing.T) {
	w := httptest.NewRecorder()
	WriteErr(w, errNotHere)

	if w.Code != 404 {
		t.Fatal("Unexpected status code:", w.Code)
	}
}
