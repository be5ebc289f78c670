package errs

import (
	"errors"
	"net/http"
	"testing"
)

func TestWrapUnwrap(t *testing.T) {
	cause := errors.New("boom")
	err := Wrap(Upstream, "call vision ocr", cause)

	if !errors.Is(err, cause) {
		t.Fatalf("expected errors.Is to find the wrapped cause")
	}
	if got := KindOf(err); got != Upstream {
		t.Fatalf("KindOf = %v, want Upstream", got)
	}
	if got := err.Error(); got != "call vision ocr: boom" {
		t.Fatalf("Error() = %q", got)
	}
}

func TestKindOfDefaultsToInternal(t *testing.T) {
	if got := KindOf(errors.New("plain")); got != Internal {
		t.Fatalf("KindOf(plain) = %v, want Internal", got)
	}
}

func TestHTTPStatusMapping(t *testing.T) {
	cases := map[Kind]int{
		Validation:  http.StatusBadRequest,
		NotFound:    http.StatusNotFound,
		Conflict:    http.StatusConflict,
		Unavailable: http.StatusServiceUnavailable,
		Upstream:    http.StatusBadGateway,
		Timeout:     http.StatusGatewayTimeout,
		IO:          http.StatusInternalServerError,
		Internal:    http.StatusInternalServerError,
	}
	for kind, want := range cases {
		if got := kind.HTTPStatus(); got != want {
			t.Errorf("%v.HTTPStatus() = %d, want %d", kind, got, want)
		}
	}
}
