package transport

import (
	"net/http"
	"net/url"

	"github.com/go-chi/chi"
)

// URLParam returns the decoded path parameter key. chi matches against the
// raw path when the request carried escaped characters such as %2F.
func URLParam(r *http.Request, key string) string {
	value := chi.URLParam(r, key)
	if r.URL.RawPath == "" {
		return value
	}
	if decoded, err := url.PathUnescape(value); err == nil {
		return decoded
	}
	return value
}
