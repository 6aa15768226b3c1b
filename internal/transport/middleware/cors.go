package middleware

import (
	"net/http"
	"strings"

	"github.com/go-chi/cors"
)

// CORS allows the comma-separated origins; "*" or an empty list allows any.
func CORS(allowedOrigins string) func(http.Handler) http.Handler {
	origins := []string{"*"}
	if trimmed := strings.TrimSpace(allowedOrigins); trimmed != "" && trimmed != "*" {
		origins = origins[:0]
		for _, o := range strings.Split(trimmed, ",") {
			if o = strings.TrimSpace(o); o != "" {
				origins = append(origins, o)
			}
		}
	}

	return cors.Handler(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPatch, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", HeaderUserID, HeaderTraceID},
		ExposedHeaders:   []string{HeaderTraceID},
		AllowCredentials: false,
		MaxAge:           300,
	})
}
