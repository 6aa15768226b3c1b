package middleware_test

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	chiMiddleware "github.com/go-chi/chi/middleware"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/frahmantamala/payable/internal"
	"github.com/frahmantamala/payable/internal/transport/middleware"
	"github.com/frahmantamala/payable/pkg/logger"
)

func TestMiddleware(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Middleware Suite")
}

var _ = Describe("UserContext", func() {
	var seen *internal.Actor

	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen, _ = internal.ActorFromContext(r.Context())
	})

	BeforeEach(func() { seen = nil })

	It("uses the X-User-ID header for anonymous requests", func() {
		req := httptest.NewRequest(http.MethodPatch, "/expenses/exp-1/status", nil)
		req.Header.Set(middleware.HeaderUserID, "3")

		middleware.UserContext(next).ServeHTTP(httptest.NewRecorder(), req)

		Expect(seen).NotTo(BeNil())
		Expect(seen.ID).To(Equal("3"))
		Expect(seen.Role).To(BeEmpty())
	})

	It("never overrides an authenticated actor", func() {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set(middleware.HeaderUserID, "3")
		req = req.WithContext(internal.ContextWithActor(req.Context(), &internal.Actor{ID: "admin-1", Role: "admin"}))

		middleware.UserContext(next).ServeHTTP(httptest.NewRecorder(), req)

		Expect(seen.ID).To(Equal("admin-1"))
	})

	It("leaves requests without the header anonymous", func() {
		middleware.UserContext(next).ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
		Expect(seen).To(BeNil())
	})
})

var _ = Describe("RecoveryMiddleware", func() {
	It("answers 500 with the error payload", func() {
		lg := slog.New(slog.NewTextHandler(io.Discard, nil))
		panicking := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { panic("boom") })

		w := httptest.NewRecorder()
		middleware.RecoveryMiddleware(lg)(panicking).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))

		Expect(w.Code).To(Equal(http.StatusInternalServerError))
		var body map[string]interface{}
		Expect(json.Unmarshal(w.Body.Bytes(), &body)).To(Succeed())
		Expect(body).To(HaveKeyWithValue("error", "Internal server error"))
		Expect(body).To(HaveKeyWithValue("type", "INTERNAL_ERROR"))
	})
})

var _ = Describe("RequestID", func() {
	ok := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {})

	It("echoes the caller's trace id", func() {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set(middleware.HeaderTraceID, "trace-123")
		w := httptest.NewRecorder()

		chiMiddleware.RequestID(middleware.RequestID(ok)).ServeHTTP(w, req)

		Expect(w.Header().Get(middleware.HeaderTraceID)).To(Equal("trace-123"))
	})

	It("mints one when absent", func() {
		w := httptest.NewRecorder()
		middleware.RequestID(ok).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
		Expect(w.Header().Get(middleware.HeaderTraceID)).To(HaveLen(36))
	})
})

var _ = Describe("CORS", func() {
	ok := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {})

	It("answers preflight requests for listed origins", func() {
		req := httptest.NewRequest(http.MethodOptions, "/api/categories", nil)
		req.Header.Set("Origin", "http://localhost:5173")
		req.Header.Set("Access-Control-Request-Method", http.MethodDelete)
		w := httptest.NewRecorder()

		middleware.CORS("http://localhost:5173, https://payable.example.com")(ok).ServeHTTP(w, req)

		Expect(w.Header().Get("Access-Control-Allow-Origin")).To(Equal("http://localhost:5173"))
	})

	It("does not allow unlisted origins", func() {
		req := httptest.NewRequest(http.MethodGet, "/api/categories", nil)
		req.Header.Set("Origin", "https://evil.example.com")
		w := httptest.NewRecorder()

		middleware.CORS("http://localhost:5173")(ok).ServeHTTP(w, req)

		Expect(w.Header().Get("Access-Control-Allow-Origin")).To(BeEmpty())
	})
})

var _ = Describe("LoggingMiddleware", func() {
	It("filters tokens from logged bodies and keeps the request body readable", func() {
		var buf bytes.Buffer
		lg := slog.New(slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))

		var read string
		echo := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw, _ := io.ReadAll(r.Body)
			read = string(raw)
			w.WriteHeader(http.StatusOK)
			_, _ = w.Write([]byte(`{"access_token":"abc.def.ghi","token_type":"Bearer"}`))
		})

		req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", strings.NewReader(`{"email":"admin@company.com"}`))
		req = req.WithContext(logger.Into(req.Context(), lg))
		middleware.LoggingMiddleware(lg)(echo).ServeHTTP(httptest.NewRecorder(), req)

		Expect(read).To(Equal(`{"email":"admin@company.com"}`))
		Expect(buf.String()).NotTo(ContainSubstring("abc.def.ghi"))
		Expect(buf.String()).To(ContainSubstring("[FILTERED]"))
	})
})
