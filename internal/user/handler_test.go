package user_test

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"

	"github.com/go-chi/chi"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/frahmantamala/payable/internal/user"
)

var _ = Describe("User Handler", func() {
	var router *chi.Mux

	BeforeEach(func() {
		service := user.NewService(NewMockRepository(), nil, slog.New(slog.NewTextHandler(io.Discard, nil)))
		_, err := service.EnsureDefaults(context.Background())
		Expect(err).NotTo(HaveOccurred())

		handler := user.NewHandler(service)
		router = chi.NewRouter()
		router.Get("/users", handler.ListUsers)
		router.Post("/users", handler.CreateUser)
		router.Get("/users/{email}", handler.GetUser)
	})

	It("lists users", func() {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/users", nil))

		Expect(w.Code).To(Equal(http.StatusOK))
		var users []user.User
		Expect(json.NewDecoder(w.Body).Decode(&users)).To(Succeed())
		Expect(users).To(HaveLen(4))
	})

	It("looks a user up by email", func() {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/users/payer@company.com", nil))

		Expect(w.Code).To(Equal(http.StatusOK))
		var u user.User
		Expect(json.NewDecoder(w.Body).Decode(&u)).To(Succeed())
		Expect(u.Name).To(Equal("Mike Payer"))
	})

	It("answers 404 with an error payload for an unknown email", func() {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/users/ghost@company.com", nil))

		Expect(w.Code).To(Equal(http.StatusNotFound))
		var body map[string]interface{}
		Expect(json.NewDecoder(w.Body).Decode(&body)).To(Succeed())
		Expect(body).To(HaveKeyWithValue("error", "User not found"))
		Expect(body).To(HaveKeyWithValue("code", "USER_NOT_FOUND"))
	})

	It("creates a user", func() {
		body := `{"name":"Ann","email":"ann@x.com","role":"creator"}`
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/users", strings.NewReader(body)))

		Expect(w.Code).To(Equal(http.StatusCreated))
	})

	It("answers 409 for a duplicate email", func() {
		body := `{"name":"Dup","email":"viewer@company.com","role":"viewer"}`
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/users", strings.NewReader(body)))

		Expect(w.Code).To(Equal(http.StatusConflict))
	})

	It("answers 400 for a malformed body", func() {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/users", strings.NewReader("{")))

		Expect(w.Code).To(Equal(http.StatusBadRequest))
	})
})
