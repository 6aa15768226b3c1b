package accessrequest_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"

	"github.com/go-chi/chi"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/frahmantamala/payable/internal"
	"github.com/frahmantamala/payable/internal/accessrequest"
	"github.com/frahmantamala/payable/internal/user"
)

var _ = Describe("Access Request Handler", func() {
	var (
		router  *chi.Mux
		service *accessrequest.Service
	)

	do := func(method, path, body string) *httptest.ResponseRecorder {
		var req *http.Request
		if body == "" {
			req = httptest.NewRequest(method, path, nil)
		} else {
			req = httptest.NewRequest(method, path, strings.NewReader(body))
		}
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		return w
	}

	BeforeEach(func() {
		users := user.NewService(&mockUserRepository{}, nil, discardLogger())
		service = accessrequest.NewService(NewMockRequestRepository(), users, nil, nil, discardLogger())

		handler := accessrequest.NewHandler(service)
		router = chi.NewRouter()
		router.Get("/user-requests", handler.ListRequests)
		router.Post("/user-requests", handler.SubmitRequest)
		router.Patch("/user-requests/{id}/approve", handler.ApproveRequest)
		router.Patch("/user-requests/{id}/reject", handler.RejectRequest)
	})

	It("submits a request and answers 201", func() {
		w := do(http.MethodPost, "/user-requests", `{"name":"Jane","email":"jane@x.com"}`)

		Expect(w.Code).To(Equal(http.StatusCreated))
		var body map[string]interface{}
		Expect(json.NewDecoder(w.Body).Decode(&body)).To(Succeed())
		Expect(body).To(HaveKeyWithValue("status", "pending"))
		Expect(body).To(HaveKey("requestedAt"))
	})

	It("answers 400 for a malformed body", func() {
		w := do(http.MethodPost, "/user-requests", `{"name":`)
		Expect(w.Code).To(Equal(http.StatusBadRequest))
	})

	It("answers 400 for a missing email", func() {
		w := do(http.MethodPost, "/user-requests", `{"name":"Jane"}`)
		Expect(w.Code).To(Equal(http.StatusBadRequest))

		var body map[string]interface{}
		Expect(json.NewDecoder(w.Body).Decode(&body)).To(Succeed())
		Expect(body).To(HaveKeyWithValue("error", "email is required"))
	})

	It("approves with an empty body and returns the new user", func() {
		req, err := service.Submit(context.Background(), accessrequest.SubmitRequestDTO{Name: "Jane", Email: "jane@x.com"})
		Expect(err).NotTo(HaveOccurred())

		w := do(http.MethodPatch, "/user-requests/"+req.ID+"/approve", "")
		Expect(w.Code).To(Equal(http.StatusOK))

		var u user.User
		Expect(json.NewDecoder(w.Body).Decode(&u)).To(Succeed())
		Expect(u.Email).To(Equal("jane@x.com"))
		Expect(u.Role).To(Equal(user.RoleViewer))
	})

	It("records the authenticated actor as approver", func() {
		req, err := service.Submit(context.Background(), accessrequest.SubmitRequestDTO{Name: "Jane", Email: "jane@x.com"})
		Expect(err).NotTo(HaveOccurred())

		httpReq := httptest.NewRequest(http.MethodPatch, "/user-requests/"+req.ID+"/approve", strings.NewReader(`{"role":"creator","approvedBy":"someone"}`))
		httpReq = httpReq.WithContext(internal.ContextWithActor(httpReq.Context(), &internal.Actor{ID: "admin-1", Role: user.RoleAdmin}))
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httpReq)
		Expect(w.Code).To(Equal(http.StatusOK))

		list, err := service.List(context.Background())
		Expect(err).NotTo(HaveOccurred())
		Expect(*list[0].ApprovedBy).To(Equal("admin-1"))
	})

	It("answers 404 when approving an unknown request", func() {
		w := do(http.MethodPatch, "/user-requests/req-nope/approve", "")
		Expect(w.Code).To(Equal(http.StatusNotFound))
	})

	It("answers 409 when rejecting twice", func() {
		req, err := service.Submit(context.Background(), accessrequest.SubmitRequestDTO{Name: "Jane", Email: "jane@x.com"})
		Expect(err).NotTo(HaveOccurred())

		Expect(do(http.MethodPatch, "/user-requests/"+req.ID+"/reject", "").Code).To(Equal(http.StatusOK))

		w := do(http.MethodPatch, "/user-requests/"+req.ID+"/reject", "")
		Expect(w.Code).To(Equal(http.StatusConflict))
		var body map[string]interface{}
		Expect(json.NewDecoder(w.Body).Decode(&body)).To(Succeed())
		Expect(body).To(HaveKeyWithValue("error", "Request already processed"))
	})

	It("lists requests", func() {
		_, err := service.Submit(context.Background(), accessrequest.SubmitRequestDTO{Name: "Jane", Email: "jane@x.com"})
		Expect(err).NotTo(HaveOccurred())

		w := do(http.MethodGet, "/user-requests", "")
		Expect(w.Code).To(Equal(http.StatusOK))
		var list []accessrequest.Request
		Expect(json.NewDecoder(w.Body).Decode(&list)).To(Succeed())
		Expect(list).To(HaveLen(1))
	})
})
