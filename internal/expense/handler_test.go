package expense_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"

	"github.com/go-chi/chi"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/frahmantamala/payable/internal/expense"
)

var _ = Describe("Expense Handler", func() {
	var router *chi.Mux

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

	create := func() map[string]interface{} {
		w := do(http.MethodPost, "/expenses", `{"description":"Lunch","amount":12.5,"category":"Meals","date":"2024-03-01","createdBy":"2","status":"paid"}`)
		Expect(w.Code).To(Equal(http.StatusCreated))
		var body map[string]interface{}
		Expect(json.NewDecoder(w.Body).Decode(&body)).To(Succeed())
		return body
	}

	BeforeEach(func() {
		service := expense.NewService(newMockExpenseRepository(), knownCategories{"Meals"}, nil, discardLogger())
		handler := expense.NewHandler(service)

		router = chi.NewRouter()
		router.Get("/expenses", handler.GetExpenses)
		router.Post("/expenses", handler.CreateExpense)
		router.Get("/expenses/statistics", handler.GetStatistics)
		router.Patch("/expenses/{id}/status", handler.UpdateExpenseStatus)
	})

	It("creates an expense ignoring a client-sent status", func() {
		body := create()
		Expect(body).To(HaveKeyWithValue("status", "not_paid"))
		Expect(body).To(HaveKey("createdAt"))
		Expect(body).NotTo(HaveKey("paidBy"))
	})

	It("answers 400 with the field message for a bad amount", func() {
		w := do(http.MethodPost, "/expenses", `{"description":"Lunch","amount":0,"category":"Meals","date":"2024-03-01"}`)
		Expect(w.Code).To(Equal(http.StatusBadRequest))

		var body map[string]interface{}
		Expect(json.NewDecoder(w.Body).Decode(&body)).To(Succeed())
		Expect(body).To(HaveKeyWithValue("error", "amount must be greater than 0"))
	})

	It("marks an expense paid then unpaid", func() {
		id := create()["id"].(string)

		w := do(http.MethodPatch, "/expenses/"+id+"/status", `{"status":"paid","userId":"3"}`)
		Expect(w.Code).To(Equal(http.StatusOK))
		var paid map[string]interface{}
		Expect(json.NewDecoder(w.Body).Decode(&paid)).To(Succeed())
		Expect(paid).To(HaveKeyWithValue("paidBy", "3"))

		w = do(http.MethodPatch, "/expenses/"+id+"/status", `{"status":"not_paid"}`)
		Expect(w.Code).To(Equal(http.StatusOK))
		var unpaid map[string]interface{}
		Expect(json.NewDecoder(w.Body).Decode(&unpaid)).To(Succeed())
		Expect(unpaid).NotTo(HaveKey("paidBy"))
		Expect(unpaid).NotTo(HaveKey("paidAt"))
	})

	It("answers 400 for an unknown status", func() {
		id := create()["id"].(string)

		w := do(http.MethodPatch, "/expenses/"+id+"/status", `{"status":"approved"}`)
		Expect(w.Code).To(Equal(http.StatusBadRequest))
	})

	It("answers 404 for an unknown expense", func() {
		w := do(http.MethodPatch, "/expenses/exp-nope/status", `{"status":"paid"}`)
		Expect(w.Code).To(Equal(http.StatusNotFound))
	})

	It("serves statistics", func() {
		create()

		w := do(http.MethodGet, "/expenses/statistics", "")
		Expect(w.Code).To(Equal(http.StatusOK))
		var stats expense.Statistics
		Expect(json.NewDecoder(w.Body).Decode(&stats)).To(Succeed())
		Expect(stats.TotalExpenses).To(BeEquivalentTo(1))
		Expect(stats.UnpaidAmount).To(BeNumerically("==", 12.5))
	})

	It("lists expenses", func() {
		create()
		create()

		w := do(http.MethodGet, "/expenses", "")
		Expect(w.Code).To(Equal(http.StatusOK))
		var list []expense.Expense
		Expect(json.NewDecoder(w.Body).Decode(&list)).To(Succeed())
		Expect(list).To(HaveLen(2))
	})
})
