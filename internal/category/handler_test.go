package category_test

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"

	"github.com/go-chi/chi"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/frahmantamala/payable/internal/category"
	categoryPostgres "github.com/frahmantamala/payable/internal/category/postgres"
	categoryDatamodel "github.com/frahmantamala/payable/internal/core/datamodel/category"
	"github.com/frahmantamala/payable/internal/transport"
)

var _ = Describe("Category Handler Integration", func() {
	var (
		router  *chi.Mux
		usage   MockUsage
		slogger *slog.Logger
	)

	BeforeEach(func() {
		slogger = slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))

		db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
			Logger:         logger.Default.LogMode(logger.Silent),
			TranslateError: true,
		})
		Expect(err).NotTo(HaveOccurred())
		sqlDB, err := db.DB()
		Expect(err).NotTo(HaveOccurred())
		sqlDB.SetMaxOpenConns(1)
		DeferCleanup(sqlDB.Close)

		Expect(db.AutoMigrate(&categoryDatamodel.Category{})).To(Succeed())

		repo := categoryPostgres.NewCategoryRepository(db)
		usage = MockUsage{}
		service := category.NewService(repo, usage, nil, slogger)
		handler := category.NewHandler(service)
		Expect(handler.BaseHandler).NotTo(BeNil())
		handler.BaseHandler = &transport.BaseHandler{Logger: slogger}

		for _, name := range []string{"Travel", "Office Supplies"} {
			_, err := service.Add(context.Background(), name)
			Expect(err).NotTo(HaveOccurred())
		}

		router = chi.NewRouter()
		router.Get("/categories", handler.GetCategories)
		router.Post("/categories", handler.AddCategory)
		router.Delete("/categories/{name}", handler.DeleteCategory)
	})

	It("should return the names as a plain array", func() {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/categories", nil))

		Expect(w.Code).To(Equal(http.StatusOK))
		Expect(w.Header().Get("Content-Type")).To(ContainSubstring("application/json"))

		var names []string
		Expect(json.NewDecoder(w.Body).Decode(&names)).To(Succeed())
		Expect(names).To(Equal([]string{"Travel", "Office Supplies"}))
	})

	It("should add a category and return the full list", func() {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/categories", strings.NewReader(`{"name":"Training"}`)))

		Expect(w.Code).To(Equal(http.StatusOK))
		var resp category.ChangeResponse
		Expect(json.NewDecoder(w.Body).Decode(&resp)).To(Succeed())
		Expect(resp.Success).To(BeTrue())
		Expect(resp.Categories).To(Equal([]string{"Travel", "Office Supplies", "Training"}))
	})

	It("should answer 400 for a duplicate", func() {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/categories", strings.NewReader(`{"name":"Travel"}`)))

		Expect(w.Code).To(Equal(http.StatusBadRequest))
		var body map[string]interface{}
		Expect(json.NewDecoder(w.Body).Decode(&body)).To(Succeed())
		Expect(body).To(HaveKeyWithValue("error", "Category already exists"))
	})

	It("should delete a url-encoded name", func() {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodDelete, "/categories/Office%20Supplies", nil))

		Expect(w.Code).To(Equal(http.StatusOK))
		var resp category.ChangeResponse
		Expect(json.NewDecoder(w.Body).Decode(&resp)).To(Succeed())
		Expect(resp.Categories).To(Equal([]string{"Travel"}))
	})

	It("should answer 409 for a category in use", func() {
		usage["Travel"] = 1

		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodDelete, "/categories/Travel", nil))

		Expect(w.Code).To(Equal(http.StatusConflict))
		var body map[string]interface{}
		Expect(json.NewDecoder(w.Body).Decode(&body)).To(Succeed())
		Expect(body).To(HaveKeyWithValue("error", "Category is in use and cannot be deleted"))
	})

	It("should answer 404 for an unknown category", func() {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodDelete, "/categories/Nope", nil))

		Expect(w.Code).To(Equal(http.StatusNotFound))
	})
})
