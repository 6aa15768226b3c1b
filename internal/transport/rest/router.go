package rest

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi"
	chiMiddleware "github.com/go-chi/chi/middleware"

	"github.com/frahmantamala/payable/internal/accessrequest"
	"github.com/frahmantamala/payable/internal/auth"
	"github.com/frahmantamala/payable/internal/category"
	"github.com/frahmantamala/payable/internal/expense"
	"github.com/frahmantamala/payable/internal/snapshot"
	"github.com/frahmantamala/payable/internal/transport/middleware"
	"github.com/frahmantamala/payable/internal/transport/openapi"
	"github.com/frahmantamala/payable/internal/transport/swagger"
	"github.com/frahmantamala/payable/internal/user"
)

// APIPrefixes are the mount points of the API. /api is what the web
// client calls.
var APIPrefixes = []string{"/api/v1", "/api"}

type Handlers struct {
	Auth       *auth.Handler
	RBAC       *auth.RBACAuthorization
	Users      *user.Handler
	Requests   *accessrequest.Handler
	Categories *category.Handler
	Expenses   *expense.Handler
	Snapshot   *snapshot.Handler
	Health     *HealthHandler
}

// MetricsMiddleware records per-route request metrics.
type MetricsMiddleware interface {
	Middleware(next http.Handler) http.Handler
}

type Options struct {
	AllowedOrigins string
	RequestTimeout time.Duration
	Validator      *openapi.Validator
	Metrics        MetricsMiddleware
	MetricsPath    string
	MetricsHandler http.Handler
}

func NewRouter(h Handlers, opts Options, logger *slog.Logger) *chi.Mux {
	router := chi.NewRouter()

	router.Use(middleware.CORS(opts.AllowedOrigins))
	router.Use(chiMiddleware.RequestID)
	router.Use(middleware.RequestID)
	if opts.Metrics != nil {
		router.Use(opts.Metrics.Middleware)
	}
	router.Use(middleware.LoggingMiddleware(logger))
	router.Use(middleware.RecoveryMiddleware(logger))
	if opts.RequestTimeout > 0 {
		router.Use(chiMiddleware.Timeout(opts.RequestTimeout))
	}
	if opts.Validator != nil {
		router.Use(opts.Validator.Middleware)
	}

	router.Get("/openapi.yml", openapi.ServeDocument)
	router.Handle("/swagger/*", swagger.Handler("/openapi.yml"))
	if opts.MetricsHandler != nil && opts.MetricsPath != "" {
		router.Handle(opts.MetricsPath, opts.MetricsHandler)
	}

	for _, prefix := range APIPrefixes {
		router.Route(prefix, func(r chi.Router) {
			registerAPI(r, h)
		})
	}

	return router
}

func registerAPI(r chi.Router, h Handlers) {
	if h.Health != nil {
		r.Get("/health", h.Health.Health)
		r.Get("/ping", h.Health.Ping)
	}
	if h.Auth != nil {
		r.Post("/auth/login", h.Auth.Login)
	}

	guard := func(permission string, next http.HandlerFunc) http.HandlerFunc {
		if h.RBAC == nil {
			return next
		}
		return h.RBAC.Check(next, permission)
	}

	r.Group(func(pr chi.Router) {
		if h.Auth != nil {
			pr.Use(h.Auth.AuthMiddleware)
		}
		pr.Use(middleware.UserContext)

		if h.Users != nil {
			pr.Route("/users", func(ur chi.Router) {
				ur.Get("/", h.Users.ListUsers)
				ur.Post("/", guard(auth.PermissionCreateUsers, h.Users.CreateUser))
				ur.Get("/{email}", h.Users.GetUser)
			})
		}

		if h.Requests != nil {
			pr.Route("/user-requests", func(rr chi.Router) {
				rr.Get("/", h.Requests.ListRequests)
				rr.Post("/", h.Requests.SubmitRequest)
				rr.Patch("/{id}/approve", guard(auth.PermissionDecideRequests, h.Requests.ApproveRequest))
				rr.Patch("/{id}/reject", guard(auth.PermissionDecideRequests, h.Requests.RejectRequest))
			})
		}

		if h.Categories != nil {
			pr.Route("/categories", func(cr chi.Router) {
				cr.Get("/", h.Categories.GetCategories)
				cr.Post("/", guard(auth.PermissionManageCategories, h.Categories.AddCategory))
				cr.Delete("/{name}", guard(auth.PermissionManageCategories, h.Categories.DeleteCategory))
			})
		}

		if h.Expenses != nil {
			pr.Route("/expenses", func(er chi.Router) {
				er.Get("/", h.Expenses.GetExpenses)
				er.Post("/", guard(auth.PermissionCreateExpenses, h.Expenses.CreateExpense))
				er.Get("/statistics", h.Expenses.GetStatistics)
				er.Patch("/{id}/status", guard(auth.PermissionPayExpenses, h.Expenses.UpdateExpenseStatus))
			})
		}

		if h.Snapshot != nil {
			pr.Get("/snapshot", h.Snapshot.GetSnapshot)
		}
	})
}
