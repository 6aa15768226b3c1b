package openapi

import (
	"errors"
	"log/slog"
	"net/http"
	"sort"
	"strings"

	"github.com/getkin/kin-openapi/openapi3"
	"github.com/getkin/kin-openapi/openapi3filter"
	"github.com/getkin/kin-openapi/routers"

	"github.com/frahmantamala/payable/internal"
	"github.com/frahmantamala/payable/internal/transport"
)

// Validator rejects requests whose parameters or JSON bodies do not fit
// the document. Requests outside the documented API pass through.
type Validator struct {
	*transport.BaseHandler
	doc      *openapi3.T
	prefixes []string
	routes   []route
	options  *openapi3filter.Options
}

// NewValidator serves the document's paths below each of prefixes.
func NewValidator(doc *openapi3.T, logger *slog.Logger, prefixes ...string) *Validator {
	v := &Validator{
		BaseHandler: transport.NewBaseHandler(logger),
		doc:         doc,
		prefixes:    prefixes,
		options: &openapi3filter.Options{
			AuthenticationFunc: openapi3filter.NoopAuthenticationFunc,
			MultiError:         false,
		},
	}

	for template, item := range doc.Paths.Map() {
		v.routes = append(v.routes, route{template: template, segments: splitPath(template), item: item})
	}
	// static segments win over parameters, e.g. /expenses/statistics
	sort.Slice(v.routes, func(i, j int) bool {
		return strings.Count(v.routes[i].template, "{") < strings.Count(v.routes[j].template, "{")
	})
	return v
}

func (v *Validator) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rt, params, ok := v.find(r)
		if !ok {
			next.ServeHTTP(w, r)
			return
		}

		input := &openapi3filter.RequestValidationInput{
			Request:    r,
			PathParams: params,
			Route:      rt,
			Options:    v.options,
		}
		if err := openapi3filter.ValidateRequest(r.Context(), input); err != nil {
			h := v.BaseHandler
			h.Logger.Debug("OpenAPI: request rejected", "method", r.Method, "path", r.URL.Path, "error", err)
			h.WriteAppError(w, toAppError(err))
			return
		}

		next.ServeHTTP(w, r)
	})
}

func (v *Validator) find(r *http.Request) (*routers.Route, map[string]string, bool) {
	rest := ""
	matched := false
	for _, prefix := range v.prefixes {
		if after, ok := strings.CutPrefix(r.URL.Path, prefix); ok && (after == "" || after[0] == '/') {
			rest, matched = after, true
			break
		}
	}
	if !matched {
		return nil, nil, false
	}

	path := splitPath(rest)
	for _, rt := range v.routes {
		params, ok := rt.match(path)
		if !ok {
			continue
		}
		op := rt.item.GetOperation(r.Method)
		if op == nil {
			return nil, nil, false
		}
		return &routers.Route{
			Spec:      v.doc,
			Path:      rt.template,
			PathItem:  rt.item,
			Method:    r.Method,
			Operation: op,
		}, params, true
	}
	return nil, nil, false
}

func toAppError(err error) *internal.AppError {
	appErr := internal.NewValidationError("Validation failed", internal.ErrCodeValidationFailed).WithCause(err)

	var reqErr *openapi3filter.RequestError
	if !errors.As(err, &reqErr) {
		return appErr
	}

	field, message := "body", reqErr.Reason
	if reqErr.Parameter != nil {
		field = reqErr.Parameter.Name
	}

	var schemaErr *openapi3.SchemaError
	if errors.As(err, &schemaErr) {
		if ptr := schemaErr.JSONPointer(); len(ptr) > 0 {
			field = strings.Join(ptr, ".")
		}
		message = schemaErr.Reason
	}
	if message == "" {
		message = reqErr.Error()
	}

	return appErr.WithDetails(internal.ValidationErrors{Errors: []internal.ValidationError{{
		Field:   field,
		Message: field + ": " + message,
		Code:    string(internal.ErrCodeValidationFailed),
	}}})
}
