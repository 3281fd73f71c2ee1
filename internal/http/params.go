package http

import (
	"errors"
	"net/http"
	"net/url"
	"reflect"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"marketplace/candidates/internal/apperr"
	"marketplace/candidates/internal/candidates"
	"marketplace/candidates/internal/views"
)

const maxBodyBytes = 1 << 20

type fieldIssue struct {
	Field string `json:"field"`
	Issue string `json:"issue"`
}

// newValidator reports fields by their JSON names.
func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "" || name == "-" {
			return fld.Name
		}
		return name
	})
	return v
}

func validationError(prefix string, err error) *apperr.Error {
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return apperr.Validation(prefix+": "+err.Error(), nil)
	}
	issues := make([]fieldIssue, 0, len(fieldErrs))
	parts := make([]string, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		issue := describeTag(fe)
		issues = append(issues, fieldIssue{Field: fe.Field(), Issue: issue})
		parts = append(parts, fe.Field()+" "+issue)
	}
	return apperr.Validation(prefix+": "+strings.Join(parts, ", "), issues)
}

func describeTag(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "email":
		return "must be a valid email"
	case "min":
		return "must be at least " + fe.Param()
	case "max":
		return "must be at most " + fe.Param()
	case "oneof":
		return "must be one of " + fe.Param()
	default:
		return "is invalid"
	}
}

// queryInt returns fallback when key is absent and an error when present
// but not an integer.
func queryInt(q url.Values, key string, fallback int) (int, error) {
	raw := strings.TrimSpace(q.Get(key))
	if raw == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, apperr.Validation("Invalid query parameters: "+key+" must be an integer", nil)
	}
	return n, nil
}

func completeRequested(q url.Values) bool {
	return q.Get("includeAllData") == "true" || q.Get("complete") == "true"
}

func (s *Server) parseCandidateFilters(r *http.Request) (candidates.Filters, error) {
	q := r.URL.Query()
	page, err := queryInt(q, "page", candidates.DefaultPage)
	if err != nil {
		return candidates.Filters{}, err
	}
	limit, err := queryInt(q, "limit", candidates.DefaultLimit)
	if err != nil {
		return candidates.Filters{}, err
	}
	f := candidates.Filters{
		Page:           page,
		Limit:          limit,
		Search:         q.Get("search"),
		Verdict:        q.Get("verdict"),
		Sort:           q.Get("sort"),
		Order:          q.Get("order"),
		IncludeAllData: completeRequested(q),
	}
	if f.Order == "" {
		f.Order = candidates.OrderDesc
	}
	if err := s.validate.Struct(f); err != nil {
		return candidates.Filters{}, validationError("Invalid query parameters", err)
	}
	return f, nil
}

func pageFilters(q url.Values) (views.PageFilters, error) {
	page, err := queryInt(q, "page", 1)
	if err != nil {
		return views.PageFilters{}, err
	}
	limit, err := queryInt(q, "limit", 20)
	if err != nil {
		return views.PageFilters{}, err
	}
	order := q.Get("order")
	if order == "" {
		order = "desc"
	}
	return views.PageFilters{Page: page, Limit: limit, Order: order}, nil
}

func (s *Server) parseHistoryFilters(r *http.Request) (views.HistoryFilters, error) {
	q := r.URL.Query()
	page, err := pageFilters(q)
	if err != nil {
		return views.HistoryFilters{}, err
	}
	f := views.HistoryFilters{PageFilters: page, Sort: q.Get("sort")}
	if err := s.validate.Struct(f); err != nil {
		return views.HistoryFilters{}, validationError("Invalid query parameters", err)
	}
	return f, nil
}

func (s *Server) parseViewerFilters(r *http.Request) (views.ViewerFilters, error) {
	q := r.URL.Query()
	page, err := pageFilters(q)
	if err != nil {
		return views.ViewerFilters{}, err
	}
	f := views.ViewerFilters{PageFilters: page, Sort: q.Get("sort")}
	if err := s.validate.Struct(f); err != nil {
		return views.ViewerFilters{}, validationError("Invalid query parameters", err)
	}
	return f, nil
}

func studentIDParam(r *http.Request) (string, error) {
	id := chi.URLParam(r, "id")
	if _, err := uuid.Parse(id); err != nil {
		return "", apperr.Validation("Invalid student ID format", nil)
	}
	return id, nil
}

func candidateIDParam(r *http.Request) (string, error) {
	id, err := url.PathUnescape(chi.URLParam(r, "id"))
	if err != nil || strings.TrimSpace(id) == "" {
		return "", apperr.Validation("Invalid candidate ID format", nil)
	}
	return id, nil
}

func (s *Server) emailParam(r *http.Request) (string, error) {
	email, err := url.PathUnescape(chi.URLParam(r, "email"))
	if err == nil {
		err = s.validate.Var(email, "required,email")
	}
	if err != nil {
		return "", apperr.Validation("Invalid email format", fieldIssue{Field: "email", Issue: "Invalid email format"})
	}
	return email, nil
}

func (s *Server) decodeViewer(w http.ResponseWriter, r *http.Request) (views.Viewer, error) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	var viewer views.Viewer
	if err := decodeJSON(r, &viewer); err != nil {
		return views.Viewer{}, apperr.Validation("Invalid request body: malformed JSON", nil)
	}
	viewer.Email = strings.TrimSpace(viewer.Email)
	if err := s.validate.Struct(viewer); err != nil {
		return views.Viewer{}, validationError("Invalid request body", err)
	}
	return viewer, nil
}
