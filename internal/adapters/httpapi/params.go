package httpapi

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/oapi-codegen/runtime"
)

// idParam binds the {id} path segment. It writes a 400 and returns false when the
// segment cannot be bound.
func idParam(w http.ResponseWriter, r *http.Request) (string, bool) {
	var id string
	err := runtime.BindStyledParameterWithOptions("simple", "id", chi.URLParam(r, "id"), &id, runtime.BindStyledParameterOptions{
		ParamLocation: runtime.ParamLocationPath,
		Explode:       false,
		Required:      true,
	})
	if err != nil {
		writeMessage(w, http.StatusBadRequest, "Invalid id")
		return "", false
	}
	return id, true
}

func searchQueryParam(r *http.Request) (string, error) {
	var q string
	if err := runtime.BindQueryParameter("form", true, false, "query", r.URL.Query(), &q); err != nil {
		return "", err
	}
	return strings.TrimSpace(q), nil
}
