package handling

import (
	"fmt"
	"net/http"
	"strconv"

	"karma_server/lib"

	"github.com/go-chi/chi/v5"
)

// ParseID reads a positive integer URL parameter
func ParseID(r *http.Request, name string) (int64, error) {
	raw := chi.URLParam(r, name)
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id < 1 {
		return 0, fmt.Errorf("%w: invalid %s %q", lib.ErrValidation, name, raw)
	}
	return id, nil
}

// ParsePage reads the page query parameter, defaulting to 1
func ParsePage(r *http.Request) (int, error) {
	return parsePositive(r, "page", 1)
}

// ParseLimit reads the limit query parameter
func ParseLimit(r *http.Request, fallback int) (int, error) {
	return parsePositive(r, "limit", fallback)
}

func parsePositive(r *http.Request, name string, fallback int) (int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return fallback, nil
	}
	value, err := strconv.Atoi(raw)
	if err != nil || value < 1 {
		return 0, fmt.Errorf("%w: invalid %s %q", lib.ErrValidation, name, raw)
	}
	return value, nil
}
