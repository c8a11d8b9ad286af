package validators

import (
	"net/http"
	"strconv"
	"strings"

	pkgerrors "github.com/angelmondragon/orderdesk/pkg/errors"
)

// ParseQueryBool reads a boolean query flag. A missing flag yields defaultVal.
func ParseQueryBool(r *http.Request, key string, defaultVal bool) (bool, error) {
	raw := strings.TrimSpace(r.URL.Query().Get(key))
	if raw == "" {
		return defaultVal, nil
	}
	value, err := strconv.ParseBool(raw)
	if err != nil {
		return false, pkgerrors.New(pkgerrors.CodeValidation, "query parameter must be a boolean").WithDetails(map[string]any{"field": key})
	}
	return value, nil
}

// ParseQueryString reads a free-text query parameter, trimmed and capped at maxLen bytes.
func ParseQueryString(r *http.Request, key string, maxLen int) string {
	return SanitizeString(r.URL.Query().Get(key), maxLen)
}
