package validators

import (
	"net/http"
	"strings"

	pkgerrors "github.com/freshfields/storefront-backend/pkg/errors"
	"github.com/google/uuid"
)

// ParseQueryString returns a trimmed query parameter, bounded by maxLen.
func ParseQueryString(r *http.Request, key string, maxLen int) string {
	raw := strings.TrimSpace(r.URL.Query().Get(key))
	if maxLen > 0 && len(raw) > maxLen {
		return raw[:maxLen]
	}
	return raw
}

// ParsePathUUID parses a URL path segment as a UUID.
func ParsePathUUID(raw, field string) (uuid.UUID, error) {
	id, err := uuid.Parse(strings.TrimSpace(raw))
	if err != nil {
		return uuid.Nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid identifier").
			WithDetails(map[string]any{"field": field})
	}
	return id, nil
}
