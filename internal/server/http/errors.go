package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"sort"

	"github.com/dmitrijs2005/gophauth/internal/common"
	"github.com/dmitrijs2005/gophauth/internal/logging"
)

type errorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Detail  string `json:"detail,omitempty"`
}

// StatusFor maps an error kind to its HTTP status.
func StatusFor(kind common.Kind) int {
	switch kind {
	case common.KindValidation:
		return http.StatusBadRequest
	case common.KindAuthentication:
		return http.StatusUnauthorized
	case common.KindAuthorization:
		return http.StatusForbidden
	case common.KindNotFound:
		return http.StatusNotFound
	case common.KindConflict:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set(ContentType, ApplicationJSONType)
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError logs err with the request coordinates and writes the
// {error, message} body. body is the raw request body; only its top-level
// field names are logged.
func (h *Handlers) writeError(w http.ResponseWriter, r *http.Request, err error, body []byte) {
	ctx := r.Context()
	kind := common.KindOf(err)
	status := StatusFor(kind)

	args := []any{
		"path", r.URL.Path,
		"method", r.Method,
		"request_id", RequestIDFromContext(ctx),
		"status", status,
	}
	if fields := bodyFields(body); len(fields) > 0 {
		args = append(args, "fields", fields)
	}

	resp := errorResponse{Error: kind.String(), Message: common.MessageOf(err)}

	if status >= http.StatusInternalServerError {
		logging.LogError(ctx, h.logger, "request failed", err, args...)
		if h.development {
			var cause error = err
			var de *common.Error
			if errors.As(err, &de) && de.Err != nil {
				cause = de.Err
			}
			resp.Detail = cause.Error()
		}
	} else {
		h.logger.Warn(ctx, "request rejected", append(args, "kind", kind.String(), "message", resp.Message)...)
	}

	writeJSON(w, status, resp)
}

// bodyFields returns the sorted top-level keys of a JSON object body.
func bodyFields(body []byte) []string {
	if len(body) == 0 {
		return nil
	}
	var m map[string]json.RawMessage
	if err := json.Unmarshal(body, &m); err != nil {
		return nil
	}
	fields := make([]string, 0, len(m))
	for k := range m {
		fields = append(fields, k)
	}
	sort.Strings(fields)
	return fields
}
