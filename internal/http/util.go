package httpapi

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/yuta0709/nagara-care-api/internal/policy"
	"go.uber.org/zap"
)

const maxJSONBody = 1 << 20

var jst = time.FixedZone("JST", 9*60*60)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError maps err to its status. Unclassified errors are logged and hidden.
func writeError(w http.ResponseWriter, logger *zap.Logger, r *http.Request, err error) {
	status := policy.StatusOf(err)
	if status >= http.StatusInternalServerError && status != http.StatusBadGateway {
		logger.Error("Request failed",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Error(err),
		)
	}
	writeJSON(w, status, Fail(policy.MessageOf(err)))
}

// readBodyJSON 空 body 视为无字段
func readBodyJSON(r *http.Request, maxBytes int64, out any) error {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBytes))
	if err != nil {
		return err
	}
	if len(body) == 0 {
		return nil
	}
	return json.Unmarshal(body, out)
}

// decode reads the JSON body into out, reporting malformed input as 400.
func decode(r *http.Request, out any) error {
	if err := readBodyJSON(r, maxJSONBody, out); err != nil {
		var syntaxErr *json.SyntaxError
		var typeErr *json.UnmarshalTypeError
		switch {
		case errors.As(err, &syntaxErr):
			return policy.ErrBadRequest("malformed JSON body")
		case errors.As(err, &typeErr):
			return policy.ErrBadRequest("invalid value for " + typeErr.Field)
		default:
			return policy.ErrBadRequest("invalid request body")
		}
	}
	return nil
}

// parseTimeParam accepts RFC3339 or a YYYY-MM-DD facility date. With endOfDay a bare
// date stands for the start of the following day, so the bound includes that date.
func parseTimeParam(r *http.Request, name string, endOfDay bool) (time.Time, error) {
	v := r.URL.Query().Get(name)
	if v == "" {
		return time.Time{}, nil
	}
	if t, err := time.Parse(time.RFC3339, v); err == nil {
		return t, nil
	}
	d, err := time.ParseInLocation("2006-01-02", v, jst)
	if err != nil {
		return time.Time{}, policy.ErrBadRequest(name + " must be RFC3339 or YYYY-MM-DD")
	}
	if endOfDay {
		d = d.AddDate(0, 0, 1)
	}
	return d, nil
}
