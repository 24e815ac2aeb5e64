package server

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/koustreak/erdview/internal/errs"
	"github.com/koustreak/erdview/internal/logger"
)

// envelope is the top level of every JSON response. It always carries
// "success"; the rest depends on the route.
type envelope map[string]any

func writeJSON(w http.ResponseWriter, status int, body envelope) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func ok(w http.ResponseWriter, key string, v any) {
	writeJSON(w, http.StatusOK, envelope{"success": true, key: v})
}

// statusFor maps an error kind to the HTTP status returned to clients.
func statusFor(kind errs.ErrKind) int {
	switch kind {
	case errs.ErrKindInvalidInput:
		return http.StatusBadRequest
	case errs.ErrKindNotFound:
		return http.StatusNotFound
	case errs.ErrKindNotConnected:
		return http.StatusConflict
	case errs.ErrKindPermissionDenied:
		return http.StatusForbidden
	case errs.ErrKindConnectionFailed:
		return http.StatusBadGateway
	case errs.ErrKindTimeout:
		return http.StatusGatewayTimeout
	case errs.ErrKindQueryFailed:
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

// fail writes an error envelope. Engine diagnostics are passed through
// unchanged and a timeout tells the client to reconnect.
func fail(w http.ResponseWriter, r *http.Request, err error) {
	kind := errs.KindOf(err)

	msg := err.Error()
	var e *errs.Error
	if errors.As(err, &e) {
		msg = e.Message
	}

	body := envelope{"success": false, "error": msg, "kind": kind.String()}
	if d := errs.DiagnosticsOf(err); d != nil {
		if d.Position != "" {
			body["position"] = d.Position
		}
		if d.Detail != "" {
			body["detail"] = d.Detail
		}
		if d.Hint != "" {
			body["hint"] = d.Hint
		}
		if d.Code != "" {
			body["code"] = d.Code
		}
	}
	if kind == errs.ErrKindTimeout {
		body["needsReconnect"] = true
	}

	status := statusFor(kind)
	log := logger.FromContext(r.Context())
	if status >= http.StatusInternalServerError {
		log.ErrorWith("request failed", err, map[string]interface{}{"path": r.URL.Path})
	} else {
		log.DebugWith("request rejected", map[string]interface{}{"path": r.URL.Path, "kind": kind.String()})
	}
	writeJSON(w, status, body)
}

// decode reads a JSON body into v. An empty body leaves v untouched.
func decode(r *http.Request, v any) error {
	if r.Body == nil || r.ContentLength == 0 {
		return nil
	}
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil && !errors.Is(err, io.EOF) {
		return errs.Wrap(errs.ErrKindInvalidInput, "invalid request body", err)
	}
	return nil
}
