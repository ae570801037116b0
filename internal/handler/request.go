package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strconv"
	"strings"

	"github.com/DukeRupert/smartmail/internal/domain"
	"github.com/google/uuid"
)

// maxBodyBytes caps JSON request bodies.
const maxBodyBytes = 64 << 10

// decodeJSON decodes the request body into dst.
// Malformed or oversized bodies become EINVALID errors.
func decodeJSON(w http.ResponseWriter, r *http.Request, op string, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)

	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(dst); err != nil {
		var maxErr *http.MaxBytesError
		var syntaxErr *json.SyntaxError
		var typeErr *json.UnmarshalTypeError
		switch {
		case errors.Is(err, io.EOF):
			return domain.Invalid(op, "Request body is required")
		case errors.As(err, &maxErr):
			return domain.Invalid(op, "Request body is too large")
		case errors.As(err, &syntaxErr), errors.Is(err, io.ErrUnexpectedEOF):
			return domain.Invalid(op, "Request body is not valid JSON")
		case errors.As(err, &typeErr):
			return domain.Invalid(op, fmt.Sprintf("Field %q has the wrong type", typeErr.Field))
		default:
			return domain.Invalid(op, "Request body could not be read")
		}
	}
	return nil
}

// pathUUID parses a UUID path value.
func pathUUID(r *http.Request, name, op string) (uuid.UUID, error) {
	id, err := uuid.Parse(r.PathValue(name))
	if err != nil {
		return uuid.Nil, domain.Invalid(op, fmt.Sprintf("Invalid %s", name))
	}
	return id, nil
}

// queryInt reads a non-negative integer query parameter, returning def when absent.
func queryInt(r *http.Request, name string, def int, op string) (int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return 0, domain.Invalid(op, fmt.Sprintf("Query parameter %q must be a non-negative integer", name))
	}
	return n, nil
}

// ClientIP extracts the client IP from the request, considering proxy headers.
func ClientIP(r *http.Request) string {
	// X-Forwarded-For can contain multiple IPs: client, proxy1, proxy2
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		if ip := strings.TrimSpace(first); ip != "" {
			return ip
		}
	}

	// nginx
	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return strings.TrimSpace(xri)
	}

	ip, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		// RemoteAddr might not have a port
		return r.RemoteAddr
	}
	return ip
}
