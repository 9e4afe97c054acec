package utils

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"

	"github.com/go-playground/validator/v10"
	internal_errors "github.com/itchan-dev/forum/shared/errors"
	"github.com/itchan-dev/forum/shared/logger"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// WriteErrorAndStatusCode maps error kinds to status codes; anything else is
// logged and reported as a 500 without leaking the message.
func WriteErrorAndStatusCode(w http.ResponseWriter, err error) {
	var e *internal_errors.ErrorWithStatusCode
	if errors.As(err, &e) {
		http.Error(w, e.Message, e.StatusCode)
		return
	}
	logger.Log.Error("internal error", "component", "http", "error", err)
	http.Error(w, "Internal error", http.StatusInternalServerError)
}

// WriteJSON encodes v with the given status.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	body, err := json.Marshal(v)
	if err != nil {
		logger.Log.Error("failed to encode response", "component", "http", "error", err)
		http.Error(w, "Internal error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	w.Write(append(body, '\n'))
}

// GetIP extracts the client IP from RemoteAddr. Forwarding headers are not
// trusted.
func GetIP(r *http.Request) (string, error) {
	ip, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		ip = r.RemoteAddr
	}
	if net.ParseIP(ip) == nil {
		return "", fmt.Errorf("invalid IP address: %s", ip)
	}
	return ip, nil
}

func DecodeValidate(r io.ReadCloser, body any) error {
	if err := Decode(r, body); err != nil {
		return err
	}
	if err := validate.Struct(body); err != nil {
		logger.Log.Debug("request validation failed", "component", "http", "error", err)
		return internal_errors.ValidationFailed("Required fields missing")
	}
	return nil
}

func Decode(r io.ReadCloser, body any) error {
	if err := json.NewDecoder(r).Decode(body); err != nil {
		logger.Log.Debug("invalid request body", "component", "http", "error", err)
		return internal_errors.ValidationFailed("Body is invalid json")
	}
	return nil
}
