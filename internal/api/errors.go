package api

import (
	"encoding/json"
	"net/http"

	"govinv/internal/envelope"
	"govinv/internal/errors"
)

// MapErrorToStatus maps error codes to HTTP status codes
func MapErrorToStatus(code errors.ErrorCode) int {
	switch code {
	case errors.InvalidArgument:
		return http.StatusBadRequest // 400
	case errors.NotFound:
		return http.StatusNotFound // 404
	case errors.StoreUnavailable:
		return http.StatusServiceUnavailable // 503
	case errors.SubprocessFailed:
		return http.StatusBadGateway // 502
	case errors.QueryFailed, errors.InternalError:
		return http.StatusInternalServerError // 500
	default:
		return http.StatusInternalServerError // 500
	}
}

// WriteJSON writes a JSON response
func WriteJSON(w http.ResponseWriter, data any, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

// WriteEnvelope writes resp with the status derived from its error code.
func WriteEnvelope(w http.ResponseWriter, resp *envelope.Response) {
	status := http.StatusOK
	if resp.Failed() {
		status = MapErrorToStatus(resp.Error.Code)
	}
	WriteJSON(w, resp, status)
}

// WriteError writes err as a failed envelope.
func WriteError(w http.ResponseWriter, err error) {
	WriteEnvelope(w, envelope.New().Error(err).Build())
}

// BadRequest writes a 400 for a malformed request body.
func BadRequest(w http.ResponseWriter, message string) {
	WriteError(w, errors.NewInvalidArgument("body", message))
}

// InternalError writes a 500 Internal Server Error
func InternalError(w http.ResponseWriter, message string) {
	WriteError(w, errors.New(errors.InternalError, message, nil))
}
