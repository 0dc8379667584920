package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/inletworks/inlet-core/internal/assignment"
	"github.com/inletworks/inlet-core/internal/device"
	"github.com/inletworks/inlet-core/internal/endpoint"
	"github.com/inletworks/inlet-core/internal/pipeline"
)

// Error represents a structured error response.
type Error struct {
	Status  int    `json:"status"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Common error codes.
const (
	ErrCodeBadRequest     = "bad_request"
	ErrCodeNotFound       = "not_found"
	ErrCodeUnauthorized   = "unauthorised"
	ErrCodeConflict       = "conflict"
	ErrCodeInternal       = "internal_error"
	ErrCodeValidation     = "validation_error"
	ErrCodeCapacity       = "endpoint_capacity"
	ErrCodeDeviceAttached = "device_attached"
	ErrCodeNotEmpty       = "pipeline_not_empty"
	ErrCodePrecondition   = "precondition_failed"
	ErrCodeInconsistent   = "inconsistent_state"
)

// writeJSON writes a JSON response with the given status code and payload.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v != nil {
		//nolint:errcheck // Best-effort write to response; connection may be closed
		json.NewEncoder(w).Encode(v)
	}
}

// writeError writes a structured error response.
func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, Error{
		Status:  status,
		Code:    code,
		Message: message,
	})
}

// writeBadRequest writes a 400 error response.
func writeBadRequest(w http.ResponseWriter, message string) {
	writeError(w, http.StatusBadRequest, ErrCodeBadRequest, message)
}

// writeNotFound writes a 404 error response.
func writeNotFound(w http.ResponseWriter, message string) {
	writeError(w, http.StatusNotFound, ErrCodeNotFound, message)
}

// writeUnauthorized writes a 401 error response.
func writeUnauthorized(w http.ResponseWriter, message string) {
	writeError(w, http.StatusUnauthorized, ErrCodeUnauthorized, message)
}

// writeInternalError writes a 500 error response.
func writeInternalError(w http.ResponseWriter, message string) {
	writeError(w, http.StatusInternalServerError, ErrCodeInternal, message)
}

// writeDomainError maps a registry or coordinator error onto the HTTP
// error taxonomy. Validation failures are 400, missing entities 404,
// id and uniqueness conflicts 409, a move from the wrong source 412, and a move
// whose rollback failed is 500 so callers know to reconcile.
func writeDomainError(w http.ResponseWriter, err error) {
	switch {
	case isNotFoundError(err):
		writeError(w, http.StatusNotFound, ErrCodeNotFound, err.Error())

	case isValidationError(err):
		writeError(w, http.StatusBadRequest, ErrCodeValidation, err.Error())

	case errors.Is(err, assignment.ErrSamePipeline):
		writeError(w, http.StatusBadRequest, ErrCodeBadRequest, err.Error())

	case errors.Is(err, device.ErrDeviceExists),
		errors.Is(err, endpoint.ErrEndpointExists),
		errors.Is(err, pipeline.ErrPipelineExists):
		writeError(w, http.StatusConflict, ErrCodeConflict, err.Error())

	case errors.Is(err, assignment.ErrEndpointCapacity):
		writeError(w, http.StatusConflict, ErrCodeCapacity, err.Error())

	case errors.Is(err, assignment.ErrDeviceAttached),
		errors.Is(err, pipeline.ErrDeviceAlreadyAssigned):
		writeError(w, http.StatusConflict, ErrCodeDeviceAttached, err.Error())

	case errors.Is(err, assignment.ErrPipelineNotEmpty):
		writeError(w, http.StatusConflict, ErrCodeNotEmpty, err.Error())

	case errors.Is(err, assignment.ErrNotAttachedToSource):
		writeError(w, http.StatusPreconditionFailed, ErrCodePrecondition, err.Error())

	case errors.Is(err, assignment.ErrInconsistentState):
		writeError(w, http.StatusInternalServerError, ErrCodeInconsistent, err.Error())

	default:
		writeInternalError(w, "internal server error")
	}
}

// isNotFoundError checks the not-found sentinel of each entity package.
func isNotFoundError(err error) bool {
	return errors.Is(err, device.ErrDeviceNotFound) ||
		errors.Is(err, endpoint.ErrEndpointNotFound) ||
		errors.Is(err, pipeline.ErrPipelineNotFound)
}

// isValidationError checks the validation sentinels of each entity package.
func isValidationError(err error) bool {
	return errors.Is(err, device.ErrInvalidID) ||
		errors.Is(err, device.ErrInvalidName) ||
		errors.Is(err, device.ErrInvalidLocation) ||
		errors.Is(err, device.ErrInvalidKey) ||
		errors.Is(err, device.ErrInvalidOwner) ||
		errors.Is(err, endpoint.ErrInvalidName) ||
		errors.Is(err, endpoint.ErrInvalidURL) ||
		errors.Is(err, endpoint.ErrInvalidCredentials) ||
		errors.Is(err, endpoint.ErrInvalidOwner) ||
		errors.Is(err, pipeline.ErrInvalidName) ||
		errors.Is(err, pipeline.ErrInvalidStatus) ||
		errors.Is(err, pipeline.ErrInvalidMode) ||
		errors.Is(err, pipeline.ErrInvalidOwner)
}
