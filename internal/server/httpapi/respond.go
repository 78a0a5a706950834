// Package httpapi is the REST surface of the server: auth, direct-upload
// credentials, server-mediated uploads, upload metadata, health and metrics.
package httpapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/dmitrijs2005/lessonvault/internal/common"
)

// errorBody is the shape of every failed response.
type errorBody struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
	Code    string `json:"code"`
}

type apiError struct {
	status  int
	code    string
	message string
}

// classify maps a service error onto an HTTP status, a machine code and a
// message safe to show to users.
func classify(err error) apiError {
	var maxBytes *http.MaxBytesError
	switch {
	case errors.As(err, &maxBytes):
		return apiError{http.StatusRequestEntityTooLarge, "TOO_LARGE", "Request body is too large"}
	case errors.Is(err, common.ErrorValidation):
		return apiError{http.StatusBadRequest, "VALIDATION_ERROR", err.Error()}
	case errors.Is(err, common.ErrTokenExpired), errors.Is(err, common.ErrRefreshTokenExpired):
		return apiError{http.StatusUnauthorized, "TOKEN_EXPIRED", "Token has expired"}
	case errors.Is(err, common.ErrorUnauthorized), errors.Is(err, common.ErrInvalidToken):
		return apiError{http.StatusUnauthorized, "UNAUTHORIZED", "Authentication required"}
	case errors.Is(err, common.ErrorNotFound):
		return apiError{http.StatusNotFound, "NOT_FOUND", "Not found"}
	case errors.Is(err, common.ErrorAlreadyExists):
		return apiError{http.StatusConflict, "ALREADY_EXISTS", "Already exists"}
	case errors.Is(err, common.ErrStorageNotConfigured):
		return apiError{http.StatusInternalServerError, "STORAGE_NOT_CONFIGURED", "Storage credentials are not configured on the server"}
	case errors.Is(err, common.ErrStorageCredentials):
		return apiError{http.StatusInternalServerError, "STORAGE_CREDENTIALS", "Storage rejected the server credentials"}
	case errors.Is(err, common.ErrStorageBucket):
		return apiError{http.StatusInternalServerError, "STORAGE_BUCKET", "Storage bucket is missing or access is denied"}
	case errors.Is(err, common.ErrStorageNetwork):
		return apiError{http.StatusServiceUnavailable, "STORAGE_NETWORK", "Storage is unreachable, try again later"}
	case errors.Is(err, common.ErrStorageFailure):
		return apiError{http.StatusInternalServerError, "STORAGE_FAILURE", "Upload to storage failed"}
	default:
		return apiError{http.StatusInternalServerError, "INTERNAL_ERROR", "Internal server error"}
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, err error) {
	e := classify(err)
	writeJSON(w, e.status, errorBody{Error: e.message, Code: e.code})
}

// decodeJSON reads a JSON body into dst. Unknown fields are tolerated.
func decodeJSON(r *http.Request, dst any) error {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		var maxBytes *http.MaxBytesError
		if errors.As(err, &maxBytes) {
			return err
		}
		return fmt.Errorf("%w: malformed JSON body", common.ErrorValidation)
	}
	return nil
}
