package api

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/dmitrijs2005/lessonvault/internal/common"
)

var ErrUnavailable = errors.New("server unavailable")

// Error is a non-2xx answer from the server.
type Error struct {
	Status  int
	Code    string
	Message string
}

func (e *Error) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("server returned %d", e.Status)
	}
	return fmt.Sprintf("%s (%d %s)", e.Message, e.Status, e.Code)
}

func (e *Error) Unwrap() error {
	switch {
	case e.Code == "TOKEN_EXPIRED":
		return common.ErrTokenExpired
	case e.Status == http.StatusUnauthorized:
		return common.ErrorUnauthorized
	case e.Status == http.StatusBadRequest:
		return common.ErrorValidation
	case e.Status == http.StatusNotFound:
		return common.ErrorNotFound
	case e.Status == http.StatusConflict:
		return common.ErrorAlreadyExists
	case e.Code == "STORAGE_NOT_CONFIGURED":
		return common.ErrStorageNotConfigured
	default:
		return nil
	}
}
