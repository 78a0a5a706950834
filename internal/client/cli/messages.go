package cli

import (
	"errors"

	"github.com/dmitrijs2005/lessonvault/internal/client/api"
	"github.com/dmitrijs2005/lessonvault/internal/client/transfer"
	"github.com/dmitrijs2005/lessonvault/internal/common"
)

// describe turns err into a message fit for the prompt.
func describe(err error) string {
	var apiErr *api.Error
	switch {
	case errors.Is(err, api.ErrUnavailable):
		return "server is unreachable, check the address and try again"
	case errors.Is(err, common.ErrTokenExpired):
		return "session expired, please log in again"
	case errors.Is(err, transfer.ErrMetadata):
		return err.Error()
	case errors.As(err, &apiErr) && apiErr.Message != "":
		return apiErr.Message
	case errors.Is(err, common.ErrorUnauthorized):
		return "please log in first"
	default:
		return err.Error()
	}
}
