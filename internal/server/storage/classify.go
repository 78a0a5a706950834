package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/lessonvault/internal/common"
)

var (
	credentialMarkers = []string{
		"invalidaccesskeyid", "signaturedoesnotmatch", "credential", "access key", "expiredtoken",
	}
	bucketMarkers = []string{
		"nosuchbucket", "bucket", "accessdenied", "access denied", "forbidden",
	}
	networkMarkers = []string{
		"timeout", "connection refused", "connection reset", "no such host", "dial tcp",
		"network", "broken pipe", "unexpected eof", "tls handshake",
	}
)

// ClassifyError maps a backend error onto one of the storage sentinels by
// inspecting its message. Credential markers are checked before bucket ones
// because S3 reports bad keys with messages that also mention access.
// Errors that are already classified, and context errors, pass through.
func ClassifyError(err error) error {
	if err == nil {
		return nil
	}
	for _, known := range []error{
		common.ErrStorageNotConfigured, common.ErrStorageCredentials, common.ErrStorageBucket,
		common.ErrStorageNetwork, common.ErrStorageFailure, context.Canceled,
	} {
		if errors.Is(err, known) {
			return err
		}
	}

	msg := strings.ToLower(err.Error())
	switch {
	case containsAny(msg, credentialMarkers):
		return fmt.Errorf("%w: %v", common.ErrStorageCredentials, err)
	case containsAny(msg, bucketMarkers):
		return fmt.Errorf("%w: %v", common.ErrStorageBucket, err)
	case errors.Is(err, context.DeadlineExceeded) || containsAny(msg, networkMarkers):
		return fmt.Errorf("%w: %v", common.ErrStorageNetwork, err)
	default:
		return fmt.Errorf("%w: %v", common.ErrStorageFailure, err)
	}
}

func containsAny(s string, subs []string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
