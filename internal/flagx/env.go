package flagx

import (
	"os"
	"strconv"
	"time"
)

// lookupEnv is a test seam for os.LookupEnv.
var lookupEnv = os.LookupEnv

// EnvString returns the value of the first non-empty variable among names.
func EnvString(names ...string) (string, bool) {
	for _, n := range names {
		if v, ok := lookupEnv(n); ok && v != "" {
			return v, true
		}
	}
	return "", false
}

// SetString overwrites *dst when one of names is set.
func SetString(dst *string, names ...string) {
	if v, ok := EnvString(names...); ok {
		*dst = v
	}
}

// SetInt64 overwrites *dst when one of names holds a valid integer.
// Malformed values are ignored and the previous value is kept.
func SetInt64(dst *int64, names ...string) {
	if v, ok := EnvString(names...); ok {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			*dst = n
		}
	}
}

// SetDuration overwrites *dst when one of names holds a value accepted by
// time.ParseDuration ("90s", "5m").
func SetDuration(dst *time.Duration, names ...string) {
	if v, ok := EnvString(names...); ok {
		if d, err := time.ParseDuration(v); err == nil {
			*dst = d
		}
	}
}
