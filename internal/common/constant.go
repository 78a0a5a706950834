package common

const (
	// AuthorizationHeaderName carries the bearer access token on API requests.
	AuthorizationHeaderName = "Authorization"

	// BearerPrefix precedes the access token in the Authorization header.
	BearerPrefix = "Bearer "

	// DefaultContentType is used whenever a caller does not supply a MIME type.
	DefaultContentType = "application/octet-stream"

	// DefaultFolder is the object-key prefix used when no folder is requested.
	DefaultFolder = "uploads"

	// MiB is one mebibyte.
	MiB = 1 << 20
)
