// Package api is the HTTP client the CLI uses to talk to the lessonvault
// server.
//
// # Overview
//
// Client wraps a base URL and an *http.Client. After Login it attaches the
// access token to every call as "Authorization: Bearer <token>" and, when the
// server answers 401 with code TOKEN_EXPIRED, exchanges the refresh token once
// and repeats the request.
//
// # Error Handling
//
// Non-2xx answers are returned as *Error, which unwraps to the matching
// sentinel from internal/common (ErrorValidation, ErrorUnauthorized,
// ErrorNotFound, ErrorAlreadyExists, ErrTokenExpired) so callers can use
// errors.Is. Transport failures are wrapped with ErrUnavailable.
//
// # Streaming
//
// UploadViaServer produces its multipart body through io.Pipe, so a file is
// read from disk while it is being sent and is never held in memory.
package api
