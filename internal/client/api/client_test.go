package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/dmitrijs2005/lessonvault/internal/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func loggedIn(t *testing.T, srv *httptest.Server) *Client {
	t.Helper()
	c := New(srv.URL, srv.Client())
	c.setTokens("access-1", "refresh-1")
	return c
}

func TestLogin_StoresTokens(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/auth/login", r.URL.Path)
		var body credentialsRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		if body.Password != "secret-pass" {
			writeJSON(w, http.StatusUnauthorized, map[string]any{"success": false, "error": "invalid credentials", "code": "UNAUTHORIZED"})
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"success": true, "access_token": "a", "refresh_token": "r"})
	}))
	defer srv.Close()

	c := New(srv.URL+"/", srv.Client())
	assert.False(t, c.LoggedIn())

	err := c.Login(context.Background(), "alice", "wrong")
	require.ErrorIs(t, err, common.ErrorUnauthorized)
	var apiErr *Error
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, "UNAUTHORIZED", apiErr.Code)
	assert.False(t, c.LoggedIn())

	require.NoError(t, c.Login(context.Background(), "alice", "secret-pass"))
	assert.True(t, c.LoggedIn())
	access, refresh := c.tokens()
	assert.Equal(t, "a", access)
	assert.Equal(t, "r", refresh)
}

func TestRegister(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/auth/register", r.URL.Path)
		writeJSON(w, http.StatusCreated, map[string]any{"success": true, "id": "u-1", "username": "alice"})
	}))
	defer srv.Close()

	id, err := New(srv.URL, srv.Client()).Register(context.Background(), "alice", "secret-pass")
	require.NoError(t, err)
	assert.Equal(t, "u-1", id)
}

func TestAuthenticatedCall_WithoutLogin(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
	}))
	defer srv.Close()

	_, err := New(srv.URL, srv.Client()).ListRecords(context.Background())
	require.ErrorIs(t, err, common.ErrorUnauthorized)
	assert.Zero(t, hits.Load())
}

func TestRequestCredential_RefreshesExpiredToken(t *testing.T) {
	var credentialCalls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/auth/refresh":
			var body map[string]string
			require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
			assert.Equal(t, "refresh-1", body["refresh_token"])
			writeJSON(w, http.StatusOK, map[string]any{"success": true, "access_token": "access-2", "refresh_token": "refresh-2"})
		case "/api/uploads/credentials":
			credentialCalls.Add(1)
			if r.Header.Get("Authorization") != "Bearer access-2" {
				writeJSON(w, http.StatusUnauthorized, map[string]any{"success": false, "error": "token expired", "code": "TOKEN_EXPIRED"})
				return
			}
			var body CredentialRequest
			require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
			assert.Equal(t, "lecture.mp4", body.FileName)
			assert.Equal(t, "videos", body.Folder)
			writeJSON(w, http.StatusOK, map[string]any{
				"success": true, "uploadUrl": "https://s3/put", "url": "https://s3/b/videos/1-ab-lecture.mp4", "key": "videos/1-ab-lecture.mp4",
				"fileName": "lecture.mp4", "contentType": "video/mp4", "expiresAt": "2025-01-01T00:05:00Z",
			})
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	c := loggedIn(t, srv)
	cred, err := c.RequestCredential(context.Background(), CredentialRequest{FileName: "lecture.mp4", ContentType: "video/mp4", Folder: "videos"})
	require.NoError(t, err)
	assert.Equal(t, "https://s3/put", cred.UploadURL)
	assert.Equal(t, "https://s3/b/videos/1-ab-lecture.mp4", cred.URL)
	assert.Equal(t, "videos/1-ab-lecture.mp4", cred.Key)
	assert.Equal(t, 2025, cred.ExpiresAt.Year())
	assert.Equal(t, int32(2), credentialCalls.Load())

	access, refresh := c.tokens()
	assert.Equal(t, "access-2", access)
	assert.Equal(t, "refresh-2", refresh)
}

func TestRefreshFailure_ClearsTokens(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/api/auth/refresh" {
			writeJSON(w, http.StatusUnauthorized, map[string]any{"success": false, "error": "refresh token expired", "code": "TOKEN_EXPIRED"})
			return
		}
		writeJSON(w, http.StatusUnauthorized, map[string]any{"success": false, "error": "token expired", "code": "TOKEN_EXPIRED"})
	}))
	defer srv.Close()

	c := loggedIn(t, srv)
	_, err := c.ListRecords(context.Background())
	require.ErrorIs(t, err, common.ErrTokenExpired)
	assert.False(t, c.LoggedIn())
}

func TestErrorMapping(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		want   error
	}{
		{"validation", http.StatusBadRequest, `{"success":false,"error":"fileName is required","code":"VALIDATION_ERROR"}`, common.ErrorValidation},
		{"not found", http.StatusNotFound, `{"success":false,"error":"not found","code":"NOT_FOUND"}`, common.ErrorNotFound},
		{"conflict", http.StatusConflict, `{"success":false,"error":"exists","code":"ALREADY_EXISTS"}`, common.ErrorAlreadyExists},
		{"storage", http.StatusInternalServerError, `{"success":false,"error":"not configured","code":"STORAGE_NOT_CONFIGURED"}`, common.ErrStorageNotConfigured},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(tt.status)
				_, _ = io.WriteString(w, tt.body)
			}))
			defer srv.Close()

			_, err := loggedIn(t, srv).GetRecord(context.Background(), "x")
			require.ErrorIs(t, err, tt.want)
			var apiErr *Error
			require.ErrorAs(t, err, &apiErr)
			assert.Equal(t, tt.status, apiErr.Status)
		})
	}

	t.Run("plain text body", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "bad gateway", http.StatusBadGateway)
		}))
		defer srv.Close()

		_, err := loggedIn(t, srv).ListRecords(context.Background())
		var apiErr *Error
		require.ErrorAs(t, err, &apiErr)
		assert.Equal(t, "bad gateway", apiErr.Message)
		assert.Nil(t, errors.Unwrap(err))
	})
}

func TestServerUnavailable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL
	srv.Close()

	_, err := New(url, nil).Register(context.Background(), "a", "b")
	require.ErrorIs(t, err, ErrUnavailable)
}

func TestUploadViaServer_StreamsMultipart(t *testing.T) {
	content := strings.Repeat("lesson-bytes ", 1000)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/uploads", r.URL.Path)
		assert.Equal(t, "Bearer access-1", r.Header.Get("Authorization"))

		require.NoError(t, r.ParseMultipartForm(1<<10))
		assert.Equal(t, "videos", r.FormValue("folder"))

		f, hdr, err := r.FormFile("file")
		require.NoError(t, err)
		defer f.Close()
		b, err := io.ReadAll(f)
		require.NoError(t, err)
		assert.Equal(t, content, string(b))
		assert.Equal(t, "notes.txt", hdr.Filename)
		assert.Equal(t, "text/plain", hdr.Header.Get("Content-Type"))

		writeJSON(w, http.StatusOK, map[string]any{
			"success": true, "url": "https://cdn/videos/k", "key": "videos/k",
			"fileName": hdr.Filename, "fileSize": len(b), "fileType": "text/plain", "mode": "buffered",
		})
	}))
	defer srv.Close()

	res, err := loggedIn(t, srv).UploadViaServer(context.Background(), ServerUpload{
		FileName:    "notes.txt",
		ContentType: "text/plain",
		Folder:      "videos",
		Body:        strings.NewReader(content),
	})
	require.NoError(t, err)
	assert.Equal(t, "videos/k", res.Key)
	assert.Equal(t, "https://cdn/videos/k", res.URL)
	assert.Equal(t, int64(len(content)), res.FileSize)
	assert.Equal(t, "buffered", res.Mode)
}

func TestUploadViaServer_ServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusServiceUnavailable, map[string]any{"success": false, "error": "storage unreachable", "code": "STORAGE_NETWORK"})
	}))
	defer srv.Close()

	_, err := loggedIn(t, srv).UploadViaServer(context.Background(), ServerUpload{
		FileName: "big.bin",
		Body:     strings.NewReader(strings.Repeat("x", 64)),
	})
	var apiErr *Error
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, "STORAGE_NETWORK", apiErr.Code)
	assert.Equal(t, http.StatusServiceUnavailable, apiErr.Status)
}

func TestRecords(t *testing.T) {
	var lastUpdate map[string]any

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rec := map[string]any{"id": "r1", "filename": "a.mp4", "original_name": "a.mp4", "file_size": 10,
			"file_type": "video/mp4", "s3_key": "uploads/a", "s3_url": "https://cdn/uploads/a", "status": "completed"}
		switch {
		case r.Method == http.MethodPost && r.URL.Path == "/api/files":
			var in RecordInput
			require.NoError(t, json.NewDecoder(r.Body).Decode(&in))
			assert.Equal(t, "uploads/a", in.S3Key)
			writeJSON(w, http.StatusCreated, map[string]any{"success": true, "file": rec})
		case r.Method == http.MethodGet && r.URL.Path == "/api/files":
			writeJSON(w, http.StatusOK, map[string]any{"success": true, "files": []any{rec}})
		case r.Method == http.MethodPut && r.URL.Path == "/api/files/r1":
			lastUpdate = map[string]any{}
			require.NoError(t, json.NewDecoder(r.Body).Decode(&lastUpdate))
			writeJSON(w, http.StatusOK, map[string]any{"success": true, "file": rec})
		case r.Method == http.MethodDelete && r.URL.Path == "/api/files/r1":
			writeJSON(w, http.StatusOK, map[string]any{"success": true})
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	c := loggedIn(t, srv)
	ctx := context.Background()

	saved, err := c.SaveRecord(ctx, RecordInput{S3Key: "uploads/a", S3URL: "https://cdn/uploads/a", FileSize: 10})
	require.NoError(t, err)
	assert.Equal(t, "r1", saved.ID)

	list, err := c.ListRecords(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, int64(10), list[0].FileSize)

	name := "Intro"
	_, err = c.UpdateRecord(ctx, "r1", RecordPatch{OriginalName: &name})
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"original_name": "Intro"}, lastUpdate)

	_, err = c.UpdateRecord(ctx, "r1", RecordPatch{ClearLesson: true})
	require.NoError(t, err)
	v, ok := lastUpdate["lesson_id"]
	assert.True(t, ok)
	assert.Nil(t, v)

	require.NoError(t, c.DeleteRecord(ctx, "r1"))
}
