package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"

	"github.com/dmitrijs2005/lessonvault/internal/common"
)

type Client struct {
	baseURL string
	http    *http.Client

	mu           sync.Mutex
	accessToken  string
	refreshToken string
}

// New returns a Client for the server at baseURL. A nil httpClient means
// http.DefaultClient.
func New(baseURL string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Client{baseURL: strings.TrimRight(baseURL, "/"), http: httpClient}
}

// LoggedIn reports whether the client holds an access token.
func (c *Client) LoggedIn() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.accessToken != ""
}

func (c *Client) tokens() (string, string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.accessToken, c.refreshToken
}

func (c *Client) setTokens(access, refresh string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.accessToken = access
	c.refreshToken = refresh
}

type credentialsRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type tokenResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

type registerResponse struct {
	ID string `json:"id"`
}

// Register creates an account and returns its id.
func (c *Client) Register(ctx context.Context, username, password string) (string, error) {
	var resp registerResponse
	err := c.doJSON(ctx, http.MethodPost, "/api/auth/register", credentialsRequest{username, password}, &resp, false)
	if err != nil {
		return "", err
	}
	return resp.ID, nil
}

// Login authenticates and stores the issued token pair for later calls.
func (c *Client) Login(ctx context.Context, username, password string) error {
	var resp tokenResponse
	err := c.doJSON(ctx, http.MethodPost, "/api/auth/login", credentialsRequest{username, password}, &resp, false)
	if err != nil {
		return err
	}
	c.setTokens(resp.AccessToken, resp.RefreshToken)
	return nil
}

func (c *Client) refresh(ctx context.Context) error {
	_, refresh := c.tokens()
	if refresh == "" {
		return common.ErrorUnauthorized
	}

	var resp tokenResponse
	body := map[string]string{"refresh_token": refresh}
	if err := c.doJSON(ctx, http.MethodPost, "/api/auth/refresh", body, &resp, false); err != nil {
		c.setTokens("", "")
		return err
	}
	c.setTokens(resp.AccessToken, resp.RefreshToken)
	return nil
}

// doJSON sends in as JSON (when non-nil) and decodes a 2xx answer into out
// (when non-nil). Authenticated calls retry once after a token refresh.
func (c *Client) doJSON(ctx context.Context, method, path string, in, out any, auth bool) error {
	var payload []byte
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		payload = b
	}

	newReq := func() (*http.Request, error) {
		var body io.Reader
		if payload != nil {
			body = bytes.NewReader(payload)
		}
		req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
		if err != nil {
			return nil, err
		}
		if payload != nil {
			req.Header.Set("Content-Type", "application/json")
		}
		return req, nil
	}

	req, err := newReq()
	if err != nil {
		return err
	}
	resp, err := c.send(req, auth)
	if err != nil {
		return err
	}

	if auth && isTokenExpired(resp) {
		drain(resp)
		if err := c.refresh(ctx); err != nil {
			return err
		}
		if req, err = newReq(); err != nil {
			return err
		}
		if resp, err = c.send(req, auth); err != nil {
			return err
		}
	}

	return decode(resp, out)
}

func (c *Client) send(req *http.Request, auth bool) (*http.Response, error) {
	if auth {
		access, _ := c.tokens()
		if access == "" {
			return nil, common.ErrorUnauthorized
		}
		req.Header.Set(common.AuthorizationHeaderName, common.BearerPrefix+access)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		if ctxErr := req.Context().Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return resp, nil
}

func isTokenExpired(resp *http.Response) bool {
	if resp.StatusCode != http.StatusUnauthorized {
		return false
	}
	b, err := io.ReadAll(io.LimitReader(resp.Body, 4<<10))
	resp.Body = io.NopCloser(bytes.NewReader(b))
	if err != nil {
		return false
	}
	var eb errorBody
	_ = json.Unmarshal(b, &eb)
	return eb.Code == "TOKEN_EXPIRED"
}

type errorBody struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

func decode(resp *http.Response, out any) error {
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 4<<10))
		var eb errorBody
		if err := json.Unmarshal(b, &eb); err != nil || eb.Error == "" {
			eb.Error = strings.TrimSpace(string(b))
		}
		return &Error{Status: resp.StatusCode, Code: eb.Code, Message: eb.Error}
	}

	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func drain(resp *http.Response) {
	_, _ = io.Copy(io.Discard, resp.Body)
	_ = resp.Body.Close()
}

func pathEscape(id string) string {
	return url.PathEscape(id)
}
