package identity

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/nimbusapp/nimbus-api/internal/config"
)

// Client talks to the hosted identity provider over its REST interface.
// Every call either returns a decoded payload or a *Error whose message is
// safe to forward to the user. The client holds no per-request state; access
// tokens are passed explicitly.
type Client struct {
	baseURL    string
	anonKey    string
	serviceKey string
	httpClient *http.Client
}

func NewClient(cfg *config.Config) *Client {
	return &Client{
		baseURL:    cfg.IdentityURL,
		anonKey:    cfg.IdentityAnonKey,
		serviceKey: cfg.IdentityServiceKey,
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
}

// SignUp creates an account. A duplicate email yields a user without a
// session in the result rather than an error, matching provider behavior.
func (c *Client) SignUp(ctx context.Context, params SignUpParams) (*SignUpResult, error) {
	var out SignUpResult
	if err := c.do(ctx, http.MethodPost, "/signup", "", params, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// SignInWithPassword exchanges credentials for a session.
func (c *Client) SignInWithPassword(ctx context.Context, email, password string) (*Session, error) {
	body := map[string]string{"email": email, "password": password}
	var out Session
	if err := c.do(ctx, http.MethodPost, "/token?grant_type=password", "", body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// SignOut revokes the session behind the given access token.
func (c *Client) SignOut(ctx context.Context, accessToken string) error {
	return c.do(ctx, http.MethodPost, "/logout", accessToken, nil, nil)
}

// GetUser fetches the current user for the given access token. The sign-in
// response does not carry custom attributes reliably, so callers re-fetch.
func (c *Client) GetUser(ctx context.Context, accessToken string) (*User, error) {
	var out User
	if err := c.do(ctx, http.MethodGet, "/user", accessToken, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// UpdateUser applies a partial update to the current user. Email changes
// trigger a provider-emailed confirmation link landing at params.RedirectTo.
func (c *Client) UpdateUser(ctx context.Context, accessToken string, params UpdateUserParams) (*User, error) {
	path := "/user"
	if params.RedirectTo != "" {
		path += "?redirect_to=" + url.QueryEscape(params.RedirectTo)
	}
	var out User
	if err := c.do(ctx, http.MethodPut, path, accessToken, params, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ResetPasswordForEmail asks the provider to email a recovery link. This is
// the one flow where the provider's own email delivery is used.
func (c *Client) ResetPasswordForEmail(ctx context.Context, email, redirectTo string) error {
	path := "/recover"
	if redirectTo != "" {
		path += "?redirect_to=" + url.QueryEscape(redirectTo)
	}
	return c.do(ctx, http.MethodPost, path, "", map[string]string{"email": email}, nil)
}

// ExchangeCodeForSession trades a one-time recovery/confirmation code for a
// session. The code is single-use; a second exchange fails.
func (c *Client) ExchangeCodeForSession(ctx context.Context, code string) (*Session, error) {
	body := map[string]string{"auth_code": code}
	var out Session
	if err := c.do(ctx, http.MethodPost, "/token?grant_type=authorization_code", "", body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// VerifyTokenHash consumes a provider-emailed one-time token of the given
// type (e.g. "email_change", "recovery").
func (c *Client) VerifyTokenHash(ctx context.Context, tokenHash, tokenType string) (*Session, error) {
	body := map[string]string{"token_hash": tokenHash, "type": tokenType}
	var out Session
	if err := c.do(ctx, http.MethodPost, "/verify", "", body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) do(ctx context.Context, method, path, accessToken string, in, out interface{}) error {
	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		body = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("apikey", c.anonKey)
	if accessToken != "" {
		req.Header.Set("Authorization", "Bearer "+accessToken)
	} else {
		req.Header.Set("Authorization", "Bearer "+c.anonKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("identity provider unreachable: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		perr := &Error{Status: resp.StatusCode}
		if err := json.NewDecoder(resp.Body).Decode(perr); err != nil || perr.Message == "" {
			perr.Message = http.StatusText(resp.StatusCode)
		}
		return perr
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("decode response: %w", err)
		}
	}
	return nil
}
