package identity

import (
	"context"
	"net/http"
)

// Factory builds request-scoped provider handles. Each incoming request gets
// its own RequestClient bound to that request's cookie context; nothing
// mutable is shared across requests beyond the underlying HTTP transport.
type Factory struct {
	client     *Client
	cookieName string
}

// NewFactory wraps a client; cookieName is the cookie carrying the access token.
func NewFactory(client *Client, cookieName string) *Factory {
	return &Factory{client: client, cookieName: cookieName}
}

// ForRequest captures the access token from the request's cookies.
func (f *Factory) ForRequest(r *http.Request) *RequestClient {
	var token string
	if ck, err := r.Cookie(f.cookieName); err == nil {
		token = ck.Value
	}
	return &RequestClient{client: f.client, token: token}
}

// RequestClient is a provider handle bound to one request's session.
type RequestClient struct {
	client *Client
	token  string
}

// HasSession reports whether the request carried a session token at all.
// It says nothing about the token's validity; User does that.
func (rc *RequestClient) HasSession() bool { return rc.token != "" }

// Token exposes the raw access token for calls made through the base client.
func (rc *RequestClient) Token() string { return rc.token }

// User resolves the current user for this request's session.
func (rc *RequestClient) User(ctx context.Context) (*User, error) {
	return rc.client.GetUser(ctx, rc.token)
}

// SignOut revokes this request's session.
func (rc *RequestClient) SignOut(ctx context.Context) error {
	return rc.client.SignOut(ctx, rc.token)
}
