package mail

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/nimbusapp/nimbus-api/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResendMailer_Send(t *testing.T) {
	var gotAuth string
	var gotBody map[string]interface{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/emails", r.URL.Path)
		gotAuth = r.Header.Get("Authorization")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	m := NewResendMailer(&config.Config{
		ResendURL:    srv.URL,
		ResendAPIKey: "rk-test",
		MailFrom:     "noreply@example.com",
	})
	err := m.Send(context.Background(), "a@x.com", "Your verification code", "<div>4821</div>")

	require.NoError(t, err)
	assert.Equal(t, "Bearer rk-test", gotAuth)
	assert.Equal(t, "noreply@example.com", gotBody["from"])
	assert.Equal(t, []interface{}{"a@x.com"}, gotBody["to"])
	assert.Equal(t, "Your verification code", gotBody["subject"])
}

func TestResendMailer_RejectionSurfacesAPIMessage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		json.NewEncoder(w).Encode(map[string]string{"message": "API key is invalid"})
	}))
	defer srv.Close()

	m := NewResendMailer(&config.Config{ResendURL: srv.URL, ResendAPIKey: "bad", MailFrom: "noreply@example.com"})
	err := m.Send(context.Background(), "a@x.com", "s", "<div></div>")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "API key is invalid")
}

func TestNew_SelectsBackendByConfig(t *testing.T) {
	smtp := New(&config.Config{MailProvider: "smtp", SMTPHost: "localhost", SMTPPort: 1025})
	_, ok := smtp.(*SMTPMailer)
	assert.True(t, ok)

	resend := New(&config.Config{MailProvider: "resend"})
	_, ok = resend.(*ResendMailer)
	assert.True(t, ok)
}
