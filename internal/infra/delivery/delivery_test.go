package delivery

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEmailJSSender_SendCode(t *testing.T) {
	var got emailJSRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	}))
	defer srv.Close()

	s := NewEmailJSSender(EmailJSConfig{Endpoint: srv.URL, ServiceID: "svc", TemplateID: "tpl", PublicKey: "pub"}, srv.Client())
	err := s.SendCode(context.Background(), "jane@example.com", "123456", 15*time.Minute)

	require.NoError(t, err)
	assert.Equal(t, "svc", got.ServiceID)
	assert.Equal(t, "pub", got.UserID)
	assert.Equal(t, "123456", got.TemplateParams["otp"])
	assert.Equal(t, "jane", got.TemplateParams["to_name"])
	assert.Equal(t, "15 minutes", got.TemplateParams["expiry"])
}

func TestEmailJSSender_Failure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "The Public Key is invalid", http.StatusBadRequest)
	}))
	defer srv.Close()

	s := NewEmailJSSender(EmailJSConfig{Endpoint: srv.URL, ServiceID: "svc", TemplateID: "tpl", PublicKey: "bad"}, srv.Client())
	err := s.SendCode(context.Background(), "jane@example.com", "123456", time.Minute)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "400")
	assert.Contains(t, err.Error(), "Public Key is invalid")
}

func TestEmailJSSender_NotConfigured(t *testing.T) {
	s := NewEmailJSSender(EmailJSConfig{}, nil)
	assert.ErrorIs(t, s.SendCode(context.Background(), "a@b.c", "123456", time.Minute), ErrNotConfigured)
	assert.ErrorIs(t, LogSender{}.SendCode(context.Background(), "a@b.c", "123456", time.Minute), ErrNotConfigured)
}
