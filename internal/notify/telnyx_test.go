package notify

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTelnyxSendSMS(t *testing.T) {
	var got telnyxMessage
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/v2/messages", r.URL.Path)
		assert.Equal(t, "Bearer key-123", r.Header.Get("Authorization"))
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"data":{"id":"msg_1"}}`))
	}))
	defer srv.Close()

	sender, err := NewTelnyxSender(TelnyxConfig{APIKey: "key-123", FromNumber: "+15550001111", BaseURL: srv.URL + "/v2/"})
	require.NoError(t, err)

	require.NoError(t, sender.SendSMS(context.Background(), "+201001234567", "code 123456"))
	assert.Equal(t, telnyxMessage{From: "+15550001111", To: "+201001234567", Text: "code 123456"}, got)
}

func TestTelnyxErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
		_, _ = w.Write([]byte(`{"errors":[{"detail":"invalid to"}]}`))
	}))
	defer srv.Close()

	sender, err := NewTelnyxSender(TelnyxConfig{APIKey: "k", FromNumber: "+1", BaseURL: srv.URL})
	require.NoError(t, err)

	err = sender.SendSMS(context.Background(), "bad", "x")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "422")
	assert.Contains(t, err.Error(), "invalid to")
}

func TestTelnyxRequiresCredentials(t *testing.T) {
	_, err := NewTelnyxSender(TelnyxConfig{FromNumber: "+1"})
	assert.Error(t, err)
	_, err = NewTelnyxSender(TelnyxConfig{APIKey: "k"})
	assert.Error(t, err)
}
