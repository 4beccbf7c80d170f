package telegram

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
)

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestSendSuccess(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/bottest-token/sendMessage", r.URL.Path)
		require.Equal(t, "application/json", r.Header.Get("Content-Type"))

		var payload map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&payload))
		require.Equal(t, "chat-123", payload["chat_id"])
		require.Equal(t, "hola", payload["text"])
		require.Equal(t, "Markdown", payload["parse_mode"])

		_, _ = w.Write([]byte(`{"ok":true,"result":{"message_id":42}}`))
	}))
	defer server.Close()

	client, err := NewClient("test-token", "chat-123", server.URL, newTestLogger())
	require.NoError(t, err)
	require.NoError(t, client.Send(context.Background(), "hola"))
	require.Equal(t, "telegram", client.Name())
}

func TestSendAPIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"ok":false,"description":"Unauthorized"}`))
	}))
	defer server.Close()

	client, err := NewClient("bad-token", "chat-123", server.URL, newTestLogger())
	require.NoError(t, err)

	err = client.Send(context.Background(), "hola")
	require.Error(t, err)
	require.Contains(t, err.Error(), "Unauthorized")
}

func TestNewClientValidation(t *testing.T) {
	_, err := NewClient("", "chat", "", newTestLogger())
	require.Error(t, err)

	_, err = NewClient("token", " ", "", newTestLogger())
	require.Error(t, err)
}
