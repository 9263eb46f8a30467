package telegram

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSendMessage(t *testing.T) {
	var gotPath, gotBody string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		body, _ := io.ReadAll(r.Body)
		gotBody = string(body)
		w.Write([]byte(`{"ok": true}`))
	}))
	defer server.Close()

	client := NewClient(server.URL, "bot-token", 5*time.Second)
	err := client.SendMessage(context.Background(), 42, "Pay In -> RUB: 1000")
	require.NoError(t, err)

	assert.Equal(t, "/botbot-token/sendMessage", gotPath)
	assert.JSONEq(t, `{"chat_id": 42, "text": "Pay In -> RUB: 1000"}`, gotBody)
}

func TestSendMessageAPIRejection(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"ok": false, "description": "Bad Request: chat not found"}`))
	}))
	defer server.Close()

	client := NewClient(server.URL, "bot-token", 5*time.Second)
	err := client.SendMessage(context.Background(), 42, "hello")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "chat not found")
}
