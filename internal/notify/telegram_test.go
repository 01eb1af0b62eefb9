package notify

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestTelegramProvider(t *testing.T, handler http.HandlerFunc) *TelegramProvider {
	t.Helper()

	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	p := NewTelegramProvider("bot-token", "-100123", zap.NewNop())
	p.baseURL = srv.URL
	return p
}

func TestTelegramNotifySendsFormFields(t *testing.T) {
	var gotPath string
	var gotForm map[string]string

	p := newTestTelegramProvider(t, func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		gotPath = r.URL.Path
		gotForm = map[string]string{
			"chat_id":                  r.PostForm.Get("chat_id"),
			"text":                     r.PostForm.Get("text"),
			"parse_mode":               r.PostForm.Get("parse_mode"),
			"disable_web_page_preview": r.PostForm.Get("disable_web_page_preview"),
		}
		_, _ = w.Write([]byte(`{"ok":true}`))
	})

	delivered, err := p.Notify(context.Background(), sampleRecord())
	require.NoError(t, err)
	require.True(t, delivered)

	require.Equal(t, "/botbot-token/sendMessage", gotPath)
	require.Equal(t, "-100123", gotForm["chat_id"])
	require.Equal(t, "Markdown", gotForm["parse_mode"])
	require.Equal(t, "true", gotForm["disable_web_page_preview"])
	require.Contains(t, gotForm["text"], "Nuova Pubblicazione")
}

func TestTelegramNotifyRejectedMessage(t *testing.T) {
	p := newTestTelegramProvider(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"ok":false,"description":"Bad Request: chat not found"}`))
	})

	delivered, err := p.Notify(context.Background(), sampleRecord())
	require.NoError(t, err, "a rejected message is not a transport error")
	require.False(t, delivered)
}

func TestTelegramNotifyTransportError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	srv.Close()

	p := NewTelegramProvider("bot-token", "-100123", zap.NewNop())
	p.baseURL = srv.URL

	delivered, err := p.Notify(context.Background(), sampleRecord())
	require.Error(t, err)
	require.False(t, delivered)
}
