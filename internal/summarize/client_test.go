package summarize

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestSummarizeRequestShape(t *testing.T) {
	var gotAuth string
	var gotReq chatRequest

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/v1/chat/completions", r.URL.Path)
		require.Equal(t, "application/json", r.Header.Get("Content-Type"))
		gotAuth = r.Header.Get("Authorization")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotReq))

		_, _ = w.Write([]byte(`{"choices":[{"message":{"role":"assistant","content":"  Riassunto conciso.  "}}]}`))
	}))
	defer srv.Close()

	client := NewClient(srv.URL+"/v1/", "gpt-4o-mini", "sk-test", time.Second)

	got, err := client.Summarize(context.Background(), "testo dell'atto")
	require.NoError(t, err)
	require.Equal(t, "Riassunto conciso.", got, "reply is trimmed")

	require.Equal(t, "Bearer sk-test", gotAuth)
	require.Equal(t, "gpt-4o-mini", gotReq.Model)
	require.Len(t, gotReq.Messages, 2)
	require.Equal(t, "system", gotReq.Messages[0].Role)
	require.Equal(t, instruction, gotReq.Messages[0].Content)
	require.Equal(t, "user", gotReq.Messages[1].Role)
	require.Equal(t, "testo dell'atto", gotReq.Messages[1].Content)
}

func TestSummarizeNonOKStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	client := NewClient(srv.URL, "gpt-4o-mini", "sk-test", time.Second)

	_, err := client.Summarize(context.Background(), "testo")
	require.ErrorContains(t, err, "unexpected status 429")
}

func TestSummarizeEmptyChoices(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"choices":[]}`))
	}))
	defer srv.Close()

	client := NewClient(srv.URL, "gpt-4o-mini", "sk-test", time.Second)

	_, err := client.Summarize(context.Background(), "testo")
	require.ErrorContains(t, err, "empty response")
}
