package transport

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ttdigital/ttchat/internal/config"
	"github.com/ttdigital/ttchat/internal/domain"
	"github.com/ttdigital/ttchat/internal/logging"
)

func testWebhook(t *testing.T, handler http.HandlerFunc, mutate func(*config.WebhookConfig)) *Webhook {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	cfg := config.Defaults().Webhook
	cfg.URL = srv.URL
	if mutate != nil {
		mutate(&cfg)
	}
	return NewWebhook(cfg, logging.New(nil, "silent"))
}

func boolPtr(b bool) *bool { return &b }

// --- LoadHistory tests ---

func TestLoadHistory_POST(t *testing.T) {
	var gotBody map[string]any
	wh := testWebhook(t, func(rw http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		rw.Write([]byte(`{"data":[{"id":"AIMessage","kwargs":{"content":"ciao"}}]}`))
	}, nil)

	resp, err := wh.LoadHistory(context.Background(), "sess-1")
	require.NoError(t, err)

	assert.Equal(t, "loadPreviousSession", gotBody["action"])
	assert.Equal(t, "sess-1", gotBody["sessionId"])
	require.Len(t, resp.Data, 1)
	assert.Equal(t, domain.StringList{"AIMessage"}, resp.Data[0].ID)
}

func TestLoadHistory_GET(t *testing.T) {
	wh := testWebhook(t, func(rw http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		q := r.URL.Query()
		assert.Equal(t, "loadPreviousSession", q.Get("action"))
		assert.Equal(t, "sess-1", q.Get("sessionId"))
		rw.Write([]byte(`{"data":[]}`))
	}, func(cfg *config.WebhookConfig) { cfg.Method = "GET" })

	resp, err := wh.LoadHistory(context.Background(), "sess-1")
	require.NoError(t, err)
	assert.Empty(t, resp.Data)
}

func TestLoadHistory_CustomSessionKey(t *testing.T) {
	var gotBody map[string]any
	wh := testWebhook(t, func(rw http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		rw.Write([]byte(`{"data":[]}`))
	}, func(cfg *config.WebhookConfig) { cfg.SessionKey = "sid" })

	_, err := wh.LoadHistory(context.Background(), "sess-1")
	require.NoError(t, err)
	assert.Equal(t, "sess-1", gotBody["sid"])
	assert.NotContains(t, gotBody, "sessionId")
}

func TestLoadHistory_ServerError(t *testing.T) {
	wh := testWebhook(t, func(rw http.ResponseWriter, r *http.Request) {
		http.Error(rw, "boom", http.StatusInternalServerError)
	}, nil)

	_, err := wh.LoadHistory(context.Background(), "sess-1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "500")
}

func TestLoadHistory_MalformedJSON(t *testing.T) {
	wh := testWebhook(t, func(rw http.ResponseWriter, r *http.Request) {
		rw.Write([]byte(`{"data": [`))
	}, nil)

	_, err := wh.LoadHistory(context.Background(), "sess-1")
	require.Error(t, err)
}

// --- Send tests ---

func TestSend_POSTBody(t *testing.T) {
	var gotBody map[string]any
	wh := testWebhook(t, func(rw http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		rw.Write([]byte(`{"output":"ok"}`))
	}, nil)

	resp, err := wh.Send(context.Background(), SendRequest{
		Text:          "hello",
		SessionID:     "sess-1",
		Privacy:       boolPtr(true),
		CallbackValue: "cb-42",
	})
	require.NoError(t, err)

	assert.Equal(t, "sendMessage", gotBody["action"])
	assert.Equal(t, "sess-1", gotBody["sessionId"])
	assert.Equal(t, "hello", gotBody["chatInput"])
	assert.Equal(t, true, gotBody["privacy"])
	assert.Equal(t, "cb-42", gotBody["callbackValue"])
	assert.Equal(t, "ok", resp["output"])
}

func TestSend_OmitsOptionalFields(t *testing.T) {
	var gotBody map[string]any
	wh := testWebhook(t, func(rw http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		rw.Write([]byte(`{}`))
	}, nil)

	_, err := wh.Send(context.Background(), SendRequest{Text: "hi", SessionID: "sess-1"})
	require.NoError(t, err)

	assert.NotContains(t, gotBody, "privacy")
	assert.NotContains(t, gotBody, "callbackValue")
}

func TestSend_GETQuery(t *testing.T) {
	wh := testWebhook(t, func(rw http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		q := r.URL.Query()
		assert.Equal(t, "sendMessage", q.Get("action"))
		assert.Equal(t, "hi", q.Get("chatInput"))
		assert.Equal(t, "false", q.Get("privacy"))
		rw.Write([]byte(`{"text":"risposta"}`))
	}, func(cfg *config.WebhookConfig) { cfg.Method = "GET" })

	resp, err := wh.Send(context.Background(), SendRequest{
		Text:      "hi",
		SessionID: "sess-1",
		Privacy:   boolPtr(false),
	})
	require.NoError(t, err)
	assert.Equal(t, "risposta", resp["text"])
}

func TestSend_MultipartWithFiles(t *testing.T) {
	wh := testWebhook(t, func(rw http.ResponseWriter, r *http.Request) {
		// files force POST even with GET configured
		assert.Equal(t, http.MethodPost, r.Method)
		require.NoError(t, r.ParseMultipartForm(1<<20))

		assert.Equal(t, "sendMessage", r.FormValue("action"))
		assert.Equal(t, "con allegato", r.FormValue("chatInput"))

		fhs := r.MultipartForm.File["files"]
		require.Len(t, fhs, 2)
		assert.Equal(t, "a.txt", fhs[0].Filename)
		assert.Equal(t, "b.png", fhs[1].Filename)

		f, err := fhs[0].Open()
		require.NoError(t, err)
		defer f.Close()
		data, err := io.ReadAll(f)
		require.NoError(t, err)
		assert.Equal(t, "file-a", string(data))

		rw.Write([]byte(`{"output":"ricevuto"}`))
	}, func(cfg *config.WebhookConfig) { cfg.Method = "GET" })

	resp, err := wh.Send(context.Background(), SendRequest{
		Text:      "con allegato",
		SessionID: "sess-1",
		Files: []domain.Attachment{
			{Name: "a.txt", Data: []byte("file-a")},
			{Name: "b.png", Data: []byte("file-b")},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, "ricevuto", resp["output"])
}

func TestSend_ExtraHeaders(t *testing.T) {
	wh := testWebhook(t, func(rw http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer tok", r.Header.Get("Authorization"))
		rw.Write([]byte(`{}`))
	}, func(cfg *config.WebhookConfig) {
		cfg.Headers = map[string]string{"Authorization": "Bearer tok"}
	})

	_, err := wh.Send(context.Background(), SendRequest{Text: "hi", SessionID: "s"})
	require.NoError(t, err)
}

func TestSend_ContextCancellation(t *testing.T) {
	wh := testWebhook(t, func(rw http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}, nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := wh.Send(ctx, SendRequest{Text: "hi", SessionID: "s"})
	require.Error(t, err)
}
