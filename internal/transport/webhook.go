package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"time"

	"github.com/ttdigital/ttchat/internal/config"
	"github.com/ttdigital/ttchat/internal/domain"
	"github.com/ttdigital/ttchat/internal/logging"
)

const (
	actionLoadPreviousSession = "loadPreviousSession"
	actionSendMessage         = "sendMessage"

	// multipartFileField is the form field each uploaded file is appended under.
	multipartFileField = "files"
)

// Webhook is the HTTP implementation of Client.
type Webhook struct {
	cfg    config.WebhookConfig
	client *http.Client
	log    *logging.Logger
}

// NewWebhook creates a webhook transport from configuration.
func NewWebhook(cfg config.WebhookConfig, log *logging.Logger) *Webhook {
	timeout := time.Duration(cfg.TimeoutSeconds) * time.Second
	return &Webhook{
		cfg:    cfg,
		client: &http.Client{Timeout: timeout},
		log:    log.Sub("transport"),
	}
}

// LoadHistory requests the persisted transcript for a session.
func (w *Webhook) LoadHistory(ctx context.Context, sessionID string) (*domain.HistoryResponse, error) {
	body := map[string]any{
		"action":         actionLoadPreviousSession,
		w.cfg.SessionKey: sessionID,
	}

	w.log.Debug().Str("sessionId", sessionID).Msg("loading previous session")

	raw, err := w.do(ctx, body)
	if err != nil {
		return nil, err
	}

	var resp domain.HistoryResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		return nil, fmt.Errorf("decoding history response: %w", err)
	}
	return &resp, nil
}

// Send transmits a message and returns the decoded response body.
func (w *Webhook) Send(ctx context.Context, req SendRequest) (map[string]any, error) {
	body := map[string]any{
		"action":         actionSendMessage,
		w.cfg.SessionKey: req.SessionID,
		w.cfg.InputKey:   req.Text,
	}
	if req.Privacy != nil {
		body["privacy"] = *req.Privacy
	}
	if req.CallbackValue != "" {
		body[w.cfg.CallbackKey] = req.CallbackValue
	}

	w.log.Debug().
		Str("sessionId", req.SessionID).
		Int("files", len(req.Files)).
		Bool("callback", req.CallbackValue != "").
		Msg("sending message")

	var raw []byte
	var err error
	if len(req.Files) > 0 {
		raw, err = w.doMultipart(ctx, body, req.Files)
	} else {
		raw, err = w.do(ctx, body)
	}
	if err != nil {
		return nil, err
	}

	var resp map[string]any
	if err := json.Unmarshal(raw, &resp); err != nil {
		return nil, fmt.Errorf("decoding send response: %w", err)
	}
	return resp, nil
}

// do issues the request as JSON (POST) or query string (GET) per configuration.
func (w *Webhook) do(ctx context.Context, body map[string]any) ([]byte, error) {
	var httpReq *http.Request
	var err error

	if w.cfg.Method == http.MethodGet {
		params := url.Values{}
		for key, value := range body {
			params.Set(key, fmt.Sprint(value))
		}
		httpReq, err = http.NewRequestWithContext(ctx, http.MethodGet, w.cfg.URL+"?"+params.Encode(), nil)
		if err != nil {
			return nil, fmt.Errorf("creating request: %w", err)
		}
	} else {
		payload, err2 := json.Marshal(body)
		if err2 != nil {
			return nil, fmt.Errorf("marshaling request: %w", err2)
		}
		httpReq, err = http.NewRequestWithContext(ctx, http.MethodPost, w.cfg.URL, bytes.NewReader(payload))
		if err != nil {
			return nil, fmt.Errorf("creating request: %w", err)
		}
		httpReq.Header.Set("Content-Type", "application/json")
	}

	w.applyHeaders(httpReq)
	return w.roundTrip(httpReq)
}

// doMultipart issues the request as multipart form data; file uploads force POST.
func (w *Webhook) doMultipart(ctx context.Context, body map[string]any, files []domain.Attachment) ([]byte, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)

	for key, value := range body {
		if err := mw.WriteField(key, fmt.Sprint(value)); err != nil {
			return nil, fmt.Errorf("writing form field %q: %w", key, err)
		}
	}

	for _, f := range files {
		part, err := mw.CreateFormFile(multipartFileField, f.Name)
		if err != nil {
			return nil, fmt.Errorf("creating form file %q: %w", f.Name, err)
		}
		if _, err := part.Write(f.Data); err != nil {
			return nil, fmt.Errorf("writing form file %q: %w", f.Name, err)
		}
	}

	if err := mw.Close(); err != nil {
		return nil, fmt.Errorf("finalizing multipart body: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, w.cfg.URL, &buf)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	httpReq.Header.Set("Content-Type", mw.FormDataContentType())

	w.applyHeaders(httpReq)
	return w.roundTrip(httpReq)
}

func (w *Webhook) applyHeaders(req *http.Request) {
	for key, value := range w.cfg.Headers {
		req.Header.Set(key, value)
	}
}

func (w *Webhook) roundTrip(req *http.Request) ([]byte, error) {
	resp, err := w.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("webhook error (%d): %s", resp.StatusCode, string(raw))
	}
	return raw, nil
}
