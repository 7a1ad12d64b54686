package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const defaultTelnyxBaseURL = "https://api.telnyx.com/v2"

// TelnyxSender sends SMS through the Telnyx messaging API.
type TelnyxSender struct {
	apiKey     string
	from       string
	baseURL    string
	httpClient *http.Client
}

type TelnyxConfig struct {
	APIKey     string
	FromNumber string
	BaseURL    string
	HTTPClient *http.Client
}

func NewTelnyxSender(cfg TelnyxConfig) (*TelnyxSender, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, errors.New("notify: telnyx api key is required")
	}
	if strings.TrimSpace(cfg.FromNumber) == "" {
		return nil, errors.New("notify: telnyx from number is required")
	}
	baseURL := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if baseURL == "" {
		baseURL = defaultTelnyxBaseURL
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 10 * time.Second}
	}
	return &TelnyxSender{
		apiKey:     cfg.APIKey,
		from:       cfg.FromNumber,
		baseURL:    baseURL,
		httpClient: httpClient,
	}, nil
}

type telnyxMessage struct {
	From string `json:"from"`
	To   string `json:"to"`
	Text string `json:"text"`
}

func (t *TelnyxSender) SendSMS(ctx context.Context, to, body string) error {
	payload, err := json.Marshal(telnyxMessage{From: t.from, To: to, Text: body})
	if err != nil {
		return fmt.Errorf("notify: marshal telnyx message: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.baseURL+"/messages", bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("notify: build telnyx request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+t.apiKey)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := t.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("notify: telnyx request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		data, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return fmt.Errorf("notify: telnyx returned status %d: %s", resp.StatusCode, strings.TrimSpace(string(data)))
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}
