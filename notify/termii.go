package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/nyaruka/phonenumbers"
)

const defaultTermiiBaseURL = "https://api.ng.termii.com"

// TermiiSender delivers SMS through the Termii REST API.
type TermiiSender struct {
	apiKey   string
	senderID string
	baseURL  string
	client   *http.Client
}

type TermiiOption func(*TermiiSender)

func WithTermiiBaseURL(u string) TermiiOption {
	return func(t *TermiiSender) {
		if u != "" {
			t.baseURL = u
		}
	}
}

func WithTermiiHTTPClient(c *http.Client) TermiiOption {
	return func(t *TermiiSender) {
		if c != nil {
			t.client = c
		}
	}
}

func NewTermiiSender(apiKey, senderID string, opts ...TermiiOption) *TermiiSender {
	t := &TermiiSender{
		apiKey:   apiKey,
		senderID: senderID,
		baseURL:  defaultTermiiBaseURL,
		client:   &http.Client{Timeout: 10 * time.Second},
	}
	for _, opt := range opts {
		if opt != nil {
			opt(t)
		}
	}
	return t
}

type termiiPayload struct {
	To      string `json:"to"`
	From    string `json:"from"`
	SMS     string `json:"sms"`
	Type    string `json:"type"`
	Channel string `json:"channel"`
	APIKey  string `json:"api_key"`
}

// Send implements Sender.
func (t *TermiiSender) Send(ctx context.Context, to, message string) error {
	msisdn, err := NormalizePhone(to)
	if err != nil {
		return fmt.Errorf("termii: %w", err)
	}

	body, err := json.Marshal(termiiPayload{
		To:      msisdn,
		From:    t.senderID,
		SMS:     message,
		Type:    "plain",
		Channel: "generic",
		APIKey:  t.apiKey,
	})
	if err != nil {
		return fmt.Errorf("termii: encode payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.baseURL+"/api/sms/send", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("termii: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	res, err := t.client.Do(req)
	if err != nil {
		return fmt.Errorf("termii: send: %w", err)
	}
	defer res.Body.Close()

	if res.StatusCode >= 400 {
		detail, _ := io.ReadAll(io.LimitReader(res.Body, 1024))
		return fmt.Errorf("termii: send failed with status %d: %s", res.StatusCode, detail)
	}

	return nil
}

// NormalizePhone converts a dealer phone number to the international format
// Termii expects (no leading plus). Numbers default to the Nigerian region.
func NormalizePhone(raw string) (string, error) {
	num, err := phonenumbers.Parse(raw, "NG")
	if err != nil {
		return "", fmt.Errorf("invalid phone number %q: %w", raw, err)
	}
	if !phonenumbers.IsValidNumber(num) {
		return "", fmt.Errorf("invalid phone number %q", raw)
	}

	e164 := phonenumbers.Format(num, phonenumbers.E164)
	return e164[1:], nil
}
