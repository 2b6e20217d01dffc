// Package whatsapp sends outbound WhatsApp messages through the Twilio API.
package whatsapp

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"smartlead_backend/platform/apperr"
	"smartlead_backend/platform/config"
	"smartlead_backend/platform/logger"
	"smartlead_backend/platform/phone"
)

type Client struct {
	baseURL    string
	accountSID string
	authToken  string
	fromNumber string
	http       *http.Client
	log        *logger.Logger
}

func NewClient(cfg config.WhatsAppConfig, log *logger.Logger) *Client {
	return &Client{
		baseURL:    strings.TrimRight(cfg.GetTwilioAPIURL(), "/"),
		accountSID: cfg.GetTwilioAccountSID(),
		authToken:  cfg.GetTwilioAuthToken(),
		fromNumber: cfg.GetTwilioWhatsAppNumber(),
		http:       &http.Client{Timeout: 15 * time.Second},
		log:        log,
	}
}

type messageResponse struct {
	SID    string `json:"sid"`
	Status string `json:"status"`
}

// SendMessage delivers a WhatsApp message to the given phone number and
// returns the provider message SID. Twilio expects whatsapp:-prefixed
// E.164 addresses in both From and To.
func (c *Client) SendMessage(ctx context.Context, to, body string) (string, error) {
	normalized := phone.NormalizeE164(to)

	form := url.Values{}
	form.Set("From", "whatsapp:"+c.fromNumber)
	form.Set("To", "whatsapp:"+normalized)
	form.Set("Body", body)

	endpoint := fmt.Sprintf("%s/2010-04-01/Accounts/%s/Messages.json", c.baseURL, c.accountSID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.SetBasicAuth(c.accountSID, c.authToken)

	resp, err := c.http.Do(req)
	if err != nil {
		return "", apperr.Upstream("failed to send WhatsApp message", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}

	if resp.StatusCode >= http.StatusBadRequest {
		return "", apperr.Upstream("failed to send WhatsApp message",
			fmt.Errorf("twilio returned %d: %s", resp.StatusCode, strings.TrimSpace(string(data))))
	}

	var msg messageResponse
	if err := json.Unmarshal(data, &msg); err != nil {
		return "", fmt.Errorf("decode twilio response: %w", err)
	}

	c.log.Info("whatsapp message sent", "to", normalized, "sid", msg.SID)
	return msg.SID, nil
}
