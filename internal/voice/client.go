// Package voice integrates with the Bland AI calling platform for automated
// outbound calls and post-call transcript analysis.
package voice

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"smartlead_backend/platform/apperr"
	"smartlead_backend/platform/config"
	"smartlead_backend/platform/logger"
)

type Client struct {
	baseURL    string
	apiKey     string
	webhookURL string
	http       *http.Client
	log        *logger.Logger
}

func NewClient(cfg config.VoiceConfig, log *logger.Logger) *Client {
	return &Client{
		baseURL:    strings.TrimRight(cfg.GetBlandBaseURL(), "/"),
		apiKey:     cfg.GetBlandAPIKey(),
		webhookURL: cfg.GetCallWebhookURL(),
		http:       &http.Client{Timeout: 30 * time.Second},
		log:        log,
	}
}

// CallParams describe an outbound call. Metadata is echoed back verbatim in
// the provider's status webhook, which is how calls are attributed to leads.
type CallParams struct {
	PhoneNumber string
	Task        string
	Voice       string
	Language    string
	MaxDuration int
	Metadata    map[string]string
}

type CallResult struct {
	CallID string `json:"call_id"`
	Status string `json:"status"`
}

type callRequest struct {
	PhoneNumber string            `json:"phone_number"`
	Task        string            `json:"task"`
	Voice       string            `json:"voice,omitempty"`
	Language    string            `json:"language,omitempty"`
	MaxDuration int               `json:"max_duration,omitempty"`
	Record      bool              `json:"record"`
	Webhook     string            `json:"webhook,omitempty"`
	Metadata    map[string]string `json:"metadata,omitempty"`
}

func (c *Client) MakeCall(ctx context.Context, params CallParams) (CallResult, error) {
	payload := callRequest{
		PhoneNumber: params.PhoneNumber,
		Task:        params.Task,
		Voice:       params.Voice,
		Language:    params.Language,
		MaxDuration: params.MaxDuration,
		Record:      true,
		Webhook:     c.webhookURL,
		Metadata:    params.Metadata,
	}

	var result CallResult
	if err := c.post(ctx, c.baseURL+"/calls", payload, &result); err != nil {
		return CallResult{}, apperr.Upstream("failed to initiate call", err)
	}

	c.log.Info("outbound call initiated", "call_id", result.CallID)
	return result, nil
}

// AnalyzeParams ask the provider to answer questions about a finished call
// based on its transcript.
type AnalyzeParams struct {
	Goal      string
	Questions [][]string
}

type AnalyzeResult struct {
	Status  string `json:"status"`
	Answers []any  `json:"answers"`
}

func (c *Client) Analyze(ctx context.Context, callID string, params AnalyzeParams) (AnalyzeResult, error) {
	payload := map[string]any{
		"goal":      params.Goal,
		"questions": params.Questions,
	}

	var result AnalyzeResult
	if err := c.post(ctx, fmt.Sprintf("%s/calls/%s/analyze", c.baseURL, callID), payload, &result); err != nil {
		return AnalyzeResult{}, apperr.Upstream("failed to analyze call", err)
	}

	return result, nil
}

func (c *Client) post(ctx context.Context, url string, payload any, out any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal voice payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewBuffer(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", c.apiKey)

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("voice request failed: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}

	if resp.StatusCode >= http.StatusBadRequest {
		return fmt.Errorf("voice provider returned %d: %s", resp.StatusCode, strings.TrimSpace(string(data)))
	}

	if out != nil {
		if err := json.Unmarshal(data, out); err != nil {
			return fmt.Errorf("decode voice response: %w", err)
		}
	}

	return nil
}
