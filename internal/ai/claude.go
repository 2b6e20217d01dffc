// Package ai extracts structured lead information from free-form text using
// the Anthropic Messages API.
package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"smartlead_backend/platform/config"
	"smartlead_backend/platform/logger"
)

const (
	anthropicVersion = "2023-06-01"
	maxTokens        = 1024
)

type Client struct {
	apiURL string
	apiKey string
	model  string
	http   *http.Client
	log    *logger.Logger
}

func NewClient(cfg config.AIConfig, log *logger.Logger) *Client {
	return &Client{
		apiURL: strings.TrimRight(cfg.GetAnthropicAPIURL(), "/"),
		apiKey: cfg.GetAnthropicAPIKey(),
		model:  cfg.GetAnthropicModel(),
		http:   &http.Client{Timeout: 30 * time.Second},
		log:    log,
	}
}

// LeadInfo is the structured result of extraction. Fields the model could
// not determine come back as "Unknown".
type LeadInfo struct {
	FirstName   string `json:"first_name"`
	LastName    string `json:"last_name"`
	CompanyName string `json:"company_name"`
	Title       string `json:"title"`
}

type messagesRequest struct {
	Model     string    `json:"model"`
	MaxTokens int       `json:"max_tokens"`
	Messages  []message `json:"messages"`
}

type message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type messagesResponse struct {
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
}

const extractionPrompt = `Extract the contact's first name, last name, company name, and job title from the following message. Respond with only a JSON object containing the keys "first_name", "last_name", "company_name", and "title". Use "Unknown" for any value you cannot determine.

Message:
%s`

// ExtractLeadInfo asks the model to pull contact details out of an inbound
// message or email body. Extraction failures degrade to all-Unknown rather
// than blocking lead creation.
func (c *Client) ExtractLeadInfo(ctx context.Context, content string) LeadInfo {
	unknown := LeadInfo{FirstName: "Unknown", LastName: "Unknown", CompanyName: "Unknown", Title: "Unknown"}

	text, err := c.complete(ctx, fmt.Sprintf(extractionPrompt, content))
	if err != nil {
		c.log.Warn("lead info extraction failed", "error", err)
		return unknown
	}

	var info LeadInfo
	if err := json.Unmarshal([]byte(extractJSON(text)), &info); err != nil {
		c.log.Warn("lead info extraction returned unparseable output", "error", err)
		return unknown
	}

	if info.FirstName == "" {
		info.FirstName = "Unknown"
	}
	if info.LastName == "" {
		info.LastName = "Unknown"
	}
	if info.CompanyName == "" {
		info.CompanyName = "Unknown"
	}
	if info.Title == "" {
		info.Title = "Unknown"
	}

	return info
}

func (c *Client) complete(ctx context.Context, prompt string) (string, error) {
	payload := messagesRequest{
		Model:     c.model,
		MaxTokens: maxTokens,
		Messages:  []message{{Role: "user", Content: prompt}},
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.apiURL+"/v1/messages", bytes.NewBuffer(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-api-key", c.apiKey)
	req.Header.Set("anthropic-version", anthropicVersion)

	resp, err := c.http.Do(req)
	if err != nil {
		return "", err
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}
	if resp.StatusCode >= http.StatusBadRequest {
		return "", fmt.Errorf("anthropic returned %d: %s", resp.StatusCode, strings.TrimSpace(string(data)))
	}

	var decoded messagesResponse
	if err := json.Unmarshal(data, &decoded); err != nil {
		return "", err
	}
	if len(decoded.Content) == 0 {
		return "", fmt.Errorf("anthropic returned empty content")
	}

	return decoded.Content[0].Text, nil
}

// extractJSON trims any prose the model wrapped around the JSON object.
func extractJSON(text string) string {
	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start == -1 || end == -1 || end < start {
		return text
	}
	return text[start : end+1]
}
