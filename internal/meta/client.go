// Package meta looks up sender profiles on the Meta Graph API.
package meta

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"smartlead_backend/platform/config"
	"smartlead_backend/platform/logger"
)

type Client struct {
	graphURL    string
	accessToken string
	enabled     bool
	http        *http.Client
	log         *logger.Logger
}

func NewClient(cfg config.MetaConfig, log *logger.Logger) *Client {
	return &Client{
		graphURL:    strings.TrimRight(cfg.GetMetaGraphURL(), "/"),
		accessToken: cfg.GetMetaAccessToken(),
		enabled:     cfg.IsMetaProfileLookupEnabled(),
		http:        &http.Client{Timeout: 10 * time.Second},
		log:         log,
	}
}

type Profile struct {
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
}

// LookupProfile fetches the display name for a page-scoped sender ID.
// Lookups are best effort: when disabled or failing, the zero Profile is
// returned and the caller falls back to placeholder names.
func (c *Client) LookupProfile(ctx context.Context, senderID string) Profile {
	if !c.enabled {
		return Profile{}
	}

	endpoint := fmt.Sprintf("%s/%s?fields=first_name,last_name&access_token=%s",
		c.graphURL, url.PathEscape(senderID), url.QueryEscape(c.accessToken))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return Profile{}
	}

	resp, err := c.http.Do(req)
	if err != nil {
		c.log.Warn("graph profile lookup failed", "sender_id", senderID, "error", err)
		return Profile{}
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	data, err := io.ReadAll(resp.Body)
	if err != nil || resp.StatusCode >= http.StatusBadRequest {
		c.log.Warn("graph profile lookup failed", "sender_id", senderID, "status", resp.StatusCode)
		return Profile{}
	}

	var profile Profile
	if err := json.Unmarshal(data, &profile); err != nil {
		return Profile{}
	}

	return profile
}
