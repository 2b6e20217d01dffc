package email

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"

	"smartlead_backend/internal/ai"
	"smartlead_backend/internal/leads/domain"
	"smartlead_backend/internal/leads/repository"
	"smartlead_backend/internal/leads/service"
	"smartlead_backend/platform/apperr"
	"smartlead_backend/platform/config"
	"smartlead_backend/platform/logger"

	"github.com/google/uuid"
)

// LeadFinder locates an existing lead for an inbound sender address.
type LeadFinder interface {
	FindByEmail(ctx context.Context, email string) (*repository.Lead, error)
}

// LeadWriter creates leads and appends activities for inbound email.
type LeadWriter interface {
	Create(ctx context.Context, params service.CreateParams) (repository.Lead, error)
	LogActivity(ctx context.Context, leadID uuid.UUID, activityType domain.ActivityType, body string, at *time.Time) (repository.Activity, error)
}

// InfoExtractor pulls contact details out of an email body for new leads.
type InfoExtractor interface {
	ExtractLeadInfo(ctx context.Context, content string) ai.LeadInfo
}

var addressPattern = regexp.MustCompile(`<([^>]+)>`)

// Inbox polls the Gmail REST API for unread messages and turns each one into
// an email_received activity, creating the lead first when the sender is
// unknown.
type Inbox struct {
	apiURL       string
	tokenURL     string
	clientID     string
	clientSecret string
	refreshToken string
	user         string
	http         *http.Client
	finder       LeadFinder
	leads        LeadWriter
	extractor    InfoExtractor
	log          *logger.Logger
}

func NewInbox(cfg config.InboxConfig, finder LeadFinder, leads LeadWriter, extractor InfoExtractor, log *logger.Logger) *Inbox {
	return &Inbox{
		apiURL:       strings.TrimRight(cfg.GetGmailAPIURL(), "/"),
		tokenURL:     cfg.GetGoogleTokenURL(),
		clientID:     cfg.GetGmailClientID(),
		clientSecret: cfg.GetGmailClientSecret(),
		refreshToken: cfg.GetGmailRefreshToken(),
		user:         cfg.GetGmailUser(),
		http:         &http.Client{Timeout: 30 * time.Second},
		finder:       finder,
		leads:        leads,
		extractor:    extractor,
		log:          log,
	}
}

// ProcessUnread fetches unread messages, records them against leads, and
// marks them read. A failure on a single message skips it without aborting
// the whole batch.
func (i *Inbox) ProcessUnread(ctx context.Context) (processed, created int, err error) {
	token, err := i.accessToken(ctx)
	if err != nil {
		return 0, 0, apperr.Upstream("failed to refresh Gmail access token", err)
	}

	ids, err := i.listUnread(ctx, token)
	if err != nil {
		return 0, 0, apperr.Upstream("failed to list unread messages", err)
	}

	for _, id := range ids {
		msg, err := i.getMessage(ctx, token, id)
		if err != nil {
			i.log.Warn("skipping unreadable message", "message_id", id, "error", err)
			continue
		}

		newLead, err := i.record(ctx, msg)
		if err != nil {
			i.log.Warn("failed to record inbound email", "message_id", id, "error", err)
			continue
		}
		if newLead {
			created++
		}

		if err := i.markRead(ctx, token, id); err != nil {
			i.log.Warn("failed to mark message read", "message_id", id, "error", err)
		}
		processed++
	}

	i.log.Info("inbox poll complete", "processed", processed, "leads_created", created)
	return processed, created, nil
}

type inboundMessage struct {
	Sender  string
	Subject string
	Body    string
}

func (i *Inbox) record(ctx context.Context, msg inboundMessage) (newLead bool, err error) {
	sender := extractAddress(msg.Sender)
	if sender == "" {
		return false, fmt.Errorf("message has no sender address")
	}

	lead, err := i.finder.FindByEmail(ctx, sender)
	if err != nil {
		return false, err
	}

	if lead == nil {
		info := i.extractor.ExtractLeadInfo(ctx, msg.Subject+"\n\n"+msg.Body)
		createdLead, err := i.leads.Create(ctx, service.CreateParams{
			FirstName:   info.FirstName,
			LastName:    info.LastName,
			Email:       sender,
			CompanyName: optional(info.CompanyName),
			Title:       optional(info.Title),
			LeadSource:  domain.SourceEmail,
		})
		if err != nil {
			return false, err
		}
		lead = &createdLead
		newLead = true
	}

	body := "Email received: " + msg.Subject
	if msg.Body != "" {
		body += "\n\n" + msg.Body
	}
	if _, err := i.leads.LogActivity(ctx, lead.ID, domain.ActivityEmailReceived, body, nil); err != nil {
		return newLead, err
	}

	return newLead, nil
}

func (i *Inbox) accessToken(ctx context.Context) (string, error) {
	form := url.Values{}
	form.Set("client_id", i.clientID)
	form.Set("client_secret", i.clientSecret)
	form.Set("refresh_token", i.refreshToken)
	form.Set("grant_type", "refresh_token")

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, i.tokenURL, strings.NewReader(form.Encode()))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	var token struct {
		AccessToken string `json:"access_token"`
	}
	if err := i.do(req, &token); err != nil {
		return "", err
	}
	if token.AccessToken == "" {
		return "", fmt.Errorf("token endpoint returned no access token")
	}

	return token.AccessToken, nil
}

func (i *Inbox) listUnread(ctx context.Context, token string) ([]string, error) {
	endpoint := fmt.Sprintf("%s/gmail/v1/users/%s/messages?q=%s", i.apiURL, url.PathEscape(i.user), url.QueryEscape("is:unread"))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+token)

	var list struct {
		Messages []struct {
			ID string `json:"id"`
		} `json:"messages"`
	}
	if err := i.do(req, &list); err != nil {
		return nil, err
	}

	ids := make([]string, 0, len(list.Messages))
	for _, m := range list.Messages {
		ids = append(ids, m.ID)
	}
	return ids, nil
}

type gmailPayload struct {
	MimeType string `json:"mimeType"`
	Headers  []struct {
		Name  string `json:"name"`
		Value string `json:"value"`
	} `json:"headers"`
	Body struct {
		Data string `json:"data"`
	} `json:"body"`
	Parts []gmailPayload `json:"parts"`
}

func (i *Inbox) getMessage(ctx context.Context, token, id string) (inboundMessage, error) {
	endpoint := fmt.Sprintf("%s/gmail/v1/users/%s/messages/%s?format=full", i.apiURL, url.PathEscape(i.user), url.PathEscape(id))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return inboundMessage{}, err
	}
	req.Header.Set("Authorization", "Bearer "+token)

	var msg struct {
		Payload gmailPayload `json:"payload"`
	}
	if err := i.do(req, &msg); err != nil {
		return inboundMessage{}, err
	}

	out := inboundMessage{}
	for _, h := range msg.Payload.Headers {
		switch strings.ToLower(h.Name) {
		case "from":
			out.Sender = h.Value
		case "subject":
			out.Subject = h.Value
		}
	}
	out.Body = plainTextBody(msg.Payload)

	return out, nil
}

func (i *Inbox) markRead(ctx context.Context, token, id string) error {
	endpoint := fmt.Sprintf("%s/gmail/v1/users/%s/messages/%s/modify", i.apiURL, url.PathEscape(i.user), url.PathEscape(id))
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(`{"removeLabelIds": ["UNREAD"]}`))
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", "application/json")

	return i.do(req, nil)
}

func (i *Inbox) do(req *http.Request, out any) error {
	resp, err := i.http.Do(req)
	if err != nil {
		return err
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	if resp.StatusCode >= http.StatusBadRequest {
		return fmt.Errorf("gmail API returned %d: %s", resp.StatusCode, strings.TrimSpace(string(data)))
	}

	if out != nil {
		return json.Unmarshal(data, out)
	}
	return nil
}

// plainTextBody walks the MIME tree looking for the first text/plain part.
func plainTextBody(payload gmailPayload) string {
	if strings.HasPrefix(payload.MimeType, "text/plain") && payload.Body.Data != "" {
		return decodeBase64URL(payload.Body.Data)
	}
	for _, part := range payload.Parts {
		if body := plainTextBody(part); body != "" {
			return body
		}
	}
	if payload.Body.Data != "" {
		return decodeBase64URL(payload.Body.Data)
	}
	return ""
}

func decodeBase64URL(data string) string {
	decoded, err := base64.URLEncoding.WithPadding(base64.NoPadding).DecodeString(strings.TrimRight(data, "="))
	if err != nil {
		return ""
	}
	return string(decoded)
}

// extractAddress pulls the bare address out of a "Name <addr>" header value.
func extractAddress(from string) string {
	if match := addressPattern.FindStringSubmatch(from); match != nil {
		return strings.TrimSpace(match[1])
	}
	return strings.TrimSpace(from)
}

func optional(value string) *string {
	if value == "" || value == "Unknown" {
		return nil
	}
	return &value
}
