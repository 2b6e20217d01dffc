package email

import (
	"context"
	"encoding/base64"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"smartlead_backend/internal/ai"
	"smartlead_backend/internal/leads/domain"
	"smartlead_backend/internal/leads/repository"
	"smartlead_backend/internal/leads/service"
	"smartlead_backend/platform/config"
	"smartlead_backend/platform/logger"

	"github.com/google/uuid"
)

type fakeLeads struct {
	byEmail    map[string]*repository.Lead
	created    []service.CreateParams
	activities []string
}

func (f *fakeLeads) FindByEmail(_ context.Context, email string) (*repository.Lead, error) {
	return f.byEmail[email], nil
}

func (f *fakeLeads) Create(_ context.Context, params service.CreateParams) (repository.Lead, error) {
	f.created = append(f.created, params)
	return repository.Lead{ID: uuid.New(), Email: params.Email, LeadSource: params.LeadSource}, nil
}

func (f *fakeLeads) LogActivity(_ context.Context, _ uuid.UUID, activityType domain.ActivityType, body string, _ *time.Time) (repository.Activity, error) {
	f.activities = append(f.activities, string(activityType)+": "+body)
	return repository.Activity{}, nil
}

type fakeExtractor struct{}

func (fakeExtractor) ExtractLeadInfo(context.Context, string) ai.LeadInfo {
	return ai.LeadInfo{FirstName: "Ada", LastName: "Lovelace", CompanyName: "Unknown", Title: "Unknown"}
}

func gmailServer(t *testing.T, marked *[]string) *httptest.Server {
	t.Helper()
	body := base64.URLEncoding.WithPadding(base64.NoPadding).EncodeToString([]byte("I would like a demo."))

	mux := http.NewServeMux()
	mux.HandleFunc("/token", func(w http.ResponseWriter, r *http.Request) {
		_ = r.ParseForm()
		if r.PostFormValue("grant_type") != "refresh_token" {
			t.Errorf("grant_type = %q", r.PostFormValue("grant_type"))
		}
		_, _ = w.Write([]byte(`{"access_token": "at-123"}`))
	})
	mux.HandleFunc("/gmail/v1/users/inbox@example.com/messages", func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("q"); got != "is:unread" {
			t.Errorf("q = %q", got)
		}
		_, _ = w.Write([]byte(`{"messages": [{"id": "m1"}]}`))
	})
	mux.HandleFunc("/gmail/v1/users/inbox@example.com/messages/m1", func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Bearer at-123" {
			t.Errorf("authorization = %q", got)
		}
		fmt.Fprintf(w, `{"payload": {"mimeType": "text/plain", "headers": [{"name": "From", "value": "Ada Lovelace <ada@example.com>"}, {"name": "Subject", "value": "Demo request"}], "body": {"data": %q}}}`, body)
	})
	mux.HandleFunc("/gmail/v1/users/inbox@example.com/messages/m1/modify", func(w http.ResponseWriter, r *http.Request) {
		*marked = append(*marked, "m1")
		_, _ = w.Write([]byte(`{}`))
	})

	return httptest.NewServer(mux)
}

func newTestInbox(srv *httptest.Server, leads *fakeLeads) *Inbox {
	cfg := &config.Config{
		GmailClientID:     "cid",
		GmailClientSecret: "csecret",
		GmailRefreshToken: "rtoken",
		GmailUser:         "inbox@example.com",
		GmailAPIURL:       srv.URL,
		GoogleTokenURL:    srv.URL + "/token",
	}
	return NewInbox(cfg, leads, leads, fakeExtractor{}, logger.New("test"))
}

func TestProcessUnreadCreatesLeadForUnknownSender(t *testing.T) {
	var marked []string
	srv := gmailServer(t, &marked)
	defer srv.Close()

	leads := &fakeLeads{byEmail: map[string]*repository.Lead{}}
	processed, created, err := newTestInbox(srv, leads).ProcessUnread(context.Background())
	if err != nil {
		t.Fatalf("ProcessUnread() error = %v", err)
	}

	if processed != 1 || created != 1 {
		t.Errorf("processed = %d, created = %d, want 1/1", processed, created)
	}
	if len(leads.created) != 1 {
		t.Fatalf("created leads = %d, want 1", len(leads.created))
	}
	if leads.created[0].Email != "ada@example.com" {
		t.Errorf("created email = %q", leads.created[0].Email)
	}
	if leads.created[0].LeadSource != domain.SourceEmail {
		t.Errorf("created source = %q", leads.created[0].LeadSource)
	}
	if leads.created[0].FirstName != "Ada" {
		t.Errorf("created first name = %q", leads.created[0].FirstName)
	}
	if len(marked) != 1 {
		t.Errorf("marked read = %v, want [m1]", marked)
	}
}

func TestProcessUnreadRecordsActivityForKnownSender(t *testing.T) {
	var marked []string
	srv := gmailServer(t, &marked)
	defer srv.Close()

	existing := &repository.Lead{ID: uuid.New(), Email: "ada@example.com"}
	leads := &fakeLeads{byEmail: map[string]*repository.Lead{"ada@example.com": existing}}

	processed, created, err := newTestInbox(srv, leads).ProcessUnread(context.Background())
	if err != nil {
		t.Fatalf("ProcessUnread() error = %v", err)
	}

	if processed != 1 || created != 0 {
		t.Errorf("processed = %d, created = %d, want 1/0", processed, created)
	}
	if len(leads.activities) != 1 {
		t.Fatalf("activities = %d, want 1", len(leads.activities))
	}
	if !strings.HasPrefix(leads.activities[0], "email_received: Email received: Demo request") {
		t.Errorf("activity = %q", leads.activities[0])
	}
	if !strings.Contains(leads.activities[0], "I would like a demo.") {
		t.Errorf("activity body missing message text: %q", leads.activities[0])
	}
}

func TestExtractAddress(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Ada Lovelace <ada@example.com>", "ada@example.com"},
		{"ada@example.com", "ada@example.com"},
		{"  ada@example.com  ", "ada@example.com"},
	}
	for _, tt := range tests {
		if got := extractAddress(tt.in); got != tt.want {
			t.Errorf("extractAddress(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
