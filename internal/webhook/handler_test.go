package webhook

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"smartlead_backend/platform/logger"

	"github.com/gin-gonic/gin"
)

func newTestRouter(f *fixture) *gin.Engine {
	gin.SetMode(gin.TestMode)
	engine := gin.New()

	h := NewHandler(f.svc, "verify-token", logger.New("test"))
	engine.POST("/leads/whatsapp/webhook", h.WhatsAppInbound)
	engine.POST("/leads/calendly/webhook", h.Calendly)
	engine.GET("/meta/webhook", h.MetaVerify)
	engine.POST("/meta/webhook", h.MetaInbound)
	return engine
}

func TestMetaVerifyHandshake(t *testing.T) {
	router := newTestRouter(newFixture())

	tests := []struct {
		name       string
		query      string
		wantStatus int
		wantBody   string
	}{
		{"valid token", "hub.mode=subscribe&hub.verify_token=verify-token&hub.challenge=12345", http.StatusOK, "12345"},
		{"wrong token", "hub.mode=subscribe&hub.verify_token=nope&hub.challenge=12345", http.StatusForbidden, ""},
		{"wrong mode", "hub.mode=unsubscribe&hub.verify_token=verify-token&hub.challenge=12345", http.StatusForbidden, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodGet, "/meta/webhook?"+tt.query, nil)
			router.ServeHTTP(w, req)

			if w.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", w.Code, tt.wantStatus)
			}
			if tt.wantBody != "" && w.Body.String() != tt.wantBody {
				t.Errorf("body = %q, want challenge echoed", w.Body.String())
			}
		})
	}
}

func TestWhatsAppInboundAck(t *testing.T) {
	router := newTestRouter(newFixture())

	form := url.Values{}
	form.Set("From", "whatsapp:+16502530000")
	form.Set("Body", "hello")
	form.Set("MessageSid", "SM1")

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/leads/whatsapp/webhook", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200, body %s", w.Code, w.Body.String())
	}

	var resp struct {
		Status string `json:"status"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Status != "success" {
		t.Errorf("status field = %q, want success", resp.Status)
	}
}

func TestWhatsAppInboundMissingFromRejected(t *testing.T) {
	router := newTestRouter(newFixture())

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/leads/whatsapp/webhook", strings.NewReader("Body=hello"))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	router.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", w.Code)
	}
}

func TestCalendlyUnknownEmailIsWarningAck(t *testing.T) {
	router := newTestRouter(newFixture())

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/leads/calendly/webhook", strings.NewReader(nestedCreatedPayload))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200 so calendly stops retrying", w.Code)
	}

	var resp struct {
		Status string `json:"status"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Status != "warning" {
		t.Errorf("status field = %q, want warning", resp.Status)
	}
}
