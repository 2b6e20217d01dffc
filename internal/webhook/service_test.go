package webhook

import (
	"context"
	"errors"
	"testing"
	"time"

	"smartlead_backend/internal/ai"
	"smartlead_backend/internal/events"
	"smartlead_backend/internal/leads/domain"
	"smartlead_backend/internal/leads/repository"
	"smartlead_backend/internal/leads/service"
	"smartlead_backend/internal/meta"
	"smartlead_backend/internal/voice"
	"smartlead_backend/platform/apperr"
	"smartlead_backend/platform/logger"
	"smartlead_backend/platform/validator"

	"github.com/google/uuid"
)

type recordedActivity struct {
	LeadID uuid.UUID
	Type   domain.ActivityType
	Body   string
}

type fakeLeadService struct {
	leads       map[uuid.UUID]repository.Lead
	created     []service.CreateParams
	activities  []recordedActivity
	qualified   []uuid.UUID
	createErr   error
	activityErr error
}

func newFakeLeadService() *fakeLeadService {
	return &fakeLeadService{leads: map[uuid.UUID]repository.Lead{}}
}

func (f *fakeLeadService) Create(_ context.Context, params service.CreateParams) (repository.Lead, error) {
	if f.createErr != nil {
		return repository.Lead{}, f.createErr
	}
	f.created = append(f.created, params)
	lead := repository.Lead{
		ID:         uuid.New(),
		FirstName:  params.FirstName,
		LastName:   params.LastName,
		Email:      params.Email,
		LeadSource: params.LeadSource,
		Status:     domain.StatusNew,
	}
	f.leads[lead.ID] = lead
	return lead, nil
}

func (f *fakeLeadService) Get(_ context.Context, id uuid.UUID) (repository.Lead, error) {
	lead, ok := f.leads[id]
	if !ok {
		return repository.Lead{}, apperr.NotFound("lead not found")
	}
	return lead, nil
}

func (f *fakeLeadService) LogActivity(_ context.Context, leadID uuid.UUID, activityType domain.ActivityType, body string, _ *time.Time) (repository.Activity, error) {
	if f.activityErr != nil {
		return repository.Activity{}, f.activityErr
	}
	f.activities = append(f.activities, recordedActivity{LeadID: leadID, Type: activityType, Body: body})
	return repository.Activity{}, nil
}

func (f *fakeLeadService) Qualify(_ context.Context, leadID uuid.UUID) error {
	f.qualified = append(f.qualified, leadID)
	return nil
}

type fakeResolver struct {
	byPhone    map[string]*repository.Lead
	byEmail    map[string]*repository.Lead
	byPlatform map[string]*repository.Lead

	// phoneSeq, when set, is consumed one element per ByPhone call. Used to
	// simulate a concurrent writer winning between lookup and insert.
	phoneSeq []*repository.Lead
}

func newFakeResolver() *fakeResolver {
	return &fakeResolver{
		byPhone:    map[string]*repository.Lead{},
		byEmail:    map[string]*repository.Lead{},
		byPlatform: map[string]*repository.Lead{},
	}
}

func (f *fakeResolver) ByPhone(_ context.Context, raw string) (*repository.Lead, error) {
	if len(f.phoneSeq) > 0 {
		next := f.phoneSeq[0]
		f.phoneSeq = f.phoneSeq[1:]
		return next, nil
	}
	return f.byPhone[raw], nil
}

func (f *fakeResolver) ByEmail(_ context.Context, email string) (*repository.Lead, error) {
	return f.byEmail[email], nil
}

func (f *fakeResolver) ByPlatformID(_ context.Context, source domain.LeadSource, externalID string) (*repository.Lead, error) {
	return f.byPlatform[string(source)+"/"+externalID], nil
}

type fakeAnalyzer struct {
	calls  []string
	result voice.AnalyzeResult
	err    error
}

func (f *fakeAnalyzer) Analyze(_ context.Context, callID string, _ voice.AnalyzeParams) (voice.AnalyzeResult, error) {
	f.calls = append(f.calls, callID)
	return f.result, f.err
}

type fakeProfiles struct {
	profiles map[string]meta.Profile
}

func (f *fakeProfiles) LookupProfile(_ context.Context, senderID string) meta.Profile {
	return f.profiles[senderID]
}

type fakeExtractor struct {
	info  ai.LeadInfo
	calls []string
}

func (f *fakeExtractor) ExtractLeadInfo(_ context.Context, content string) ai.LeadInfo {
	f.calls = append(f.calls, content)
	if f.info == (ai.LeadInfo{}) {
		return ai.LeadInfo{FirstName: "Unknown", LastName: "Unknown", CompanyName: "Unknown", Title: "Unknown"}
	}
	return f.info
}

type fakeBus struct {
	published []events.Event
}

func (f *fakeBus) Publish(_ context.Context, event events.Event) {
	f.published = append(f.published, event)
}
func (f *fakeBus) PublishSync(ctx context.Context, event events.Event) error {
	f.Publish(ctx, event)
	return nil
}
func (f *fakeBus) Subscribe(string, events.Handler) {}

type fixture struct {
	svc       *Service
	leads     *fakeLeadService
	resolver  *fakeResolver
	analyzer  *fakeAnalyzer
	profiles  *fakeProfiles
	extractor *fakeExtractor
	bus       *fakeBus
}

func newFixture() *fixture {
	leads := newFakeLeadService()
	resolver := newFakeResolver()
	analyzer := &fakeAnalyzer{}
	profiles := &fakeProfiles{profiles: map[string]meta.Profile{}}
	extractor := &fakeExtractor{}
	bus := &fakeBus{}
	svc := NewService(leads, resolver, analyzer, profiles, extractor, NoopDeduper{}, bus, validator.New(), logger.New("test"))
	return &fixture{svc: svc, leads: leads, resolver: resolver, analyzer: analyzer, profiles: profiles, extractor: extractor, bus: bus}
}

func TestHandleWhatsAppCreatesLeadForUnknownNumber(t *testing.T) {
	f := newFixture()

	outcome, err := f.svc.HandleWhatsApp(context.Background(), TwilioMessage{
		From:        "whatsapp:+16502530000",
		Body:        "I saw your ad",
		MessageSid:  "SM1",
		ProfileName: "Ada Lovelace",
	})
	if err != nil {
		t.Fatalf("HandleWhatsApp() error = %v", err)
	}
	if outcome.Warning != "" {
		t.Errorf("unexpected warning %q", outcome.Warning)
	}

	if len(f.leads.created) != 1 {
		t.Fatalf("created = %d, want 1", len(f.leads.created))
	}
	created := f.leads.created[0]
	if created.FirstName != "Ada" || created.LastName != "Lovelace" {
		t.Errorf("name = %s %s", created.FirstName, created.LastName)
	}
	if created.LeadSource != domain.SourceWhatsApp {
		t.Errorf("source = %q", created.LeadSource)
	}
	if created.PhoneNumber == nil || *created.PhoneNumber != "+16502530000" {
		t.Errorf("phone = %v, want normalized +16502530000", created.PhoneNumber)
	}
	if created.Email != "16502530000@whatsapp.lead" {
		t.Errorf("placeholder email = %q", created.Email)
	}

	if len(f.leads.activities) != 1 {
		t.Fatalf("activities = %d, want 1", len(f.leads.activities))
	}
	if f.leads.activities[0].Type != domain.ActivityWhatsAppMessage {
		t.Errorf("activity type = %q", f.leads.activities[0].Type)
	}
	if f.leads.activities[0].Body != "WhatsApp message received: I saw your ad" {
		t.Errorf("activity body = %q", f.leads.activities[0].Body)
	}

	if len(f.bus.published) != 1 {
		t.Fatalf("published = %d, want 1", len(f.bus.published))
	}
	inbound, ok := f.bus.published[0].(events.InboundMessageReceived)
	if !ok {
		t.Fatalf("event = %T", f.bus.published[0])
	}
	if !inbound.NewLead {
		t.Error("event NewLead = false, want true")
	}
}

func TestHandleWhatsAppReusesExistingLead(t *testing.T) {
	f := newFixture()
	existing := &repository.Lead{ID: uuid.New(), Status: domain.StatusContacted}
	f.resolver.byPhone["+16502530000"] = existing

	if _, err := f.svc.HandleWhatsApp(context.Background(), TwilioMessage{
		From: "whatsapp:+16502530000", Body: "hi again", MessageSid: "SM2",
	}); err != nil {
		t.Fatalf("HandleWhatsApp() error = %v", err)
	}

	if len(f.leads.created) != 0 {
		t.Errorf("created = %d, want 0", len(f.leads.created))
	}
	if len(f.leads.activities) != 1 || f.leads.activities[0].LeadID != existing.ID {
		t.Errorf("activity not attributed to existing lead")
	}
}

func TestHandleWhatsAppMissingFromRejected(t *testing.T) {
	f := newFixture()

	_, err := f.svc.HandleWhatsApp(context.Background(), TwilioMessage{Body: "hi"})
	if apperr.GetKind(err) != apperr.KindBadRequest {
		t.Errorf("error kind = %v, want KindBadRequest", apperr.GetKind(err))
	}
}

func TestHandleWhatsAppConflictReresolves(t *testing.T) {
	f := newFixture()
	winner := &repository.Lead{ID: uuid.New()}
	// First lookup misses, create conflicts, second lookup finds the winner.
	f.resolver.phoneSeq = []*repository.Lead{nil, winner}
	f.leads.createErr = repository.ErrDuplicatePlatformIdentity

	outcome, err := f.svc.HandleWhatsApp(context.Background(), TwilioMessage{
		From: "whatsapp:+16502530000", Body: "hello", MessageSid: "SM3",
	})
	if err != nil {
		t.Fatalf("HandleWhatsApp() error = %v", err)
	}
	if outcome.Warning != "" {
		t.Errorf("unexpected warning %q", outcome.Warning)
	}
	if len(f.leads.activities) != 1 || f.leads.activities[0].LeadID != winner.ID {
		t.Error("activity not attributed to the conflict winner")
	}
}

type memoryDeduper struct{ seen map[string]bool }

func newMemoryDeduper() *memoryDeduper {
	return &memoryDeduper{seen: map[string]bool{}}
}

func (d *memoryDeduper) AlreadySeen(_ context.Context, provider, id string) bool {
	return d.seen[provider+":"+id]
}

func (d *memoryDeduper) MarkSeen(_ context.Context, provider, id string) {
	d.seen[provider+":"+id] = true
}

func TestHandleWhatsAppDuplicateDeliverySkipped(t *testing.T) {
	f := newFixture()
	f.svc.dedupe = newMemoryDeduper()

	msg := TwilioMessage{From: "whatsapp:+16502530000", Body: "hello", MessageSid: "SM9"}
	if _, err := f.svc.HandleWhatsApp(context.Background(), msg); err != nil {
		t.Fatalf("HandleWhatsApp() error = %v", err)
	}

	outcome, err := f.svc.HandleWhatsApp(context.Background(), msg)
	if err != nil {
		t.Fatalf("HandleWhatsApp() retry error = %v", err)
	}
	if outcome.Detail != "duplicate delivery ignored" {
		t.Errorf("detail = %q", outcome.Detail)
	}
	if len(f.leads.activities) != 1 {
		t.Errorf("activities = %d, want 1 after duplicate delivery", len(f.leads.activities))
	}
}

func TestHandleWhatsAppFailedDeliveryIsNotMarkedSeen(t *testing.T) {
	f := newFixture()
	f.svc.dedupe = newMemoryDeduper()
	f.leads.activityErr = errors.New("database unavailable")

	msg := TwilioMessage{From: "whatsapp:+16502530000", Body: "hello", MessageSid: "SM10"}
	if _, err := f.svc.HandleWhatsApp(context.Background(), msg); err == nil {
		t.Fatal("HandleWhatsApp() error = nil, want transient failure")
	}

	// The provider retries the same MessageSid; the retry must be processed,
	// not dropped as a duplicate.
	f.leads.activityErr = nil
	outcome, err := f.svc.HandleWhatsApp(context.Background(), msg)
	if err != nil {
		t.Fatalf("HandleWhatsApp() retry error = %v", err)
	}
	if outcome.Detail == "duplicate delivery ignored" {
		t.Error("retry of a failed delivery was dropped as duplicate")
	}
	if len(f.leads.activities) != 1 {
		t.Errorf("activities = %d, want 1 recorded by the retry", len(f.leads.activities))
	}
}

func TestHandleWhatsAppUsesExtractedLeadInfo(t *testing.T) {
	f := newFixture()
	f.extractor.info = ai.LeadInfo{FirstName: "Grace", LastName: "Hopper", CompanyName: "Navy", Title: "Unknown"}

	if _, err := f.svc.HandleWhatsApp(context.Background(), TwilioMessage{
		From: "whatsapp:+16502530000", Body: "Hi, this is Grace Hopper from Navy", MessageSid: "SM11",
	}); err != nil {
		t.Fatalf("HandleWhatsApp() error = %v", err)
	}

	if len(f.extractor.calls) != 1 || f.extractor.calls[0] != "Hi, this is Grace Hopper from Navy" {
		t.Fatalf("extractor calls = %v, want the message body", f.extractor.calls)
	}
	if len(f.leads.created) != 1 {
		t.Fatalf("created = %d, want 1", len(f.leads.created))
	}
	created := f.leads.created[0]
	if created.FirstName != "Grace" || created.LastName != "Hopper" {
		t.Errorf("name = %s %s, want extracted Grace Hopper", created.FirstName, created.LastName)
	}
	if created.CompanyName == nil || *created.CompanyName != "Navy" {
		t.Errorf("company = %v, want Navy", created.CompanyName)
	}
	if created.Title != nil {
		t.Errorf("title = %v, want nil for Unknown", created.Title)
	}
}

func TestHandleWhatsAppExtractionFallsBackToProfileName(t *testing.T) {
	f := newFixture()

	if _, err := f.svc.HandleWhatsApp(context.Background(), TwilioMessage{
		From: "whatsapp:+16502530000", Body: "hi", MessageSid: "SM12", ProfileName: "Ada Lovelace",
	}); err != nil {
		t.Fatalf("HandleWhatsApp() error = %v", err)
	}

	if len(f.leads.created) != 1 {
		t.Fatalf("created = %d, want 1", len(f.leads.created))
	}
	created := f.leads.created[0]
	if created.FirstName != "Ada" || created.LastName != "Lovelace" {
		t.Errorf("name = %s %s, want profile name fallback", created.FirstName, created.LastName)
	}
}

func TestSplitName(t *testing.T) {
	tests := []struct {
		display   string
		wantFirst string
		wantLast  string
	}{
		{"Ada Lovelace", "Ada", "Lovelace"},
		{"Ada", "Ada", "User"},
		{"Ada King Lovelace", "Ada", "King Lovelace"},
		{"", "WhatsApp", "User"},
		{"   ", "WhatsApp", "User"},
	}

	for _, tt := range tests {
		first, last := splitName(tt.display, "WhatsApp", "User")
		if first != tt.wantFirst || last != tt.wantLast {
			t.Errorf("splitName(%q) = %q %q, want %q %q", tt.display, first, last, tt.wantFirst, tt.wantLast)
		}
	}
}
