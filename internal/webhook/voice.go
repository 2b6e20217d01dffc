package webhook

import (
	"context"
	"fmt"
	"strings"

	"smartlead_backend/internal/leads/domain"
	"smartlead_backend/internal/voice"
	"smartlead_backend/platform/apperr"

	"github.com/google/uuid"
)

// VoicePayload is the Bland AI call status webhook body.
type VoicePayload struct {
	CallID                 string         `json:"call_id"`
	Status                 string         `json:"status"`
	CallLength             float64        `json:"call_length"`
	AnsweredBy             string         `json:"answered_by"`
	CallEndedBy            string         `json:"call_ended_by"`
	ConcatenatedTranscript string         `json:"concatenated_transcript"`
	RecordingURL           string         `json:"recording_url"`
	Summary                string         `json:"summary"`
	Metadata               map[string]any `json:"metadata"`
}

// LeadID extracts the lead attribution planted in call metadata when the
// call was placed.
func (p VoicePayload) LeadID() (uuid.UUID, error) {
	raw, ok := p.Metadata["lead_id"].(string)
	if !ok || raw == "" {
		return uuid.Nil, apperr.BadRequest("call webhook missing lead_id metadata")
	}

	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, apperr.BadRequest("call webhook has invalid lead_id metadata")
	}
	return id, nil
}

// HandleCallStatus records a finished call against its lead and, for
// completed calls with a transcript, runs post-call analysis. Analysis
// failures are logged and swallowed: the call record must land either way.
func (s *Service) HandleCallStatus(ctx context.Context, payload VoicePayload) (Outcome, error) {
	leadID, err := payload.LeadID()
	if err != nil {
		return Outcome{}, err
	}

	if _, err := s.leads.Get(ctx, leadID); err != nil {
		return Outcome{}, err
	}

	if s.dedupe.AlreadySeen(ctx, "bland", payload.CallID) {
		return Acked("duplicate delivery ignored"), nil
	}

	if _, err := s.leads.LogActivity(ctx, leadID, domain.ActivityCallCompleted, callSummary(payload), nil); err != nil {
		return Outcome{}, err
	}
	s.dedupe.MarkSeen(ctx, "bland", payload.CallID)

	if payload.Status == "completed" && payload.ConcatenatedTranscript != "" {
		s.analyzeCall(ctx, leadID, payload.CallID)
	}

	return Acked(fmt.Sprintf("call %s recorded for lead %s", payload.CallID, leadID)), nil
}

func (s *Service) analyzeCall(ctx context.Context, leadID uuid.UUID, callID string) {
	result, err := s.analyzer.Analyze(ctx, callID, voice.AnalyzeParams{
		Goal: "Assess the lead's interest and next steps from this sales call.",
		Questions: [][]string{
			{"Was the lead interested in the product?", "string"},
			{"Did the lead agree to a follow-up or meeting?", "string"},
			{"What objections did the lead raise?", "string"},
		},
	})
	if err != nil {
		s.log.Warn("call analysis failed", "call_id", callID, "lead_id", leadID, "error", err)
		return
	}

	body := "Call analysis: " + formatAnswers(result.Answers)
	if _, err := s.leads.LogActivity(ctx, leadID, domain.ActivityCallAnalyzed, body, nil); err != nil {
		s.log.Warn("failed to record call analysis", "call_id", callID, "lead_id", leadID, "error", err)
	}
}

func callSummary(p VoicePayload) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Call %s. Duration: %.1f minutes.", p.Status, p.CallLength)
	if p.AnsweredBy != "" {
		fmt.Fprintf(&b, " Answered by: %s.", p.AnsweredBy)
	}
	if p.CallEndedBy != "" {
		fmt.Fprintf(&b, " Ended by: %s.", p.CallEndedBy)
	}
	if p.Summary != "" {
		fmt.Fprintf(&b, "\n\nSummary: %s", p.Summary)
	}
	if p.RecordingURL != "" {
		fmt.Fprintf(&b, "\n\nRecording: %s", p.RecordingURL)
	}
	return b.String()
}

func formatAnswers(answers []any) string {
	if len(answers) == 0 {
		return "no answers returned"
	}

	parts := make([]string, 0, len(answers))
	for _, a := range answers {
		parts = append(parts, fmt.Sprintf("%v", a))
	}
	return strings.Join(parts, " | ")
}
