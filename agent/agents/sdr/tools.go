package sdr

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"

	contractx "github.com/tanpawarit/Chative-Voice-Tool-Agents/agent/contract"
	statex "github.com/tanpawarit/Chative-Voice-Tool-Agents/agent/state"
	toolx "github.com/tanpawarit/Chative-Voice-Tool-Agents/agent/tool"
)

const (
	ReplyNoFAQMatch = "I don't have specific information about that in my FAQ. Let me connect you with our team who can provide detailed information!"
	ReplyRecorded   = "Information recorded!"
)

func (s *session) searchFAQ(_ context.Context, args toolx.Args) (string, error) {
	query := args.String("query")
	s.lead.RecordQuestion(query)

	entry, ok := s.deps.FAQ.Snapshot().Search(query)
	if !ok {
		return ReplyNoFAQMatch, nil
	}
	return entry.Answer, nil
}

func (s *session) updateLeadInfo(_ context.Context, args toolx.Args) (string, error) {
	patch := make(statex.LeadPatch, len(statex.LeadFields))
	for _, f := range statex.LeadFields {
		patch[f] = args.OptionalString(string(f))
	}
	if changed := s.lead.Merge(patch); len(changed) > 0 {
		log.Debug().Interface("fields", changed).Msg("lead updated")
	}
	return ReplyRecorded, nil
}

func (s *session) clearLeadField(_ context.Context, args toolx.Args) (string, error) {
	f, err := statex.ParseLeadField(args.String("field"))
	if err != nil {
		return "", fmt.Errorf("%w: %v", contractx.ErrValidation, err)
	}
	had, err := s.lead.Clear(f)
	if err != nil {
		return "", fmt.Errorf("%w: %v", contractx.ErrValidation, err)
	}
	if !had {
		return fmt.Sprintf("I didn't have a %s recorded.", fieldLabel(f)), nil
	}
	return fmt.Sprintf("Okay, I've removed your %s.", fieldLabel(f)), nil
}

func (s *session) getLeadSummary(context.Context, toolx.Args) (string, error) {
	var known []string
	for _, f := range statex.LeadFields {
		if v := s.lead.Get(f); v != "" {
			known = append(known, fmt.Sprintf("%s: %s", fieldLabel(f), v))
		}
	}
	missing := s.lead.Missing()

	var b strings.Builder
	if len(known) == 0 {
		b.WriteString("I haven't recorded any details yet.")
	} else {
		b.WriteString("So far I have ")
		b.WriteString(strings.Join(known, "; "))
		b.WriteString(".")
	}
	if len(missing) > 0 {
		labels := make([]string, 0, len(missing))
		for _, f := range missing {
			labels = append(labels, fieldLabel(f))
		}
		b.WriteString(" Still missing: ")
		b.WriteString(strings.Join(labels, ", "))
		b.WriteString(".")
	}
	return b.String(), nil
}

func (s *session) saveLead(ctx context.Context, args toolx.Args) (string, error) {
	now := s.deps.Now()
	rec := s.lead.Finalized(args.String("conversation_summary"), now)

	location, err := s.deps.Leads.Write(ctx, contractx.Checkpoint{
		Kind:      "lead",
		Name:      rec.Name,
		CreatedAt: now,
		Payload:   rec,
	})
	if err != nil {
		return "", fmt.Errorf("save lead: %w", err)
	}
	s.lead.MarkSaved(rec)

	log.Info().
		Str("path", location).
		Int("questions", len(rec.QuestionsAsked)).
		Msg("lead saved")
	return spokenSummary(rec, s.deps.FAQ.Snapshot().Company()), nil
}

func spokenSummary(rec statex.LeadRecord, companyName string) string {
	var b strings.Builder
	b.WriteString("Perfect! I've recorded all your details")
	if rec.Name != "" {
		b.WriteString(", " + rec.Name)
	}
	if rec.Company != "" {
		b.WriteString(" from " + rec.Company)
	}
	b.WriteString(".")
	if rec.UseCase != "" {
		fmt.Fprintf(&b, " You're interested in using %s for %s.", companyName, rec.UseCase)
	}
	if rec.Timeline != "" && !strings.EqualFold(rec.Timeline, "exploring") {
		fmt.Fprintf(&b, " Your timeline is %s.", rec.Timeline)
	}
	b.WriteString(" Our team will reach out to you shortly. Thanks for your time today!")
	return b.String()
}
