package state

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

type LeadField string

const (
	LeadName     LeadField = "name"
	LeadCompany  LeadField = "company"
	LeadEmail    LeadField = "email"
	LeadRole     LeadField = "role"
	LeadUseCase  LeadField = "use_case"
	LeadTeamSize LeadField = "team_size"
	LeadTimeline LeadField = "timeline"
)

// LeadFields lists the profile fields in capture order.
var LeadFields = []LeadField{
	LeadName, LeadCompany, LeadEmail, LeadRole, LeadUseCase, LeadTeamSize, LeadTimeline,
}

var ErrUnknownLeadField = errors.New("unknown lead field")

func ParseLeadField(raw string) (LeadField, error) {
	f := LeadField(strings.ToLower(strings.TrimSpace(raw)))
	for _, known := range LeadFields {
		if f == known {
			return f, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownLeadField, raw)
}

type LeadRecord struct {
	Name                string   `json:"name"`
	Company             string   `json:"company"`
	Email               string   `json:"email"`
	Role                string   `json:"role"`
	UseCase             string   `json:"use_case"`
	TeamSize            string   `json:"team_size"`
	Timeline            string   `json:"timeline"`
	QuestionsAsked      []string `json:"questions_asked"`
	ConversationSummary string   `json:"conversation_summary"`
	Timestamp           string   `json:"timestamp"`
}

// LeadPatch carries optional updates. A nil field means "not provided".
type LeadPatch map[LeadField]*string

// Lead accumulates a prospect's profile over a conversation. It is owned by
// one session and not safe for concurrent use.
type Lead struct {
	rec LeadRecord
}

func NewLead() *Lead {
	return &Lead{rec: LeadRecord{QuestionsAsked: []string{}}}
}

func (l *Lead) field(f LeadField) *string {
	switch f {
	case LeadName:
		return &l.rec.Name
	case LeadCompany:
		return &l.rec.Company
	case LeadEmail:
		return &l.rec.Email
	case LeadRole:
		return &l.rec.Role
	case LeadUseCase:
		return &l.rec.UseCase
	case LeadTeamSize:
		return &l.rec.TeamSize
	case LeadTimeline:
		return &l.rec.Timeline
	default:
		return nil
	}
}

// Merge applies provided, non-blank values and returns the fields that
// changed. Absent or blank values never clear a recorded field.
func (l *Lead) Merge(p LeadPatch) []LeadField {
	changed := make([]LeadField, 0, len(p))
	for _, f := range LeadFields {
		v, ok := p[f]
		if !ok || v == nil {
			continue
		}
		val := strings.TrimSpace(*v)
		if val == "" {
			continue
		}
		dst := l.field(f)
		if *dst == val {
			continue
		}
		*dst = val
		changed = append(changed, f)
	}
	return changed
}

// Clear empties one field and reports whether it held a value.
func (l *Lead) Clear(f LeadField) (bool, error) {
	dst := l.field(f)
	if dst == nil {
		return false, fmt.Errorf("%w: %q", ErrUnknownLeadField, f)
	}
	had := *dst != ""
	*dst = ""
	return had, nil
}

func (l *Lead) Get(f LeadField) string {
	if dst := l.field(f); dst != nil {
		return *dst
	}
	return ""
}

// RecordQuestion appends a question topic unless an equal one (ignoring case
// and surrounding space) was already recorded.
func (l *Lead) RecordQuestion(topic string) bool {
	topic = strings.TrimSpace(topic)
	if topic == "" {
		return false
	}
	for _, q := range l.rec.QuestionsAsked {
		if strings.EqualFold(q, topic) {
			return false
		}
	}
	l.rec.QuestionsAsked = append(l.rec.QuestionsAsked, topic)
	return true
}

// Missing lists the profile fields still empty.
func (l *Lead) Missing() []LeadField {
	var out []LeadField
	for _, f := range LeadFields {
		if l.Get(f) == "" {
			out = append(out, f)
		}
	}
	return out
}

func (l *Lead) Snapshot() LeadRecord {
	rec := l.rec
	rec.QuestionsAsked = append([]string{}, l.rec.QuestionsAsked...)
	return rec
}

// Finalized returns the record stamped for saving without changing the lead.
// Commit it with MarkSaved once the write succeeded.
func (l *Lead) Finalized(summary string, now time.Time) LeadRecord {
	rec := l.Snapshot()
	rec.ConversationSummary = strings.TrimSpace(summary)
	rec.Timestamp = now.Format(time.RFC3339)
	return rec
}

func (l *Lead) MarkSaved(rec LeadRecord) {
	l.rec.ConversationSummary = rec.ConversationSummary
	l.rec.Timestamp = rec.Timestamp
}
