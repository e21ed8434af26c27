package sdr

import (
	"errors"
	"strings"
	"time"

	catalogx "github.com/tanpawarit/Chative-Voice-Tool-Agents/agent/catalog"
	contractx "github.com/tanpawarit/Chative-Voice-Tool-Agents/agent/contract"
	promptx "github.com/tanpawarit/Chative-Voice-Tool-Agents/agent/prompt"
	statex "github.com/tanpawarit/Chative-Voice-Tool-Agents/agent/state"
	toolx "github.com/tanpawarit/Chative-Voice-Tool-Agents/agent/tool"
)

const (
	ToolSearchFAQ      = "search_faq"
	ToolUpdateLeadInfo = "update_lead_info"
	ToolClearLeadField = "clear_lead_field"
	ToolGetLeadSummary = "get_lead_summary"
	ToolSaveLead       = "save_lead"
)

type Deps struct {
	FAQ   *catalogx.Store[catalogx.FAQ]
	Leads contractx.Sink
	Now   func() time.Time
}

type Variant struct {
	deps Deps
}

var _ contractx.Variant = (*Variant)(nil)

func New(deps Deps) (*Variant, error) {
	if deps.FAQ == nil {
		return nil, errors.New("faq store is required")
	}
	if deps.Leads == nil {
		return nil, errors.New("lead sink is required")
	}
	if deps.Now == nil {
		deps.Now = time.Now
	}
	return &Variant{deps: deps}, nil
}

func (v *Variant) Name() contractx.AgentType { return contractx.AgentTypeSDR }

// Instructions reads company and product names from the current FAQ
// snapshot, so a reload is picked up by new sessions.
func (v *Variant) Instructions() string {
	faq := v.deps.FAQ.Snapshot()
	return promptx.MustRender(contractx.AgentTypeSDR, promptx.Data{
		CompanyName: faq.Company(),
		Product:     faq.ProductName(),
	})
}

func (v *Variant) NewSession(sessionID string) contractx.Session {
	s := &session{deps: v.deps, lead: statex.NewLead()}
	return toolx.MustNewDispatcher(sessionID, s.tools())
}

type session struct {
	deps Deps
	lead *statex.Lead
}

func (s *session) tools() []toolx.Tool {
	leadParams := make([]toolx.Param, 0, len(statex.LeadFields))
	for _, f := range statex.LeadFields {
		leadParams = append(leadParams, toolx.Param{
			Name: string(f),
			Type: toolx.String,
			Desc: "The prospect's " + fieldLabel(f) + ", if mentioned.",
		})
	}
	fieldNames := make([]string, 0, len(statex.LeadFields))
	for _, f := range statex.LeadFields {
		fieldNames = append(fieldNames, string(f))
	}

	return []toolx.Tool{
		{
			Name: ToolSearchFAQ,
			Desc: "Search the company FAQ to answer a product, pricing or company question.",
			Params: []toolx.Param{
				{Name: "query", Type: toolx.String, Desc: "The prospect's question or topic", Required: true},
			},
			Handler: s.searchFAQ,
		},
		{
			Name:    ToolUpdateLeadInfo,
			Desc:    "Record lead details as the prospect shares them. Only pass the fields you heard; omitted fields stay unchanged.",
			Params:  leadParams,
			Handler: s.updateLeadInfo,
		},
		{
			Name: ToolClearLeadField,
			Desc: "Remove one recorded lead detail when the prospect asks to take it back.",
			Params: []toolx.Param{
				{Name: "field", Type: toolx.String, Desc: "Field to clear", Required: true, Enum: fieldNames},
			},
			Handler: s.clearLeadField,
		},
		{
			Name:    ToolGetLeadSummary,
			Desc:    "Read back what has been recorded so far and what is still missing.",
			Handler: s.getLeadSummary,
		},
		{
			Name: ToolSaveLead,
			Desc: "Save the lead when the conversation is ending.",
			Params: []toolx.Param{
				{Name: "conversation_summary", Type: toolx.String, Desc: "One or two sentences summarizing the conversation"},
			},
			Handler: s.saveLead,
		},
	}
}

func fieldLabel(f statex.LeadField) string {
	return strings.ReplaceAll(string(f), "_", " ")
}
