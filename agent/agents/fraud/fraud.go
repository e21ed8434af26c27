package fraud

import (
	"errors"
	"strings"

	catalogx "github.com/tanpawarit/Chative-Voice-Tool-Agents/agent/catalog"
	contractx "github.com/tanpawarit/Chative-Voice-Tool-Agents/agent/contract"
	promptx "github.com/tanpawarit/Chative-Voice-Tool-Agents/agent/prompt"
	statex "github.com/tanpawarit/Chative-Voice-Tool-Agents/agent/state"
	toolx "github.com/tanpawarit/Chative-Voice-Tool-Agents/agent/tool"
)

const (
	ToolLoadUserCase            = "load_user_case"
	ToolVerifySecurityAnswer    = "verify_security_answer"
	ToolGetTransactionDetails   = "get_transaction_details"
	ToolConfirmTransactionState = "confirm_transaction_status"

	DefaultBankName = "your bank"
)

type Deps struct {
	Cases    *catalogx.FraudStore
	BankName string
}

type Variant struct {
	deps Deps
}

var _ contractx.Variant = (*Variant)(nil)

func New(deps Deps) (*Variant, error) {
	if deps.Cases == nil {
		return nil, errors.New("fraud case store is required")
	}
	deps.BankName = strings.TrimSpace(deps.BankName)
	if deps.BankName == "" {
		deps.BankName = DefaultBankName
	}
	return &Variant{deps: deps}, nil
}

func (v *Variant) Name() contractx.AgentType { return contractx.AgentTypeFraud }

func (v *Variant) Instructions() string {
	return promptx.MustRender(contractx.AgentTypeFraud, promptx.Data{BankName: v.deps.BankName})
}

func (v *Variant) NewSession(sessionID string) contractx.Session {
	s := &session{deps: v.deps, verification: statex.NewVerification()}
	return toolx.MustNewDispatcher(sessionID, s.tools())
}

type session struct {
	deps         Deps
	verification *statex.Verification
}

func (s *session) tools() []toolx.Tool {
	return []toolx.Tool{
		{
			Name: ToolLoadUserCase,
			Desc: "Look up the open fraud case for the customer by the name on the account.",
			Params: []toolx.Param{
				{Name: "user_name", Type: toolx.String, Desc: "Customer name as stated", Required: true},
			},
			Handler: s.loadUserCase,
		},
		{
			Name: ToolVerifySecurityAnswer,
			Desc: "Check the customer's answer to the security question. Only one attempt is allowed.",
			Params: []toolx.Param{
				{Name: "answer", Type: toolx.String, Desc: "The customer's answer", Required: true, Sensitive: true},
			},
			Handler: s.verifySecurityAnswer,
		},
		{
			Name:    ToolGetTransactionDetails,
			Desc:    "Read the suspicious transaction. Requires a verified customer.",
			Handler: s.getTransactionDetails,
		},
		{
			Name: ToolConfirmTransactionState,
			Desc: "Resolve the case with the customer's answer. Requires a verified customer.",
			Params: []toolx.Param{
				{Name: "is_legitimate", Type: toolx.Boolean, Desc: "True if the customer made the transaction", Required: true},
			},
			Handler: s.confirmTransactionStatus,
		},
	}
}
