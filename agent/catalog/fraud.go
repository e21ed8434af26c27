package catalog

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"sync"

	"github.com/rs/zerolog/log"
	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"

	contractx "github.com/tanpawarit/Chative-Voice-Tool-Agents/agent/contract"
	persistx "github.com/tanpawarit/Chative-Voice-Tool-Agents/agent/persist"
)

const (
	StatusPendingReview  = "pending_review"
	StatusConfirmedSafe  = "confirmed_safe"
	StatusConfirmedFraud = "confirmed_fraud"
)

// Amount keeps the transaction amount exactly as written, number or string.
type Amount struct {
	raw json.RawMessage
}

func NewAmount(text string) Amount {
	b, _ := json.Marshal(text)
	return Amount{raw: b}
}

func (a *Amount) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 {
		return fmt.Errorf("empty transaction amount")
	}
	switch b[0] {
	case '"':
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
	case 'n':
	default:
		if _, err := strconv.ParseFloat(string(b), 64); err != nil {
			return fmt.Errorf("transaction amount must be a number or string: %s", b)
		}
	}
	a.raw = append(json.RawMessage(nil), b...)
	return nil
}

func (a Amount) MarshalJSON() ([]byte, error) {
	if len(a.raw) == 0 {
		return []byte("null"), nil
	}
	return a.raw, nil
}

func (a Amount) String() string {
	if len(a.raw) == 0 || string(a.raw) == "null" {
		return ""
	}
	if a.raw[0] == '"' {
		var s string
		if err := json.Unmarshal(a.raw, &s); err == nil {
			return s
		}
	}
	return string(a.raw)
}

type FraudCase struct {
	UserName            string `json:"userName"`
	SecurityQuestion    string `json:"securityQuestion"`
	SecurityAnswer      string `json:"securityAnswer"`
	CardEnding          string `json:"cardEnding"`
	TransactionAmount   Amount `json:"transactionAmount"`
	TransactionName     string `json:"transactionName"`
	TransactionTime     string `json:"transactionTime"`
	TransactionLocation string `json:"transactionLocation"`
	TransactionCategory string `json:"transactionCategory"`
	Status              string `json:"status"`
	Outcome             string `json:"outcome"`

	raw json.RawMessage
}

type fraudCaseFields FraudCase

func (c *FraudCase) UnmarshalJSON(b []byte) error {
	var f fraudCaseFields
	if err := json.Unmarshal(b, &f); err != nil {
		return err
	}
	*c = FraudCase(f)
	c.raw = append(json.RawMessage(nil), bytes.TrimSpace(b)...)
	return nil
}

// MarshalJSON writes the object the case was decoded from with only status
// and outcome replaced. Cases built in code are encoded from their fields.
func (c FraudCase) MarshalJSON() ([]byte, error) {
	if len(c.raw) == 0 || !gjson.ParseBytes(c.raw).IsObject() {
		return json.Marshal(fraudCaseFields(c))
	}
	out, err := sjson.SetBytes(append([]byte(nil), c.raw...), "status", c.Status)
	if err != nil {
		return nil, err
	}
	return sjson.SetBytes(out, "outcome", c.Outcome)
}

type FraudCases []FraudCase

// ByName matches the stored user name exactly, ignoring case and surrounding
// whitespace.
func (cs FraudCases) ByName(name string) (FraudCase, bool) {
	i := cs.indexOf(name)
	if i < 0 {
		return FraudCase{}, false
	}
	return cs[i], true
}

func (cs FraudCases) indexOf(name string) int {
	name = strings.TrimSpace(name)
	if name == "" {
		return -1
	}
	for i, c := range cs {
		if strings.EqualFold(strings.TrimSpace(c.UserName), name) {
			return i
		}
	}
	return -1
}

func DecodeFraudCases(data []byte) (FraudCases, error) {
	var cases FraudCases
	if err := json.Unmarshal(data, &cases); err != nil {
		return nil, err
	}
	return cases, nil
}

// EncodeFraudCases indents with two spaces and leaves non-ASCII and HTML
// characters unescaped.
func EncodeFraudCases(cases FraudCases) ([]byte, error) {
	if cases == nil {
		cases = FraudCases{}
	}
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(cases); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// fraudWriteMu guards the read-modify-write of every fraud document in the
// process.
var fraudWriteMu sync.Mutex

// FraudStore is the only catalog that is written back.
type FraudStore struct {
	*Store[FraudCases]
}

func NewFraudStore(path string) *FraudStore {
	return &FraudStore{
		Store: NewStore("fraud_cases", path, DecodeFraudCases, func() FraudCases { return FraudCases{} }),
	}
}

// Load takes the write lock so a reload cannot swap in a document read before
// a concurrent UpdateCase finished.
func (s *FraudStore) Load(ctx context.Context) (FraudCases, error) {
	fraudWriteMu.Lock()
	defer fraudWriteMu.Unlock()
	return s.Store.Load(ctx)
}

func (s *FraudStore) Reload(ctx context.Context) error {
	_, err := s.Load(ctx)
	return err
}

// Save replaces the whole document with cases.
func (s *FraudStore) Save(ctx context.Context, cases FraudCases) error {
	fraudWriteMu.Lock()
	defer fraudWriteMu.Unlock()
	return s.save(ctx, cases)
}

func (s *FraudStore) save(ctx context.Context, cases FraudCases) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%w: %v", contractx.ErrPersistence, err)
	}
	if s.Path() == "" {
		return fmt.Errorf("%w: fraud case path not configured", contractx.ErrPersistence)
	}
	data, err := EncodeFraudCases(cases)
	if err != nil {
		return fmt.Errorf("%w: encode fraud cases: %v", contractx.ErrPersistence, err)
	}
	if err := persistx.WriteFileAtomic(s.Path(), data, 0o644); err != nil {
		return fmt.Errorf("%w: %v", contractx.ErrPersistence, err)
	}
	s.set(append(FraudCases(nil), cases...))
	return nil
}

// UpdateCase reloads the document, copies the status and outcome of updated
// onto the stored case with the same user name and writes the list back.
// Every other field is kept as it is on disk.
func (s *FraudStore) UpdateCase(ctx context.Context, updated FraudCase) error {
	fraudWriteMu.Lock()
	defer fraudWriteMu.Unlock()

	current, err := s.read()
	if err != nil {
		return fmt.Errorf("%w: reload fraud cases: %v", contractx.ErrPersistence, err)
	}
	i := current.indexOf(updated.UserName)
	if i < 0 {
		return fmt.Errorf("%w: fraud case for %q", contractx.ErrNotFound, updated.UserName)
	}

	patched := current[i]
	patched.Status = updated.Status
	patched.Outcome = updated.Outcome
	next := append(FraudCases(nil), current...)
	next[i] = patched
	if err := s.save(ctx, next); err != nil {
		return err
	}

	log.Info().
		Str("status", updated.Status).
		Int("case_index", i).
		Msg("fraud case updated")
	return nil
}
