package state

import (
	"errors"
	"fmt"
	"strings"

	catalogx "github.com/tanpawarit/Chative-Voice-Tool-Agents/agent/catalog"
	contractx "github.com/tanpawarit/Chative-Voice-Tool-Agents/agent/contract"
)

type VerificationStage string

const (
	StageNoCase             VerificationStage = "no_case"
	StageCaseLoaded         VerificationStage = "case_loaded"
	StageVerified           VerificationStage = "verified"
	StageVerificationFailed VerificationStage = "verification_failed"
	StageResolved           VerificationStage = "resolved"
)

const (
	OutcomeConfirmedSafe  = "no block, dispute not raised"
	OutcomeConfirmedFraud = "card blocked, replacement issued, dispute raised"
)

var (
	ErrInvalidTransition  = errors.New("invalid verification transition")
	ErrVerificationLocked = errors.New("verification failed for this session")
)

// Verification gates disclosure and resolution of a fraud case behind one
// security answer. A wrong answer locks the session for good.
type Verification struct {
	stage VerificationStage
	fc    catalogx.FraudCase
}

func NewVerification() *Verification {
	return &Verification{stage: StageNoCase}
}

func (v *Verification) Stage() VerificationStage { return v.stage }

// Case returns the loaded case; ok is false before a successful lookup.
func (v *Verification) Case() (catalogx.FraudCase, bool) {
	if v.stage == StageNoCase {
		return catalogx.FraudCase{}, false
	}
	return v.fc, true
}

// LoadCase is allowed before any answer was checked. Loading again replaces
// the case while still in CaseLoaded.
func (v *Verification) LoadCase(fc catalogx.FraudCase) error {
	switch v.stage {
	case StageNoCase, StageCaseLoaded:
		v.fc = fc
		v.stage = StageCaseLoaded
		return nil
	default:
		return fmt.Errorf("%w: cannot load a case from %s", ErrInvalidTransition, v.stage)
	}
}

// Unload drops a loaded case after a failed lookup so the next answer cannot
// be checked against a previous caller's case.
func (v *Verification) Unload() error {
	switch v.stage {
	case StageNoCase, StageCaseLoaded:
		v.fc = catalogx.FraudCase{}
		v.stage = StageNoCase
		return nil
	default:
		return fmt.Errorf("%w: cannot unload a case from %s", ErrInvalidTransition, v.stage)
	}
}

// Verify compares the trimmed, lowercased answer with the stored one.
func (v *Verification) Verify(answer string) (bool, error) {
	switch v.stage {
	case StageVerified, StageResolved:
		return true, nil
	case StageVerificationFailed:
		return false, ErrVerificationLocked
	case StageNoCase:
		return false, fmt.Errorf("%w: no case loaded", ErrInvalidTransition)
	}

	if normalizeAnswer(answer) != "" && normalizeAnswer(answer) == normalizeAnswer(v.fc.SecurityAnswer) {
		v.stage = StageVerified
		return true, nil
	}
	v.stage = StageVerificationFailed
	return false, nil
}

// Authorize returns contract.ErrAuthorization unless the caller is verified
// and the case is still open.
func (v *Verification) Authorize() error {
	if v.stage != StageVerified {
		return fmt.Errorf("%w: stage=%s", contractx.ErrAuthorization, v.stage)
	}
	return nil
}

// Resolution builds the resolved copy of the case without committing it.
func (v *Verification) Resolution(legitimate bool) (catalogx.FraudCase, error) {
	if err := v.Authorize(); err != nil {
		return catalogx.FraudCase{}, err
	}
	resolved := v.fc
	if legitimate {
		resolved.Status = catalogx.StatusConfirmedSafe
		resolved.Outcome = OutcomeConfirmedSafe
	} else {
		resolved.Status = catalogx.StatusConfirmedFraud
		resolved.Outcome = OutcomeConfirmedFraud
	}
	return resolved, nil
}

// CommitResolution records a resolution after it was written back.
func (v *Verification) CommitResolution(resolved catalogx.FraudCase) error {
	if err := v.Authorize(); err != nil {
		return err
	}
	v.fc = resolved
	v.stage = StageResolved
	return nil
}

func normalizeAnswer(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
