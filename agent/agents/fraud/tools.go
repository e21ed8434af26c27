package fraud

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"

	catalogx "github.com/tanpawarit/Chative-Voice-Tool-Agents/agent/catalog"
	contractx "github.com/tanpawarit/Chative-Voice-Tool-Agents/agent/contract"
	statex "github.com/tanpawarit/Chative-Voice-Tool-Agents/agent/state"
	toolx "github.com/tanpawarit/Chative-Voice-Tool-Agents/agent/tool"
)

const (
	ReplyUnverified   = "I'm sorry, I can't share or change anything on this case until your identity has been verified."
	ReplyNoCase       = "I'm sorry, I couldn't find an open case under that name. Could you say the name exactly as it appears on your account?"
	ReplyNeedName     = "Before we continue, could you tell me your name so I can find your case?"
	ReplyVerified     = "Thank you, you've been verified."
	ReplyLocked       = "I'm sorry, that answer doesn't match our records, so I can't continue on this call. Please call the number on the back of your card for help."
	ReplyAlreadyDone  = "This case has already been resolved on this call."
	ReplyCaseFinished = "We've already finished with a case on this call. Please call the number on the back of your card for anything else."
)

func (s *session) loadUserCase(_ context.Context, args toolx.Args) (string, error) {
	switch s.verification.Stage() {
	case statex.StageVerificationFailed:
		return "", toolx.Reply(contractx.ErrAuthorization, ReplyLocked)
	case statex.StageVerified, statex.StageResolved:
		return "", toolx.Reply(contractx.ErrValidation, ReplyCaseFinished)
	}

	fc, ok := s.deps.Cases.Snapshot().ByName(args.String("user_name"))
	if !ok {
		if err := s.verification.Unload(); err != nil {
			return "", err
		}
		return "", toolx.Reply(contractx.ErrNotFound, ReplyNoCase)
	}
	if err := s.verification.LoadCase(fc); err != nil {
		return "", err
	}
	return fmt.Sprintf("Thank you, %s. For your security, please answer this question: %s", fc.UserName, fc.SecurityQuestion), nil
}

func (s *session) verifySecurityAnswer(_ context.Context, args toolx.Args) (string, error) {
	ok, err := s.verification.Verify(args.String("answer"))
	switch {
	case errors.Is(err, statex.ErrVerificationLocked):
		return "", toolx.ReplyCause(contractx.ErrAuthorization, ReplyLocked, err)
	case errors.Is(err, statex.ErrInvalidTransition):
		return "", toolx.ReplyCause(contractx.ErrValidation, ReplyNeedName, err)
	case err != nil:
		return "", err
	}
	if !ok {
		fc, _ := s.verification.Case()
		log.Warn().Str("card_ending", fc.CardEnding).Msg("security answer mismatch")
		return "", toolx.Reply(contractx.ErrAuthorization, ReplyLocked)
	}
	return ReplyVerified, nil
}

func (s *session) getTransactionDetails(context.Context, toolx.Args) (string, error) {
	if err := s.verification.Authorize(); err != nil {
		return "", s.denied(err)
	}
	fc, _ := s.verification.Case()
	return fmt.Sprintf(
		"We noticed a %s transaction of %s at %s on your card ending in %s, on %s in %s. Did you make this transaction?",
		fc.TransactionCategory, fc.TransactionAmount, fc.TransactionName, fc.CardEnding, fc.TransactionTime, fc.TransactionLocation,
	), nil
}

// confirmTransactionStatus writes the resolution back before committing it to
// the session, so a failed write leaves the case open and verified.
func (s *session) confirmTransactionStatus(ctx context.Context, args toolx.Args) (string, error) {
	resolved, err := s.verification.Resolution(args.Bool("is_legitimate"))
	if err != nil {
		return "", s.denied(err)
	}
	if err := s.deps.Cases.UpdateCase(ctx, resolved); err != nil {
		return "", fmt.Errorf("resolve case: %w", err)
	}
	if err := s.verification.CommitResolution(resolved); err != nil {
		return "", err
	}

	log.Info().
		Str("status", resolved.Status).
		Str("card_ending", resolved.CardEnding).
		Msg("fraud case resolved")
	return resolutionScript(resolved), nil
}

func (s *session) denied(err error) error {
	if s.verification.Stage() == statex.StageResolved {
		return toolx.ReplyCause(contractx.ErrValidation, ReplyAlreadyDone, err)
	}
	return toolx.ReplyCause(contractx.ErrAuthorization, ReplyUnverified, err)
}

func resolutionScript(fc catalogx.FraudCase) string {
	if fc.Status == catalogx.StatusConfirmedSafe {
		return fmt.Sprintf(
			"Thank you for confirming. We've marked the transaction as genuine, so your card ending in %s stays active and no dispute has been raised. Have a great day!",
			fc.CardEnding,
		)
	}
	return fmt.Sprintf(
		"Thank you for letting us know. We've blocked your card ending in %s, a replacement card is on its way, and we've raised a dispute for the %s charge at %s. You won't be responsible for it.",
		fc.CardEnding, fc.TransactionAmount, fc.TransactionName,
	)
}
