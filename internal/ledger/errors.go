package ledger

import "errors"

// Business-rule rejections. They are expected outcomes reported to the user,
// never faults; match them with errors.Is.
var (
	ErrSelfReferral        = errors.New("self referral")
	ErrAlreadyReferred     = errors.New("already referred")
	ErrInsufficientBalance = errors.New("insufficient balance")
	ErrInvalidAmount       = errors.New("invalid amount")
)

var rejections = []error{
	ErrSelfReferral,
	ErrAlreadyReferred,
	ErrInsufficientBalance,
	ErrInvalidAmount,
}

// IsRejection reports whether err is one of the business-rule rejections
// rather than a store fault.
func IsRejection(err error) bool {
	for _, r := range rejections {
		if errors.Is(err, r) {
			return true
		}
	}
	return false
}

// outcome maps an operation result to a metrics label.
func outcome(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, ErrSelfReferral):
		return "self_referral"
	case errors.Is(err, ErrAlreadyReferred):
		return "already_referred"
	case errors.Is(err, ErrInsufficientBalance):
		return "insufficient_balance"
	case errors.Is(err, ErrInvalidAmount):
		return "invalid_amount"
	default:
		return "error"
	}
}
