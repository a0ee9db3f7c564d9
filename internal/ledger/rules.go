package ledger

import "fmt"

const (
	DefaultReferralBonus     = 5
	DefaultMinimumWithdrawal = 50
	DefaultRewardMin         = 1
	DefaultRewardMax         = 10
)

// Rules are the configurable amounts the Ledger applies.
type Rules struct {
	ReferralBonus     int64
	MinimumWithdrawal int64
	RewardMin         int64
	RewardMax         int64
}

func DefaultRules() Rules {
	return Rules{
		ReferralBonus:     DefaultReferralBonus,
		MinimumWithdrawal: DefaultMinimumWithdrawal,
		RewardMin:         DefaultRewardMin,
		RewardMax:         DefaultRewardMax,
	}
}

func (r Rules) Validate() error {
	if r.ReferralBonus < 0 {
		return fmt.Errorf("referral bonus must not be negative, got %d", r.ReferralBonus)
	}
	if r.MinimumWithdrawal <= 0 {
		return fmt.Errorf("minimum withdrawal must be positive, got %d", r.MinimumWithdrawal)
	}
	if r.RewardMin < 0 || r.RewardMax < r.RewardMin {
		return fmt.Errorf("invalid reward range [%d, %d]", r.RewardMin, r.RewardMax)
	}
	return nil
}
