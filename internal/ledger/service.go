package ledger

import (
	"context"
	"fmt"
	"math/rand/v2"
	"strconv"
	"strings"

	"referral-earn-bot/internal/concurrency"
	"referral-earn-bot/internal/logger"
	"referral-earn-bot/internal/metrics"
	"referral-earn-bot/internal/models"
)

const (
	opGetOrCreate       = "get_or_create"
	opRecordMembership  = "record_membership"
	opRegisterReferral  = "register_referral"
	opGrantRandomReward = "grant_random_reward"
	opWithdraw          = "withdraw"
	opGrantManualPoints = "grant_manual_points"
)

// Service owns the account rules: lazy creation, join status, referral
// bonuses, random rewards, withdrawals and manual grants.
type Service struct {
	store   Store
	rules   Rules
	locks   *concurrency.LockManager
	randInt func(n int64) int64
}

type Option func(*Service)

func WithRules(r Rules) Option {
	return func(s *Service) { s.rules = r }
}

// WithRandom replaces the source used to draw spin rewards. fn must return a
// value in [0, n).
func WithRandom(fn func(n int64) int64) Option {
	return func(s *Service) { s.randInt = fn }
}

func New(store Store, opts ...Option) *Service {
	s := &Service{
		store:   store,
		rules:   DefaultRules(),
		locks:   concurrency.NewLockManager(),
		randInt: rand.Int64N,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Service) Rules() Rules {
	return s.rules
}

// GetOrCreate returns the account for id, creating a default one on first
// contact. Only store faults fail it.
func (s *Service) GetOrCreate(ctx context.Context, id int64) (acc *models.Account, err error) {
	defer func() { metrics.ObserveLedgerOp(opGetOrCreate, outcome(err)) }()

	unlock := s.locks.LockAll(id)
	defer unlock()

	acc, err = s.store.Load(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to load account %d: %w", id, err)
	}
	if acc != nil {
		return acc, nil
	}

	acc = models.NewAccount(id)
	if err := s.store.Save(ctx, acc); err != nil {
		return nil, fmt.Errorf("failed to create account %d: %w", id, err)
	}
	logger.FromContext(ctx).Info("Account created", "account_id", id)
	return acc, nil
}

// RecordMembership caches the result of a channel membership check.
func (s *Service) RecordMembership(ctx context.Context, id int64, isMember bool) (acc *models.Account, err error) {
	defer func() { metrics.ObserveLedgerOp(opRecordMembership, outcome(err)) }()

	unlock := s.locks.LockAll(id)
	defer unlock()

	err = s.store.Update(ctx, func(tx StoreTx) error {
		acc, err = loadOrDefault(ctx, tx, id)
		if err != nil {
			return err
		}
		acc.JoinedChannel = isMember
		return tx.Save(ctx, acc)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to record membership for %d: %w", id, err)
	}
	return acc, nil
}

// RegisterReferral links newUserID to referrerID and credits the referrer.
// The link and the credit are written in one transaction. Returns the
// updated referrer.
func (s *Service) RegisterReferral(ctx context.Context, newUserID, referrerID int64) (referrer *models.Account, err error) {
	defer func() { metrics.ObserveLedgerOp(opRegisterReferral, outcome(err)) }()

	if newUserID == referrerID {
		return nil, ErrSelfReferral
	}

	unlock := s.locks.LockAll(newUserID, referrerID)
	defer unlock()

	err = s.store.Update(ctx, func(tx StoreTx) error {
		invited, err := loadOrDefault(ctx, tx, newUserID)
		if err != nil {
			return err
		}
		if invited.ReferredBy != nil {
			return ErrAlreadyReferred
		}

		referrer, err = loadOrDefault(ctx, tx, referrerID)
		if err != nil {
			return err
		}

		invited.ReferredBy = &referrerID
		referrer.ReferralCount++
		referrer.Balance += s.rules.ReferralBonus

		if err := tx.Save(ctx, invited); err != nil {
			return err
		}
		if err := tx.Save(ctx, referrer); err != nil {
			return err
		}
		return tx.AppendEntry(ctx, models.NewLedgerEntry(referrer, models.EntryReferralBonus, s.rules.ReferralBonus, &newUserID))
	})
	if err != nil {
		if IsRejection(err) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to register referral %d -> %d: %w", newUserID, referrerID, err)
	}

	metrics.CreditsGranted.WithLabelValues(string(models.EntryReferralBonus)).Add(float64(s.rules.ReferralBonus))
	logger.FromContext(ctx).Info("Referral registered",
		"account_id", newUserID,
		"referrer_id", referrerID,
		"referral_count", referrer.ReferralCount)
	return referrer, nil
}

// GrantRandomReward credits a uniformly drawn amount from
// [RewardMin, RewardMax] and returns it with the updated account.
func (s *Service) GrantRandomReward(ctx context.Context, id int64) (amount int64, acc *models.Account, err error) {
	defer func() { metrics.ObserveLedgerOp(opGrantRandomReward, outcome(err)) }()

	amount = s.rules.RewardMin + s.randInt(s.rules.RewardMax-s.rules.RewardMin+1)
	acc, err = s.credit(ctx, id, amount, models.EntrySpinReward)
	if err != nil {
		return 0, nil, err
	}
	metrics.CreditsGranted.WithLabelValues(string(models.EntrySpinReward)).Add(float64(amount))
	return amount, acc, nil
}

// Withdraw debits exactly MinimumWithdrawal. Balances below it are rejected
// with ErrInsufficientBalance and left unchanged.
func (s *Service) Withdraw(ctx context.Context, id int64) (acc *models.Account, err error) {
	defer func() { metrics.ObserveLedgerOp(opWithdraw, outcome(err)) }()

	amount := s.rules.MinimumWithdrawal

	unlock := s.locks.LockAll(id)
	defer unlock()

	err = s.store.Update(ctx, func(tx StoreTx) error {
		acc, err = loadOrDefault(ctx, tx, id)
		if err != nil {
			return err
		}
		if acc.Balance < amount {
			return ErrInsufficientBalance
		}
		acc.Balance -= amount
		if err := tx.Save(ctx, acc); err != nil {
			return err
		}
		return tx.AppendEntry(ctx, models.NewLedgerEntry(acc, models.EntryWithdrawal, -amount, nil))
	})
	if err != nil {
		if IsRejection(err) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to withdraw for %d: %w", id, err)
	}

	metrics.CreditsWithdrawn.Add(float64(amount))
	logger.FromContext(ctx).Info("Withdrawal completed", "account_id", id, "amount", amount, "balance", acc.Balance)
	return acc, nil
}

// GrantManualPoints credits an operator-supplied amount. rawAmount must be a
// base-10 integer. Negative amounts are accepted as long as the balance stays
// non-negative. Callers are responsible for authorizing the operator.
func (s *Service) GrantManualPoints(ctx context.Context, id int64, rawAmount string) (acc *models.Account, err error) {
	defer func() { metrics.ObserveLedgerOp(opGrantManualPoints, outcome(err)) }()

	amount, perr := strconv.ParseInt(strings.TrimSpace(rawAmount), 10, 64)
	if perr != nil {
		return nil, fmt.Errorf("%w: %q", ErrInvalidAmount, rawAmount)
	}

	acc, err = s.credit(ctx, id, amount, models.EntryManualGrant)
	if err != nil {
		return nil, err
	}
	if amount > 0 {
		metrics.CreditsGranted.WithLabelValues(string(models.EntryManualGrant)).Add(float64(amount))
	}
	logger.FromContext(ctx).Warn("Manual points granted", "account_id", id, "amount", amount, "balance", acc.Balance)
	return acc, nil
}

// credit adds amount (which may be negative) to the balance of id in one
// transaction, rejecting results below zero.
func (s *Service) credit(ctx context.Context, id, amount int64, kind models.EntryKind) (acc *models.Account, err error) {
	unlock := s.locks.LockAll(id)
	defer unlock()

	err = s.store.Update(ctx, func(tx StoreTx) error {
		acc, err = loadOrDefault(ctx, tx, id)
		if err != nil {
			return err
		}
		if acc.Balance+amount < 0 {
			return fmt.Errorf("%w: balance %d cannot absorb %d", ErrInvalidAmount, acc.Balance, amount)
		}
		acc.Balance += amount
		if err := tx.Save(ctx, acc); err != nil {
			return err
		}
		return tx.AppendEntry(ctx, models.NewLedgerEntry(acc, kind, amount, nil))
	})
	if err != nil {
		if IsRejection(err) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to credit %d to %d: %w", amount, id, err)
	}
	return acc, nil
}

func loadOrDefault(ctx context.Context, tx StoreTx, id int64) (*models.Account, error) {
	acc, err := tx.Load(ctx, id)
	if err != nil {
		return nil, err
	}
	if acc == nil {
		acc = models.NewAccount(id)
	}
	return acc, nil
}

// IsVerified reports whether the account passed its last membership check.
// Every action except the recheck itself requires it.
func IsVerified(acc *models.Account) bool {
	return acc != nil && acc.JoinedChannel
}
