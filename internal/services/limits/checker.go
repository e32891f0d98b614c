// Package limits enforces the per-type, per-tier and per-country transaction limits.
package limits

import (
	"context"
	"strings"
	"time"

	apperrors "momo/internal/errors"
	"momo/internal/models"
)

// TurnoverRepository aggregates the outgoing amounts already moved by a wallet.
// repositories.TransactionRepository satisfies it.
type TurnoverRepository interface {
	SumOutgoingSince(ctx context.Context, walletID uint, since time.Time) (int64, error)
}

type LimitRequest struct {
	WalletID uint
	Tier     models.KYCTier
	Country  string
	Type     models.TransactionType
	Amount   int64
}

type Checker struct {
	tables   models.LimitTables
	turnover TurnoverRepository
	loc      *time.Location
	now      func() time.Time
}

func NewChecker(tables models.LimitTables, turnover TurnoverRepository, loc *time.Location) *Checker {
	if turnover == nil {
		panic("turnover repository is required")
	}
	if loc == nil {
		loc = time.UTC
	}
	countries := make(map[string]models.CountryLimits, len(tables.Countries))
	for code, caps := range tables.Countries {
		countries[strings.ToUpper(code)] = caps
	}
	tables.Countries = countries

	return &Checker{
		tables:   tables,
		turnover: turnover,
		loc:      loc,
		now:      time.Now,
	}
}

// CheckLimits returns nil when req fits every applicable limit.
func (c *Checker) CheckLimits(ctx context.Context, req LimitRequest) error {
	if req.Amount <= 0 {
		return apperrors.ErrInvalidAmount
	}
	if req.Amount < c.tables.MinTransactionAmount {
		return apperrors.ErrAmountBelowMinimum.WithMessage(
			"amount must be at least %d", c.tables.MinTransactionAmount)
	}
	if ceiling := c.tables.Ceilings.Ceiling(req.Type); ceiling > 0 && req.Amount > ceiling {
		return apperrors.ErrTypeCeilingExceeded.WithMessage(
			"%s amount cannot exceed %d", req.Type, ceiling)
	}

	eff, err := c.Effective(req.Tier, req.Country)
	if err != nil {
		return err
	}
	if req.Amount > eff.MaxTransactionAmount {
		return apperrors.ErrTransactionLimitExceeded.WithMessage(
			"amount cannot exceed %d per transaction", eff.MaxTransactionAmount)
	}

	if !req.Type.IsOutgoing() {
		return nil
	}

	now := c.now().In(c.loc)
	dayStart := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, c.loc)
	monthStart := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, c.loc)

	daily, err := c.turnover.SumOutgoingSince(ctx, req.WalletID, dayStart)
	if err != nil {
		return apperrors.Internal("failed to compute daily turnover", err)
	}
	if daily+req.Amount > eff.DailyLimit {
		return apperrors.ErrDailyLimitExceeded.WithMessage(
			"daily limit of %d exceeded, %d remaining", eff.DailyLimit, remaining(eff.DailyLimit, daily))
	}

	monthly, err := c.turnover.SumOutgoingSince(ctx, req.WalletID, monthStart)
	if err != nil {
		return apperrors.Internal("failed to compute monthly turnover", err)
	}
	if monthly+req.Amount > eff.MonthlyLimit {
		return apperrors.ErrMonthlyLimitExceeded.WithMessage(
			"monthly limit of %d exceeded, %d remaining", eff.MonthlyLimit, remaining(eff.MonthlyLimit, monthly))
	}
	return nil
}

// Effective returns the tier limits narrowed by the country caps.
func (c *Checker) Effective(tier models.KYCTier, country string) (models.TierLimits, error) {
	if !tier.Valid() {
		return models.TierLimits{}, apperrors.ErrInvalidTier
	}
	eff := c.tables.Tiers[tier]

	caps, ok := c.tables.Countries[strings.ToUpper(country)]
	if !ok {
		return eff, nil
	}
	eff.DailyLimit = narrow(eff.DailyLimit, caps.DailyLimit)
	eff.MonthlyLimit = narrow(eff.MonthlyLimit, caps.MonthlyLimit)
	eff.MaxBalance = narrow(eff.MaxBalance, caps.MaxBalance)
	eff.MaxTransactionAmount = narrow(eff.MaxTransactionAmount, caps.MaxTransactionAmount)
	return eff, nil
}

// MaxBalance is the ceiling a credit may not push a wallet of the given tier
// and country above. An unknown tier yields the tier-0 ceiling.
func (c *Checker) MaxBalance(tier models.KYCTier, country string) int64 {
	eff, err := c.Effective(tier, country)
	if err != nil {
		eff, _ = c.Effective(models.KYCTier0, country)
	}
	return eff.MaxBalance
}

func narrow(limit, capValue int64) int64 {
	if capValue > 0 && capValue < limit {
		return capValue
	}
	return limit
}

func remaining(limit, used int64) int64 {
	if used >= limit {
		return 0
	}
	return limit - used
}
