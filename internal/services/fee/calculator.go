// Package fee prices ledger operations from the configured fee schedules.
package fee

import (
	"strings"

	"momo/internal/models"

	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

type Calculator struct {
	defaults  models.FeeSchedule
	byCountry map[string]models.FeeSchedule
}

// NewCalculator builds a calculator over the default schedule and optional
// per-country overrides keyed by ISO country code.
func NewCalculator(defaults models.FeeSchedule, byCountry map[string]models.FeeSchedule) *Calculator {
	countries := make(map[string]models.FeeSchedule, len(byCountry))
	for code, schedule := range byCountry {
		countries[strings.ToUpper(code)] = schedule
	}
	return &Calculator{defaults: defaults, byCountry: countries}
}

// ComputeFee returns the fee for moving amount with type t from originCountry to
// destCountry. destCountry may be empty for single-leg operations.
func (c *Calculator) ComputeFee(amount int64, t models.TransactionType, originCountry, destCountry string) int64 {
	if amount <= 0 || t == models.TransactionTypeDeposit {
		return 0
	}
	if t == models.TransactionTypeTransfer && IsCrossBorder(originCountry, destCountry) {
		t = models.TransactionTypeCrossBorder
	}

	rule, ok := c.schedule(originCountry).Rule(t)
	if !ok {
		return 0
	}
	return Apply(rule, amount)
}

// Apply prices amount with rule: percentage plus fixed part, rounded up to the
// next whole unit, then clamped to the rule bounds.
func Apply(rule models.FeeRule, amount int64) int64 {
	fee := decimal.NewFromInt(amount).
		Mul(rule.Percentage).
		Div(hundred).
		Add(decimal.NewFromInt(rule.FixedFee)).
		Ceil().
		IntPart()

	if fee < rule.MinFee {
		fee = rule.MinFee
	}
	if rule.MaxFee > 0 && fee > rule.MaxFee {
		fee = rule.MaxFee
	}
	if fee < 0 {
		fee = 0
	}
	return fee
}

// IsCrossBorder reports whether both countries are known and differ.
func IsCrossBorder(originCountry, destCountry string) bool {
	if originCountry == "" || destCountry == "" {
		return false
	}
	return !strings.EqualFold(originCountry, destCountry)
}

func (c *Calculator) schedule(country string) models.FeeSchedule {
	if s, ok := c.byCountry[strings.ToUpper(country)]; ok {
		return s
	}
	return c.defaults
}
