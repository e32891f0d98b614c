package models

import "github.com/shopspring/decimal"

// FeeRule prices one transaction type. Percentage is expressed in percent (1.5 = 1.5%).
// MaxFee <= 0 leaves the fee uncapped.
type FeeRule struct {
	Percentage decimal.Decimal `mapstructure:"percentage" json:"percentage"`
	FixedFee   int64           `mapstructure:"fixed_fee" json:"fixed_fee"`
	MinFee     int64           `mapstructure:"min_fee" json:"min_fee"`
	MaxFee     int64           `mapstructure:"max_fee" json:"max_fee"`
}

// FeeSchedule holds one rule per transaction type.
type FeeSchedule struct {
	Deposit         FeeRule `mapstructure:"deposit" json:"deposit"`
	Withdraw        FeeRule `mapstructure:"withdraw" json:"withdraw"`
	Transfer        FeeRule `mapstructure:"transfer" json:"transfer"`
	MerchantPayment FeeRule `mapstructure:"merchant_payment" json:"merchant_payment"`
	CrossBorder     FeeRule `mapstructure:"cross_border" json:"cross_border"`
	SavingsIn       FeeRule `mapstructure:"savings_in" json:"savings_in"`
	SavingsOut      FeeRule `mapstructure:"savings_out" json:"savings_out"`
}

// Rule returns the rule for t, or false for an unknown type.
func (s FeeSchedule) Rule(t TransactionType) (FeeRule, bool) {
	switch t {
	case TransactionTypeDeposit:
		return s.Deposit, true
	case TransactionTypeWithdraw:
		return s.Withdraw, true
	case TransactionTypeTransfer:
		return s.Transfer, true
	case TransactionTypeMerchantPayment:
		return s.MerchantPayment, true
	case TransactionTypeCrossBorder:
		return s.CrossBorder, true
	case TransactionTypeSavingsIn:
		return s.SavingsIn, true
	case TransactionTypeSavingsOut:
		return s.SavingsOut, true
	}
	return FeeRule{}, false
}

// DefaultFeeSchedule is used for any country without its own schedule.
func DefaultFeeSchedule() FeeSchedule {
	return FeeSchedule{
		Withdraw: FeeRule{
			Percentage: decimal.RequireFromString("1.5"),
			FixedFee:   50,
			MinFee:     100,
			MaxFee:     5000,
		},
		Transfer: FeeRule{
			Percentage: decimal.RequireFromString("1"),
			MinFee:     10,
			MaxFee:     2500,
		},
		MerchantPayment: FeeRule{
			Percentage: decimal.RequireFromString("0.5"),
			MaxFee:     1000,
		},
		CrossBorder: FeeRule{
			Percentage: decimal.RequireFromString("3"),
			FixedFee:   100,
			MinFee:     200,
			MaxFee:     15000,
		},
	}
}
