package models

// TierLimits are the ceilings attached to one KYC tier.
type TierLimits struct {
	DailyLimit           int64 `mapstructure:"daily_limit" json:"daily_limit"`
	MonthlyLimit         int64 `mapstructure:"monthly_limit" json:"monthly_limit"`
	MaxBalance           int64 `mapstructure:"max_balance" json:"max_balance"`
	MaxTransactionAmount int64 `mapstructure:"max_transaction_amount" json:"max_transaction_amount"`
}

// CountryLimits narrow the tier limits for one country. Zero fields do not constrain.
type CountryLimits TierLimits

// TypeCeilings are absolute per-transaction ceilings by type, independent of tier.
type TypeCeilings struct {
	Deposit         int64 `mapstructure:"deposit" json:"deposit"`
	Withdraw        int64 `mapstructure:"withdraw" json:"withdraw"`
	Transfer        int64 `mapstructure:"transfer" json:"transfer"`
	MerchantPayment int64 `mapstructure:"merchant_payment" json:"merchant_payment"`
	CrossBorder     int64 `mapstructure:"cross_border" json:"cross_border"`
	SavingsIn       int64 `mapstructure:"savings_in" json:"savings_in"`
	SavingsOut      int64 `mapstructure:"savings_out" json:"savings_out"`
}

// Ceiling returns the absolute ceiling for t; 0 means none.
func (c TypeCeilings) Ceiling(t TransactionType) int64 {
	switch t {
	case TransactionTypeDeposit:
		return c.Deposit
	case TransactionTypeWithdraw:
		return c.Withdraw
	case TransactionTypeTransfer:
		return c.Transfer
	case TransactionTypeMerchantPayment:
		return c.MerchantPayment
	case TransactionTypeCrossBorder:
		return c.CrossBorder
	case TransactionTypeSavingsIn:
		return c.SavingsIn
	case TransactionTypeSavingsOut:
		return c.SavingsOut
	}
	return 0
}

// LimitTables is the full limit configuration consumed by the limit checker.
type LimitTables struct {
	MinTransactionAmount int64                    `mapstructure:"min_transaction_amount" json:"min_transaction_amount"`
	Tiers                [KYCTierCount]TierLimits `mapstructure:"tiers" json:"tiers"`
	Countries            map[string]CountryLimits `mapstructure:"countries" json:"countries"`
	Ceilings             TypeCeilings             `mapstructure:"ceilings" json:"ceilings"`
}

// DefaultLimitTables mirrors a typical XAF mobile-money tiering.
func DefaultLimitTables() LimitTables {
	return LimitTables{
		MinTransactionAmount: 100,
		Tiers: [KYCTierCount]TierLimits{
			{DailyLimit: 50_000, MonthlyLimit: 200_000, MaxBalance: 100_000, MaxTransactionAmount: 25_000},
			{DailyLimit: 500_000, MonthlyLimit: 2_000_000, MaxBalance: 1_000_000, MaxTransactionAmount: 250_000},
			{DailyLimit: 2_000_000, MonthlyLimit: 10_000_000, MaxBalance: 5_000_000, MaxTransactionAmount: 1_000_000},
			{DailyLimit: 10_000_000, MonthlyLimit: 50_000_000, MaxBalance: 20_000_000, MaxTransactionAmount: 5_000_000},
		},
		Countries: map[string]CountryLimits{},
		Ceilings: TypeCeilings{
			Deposit:         5_000_000,
			Withdraw:        2_000_000,
			Transfer:        5_000_000,
			MerchantPayment: 5_000_000,
			CrossBorder:     1_000_000,
			SavingsIn:       5_000_000,
			SavingsOut:      5_000_000,
		},
	}
}
