package wallet

// WalletConfig holds configuration for wallet operations
type WalletConfig struct {
	DefaultCurrency string
	MaxPageSize     int
}

// Page selects a window of the transaction history, newest first.
type Page struct {
	Limit  int
	Offset int
}

// SavingsGoalRequest opens a savings goal.
type SavingsGoalRequest struct {
	Name         string `json:"name" validate:"required,min=1,max=80"`
	TargetAmount int64  `json:"target_amount" validate:"required,gt=0"`
}
