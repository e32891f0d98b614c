package wallet

// Default configuration values
const (
	DefaultCurrency = "XAF"
	DefaultPageSize = 20
	MaxPageSize     = 100
)
