package config

import (
	"errors"
	"fmt"
	"io/fs"
	"reflect"
	"strings"
	"time"

	"momo/internal/models"

	"github.com/mitchellh/mapstructure"
	"github.com/shopspring/decimal"
	"github.com/spf13/viper"
)

// Ledger is the configuration consumed read-only by the fee calculator,
// the limit checker and the pin guard.
type Ledger struct {
	Currency           string                        `mapstructure:"currency"`
	Timezone           string                        `mapstructure:"timezone"`
	DefaultFees        models.FeeSchedule            `mapstructure:"default_fees"`
	CountryFees        map[string]models.FeeSchedule `mapstructure:"country_fees"`
	Limits             models.LimitTables            `mapstructure:"limits"`
	PinMaxAttempts     int                           `mapstructure:"pin_max_attempts"`
	PinLockoutDuration []time.Duration               `mapstructure:"pin_lockout_durations"`
	AtomicMutations    bool                          `mapstructure:"atomic_mutations"`
	MaxRetries         int                           `mapstructure:"max_retries"`
}

// DefaultLedger returns the compiled-in configuration.
func DefaultLedger() Ledger {
	return Ledger{
		Currency:           "XAF",
		Timezone:           "Africa/Douala",
		DefaultFees:        models.DefaultFeeSchedule(),
		CountryFees:        map[string]models.FeeSchedule{},
		Limits:             models.DefaultLimitTables(),
		PinMaxAttempts:     3,
		PinLockoutDuration: []time.Duration{30 * time.Minute, 2 * time.Hour, 24 * time.Hour},
		AtomicMutations:    true,
		MaxRetries:         5,
	}
}

// Location resolves the ledger timezone used for daily and monthly windows.
func (l Ledger) Location() *time.Location {
	if l.Timezone == "" {
		return time.UTC
	}
	loc, err := time.LoadLocation(l.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// LoadLedger reads the ledger tables from a YAML file at path on top of the defaults,
// then applies the environment knobs. A missing file is not an error.
func LoadLedger(path string) (Ledger, error) {
	cfg := DefaultLedger()

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !errors.Is(err, fs.ErrNotExist) {
			return cfg, fmt.Errorf("failed to read ledger config: %w", err)
		}
	} else {
		hook := viper.DecodeHook(mapstructure.ComposeDecodeHookFunc(
			decimalHook,
			mapstructure.StringToTimeDurationHookFunc(),
		))
		if err := v.Unmarshal(&cfg, hook); err != nil {
			return cfg, fmt.Errorf("failed to decode ledger config: %w", err)
		}
	}

	normalizeCountries(&cfg)
	applyEnv(&cfg)
	return cfg, cfg.Validate()
}

// viper lower-cases map keys; country codes are looked up upper-case.
func normalizeCountries(cfg *Ledger) {
	fees := make(map[string]models.FeeSchedule, len(cfg.CountryFees))
	for k, v := range cfg.CountryFees {
		fees[strings.ToUpper(k)] = v
	}
	cfg.CountryFees = fees

	limits := make(map[string]models.CountryLimits, len(cfg.Limits.Countries))
	for k, v := range cfg.Limits.Countries {
		limits[strings.ToUpper(k)] = v
	}
	cfg.Limits.Countries = limits
}

func applyEnv(cfg *Ledger) {
	cfg.PinMaxAttempts = GetIntEnv("PIN_MAX_ATTEMPTS", cfg.PinMaxAttempts)
	if len(cfg.PinLockoutDuration) > 0 {
		cfg.PinLockoutDuration[0] = GetDurationEnv("PIN_LOCKOUT_BASE", cfg.PinLockoutDuration[0])
	}
	cfg.Limits.MinTransactionAmount = GetInt64Env("MIN_TRANSACTION_AMOUNT", cfg.Limits.MinTransactionAmount)
	cfg.Timezone = GetEnv("LEDGER_TIMEZONE", cfg.Timezone)
	cfg.AtomicMutations = GetBoolEnv("LEDGER_ATOMIC", cfg.AtomicMutations)
	cfg.MaxRetries = GetIntEnv("LEDGER_MAX_RETRIES", cfg.MaxRetries)
}

// Validate rejects tables the services cannot work with.
func (l Ledger) Validate() error {
	if l.PinMaxAttempts <= 0 {
		return fmt.Errorf("pin_max_attempts must be positive, got %d", l.PinMaxAttempts)
	}
	if len(l.PinLockoutDuration) != models.MaxLockEscalationLevel-1 {
		return fmt.Errorf("pin_lockout_durations needs %d entries, got %d",
			models.MaxLockEscalationLevel-1, len(l.PinLockoutDuration))
	}
	if l.Limits.MinTransactionAmount <= 0 {
		return errors.New("min_transaction_amount must be positive")
	}
	for i, t := range l.Limits.Tiers {
		if t.MaxTransactionAmount <= 0 || t.DailyLimit <= 0 || t.MonthlyLimit <= 0 || t.MaxBalance <= 0 {
			return fmt.Errorf("tier %d has a non-positive limit", i)
		}
	}
	return nil
}

var decimalType = reflect.TypeOf(decimal.Decimal{})

func decimalHook(from reflect.Type, to reflect.Type, data interface{}) (interface{}, error) {
	if to != decimalType {
		return data, nil
	}
	switch v := data.(type) {
	case string:
		return decimal.NewFromString(v)
	case float64:
		return decimal.NewFromFloat(v), nil
	case int:
		return decimal.NewFromInt(int64(v)), nil
	case int64:
		return decimal.NewFromInt(v), nil
	}
	return data, nil
}
