// Package config loads service configuration from the environment.
// A .env file is honored when present (development convenience); real
// environment variables always win.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"

	"github.com/joho/godotenv"

	"github.com/Staillim/IQCapitalMaster-sub001/ledger"
)

type Config struct {
	// HTTP server
	Port string

	// Database
	DBPath string

	// Logging
	LogLevel slog.Level

	// Ledger policy overrides
	MinMonthlyContribution int64
	WithdrawalFeePercent   int64
	MaxWithdrawalsPerMonth int
	FineAmount             int64
	MinDepositAmount       int64
	MinWithdrawalAmount    int64
}

func Load() *Config {
	// Missing .env is fine; env vars may come from the process environment.
	_ = godotenv.Load()

	return &Config{
		Port:     getEnv("PORT", "8080"),
		DBPath:   getEnv("DB_PATH", "./data/fund.db"),
		LogLevel: parseLevel(getEnv("LOG_LEVEL", "info")),

		MinMonthlyContribution: getEnvInt64("MIN_MONTHLY_CONTRIBUTION", ledger.DefaultMinMonthlyContribution),
		WithdrawalFeePercent:   getEnvInt64("WITHDRAWAL_FEE_PERCENT", ledger.DefaultWithdrawalFeePercent),
		MaxWithdrawalsPerMonth: int(getEnvInt64("MAX_WITHDRAWALS_PER_MONTH", ledger.DefaultMaxWithdrawalsPerMonth)),
		FineAmount:             getEnvInt64("FINE_AMOUNT", ledger.DefaultFineAmount),
		MinDepositAmount:       getEnvInt64("MIN_DEPOSIT_AMOUNT", ledger.DefaultMinDepositAmount),
		MinWithdrawalAmount:    getEnvInt64("MIN_WITHDRAWAL_AMOUNT", ledger.DefaultMinWithdrawalAmount),
	}
}

// Policy builds the ledger policy from the loaded overrides.
func (c *Config) Policy() ledger.Policy {
	return ledger.Policy{
		MinMonthlyContribution: ledger.NewMoney(c.MinMonthlyContribution),
		WithdrawalFeePercent:   c.WithdrawalFeePercent,
		MaxWithdrawalsPerMonth: c.MaxWithdrawalsPerMonth,
		FineAmount:             ledger.NewMoney(c.FineAmount),
		MinDepositAmount:       ledger.NewMoney(c.MinDepositAmount),
		MinWithdrawalAmount:    ledger.NewMoney(c.MinWithdrawalAmount),
	}
}

// Validate returns an error describing every invalid setting.
func (c *Config) Validate() error {
	var problems []string

	if port, err := strconv.Atoi(c.Port); err != nil {
		problems = append(problems, fmt.Sprintf("invalid port %q: must be a number", c.Port))
	} else if port < 1 || port > 65535 {
		problems = append(problems, fmt.Sprintf("invalid port %d: must be between 1 and 65535", port))
	}

	if c.WithdrawalFeePercent < 0 || c.WithdrawalFeePercent > 100 {
		problems = append(problems, fmt.Sprintf("invalid withdrawal fee %d%%: must be 0-100", c.WithdrawalFeePercent))
	}
	if c.MaxWithdrawalsPerMonth < 1 {
		problems = append(problems, "max withdrawals per month must be at least 1")
	}
	for name, v := range map[string]int64{
		"MIN_MONTHLY_CONTRIBUTION": c.MinMonthlyContribution,
		"FINE_AMOUNT":              c.FineAmount,
		"MIN_DEPOSIT_AMOUNT":       c.MinDepositAmount,
		"MIN_WITHDRAWAL_AMOUNT":    c.MinWithdrawalAmount,
	} {
		if v <= 0 {
			problems = append(problems, fmt.Sprintf("%s must be positive, got %d", name, v))
		}
	}

	if len(problems) > 0 {
		return fmt.Errorf("config validation failed: %v", problems)
	}
	return nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt64(key string, fallback int64) int64 {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			return n
		}
	}
	return fallback
}

func parseLevel(s string) slog.Level {
	switch s {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
