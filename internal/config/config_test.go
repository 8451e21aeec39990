package config

import (
	"testing"

	"github.com/victoryvault/staking/internal/domain"
)

// With no override in the environment the loader falls back to the
// platform default fee.
func TestLoadDefaultFeeRate(t *testing.T) {
	t.Setenv("SETTLEMENT_FEE_RATE", "")

	cfg, err := load()
	if err != nil {
		t.Fatalf("load() error: %v", err)
	}
	if want := domain.DefaultFeeRate.InexactFloat64(); cfg.Settlement.FeeRate != want {
		t.Errorf("FeeRate = %v, want %v", cfg.Settlement.FeeRate, want)
	}
}

func TestLoadFeeRateOverride(t *testing.T) {
	t.Setenv("SETTLEMENT_FEE_RATE", "0.05")

	cfg, err := load()
	if err != nil {
		t.Fatalf("load() error: %v", err)
	}
	if cfg.Settlement.FeeRate != 0.05 {
		t.Errorf("FeeRate = %v, want 0.05", cfg.Settlement.FeeRate)
	}
}

func TestLoadFeeRateInvalid(t *testing.T) {
	t.Setenv("SETTLEMENT_FEE_RATE", "two percent")

	if _, err := load(); err == nil {
		t.Error("expected an error for a non-numeric fee rate")
	}
}
