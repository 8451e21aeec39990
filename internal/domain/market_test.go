package domain_test

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/victoryvault/staking/internal/domain"
)

func TestResultWinningOutcome(t *testing.T) {
	cases := []struct {
		result domain.Result
		want   domain.Outcome
		hasWin bool
	}{
		{domain.ResultA, domain.OutcomeA, true},
		{domain.ResultB, domain.OutcomeB, true},
		{domain.ResultDraw, "", false},
	}
	for _, tc := range cases {
		got, ok := tc.result.WinningOutcome()
		if ok != tc.hasWin || got != tc.want {
			t.Errorf("WinningOutcome(%s) = (%s, %v), want (%s, %v)",
				tc.result, got, ok, tc.want, tc.hasWin)
		}
	}
}

func TestOutcomeValidation(t *testing.T) {
	if !domain.OutcomeA.IsValid() || !domain.OutcomeB.IsValid() {
		t.Error("A and B must be valid outcomes")
	}
	if domain.Outcome("draw").IsValid() {
		t.Error("draw must not be a stakeable outcome")
	}
	if domain.Outcome("").IsValid() {
		t.Error("empty outcome must be invalid")
	}
}

func TestMarketPoolPercentages(t *testing.T) {
	m := &domain.Market{
		PoolA:     decimal.NewFromInt(600),
		PoolB:     decimal.NewFromInt(400),
		TotalPool: decimal.NewFromInt(1000),
	}

	if got := m.PercentFor(domain.OutcomeA); !got.Equal(decimal.NewFromInt(60)) {
		t.Errorf("PercentFor(A) = %s, want 60", got)
	}
	if got := m.PercentFor(domain.OutcomeB); !got.Equal(decimal.NewFromInt(40)) {
		t.Errorf("PercentFor(B) = %s, want 40", got)
	}

	empty := &domain.Market{}
	if !empty.PercentFor(domain.OutcomeA).IsZero() {
		t.Error("empty pool percentage should be zero")
	}
}

// Implied odds for the 600/400 pool at 2 % fee:
//
//	oddsA = 1000 × 0.98 / 600 ≈ 1.6333
//	oddsB = 1000 × 0.98 / 400 = 2.45
func TestMarketImpliedOdds(t *testing.T) {
	m := &domain.Market{
		PoolA:     decimal.NewFromInt(600),
		PoolB:     decimal.NewFromInt(400),
		TotalPool: decimal.NewFromInt(1000),
	}
	fee := decimal.NewFromFloat(0.02)

	oddsB := m.ImpliedOddsFor(domain.OutcomeB, fee)
	if want := decimal.NewFromFloat(2.45); !oddsB.Equal(want) {
		t.Errorf("ImpliedOddsFor(B) = %s, want %s", oddsB, want)
	}

	oddsA := m.ImpliedOddsFor(domain.OutcomeA, fee)
	approx := decimal.NewFromFloat(1.6333)
	if oddsA.Sub(approx).Abs().GreaterThan(decimal.NewFromFloat(0.0001)) {
		t.Errorf("ImpliedOddsFor(A) = %s, want ≈ %s", oddsA, approx)
	}

	if !(&domain.Market{}).ImpliedOddsFor(domain.OutcomeA, fee).IsZero() {
		t.Error("odds on an empty side should be zero")
	}
}

func TestPlaceStakeRequestValidate(t *testing.T) {
	valid := domain.PlaceStakeRequest{
		StakerID: "0xabc",
		MarketID: "match-1",
		Outcome:  domain.OutcomeA,
		Amount:   decimal.NewFromInt(10),
	}
	if err := valid.Validate(); err != nil {
		t.Errorf("valid request rejected: %v", err)
	}

	cases := []struct {
		name string
		mut  func(*domain.PlaceStakeRequest)
		want error
	}{
		{"missing staker", func(r *domain.PlaceStakeRequest) { r.StakerID = "" }, domain.ErrInvalidStake},
		{"missing market", func(r *domain.PlaceStakeRequest) { r.MarketID = "" }, domain.ErrInvalidStake},
		{"draw outcome", func(r *domain.PlaceStakeRequest) { r.Outcome = "draw" }, domain.ErrInvalidOutcome},
		{"zero amount", func(r *domain.PlaceStakeRequest) { r.Amount = decimal.Zero }, domain.ErrInvalidAmount},
		{"negative amount", func(r *domain.PlaceStakeRequest) { r.Amount = decimal.NewFromInt(-5) }, domain.ErrInvalidAmount},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := valid
			tc.mut(&req)
			if err := req.Validate(); err != tc.want {
				t.Errorf("Validate() = %v, want %v", err, tc.want)
			}
		})
	}
}

func TestErrorPredicates(t *testing.T) {
	if !domain.IsNotFound(domain.ErrMarketNotFound) {
		t.Error("ErrMarketNotFound should be a not-found error")
	}
	if domain.IsNotFound(domain.ErrAlreadySettled) {
		t.Error("ErrAlreadySettled is a conflict, not not-found")
	}
	for _, err := range []error{
		domain.ErrMarketNotActive,
		domain.ErrAlreadyResolved,
		domain.ErrAlreadySettled,
		domain.ErrMarketExists,
	} {
		if !domain.IsConflict(err) {
			t.Errorf("%v should be a conflict error", err)
		}
	}
	if domain.IsConflict(domain.ErrMarketNotResolved) {
		t.Error("ErrMarketNotResolved maps to 400, not conflict")
	}
	if !domain.IsValidation(domain.ErrInvalidAmount) {
		t.Error("ErrInvalidAmount should be a validation error")
	}
}
