package service

import (
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/victoryvault/staking/internal/domain"
)

// A staker with several winning stakes on one market must receive a single
// merged credit, matching the per-(market, staker) uniqueness constraint on
// settlement records.
func TestAggregateByStakerMergesCredits(t *testing.T) {
	rewards := []domain.Reward{
		{StakeID: uuid.New(), StakerID: "alice", Amount: decimal.NewFromInt(100)},
		{StakeID: uuid.New(), StakerID: "bob", Amount: decimal.NewFromInt(50)},
		{StakeID: uuid.New(), StakerID: "alice", Amount: decimal.NewFromInt(25)},
	}

	credits := aggregateByStaker(rewards)

	if len(credits) != 2 {
		t.Fatalf("expected 2 credits, got %d", len(credits))
	}
	if credits[0].stakerID != "alice" || !credits[0].amount.Equal(decimal.NewFromInt(125)) {
		t.Errorf("credits[0] = %s/%s, want alice/125", credits[0].stakerID, credits[0].amount)
	}
	if credits[1].stakerID != "bob" || !credits[1].amount.Equal(decimal.NewFromInt(50)) {
		t.Errorf("credits[1] = %s/%s, want bob/50", credits[1].stakerID, credits[1].amount)
	}
}

func TestAggregateByStakerEmpty(t *testing.T) {
	if got := aggregateByStaker(nil); len(got) != 0 {
		t.Errorf("expected no credits, got %d", len(got))
	}
}

func TestCheckSettleable(t *testing.T) {
	resA := domain.ResultA

	cases := []struct {
		name   string
		market *domain.Market
		want   error
	}{
		{"unresolved", &domain.Market{}, domain.ErrMarketNotResolved},
		{"resolved no result", &domain.Market{Resolved: true}, domain.ErrMarketNotResolved},
		{"already settled", &domain.Market{Resolved: true, Result: &resA, Settled: true}, domain.ErrAlreadySettled},
		{"settleable", &domain.Market{Resolved: true, Result: &resA}, nil},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := checkSettleable(tc.market); got != tc.want {
				t.Errorf("checkSettleable() = %v, want %v", got, tc.want)
			}
		})
	}
}

// A draw must never flow through the win-settlement path, and a decided
// result must never flow through the refund path: both wrong directions
// raise ErrUnsupportedOutcome.
func TestCheckPayoutPath(t *testing.T) {
	resA := domain.ResultA
	resDraw := domain.ResultDraw

	cases := []struct {
		name    string
		result  domain.Result
		refund  bool
		wantErr bool
	}{
		{"win via settle", resA, false, false},
		{"draw via refund", resDraw, true, false},
		{"draw via settle", resDraw, false, true},
		{"win via refund", resA, true, true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			m := &domain.Market{Resolved: true, Result: &tc.result}
			err := checkPayoutPath(m, tc.refund)
			if tc.wantErr {
				if !errors.Is(err, domain.ErrUnsupportedOutcome) {
					t.Errorf("checkPayoutPath() = %v, want ErrUnsupportedOutcome", err)
				}
				return
			}
			if err != nil {
				t.Errorf("checkPayoutPath() = %v, want nil", err)
			}
		})
	}
}
