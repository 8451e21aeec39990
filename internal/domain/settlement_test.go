package domain_test

import (
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/victoryvault/staking/internal/domain"
)

func stake(staker string, amount int64) *domain.Stake {
	return &domain.Stake{
		ID:       uuid.New(),
		StakerID: staker,
		MarketID: "m1",
		Outcome:  domain.OutcomeA,
		Amount:   decimal.NewFromInt(amount),
	}
}

// TestComputeRewardsProportional validates the pari-mutuel split for the
// canonical case: poolA=600, poolB=400, fee=2 %, winner=A, three stakers
// with amounts [300, 200, 100].
//
//	distributable = 1000 × 0.98          = 980
//	rewards       = [490, 326.6667, 163.3333] (ratios 300:200:100)
//	Σ rewards     = 980 exactly
func TestComputeRewardsProportional(t *testing.T) {
	winning := []*domain.Stake{
		stake("alice", 300),
		stake("bob", 200),
		stake("carol", 100),
	}
	totalPool := decimal.NewFromInt(1000)
	fee := decimal.NewFromFloat(0.02)

	rewards, distributable := domain.ComputeRewards(winning, totalPool, fee)

	if len(rewards) != 3 {
		t.Fatalf("expected 3 rewards, got %d", len(rewards))
	}
	if want := decimal.NewFromInt(980); !distributable.Equal(want) {
		t.Errorf("distributable = %s, want %s", distributable, want)
	}

	want := []string{"490", "326.6667", "163.3333"}
	sum := decimal.Zero
	for i, r := range rewards {
		w, _ := decimal.NewFromString(want[i])
		if !r.Amount.Equal(w) {
			t.Errorf("reward[%d] = %s, want %s", i, r.Amount, w)
		}
		sum = sum.Add(r.Amount)
	}
	if !sum.Equal(distributable) {
		t.Errorf("Σ rewards = %s, want exactly %s", sum, distributable)
	}

	// Proportionality: reward ratios must match stake ratios.
	r0perUnit := rewards[0].Amount.Div(winning[0].Amount)
	r2perUnit := rewards[2].Amount.Div(winning[2].Amount)
	if r0perUnit.Sub(r2perUnit).Abs().GreaterThan(decimal.NewFromFloat(0.0001)) {
		t.Errorf("per-unit reward differs: %s vs %s", r0perUnit, r2perUnit)
	}
}

// TestComputeRewardsRemainderToLargestStake forces a rounding residual and
// verifies it lands on the largest stake so the total stays exact.
//
//	3 equal stakes of 1, pool 10, fee 2 % → distributable 9.8
//	9.8 / 3 = 3.26666… → rounds to 3.2667 each, Σ = 9.8001
//	The 0.0001 overshoot is taken back from the first (largest-tied) stake.
func TestComputeRewardsRemainderToLargestStake(t *testing.T) {
	winning := []*domain.Stake{
		stake("a", 1),
		stake("b", 1),
		stake("c", 1),
	}
	rewards, distributable := domain.ComputeRewards(
		winning, decimal.NewFromInt(10), decimal.NewFromFloat(0.02))

	sum := decimal.Zero
	for _, r := range rewards {
		sum = sum.Add(r.Amount)
	}
	if !sum.Equal(distributable) {
		t.Fatalf("Σ rewards = %s, want exactly %s", sum, distributable)
	}

	adjusted, _ := decimal.NewFromString("3.2666")
	unadjusted, _ := decimal.NewFromString("3.2667")
	if !rewards[0].Amount.Equal(adjusted) {
		t.Errorf("rewards[0] = %s, want %s (remainder holder)", rewards[0].Amount, adjusted)
	}
	for i := 1; i < 3; i++ {
		if !rewards[i].Amount.Equal(unadjusted) {
			t.Errorf("rewards[%d] = %s, want %s", i, rewards[i].Amount, unadjusted)
		}
	}
}

// TestComputeRewardsNoWinners: a built-up pool with zero stakes on the
// winning side distributes nothing and must not divide by zero.
func TestComputeRewardsNoWinners(t *testing.T) {
	rewards, distributable := domain.ComputeRewards(
		nil, decimal.NewFromInt(1000), decimal.NewFromFloat(0.02))
	if rewards != nil {
		t.Errorf("expected nil rewards, got %v", rewards)
	}
	if !distributable.IsZero() {
		t.Errorf("distributable = %s, want 0", distributable)
	}
}

// TestComputeRewardsSingleWinner: a lone winner takes the whole
// distributable pool.
func TestComputeRewardsSingleWinner(t *testing.T) {
	winning := []*domain.Stake{stake("solo", 50)}
	rewards, distributable := domain.ComputeRewards(
		winning, decimal.NewFromInt(500), decimal.NewFromFloat(0.02))

	if len(rewards) != 1 {
		t.Fatalf("expected 1 reward, got %d", len(rewards))
	}
	if want := decimal.NewFromInt(490); !distributable.Equal(want) {
		t.Errorf("distributable = %s, want %s", distributable, want)
	}
	if !rewards[0].Amount.Equal(distributable) {
		t.Errorf("sole winner reward = %s, want %s", rewards[0].Amount, distributable)
	}
}

// TestDistributableTruncation: fee arithmetic is truncated to ledger
// precision, never rounded up past what the pool holds.
func TestDistributableTruncation(t *testing.T) {
	totalPool, _ := decimal.NewFromString("33.3333")
	fee := decimal.NewFromFloat(0.02)

	got := domain.Distributable(totalPool, fee)
	want, _ := decimal.NewFromString("32.6666") // 33.3333 × 0.98 = 32.666634 → floor
	if !got.Equal(want) {
		t.Errorf("Distributable(%s) = %s, want %s", totalPool, got, want)
	}
	if got.GreaterThan(totalPool) {
		t.Errorf("distributable %s exceeds pool %s", got, totalPool)
	}
}
