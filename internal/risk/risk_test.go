package risk

import (
	"errors"
	"math"
	"testing"
	"time"

	apperrors "stock-analyzer/internal/errors"
	"stock-analyzer/internal/models"
)

// constantRangeBars builds bars that close at price with a fixed high-low
// span, so ATR equals the span exactly.
func constantRangeBars(n int, price, span float64) []models.Bar {
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	bars := make([]models.Bar, n)
	for i := range bars {
		bars[i] = models.Bar{
			Timestamp: base.Add(time.Duration(i) * 24 * time.Hour),
			Open:      price,
			High:      price + span/2,
			Low:       price - span/2,
			Close:     price,
			Volume:    10000,
		}
	}
	return bars
}

func TestBuildPlan_FloorStopWins(t *testing.T) {
	// Entry 500 with ATR 12: the ATR stop at 476 is tighter than the 8%
	// floor at 460, so the floor wins.
	bars := constantRangeBars(30, 500, 12)

	plan, err := NewManager().BuildPlan(bars, 1_000_000, 0.01)
	if err != nil {
		t.Fatalf("BuildPlan: %v", err)
	}

	if math.Abs(plan.Stop-460) > 1e-9 {
		t.Errorf("Stop = %v, want 460", plan.Stop)
	}
	if math.Abs(plan.RiskPerShare-40) > 1e-9 {
		t.Errorf("RiskPerShare = %v, want 40", plan.RiskPerShare)
	}
	if plan.PositionSize != 250 {
		t.Errorf("PositionSize = %d, want 250", plan.PositionSize)
	}
	if math.Abs(plan.CapitalAtRisk-10000) > 1e-9 {
		t.Errorf("CapitalAtRisk = %v, want 10000", plan.CapitalAtRisk)
	}
}

func TestBuildPlan_ATRStopWins(t *testing.T) {
	// Entry 150 with ATR 12.5: the ATR stop at 125 is wider than the 8%
	// floor at 138, so the ATR stop wins.
	bars := constantRangeBars(30, 150, 12.5)

	plan, err := NewManager().BuildPlan(bars, 1_000_000, 0.01)
	if err != nil {
		t.Fatalf("BuildPlan: %v", err)
	}

	if math.Abs(plan.Stop-125) > 1e-9 {
		t.Errorf("Stop = %v, want 125", plan.Stop)
	}
	if plan.PositionSize != 400 {
		t.Errorf("PositionSize = %d, want 400", plan.PositionSize)
	}
}

func TestBuildPlan_FixedPctPolicy(t *testing.T) {
	// Same series as the ATR-stop case, but under the fixed policy the
	// stop ignores volatility and sits 8% below entry at 138.
	bars := constantRangeBars(30, 150, 12.5)

	plan, err := NewManagerWith(DefaultATRMultiple, DefaultFixedStopPct, StopPolicyFixedPct).
		BuildPlan(bars, 1_000_000, 0.01)
	if err != nil {
		t.Fatalf("BuildPlan: %v", err)
	}

	if math.Abs(plan.Stop-138) > 1e-9 {
		t.Errorf("Stop = %v, want 138", plan.Stop)
	}
	if math.Abs(plan.RiskPerShare-12) > 1e-9 {
		t.Errorf("RiskPerShare = %v, want 12", plan.RiskPerShare)
	}
}

func TestBuildPlan_FixedPctPolicyCustomPct(t *testing.T) {
	bars := constantRangeBars(30, 200, 4)

	plan, err := NewManagerWith(DefaultATRMultiple, 0.05, StopPolicyFixedPct).
		BuildPlan(bars, 1_000_000, 0.01)
	if err != nil {
		t.Fatalf("BuildPlan: %v", err)
	}
	if math.Abs(plan.Stop-190) > 1e-9 {
		t.Errorf("Stop = %v, want 190", plan.Stop)
	}
}

func TestBuildPlan_Targets(t *testing.T) {
	bars := constantRangeBars(30, 200, 4)

	plan, err := NewManager().BuildPlan(bars, 500_000, 0.02)
	if err != nil {
		t.Fatalf("BuildPlan: %v", err)
	}

	if len(plan.Targets) != 2 {
		t.Fatalf("got %d targets, want 2", len(plan.Targets))
	}
	if math.Abs(plan.Targets[0].Price-230) > 1e-9 {
		t.Errorf("target 1 = %v, want 230", plan.Targets[0].Price)
	}
	if math.Abs(plan.Targets[1].Price-260) > 1e-9 {
		t.Errorf("target 2 = %v, want 260", plan.Targets[1].Price)
	}
	if plan.Targets[1].RewardRisk <= plan.Targets[0].RewardRisk {
		t.Error("second target should carry the higher reward:risk")
	}
}

func TestBuildPlan_DefaultsOnBadPortfolio(t *testing.T) {
	bars := constantRangeBars(30, 500, 12)

	plan, err := NewManager().BuildPlan(bars, 0, 0)
	if err != nil {
		t.Fatalf("BuildPlan: %v", err)
	}
	// Defaults: 1,000,000 at 1% risk across a 40-point stop.
	if plan.PositionSize != 250 {
		t.Errorf("PositionSize = %d, want 250 with defaults", plan.PositionSize)
	}
}

func TestBuildPlan_InsufficientData(t *testing.T) {
	_, err := NewManager().BuildPlan(nil, 1_000_000, 0.01)
	if !errors.Is(err, apperrors.ErrInsufficientData) {
		t.Errorf("err = %v, want ErrInsufficientData", err)
	}

	_, err = NewManager().BuildPlan(constantRangeBars(5, 100, 2), 1_000_000, 0.01)
	if !errors.Is(err, apperrors.ErrInsufficientData) {
		t.Errorf("short series: err = %v, want ErrInsufficientData", err)
	}
}

func TestBuildPlanAt_InvalidRisk(t *testing.T) {
	// Zero-range bars give ATR 0; a zero entry then yields a zero stop
	// distance, which cannot be sized.
	bars := constantRangeBars(30, 500, 0)

	_, err := NewManager().BuildPlanAt(bars, 0, 1_000_000, 0.01)
	if !errors.Is(err, apperrors.ErrInvalidRisk) {
		t.Errorf("err = %v, want ErrInvalidRisk", err)
	}

	var invalidErr *apperrors.InvalidRiskError
	if !errors.As(err, &invalidErr) {
		t.Fatalf("err = %v, want *InvalidRiskError", err)
	}
}

func TestNewManagerWith_FallsBackOnBadArgs(t *testing.T) {
	bars := constantRangeBars(30, 500, 12)

	custom, err := NewManagerWith(-1, 2, "trailing").BuildPlan(bars, 1_000_000, 0.01)
	if err != nil {
		t.Fatalf("BuildPlan: %v", err)
	}
	standard, err := NewManager().BuildPlan(bars, 1_000_000, 0.01)
	if err != nil {
		t.Fatalf("BuildPlan: %v", err)
	}
	if custom.Stop != standard.Stop {
		t.Errorf("custom stop %v, want default behavior %v", custom.Stop, standard.Stop)
	}
}
