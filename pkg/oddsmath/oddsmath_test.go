package oddsmath_test

import (
	"math"
	"testing"

	"github.com/XavierBriggs/fortuna/services/stake-calculator/pkg/oddsmath"
)

func TestAmericanToDecimal(t *testing.T) {
	tests := []struct {
		name       string
		american   int
		want       float64
		shouldFail bool
	}{
		{name: "Underdog +150", american: 150, want: 2.50},
		{name: "Favorite -150", american: -150, want: 1.6667},
		{name: "Even +100", american: 100, want: 2.00},
		{name: "Even -100", american: -100, want: 2.00},
		{name: "Standard -110", american: -110, want: 1.9091},
		{name: "Zero", american: 0, shouldFail: true},
		{name: "Inside the gap", american: 50, shouldFail: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := oddsmath.AmericanToDecimal(tt.american)

			if tt.shouldFail {
				if err == nil {
					t.Error("expected error but got none")
				}
				return
			}

			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}

			if math.Abs(got-tt.want) > 0.001 {
				t.Errorf("AmericanToDecimal(%d) = %f, want %f", tt.american, got, tt.want)
			}
		})
	}
}

func TestDecimalToAmerican(t *testing.T) {
	tests := []struct {
		decimal    float64
		want       int
		shouldFail bool
	}{
		{decimal: 2.50, want: 150},
		{decimal: 2.00, want: 100},
		{decimal: 1.50, want: -200},
		{decimal: 1.9091, want: -110},
		{decimal: 1.0, shouldFail: true},
		{decimal: math.NaN(), shouldFail: true},
	}

	for _, tt := range tests {
		got, err := oddsmath.DecimalToAmerican(tt.decimal)
		if tt.shouldFail {
			if err == nil {
				t.Errorf("DecimalToAmerican(%v): expected error", tt.decimal)
			}
			continue
		}
		if err != nil {
			t.Errorf("DecimalToAmerican(%v): unexpected error: %v", tt.decimal, err)
			continue
		}
		if got != tt.want {
			t.Errorf("DecimalToAmerican(%v) = %d, want %d", tt.decimal, got, tt.want)
		}
	}
}

func TestFractionalToDecimal(t *testing.T) {
	got, err := oddsmath.FractionalToDecimal(5, 2)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != 3.5 {
		t.Errorf("5/2 = %f, want 3.5", got)
	}

	if _, err := oddsmath.FractionalToDecimal(1, 0); err == nil {
		t.Error("expected error for zero denominator")
	}
}

func TestOverround(t *testing.T) {
	vig, err := oddsmath.Overround([]float64{1.91, 1.91})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if math.Abs(vig-0.0471) > 0.0001 {
		t.Errorf("overround = %f, want ~0.0471", vig)
	}

	arb, err := oddsmath.Overround([]float64{2.10, 2.05})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if arb >= 0 {
		t.Errorf("arbitrage market should have negative overround, got %f", arb)
	}

	if _, err := oddsmath.Overround([]float64{2.0}); err == nil {
		t.Error("expected error for single outcome")
	}
}

func TestRemoveVig(t *testing.T) {
	fair, err := oddsmath.RemoveVig([]float64{1.80, 2.10, 4.00})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	sum := 0.0
	for _, p := range fair {
		sum += p
	}
	if math.Abs(sum-1.0) > 1e-9 {
		t.Errorf("fair probabilities sum to %f, want 1.0", sum)
	}

	if fair[0] <= fair[1] || fair[1] <= fair[2] {
		t.Errorf("fair probabilities should keep price ordering: %v", fair)
	}
}

func TestExpectedValuePercent(t *testing.T) {
	ev, err := oddsmath.ExpectedValuePercent(0.50, 2.10)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if math.Abs(ev-5.0) > 1e-9 {
		t.Errorf("EV = %f, want 5.0", ev)
	}

	if _, err := oddsmath.ExpectedValuePercent(1.2, 2.0); err == nil {
		t.Error("expected error for probability above 1")
	}
}

func TestOverflowingOddsAreRejected(t *testing.T) {
	if _, err := oddsmath.DecimalToAmerican(1e308); err == nil {
		t.Error("DecimalToAmerican(1e308): expected error")
	}
	if _, err := oddsmath.DecimalToAmerican(1 + 1e-12); err == nil {
		t.Error("DecimalToAmerican(1+1e-12): expected error")
	}
	if _, err := oddsmath.ExpectedValuePercent(0.5, math.MaxFloat64); err == nil {
		t.Error("ExpectedValuePercent at max odds: expected error")
	}
}
