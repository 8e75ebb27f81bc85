package portfolio

import (
	"math"
	"testing"

	"options-cockpit/internal/errors"
	"options-cockpit/internal/models"
)

func TestEvaluateSingle(t *testing.T) {
	tests := []struct {
		name      string
		req       SingleRequest
		pnl       float64
		be        float64
		maxProfit *float64
		maxLoss   *float64
	}{
		{
			name: "long call", req: SingleRequest{OptionType: models.Call, Side: models.Long, K: 50, Premium: 2, Underlying: 60},
			pnl: 800, be: 52, maxProfit: nil, maxLoss: ptr(-200),
		},
		{
			name: "long put", req: SingleRequest{OptionType: models.Put, Side: models.Long, K: 50, Premium: 2, Underlying: 45},
			pnl: 300, be: 48, maxProfit: ptr(4800), maxLoss: ptr(-200),
		},
		{
			name: "short call", req: SingleRequest{OptionType: models.Call, Side: models.Short, K: 50, Premium: 2, Qty: 2, Underlying: 55},
			pnl: -600, be: 52, maxProfit: ptr(400), maxLoss: nil,
		},
		{
			name: "short put", req: SingleRequest{OptionType: models.Put, Side: models.Short, K: 50, Premium: 2, ContractSize: 10, Underlying: 60},
			pnl: 20, be: 48, maxProfit: ptr(20), maxLoss: ptr(-480),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := EvaluateSingle(tt.req)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if math.Abs(res.PnL-tt.pnl) > 1e-9 {
				t.Errorf("pnl = %v, want %v", res.PnL, tt.pnl)
			}
			if len(res.Breakevens) != 1 || res.Breakevens[0] != tt.be {
				t.Errorf("breakevens = %v, want [%v]", res.Breakevens, tt.be)
			}
			if !samePtr(res.MaxProfit, tt.maxProfit) {
				t.Errorf("max profit = %v, want %v", deref(res.MaxProfit), deref(tt.maxProfit))
			}
			if !samePtr(res.MaxLoss, tt.maxLoss) {
				t.Errorf("max loss = %v, want %v", deref(res.MaxLoss), deref(tt.maxLoss))
			}
		})
	}
}

func TestEvaluateSingle_Curve(t *testing.T) {
	res, err := EvaluateSingle(SingleRequest{
		OptionType: models.Call, Side: models.Long, K: 100, Premium: 5, Underlying: 100,
		Curve: &CurveSpec{SMin: 80, SMax: 120, Steps: 41},
	})
	if err != nil {
		t.Fatal(err)
	}
	if len(res.Curve) != 41 {
		t.Fatalf("curve length = %d", len(res.Curve))
	}
	bes := Breakevens(res.Curve)
	if len(bes) != 1 || math.Abs(bes[0]-105) > 1 {
		t.Errorf("curve breakevens = %v", bes)
	}

	_, err = EvaluateSingle(SingleRequest{
		OptionType: models.Call, Side: models.Long, K: 100, Premium: 5, Underlying: 100,
		Curve: &CurveSpec{SMin: 80, SMax: 120, Steps: 5000},
	})
	if !errors.Is(err, errors.ErrInvalidInput) {
		t.Errorf("expected ErrInvalidInput for oversized curve, got %v", err)
	}
}

func TestEvaluateVertical(t *testing.T) {
	// Bull call debit spread: buy 100 @ 5, sell 110 @ 2.
	long := VerticalRequest{
		OptionType: models.Call, Side: models.Long,
		KLong: 100, KShort: 110, PremiumLong: 5, PremiumShort: 2,
		Underlying: 120,
	}
	res, err := EvaluateVertical(long)
	if err != nil {
		t.Fatal(err)
	}
	if res.PnL != 700 {
		t.Errorf("pnl = %v, want 700", res.PnL)
	}
	if res.Breakevens[0] != 103 {
		t.Errorf("breakeven = %v, want 103", res.Breakevens[0])
	}
	if *res.MaxProfit != 700 || *res.MaxLoss != -300 {
		t.Errorf("max = (%v, %v), want (700, -300)", *res.MaxProfit, *res.MaxLoss)
	}

	// Short put vertical: sell the 100 put @ 3 and buy the 95 put @ 1.
	short := VerticalRequest{
		OptionType: models.Put, Side: models.Short,
		KLong: 100, KShort: 95, PremiumLong: 3, PremiumShort: 1,
		Underlying: 90,
	}
	res, err = EvaluateVertical(short)
	if err != nil {
		t.Fatal(err)
	}
	if res.PnL != -300 {
		t.Errorf("short vertical pnl = %v, want -300", res.PnL)
	}
	if res.Breakevens[0] != 98 {
		t.Errorf("short vertical breakeven = %v, want 98", res.Breakevens[0])
	}
	mp, ml := VerticalMaxPL(short)
	if mp != 200 || ml != -300 {
		t.Errorf("short vertical max = (%v, %v), want (200, -300)", mp, ml)
	}
}

func TestVerticalPnLMatchesLegs(t *testing.T) {
	r := VerticalRequest{OptionType: models.Put, Side: models.Long, KLong: 105, KShort: 95, PremiumLong: 6, PremiumShort: 2, Qty: 3}
	legs, err := r.Legs()
	if err != nil {
		t.Fatal(err)
	}
	for _, s := range []float64{80, 95, 100, 105, 130} {
		got, err := PnL(legs, s)
		if err != nil {
			t.Fatal(err)
		}
		spread := math.Max(105-s, 0) - math.Max(95-s, 0)
		want := (spread - 4) * 300
		if math.Abs(got-want) > 1e-9 {
			t.Errorf("S=%v: pnl = %v, want %v", s, got, want)
		}
	}
}

func TestEvaluateVertical_InvalidSide(t *testing.T) {
	_, err := EvaluateVertical(VerticalRequest{OptionType: models.Call, Side: "both", KLong: 1, KShort: 2, Underlying: 1})
	if !errors.Is(err, errors.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}

func samePtr(a, b *float64) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return math.Abs(*a-*b) < 1e-9
}

func deref(v *float64) interface{} {
	if v == nil {
		return "unlimited"
	}
	return *v
}
