package simulate

import (
	"testing"
	"time"

	"paygate/internal/models"
)

type fixedRand struct{ v float64 }

func (f fixedRand) Float64() float64 { return f.v }

func TestDelay_TestMode(t *testing.T) {
	sim := New(Config{TestMode: true, FixedDelay: 25 * time.Millisecond}, nil)
	if d := sim.Delay(models.MethodCard); d != 25*time.Millisecond {
		t.Fatalf("expected fixed delay, got %v", d)
	}
}

func TestDelay_WithinRange(t *testing.T) {
	cfg := Defaults()
	sim := New(cfg, nil)
	for i := 0; i < 100; i++ {
		d := sim.Delay(models.MethodUPI)
		if d < cfg.MinDelay || d > cfg.MaxDelay {
			t.Fatalf("delay %v outside [%v, %v]", d, cfg.MinDelay, cfg.MaxDelay)
		}
	}
}

func TestDelay_RandMapsAcrossRange(t *testing.T) {
	cfg := Defaults()
	if d := New(cfg, fixedRand{0}).Delay(models.MethodCard); d != cfg.MinDelay {
		t.Errorf("draw 0 should give min delay, got %v", d)
	}
	if d := New(cfg, fixedRand{0.5}).Delay(models.MethodCard); d != cfg.MinDelay+(cfg.MaxDelay-cfg.MinDelay)/2 {
		t.Errorf("draw 0.5 should give the midpoint, got %v", d)
	}
}

func TestOutcome_TestMode(t *testing.T) {
	if !New(Config{TestMode: true, ForcedSuccess: true}, nil).Outcome(models.MethodUPI) {
		t.Error("forced success returned decline")
	}
	if New(Config{TestMode: true, ForcedSuccess: false}, nil).Outcome(models.MethodCard) {
		t.Error("forced decline returned success")
	}
}

func TestOutcome_Thresholds(t *testing.T) {
	cfg := Defaults()

	t.Run("card", func(t *testing.T) {
		if !New(cfg, fixedRand{0.94}).Outcome(models.MethodCard) {
			t.Error("draw below card threshold declined")
		}
		if New(cfg, fixedRand{0.96}).Outcome(models.MethodCard) {
			t.Error("draw above card threshold approved")
		}
	})

	t.Run("upi", func(t *testing.T) {
		if !New(cfg, fixedRand{0.89}).Outcome(models.MethodUPI) {
			t.Error("draw below upi threshold declined")
		}
		if New(cfg, fixedRand{0.92}).Outcome(models.MethodUPI) {
			t.Error("draw above upi threshold approved")
		}
	})
}
