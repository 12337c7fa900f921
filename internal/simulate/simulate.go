// Package simulate models the bank leg of an authorization: a processing
// delay and a success/decline outcome. Test mode replaces both with
// caller-specified values so automated tests stay deterministic.
package simulate

import (
	"math/rand/v2"
	"time"

	"paygate/internal/models"
)

type Config struct {
	TestMode      bool
	FixedDelay    time.Duration
	ForcedSuccess bool

	MinDelay        time.Duration
	MaxDelay        time.Duration
	CardSuccessRate float64
	UPISuccessRate  float64
}

// Defaults returns the live configuration: a 5-10s simulated bank
// round trip and per-method approval rates.
func Defaults() Config {
	return Config{
		MinDelay:        5 * time.Second,
		MaxDelay:        10 * time.Second,
		CardSuccessRate: 0.95,
		UPISuccessRate:  0.90,
	}
}

// Rand is the source of randomness for delay and outcome draws.
type Rand interface {
	Float64() float64
}

type Simulator struct {
	cfg Config
	rng Rand
}

// New builds a simulator. A nil rng falls back to math/rand/v2.
func New(cfg Config, rng Rand) *Simulator {
	if rng == nil {
		rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	if cfg.MinDelay <= 0 {
		cfg.MinDelay = 5 * time.Second
	}
	if cfg.MaxDelay < cfg.MinDelay {
		cfg.MaxDelay = cfg.MinDelay
	}
	return &Simulator{cfg: cfg, rng: rng}
}

// Delay returns how long this authorization should wait before resolving.
func (s *Simulator) Delay(method models.PaymentMethod) time.Duration {
	if s.cfg.TestMode {
		return s.cfg.FixedDelay
	}
	span := s.cfg.MaxDelay - s.cfg.MinDelay
	return s.cfg.MinDelay + time.Duration(s.rng.Float64()*float64(span))
}

// Outcome draws the simulated bank decision for a structurally valid
// instrument.
func (s *Simulator) Outcome(method models.PaymentMethod) bool {
	if s.cfg.TestMode {
		return s.cfg.ForcedSuccess
	}
	threshold := s.cfg.CardSuccessRate
	if method == models.MethodUPI {
		threshold = s.cfg.UPISuccessRate
	}
	return s.rng.Float64() < threshold
}
