package instrument

import (
	"math/rand/v2"
	"strconv"
	"testing"
	"time"
)

func TestValidVPA(t *testing.T) {
	cases := []struct {
		vpa  string
		want bool
	}{
		{"user@bank", true},
		{"alice@upi", true},
		{"a.b_c-d@okhdfc", true},
		{"user bank@x", false},
		{"user@", false},
		{"@bank", false},
		{"user@bank.name", false},
		{"user@ bank", false},
		{"", false},
	}
	for _, c := range cases {
		if got := ValidVPA(c.vpa); got != c.want {
			t.Errorf("ValidVPA(%q) = %v, want %v", c.vpa, got, c.want)
		}
	}
}

func TestValidLuhn(t *testing.T) {
	cases := []struct {
		number string
		want   bool
	}{
		{"4111111111111111", true},
		{"4111 1111 1111 1111", true},
		{"4111-1111-1111-1111", true},
		{"5500000000000004", true},
		{"340000000000009", true},
		{"4111111111111112", false},
		{"411111111111", false},         // 12 digits
		{"41111111111111111111", false}, // 20 digits
		{"4111a11111111111", false},
		{"", false},
	}
	for _, c := range cases {
		if got := ValidLuhn(c.number); got != c.want {
			t.Errorf("ValidLuhn(%q) = %v, want %v", c.number, got, c.want)
		}
	}
}

// referenceLuhn is an independent implementation used to cross-check
// ValidLuhn over random numeric strings.
func referenceLuhn(s string) bool {
	sum := 0
	double := false
	for i := len(s) - 1; i >= 0; i-- {
		d := int(s[i] - '0')
		if double {
			d *= 2
			if d > 9 {
				d -= 9
			}
		}
		sum += d
		double = !double
	}
	return sum%10 == 0
}

func TestValidLuhn_MatchesReference(t *testing.T) {
	rng := rand.New(rand.NewPCG(42, 0))
	for i := 0; i < 5000; i++ {
		length := 13 + rng.IntN(7)
		digits := make([]byte, length)
		for j := range digits {
			digits[j] = byte('0' + rng.IntN(10))
		}
		s := string(digits)
		if got, want := ValidLuhn(s), referenceLuhn(s); got != want {
			t.Fatalf("ValidLuhn(%q) = %v, reference says %v", s, got, want)
		}
	}
}

func TestDetectNetwork(t *testing.T) {
	cases := []struct {
		number string
		want   Network
	}{
		{"4111111111111111", NetworkVisa},
		{"5500000000000004", NetworkMastercard},
		{"5100000000000000", NetworkMastercard},
		{"340000000000009", NetworkAmex},
		{"370000000000002", NetworkAmex},
		{"6000000000000000", NetworkRupay},
		{"6500000000000000", NetworkRupay},
		{"8100000000000000", NetworkRupay},
		{"8900000000000000", NetworkRupay},
		{"1234567890123456", NetworkUnknown},
		{"5600000000000000", NetworkUnknown},
		{"4", NetworkVisa},
		{"", NetworkUnknown},
	}
	for _, c := range cases {
		if got := DetectNetwork(c.number); got != c.want {
			t.Errorf("DetectNetwork(%q) = %q, want %q", c.number, got, c.want)
		}
	}
}

func TestValidExpiry(t *testing.T) {
	now := time.Date(2026, time.September, 1, 0, 0, 0, 0, time.UTC)

	t.Run("invalid month", func(t *testing.T) {
		for _, m := range []int{0, 13, -1, 100} {
			if validExpiryAt(m, 25, now) {
				t.Errorf("month %d accepted", m)
			}
		}
	})

	t.Run("past", func(t *testing.T) {
		if validExpiryAt(12, 25, now) {
			t.Error("past year accepted")
		}
		if validExpiryAt(8, 26, now) {
			t.Error("past month of current year accepted")
		}
		if validExpiryAt(12, 2025, now) {
			t.Error("past four-digit year accepted")
		}
	})

	t.Run("current month", func(t *testing.T) {
		if !validExpiryAt(9, 26, now) {
			t.Error("current month/year rejected")
		}
	})

	t.Run("future", func(t *testing.T) {
		if !validExpiryAt(10, 26, now) {
			t.Error("next month rejected")
		}
		if !validExpiryAt(1, 30, now) {
			t.Error("future year rejected")
		}
		if !validExpiryAt(1, 2030, now) {
			t.Error("four-digit future year rejected")
		}
	})

	t.Run("current clock accepts current month", func(t *testing.T) {
		n := time.Now()
		if !ValidExpiry(int(n.Month()), n.Year()%100) {
			t.Error("ValidExpiry rejected the current month/year")
		}
	})
}

func TestValidators_Pure(t *testing.T) {
	// repeated calls with identical input always agree
	for i := 0; i < 3; i++ {
		if !ValidVPA("user@bank") || ValidVPA("user@") {
			t.Fatal("ValidVPA result changed across calls")
		}
		if !ValidLuhn("4111111111111111") {
			t.Fatal("ValidLuhn result changed across calls")
		}
		if DetectNetwork(strconv.Itoa(4)) != NetworkVisa {
			t.Fatal("DetectNetwork result changed across calls")
		}
	}
}
