package ids

import (
	"crypto/rand"
	"fmt"
)

const (
	OrderPrefix   = "order_"
	PaymentPrefix = "pay_"

	suffixLen = 16
	alphabet  = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
)

// New returns prefix followed by a 16-character random alphanumeric suffix.
func New(prefix string) string {
	// 248 is the largest multiple of len(alphabet) that fits in a byte;
	// values at or above it are redrawn so no character is favored.
	const limit = 248
	out := make([]byte, 0, suffixLen)
	buf := make([]byte, suffixLen)
	for len(out) < suffixLen {
		if _, err := rand.Read(buf); err != nil {
			panic(fmt.Sprintf("ids: rand read failed: %v", err))
		}
		for _, b := range buf {
			if b >= limit {
				continue
			}
			out = append(out, alphabet[int(b)%len(alphabet)])
			if len(out) == suffixLen {
				break
			}
		}
	}
	return prefix + string(out)
}

func NewOrderID() string {
	return New(OrderPrefix)
}

func NewPaymentID() string {
	return New(PaymentPrefix)
}
