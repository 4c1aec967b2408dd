package util

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	mrand "math/rand"
)

// GenerateToken returns a random hex string from n bytes of entropy.
func GenerateToken(n int) (string, error) {
	buf := make([]byte, n)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}

// GenerateTrackingNumber returns a shipment tracking number in the
// SL-prefixed format carriers expect.
func GenerateTrackingNumber() string {
	return fmt.Sprintf("SL%04d%08d", mrand.Intn(10000), mrand.Intn(100000000))
}
