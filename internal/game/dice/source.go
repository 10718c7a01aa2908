package dice

import (
	"crypto/rand"
	"math/big"
)

// cryptoSource draws from crypto/rand so roll outcomes cannot be predicted
// or replayed across server restarts. It carries no state and is safe for
// concurrent use.
type cryptoSource struct{}

// NewCryptoSource returns the production entropy source for dice rolls.
func NewCryptoSource() Source {
	return &cryptoSource{}
}

// Intn returns a uniform random int in [0, n).
//
// Precondition: n > 0.
// A crypto/rand read failure is unrecoverable and panics rather than
// degrading to a biased or predictable draw.
func (c *cryptoSource) Intn(n int) int {
	if n <= 0 {
		panic("dice: Intn called with n <= 0")
	}
	val, err := rand.Int(rand.Reader, big.NewInt(int64(n)))
	if err != nil {
		panic("dice: reading crypto/rand: " + err.Error())
	}
	return int(val.Int64())
}
