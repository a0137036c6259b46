package webauthn

import (
	"math/big"
)

// P256N is the order of the P-256 base point.
var P256N, _ = new(big.Int).SetString("ffffffff00000000ffffffffffffffffbce6faada7179e84f3b9cac2fc632551", 16)

// NormalizeLowS returns (r, n-s) when s > n/2 and (r, s) otherwise. Neither input is modified.
func NormalizeLowS(r, s, n *big.Int) (*big.Int, *big.Int) {
	halfN := new(big.Int).Rsh(n, 1)
	if s.Cmp(halfN) > 0 {
		return new(big.Int).Set(r), new(big.Int).Sub(n, s)
	}
	return new(big.Int).Set(r), new(big.Int).Set(s)
}

// IsLowS reports whether s <= n/2.
func IsLowS(s, n *big.Int) bool {
	return s.Cmp(new(big.Int).Rsh(n, 1)) <= 0
}
